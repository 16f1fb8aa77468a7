package store

import (
	"context"
	"strings"

	"github.com/hugh/go-companies/internal/database/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostFilter holds optional case-insensitive substring filters. Set fields are
// combined with AND; an empty filter matches every post.
type PostFilter struct {
	Title   string
	Text    string
	Topic   string
	Company string
}

func (f PostFilter) IsZero() bool {
	return f.Title == "" && f.Text == "" && f.Topic == "" && f.Company == ""
}

type PostRepo struct {
	db *gorm.DB
}

func NewPostRepo(db *gorm.DB) *PostRepo {
	return &PostRepo{db: db}
}

func (r *PostRepo) List(ctx context.Context, filter PostFilter) ([]models.Post, error) {
	query := r.db.WithContext(ctx).Model(&models.Post{}).Preload("User")

	if !filter.IsZero() {
		query = query.
			Joins("JOIN users ON users.id = posts.user_id").
			Joins("LEFT JOIN companies ON companies.id = users.company_id")

		query = whereContains(query, "posts.title", filter.Title)
		query = whereContains(query, "posts.text", filter.Text)
		query = whereContains(query, "posts.topic", filter.Topic)
		query = whereContains(query, "companies.name", filter.Company)
	}

	var posts []models.Post
	if err := query.Order("posts.id ASC").Find(&posts).Error; err != nil {
		return nil, translate(err, "listing posts")
	}
	return posts, nil
}

func (r *PostRepo) ListByUsers(ctx context.Context, userIDs []uint) ([]models.Post, error) {
	if len(userIDs) == 0 {
		return []models.Post{}, nil
	}

	var posts []models.Post
	err := r.db.WithContext(ctx).
		Where("user_id IN ?", userIDs).
		Order("id ASC").
		Find(&posts).Error
	if err != nil {
		return nil, translate(err, "listing posts by user")
	}
	return posts, nil
}

func (r *PostRepo) ListByCompany(ctx context.Context, companyID uint) ([]models.Post, error) {
	var posts []models.Post
	err := r.db.WithContext(ctx).
		Joins("JOIN users ON users.id = posts.user_id").
		Where("users.company_id = ?", companyID).
		Order("posts.id ASC").
		Find(&posts).Error
	if err != nil {
		return nil, translate(err, "listing posts of company %d", companyID)
	}
	return posts, nil
}

func (r *PostRepo) Get(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		return nil, translate(err, "getting post %d", id)
	}
	return &post, nil
}

// TitleTaken reports whether another post already uses title. exceptID of 0
// checks against every post.
func (r *PostRepo) TitleTaken(ctx context.Context, title string, exceptID uint) (bool, error) {
	query := r.db.WithContext(ctx).Model(&models.Post{}).Where("title = ?", title)
	if exceptID != 0 {
		query = query.Where("id <> ?", exceptID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, translate(err, "checking title")
	}
	return count > 0, nil
}

func (r *PostRepo) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error; err != nil {
		return translate(err, "creating post")
	}
	return nil
}

func (r *PostRepo) Update(ctx context.Context, post *models.Post) error {
	return updatePost(r.db.WithContext(ctx), post)
}

func (r *PostRepo) BulkUpdate(ctx context.Context, posts []models.Post) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range posts {
			if err := updatePost(tx, &posts[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *PostRepo) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Post{}, id)
	if result.Error != nil {
		return translate(result.Error, "deleting post %d", id)
	}
	if result.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "deleting post %d", id)
	}
	return nil
}

// updatePost writes the mutable columns only; the owner never changes.
func updatePost(db *gorm.DB, post *models.Post) error {
	result := db.Model(&models.Post{}).
		Where("id = ?", post.ID).
		Updates(map[string]interface{}{
			"title": post.Title,
			"text":  post.Text,
			"topic": post.Topic,
		})
	if result.Error != nil {
		return translate(result.Error, "updating post %d", post.ID)
	}
	if result.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "updating post %d", post.ID)
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func whereContains(query *gorm.DB, column, value string) *gorm.DB {
	if value == "" {
		return query
	}
	pattern := "%" + likeEscaper.Replace(strings.ToLower(value)) + "%"
	return query.Where("LOWER("+column+") LIKE ? ESCAPE '\\'", pattern)
}
