package dto

import (
	"encoding/json"
	"strings"

	"github.com/hugh/go-companies/internal/api/validation"
	"github.com/hugh/go-companies/internal/database/models"
)

const (
	postTitleMax = 40
	postTopicMax = 20
)

type CreatePostRequest struct {
	Title  string          `json:"title"`
	Text   string          `json:"text"`
	Topic  string          `json:"topic"`
	UserID json.RawMessage `json:"user_id"`
}

// OwnerID resolves user_id. ok is false when it is present but not an integer;
// a missing user_id yields fallback.
func (r CreatePostRequest) OwnerID(fallback uint) (uint, bool) {
	raw := strings.TrimSpace(string(r.UserID))
	if raw == "" || raw == "null" || raw == `""` {
		return fallback, true
	}
	return validation.ParseID(r.UserID)
}

func (r CreatePostRequest) Validate() map[string]string {
	errors := make(map[string]string)

	switch {
	case strings.TrimSpace(r.Title) == "":
		errors["title"] = msgRequired
	case validation.TooLong(r.Title, postTitleMax):
		errors["title"] = maxLength(postTitleMax)
	}
	if strings.TrimSpace(r.Text) == "" {
		errors["text"] = msgRequired
	}
	if validation.TooLong(r.Topic, postTopicMax) {
		errors["topic"] = maxLength(postTopicMax)
	}
	if _, ok := r.OwnerID(0); !ok {
		errors["user_id"] = "Incorrect type. Expected pk value."
	}

	return errors
}

func (r CreatePostRequest) Model(ownerID uint) *models.Post {
	return &models.Post{
		Title:  strings.TrimSpace(r.Title),
		Text:   r.Text,
		Topic:  r.Topic,
		UserID: ownerID,
	}
}

type UpdatePostRequest struct {
	Title *string `json:"title"`
	Text  *string `json:"text"`
	Topic *string `json:"topic"`
}

func (r UpdatePostRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Title != nil {
		switch {
		case strings.TrimSpace(*r.Title) == "":
			errors["title"] = msgBlank
		case validation.TooLong(*r.Title, postTitleMax):
			errors["title"] = maxLength(postTitleMax)
		}
	}
	if r.Text != nil && strings.TrimSpace(*r.Text) == "" {
		errors["text"] = msgBlank
	}
	if r.Topic != nil && validation.TooLong(*r.Topic, postTopicMax) {
		errors["topic"] = maxLength(postTopicMax)
	}

	return errors
}

func (r UpdatePostRequest) Apply(post *models.Post) {
	if r.Title != nil {
		post.Title = strings.TrimSpace(*r.Title)
	}
	if r.Text != nil {
		post.Text = *r.Text
	}
	if r.Topic != nil {
		post.Topic = *r.Topic
	}
}

type BulkUpdateRequest struct {
	PostsToUpdate []BulkPostEntry `json:"posts_to_update"`
}

// BulkPostEntry keeps the id raw so a non-integer id can be reported as such.
type BulkPostEntry struct {
	ID    json.RawMessage `json:"id"`
	Title string          `json:"title"`
	Text  string          `json:"text"`
	Topic string          `json:"topic"`
}

func (r BulkUpdateRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.PostsToUpdate == nil {
		errors["posts_to_update"] = msgRequired
	}

	return errors
}

// Validate applies the post field rules to the fields the entry sets. Empty
// fields are skipped since they keep the stored value.
func (e BulkPostEntry) Validate() map[string]string {
	errors := make(map[string]string)

	if e.Title != "" {
		switch {
		case strings.TrimSpace(e.Title) == "":
			errors["title"] = msgBlank
		case validation.TooLong(strings.TrimSpace(e.Title), postTitleMax):
			errors["title"] = maxLength(postTitleMax)
		}
	}
	if e.Text != "" && strings.TrimSpace(e.Text) == "" {
		errors["text"] = msgBlank
	}
	if validation.TooLong(e.Topic, postTopicMax) {
		errors["topic"] = maxLength(postTopicMax)
	}

	return errors
}

// NewTitle is the title the entry would store, "" when it keeps the old one.
func (e BulkPostEntry) NewTitle() string {
	return strings.TrimSpace(e.Title)
}

// Apply overwrites the fields of post that the entry sets.
func (e BulkPostEntry) Apply(post *models.Post) {
	if title := e.NewTitle(); title != "" {
		post.Title = title
	}
	if e.Text != "" {
		post.Text = e.Text
	}
	if e.Topic != "" {
		post.Topic = e.Topic
	}
}

// PostResponse is the full representation of a post.
type PostResponse struct {
	ID     uint   `json:"id"`
	Title  string `json:"title"`
	Text   string `json:"text"`
	Topic  string `json:"topic"`
	UserID uint   `json:"user_id"`
}

func NewPostResponse(p *models.Post) PostResponse {
	return PostResponse{
		ID:     p.ID,
		Title:  p.Title,
		Text:   p.Text,
		Topic:  p.Topic,
		UserID: p.UserID,
	}
}

func NewPostList(posts []models.Post) []PostResponse {
	out := make([]PostResponse, 0, len(posts))
	for i := range posts {
		out = append(out, NewPostResponse(&posts[i]))
	}
	return out
}

type PostAuthor struct {
	ID        uint   `json:"id"`
	FirstName string `json:"First Name"`
	LastName  string `json:"Last Name"`
}

// PostListItem is a post with a short description of its author.
type PostListItem struct {
	ID    uint       `json:"id"`
	Title string     `json:"title"`
	Text  string     `json:"text"`
	Topic string     `json:"topic"`
	User  PostAuthor `json:"user"`
}

// BuildPostListItems expects posts with their User preloaded.
func BuildPostListItems(posts []models.Post) []PostListItem {
	out := make([]PostListItem, 0, len(posts))
	for _, p := range posts {
		author := PostAuthor{ID: p.UserID}
		if p.User != nil {
			author.FirstName = p.User.FirstName
			author.LastName = p.User.LastName
		}
		out = append(out, PostListItem{
			ID:    p.ID,
			Title: p.Title,
			Text:  p.Text,
			Topic: p.Topic,
			User:  author,
		})
	}
	return out
}
