// Package store holds the repository interfaces the HTTP layer depends on and
// their gorm implementations.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/hugh/go-companies/internal/database/models"
	"github.com/hugh/go-companies/pkg/crypto"
	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

type CompanyStore interface {
	List(ctx context.Context) ([]models.Company, error)
	Get(ctx context.Context, id uint) (*models.Company, error)
	Exists(ctx context.Context, id uint) (bool, error)
	Create(ctx context.Context, company *models.Company) error
	Update(ctx context.Context, company *models.Company) error
}

type UserStore interface {
	// List returns every user with its company preloaded.
	List(ctx context.Context) ([]models.User, error)
	ListByCompanies(ctx context.Context, companyIDs []uint) ([]models.User, error)
	Get(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	EmailTaken(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uint) error
	SoftDelete(ctx context.Context, id uint) error
}

type PostStore interface {
	// List returns posts matching filter with their owners preloaded.
	List(ctx context.Context, filter PostFilter) ([]models.Post, error)
	ListByUsers(ctx context.Context, userIDs []uint) ([]models.Post, error)
	ListByCompany(ctx context.Context, companyID uint) ([]models.Post, error)
	Get(ctx context.Context, id uint) (*models.Post, error)
	TitleTaken(ctx context.Context, title string, exceptID uint) (bool, error)
	Create(ctx context.Context, post *models.Post) error
	Update(ctx context.Context, post *models.Post) error
	// BulkUpdate writes title, text and topic of every post in one transaction.
	BulkUpdate(ctx context.Context, posts []models.Post) error
	Delete(ctx context.Context, id uint) error
}

// Stores bundles the gorm-backed repositories.
type Stores struct {
	Companies *CompanyRepo
	Users     *UserRepo
	Posts     *PostRepo
}

// New builds all repositories over db. cipher may be nil.
func New(db *gorm.DB, cipher *crypto.FieldCipher) *Stores {
	return &Stores{
		Companies: NewCompanyRepo(db),
		Users:     NewUserRepo(db, cipher),
		Posts:     NewPostRepo(db),
	}
}

// translate maps gorm errors onto the package sentinels.
func translate(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		err = ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		err = ErrDuplicate
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Compile-time interface satisfaction checks
var (
	_ CompanyStore = (*CompanyRepo)(nil)
	_ UserStore    = (*UserRepo)(nil)
	_ PostStore    = (*PostRepo)(nil)
)
