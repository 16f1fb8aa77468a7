package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/hugh/go-companies/internal/database/models"
	"github.com/hugh/go-companies/pkg/crypto"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepo persists users. Telephone numbers are sealed with cipher on write
// and opened on read.
type UserRepo struct {
	db     *gorm.DB
	cipher *crypto.FieldCipher
}

func NewUserRepo(db *gorm.DB, cipher *crypto.FieldCipher) *UserRepo {
	return &UserRepo{db: db, cipher: cipher}
}

func (r *UserRepo) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).Preload("Company").Order("id ASC").Find(&users).Error; err != nil {
		return nil, translate(err, "listing users")
	}
	return users, r.openAll(users)
}

func (r *UserRepo) ListByCompanies(ctx context.Context, companyIDs []uint) ([]models.User, error) {
	if len(companyIDs) == 0 {
		return []models.User{}, nil
	}

	var users []models.User
	err := r.db.WithContext(ctx).
		Where("company_id IN ?", companyIDs).
		Order("id ASC").
		Find(&users).Error
	if err != nil {
		return nil, translate(err, "listing users by company")
	}
	return users, r.openAll(users)
}

func (r *UserRepo) Get(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err, "getting user %d", id)
	}
	return &user, r.open(&user)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("LOWER(email) = ?", strings.ToLower(email)).
		First(&user).Error
	if err != nil {
		return nil, translate(err, "getting user by email")
	}
	return &user, r.open(&user)
}

func (r *UserRepo) EmailTaken(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("LOWER(email) = ?", strings.ToLower(email)).
		Count(&count).Error
	if err != nil {
		return false, translate(err, "checking email")
	}
	return count > 0, nil
}

func (r *UserRepo) Create(ctx context.Context, user *models.User) error {
	phone := user.TelephoneNumber
	sealed, err := r.cipher.Seal(phone)
	if err != nil {
		return fmt.Errorf("sealing telephone number: %w", err)
	}

	user.TelephoneNumber = sealed
	err = r.db.WithContext(ctx).Omit(clause.Associations).Create(user).Error
	user.TelephoneNumber = phone
	if err != nil {
		return translate(err, "creating user")
	}
	return nil
}

// Update writes the profile fields and flags of user.
func (r *UserRepo) Update(ctx context.Context, user *models.User) error {
	sealed, err := r.cipher.Seal(user.TelephoneNumber)
	if err != nil {
		return fmt.Errorf("sealing telephone number: %w", err)
	}

	result := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]interface{}{
			"first_name":       user.FirstName,
			"last_name":        user.LastName,
			"avatar":           user.Avatar,
			"telephone_number": sealed,
			"company_id":       user.CompanyID,
			"user_type":        user.UserType,
			"is_active":        user.IsActive,
			"is_deleted":       user.IsDeleted,
		})
	if result.Error != nil {
		return translate(result.Error, "updating user %d", user.ID)
	}
	if result.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "updating user %d", user.ID)
	}
	return nil
}

// Delete removes the user and, with it, every post the user owns.
func (r *UserRepo) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&models.Post{}).Error; err != nil {
			return translate(err, "deleting posts of user %d", id)
		}
		result := tx.Delete(&models.User{}, id)
		if result.Error != nil {
			return translate(result.Error, "deleting user %d", id)
		}
		if result.RowsAffected == 0 {
			return translate(gorm.ErrRecordNotFound, "deleting user %d", id)
		}
		return nil
	})
}

// SoftDelete keeps the row but marks it deleted and inactive.
func (r *UserRepo) SoftDelete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_active":  false,
			"is_deleted": true,
		})
	if result.Error != nil {
		return translate(result.Error, "soft deleting user %d", id)
	}
	if result.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "soft deleting user %d", id)
	}
	return nil
}

func (r *UserRepo) open(user *models.User) error {
	phone, err := r.cipher.Open(user.TelephoneNumber)
	if err != nil {
		return fmt.Errorf("opening telephone number of user %d: %w", user.ID, err)
	}
	user.TelephoneNumber = phone
	return nil
}

func (r *UserRepo) openAll(users []models.User) error {
	for i := range users {
		if err := r.open(&users[i]); err != nil {
			return err
		}
	}
	return nil
}
