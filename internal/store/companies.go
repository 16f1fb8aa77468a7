package store

import (
	"context"

	"github.com/hugh/go-companies/internal/database/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CompanyRepo struct {
	db *gorm.DB
}

func NewCompanyRepo(db *gorm.DB) *CompanyRepo {
	return &CompanyRepo{db: db}
}

// List returns companies newest foundation date first.
func (r *CompanyRepo) List(ctx context.Context) ([]models.Company, error) {
	var companies []models.Company
	err := r.db.WithContext(ctx).
		Order("date_created DESC").
		Order("id ASC").
		Find(&companies).Error
	if err != nil {
		return nil, translate(err, "listing companies")
	}
	return companies, nil
}

func (r *CompanyRepo) Get(ctx context.Context, id uint) (*models.Company, error) {
	var company models.Company
	if err := r.db.WithContext(ctx).First(&company, id).Error; err != nil {
		return nil, translate(err, "getting company %d", id)
	}
	return &company, nil
}

func (r *CompanyRepo) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Company{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, translate(err, "checking company %d", id)
	}
	return count > 0, nil
}

func (r *CompanyRepo) Create(ctx context.Context, company *models.Company) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(company).Error; err != nil {
		return translate(err, "creating company")
	}
	return nil
}

func (r *CompanyRepo) Update(ctx context.Context, company *models.Company) error {
	result := r.db.WithContext(ctx).
		Model(&models.Company{}).
		Where("id = ?", company.ID).
		Updates(map[string]interface{}{
			"name":         company.Name,
			"url":          company.URL,
			"address":      company.Address,
			"date_created": company.DateCreated,
			"logo":         company.Logo,
		})
	if result.Error != nil {
		return translate(result.Error, "updating company %d", company.ID)
	}
	if result.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "updating company %d", company.ID)
	}
	return nil
}
