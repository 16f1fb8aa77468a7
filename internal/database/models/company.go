package models

import "time"

type Company struct {
	Base
	Name        string    `gorm:"size:50;not null" json:"name"`
	URL         string    `gorm:"column:url" json:"url"`
	Address     string    `gorm:"size:200" json:"address"`
	DateCreated time.Time `gorm:"type:date;not null;index" json:"date_created"`
	Logo        *string   `json:"logo"`

	// Relationships
	Users []User `gorm:"foreignKey:CompanyID" json:"-"`
}

func (Company) TableName() string {
	return "companies"
}
