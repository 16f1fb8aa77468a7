package models

type User struct {
	Base
	Email           string  `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash    string  `gorm:"column:password;not null" json:"-"`
	FirstName       string  `gorm:"size:30" json:"first_name"`
	LastName        string  `gorm:"size:50" json:"last_name"`
	UserType        Role    `gorm:"size:12;not null;default:'client'" json:"user_type"`
	CompanyID       *uint   `gorm:"index" json:"company_id"`
	Avatar          *string `json:"avatar"`
	TelephoneNumber string  `json:"telephone_number"`
	IsActive        bool    `gorm:"default:true" json:"is_active"`
	IsSuperAdmin    bool    `gorm:"default:false" json:"is_super_admin"`
	IsDeleted       bool    `gorm:"default:false" json:"is_deleted"`

	// Relationships
	Company *Company `gorm:"foreignKey:CompanyID;constraint:OnDelete:SET NULL" json:"company,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// HasCompany reports whether the user is attached to a company.
func (u *User) HasCompany() bool {
	return u.CompanyID != nil
}
