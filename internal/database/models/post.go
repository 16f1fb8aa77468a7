package models

type Post struct {
	Base
	Title  string `gorm:"size:40;uniqueIndex;not null" json:"title"`
	UserID uint   `gorm:"index;not null" json:"user_id"`
	Text   string `gorm:"type:text;not null" json:"text"`
	Topic  string `gorm:"size:20" json:"topic"`

	// Relationships
	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
}

func (Post) TableName() string {
	return "posts"
}
