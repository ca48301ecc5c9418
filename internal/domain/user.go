package domain

import "time"

// User is an authenticated owner of links.
type User struct {
	ID           int64      `gorm:"primaryKey;column:id" json:"id"`
	Email        string     `gorm:"column:email;uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"column:password_hash;not null" json:"-"`
	LastLoginAt  *time.Time `gorm:"column:last_login_at" json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	// Relationships
	Links []Link `gorm:"foreignKey:OwnerID" json:"-"`
}

// TableName returns the table name for GORM
func (User) TableName() string {
	return "users"
}
