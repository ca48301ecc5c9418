package domain

import "time"

// Link represents a shortened URL. The short code is derived from the
// store-assigned id and is immutable once set. OwnerID stays nil for
// anonymously created links until a sync claims them.
type Link struct {
	ID         int64     `gorm:"primaryKey;column:id" json:"id"`
	LongURL    string    `gorm:"column:long_url;type:text;not null" json:"long_url"`
	ShortCode  string    `gorm:"column:short_code;size:16;uniqueIndex" json:"short_code"`
	OwnerID    *int64    `gorm:"column:owner_id;index" json:"owner_id,omitempty"`
	VisitCount int64     `gorm:"column:visit_count;not null;default:0" json:"visit_count"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`

	// Relationships
	Owner *User `gorm:"foreignKey:OwnerID" json:"-"`
}

// TableName returns the table name for GORM
func (Link) TableName() string {
	return "links"
}

// IsOwnedBy reports whether the link belongs to the given user.
func (l *Link) IsOwnedBy(userID int64) bool {
	return l.OwnerID != nil && *l.OwnerID == userID
}
