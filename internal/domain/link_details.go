package domain

import "time"

// LinkDetails is one row per visit on a link. Geolocation columns are
// best-effort: when the provider lookup fails the row is still written
// with only IP, user agent and timestamp filled in. Rows are never
// mutated after creation.
type LinkDetails struct {
	ID           int64     `gorm:"primaryKey;column:id" json:"id"`
	LinkID       int64     `gorm:"column:link_id;not null;index" json:"link_id"`
	IP           string    `gorm:"column:ip;size:45" json:"ip"`
	Continent    string    `gorm:"column:continent;size:32" json:"continent,omitempty"`
	CountryCode  string    `gorm:"column:country_code;size:2" json:"country_code,omitempty"`
	CountryName  string    `gorm:"column:country_name;size:100" json:"country_name,omitempty"`
	RegionCode   string    `gorm:"column:region_code;size:10" json:"region_code,omitempty"`
	RegionName   string    `gorm:"column:region_name;size:100" json:"region_name,omitempty"`
	City         string    `gorm:"column:city;size:100" json:"city,omitempty"`
	Latitude     float64   `gorm:"column:latitude" json:"latitude,omitempty"`
	Longitude    float64   `gorm:"column:longitude" json:"longitude,omitempty"`
	CountryEmoji string    `gorm:"column:country_emoji;size:16" json:"country_emoji,omitempty"`
	UserAgent    string    `gorm:"column:user_agent;type:text" json:"user_agent,omitempty"`
	DeviceType   string    `gorm:"column:device_type;size:10" json:"device_type,omitempty"`
	Date         time.Time `gorm:"column:date;index" json:"date"`

	// Relationships
	Link *Link `gorm:"foreignKey:LinkID" json:"-"`
}

// TableName returns the table name for GORM
func (LinkDetails) TableName() string {
	return "link_details"
}

// HasGeo reports whether the enrichment lookup produced any location data.
func (d *LinkDetails) HasGeo() bool {
	return d.CountryCode != ""
}
