package models

import "time"

type PropertyImage struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	PropertyID  int64     `gorm:"not null;index" json:"property_id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Sequence    int       `gorm:"not null" json:"sequence"`
	FilePath    string    `gorm:"size:512;not null" json:"-"`
	URL         string    `gorm:"size:512;not null" json:"url"`
	ContentType string    `gorm:"size:64" json:"content_type"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

func (PropertyImage) TableName() string {
	return "property_images"
}
