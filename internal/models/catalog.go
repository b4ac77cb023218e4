package models

import "time"

type PropertyType struct {
	ID            int64     `gorm:"primaryKey" json:"id"`
	Name          string    `gorm:"size:128;not null;uniqueIndex" json:"name"`
	Sequence      int       `gorm:"not null" json:"sequence"`
	Description   string    `gorm:"type:text" json:"description"`
	Color         int       `json:"color"`
	PropertyCount int64     `gorm:"-" json:"property_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (PropertyType) TableName() string {
	return "property_types"
}

type PropertyTag struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:128;not null;uniqueIndex" json:"name"`
	Color     int       `json:"color"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (PropertyTag) TableName() string {
	return "property_tags"
}
