package models

import "time"

// PropertyMessage records one tracked field change on a property
type PropertyMessage struct {
	ID         int64     `gorm:"primaryKey" json:"id"`
	PropertyID int64     `gorm:"not null;index" json:"property_id"`
	Field      string    `gorm:"size:64;not null" json:"field"`
	OldValue   string    `gorm:"type:text" json:"old_value"`
	NewValue   string    `gorm:"type:text" json:"new_value"`
	CreatedAt  time.Time `json:"created_at"`
}

func (PropertyMessage) TableName() string {
	return "property_messages"
}
