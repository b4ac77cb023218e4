package database

import (
	"gorm.io/gorm"

	"estate/server/internal/models"
)

func CreateMessages(tx *gorm.DB, messages []models.PropertyMessage) error {
	if len(messages) == 0 {
		return nil
	}
	return translate(tx.Create(&messages).Error, "create property messages")
}

// ListMessages returns the tracking log of a property, newest first
func ListMessages(tx *gorm.DB, propertyID int64) ([]models.PropertyMessage, error) {
	var messages []models.PropertyMessage
	err := tx.Where("property_id = ?", propertyID).Order("created_at DESC, id DESC").Find(&messages).Error
	if err != nil {
		return nil, translate(err, "list property messages")
	}
	return messages, nil
}
