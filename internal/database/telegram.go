package database

import (
	"errors"

	"gorm.io/gorm"

	"estate/server/internal/models"
)

// GetTelegramConfig returns the stored configuration, nil when none was saved yet
func (d *Database) GetTelegramConfig() (*models.TelegramConfig, error) {
	var config models.TelegramConfig
	err := d.db.Order("id").First(&config).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, translate(err, "get telegram config")
	}
	return &config, nil
}

// UpdateTelegramConfig stores the single configuration row
func (d *Database) UpdateTelegramConfig(request *models.TelegramConfigRequest) error {
	return d.db.Transaction(func(tx *gorm.DB) error {
		var config models.TelegramConfig
		err := tx.Order("id").First(&config).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return translate(err, "get telegram config")
		}

		config.IsEnabled = request.IsEnabled
		config.BotToken = request.BotToken
		config.ChatID = request.ChatID
		config.Filters = request.Filters
		return translate(tx.Save(&config).Error, "save telegram config")
	})
}
