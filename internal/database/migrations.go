package database

import (
	"fmt"

	"estate/server/internal/models"
)

// AllModels lists every table managed by the service, parents first
var AllModels = []interface{}{
	&models.Partner{},
	&models.PropertyType{},
	&models.PropertyTag{},
	&models.Property{},
	&models.PropertyOffer{},
	&models.PropertyImage{},
	&models.PropertyMessage{},
	&models.TelegramConfig{},
}

func (d *Database) RunMigrations() error {
	if err := d.db.AutoMigrate(AllModels...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	// At most one accepted offer per property, enforced by the storage layer as well
	err := d.db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_property_offers_one_accepted
		ON property_offers(property_id)
		WHERE status = 'accepted';
	`).Error
	if err != nil {
		return fmt.Errorf("failed to create accepted offer index: %w", err)
	}

	// Create spatial index on coordinates
	err = d.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_properties_coordinates
		ON properties(latitude, longitude);
	`).Error
	if err != nil {
		return fmt.Errorf("failed to create coordinates index: %w", err)
	}

	d.logger.Info("Database migrations completed")
	return nil
}
