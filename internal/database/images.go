package database

import (
	"fmt"

	"gorm.io/gorm"

	"estate/server/internal/models"
)

func CreateImage(tx *gorm.DB, img *models.PropertyImage) error {
	return translate(tx.Create(img).Error, "create image")
}

func GetImage(tx *gorm.DB, id int64) (*models.PropertyImage, error) {
	var img models.PropertyImage
	if err := tx.First(&img, id).Error; err != nil {
		return nil, translate(err, fmt.Sprintf("get image %d", id))
	}
	return &img, nil
}

func ListImages(tx *gorm.DB, propertyID int64) ([]models.PropertyImage, error) {
	var images []models.PropertyImage
	if err := tx.Where("property_id = ?", propertyID).Order("sequence, id").Find(&images).Error; err != nil {
		return nil, translate(err, "list images")
	}
	return images, nil
}

// DeleteImage removes the image row and clears it as main image of its property
func DeleteImage(tx *gorm.DB, img *models.PropertyImage) error {
	err := tx.Model(&models.Property{}).
		Where("id = ? AND main_image_id = ?", img.PropertyID, img.ID).
		Update("main_image_id", nil).Error
	if err != nil {
		return translate(err, "clear main image")
	}
	return translate(tx.Delete(img).Error, "delete image")
}
