package database

import (
	"fmt"

	"gorm.io/gorm"

	"estate/server/internal/models"
)

// ListPropertyTypes returns the property types ordered by sequence and name with their property counts
func ListPropertyTypes(tx *gorm.DB) ([]models.PropertyType, error) {
	var types []models.PropertyType
	if err := tx.Order("sequence, name").Find(&types).Error; err != nil {
		return nil, translate(err, "list property types")
	}

	counts, err := propertyCountsByType(tx)
	if err != nil {
		return nil, err
	}
	for i := range types {
		types[i].PropertyCount = counts[types[i].ID]
	}
	return types, nil
}

func GetPropertyType(tx *gorm.DB, id int64) (*models.PropertyType, error) {
	var t models.PropertyType
	if err := tx.First(&t, id).Error; err != nil {
		return nil, translate(err, fmt.Sprintf("get property type %d", id))
	}
	if err := tx.Model(&models.Property{}).Where("property_type_id = ?", id).Count(&t.PropertyCount).Error; err != nil {
		return nil, translate(err, "count properties of type")
	}
	return &t, nil
}

func FindPropertyTypeByName(tx *gorm.DB, name string) (*models.PropertyType, error) {
	var t models.PropertyType
	if err := tx.Where("name = ?", name).First(&t).Error; err != nil {
		return nil, translate(err, "find property type "+name)
	}
	return &t, nil
}

func CreatePropertyType(tx *gorm.DB, t *models.PropertyType) error {
	return translate(tx.Create(t).Error, "create property type")
}

func SavePropertyType(tx *gorm.DB, t *models.PropertyType) error {
	return translate(tx.Save(t).Error, "save property type")
}

// DeletePropertyType removes the type; properties of that type keep existing without a type
func DeletePropertyType(tx *gorm.DB, id int64) error {
	if err := tx.Model(&models.Property{}).Where("property_type_id = ?", id).Update("property_type_id", nil).Error; err != nil {
		return translate(err, "detach properties from type")
	}
	result := tx.Delete(&models.PropertyType{}, id)
	if result.Error != nil {
		return translate(result.Error, "delete property type")
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("delete property type %d: %w", id, ErrNotFound)
	}
	return nil
}

func propertyCountsByType(tx *gorm.DB) (map[int64]int64, error) {
	var rows []struct {
		PropertyTypeID int64
		Count          int64
	}
	err := tx.Model(&models.Property{}).
		Select("property_type_id, COUNT(*) AS count").
		Where("property_type_id IS NOT NULL").
		Group("property_type_id").
		Scan(&rows).Error
	if err != nil {
		return nil, translate(err, "count properties by type")
	}

	counts := make(map[int64]int64, len(rows))
	for _, r := range rows {
		counts[r.PropertyTypeID] = r.Count
	}
	return counts, nil
}

func ListPropertyTags(tx *gorm.DB) ([]models.PropertyTag, error) {
	var tags []models.PropertyTag
	if err := tx.Order("name").Find(&tags).Error; err != nil {
		return nil, translate(err, "list property tags")
	}
	return tags, nil
}

func GetPropertyTag(tx *gorm.DB, id int64) (*models.PropertyTag, error) {
	var t models.PropertyTag
	if err := tx.First(&t, id).Error; err != nil {
		return nil, translate(err, fmt.Sprintf("get property tag %d", id))
	}
	return &t, nil
}

func FindPropertyTagByName(tx *gorm.DB, name string) (*models.PropertyTag, error) {
	var t models.PropertyTag
	if err := tx.Where("name = ?", name).First(&t).Error; err != nil {
		return nil, translate(err, "find property tag "+name)
	}
	return &t, nil
}

func CreatePropertyTag(tx *gorm.DB, t *models.PropertyTag) error {
	return translate(tx.Create(t).Error, "create property tag")
}

func SavePropertyTag(tx *gorm.DB, t *models.PropertyTag) error {
	return translate(tx.Save(t).Error, "save property tag")
}

func DeletePropertyTag(tx *gorm.DB, id int64) error {
	if err := tx.Exec("DELETE FROM property_tag_rel WHERE property_tag_id = ?", id).Error; err != nil {
		return translate(err, "delete tag links")
	}
	result := tx.Delete(&models.PropertyTag{}, id)
	if result.Error != nil {
		return translate(result.Error, "delete property tag")
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("delete property tag %d: %w", id, ErrNotFound)
	}
	return nil
}
