package estate

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"estate/server/config"
	"estate/server/internal/database"
	"estate/server/internal/models"
)

const defaultTypeSequence = 10

type PropertyTypeInput struct {
	Name        *string `json:"name"`
	Sequence    *int    `json:"sequence"`
	Description *string `json:"description"`
	Color       *int    `json:"color"`
}

type PropertyTagInput struct {
	Name  *string `json:"name"`
	Color *int    `json:"color"`
}

func (in *PropertyTypeInput) apply(t *models.PropertyType) error {
	if in.Name != nil {
		name, err := requireName("name", *in.Name)
		if err != nil {
			return err
		}
		t.Name = name
	}
	setInt(&t.Sequence, in.Sequence)
	setString(&t.Description, in.Description)
	setInt(&t.Color, in.Color)
	return nil
}

func (in *PropertyTagInput) apply(t *models.PropertyTag) error {
	if in.Name != nil {
		name, err := requireName("name", *in.Name)
		if err != nil {
			return err
		}
		t.Name = name
	}
	setInt(&t.Color, in.Color)
	return nil
}

func typeConflict(err error) error {
	if errors.Is(err, database.ErrDuplicate) {
		return conflict("Property type name already exists!")
	}
	return err
}

func tagConflict(err error) error {
	if errors.Is(err, database.ErrDuplicate) {
		return conflict("Tag name already exists!")
	}
	return err
}

func (s *Service) CreatePropertyType(ctx context.Context, in PropertyTypeInput) (*models.PropertyType, error) {
	if in.Name == nil {
		return nil, validationf("The name is required")
	}
	t := &models.PropertyType{Sequence: defaultTypeSequence}
	if err := in.apply(t); err != nil {
		return nil, err
	}
	if err := database.CreatePropertyType(s.db.GetDB().WithContext(ctx), t); err != nil {
		return nil, typeConflict(err)
	}
	return t, nil
}

// ListPropertyTypes returns every type with its number of properties
func (s *Service) ListPropertyTypes(ctx context.Context) ([]models.PropertyType, error) {
	return database.ListPropertyTypes(s.db.GetDB().WithContext(ctx))
}

func (s *Service) GetPropertyType(ctx context.Context, id int64) (*models.PropertyType, error) {
	t, err := database.GetPropertyType(s.db.GetDB().WithContext(ctx), id)
	if err != nil {
		return nil, notFound(err, "Property type")
	}
	return t, nil
}

func (s *Service) UpdatePropertyType(ctx context.Context, id int64, in PropertyTypeInput) (*models.PropertyType, error) {
	var updated *models.PropertyType
	err := s.db.Transaction(ctx, func(tx *gorm.DB) error {
		t, err := database.GetPropertyType(tx, id)
		if err != nil {
			return notFound(err, "Property type")
		}
		if err := in.apply(t); err != nil {
			return err
		}
		if err := database.SavePropertyType(tx, t); err != nil {
			return typeConflict(err)
		}
		updated = t
		return nil
	})
	return updated, err
}

func (s *Service) DeletePropertyType(ctx context.Context, id int64) error {
	return s.db.Transaction(ctx, func(tx *gorm.DB) error {
		return notFound(database.DeletePropertyType(tx, id), "Property type")
	})
}

// ListTypeProperties lists the properties of one type
func (s *Service) ListTypeProperties(ctx context.Context, id int64, f models.PropertyFilter) ([]models.Property, int64, error) {
	if _, err := s.GetPropertyType(ctx, id); err != nil {
		return nil, 0, err
	}
	f.PropertyTypeID = id
	return s.ListProperties(ctx, f)
}

func (s *Service) CreatePropertyTag(ctx context.Context, in PropertyTagInput) (*models.PropertyTag, error) {
	if in.Name == nil {
		return nil, validationf("The name is required")
	}
	t := &models.PropertyTag{}
	if err := in.apply(t); err != nil {
		return nil, err
	}
	if err := database.CreatePropertyTag(s.db.GetDB().WithContext(ctx), t); err != nil {
		return nil, tagConflict(err)
	}
	return t, nil
}

func (s *Service) ListPropertyTags(ctx context.Context) ([]models.PropertyTag, error) {
	return database.ListPropertyTags(s.db.GetDB().WithContext(ctx))
}

func (s *Service) UpdatePropertyTag(ctx context.Context, id int64, in PropertyTagInput) (*models.PropertyTag, error) {
	var updated *models.PropertyTag
	err := s.db.Transaction(ctx, func(tx *gorm.DB) error {
		t, err := database.GetPropertyTag(tx, id)
		if err != nil {
			return notFound(err, "Tag")
		}
		if err := in.apply(t); err != nil {
			return err
		}
		if err := database.SavePropertyTag(tx, t); err != nil {
			return tagConflict(err)
		}
		updated = t
		return nil
	})
	return updated, err
}

func (s *Service) DeletePropertyTag(ctx context.Context, id int64) error {
	return s.db.Transaction(ctx, func(tx *gorm.DB) error {
		return notFound(database.DeletePropertyTag(tx, id), "Tag")
	})
}

// SeedCatalog creates the types and tags of the catalog that do not exist yet
func (s *Service) SeedCatalog(ctx context.Context, catalog *config.Catalog) (int, error) {
	if err := catalog.Validate(); err != nil {
		return 0, err
	}

	created := 0
	err := s.db.Transaction(ctx, func(tx *gorm.DB) error {
		created = 0
		for _, ct := range catalog.PropertyTypes {
			_, err := database.FindPropertyTypeByName(tx, ct.Name)
			if err == nil {
				continue
			}
			if !errors.Is(err, database.ErrNotFound) {
				return err
			}
			t := &models.PropertyType{Name: ct.Name, Sequence: ct.Sequence, Description: ct.Description, Color: ct.Color}
			if t.Sequence == 0 {
				t.Sequence = defaultTypeSequence
			}
			if err := database.CreatePropertyType(tx, t); err != nil {
				return err
			}
			created++
		}
		for _, ct := range catalog.PropertyTags {
			_, err := database.FindPropertyTagByName(tx, ct.Name)
			if err == nil {
				continue
			}
			if !errors.Is(err, database.ErrNotFound) {
				return err
			}
			if err := database.CreatePropertyTag(tx, &models.PropertyTag{Name: ct.Name, Color: ct.Color}); err != nil {
				return err
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}
