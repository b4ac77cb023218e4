package estate

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"estate/server/internal/database"
	"estate/server/internal/models"
)

const defaultImageSequence = 10

var allowedImageExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// ImageInput describes an uploaded image; FileName is the client side name
type ImageInput struct {
	Name        string
	Description string
	Sequence    *int
	FileName    string
}

// AddImage stores the uploaded file under the upload directory and attaches it to the property
func (s *Service) AddImage(ctx context.Context, propertyID int64, in ImageInput, content io.Reader) (*models.PropertyImage, error) {
	ext := strings.ToLower(filepath.Ext(in.FileName))
	contentType, ok := allowedImageExtensions[ext]
	if !ok {
		return nil, validationf("Unsupported image type %q, allowed: .jpg, .jpeg, .png, .gif, .webp", ext)
	}
	if _, err := s.GetProperty(ctx, propertyID); err != nil {
		return nil, err
	}

	dir := filepath.Join(s.uploadDir, "properties", fmt.Sprint(propertyID))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	fileName := uuid.New().String() + ext
	path := filepath.Join(dir, fileName)
	if err := writeFile(path, content); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(in.FileName), filepath.Ext(in.FileName))
	}
	img := &models.PropertyImage{
		PropertyID:  propertyID,
		Name:        name,
		Sequence:    defaultImageSequence,
		FilePath:    path,
		URL:         fmt.Sprintf("/uploads/properties/%d/%s", propertyID, fileName),
		ContentType: contentType,
		Description: strings.TrimSpace(in.Description),
	}
	setInt(&img.Sequence, in.Sequence)

	if err := database.CreateImage(s.db.GetDB().WithContext(ctx), img); err != nil {
		s.removeFiles(path)
		return nil, err
	}
	return img, nil
}

func writeFile(path string, content io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create image file: %w", err)
	}
	if _, err := io.Copy(f, content); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("failed to write image file: %w", err)
	}
	return f.Close()
}

func (s *Service) ListImages(ctx context.Context, propertyID int64) ([]models.PropertyImage, error) {
	if _, err := s.GetProperty(ctx, propertyID); err != nil {
		return nil, err
	}
	return database.ListImages(s.db.GetDB().WithContext(ctx), propertyID)
}

// DeleteImage removes an image of the property and its file
func (s *Service) DeleteImage(ctx context.Context, propertyID, imageID int64) error {
	var path string
	err := s.db.Transaction(ctx, func(tx *gorm.DB) error {
		img, err := database.GetImage(tx, imageID)
		if err != nil {
			return notFound(err, "Image")
		}
		if img.PropertyID != propertyID {
			return notFound(database.ErrNotFound, "Image")
		}
		path = img.FilePath
		return database.DeleteImage(tx, img)
	})
	if err != nil {
		return err
	}
	s.removeFiles(path)
	return nil
}

// SetMainImage selects the cover image of a property; it must belong to that property
func (s *Service) SetMainImage(ctx context.Context, propertyID, imageID int64) (*models.Property, error) {
	var updated *models.Property
	err := s.db.Transaction(ctx, func(tx *gorm.DB) error {
		p, err := database.LockProperty(tx, propertyID)
		if err != nil {
			return notFound(err, "Property")
		}
		img, err := database.GetImage(tx, imageID)
		if err != nil {
			return notFound(err, "Image")
		}
		if img.PropertyID != p.ID {
			return validationf("The main image must belong to the property.")
		}

		p.MainImageID = &img.ID
		if err := database.SaveProperty(tx, p); err != nil {
			return err
		}
		updated, err = database.GetProperty(tx, propertyID)
		return err
	})
	return updated, err
}
