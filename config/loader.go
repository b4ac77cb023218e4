package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// CatalogType is a property type entry of the seed catalog
type CatalogType struct {
	Name        string `json:"name"`
	Sequence    int    `json:"sequence"`
	Description string `json:"description"`
	Color       int    `json:"color"`
}

// CatalogTag is a property tag entry of the seed catalog
type CatalogTag struct {
	Name  string `json:"name"`
	Color int    `json:"color"`
}

// Catalog holds the default property types and tags installed by the seed command
type Catalog struct {
	PropertyTypes []CatalogType `json:"property_types"`
	PropertyTags  []CatalogTag  `json:"property_tags"`
}

// LoadCatalog loads the seed catalog from a JSON file
func LoadCatalog(path string) (*Catalog, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var catalog Catalog
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	if err := catalog.Validate(); err != nil {
		return nil, err
	}
	return &catalog, nil
}

// SaveCatalog writes the catalog to a JSON file
func SaveCatalog(path string, catalog *Catalog) error {
	if catalog == nil {
		return fmt.Errorf("no catalog to save")
	}

	data, err := json.MarshalIndent(catalog, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write catalog file: %w", err)
	}
	return nil
}

// Validate rejects empty and duplicate names, compared case-insensitively
func (c *Catalog) Validate() error {
	seen := make(map[string]bool)
	for i, t := range c.PropertyTypes {
		name := strings.ToLower(strings.TrimSpace(t.Name))
		if name == "" {
			return fmt.Errorf("property type %d has no name", i)
		}
		if seen[name] {
			return fmt.Errorf("duplicate property type: %s", t.Name)
		}
		seen[name] = true
	}

	seen = make(map[string]bool)
	for i, t := range c.PropertyTags {
		name := strings.ToLower(strings.TrimSpace(t.Name))
		if name == "" {
			return fmt.Errorf("property tag %d has no name", i)
		}
		if seen[name] {
			return fmt.Errorf("duplicate property tag: %s", t.Name)
		}
		seen[name] = true
	}
	return nil
}

// TypeNames returns the names of the catalog property types in file order
func (c *Catalog) TypeNames() []string {
	names := make([]string, len(c.PropertyTypes))
	for i, t := range c.PropertyTypes {
		names[i] = t.Name
	}
	return names
}
