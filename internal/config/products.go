package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ProductType describes one collection (product type) served by the
// federated engine. Definitions are loaded from JSON files in the product
// types directory.
type ProductType struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Abstract        string   `json:"abstract"`
	License         string   `json:"license,omitempty"`
	Keywords        []string `json:"keywords,omitempty"`
	Platform        string   `json:"platform,omitempty"`
	Constellation   string   `json:"constellation,omitempty"`
	Instruments     []string `json:"instruments,omitempty"`
	ProcessingLevel string   `json:"processing_level,omitempty"`

	// MissionStartDate and MissionEndDate bound the temporal extent.
	// Either may be empty for an open interval.
	MissionStartDate string `json:"mission_start_date,omitempty"`
	MissionEndDate   string `json:"mission_end_date,omitempty"`

	// BBox is the spatial extent [west, south, east, north]. Empty means
	// worldwide coverage.
	BBox []float64 `json:"bbox,omitempty"`

	// Backends lists the federation backends able to serve this product
	// type, in search priority order.
	Backends []string `json:"federation_backends"`

	// StacCollectionURL points at an externally hosted STAC collection
	// document merged into responses when pre-fetched.
	StacCollectionURL string `json:"stac_collection,omitempty"`
}

// ServedBy reports whether the given federation backend can serve this
// product type.
func (p *ProductType) ServedBy(backend string) bool {
	for _, b := range p.Backends {
		if b == backend {
			return true
		}
	}
	return false
}

// ProductTypeRegistry holds all loaded product type definitions indexed by ID.
type ProductTypeRegistry struct {
	types map[string]*ProductType
	order []string
}

// NewProductTypeRegistry creates a new empty registry.
func NewProductTypeRegistry() *ProductTypeRegistry {
	return &ProductTypeRegistry{
		types: make(map[string]*ProductType),
	}
}

// LoadProductTypes loads product type definitions from JSON files in the
// specified directory. Only files with a .json extension are processed.
func LoadProductTypes(dir string) (*ProductTypeRegistry, error) {
	registry := NewProductTypeRegistry()

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to access product types directory %q: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("product types path %q is not a directory", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read product types directory %q: %w", dir, err)
	}

	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		filename := entry.Name()
		if !strings.HasSuffix(strings.ToLower(filename), ".json") {
			continue
		}

		path := filepath.Join(dir, filename)
		productType, err := loadProductTypeFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load product type from %q: %w", path, err)
		}

		if err := registry.Add(productType); err != nil {
			return nil, fmt.Errorf("failed to add product type from %q: %w", path, err)
		}

		loaded++
	}

	if loaded == 0 {
		return nil, fmt.Errorf("no product type files found in %q", dir)
	}

	return registry, nil
}

func loadProductTypeFile(path string) (*ProductType, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var productType ProductType
	if err := json.Unmarshal(data, &productType); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	if err := validateProductType(&productType); err != nil {
		return nil, fmt.Errorf("invalid product type definition: %w", err)
	}

	return &productType, nil
}

func validateProductType(p *ProductType) error {
	if p.ID == "" {
		return fmt.Errorf("product type ID is required")
	}

	if p.Title == "" {
		return fmt.Errorf("product type title is required")
	}

	if len(p.Backends) == 0 {
		return fmt.Errorf("product type must declare at least one federation backend")
	}

	if len(p.BBox) != 0 && len(p.BBox) != 4 {
		return fmt.Errorf("bbox must have 4 values [west, south, east, north], got %d", len(p.BBox))
	}

	return nil
}

// Add registers a product type in the registry.
// Returns an error if one with the same ID already exists.
func (r *ProductTypeRegistry) Add(p *ProductType) error {
	if p == nil {
		return fmt.Errorf("cannot add nil product type")
	}

	if _, exists := r.types[p.ID]; exists {
		return fmt.Errorf("product type with ID %q already exists", p.ID)
	}

	r.types[p.ID] = p
	r.order = append(r.order, p.ID)
	return nil
}

// Get retrieves a product type by ID.
// Returns nil if it does not exist.
func (r *ProductTypeRegistry) Get(id string) *ProductType {
	return r.types[id]
}

// Has checks if a product type with the given ID exists.
func (r *ProductTypeRegistry) Has(id string) bool {
	_, exists := r.types[id]
	return exists
}

// All returns all product types in load order.
func (r *ProductTypeRegistry) All() []*ProductType {
	all := make([]*ProductType, 0, len(r.order))
	for _, id := range r.order {
		all = append(all, r.types[id])
	}
	return all
}

// IDs returns all product type IDs in load order.
func (r *ProductTypeRegistry) IDs() []string {
	ids := make([]string, len(r.order))
	copy(ids, r.order)
	return ids
}

// Count returns the number of registered product types.
func (r *ProductTypeRegistry) Count() int {
	return len(r.types)
}

// FindByBackend returns all product types served by the given federation
// backend.
func (r *ProductTypeRegistry) FindByBackend(backend string) []*ProductType {
	var matches []*ProductType
	for _, id := range r.order {
		if r.types[id].ServedBy(backend) {
			matches = append(matches, r.types[id])
		}
	}
	return matches
}
