package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nick-gallo-ethico/risk-intelligence-platform-sub015/internal/domain"
)

// PropertyRegistry holds the property catalogue for every entity type.
// It is built once at startup and read-only afterwards, so sharing one
// instance across concurrent compilations needs no synchronization.
type PropertyRegistry struct {
	byEntityType map[string][]domain.PropertyDescriptor
	index        map[string]map[string]domain.PropertyDescriptor
}

// NewPropertyRegistry builds a registry from an in-memory catalogue,
// keyed by entity type.
func NewPropertyRegistry(catalogue map[string][]domain.PropertyDescriptor) *PropertyRegistry {
	r := &PropertyRegistry{
		byEntityType: make(map[string][]domain.PropertyDescriptor, len(catalogue)),
		index:        make(map[string]map[string]domain.PropertyDescriptor, len(catalogue)),
	}
	for entityType, descriptors := range catalogue {
		r.register(entityType, descriptors)
	}
	return r
}

func (r *PropertyRegistry) register(entityType string, descriptors []domain.PropertyDescriptor) {
	props := make([]domain.PropertyDescriptor, len(descriptors))
	copy(props, descriptors)
	r.byEntityType[entityType] = props

	idx := make(map[string]domain.PropertyDescriptor, len(props))
	for _, d := range props {
		idx[d.ID] = d
	}
	r.index[entityType] = idx
}

// Describe returns every property descriptor declared for the entity type.
func (r *PropertyRegistry) Describe(entityType string) []domain.PropertyDescriptor {
	props := r.byEntityType[entityType]
	out := make([]domain.PropertyDescriptor, len(props))
	copy(out, props)
	return out
}

// Lookup returns the descriptor for one property of an entity type.
// An unknown property id is not an error here; the validator classifies
// it as a stale condition.
func (r *PropertyRegistry) Lookup(entityType, propertyID string) (domain.PropertyDescriptor, bool) {
	idx, ok := r.index[entityType]
	if !ok {
		return domain.PropertyDescriptor{}, false
	}
	d, ok := idx[propertyID]
	return d, ok
}

// EntityTypes returns the entity types with a declared catalogue, sorted.
func (r *PropertyRegistry) EntityTypes() []string {
	types := make([]string, 0, len(r.byEntityType))
	for t := range r.byEntityType {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// catalogueFile is the YAML shape of one entity type's property catalogue.
type catalogueFile struct {
	EntityType string                      `yaml:"entityType"`
	Properties []domain.PropertyDescriptor `yaml:"properties"`
}

// LoadPropertyRegistry reads every *.yaml catalogue file in dir and builds
// the registry from them.
func LoadPropertyRegistry(dir string) (*PropertyRegistry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalogue directory: %w", err)
	}

	catalogue := make(map[string][]domain.PropertyDescriptor)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		file, err := parseCatalogueFile(path)
		if err != nil {
			return nil, err
		}
		if _, dup := catalogue[file.EntityType]; dup {
			return nil, fmt.Errorf("duplicate catalogue for entity type %q in %s", file.EntityType, entry.Name())
		}
		catalogue[file.EntityType] = file.Properties
	}

	if len(catalogue) == 0 {
		return nil, fmt.Errorf("no property catalogues found in %s", dir)
	}

	return NewPropertyRegistry(catalogue), nil
}

func parseCatalogueFile(path string) (catalogueFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return catalogueFile{}, fmt.Errorf("failed to read catalogue %s: %w", path, err)
	}

	var file catalogueFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return catalogueFile{}, fmt.Errorf("failed to parse catalogue %s: %w", path, err)
	}

	if strings.TrimSpace(file.EntityType) == "" {
		return catalogueFile{}, fmt.Errorf("catalogue %s is missing entityType", path)
	}

	seen := make(map[string]struct{}, len(file.Properties))
	for _, p := range file.Properties {
		if strings.TrimSpace(p.ID) == "" {
			return catalogueFile{}, fmt.Errorf("catalogue %s declares a property without an id", path)
		}
		if !p.Type.IsValid() {
			return catalogueFile{}, fmt.Errorf("catalogue %s: property %q has unknown type %q", path, p.ID, p.Type)
		}
		if _, dup := seen[p.ID]; dup {
			return catalogueFile{}, fmt.Errorf("catalogue %s declares property %q twice", path, p.ID)
		}
		seen[p.ID] = struct{}{}
	}

	return file, nil
}
