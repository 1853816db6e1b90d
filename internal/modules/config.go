package modules

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nick-gallo-ethico/risk-intelligence-platform-sub015/internal/domain"
	"github.com/nick-gallo-ethico/risk-intelligence-platform-sub015/internal/registry"
)

// ColumnDescriptor declares one column a module can render.
type ColumnDescriptor struct {
	Key            string `yaml:"key" json:"key"`
	Label          string `yaml:"label" json:"label"`
	DefaultVisible bool   `yaml:"defaultVisible" json:"defaultVisible"`
	DefaultWidth   int    `yaml:"defaultWidth,omitempty" json:"defaultWidth,omitempty"`
}

// BulkAction names an action the module offers over a filtered selection.
// Executing it is the business module's concern, not this subsystem's.
type BulkAction struct {
	ID    string `yaml:"id" json:"id"`
	Label string `yaml:"label" json:"label"`
}

// BuiltInView seeds a module with a named starting configuration before the
// user has saved anything of their own.
type BuiltInView struct {
	Name      string               `yaml:"name" json:"name"`
	Filters   []domain.FilterGroup `yaml:"filters,omitempty" json:"filters,omitempty"`
	SortBy    string               `yaml:"sortBy,omitempty" json:"sortBy,omitempty"`
	SortOrder domain.SortOrder     `yaml:"sortOrder,omitempty" json:"sortOrder,omitempty"`
	ViewMode  domain.ViewMode      `yaml:"viewMode,omitempty" json:"viewMode,omitempty"`
}

// ModuleViewConfig is everything a business module contributes to its list
// pages: display name, column catalogue, quick-filterable properties, board
// grouping options, bulk actions and built-in views.
type ModuleViewConfig struct {
	EntityType            string             `yaml:"entityType" json:"entityType"`
	DisplayName           string             `yaml:"displayName" json:"displayName"`
	Columns               []ColumnDescriptor `yaml:"columns" json:"columns"`
	QuickFilterProperties []string           `yaml:"quickFilterProperties" json:"quickFilterProperties"`
	GroupByOptions        []string           `yaml:"groupByOptions,omitempty" json:"groupByOptions,omitempty"`
	BulkActions           []BulkAction       `yaml:"bulkActions,omitempty" json:"bulkActions,omitempty"`
	DefaultViews          []BuiltInView      `yaml:"defaultViews,omitempty" json:"defaultViews,omitempty"`
}

// DefaultQuickFilterSlots returns the property ids shown as compact
// controls before the user expands the set.
func (c ModuleViewConfig) DefaultQuickFilterSlots() []string {
	if len(c.QuickFilterProperties) <= domain.DefaultQuickFilterSlots {
		return c.QuickFilterProperties
	}
	return c.QuickFilterProperties[:domain.DefaultQuickFilterSlots]
}

// DefaultColumns renders the column catalogue into the initial ColumnConfig
// a fresh controller shows.
func (c ModuleViewConfig) DefaultColumns() []domain.ColumnConfig {
	columns := make([]domain.ColumnConfig, len(c.Columns))
	for i, col := range c.Columns {
		columns[i] = domain.ColumnConfig{
			Key:     col.Key,
			Visible: col.DefaultVisible,
			Order:   i,
			Width:   col.DefaultWidth,
		}
	}
	return columns
}

// Catalog holds every module's view configuration, loaded once at startup.
type Catalog struct {
	byEntityType map[string]ModuleViewConfig
}

// NewCatalog builds a catalog from in-memory configs.
func NewCatalog(configs []ModuleViewConfig) *Catalog {
	c := &Catalog{byEntityType: make(map[string]ModuleViewConfig, len(configs))}
	for _, cfg := range configs {
		c.byEntityType[cfg.EntityType] = cfg
	}
	return c
}

// Get returns the config for an entity type.
func (c *Catalog) Get(entityType string) (ModuleViewConfig, bool) {
	cfg, ok := c.byEntityType[entityType]
	return cfg, ok
}

// EntityTypes lists the configured entity types, sorted.
func (c *Catalog) EntityTypes() []string {
	types := make([]string, 0, len(c.byEntityType))
	for t := range c.byEntityType {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// LoadCatalog reads every *.yaml module config in dir and validates each
// against the property registry.
func LoadCatalog(dir string, properties *registry.PropertyRegistry) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read module config directory: %w", err)
	}

	var configs []ModuleViewConfig
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read module config %s: %w", path, err)
		}
		var cfg ModuleViewConfig
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse module config %s: %w", path, err)
		}
		if err := Validate(cfg, properties); err != nil {
			return nil, fmt.Errorf("invalid module config %s: %w", path, err)
		}
		configs = append(configs, cfg)
	}

	if len(configs) == 0 {
		return nil, fmt.Errorf("no module configs found in %s", dir)
	}

	return NewCatalog(configs), nil
}

// Validate checks a module config against the property catalogue: quick
// filter slots must be filterable and groupBy options groupable.
func Validate(cfg ModuleViewConfig, properties *registry.PropertyRegistry) error {
	if strings.TrimSpace(cfg.EntityType) == "" {
		return fmt.Errorf("entityType is required")
	}
	if strings.TrimSpace(cfg.DisplayName) == "" {
		return fmt.Errorf("displayName is required")
	}
	if len(cfg.Columns) == 0 {
		return fmt.Errorf("at least one column is required")
	}
	for _, col := range cfg.Columns {
		if strings.TrimSpace(col.Key) == "" {
			return fmt.Errorf("column with empty key")
		}
	}
	for _, propertyID := range cfg.QuickFilterProperties {
		descriptor, ok := properties.Lookup(cfg.EntityType, propertyID)
		if !ok {
			return fmt.Errorf("quick filter property %q is not declared for %s", propertyID, cfg.EntityType)
		}
		if !descriptor.Filterable {
			return fmt.Errorf("quick filter property %q is not filterable", propertyID)
		}
	}
	for _, propertyID := range cfg.GroupByOptions {
		descriptor, ok := properties.Lookup(cfg.EntityType, propertyID)
		if !ok {
			return fmt.Errorf("groupBy option %q is not declared for %s", propertyID, cfg.EntityType)
		}
		if !descriptor.Groupable {
			return fmt.Errorf("groupBy option %q is not groupable", propertyID)
		}
	}
	return nil
}
