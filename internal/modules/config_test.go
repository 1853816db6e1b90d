package modules

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/nick-gallo-ethico/risk-intelligence-platform-sub015/internal/domain"
	"github.com/nick-gallo-ethico/risk-intelligence-platform-sub015/internal/registry"
)

func testProperties() *registry.PropertyRegistry {
	return registry.NewPropertyRegistry(map[string][]domain.PropertyDescriptor{
		"CASES": {
			{ID: "title", Label: "Title", Type: domain.PropertyTypeText, Filterable: true, Sortable: true},
			{ID: "status", Label: "Status", Type: domain.PropertyTypeStatus, Filterable: true, Sortable: true, Groupable: true},
			{ID: "severity", Label: "Severity", Type: domain.PropertyTypeSeverity, Filterable: true, Sortable: true, Groupable: true},
			{ID: "ownerId", Label: "Owner", Type: domain.PropertyTypeUser, Filterable: true, Groupable: true},
			{ID: "category", Label: "Category", Type: domain.PropertyTypeEnum, Filterable: true},
			{ID: "openedAt", Label: "Opened", Type: domain.PropertyTypeDate, Filterable: true, Sortable: true},
			{ID: "internalScore", Label: "Score", Type: domain.PropertyTypeNumber, Filterable: false},
		},
	})
}

func writeModuleConfig(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write module config: %v", err)
	}
}

const casesModuleYAML = `entityType: CASES
displayName: Cases
columns:
  - key: title
    label: Title
    defaultVisible: true
    defaultWidth: 320
  - key: status
    label: Status
    defaultVisible: true
  - key: severity
    label: Severity
    defaultVisible: false
quickFilterProperties:
  - status
  - severity
  - ownerId
  - category
  - openedAt
groupByOptions:
  - status
  - severity
bulkActions:
  - id: assign
    label: Assign to user
  - id: close
    label: Close cases
defaultViews:
  - name: Open cases
    filters:
      - id: builtin-open
        conditions:
          - id: builtin-open-status
            propertyId: status
            operator: is_any_of
            values: [OPEN, NEW]
    sortBy: openedAt
    sortOrder: desc
`

func TestLoadCatalog(t *testing.T) {
	dir := t.TempDir()
	writeModuleConfig(t, dir, "cases.yaml", casesModuleYAML)

	catalog, err := LoadCatalog(dir, testProperties())
	if err != nil {
		t.Fatalf("LoadCatalog failed: %v", err)
	}

	cfg, ok := catalog.Get("CASES")
	if !ok {
		t.Fatal("CASES config missing from catalog")
	}
	if cfg.DisplayName != "Cases" {
		t.Errorf("displayName = %q", cfg.DisplayName)
	}
	if len(cfg.Columns) != 3 || cfg.Columns[0].DefaultWidth != 320 {
		t.Errorf("columns not parsed: %+v", cfg.Columns)
	}
	if len(cfg.BulkActions) != 2 || cfg.BulkActions[0].ID != "assign" {
		t.Errorf("bulk actions not parsed: %+v", cfg.BulkActions)
	}

	if len(cfg.DefaultViews) != 1 {
		t.Fatalf("default views not parsed: %+v", cfg.DefaultViews)
	}
	builtin := cfg.DefaultViews[0]
	if builtin.SortBy != "openedAt" || builtin.SortOrder != domain.SortOrderDesc {
		t.Errorf("built-in sort not parsed: %+v", builtin)
	}
	wantFilters := []domain.FilterGroup{{
		ID: "builtin-open",
		Conditions: []domain.FilterCondition{{
			ID:         "builtin-open-status",
			PropertyID: "status",
			Operator:   domain.OperatorIsAnyOf,
			Values:     []string{"OPEN", "NEW"},
		}},
	}}
	if diff := cmp.Diff(wantFilters, builtin.Filters); diff != "" {
		t.Errorf("built-in filters mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"CASES"}, catalog.EntityTypes()); diff != "" {
		t.Errorf("entity types mismatch (-want +got):\n%s", diff)
	}
}

func TestDefaultQuickFilterSlots(t *testing.T) {
	cfg := ModuleViewConfig{QuickFilterProperties: []string{"status", "severity", "ownerId", "category", "openedAt"}}

	slots := cfg.DefaultQuickFilterSlots()
	if diff := cmp.Diff([]string{"status", "severity", "ownerId", "category"}, slots); diff != "" {
		t.Errorf("slot truncation mismatch (-want +got):\n%s", diff)
	}

	short := ModuleViewConfig{QuickFilterProperties: []string{"status"}}
	if len(short.DefaultQuickFilterSlots()) != 1 {
		t.Error("short slot lists should pass through untruncated")
	}
}

func TestDefaultColumns(t *testing.T) {
	cfg := ModuleViewConfig{Columns: []ColumnDescriptor{
		{Key: "title", DefaultVisible: true, DefaultWidth: 320},
		{Key: "status", DefaultVisible: false},
	}}

	want := []domain.ColumnConfig{
		{Key: "title", Visible: true, Order: 0, Width: 320},
		{Key: "status", Visible: false, Order: 1},
	}
	if diff := cmp.Diff(want, cfg.DefaultColumns()); diff != "" {
		t.Errorf("default columns mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateRejectsBadConfigs(t *testing.T) {
	properties := testProperties()
	base := func() ModuleViewConfig {
		return ModuleViewConfig{
			EntityType:  "CASES",
			DisplayName: "Cases",
			Columns:     []ColumnDescriptor{{Key: "title", Label: "Title"}},
		}
	}

	cases := []struct {
		name    string
		mutate  func(*ModuleViewConfig)
		wantErr string
	}{
		{"missing entity type", func(c *ModuleViewConfig) { c.EntityType = "" }, "entityType"},
		{"missing display name", func(c *ModuleViewConfig) { c.DisplayName = "" }, "displayName"},
		{"no columns", func(c *ModuleViewConfig) { c.Columns = nil }, "column"},
		{"unknown quick filter", func(c *ModuleViewConfig) { c.QuickFilterProperties = []string{"nope"} }, "not declared"},
		{"unfilterable quick filter", func(c *ModuleViewConfig) { c.QuickFilterProperties = []string{"internalScore"} }, "not filterable"},
		{"unknown group-by", func(c *ModuleViewConfig) { c.GroupByOptions = []string{"nope"} }, "not declared"},
		{"ungroupable group-by", func(c *ModuleViewConfig) { c.GroupByOptions = []string{"title"} }, "not groupable"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(&cfg)
			err := Validate(cfg, properties)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error %q does not mention %q", err, tc.wantErr)
			}
		})
	}

	if err := Validate(base(), properties); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}
}

func TestLoadCatalogFailures(t *testing.T) {
	properties := testProperties()

	if _, err := LoadCatalog(t.TempDir(), properties); err == nil {
		t.Error("empty directory should fail")
	}

	dir := t.TempDir()
	writeModuleConfig(t, dir, "bad.yaml", "entityType: CASES\ndisplayName: Cases\ncolumns: []\n")
	if _, err := LoadCatalog(dir, properties); err == nil {
		t.Error("config without columns should fail validation")
	}
}
