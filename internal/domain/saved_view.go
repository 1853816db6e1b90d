package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ViewMode selects how a list module renders its result set.
type ViewMode string

const (
	ViewModeTable ViewMode = "table"
	ViewModeBoard ViewMode = "board"
)

// Visibility scopes who can see and apply a shared view.
type Visibility string

const (
	VisibilityPrivate  Visibility = "private"
	VisibilityTeam     Visibility = "team"
	VisibilityEveryone Visibility = "everyone"
)

// SortOrder is the direction applied to SortBy.
type SortOrder string

const (
	SortOrderAsc  SortOrder = "asc"
	SortOrderDesc SortOrder = "desc"
)

// ColumnConfig is presentation-only column state carried inside a view.
// The filter compiler never interprets it.
type ColumnConfig struct {
	Key     string `json:"key"`
	Visible bool   `json:"visible"`
	Order   int    `json:"order"`
	Width   int    `json:"width,omitempty"`
}

// SavedView is a named, reusable list configuration: filters, sort, columns,
// board grouping and visibility, persisted per entity type and owner.
type SavedView struct {
	ID                uuid.UUID      `json:"id"`
	OrganizationID    uuid.UUID      `json:"organizationId"`
	CreatedByID       uuid.UUID      `json:"createdById"`
	EntityType        string         `json:"entityType"`
	Name              string         `json:"name"`
	Filters           []FilterGroup  `json:"filters"`
	QuickFilters      QuickFilterState `json:"quickFilters,omitempty"`
	SortBy            string         `json:"sortBy,omitempty"`
	SortOrder         SortOrder      `json:"sortOrder,omitempty"`
	Columns           []ColumnConfig `json:"columns,omitempty"`
	FrozenColumnCount int            `json:"frozenColumnCount"`
	ViewMode          ViewMode       `json:"viewMode"`
	BoardGroupBy      string         `json:"boardGroupBy,omitempty"`
	IsDefault         bool           `json:"isDefault"`
	IsPinned          bool           `json:"isPinned"`
	IsShared          bool           `json:"isShared"`
	Visibility        Visibility     `json:"visibility"`
	DisplayOrder      int            `json:"displayOrder"`
	UseCount          int64          `json:"useCount"`
	LastUsedAt        *time.Time     `json:"lastUsedAt,omitempty"`
	CreatedAt         time.Time      `json:"createdAt"`
	UpdatedAt         time.Time      `json:"updatedAt"`
}

// NewSavedView creates a private, unpinned view owned by the given user.
func NewSavedView(organizationID, createdByID uuid.UUID, entityType, name string) SavedView {
	now := time.Now()
	return SavedView{
		ID:             uuid.New(),
		OrganizationID: organizationID,
		CreatedByID:    createdByID,
		EntityType:     entityType,
		Name:           name,
		ViewMode:       ViewModeTable,
		Visibility:     VisibilityPrivate,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// AccessibleBy reports whether the given user may read and apply the view.
// Ownership always grants access; otherwise the view must be shared with a
// non-private visibility scope.
func (v SavedView) AccessibleBy(userID uuid.UUID) bool {
	if v.CreatedByID == userID {
		return true
	}
	return v.IsShared && v.Visibility != VisibilityPrivate
}

// OwnedBy reports whether the given user may mutate the view. Sharing grants
// read access only, never write access.
func (v SavedView) OwnedBy(userID uuid.UUID) bool {
	return v.CreatedByID == userID
}

// FiltersAsJSON marshals the filter groups for JSONB storage.
func (v SavedView) FiltersAsJSON() (json.RawMessage, error) {
	if v.Filters == nil {
		return json.Marshal([]FilterGroup{})
	}
	return json.Marshal(v.Filters)
}

// ColumnsAsJSON marshals the column configs for JSONB storage.
func (v SavedView) ColumnsAsJSON() (json.RawMessage, error) {
	if v.Columns == nil {
		return json.Marshal([]ColumnConfig{})
	}
	return json.Marshal(v.Columns)
}

// QuickFiltersAsJSON marshals the quick-filter state for JSONB storage.
func (v SavedView) QuickFiltersAsJSON() (json.RawMessage, error) {
	if v.QuickFilters == nil {
		return json.Marshal(QuickFilterState{})
	}
	return json.Marshal(v.QuickFilters)
}

// SavedViewPatch is a partial update applied by the store's Update call.
// Nil fields are left untouched.
type SavedViewPatch struct {
	Name              *string           `json:"name,omitempty"`
	Filters           *[]FilterGroup    `json:"filters,omitempty"`
	QuickFilters      *QuickFilterState `json:"quickFilters,omitempty"`
	SortBy            *string           `json:"sortBy,omitempty"`
	SortOrder         *SortOrder        `json:"sortOrder,omitempty"`
	Columns           *[]ColumnConfig   `json:"columns,omitempty"`
	FrozenColumnCount *int              `json:"frozenColumnCount,omitempty"`
	ViewMode          *ViewMode         `json:"viewMode,omitempty"`
	BoardGroupBy      *string           `json:"boardGroupBy,omitempty"`
	IsDefault         *bool             `json:"isDefault,omitempty"`
	IsPinned          *bool             `json:"isPinned,omitempty"`
	IsShared          *bool             `json:"isShared,omitempty"`
	Visibility        *Visibility       `json:"visibility,omitempty"`
	DisplayOrder      *int              `json:"displayOrder,omitempty"`
}
