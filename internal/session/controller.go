package session

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/nick-gallo-ethico/risk-intelligence-platform-sub015/internal/compiler"
	"github.com/nick-gallo-ethico/risk-intelligence-platform-sub015/internal/domain"
	"github.com/nick-gallo-ethico/risk-intelligence-platform-sub015/internal/views"
)

// DefaultPageSize is the page size a controller starts with.
const DefaultPageSize = 25

// Controller coordinates one user's one open list page: the active view,
// the current filter state, pagination and view mode. It re-derives the
// compiled predicate on every mutation so filter state and query never
// diverge. It is deliberately not thread-safe; a single UI interaction
// stream drives it.
type Controller struct {
	scope      views.Scope
	entityType string
	store      *views.Service
	compiler   *compiler.Compiler

	activeViewID      *uuid.UUID
	quickFilters      domain.QuickFilterState
	filterGroups      []domain.FilterGroup
	sortBy            string
	sortOrder         domain.SortOrder
	page              int
	pageSize          int
	viewMode          domain.ViewMode
	boardGroupBy      string
	columns           []domain.ColumnConfig
	frozenColumnCount int

	compiled domain.CompiledQuery
}

// NewController creates a controller for one entity type's list page.
func NewController(scope views.Scope, entityType string, store *views.Service, comp *compiler.Compiler) *Controller {
	c := &Controller{
		scope:        scope,
		entityType:   entityType,
		store:        store,
		compiler:     comp,
		quickFilters: make(domain.QuickFilterState),
		sortOrder:    domain.SortOrderDesc,
		page:         1,
		pageSize:     DefaultPageSize,
		viewMode:     domain.ViewModeTable,
	}
	c.recompile()
	return c
}

// Mount loads the caller's default view once, before the first query runs.
// Without a default the controller keeps its empty initial state.
func (c *Controller) Mount(ctx context.Context, autoApplyDefault bool) ([]string, error) {
	if !autoApplyDefault {
		return nil, nil
	}
	def, err := c.store.GetDefault(ctx, c.scope, c.entityType)
	if err != nil {
		return nil, fmt.Errorf("failed to load default view: %w", err)
	}
	if def == nil {
		return nil, nil
	}
	return c.ApplyView(ctx, def.ID)
}

// ApplyView replaces local state with a stored view's configuration and
// returns the property ids of any filters the view lost to schema drift.
func (c *Controller) ApplyView(ctx context.Context, id uuid.UUID) ([]string, error) {
	applied, err := c.store.Apply(ctx, c.scope, id)
	if err != nil {
		return nil, err
	}

	viewID := applied.ViewID
	c.activeViewID = &viewID
	c.filterGroups = applied.Filters
	c.quickFilters = applied.QuickFilters
	if c.quickFilters == nil {
		c.quickFilters = make(domain.QuickFilterState)
	}
	c.sortBy = applied.SortBy
	c.sortOrder = applied.SortOrder
	c.columns = applied.Columns
	c.frozenColumnCount = applied.FrozenColumnCount
	c.viewMode = applied.ViewMode
	c.boardGroupBy = applied.BoardGroupBy
	c.page = 1
	c.recompile()

	return applied.InvalidFilters, nil
}

// SaveCurrentAsView promotes the controller's current state into a new
// saved view and makes it the active view.
func (c *Controller) SaveCurrentAsView(ctx context.Context, name string, opts SaveOptions) (domain.SavedView, error) {
	created, err := c.store.Create(ctx, c.scope, views.CreateViewInput{
		EntityType:        c.entityType,
		Name:              name,
		Filters:           c.filterGroups,
		QuickFilters:      c.quickFilters,
		SortBy:            c.sortBy,
		SortOrder:         c.sortOrder,
		Columns:           c.columns,
		FrozenColumnCount: c.frozenColumnCount,
		ViewMode:          c.viewMode,
		BoardGroupBy:      c.boardGroupBy,
		IsDefault:         opts.IsDefault,
		IsPinned:          opts.IsPinned,
		IsShared:          opts.IsShared,
		Visibility:        opts.Visibility,
	})
	if err != nil {
		return domain.SavedView{}, err
	}

	viewID := created.ID
	c.activeViewID = &viewID
	return created, nil
}

// SaveOptions carries the flags a user picks when saving the current state.
type SaveOptions struct {
	IsDefault  bool
	IsPinned   bool
	IsShared   bool
	Visibility domain.Visibility
}

// SetQuickFilter sets or clears one quick-filter slot. An empty value
// removes the slot.
func (c *Controller) SetQuickFilter(propertyID string, value domain.QuickFilterValue) {
	if value.IsEmpty() {
		delete(c.quickFilters, propertyID)
	} else {
		c.quickFilters[propertyID] = value
	}
	c.page = 1
	c.recompile()
}

// AddFilterGroup appends an advanced filter group.
func (c *Controller) AddFilterGroup(group domain.FilterGroup) {
	c.filterGroups = append(c.filterGroups, group)
	c.page = 1
	c.recompile()
}

// RemoveFilterGroup removes the group with the given id.
func (c *Controller) RemoveFilterGroup(groupID string) {
	kept := c.filterGroups[:0]
	for _, group := range c.filterGroups {
		if group.ID != groupID {
			kept = append(kept, group)
		}
	}
	c.filterGroups = kept
	c.page = 1
	c.recompile()
}

// UpdateCondition replaces a condition in place, matched by condition id.
// Unknown ids are appended to the named group.
func (c *Controller) UpdateCondition(groupID string, cond domain.FilterCondition) {
	for gi, group := range c.filterGroups {
		if group.ID != groupID {
			continue
		}
		replaced := false
		for ci, existing := range group.Conditions {
			if existing.ID == cond.ID {
				c.filterGroups[gi].Conditions[ci] = cond
				replaced = true
				break
			}
		}
		if !replaced {
			c.filterGroups[gi].Conditions = append(c.filterGroups[gi].Conditions, cond)
		}
		break
	}
	c.page = 1
	c.recompile()
}

// RemoveCondition drops a condition from a group. A group emptied this way
// is removed entirely.
func (c *Controller) RemoveCondition(groupID, conditionID string) {
	for gi, group := range c.filterGroups {
		if group.ID != groupID {
			continue
		}
		kept := group.Conditions[:0]
		for _, existing := range group.Conditions {
			if existing.ID != conditionID {
				kept = append(kept, existing)
			}
		}
		c.filterGroups[gi].Conditions = kept
		if len(kept) == 0 {
			c.RemoveFilterGroup(groupID)
			return
		}
		break
	}
	c.page = 1
	c.recompile()
}

// ClearFilters resets quick filters and advanced groups. The active view
// reference is kept for display, but the controller no longer reflects its
// filters from this point.
func (c *Controller) ClearFilters() {
	c.quickFilters = make(domain.QuickFilterState)
	c.filterGroups = nil
	c.page = 1
	c.recompile()
}

// SetSort changes the ordering and resets pagination.
func (c *Controller) SetSort(sortBy string, order domain.SortOrder) {
	c.sortBy = sortBy
	c.sortOrder = order
	c.page = 1
	c.recompile()
}

// SetViewMode switches between table and board rendering.
func (c *Controller) SetViewMode(mode domain.ViewMode, boardGroupBy string) {
	c.viewMode = mode
	c.boardGroupBy = boardGroupBy
}

// SetColumns replaces the column layout and freeze count. Presentation-only
// state never touches the compiled query or pagination.
func (c *Controller) SetColumns(columns []domain.ColumnConfig, frozenCount int) {
	c.columns = columns
	if frozenCount < 0 {
		frozenCount = 0
	}
	c.frozenColumnCount = frozenCount
}

// SetPage moves to the given 1-based page.
func (c *Controller) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	c.page = page
}

// SetPageSize changes the page size and returns to the first page, so
// pagination can never point past the reshaped result set.
func (c *Controller) SetPageSize(size int) {
	if size < 1 {
		size = DefaultPageSize
	}
	c.pageSize = size
	c.page = 1
}

// QueryBoard runs the current compiled query as a grouped count, one entry
// per discrete value of the board grouping property.
func (c *Controller) QueryBoard(ctx context.Context, source domain.BoardSource) ([]domain.BoardGroup, error) {
	if c.viewMode != domain.ViewModeBoard || c.boardGroupBy == "" {
		return nil, fmt.Errorf("controller is not in board mode")
	}
	return source.GroupCounts(ctx, c.scope.OrganizationID, c.entityType, c.compiled, c.boardGroupBy)
}

// Query runs the current compiled query against the data-access layer.
func (c *Controller) Query(ctx context.Context, source domain.RowSource) (domain.ResultPage, error) {
	offset := (c.page - 1) * c.pageSize
	return source.Query(ctx, c.scope.OrganizationID, c.entityType, c.compiled, offset, c.pageSize)
}

// Compiled returns the predicate derived from the current state.
func (c *Controller) Compiled() domain.CompiledQuery {
	return c.compiled
}

// ActiveViewID returns the id of the applied view, if any. It is a
// back-pointer only; local edits do not flow back into the stored view.
func (c *Controller) ActiveViewID() *uuid.UUID {
	return c.activeViewID
}

// State snapshot accessors used by handlers and tests.

func (c *Controller) QuickFilters() domain.QuickFilterState { return c.quickFilters }
func (c *Controller) FilterGroups() []domain.FilterGroup    { return c.filterGroups }
func (c *Controller) Sort() (string, domain.SortOrder)      { return c.sortBy, c.sortOrder }
func (c *Controller) Page() int                             { return c.page }
func (c *Controller) PageSize() int                         { return c.pageSize }
func (c *Controller) ViewMode() domain.ViewMode             { return c.viewMode }
func (c *Controller) BoardGroupBy() string                  { return c.boardGroupBy }
func (c *Controller) Columns() []domain.ColumnConfig        { return c.columns }
func (c *Controller) FrozenColumnCount() int                { return c.frozenColumnCount }

func (c *Controller) recompile() {
	c.compiled = c.compiler.Compile(c.entityType, c.quickFilters, c.filterGroups, c.sortBy, c.sortOrder)
}
