package views

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nick-gallo-ethico/risk-intelligence-platform-sub015/internal/compiler"
	"github.com/nick-gallo-ethico/risk-intelligence-platform-sub015/internal/domain"
	"github.com/nick-gallo-ethico/risk-intelligence-platform-sub015/internal/registry"
	"github.com/nick-gallo-ethico/risk-intelligence-platform-sub015/internal/repository"
)

// ErrInvalidInput tags rejected create/update payloads.
var ErrInvalidInput = errors.New("invalid saved view input")

// Scope identifies the caller of every store operation: the tenant and the
// acting user. Tenant isolation itself is enforced upstream; the scope here
// drives ownership and visibility decisions.
type Scope struct {
	OrganizationID uuid.UUID
	UserID         uuid.UUID
}

// ViewList is the store's listing, grouped by ownership for the tab strip.
type ViewList struct {
	Owned  []domain.SavedView `json:"owned"`
	Shared []domain.SavedView `json:"shared"`
}

// AppliedView is the configuration a view rehydrates into, after every
// stored condition has been re-validated against the current catalogue.
// InvalidFilters names the properties whose conditions were dropped.
type AppliedView struct {
	ViewID            uuid.UUID               `json:"viewId"`
	Filters           []domain.FilterGroup    `json:"filters"`
	QuickFilters      domain.QuickFilterState `json:"quickFilters"`
	SortBy            string                  `json:"sortBy,omitempty"`
	SortOrder         domain.SortOrder        `json:"sortOrder"`
	Columns           []domain.ColumnConfig   `json:"columns,omitempty"`
	FrozenColumnCount int                     `json:"frozenColumnCount"`
	ViewMode          domain.ViewMode         `json:"viewMode"`
	BoardGroupBy      string                  `json:"boardGroupBy,omitempty"`
	InvalidFilters    []string                `json:"invalidFilters"`
}

// CreateViewInput is the payload for promoting controller state into a
// persisted view.
type CreateViewInput struct {
	EntityType        string
	Name              string
	Filters           []domain.FilterGroup
	QuickFilters      domain.QuickFilterState
	SortBy            string
	SortOrder         domain.SortOrder
	Columns           []domain.ColumnConfig
	FrozenColumnCount int
	ViewMode          domain.ViewMode
	BoardGroupBy      string
	IsDefault         bool
	IsPinned          bool
	IsShared          bool
	Visibility        domain.Visibility
}

// Service implements the saved view store: CRUD, duplication, default
// handling and the drift-tolerant apply path.
type Service struct {
	repo       repository.SavedViewRepository
	properties *registry.PropertyRegistry
	validator  *compiler.Validator
	now        func() time.Time
}

// NewService builds the store over a repository and the catalogue registries.
func NewService(repo repository.SavedViewRepository, properties *registry.PropertyRegistry, operators *registry.OperatorRegistry) *Service {
	return &Service{
		repo:       repo,
		properties: properties,
		validator:  compiler.NewValidator(properties, operators),
		now:        time.Now,
	}
}

// List returns the caller's own views plus shared views in scope, grouped
// by ownership.
func (s *Service) List(ctx context.Context, scope Scope, entityType string) (ViewList, error) {
	all, err := s.repo.List(ctx, scope.OrganizationID, entityType)
	if err != nil {
		return ViewList{}, err
	}

	list := ViewList{}
	for _, view := range all {
		switch {
		case view.OwnedBy(scope.UserID):
			list.Owned = append(list.Owned, view)
		case view.AccessibleBy(scope.UserID):
			list.Shared = append(list.Shared, view)
		}
	}
	return list, nil
}

// Create persists a new view from the given input. Creating a default view
// clears the caller's previous default for the entity type in the same
// transaction.
func (s *Service) Create(ctx context.Context, scope Scope, input CreateViewInput) (domain.SavedView, error) {
	if err := s.validateInput(input); err != nil {
		return domain.SavedView{}, err
	}

	view := domain.NewSavedView(scope.OrganizationID, scope.UserID, input.EntityType, strings.TrimSpace(input.Name))
	view.Filters = input.Filters
	view.QuickFilters = input.QuickFilters
	view.SortBy = input.SortBy
	view.SortOrder = normalizeSortOrder(input.SortOrder)
	view.Columns = input.Columns
	view.FrozenColumnCount = input.FrozenColumnCount
	view.ViewMode = normalizeViewMode(input.ViewMode)
	view.BoardGroupBy = input.BoardGroupBy
	view.IsDefault = input.IsDefault
	view.IsPinned = input.IsPinned
	view.IsShared = input.IsShared
	view.Visibility = input.Visibility
	if view.Visibility == "" {
		view.Visibility = domain.VisibilityPrivate
	}
	// A shared view needs a scope wider than private to be visible to anyone.
	if view.IsShared && view.Visibility == domain.VisibilityPrivate {
		view.Visibility = domain.VisibilityTeam
	}
	view.DisplayOrder = s.nextDisplayOrder(ctx, scope, input.EntityType)
	now := s.now()
	view.CreatedAt = now
	view.UpdatedAt = now

	created, err := s.repo.Create(ctx, view)
	if err != nil {
		return domain.SavedView{}, fmt.Errorf("failed to create saved view: %w", err)
	}
	return created, nil
}

// Update applies a partial patch to a view the caller owns.
func (s *Service) Update(ctx context.Context, scope Scope, id uuid.UUID, patch domain.SavedViewPatch) (domain.SavedView, error) {
	view, err := s.getWritable(ctx, scope, id)
	if err != nil {
		return domain.SavedView{}, err
	}

	applyPatch(&view, patch)
	if err := s.validateView(view); err != nil {
		return domain.SavedView{}, err
	}
	view.UpdatedAt = s.now()

	updated, err := s.repo.Update(ctx, view)
	if err != nil {
		return domain.SavedView{}, fmt.Errorf("failed to update saved view: %w", err)
	}
	return updated, nil
}

// Delete removes a view the caller owns.
func (s *Service) Delete(ctx context.Context, scope Scope, id uuid.UUID) error {
	if _, err := s.getWritable(ctx, scope, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, scope.OrganizationID, id)
}

// Duplicate copies an accessible view into a new private view owned by the
// caller. Default, pin and share flags are not carried over.
func (s *Service) Duplicate(ctx context.Context, scope Scope, id uuid.UUID, name string) (domain.SavedView, error) {
	source, err := s.getAccessible(ctx, scope, id)
	if err != nil {
		return domain.SavedView{}, err
	}

	if strings.TrimSpace(name) == "" {
		name = source.Name + " (copy)"
	}

	copyView := domain.NewSavedView(scope.OrganizationID, scope.UserID, source.EntityType, name)
	copyView.Filters = source.Filters
	copyView.QuickFilters = source.QuickFilters
	copyView.SortBy = source.SortBy
	copyView.SortOrder = source.SortOrder
	copyView.Columns = source.Columns
	copyView.FrozenColumnCount = source.FrozenColumnCount
	copyView.ViewMode = source.ViewMode
	copyView.BoardGroupBy = source.BoardGroupBy
	copyView.DisplayOrder = s.nextDisplayOrder(ctx, scope, source.EntityType)
	now := s.now()
	copyView.CreatedAt = now
	copyView.UpdatedAt = now

	created, err := s.repo.Create(ctx, copyView)
	if err != nil {
		return domain.SavedView{}, fmt.Errorf("failed to duplicate saved view: %w", err)
	}
	return created, nil
}

// Apply rehydrates a view into controller state. Every stored condition is
// re-validated against the current catalogue; anything stale or malformed
// is dropped and reported instead of failing the load, so views stay usable
// as the schema evolves. Usage bookkeeping is best-effort.
func (s *Service) Apply(ctx context.Context, scope Scope, id uuid.UUID) (AppliedView, error) {
	view, err := s.getAccessible(ctx, scope, id)
	if err != nil {
		return AppliedView{}, err
	}

	applied := s.rehydrate(view)

	// Bookkeeping must never block applying the view.
	_ = s.repo.RecordUsage(ctx, scope.OrganizationID, id, s.now())

	return applied, nil
}

// GetDefault returns the caller's default view for an entity type, or nil
// when none is set.
func (s *Service) GetDefault(ctx context.Context, scope Scope, entityType string) (*domain.SavedView, error) {
	view, err := s.repo.GetDefault(ctx, scope.OrganizationID, scope.UserID, entityType)
	if err != nil {
		if errors.Is(err, domain.ErrViewNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &view, nil
}

// SetPinned toggles the pin flag on a view the caller owns.
func (s *Service) SetPinned(ctx context.Context, scope Scope, id uuid.UUID, pinned bool) (domain.SavedView, error) {
	return s.Update(ctx, scope, id, domain.SavedViewPatch{IsPinned: &pinned})
}

// SetShared shares or unshares a view the caller owns. Sharing with an empty
// visibility widens a private view to team scope.
func (s *Service) SetShared(ctx context.Context, scope Scope, id uuid.UUID, shared bool, visibility domain.Visibility) (domain.SavedView, error) {
	patch := domain.SavedViewPatch{IsShared: &shared}
	if visibility != "" {
		patch.Visibility = &visibility
	}
	return s.Update(ctx, scope, id, patch)
}

// Reorder rewrites the display order of the caller's views to match the
// given id sequence. Ids the caller does not own are skipped.
func (s *Service) Reorder(ctx context.Context, scope Scope, entityType string, ids []uuid.UUID) error {
	list, err := s.repo.List(ctx, scope.OrganizationID, entityType)
	if err != nil {
		return err
	}

	owned := make(map[uuid.UUID]domain.SavedView, len(list))
	for _, view := range list {
		if view.OwnedBy(scope.UserID) {
			owned[view.ID] = view
		}
	}

	order := 0
	for _, id := range ids {
		view, ok := owned[id]
		if !ok {
			continue
		}
		if view.DisplayOrder != order {
			view.DisplayOrder = order
			view.UpdatedAt = s.now()
			if _, err := s.repo.Update(ctx, view); err != nil {
				return fmt.Errorf("failed to reorder saved view %s: %w", id, err)
			}
		}
		order++
	}
	return nil
}

// rehydrate runs the drift-tolerance pass over a stored configuration.
func (s *Service) rehydrate(view domain.SavedView) AppliedView {
	invalid := make(map[string]struct{})

	groups := make([]domain.FilterGroup, 0, len(view.Filters))
	for _, group := range view.Filters {
		kept := make([]domain.FilterCondition, 0, len(group.Conditions))
		for _, cond := range group.Conditions {
			normalized, err := s.validator.Validate(view.EntityType, cond)
			if err != nil {
				invalid[cond.PropertyID] = struct{}{}
				continue
			}
			kept = append(kept, normalized)
		}
		if len(kept) > 0 {
			groups = append(groups, domain.FilterGroup{ID: group.ID, Conditions: kept})
		}
	}

	quick := make(domain.QuickFilterState, len(view.QuickFilters))
	for propertyID, value := range view.QuickFilters {
		descriptor, ok := s.properties.Lookup(view.EntityType, propertyID)
		if !ok || !descriptor.Filterable {
			invalid[propertyID] = struct{}{}
			continue
		}
		quick[propertyID] = value
	}

	sortBy := view.SortBy
	if sortBy != "" {
		if descriptor, ok := s.properties.Lookup(view.EntityType, sortBy); !ok || !descriptor.Sortable {
			sortBy = ""
		}
	}

	viewMode := view.ViewMode
	boardGroupBy := view.BoardGroupBy
	if viewMode == domain.ViewModeBoard {
		if descriptor, ok := s.properties.Lookup(view.EntityType, boardGroupBy); !ok || !descriptor.Groupable {
			// The grouping property is gone; fall back to the table rather
			// than rendering an empty board.
			viewMode = domain.ViewModeTable
			boardGroupBy = ""
		}
	}

	invalidFilters := make([]string, 0, len(invalid))
	for propertyID := range invalid {
		invalidFilters = append(invalidFilters, propertyID)
	}
	sort.Strings(invalidFilters)

	return AppliedView{
		ViewID:            view.ID,
		Filters:           groups,
		QuickFilters:      quick,
		SortBy:            sortBy,
		SortOrder:         normalizeSortOrder(view.SortOrder),
		Columns:           view.Columns,
		FrozenColumnCount: view.FrozenColumnCount,
		ViewMode:          viewMode,
		BoardGroupBy:      boardGroupBy,
		InvalidFilters:    invalidFilters,
	}
}

func (s *Service) getAccessible(ctx context.Context, scope Scope, id uuid.UUID) (domain.SavedView, error) {
	view, err := s.repo.GetByID(ctx, scope.OrganizationID, id)
	if err != nil {
		return domain.SavedView{}, err
	}
	if !view.AccessibleBy(scope.UserID) {
		return domain.SavedView{}, domain.ErrViewNotFound
	}
	return view, nil
}

func (s *Service) getWritable(ctx context.Context, scope Scope, id uuid.UUID) (domain.SavedView, error) {
	view, err := s.getAccessible(ctx, scope, id)
	if err != nil {
		return domain.SavedView{}, err
	}
	if !view.OwnedBy(scope.UserID) {
		return domain.SavedView{}, domain.ErrOwnershipViolation
	}
	return view, nil
}

func (s *Service) validateInput(input CreateViewInput) error {
	if strings.TrimSpace(input.EntityType) == "" {
		return fmt.Errorf("%w: entityType is required", ErrInvalidInput)
	}
	if strings.TrimSpace(input.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if normalizeViewMode(input.ViewMode) == domain.ViewModeBoard {
		if err := s.validateBoardGroupBy(input.EntityType, input.BoardGroupBy); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) validateView(view domain.SavedView) error {
	if strings.TrimSpace(view.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if view.ViewMode == domain.ViewModeBoard {
		if err := s.validateBoardGroupBy(view.EntityType, view.BoardGroupBy); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) validateBoardGroupBy(entityType, boardGroupBy string) error {
	if boardGroupBy == "" {
		return fmt.Errorf("%w: board mode requires boardGroupBy", ErrInvalidInput)
	}
	descriptor, ok := s.properties.Lookup(entityType, boardGroupBy)
	if !ok || !descriptor.Groupable {
		return fmt.Errorf("%w: property %q is not groupable for %s", ErrInvalidInput, boardGroupBy, entityType)
	}
	return nil
}

func (s *Service) nextDisplayOrder(ctx context.Context, scope Scope, entityType string) int {
	list, err := s.repo.List(ctx, scope.OrganizationID, entityType)
	if err != nil {
		return 0
	}
	next := 0
	for _, view := range list {
		if view.OwnedBy(scope.UserID) && view.DisplayOrder >= next {
			next = view.DisplayOrder + 1
		}
	}
	return next
}

func applyPatch(view *domain.SavedView, patch domain.SavedViewPatch) {
	if patch.Name != nil {
		view.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Filters != nil {
		view.Filters = *patch.Filters
	}
	if patch.QuickFilters != nil {
		view.QuickFilters = *patch.QuickFilters
	}
	if patch.SortBy != nil {
		view.SortBy = *patch.SortBy
	}
	if patch.SortOrder != nil {
		view.SortOrder = normalizeSortOrder(*patch.SortOrder)
	}
	if patch.Columns != nil {
		view.Columns = *patch.Columns
	}
	if patch.FrozenColumnCount != nil {
		view.FrozenColumnCount = *patch.FrozenColumnCount
	}
	if patch.ViewMode != nil {
		view.ViewMode = normalizeViewMode(*patch.ViewMode)
	}
	if patch.BoardGroupBy != nil {
		view.BoardGroupBy = *patch.BoardGroupBy
	}
	if patch.IsDefault != nil {
		view.IsDefault = *patch.IsDefault
	}
	if patch.IsPinned != nil {
		view.IsPinned = *patch.IsPinned
	}
	if patch.IsShared != nil {
		view.IsShared = *patch.IsShared
		if view.IsShared && view.Visibility == domain.VisibilityPrivate {
			view.Visibility = domain.VisibilityTeam
		}
	}
	if patch.Visibility != nil {
		view.Visibility = *patch.Visibility
	}
	if patch.DisplayOrder != nil {
		view.DisplayOrder = *patch.DisplayOrder
	}
}

func normalizeSortOrder(order domain.SortOrder) domain.SortOrder {
	if order == domain.SortOrderAsc {
		return order
	}
	return domain.SortOrderDesc
}

func normalizeViewMode(mode domain.ViewMode) domain.ViewMode {
	if mode == domain.ViewModeBoard {
		return mode
	}
	return domain.ViewModeTable
}
