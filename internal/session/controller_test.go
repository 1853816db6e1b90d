package session

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/nick-gallo-ethico/risk-intelligence-platform-sub015/internal/compiler"
	"github.com/nick-gallo-ethico/risk-intelligence-platform-sub015/internal/domain"
	"github.com/nick-gallo-ethico/risk-intelligence-platform-sub015/internal/registry"
	"github.com/nick-gallo-ethico/risk-intelligence-platform-sub015/internal/repository"
	"github.com/nick-gallo-ethico/risk-intelligence-platform-sub015/internal/views"
)

// fakeRowSource records the query it was handed and returns a canned page.
type fakeRowSource struct {
	lastQuery  domain.CompiledQuery
	lastOffset int
	lastLimit  int
	page       domain.ResultPage
}

func (f *fakeRowSource) Query(ctx context.Context, organizationID uuid.UUID, entityType string, query domain.CompiledQuery, offset, limit int) (domain.ResultPage, error) {
	f.lastQuery = query
	f.lastOffset = offset
	f.lastLimit = limit
	return f.page, nil
}

type fakeBoardSource struct {
	lastGroupBy string
	groups      []domain.BoardGroup
}

func (f *fakeBoardSource) GroupCounts(ctx context.Context, organizationID uuid.UUID, entityType string, query domain.CompiledQuery, groupBy string) ([]domain.BoardGroup, error) {
	f.lastGroupBy = groupBy
	return f.groups, nil
}

func testFixture(t *testing.T) (*Controller, *views.Service, views.Scope) {
	t.Helper()
	props := registry.NewPropertyRegistry(map[string][]domain.PropertyDescriptor{
		"CASES": {
			{ID: "title", Label: "Title", Type: domain.PropertyTypeText, Filterable: true, Sortable: true},
			{ID: "status", Label: "Status", Type: domain.PropertyTypeStatus, Filterable: true, Sortable: true, Groupable: true},
			{ID: "severity", Label: "Severity", Type: domain.PropertyTypeSeverity, Filterable: true, Sortable: true, Groupable: true},
			{ID: "ownerId", Label: "Owner", Type: domain.PropertyTypeUser, Filterable: true, Sortable: true, Groupable: true},
		},
	})
	ops := registry.NewOperatorRegistry()
	store := views.NewService(repository.NewInMemorySavedViewRepository(), props, ops)
	scope := views.Scope{OrganizationID: uuid.New(), UserID: uuid.New()}
	return NewController(scope, "CASES", store, compiler.New(props, ops)), store, scope
}

func TestControllerStartsEmpty(t *testing.T) {
	ctrl, _, _ := testFixture(t)

	if !ctrl.Compiled().Predicate.IsMatchAll() {
		t.Errorf("fresh controller should compile to match-all, got %+v", ctrl.Compiled().Predicate)
	}
	if ctrl.Page() != 1 || ctrl.PageSize() != DefaultPageSize {
		t.Errorf("unexpected initial pagination: page=%d size=%d", ctrl.Page(), ctrl.PageSize())
	}
	if ctrl.ViewMode() != domain.ViewModeTable {
		t.Errorf("controller should start in table mode, got %s", ctrl.ViewMode())
	}
	if ctrl.ActiveViewID() != nil {
		t.Error("fresh controller should have no active view")
	}
}

func TestFilterMutationsResetPageAndRecompile(t *testing.T) {
	ctrl, _, _ := testFixture(t)

	ctrl.SetPage(3)

	ctrl.SetQuickFilter("ownerId", domain.QuickFilterValue{Values: []string{"u1"}})
	if ctrl.Page() != 1 {
		t.Error("setting a quick filter should return to page 1")
	}
	if ctrl.Compiled().Predicate.IsMatchAll() {
		t.Error("predicate should have narrowed after the quick filter")
	}

	ctrl.SetPage(2)
	ctrl.AddFilterGroup(domain.FilterGroup{
		ID: "g1",
		Conditions: []domain.FilterCondition{
			{ID: "c1", PropertyID: "status", Operator: domain.OperatorIsAnyOf, Values: []string{"OPEN"}},
		},
	})
	if ctrl.Page() != 1 {
		t.Error("adding a filter group should return to page 1")
	}

	ctrl.SetPage(4)
	ctrl.SetSort("title", domain.SortOrderAsc)
	if ctrl.Page() != 1 {
		t.Error("changing the sort should return to page 1")
	}
	if ctrl.Compiled().Sort.By != "title" || ctrl.Compiled().Sort.Order != domain.SortOrderAsc {
		t.Errorf("sort not recompiled: %+v", ctrl.Compiled().Sort)
	}

	ctrl.SetPage(5)
	ctrl.SetPageSize(50)
	if ctrl.Page() != 1 || ctrl.PageSize() != 50 {
		t.Errorf("page size change should reset to page 1, got page=%d size=%d", ctrl.Page(), ctrl.PageSize())
	}
}

func TestClearFiltersKeepsActiveViewReference(t *testing.T) {
	ctrl, _, _ := testFixture(t)
	ctx := context.Background()

	ctrl.SetQuickFilter("ownerId", domain.QuickFilterValue{Values: []string{"u1"}})
	saved, err := ctrl.SaveCurrentAsView(ctx, "Mine", SaveOptions{})
	if err != nil {
		t.Fatalf("SaveCurrentAsView failed: %v", err)
	}

	ctrl.ClearFilters()
	if !ctrl.Compiled().Predicate.IsMatchAll() {
		t.Error("cleared controller should compile to match-all")
	}
	if ctrl.ActiveViewID() == nil || *ctrl.ActiveViewID() != saved.ID {
		t.Error("clearing filters should keep the active view back-pointer")
	}
}

func TestSaveThenApplyRoundTrip(t *testing.T) {
	ctrl, _, _ := testFixture(t)
	ctx := context.Background()

	ctrl.AddFilterGroup(domain.FilterGroup{
		ID: "g1",
		Conditions: []domain.FilterCondition{
			{ID: "c1", PropertyID: "status", Operator: domain.OperatorIsAnyOf, Values: []string{"OPEN", "NEW"}},
		},
	})
	ctrl.SetQuickFilter("severity", domain.QuickFilterValue{Values: []string{"HIGH"}})
	ctrl.SetSort("title", domain.SortOrderAsc)
	before := ctrl.Compiled()

	saved, err := ctrl.SaveCurrentAsView(ctx, "Open and high", SaveOptions{IsPinned: true})
	if err != nil {
		t.Fatalf("SaveCurrentAsView failed: %v", err)
	}
	if ctrl.ActiveViewID() == nil || *ctrl.ActiveViewID() != saved.ID {
		t.Error("saving should set the active view")
	}

	// Locally diverge, then re-apply the stored view.
	ctrl.ClearFilters()
	ctrl.SetSort("", "")

	invalid, err := ctrl.ApplyView(ctx, saved.ID)
	if err != nil {
		t.Fatalf("ApplyView failed: %v", err)
	}
	if len(invalid) != 0 {
		t.Errorf("expected no invalid filters, got %v", invalid)
	}
	if diff := cmp.Diff(before, ctrl.Compiled()); diff != "" {
		t.Errorf("re-applied view compiled differently (-saved +applied):\n%s", diff)
	}
	if ctrl.Page() != 1 {
		t.Error("applying a view should reset pagination")
	}
}

func TestMountAppliesDefaultView(t *testing.T) {
	ctrl, store, scope := testFixture(t)
	ctx := context.Background()

	def, err := store.Create(ctx, scope, views.CreateViewInput{
		EntityType: "CASES",
		Name:       "My default",
		Filters: []domain.FilterGroup{{
			ID: "g1",
			Conditions: []domain.FilterCondition{
				{ID: "c1", PropertyID: "ownerId", Operator: domain.OperatorIsAnyOf, Values: []string{scope.UserID.String()}},
			},
		}},
		IsDefault: true,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := ctrl.Mount(ctx, true); err != nil {
		t.Fatalf("Mount failed: %v", err)
	}
	if ctrl.ActiveViewID() == nil || *ctrl.ActiveViewID() != def.ID {
		t.Error("mount should auto-apply the default view")
	}
	if ctrl.Compiled().Predicate.IsMatchAll() {
		t.Error("mounted controller should carry the default view's filters")
	}
}

func TestMountWithoutDefaultKeepsInitialState(t *testing.T) {
	ctrl, _, _ := testFixture(t)

	invalid, err := ctrl.Mount(context.Background(), true)
	if err != nil {
		t.Fatalf("Mount failed: %v", err)
	}
	if invalid != nil {
		t.Errorf("no default view means no drift report, got %v", invalid)
	}
	if !ctrl.Compiled().Predicate.IsMatchAll() {
		t.Error("controller without a default should keep its empty state")
	}
}

func TestConditionEditing(t *testing.T) {
	ctrl, _, _ := testFixture(t)

	ctrl.AddFilterGroup(domain.FilterGroup{
		ID: "g1",
		Conditions: []domain.FilterCondition{
			{ID: "c1", PropertyID: "status", Operator: domain.OperatorIsAnyOf, Values: []string{"OPEN"}},
		},
	})

	ctrl.UpdateCondition("g1", domain.FilterCondition{
		ID: "c1", PropertyID: "status", Operator: domain.OperatorIsAnyOf, Values: []string{"OPEN", "NEW"},
	})
	groups := ctrl.FilterGroups()
	if len(groups) != 1 || len(groups[0].Conditions) != 1 {
		t.Fatalf("unexpected groups after update: %+v", groups)
	}
	if diff := cmp.Diff([]string{"OPEN", "NEW"}, groups[0].Conditions[0].Values); diff != "" {
		t.Errorf("condition not replaced in place (-want +got):\n%s", diff)
	}

	ctrl.UpdateCondition("g1", domain.FilterCondition{
		ID: "c2", PropertyID: "severity", Operator: domain.OperatorIsAnyOf, Values: []string{"HIGH"},
	})
	if len(ctrl.FilterGroups()[0].Conditions) != 2 {
		t.Error("unknown condition id should append to the group")
	}

	ctrl.RemoveCondition("g1", "c1")
	ctrl.RemoveCondition("g1", "c2")
	if len(ctrl.FilterGroups()) != 0 {
		t.Errorf("removing the last condition should remove the group, got %+v", ctrl.FilterGroups())
	}
}

func TestQueryPassesPaginationWindow(t *testing.T) {
	ctrl, _, _ := testFixture(t)
	source := &fakeRowSource{page: domain.ResultPage{Rows: []map[string]any{{"id": "r1"}}, TotalCount: 60}}

	ctrl.SetPageSize(20)
	ctrl.SetPage(3)

	page, err := ctrl.Query(context.Background(), source)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if source.lastOffset != 40 || source.lastLimit != 20 {
		t.Errorf("expected offset 40 limit 20, got %d/%d", source.lastOffset, source.lastLimit)
	}
	if page.TotalCount != 60 {
		t.Errorf("result page not passed through, got %+v", page)
	}
}

func TestQueryBoardRequiresBoardMode(t *testing.T) {
	ctrl, _, _ := testFixture(t)
	source := &fakeBoardSource{groups: []domain.BoardGroup{{Value: "OPEN", Count: 3}}}
	ctx := context.Background()

	if _, err := ctrl.QueryBoard(ctx, source); err == nil {
		t.Error("board query in table mode should fail")
	}

	ctrl.SetViewMode(domain.ViewModeBoard, "status")
	groups, err := ctrl.QueryBoard(ctx, source)
	if err != nil {
		t.Fatalf("QueryBoard failed: %v", err)
	}
	if source.lastGroupBy != "status" {
		t.Errorf("grouping property not passed through, got %q", source.lastGroupBy)
	}
	if len(groups) != 1 || groups[0].Value != "OPEN" || groups[0].Count != 3 {
		t.Errorf("unexpected board groups %+v", groups)
	}
}

func TestColumnLayoutSurvivesSaveAndApply(t *testing.T) {
	ctrl, _, _ := testFixture(t)
	ctx := context.Background()

	columns := []domain.ColumnConfig{
		{Key: "title", Visible: true, Order: 0},
		{Key: "status", Visible: true, Order: 1},
	}
	ctrl.SetColumns(columns, 1)
	if ctrl.FrozenColumnCount() != 1 {
		t.Fatalf("frozen column count = %d, want 1", ctrl.FrozenColumnCount())
	}

	saved, err := ctrl.SaveCurrentAsView(ctx, "Frozen title", SaveOptions{})
	if err != nil {
		t.Fatalf("SaveCurrentAsView failed: %v", err)
	}
	if saved.FrozenColumnCount != 1 {
		t.Errorf("saved view frozen column count = %d, want 1", saved.FrozenColumnCount)
	}

	ctrl.SetColumns(nil, 0)
	if _, err := ctrl.ApplyView(ctx, saved.ID); err != nil {
		t.Fatalf("ApplyView failed: %v", err)
	}
	if diff := cmp.Diff(columns, ctrl.Columns()); diff != "" {
		t.Errorf("columns not restored (-want +got):\n%s", diff)
	}
	if ctrl.FrozenColumnCount() != 1 {
		t.Errorf("frozen column count not restored, got %d", ctrl.FrozenColumnCount())
	}
}

func TestSetPageClampsToOne(t *testing.T) {
	ctrl, _, _ := testFixture(t)

	ctrl.SetPage(0)
	if ctrl.Page() != 1 {
		t.Errorf("page should clamp to 1, got %d", ctrl.Page())
	}
	ctrl.SetPageSize(0)
	if ctrl.PageSize() != DefaultPageSize {
		t.Errorf("invalid page size should fall back to default, got %d", ctrl.PageSize())
	}
}
