package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/nick-gallo-ethico/risk-intelligence-platform-sub015/internal/auth"
	"github.com/nick-gallo-ethico/risk-intelligence-platform-sub015/internal/compiler"
	"github.com/nick-gallo-ethico/risk-intelligence-platform-sub015/internal/domain"
	"github.com/nick-gallo-ethico/risk-intelligence-platform-sub015/internal/export"
	"github.com/nick-gallo-ethico/risk-intelligence-platform-sub015/internal/modules"
	"github.com/nick-gallo-ethico/risk-intelligence-platform-sub015/internal/session"
	"github.com/nick-gallo-ethico/risk-intelligence-platform-sub015/internal/views"
)

// Handler exposes the saved view engine as a JSON API. Tenant and user
// scope are read from the request context; the auth middleware upstream is
// responsible for putting them there.
type Handler struct {
	store    *views.Service
	compiler *compiler.Compiler
	catalog  *modules.Catalog
	rows     domain.RowSource
	exporter *export.Service
}

// NewHandler builds the API handler.
func NewHandler(store *views.Service, comp *compiler.Compiler, catalog *modules.Catalog, rows domain.RowSource, exporter *export.Service) *Handler {
	return &Handler{store: store, compiler: comp, catalog: catalog, rows: rows, exporter: exporter}
}

// Routes registers every endpoint on a fresh mux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/modules", h.listModules)
	mux.HandleFunc("GET /api/views/{entityType}", h.listViews)
	mux.HandleFunc("POST /api/views/{entityType}", h.createView)
	mux.HandleFunc("PATCH /api/views/{entityType}/{id}", h.updateView)
	mux.HandleFunc("DELETE /api/views/{entityType}/{id}", h.deleteView)
	mux.HandleFunc("POST /api/views/{entityType}/{id}/duplicate", h.duplicateView)
	mux.HandleFunc("POST /api/views/{entityType}/{id}/apply", h.applyView)
	mux.HandleFunc("GET /api/views/{entityType}/default", h.getDefaultView)
	mux.HandleFunc("POST /api/views/{entityType}/reorder", h.reorderViews)
	mux.HandleFunc("POST /api/query/{entityType}", h.query)
	mux.HandleFunc("POST /api/export/{entityType}", h.exportRows)
	return mux
}

func (h *Handler) listModules(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.scope(w, r); !ok {
		return
	}
	configs := make([]modules.ModuleViewConfig, 0)
	for _, entityType := range h.catalog.EntityTypes() {
		if cfg, ok := h.catalog.Get(entityType); ok {
			configs = append(configs, cfg)
		}
	}
	writeJSON(w, http.StatusOK, configs)
}

func (h *Handler) listViews(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scope(w, r)
	if !ok {
		return
	}
	entityType, ok := h.entityType(w, r)
	if !ok {
		return
	}
	list, err := h.store.List(r.Context(), scope, entityType)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

type createViewRequest struct {
	Name              string                  `json:"name"`
	Filters           []domain.FilterGroup    `json:"filters"`
	QuickFilters      domain.QuickFilterState `json:"quickFilters"`
	SortBy            string                  `json:"sortBy"`
	SortOrder         domain.SortOrder        `json:"sortOrder"`
	Columns           []domain.ColumnConfig   `json:"columns"`
	FrozenColumnCount int                     `json:"frozenColumnCount"`
	ViewMode          domain.ViewMode         `json:"viewMode"`
	BoardGroupBy      string                  `json:"boardGroupBy"`
	IsDefault         bool                    `json:"isDefault"`
	IsPinned          bool                    `json:"isPinned"`
	IsShared          bool                    `json:"isShared"`
	Visibility        domain.Visibility       `json:"visibility"`
}

func (h *Handler) createView(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scope(w, r)
	if !ok {
		return
	}
	entityType, ok := h.entityType(w, r)
	if !ok {
		return
	}
	var req createViewRequest
	if !decodeBody(w, r, &req) {
		return
	}
	created, err := h.store.Create(r.Context(), scope, views.CreateViewInput{
		EntityType:        entityType,
		Name:              req.Name,
		Filters:           req.Filters,
		QuickFilters:      req.QuickFilters,
		SortBy:            req.SortBy,
		SortOrder:         req.SortOrder,
		Columns:           req.Columns,
		FrozenColumnCount: req.FrozenColumnCount,
		ViewMode:          req.ViewMode,
		BoardGroupBy:      req.BoardGroupBy,
		IsDefault:         req.IsDefault,
		IsPinned:          req.IsPinned,
		IsShared:          req.IsShared,
		Visibility:        req.Visibility,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) updateView(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scope(w, r)
	if !ok {
		return
	}
	id, ok := h.viewID(w, r)
	if !ok {
		return
	}
	var patch domain.SavedViewPatch
	if !decodeBody(w, r, &patch) {
		return
	}
	updated, err := h.store.Update(r.Context(), scope, id, patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) deleteView(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scope(w, r)
	if !ok {
		return
	}
	id, ok := h.viewID(w, r)
	if !ok {
		return
	}
	if err := h.store.Delete(r.Context(), scope, id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) duplicateView(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scope(w, r)
	if !ok {
		return
	}
	id, ok := h.viewID(w, r)
	if !ok {
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	created, err := h.store.Duplicate(r.Context(), scope, id, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) applyView(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scope(w, r)
	if !ok {
		return
	}
	id, ok := h.viewID(w, r)
	if !ok {
		return
	}
	applied, err := h.store.Apply(r.Context(), scope, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, applied)
}

func (h *Handler) getDefaultView(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scope(w, r)
	if !ok {
		return
	}
	entityType, ok := h.entityType(w, r)
	if !ok {
		return
	}
	view, err := h.store.GetDefault(r.Context(), scope, entityType)
	if err != nil {
		writeError(w, err)
		return
	}
	if view == nil {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) reorderViews(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scope(w, r)
	if !ok {
		return
	}
	entityType, ok := h.entityType(w, r)
	if !ok {
		return
	}
	var req struct {
		IDs []uuid.UUID `json:"ids"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.store.Reorder(r.Context(), scope, entityType, req.IDs); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type queryRequest struct {
	QuickFilters domain.QuickFilterState `json:"quickFilters"`
	FilterGroups []domain.FilterGroup    `json:"filterGroups"`
	SortBy       string                  `json:"sortBy"`
	SortOrder    domain.SortOrder        `json:"sortOrder"`
	Page         int                     `json:"page"`
	PageSize     int                     `json:"pageSize"`
}

type queryResponse struct {
	Rows           []map[string]any `json:"rows"`
	TotalCount     int              `json:"totalCount"`
	InvalidFilters []string         `json:"invalidFilters"`
}

func (h *Handler) query(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scope(w, r)
	if !ok {
		return
	}
	entityType, ok := h.entityType(w, r)
	if !ok {
		return
	}
	var req queryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 {
		req.PageSize = session.DefaultPageSize
	}

	compiled := h.compiler.Compile(entityType, req.QuickFilters, req.FilterGroups, req.SortBy, req.SortOrder)
	offset := (req.Page - 1) * req.PageSize
	page, err := h.rows.Query(r.Context(), scope.OrganizationID, entityType, compiled, offset, req.PageSize)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, queryResponse{
		Rows:           page.Rows,
		TotalCount:     page.TotalCount,
		InvalidFilters: compiled.InvalidFilters,
	})
}

type exportRequest struct {
	QuickFilters domain.QuickFilterState `json:"quickFilters"`
	FilterGroups []domain.FilterGroup    `json:"filterGroups"`
	SortBy       string                  `json:"sortBy"`
	SortOrder    domain.SortOrder        `json:"sortOrder"`
	Columns      []domain.ColumnConfig   `json:"columns"`
}

func (h *Handler) exportRows(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scope(w, r)
	if !ok {
		return
	}
	entityType, ok := h.entityType(w, r)
	if !ok {
		return
	}
	cfg, found := h.catalog.Get(entityType)
	if !found {
		http.Error(w, fmt.Sprintf("unknown entity type %q", entityType), http.StatusNotFound)
		return
	}
	var req exportRequest
	if !decodeBody(w, r, &req) {
		return
	}

	compiled := h.compiler.Compile(entityType, req.QuickFilters, req.FilterGroups, req.SortBy, req.SortOrder)
	path, err := h.exporter.Export(r.Context(), h.rows, export.Request{
		OrganizationID: scope.OrganizationID,
		Module:         cfg,
		Query:          compiled,
		Columns:        req.Columns,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"path":           path,
		"invalidFilters": compiled.InvalidFilters,
	})
}

func (h *Handler) scope(w http.ResponseWriter, r *http.Request) (views.Scope, bool) {
	organizationID, okOrg := auth.OrganizationIDFromContext(r.Context())
	userID, okUser := auth.UserIDFromContext(r.Context())
	if !okOrg || !okUser {
		http.Error(w, "authentication scope missing", http.StatusUnauthorized)
		return views.Scope{}, false
	}
	return views.Scope{OrganizationID: organizationID, UserID: userID}, true
}

func (h *Handler) entityType(w http.ResponseWriter, r *http.Request) (string, bool) {
	entityType := strings.TrimSpace(r.PathValue("entityType"))
	if entityType == "" {
		http.Error(w, "entityType is required", http.StatusBadRequest)
		return "", false
	}
	return entityType, true
}

func (h *Handler) viewID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid view id: %v", err), http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		// Headers are already out; nothing useful left to do.
		return
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrViewNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrOwnershipViolation):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, views.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
