package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nick-gallo-ethico/risk-intelligence-platform-sub015/internal/domain"
)

// InMemorySavedViewRepository is a map-backed SavedViewRepository used by
// tests and local development. It enforces the same default-uniqueness
// semantics as the Postgres implementation.
type InMemorySavedViewRepository struct {
	mu    sync.RWMutex
	views map[uuid.UUID]domain.SavedView
}

// NewInMemorySavedViewRepository creates an empty in-memory repository.
func NewInMemorySavedViewRepository() *InMemorySavedViewRepository {
	return &InMemorySavedViewRepository{views: make(map[uuid.UUID]domain.SavedView)}
}

func (r *InMemorySavedViewRepository) Create(ctx context.Context, view domain.SavedView) (domain.SavedView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if view.IsDefault {
		r.clearDefaultLocked(view.OrganizationID, view.CreatedByID, view.EntityType, view.ID)
	}
	r.views[view.ID] = view
	return view, nil
}

func (r *InMemorySavedViewRepository) GetByID(ctx context.Context, organizationID, id uuid.UUID) (domain.SavedView, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	view, ok := r.views[id]
	if !ok || view.OrganizationID != organizationID {
		return domain.SavedView{}, domain.ErrViewNotFound
	}
	return view, nil
}

func (r *InMemorySavedViewRepository) List(ctx context.Context, organizationID uuid.UUID, entityType string) ([]domain.SavedView, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var views []domain.SavedView
	for _, view := range r.views {
		if view.OrganizationID == organizationID && view.EntityType == entityType {
			views = append(views, view)
		}
	}
	sort.Slice(views, func(i, j int) bool {
		if views[i].IsPinned != views[j].IsPinned {
			return views[i].IsPinned
		}
		if views[i].DisplayOrder != views[j].DisplayOrder {
			return views[i].DisplayOrder < views[j].DisplayOrder
		}
		return views[i].CreatedAt.After(views[j].CreatedAt)
	})
	return views, nil
}

func (r *InMemorySavedViewRepository) Update(ctx context.Context, view domain.SavedView) (domain.SavedView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.views[view.ID]
	if !ok || existing.OrganizationID != view.OrganizationID {
		return domain.SavedView{}, domain.ErrViewNotFound
	}
	if view.IsDefault {
		r.clearDefaultLocked(view.OrganizationID, view.CreatedByID, view.EntityType, view.ID)
	}
	r.views[view.ID] = view
	return view, nil
}

func (r *InMemorySavedViewRepository) Delete(ctx context.Context, organizationID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	view, ok := r.views[id]
	if !ok || view.OrganizationID != organizationID {
		return domain.ErrViewNotFound
	}
	delete(r.views, id)
	return nil
}

func (r *InMemorySavedViewRepository) GetDefault(ctx context.Context, organizationID, ownerID uuid.UUID, entityType string) (domain.SavedView, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, view := range r.views {
		if view.OrganizationID == organizationID &&
			view.CreatedByID == ownerID &&
			view.EntityType == entityType &&
			view.IsDefault {
			return view, nil
		}
	}
	return domain.SavedView{}, domain.ErrViewNotFound
}

func (r *InMemorySavedViewRepository) RecordUsage(ctx context.Context, organizationID, id uuid.UUID, usedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	view, ok := r.views[id]
	if !ok || view.OrganizationID != organizationID {
		return domain.ErrViewNotFound
	}
	view.UseCount++
	view.LastUsedAt = &usedAt
	r.views[id] = view
	return nil
}

func (r *InMemorySavedViewRepository) clearDefaultLocked(organizationID, ownerID uuid.UUID, entityType string, keep uuid.UUID) {
	for id, view := range r.views {
		if id == keep {
			continue
		}
		if view.OrganizationID == organizationID &&
			view.CreatedByID == ownerID &&
			view.EntityType == entityType &&
			view.IsDefault {
			view.IsDefault = false
			r.views[id] = view
		}
	}
}
