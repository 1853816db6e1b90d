package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nick-gallo-ethico/risk-intelligence-platform-sub015/internal/domain"
)

// SavedViewRepository defines persistence for saved view records. Every call
// is scoped to one organization; tenant resolution happens upstream.
//
// Create and Update are transactional with respect to the default-uniqueness
// invariant: persisting a view with IsDefault set clears the flag on any
// prior default for the same (entityType, owner) scope in the same unit of
// work, so at most one default survives concurrent writers.
type SavedViewRepository interface {
	Create(ctx context.Context, view domain.SavedView) (domain.SavedView, error)
	GetByID(ctx context.Context, organizationID, id uuid.UUID) (domain.SavedView, error)
	List(ctx context.Context, organizationID uuid.UUID, entityType string) ([]domain.SavedView, error)
	Update(ctx context.Context, view domain.SavedView) (domain.SavedView, error)
	Delete(ctx context.Context, organizationID, id uuid.UUID) error
	GetDefault(ctx context.Context, organizationID, ownerID uuid.UUID, entityType string) (domain.SavedView, error)
	RecordUsage(ctx context.Context, organizationID, id uuid.UUID, usedAt time.Time) error
}
