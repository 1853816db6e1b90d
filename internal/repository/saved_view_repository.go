package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nick-gallo-ethico/risk-intelligence-platform-sub015/internal/db"
	"github.com/nick-gallo-ethico/risk-intelligence-platform-sub015/internal/domain"
)

const savedViewColumns = `id, organization_id, created_by_id, entity_type, name,
	filters, quick_filters, sort_by, sort_order, columns, frozen_column_count,
	view_mode, board_group_by, is_default, is_pinned, is_shared, visibility,
	display_order, use_count, last_used_at, created_at, updated_at`

// savedViewRepository implements SavedViewRepository on Postgres.
type savedViewRepository struct {
	conn *db.Connection
}

// NewSavedViewRepository creates a Postgres-backed saved view repository.
func NewSavedViewRepository(conn *db.Connection) SavedViewRepository {
	return &savedViewRepository{conn: conn}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSavedView(row rowScanner) (domain.SavedView, error) {
	var (
		view             domain.SavedView
		filtersJSON      json.RawMessage
		quickFiltersJSON json.RawMessage
		columnsJSON      json.RawMessage
	)

	err := row.Scan(
		&view.ID, &view.OrganizationID, &view.CreatedByID, &view.EntityType, &view.Name,
		&filtersJSON, &quickFiltersJSON, &view.SortBy, &view.SortOrder, &columnsJSON,
		&view.FrozenColumnCount, &view.ViewMode, &view.BoardGroupBy, &view.IsDefault,
		&view.IsPinned, &view.IsShared, &view.Visibility, &view.DisplayOrder,
		&view.UseCount, &view.LastUsedAt, &view.CreatedAt, &view.UpdatedAt,
	)
	if err != nil {
		return domain.SavedView{}, err
	}

	if err := json.Unmarshal(filtersJSON, &view.Filters); err != nil {
		return domain.SavedView{}, fmt.Errorf("failed to decode stored filters: %w", err)
	}
	if err := json.Unmarshal(quickFiltersJSON, &view.QuickFilters); err != nil {
		return domain.SavedView{}, fmt.Errorf("failed to decode stored quick filters: %w", err)
	}
	if err := json.Unmarshal(columnsJSON, &view.Columns); err != nil {
		return domain.SavedView{}, fmt.Errorf("failed to decode stored columns: %w", err)
	}

	return view, nil
}

func savedViewArgs(view domain.SavedView) ([]any, error) {
	filtersJSON, err := view.FiltersAsJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal filters: %w", err)
	}
	quickFiltersJSON, err := view.QuickFiltersAsJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal quick filters: %w", err)
	}
	columnsJSON, err := view.ColumnsAsJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal columns: %w", err)
	}

	return []any{
		view.ID, view.OrganizationID, view.CreatedByID, view.EntityType, view.Name,
		filtersJSON, quickFiltersJSON, view.SortBy, view.SortOrder, columnsJSON,
		view.FrozenColumnCount, view.ViewMode, view.BoardGroupBy, view.IsDefault,
		view.IsPinned, view.IsShared, view.Visibility, view.DisplayOrder,
		view.UseCount, view.LastUsedAt, view.CreatedAt, view.UpdatedAt,
	}, nil
}

// Create inserts a saved view. When the view claims the default slot, the
// previous default for the same owner scope is cleared in the same
// transaction so the uniqueness invariant holds under concurrent writers.
func (r *savedViewRepository) Create(ctx context.Context, view domain.SavedView) (domain.SavedView, error) {
	args, err := savedViewArgs(view)
	if err != nil {
		return domain.SavedView{}, err
	}

	insert := `INSERT INTO saved_views (` + savedViewColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)`

	err = r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		if view.IsDefault {
			if err := clearDefaultTx(ctx, tx, view.OrganizationID, view.CreatedByID, view.EntityType, uuid.Nil); err != nil {
				return err
			}
		}
		if _, err := tx.Exec(ctx, insert, args...); err != nil {
			return fmt.Errorf("failed to insert saved view: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.SavedView{}, err
	}

	return view, nil
}

// GetByID retrieves a saved view within the organization scope.
func (r *savedViewRepository) GetByID(ctx context.Context, organizationID, id uuid.UUID) (domain.SavedView, error) {
	query := `SELECT ` + savedViewColumns + ` FROM saved_views
		WHERE id = $1 AND organization_id = $2`

	view, err := scanSavedView(r.conn.Pool.QueryRow(ctx, query, id, organizationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.SavedView{}, domain.ErrViewNotFound
		}
		return domain.SavedView{}, fmt.Errorf("failed to get saved view: %w", err)
	}
	return view, nil
}

// List retrieves every saved view for an organization and entity type,
// pinned views first, then by display order and recency.
func (r *savedViewRepository) List(ctx context.Context, organizationID uuid.UUID, entityType string) ([]domain.SavedView, error) {
	query := `SELECT ` + savedViewColumns + ` FROM saved_views
		WHERE organization_id = $1 AND entity_type = $2
		ORDER BY is_pinned DESC, display_order ASC, created_at DESC`

	rows, err := r.conn.Pool.Query(ctx, query, organizationID, entityType)
	if err != nil {
		return nil, fmt.Errorf("failed to list saved views: %w", err)
	}
	defer rows.Close()

	var views []domain.SavedView
	for rows.Next() {
		view, err := scanSavedView(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan saved view: %w", err)
		}
		views = append(views, view)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read saved views: %w", err)
	}

	return views, nil
}

// Update rewrites a saved view. Default reassignment runs in the same
// transaction as the write itself.
func (r *savedViewRepository) Update(ctx context.Context, view domain.SavedView) (domain.SavedView, error) {
	args, err := savedViewArgs(view)
	if err != nil {
		return domain.SavedView{}, err
	}

	update := `UPDATE saved_views SET
		name = $5, filters = $6, quick_filters = $7, sort_by = $8, sort_order = $9,
		columns = $10, frozen_column_count = $11, view_mode = $12, board_group_by = $13,
		is_default = $14, is_pinned = $15, is_shared = $16, visibility = $17,
		display_order = $18, use_count = $19, last_used_at = $20, created_at = $21, updated_at = $22
		WHERE id = $1 AND organization_id = $2`

	err = r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		if view.IsDefault {
			if err := clearDefaultTx(ctx, tx, view.OrganizationID, view.CreatedByID, view.EntityType, view.ID); err != nil {
				return err
			}
		}
		tag, err := tx.Exec(ctx, update, args...)
		if err != nil {
			return fmt.Errorf("failed to update saved view: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrViewNotFound
		}
		return nil
	})
	if err != nil {
		return domain.SavedView{}, err
	}

	return view, nil
}

// Delete removes a saved view within the organization scope.
func (r *savedViewRepository) Delete(ctx context.Context, organizationID, id uuid.UUID) error {
	tag, err := r.conn.Pool.Exec(ctx,
		`DELETE FROM saved_views WHERE id = $1 AND organization_id = $2`, id, organizationID)
	if err != nil {
		return fmt.Errorf("failed to delete saved view: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrViewNotFound
	}
	return nil
}

// GetDefault retrieves the owner's default view for an entity type.
func (r *savedViewRepository) GetDefault(ctx context.Context, organizationID, ownerID uuid.UUID, entityType string) (domain.SavedView, error) {
	query := `SELECT ` + savedViewColumns + ` FROM saved_views
		WHERE organization_id = $1 AND created_by_id = $2 AND entity_type = $3 AND is_default`

	view, err := scanSavedView(r.conn.Pool.QueryRow(ctx, query, organizationID, ownerID, entityType))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.SavedView{}, domain.ErrViewNotFound
		}
		return domain.SavedView{}, fmt.Errorf("failed to get default saved view: %w", err)
	}
	return view, nil
}

// RecordUsage bumps the apply bookkeeping for a view.
func (r *savedViewRepository) RecordUsage(ctx context.Context, organizationID, id uuid.UUID, usedAt time.Time) error {
	tag, err := r.conn.Pool.Exec(ctx,
		`UPDATE saved_views SET use_count = use_count + 1, last_used_at = $3
		 WHERE id = $1 AND organization_id = $2`, id, organizationID, usedAt)
	if err != nil {
		return fmt.Errorf("failed to record view usage: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrViewNotFound
	}
	return nil
}

func clearDefaultTx(ctx context.Context, tx pgx.Tx, organizationID, ownerID uuid.UUID, entityType string, keep uuid.UUID) error {
	_, err := tx.Exec(ctx,
		`UPDATE saved_views SET is_default = FALSE
		 WHERE organization_id = $1 AND created_by_id = $2 AND entity_type = $3 AND is_default AND id <> $4`,
		organizationID, ownerID, entityType, keep)
	if err != nil {
		return fmt.Errorf("failed to clear previous default view: %w", err)
	}
	return nil
}
