package domain

import (
	"context"

	"github.com/google/uuid"
)

// ResultPage is what the external data-access layer returns for one page of
// a compiled query.
type ResultPage struct {
	Rows       []map[string]any `json:"rows"`
	TotalCount int              `json:"totalCount"`
}

// RowSource executes compiled queries. It is the boundary to the data
// store; consumers of this package never build or run SQL themselves.
type RowSource interface {
	Query(ctx context.Context, organizationID uuid.UUID, entityType string, query CompiledQuery, offset, limit int) (ResultPage, error)
}

// BoardSource produces per-lane counts for board rendering. Like RowSource
// it lives in the external data-access layer.
type BoardSource interface {
	GroupCounts(ctx context.Context, organizationID uuid.UUID, entityType string, query CompiledQuery, groupBy string) ([]BoardGroup, error)
}
