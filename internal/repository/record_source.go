package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/nick-gallo-ethico/risk-intelligence-platform-sub015/internal/db"
	"github.com/nick-gallo-ethico/risk-intelligence-platform-sub015/internal/domain"
)

// RecordSource executes compiled queries against the records table, where
// every entity row keeps its module properties in a JSONB column. It is the
// Postgres side of the domain.RowSource and domain.BoardSource contracts.
type RecordSource struct {
	conn *db.Connection
}

// NewRecordSource creates a Postgres-backed row source.
func NewRecordSource(conn *db.Connection) *RecordSource {
	return &RecordSource{conn: conn}
}

var _ domain.RowSource = (*RecordSource)(nil)
var _ domain.BoardSource = (*RecordSource)(nil)

type sqlBuilder struct {
	args []any
}

func newSQLBuilder() *sqlBuilder {
	return &sqlBuilder{args: make([]any, 0)}
}

func (b *sqlBuilder) addArg(value any) string {
	b.args = append(b.args, value)
	return fmt.Sprintf("$%d", len(b.args))
}

// Query runs one page of the compiled query.
func (r *RecordSource) Query(ctx context.Context, organizationID uuid.UUID, entityType string, query domain.CompiledQuery, offset, limit int) (domain.ResultPage, error) {
	builder := newSQLBuilder()
	where := baseClauses(builder, organizationID, entityType)
	if clause := renderPredicate(query.Predicate, builder); clause != "" {
		where = append(where, clause)
	}

	sql := fmt.Sprintf(
		`SELECT id, properties, created_at, updated_at, COUNT(*) OVER() AS total_count
		 FROM records WHERE %s %s LIMIT %s OFFSET %s`,
		strings.Join(where, " AND "),
		orderClause(query.Sort, builder),
		builder.addArg(limit),
		builder.addArg(offset),
	)

	rows, err := r.conn.Pool.Query(ctx, sql, builder.args...)
	if err != nil {
		return domain.ResultPage{}, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	page := domain.ResultPage{Rows: []map[string]any{}}
	for rows.Next() {
		var (
			id         uuid.UUID
			properties map[string]any
			createdAt  any
			updatedAt  any
			totalCount int
		)
		if err := rows.Scan(&id, &properties, &createdAt, &updatedAt, &totalCount); err != nil {
			return domain.ResultPage{}, fmt.Errorf("failed to scan record: %w", err)
		}
		row := make(map[string]any, len(properties)+3)
		for k, v := range properties {
			row[k] = v
		}
		row["id"] = id
		row["createdAt"] = createdAt
		row["updatedAt"] = updatedAt
		page.Rows = append(page.Rows, row)
		page.TotalCount = totalCount
	}
	if err := rows.Err(); err != nil {
		return domain.ResultPage{}, fmt.Errorf("failed to read records: %w", err)
	}

	return page, nil
}

// GroupCounts renders the board lanes: one count per discrete value of the
// grouping property under the same predicate.
func (r *RecordSource) GroupCounts(ctx context.Context, organizationID uuid.UUID, entityType string, query domain.CompiledQuery, groupBy string) ([]domain.BoardGroup, error) {
	builder := newSQLBuilder()
	where := baseClauses(builder, organizationID, entityType)
	if clause := renderPredicate(query.Predicate, builder); clause != "" {
		where = append(where, clause)
	}

	groupExpr := fmt.Sprintf("COALESCE(properties ->> %s, '')", builder.addArg(groupBy))
	sql := fmt.Sprintf(
		`SELECT %s AS lane, COUNT(*) FROM records WHERE %s GROUP BY 1 ORDER BY 2 DESC, 1 ASC`,
		groupExpr, strings.Join(where, " AND "),
	)

	rows, err := r.conn.Pool.Query(ctx, sql, builder.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count board groups: %w", err)
	}
	defer rows.Close()

	var groups []domain.BoardGroup
	for rows.Next() {
		var group domain.BoardGroup
		if err := rows.Scan(&group.Value, &group.Count); err != nil {
			return nil, fmt.Errorf("failed to scan board group: %w", err)
		}
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read board groups: %w", err)
	}

	return groups, nil
}

func baseClauses(builder *sqlBuilder, organizationID uuid.UUID, entityType string) []string {
	return []string{
		"organization_id = " + builder.addArg(organizationID),
		"entity_type = " + builder.addArg(entityType),
	}
}

func orderClause(sort domain.Sort, builder *sqlBuilder) string {
	direction := "DESC"
	if sort.Order == domain.SortOrderAsc {
		direction = "ASC"
	}
	if sort.By == "" {
		return "ORDER BY created_at " + direction
	}
	return fmt.Sprintf("ORDER BY properties ->> %s %s NULLS LAST, created_at DESC",
		builder.addArg(sort.By), direction)
}

// renderPredicate turns a predicate tree into a parameterized WHERE
// fragment. MatchAll renders to nothing.
func renderPredicate(p domain.Predicate, builder *sqlBuilder) string {
	switch p.Kind {
	case domain.PredicateMatchAll:
		return ""
	case domain.PredicateComparison:
		return renderComparison(*p.Comparison, builder)
	case domain.PredicateAnd, domain.PredicateOr:
		joiner := " AND "
		if p.Kind == domain.PredicateOr {
			joiner = " OR "
		}
		parts := make([]string, 0, len(p.Operands))
		for _, operand := range p.Operands {
			if clause := renderPredicate(operand, builder); clause != "" {
				parts = append(parts, clause)
			}
		}
		if len(parts) == 0 {
			return ""
		}
		return "(" + strings.Join(parts, joiner) + ")"
	}
	return ""
}

func renderComparison(c domain.Comparison, builder *sqlBuilder) string {
	prop := fmt.Sprintf("properties ->> %s", builder.addArg(c.PropertyID))

	switch c.Operator {
	case domain.OperatorIsKnown:
		return fmt.Sprintf("(%s) IS NOT NULL", prop)
	case domain.OperatorIsUnknown:
		return fmt.Sprintf("(%s) IS NULL", prop)
	}

	switch c.PropertyType {
	case domain.PropertyTypeText:
		return renderTextComparison(prop, c, builder)
	case domain.PropertyTypeNumber:
		return renderCastComparison(prop, "numeric", c, builder)
	case domain.PropertyTypeDate:
		return renderDateComparison(prop, c, builder)
	case domain.PropertyTypeBoolean:
		return fmt.Sprintf("(%s)::boolean = %s::boolean", prop, builder.addArg(c.Value))
	default:
		return renderSetComparison(prop, c, builder)
	}
}

func renderTextComparison(prop string, c domain.Comparison, builder *sqlBuilder) string {
	switch c.Operator {
	case domain.OperatorContains:
		return fmt.Sprintf("%s ILIKE '%%' || %s || '%%'", prop, builder.addArg(c.Value))
	case domain.OperatorNotContains:
		return fmt.Sprintf("(%s IS NULL OR %s NOT ILIKE '%%' || %s || '%%')", prop, prop, builder.addArg(c.Value))
	case domain.OperatorStartsWith:
		return fmt.Sprintf("%s ILIKE %s || '%%'", prop, builder.addArg(c.Value))
	case domain.OperatorEndsWith:
		return fmt.Sprintf("%s ILIKE '%%' || %s", prop, builder.addArg(c.Value))
	case domain.OperatorIsNot:
		return fmt.Sprintf("(%s IS NULL OR %s <> %s)", prop, prop, builder.addArg(c.Value))
	default: // is
		return fmt.Sprintf("%s = %s", prop, builder.addArg(c.Value))
	}
}

func renderCastComparison(prop, cast string, c domain.Comparison, builder *sqlBuilder) string {
	expr := fmt.Sprintf("(%s)::%s", prop, cast)
	switch c.Operator {
	case domain.OperatorIsNot:
		return fmt.Sprintf("(%s IS NULL OR %s <> %s::%s)", prop, expr, builder.addArg(c.Value), cast)
	case domain.OperatorGreaterThan:
		return fmt.Sprintf("%s > %s::%s", expr, builder.addArg(c.Value), cast)
	case domain.OperatorGreaterThanOrEqual:
		return fmt.Sprintf("%s >= %s::%s", expr, builder.addArg(c.Value), cast)
	case domain.OperatorLessThan:
		return fmt.Sprintf("%s < %s::%s", expr, builder.addArg(c.Value), cast)
	case domain.OperatorLessThanOrEqual:
		return fmt.Sprintf("%s <= %s::%s", expr, builder.addArg(c.Value), cast)
	case domain.OperatorIsBetween:
		return fmt.Sprintf("%s BETWEEN %s::%s AND %s::%s",
			expr, builder.addArg(c.Value), cast, builder.addArg(c.SecondaryValue), cast)
	default: // is
		return fmt.Sprintf("%s = %s::%s", expr, builder.addArg(c.Value), cast)
	}
}

func renderDateComparison(prop string, c domain.Comparison, builder *sqlBuilder) string {
	expr := fmt.Sprintf("(%s)::timestamptz", prop)
	switch c.Operator {
	case domain.OperatorIsBefore:
		return fmt.Sprintf("%s < %s::timestamptz", expr, builder.addArg(c.Value))
	case domain.OperatorIsAfter:
		return fmt.Sprintf("%s > %s::timestamptz", expr, builder.addArg(c.Value))
	case domain.OperatorIsBetween:
		return fmt.Sprintf("%s BETWEEN %s::timestamptz AND %s::timestamptz",
			expr, builder.addArg(c.Value), builder.addArg(c.SecondaryValue))
	case domain.OperatorIsLessThanNAgo:
		return fmt.Sprintf("%s >= NOW() - (%s::int * %s)", expr, builder.addArg(c.Value), unitInterval(c.Unit))
	case domain.OperatorIsMoreThanNAgo:
		return fmt.Sprintf("%s < NOW() - (%s::int * %s)", expr, builder.addArg(c.Value), unitInterval(c.Unit))
	default: // is: same calendar day
		return fmt.Sprintf("(%s)::date = %s::date", expr, builder.addArg(c.Value))
	}
}

func renderSetComparison(prop string, c domain.Comparison, builder *sqlBuilder) string {
	switch c.Operator {
	case domain.OperatorIsAnyOf:
		return fmt.Sprintf("%s = ANY(%s::text[])", prop, builder.addArg(c.Values))
	case domain.OperatorIsNoneOf:
		return fmt.Sprintf("(%s IS NULL OR NOT (%s = ANY(%s::text[])))", prop, prop, builder.addArg(c.Values))
	case domain.OperatorIsNot:
		return fmt.Sprintf("(%s IS NULL OR %s <> %s)", prop, prop, builder.addArg(c.Value))
	default: // is
		return fmt.Sprintf("%s = %s", prop, builder.addArg(c.Value))
	}
}

func unitInterval(unit domain.DateUnit) string {
	switch unit {
	case domain.DateUnitWeek:
		return "interval '1 week'"
	case domain.DateUnitMonth:
		return "interval '1 month'"
	case domain.DateUnitQuarter:
		return "interval '3 months'"
	case domain.DateUnitYear:
		return "interval '1 year'"
	default:
		return "interval '1 day'"
	}
}
