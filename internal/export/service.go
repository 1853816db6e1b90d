package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/nick-gallo-ethico/risk-intelligence-platform-sub015/internal/auth"
	"github.com/nick-gallo-ethico/risk-intelligence-platform-sub015/internal/domain"
	"github.com/nick-gallo-ethico/risk-intelligence-platform-sub015/internal/modules"
)

const sheetName = "Sheet1"

// Service writes the currently filtered list of an entity type to an XLSX
// workbook, using the active view's visible columns in order. Rows come
// through the same RowSource boundary the session controller queries.
type Service struct {
	exportDir string
	pageSize  int
	now       func() time.Time
}

// Option customizes an export service.
type Option func(*Service)

// WithExportDirectory overrides where workbooks are written.
func WithExportDirectory(dir string) Option {
	return func(s *Service) {
		if strings.TrimSpace(dir) != "" {
			s.exportDir = filepath.Clean(dir)
		}
	}
}

// WithPageSize overrides how many rows are pulled per RowSource call.
func WithPageSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.pageSize = size
		}
	}
}

// NewService creates an export service.
func NewService(opts ...Option) *Service {
	s := &Service{
		exportDir: filepath.Join(os.TempDir(), "view-exports"),
		pageSize:  500,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Request describes one export: whose data, which entity type, the compiled
// query to run and the column layout to render.
type Request struct {
	OrganizationID uuid.UUID
	Module         modules.ModuleViewConfig
	Query          domain.CompiledQuery
	// Columns is the active view's column state. Hidden columns are
	// skipped; nil falls back to the module's default layout.
	Columns []domain.ColumnConfig
}

// Export pulls every page of the compiled query and writes one worksheet.
// It returns the path of the written workbook.
func (s *Service) Export(ctx context.Context, source domain.RowSource, req Request) (string, error) {
	if err := auth.EnforceOrganizationScope(ctx, req.OrganizationID); err != nil {
		return "", err
	}

	columns := visibleColumns(req)
	if len(columns) == 0 {
		return "", fmt.Errorf("no visible columns to export")
	}

	file := excelize.NewFile()
	defer file.Close()

	header := make([]any, len(columns))
	for i, col := range columns {
		header[i] = col.label
	}
	if err := file.SetSheetRow(sheetName, "A1", &header); err != nil {
		return "", fmt.Errorf("failed to write header row: %w", err)
	}

	rowIndex := 2
	offset := 0
	for {
		page, err := source.Query(ctx, req.OrganizationID, req.Module.EntityType, req.Query, offset, s.pageSize)
		if err != nil {
			return "", fmt.Errorf("failed to fetch export rows: %w", err)
		}
		for _, row := range page.Rows {
			values := make([]any, len(columns))
			for i, col := range columns {
				values[i] = cellValue(row[col.key])
			}
			cell, err := excelize.CoordinatesToCellName(1, rowIndex)
			if err != nil {
				return "", fmt.Errorf("failed to compute cell position: %w", err)
			}
			if err := file.SetSheetRow(sheetName, cell, &values); err != nil {
				return "", fmt.Errorf("failed to write row %d: %w", rowIndex, err)
			}
			rowIndex++
		}
		offset += len(page.Rows)
		if len(page.Rows) < s.pageSize || offset >= page.TotalCount {
			break
		}
	}

	if err := os.MkdirAll(s.exportDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}
	path := filepath.Join(s.exportDir, s.fileName(req.Module.EntityType))
	if err := file.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save workbook: %w", err)
	}
	return path, nil
}

type exportColumn struct {
	key   string
	label string
}

// visibleColumns resolves the effective column layout: the view's visible
// columns in their configured order, labeled from the module catalogue.
func visibleColumns(req Request) []exportColumn {
	labels := make(map[string]string, len(req.Module.Columns))
	for _, col := range req.Module.Columns {
		labels[col.Key] = col.Label
	}

	configs := req.Columns
	if configs == nil {
		configs = req.Module.DefaultColumns()
	}

	ordered := make([]domain.ColumnConfig, 0, len(configs))
	for _, col := range configs {
		if col.Visible {
			ordered = append(ordered, col)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Order < ordered[j].Order
	})

	columns := make([]exportColumn, 0, len(ordered))
	for _, col := range ordered {
		label := labels[col.Key]
		if label == "" {
			label = col.Key
		}
		columns = append(columns, exportColumn{key: col.Key, label: label})
	}
	return columns
}

func cellValue(value any) any {
	switch v := value.(type) {
	case nil:
		return ""
	case time.Time:
		return v.Format(time.RFC3339)
	case []string:
		return strings.Join(v, ", ")
	default:
		return v
	}
}

func (s *Service) fileName(entityType string) string {
	stamp := s.now().UTC().Format("20060102-150405")
	return fmt.Sprintf("%s-%s.xlsx", strings.ToLower(entityType), stamp)
}
