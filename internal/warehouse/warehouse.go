// Package warehouse loads the per-student comparison table into DuckDB and
// derives the dashboard dataset from it with SQL.
package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"examdash/internal/workbook"
)

// ComparisonTable holds one row per student with both sittings side by side.
const ComparisonTable = "comparison"

// ErrMissingColumn is returned when the comparison table lacks a key column.
var ErrMissingColumn = errors.New("missing required column")

var requiredColumns = []string{"StudentID", "Name_Midterm", "Class_Midterm"}

// Warehouse wraps a DuckDB connection.
type Warehouse struct {
	conn   *sql.DB
	logger *slog.Logger
}

// Open opens the DuckDB database at path; an empty path is in-memory.
func Open(path string, logger *slog.Logger) (*Warehouse, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	conn, err := sql.Open("duckdb", path)
	if err != nil {
		logger.Error("Failed to open DuckDB database", "error", err, "db_path", path)
		return nil, fmt.Errorf("failed to open duckdb: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		logger.Error("Failed to connect to DuckDB database", "error", err, "db_path", path)
		return nil, fmt.Errorf("failed to connect to duckdb: %w", err)
	}

	return &Warehouse{conn: conn, logger: logger}, nil
}

// Close closes the underlying database connection.
func (w *Warehouse) Close() error {
	return w.conn.Close()
}

// ImportFile loads a comparison table from a .csv file or from the
// Student_Comparison sheet of an .xlsx workbook.
func (w *Warehouse) ImportFile(ctx context.Context, path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return w.ImportCSV(ctx, path)
	case ".xlsx", ".xlsm":
		tmpDir, err := os.MkdirTemp("", "examdash-import-*")
		if err != nil {
			return fmt.Errorf("failed to create temp dir: %w", err)
		}
		defer os.RemoveAll(tmpDir)

		sheets, err := workbook.ExportCSV(ctx, path, tmpDir, workbook.StudentSheet)
		if err != nil {
			return err
		}
		csvPath, ok := sheets[workbook.StudentSheet]
		if !ok {
			return fmt.Errorf("workbook %s has no %s sheet", path, workbook.StudentSheet)
		}
		return w.ImportCSV(ctx, csvPath)
	default:
		return fmt.Errorf("unsupported import file type: %s", filepath.Ext(path))
	}
}

// ImportCSV replaces the comparison table with the contents of a CSV file.
// Every column is loaded as VARCHAR and cast at query time.
func (w *Warehouse) ImportCSV(ctx context.Context, path string) error {
	start := time.Now()
	query := fmt.Sprintf(`
		CREATE OR REPLACE TABLE %s AS
		SELECT * FROM read_csv('%s', all_varchar=true, header=true)
	`, ComparisonTable, escapeLiteral(path))

	if _, err := w.conn.ExecContext(ctx, query); err != nil {
		w.logger.Error("Failed to load comparison table", "error", err, "path", path)
		return fmt.Errorf("failed to load %s: %w", path, err)
	}

	cols, err := w.Columns(ctx, ComparisonTable)
	if err != nil {
		return err
	}
	have := make(map[string]bool, len(cols))
	for _, c := range cols {
		have[c] = true
	}
	for _, c := range requiredColumns {
		if !have[c] {
			return fmt.Errorf("%w: %s", ErrMissingColumn, c)
		}
	}

	w.logger.Info("Comparison table loaded", "path", path, "columns", len(cols), "duration", time.Since(start).String())
	return nil
}

// Columns lists a table's column names in order.
func (w *Warehouse) Columns(ctx context.Context, table string) ([]string, error) {
	rows, err := w.conn.QueryContext(ctx, `
		SELECT column_name FROM information_schema.columns
		WHERE table_name = ?
		ORDER BY ordinal_position
	`, table)
	if err != nil {
		return nil, fmt.Errorf("failed to list columns of %s: %w", table, err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan column name: %w", err)
		}
		cols = append(cols, name)
	}
	return cols, rows.Err()
}

// Tables lists the tables in the main schema.
func (w *Warehouse) Tables(ctx context.Context) ([]string, error) {
	rows, err := w.conn.QueryContext(ctx, `
		SELECT table_name FROM information_schema.tables
		WHERE table_schema = 'main'
		ORDER BY table_name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// Column describes one column of a table.
type Column struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable string `json:"nullable"`
}

// TableSchema describes a table.
type TableSchema struct {
	TableName   string   `json:"table_name"`
	ColumnCount int      `json:"column_count"`
	Columns     []Column `json:"columns"`
}

// Schema describes table.
func (w *Warehouse) Schema(ctx context.Context, table string) (TableSchema, error) {
	rows, err := w.conn.QueryContext(ctx, `
		SELECT column_name, data_type, is_nullable FROM information_schema.columns
		WHERE table_name = ?
		ORDER BY ordinal_position
	`, table)
	if err != nil {
		return TableSchema{}, fmt.Errorf("failed to get schema for table %s: %w", table, err)
	}
	defer rows.Close()

	schema := TableSchema{TableName: table, Columns: []Column{}}
	for rows.Next() {
		var c Column
		if err := rows.Scan(&c.Name, &c.Type, &c.Nullable); err != nil {
			return TableSchema{}, fmt.Errorf("failed to scan schema row: %w", err)
		}
		schema.Columns = append(schema.Columns, c)
	}
	schema.ColumnCount = len(schema.Columns)
	return schema, rows.Err()
}

// ExecuteQuery runs an arbitrary SQL statement and returns its rows as
// column-keyed maps.
func (w *Warehouse) ExecuteQuery(ctx context.Context, query string) ([]map[string]any, error) {
	rows, err := w.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	results := []map[string]any{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(map[string]any, len(cols))
		for i, c := range cols {
			if b, ok := values[i].([]byte); ok {
				row[c] = string(b)
			} else {
				row[c] = values[i]
			}
		}
		results = append(results, row)
	}
	return results, rows.Err()
}

func escapeLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
