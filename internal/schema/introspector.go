package schema

import (
	"context"
	"database/sql"
	"fmt"
)

// Introspector reads table and column metadata from information_schema. Every
// call re-queries the catalog; nothing is cached between requests.
type Introspector struct {
	db         *sql.DB
	schemaName string
}

func NewIntrospector(handle *sql.DB, schemaName string) *Introspector {
	if schemaName == "" {
		schemaName = "public"
	}
	return &Introspector{db: handle, schemaName: schemaName}
}

// HealthCheck reports database reachability for the readiness endpoint and the
// UI connectivity indicator.
func (i *Introspector) HealthCheck(ctx context.Context) error {
	if err := i.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

// Describe returns every base table in the configured namespace with its
// columns in ordinal order.
func (i *Introspector) Describe(ctx context.Context) (Description, error) {
	tables, err := i.listTables(ctx)
	if err != nil {
		return Description{}, err
	}
	if len(tables) == 0 {
		return Description{Tables: []Table{}}, nil
	}

	columnsByTable, err := i.listColumns(ctx)
	if err != nil {
		return Description{}, err
	}

	for idx := range tables {
		tables[idx].Columns = columnsByTable[tables[idx].Name]
	}
	return Description{Tables: tables}, nil
}

func (i *Introspector) listTables(ctx context.Context) ([]Table, error) {
	query := `
SELECT table_name
FROM information_schema.tables
WHERE table_schema = $1
  AND table_type = 'BASE TABLE'
ORDER BY table_name`

	rows, err := i.db.QueryContext(ctx, query, i.schemaName)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	tables := make([]Table, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table row: %w", err)
		}
		tables = append(tables, Table{Name: name, Columns: []Column{}})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate table rows: %w", err)
	}
	return tables, nil
}

func (i *Introspector) listColumns(ctx context.Context) (map[string][]Column, error) {
	query := `
SELECT table_name, column_name, data_type
FROM information_schema.columns
WHERE table_schema = $1
ORDER BY table_name, ordinal_position`

	rows, err := i.db.QueryContext(ctx, query, i.schemaName)
	if err != nil {
		return nil, fmt.Errorf("list columns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columnsByTable := make(map[string][]Column)
	for rows.Next() {
		var tableName string
		var col Column
		if err := rows.Scan(&tableName, &col.Name, &col.DataType); err != nil {
			return nil, fmt.Errorf("scan column row: %w", err)
		}
		columnsByTable[tableName] = append(columnsByTable[tableName], col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate column rows: %w", err)
	}
	return columnsByTable, nil
}
