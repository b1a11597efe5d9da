package dbtools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/edusuite/db-bridge/pkg/logger"
)

// schemaStrategy supplies the introspection queries for a database flavor.
type schemaStrategy interface {
	// TablesQuery lists base tables ordered lexicographically.
	TablesQuery() (string, []interface{})
	// ColumnsQuery lists a table's columns ordered by physical position.
	ColumnsQuery(table string) (string, []interface{})
}

// newSchemaStrategy creates the appropriate strategy for the given driver.
func newSchemaStrategy(driverName string) schemaStrategy {
	switch driverName {
	case "postgres":
		return &postgresStrategy{}
	case "mysql":
		return &mysqlStrategy{}
	default:
		logger.Warn("Unknown database driver: %s, using postgres introspection", driverName)
		return &postgresStrategy{}
	}
}

// postgresStrategy implements schemaStrategy for PostgreSQL
type postgresStrategy struct{}

func (s *postgresStrategy) TablesQuery() (string, []interface{}) {
	return `SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public' AND table_type = 'BASE TABLE'
		ORDER BY table_name`, nil
}

func (s *postgresStrategy) ColumnsQuery(table string) (string, []interface{}) {
	return `SELECT column_name, data_type, is_nullable, column_default
		FROM information_schema.columns
		WHERE table_name = $1 AND table_schema = 'public'
		ORDER BY ordinal_position`, []interface{}{table}
}

// mysqlStrategy implements schemaStrategy for MySQL
type mysqlStrategy struct{}

func (s *mysqlStrategy) TablesQuery() (string, []interface{}) {
	return `SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = DATABASE() AND table_type = 'BASE TABLE'
		ORDER BY table_name`, nil
}

func (s *mysqlStrategy) ColumnsQuery(table string) (string, []interface{}) {
	return `SELECT column_name, data_type, is_nullable, column_default
		FROM information_schema.columns
		WHERE table_name = $1 AND table_schema = DATABASE()
		ORDER BY ordinal_position`, []interface{}{table}
}

// schemaInput is the argument shape for the get_schema tool.
type schemaInput struct {
	Table string `json:"table"`
}

// tableSchemaResult is the payload for a single-table introspection.
type tableSchemaResult struct {
	Table   string `json:"table"`
	Columns []Row  `json:"columns"`
}

// tableListResult is the payload for a table listing.
type tableListResult struct {
	Tables []string `json:"tables"`
}

// handleSchema introspects one table's columns, or lists all base tables
// when no table is given.
func (t *Toolset) handleSchema(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var input schemaInput
	if len(args) > 0 {
		if err := json.Unmarshal(args, &input); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, t.queryTimeout)
	defer cancel()

	if input.Table == "" {
		return t.listTables(ctx)
	}

	if err := ValidateIdentifier(input.Table); err != nil {
		return nil, err
	}

	strategy := newSchemaStrategy(t.db.DriverName())
	query, queryArgs := strategy.ColumnsQuery(input.Table)

	rows, err := t.db.Query(ctx, query, queryArgs...)
	if err != nil {
		return nil, err
	}
	columns, err := ScanRows(rows)
	if err != nil {
		return nil, err
	}
	if columns == nil {
		columns = []Row{}
	}

	return tableSchemaResult{Table: input.Table, Columns: columns}, nil
}

// handleListTables is the list_tables tool: get_schema with no table filter.
func (t *Toolset) handleListTables(ctx context.Context, _ json.RawMessage) (interface{}, error) {
	ctx, cancel := context.WithTimeout(ctx, t.queryTimeout)
	defer cancel()

	return t.listTables(ctx)
}

func (t *Toolset) listTables(ctx context.Context) (interface{}, error) {
	strategy := newSchemaStrategy(t.db.DriverName())
	query, queryArgs := strategy.TablesQuery()

	rows, err := t.db.Query(ctx, query, queryArgs...)
	if err != nil {
		return nil, err
	}
	scanned, err := ScanRows(rows)
	if err != nil {
		return nil, err
	}

	tables := make([]string, 0, len(scanned))
	for _, row := range scanned {
		if name, ok := row.Get("table_name"); ok {
			if s, ok := name.(string); ok {
				tables = append(tables, s)
			}
		}
	}

	return tableListResult{Tables: tables}, nil
}
