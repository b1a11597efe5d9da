// Package dbtools implements the generic database-access tools exposed over
// JSON-RPC: raw parameterized queries, schema introspection, table listing
// and generic CRUD by table name. SQL text is assembled from validated
// identifiers and positional placeholders only; values are always bound.
package dbtools

import (
	"context"
	"time"

	"github.com/edusuite/db-bridge/pkg/db"
	"github.com/edusuite/db-bridge/pkg/logger"
	"github.com/edusuite/db-bridge/pkg/tools"
)

// defaultQueryTimeout bounds a single statement when no timeout was
// configured or requested.
const defaultQueryTimeout = 30 * time.Second

// Options configures a Toolset.
type Options struct {
	// QueryTimeout is the per-statement deadline. Zero means the default.
	QueryTimeout time.Duration
	// AuditedTables get the typed fast-path with createdAt/updatedAt defaults.
	AuditedTables []string
}

// Toolset owns the database gateway and dispatches tool calls onto it. It is
// stateless across requests; the gateway's connection pool is the only shared
// mutable resource.
type Toolset struct {
	db           db.Database
	queryTimeout time.Duration
	typed        *TypedTableRegistry
}

// NewToolset creates a toolset over an explicitly constructed gateway.
func NewToolset(database db.Database, opts Options) *Toolset {
	timeout := opts.QueryTimeout
	if timeout <= 0 {
		timeout = defaultQueryTimeout
	}

	typed := NewTypedTableRegistry()
	for _, table := range opts.AuditedTables {
		if err := ValidateIdentifier(table); err != nil {
			logger.Warn("Skipping audited table %q: %v", table, err)
			continue
		}
		typed.Register(table, NewAuditedTable(table))
	}

	return &Toolset{
		db:           database,
		queryTimeout: timeout,
		typed:        typed,
	}
}

// RegisterAll registers the four generic operations with the tool registry.
// The catalog is immutable for the process lifetime.
func (t *Toolset) RegisterAll(registry *tools.Registry) {
	registry.RegisterTool(&tools.Tool{
		Name:        "query_database",
		Description: "Execute a raw SQL query with positional $1..$n placeholders",
		InputSchema: tools.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "SQL text to execute",
				},
				"params": map[string]interface{}{
					"type":        "array",
					"description": "Positional parameters bound to $1..$n",
				},
				"timeout": map[string]interface{}{
					"type":        "integer",
					"description": "Statement timeout in milliseconds (optional)",
				},
			},
			Required: []string{"query"},
		},
		Handler: t.handleQuery,
	})

	registry.RegisterTool(&tools.Tool{
		Name:        "execute_crud",
		Description: "Run a generic select/insert/update/delete against a table by name",
		InputSchema: tools.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"operation": map[string]interface{}{
					"type":        "string",
					"description": "Operation to perform",
					"enum":        []string{"select", "insert", "update", "delete"},
				},
				"table": map[string]interface{}{
					"type":        "string",
					"description": "Target table name",
				},
				"data": map[string]interface{}{
					"type":        "object",
					"description": "Column values for insert/update",
				},
				"where": map[string]interface{}{
					"type":        "object",
					"description": "Equality constraints; required for update/delete",
				},
			},
			Required: []string{"operation", "table"},
		},
		Handler: t.handleCrud,
	})

	registry.RegisterTool(&tools.Tool{
		Name:        "get_schema",
		Description: "Introspect a table's columns, or list all tables when no table is given",
		InputSchema: tools.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"table": map[string]interface{}{
					"type":        "string",
					"description": "Table to introspect (optional)",
				},
			},
		},
		Handler: t.handleSchema,
	})

	registry.RegisterTool(&tools.Tool{
		Name:        "list_tables",
		Description: "List all base tables in the database",
		InputSchema: tools.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
		Handler: t.handleListTables,
	})
}

// rowsResult is the payload for statements that return rows.
type rowsResult struct {
	Rows     []Row `json:"rows"`
	RowCount int   `json:"rowCount"`
}

// execResult is the payload for statements that do not return rows.
type execResult struct {
	RowsAffected int64 `json:"rowsAffected"`
}

// queryRows executes a row-returning statement and serializes the result.
func queryRows(ctx context.Context, gw db.Database, sqlText string, values []interface{}) (interface{}, error) {
	rows, err := gw.Query(ctx, sqlText, values...)
	if err != nil {
		return nil, err
	}

	scanned, err := ScanRows(rows)
	if err != nil {
		return nil, err
	}
	if scanned == nil {
		scanned = []Row{}
	}

	return rowsResult{Rows: scanned, RowCount: len(scanned)}, nil
}

// execAffected executes a statement and reports the affected row count.
func execAffected(ctx context.Context, gw db.Database, sqlText string, values []interface{}) (interface{}, error) {
	result, err := gw.Exec(ctx, sqlText, values...)
	if err != nil {
		return nil, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}

	return execResult{RowsAffected: affected}, nil
}
