package dbtools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/edusuite/db-bridge/pkg/db"
)

// crudInput is the argument shape for the execute_crud tool. Data and where
// stay raw until parsed so their key order survives.
type crudInput struct {
	Operation string          `json:"operation"`
	Table     string          `json:"table"`
	Data      json.RawMessage `json:"data"`
	Where     json.RawMessage `json:"where"`
}

// handleCrud routes a CRUD call to the typed fast-path when the table has
// one registered, or to the generic fragment builder otherwise. Destructive
// operations are guarded before any statement reaches the gateway.
func (t *Toolset) handleCrud(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var input crudInput
	if err := json.Unmarshal(args, &input); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	if err := ValidateIdentifier(input.Table); err != nil {
		return nil, err
	}

	data, err := ParseConstraints(input.Data)
	if err != nil {
		return nil, err
	}
	where, err := ParseConstraints(input.Where)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, t.queryTimeout)
	defer cancel()

	switch input.Operation {
	case "select":
		return t.crudSelect(ctx, input.Table, where)
	case "insert":
		return t.crudInsert(ctx, input.Table, data)
	case "update":
		return t.crudUpdate(ctx, input.Table, data, where)
	case "delete":
		return t.crudDelete(ctx, input.Table, where)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedOperation, input.Operation)
	}
}

// crudSelect builds SELECT * FROM <table> [WHERE ...]. An absent where means
// a full table scan; no implicit limit is applied, callers request limits
// explicitly through query_database.
func (t *Toolset) crudSelect(ctx context.Context, table string, where *Constraints) (interface{}, error) {
	fragment, values, _, err := BuildWhere(where, 1)
	if err != nil {
		return nil, err
	}

	sqlText := "SELECT * FROM " + table
	if fragment != "" {
		sqlText += " WHERE " + fragment
	}

	return queryRows(ctx, t.db, sqlText, values)
}

func (t *Toolset) crudInsert(ctx context.Context, table string, data *Constraints) (interface{}, error) {
	if data.Len() == 0 {
		return nil, fmt.Errorf("%w: insert requires data", ErrInvalidArgument)
	}

	if handler, ok := t.typed.Handler(table); ok {
		return handler.Insert(ctx, t.db, data)
	}

	columns, placeholders, values, err := BuildInsert(data)
	if err != nil {
		return nil, err
	}

	sqlText := fmt.Sprintf("INSERT INTO %s %s VALUES %s", table, columns, placeholders)
	if t.db.SupportsReturning() {
		return queryRows(ctx, t.db, sqlText+" RETURNING *", values)
	}
	return execAffected(ctx, t.db, sqlText, values)
}

func (t *Toolset) crudUpdate(ctx context.Context, table string, data, where *Constraints) (interface{}, error) {
	if where.Len() == 0 {
		return nil, fmt.Errorf("%w: update without where would touch every row", ErrMissingWhere)
	}
	if data.Len() == 0 {
		return nil, fmt.Errorf("%w: update requires data", ErrInvalidArgument)
	}

	if handler, ok := t.typed.Handler(table); ok {
		return handler.Update(ctx, t.db, data, where)
	}

	// WHERE placeholders continue after SET's last index so the value slice
	// lines up with the numbering.
	setFragment, setValues, next, err := BuildSet(data, 1)
	if err != nil {
		return nil, err
	}
	whereFragment, whereValues, _, err := BuildWhere(where, next)
	if err != nil {
		return nil, err
	}

	sqlText := fmt.Sprintf("UPDATE %s SET %s WHERE %s", table, setFragment, whereFragment)
	values := append(setValues, whereValues...)

	if t.db.SupportsReturning() {
		return queryRows(ctx, t.db, sqlText+" RETURNING *", values)
	}
	return execAffected(ctx, t.db, sqlText, values)
}

func (t *Toolset) crudDelete(ctx context.Context, table string, where *Constraints) (interface{}, error) {
	if where.Len() == 0 {
		return nil, fmt.Errorf("%w: delete without where would remove every row", ErrMissingWhere)
	}

	fragment, values, _, err := BuildWhere(where, 1)
	if err != nil {
		return nil, err
	}

	sqlText := fmt.Sprintf("DELETE FROM %s WHERE %s", table, fragment)
	if t.db.SupportsReturning() {
		return queryRows(ctx, t.db, sqlText+" RETURNING *", values)
	}
	return execAffected(ctx, t.db, sqlText, values)
}

// TypedTableHandler is a table-specific code path with stronger validation
// and derived fields, used instead of the generic fragment builder.
type TypedTableHandler interface {
	Insert(ctx context.Context, gw db.Database, data *Constraints) (interface{}, error)
	Update(ctx context.Context, gw db.Database, data, where *Constraints) (interface{}, error)
}

// TypedTableRegistry maps table names to typed handlers. Absence of an entry
// means "use the generic fragment builder".
type TypedTableRegistry struct {
	handlers map[string]TypedTableHandler
}

// NewTypedTableRegistry creates an empty registry.
func NewTypedTableRegistry() *TypedTableRegistry {
	return &TypedTableRegistry{handlers: make(map[string]TypedTableHandler)}
}

// Register installs a typed handler for a table.
func (r *TypedTableRegistry) Register(table string, handler TypedTableHandler) {
	r.handlers[table] = handler
}

// Handler looks up the typed handler for a table.
func (r *TypedTableRegistry) Handler(table string) (TypedTableHandler, bool) {
	h, ok := r.handlers[table]
	return h, ok
}
