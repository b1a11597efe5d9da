package dbtools

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/edusuite/db-bridge/pkg/db"
)

// Audit timestamp columns maintained by the typed fast-path.
const (
	createdAtColumn = "createdAt"
	updatedAtColumn = "updatedAt"
)

// AuditedTable is the typed fast-path for tables carrying audit timestamps:
// inserts get createdAt/updatedAt defaults when the caller omits them, and
// updates refresh updatedAt. Statements are built with squirrel using dollar
// placeholders; the gateway rebinds them for drivers that need it.
type AuditedTable struct {
	name string
	now  func() time.Time
}

// NewAuditedTable creates the typed handler for a table.
func NewAuditedTable(name string) *AuditedTable {
	return &AuditedTable{name: name, now: time.Now}
}

// Insert supplies audit timestamp defaults and inserts the row.
func (a *AuditedTable) Insert(ctx context.Context, gw db.Database, data *Constraints) (interface{}, error) {
	now := a.now().UTC()
	if !data.Has(createdAtColumn) {
		data.Set(createdAtColumn, now)
	}
	if !data.Has(updatedAtColumn) {
		data.Set(updatedAtColumn, now)
	}

	columns := data.Columns()
	values := make([]interface{}, 0, len(columns))
	for _, col := range columns {
		if err := ValidateIdentifier(col); err != nil {
			return nil, err
		}
		v, _ := data.Get(col)
		values = append(values, v)
	}

	builder := sq.Insert(a.name).
		Columns(columns...).
		Values(values...).
		PlaceholderFormat(sq.Dollar)

	if gw.SupportsReturning() {
		sqlText, args, err := builder.Suffix("RETURNING *").ToSql()
		if err != nil {
			return nil, err
		}
		return queryRows(ctx, gw, sqlText, args)
	}

	sqlText, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}
	return execAffected(ctx, gw, sqlText, args)
}

// Update refreshes updatedAt and applies the change under the caller's
// where constraints. The empty-where guard has already run by the time the
// dispatcher gets here.
func (a *AuditedTable) Update(ctx context.Context, gw db.Database, data, where *Constraints) (interface{}, error) {
	if !data.Has(updatedAtColumn) {
		data.Set(updatedAtColumn, a.now().UTC())
	}

	builder := sq.Update(a.name).PlaceholderFormat(sq.Dollar)
	for _, col := range data.Columns() {
		if err := ValidateIdentifier(col); err != nil {
			return nil, err
		}
		v, _ := data.Get(col)
		builder = builder.Set(col, v)
	}

	eq := sq.Eq{}
	for _, col := range where.Columns() {
		if err := ValidateIdentifier(col); err != nil {
			return nil, err
		}
		v, _ := where.Get(col)
		eq[col] = v
	}
	builder = builder.Where(eq)

	if gw.SupportsReturning() {
		sqlText, args, err := builder.Suffix("RETURNING *").ToSql()
		if err != nil {
			return nil, err
		}
		return queryRows(ctx, gw, sqlText, args)
	}

	sqlText, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}
	return execAffected(ctx, gw, sqlText, args)
}
