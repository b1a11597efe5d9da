package dbtools

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"io"
	"sync"
)

// fakeStore records executed statements and plays back canned results. It
// backs a real *sql.DB through sql.OpenDB so the dispatcher and serializer
// are exercised end to end.
type fakeStore struct {
	mu       sync.Mutex
	captured []capturedStatement
	rowSets  []*fakeRowSet
	affected []int64
}

type capturedStatement struct {
	query string
	args  []driver.Value
}

type fakeRowSet struct {
	columns []string
	rows    [][]driver.Value
}

func (s *fakeStore) pushRows(columns []string, rows ...[]interface{}) {
	converted := make([][]driver.Value, len(rows))
	for i, row := range rows {
		values := make([]driver.Value, len(row))
		for j, v := range row {
			values[j] = v
		}
		converted[i] = values
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rowSets = append(s.rowSets, &fakeRowSet{columns: columns, rows: converted})
}

func (s *fakeStore) pushAffected(n int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.affected = append(s.affected, n)
}

func (s *fakeStore) statements() []capturedStatement {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]capturedStatement, len(s.captured))
	copy(out, s.captured)
	return out
}

func (s *fakeStore) lastStatement() capturedStatement {
	stmts := s.statements()
	if len(stmts) == 0 {
		return capturedStatement{}
	}
	return stmts[len(stmts)-1]
}

type fakeConnector struct {
	store *fakeStore
}

func (c *fakeConnector) Connect(context.Context) (driver.Conn, error) {
	return &fakeConn{store: c.store}, nil
}

func (c *fakeConnector) Driver() driver.Driver {
	return fakeDriver{}
}

type fakeDriver struct{}

func (fakeDriver) Open(string) (driver.Conn, error) {
	return nil, fmt.Errorf("use OpenDB")
}

type fakeConn struct {
	store *fakeStore
}

func (c *fakeConn) Prepare(string) (driver.Stmt, error) {
	return nil, fmt.Errorf("prepare not supported")
}

func (c *fakeConn) Close() error { return nil }

func (c *fakeConn) Begin() (driver.Tx, error) {
	return nil, fmt.Errorf("transactions not supported")
}

func (c *fakeConn) QueryContext(_ context.Context, query string, named []driver.NamedValue) (driver.Rows, error) {
	s := c.store
	s.mu.Lock()
	defer s.mu.Unlock()

	s.captured = append(s.captured, capturedStatement{query: query, args: namedToValues(named)})
	if len(s.rowSets) == 0 {
		return &fakeRows{set: &fakeRowSet{}}, nil
	}
	set := s.rowSets[0]
	s.rowSets = s.rowSets[1:]
	return &fakeRows{set: set}, nil
}

func (c *fakeConn) ExecContext(_ context.Context, query string, named []driver.NamedValue) (driver.Result, error) {
	s := c.store
	s.mu.Lock()
	defer s.mu.Unlock()

	s.captured = append(s.captured, capturedStatement{query: query, args: namedToValues(named)})
	var n int64 = 1
	if len(s.affected) > 0 {
		n = s.affected[0]
		s.affected = s.affected[1:]
	}
	return fakeResult{rowsAffected: n}, nil
}

func namedToValues(named []driver.NamedValue) []driver.Value {
	values := make([]driver.Value, len(named))
	for i, nv := range named {
		values[i] = nv.Value
	}
	return values
}

type fakeRows struct {
	set *fakeRowSet
	pos int
}

func (r *fakeRows) Columns() []string { return r.set.columns }

func (r *fakeRows) Close() error { return nil }

func (r *fakeRows) Next(dest []driver.Value) error {
	if r.pos >= len(r.set.rows) {
		return io.EOF
	}
	copy(dest, r.set.rows[r.pos])
	r.pos++
	return nil
}

type fakeResult struct {
	rowsAffected int64
}

func (r fakeResult) LastInsertId() (int64, error) { return 0, nil }

func (r fakeResult) RowsAffected() (int64, error) { return r.rowsAffected, nil }

// fakeDatabase implements db.Database over the fake driver.
type fakeDatabase struct {
	store      *fakeStore
	sqlDB      *sql.DB
	driverName string
	returning  bool
}

func newFakeDatabase(driverName string, returning bool) *fakeDatabase {
	store := &fakeStore{}
	return &fakeDatabase{
		store:      store,
		sqlDB:      sql.OpenDB(&fakeConnector{store: store}),
		driverName: driverName,
		returning:  returning,
	}
}

func (f *fakeDatabase) Query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return f.sqlDB.QueryContext(ctx, query, args...)
}

func (f *fakeDatabase) QueryRow(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return f.sqlDB.QueryRowContext(ctx, query, args...)
}

func (f *fakeDatabase) Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return f.sqlDB.ExecContext(ctx, query, args...)
}

func (f *fakeDatabase) Connect() error { return nil }

func (f *fakeDatabase) Close() error { return f.sqlDB.Close() }

func (f *fakeDatabase) Ping(context.Context) error { return nil }

func (f *fakeDatabase) DriverName() string { return f.driverName }

func (f *fakeDatabase) ConnectionString() string { return "fake" }

func (f *fakeDatabase) SupportsReturning() bool { return f.returning }

func (f *fakeDatabase) DB() *sql.DB { return f.sqlDB }
