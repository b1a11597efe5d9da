package db

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	// Import database drivers
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"

	"github.com/edusuite/db-bridge/pkg/logger"
)

// Config represents database connection configuration
type Config struct {
	Type     string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// SetDefaults sets default values for the configuration if they are not set
func (c *Config) SetDefaults() {
	if c.MaxOpenConns == 0 {
		c.MaxOpenConns = 25
	}
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = 5
	}
	if c.ConnMaxLifetime == 0 {
		c.ConnMaxLifetime = 5 * time.Minute
	}
	if c.ConnMaxIdleTime == 0 {
		c.ConnMaxIdleTime = 5 * time.Minute
	}
}

// Database is the single choke-point for talking to the relational store.
// Parameters are always bound positionally; callers never concatenate values
// into SQL text. Statements use $1..$n placeholders regardless of driver; for
// MySQL they are rebound to ? before execution.
type Database interface {
	// Core database operations
	Query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(ctx context.Context, query string, args ...interface{}) *sql.Row
	Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error)

	// Connection management
	Connect() error
	Close() error
	Ping(ctx context.Context) error

	// Metadata
	DriverName() string
	ConnectionString() string
	SupportsReturning() bool

	// DB object access (for specific DB operations)
	DB() *sql.DB
}

// database is the concrete implementation of the Database interface
type database struct {
	config     Config
	db         *sql.DB
	driverName string
	dsn        string
}

// NewDatabase creates a new database connection based on the provided configuration
func NewDatabase(config Config) (Database, error) {
	// Set default values for the configuration
	config.SetDefaults()

	var dsn string
	var driverName string

	// Create DSN string based on database type
	switch config.Type {
	case "mysql":
		driverName = "mysql"
		dsn = fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
			config.User, config.Password, config.Host, config.Port, config.Name)
	case "postgres":
		driverName = "postgres"
		dsn = fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			config.Host, config.Port, config.User, config.Password, config.Name)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", config.Type)
	}

	return &database{
		config:     config,
		driverName: driverName,
		dsn:        dsn,
	}, nil
}

// Connect establishes a connection to the database
func (d *database) Connect() error {
	db, err := sql.Open(d.driverName, d.dsn)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(d.config.MaxOpenConns)
	db.SetMaxIdleConns(d.config.MaxIdleConns)
	db.SetConnMaxLifetime(d.config.ConnMaxLifetime)
	db.SetConnMaxIdleTime(d.config.ConnMaxIdleTime)

	// Verify connection is working
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logger.Error("Error closing database connection: %v", closeErr)
		}
		return fmt.Errorf("failed to ping database: %w", ClassifyError(err))
	}

	d.db = db
	logger.Info("Connected to %s database at %s:%d/%s", d.config.Type, d.config.Host, d.config.Port, d.config.Name)

	return nil
}

// Close closes the database connection, draining idle connections and
// waiting for leased ones to be returned.
func (d *database) Close() error {
	if d.db == nil {
		return nil
	}
	return d.db.Close()
}

// Ping checks if the database connection is still alive
func (d *database) Ping(ctx context.Context) error {
	if d.db == nil {
		return ErrNoDatabase
	}
	if err := d.db.PingContext(ctx); err != nil {
		return ClassifyError(err)
	}
	return nil
}

// Query executes a query that returns rows
func (d *database) Query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	if d.db == nil {
		return nil, ErrNoDatabase
	}
	boundQuery, boundArgs, err := d.rebind(query, args)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	rows, err := d.db.QueryContext(ctx, boundQuery, boundArgs...)
	logger.Debug("Query took %s: %s", time.Since(start), query)
	if err != nil {
		return nil, ClassifyError(err)
	}
	return rows, nil
}

// QueryRow executes a query that is expected to return at most one row
func (d *database) QueryRow(ctx context.Context, query string, args ...interface{}) *sql.Row {
	if d.db == nil {
		return nil
	}
	boundQuery, boundArgs, err := d.rebind(query, args)
	if err != nil {
		// No error channel here; hand the store the original text so the
		// failure surfaces on scan.
		return d.db.QueryRowContext(ctx, query, args...)
	}
	return d.db.QueryRowContext(ctx, boundQuery, boundArgs...)
}

// Exec executes a query without returning any rows
func (d *database) Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	if d.db == nil {
		return nil, ErrNoDatabase
	}
	boundQuery, boundArgs, err := d.rebind(query, args)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	result, err := d.db.ExecContext(ctx, boundQuery, boundArgs...)
	logger.Debug("Exec took %s: %s", time.Since(start), query)
	if err != nil {
		return nil, ClassifyError(err)
	}
	return result, nil
}

// DB returns the underlying database connection
func (d *database) DB() *sql.DB {
	return d.db
}

// DriverName returns the name of the database driver
func (d *database) DriverName() string {
	return d.driverName
}

// SupportsReturning reports whether the store supports RETURNING clauses.
func (d *database) SupportsReturning() bool {
	return d.driverName == "postgres"
}

// ConnectionString returns the connection string (with password masked)
func (d *database) ConnectionString() string {
	// Return masked DSN (hide password)
	switch d.config.Type {
	case "mysql":
		return fmt.Sprintf("%s:***@tcp(%s:%d)/%s",
			d.config.User, d.config.Host, d.config.Port, d.config.Name)
	case "postgres":
		return fmt.Sprintf("host=%s port=%d user=%s password=*** dbname=%s sslmode=disable",
			d.config.Host, d.config.Port, d.config.User, d.config.Name)
	default:
		return "unknown"
	}
}

// rebind converts $n placeholders to ? for drivers that do not understand
// dollar numbering, adjusting the argument slice to match.
func (d *database) rebind(query string, args []interface{}) (string, []interface{}, error) {
	if d.driverName == "postgres" {
		return query, args, nil
	}
	return Rebind(query, args)
}

// Rebind rewrites $1..$n placeholders as ? placeholders. Because ? binds
// purely by position, the argument slice is reordered to the placeholders'
// textual order, and arguments referenced more than once are duplicated.
// Quoted literals are left untouched. A placeholder index with no matching
// argument is an ErrInvalidStatement.
func Rebind(query string, args []interface{}) (string, []interface{}, error) {
	var b strings.Builder
	b.Grow(len(query))
	bound := make([]interface{}, 0, len(args))

	inQuote := false
	for i := 0; i < len(query); i++ {
		ch := query[i]
		if ch == '\'' {
			inQuote = !inQuote
			b.WriteByte(ch)
			continue
		}
		if inQuote || ch != '$' {
			b.WriteByte(ch)
			continue
		}
		j := i + 1
		for j < len(query) && query[j] >= '0' && query[j] <= '9' {
			j++
		}
		if j == i+1 {
			b.WriteByte(ch)
			continue
		}
		n, err := strconv.Atoi(query[i+1 : j])
		if err != nil || n < 1 || n > len(args) {
			return "", nil, fmt.Errorf("%w: placeholder $%s has no matching parameter", ErrInvalidStatement, query[i+1:j])
		}
		bound = append(bound, args[n-1])
		b.WriteByte('?')
		i = j - 1
	}

	return b.String(), bound, nil
}
