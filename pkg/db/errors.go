package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

// Common database errors
var (
	ErrNoDatabase = errors.New("no database connection")
	// ErrInvalidStatement marks SQL syntax or semantic errors reported by the store.
	ErrInvalidStatement = errors.New("invalid statement")
	// ErrUnavailable marks connectivity failures. They are never retried here;
	// retry policy belongs to the caller.
	ErrUnavailable = errors.New("database unavailable")
	// ErrTimeout marks statements that exceeded their deadline.
	ErrTimeout = errors.New("statement timed out")
)

// ConstraintViolationError is returned when the store rejects a statement
// because of a constraint (uniqueness, foreign key, not-null). It carries the
// underlying store's error code.
type ConstraintViolationError struct {
	Code       string
	Constraint string
	Err        error
}

func (e *ConstraintViolationError) Error() string {
	if e.Constraint != "" {
		return fmt.Sprintf("constraint violation (%s) on %q: %v", e.Code, e.Constraint, e.Err)
	}
	return fmt.Sprintf("constraint violation (%s): %v", e.Code, e.Err)
}

func (e *ConstraintViolationError) Unwrap() error {
	return e.Err
}

// ClassifyError maps driver errors onto the gateway's failure taxonomy.
// Anything unrecognized passes through unchanged.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "23": // integrity constraint violation
			return &ConstraintViolationError{
				Code:       string(pqErr.Code),
				Constraint: pqErr.Constraint,
				Err:        err,
			}
		case "42": // syntax error or access rule violation
			return fmt.Errorf("%w: %s", ErrInvalidStatement, pqErr.Message)
		case "08", "53", "57": // connection exception, insufficient resources, operator intervention
			return fmt.Errorf("%w: %s", ErrUnavailable, pqErr.Message)
		}
		return err
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case 1062, 1048, 1451, 1452, 1557:
			return &ConstraintViolationError{
				Code: fmt.Sprintf("%d", myErr.Number),
				Err:  err,
			}
		case 1064, 1054, 1146:
			return fmt.Errorf("%w: %s", ErrInvalidStatement, myErr.Message)
		case 1040, 1042, 1043, 1053:
			return fmt.Errorf("%w: %s", ErrUnavailable, myErr.Message)
		}
		return err
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return err
}
