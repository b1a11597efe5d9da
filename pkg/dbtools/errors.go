package dbtools

import "errors"

// Errors raised before any statement reaches the database gateway.
var (
	// ErrInvalidIdentifier is returned when a table or column name fails the
	// identifier syntax check. Identifiers are interpolated into SQL text, so
	// they are validated; values are always bound, never interpolated.
	ErrInvalidIdentifier = errors.New("invalid identifier")
	// ErrInvalidArgument is returned for structurally bad tool arguments,
	// such as an UPDATE with an empty SET.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrMissingWhere guards against unconditional UPDATE/DELETE statements.
	ErrMissingWhere = errors.New("missing where clause")
	// ErrUnsupportedOperation is returned for an unknown CRUD verb.
	ErrUnsupportedOperation = errors.New("unsupported operation")
)
