package dbtools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// queryInput is the argument shape for the query_database tool.
type queryInput struct {
	Query   string        `json:"query"`
	Params  []interface{} `json:"params"`
	Timeout int           `json:"timeout"`
}

// handleQuery passes raw SQL through to the gateway verbatim. The only check
// here is that the query is non-empty; full SQL, including DDL, is allowed
// and is expected to have been authorized upstream.
func (t *Toolset) handleQuery(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var input queryInput
	dec := json.NewDecoder(bytes.NewReader(args))
	dec.UseNumber()
	if err := dec.Decode(&input); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	if strings.TrimSpace(input.Query) == "" {
		return nil, fmt.Errorf("%w: query must not be empty", ErrInvalidArgument)
	}

	params := make([]interface{}, len(input.Params))
	for i, p := range input.Params {
		scalar, err := normalizeScalar(fmt.Sprintf("params[%d]", i), p)
		if err != nil {
			return nil, err
		}
		params[i] = scalar
	}

	timeout := t.queryTimeout
	if input.Timeout > 0 {
		requested := time.Duration(input.Timeout) * time.Millisecond
		if requested < timeout {
			timeout = requested
		}
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if isRowReturning(input.Query) {
		return queryRows(ctx, t.db, input.Query, params)
	}
	return execAffected(ctx, t.db, input.Query, params)
}

// isRowReturning decides whether a statement produces a result set. This is
// a routing heuristic, not a validator; the store has the final say.
func isRowReturning(query string) bool {
	head := strings.ToUpper(strings.TrimSpace(query))
	for _, prefix := range []string{"SELECT", "WITH", "SHOW", "EXPLAIN", "VALUES"} {
		if strings.HasPrefix(head, prefix) {
			return true
		}
	}
	return strings.Contains(head, " RETURNING ")
}
