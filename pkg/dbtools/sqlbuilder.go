package dbtools

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Constraints is an insertion-ordered column->value mapping. Ordering
// determines placeholder numbering, so it is preserved from the wire all the
// way to the parameter slice handed to the gateway.
type Constraints struct {
	keys   []string
	values map[string]interface{}
}

// NewConstraints creates an empty constraint set.
func NewConstraints() *Constraints {
	return &Constraints{values: make(map[string]interface{})}
}

// Set adds or replaces a column constraint. A new column is appended to the
// insertion order; replacing keeps the original position.
func (c *Constraints) Set(column string, value interface{}) {
	if _, ok := c.values[column]; !ok {
		c.keys = append(c.keys, column)
	}
	c.values[column] = value
}

// Get returns the value for a column.
func (c *Constraints) Get(column string) (interface{}, bool) {
	v, ok := c.values[column]
	return v, ok
}

// Has reports whether a column is constrained.
func (c *Constraints) Has(column string) bool {
	_, ok := c.values[column]
	return ok
}

// Len returns the number of constrained columns.
func (c *Constraints) Len() int {
	if c == nil {
		return 0
	}
	return len(c.keys)
}

// Columns returns the column names in insertion order.
func (c *Constraints) Columns() []string {
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

// ParseConstraints decodes a JSON object into a constraint set, preserving
// the object's key order. Values must be scalars; nested objects and arrays
// are rejected.
func ParseConstraints(raw json.RawMessage) (*Constraints, error) {
	c := NewConstraints()
	if len(raw) == 0 || string(raw) == "null" {
		return c, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("%w: expected object, got %v", ErrInvalidArgument, tok)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
		}
		key := keyTok.(string)

		var value interface{}
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
		}

		scalar, err := normalizeScalar(fmt.Sprintf("column %q", key), value)
		if err != nil {
			return nil, err
		}
		c.Set(key, scalar)
	}

	return c, nil
}

// normalizeScalar converts decoded JSON values into types the sql drivers
// bind natively. json.Number becomes int64 when integral so 64-bit values do
// not pass through float64.
func normalizeScalar(label string, value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case nil, bool, string:
		return v, nil
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, nil
		}
		f, err := v.Float64()
		if err != nil {
			return nil, fmt.Errorf("%w: %s has unreadable number %q", ErrInvalidArgument, label, v.String())
		}
		return f, nil
	default:
		return nil, fmt.Errorf("%w: %s must be a scalar", ErrInvalidArgument, label)
	}
}

// ValidateIdentifier checks a table or column name against the identifier
// syntax: letters, digits and underscore, starting with a letter or
// underscore.
func ValidateIdentifier(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidIdentifier)
	}
	for i, ch := range name {
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch == '_':
		case ch >= '0' && ch <= '9':
			if i == 0 {
				return fmt.Errorf("%w: %q starts with a digit", ErrInvalidIdentifier, name)
			}
		default:
			return fmt.Errorf("%w: %q", ErrInvalidIdentifier, name)
		}
	}
	return nil
}

// BuildWhere emits "col1 = $k AND col2 = $k+1 ..." in insertion order,
// numbering placeholders from startIndex. An empty constraint set yields an
// empty fragment; the caller omits the WHERE keyword in that case. Returns
// the fragment, the bound values and the next free placeholder index.
func BuildWhere(c *Constraints, startIndex int) (string, []interface{}, int, error) {
	if c.Len() == 0 {
		return "", nil, startIndex, nil
	}

	terms := make([]string, 0, c.Len())
	values := make([]interface{}, 0, c.Len())
	idx := startIndex
	for _, col := range c.keys {
		if err := ValidateIdentifier(col); err != nil {
			return "", nil, startIndex, err
		}
		terms = append(terms, fmt.Sprintf("%s = $%d", col, idx))
		values = append(values, c.values[col])
		idx++
	}

	return strings.Join(terms, " AND "), values, idx, nil
}

// BuildSet emits "col1 = $k, col2 = $k+1 ..." in insertion order. An UPDATE
// with no columns is rejected, not silently a no-op.
func BuildSet(c *Constraints, startIndex int) (string, []interface{}, int, error) {
	if c.Len() == 0 {
		return "", nil, startIndex, fmt.Errorf("%w: empty SET clause", ErrInvalidArgument)
	}

	terms := make([]string, 0, c.Len())
	values := make([]interface{}, 0, c.Len())
	idx := startIndex
	for _, col := range c.keys {
		if err := ValidateIdentifier(col); err != nil {
			return "", nil, startIndex, err
		}
		terms = append(terms, fmt.Sprintf("%s = $%d", col, idx))
		values = append(values, c.values[col])
		idx++
	}

	return strings.Join(terms, ", "), values, idx, nil
}

// BuildInsert emits "(col1, col2, ...)" and "($1, $2, ...)" fragments in
// insertion order with the matching value slice.
func BuildInsert(c *Constraints) (string, string, []interface{}, error) {
	if c.Len() == 0 {
		return "", "", nil, fmt.Errorf("%w: empty column list", ErrInvalidArgument)
	}

	cols := make([]string, 0, c.Len())
	placeholders := make([]string, 0, c.Len())
	values := make([]interface{}, 0, c.Len())
	for i, col := range c.keys {
		if err := ValidateIdentifier(col); err != nil {
			return "", "", nil, err
		}
		cols = append(cols, col)
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
		values = append(values, c.values[col])
	}

	return "(" + strings.Join(cols, ", ") + ")",
		"(" + strings.Join(placeholders, ", ") + ")",
		values, nil
}
