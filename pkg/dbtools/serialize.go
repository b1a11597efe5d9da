package dbtools

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"strconv"
	"time"
)

// maxSafeInteger is the largest integer a JSON number can carry without
// precision loss (2^53 - 1).
const maxSafeInteger = int64(1)<<53 - 1

// Row is an ordered column->value mapping produced by one statement
// execution. It marshals its columns in result-set order rather than the
// sorted order Go maps would impose.
type Row struct {
	columns []string
	values  map[string]interface{}
}

// NewRow creates a row with the given column order.
func NewRow(columns []string) Row {
	return Row{
		columns: columns,
		values:  make(map[string]interface{}, len(columns)),
	}
}

// Set stores a serialized value for a column.
func (r Row) Set(column string, value interface{}) {
	r.values[column] = value
}

// Get returns the value for a column.
func (r Row) Get(column string) (interface{}, bool) {
	v, ok := r.values[column]
	return v, ok
}

// Columns returns the column names in result-set order.
func (r Row) Columns() []string {
	return r.columns
}

// MarshalJSON writes the row as a JSON object preserving column order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, col := range r.columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(col)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(r.values[col])
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// SerializeValue converts a scanned column value into a JSON-safe
// representation with no precision loss:
//   - integers beyond the safe JSON range become decimal strings; the
//     consumer converts them back explicitly
//   - timestamps become ISO-8601 text
//   - byte slices become strings
//   - nil passes through unchanged
func SerializeValue(value interface{}) interface{} {
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		return string(v)
	case time.Time:
		return v.Format(time.RFC3339)
	case int64:
		if v > maxSafeInteger || v < -maxSafeInteger {
			return strconv.FormatInt(v, 10)
		}
		return v
	case uint64:
		if v > uint64(maxSafeInteger) {
			return strconv.FormatUint(v, 10)
		}
		return v
	default:
		return v
	}
}

// ScanRows drains a result set into serialized rows. The rows are closed
// before returning on every path.
func ScanRows(rows *sql.Rows) ([]Row, error) {
	defer func() {
		_ = rows.Close()
	}()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	values := make([]interface{}, len(columns))
	scanArgs := make([]interface{}, len(columns))
	for i := range values {
		scanArgs[i] = &values[i]
	}

	var results []Row
	for rows.Next() {
		if err := rows.Scan(scanArgs...); err != nil {
			return nil, err
		}

		row := NewRow(columns)
		for i, col := range columns {
			row.Set(col, SerializeValue(values[i]))
		}
		results = append(results, row)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return results, nil
}
