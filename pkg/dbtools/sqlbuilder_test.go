package dbtools

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildWhere(t *testing.T) {
	c := NewConstraints()
	c.Set("class_id", int64(3))
	c.Set("active", true)
	c.Set("roll_number", int64(42))

	fragment, values, next, err := BuildWhere(c, 1)
	require.NoError(t, err)
	assert.Equal(t, "class_id = $1 AND active = $2 AND roll_number = $3", fragment)
	assert.Equal(t, []interface{}{int64(3), true, int64(42)}, values)
	assert.Equal(t, 4, next)
}

func TestBuildWhereStartIndex(t *testing.T) {
	// Placeholder numbering continues from startIndex, as when WHERE follows
	// SET in an UPDATE.
	c := NewConstraints()
	c.Set("id", int64(7))

	fragment, values, next, err := BuildWhere(c, 5)
	require.NoError(t, err)
	assert.Equal(t, "id = $5", fragment)
	assert.Equal(t, []interface{}{int64(7)}, values)
	assert.Equal(t, 6, next)
}

func TestBuildWhereEmpty(t *testing.T) {
	fragment, values, next, err := BuildWhere(NewConstraints(), 1)
	require.NoError(t, err)
	assert.Equal(t, "", fragment)
	assert.Empty(t, values)
	assert.Equal(t, 1, next)
}

func TestBuildWherePlaceholderLaw(t *testing.T) {
	// n entries yield exactly n AND-joined terms numbered k..k+n-1 in
	// insertion order.
	for _, start := range []int{1, 3, 10} {
		for n := 1; n <= 5; n++ {
			c := NewConstraints()
			for i := 0; i < n; i++ {
				c.Set(fmt.Sprintf("col%d", i), int64(i))
			}

			fragment, values, next, err := BuildWhere(c, start)
			require.NoError(t, err)
			assert.Len(t, values, n)
			assert.Equal(t, start+n, next)

			expected := ""
			for i := 0; i < n; i++ {
				if i > 0 {
					expected += " AND "
				}
				expected += fmt.Sprintf("col%d = $%d", i, start+i)
			}
			assert.Equal(t, expected, fragment)
		}
	}
}

func TestBuildSet(t *testing.T) {
	c := NewConstraints()
	c.Set("name", "Mathematics I")
	c.Set("code", "MATH101")

	fragment, values, next, err := BuildSet(c, 1)
	require.NoError(t, err)
	assert.Equal(t, "name = $1, code = $2", fragment)
	assert.Equal(t, []interface{}{"Mathematics I", "MATH101"}, values)
	assert.Equal(t, 3, next)
}

func TestBuildSetEmpty(t *testing.T) {
	_, _, _, err := BuildSet(NewConstraints(), 1)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestBuildInsert(t *testing.T) {
	c := NewConstraints()
	c.Set("code", "MATH101")
	c.Set("name", "Mathematics I")

	columns, placeholders, values, err := BuildInsert(c)
	require.NoError(t, err)
	assert.Equal(t, "(code, name)", columns)
	assert.Equal(t, "($1, $2)", placeholders)
	assert.Equal(t, []interface{}{"MATH101", "Mathematics I"}, values)
}

func TestBuildInsertEmpty(t *testing.T) {
	_, _, _, err := BuildInsert(NewConstraints())
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestValidateIdentifier(t *testing.T) {
	valid := []string{"students", "roll_number", "_private", "Class1", "a"}
	for _, name := range valid {
		assert.NoError(t, ValidateIdentifier(name), name)
	}

	invalid := []string{
		"",
		"1students",
		"drop table",
		"students;",
		`students"`,
		"students'--",
		"class-id",
		"students.id",
	}
	for _, name := range invalid {
		assert.ErrorIs(t, ValidateIdentifier(name), ErrInvalidIdentifier, name)
	}
}

func TestBuildWhereRejectsBadIdentifier(t *testing.T) {
	c := NewConstraints()
	c.Set("id; DROP TABLE students", int64(1))

	_, _, _, err := BuildWhere(c, 1)
	assert.ErrorIs(t, err, ErrInvalidIdentifier)
}

func TestParseConstraintsPreservesOrder(t *testing.T) {
	raw := json.RawMessage(`{"zeta": 1, "alpha": 2, "mid": 3}`)

	c, err := ParseConstraints(raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, c.Columns())

	fragment, values, _, err := BuildWhere(c, 1)
	require.NoError(t, err)
	assert.Equal(t, "zeta = $1 AND alpha = $2 AND mid = $3", fragment)
	assert.Equal(t, []interface{}{int64(1), int64(2), int64(3)}, values)
}

func TestParseConstraintsScalars(t *testing.T) {
	raw := json.RawMessage(`{"i": 9223372036854775807, "f": 1.5, "s": "x", "b": true, "n": null}`)

	c, err := ParseConstraints(raw)
	require.NoError(t, err)

	i, _ := c.Get("i")
	assert.Equal(t, int64(9223372036854775807), i)
	f, _ := c.Get("f")
	assert.Equal(t, 1.5, f)
	s, _ := c.Get("s")
	assert.Equal(t, "x", s)
	b, _ := c.Get("b")
	assert.Equal(t, true, b)
	n, ok := c.Get("n")
	assert.True(t, ok)
	assert.Nil(t, n)
}

func TestParseConstraintsRejectsNonScalar(t *testing.T) {
	_, err := ParseConstraints(json.RawMessage(`{"nested": {"a": 1}}`))
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = ParseConstraints(json.RawMessage(`{"list": [1, 2]}`))
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = ParseConstraints(json.RawMessage(`[1, 2]`))
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestParseConstraintsAbsent(t *testing.T) {
	c, err := ParseConstraints(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, c.Len())

	c, err = ParseConstraints(json.RawMessage(`null`))
	require.NoError(t, err)
	assert.Equal(t, 0, c.Len())
}
