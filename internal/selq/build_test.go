package selq

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"selq/internal/dblib"
)

type sliceCursor struct {
	values []any
	pos    int
	reads  int
	err    error
}

func (c *sliceCursor) Next() bool {
	c.reads++
	if c.pos >= len(c.values) {
		return false
	}
	c.pos++
	return true
}

func (c *sliceCursor) Value() any { return c.values[c.pos-1] }
func (c *sliceCursor) Err() error { return c.err }

func TestBuildQuery(t *testing.T) {
	tests := []struct {
		name   string
		field  string
		kind   dblib.FieldKind
		values []any
		opts   BuildOptions
		want   string
	}{
		{name: "strings", field: "Code", kind: dblib.KindString, values: []any{"A", "B"}, want: "Code IN ('A', 'B')"},
		{name: "integers", field: "ID", kind: dblib.KindInteger, values: []any{int64(1), int64(2), int64(3)}, want: "ID IN (1, 2, 3)"},
		{name: "single value", field: "ID", kind: dblib.KindOID, values: []any{int64(7)}, want: "ID IN (7)"},
		{name: "embedded quote", field: "Owner", kind: dblib.KindString, values: []any{"D'Arc"}, want: "Owner IN ('D''Arc')"},
		{name: "driver bytes", field: "Code", kind: dblib.KindString, values: []any{[]byte("X")}, want: "Code IN ('X')"},
		{name: "numbers in text field", field: "Code", kind: dblib.KindString, values: []any{int64(12)}, want: "Code IN ('12')"},
		{name: "doubles", field: "area", kind: dblib.KindDouble, values: []any{10.5, float64(20), 1e-7}, want: "area IN (10.5, 20, 0.0000001)"},
		{name: "singles", field: "ratio", kind: dblib.KindSingle, values: []any{float32(0.1)}, want: "ratio IN (0.1)"},
		{name: "numeric as bytes", field: "price", kind: dblib.KindDouble, values: []any{[]byte("12.50")}, want: "price IN (12.50)"},
		{name: "text in numeric column", field: "parcel_no", kind: dblib.KindDouble, values: []any{"abc", int64(3), "12", "O'Neil"}, want: "parcel_no IN ('abc', 3, 12, 'O''Neil')"},
		{name: "numeric text forms", field: "area", kind: dblib.KindDouble, values: []any{"-1.5e3", ".5", "1e", "Inf"}, want: "area IN (-1.5e3, .5, '1e', 'Inf')"},
		{name: "nulls skipped", field: "zone", kind: dblib.KindSmallInteger, values: []any{nil, int64(2), nil}, want: "zone IN (2)"},
		{name: "duplicates kept", field: "zone", kind: dblib.KindSmallInteger, values: []any{int64(2), int64(2)}, want: "zone IN (2, 2)"},
		{
			name:   "distinct",
			field:  "Code",
			kind:   dblib.KindString,
			values: []any{"B", "A", "B", []byte("A")},
			opts:   BuildOptions{Distinct: true},
			want:   "Code IN ('B', 'A')",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, err := BuildQuery(tt.field, tt.kind, &sliceCursor{values: tt.values}, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildQuery_Stats(t *testing.T) {
	cur := &sliceCursor{values: []any{"A", nil, "A", "B", nil}}
	_, stats, err := BuildQuery("Code", dblib.KindString, cur, BuildOptions{Distinct: true})
	require.NoError(t, err)
	assert.Equal(t, BuildStats{Values: 2, SkippedNulls: 2, Duplicates: 1}, stats)
}

func TestBuildQuery_UnsupportedKindsReadNothing(t *testing.T) {
	kinds := []dblib.FieldKind{
		dblib.KindDate, dblib.KindBlob, dblib.KindGeometry,
		dblib.KindGUID, dblib.KindGlobalID, dblib.KindRaster,
	}
	for _, kind := range kinds {
		t.Run(kind.String(), func(t *testing.T) {
			cur := &sliceCursor{values: []any{"x"}}
			_, _, err := BuildQuery("f", kind, cur, BuildOptions{})

			var unsupported *UnsupportedFieldTypeError
			require.ErrorAs(t, err, &unsupported)
			assert.Equal(t, "f", unsupported.Field)
			assert.Equal(t, kind, unsupported.Kind)
			assert.Zero(t, cur.reads, "cursor must not be read")
		})
	}

	err := &UnsupportedFieldTypeError{Field: "Shape", Kind: dblib.KindGeometry}
	assert.Equal(t, "unexpected field type: field 'Shape', type 'Geometry'", err.Error())
}

func TestBuildQuery_EmptySelection(t *testing.T) {
	_, _, err := BuildQuery("Code", dblib.KindString, &sliceCursor{}, BuildOptions{})
	assert.ErrorIs(t, err, ErrEmptySelection)

	_, stats, err := BuildQuery("Code", dblib.KindString, &sliceCursor{values: []any{nil, nil}}, BuildOptions{})
	assert.ErrorIs(t, err, ErrEmptySelection)
	assert.Equal(t, 2, stats.SkippedNulls)
}

func TestBuildQuery_CursorError(t *testing.T) {
	boom := errors.New("disk on fire")
	_, _, err := BuildQuery("Code", dblib.KindString, &sliceCursor{values: []any{"A"}, err: boom}, BuildOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}
