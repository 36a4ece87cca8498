package selq

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"selq/internal/dblib"
)

// ValueCursor is a forward-only sequence of field values. Value returns nil for NULL.
type ValueCursor interface {
	Next() bool
	Value() any
	Err() error
}

type BuildOptions struct {
	Distinct bool // drop repeated values, keeping the first
}

// BuildStats counts what BuildQuery read.
type BuildStats struct {
	Values       int // values written to the list
	SkippedNulls int
	Duplicates   int // values dropped by BuildOptions.Distinct
}

// BuildQuery reads cur to the end and returns `field IN (v1, v2, ...)`. Values of
// textual kinds are single-quoted with embedded quotes doubled; others are written
// as is. The kind is checked before the cursor is touched.
func BuildQuery(field string, kind dblib.FieldKind, cur ValueCursor, opts BuildOptions) (string, BuildStats, error) {
	var stats BuildStats
	if !kind.Supported() {
		return "", stats, &UnsupportedFieldTypeError{Field: field, Kind: kind}
	}

	var seen map[string]bool
	if opts.Distinct {
		seen = make(map[string]bool)
	}

	var builder strings.Builder
	builder.WriteString(field)
	builder.WriteString(" IN (")

	for cur.Next() {
		v := cur.Value()
		if v == nil {
			stats.SkippedNulls++
			continue
		}

		lit := formatValue(kind, v)
		if seen != nil {
			if seen[lit] {
				stats.Duplicates++
				continue
			}
			seen[lit] = true
		}

		if stats.Values > 0 {
			builder.WriteString(", ")
		}
		builder.WriteString(lit)
		stats.Values++
	}
	if err := cur.Err(); err != nil {
		return "", stats, fmt.Errorf("failed to read selection: %w", err)
	}
	if stats.Values == 0 {
		return "", stats, ErrEmptySelection
	}

	builder.WriteString(")")
	return builder.String(), stats, nil
}

func formatValue(kind dblib.FieldKind, v any) string {
	text := valueText(v)
	if kind.Textual() || !isNumberLiteral(v, text) {
		return "'" + strings.ReplaceAll(text, "'", "''") + "'"
	}
	return text
}

// isNumberLiteral reports whether text can stand unquoted. Driver strings are
// checked since SQLite stores text in numeric columns.
func isNumberLiteral(v any, text string) bool {
	switch v.(type) {
	case string, []byte:
	default:
		return true
	}

	i := 0
	if i < len(text) && (text[i] == '+' || text[i] == '-') {
		i++
	}
	digits := 0
	for ; i < len(text) && text[i] >= '0' && text[i] <= '9'; i++ {
		digits++
	}
	if i < len(text) && text[i] == '.' {
		for i++; i < len(text) && text[i] >= '0' && text[i] <= '9'; i++ {
			digits++
		}
	}
	if digits == 0 {
		return false
	}
	if i < len(text) && (text[i] == 'e' || text[i] == 'E') {
		i++
		if i < len(text) && (text[i] == '+' || text[i] == '-') {
			i++
		}
		exp := 0
		for ; i < len(text) && text[i] >= '0' && text[i] <= '9'; i++ {
			exp++
		}
		if exp == 0 {
			return false
		}
	}
	return i == len(text)
}

func valueText(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case []byte:
		return string(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case int:
		return strconv.Itoa(val)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int16:
		return strconv.FormatInt(int64(val), 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case bool:
		if val {
			return "TRUE"
		}
		return "FALSE"
	case time.Time:
		return val.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprint(val)
	}
}
