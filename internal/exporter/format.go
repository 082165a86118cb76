package exporter

import (
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// formatFloat formats a float64 with the shortest representation that
// round-trips, keeping at least one decimal digit (92.5, 0.8, 92.0).
// Very small and very large magnitudes use exponent notation.
func formatFloat(f float64) string {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}

	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}

	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// formatBool formats a boolean flag as 1 or 0
func formatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// NULL columns become empty fields

func formatNullString(s sql.NullString) string {
	if !s.Valid {
		return ""
	}
	return s.String
}

// formatValue renders a column scanned without a Go type. Floats and
// booleans follow the rules above; anything else is written as stored.
func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case float64:
		return formatFloat(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return formatBool(val)
	case string:
		return val
	case []byte:
		return string(val)
	default:
		return fmt.Sprint(val)
	}
}
