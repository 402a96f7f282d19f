package table

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Deterministic cell coercion shared by the classifier and the profiler.
// Raw cells are strings as parsed from the source; coercion never mutates
// the table.

// NormalizeToken trims and lower-cases a raw cell for token comparison.
func NormalizeToken(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// TryParseNumeric attempts to parse a raw cell as a number. It tolerates
// thousands separators, surrounding whitespace, a leading currency symbol,
// a trailing percent sign and accounting-style parentheses for negatives.
func TryParseNumeric(raw string) (float64, bool) {
	cleanVal := strings.TrimSpace(raw)
	if cleanVal == "" {
		return 0, false
	}

	// Accounting negatives: (123) -> -123
	isNegative := false
	if strings.HasPrefix(cleanVal, "(") && strings.HasSuffix(cleanVal, ")") {
		cleanVal = strings.TrimSuffix(strings.TrimPrefix(cleanVal, "("), ")")
		isNegative = true
	}

	for _, symbol := range []string{"$", "€", "£", "¥"} {
		cleanVal = strings.ReplaceAll(cleanVal, symbol, "")
	}
	cleanVal = strings.ReplaceAll(cleanVal, "%", "")
	cleanVal = strings.ReplaceAll(cleanVal, ",", "")
	cleanVal = strings.TrimSpace(cleanVal)

	if isNegative {
		cleanVal = "-" + cleanVal
	}

	val, err := strconv.ParseFloat(cleanVal, 64)
	if err != nil || math.IsInf(val, 0) || math.IsNaN(val) {
		return 0, false
	}
	return val, true
}

var booleanTokens = map[string]bool{
	"true": true, "t": true, "yes": true, "y": true, "1": true,
	"false": false, "f": false, "no": false, "n": false, "0": false,
}

// TryParseBool attempts to parse a raw cell as a boolean token.
func TryParseBool(raw string) (bool, bool) {
	v, ok := booleanTokens[NormalizeToken(raw)]
	return v, ok
}

// IsBooleanToken reports whether the raw cell resembles a boolean value.
func IsBooleanToken(raw string) bool {
	_, ok := TryParseBool(raw)
	return ok
}

// timestampFormats are tried in order. Unix epoch integers are deliberately
// excluded: the classifier probes datetime before numeric, and plain
// integer columns must not be swallowed as timestamps.
var timestampFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
	"2006/01/02",
	"02-Jan-2006",
	"Jan 2, 2006",
}

// TryParseTime attempts to parse a raw cell as a timestamp.
func TryParseTime(raw string) (time.Time, bool) {
	strVal := strings.TrimSpace(raw)
	if strVal == "" {
		return time.Time{}, false
	}
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, strVal); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// NumericValues returns the coerced non-missing numeric values of a column
// in row order. Cells that fail coercion are skipped.
func (c *Column) NumericValues() []float64 {
	out := make([]float64, 0, len(c.Values))
	for _, raw := range c.Values {
		if IsMissing(raw) {
			continue
		}
		if v, ok := TryParseNumeric(raw); ok {
			out = append(out, v)
		}
	}
	return out
}

// BooleanValues returns the coerced non-missing boolean values in row order.
func (c *Column) BooleanValues() []bool {
	out := make([]bool, 0, len(c.Values))
	for _, raw := range c.Values {
		if IsMissing(raw) {
			continue
		}
		if v, ok := TryParseBool(raw); ok {
			out = append(out, v)
		}
	}
	return out
}

// TimeValues returns the coerced non-missing timestamps in row order.
func (c *Column) TimeValues() []time.Time {
	out := make([]time.Time, 0, len(c.Values))
	for _, raw := range c.Values {
		if IsMissing(raw) {
			continue
		}
		if v, ok := TryParseTime(raw); ok {
			out = append(out, v)
		}
	}
	return out
}
