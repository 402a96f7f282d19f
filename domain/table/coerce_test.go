package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTryParseNumeric(t *testing.T) {
	cases := []struct {
		raw  string
		want float64
		ok   bool
	}{
		{"42", 42, true},
		{" 3.14 ", 3.14, true},
		{"-0.5", -0.5, true},
		{"1,234,567.89", 1234567.89, true},
		{"$1,200.50", 1200.50, true},
		{"€99", 99, true},
		{"12.5%", 12.5, true},
		{"(250)", -250, true},
		{"($1,000)", -1000, true},
		{"1e3", 1000, true},
		{"", 0, false},
		{"abc", 0, false},
		{"12abc", 0, false},
	}
	for _, tc := range cases {
		got, ok := TryParseNumeric(tc.raw)
		assert.Equal(t, tc.ok, ok, "raw %q", tc.raw)
		if tc.ok {
			assert.InDelta(t, tc.want, got, 1e-9, "raw %q", tc.raw)
		}
	}
}

func TestTryParseBool(t *testing.T) {
	for _, raw := range []string{"true", "T", "yes", "Y", "1", " TRUE "} {
		v, ok := TryParseBool(raw)
		assert.True(t, ok, "raw %q", raw)
		assert.True(t, v, "raw %q", raw)
	}
	for _, raw := range []string{"false", "F", "no", "N", "0"} {
		v, ok := TryParseBool(raw)
		assert.True(t, ok, "raw %q", raw)
		assert.False(t, v, "raw %q", raw)
	}
	_, ok := TryParseBool("maybe")
	assert.False(t, ok)
}

func TestTryParseTime_AcceptedFormats(t *testing.T) {
	for _, raw := range []string{
		"2024-03-15",
		"2024-03-15T10:30:00Z",
		"2024-03-15 10:30:00",
		"03/15/2024",
		"2024/03/15",
		"15-Mar-2024",
		"Mar 15, 2024",
	} {
		ts, ok := TryParseTime(raw)
		require.True(t, ok, "raw %q", raw)
		assert.Equal(t, 2024, ts.Year(), "raw %q", raw)
	}
}

// Plain integers are not timestamps: the datetime probe runs before the
// numeric one, and integer columns must survive it.
func TestTryParseTime_RejectsEpochIntegers(t *testing.T) {
	for _, raw := range []string{"1700000000", "42", "2024"} {
		_, ok := TryParseTime(raw)
		assert.False(t, ok, "raw %q", raw)
	}
}

func TestIsMissing(t *testing.T) {
	for _, raw := range []string{"", "  ", "NA", "n/a", "NaN", "NULL", "None", "-"} {
		assert.True(t, IsMissing(raw), "raw %q", raw)
	}
	for _, raw := range []string{"0", "false", "x", "na na"} {
		assert.False(t, IsMissing(raw), "raw %q", raw)
	}
}

func TestColumnCoercionSkipsMissingAndJunk(t *testing.T) {
	col := &Column{Name: "x", Values: []string{"1", "NA", "2", "junk", "3"}}
	assert.Equal(t, []float64{1, 2, 3}, col.NumericValues())
	assert.Equal(t, 1, col.MissingCount())
	assert.Len(t, col.NonMissing(), 4)
}
