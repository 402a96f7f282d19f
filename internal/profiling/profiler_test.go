package profiling

import (
	"math"
	"testing"

	"statlens/adapters/tabular"
	"statlens/domain/core"
	"statlens/domain/profile"
	"statlens/domain/table"
	"statlens/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProfiler() *Profiler {
	return NewProfiler(config.DefaultProfilerConfig())
}

func numericClass() tabular.Classification {
	return tabular.Classification{Type: table.TypeNumeric}
}

func floatColumn(name string, values ...string) *table.Column {
	return &table.Column{Name: core.ColumnName(name), Values: values}
}

func TestNumericStats_BasicMoments(t *testing.T) {
	p := newTestProfiler()
	cp := p.ProfileColumn(floatColumn("x", "2", "4", "4", "4", "5", "5", "7", "9"), numericClass())

	require.NotNil(t, cp.Numeric)
	assert.InDelta(t, 5.0, cp.Numeric.Mean, 1e-9)
	assert.InDelta(t, 2.0, cp.Numeric.Min, 1e-9)
	assert.InDelta(t, 9.0, cp.Numeric.Max, 1e-9)
	// Sample standard deviation, n-1 denominator.
	assert.InDelta(t, 2.138089935, cp.Numeric.StdDev, 1e-6)
}

// A strongly right-skewed column gets the log suggestion. Skewness of
// [1,2,3,4,100] is well above 1 under population moments.
func TestNumericStats_StrongPositiveSkewSuggestsLog(t *testing.T) {
	p := newTestProfiler()
	cp := p.ProfileColumn(floatColumn("x", "1", "2", "3", "4", "100"), numericClass())

	require.NotNil(t, cp.Numeric)
	assert.Greater(t, cp.Numeric.Skewness, 1.0)
	assert.Equal(t, profile.TransformLog, cp.Numeric.Transformation)
}

func TestNumericStats_StrongNegativeSkewSuggestsSquare(t *testing.T) {
	p := newTestProfiler()
	cp := p.ProfileColumn(floatColumn("x", "100", "99", "98", "97", "1"), numericClass())

	require.NotNil(t, cp.Numeric)
	assert.Less(t, cp.Numeric.Skewness, -1.0)
	assert.Equal(t, profile.TransformSquare, cp.Numeric.Transformation)
}

func TestNumericStats_SymmetricNeedsNoTransformation(t *testing.T) {
	p := newTestProfiler()
	cp := p.ProfileColumn(floatColumn("x", "1", "2", "3", "4", "5"), numericClass())

	require.NotNil(t, cp.Numeric)
	assert.InDelta(t, 0.0, cp.Numeric.Skewness, 1e-9)
	assert.Equal(t, profile.TransformNone, cp.Numeric.Transformation)
}

// Fewer than 2 values: location stats are defined, spread and shape are
// NaN markers rather than errors.
func TestNumericStats_SingleValueUsesNaNMarkers(t *testing.T) {
	p := newTestProfiler()
	cp := p.ProfileColumn(floatColumn("x", "42"), numericClass())

	require.NotNil(t, cp.Numeric)
	assert.Equal(t, 42.0, cp.Numeric.Mean)
	assert.True(t, math.IsNaN(cp.Numeric.StdDev))
	assert.True(t, math.IsNaN(cp.Numeric.Skewness))
	assert.True(t, math.IsNaN(cp.Numeric.Kurtosis))
	assert.Equal(t, profile.TransformNone, cp.Numeric.Transformation)
}

func TestNumericStats_EmptyColumnAllNaN(t *testing.T) {
	p := newTestProfiler()
	cp := p.ProfileColumn(floatColumn("x", "", "NA", "null"), numericClass())

	require.NotNil(t, cp.Numeric)
	assert.True(t, math.IsNaN(cp.Numeric.Mean))
	assert.Equal(t, 3, cp.MissingCount)
	assert.Equal(t, 1.0, cp.MissingFraction)
}

func TestNumericStats_IQROutlierDetection(t *testing.T) {
	p := newTestProfiler()
	// 1..10 plus one extreme value.
	cp := p.ProfileColumn(floatColumn("x", "1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "1000"), numericClass())

	require.NotNil(t, cp.Numeric)
	assert.Equal(t, 1, cp.Numeric.OutlierCount)
}

func TestCategoricalStats_FrequencyOrderIsDeterministic(t *testing.T) {
	p := newTestProfiler()
	class := tabular.Classification{Type: table.TypeCategorical}
	col := floatColumn("g", "b", "a", "c", "b", "a", "b")

	first := p.ProfileColumn(col, class)
	second := p.ProfileColumn(col, class)

	require.NotNil(t, first.Categorical)
	assert.Equal(t, first.Categorical.Frequencies, second.Categorical.Frequencies)
	assert.Equal(t, "b", first.Categorical.Frequencies[0].Value)
	assert.Equal(t, 3, first.Categorical.Frequencies[0].Count)
	// Count tie between a and c breaks by value.
	assert.Equal(t, "a", first.Categorical.Frequencies[1].Value)
	require.NotNil(t, first.Categorical.MostFrequent)
	assert.Equal(t, "b", first.Categorical.MostFrequent.Value)
}

func TestBooleanStats_Proportions(t *testing.T) {
	p := newTestProfiler()
	class := tabular.Classification{Type: table.TypeBoolean}
	cp := p.ProfileColumn(floatColumn("f", "yes", "no", "yes", "yes"), class)

	require.NotNil(t, cp.Boolean)
	assert.Equal(t, 3, cp.Boolean.TrueCount)
	assert.Equal(t, 1, cp.Boolean.FalseCount)
	assert.InDelta(t, 0.75, cp.Boolean.TrueProportion, 1e-9)
}

func TestDatetimeStats_DailyInterval(t *testing.T) {
	p := newTestProfiler()
	class := tabular.Classification{Type: table.TypeDatetime}
	cp := p.ProfileColumn(floatColumn("d", "2024-01-01", "2024-01-02", "2024-01-03", "2024-01-04"), class)

	require.NotNil(t, cp.Datetime)
	assert.Equal(t, "daily", cp.Datetime.Interval)
	assert.Equal(t, "2024-01-01T00:00:00Z", cp.Datetime.Start.String())
}

func TestDatetimeStats_IrregularInterval(t *testing.T) {
	p := newTestProfiler()
	class := tabular.Classification{Type: table.TypeDatetime}
	cp := p.ProfileColumn(floatColumn("d", "2024-01-01", "2024-01-05", "2024-03-20"), class)

	require.NotNil(t, cp.Datetime)
	assert.Equal(t, "irregular", cp.Datetime.Interval)
}

func TestProfileTable_ColumnOrderPreserved(t *testing.T) {
	tbl, err := table.NewTable(
		[]string{"a", "b", "c"},
		[][]string{{"1.5", "x", "true"}, {"2.5", "y", "false"}},
	)
	require.NoError(t, err)

	classes := map[core.ColumnName]tabular.Classification{
		"a": {Type: table.TypeNumeric},
		"b": {Type: table.TypeCategorical},
		"c": {Type: table.TypeBoolean},
	}

	p := newTestProfiler()
	profiles := p.ProfileTable(tbl, classes)
	require.Len(t, profiles, 3)
	assert.Equal(t, core.ColumnName("a"), profiles[0].Name)
	assert.Equal(t, core.ColumnName("b"), profiles[1].Name)
	assert.Equal(t, core.ColumnName("c"), profiles[2].Name)
	assert.NotNil(t, profiles[0].Numeric)
	assert.NotNil(t, profiles[1].Categorical)
	assert.NotNil(t, profiles[2].Boolean)
}

// One column blowing up mid-profiling must not take its siblings down:
// the broken column gets the structurally complete fallback with the
// error flag set, everything else profiles normally.
func TestProfileTable_FailedColumnIsIsolated(t *testing.T) {
	tbl, err := table.NewTable(
		[]string{"a", "b", "c"},
		[][]string{{"1.5", "2", "x"}, {"2.5", "NA", "y"}, {"3.5", "4", "x"}},
	)
	require.NoError(t, err)

	classes := map[core.ColumnName]tabular.Classification{
		"a": {Type: table.TypeNumeric},
		"b": {Type: table.TypeNumeric},
		"c": {Type: table.TypeCategorical},
	}

	p := newTestProfiler()
	compute := p.stats
	p.stats = func(col *table.Column, class tabular.Classification, cp *profile.ColumnProfile) {
		if col.Name == "b" {
			panic("stats backend exploded")
		}
		compute(col, class, cp)
	}

	profiles := p.ProfileTable(tbl, classes)
	require.Len(t, profiles, 3)

	// Siblings are untouched.
	assert.Empty(t, profiles[0].ProfileError)
	assert.NotNil(t, profiles[0].Numeric)
	assert.Empty(t, profiles[2].ProfileError)
	assert.NotNil(t, profiles[2].Categorical)

	// The failed column keeps its skeleton and carries the error.
	bad := profiles[1]
	assert.Contains(t, bad.ProfileError, "stats backend exploded")
	assert.Equal(t, core.ColumnName("b"), bad.Name)
	assert.Equal(t, table.TypeNumeric, bad.SemanticType)
	assert.Equal(t, 3, bad.RowCount)
	assert.Equal(t, 1, bad.MissingCount)
	assert.InDelta(t, 1.0/3.0, bad.MissingFraction, 1e-9)
	assert.Nil(t, bad.Numeric)
}

func TestSummarize_TypeCountsSumToColumnCount(t *testing.T) {
	tbl, err := table.NewTable(
		[]string{"a", "b", "c", "d"},
		[][]string{
			{"1.5", "x", "true", ""},
			{"2.5", "y", "false", "NA"},
		},
	)
	require.NoError(t, err)

	classes := map[core.ColumnName]tabular.Classification{
		"a": {Type: table.TypeNumeric},
		"b": {Type: table.TypeCategorical},
		"c": {Type: table.TypeBoolean},
		"d": {Type: table.TypeCategorical, Unusable: true},
	}
	p := newTestProfiler()
	profiles := p.ProfileTable(tbl, classes)
	summary := Summarize(tbl, profiles)

	total := 0
	for _, n := range summary.TypeCounts {
		total += n
	}
	assert.Equal(t, summary.ColumnCount, total)
	assert.Equal(t, 2, summary.RowCount)
	assert.Equal(t, 2, summary.MissingTotal)
	assert.Greater(t, summary.MemoryEstimate, int64(0))
}
