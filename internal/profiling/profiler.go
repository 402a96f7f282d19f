package profiling

import (
	"fmt"
	"math"
	"sort"
	"time"

	"statlens/adapters/tabular"
	"statlens/domain/core"
	"statlens/domain/profile"
	"statlens/domain/table"
	"statlens/internal/config"

	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"
)

// Profiler computes per-column statistical signatures. Profiling is a pure
// function of the column data: same snapshot in, same profiles out.
type Profiler struct {
	config config.ProfilerConfig

	// stats fills the per-kind section of a profile. Swappable so a
	// failing column can be simulated in tests.
	stats func(col *table.Column, class tabular.Classification, cp *profile.ColumnProfile)
}

// NewProfiler creates a profiler with the given constants.
func NewProfiler(cfg config.ProfilerConfig) *Profiler {
	p := &Profiler{config: cfg}
	p.stats = p.computeStats
	return p
}

// ProfileTable profiles every column of a classified table, in table
// order. Columns fan out across goroutines but the pass joins before
// returning; a single column's failure never disturbs the others.
func (p *Profiler) ProfileTable(t *table.Table, classes map[core.ColumnName]tabular.Classification) []profile.ColumnProfile {
	profiles := make([]profile.ColumnProfile, len(t.Columns))

	var g errgroup.Group
	for i := range t.Columns {
		i := i
		g.Go(func() error {
			col := &t.Columns[i]
			profiles[i] = p.profileColumnIsolated(col, classes[col.Name])
			return nil
		})
	}
	// Workers only record per-column outcomes, never fail the group.
	_ = g.Wait()

	return profiles
}

// profileColumnIsolated converts a panic inside one column's profiling
// into a fallback profile with an error flag.
func (p *Profiler) profileColumnIsolated(col *table.Column, class tabular.Classification) (cp profile.ColumnProfile) {
	defer func() {
		if r := recover(); r != nil {
			cp = p.fallbackProfile(col, class)
			cp.ProfileError = fmt.Sprintf("profiling failed: %v", r)
		}
	}()
	return p.ProfileColumn(col, class)
}

// ProfileColumn computes the profile of a single classified column.
func (p *Profiler) ProfileColumn(col *table.Column, class tabular.Classification) profile.ColumnProfile {
	cp := p.fallbackProfile(col, class)
	p.stats(col, class, &cp)
	return cp
}

// computeStats dispatches on the semantic type and fills the matching
// stats section.
func (p *Profiler) computeStats(col *table.Column, class tabular.Classification, cp *profile.ColumnProfile) {
	switch class.Type {
	case table.TypeNumeric, table.TypeDiscrete:
		cp.Numeric = p.numericStats(col.NumericValues())
	case table.TypeBoolean:
		cp.Boolean = p.booleanStats(col)
	case table.TypeDatetime:
		cp.Datetime = p.datetimeStats(col.TimeValues())
	default:
		cp.Categorical = p.categoricalStats(col.NonMissing())
	}
}

// fallbackProfile is the structurally complete skeleton every column gets
// regardless of how far profiling proceeds.
func (p *Profiler) fallbackProfile(col *table.Column, class tabular.Classification) profile.ColumnProfile {
	rows := len(col.Values)
	missing := col.MissingCount()
	fraction := 0.0
	if rows > 0 {
		fraction = float64(missing) / float64(rows)
	}
	return profile.ColumnProfile{
		Name:            col.Name,
		SemanticType:    class.Type,
		RowCount:        rows,
		MissingCount:    missing,
		MissingFraction: fraction,
		Unusable:        class.Unusable,
	}
}

// numericStats computes the numeric/discrete signature. With fewer than 2
// values the spread and shape statistics are NaN markers, not errors.
func (p *Profiler) numericStats(data []float64) *profile.NumericStats {
	ns := &profile.NumericStats{
		Mean:     math.NaN(),
		StdDev:   math.NaN(),
		Min:      math.NaN(),
		Max:      math.NaN(),
		Median:   math.NaN(),
		Q25:      math.NaN(),
		Q75:      math.NaN(),
		Skewness: math.NaN(),
		Kurtosis: math.NaN(),
	}
	if len(data) == 0 {
		return ns
	}

	mean, _ := stats.Mean(data)
	min, _ := stats.Min(data)
	max, _ := stats.Max(data)
	median, _ := stats.Median(data)
	ns.Mean = mean
	ns.Min = min
	ns.Max = max
	ns.Median = median

	if len(data) < 2 {
		return ns
	}

	stdDev, _ := stats.StandardDeviationSample(data)
	q25, _ := stats.Percentile(data, 25)
	q75, _ := stats.Percentile(data, 75)
	ns.StdDev = stdDev
	ns.Q25 = q25
	ns.Q75 = q75

	ns.Skewness = skewness(data, mean)
	ns.Kurtosis = excessKurtosis(data, mean)
	ns.OutlierCount = p.detectOutliers(data, q25, q75)
	ns.Transformation = suggestTransformation(ns)

	return ns
}

// skewness is the third standardized moment (population moments).
func skewness(data []float64, mean float64) float64 {
	n := float64(len(data))
	m2, m3 := 0.0, 0.0
	for _, x := range data {
		d := x - mean
		m2 += d * d
		m3 += d * d * d
	}
	m2 /= n
	m3 /= n
	if m2 == 0 {
		return math.NaN()
	}
	return m3 / math.Pow(m2, 1.5)
}

// excessKurtosis is the fourth standardized moment minus 3.
func excessKurtosis(data []float64, mean float64) float64 {
	n := float64(len(data))
	m2, m4 := 0.0, 0.0
	for _, x := range data {
		d := x - mean
		m2 += d * d
		m4 += d * d * d * d
	}
	m2 /= n
	m4 /= n
	if m2 == 0 {
		return math.NaN()
	}
	return m4/(m2*m2) - 3
}

// detectOutliers applies the IQR fence rule with the configured multiplier.
func (p *Profiler) detectOutliers(data []float64, q25, q75 float64) int {
	iqr := q75 - q25
	lowerBound := q25 - p.config.IQRMultiplier*iqr
	upperBound := q75 + p.config.IQRMultiplier*iqr

	outlierCount := 0
	for _, x := range data {
		if x < lowerBound || x > upperBound {
			outlierCount++
		}
	}
	return outlierCount
}

// suggestTransformation maps the shape bucket to its fixed transformation
// label. Skew rules take priority over the heavy-tails-only rule; a column
// gets at most one suggestion.
func suggestTransformation(ns *profile.NumericStats) profile.TransformationSuggestion {
	switch ns.SkewnessBucket() {
	case profile.BucketStrongPositive:
		return profile.TransformLog
	case profile.BucketStrongNegative, profile.BucketModerateNegative:
		return profile.TransformSquare
	case profile.BucketModeratePositive:
		return profile.TransformSquareRoot
	case profile.BucketHeavyTails:
		return profile.TransformBoxCox
	}
	return profile.TransformNone
}

// categoricalStats builds the frequency table, sorted by descending count
// with ties broken by value so repeated passes are identical.
func (p *Profiler) categoricalStats(values []string) *profile.CategoricalStats {
	frequency := make(map[string]int, len(values))
	for _, v := range values {
		frequency[v]++
	}

	entries := make([]profile.FrequencyEntry, 0, len(frequency))
	for value, count := range frequency {
		entries = append(entries, profile.FrequencyEntry{Value: value, Count: count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Value < entries[j].Value
	})

	cs := &profile.CategoricalStats{UniqueCount: len(entries)}
	if len(entries) > 0 {
		top := entries[0]
		cs.MostFrequent = &top
	}
	if p.config.MaxFrequencyEntries > 0 && len(entries) > p.config.MaxFrequencyEntries {
		entries = entries[:p.config.MaxFrequencyEntries]
	}
	cs.Frequencies = entries
	return cs
}

// booleanStats counts true/false proportions.
func (p *Profiler) booleanStats(col *table.Column) *profile.BooleanStats {
	bs := &profile.BooleanStats{}
	values := col.BooleanValues()
	for _, v := range values {
		if v {
			bs.TrueCount++
		} else {
			bs.FalseCount++
		}
	}
	if len(values) > 0 {
		bs.TrueProportion = float64(bs.TrueCount) / float64(len(values))
	}
	return bs
}

// datetimeStats infers the typical spacing between sorted unique
// timestamps (mode of consecutive deltas) and the covered range.
func (p *Profiler) datetimeStats(times []time.Time) *profile.DatetimeStats {
	ds := &profile.DatetimeStats{Interval: "irregular"}
	if len(times) == 0 {
		return ds
	}

	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
	unique := times[:1]
	for _, t := range times[1:] {
		if !t.Equal(unique[len(unique)-1]) {
			unique = append(unique, t)
		}
	}

	ds.Start = core.NewTimestamp(unique[0])
	ds.End = core.NewTimestamp(unique[len(unique)-1])
	if len(unique) < 2 {
		return ds
	}

	deltaCounts := make(map[time.Duration]int)
	for i := 1; i < len(unique); i++ {
		deltaCounts[unique[i].Sub(unique[i-1])]++
	}
	var modeDelta time.Duration
	modeCount := 0
	for delta, count := range deltaCounts {
		if count > modeCount || (count == modeCount && delta < modeDelta) {
			modeDelta = delta
			modeCount = count
		}
	}

	ds.Interval = intervalLabel(modeDelta)
	return ds
}

// intervalLabel maps a typical spacing to a human label.
func intervalLabel(d time.Duration) string {
	day := 24 * time.Hour
	switch {
	case d >= 45*time.Minute && d <= 90*time.Minute:
		return "hourly"
	case d >= 20*time.Hour && d <= 28*time.Hour:
		return "daily"
	case d >= 6*day && d <= 8*day:
		return "weekly"
	case d >= 28*day && d <= 31*day:
		return "monthly"
	case d >= 89*day && d <= 92*day:
		return "quarterly"
	case d >= 360*day && d <= 370*day:
		return "yearly"
	}
	return "irregular"
}
