package stattest

import (
	"math"
	"sort"

	"statlens/domain/core"
	"statlens/domain/table"

	"github.com/montanaflynn/stats"
)

// Shared numeric plumbing for the test computations. Sample variance
// always uses the n-1 denominator.

func sampleMeanVar(data []float64) (mean, variance float64) {
	mean, _ = stats.Mean(data)
	variance, _ = stats.SampleVariance(data)
	return mean, variance
}

// numericColumn extracts coerced numeric values, failing on degenerate input.
func numericColumn(t *table.Table, name core.ColumnName) ([]float64, error) {
	col, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	values := col.NumericValues()
	if len(values) == 0 {
		return nil, core.ErrEmptyColumn
	}
	return values, nil
}

// pairwiseComplete aligns two columns on rows where both cells are present
// and numeric.
func pairwiseComplete(t *table.Table, a, b core.ColumnName) (x, y []float64, err error) {
	colA, err := t.Column(a)
	if err != nil {
		return nil, nil, err
	}
	colB, err := t.Column(b)
	if err != nil {
		return nil, nil, err
	}
	for i := range colA.Values {
		if i >= len(colB.Values) {
			break
		}
		va, okA := table.TryParseNumeric(colA.Values[i])
		vb, okB := table.TryParseNumeric(colB.Values[i])
		if table.IsMissing(colA.Values[i]) || table.IsMissing(colB.Values[i]) || !okA || !okB {
			continue
		}
		x = append(x, va)
		y = append(y, vb)
	}
	return x, y, nil
}

// group is one level of a grouping factor with its target values.
type group struct {
	Label  string
	Values []float64
}

// splitByGroup partitions the target column's numeric values by the
// normalized levels of the group column, levels sorted for determinism.
func splitByGroup(t *table.Table, target, grouping core.ColumnName) ([]group, error) {
	targetCol, err := t.Column(target)
	if err != nil {
		return nil, err
	}
	groupCol, err := t.Column(grouping)
	if err != nil {
		return nil, err
	}

	byLabel := make(map[string][]float64)
	for i := range targetCol.Values {
		if i >= len(groupCol.Values) {
			break
		}
		if table.IsMissing(targetCol.Values[i]) || table.IsMissing(groupCol.Values[i]) {
			continue
		}
		v, ok := table.TryParseNumeric(targetCol.Values[i])
		if !ok {
			continue
		}
		label := table.NormalizeToken(groupCol.Values[i])
		byLabel[label] = append(byLabel[label], v)
	}

	labels := make([]string, 0, len(byLabel))
	for label := range byLabel {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	groups := make([]group, len(labels))
	for i, label := range labels {
		groups[i] = group{Label: label, Values: byLabel[label]}
	}
	return groups, nil
}

// twoTailedP converts a CDF value at |stat| into a two-tailed p-value.
func twoTailedP(cdfAtAbs float64) float64 {
	return clampP(2 * (1 - cdfAtAbs))
}

// isSignificant applies the computed threshold: p < 1 - confidence.
func isSignificant(pValue, confidenceLevel float64) bool {
	return pValue < 1-confidenceLevel
}

func clampP(p float64) float64 {
	switch {
	case math.IsNaN(p), p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}
