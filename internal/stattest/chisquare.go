package stattest

import (
	"fmt"
	"math"
	"sort"

	"statlens/domain/analysis"
	"statlens/domain/core"
	"statlens/domain/table"

	"gonum.org/v1/gonum/stat/distuv"
)

// computeChiSquare builds a contingency table over the normalized levels
// of two categorical columns and tests independence.
func computeChiSquare(tbl *table.Table, params analysis.Params) (analysis.TestResult, error) {
	first, _ := params.Column(analysis.RoleTarget)
	second, _ := params.Column(analysis.RoleSecond)

	colA, err := tbl.Column(first)
	if err != nil {
		return analysis.TestResult{}, err
	}
	colB, err := tbl.Column(second)
	if err != nil {
		return analysis.TestResult{}, err
	}

	counts := make(map[string]map[string]float64)
	total := 0.0
	for i := range colA.Values {
		if i >= len(colB.Values) {
			break
		}
		if table.IsMissing(colA.Values[i]) || table.IsMissing(colB.Values[i]) {
			continue
		}
		a := table.NormalizeToken(colA.Values[i])
		b := table.NormalizeToken(colB.Values[i])
		if counts[a] == nil {
			counts[a] = make(map[string]float64)
		}
		counts[a][b]++
		total++
	}

	rows := sortedKeys(counts)
	colSet := make(map[string]bool)
	for _, r := range rows {
		for c := range counts[r] {
			colSet[c] = true
		}
	}
	cols := make([]string, 0, len(colSet))
	for c := range colSet {
		cols = append(cols, c)
	}
	sort.Strings(cols)

	if len(rows) < 2 || len(cols) < 2 {
		return analysis.TestResult{}, fmt.Errorf("%w: contingency table is %dx%d, need at least 2x2",
			core.ErrDegenerateSample, len(rows), len(cols))
	}

	rowTotals := make(map[string]float64)
	colTotals := make(map[string]float64)
	for _, r := range rows {
		for _, c := range cols {
			rowTotals[r] += counts[r][c]
			colTotals[c] += counts[r][c]
		}
	}

	chi2 := 0.0
	for _, r := range rows {
		for _, c := range cols {
			expected := rowTotals[r] * colTotals[c] / total
			if expected == 0 {
				continue
			}
			observed := counts[r][c]
			chi2 += (observed - expected) * (observed - expected) / expected
		}
	}

	df := float64((len(rows) - 1) * (len(cols) - 1))
	dist := distuv.ChiSquared{K: df}
	p := clampP(1 - dist.CDF(chi2))

	// Cramer's V effect size.
	minDim := float64(len(rows) - 1)
	if float64(len(cols)-1) < minDim {
		minDim = float64(len(cols) - 1)
	}
	cramersV := math.Sqrt(chi2 / (total * minDim))

	significant := isSignificant(p, params.ConfidenceLevel)
	conclusion := fmt.Sprintf("No significant association between %q and %q (chi2=%.3f, p=%.4f).",
		first, second, chi2, p)
	if significant {
		conclusion = fmt.Sprintf("%q and %q are significantly associated (chi2=%.3f, p=%.4f, Cramer's V=%.3f).",
			first, second, chi2, p, cramersV)
	}

	return analysis.TestResult{
		Statistic:        chi2,
		PValue:           p,
		DegreesOfFreedom: df,
		ConfidenceLevel:  params.ConfidenceLevel,
		Significant:      significant,
		Conclusion:       conclusion,
		Metadata: map[string]float64{
			"row_levels":    float64(len(rows)),
			"column_levels": float64(len(cols)),
			"observations":  total,
			"cramers_v":     cramersV,
		},
	}, nil
}

func sortedKeys(m map[string]map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
