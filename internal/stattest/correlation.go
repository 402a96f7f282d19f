package stattest

import (
	"fmt"
	"math"

	"statlens/domain/analysis"
	"statlens/domain/core"
	"statlens/domain/table"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// computePearson tests the linear association of two numeric columns on
// their pairwise-complete rows. The confidence interval for r uses the
// Fisher z transform.
func computePearson(tbl *table.Table, params analysis.Params) (analysis.TestResult, error) {
	first, _ := params.Column(analysis.RoleTarget)
	second, _ := params.Column(analysis.RoleSecond)
	x, y, err := pairwiseComplete(tbl, first, second)
	if err != nil {
		return analysis.TestResult{}, err
	}

	n := len(x)
	if n < 3 {
		return analysis.TestResult{}, fmt.Errorf("%w: need at least 3 complete pairs, got %d", core.ErrDegenerateSample, n)
	}
	if constant(x) || constant(y) {
		return analysis.TestResult{}, fmt.Errorf("%w: correlation undefined for a constant column", core.ErrDegenerateSample)
	}

	r := stat.Correlation(x, y, nil)
	df := float64(n - 2)

	// t statistic for H0: rho = 0.
	denom := 1 - r*r
	var tStat, p float64
	if denom <= 0 {
		tStat = math.Inf(int(math.Copysign(1, r)))
		p = 0
	} else {
		tStat = r * math.Sqrt(df/denom)
		dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
		p = clampP(twoTailedP(dist.CDF(math.Abs(tStat))))
	}

	// Fisher z interval for r.
	var interval *analysis.Interval
	if n > 3 && math.Abs(r) < 1 {
		z := 0.5 * math.Log((1+r)/(1-r))
		se := 1 / math.Sqrt(float64(n-3))
		alpha := 1 - params.ConfidenceLevel
		crit := distuv.UnitNormal.Quantile(1 - alpha/2)
		interval = &analysis.Interval{
			Lower: math.Tanh(z - crit*se),
			Upper: math.Tanh(z + crit*se),
		}
	}

	significant := isSignificant(p, params.ConfidenceLevel)
	strength := describeCorrelation(r)
	conclusion := fmt.Sprintf("No significant linear association between %q and %q (r=%.3f, p=%.4f).",
		first, second, r, p)
	if significant {
		conclusion = fmt.Sprintf("Significant %s correlation between %q and %q (r=%.3f, p=%.4f).",
			strength, first, second, r, p)
	}

	return analysis.TestResult{
		Statistic:        tStat,
		PValue:           p,
		DegreesOfFreedom: df,
		ConfidenceLevel:  params.ConfidenceLevel,
		Interval:         interval,
		Significant:      significant,
		Conclusion:       conclusion,
		Metadata: map[string]float64{
			"correlation": r,
			"pair_count":  float64(n),
			"r_squared":   r * r,
		},
	}, nil
}

func constant(data []float64) bool {
	for _, v := range data[1:] {
		if v != data[0] {
			return false
		}
	}
	return true
}

func describeCorrelation(r float64) string {
	abs := math.Abs(r)
	direction := "positive"
	if r < 0 {
		direction = "negative"
	}
	switch {
	case abs >= 0.7:
		return "strong " + direction
	case abs >= 0.4:
		return "moderate " + direction
	default:
		return "weak " + direction
	}
}
