package stattest

import (
	"fmt"
	"math"

	"statlens/domain/analysis"
	"statlens/domain/core"
	"statlens/domain/table"

	"gonum.org/v1/gonum/stat/distuv"
)

// computeOneSampleT tests whether the target mean differs from the
// hypothesized value. Two-tailed, exact Student's t distribution.
func computeOneSampleT(tbl *table.Table, params analysis.Params) (analysis.TestResult, error) {
	target, _ := params.Column(analysis.RoleTarget)
	values, err := numericColumn(tbl, target)
	if err != nil {
		return analysis.TestResult{}, err
	}

	n := len(values)
	if n < 2 {
		return analysis.TestResult{}, fmt.Errorf("%w: need at least 2 values, got %d", core.ErrDegenerateSample, n)
	}
	mean, variance := sampleMeanVar(values)
	if variance == 0 {
		return analysis.TestResult{}, fmt.Errorf("%w: zero variance in %q", core.ErrDegenerateSample, target)
	}

	se := math.Sqrt(variance / float64(n))
	tStat := (mean - params.HypothesisValue) / se
	df := float64(n - 1)

	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p := clampP(twoTailedP(dist.CDF(math.Abs(tStat))))
	alpha := 1 - params.ConfidenceLevel
	crit := dist.Quantile(1 - alpha/2)

	significant := isSignificant(p, params.ConfidenceLevel)
	conclusion := fmt.Sprintf("Mean of %q is not significantly different from %g (t=%.3f, p=%.4f).",
		target, params.HypothesisValue, tStat, p)
	if significant {
		conclusion = fmt.Sprintf("Mean of %q differs significantly from %g (t=%.3f, p=%.4f).",
			target, params.HypothesisValue, tStat, p)
	}

	return analysis.TestResult{
		Statistic:        tStat,
		PValue:           p,
		DegreesOfFreedom: df,
		ConfidenceLevel:  params.ConfidenceLevel,
		Interval:         &analysis.Interval{Lower: mean - crit*se, Upper: mean + crit*se},
		Significant:      significant,
		Conclusion:       conclusion,
		Metadata: map[string]float64{
			"sample_mean":      mean,
			"sample_std":       math.Sqrt(variance),
			"sample_size":      float64(n),
			"hypothesis_value": params.HypothesisValue,
		},
	}, nil
}

// computeTwoSampleT runs Welch's unequal-variance t-test on a numeric
// target split by a two-level grouping column. More or fewer than two
// observed levels is an execution failure, not a rejection: level count
// is only knowable from the data itself.
func computeTwoSampleT(tbl *table.Table, params analysis.Params) (analysis.TestResult, error) {
	target, _ := params.Column(analysis.RoleTarget)
	grouping, _ := params.Column(analysis.RoleGroup)
	groups, err := splitByGroup(tbl, target, grouping)
	if err != nil {
		return analysis.TestResult{}, err
	}
	if len(groups) != 2 {
		return analysis.TestResult{}, fmt.Errorf("%w: grouping column %q has %d levels, need exactly 2",
			core.ErrExecutionFailure, grouping, len(groups))
	}

	a, b := groups[0], groups[1]
	if len(a.Values) < 2 || len(b.Values) < 2 {
		return analysis.TestResult{}, fmt.Errorf("%w: each group needs at least 2 values (%q has %d, %q has %d)",
			core.ErrDegenerateSample, a.Label, len(a.Values), b.Label, len(b.Values))
	}

	meanA, varA := sampleMeanVar(a.Values)
	meanB, varB := sampleMeanVar(b.Values)
	if varA == 0 && varB == 0 {
		return analysis.TestResult{}, fmt.Errorf("%w: zero variance in both groups", core.ErrDegenerateSample)
	}

	nA, nB := float64(len(a.Values)), float64(len(b.Values))
	seSq := varA/nA + varB/nB
	se := math.Sqrt(seSq)
	tStat := (meanA - meanB) / se

	// Welch-Satterthwaite degrees of freedom.
	df := seSq * seSq / ((varA/nA)*(varA/nA)/(nA-1) + (varB/nB)*(varB/nB)/(nB-1))

	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p := clampP(twoTailedP(dist.CDF(math.Abs(tStat))))
	alpha := 1 - params.ConfidenceLevel
	crit := dist.Quantile(1 - alpha/2)
	diff := meanA - meanB

	significant := isSignificant(p, params.ConfidenceLevel)
	conclusion := fmt.Sprintf("No significant difference in %q between %q and %q (t=%.3f, p=%.4f).",
		target, a.Label, b.Label, tStat, p)
	if significant {
		conclusion = fmt.Sprintf("%q differs significantly between %q and %q (t=%.3f, p=%.4f).",
			target, a.Label, b.Label, tStat, p)
	}

	return analysis.TestResult{
		Statistic:        tStat,
		PValue:           p,
		DegreesOfFreedom: df,
		ConfidenceLevel:  params.ConfidenceLevel,
		Interval:         &analysis.Interval{Lower: diff - crit*se, Upper: diff + crit*se},
		Significant:      significant,
		Conclusion:       conclusion,
		Metadata: map[string]float64{
			"group_a_mean": meanA,
			"group_b_mean": meanB,
			"group_a_size": nA,
			"group_b_size": nB,
			"mean_diff":    diff,
		},
	}, nil
}

// computePairedT is a one-sample t-test on the per-row differences of two
// paired measurements, against a hypothesized mean difference of zero.
func computePairedT(tbl *table.Table, params analysis.Params) (analysis.TestResult, error) {
	first, _ := params.Column(analysis.RoleTarget)
	second, _ := params.Column(analysis.RoleSecond)
	x, y, err := pairwiseComplete(tbl, first, second)
	if err != nil {
		return analysis.TestResult{}, err
	}

	n := len(x)
	if n < 2 {
		return analysis.TestResult{}, fmt.Errorf("%w: need at least 2 complete pairs, got %d", core.ErrDegenerateSample, n)
	}

	diffs := make([]float64, n)
	for i := range x {
		diffs[i] = x[i] - y[i]
	}
	mean, variance := sampleMeanVar(diffs)
	if variance == 0 {
		return analysis.TestResult{}, fmt.Errorf("%w: all pairwise differences identical", core.ErrDegenerateSample)
	}

	se := math.Sqrt(variance / float64(n))
	tStat := mean / se
	df := float64(n - 1)

	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p := clampP(twoTailedP(dist.CDF(math.Abs(tStat))))
	alpha := 1 - params.ConfidenceLevel
	crit := dist.Quantile(1 - alpha/2)

	significant := isSignificant(p, params.ConfidenceLevel)
	conclusion := fmt.Sprintf("No significant mean difference between %q and %q (t=%.3f, p=%.4f).",
		first, second, tStat, p)
	if significant {
		conclusion = fmt.Sprintf("Mean difference between %q and %q is significant (t=%.3f, p=%.4f).",
			first, second, tStat, p)
	}

	return analysis.TestResult{
		Statistic:        tStat,
		PValue:           p,
		DegreesOfFreedom: df,
		ConfidenceLevel:  params.ConfidenceLevel,
		Interval:         &analysis.Interval{Lower: mean - crit*se, Upper: mean + crit*se},
		Significant:      significant,
		Conclusion:       conclusion,
		Metadata: map[string]float64{
			"mean_difference": mean,
			"pair_count":      float64(n),
		},
	}, nil
}
