package stattest

import (
	"fmt"

	"statlens/domain/analysis"
	"statlens/domain/core"
	"statlens/domain/table"

	"gonum.org/v1/gonum/stat/distuv"
)

// computeOneWayANOVA partitions the target by group levels and tests
// equality of all group means with the F statistic.
func computeOneWayANOVA(tbl *table.Table, params analysis.Params) (analysis.TestResult, error) {
	target, _ := params.Column(analysis.RoleTarget)
	grouping, _ := params.Column(analysis.RoleGroup)
	groups, err := splitByGroup(tbl, target, grouping)
	if err != nil {
		return analysis.TestResult{}, err
	}
	if len(groups) < 2 {
		return analysis.TestResult{}, fmt.Errorf("%w: grouping column %q has %d levels, need at least 2",
			core.ErrExecutionFailure, grouping, len(groups))
	}

	total := 0
	grandSum := 0.0
	for _, g := range groups {
		if len(g.Values) < 2 {
			return analysis.TestResult{}, fmt.Errorf("%w: group %q has %d values, need at least 2",
				core.ErrDegenerateSample, g.Label, len(g.Values))
		}
		total += len(g.Values)
		for _, v := range g.Values {
			grandSum += v
		}
	}
	grandMean := grandSum / float64(total)

	var ssBetween, ssWithin float64
	for _, g := range groups {
		mean, _ := sampleMeanVar(g.Values)
		ssBetween += float64(len(g.Values)) * (mean - grandMean) * (mean - grandMean)
		for _, v := range g.Values {
			ssWithin += (v - mean) * (v - mean)
		}
	}

	dfBetween := float64(len(groups) - 1)
	dfWithin := float64(total - len(groups))
	if ssWithin == 0 {
		return analysis.TestResult{}, fmt.Errorf("%w: no within-group variance", core.ErrDegenerateSample)
	}

	fStat := (ssBetween / dfBetween) / (ssWithin / dfWithin)
	dist := distuv.F{D1: dfBetween, D2: dfWithin}
	p := clampP(1 - dist.CDF(fStat))

	// Effect size: share of variance explained by group membership.
	etaSquared := ssBetween / (ssBetween + ssWithin)

	significant := isSignificant(p, params.ConfidenceLevel)
	conclusion := fmt.Sprintf("No significant difference in %q across the %d levels of %q (F=%.3f, p=%.4f).",
		target, len(groups), grouping, fStat, p)
	if significant {
		conclusion = fmt.Sprintf("At least one level of %q has a different mean %q (F=%.3f, p=%.4f).",
			grouping, target, fStat, p)
	}

	metadata := map[string]float64{
		"group_count": float64(len(groups)),
		"total_n":     float64(total),
		"ss_between":  ssBetween,
		"ss_within":   ssWithin,
		"eta_squared": etaSquared,
	}
	for _, g := range groups {
		mean, _ := sampleMeanVar(g.Values)
		metadata["mean_"+g.Label] = mean
	}

	return analysis.TestResult{
		Statistic:        fStat,
		PValue:           p,
		DegreesOfFreedom: dfBetween,
		ConfidenceLevel:  params.ConfidenceLevel,
		Significant:      significant,
		Conclusion:       conclusion,
		Metadata:         metadata,
	}, nil
}
