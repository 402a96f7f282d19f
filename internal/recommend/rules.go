package recommend

import (
	"fmt"
	"sort"
	"strings"

	"statlens/domain/core"
	"statlens/domain/profile"
	"statlens/domain/recommend"
	"statlens/domain/table"
)

// Rule is one independent pure condition over the profiling pass. Rules
// return nil when they have nothing to say; they never mutate their inputs.
type Rule func(summary profile.DatasetSummary, profiles []profile.ColumnProfile) []recommend.Item

// missingValuesRule emits one card when the dataset has missing values,
// escalated to critical when any single column crosses the severity
// threshold.
func (e *Engine) missingValuesRule(summary profile.DatasetSummary, profiles []profile.ColumnProfile) []recommend.Item {
	if summary.MissingTotal == 0 {
		return nil
	}

	details := &recommend.MissingDetails{
		MissingTotal: summary.MissingTotal,
		Remedies: []string{
			"mean/median imputation",
			"complete-case analysis",
			"multiple imputation",
		},
	}
	category := recommend.CategoryDataQuality
	var affected []core.ColumnName
	worst := 0.0
	for i := range profiles {
		p := &profiles[i]
		if p.MissingCount == 0 {
			continue
		}
		affected = append(affected, p.Name)
		details.PerColumn = append(details.PerColumn, recommend.ColumnMissingInfo{
			Column:   p.Name,
			Count:    p.MissingCount,
			Fraction: p.MissingFraction,
		})
		if p.MissingFraction > worst {
			worst = p.MissingFraction
		}
		if p.MissingFraction > e.config.MissingSevereFraction {
			category = recommend.CategoryCritical
		}
	}

	message := fmt.Sprintf("%d missing values across %d columns. Consider imputation or complete-case analysis before testing.",
		summary.MissingTotal, len(affected))
	title := "Missing values detected"
	if category == recommend.CategoryCritical {
		title = "Severe missingness"
		message = fmt.Sprintf("At least one column is missing %.0f%% of its values (threshold %.0f%%). Resolve missingness before any statistical test.",
			worst*100, e.config.MissingSevereFraction*100)
	}

	return []recommend.Item{{
		Category:        category,
		Title:           title,
		Message:         message,
		PriorityRank:    category.Rank(),
		AffectedColumns: affected,
		Missing:         details,
	}}
}

// categoricalTestsRule suggests group-comparison tests when categorical or
// boolean columns exist.
func (e *Engine) categoricalTestsRule(summary profile.DatasetSummary, profiles []profile.ColumnProfile) []recommend.Item {
	catCount := summary.TypeCounts[table.TypeCategorical]
	boolCount := summary.TypeCounts[table.TypeBoolean]
	if catCount+boolCount == 0 {
		return nil
	}

	var affected []core.ColumnName
	for i := range profiles {
		t := profiles[i].SemanticType
		if (t == table.TypeCategorical || t == table.TypeBoolean) && !profiles[i].Unusable {
			affected = append(affected, profiles[i].Name)
		}
	}
	if len(affected) == 0 {
		return nil
	}

	return []recommend.Item{{
		Category:     recommend.CategorySuggested,
		Title:        "Group comparison tests available",
		Message:      fmt.Sprintf("%d categorical/boolean columns can serve as grouping factors for ANOVA, chi-square tests and contingency tables.", len(affected)),
		PriorityRank: recommend.CategorySuggested.Rank(),
		AffectedColumns: affected,
		SuggestedTests:  []string{"one_way_anova", "chi_square_independence", "two_sample_t"},
		Categorical: &recommend.CategoricalDetails{
			CategoricalCount: catCount,
			BooleanCount:     boolCount,
		},
	}}
}

// transformationBuckets fixes the card order of the transformation rule.
var transformationBuckets = []struct {
	bucket         profile.SkewBucket
	transformation profile.TransformationSuggestion
	title          string
}{
	{profile.BucketStrongPositive, profile.TransformLog, "Strong positive skew"},
	{profile.BucketStrongNegative, profile.TransformSquare, "Strong negative skew"},
	{profile.BucketModeratePositive, profile.TransformSquareRoot, "Moderate positive skew"},
	{profile.BucketModerateNegative, profile.TransformSquare, "Moderate negative skew"},
	{profile.BucketHeavyTails, profile.TransformBoxCox, "Heavy-tailed distribution"},
}

// transformationRule emits one card per shape bucket. Buckets are mutually
// exclusive per column: a skew-flagged column never appears on the
// heavy-tails card.
func (e *Engine) transformationRule(summary profile.DatasetSummary, profiles []profile.ColumnProfile) []recommend.Item {
	byBucket := make(map[profile.SkewBucket][]recommend.ColumnShapeInfo)
	for i := range profiles {
		ns := profiles[i].Numeric
		if ns == nil {
			continue
		}
		bucket := ns.SkewnessBucket()
		if bucket == profile.BucketNone {
			continue
		}
		byBucket[bucket] = append(byBucket[bucket], recommend.ColumnShapeInfo{
			Column:   profiles[i].Name,
			Skewness: ns.Skewness,
			Kurtosis: ns.Kurtosis,
		})
	}

	var items []recommend.Item
	for _, b := range transformationBuckets {
		columns := byBucket[b.bucket]
		if len(columns) == 0 {
			continue
		}
		affected := make([]core.ColumnName, len(columns))
		evidence := make([]string, len(columns))
		for i, c := range columns {
			affected[i] = c.Column
			evidence[i] = fmt.Sprintf("%s (skew %.2f, kurtosis %.2f)", c.Column, c.Skewness, c.Kurtosis)
		}
		items = append(items, recommend.Item{
			Category:        recommend.CategorySuggested,
			Title:           b.title,
			Message:         fmt.Sprintf("%s recommended for: %s", b.transformation, strings.Join(evidence, ", ")),
			PriorityRank:    recommend.CategorySuggested.Rank(),
			AffectedColumns: affected,
			Transformation: &recommend.TransformationDetails{
				Bucket:         b.bucket,
				Transformation: b.transformation,
				Columns:        columns,
			},
		})
	}
	return items
}

// outlierRule flags columns whose IQR-rule outlier share is above the
// configured threshold.
func (e *Engine) outlierRule(summary profile.DatasetSummary, profiles []profile.ColumnProfile) []recommend.Item {
	var columns []recommend.ColumnOutlierInfo
	for i := range profiles {
		p := &profiles[i]
		ns := p.Numeric
		if ns == nil || ns.OutlierCount == 0 {
			continue
		}
		nonMissing := p.RowCount - p.MissingCount
		if nonMissing == 0 {
			continue
		}
		share := float64(ns.OutlierCount) / float64(nonMissing)
		if share > e.config.OutlierShare {
			columns = append(columns, recommend.ColumnOutlierInfo{
				Column:       p.Name,
				OutlierCount: ns.OutlierCount,
				Share:        share,
			})
		}
	}
	if len(columns) == 0 {
		return nil
	}

	affected := make([]core.ColumnName, len(columns))
	for i, c := range columns {
		affected[i] = c.Column
	}
	return []recommend.Item{{
		Category:        recommend.CategoryHighPriority,
		Title:           "Outlier-heavy columns",
		Message:         fmt.Sprintf("%d columns have more than %.0f%% IQR-rule outliers. Review values or prefer robust/nonparametric methods.", len(columns), e.config.OutlierShare*100),
		PriorityRank:    recommend.CategoryHighPriority.Rank(),
		AffectedColumns: affected,
		Outliers:        &recommend.OutlierDetails{Columns: columns},
	}}
}

// smallSampleRule cautions against parametric tests on tiny datasets.
func (e *Engine) smallSampleRule(summary profile.DatasetSummary, profiles []profile.ColumnProfile) []recommend.Item {
	if summary.RowCount == 0 || summary.RowCount >= e.config.SmallSampleN {
		return nil
	}
	return []recommend.Item{{
		Category:     recommend.CategoryMethodological,
		Title:        "Small sample size",
		Message:      fmt.Sprintf("Only %d rows. Parametric test assumptions are hard to verify below n=%d; interpret p-values with caution.", summary.RowCount, e.config.SmallSampleN),
		PriorityRank: recommend.CategoryMethodological.Rank(),
	}}
}

// textColumnsRule notes columns no test can consume.
func (e *Engine) textColumnsRule(summary profile.DatasetSummary, profiles []profile.ColumnProfile) []recommend.Item {
	var affected []core.ColumnName
	for i := range profiles {
		if profiles[i].SemanticType == table.TypeText || (profiles[i].Unusable && profiles[i].MissingCount == profiles[i].RowCount) {
			affected = append(affected, profiles[i].Name)
		}
	}
	if len(affected) == 0 {
		return nil
	}
	return []recommend.Item{{
		Category:        recommend.CategoryMethodological,
		Title:           "Columns unusable for testing",
		Message:         fmt.Sprintf("%d columns are free text or entirely missing and cannot feed any statistical test.", len(affected)),
		PriorityRank:    recommend.CategoryMethodological.Rank(),
		AffectedColumns: affected,
	}}
}

// complementaryTests maps a completed test to a natural follow-up.
var complementaryTests = map[string]string{
	"one_sample_t":            "two_sample_t",
	"two_sample_t":            "one_way_anova",
	"paired_t":                "pearson_correlation",
	"one_way_anova":           "chi_square_independence",
	"chi_square_independence": "pearson_correlation",
	"pearson_correlation":     "two_sample_t",
}

// analysisFlowItems derives history-driven cards. These are independent of
// the data-based rules and always appended after them. The completion
// timestamp inside the message is the only wall-clock-derived content in
// any recommendation.
func (e *Engine) analysisFlowItems(history recommend.HistoryContext) []recommend.Item {
	var items []recommend.Item

	if last := history.LastCompleted; last != nil {
		next := complementaryTests[last.TestID]
		message := fmt.Sprintf("You completed %s at %s.", last.TestName, last.CompletedAt)
		var tests []string
		if next != "" {
			message += fmt.Sprintf(" A complementary next step is %s.", next)
			tests = []string{next}
		}
		items = append(items, recommend.Item{
			Category:       recommend.CategoryMethodological,
			Title:          "Build on your previous analysis",
			Message:        message,
			PriorityRank:   recommend.CategoryMethodological.Rank(),
			SuggestedTests: tests,
			AnalysisFlow: &recommend.AnalysisFlowDetails{
				LastTestID:   last.TestID,
				LastTestName: last.TestName,
				CompletedAt:  last.CompletedAt,
			},
		})
	}

	if history.SelectedTest != "" {
		items = append(items, recommend.Item{
			Category:     recommend.CategoryMethodological,
			Title:        "Next steps",
			Message:      fmt.Sprintf("%s is selected. Check its eligibility panel, set the confidence level, then run it to record the result.", history.SelectedTest),
			PriorityRank: recommend.CategoryMethodological.Rank(),
			AnalysisFlow: &recommend.AnalysisFlowDetails{SelectedTest: history.SelectedTest},
		})
	}

	return items
}

// sortByCategory orders items by category rank, preserving rule-evaluation
// order within a category.
func sortByCategory(items []recommend.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].PriorityRank < items[j].PriorityRank
	})
}
