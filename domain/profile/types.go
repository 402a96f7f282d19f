package profile

import (
	"math"

	"statlens/domain/core"
	"statlens/domain/table"
)

// ColumnProfile is the per-column statistical signature produced by one
// profiling pass. Profiles are immutable: a dataset mutation recomputes
// them wholesale, never patches them.
type ColumnProfile struct {
	Name            core.ColumnName    `json:"name"`
	SemanticType    table.SemanticType `json:"semantic_type"`
	RowCount        int                `json:"row_count"`
	MissingCount    int                `json:"missing_count"`
	MissingFraction float64            `json:"missing_fraction"`

	// Exactly one of the following sections is set, matching SemanticType.
	Numeric     *NumericStats     `json:"numeric,omitempty"`
	Categorical *CategoricalStats `json:"categorical,omitempty"`
	Boolean     *BooleanStats     `json:"boolean,omitempty"`
	Datetime    *DatetimeStats    `json:"datetime,omitempty"`

	// Unusable marks columns that cannot feed any statistical test
	// (all-missing columns, free text).
	Unusable bool `json:"unusable,omitempty"`

	// ProfileError carries an isolated per-column profiling failure.
	// The profile is still structurally complete when it is set.
	ProfileError string `json:"profile_error,omitempty"`
}

// NumericStats covers numeric and discrete columns. Undefined statistics
// (fewer than 2 non-missing values) are NaN, not errors.
type NumericStats struct {
	Mean     float64 `json:"mean"`
	StdDev   float64 `json:"std_dev"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Median   float64 `json:"median"`
	Q25      float64 `json:"q25"`
	Q75      float64 `json:"q75"`
	Skewness float64 `json:"skewness"`
	// Kurtosis is excess kurtosis: fourth standardized moment minus 3.
	Kurtosis     float64 `json:"kurtosis"`
	OutlierCount int     `json:"outlier_count"`

	// Transformation holds the single suggested transformation for the
	// column, empty when the distribution needs none.
	Transformation TransformationSuggestion `json:"transformation,omitempty"`
}

// TransformationSuggestion is one of the fixed transformation labels.
type TransformationSuggestion string

const (
	TransformNone       TransformationSuggestion = ""
	TransformLog        TransformationSuggestion = "Log transformation"
	TransformSquare     TransformationSuggestion = "Square transformation"
	TransformSquareRoot TransformationSuggestion = "Square root transformation"
	TransformBoxCox     TransformationSuggestion = "Box-Cox transformation"
)

// SkewBucket names the distribution-shape bucket behind a suggestion.
type SkewBucket string

const (
	BucketNone             SkewBucket = ""
	BucketStrongPositive   SkewBucket = "strong_positive_skew"
	BucketStrongNegative   SkewBucket = "strong_negative_skew"
	BucketModeratePositive SkewBucket = "moderate_positive_skew"
	BucketModerateNegative SkewBucket = "moderate_negative_skew"
	BucketHeavyTails       SkewBucket = "heavy_tails_only"
)

// FrequencyEntry is one value of a categorical frequency table.
type FrequencyEntry struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// CategoricalStats covers categorical and text columns.
type CategoricalStats struct {
	UniqueCount  int             `json:"unique_count"`
	MostFrequent *FrequencyEntry `json:"most_frequent,omitempty"`
	// Frequencies is sorted by descending count, ties broken by value,
	// so the table is deterministic across passes.
	Frequencies []FrequencyEntry `json:"frequencies"`
}

// BooleanStats covers boolean columns.
type BooleanStats struct {
	TrueCount      int     `json:"true_count"`
	FalseCount     int     `json:"false_count"`
	TrueProportion float64 `json:"true_proportion"`
}

// DatetimeStats covers datetime columns.
type DatetimeStats struct {
	Start core.Timestamp `json:"start"`
	End   core.Timestamp `json:"end"`
	// Interval is the inferred typical spacing between consecutive unique
	// timestamps: hourly, daily, weekly, monthly, quarterly, yearly or
	// irregular.
	Interval string `json:"interval"`
}

// SkewnessBucket returns the shape bucket the column falls in, applying
// the skew rules before the kurtosis-only rule so each column lands in at
// most one bucket.
func (n *NumericStats) SkewnessBucket() SkewBucket {
	if n == nil || math.IsNaN(n.Skewness) {
		return BucketNone
	}
	switch {
	case n.Skewness > 1:
		return BucketStrongPositive
	case n.Skewness < -1:
		return BucketStrongNegative
	case n.Skewness > 0.5:
		return BucketModeratePositive
	case n.Skewness < -0.5:
		return BucketModerateNegative
	case !math.IsNaN(n.Kurtosis) && n.Kurtosis > 3.5:
		return BucketHeavyTails
	}
	return BucketNone
}

// DatasetSummary aggregates all column profiles of one pass.
// Invariant: TypeCounts sums to ColumnCount.
type DatasetSummary struct {
	RowCount       int                        `json:"row_count"`
	ColumnCount    int                        `json:"column_count"`
	MemoryEstimate int64                      `json:"memory_estimate_bytes"`
	MissingTotal   int                        `json:"missing_total"`
	TypeCounts     map[table.SemanticType]int `json:"type_counts"`
}
