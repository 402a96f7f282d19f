package recommend

import (
	"statlens/domain/core"
	"statlens/domain/profile"
)

// Category groups recommendation items by urgency. Lower rank sorts first.
type Category string

const (
	CategoryCritical       Category = "critical"
	CategoryHighPriority   Category = "high_priority"
	CategorySuggested      Category = "suggested"
	CategoryDataQuality    Category = "data_quality"
	CategoryMethodological Category = "methodological"
)

// Rank returns the fixed priority rank of the category (1 = most urgent).
func (c Category) Rank() int {
	switch c {
	case CategoryCritical:
		return 1
	case CategoryHighPriority:
		return 2
	case CategorySuggested:
		return 3
	case CategoryDataQuality:
		return 4
	case CategoryMethodological:
		return 5
	}
	return 6
}

// Item is one recommendation card. Items are ephemeral: regenerated on
// every profiling pass and never persisted.
type Item struct {
	Category        Category          `json:"category"`
	Title           string            `json:"title"`
	Message         string            `json:"message"`
	PriorityRank    int               `json:"priority_rank"`
	AffectedColumns []core.ColumnName `json:"affected_columns,omitempty"`
	SuggestedTests  []string          `json:"suggested_tests,omitempty"`

	// Exactly one detail payload is set, matching the producing rule.
	Missing        *MissingDetails        `json:"missing_details,omitempty"`
	Transformation *TransformationDetails `json:"transformation_details,omitempty"`
	Categorical    *CategoricalDetails    `json:"categorical_details,omitempty"`
	Outliers       *OutlierDetails        `json:"outlier_details,omitempty"`
	AnalysisFlow   *AnalysisFlowDetails   `json:"analysis_flow_details,omitempty"`
}

// MissingDetails backs data-quality and critical missing-value cards.
type MissingDetails struct {
	MissingTotal int                 `json:"missing_total"`
	PerColumn    []ColumnMissingInfo `json:"per_column"`
	Remedies     []string            `json:"remedies"`
}

// ColumnMissingInfo is the per-column payload of a missing-value card.
type ColumnMissingInfo struct {
	Column   core.ColumnName `json:"column"`
	Count    int             `json:"count"`
	Fraction float64         `json:"fraction"`
}

// TransformationDetails backs one distribution-shape card.
type TransformationDetails struct {
	Bucket         profile.SkewBucket               `json:"bucket"`
	Transformation profile.TransformationSuggestion `json:"transformation"`
	Columns        []ColumnShapeInfo                `json:"columns"`
}

// ColumnShapeInfo carries the skew/kurtosis evidence for one column.
type ColumnShapeInfo struct {
	Column   core.ColumnName `json:"column"`
	Skewness float64         `json:"skewness"`
	Kurtosis float64         `json:"kurtosis"`
}

// CategoricalDetails backs the categorical-tests card.
type CategoricalDetails struct {
	CategoricalCount int `json:"categorical_count"`
	BooleanCount     int `json:"boolean_count"`
}

// OutlierDetails backs the outlier-review card.
type OutlierDetails struct {
	Columns []ColumnOutlierInfo `json:"columns"`
}

// ColumnOutlierInfo carries per-column outlier evidence.
type ColumnOutlierInfo struct {
	Column       core.ColumnName `json:"column"`
	OutlierCount int             `json:"outlier_count"`
	Share        float64         `json:"share"`
}

// AnalysisFlowDetails backs history-driven flow cards.
type AnalysisFlowDetails struct {
	LastTestID   string         `json:"last_test_id,omitempty"`
	LastTestName string         `json:"last_test_name,omitempty"`
	CompletedAt  core.Timestamp `json:"completed_at,omitempty"`
	SelectedTest string         `json:"selected_test,omitempty"`
}

// HistoryContext feeds the analysis-flow rules. Both fields are optional.
type HistoryContext struct {
	// LastCompleted is the most recent persisted analysis record, if any.
	LastCompleted *CompletedAnalysis
	// SelectedTest is the id of a test the caller currently has in
	// progress, if any.
	SelectedTest string
}

// CompletedAnalysis is the slice of an analysis record the flow rules need.
type CompletedAnalysis struct {
	TestID      string
	TestName    string
	CompletedAt core.Timestamp
}
