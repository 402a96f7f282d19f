package tabular

import (
	"fmt"
	"math"

	"statlens/domain/core"
	"statlens/domain/table"
	"statlens/internal/config"
)

// Classifier assigns each column exactly one semantic type from its raw
// values. Classification is deterministic: heuristic ties (numeric-looking
// codes vs categories) resolve by cardinality cutoff, never by value range.
type Classifier struct {
	config config.ClassifierConfig
}

// NewClassifier creates a classifier with the given thresholds.
func NewClassifier(cfg config.ClassifierConfig) *Classifier {
	return &Classifier{config: cfg}
}

// Classification is the outcome for one column.
type Classification struct {
	Type table.SemanticType
	// Unusable marks columns no statistical test can consume
	// (all-missing, free text).
	Unusable bool
	// Note records a resolved heuristic ambiguity. Informational only.
	Note string
}

// ClassifyTable classifies every column of a table in table order.
func (c *Classifier) ClassifyTable(t *table.Table) map[core.ColumnName]Classification {
	out := make(map[core.ColumnName]Classification, len(t.Columns))
	for i := range t.Columns {
		out[t.Columns[i].Name] = c.Classify(&t.Columns[i])
	}
	return out
}

// Classify assigns a single column its semantic type.
// Probe order: datetime, boolean, numeric (discrete vs fractional),
// categorical by cardinality cutoff, text.
func (c *Classifier) Classify(col *table.Column) Classification {
	values := col.NonMissing()
	if len(values) == 0 {
		// All-missing columns fall back to categorical and are flagged so
		// downstream never selects them for a test.
		return Classification{
			Type:     table.TypeCategorical,
			Unusable: true,
			Note:     "column has no non-missing values; fallback classification",
		}
	}

	if c.looksDatetime(values) {
		return Classification{Type: table.TypeDatetime}
	}

	distinct := distinctNormalized(values)
	if len(distinct) <= 2 && allBooleanTokens(values) {
		return Classification{Type: table.TypeBoolean}
	}

	if numericType, ok := c.probeNumeric(values); ok {
		note := ""
		if numericType == table.TypeDiscrete && c.withinCardinalityCutoff(len(distinct), len(col.Values)) {
			// Integer codes below the categorical cutoff are a genuine
			// tie; the numeric probe wins by documented heuristic.
			note = fmt.Sprintf("%v: %d integer codes kept as %s", core.ErrClassificationAmbiguous, len(distinct), numericType)
		}
		return Classification{Type: numericType, Note: note}
	}

	if c.withinCardinalityCutoff(len(distinct), len(col.Values)) {
		return Classification{Type: table.TypeCategorical}
	}

	return Classification{Type: table.TypeText, Unusable: true}
}

// looksDatetime probes a sample of values for timestamp parseability.
func (c *Classifier) looksDatetime(values []string) bool {
	sample := values
	if c.config.SampleSize > 0 && len(sample) > c.config.SampleSize {
		sample = sample[:c.config.SampleSize]
	}
	parsed := 0
	for _, v := range sample {
		if _, ok := table.TryParseTime(v); ok {
			parsed++
		}
	}
	return float64(parsed)/float64(len(sample)) >= c.config.DatetimeThreshold
}

// probeNumeric coerces all non-missing values and distinguishes
// integer-valued (discrete) from fractional (numeric) columns.
func (c *Classifier) probeNumeric(values []string) (table.SemanticType, bool) {
	parsed := 0
	allIntegral := true
	for _, v := range values {
		num, ok := table.TryParseNumeric(v)
		if !ok {
			continue
		}
		parsed++
		if num != math.Trunc(num) {
			allIntegral = false
		}
	}
	if float64(parsed)/float64(len(values)) < c.config.NumericThreshold {
		return "", false
	}
	if allIntegral {
		return table.TypeDiscrete, true
	}
	return table.TypeNumeric, true
}

func (c *Classifier) withinCardinalityCutoff(distinct, rows int) bool {
	if rows == 0 {
		return false
	}
	if c.config.MaxCategories > 0 && distinct > c.config.MaxCategories {
		return false
	}
	return float64(distinct)/float64(rows) <= c.config.CardinalityRatio
}

func distinctNormalized(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[table.NormalizeToken(v)] = struct{}{}
	}
	return set
}

func allBooleanTokens(values []string) bool {
	for _, v := range values {
		if !table.IsBooleanToken(v) {
			return false
		}
	}
	return true
}
