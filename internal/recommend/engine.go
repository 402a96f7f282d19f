package recommend

import (
	"statlens/domain/profile"
	"statlens/domain/recommend"
	"statlens/internal/config"
)

// Engine composes the ordered rule list into a prioritized recommendation
// list. Given identical summary/profiles/history the output is identical
// in content and order: rules are pure, the rule order is fixed and the
// category sort is stable.
type Engine struct {
	config config.RecommendConfig
	rules  []Rule
}

// NewEngine creates an engine with the configured thresholds.
func NewEngine(cfg config.RecommendConfig) *Engine {
	e := &Engine{config: cfg}
	e.rules = []Rule{
		e.missingValuesRule,
		e.categoricalTestsRule,
		e.transformationRule,
		e.outlierRule,
		e.smallSampleRule,
		e.textColumnsRule,
	}
	return e
}

// Recommend evaluates every rule against the profiling pass, appends the
// history-driven flow items, and returns the list grouped by category
// priority. Safe to re-trigger any number of times: no side effects beyond
// the return value.
func (e *Engine) Recommend(summary profile.DatasetSummary, profiles []profile.ColumnProfile, history recommend.HistoryContext) []recommend.Item {
	items := make([]recommend.Item, 0, len(e.rules))
	for _, rule := range e.rules {
		items = append(items, rule(summary, profiles)...)
	}
	items = append(items, e.analysisFlowItems(history)...)
	sortByCategory(items)
	return items
}
