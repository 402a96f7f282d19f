package profiling

import (
	"statlens/domain/profile"
	"statlens/domain/table"
)

// Per-cell footprint estimates by semantic type. Variable-width types use
// the observed mean value length instead.
const (
	numericCellBytes = 8
	booleanCellBytes = 1
)

// Summarize aggregates column profiles into the dataset-level summary.
// It always recomputes from scratch: columns may have been added or
// removed between passes, so there is no incremental path.
func Summarize(t *table.Table, profiles []profile.ColumnProfile) profile.DatasetSummary {
	summary := profile.DatasetSummary{
		RowCount:    t.RowCount(),
		ColumnCount: len(profiles),
		TypeCounts:  make(map[table.SemanticType]int),
	}

	for i := range profiles {
		p := &profiles[i]
		summary.MissingTotal += p.MissingCount
		summary.TypeCounts[p.SemanticType]++
		summary.MemoryEstimate += columnFootprint(t, p)
	}

	return summary
}

// columnFootprint estimates the in-memory size of one column.
func columnFootprint(t *table.Table, p *profile.ColumnProfile) int64 {
	rows := int64(p.RowCount)
	switch p.SemanticType {
	case table.TypeNumeric, table.TypeDiscrete, table.TypeDatetime:
		return rows * numericCellBytes
	case table.TypeBoolean:
		return rows * booleanCellBytes
	}

	col, err := t.Column(p.Name)
	if err != nil {
		return rows * numericCellBytes
	}
	var total int64
	for _, v := range col.Values {
		total += int64(len(v))
	}
	return total
}
