package table

import (
	"fmt"
	"strings"

	"statlens/domain/core"
)

// SemanticType is the inferred statistical role of a column.
type SemanticType string

const (
	TypeNumeric     SemanticType = "numeric"
	TypeDiscrete    SemanticType = "discrete"
	TypeCategorical SemanticType = "categorical"
	TypeBoolean     SemanticType = "boolean"
	TypeDatetime    SemanticType = "datetime"
	TypeText        SemanticType = "text"
)

// IsNumericLike reports whether values of this type can feed parametric tests.
func (t SemanticType) IsNumericLike() bool {
	return t == TypeNumeric || t == TypeDiscrete
}

// IsGroupable reports whether the type can serve as a grouping factor.
func (t SemanticType) IsGroupable() bool {
	return t == TypeCategorical || t == TypeBoolean || t == TypeDiscrete
}

// Column holds one column of raw cell values exactly as parsed from the
// source file. Typing happens later in classification; the table layer
// never interprets cells beyond missing-token normalization.
type Column struct {
	Name   core.ColumnName `json:"name"`
	Values []string        `json:"values"`
}

// Table is an immutable snapshot of a tabular dataset in column-major
// order. Mutations (column deletion) produce a new Table; callers must
// never modify Columns in place.
type Table struct {
	Columns []Column `json:"columns"`
}

// NewTable builds a table from a header row and row-major records.
// Short rows are padded with empty cells so every column has RowCount values.
func NewTable(headers []string, rows [][]string) (*Table, error) {
	if len(headers) == 0 {
		return nil, fmt.Errorf("table requires at least one column header")
	}
	seen := make(map[string]bool, len(headers))
	cols := make([]Column, len(headers))
	for i, h := range headers {
		name := strings.TrimSpace(h)
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate column header %q", name)
		}
		seen[name] = true
		cols[i] = Column{Name: core.ColumnName(name), Values: make([]string, len(rows))}
	}
	for r, row := range rows {
		for c := range cols {
			if c < len(row) {
				cols[c].Values[r] = row[c]
			}
		}
	}
	return &Table{Columns: cols}, nil
}

// RowCount returns the number of data rows.
func (t *Table) RowCount() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return len(t.Columns[0].Values)
}

// ColumnCount returns the number of columns.
func (t *Table) ColumnCount() int {
	return len(t.Columns)
}

// ColumnNames returns the headers in table order.
func (t *Table) ColumnNames() []core.ColumnName {
	names := make([]core.ColumnName, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Column returns the named column.
func (t *Table) Column(name core.ColumnName) (*Column, error) {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", core.ErrColumnNotFound, name)
}

// WithoutColumns returns a new table with the named columns removed.
// The receiver is left untouched.
func (t *Table) WithoutColumns(names ...core.ColumnName) (*Table, error) {
	drop := make(map[core.ColumnName]bool, len(names))
	for _, n := range names {
		if _, err := t.Column(n); err != nil {
			return nil, err
		}
		drop[n] = true
	}
	kept := make([]Column, 0, len(t.Columns))
	for _, c := range t.Columns {
		if !drop[c.Name] {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		return nil, fmt.Errorf("cannot remove all columns from table")
	}
	return &Table{Columns: kept}, nil
}

// Missing-token table shared by classification and profiling.
var missingTokens = map[string]bool{
	"":     true,
	"na":   true,
	"n/a":  true,
	"nan":  true,
	"null": true,
	"none": true,
	"-":    true,
}

// IsMissing reports whether a raw cell denotes a missing value.
func IsMissing(raw string) bool {
	return missingTokens[strings.ToLower(strings.TrimSpace(raw))]
}

// NonMissing returns the column's non-missing raw values in row order.
func (c *Column) NonMissing() []string {
	out := make([]string, 0, len(c.Values))
	for _, v := range c.Values {
		if !IsMissing(v) {
			out = append(out, v)
		}
	}
	return out
}

// MissingCount returns how many cells of the column are missing.
func (c *Column) MissingCount() int {
	n := 0
	for _, v := range c.Values {
		if IsMissing(v) {
			n++
		}
	}
	return n
}
