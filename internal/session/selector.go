package session

import (
	"fmt"
	"strconv"
	"strings"

	"statlens/domain/core"
	"statlens/domain/table"
)

// ResolveColumnSpec resolves a comma-separated column selection against a
// table. Each segment is either a 1-based index ("3"), an inclusive index
// range ("4-10"), or a column name ("Age"). Names win over digits when a
// header is itself numeric. Duplicates collapse; selection order is kept.
func ResolveColumnSpec(t *table.Table, spec string) ([]core.ColumnName, error) {
	names := t.ColumnNames()
	byName := make(map[string]core.ColumnName, len(names))
	for _, n := range names {
		byName[strings.ToLower(strings.TrimSpace(string(n)))] = n
	}

	var out []core.ColumnName
	seen := make(map[core.ColumnName]bool)
	add := func(n core.ColumnName) {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}

	for _, segment := range strings.Split(spec, ",") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}

		// Exact header match first, so numeric headers stay addressable.
		if n, ok := byName[strings.ToLower(segment)]; ok {
			add(n)
			continue
		}

		if lo, hi, ok := parseRange(segment); ok {
			if lo < 1 || hi > len(names) || lo > hi {
				return nil, fmt.Errorf("column range %q out of bounds (table has %d columns)", segment, len(names))
			}
			for i := lo; i <= hi; i++ {
				add(names[i-1])
			}
			continue
		}

		if idx, err := strconv.Atoi(segment); err == nil {
			if idx < 1 || idx > len(names) {
				return nil, fmt.Errorf("column index %d out of bounds (table has %d columns)", idx, len(names))
			}
			add(names[idx-1])
			continue
		}

		return nil, fmt.Errorf("%w: %q", core.ErrColumnNotFound, segment)
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("column selection %q matched nothing", spec)
	}
	return out, nil
}

// parseRange parses "lo-hi" with both ends numeric.
func parseRange(segment string) (lo, hi int, ok bool) {
	parts := strings.SplitN(segment, "-", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	lo, errLo := strconv.Atoi(strings.TrimSpace(parts[0]))
	hi, errHi := strconv.Atoi(strings.TrimSpace(parts[1]))
	if errLo != nil || errHi != nil {
		return 0, 0, false
	}
	return lo, hi, true
}
