package table

import "strings"

// LeftJoin joins another table onto this one. Every left row is preserved;
// when no right row matches the key columns the joined cells stay nil. When
// a non-key column exists on both sides, the right side's column is renamed
// with the suffix. Right tables are expected to be unique per key; if they
// are not, the first match wins.
func (t *Table) LeftJoin(right *Table, on []string, suffix string) *Table {
	renamed := map[string]string{}
	var rightCols []string
	for _, c := range right.columns {
		if contains(on, c) {
			continue
		}
		name := c
		if t.HasColumn(c) {
			name = c + suffix
		}
		renamed[c] = name
		rightCols = append(rightCols, name)
	}

	index := map[string]Row{}
	for _, r := range right.rows {
		k := joinKey(r, on)
		if _, ok := index[k]; !ok {
			index[k] = r
		}
	}

	out := New(append(t.Columns(), rightCols...)...)
	for _, lr := range t.rows {
		row := Row{}
		for k, v := range lr {
			row[k] = v
		}
		if rr, ok := index[joinKey(lr, on)]; ok {
			for c, v := range rr {
				if contains(on, c) {
					continue
				}
				row[renamed[c]] = v
			}
		}
		out.Append(row)
	}
	return out
}

func joinKey(r Row, on []string) string {
	parts := make([]string, 0, len(on))
	for _, c := range on {
		v := r[c]
		if v == nil {
			parts = append(parts, "\x00")
			continue
		}
		if f, ok := asFloat(v); ok {
			parts = append(parts, FormatValue(f))
			continue
		}
		parts = append(parts, FormatValue(v))
	}
	return strings.Join(parts, "\x1f")
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
