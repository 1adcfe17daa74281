// Package table holds the flat tabular records produced by the extraction
// pipeline and implements the sort/join/serialize operations the report
// generator needs. A cell value is one of nil, string, int64, int, float64
// or bool; nil means the source artifact did not contain the field.
package table

import (
	"sort"
	"strconv"
)

// Row maps a column name to a cell value. Missing columns and nil values
// both mean "absent".
type Row map[string]interface{}

// Table is an ordered-column collection of rows.
type Table struct {
	columns []string
	rows    []Row
}

// New creates an empty table with the given initial column order. Columns
// seen later in appended rows are added after these.
func New(columns ...string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{columns: cols}
}

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// HasColumn reports whether the table carries the named column.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.columns {
		if c == name {
			return true
		}
	}
	return false
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Row returns the i-th row.
func (t *Table) Row(i int) Row {
	return t.rows[i]
}

// Rows returns the backing row slice.
func (t *Table) Rows() []Row {
	return t.rows
}

// Append adds a row. Columns not declared yet are appended to the column
// order, sorted by name so the result does not depend on map iteration.
func (t *Table) Append(r Row) {
	var extra []string
	for k := range r {
		if !t.HasColumn(k) {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	t.columns = append(t.columns, extra...)
	t.rows = append(t.rows, r)
}

// Get returns the value of a cell, or nil when absent.
func (r Row) Get(col string) interface{} {
	return r[col]
}

// Float coerces a cell to float64. The second return is false for absent
// cells and non-numeric values.
func (r Row) Float(col string) (float64, bool) {
	return asFloat(r[col])
}

// String returns a cell's string form, empty when absent.
func (r Row) String(col string) string {
	return FormatValue(r[col])
}

func asFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int64:
		return float64(x), true
	case int:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// FormatValue renders a cell value the way the CSV writer does. nil becomes
// the empty string.
func FormatValue(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case bool:
		return strconv.FormatBool(x)
	default:
		return ""
	}
}

// SortBy orders rows by the given columns ascending. Cells that coerce to
// numbers compare numerically, otherwise lexicographically; absent values
// order last, matching how the summary tables are presented.
func (t *Table) SortBy(columns ...string) {
	sort.SliceStable(t.rows, func(i, j int) bool {
		for _, col := range columns {
			c := compareCells(t.rows[i][col], t.rows[j][col])
			if c != 0 {
				return c < 0
			}
		}
		return false
	})
}

func compareCells(a, b interface{}) int {
	aAbsent := a == nil
	bAbsent := b == nil
	if aAbsent || bAbsent {
		if aAbsent && bAbsent {
			return 0
		}
		if aAbsent {
			return 1
		}
		return -1
	}
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	as := FormatValue(a)
	bs := FormatValue(b)
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	default:
		return 0
	}
}
