// Package table defines the in-memory tabular result model that the chart
// selection pipeline operates on.
//
// A Table is an ordered sequence of named, typed columns as delivered by a
// result provider (SQL driver, CSV/JSON loader, or a host application). The
// package is responsible for:
//   - Columnar storage with per-column semantic kinds
//   - A stable content fingerprint (shape + column names) used to scope
//     interactive selector state
//   - Chart metadata attachment (set at most once per Table instance)
//
// Design constraints:
//   - The pipeline owns a Table exclusively for one classify→select→build
//     cycle; no internal locking is provided.
//   - Accessors are best-effort and never panic on nulls or kind mismatches.
package table

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Kind is the semantic type of a column as far as chart selection is
// concerned. Providers map their native type systems onto these three kinds;
// finer distinctions (int vs float, date vs timestamp) are irrelevant here.
type Kind int

const (
	Categorical Kind = iota
	Numeric
	Temporal
)

func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Temporal:
		return "temporal"
	default:
		return "categorical"
	}
}

// Column is a named value vector. A nil value is a null cell.
//
// Numeric cells are stored as float64 (providers widen integers), temporal
// cells as time.Time, everything else as string. Accessors below tolerate
// deviations and report ok=false instead of panicking.
type Column struct {
	Name   string
	Kind   Kind
	Values []any
}

// Float64 returns the cell at row i as a float64.
func (c *Column) Float64(i int) (float64, bool) {
	if i < 0 || i >= len(c.Values) {
		return 0, false
	}
	switch v := c.Values[i].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// Time returns the cell at row i as a time.Time.
func (c *Column) Time(i int) (time.Time, bool) {
	if i < 0 || i >= len(c.Values) {
		return time.Time{}, false
	}
	t, ok := c.Values[i].(time.Time)
	return t, ok
}

// String returns the cell at row i rendered as a string. Null cells return
// ("", false).
func (c *Column) String(i int) (string, bool) {
	if i < 0 || i >= len(c.Values) || c.Values[i] == nil {
		return "", false
	}
	switch v := c.Values[i].(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	default:
		return fmt.Sprint(v), true
	}
}

// IsNull reports whether the cell at row i is null (or out of range).
func (c *Column) IsNull(i int) bool {
	return i < 0 || i >= len(c.Values) || c.Values[i] == nil
}

// NonNullCount returns the number of non-null cells in the column.
func (c *Column) NonNullCount() int {
	n := 0
	for _, v := range c.Values {
		if v != nil {
			n++
		}
	}
	return n
}

// ChartMeta records which chart archetype was selected for a result and how
// its abstract roles bind to concrete column names. It is attached to the
// Table that produced it so hosts can re-render or export the chart later.
//
// Archetype is the numeric archetype id (1..10); the charts package owns the
// enum. Roles holds single-column bindings (e.g. "date_col"), RoleLists holds
// multi-column bindings (e.g. "text_cols"), Labels optional display labels.
type ChartMeta struct {
	Archetype int                 `json:"archetype" yaml:"archetype"`
	Roles     map[string]string   `json:"roles,omitempty" yaml:"roles,omitempty"`
	RoleLists map[string][]string `json:"role_lists,omitempty" yaml:"role_lists,omitempty"`
	Labels    map[string]string   `json:"labels,omitempty" yaml:"labels,omitempty"`
}

// Table is an ordered collection of equal-length columns.
type Table struct {
	cols []Column
	rows int

	meta    ChartMeta
	metaSet bool
}

// New builds a Table from the given columns. All columns must have the same
// number of values.
func New(cols ...Column) (*Table, error) {
	t := &Table{cols: cols}
	for i := range cols {
		if i == 0 {
			t.rows = len(cols[i].Values)
			continue
		}
		if len(cols[i].Values) != t.rows {
			return nil, fmt.Errorf("table: column %q has %d rows, want %d",
				cols[i].Name, len(cols[i].Values), t.rows)
		}
	}
	return t, nil
}

// NumRows returns the row count.
func (t *Table) NumRows() int { return t.rows }

// NumCols returns the column count.
func (t *Table) NumCols() int { return len(t.cols) }

// Columns returns the columns in declaration order. The slice is shared;
// callers must not reorder it.
func (t *Table) Columns() []Column { return t.cols }

// ColumnNames returns the column names in declaration order.
func (t *Table) ColumnNames() []string {
	out := make([]string, len(t.cols))
	for i := range t.cols {
		out[i] = t.cols[i].Name
	}
	return out
}

// Column returns the named column, or (nil, false) when absent.
func (t *Table) Column(name string) (*Column, bool) {
	for i := range t.cols {
		if t.cols[i].Name == name {
			return &t.cols[i], true
		}
	}
	return nil, false
}

// HasColumns reports whether every named column exists in the table.
func (t *Table) HasColumns(names ...string) bool {
	for _, n := range names {
		if _, ok := t.Column(n); !ok {
			return false
		}
	}
	return true
}

// ReplaceColumnValues swaps a column's value vector and kind in place. This
// is the single sanctioned mutation of a Table: the classifier uses it to
// promote a recovered date column to parsed temporal values.
func (t *Table) ReplaceColumnValues(name string, kind Kind, values []any) error {
	c, ok := t.Column(name)
	if !ok {
		return fmt.Errorf("table: no column %q", name)
	}
	if len(values) != t.rows {
		return fmt.Errorf("table: replacement for %q has %d rows, want %d", name, len(values), t.rows)
	}
	c.Kind = kind
	c.Values = values
	return nil
}

// Head returns a new Table limited to the first n rows. Chart metadata is not
// carried over; the head is a fresh result instance. When n is negative or
// exceeds the row count, the full rows are retained.
func (t *Table) Head(n int) *Table {
	if n < 0 || n >= t.rows {
		n = t.rows
	}
	cols := make([]Column, len(t.cols))
	for i := range t.cols {
		cols[i] = Column{
			Name:   t.cols[i].Name,
			Kind:   t.cols[i].Kind,
			Values: t.cols[i].Values[:n],
		}
	}
	return &Table{cols: cols, rows: n}
}

// SetChartMeta attaches chart metadata to the table. Metadata may be set at
// most once per Table instance; a second call is an error.
func (t *Table) SetChartMeta(m ChartMeta) error {
	if t.metaSet {
		return fmt.Errorf("table: chart metadata already set (archetype %d)", t.meta.Archetype)
	}
	t.meta = m
	t.metaSet = true
	return nil
}

// ChartMeta returns the attached chart metadata, if any.
func (t *Table) ChartMeta() (ChartMeta, bool) {
	return t.meta, t.metaSet
}

// fingerprintSep separates fingerprint components. A unit separator keeps
// adjacent names from colliding ("ab","c" vs "a","bc").
const fingerprintSep = "\x1f"

// Fingerprint returns a stable key derived from the table shape and column
// name sequence. Two results with the same shape and columns share a
// fingerprint regardless of cell contents, so interactive selector state
// survives re-running the same query.
func (t *Table) Fingerprint() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d%s%d", t.rows, fingerprintSep, len(t.cols))
	for i := range t.cols {
		b.WriteString(fingerprintSep)
		b.WriteString(t.cols[i].Name)
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
