package table

import (
	"testing"
	"time"
)

func mustNew(t *testing.T, cols ...Column) *Table {
	t.Helper()
	tbl, err := New(cols...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return tbl
}

func TestNewRejectsRaggedColumns(t *testing.T) {
	t.Parallel()

	_, err := New(
		Column{Name: "a", Kind: Numeric, Values: []any{1.0, 2.0}},
		Column{Name: "b", Kind: Categorical, Values: []any{"x"}},
	)
	if err == nil {
		t.Fatalf("New accepted ragged columns, want error")
	}
}

func TestColumnAccessors(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	c := Column{Name: "v", Kind: Numeric, Values: []any{1.5, int64(7), nil, ts, "x"}}

	if v, ok := c.Float64(0); !ok || v != 1.5 {
		t.Errorf("Float64(0) = %v, %v, want 1.5, true", v, ok)
	}
	if v, ok := c.Float64(1); !ok || v != 7 {
		t.Errorf("Float64(1) = %v, %v, want 7, true", v, ok)
	}
	if _, ok := c.Float64(2); ok {
		t.Errorf("Float64(2) ok on null cell")
	}
	if got, ok := c.Time(3); !ok || !got.Equal(ts) {
		t.Errorf("Time(3) = %v, %v, want %v, true", got, ok, ts)
	}
	if s, ok := c.String(4); !ok || s != "x" {
		t.Errorf("String(4) = %q, %v, want \"x\", true", s, ok)
	}
	if !c.IsNull(2) || c.IsNull(0) {
		t.Errorf("IsNull misreports: null=%v nonNull=%v", c.IsNull(2), c.IsNull(0))
	}
	if n := c.NonNullCount(); n != 4 {
		t.Errorf("NonNullCount = %d, want 4", n)
	}
}

func TestHeadCapsRows(t *testing.T) {
	t.Parallel()

	tbl := mustNew(t,
		Column{Name: "n", Kind: Numeric, Values: []any{1.0, 2.0, 3.0}},
	)

	head := tbl.Head(2)
	if head.NumRows() != 2 {
		t.Fatalf("Head(2).NumRows = %d, want 2", head.NumRows())
	}
	if full := tbl.Head(10); full.NumRows() != 3 {
		t.Fatalf("Head(10).NumRows = %d, want 3", full.NumRows())
	}
	if tbl.NumRows() != 3 {
		t.Fatalf("Head mutated source: NumRows = %d, want 3", tbl.NumRows())
	}
}

// TestChartMetaSetOnce verifies that chart metadata can be attached exactly
// once per table instance.
func TestChartMetaSetOnce(t *testing.T) {
	t.Parallel()

	tbl := mustNew(t, Column{Name: "n", Kind: Numeric, Values: []any{1.0}})

	if _, ok := tbl.ChartMeta(); ok {
		t.Fatalf("ChartMeta present before SetChartMeta")
	}
	if err := tbl.SetChartMeta(ChartMeta{Archetype: 5}); err != nil {
		t.Fatalf("first SetChartMeta: %v", err)
	}
	if err := tbl.SetChartMeta(ChartMeta{Archetype: 1}); err == nil {
		t.Fatalf("second SetChartMeta succeeded, want error")
	}
	m, ok := tbl.ChartMeta()
	if !ok || m.Archetype != 5 {
		t.Fatalf("ChartMeta = %+v, %v, want archetype 5", m, ok)
	}
}

func TestFingerprint(t *testing.T) {
	t.Parallel()

	a := mustNew(t,
		Column{Name: "region", Kind: Categorical, Values: []any{"n", "s"}},
		Column{Name: "sales", Kind: Numeric, Values: []any{1.0, 2.0}},
	)
	b := mustNew(t,
		Column{Name: "region", Kind: Categorical, Values: []any{"e", "w"}},
		Column{Name: "sales", Kind: Numeric, Values: []any{9.0, 9.0}},
	)
	c := mustNew(t,
		Column{Name: "sales", Kind: Numeric, Values: []any{1.0, 2.0}},
		Column{Name: "region", Kind: Categorical, Values: []any{"n", "s"}},
	)

	if a.Fingerprint() != b.Fingerprint() {
		t.Errorf("same shape and columns produced different fingerprints")
	}
	if a.Fingerprint() == c.Fingerprint() {
		t.Errorf("reordered columns produced the same fingerprint")
	}
	if a.Fingerprint() == a.Head(1).Fingerprint() {
		t.Errorf("different row counts produced the same fingerprint")
	}
}

func TestReplaceColumnValues(t *testing.T) {
	t.Parallel()

	tbl := mustNew(t, Column{Name: "d", Kind: Categorical, Values: []any{"2024-01-01", "2024-01-02"}})

	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := tbl.ReplaceColumnValues("d", Temporal, []any{ts, ts.AddDate(0, 0, 1)}); err != nil {
		t.Fatalf("ReplaceColumnValues: %v", err)
	}
	col, _ := tbl.Column("d")
	if col.Kind != Temporal {
		t.Errorf("Kind = %v, want temporal", col.Kind)
	}
	if _, ok := col.Time(0); !ok {
		t.Errorf("values not replaced with time.Time")
	}

	if err := tbl.ReplaceColumnValues("missing", Temporal, []any{nil, nil}); err == nil {
		t.Errorf("ReplaceColumnValues on missing column succeeded, want error")
	}
	if err := tbl.ReplaceColumnValues("d", Temporal, []any{nil}); err == nil {
		t.Errorf("ReplaceColumnValues with wrong length succeeded, want error")
	}
}
