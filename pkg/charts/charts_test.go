package charts

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/sfc-gh-sweingartner/CortexCharts/pkg/selector"
	"github.com/sfc-gh-sweingartner/CortexCharts/pkg/table"
)

func dateCol(name string, n int) table.Column {
	vals := make([]any, n)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range vals {
		vals[i] = base.AddDate(0, 0, i)
	}
	return table.Column{Name: name, Kind: table.Temporal, Values: vals}
}

func numCol(name string, vals ...float64) table.Column {
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = v
	}
	return table.Column{Name: name, Kind: table.Numeric, Values: out}
}

func strCol(name string, vals ...string) table.Column {
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = v
	}
	return table.Column{Name: name, Kind: table.Categorical, Values: out}
}

func mustTable(t *testing.T, cols ...table.Column) *table.Table {
	t.Helper()
	tbl, err := table.New(cols...)
	if err != nil {
		t.Fatalf("table.New: %v", err)
	}
	return tbl
}

func TestFormatKPIValue(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   float64
		want string
	}{
		{2500000, "2.5M"},
		{3400, "3.4K"},
		{42, "42.0"},
		{-1200000, "-1.2M"},
		{0, "0.0"},
		{999.9, "999.9"},
		{1000, "1.0K"},
	}
	for _, tc := range cases {
		if got := FormatKPIValue(tc.in); got != tc.want {
			t.Errorf("FormatKPIValue(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestShapePaletteSize(t *testing.T) {
	t.Parallel()

	if len(ShapePalette) != 11 {
		t.Fatalf("len(ShapePalette) = %d, want 11", len(ShapePalette))
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tbl := mustTable(t,
		dateCol("day", 3),
		numCol("sales", 1, 2, 3),
		strCol("region", "n", "s", "e"),
	)

	cases := []struct {
		name    string
		spec    Spec
		wantErr error
	}{
		{
			name: "valid stacked bar",
			spec: Spec{
				Archetype: ArchetypeStackedDateBar,
				Roles:     map[string]string{RoleDate: "day", RoleText: "region", RoleNumeric: "sales"},
			},
		},
		{
			name:    "unbound role",
			spec:    Spec{Archetype: ArchetypeDateBar, Roles: map[string]string{RoleDate: "day"}},
			wantErr: ErrMissingBinding,
		},
		{
			name: "absent column",
			spec: Spec{
				Archetype: ArchetypeDateBar,
				Roles:     map[string]string{RoleDate: "day", RoleNumeric: "profit"},
			},
			wantErr: ErrMissingBinding,
		},
		{
			name: "wrong kind",
			spec: Spec{
				Archetype: ArchetypeDateBar,
				Roles:     map[string]string{RoleDate: "region", RoleNumeric: "sales"},
			},
			wantErr: ErrMissingBinding,
		},
		{
			name: "empty list role",
			spec: Spec{
				Archetype: ArchetypeStackedBarPicker,
				Roles:     map[string]string{RoleDate: "day", RoleNumeric: "sales"},
			},
			wantErr: ErrMissingBinding,
		},
		{
			name:    "archetype out of family",
			spec:    Spec{Archetype: Archetype(11)},
			wantErr: ErrUnknownArchetype,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := tc.spec.Validate(tbl)
			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("Validate = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

// TestBuildDateBarDeterministic verifies the same table and spec always
// produce an identical chart object.
func TestBuildDateBarDeterministic(t *testing.T) {
	t.Parallel()

	tbl := mustTable(t, dateCol("day", 3), numCol("sales", 1, 2, 3))
	spec := Spec{
		Archetype: ArchetypeDateBar,
		Roles:     map[string]string{RoleDate: "day", RoleNumeric: "sales"},
	}

	a, err := Build(tbl, spec, Options{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	b, err := Build(tbl, spec, Options{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("repeated builds differ:\n%+v\n%+v", a, b)
	}

	if a.Mark != MarkBar {
		t.Errorf("Mark = %q, want bar", a.Mark)
	}
	if a.Encoding.X.Field != "day" || a.Encoding.X.Type != TypeTemporal {
		t.Errorf("x channel = %+v", a.Encoding.X)
	}
	if a.Encoding.Y.Field != "sales" || a.Encoding.Y.Type != TypeQuantitative {
		t.Errorf("y channel = %+v", a.Encoding.Y)
	}
	if !reflect.DeepEqual(a.Encoding.Tooltip, []string{"day", "sales"}) {
		t.Errorf("tooltip = %v", a.Encoding.Tooltip)
	}
}

func TestBuildDualAxisLine(t *testing.T) {
	t.Parallel()

	tbl := mustTable(t, dateCol("day", 2), numCol("revenue", 1, 2), numCol("margin", 3, 4))
	spec := Spec{
		Archetype: ArchetypeDualAxisLine,
		Roles:     map[string]string{RoleDate: "day", RoleNum1: "revenue", RoleNum2: "margin"},
	}

	c, err := Build(tbl, spec, Options{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(c.Layers) != 2 {
		t.Fatalf("layers = %d, want 2", len(c.Layers))
	}
	if c.ResolveY != "independent" {
		t.Errorf("ResolveY = %q, want independent", c.ResolveY)
	}
	if c.Layers[0].MarkColor != "blue" || c.Layers[1].MarkColor != "red" {
		t.Errorf("layer colors = %q, %q, want blue, red", c.Layers[0].MarkColor, c.Layers[1].MarkColor)
	}
	if c.Layers[0].Encoding.Y.Field != "revenue" || c.Layers[1].Encoding.Y.Field != "margin" {
		t.Errorf("layer y fields = %q, %q", c.Layers[0].Encoding.Y.Field, c.Layers[1].Encoding.Y.Field)
	}
	if c.Layers[1].Encoding.Y.Title != "margin" {
		t.Errorf("second axis title = %q, want margin", c.Layers[1].Encoding.Y.Title)
	}
}

// TestBuildStackedBarPicker checks that every bound categorical becomes a
// selector option and that the injected store drives the color channel.
func TestBuildStackedBarPicker(t *testing.T) {
	t.Parallel()

	tbl := mustTable(t,
		dateCol("day", 2),
		strCol("region", "n", "s"),
		strCol("product", "a", "b"),
		strCol("segment", "x", "y"),
		numCol("sales", 1, 2),
	)
	spec := Spec{
		Archetype: ArchetypeStackedBarPicker,
		Roles:     map[string]string{RoleDate: "day", RoleNumeric: "sales"},
		RoleLists: map[string][]string{RoleTextList: {"region", "product", "segment"}},
	}

	store := selector.NewMemStore()
	c, err := Build(tbl, spec, Options{Selections: store})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if c.Encoding.Color.Field != "region" {
		t.Errorf("default color = %q, want region", c.Encoding.Color.Field)
	}
	if len(c.Selectable) != 1 || !reflect.DeepEqual(c.Selectable[0].Options, []string{"region", "product", "segment"}) {
		t.Errorf("Selectable = %+v, want all three categoricals", c.Selectable)
	}

	// A user choice sticks on rebuild.
	store.Set(selector.Key{Chart: "chart4", Fingerprint: tbl.Fingerprint(), Slot: "color"}, "segment")
	c, err = Build(tbl, spec, Options{Selections: store})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if c.Encoding.Color.Field != "segment" {
		t.Errorf("color after Set = %q, want segment", c.Encoding.Color.Field)
	}
	if !reflect.DeepEqual(c.Encoding.Tooltip, []string{"day", "segment", "sales"}) {
		t.Errorf("tooltip = %v", c.Encoding.Tooltip)
	}
}

func TestBuildRankedBarTwoSelectors(t *testing.T) {
	t.Parallel()

	tbl := mustTable(t,
		strCol("region", "n", "s"),
		strCol("product", "a", "b"),
		numCol("sales", 1, 2),
	)
	spec := Spec{
		Archetype: ArchetypeRankedBar,
		Roles:     map[string]string{RoleNumeric: "sales"},
		RoleLists: map[string][]string{RoleTextList: {"region", "product"}},
	}

	store := selector.NewMemStore()
	store.Set(selector.Key{Chart: "chart9", Fingerprint: tbl.Fingerprint(), Slot: "color"}, "product")

	c, err := Build(tbl, spec, Options{Selections: store})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if c.Encoding.X.Field != "region" || c.Encoding.X.Sort != "-y" {
		t.Errorf("x channel = %+v, want region sorted -y", c.Encoding.X)
	}
	if c.Encoding.Y.Stack != "zero" {
		t.Errorf("y stack = %q, want zero", c.Encoding.Y.Stack)
	}
	// Color selector is independent of the x selector.
	if c.Encoding.Color.Field != "product" {
		t.Errorf("color = %q, want product", c.Encoding.Color.Field)
	}
	if len(c.Selectable) != 2 {
		t.Fatalf("Selectable = %+v, want x and color slots", c.Selectable)
	}
}

func TestBuildShapedCharts(t *testing.T) {
	t.Parallel()

	tbl := mustTable(t,
		strCol("region", "n", "s"),
		strCol("tier", "gold", "silver"),
		numCol("m1", 1, 2),
		numCol("m2", 3, 4),
		numCol("m3", 5, 6),
	)

	t.Run("scatter shaped", func(t *testing.T) {
		t.Parallel()
		c, err := Build(tbl, Spec{
			Archetype: ArchetypeScatterShaped,
			Roles: map[string]string{
				RoleNum1: "m1", RoleNum2: "m2",
				RoleText1: "region", RoleText2: "tier",
			},
		}, Options{})
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		if c.Mark != MarkPoint || c.MarkSize != 100 {
			t.Errorf("mark = %q size %d, want point size 100", c.Mark, c.MarkSize)
		}
		if !reflect.DeepEqual(c.Encoding.Shape.ShapeRange, ShapePalette) {
			t.Errorf("shape range is not the shared palette")
		}
	})

	t.Run("bubble shaped", func(t *testing.T) {
		t.Parallel()
		c, err := Build(tbl, Spec{
			Archetype: ArchetypeBubbleShaped,
			Roles: map[string]string{
				RoleNum1: "m1", RoleNum2: "m2", RoleNum3: "m3",
				RoleText1: "region", RoleText2: "tier",
			},
		}, Options{})
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		if c.Encoding.Size.Field != "m3" {
			t.Errorf("size channel = %+v, want m3", c.Encoding.Size)
		}
		if !reflect.DeepEqual(c.Encoding.Tooltip, []string{"region", "tier", "m1", "m2", "m3"}) {
			t.Errorf("tooltip = %v", c.Encoding.Tooltip)
		}
	})
}

type captureRenderer struct {
	got []KPITileSet
}

func (r *captureRenderer) RenderKPITiles(s KPITileSet) { r.got = append(r.got, s) }

func TestBuildKPITiles(t *testing.T) {
	t.Parallel()

	t.Run("formats and labels", func(t *testing.T) {
		t.Parallel()
		tbl := mustTable(t,
			numCol("total_revenue", 2500000),
			numCol("avg_order", 3400),
			numCol("nps", 42),
		)
		spec := Spec{
			Archetype: ArchetypeKPITiles,
			RoleLists: map[string][]string{RoleNumericList: {"total_revenue", "avg_order", "nps"}},
			Labels:    map[string]string{"nps": "Net Promoter Score"},
		}
		c, err := Build(tbl, spec, Options{})
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		if c.KPI == nil || c.KPI.TileCount != 3 {
			t.Fatalf("KPI = %+v, want 3 tiles", c.KPI)
		}
		wantFmt := []string{"2.5M", "3.4K", "42.0"}
		for i, tile := range c.KPI.Tiles {
			if tile.Formatted != wantFmt[i] {
				t.Errorf("tile %d formatted = %q, want %q", i, tile.Formatted, wantFmt[i])
			}
		}
		if c.KPI.Tiles[0].Label != "total_revenue" {
			t.Errorf("default label = %q, want column name", c.KPI.Tiles[0].Label)
		}
		if c.KPI.Tiles[2].Label != "Net Promoter Score" {
			t.Errorf("custom label = %q", c.KPI.Tiles[2].Label)
		}
	})

	t.Run("rejects multi-row tables", func(t *testing.T) {
		t.Parallel()
		tbl := mustTable(t, numCol("v", 1, 2))
		_, err := Build(tbl, Spec{
			Archetype: ArchetypeKPITiles,
			RoleLists: map[string][]string{RoleNumericList: {"v"}},
		}, Options{})
		if !errors.Is(err, ErrInsufficientData) {
			t.Fatalf("Build = %v, want ErrInsufficientData", err)
		}
	})

	t.Run("direct render mode", func(t *testing.T) {
		t.Parallel()
		tbl := mustTable(t, numCol("v", 7))
		spec := Spec{
			Archetype: ArchetypeKPITiles,
			RoleLists: map[string][]string{RoleNumericList: {"v"}},
		}

		r := &captureRenderer{}
		c, err := Build(tbl, spec, Options{Renderer: r, RenderMode: RenderDirect})
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		if len(r.got) != 1 {
			t.Fatalf("renderer called %d times, want 1", len(r.got))
		}
		// Direct mode still hands the tiles back.
		if c.KPI == nil || len(c.KPI.Tiles) != 1 {
			t.Fatalf("KPI = %+v, want tiles in return value too", c.KPI)
		}

		r2 := &captureRenderer{}
		if _, err := Build(tbl, spec, Options{Renderer: r2, RenderMode: RenderDeferred}); err != nil {
			t.Fatalf("Build: %v", err)
		}
		if len(r2.got) != 0 {
			t.Fatalf("deferred mode invoked the renderer")
		}
	})
}

func TestFromMetadata(t *testing.T) {
	t.Parallel()

	tbl := mustTable(t, dateCol("day", 2), numCol("sales", 1, 2))
	spec := Spec{
		Archetype: ArchetypeDateBar,
		Roles:     map[string]string{RoleDate: "day", RoleNumeric: "sales"},
	}
	if err := tbl.SetChartMeta(spec.Meta()); err != nil {
		t.Fatalf("SetChartMeta: %v", err)
	}

	direct, err := Build(tbl, spec, Options{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	fromMeta, err := FromMetadata(tbl, Options{})
	if err != nil {
		t.Fatalf("FromMetadata: %v", err)
	}
	if !reflect.DeepEqual(direct, fromMeta) {
		t.Fatalf("FromMetadata diverges from direct build:\n%+v\n%+v", direct, fromMeta)
	}

	bare := mustTable(t, numCol("v", 1))
	if _, err := FromMetadata(bare, Options{}); err == nil {
		t.Fatalf("FromMetadata without metadata succeeded")
	}
}
