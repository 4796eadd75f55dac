package charts

import (
	"errors"
	"fmt"

	"github.com/sfc-gh-sweingartner/CortexCharts/pkg/selector"
	"github.com/sfc-gh-sweingartner/CortexCharts/pkg/table"
)

var (
	// ErrMissingBinding reports a spec whose roles do not resolve against the
	// table (absent column, wrong kind, or out-of-range list).
	ErrMissingBinding = errors.New("charts: missing column binding")

	// ErrInsufficientData reports a table whose shape cannot feed the chart,
	// e.g. KPI tiles over anything but a single row.
	ErrInsufficientData = errors.New("charts: insufficient data")

	// ErrUnknownArchetype reports an archetype outside the closed family.
	ErrUnknownArchetype = errors.New("charts: unknown archetype")
)

// RenderMode controls how KPI tile charts are delivered.
type RenderMode int

const (
	// RenderDeferred returns the KPITileSet to the caller only.
	RenderDeferred RenderMode = iota
	// RenderDirect additionally pushes the tiles through the Renderer.
	RenderDirect
)

// Renderer receives KPI tiles in direct render mode.
type Renderer interface {
	RenderKPITiles(KPITileSet)
}

// Options carries the collaborators a build may need. The zero value works:
// no selector store (interactive slots fall back to the first option), no
// renderer, deferred render mode.
type Options struct {
	Selections selector.Store
	Renderer   Renderer
	RenderMode RenderMode
}

// Build constructs the chart object for spec over tbl. It validates the spec
// first and dispatches on the archetype. All failures come back as wrapped
// sentinel errors; Build never panics on malformed input.
func Build(tbl *table.Table, spec Spec, opts Options) (*Chart, error) {
	if err := spec.Validate(tbl); err != nil {
		return nil, err
	}

	switch spec.Archetype {
	case ArchetypeDateBar:
		return buildDateBar(spec), nil
	case ArchetypeDualAxisLine:
		return buildDualAxisLine(spec), nil
	case ArchetypeStackedDateBar:
		return buildStackedDateBar(spec), nil
	case ArchetypeStackedBarPicker:
		return buildStackedBarPicker(tbl, spec, opts), nil
	case ArchetypeScatter:
		return buildScatter(spec), nil
	case ArchetypeScatterShaped:
		return buildScatterShaped(spec), nil
	case ArchetypeBubble:
		return buildBubble(spec), nil
	case ArchetypeBubbleShaped:
		return buildBubbleShaped(spec), nil
	case ArchetypeRankedBar:
		return buildRankedBar(tbl, spec, opts), nil
	case ArchetypeKPITiles:
		return buildKPITiles(tbl, spec, opts)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownArchetype, int(spec.Archetype))
	}
}

func newChart(a Archetype) *Chart {
	return &Chart{Archetype: a, Title: a.Title()}
}

func buildDateBar(spec Spec) *Chart {
	date, num := spec.Role(RoleDate), spec.Role(RoleNumeric)
	c := newChart(spec.Archetype)
	c.Mark = MarkBar
	c.Encoding = &Encoding{
		X:       &Channel{Field: date, Type: TypeTemporal, Sort: "ascending"},
		Y:       &Channel{Field: num, Type: TypeQuantitative},
		Tooltip: []string{date, num},
	}
	return c
}

func buildDualAxisLine(spec Spec) *Chart {
	date := spec.Role(RoleDate)
	n1, n2 := spec.Role(RoleNum1), spec.Role(RoleNum2)
	c := newChart(spec.Archetype)
	c.ResolveY = "independent"
	c.Layers = []Layer{
		{
			Mark:      MarkLine,
			MarkColor: dualLineColorLeft,
			Encoding: Encoding{
				X:       &Channel{Field: date, Type: TypeTemporal},
				Y:       &Channel{Field: n1, Type: TypeQuantitative, Title: n1},
				Tooltip: []string{date, n1},
			},
		},
		{
			Mark:      MarkLine,
			MarkColor: dualLineColorRight,
			Encoding: Encoding{
				X:       &Channel{Field: date, Type: TypeTemporal},
				Y:       &Channel{Field: n2, Type: TypeQuantitative, Title: n2},
				Tooltip: []string{date, n2},
			},
		},
	}
	return c
}

func buildStackedDateBar(spec Spec) *Chart {
	date, text, num := spec.Role(RoleDate), spec.Role(RoleText), spec.Role(RoleNumeric)
	c := newChart(spec.Archetype)
	c.Mark = MarkBar
	c.Encoding = &Encoding{
		X:       &Channel{Field: date, Type: TypeTemporal},
		Y:       &Channel{Field: num, Type: TypeQuantitative, Stack: "zero"},
		Color:   &Channel{Field: text, Type: TypeNominal},
		Tooltip: []string{date, text, num},
	}
	return c
}

func buildStackedBarPicker(tbl *table.Table, spec Spec, opts Options) *Chart {
	date, num := spec.Role(RoleDate), spec.Role(RoleNumeric)
	texts := spec.RoleList(RoleTextList)

	choice := pickSelection(opts.Selections, selector.Key{
		Chart:       spec.Archetype.Tag(),
		Fingerprint: tbl.Fingerprint(),
		Slot:        "color",
	}, texts)

	c := newChart(spec.Archetype)
	c.Mark = MarkBar
	c.Encoding = &Encoding{
		X:       &Channel{Field: date, Type: TypeTemporal},
		Y:       &Channel{Field: num, Type: TypeQuantitative, Stack: "zero"},
		Color:   &Channel{Field: choice, Type: TypeNominal},
		Tooltip: []string{date, choice, num},
	}
	c.Selectable = []Selector{{Slot: "color", Options: texts, Choice: choice}}
	return c
}

func buildScatter(spec Spec) *Chart {
	n1, n2, text := spec.Role(RoleNum1), spec.Role(RoleNum2), spec.Role(RoleText)
	c := newChart(spec.Archetype)
	c.Mark = MarkCircle
	c.MarkSize = 100
	c.Encoding = &Encoding{
		X:       &Channel{Field: n1, Type: TypeQuantitative},
		Y:       &Channel{Field: n2, Type: TypeQuantitative},
		Color:   &Channel{Field: text, Type: TypeNominal},
		Tooltip: []string{text, n1, n2},
	}
	return c
}

func buildScatterShaped(spec Spec) *Chart {
	n1, n2 := spec.Role(RoleNum1), spec.Role(RoleNum2)
	t1, t2 := spec.Role(RoleText1), spec.Role(RoleText2)
	c := newChart(spec.Archetype)
	c.Mark = MarkPoint
	c.MarkSize = 100
	c.Encoding = &Encoding{
		X:       &Channel{Field: n1, Type: TypeQuantitative},
		Y:       &Channel{Field: n2, Type: TypeQuantitative},
		Color:   &Channel{Field: t1, Type: TypeNominal},
		Shape:   &Channel{Field: t2, Type: TypeNominal, ShapeRange: ShapePalette},
		Tooltip: []string{t1, t2, n1, n2},
	}
	return c
}

func buildBubble(spec Spec) *Chart {
	n1, n2, n3 := spec.Role(RoleNum1), spec.Role(RoleNum2), spec.Role(RoleNum3)
	text := spec.Role(RoleText)
	c := newChart(spec.Archetype)
	c.Mark = MarkCircle
	c.Encoding = &Encoding{
		X:       &Channel{Field: n1, Type: TypeQuantitative},
		Y:       &Channel{Field: n2, Type: TypeQuantitative},
		Size:    &Channel{Field: n3, Type: TypeQuantitative},
		Color:   &Channel{Field: text, Type: TypeNominal},
		Tooltip: []string{text, n1, n2, n3},
	}
	return c
}

func buildBubbleShaped(spec Spec) *Chart {
	n1, n2, n3 := spec.Role(RoleNum1), spec.Role(RoleNum2), spec.Role(RoleNum3)
	t1, t2 := spec.Role(RoleText1), spec.Role(RoleText2)
	c := newChart(spec.Archetype)
	c.Mark = MarkPoint
	c.Encoding = &Encoding{
		X:       &Channel{Field: n1, Type: TypeQuantitative},
		Y:       &Channel{Field: n2, Type: TypeQuantitative},
		Size:    &Channel{Field: n3, Type: TypeQuantitative},
		Color:   &Channel{Field: t1, Type: TypeNominal},
		Shape:   &Channel{Field: t2, Type: TypeNominal, ShapeRange: ShapePalette},
		Tooltip: []string{t1, t2, n1, n2, n3},
	}
	return c
}

func buildRankedBar(tbl *table.Table, spec Spec, opts Options) *Chart {
	num := spec.Role(RoleNumeric)
	texts := spec.RoleList(RoleTextList)

	fp := tbl.Fingerprint()
	tag := spec.Archetype.Tag()
	xChoice := pickSelection(opts.Selections, selector.Key{Chart: tag, Fingerprint: fp, Slot: "x"}, texts)
	colorChoice := pickSelection(opts.Selections, selector.Key{Chart: tag, Fingerprint: fp, Slot: "color"}, texts)

	c := newChart(spec.Archetype)
	c.Mark = MarkBar
	c.Encoding = &Encoding{
		X:       &Channel{Field: xChoice, Type: TypeNominal, Sort: "-y"},
		Y:       &Channel{Field: num, Type: TypeQuantitative, Stack: "zero"},
		Color:   &Channel{Field: colorChoice, Type: TypeNominal},
		Tooltip: []string{xChoice, colorChoice, num},
	}
	c.Selectable = []Selector{
		{Slot: "x", Options: texts, Choice: xChoice},
		{Slot: "color", Options: texts, Choice: colorChoice},
	}
	return c
}

func buildKPITiles(tbl *table.Table, spec Spec, opts Options) (*Chart, error) {
	if tbl.NumRows() != 1 {
		return nil, fmt.Errorf("%w: kpi tiles need exactly one row, got %d",
			ErrInsufficientData, tbl.NumRows())
	}

	cols := spec.RoleList(RoleNumericList)
	if len(cols) > MaxKPITiles {
		cols = cols[:MaxKPITiles]
	}

	tiles := make([]KPITile, 0, len(cols))
	for _, name := range cols {
		col, _ := tbl.Column(name)
		v, ok := col.Float64(0)
		if !ok {
			continue // null metric, no tile
		}
		label := name
		if l := spec.Labels[name]; l != "" {
			label = l
		}
		tiles = append(tiles, KPITile{
			Column:    name,
			Label:     label,
			Value:     v,
			Formatted: FormatKPIValue(v),
		})
	}
	if len(tiles) == 0 {
		return nil, fmt.Errorf("%w: no non-null kpi values", ErrInsufficientData)
	}

	set := &KPITileSet{Kind: "kpi_tiles", TileCount: len(tiles), Tiles: tiles}
	if opts.RenderMode == RenderDirect && opts.Renderer != nil {
		opts.Renderer.RenderKPITiles(*set)
	}

	c := newChart(spec.Archetype)
	c.KPI = set
	return c, nil
}

// pickSelection resolves an interactive slot through the store, defaulting to
// the first option when no store is wired.
func pickSelection(store selector.Store, k selector.Key, valid []string) string {
	if store == nil {
		if len(valid) == 0 {
			return ""
		}
		return valid[0]
	}
	return store.GetOrInit(k, valid)
}
