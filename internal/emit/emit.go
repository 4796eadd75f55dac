// Package emit turns a chart spec into portable Go source: a self-contained
// CreateChart function that reproduces the builder output for the spec with
// every column name baked in as a literal. The generated file is meant to be
// copied into a host project and edited freely.
package emit

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sfc-gh-sweingartner/CortexCharts/pkg/charts"
)

const generatedPackage = "chartgen"

var archetypeIdents = map[charts.Archetype]string{
	charts.ArchetypeDateBar:          "ArchetypeDateBar",
	charts.ArchetypeDualAxisLine:     "ArchetypeDualAxisLine",
	charts.ArchetypeStackedDateBar:   "ArchetypeStackedDateBar",
	charts.ArchetypeStackedBarPicker: "ArchetypeStackedBarPicker",
	charts.ArchetypeScatter:          "ArchetypeScatter",
	charts.ArchetypeScatterShaped:    "ArchetypeScatterShaped",
	charts.ArchetypeBubble:           "ArchetypeBubble",
	charts.ArchetypeBubbleShaped:     "ArchetypeBubbleShaped",
	charts.ArchetypeRankedBar:        "ArchetypeRankedBar",
	charts.ArchetypeKPITiles:         "ArchetypeKPITiles",
}

// Source renders the Go source for spec. The output is deterministic: equal
// specs yield byte-identical source. A structurally incomplete spec yields a
// function whose body returns the validation error, so the generated file
// always compiles.
func Source(spec charts.Spec) string {
	var b strings.Builder

	if err := spec.CheckRoles(); err != nil {
		writeHeader(&b, "no chart", false)
		fmt.Fprintf(&b, "// CreateChart reports why no chart could be generated.\n")
		fmt.Fprintf(&b, "func CreateChart(tbl *table.Table) (*charts.Chart, error) {\n")
		fmt.Fprintf(&b, "\t_ = tbl\n")
		fmt.Fprintf(&b, "\treturn nil, errors.New(%q)\n", "no chart code could be generated: "+err.Error())
		fmt.Fprintf(&b, "}\n")
		return b.String()
	}

	switch spec.Archetype {
	case charts.ArchetypeStackedBarPicker:
		emitStackedBarPicker(&b, spec)
	case charts.ArchetypeRankedBar:
		emitRankedBar(&b, spec)
	case charts.ArchetypeKPITiles:
		emitKPITiles(&b, spec)
	default:
		emitStatic(&b, spec)
	}
	return b.String()
}

func writeHeader(b *strings.Builder, title string, interactive bool) {
	fmt.Fprintf(b, "// Code generated for %q. Edit freely; this file is self-contained.\n", title)
	fmt.Fprintf(b, "package %s\n\n", generatedPackage)
	fmt.Fprintf(b, "import (\n")
	fmt.Fprintf(b, "\t\"errors\"\n\n")
	fmt.Fprintf(b, "\t\"github.com/sfc-gh-sweingartner/CortexCharts/pkg/charts\"\n")
	if interactive {
		fmt.Fprintf(b, "\t\"github.com/sfc-gh-sweingartner/CortexCharts/pkg/selector\"\n")
	}
	fmt.Fprintf(b, "\t\"github.com/sfc-gh-sweingartner/CortexCharts/pkg/table\"\n")
	fmt.Fprintf(b, ")\n\n")
}

// requiredColumns lists every column the spec binds, in role order.
func requiredColumns(spec charts.Spec) []string {
	seen := map[string]bool{}
	var out []string
	add := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	for _, role := range []string{
		charts.RoleDate, charts.RoleNumeric,
		charts.RoleNum1, charts.RoleNum2, charts.RoleNum3,
		charts.RoleText, charts.RoleText1, charts.RoleText2,
	} {
		add(spec.Role(role))
	}
	for _, role := range []string{charts.RoleTextList, charts.RoleNumericList} {
		for _, name := range spec.RoleList(role) {
			add(name)
		}
	}
	return out
}

func writeGuard(b *strings.Builder, spec charts.Spec) {
	cols := requiredColumns(spec)
	fmt.Fprintf(b, "\tif !tbl.HasColumns(%s) {\n", quoteArgs(cols))
	fmt.Fprintf(b, "\t\treturn nil, errors.New(%q)\n", "missing required columns for "+spec.Archetype.Title())
	fmt.Fprintf(b, "\t}\n")
}

func quoteArgs(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = fmt.Sprintf("%q", n)
	}
	return strings.Join(quoted, ", ")
}

func quoteSlice(names []string) string {
	return "[]string{" + quoteArgs(names) + "}"
}

func channelLine(b *strings.Builder, ch string, fields string) {
	fmt.Fprintf(b, "\t\t\t%s: &charts.Channel{%s},\n", ch, fields)
}

// emitStatic covers the archetypes with no interactive slots and a single
// mark or fixed layers.
func emitStatic(b *strings.Builder, spec charts.Spec) {
	writeHeader(b, spec.Archetype.Title(), false)
	fmt.Fprintf(b, "// CreateChart builds the %s for a result with columns %s.\n",
		spec.Archetype.Title(), strings.Join(requiredColumns(spec), ", "))
	fmt.Fprintf(b, "func CreateChart(tbl *table.Table) (*charts.Chart, error) {\n")
	writeGuard(b, spec)

	switch spec.Archetype {
	case charts.ArchetypeDateBar:
		date, num := spec.Role(charts.RoleDate), spec.Role(charts.RoleNumeric)
		openChart(b, spec, "charts.MarkBar", 0)
		channelLine(b, "X", fmt.Sprintf("Field: %q, Type: charts.TypeTemporal, Sort: \"ascending\"", date))
		channelLine(b, "Y", fmt.Sprintf("Field: %q, Type: charts.TypeQuantitative", num))
		closeChart(b, []string{date, num})

	case charts.ArchetypeDualAxisLine:
		emitDualAxisLine(b, spec)

	case charts.ArchetypeStackedDateBar:
		date := spec.Role(charts.RoleDate)
		text := spec.Role(charts.RoleText)
		num := spec.Role(charts.RoleNumeric)
		openChart(b, spec, "charts.MarkBar", 0)
		channelLine(b, "X", fmt.Sprintf("Field: %q, Type: charts.TypeTemporal", date))
		channelLine(b, "Y", fmt.Sprintf("Field: %q, Type: charts.TypeQuantitative, Stack: \"zero\"", num))
		channelLine(b, "Color", fmt.Sprintf("Field: %q, Type: charts.TypeNominal", text))
		closeChart(b, []string{date, text, num})

	case charts.ArchetypeScatter:
		n1, n2 := spec.Role(charts.RoleNum1), spec.Role(charts.RoleNum2)
		text := spec.Role(charts.RoleText)
		openChart(b, spec, "charts.MarkCircle", 100)
		channelLine(b, "X", fmt.Sprintf("Field: %q, Type: charts.TypeQuantitative", n1))
		channelLine(b, "Y", fmt.Sprintf("Field: %q, Type: charts.TypeQuantitative", n2))
		channelLine(b, "Color", fmt.Sprintf("Field: %q, Type: charts.TypeNominal", text))
		closeChart(b, []string{text, n1, n2})

	case charts.ArchetypeScatterShaped:
		n1, n2 := spec.Role(charts.RoleNum1), spec.Role(charts.RoleNum2)
		t1, t2 := spec.Role(charts.RoleText1), spec.Role(charts.RoleText2)
		openChart(b, spec, "charts.MarkPoint", 100)
		channelLine(b, "X", fmt.Sprintf("Field: %q, Type: charts.TypeQuantitative", n1))
		channelLine(b, "Y", fmt.Sprintf("Field: %q, Type: charts.TypeQuantitative", n2))
		channelLine(b, "Color", fmt.Sprintf("Field: %q, Type: charts.TypeNominal", t1))
		channelLine(b, "Shape", fmt.Sprintf("Field: %q, Type: charts.TypeNominal, ShapeRange: charts.ShapePalette", t2))
		closeChart(b, []string{t1, t2, n1, n2})

	case charts.ArchetypeBubble:
		n1, n2, n3 := spec.Role(charts.RoleNum1), spec.Role(charts.RoleNum2), spec.Role(charts.RoleNum3)
		text := spec.Role(charts.RoleText)
		openChart(b, spec, "charts.MarkCircle", 0)
		channelLine(b, "X", fmt.Sprintf("Field: %q, Type: charts.TypeQuantitative", n1))
		channelLine(b, "Y", fmt.Sprintf("Field: %q, Type: charts.TypeQuantitative", n2))
		channelLine(b, "Size", fmt.Sprintf("Field: %q, Type: charts.TypeQuantitative", n3))
		channelLine(b, "Color", fmt.Sprintf("Field: %q, Type: charts.TypeNominal", text))
		closeChart(b, []string{text, n1, n2, n3})

	case charts.ArchetypeBubbleShaped:
		n1, n2, n3 := spec.Role(charts.RoleNum1), spec.Role(charts.RoleNum2), spec.Role(charts.RoleNum3)
		t1, t2 := spec.Role(charts.RoleText1), spec.Role(charts.RoleText2)
		openChart(b, spec, "charts.MarkPoint", 0)
		channelLine(b, "X", fmt.Sprintf("Field: %q, Type: charts.TypeQuantitative", n1))
		channelLine(b, "Y", fmt.Sprintf("Field: %q, Type: charts.TypeQuantitative", n2))
		channelLine(b, "Size", fmt.Sprintf("Field: %q, Type: charts.TypeQuantitative", n3))
		channelLine(b, "Color", fmt.Sprintf("Field: %q, Type: charts.TypeNominal", t1))
		channelLine(b, "Shape", fmt.Sprintf("Field: %q, Type: charts.TypeNominal, ShapeRange: charts.ShapePalette", t2))
		closeChart(b, []string{t1, t2, n1, n2, n3})
	}

	fmt.Fprintf(b, "}\n")
}

func openChart(b *strings.Builder, spec charts.Spec, mark string, markSize int) {
	fmt.Fprintf(b, "\treturn &charts.Chart{\n")
	fmt.Fprintf(b, "\t\tArchetype: charts.%s,\n", archetypeIdents[spec.Archetype])
	fmt.Fprintf(b, "\t\tTitle:     %q,\n", spec.Archetype.Title())
	fmt.Fprintf(b, "\t\tMark:      %s,\n", mark)
	if markSize > 0 {
		fmt.Fprintf(b, "\t\tMarkSize:  %d,\n", markSize)
	}
	fmt.Fprintf(b, "\t\tEncoding: &charts.Encoding{\n")
}

func closeChart(b *strings.Builder, tooltip []string) {
	fmt.Fprintf(b, "\t\t\tTooltip: %s,\n", quoteSlice(tooltip))
	fmt.Fprintf(b, "\t\t},\n")
	fmt.Fprintf(b, "\t}, nil\n")
}

func emitDualAxisLine(b *strings.Builder, spec charts.Spec) {
	date := spec.Role(charts.RoleDate)
	n1, n2 := spec.Role(charts.RoleNum1), spec.Role(charts.RoleNum2)

	fmt.Fprintf(b, "\treturn &charts.Chart{\n")
	fmt.Fprintf(b, "\t\tArchetype: charts.%s,\n", archetypeIdents[spec.Archetype])
	fmt.Fprintf(b, "\t\tTitle:     %q,\n", spec.Archetype.Title())
	fmt.Fprintf(b, "\t\tResolveY:  \"independent\",\n")
	fmt.Fprintf(b, "\t\tLayers: []charts.Layer{\n")
	for _, line := range []struct {
		color string
		field string
	}{{"blue", n1}, {"red", n2}} {
		fmt.Fprintf(b, "\t\t\t{\n")
		fmt.Fprintf(b, "\t\t\t\tMark:      charts.MarkLine,\n")
		fmt.Fprintf(b, "\t\t\t\tMarkColor: %q,\n", line.color)
		fmt.Fprintf(b, "\t\t\t\tEncoding: charts.Encoding{\n")
		fmt.Fprintf(b, "\t\t\t\t\tX:       &charts.Channel{Field: %q, Type: charts.TypeTemporal},\n", date)
		fmt.Fprintf(b, "\t\t\t\t\tY:       &charts.Channel{Field: %q, Type: charts.TypeQuantitative, Title: %q},\n", line.field, line.field)
		fmt.Fprintf(b, "\t\t\t\t\tTooltip: %s,\n", quoteSlice([]string{date, line.field}))
		fmt.Fprintf(b, "\t\t\t\t},\n")
		fmt.Fprintf(b, "\t\t\t},\n")
	}
	fmt.Fprintf(b, "\t\t},\n")
	fmt.Fprintf(b, "\t}, nil\n")
}

func emitStackedBarPicker(b *strings.Builder, spec charts.Spec) {
	date, num := spec.Role(charts.RoleDate), spec.Role(charts.RoleNumeric)
	texts := spec.RoleList(charts.RoleTextList)

	writeHeader(b, spec.Archetype.Title(), true)
	fmt.Fprintf(b, "// CreateChart builds the %s. The color category is switchable; the\n", spec.Archetype.Title())
	fmt.Fprintf(b, "// current choice lives in the selector store under the table fingerprint.\n")
	fmt.Fprintf(b, "func CreateChart(tbl *table.Table, sel selector.Store) (*charts.Chart, error) {\n")
	writeGuard(b, spec)
	fmt.Fprintf(b, "\ttexts := %s\n", quoteSlice(texts))
	emitChoice(b, "choice", spec.Archetype.Tag(), "color", "texts")
	fmt.Fprintf(b, "\treturn &charts.Chart{\n")
	fmt.Fprintf(b, "\t\tArchetype: charts.%s,\n", archetypeIdents[spec.Archetype])
	fmt.Fprintf(b, "\t\tTitle:     %q,\n", spec.Archetype.Title())
	fmt.Fprintf(b, "\t\tMark:      charts.MarkBar,\n")
	fmt.Fprintf(b, "\t\tEncoding: &charts.Encoding{\n")
	channelLine(b, "X", fmt.Sprintf("Field: %q, Type: charts.TypeTemporal", date))
	channelLine(b, "Y", fmt.Sprintf("Field: %q, Type: charts.TypeQuantitative, Stack: \"zero\"", num))
	fmt.Fprintf(b, "\t\t\tColor:   &charts.Channel{Field: choice, Type: charts.TypeNominal},\n")
	fmt.Fprintf(b, "\t\t\tTooltip: []string{%q, choice, %q},\n", date, num)
	fmt.Fprintf(b, "\t\t},\n")
	fmt.Fprintf(b, "\t\tSelectable: []charts.Selector{{Slot: \"color\", Options: texts, Choice: choice}},\n")
	fmt.Fprintf(b, "\t}, nil\n")
	fmt.Fprintf(b, "}\n")
}

func emitRankedBar(b *strings.Builder, spec charts.Spec) {
	num := spec.Role(charts.RoleNumeric)
	texts := spec.RoleList(charts.RoleTextList)

	writeHeader(b, spec.Archetype.Title(), true)
	fmt.Fprintf(b, "// CreateChart builds the %s. X-axis and color category are\n", spec.Archetype.Title())
	fmt.Fprintf(b, "// independently switchable through the selector store.\n")
	fmt.Fprintf(b, "func CreateChart(tbl *table.Table, sel selector.Store) (*charts.Chart, error) {\n")
	writeGuard(b, spec)
	fmt.Fprintf(b, "\ttexts := %s\n", quoteSlice(texts))
	emitChoice(b, "xChoice", spec.Archetype.Tag(), "x", "texts")
	emitChoice(b, "colorChoice", spec.Archetype.Tag(), "color", "texts")
	fmt.Fprintf(b, "\treturn &charts.Chart{\n")
	fmt.Fprintf(b, "\t\tArchetype: charts.%s,\n", archetypeIdents[spec.Archetype])
	fmt.Fprintf(b, "\t\tTitle:     %q,\n", spec.Archetype.Title())
	fmt.Fprintf(b, "\t\tMark:      charts.MarkBar,\n")
	fmt.Fprintf(b, "\t\tEncoding: &charts.Encoding{\n")
	fmt.Fprintf(b, "\t\t\tX:       &charts.Channel{Field: xChoice, Type: charts.TypeNominal, Sort: \"-y\"},\n")
	channelLine(b, "Y", fmt.Sprintf("Field: %q, Type: charts.TypeQuantitative, Stack: \"zero\"", num))
	fmt.Fprintf(b, "\t\t\tColor:   &charts.Channel{Field: colorChoice, Type: charts.TypeNominal},\n")
	fmt.Fprintf(b, "\t\t\tTooltip: []string{xChoice, colorChoice, %q},\n", num)
	fmt.Fprintf(b, "\t\t},\n")
	fmt.Fprintf(b, "\t\tSelectable: []charts.Selector{\n")
	fmt.Fprintf(b, "\t\t\t{Slot: \"x\", Options: texts, Choice: xChoice},\n")
	fmt.Fprintf(b, "\t\t\t{Slot: \"color\", Options: texts, Choice: colorChoice},\n")
	fmt.Fprintf(b, "\t\t},\n")
	fmt.Fprintf(b, "\t}, nil\n")
	fmt.Fprintf(b, "}\n")
}

// emitChoice writes the selector lookup for one interactive slot.
func emitChoice(b *strings.Builder, varName, tag, slot, optsVar string) {
	fmt.Fprintf(b, "\t%s := %s[0]\n", varName, optsVar)
	fmt.Fprintf(b, "\tif sel != nil {\n")
	fmt.Fprintf(b, "\t\t%s = sel.GetOrInit(selector.Key{Chart: %q, Fingerprint: tbl.Fingerprint(), Slot: %q}, %s)\n",
		varName, tag, slot, optsVar)
	fmt.Fprintf(b, "\t}\n")
}

func emitKPITiles(b *strings.Builder, spec charts.Spec) {
	cols := spec.RoleList(charts.RoleNumericList)
	if len(cols) > charts.MaxKPITiles {
		cols = cols[:charts.MaxKPITiles]
	}

	writeHeader(b, spec.Archetype.Title(), false)
	fmt.Fprintf(b, "// CreateChart builds %s from a single-row result.\n", spec.Archetype.Title())
	fmt.Fprintf(b, "func CreateChart(tbl *table.Table) (*charts.Chart, error) {\n")
	writeGuard(b, spec)
	fmt.Fprintf(b, "\tif tbl.NumRows() != 1 {\n")
	fmt.Fprintf(b, "\t\treturn nil, errors.New(\"kpi tiles need exactly one row\")\n")
	fmt.Fprintf(b, "\t}\n")
	fmt.Fprintf(b, "\tcols := %s\n", quoteSlice(cols))
	if len(spec.Labels) > 0 {
		fmt.Fprintf(b, "\tlabels := map[string]string{\n")
		keys := make([]string, 0, len(spec.Labels))
		for k := range spec.Labels {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(b, "\t\t%q: %q,\n", k, spec.Labels[k])
		}
		fmt.Fprintf(b, "\t}\n")
	}
	fmt.Fprintf(b, "\ttiles := make([]charts.KPITile, 0, len(cols))\n")
	fmt.Fprintf(b, "\tfor _, name := range cols {\n")
	fmt.Fprintf(b, "\t\tcol, _ := tbl.Column(name)\n")
	fmt.Fprintf(b, "\t\tv, ok := col.Float64(0)\n")
	fmt.Fprintf(b, "\t\tif !ok {\n")
	fmt.Fprintf(b, "\t\t\tcontinue\n")
	fmt.Fprintf(b, "\t\t}\n")
	fmt.Fprintf(b, "\t\tlabel := name\n")
	if len(spec.Labels) > 0 {
		fmt.Fprintf(b, "\t\tif l := labels[name]; l != \"\" {\n")
		fmt.Fprintf(b, "\t\t\tlabel = l\n")
		fmt.Fprintf(b, "\t\t}\n")
	}
	fmt.Fprintf(b, "\t\ttiles = append(tiles, charts.KPITile{Column: name, Label: label, Value: v, Formatted: charts.FormatKPIValue(v)})\n")
	fmt.Fprintf(b, "\t}\n")
	fmt.Fprintf(b, "\tif len(tiles) == 0 {\n")
	fmt.Fprintf(b, "\t\treturn nil, errors.New(\"no non-null kpi values\")\n")
	fmt.Fprintf(b, "\t}\n")
	fmt.Fprintf(b, "\treturn &charts.Chart{\n")
	fmt.Fprintf(b, "\t\tArchetype: charts.%s,\n", archetypeIdents[spec.Archetype])
	fmt.Fprintf(b, "\t\tTitle:     %q,\n", spec.Archetype.Title())
	fmt.Fprintf(b, "\t\tKPI:       &charts.KPITileSet{Kind: \"kpi_tiles\", TileCount: len(tiles), Tiles: tiles},\n")
	fmt.Fprintf(b, "\t}, nil\n")
	fmt.Fprintf(b, "}\n")
}
