// Package charts defines the closed family of chart archetypes, the spec that
// binds an archetype to concrete table columns, and the builders that turn a
// table plus spec into a declarative chart object.
package charts

import (
	"fmt"

	"github.com/sfc-gh-sweingartner/CortexCharts/pkg/table"
)

// Archetype enumerates the supported chart shapes. The set is closed: adding
// a member means extending the role table and the build/emit dispatch.
type Archetype int

const (
	ArchetypeDateBar          Archetype = iota + 1 // bar over a date axis
	ArchetypeDualAxisLine                          // two lines, independent y scales
	ArchetypeStackedDateBar                        // stacked bars over a date axis
	ArchetypeStackedBarPicker                      // stacked date bars, selectable color
	ArchetypeScatter                               // two measures over a category
	ArchetypeScatterShaped                         // scatter, color + shape categories
	ArchetypeBubble                                // scatter with size measure
	ArchetypeBubbleShaped                          // bubble, color + shape categories
	ArchetypeRankedBar                             // bars, selectable x-axis and color
	ArchetypeKPITiles                              // single-row metric tiles
)

// Valid reports whether a is a member of the family.
func (a Archetype) Valid() bool {
	return a >= ArchetypeDateBar && a <= ArchetypeKPITiles
}

// Tag returns the short identifier used in selector keys, log lines and
// exported reports ("chart1" .. "chart10").
func (a Archetype) Tag() string {
	return fmt.Sprintf("chart%d", int(a))
}

var archetypeTitles = map[Archetype]string{
	ArchetypeDateBar:          "Bar Chart by Date",
	ArchetypeDualAxisLine:     "Dual Axis Line Chart",
	ArchetypeStackedDateBar:   "Stacked Bar Chart by Date",
	ArchetypeStackedBarPicker: "Stacked Bar Chart with Selectable Colors",
	ArchetypeScatter:          "Scatter Chart",
	ArchetypeScatterShaped:    "Scatter Chart with Multiple Dimensions",
	ArchetypeBubble:           "Bubble Chart",
	ArchetypeBubbleShaped:     "Multi-Dimensional Bubble Chart",
	ArchetypeRankedBar:        "Bar Chart with Selectable X-Axis and Color",
	ArchetypeKPITiles:         "KPI Tiles",
}

// Title returns the display title for the archetype.
func (a Archetype) Title() string {
	if t, ok := archetypeTitles[a]; ok {
		return t
	}
	return fmt.Sprintf("Chart %d", int(a))
}

func (a Archetype) String() string { return a.Tag() }

// Role names. Single-column roles bind one column, list roles bind an ordered
// column list. The names are stable: they appear in chart metadata, override
// config files and exported reports.
const (
	RoleDate    = "date_col"
	RoleNumeric = "numeric_col"
	RoleNum1    = "num_col1"
	RoleNum2    = "num_col2"
	RoleNum3    = "num_col3"
	RoleText    = "text_col"
	RoleText1   = "text_col1"
	RoleText2   = "text_col2"

	RoleTextList    = "text_cols"
	RoleNumericList = "numeric_cols"
)

// MaxKPITiles caps how many tiles a KPI chart renders.
const MaxKPITiles = 4

// MaxRankedBarPickers caps how many categorical columns the ranked bar chart
// offers in its selectors.
const MaxRankedBarPickers = 5

type roleReq struct {
	name string
	kind table.Kind
}

type listReq struct {
	name string
	kind table.Kind
	min  int
	max  int // 0 = unbounded
}

type roleSchema struct {
	single []roleReq
	lists  []listReq
}

// roleSchemas is the authoritative role table, one entry per archetype.
var roleSchemas = map[Archetype]roleSchema{
	ArchetypeDateBar: {single: []roleReq{
		{RoleDate, table.Temporal}, {RoleNumeric, table.Numeric},
	}},
	ArchetypeDualAxisLine: {single: []roleReq{
		{RoleDate, table.Temporal}, {RoleNum1, table.Numeric}, {RoleNum2, table.Numeric},
	}},
	ArchetypeStackedDateBar: {single: []roleReq{
		{RoleDate, table.Temporal}, {RoleText, table.Categorical}, {RoleNumeric, table.Numeric},
	}},
	ArchetypeStackedBarPicker: {
		single: []roleReq{{RoleDate, table.Temporal}, {RoleNumeric, table.Numeric}},
		lists:  []listReq{{RoleTextList, table.Categorical, 1, 0}},
	},
	ArchetypeScatter: {single: []roleReq{
		{RoleNum1, table.Numeric}, {RoleNum2, table.Numeric}, {RoleText, table.Categorical},
	}},
	ArchetypeScatterShaped: {single: []roleReq{
		{RoleNum1, table.Numeric}, {RoleNum2, table.Numeric},
		{RoleText1, table.Categorical}, {RoleText2, table.Categorical},
	}},
	ArchetypeBubble: {single: []roleReq{
		{RoleNum1, table.Numeric}, {RoleNum2, table.Numeric}, {RoleNum3, table.Numeric},
		{RoleText, table.Categorical},
	}},
	ArchetypeBubbleShaped: {single: []roleReq{
		{RoleNum1, table.Numeric}, {RoleNum2, table.Numeric}, {RoleNum3, table.Numeric},
		{RoleText1, table.Categorical}, {RoleText2, table.Categorical},
	}},
	ArchetypeRankedBar: {
		single: []roleReq{{RoleNumeric, table.Numeric}},
		lists:  []listReq{{RoleTextList, table.Categorical, 1, MaxRankedBarPickers}},
	},
	ArchetypeKPITiles: {
		lists: []listReq{{RoleNumericList, table.Numeric, 1, MaxKPITiles}},
	},
}

// Spec binds an archetype to concrete columns of one table. Specs are built
// by the rule engine, loaded from chart metadata, or written by hand.
type Spec struct {
	Archetype Archetype
	Roles     map[string]string
	RoleLists map[string][]string
	Labels    map[string]string // optional display labels, keyed by column
}

// Role returns the column bound to a single-column role.
func (s Spec) Role(name string) string { return s.Roles[name] }

// RoleList returns the columns bound to a list role.
func (s Spec) RoleList(name string) []string { return s.RoleLists[name] }

// CheckRoles verifies the spec is structurally complete: a family archetype
// with every required role bound and every list role within bounds. It does
// not need a table; Validate adds the per-table column checks on top.
func (s Spec) CheckRoles() error {
	if !s.Archetype.Valid() {
		return fmt.Errorf("%w: archetype %d", ErrUnknownArchetype, int(s.Archetype))
	}
	schema := roleSchemas[s.Archetype]

	for _, req := range schema.single {
		if s.Roles[req.name] == "" {
			return fmt.Errorf("%w: %s has no %s", ErrMissingBinding, s.Archetype, req.name)
		}
	}
	for _, req := range schema.lists {
		cols := s.RoleLists[req.name]
		if len(cols) < req.min {
			return fmt.Errorf("%w: %s needs at least %d column(s) in %s, got %d",
				ErrMissingBinding, s.Archetype, req.min, req.name, len(cols))
		}
		if req.max > 0 && len(cols) > req.max {
			return fmt.Errorf("%w: %s allows at most %d column(s) in %s, got %d",
				ErrMissingBinding, s.Archetype, req.max, req.name, len(cols))
		}
	}
	return nil
}

// Validate checks s against tbl: structural completeness plus every bound
// column existing in the table with the expected kind. Errors wrap
// ErrMissingBinding.
func (s Spec) Validate(tbl *table.Table) error {
	if err := s.CheckRoles(); err != nil {
		return err
	}
	schema := roleSchemas[s.Archetype]

	for _, req := range schema.single {
		if err := checkBinding(tbl, req.name, s.Roles[req.name], req.kind); err != nil {
			return err
		}
	}
	for _, req := range schema.lists {
		for _, name := range s.RoleLists[req.name] {
			if err := checkBinding(tbl, req.name, name, req.kind); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkBinding(tbl *table.Table, role, name string, kind table.Kind) error {
	col, ok := tbl.Column(name)
	if !ok {
		return fmt.Errorf("%w: %s -> %q not in table", ErrMissingBinding, role, name)
	}
	if col.Kind != kind {
		return fmt.Errorf("%w: %s -> %q is %s, want %s", ErrMissingBinding, role, name, col.Kind, kind)
	}
	return nil
}

// Meta converts the spec into table-attachable chart metadata.
func (s Spec) Meta() table.ChartMeta {
	return table.ChartMeta{
		Archetype: int(s.Archetype),
		Roles:     s.Roles,
		RoleLists: s.RoleLists,
		Labels:    s.Labels,
	}
}

// SpecFromMeta rebuilds a Spec from chart metadata previously attached to a
// table.
func SpecFromMeta(m table.ChartMeta) (Spec, error) {
	a := Archetype(m.Archetype)
	if !a.Valid() {
		return Spec{}, fmt.Errorf("%w: archetype %d in metadata", ErrUnknownArchetype, m.Archetype)
	}
	return Spec{Archetype: a, Roles: m.Roles, RoleLists: m.RoleLists, Labels: m.Labels}, nil
}

// FromMetadata rebuilds the chart for a table from its attached metadata.
// It fails when no metadata is present or the recorded bindings no longer
// match the table.
func FromMetadata(tbl *table.Table, opts Options) (*Chart, error) {
	m, ok := tbl.ChartMeta()
	if !ok {
		return nil, fmt.Errorf("%w: table has no chart metadata", ErrMissingBinding)
	}
	spec, err := SpecFromMeta(m)
	if err != nil {
		return nil, err
	}
	return Build(tbl, spec, opts)
}
