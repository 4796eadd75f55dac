package charts

// Chart is the declarative output of a builder: marks plus channel encodings,
// close enough to the vega-lite vocabulary that a front end can translate it
// mechanically. It marshals to JSON for export.
//
// Exactly one of the three bodies is populated: Encoding for single-mark
// charts, Layers for the dual-axis line chart, KPI for metric tiles.
type Chart struct {
	Archetype Archetype `json:"archetype"`
	Title     string    `json:"title"`

	Mark     string    `json:"mark,omitempty"`
	MarkSize int       `json:"markSize,omitempty"`
	Encoding *Encoding `json:"encoding,omitempty"`

	Layers   []Layer `json:"layer,omitempty"`
	ResolveY string  `json:"resolveY,omitempty"` // "independent" for layered charts

	KPI *KPITileSet `json:"kpi,omitempty"`

	// Selectable lists the interactive slots of the chart with their valid
	// options and current choice. Empty for static archetypes.
	Selectable []Selector `json:"selectable,omitempty"`
}

// Marks.
const (
	MarkBar    = "bar"
	MarkLine   = "line"
	MarkCircle = "circle"
	MarkPoint  = "point"
)

// Channel encodes one visual channel.
type Channel struct {
	Field string `json:"field"`
	Type  string `json:"type"` // "temporal", "quantitative", "nominal"
	Title string `json:"title,omitempty"`
	Sort  string `json:"sort,omitempty"`  // "ascending" or "-y"
	Stack string `json:"stack,omitempty"` // "zero" for stacked bars

	// ShapeRange carries the symbol palette on shape channels.
	ShapeRange []string `json:"shapeRange,omitempty"`
}

// Channel types.
const (
	TypeTemporal     = "temporal"
	TypeQuantitative = "quantitative"
	TypeNominal      = "nominal"
)

// Encoding groups the channels of one mark. Tooltip lists every bound column.
type Encoding struct {
	X       *Channel `json:"x,omitempty"`
	Y       *Channel `json:"y,omitempty"`
	Color   *Channel `json:"color,omitempty"`
	Size    *Channel `json:"size,omitempty"`
	Shape   *Channel `json:"shape,omitempty"`
	Tooltip []string `json:"tooltip,omitempty"`
}

// Layer is one mark of a layered chart.
type Layer struct {
	Mark      string   `json:"mark"`
	MarkColor string   `json:"markColor,omitempty"`
	Encoding  Encoding `json:"encoding"`
}

// Selector describes one interactive slot on a chart.
type Selector struct {
	Slot    string   `json:"slot"`
	Options []string `json:"options"`
	Choice  string   `json:"choice"`
}

// KPITileSet is the body of a KPI tile chart.
type KPITileSet struct {
	Kind      string    `json:"kind"` // always "kpi_tiles"
	TileCount int       `json:"tile_count"`
	Tiles     []KPITile `json:"tiles"`
}

// KPITile is one rendered metric tile.
type KPITile struct {
	Column    string  `json:"column"`
	Label     string  `json:"label"`
	Value     float64 `json:"value"`
	Formatted string  `json:"formatted"`
}

// ShapePalette is the symbol sequence assigned to shape channels, in order.
var ShapePalette = []string{
	"circle",
	"square",
	"cross",
	"diamond",
	"triangle-up",
	"triangle-down",
	"triangle-right",
	"triangle-left",
	"arrow",
	"wedge",
	"stroke",
}

// Line colors for the dual axis chart.
const (
	dualLineColorLeft  = "blue"
	dualLineColorRight = "red"
)
