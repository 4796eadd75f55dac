// Package report exports built charts as a standalone HTML document and
// reads such documents back. Each chart's spec is embedded as JSON in a
// script tag, so a report is both human-readable and machine-recoverable.
package report

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sfc-gh-sweingartner/CortexCharts/pkg/charts"
)

var titleCaser = cases.Title(language.English)

// Humanize turns a column name into a display heading: underscores become
// spaces, words are title-cased.
func Humanize(column string) string {
	return titleCaser.String(strings.ReplaceAll(column, "_", " "))
}

// Entry is one chart section of a report.
type Entry struct {
	// Heading overrides the generated section heading when non-empty.
	Heading string
	Chart   *charts.Chart
}

var reportTmpl = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Chart Report</title>
</head>
<body>
{{- range .}}
<section class="chart" data-chart="{{.Tag}}">
<h2>{{.Heading}}</h2>
{{- if .KPI}}
<div class="kpi-row">
{{- range .KPI.Tiles}}
<div class="kpi-tile"><span class="kpi-label">{{.Label}}</span><span class="kpi-value">{{.Formatted}}</span></div>
{{- end}}
</div>
{{- end}}
<script type="application/json" class="chart-spec">{{.SpecJSON}}</script>
</section>
{{- end}}
</body>
</html>
`))

type renderedEntry struct {
	Tag      string
	Heading  string
	KPI      *charts.KPITileSet
	SpecJSON template.JS
}

// Write renders the entries as an HTML report.
func Write(w io.Writer, entries []Entry) error {
	rendered := make([]renderedEntry, 0, len(entries))
	for i, e := range entries {
		if e.Chart == nil {
			return fmt.Errorf("report: entry %d has no chart", i)
		}
		b, err := json.Marshal(e.Chart)
		if err != nil {
			return fmt.Errorf("report: marshal entry %d: %w", i, err)
		}
		rendered = append(rendered, renderedEntry{
			Tag:      e.Chart.Archetype.Tag(),
			Heading:  headingFor(e),
			KPI:      e.Chart.KPI,
			SpecJSON: template.JS(b),
		})
	}
	if err := reportTmpl.Execute(w, rendered); err != nil {
		return fmt.Errorf("report: render: %w", err)
	}
	return nil
}

// headingFor derives a section heading: the explicit heading if given, else
// the chart title plus the humanized encoded fields ("Sales by Order Date").
func headingFor(e Entry) string {
	if e.Heading != "" {
		return e.Heading
	}
	c := e.Chart
	if c.Encoding != nil && c.Encoding.Y != nil && c.Encoding.X != nil {
		return fmt.Sprintf("%s by %s", Humanize(c.Encoding.Y.Field), Humanize(c.Encoding.X.Field))
	}
	return c.Title
}

// ReadCharts parses a report written by Write and returns the embedded
// charts in document order.
func ReadCharts(r io.Reader) ([]charts.Chart, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("report: parse html: %w", err)
	}

	var out []charts.Chart
	var parseErr error
	doc.Find("section.chart script.chart-spec").EachWithBreak(func(i int, s *goquery.Selection) bool {
		var c charts.Chart
		if err := json.Unmarshal([]byte(s.Text()), &c); err != nil {
			parseErr = fmt.Errorf("report: chart %d spec: %w", i, err)
			return false
		}
		out = append(out, c)
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return out, nil
}
