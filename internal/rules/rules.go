// Package rules implements the chart rule engine: an ordered decision list
// that maps a classified table to a chart spec.
//
// Evaluation order is part of the contract. Overrides run first, then the
// single-row KPI rule, then the count-based rules from most to least
// specific. The first matching rule wins and evaluation stops.
package rules

import (
	"errors"

	"github.com/sfc-gh-sweingartner/CortexCharts/pkg/charts"
	"github.com/sfc-gh-sweingartner/CortexCharts/internal/classify"
	"github.com/sfc-gh-sweingartner/CortexCharts/internal/metrics"
	"github.com/sfc-gh-sweingartner/CortexCharts/pkg/table"
)

// ErrNoMatch reports a column signature no rule covers. Callers surface it
// as "no appropriate chart found", not as a failure.
var ErrNoMatch = errors.New("rules: no appropriate chart for this column signature")

// Logger is the minimal logging surface the engine needs.
type Logger interface {
	Printf(format string, v ...any)
}

// Engine selects chart specs for classified tables. The zero value works:
// no overrides, no logging, no metrics.
type Engine struct {
	// Overrides are checked before all rules, in order.
	Overrides []Override

	Logger  Logger
	Metrics metrics.Backend
}

// Select walks the decision list and returns the spec of the first matching
// rule. On success the spec is also attached to the table as chart metadata
// (best effort: a table that already carries metadata keeps it). A signature
// no rule covers returns ErrNoMatch.
func (e *Engine) Select(tbl *table.Table, cls classify.Classification) (charts.Spec, error) {
	spec, ok := e.selectSpec(tbl, cls)
	if !ok {
		counts := cls.Counts()
		e.logf("stage=select ok=false temporal=%d categorical=%d numeric=%d rows=%d",
			counts.Temporal, counts.Categorical, counts.Numeric, tbl.NumRows())
		e.count(metrics.MetricChartsNoMatch, nil)
		return charts.Spec{}, ErrNoMatch
	}

	if err := tbl.SetChartMeta(spec.Meta()); err != nil {
		e.logf("stage=select warn=%q", err.Error())
	}

	counts := cls.Counts()
	e.logf("stage=select ok=true archetype=%s temporal=%d categorical=%d numeric=%d rows=%d",
		spec.Archetype, counts.Temporal, counts.Categorical, counts.Numeric, tbl.NumRows())
	e.count(metrics.MetricChartsSelected, metrics.Tags{"archetype": spec.Archetype.Tag()})
	return spec, nil
}

func (e *Engine) selectSpec(tbl *table.Table, cls classify.Classification) (charts.Spec, bool) {
	if spec, ok := e.matchOverride(tbl); ok {
		return spec, true
	}

	c := cls.Counts()

	// Single-row KPI comes before every count rule: a one-row aggregate
	// reads better as tiles than as a degenerate bar or scatter.
	if tbl.NumRows() == 1 && c.Numeric >= 1 && c.Numeric <= charts.MaxKPITiles && c.Categorical <= 1 {
		return charts.Spec{
			Archetype: charts.ArchetypeKPITiles,
			RoleLists: map[string][]string{
				charts.RoleNumericList: firstN(cls.Numeric, charts.MaxKPITiles),
			},
		}, true
	}

	switch {
	case c.Temporal == 1 && c.Categorical == 0 && c.Numeric == 1:
		return singleSpec(charts.ArchetypeDateBar, map[string]string{
			charts.RoleDate:    cls.Temporal[0],
			charts.RoleNumeric: cls.Numeric[0],
		}), true

	case c.Temporal == 1 && c.Categorical == 0 && c.Numeric == 2:
		return singleSpec(charts.ArchetypeDualAxisLine, map[string]string{
			charts.RoleDate: cls.Temporal[0],
			charts.RoleNum1: cls.Numeric[0],
			charts.RoleNum2: cls.Numeric[1],
		}), true

	case c.Temporal == 1 && c.Categorical == 1 && c.Numeric == 1:
		return singleSpec(charts.ArchetypeStackedDateBar, map[string]string{
			charts.RoleDate:    cls.Temporal[0],
			charts.RoleText:    cls.Categorical[0],
			charts.RoleNumeric: cls.Numeric[0],
		}), true

	case c.Temporal == 1 && c.Categorical >= 2 && c.Numeric == 1:
		// Every categorical becomes a color option.
		return charts.Spec{
			Archetype: charts.ArchetypeStackedBarPicker,
			Roles: map[string]string{
				charts.RoleDate:    cls.Temporal[0],
				charts.RoleNumeric: cls.Numeric[0],
			},
			RoleLists: map[string][]string{
				charts.RoleTextList: append([]string(nil), cls.Categorical...),
			},
		}, true

	case c.Temporal == 0 && c.Categorical == 1 && c.Numeric == 2:
		return singleSpec(charts.ArchetypeScatter, map[string]string{
			charts.RoleNum1: cls.Numeric[0],
			charts.RoleNum2: cls.Numeric[1],
			charts.RoleText: cls.Categorical[0],
		}), true

	case c.Temporal == 0 && c.Categorical == 2 && c.Numeric == 2:
		return singleSpec(charts.ArchetypeScatterShaped, map[string]string{
			charts.RoleNum1:  cls.Numeric[0],
			charts.RoleNum2:  cls.Numeric[1],
			charts.RoleText1: cls.Categorical[0],
			charts.RoleText2: cls.Categorical[1],
		}), true

	case c.Temporal == 0 && c.Categorical == 1 && c.Numeric == 3:
		return singleSpec(charts.ArchetypeBubble, map[string]string{
			charts.RoleNum1: cls.Numeric[0],
			charts.RoleNum2: cls.Numeric[1],
			charts.RoleNum3: cls.Numeric[2],
			charts.RoleText: cls.Categorical[0],
		}), true

	case c.Temporal == 0 && c.Categorical >= 2 && c.Numeric >= 3:
		return singleSpec(charts.ArchetypeBubbleShaped, map[string]string{
			charts.RoleNum1:  cls.Numeric[0],
			charts.RoleNum2:  cls.Numeric[1],
			charts.RoleNum3:  cls.Numeric[2],
			charts.RoleText1: cls.Categorical[0],
			charts.RoleText2: cls.Categorical[1],
		}), true

	case c.Temporal == 0 && c.Numeric == 1 && c.Categorical >= 1:
		return charts.Spec{
			Archetype: charts.ArchetypeRankedBar,
			Roles:     map[string]string{charts.RoleNumeric: cls.Numeric[0]},
			RoleLists: map[string][]string{
				charts.RoleTextList: firstN(cls.Categorical, charts.MaxRankedBarPickers),
			},
		}, true
	}

	return charts.Spec{}, false
}

func singleSpec(a charts.Archetype, roles map[string]string) charts.Spec {
	return charts.Spec{Archetype: a, Roles: roles}
}

func firstN(cols []string, n int) []string {
	if len(cols) > n {
		cols = cols[:n]
	}
	return append([]string(nil), cols...)
}

func (e *Engine) logf(format string, v ...any) {
	if e.Logger != nil {
		e.Logger.Printf(format, v...)
	}
}

func (e *Engine) count(name string, tags metrics.Tags) {
	if e.Metrics != nil {
		e.Metrics.Count(name, 1, tags)
	}
}
