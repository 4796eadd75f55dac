// Package classify assigns chart-relevant semantic kinds to the columns of a
// tabular result.
//
// Declared kinds from the provider are trusted: temporal columns stay
// temporal, numeric columns stay numeric. When the provider declared no
// temporal column at all, the classifier attempts date recovery over string
// columns, since SQL results frequently carry dates as text. Recovery is
// best-effort and never fails: a table that yields nothing useful simply
// classifies everything as categorical.
package classify

import (
	"strings"
	"time"

	"github.com/sfc-gh-sweingartner/CortexCharts/pkg/table"
)

// promoteThreshold is the minimum share of non-null values that must parse as
// dates before a string column is promoted to temporal.
const promoteThreshold = 0.9

// dateNameTokens mark column names that are likely to hold dates. Candidates
// whose lowercased name contains one of these are tried before other string
// columns.
var dateNameTokens = []string{"date", "month", "year", "day", "time", "dt", "period"}

var dateLayouts = []string{
	"2006-01-02",
	"02.01.2006",
	"02/01/2006",
	"01/02/2006",
	"2006-01",
	"Jan 2006",
	"January 2006",
}

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05.000Z07:00",
	"02.01.2006 15:04:05",
}

// Classification lists column names per effective kind, preserving table
// column order within each list.
type Classification struct {
	Temporal    []string
	Numeric     []string
	Categorical []string

	// Promoted names the column converted by date recovery, if any.
	Promoted string
}

// Counts is the signature the rule engine dispatches on.
type Counts struct {
	Temporal    int
	Numeric     int
	Categorical int
}

// Counts returns the per-kind column counts.
func (c Classification) Counts() Counts {
	return Counts{
		Temporal:    len(c.Temporal),
		Numeric:     len(c.Numeric),
		Categorical: len(c.Categorical),
	}
}

// Classify determines the effective kind of every column in tbl.
//
// When date recovery promotes a column, tbl is mutated in place: the
// column's values become time.Time (unparsable cells become null) and its
// kind flips to temporal. At most one column is promoted per call.
// Classify is idempotent: re-running it on the mutated table yields the
// same classification.
func Classify(tbl *table.Table) Classification {
	var out Classification

	for _, c := range tbl.Columns() {
		switch c.Kind {
		case table.Temporal:
			out.Temporal = append(out.Temporal, c.Name)
		case table.Numeric:
			out.Numeric = append(out.Numeric, c.Name)
		}
	}

	if len(out.Temporal) == 0 {
		if name := recoverDate(tbl); name != "" {
			out.Temporal = append(out.Temporal, name)
			out.Promoted = name
		}
	}

	temporal := make(map[string]bool, len(out.Temporal))
	for _, n := range out.Temporal {
		temporal[n] = true
	}
	for _, c := range tbl.Columns() {
		if c.Kind == table.Numeric || temporal[c.Name] {
			continue
		}
		out.Categorical = append(out.Categorical, c.Name)
	}

	return out
}

// recoverDate scans string columns for one that parses as dates and promotes
// it. Candidates with a date-like token in their name are tried first, in
// table column order, then the remaining string columns. Scanning stops at
// the first promotion. Returns the promoted column name or "".
func recoverDate(tbl *table.Table) string {
	var tokenCands, otherCands []string
	for _, c := range tbl.Columns() {
		if c.Kind != table.Categorical {
			continue
		}
		if hasDateToken(c.Name) {
			tokenCands = append(tokenCands, c.Name)
		} else {
			otherCands = append(otherCands, c.Name)
		}
	}

	for _, name := range append(tokenCands, otherCands...) {
		col, _ := tbl.Column(name)
		parsed, ok := tryParseColumn(col)
		if !ok {
			continue
		}
		// Best effort: a failed swap just leaves the column categorical.
		if err := tbl.ReplaceColumnValues(name, table.Temporal, parsed); err != nil {
			continue
		}
		return name
	}
	return ""
}

// tryParseColumn parses every non-null cell as a date. It succeeds when the
// column has at least one non-null value and the parse rate meets the
// promotion threshold. The returned vector has time.Time for parsed cells and
// nil for nulls and parse failures.
func tryParseColumn(col *table.Column) ([]any, bool) {
	parsed := make([]any, len(col.Values))
	nonNull, hits := 0, 0
	for i := range col.Values {
		if col.IsNull(i) {
			continue
		}
		nonNull++
		s, _ := col.String(i)
		if t, ok := ParseTemporal(s); ok {
			parsed[i] = t
			hits++
		}
	}
	if nonNull == 0 {
		return nil, false
	}
	if float64(hits)/float64(nonNull) < promoteThreshold {
		return nil, false
	}
	return parsed, true
}

func hasDateToken(name string) bool {
	lower := strings.ToLower(name)
	for _, tok := range dateNameTokens {
		if strings.Contains(lower, tok) {
			return true
		}
	}
	return false
}

// ParseTemporal parses s against the known date and timestamp layouts.
// Shared with the result providers, which use it to type raw text cells.
func ParseTemporal(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, lay := range dateLayouts {
		if t, err := time.Parse(lay, s); err == nil {
			return t, true
		}
	}
	for _, lay := range timestampLayouts {
		if t, err := time.Parse(lay, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
