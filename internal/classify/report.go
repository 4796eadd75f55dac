package classify

import (
	"fmt"
	"strings"

	"github.com/sfc-gh-sweingartner/CortexCharts/pkg/table"
)

// Report renders a small human-readable classification summary for tbl,
// one line per column plus a header. Intended for CLI output and debugging.
func Report(tbl *table.Table, cls Classification) []byte {
	effective := make(map[string]string)
	for _, n := range cls.Temporal {
		effective[n] = "temporal"
	}
	for _, n := range cls.Numeric {
		effective[n] = "numeric"
	}
	for _, n := range cls.Categorical {
		effective[n] = "categorical"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "rows=%d cols=%d\n", tbl.NumRows(), tbl.NumCols())
	fmt.Fprintf(&b, "column,kind,effective,promoted\n")
	for _, c := range tbl.Columns() {
		declared := c.Kind
		promoted := ""
		if c.Name == cls.Promoted {
			// Promotion already flipped the column to temporal; before it,
			// the column was a plain string column.
			declared = table.Categorical
			promoted = "yes"
		}
		fmt.Fprintf(&b, "%s,%s,%s,%s\n", c.Name, declared, effective[c.Name], promoted)
	}
	return []byte(b.String())
}
