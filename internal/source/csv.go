// Package source loads tabular results from files. SQL-backed providers live
// in the sqlds and postgres subpackages; this package covers CSV and JSON.
package source

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sfc-gh-sweingartner/CortexCharts/pkg/table"
)

// CSVOptions tunes FromCSV. The zero value reads comma-separated data with
// no row cap.
type CSVOptions struct {
	Delimiter rune
	MaxRows   int // 0 = unlimited
}

// FromCSV reads CSV data into a table.
//
// Typing is deliberately coarse: a column where every non-empty cell parses
// as a number becomes numeric, everything else stays categorical text. Date
// strings are NOT converted here; the classifier's recovery pass owns that,
// the same way it does for SQL results that deliver dates as varchar.
func FromCSV(r io.Reader, opts CSVOptions) (*table.Table, error) {
	delim := opts.Delimiter
	if delim == 0 {
		delim = ','
	}

	cr := csv.NewReader(r)
	cr.Comma = delim
	cr.FieldsPerRecord = -1 // validated manually
	cr.LazyQuotes = true

	headers, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return table.New()
		}
		return nil, fmt.Errorf("source: read csv header: %w", err)
	}
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}

	rows := make([][]string, 0, 1024)
	for {
		rec, err := cr.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("source: read csv: %w", err)
		}
		if len(rec) != len(headers) {
			continue
		}
		for i := range rec {
			rec[i] = strings.TrimSpace(rec[i])
		}
		rows = append(rows, rec)
		if opts.MaxRows > 0 && len(rows) >= opts.MaxRows {
			break
		}
	}

	cols := make([]table.Column, len(headers))
	for i, name := range headers {
		cols[i] = buildCSVColumn(name, rows, i)
	}
	return table.New(cols...)
}

func buildCSVColumn(name string, rows [][]string, idx int) table.Column {
	numeric := false
	seen := false
	allNum := true
	for _, r := range rows {
		v := r[idx]
		if v == "" {
			continue
		}
		seen = true
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			allNum = false
			break
		}
	}
	numeric = seen && allNum

	vals := make([]any, len(rows))
	for i, r := range rows {
		v := r[idx]
		if v == "" {
			continue
		}
		if numeric {
			f, _ := strconv.ParseFloat(v, 64)
			vals[i] = f
		} else {
			vals[i] = v
		}
	}

	kind := table.Categorical
	if numeric {
		kind = table.Numeric
	}
	return table.Column{Name: name, Kind: kind, Values: vals}
}
