package source

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/sfc-gh-sweingartner/CortexCharts/pkg/table"
)

// FromJSON reads a JSON array of flat objects, or newline-delimited JSON
// objects, into a table. Column order is the sorted union of field names.
//
// JSON numbers become numeric, everything else (strings, bools, nested
// values) is stringified as categorical; missing fields are null. MaxRows 0
// means unlimited.
func FromJSON(r io.Reader, maxRows int) (*table.Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("source: read json: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return table.New()
	}

	var records []map[string]any
	if data[0] == '[' {
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("source: parse json array: %w", err)
		}
	} else {
		sc := bufio.NewScanner(bytes.NewReader(data))
		sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
		for sc.Scan() {
			line := bytes.TrimSpace(sc.Bytes())
			if len(line) == 0 {
				continue
			}
			var rec map[string]any
			if err := json.Unmarshal(line, &rec); err != nil {
				return nil, fmt.Errorf("source: parse ndjson line %d: %w", len(records)+1, err)
			}
			records = append(records, rec)
		}
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("source: scan ndjson: %w", err)
		}
	}
	if maxRows > 0 && len(records) > maxRows {
		records = records[:maxRows]
	}

	fieldSet := map[string]bool{}
	for _, rec := range records {
		for k := range rec {
			fieldSet[k] = true
		}
	}
	fields := make([]string, 0, len(fieldSet))
	for k := range fieldSet {
		fields = append(fields, k)
	}
	sort.Strings(fields)

	cols := make([]table.Column, len(fields))
	for i, name := range fields {
		cols[i] = buildJSONColumn(name, records)
	}
	return table.New(cols...)
}

func buildJSONColumn(name string, records []map[string]any) table.Column {
	numeric := true
	seen := false
	for _, rec := range records {
		v, ok := rec[name]
		if !ok || v == nil {
			continue
		}
		seen = true
		if _, isNum := v.(float64); !isNum {
			numeric = false
			break
		}
	}
	numeric = numeric && seen

	vals := make([]any, len(records))
	for i, rec := range records {
		v, ok := rec[name]
		if !ok || v == nil {
			continue
		}
		if numeric {
			vals[i] = v.(float64)
		} else {
			switch tv := v.(type) {
			case string:
				vals[i] = tv
			case float64:
				vals[i] = fmt.Sprintf("%v", tv)
			case bool:
				if tv {
					vals[i] = "true"
				} else {
					vals[i] = "false"
				}
			default:
				b, _ := json.Marshal(tv)
				vals[i] = string(b)
			}
		}
	}

	kind := table.Categorical
	if numeric {
		kind = table.Numeric
	}
	return table.Column{Name: name, Kind: kind, Values: vals}
}
