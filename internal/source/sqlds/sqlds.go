// Package sqlds executes queries through database/sql and shapes the result
// into a table. Registered drivers: sqlite (pure-Go modernc build) and SQL
// Server. Postgres goes through the pgx-native sibling package instead.
package sqlds

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/microsoft/go-mssqldb"
	_ "modernc.org/sqlite"

	"github.com/sfc-gh-sweingartner/CortexCharts/pkg/table"
)

// driverNames maps the provider kind to the registered driver.
var driverNames = map[string]string{
	"sqlite": "sqlite",
	"mssql":  "sqlserver",
}

// Open opens a database handle for the given provider kind ("sqlite" or
// "mssql") and DSN.
func Open(kind, dsn string) (*sql.DB, error) {
	driver, ok := driverNames[kind]
	if !ok {
		return nil, fmt.Errorf("sqlds: unknown provider kind %q", kind)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlds: open %s: %w", kind, err)
	}
	return db, nil
}

// Query runs the statement and converts the result set into a table.
// Column kinds come from the driver's declared database types; values are
// widened to the table cell types (float64, time.Time, string). maxRows 0
// means unlimited.
func Query(ctx context.Context, db *sql.DB, query string, maxRows int) (*table.Table, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("sqlds: query: %w", err)
	}
	defer rows.Close()

	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("sqlds: column types: %w", err)
	}

	cols := make([]table.Column, len(types))
	for i, ct := range types {
		cols[i] = table.Column{
			Name: ct.Name(),
			Kind: kindForDBType(ct.DatabaseTypeName()),
		}
	}

	scan := make([]any, len(cols))
	for i := range scan {
		scan[i] = new(any)
	}
	n := 0
	for rows.Next() {
		if maxRows > 0 && n >= maxRows {
			break
		}
		if err := rows.Scan(scan...); err != nil {
			return nil, fmt.Errorf("sqlds: scan row %d: %w", n, err)
		}
		for i := range cols {
			cols[i].Values = append(cols[i].Values, normalizeCell(*(scan[i].(*any))))
		}
		n++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlds: iterate rows: %w", err)
	}

	return table.New(cols...)
}

// kindForDBType maps a driver-reported database type name onto a semantic
// column kind. Unknown types fall back to categorical; the classifier's date
// recovery picks up date-in-varchar cases later.
func kindForDBType(name string) table.Kind {
	switch strings.ToUpper(name) {
	case "DATE", "DATETIME", "DATETIME2", "SMALLDATETIME", "TIMESTAMP", "TIMESTAMPTZ", "DATETIMEOFFSET":
		return table.Temporal
	case "INT", "INTEGER", "BIGINT", "SMALLINT", "TINYINT",
		"REAL", "FLOAT", "DOUBLE", "NUMERIC", "DECIMAL", "MONEY":
		return table.Numeric
	default:
		return table.Categorical
	}
}

// normalizeCell widens driver scan values to table cell types.
func normalizeCell(v any) any {
	switch tv := v.(type) {
	case nil:
		return nil
	case int64:
		return float64(tv)
	case float64, time.Time, string:
		return tv
	case []byte:
		return string(tv)
	case bool:
		if tv {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprint(tv)
	}
}
