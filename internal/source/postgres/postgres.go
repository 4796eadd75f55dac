// Package postgres executes queries through pgx and shapes the result into a
// table.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sfc-gh-sweingartner/CortexCharts/pkg/table"
)

// Querier is the slice of the pgx API the provider needs. *pgxpool.Pool and
// *pgx.Conn both satisfy it.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Connect opens a pgx pool for the DSN.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	return pool, nil
}

// Query runs the statement and converts the result set into a table. Column
// kinds derive from the result type OIDs. maxRows 0 means unlimited.
func Query(ctx context.Context, q Querier, sql string, maxRows int) (*table.Table, error) {
	rows, err := q.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("postgres: query: %w", err)
	}
	defer rows.Close()

	fds := rows.FieldDescriptions()
	cols := make([]table.Column, len(fds))
	for i, fd := range fds {
		cols[i] = table.Column{Name: fd.Name, Kind: kindForOID(fd.DataTypeOID)}
	}

	n := 0
	for rows.Next() {
		if maxRows > 0 && n >= maxRows {
			break
		}
		vals, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("postgres: row %d values: %w", n, err)
		}
		for i := range cols {
			cols[i].Values = append(cols[i].Values, normalizeCell(vals[i]))
		}
		n++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate rows: %w", err)
	}

	return table.New(cols...)
}

// kindForOID maps a result type OID onto a semantic column kind. Unknown
// OIDs fall back to categorical.
func kindForOID(oid uint32) table.Kind {
	switch oid {
	case pgtype.DateOID, pgtype.TimestampOID, pgtype.TimestamptzOID:
		return table.Temporal
	case pgtype.Int2OID, pgtype.Int4OID, pgtype.Int8OID,
		pgtype.Float4OID, pgtype.Float8OID, pgtype.NumericOID:
		return table.Numeric
	default:
		return table.Categorical
	}
}

// normalizeCell widens pgx row values to table cell types.
func normalizeCell(v any) any {
	switch tv := v.(type) {
	case nil:
		return nil
	case int16:
		return float64(tv)
	case int32:
		return float64(tv)
	case int64:
		return float64(tv)
	case float32:
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
	case pgtype.Numeric:
		f, err := tv.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	default:
		return fmt.Sprint(tv)
	}
}
