package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sfc-gh-sweingartner/CortexCharts/internal/source/postgres"
	"github.com/sfc-gh-sweingartner/CortexCharts/internal/source/sqlds"
	"github.com/sfc-gh-sweingartner/CortexCharts/pkg/table"
)

var (
	queryBackend string
	queryDSN     string
)

var queryCmd = &cobra.Command{
	Use:   "query <sql>",
	Short: "Run a SQL statement and pick a chart for its result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tbl, err := runQuery(cmd, args[0])
		if err != nil {
			return err
		}
		logger.Printf("stage=query ok rows=%d cols=%d backend=%s", tbl.NumRows(), tbl.NumCols(), queryBackend)

		chart, err := buildChart(tbl)
		if err != nil {
			return noChartErr(err)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(chart)
	},
}

func runQuery(cmd *cobra.Command, sql string) (*table.Table, error) {
	ctx := cmd.Context()
	switch queryBackend {
	case "postgres":
		pool, err := postgres.Connect(ctx, queryDSN)
		if err != nil {
			return nil, err
		}
		defer pool.Close()
		return postgres.Query(ctx, pool, sql, cfg.MaxRows)

	case "sqlite", "mssql":
		db, err := sqlds.Open(queryBackend, queryDSN)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		return sqlds.Query(ctx, db, sql, cfg.MaxRows)

	default:
		return nil, fmt.Errorf("unknown backend %q (want postgres, sqlite or mssql)", queryBackend)
	}
}

func init() {
	queryCmd.Flags().StringVar(&queryBackend, "backend", "sqlite", "database backend: postgres, sqlite or mssql")
	queryCmd.Flags().StringVar(&queryDSN, "dsn", "", "database connection string")
	_ = queryCmd.MarkFlagRequired("dsn")
	rootCmd.AddCommand(queryCmd)
}
