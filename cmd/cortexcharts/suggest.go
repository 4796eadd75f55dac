package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sfc-gh-sweingartner/CortexCharts/internal/classify"
)

var (
	suggestReport bool
	suggestOut    string
)

var suggestCmd = &cobra.Command{
	Use:   "suggest <data-file>",
	Short: "Pick a chart for a CSV/JSON result and print it as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tbl, err := loadTable(args[0])
		if err != nil {
			return err
		}

		chart, err := buildChart(tbl)
		if err != nil {
			return noChartErr(err)
		}

		if suggestReport {
			cls := classify.Classify(tbl)
			os.Stderr.Write(classify.Report(tbl, cls))
		}

		out := os.Stdout
		if suggestOut != "" {
			f, err := os.Create(suggestOut)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}

		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(chart); err != nil {
			return fmt.Errorf("encode chart: %w", err)
		}
		return nil
	},
}

func init() {
	suggestCmd.Flags().BoolVar(&suggestReport, "report", false, "print a per-column classification summary to stderr")
	suggestCmd.Flags().StringVarP(&suggestOut, "out", "o", "", "write chart JSON to a file instead of stdout")
	rootCmd.AddCommand(suggestCmd)
}
