package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sfc-gh-sweingartner/CortexCharts/internal/report"
	"github.com/sfc-gh-sweingartner/CortexCharts/internal/rules"
)

var renderOut string

var renderCmd = &cobra.Command{
	Use:   "render <data-file>...",
	Short: "Build charts for one or more result files and write an HTML report",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var entries []report.Entry
		for _, path := range args {
			tbl, err := loadTable(path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			chart, err := buildChart(tbl)
			if err != nil {
				// Results no rule covers are skipped, not fatal.
				if errors.Is(err, rules.ErrNoMatch) {
					logger.Printf("stage=render skip=%s reason=nomatch", path)
					continue
				}
				return fmt.Errorf("%s: %w", path, err)
			}
			entries = append(entries, report.Entry{Chart: chart})
		}
		if len(entries) == 0 {
			return fmt.Errorf("no appropriate chart found for any input")
		}

		f, err := os.Create(renderOut)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := report.Write(f, entries); err != nil {
			return err
		}
		logger.Printf("stage=render ok charts=%d out=%s", len(entries), renderOut)
		return nil
	},
}

func init() {
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "report.html", "output HTML file")
	rootCmd.AddCommand(renderCmd)
}
