package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sfc-gh-sweingartner/CortexCharts/internal/emit"
)

var emitOut string

var emitCmd = &cobra.Command{
	Use:   "emit <data-file>",
	Short: "Pick a chart for a result and print standalone Go source for it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tbl, err := loadTable(args[0])
		if err != nil {
			return err
		}

		spec, _, err := pipeline(tbl)
		if err != nil {
			return noChartErr(err)
		}

		src := emit.Source(spec)
		if emitOut == "" {
			fmt.Print(src)
			return nil
		}
		return os.WriteFile(emitOut, []byte(src), 0o644)
	},
}

func init() {
	emitCmd.Flags().StringVarP(&emitOut, "out", "o", "", "write generated source to a file instead of stdout")
	rootCmd.AddCommand(emitCmd)
}
