// Command cortexcharts picks the best chart for a tabular result.
//
// Subcommands: suggest (file in, chart JSON out), query (run SQL, chart JSON
// out), render (file(s) in, HTML report out), emit (file in, Go chart source
// out).
package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/sfc-gh-sweingartner/CortexCharts/pkg/charts"
	"github.com/sfc-gh-sweingartner/CortexCharts/internal/classify"
	"github.com/sfc-gh-sweingartner/CortexCharts/internal/config"
	"github.com/sfc-gh-sweingartner/CortexCharts/internal/metrics"
	"github.com/sfc-gh-sweingartner/CortexCharts/internal/metrics/datadog"
	"github.com/sfc-gh-sweingartner/CortexCharts/internal/rules"
	"github.com/sfc-gh-sweingartner/CortexCharts/pkg/selector"
	"github.com/sfc-gh-sweingartner/CortexCharts/internal/source"
	"github.com/sfc-gh-sweingartner/CortexCharts/pkg/table"
)

var (
	cfgFile string
	cfg     *config.Config

	runID   string
	logger  *log.Logger
	backend metrics.Backend

	// set when the datadog backend is active, flushed on exit
	metricsClose func() error
)

var rootCmd = &cobra.Command{
	Use:           "cortexcharts",
	Short:         "Automatic chart selection for tabular query results",
	SilenceUsage:  true,
	SilenceErrors: false,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}

		runID = strings.SplitN(uuid.NewString(), "-", 2)[0]
		logger = log.New(os.Stderr, "cortexcharts["+runID+"] ", log.LstdFlags)

		backend = metrics.Nop{}
		if cfg.Metrics.Enabled {
			dd, err := datadog.NewBackend(cmd.Context(), datadog.Options{
				JobName:    cfg.Metrics.JobName,
				Tags:       append(datadog.ParseTagsCSV(cfg.Metrics.Tags), "run:"+runID),
				FlushEvery: time.Duration(cfg.Metrics.FlushSeconds) * time.Second,
			})
			if err != nil {
				return fmt.Errorf("metrics init: %w", err)
			}
			backend = dd
			metricsClose = dd.Close
		}
		return nil
	},

	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if metricsClose != nil {
			if err := metricsClose(); err != nil {
				logger.Printf("stage=shutdown warn=%q", err.Error())
			}
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./cortexcharts.yaml)")
}

// loadTable reads a CSV, JSON or NDJSON file into a row-capped table.
func loadTable(path string) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return source.FromCSV(f, source.CSVOptions{MaxRows: cfg.MaxRows})
	case ".json", ".ndjson", ".jsonl":
		return source.FromJSON(f, cfg.MaxRows)
	default:
		return nil, fmt.Errorf("unsupported input format %q (want .csv, .json or .ndjson)", ext)
	}
}

// loadOverrides resolves the override allow-list: built-ins plus the
// configured YAML file, if any.
func loadOverrides() ([]rules.Override, error) {
	if cfg.OverridesPath == "" {
		return rules.DefaultOverrides(), nil
	}
	return rules.LoadOverrides(cfg.OverridesPath)
}

// pipeline runs classify and select over a table and returns the winning
// spec plus the classification.
func pipeline(tbl *table.Table) (charts.Spec, classify.Classification, error) {
	overrides, err := loadOverrides()
	if err != nil {
		return charts.Spec{}, classify.Classification{}, err
	}

	start := time.Now()
	cls := classify.Classify(tbl)
	backend.Observe(metrics.MetricClassifySeconds, time.Since(start).Seconds(), nil)
	logger.Printf("stage=classify ok duration=%s temporal=%d categorical=%d numeric=%d",
		time.Since(start), len(cls.Temporal), len(cls.Categorical), len(cls.Numeric))

	engine := &rules.Engine{Overrides: overrides, Logger: logger, Metrics: backend}
	spec, err := engine.Select(tbl, cls)
	if err != nil {
		return charts.Spec{}, cls, err
	}
	return spec, cls, nil
}

// buildChart finishes the pipeline for one table: select then build, with a
// process-local selector store (fresh defaults per run).
func buildChart(tbl *table.Table) (*charts.Chart, error) {
	spec, _, err := pipeline(tbl)
	if err != nil {
		return nil, err
	}
	return charts.Build(tbl, spec, charts.Options{Selections: selector.NewMemStore()})
}

// noChartErr maps the engine sentinel onto the user-facing message.
func noChartErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, rules.ErrNoMatch) {
		return fmt.Errorf("no appropriate chart found for this data")
	}
	return err
}
