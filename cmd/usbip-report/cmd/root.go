// Package cmd wires the report pipeline into a CLI.
package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"usbip-report/pipeline"
)

type flags struct {
	root        string
	out         string
	metricsFile string
	parquet     bool
	verbose     bool
}

// RootCmd is the root Cobra command that gets called from the main func.
// All sub-commands are registered here.
func RootCmd() *cobra.Command {
	f := &flags{}
	cmd := &cobra.Command{
		Use:          "usbip-report",
		Short:        "Aggregate usbip fio experiment artifacts into tables and charts.",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&f.root, "root", "", "results directory, .tar.gz archive, or s3:// URI (required)")
	cmd.PersistentFlags().StringVar(&f.out, "out", "./out", "output directory for tables and plots")
	cmd.PersistentFlags().StringVar(&f.metricsFile, "metrics-file", "", "also write aggregate gauges to this Prometheus textfile")
	cmd.PersistentFlags().BoolVar(&f.parquet, "parquet", false, "also write the joined summary as parquet")
	cmd.PersistentFlags().BoolVarP(&f.verbose, "verbose", "v", false, "enable debug logging")
	cmd.MarkPersistentFlagRequired("root")

	cmd.AddCommand(
		aggregateCmd(f),
		casesCmd(f),
	)
	return cmd
}

// aggregateCmd processes the flat layout: one profile.env-marked directory
// per run.
func aggregateCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "aggregate",
		Short: "Aggregate a flat results layout (per-run profile.env directories).",
		RunE: func(cmd *cobra.Command, args []string) error {
			return pipeline.Run(pipeline.LayoutRuns, f.options())
		},
	}
}

// casesCmd processes the nested layout: results/<run_id>/<case_id>/.
func casesCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "cases",
		Short: "Aggregate a nested results layout (run/case directories with events).",
		RunE: func(cmd *cobra.Command, args []string) error {
			return pipeline.Run(pipeline.LayoutCases, f.options())
		},
	}
}

func (f *flags) options() pipeline.Options {
	log := logrus.New()
	if f.verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	return pipeline.Options{
		Input:       f.root,
		Out:         f.out,
		MetricsFile: f.metricsFile,
		Parquet:     f.parquet,
		Log:         log,
	}
}
