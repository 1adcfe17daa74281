package pipeline

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"usbip-report/extract"
	"usbip-report/fetch"
	"usbip-report/render"
	"usbip-report/storage"
	"usbip-report/table"
)

// Layout selects which results layout the pipeline expects.
type Layout string

const (
	// LayoutRuns is the flat layout: one profile.env-marked directory per run.
	LayoutRuns Layout = "runs"
	// LayoutCases is the nested layout: results/<run_id>/<case_id>/.
	LayoutCases Layout = "cases"
)

// Options configures one pipeline invocation.
type Options struct {
	// Input is a results directory, a .tar.gz archive, or an s3:// URI
	// pointing at such an archive.
	Input string
	// Out is the report output directory; tables land there directly and
	// charts under plots/.
	Out string
	// MetricsFile, when set, additionally writes aggregate gauges in
	// Prometheus text exposition format (textfile-collector style).
	MetricsFile string
	// Parquet additionally writes the joined summary table as parquet.
	Parquet bool
	Log     *logrus.Logger
}

// Run executes the full extract-transform-aggregate-render pipeline once.
func Run(layout Layout, opts Options) error {
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	input := opts.Input
	if fetch.IsS3URI(input) {
		tmp, err := os.MkdirTemp("", "usbip-fetch-")
		if err != nil {
			return errors.Wrap(err, "create download directory")
		}
		defer os.RemoveAll(tmp)
		local, err := fetch.DownloadArchive(context.Background(), input, tmp)
		if err != nil {
			return err
		}
		log.WithField("uri", opts.Input).Info("downloaded results archive")
		input = local
	}

	root, cleanup, err := ResolveInput(input)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := os.MkdirAll(opts.Out, 0o755); err != nil {
		return errors.Wrapf(err, "create output directory %s", opts.Out)
	}
	plotDir := filepath.Join(opts.Out, "plots")

	switch layout {
	case LayoutCases:
		t, err := AggregateCases(root, log)
		if err != nil {
			return err
		}
		if err := writeTables(log, map[string]*table.Table{
			"summary_runs.csv":   t.Runs,
			"summary_events.csv": t.Events,
		}, opts.Out); err != nil {
			return err
		}
		if opts.Parquet {
			if err := storage.WriteTableParquet(t.Runs, filepath.Join(opts.Out, "summary_runs.parquet")); err != nil {
				return err
			}
		}
		if opts.MetricsFile != "" {
			m := storage.NewMetricsExporter()
			m.ObserveCases(t.Runs, signatureNames())
			if err := m.WriteTextfile(opts.MetricsFile); err != nil {
				return err
			}
		}
		if t.Runs.Len() > 0 {
			return render.CaseCharts(t.Runs, signatureNames(), plotDir, log)
		}
		return nil
	default:
		t, err := AggregateFlat(root, log)
		if err != nil {
			return err
		}
		if err := writeTables(log, map[string]*table.Table{
			"profile_table.csv": t.Profiles,
			"fio_table.csv":     t.Fio,
			"net_table.csv":     t.Net,
			"summary.csv":       t.Summary,
		}, opts.Out); err != nil {
			return err
		}
		if opts.Parquet {
			if err := storage.WriteTableParquet(t.Summary, filepath.Join(opts.Out, "summary.parquet")); err != nil {
				return err
			}
		}
		if opts.MetricsFile != "" {
			m := storage.NewMetricsExporter()
			m.ObserveFlat(t.Profiles, t.Fio, t.Net)
			if err := m.WriteTextfile(opts.MetricsFile); err != nil {
				return err
			}
		}
		if t.Summary.Len() > 0 {
			return render.FlatCharts(t.Summary, plotDir, log)
		}
		return nil
	}
}

func writeTables(log *logrus.Logger, tables map[string]*table.Table, out string) error {
	// fixed order so the log output is stable
	for _, name := range []string{
		"profile_table.csv", "fio_table.csv", "net_table.csv", "summary.csv",
		"summary_runs.csv", "summary_events.csv",
	} {
		t, ok := tables[name]
		if !ok {
			continue
		}
		path := filepath.Join(out, name)
		if err := t.WriteCSVFile(path); err != nil {
			return err
		}
		log.WithField("rows", t.Len()).Infof("wrote %s", path)
	}
	return nil
}

func signatureNames() []string {
	sigs := extract.DefaultSignatures()
	names := make([]string, len(sigs))
	for i, s := range sigs {
		names[i] = s.Name
	}
	return names
}
