package render

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"usbip-report/table"
)

// FlatCharts renders the delay-series charts from the flat-layout summary
// table into plotDir. Charts whose input columns are absent are skipped;
// the rest still render.
func FlatCharts(summary *table.Table, plotDir string, log *logrus.Logger) error {
	if err := os.MkdirAll(plotDir, 0o755); err != nil {
		return errors.Wrapf(err, "create plot directory %s", plotDir)
	}
	groups := groupJobRW(summary)

	charts := []struct {
		name string
		fn   func() error
	}{
		{"iops_vs_delay_log.png", func() error {
			return delaySeriesChart(summary, groups, plotDir, "iops_vs_delay_log.png",
				"IOPS vs injected delay", "IOPS", "iops", 1.0)
		}},
		{"bw_vs_delay_log.png", func() error {
			return delaySeriesChart(summary, groups, plotDir, "bw_vs_delay_log.png",
				"Bandwidth vs injected delay", "Bandwidth (MiB/s)", "bw_kib_s", 1.0/1024.0)
		}},
		{"total_ios_vs_delay_log.png", func() error {
			return delaySeriesChart(summary, groups, plotDir, "total_ios_vs_delay_log.png",
				"Completed IOs vs injected delay", "Total IOs completed", "total_ios", 1.0)
		}},
		{"tail_latency", func() error {
			return tailLatencyCharts(summary, groups, plotDir)
		}},
		{"slat_clat_mean", func() error {
			return slatClatCharts(summary, groups, plotDir)
		}},
	}
	for _, c := range charts {
		if err := c.fn(); err != nil {
			return errors.Wrapf(err, "render %s", c.name)
		}
	}
	log.WithField("dir", plotDir).Info("wrote summary charts")
	return nil
}

// delaySeriesChart draws one log-Y line per (job, rw) group of yCol against
// injected delay.
func delaySeriesChart(summary *table.Table, groups []group, plotDir, file, title, yLabel, yCol string, scaleY float64) error {
	if !hasColumns(summary, "delay_ms", yCol) {
		return nil
	}
	p := newChart(title, "Injected delay (ms)", yLabel, true)
	drew := false
	for i, g := range groups {
		xys := seriesXY(g.Rows, "delay_ms", yCol, true, scaleY)
		if err := addLineSeries(p, g.label(), xys, paletteColor(i)); err != nil {
			return err
		}
		drew = drew || len(xys) > 0
	}
	if !drew {
		// saving an empty log-scale plot panics in gonum/plot
		return nil
	}
	return p.Save(chartWidth, chartHeight, filepath.Join(plotDir, file))
}

var tailPercentileCols = []struct {
	col   string
	label string
}{
	{"clat_p50_ms", "p50"},
	{"clat_p95_ms", "p95"},
	{"clat_p99_ms", "p99"},
	{"clat_p99_9_ms", "p99.9"},
}

// tailLatencyCharts draws the percentile family against delay, one chart
// per (job, rw) group.
func tailLatencyCharts(summary *table.Table, groups []group, plotDir string) error {
	if !summary.HasColumn("delay_ms") {
		return nil
	}
	for _, g := range groups {
		p := newChart(
			fmt.Sprintf("Tail latency vs delay - %s:%s", g.Job, g.RW),
			"Injected delay (ms)", "Completion latency (ms)", true)
		drew := false
		for i, pc := range tailPercentileCols {
			if !summary.HasColumn(pc.col) {
				continue
			}
			xys := seriesXY(g.Rows, "delay_ms", pc.col, true, 1.0)
			if err := addLineSeries(p, pc.label, xys, paletteColor(i)); err != nil {
				return err
			}
			drew = drew || len(xys) > 0
		}
		if !drew {
			continue
		}
		file := fmt.Sprintf("tail_latency_%s_%s.png", g.Job, g.RW)
		if err := p.Save(chartWidth, chartHeight, filepath.Join(plotDir, file)); err != nil {
			return err
		}
	}
	return nil
}

// slatClatCharts draws submission vs completion mean latency per group.
func slatClatCharts(summary *table.Table, groups []group, plotDir string) error {
	if !hasColumns(summary, "delay_ms", "slat_mean_ms", "clat_mean_ms") {
		return nil
	}
	for _, g := range groups {
		slat := seriesXY(g.Rows, "delay_ms", "slat_mean_ms", true, 1.0)
		clat := seriesXY(g.Rows, "delay_ms", "clat_mean_ms", true, 1.0)
		if len(slat) == 0 && len(clat) == 0 {
			continue
		}
		p := newChart(
			fmt.Sprintf("slat vs clat mean - %s:%s", g.Job, g.RW),
			"Injected delay (ms)", "Mean latency component (ms)", true)
		if err := addLineSeries(p, "slat_mean_ms", slat, paletteColor(0)); err != nil {
			return err
		}
		if err := addLineSeries(p, "clat_mean_ms", clat, paletteColor(1)); err != nil {
			return err
		}
		file := fmt.Sprintf("slat_clat_mean_%s_%s.png", g.Job, g.RW)
		if err := p.Save(chartWidth, chartHeight, filepath.Join(plotDir, file)); err != nil {
			return err
		}
	}
	return nil
}
