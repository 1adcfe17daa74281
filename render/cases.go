package render

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"usbip-report/table"
)

// CaseCharts renders the per-case charts from the nested-layout summary
// table into plotDir. Rows are ordered by injection length (missing last)
// then case id so bars line up across charts.
func CaseCharts(runs *table.Table, sigNames []string, plotDir string, log *logrus.Logger) error {
	if err := os.MkdirAll(plotDir, 0o755); err != nil {
		return errors.Wrapf(err, "create plot directory %s", plotDir)
	}
	rows := sortedCaseRows(runs)
	caseIDs := make([]string, len(rows))
	for i, r := range rows {
		caseIDs[i] = r.String("case_id")
	}

	if runs.HasColumn("bw_kib_s") {
		if err := caseBarChart(rows, caseIDs, "bw_kib_s",
			"FIO write bandwidth by case", "bw (KiB/s)",
			filepath.Join(plotDir, "bw_kib_s_by_case.png")); err != nil {
			return errors.Wrap(err, "render bw_kib_s_by_case.png")
		}
	}
	if runs.HasColumn("clat_max_s") {
		if err := caseBarChart(rows, caseIDs, "clat_max_s",
			"FIO max completion latency by case", "clat max (s)",
			filepath.Join(plotDir, "clat_max_s_by_case.png")); err != nil {
			return errors.Wrap(err, "render clat_max_s_by_case.png")
		}
	}
	if err := casePercentileChart(runs, rows, caseIDs, filepath.Join(plotDir, "clat_percentiles_by_case.png")); err != nil {
		return errors.Wrap(err, "render clat_percentiles_by_case.png")
	}
	if err := signatureStackChart(runs, rows, caseIDs, sigNames, filepath.Join(plotDir, "log_signatures_stacked.png")); err != nil {
		return errors.Wrap(err, "render log_signatures_stacked.png")
	}
	if err := wallVsInjectionChart(runs, rows, filepath.Join(plotDir, "fio_wall_vs_injection.png")); err != nil {
		return errors.Wrap(err, "render fio_wall_vs_injection.png")
	}
	log.WithField("dir", plotDir).Info("wrote case charts")
	return nil
}

func sortedCaseRows(runs *table.Table) []table.Row {
	rows := append([]table.Row(nil), runs.Rows()...)
	sort.SliceStable(rows, func(i, j int) bool {
		a, aok := rows[i].Float("inj_len_s")
		b, bok := rows[j].Float("inj_len_s")
		if aok != bok {
			return aok // rows with an injection length first
		}
		if aok && a != b {
			return a < b
		}
		return rows[i].String("case_id") < rows[j].String("case_id")
	})
	return rows
}

// columnValues renders one column as bar values, absent cells as zero.
func columnValues(rows []table.Row, col string) plotter.Values {
	vals := make(plotter.Values, len(rows))
	for i, r := range rows {
		if f, ok := r.Float(col); ok {
			vals[i] = f
		}
	}
	return vals
}

func caseBarChart(rows []table.Row, caseIDs []string, col, title, yLabel, path string) error {
	p := newChart(title, "", yLabel, false)
	bar, err := plotter.NewBarChart(columnValues(rows, col), vg.Points(20))
	if err != nil {
		return err
	}
	bar.Color = paletteColor(0)
	p.Add(bar)
	p.NominalX(caseIDs...)
	return p.Save(chartWidth, chartHeight, path)
}

var casePercentileCols = []struct {
	col   string
	label string
}{
	{"clat_p50_s", "p50"},
	{"clat_p95_s", "p95"},
	{"clat_p99_s", "p99"},
	{"clat_p999_s", "p99.9"},
}

// casePercentileChart draws the percentile family as lines over the case
// axis.
func casePercentileChart(runs *table.Table, rows []table.Row, caseIDs []string, path string) error {
	p := newChart("FIO clat percentiles by case", "", "clat percentile (s)", false)
	drew := false
	for i, pc := range casePercentileCols {
		if !runs.HasColumn(pc.col) {
			continue
		}
		var xys plotter.XYs
		for x, r := range rows {
			if y, ok := r.Float(pc.col); ok {
				xys = append(xys, plotter.XY{X: float64(x), Y: y})
			}
		}
		if err := addLineSeries(p, pc.label, xys, paletteColor(i)); err != nil {
			return err
		}
		drew = drew || len(xys) > 0
	}
	if !drew {
		return nil
	}
	p.NominalX(caseIDs...)
	return p.Save(chartWidth, chartHeight, path)
}

// signatureStackChart draws one stacked bar per case, one segment per
// anomaly signature.
func signatureStackChart(runs *table.Table, rows []table.Row, caseIDs []string, sigNames []string, path string) error {
	var present []string
	for _, name := range sigNames {
		if runs.HasColumn(name) {
			present = append(present, name)
		}
	}
	if len(present) == 0 {
		return nil
	}
	p := newChart("Kernel/USBIP log signature counts", "", "count", false)
	var prev *plotter.BarChart
	for i, name := range present {
		bar, err := plotter.NewBarChart(columnValues(rows, name), vg.Points(20))
		if err != nil {
			return err
		}
		bar.Color = paletteColor(i)
		bar.LineStyle.Width = 0
		if prev != nil {
			bar.StackOn(prev)
		}
		p.Add(bar)
		p.Legend.Add(name, bar)
		prev = bar
	}
	p.NominalX(caseIDs...)
	return p.Save(chartWidth, chartHeight, path)
}

// wallVsInjectionChart scatters fio wall time against injection length with
// a case-id label on each point.
func wallVsInjectionChart(runs *table.Table, rows []table.Row, path string) error {
	if !hasColumns(runs, "fio_wall_s", "inj_len_s") {
		return nil
	}
	var xys plotter.XYs
	var labels []string
	for _, r := range rows {
		x, xok := r.Float("inj_len_s")
		y, yok := r.Float("fio_wall_s")
		if !xok || !yok {
			continue
		}
		xys = append(xys, plotter.XY{X: x, Y: y})
		labels = append(labels, r.String("case_id"))
	}
	if len(xys) == 0 {
		return nil
	}
	p := newChart("fio wall time vs injection length", "injection length (s)", "fio wall time (s)", false)
	scatter, err := plotter.NewScatter(xys)
	if err != nil {
		return err
	}
	scatter.Color = paletteColor(0)
	p.Add(scatter)
	pointLabels, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: labels})
	if err != nil {
		return err
	}
	p.Add(pointLabels)
	return p.Save(chartWidth, chartHeight, path)
}
