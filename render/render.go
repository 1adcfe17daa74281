// Package render draws the summary charts from the final report tables.
// It only ever consumes joined/aggregated tables, never raw artifacts, and
// a chart whose input columns are missing is skipped without failing the
// remaining charts.
package render

import (
	"image/color"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"usbip-report/table"
)

const (
	chartWidth  = 9 * vg.Inch
	chartHeight = 5 * vg.Inch
)

func colorRGBA(r, g, b, a uint8) color.RGBA {
	return color.RGBA{R: r, G: g, B: b, A: a}
}

// palette matches the series order across charts.
var palette = []color.RGBA{
	colorRGBA(54, 162, 235, 255),  // blue
	colorRGBA(255, 99, 132, 255),  // pinkish-red
	colorRGBA(75, 192, 120, 255),  // green
	colorRGBA(255, 159, 64, 255),  // orange
	colorRGBA(153, 102, 255, 255), // purple
	colorRGBA(255, 205, 86, 255),  // yellow
	colorRGBA(96, 125, 139, 255),  // slate
	colorRGBA(201, 60, 32, 255),   // brick
}

func paletteColor(i int) color.RGBA {
	return palette[i%len(palette)]
}

func newChart(title, xLabel, yLabel string, logY bool) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	if logY {
		p.Y.Scale = plot.LogScale{}
		p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	}
	p.Add(plotter.NewGrid())
	p.Legend.Top = true
	return p
}

// addLineSeries draws one named line-with-markers series.
func addLineSeries(p *plot.Plot, name string, xys plotter.XYs, c color.RGBA) error {
	if len(xys) == 0 {
		return nil
	}
	line, points, err := plotter.NewLinePoints(xys)
	if err != nil {
		return err
	}
	line.Color = c
	points.Color = c
	p.Add(line, points)
	p.Legend.Add(name, line, points)
	return nil
}

// group is the rows sharing one (jobname, rw) pair.
type group struct {
	Job  string
	RW   string
	Rows []table.Row
}

func (g group) label() string { return g.Job + ":" + g.RW }

// groupJobRW buckets summary rows by (jobname, rw), dropping rows without a
// numeric delay, and sorts each bucket by delay so lines run left to right.
func groupJobRW(t *table.Table) []group {
	byKey := map[string]*group{}
	var order []string
	for _, r := range t.Rows() {
		if _, ok := r.Float("delay_ms"); !ok {
			continue
		}
		key := r.String("jobname") + "\x1f" + r.String("rw")
		g, ok := byKey[key]
		if !ok {
			g = &group{Job: r.String("jobname"), RW: r.String("rw")}
			byKey[key] = g
			order = append(order, key)
		}
		g.Rows = append(g.Rows, r)
	}
	sort.Strings(order)
	out := make([]group, 0, len(order))
	for _, key := range order {
		g := byKey[key]
		sort.SliceStable(g.Rows, func(i, j int) bool {
			a, _ := g.Rows[i].Float("delay_ms")
			b, _ := g.Rows[j].Float("delay_ms")
			return a < b
		})
		out = append(out, *g)
	}
	return out
}

// seriesXY collects (xCol, yCol) points from rows. Rows missing either cell
// are dropped; on log-scale charts nonpositive y values are dropped too
// since they cannot be placed.
func seriesXY(rows []table.Row, xCol, yCol string, logY bool, scaleY float64) plotter.XYs {
	var xys plotter.XYs
	for _, r := range rows {
		x, ok := r.Float(xCol)
		if !ok {
			continue
		}
		y, ok := r.Float(yCol)
		if !ok {
			continue
		}
		y *= scaleY
		if logY && y <= 0 {
			continue
		}
		xys = append(xys, plotter.XY{X: x, Y: y})
	}
	return xys
}

func hasColumns(t *table.Table, cols ...string) bool {
	for _, c := range cols {
		if !t.HasColumn(c) {
			return false
		}
	}
	return true
}
