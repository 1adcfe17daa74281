package storage

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"usbip-report/table"
)

// MetricsExporter aggregates the report tables into Prometheus gauges and
// writes them in text exposition format, so a node-exporter textfile
// collector can pick the numbers up next to the CSV report.
type MetricsExporter struct {
	registry *prometheus.Registry

	runsGauge      prometheus.Gauge
	jobRowsGauge   prometheus.Gauge
	netRowsGauge   prometheus.Gauge
	casesGauge     prometheus.Gauge
	bandwidthGauge *prometheus.GaugeVec
	iopsGauge      *prometheus.GaugeVec
	signatureGauge *prometheus.GaugeVec
}

// NewMetricsExporter creates an exporter with its own registry so repeated
// pipeline invocations in one process do not collide.
func NewMetricsExporter() *MetricsExporter {
	m := &MetricsExporter{
		registry: prometheus.NewRegistry(),
		runsGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "usbip_report_runs",
			Help: "Number of benchmark runs discovered",
		}),
		jobRowsGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "usbip_report_job_rows",
			Help: "Number of (job, direction) result rows extracted",
		}),
		netRowsGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "usbip_report_net_rows",
			Help: "Number of runs with a network snapshot",
		}),
		casesGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "usbip_report_cases",
			Help: "Number of cases discovered",
		}),
		bandwidthGauge: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "usbip_report_max_bandwidth_kib",
			Help: "Best observed bandwidth per job and direction in KiB/s",
		}, []string{"jobname", "rw"}),
		iopsGauge: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "usbip_report_max_iops",
			Help: "Best observed IOPS per job and direction",
		}, []string{"jobname", "rw"}),
		signatureGauge: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "usbip_report_signature_count",
			Help: "Total anomaly signature matches across all cases",
		}, []string{"signature"}),
	}
	m.registry.MustRegister(
		m.runsGauge,
		m.jobRowsGauge,
		m.netRowsGauge,
		m.casesGauge,
		m.bandwidthGauge,
		m.iopsGauge,
		m.signatureGauge,
	)
	return m
}

// ObserveFlat records the flat-layout aggregation results.
func (m *MetricsExporter) ObserveFlat(profiles, fio, net *table.Table) {
	m.runsGauge.Set(float64(profiles.Len()))
	m.jobRowsGauge.Set(float64(fio.Len()))
	m.netRowsGauge.Set(float64(net.Len()))

	type best struct{ bw, iops float64 }
	byKey := map[[2]string]*best{}
	for _, r := range fio.Rows() {
		key := [2]string{r.String("jobname"), r.String("rw")}
		b, ok := byKey[key]
		if !ok {
			b = &best{}
			byKey[key] = b
		}
		if v, ok := r.Float("bw_kib_s"); ok && v > b.bw {
			b.bw = v
		}
		if v, ok := r.Float("iops"); ok && v > b.iops {
			b.iops = v
		}
	}
	for key, b := range byKey {
		m.bandwidthGauge.WithLabelValues(key[0], key[1]).Set(b.bw)
		m.iopsGauge.WithLabelValues(key[0], key[1]).Set(b.iops)
	}
}

// ObserveCases records the nested-layout aggregation results.
func (m *MetricsExporter) ObserveCases(runs *table.Table, sigNames []string) {
	m.casesGauge.Set(float64(runs.Len()))
	for _, name := range sigNames {
		total := 0.0
		for _, r := range runs.Rows() {
			if v, ok := r.Float(name); ok {
				total += v
			}
		}
		m.signatureGauge.WithLabelValues(name).Set(total)
	}
}

// WriteTextfile writes the gathered metrics to path in Prometheus text
// exposition format.
func (m *MetricsExporter) WriteTextfile(path string) error {
	families, err := m.registry.Gather()
	if err != nil {
		return errors.Wrap(err, "gather metrics")
	}
	var buf bytes.Buffer
	enc := expfmt.NewEncoder(&buf, expfmt.FmtText)
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return errors.Wrapf(err, "encode metric family %s", mf.GetName())
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "create directory for %s", path)
	}
	return errors.Wrapf(os.WriteFile(path, buf.Bytes(), 0o644), "write %s", path)
}
