package pipeline

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"usbip-report/extract"
	"usbip-report/table"
)

// Artifact file names inside a nested-layout case directory.
const (
	caseFioFile    = "fio.json"
	caseEventsFile = "events.csv"
	caseDmesgFile  = "dmesg_tail.log"
	caseUsbipFile  = "usbip_port.log"
)

var caseColumns = []string{
	"run_id", "case_id",
	"inj_mode", "inject_at_s", "inj_len_s",
	"injection_start_ts", "injection_end_ts",
	"run_start_ts", "fio_start_ts", "fio_end_ts", "fio_wall_s",
	"io_kbytes", "bw_kib_s", "iops", "runtime_s",
	"clat_mean_s", "clat_max_s",
	"clat_p50_s", "clat_p95_s", "clat_p99_s", "clat_p999_s",
	"clat_max_minus_inj_s",
}

var eventColumns = []string{"run_id", "case_id", "ts_iso", "event", "details"}

// CaseTables is the output of the nested-layout aggregation: one row per
// case plus the normalized event export.
type CaseTables struct {
	Runs   *table.Table
	Events *table.Table
}

// AggregateCases walks a nested results root (results/<run>/<case>/) and
// assembles the per-case summary and event tables. The per-case row merges
// the write-direction fio metrics (second-denominated), the event-derived
// lifecycle and injection fields, and the anomaly signature counts over the
// kernel and usbip logs.
func AggregateCases(root string, log *logrus.Logger) (*CaseTables, error) {
	cases, err := DiscoverCases(root)
	if err != nil {
		return nil, err
	}
	log.WithField("root", root).Infof("discovered %d cases", len(cases))

	sigs := extract.DefaultSignatures()
	cols := make([]string, 0, len(caseColumns)+len(sigs))
	cols = append(cols, caseColumns...)
	for _, s := range sigs {
		cols = append(cols, s.Name)
	}

	t := &CaseTables{
		Runs:   table.New(cols...),
		Events: table.New(eventColumns...),
	}

	for _, c := range cases {
		if err := appendCase(t, c, sigs, log); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func appendCase(t *CaseTables, c CaseDir, sigs []extract.Signature, log *logrus.Logger) error {
	clog := log.WithFields(logrus.Fields{"run": c.RunID, "case": c.CaseID})
	clog.Debug("extracting case artifacts")

	row := table.Row{
		"run_id":  c.RunID,
		"case_id": c.CaseID,
	}

	if data, err := readArtifact(filepath.Join(c.Path, caseFioFile)); err != nil {
		return err
	} else if data != "" {
		res, err := extract.ParseFioJSON([]byte(data))
		if err != nil {
			clog.WithError(err).Warn("skipping malformed fio output")
		} else if len(res.Jobs) > 0 {
			addCaseFioMetrics(row, res.Jobs[0])
		}
	}

	events, err := readCaseEvents(filepath.Join(c.Path, caseEventsFile))
	if err != nil {
		return err
	}
	timeline := extract.Timeline(events)
	addCaseClock(row, timeline.Clock())
	addCaseInjection(row, timeline.Injection())

	dmesg, err := readArtifact(filepath.Join(c.Path, caseDmesgFile))
	if err != nil {
		return err
	}
	usbip, err := readArtifact(filepath.Join(c.Path, caseUsbipFile))
	if err != nil {
		return err
	}
	for name, n := range extract.CountSignatures(dmesg+"\n"+usbip, sigs) {
		row[name] = int64(n)
	}

	if clatMax, ok := row.Float("clat_max_s"); ok {
		if injLen, ok := row.Float("inj_len_s"); ok {
			row["clat_max_minus_inj_s"] = clatMax - injLen
		}
	}

	t.Runs.Append(row)

	for _, ev := range events {
		t.Events.Append(table.Row{
			"run_id":  c.RunID,
			"case_id": c.CaseID,
			"ts_iso":  ev.TSRaw,
			"event":   ev.Name,
			"details": ev.Details,
		})
	}
	return nil
}

func readCaseEvents(path string) ([]extract.Event, error) {
	data, err := readArtifact(path)
	if err != nil || data == "" {
		return nil, err
	}
	events, err := extract.ParseEventsCSV(strings.NewReader(data))
	if err != nil {
		// a truncated CSV is a malformed artifact, not a fatal condition
		return nil, nil
	}
	return events, nil
}

func addCaseFioMetrics(row table.Row, job extract.FioJob) {
	w := job.Write
	if w == nil {
		return
	}
	row["io_kbytes"] = w.IOKBytes
	row["bw_kib_s"] = w.BwKiBs
	row["iops"] = w.IOPS
	row["runtime_s"] = job.JobRuntimeMs / 1000.0
	if w.ClatNs != nil {
		row["clat_mean_s"] = w.ClatNs.Mean / 1e9
		row["clat_max_s"] = w.ClatNs.Max / 1e9
		setFloat(row, "clat_p50_s", extract.PercentileSec(w.ClatNs.Percentile, 50.0))
		setFloat(row, "clat_p95_s", extract.PercentileSec(w.ClatNs.Percentile, 95.0))
		setFloat(row, "clat_p99_s", extract.PercentileSec(w.ClatNs.Percentile, 99.0))
		setFloat(row, "clat_p999_s", extract.PercentileSec(w.ClatNs.Percentile, 99.9))
	}
}

func addCaseClock(row table.Row, clock extract.RunClock) {
	setTS(row, "run_start_ts", clock.RunStart)
	setTS(row, "fio_start_ts", clock.FioStart)
	setTS(row, "fio_end_ts", clock.FioEnd)
	setFloat(row, "fio_wall_s", clock.FioWallSec)
}

func addCaseInjection(row table.Row, inj extract.InjectionInfo) {
	if inj.Mode != nil {
		row["inj_mode"] = *inj.Mode
	}
	setFloat(row, "inject_at_s", inj.AtSec)
	setFloat(row, "inj_len_s", inj.LenSec)
	setTS(row, "injection_start_ts", inj.StartTS)
	setTS(row, "injection_end_ts", inj.EndTS)
}

func setTS(r table.Row, col string, t *time.Time) {
	if t != nil {
		r[col] = t.Format(time.RFC3339)
	}
}
