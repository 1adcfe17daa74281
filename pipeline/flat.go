package pipeline

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"usbip-report/extract"
	"usbip-report/table"
)

// Artifact file names inside a flat-layout run directory.
const (
	preflightFile  = "preflight.txt"
	sysNetFile     = "sys_net.txt"
	qdiscAfterFile = "tc_qdisc_after.txt"
	fioSubdir      = "fio"
)

var profileColumns = []string{
	"profile_id", "run_dir",
	"iface", "usbip_target", "kernel", "fio_version", "mount_line",
	"delay_ms", "jitter_ms", "loss_pct", "netem_limit_pkts",
}

var fioColumns = []string{
	"jobname", "rw", "fio_version", "fio_rw", "bs",
	"runtime_ms", "io_bytes", "bw_kib_s", "bw_bytes_s", "iops", "total_ios",
	"slat_mean_ms", "slat_max_ms", "clat_mean_ms", "clat_max_ms",
	"lat_mean_ms", "lat_max_ms",
	"clat_p50_ms", "clat_p95_ms", "clat_p99_ms", "clat_p99_9_ms",
	"clat_p99_99_ms", "clat_p99_999_ms",
	"source_file",
	"profile_id", "delay_ms", "jitter_ms", "loss_pct",
}

var netColumns = append([]string{
	"profile_id",
	"tcp_rtt_ms", "tcp_rtt_var_ms", "tcp_rto_ms", "tcp_cwnd",
	"tcp_bytes_retrans", "tcp_segs_out", "tcp_segs_in",
	"tcp_retrans_inflight", "tcp_retrans_total",
}, extract.DefaultNetCounters...)

// FlatTables is the output of the flat-layout aggregation: the three base
// tables plus the joined summary view.
type FlatTables struct {
	Profiles *table.Table
	Fio      *table.Table
	Net      *table.Table
	Summary  *table.Table
}

// AggregateFlat walks a flat-layout results root (one directory per run,
// marked by profile.env) and assembles the profile, fio and net tables plus
// the joined summary. Absent artifacts leave their fields nil; only I/O
// failures below the discovery root abort.
func AggregateFlat(root string, log *logrus.Logger) (*FlatTables, error) {
	runs, err := DiscoverRuns(root)
	if err != nil {
		return nil, err
	}
	log.WithField("root", root).Infof("discovered %d runs", len(runs))

	t := &FlatTables{
		Profiles: table.New(profileColumns...),
		Fio:      table.New(fioColumns...),
		Net:      table.New(netColumns...),
	}

	for _, runDir := range runs {
		if err := appendRun(t, runDir, log); err != nil {
			return nil, err
		}
	}

	t.Profiles.SortBy("delay_ms", "profile_id")

	t.Summary = t.Fio.LeftJoin(t.Profiles,
		[]string{"profile_id", "delay_ms", "jitter_ms", "loss_pct"}, "_profile")
	if t.Net.Len() > 0 {
		t.Summary = t.Summary.LeftJoin(t.Net, []string{"profile_id"}, "_net")
	}
	t.Summary.SortBy("delay_ms", "jobname", "rw")

	return t, nil
}

func appendRun(t *FlatTables, runDir string, log *logrus.Logger) error {
	profileID := filepath.Base(runDir)
	rlog := log.WithField("profile", profileID)
	rlog.Debug("extracting run artifacts")

	envText, err := readArtifact(filepath.Join(runDir, ProfileMarker))
	if err != nil {
		return err
	}
	env := extract.ParseEnv(envText)

	profile := table.Row{
		"profile_id": profileID,
		"run_dir":    runDir,
	}
	var delayMs, jitterMs, lossPct interface{}
	if v, ok := extract.DurationMs(env["DELAY"]); ok {
		delayMs = v
	}
	if v, ok := extract.DurationMs(env["JITTER"]); ok {
		jitterMs = v
	}
	if loss := strings.TrimSuffix(strings.TrimSpace(env["LOSS"]), "%"); loss != "" {
		if f, err := strconv.ParseFloat(loss, 64); err == nil {
			lossPct = f
		}
	}
	profile["delay_ms"] = delayMs
	profile["jitter_ms"] = jitterMs
	profile["loss_pct"] = lossPct
	if limit := strings.TrimSpace(env["LIMIT"]); limit != "" {
		if n, err := strconv.ParseInt(limit, 10, 64); err == nil {
			profile["netem_limit_pkts"] = n
		}
	}

	if text, err := readArtifact(filepath.Join(runDir, preflightFile)); err != nil {
		return err
	} else if text != "" {
		sections := extract.PreflightSections(text)
		setNonEmpty(profile, "iface", extract.PreflightLine(sections, "iface"))
		setNonEmpty(profile, "usbip_target", extract.PreflightLine(sections, "usbip_target"))
		setNonEmpty(profile, "kernel", extract.PreflightLine(sections, "uname"))
		setNonEmpty(profile, "mount_line", extract.PreflightLine(sections, "mount_line"))
		setNonEmpty(profile, "fio_version", extract.PreflightFioVersion(sections))
	}
	if profile["fio_version"] == nil {
		setNonEmpty(profile, "fio_version", env["fio_version"])
	}

	if text, err := readArtifact(filepath.Join(runDir, qdiscAfterFile)); err != nil {
		return err
	} else if text != "" {
		q := extract.ParseQdisc(text)
		if q.Type != nil {
			profile["qdisc_type"] = *q.Type
		}
		setInt(profile, "qdisc_limit_pkts", q.LimitPkts)
		setInt(profile, "qdisc_sent_bytes", q.SentBytes)
		setInt(profile, "qdisc_sent_pkts", q.SentPkts)
		setInt(profile, "qdisc_dropped_pkts", q.DroppedPkts)
		setInt(profile, "qdisc_overlimits", q.Overlimits)
		setInt(profile, "qdisc_requeues", q.Requeues)
	}
	t.Profiles.Append(profile)

	if text, err := readArtifact(filepath.Join(runDir, sysNetFile)); err != nil {
		return err
	} else if text != "" {
		net := table.Row{"profile_id": profileID}
		ss := extract.ParseSocketStats(text)
		setFloat(net, "tcp_rtt_ms", ss.RTTMs)
		setFloat(net, "tcp_rtt_var_ms", ss.RTTVarMs)
		setFloat(net, "tcp_rto_ms", ss.RTOMs)
		setInt(net, "tcp_cwnd", ss.Cwnd)
		setInt(net, "tcp_bytes_retrans", ss.BytesRetrans)
		setInt(net, "tcp_segs_out", ss.SegsOut)
		setInt(net, "tcp_segs_in", ss.SegsIn)
		setInt(net, "tcp_retrans_inflight", ss.RetransInflight)
		setInt(net, "tcp_retrans_total", ss.RetransTotal)
		for name, v := range extract.ParseCounters(text, extract.DefaultNetCounters) {
			net[name] = v
		}
		if len(net) > 1 {
			t.Net.Append(net)
		}
	}

	return appendFioRows(t, runDir, profileID, delayMs, jitterMs, lossPct, rlog)
}

func appendFioRows(t *FlatTables, runDir, profileID string, delayMs, jitterMs, lossPct interface{}, rlog *logrus.Entry) error {
	fioDir := filepath.Join(runDir, fioSubdir)
	entries, err := os.ReadDir(fioDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrapf(err, "read %s", fioDir)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		path := filepath.Join(fioDir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrapf(err, "read %s", path)
		}
		res, err := extract.ParseFioJSON(data)
		if err != nil {
			rlog.WithField("file", name).WithError(err).Warn("skipping malformed fio output")
			continue
		}
		for _, jm := range extract.JobRows(res) {
			row := table.Row{
				"jobname":     jm.Jobname,
				"rw":          jm.Direction,
				"fio_version": jm.FioVersion,
				"fio_rw":      jm.FioRW,
				"bs":          jm.BS,
				"runtime_ms":  jm.RuntimeMs,
				"io_bytes":    jm.IOBytes,
				"bw_kib_s":    jm.BwKiBs,
				"bw_bytes_s":  jm.BwBytes,
				"iops":        jm.IOPS,
				"total_ios":   jm.TotalIOs,
				"source_file": path,
				"profile_id":  profileID,
				"delay_ms":    delayMs,
				"jitter_ms":   jitterMs,
				"loss_pct":    lossPct,
			}
			setFloat(row, "slat_mean_ms", jm.SlatMeanMs)
			setFloat(row, "slat_max_ms", jm.SlatMaxMs)
			setFloat(row, "clat_mean_ms", jm.ClatMeanMs)
			setFloat(row, "clat_max_ms", jm.ClatMaxMs)
			setFloat(row, "lat_mean_ms", jm.LatMeanMs)
			setFloat(row, "lat_max_ms", jm.LatMaxMs)
			setFloat(row, "clat_p50_ms", jm.ClatP50Ms)
			setFloat(row, "clat_p95_ms", jm.ClatP95Ms)
			setFloat(row, "clat_p99_ms", jm.ClatP99Ms)
			setFloat(row, "clat_p99_9_ms", jm.ClatP99_9Ms)
			setFloat(row, "clat_p99_99_ms", jm.ClatP99_99Ms)
			setFloat(row, "clat_p99_999_ms", jm.ClatP99_999Ms)
			t.Fio.Append(row)
		}
	}
	return nil
}

// readArtifact reads an optional artifact file. Absent files yield an empty
// string, not an error.
func readArtifact(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", errors.Wrapf(err, "read %s", path)
	}
	return string(data), nil
}

func setNonEmpty(r table.Row, col, v string) {
	if v != "" {
		r[col] = v
	}
}

func setFloat(r table.Row, col string, v *float64) {
	if v != nil {
		r[col] = *v
	}
}

func setInt(r table.Row, col string, v *int64) {
	if v != nil {
		r[col] = *v
	}
}
