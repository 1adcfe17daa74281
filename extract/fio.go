package extract

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"

	"github.com/pkg/errors"
)

// FioResult mirrors the subset of fio's JSON output the pipeline consumes.
// The rest of the document is ignored by the decoder.
type FioResult struct {
	Version string   `json:"fio version"`
	Jobs    []FioJob `json:"jobs"`
}

// FioJob is one fio job entry with its per-direction statistics.
type FioJob struct {
	Jobname      string        `json:"jobname"`
	Options      FioJobOptions `json:"job options"`
	JobRuntimeMs float64       `json:"job_runtime"`
	Read         *FioDirStats  `json:"read"`
	Write        *FioDirStats  `json:"write"`
}

// FioJobOptions carries the job options the report keeps.
type FioJobOptions struct {
	BS string `json:"bs"`
	RW string `json:"rw"`
}

// FioDirStats holds one direction's throughput and latency figures.
// Latency blocks are nanosecond denominated in fio's output.
type FioDirStats struct {
	TotalIOs  int64       `json:"total_ios"`
	IOBytes   int64       `json:"io_bytes"`
	IOKBytes  int64       `json:"io_kbytes"`
	BwKiBs    float64     `json:"bw"`
	BwBytes   float64     `json:"bw_bytes"`
	IOPS      float64     `json:"iops"`
	RuntimeMs float64     `json:"runtime"`
	SlatNs    *FioLatency `json:"slat_ns"`
	ClatNs    *FioLatency `json:"clat_ns"`
	LatNs     *FioLatency `json:"lat_ns"`
}

// FioLatency is one of fio's slat/clat/lat blocks. Percentile keys arrive
// as decimal strings like "99.000000".
type FioLatency struct {
	Min        float64            `json:"min"`
	Max        float64            `json:"max"`
	Mean       float64            `json:"mean"`
	Stddev     float64            `json:"stddev"`
	Percentile map[string]float64 `json:"percentile"`
}

// ParseFioJSON decodes a fio JSON document.
func ParseFioJSON(data []byte) (*FioResult, error) {
	var res FioResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, errors.Wrap(err, "decode fio json")
	}
	return &res, nil
}

// PercentileNs resolves the latency at the requested percentile by picking
// the map key numerically closest to it; fio's key formatting has drifted
// across versions so exact lookup is not trusted. Ties go to the smaller
// key. The second return is false when the map is empty or carries no
// parsable keys.
func PercentileNs(percentiles map[string]float64, pct float64) (float64, bool) {
	type kv struct {
		num float64
		key string
	}
	var keys []kv
	for k := range percentiles {
		f, err := strconv.ParseFloat(k, 64)
		if err != nil {
			continue
		}
		keys = append(keys, kv{num: f, key: k})
	}
	if len(keys) == 0 {
		return 0, false
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].num < keys[j].num })
	best := keys[0]
	bestDist := math.Abs(best.num - pct)
	for _, k := range keys[1:] {
		if d := math.Abs(k.num - pct); d < bestDist {
			best, bestDist = k, d
		}
	}
	return percentiles[best.key], true
}

// PercentileMs is PercentileNs converted to milliseconds.
func PercentileMs(percentiles map[string]float64, pct float64) *float64 {
	ns, ok := PercentileNs(percentiles, pct)
	if !ok {
		return nil
	}
	ms := ns / 1e6
	return &ms
}

// PercentileSec is PercentileNs converted to seconds.
func PercentileSec(percentiles map[string]float64, pct float64) *float64 {
	ns, ok := PercentileNs(percentiles, pct)
	if !ok {
		return nil
	}
	s := ns / 1e9
	return &s
}

// JobMetrics is one (job, direction) row extracted from a fio result.
// Latencies are millisecond denominated; pointer fields are absent when the
// corresponding latency block or percentile map is missing.
type JobMetrics struct {
	Jobname    string
	Direction  string
	FioVersion string
	FioRW      string
	BS         string
	RuntimeMs  float64
	IOBytes    int64
	TotalIOs   int64
	BwKiBs     float64
	BwBytes    float64
	IOPS       float64

	SlatMeanMs *float64
	SlatMaxMs  *float64
	ClatMeanMs *float64
	ClatMaxMs  *float64
	LatMeanMs  *float64
	LatMaxMs   *float64

	ClatP50Ms    *float64
	ClatP95Ms    *float64
	ClatP99Ms    *float64
	ClatP99_9Ms  *float64
	ClatP99_99Ms *float64
	// fio reports 99.999 only with extended percentile lists; absent otherwise.
	ClatP99_999Ms *float64
}

// JobRows flattens a fio result into per-direction rows. A direction with
// zero total_ios and zero io_bytes did not run and is dropped rather than
// recorded as zeros.
func JobRows(res *FioResult) []JobMetrics {
	var rows []JobMetrics
	if res == nil {
		return rows
	}
	for _, job := range res.Jobs {
		for _, dir := range []struct {
			name  string
			stats *FioDirStats
		}{
			{"read", job.Read},
			{"write", job.Write},
		} {
			d := dir.stats
			if d == nil || (d.TotalIOs == 0 && d.IOBytes == 0) {
				continue
			}
			row := JobMetrics{
				Jobname:    job.Jobname,
				Direction:  dir.name,
				FioVersion: res.Version,
				FioRW:      job.Options.RW,
				BS:         job.Options.BS,
				RuntimeMs:  d.RuntimeMs,
				IOBytes:    d.IOBytes,
				TotalIOs:   d.TotalIOs,
				BwKiBs:     d.BwKiBs,
				BwBytes:    d.BwBytes,
				IOPS:       d.IOPS,
			}
			if d.SlatNs != nil {
				row.SlatMeanMs = msPtr(d.SlatNs.Mean)
				row.SlatMaxMs = msPtr(d.SlatNs.Max)
			}
			if d.ClatNs != nil {
				row.ClatMeanMs = msPtr(d.ClatNs.Mean)
				row.ClatMaxMs = msPtr(d.ClatNs.Max)
				row.ClatP50Ms = PercentileMs(d.ClatNs.Percentile, 50.0)
				row.ClatP95Ms = PercentileMs(d.ClatNs.Percentile, 95.0)
				row.ClatP99Ms = PercentileMs(d.ClatNs.Percentile, 99.0)
				row.ClatP99_9Ms = PercentileMs(d.ClatNs.Percentile, 99.9)
				row.ClatP99_99Ms = PercentileMs(d.ClatNs.Percentile, 99.99)
				row.ClatP99_999Ms = PercentileMs(d.ClatNs.Percentile, 99.999)
			}
			if d.LatNs != nil {
				row.LatMeanMs = msPtr(d.LatNs.Mean)
				row.LatMaxMs = msPtr(d.LatNs.Max)
			}
			rows = append(rows, row)
		}
	}
	return rows
}

func msPtr(ns float64) *float64 {
	ms := ns / 1e6
	return &ms
}
