package extract

import (
	"encoding/csv"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Event is one row of a case's events.csv: an ISO-8601 timestamp, an event
// name and free-text detail.
type Event struct {
	TS      time.Time
	TSRaw   string
	Name    string
	Details string
}

// Event names the runner emits into events.csv.
const (
	EventRunStart          = "run_start"
	EventFioStart          = "fio_start"
	EventFioEnd            = "fio_end"
	EventInjectionStart    = "injection_start"
	EventInjectionReverted = "injection_reverted"
	EventInjectWaitDone    = "inject_wait_done"
)

// ParseEventTime parses an events.csv timestamp. A literal trailing Z is
// normalized to an explicit UTC offset first.
func ParseEventTime(ts string) (time.Time, error) {
	ts = strings.TrimSpace(ts)
	if strings.HasSuffix(ts, "Z") {
		ts = strings.TrimSuffix(ts, "Z") + "+00:00"
	}
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "parse event timestamp %q", ts)
	}
	return t, nil
}

// ParseEventsCSV reads an events.csv document with a ts,event,details
// header. Rows whose timestamp does not parse are dropped; a document
// without the ts and event columns yields no events. Only a broken CSV
// stream itself is an error.
func ParseEventsCSV(r io.Reader) ([]Event, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "read events csv")
	}
	if len(records) == 0 {
		return nil, nil
	}

	tsIdx, evIdx, detIdx := -1, -1, -1
	for i, name := range records[0] {
		switch strings.TrimSpace(name) {
		case "ts":
			tsIdx = i
		case "event":
			evIdx = i
		case "details":
			detIdx = i
		}
	}
	if tsIdx < 0 || evIdx < 0 {
		return nil, nil
	}

	var events []Event
	for _, rec := range records[1:] {
		if tsIdx >= len(rec) || evIdx >= len(rec) {
			continue
		}
		ts, err := ParseEventTime(rec[tsIdx])
		if err != nil {
			continue
		}
		ev := Event{TS: ts, TSRaw: strings.TrimSpace(rec[tsIdx]), Name: strings.TrimSpace(rec[evIdx])}
		if detIdx >= 0 && detIdx < len(rec) {
			ev.Details = rec[detIdx]
		}
		events = append(events, ev)
	}
	return events, nil
}

// Timeline provides event lookups over an ordered event sequence.
type Timeline []Event

// First returns the first event with the given name, or nil.
func (t Timeline) First(name string) *Event {
	for i := range t {
		if t[i].Name == name {
			return &t[i]
		}
	}
	return nil
}

// Last returns the last event with the given name, or nil.
func (t Timeline) Last(name string) *Event {
	for i := len(t) - 1; i >= 0; i-- {
		if t[i].Name == name {
			return &t[i]
		}
	}
	return nil
}

// RunClock carries the lifecycle timestamps derived from a timeline.
type RunClock struct {
	RunStart   *time.Time
	FioStart   *time.Time
	FioEnd     *time.Time
	FioWallSec *float64
}

// InjectionInfo describes the fault-injection window of a case.
type InjectionInfo struct {
	Mode    *string
	AtSec   *float64
	LenSec  *float64
	StartTS *time.Time
	EndTS   *time.Time
}

var (
	injModeRe = regexp.MustCompile(`mode=([a-zA-Z0-9_\-]+)`)
	injLenRe  = regexp.MustCompile(`len=(\d+)s`)
	injAtRe   = regexp.MustCompile(`at=(\d+)s`)
)

// Clock derives run/fio lifecycle timestamps. The wall duration is present
// only when both fio endpoints are.
func (t Timeline) Clock() RunClock {
	var clock RunClock
	if ev := t.First(EventRunStart); ev != nil {
		clock.RunStart = &ev.TS
	}
	if ev := t.First(EventFioStart); ev != nil {
		clock.FioStart = &ev.TS
	}
	if ev := t.First(EventFioEnd); ev != nil {
		clock.FioEnd = &ev.TS
	}
	if clock.FioStart != nil && clock.FioEnd != nil {
		wall := clock.FioEnd.Sub(*clock.FioStart).Seconds()
		clock.FioWallSec = &wall
	}
	return clock
}

// Injection derives the fault-injection window. Mode and length come from
// the injection_start details ("mode=route_blackhole;len=30s"), the trigger
// offset from inject_wait_done ("at=10s").
func (t Timeline) Injection() InjectionInfo {
	var info InjectionInfo
	if ev := t.First(EventInjectionStart); ev != nil {
		info.StartTS = &ev.TS
		if m := injModeRe.FindStringSubmatch(ev.Details); m != nil {
			info.Mode = &m[1]
		}
		if m := injLenRe.FindStringSubmatch(ev.Details); m != nil {
			if f, err := strconv.ParseFloat(m[1], 64); err == nil {
				info.LenSec = &f
			}
		}
	}
	if ev := t.First(EventInjectionReverted); ev != nil {
		info.EndTS = &ev.TS
	}
	if ev := t.First(EventInjectWaitDone); ev != nil {
		if m := injAtRe.FindStringSubmatch(ev.Details); m != nil {
			if f, err := strconv.ParseFloat(m[1], 64); err == nil {
				info.AtSec = &f
			}
		}
	}
	return info
}
