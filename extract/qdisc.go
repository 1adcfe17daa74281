package extract

import "regexp"

// QdiscStats holds the queueing discipline configuration and post-run
// counters from a `tc -s qdisc show` dump. Either the header or the Sent
// line may be absent independently.
type QdiscStats struct {
	Type        *string
	LimitPkts   *int64
	SentBytes   *int64
	SentPkts    *int64
	DroppedPkts *int64
	Overlimits  *int64
	Requeues    *int64
}

var (
	qdiscHeaderRe = regexp.MustCompile(`qdisc\s+(\S+)\s+.*\blimit\s+(\d+)`)
	qdiscSentRe   = regexp.MustCompile(`Sent\s+(\d+)\s+bytes\s+(\d+)\s+pkt\s+\(dropped\s+(\d+),\s+overlimits\s+(\d+)\s+requeues\s+(\d+)\)`)
)

// ParseQdisc extracts discipline type and limit from the qdisc header and
// the sent/dropped counters from the Sent line:
//
//	qdisc netem 1: root refcnt 2 limit 1000
//	Sent 103678816 bytes 119425 pkt (dropped 0, overlimits 0 requeues 0)
func ParseQdisc(text string) QdiscStats {
	var out QdiscStats
	if m := qdiscHeaderRe.FindStringSubmatch(text); m != nil {
		typ := m[1]
		out.Type = &typ
		out.LimitPkts = intPtr(m[2])
	}
	if m := qdiscSentRe.FindStringSubmatch(text); m != nil {
		out.SentBytes = intPtr(m[1])
		out.SentPkts = intPtr(m[2])
		out.DroppedPkts = intPtr(m[3])
		out.Overlimits = intPtr(m[4])
		out.Requeues = intPtr(m[5])
	}
	return out
}
