package extract

import (
	"strconv"
	"strings"
)

// DefaultNetCounters is the allow-list of nstat counter names the pipeline
// records by default: the base TCP/IP counters plus the TcpExt ones that
// matter under injected loss.
var DefaultNetCounters = []string{
	"TcpRetransSegs",
	"TcpTimeouts",
	"TcpAttemptFails",
	"TcpEstabResets",
	"TcpInErrs",
	"IpOutDiscards",
	"TcpOutSegs",
	"TcpInSegs",
	"TcpExtTCPLostRetransmit",
	"TcpExtTCPLossUndo",
	"TcpExtTCPLossProbes",
	"TcpExtTCPLossProbeRecovery",
	"TcpExtDelayedACKs",
	"TcpExtDelayedACKLost",
	"TcpExtTCPOFOQueue",
}

// ParseCounters scans nstat-style `NAME VALUE rate` lines and returns the
// counters whose name is on the allow-list. Values are parsed through float
// conversion first so decimal-formatted integers are accepted. Blank lines,
// #-comments and names off the list are ignored.
func ParseCounters(text string, wanted []string) map[string]int64 {
	allow := make(map[string]struct{}, len(wanted))
	for _, name := range wanted {
		allow[name] = struct{}{}
	}
	out := map[string]int64{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) < 2 {
			continue
		}
		if _, ok := allow[parts[0]]; !ok {
			continue
		}
		f, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			continue
		}
		out[parts[0]] = int64(f)
	}
	return out
}
