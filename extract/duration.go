package extract

import (
	"regexp"
	"strconv"
	"strings"
)

var durationRe = regexp.MustCompile(`^(\d+(?:\.\d+)?)(ms|s|us)$`)

// DurationMs converts a tc/netem style duration token ("20ms", "0.5s",
// "200us") to milliseconds. The second return is false for empty or
// non-conforming input, including bare numbers without a unit.
func DurationMs(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	m := durationRe.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	val, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	switch m[2] {
	case "us":
		return val / 1000.0, true
	case "s":
		return val * 1000.0, true
	default:
		return val, true
	}
}
