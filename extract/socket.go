package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// SocketStats holds the TCP connection statistics pulled from the first
// established-connection line of an `ss -ti` dump. Every field is optional:
// a nil pointer means the token was absent or malformed on that line.
type SocketStats struct {
	RTTMs           *float64
	RTTVarMs        *float64
	RTOMs           *float64
	Cwnd            *int64
	BytesRetrans    *int64
	SegsOut         *int64
	SegsIn          *int64
	RetransInflight *int64
	RetransTotal    *int64
}

var estabLineRe = regexp.MustCompile(`\bESTAB\b.*`)

// ParseSocketStats scans a sys_net dump for the first line containing an
// ESTAB marker and extracts the key:value tokens of interest. Lines like:
//
//	ESTAB 0 0 10.0.0.2:3240 ... rtt:1.547/2.559 rto:202 cwnd:6 bytes_retrans:5897
func ParseSocketStats(text string) SocketStats {
	var out SocketStats
	line := estabLineRe.FindString(text)
	if line == "" {
		return out
	}

	if a, b, ok := splitPairToken(line, "rtt"); ok {
		out.RTTMs = floatPtr(a)
		out.RTTVarMs = floatPtr(b)
		if out.RTTMs == nil || out.RTTVarMs == nil {
			// only keep the pair when both halves parse
			out.RTTMs, out.RTTVarMs = nil, nil
		}
	}
	if tok, ok := token(line, "rto"); ok {
		out.RTOMs = floatPtr(tok)
	}
	if tok, ok := token(line, "cwnd"); ok {
		out.Cwnd = intPtr(tok)
	}
	if tok, ok := token(line, "bytes_retrans"); ok {
		out.BytesRetrans = intPtr(tok)
	}
	if tok, ok := token(line, "segs_out"); ok {
		out.SegsOut = intPtr(tok)
	}
	if tok, ok := token(line, "segs_in"); ok {
		out.SegsIn = intPtr(tok)
	}
	if a, b, ok := splitPairToken(line, "retrans"); ok {
		out.RetransInflight = intPtr(a)
		out.RetransTotal = intPtr(b)
		if out.RetransInflight == nil || out.RetransTotal == nil {
			out.RetransInflight, out.RetransTotal = nil, nil
		}
	}
	return out
}

// token fetches the value of a `key:value` token on the line.
func token(line, key string) (string, bool) {
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(key) + `:([^\s]+)`)
	m := re.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// splitPairToken fetches a `key:a/b` token and splits it.
func splitPairToken(line, key string) (string, string, bool) {
	tok, ok := token(line, key)
	if !ok {
		return "", "", false
	}
	a, b, ok := strings.Cut(tok, "/")
	if !ok {
		return "", "", false
	}
	return a, b, true
}

func floatPtr(s string) *float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

// intPtr parses via float first so decimal-formatted integers still land.
func intPtr(s string) *int64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	n := int64(f)
	return &n
}
