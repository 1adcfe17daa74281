// Package extract converts raw experiment artifacts (diagnostic tool text
// dumps, fio JSON output, event logs) into typed partial field sets. Every
// parser in this package is tolerant by contract: absent input yields an
// empty result and a malformed field yields an absent field without
// disturbing its siblings. Nothing here returns an error for bad data, only
// for I/O-level failures the caller must surface.
package extract

import "strings"

// ParseEnv parses KEY=VALUE lines from a profile environment file. Blank
// lines, #-comments and lines without '=' are skipped; duplicate keys keep
// the last value.
func ParseEnv(text string) map[string]string {
	env := map[string]string{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		env[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return env
}
