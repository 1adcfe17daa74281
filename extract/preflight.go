package extract

import "strings"

// PreflightSections splits a preflight report into its `### <label>`
// sections and returns the non-blank body lines of each, in order. Text
// before the first header is dropped.
func PreflightSections(text string) map[string][]string {
	sections := map[string][]string{}
	var current string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "###") {
			current = strings.TrimSpace(strings.TrimPrefix(trimmed, "###"))
			if current != "" {
				if _, ok := sections[current]; !ok {
					sections[current] = nil
				}
			}
			continue
		}
		if current == "" || trimmed == "" {
			continue
		}
		sections[current] = append(sections[current], trimmed)
	}
	return sections
}

// PreflightLine returns the first body line of a section, or "" when the
// section is absent or empty.
func PreflightLine(sections map[string][]string, label string) string {
	lines := sections[label]
	if len(lines) == 0 {
		return ""
	}
	return lines[0]
}

// PreflightFioVersion returns the fio version from its preflight section.
// The section's first line is the invoked command, the second is the
// actual fio-3.xx banner, so the second line wins when present.
func PreflightFioVersion(sections map[string][]string) string {
	lines := sections["fio_version"]
	switch {
	case len(lines) >= 2:
		return lines[1]
	case len(lines) == 1:
		return lines[0]
	default:
		return ""
	}
}
