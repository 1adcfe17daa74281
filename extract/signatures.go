package extract

import "regexp"

// Signature is one named anomaly pattern counted over kernel/usbip log text.
type Signature struct {
	Name    string
	Pattern *regexp.Regexp
}

// DefaultSignatures returns the anomaly signature table, in the column
// order the report uses. Patterns are case-insensitive.
func DefaultSignatures() []Signature {
	return []Signature{
		{"ecnnreset_-104", sig(`\b-104\b`)},
		{"vhci_reset", sig(`reset (high-speed|full-speed|super-speed) USB device`)},
		{"setaddress", sig(`SetAddress Request`)},
		{"fat_not_unmounted", sig(`Volume was not properly unmounted`)},
		{"usb_disconnect", sig(`USB disconnect`)},
		{"usb_connect_newdev", sig(`new (high-speed|full-speed|super-speed) USB device`)},
		{"usbip_error", sig(`\b(usbip|vhci_hcd).*(error|ERR|failed)\b`)},
	}
}

func sig(pattern string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + pattern)
}

// CountSignatures counts non-overlapping matches of each signature over the
// given text. Signatures with no matches are reported as zero, not omitted,
// so every case row carries the full column set.
func CountSignatures(text string, sigs []Signature) map[string]int {
	out := make(map[string]int, len(sigs))
	for _, s := range sigs {
		out[s.Name] = len(s.Pattern.FindAllStringIndex(text, -1))
	}
	return out
}
