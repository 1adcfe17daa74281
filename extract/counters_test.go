package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const nstatDump = `#kernel
TcpRetransSegs                  230                0.0
TcpTimeouts                     12                 0.0
TcpOutSegs                      119425.0           0.0
SomethingElse                   999                0.0

TcpInErrs                       notanumber         0.0
`

func TestParseCounters(t *testing.T) {
	got := ParseCounters(nstatDump, DefaultNetCounters)
	assert.Equal(t, map[string]int64{
		"TcpRetransSegs": 230,
		"TcpTimeouts":    12,
		"TcpOutSegs":     119425, // decimal-formatted integers are truncated
	}, got)
}

func TestParseCountersAllowListFilters(t *testing.T) {
	got := ParseCounters("TcpRetransSegs 230 0.0\n", []string{"TcpTimeouts"})
	assert.Empty(t, got)
}

func TestParseCountersEmpty(t *testing.T) {
	assert.Empty(t, ParseCounters("", DefaultNetCounters))
}
