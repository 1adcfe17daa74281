package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ssDump = `State  Recv-Q Send-Q Local Address:Port  Peer Address:Port
ESTAB  0      0      10.0.0.2:52314      10.0.0.1:3240 cubic wscale:7,7 rto:202 rtt:1.547/2.559 ato:40 mss:1448 cwnd:6 bytes_sent:104857 bytes_retrans:5897 segs_out:1200 segs_in:1100 retrans:0/14
`

func TestParseSocketStats(t *testing.T) {
	ss := ParseSocketStats(ssDump)

	require.NotNil(t, ss.RTTMs)
	assert.InDelta(t, 1.547, *ss.RTTMs, 1e-9)
	require.NotNil(t, ss.RTTVarMs)
	assert.InDelta(t, 2.559, *ss.RTTVarMs, 1e-9)
	require.NotNil(t, ss.RTOMs)
	assert.InDelta(t, 202.0, *ss.RTOMs, 1e-9)
	require.NotNil(t, ss.Cwnd)
	assert.Equal(t, int64(6), *ss.Cwnd)
	require.NotNil(t, ss.BytesRetrans)
	assert.Equal(t, int64(5897), *ss.BytesRetrans)
	require.NotNil(t, ss.SegsOut)
	assert.Equal(t, int64(1200), *ss.SegsOut)
	require.NotNil(t, ss.SegsIn)
	assert.Equal(t, int64(1100), *ss.SegsIn)
	require.NotNil(t, ss.RetransInflight)
	assert.Equal(t, int64(0), *ss.RetransInflight)
	require.NotNil(t, ss.RetransTotal)
	assert.Equal(t, int64(14), *ss.RetransTotal)
}

func TestParseSocketStatsNoEstabLine(t *testing.T) {
	ss := ParseSocketStats("TIME-WAIT 0 0 10.0.0.2:52314 10.0.0.1:3240 rtt:1/2\n")
	assert.Nil(t, ss.RTTMs)
	assert.Nil(t, ss.RTOMs)
	assert.Nil(t, ss.Cwnd)
}

func TestParseSocketStatsPartialLine(t *testing.T) {
	ss := ParseSocketStats("ESTAB 0 0 a:1 b:2 rto:300\n")
	require.NotNil(t, ss.RTOMs)
	assert.InDelta(t, 300.0, *ss.RTOMs, 1e-9)
	assert.Nil(t, ss.RTTMs)
	assert.Nil(t, ss.SegsOut)
}

func TestParseSocketStatsMalformedTokens(t *testing.T) {
	ss := ParseSocketStats("ESTAB rtt:abc/def cwnd:six rto:100\n")
	assert.Nil(t, ss.RTTMs)
	assert.Nil(t, ss.RTTVarMs)
	assert.Nil(t, ss.Cwnd)
	require.NotNil(t, ss.RTOMs)
	assert.InDelta(t, 100.0, *ss.RTOMs, 1e-9)
}

func TestParseSocketStatsBytesRetransNotConfusedWithRetrans(t *testing.T) {
	// bytes_retrans must not satisfy the retrans:a/b pair lookup
	ss := ParseSocketStats("ESTAB bytes_retrans:5897\n")
	require.NotNil(t, ss.BytesRetrans)
	assert.Equal(t, int64(5897), *ss.BytesRetrans)
	assert.Nil(t, ss.RetransInflight)
	assert.Nil(t, ss.RetransTotal)
}
