package render

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"usbip-report/table"
)

func caseRuns() (*table.Table, []string) {
	sigNames := []string{"vhci_reset", "usb_disconnect"}
	t := table.New("run_id", "case_id", "inj_len_s", "fio_wall_s",
		"bw_kib_s", "clat_max_s",
		"clat_p50_s", "clat_p95_s", "clat_p99_s", "clat_p999_s",
		"vhci_reset", "usb_disconnect")
	t.Append(table.Row{
		"run_id": "run_a", "case_id": "baseline",
		"bw_kib_s": 166.6, "clat_max_s": 0.5,
		"clat_p50_s": 0.018, "clat_p95_s": 0.06, "clat_p99_s": 0.12, "clat_p999_s": 0.3,
		"fio_wall_s": 100.0,
		"vhci_reset": int64(0), "usb_disconnect": int64(0),
	})
	t.Append(table.Row{
		"run_id": "run_a", "case_id": "blackhole_30s",
		"inj_len_s": 30.0, "fio_wall_s": 140.0,
		"bw_kib_s": 120.0, "clat_max_s": 31.0,
		"clat_p50_s": 0.02, "clat_p95_s": 0.08, "clat_p99_s": 0.2, "clat_p999_s": 30.0,
		"vhci_reset": int64(1), "usb_disconnect": int64(2),
	})
	return t, sigNames
}

func TestSortedCaseRowsInjectionLengthFirst(t *testing.T) {
	runs, _ := caseRuns()
	rows := sortedCaseRows(runs)
	require.Len(t, rows, 2)
	// the injected case leads, the baseline without inj_len_s trails
	assert.Equal(t, "blackhole_30s", rows[0]["case_id"])
	assert.Equal(t, "baseline", rows[1]["case_id"])
}

func TestCaseCharts(t *testing.T) {
	dir := t.TempDir()
	runs, sigNames := caseRuns()
	require.NoError(t, CaseCharts(runs, sigNames, dir, testLogger()))

	for _, name := range []string{
		"bw_kib_s_by_case.png",
		"clat_max_s_by_case.png",
		"clat_percentiles_by_case.png",
		"log_signatures_stacked.png",
		"fio_wall_vs_injection.png",
	} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.NotZero(t, info.Size(), name)
	}
}

func TestCaseChartsSkipsMissingColumns(t *testing.T) {
	dir := t.TempDir()
	runs := table.New("run_id", "case_id")
	runs.Append(table.Row{"run_id": "r", "case_id": "c"})

	require.NoError(t, CaseCharts(runs, []string{"vhci_reset"}, dir, testLogger()))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
