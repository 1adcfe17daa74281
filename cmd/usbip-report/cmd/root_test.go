package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmdHasSubcommands(t *testing.T) {
	cmd := RootCmd()
	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "aggregate")
	assert.Contains(t, names, "cases")
}

func TestRootCmdRequiresRoot(t *testing.T) {
	cmd := RootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"aggregate"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "root")
}

func TestFlagsToOptions(t *testing.T) {
	f := &flags{root: "/data/results", out: "/tmp/report", metricsFile: "/tmp/m.prom", parquet: true}
	opts := f.options()
	assert.Equal(t, "/data/results", opts.Input)
	assert.Equal(t, "/tmp/report", opts.Out)
	assert.Equal(t, "/tmp/m.prom", opts.MetricsFile)
	assert.True(t, opts.Parquet)
	require.NotNil(t, opts.Log)
}
