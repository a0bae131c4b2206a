package commands

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunAllFileOrder(t *testing.T) {
	opts, tool := fixture(t, []string{"kitchen.yaml", "porch.yaml"}, testRegistry)

	require.NoError(t, RunAll(context.Background(), opts, io.Discard))

	require.Len(t, tool.calls, 2)
	assert.Equal(t, toolCall{Op: "run", Cfg: "kitchen.yaml", Addr: "192.168.2.14"}, tool.calls[0])
	assert.Equal(t, toolCall{Op: "run", Cfg: "porch.yaml", Addr: "192.168.2.30"}, tool.calls[1])
}

func TestRunAllAbortsOnFirstFailure(t *testing.T) {
	opts, tool := fixture(t, []string{"kitchen.yaml", "porch.yaml"}, testRegistry)
	uploadErr := errors.New("upload failed")
	tool.fail["run 192.168.2.14"] = uploadErr

	err := RunAll(context.Background(), opts, io.Discard)
	require.Error(t, err)
	assert.ErrorIs(t, err, uploadErr)

	// porch never attempted
	require.Len(t, tool.calls, 1)
	assert.Equal(t, "192.168.2.14", tool.calls[0].Addr)
}

func TestRunConfigAll(t *testing.T) {
	reg := `
[kitchen.yaml]
192.168.2.14  # kitchen-a
192.168.2.15  # kitchen-b
`
	opts, tool := fixture(t, []string{"kitchen.yaml"}, reg)

	require.NoError(t, RunConfigAll(context.Background(), opts, "kitchen", io.Discard))

	require.Len(t, tool.calls, 2)
	assert.Equal(t, "192.168.2.14", tool.calls[0].Addr)
	assert.Equal(t, "192.168.2.15", tool.calls[1].Addr)
}

func TestRunConfigAllNoEntries(t *testing.T) {
	opts, tool := fixture(t, []string{"cellar.yaml"}, testRegistry)

	err := RunConfigAll(context.Background(), opts, "cellar", io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no registry entries")
	assert.Empty(t, tool.calls)
}

func TestLogsConfigFansOut(t *testing.T) {
	reg := `
[kitchen.yaml]
192.168.2.14  # kitchen-a
192.168.2.15  # kitchen-b
`
	opts, tool := fixture(t, []string{"kitchen.yaml"}, reg)

	require.NoError(t, LogsConfig(context.Background(), opts, "kitchen.yaml"))

	require.Len(t, tool.streams, 1)
	assert.Equal(t, []string{"kitchen.yaml", "192.168.2.14", "192.168.2.15"}, tool.streams[0])
}

func TestValidateAllReportsAndContinues(t *testing.T) {
	opts, tool := fixture(t, []string{"kitchen.yaml", "porch.yaml"}, testRegistry)
	tool.fail["validate kitchen.yaml"] = errors.New("bad yaml")

	var out strings.Builder
	err := ValidateAll(context.Background(), opts, &out)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 configuration(s) failed")

	// Both ran despite the first failing.
	require.Len(t, tool.calls, 2)
	assert.Contains(t, out.String(), "FAILED  kitchen.yaml")
	assert.Contains(t, out.String(), "OK      porch.yaml")
}

func TestValidateAllAllGood(t *testing.T) {
	opts, _ := fixture(t, []string{"kitchen.yaml"}, testRegistry)

	var out strings.Builder
	require.NoError(t, ValidateAll(context.Background(), opts, &out))
	assert.Contains(t, out.String(), "OK      kitchen.yaml")
}
