package commands

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/espfleet/espfleet/pkg/config"
)

const testRegistry = `
[kitchen.yaml]
192.168.2.14  # kitchen-a4f2

[porch.yaml]
192.168.2.30  # porch-light
`

func TestRunUploadLooksUpConfigByAddress(t *testing.T) {
	opts, tool := fixture(t, []string{"kitchen.yaml", "porch.yaml"}, testRegistry)

	require.NoError(t, RunUpload(context.Background(), opts, "192.168.2.14"))

	require.Len(t, tool.calls, 1)
	assert.Equal(t, toolCall{Op: "run", Cfg: "kitchen.yaml", Addr: "192.168.2.14"}, tool.calls[0])
}

func TestRunUploadUnknownAddress(t *testing.T) {
	opts, tool := fixture(t, []string{"kitchen.yaml"}, testRegistry)

	err := RunUpload(context.Background(), opts, "10.9.9.9")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no registry entry")
	assert.Empty(t, tool.calls)
}

func TestRunUploadConfigFileMissingOnDisk(t *testing.T) {
	// Registry names porch.yaml but only kitchen.yaml exists.
	opts, tool := fixture(t, []string{"kitchen.yaml"}, testRegistry)

	err := RunUpload(context.Background(), opts, "192.168.2.30")
	assert.ErrorIs(t, err, config.ErrNotFound)
	assert.Empty(t, tool.calls)
}

func TestRunLogs(t *testing.T) {
	opts, tool := fixture(t, []string{"kitchen.yaml", "porch.yaml"}, testRegistry)

	require.NoError(t, RunLogs(context.Background(), opts, "192.168.2.30"))

	require.Len(t, tool.calls, 1)
	assert.Equal(t, toolCall{Op: "logs", Cfg: "porch.yaml", Addr: "192.168.2.30"}, tool.calls[0])
}

func TestRunValidateAcceptsNameWithoutExtension(t *testing.T) {
	opts, tool := fixture(t, []string{"kitchen.yaml"}, testRegistry)

	require.NoError(t, RunValidate(context.Background(), opts, "kitchen"))

	require.Len(t, tool.calls, 1)
	assert.Equal(t, toolCall{Op: "validate", Cfg: "kitchen.yaml"}, tool.calls[0])
}

func TestRunCompileUnknownConfig(t *testing.T) {
	opts, tool := fixture(t, []string{"kitchen.yaml"}, testRegistry)

	err := RunCompile(context.Background(), opts, "cellar")
	assert.ErrorIs(t, err, config.ErrNotFound)
	assert.Empty(t, tool.calls)
}
