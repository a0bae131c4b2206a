package commands

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// toolCall records one fakeTool invocation.
type toolCall struct {
	Op   string
	Cfg  string
	Addr string
}

// fakeTool satisfies Tool without running anything.
type fakeTool struct {
	calls   []toolCall
	streams [][]string
	fail    map[string]error // op or op+" "+cfg/addr -> error
}

func (f *fakeTool) record(op, cfg, addr string) error {
	f.calls = append(f.calls, toolCall{Op: op, Cfg: cfg, Addr: addr})
	if err, ok := f.fail[op+" "+addr]; ok {
		return err
	}
	if err, ok := f.fail[op+" "+cfg]; ok {
		return err
	}
	return f.fail[op]
}

func (f *fakeTool) Run(_ context.Context, cfg, addr string) error {
	return f.record("run", cfg, addr)
}

func (f *fakeTool) Logs(_ context.Context, cfg, addr string) error {
	return f.record("logs", cfg, addr)
}

func (f *fakeTool) Validate(_ context.Context, cfg string) error {
	return f.record("validate", cfg, "")
}

func (f *fakeTool) Compile(_ context.Context, cfg string) error {
	return f.record("compile", cfg, "")
}

func (f *fakeTool) StreamLogs(_ context.Context, cfg string, addrs []string) error {
	f.streams = append(f.streams, append([]string{cfg}, addrs...))
	return f.fail["stream"]
}

// fixture creates a config dir with the given YAML files and a
// registry file, returning DeviceOptions wired to a fakeTool.
func fixture(t *testing.T, configs []string, registryText string) (DeviceOptions, *fakeTool) {
	t.Helper()
	dir := t.TempDir()
	for _, name := range configs {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("esphome:\n"), 0o644))
	}

	regPath := filepath.Join(dir, "devices.txt")
	require.NoError(t, os.WriteFile(regPath, []byte(registryText), 0o644))

	tool := &fakeTool{fail: map[string]error{}}
	return DeviceOptions{ConfigDir: dir, RegistryPath: regPath, Tool: tool}, tool
}
