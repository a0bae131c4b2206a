package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/espfleet/espfleet/pkg/config"
	"github.com/espfleet/espfleet/pkg/esphome"
	"github.com/espfleet/espfleet/pkg/registry"
)

// Tool is the esphome runner surface the commands use. Satisfied by
// *esphome.Runner; replaced by fakes in tests.
type Tool interface {
	Run(ctx context.Context, cfg, addr string) error
	Logs(ctx context.Context, cfg, addr string) error
	Validate(ctx context.Context, cfg string) error
	Compile(ctx context.Context, cfg string) error
	StreamLogs(ctx context.Context, cfg string, addrs []string) error
}

// DeviceOptions configures the per-device and bulk commands.
type DeviceOptions struct {
	// ConfigDir is the directory holding the device YAML files.
	ConfigDir string

	// RegistryPath is the registry file for address lookups.
	RegistryPath string

	// Tool overrides the esphome runner. Nil uses the real tool with
	// ConfigDir as working directory.
	Tool Tool
}

func (o DeviceOptions) runner() Tool {
	if o.Tool != nil {
		return o.Tool
	}
	return &esphome.Runner{Dir: o.ConfigDir}
}

// configForAddr maps a device address to its config through the
// registry, verifying the config file exists on disk.
func (o DeviceOptions) configForAddr(addr string) (string, error) {
	reg, err := registry.Load(o.RegistryPath)
	if err != nil {
		return "", err
	}

	cfg, ok := reg.ConfigFor(addr)
	if !ok {
		return "", fmt.Errorf("no registry entry for %s", addr)
	}
	if err := o.checkConfigFile(cfg); err != nil {
		return "", err
	}
	return cfg, nil
}

func (o DeviceOptions) checkConfigFile(cfg string) error {
	if _, err := os.Stat(filepath.Join(o.ConfigDir, cfg)); err != nil {
		return fmt.Errorf("%w: %s", config.ErrNotFound, cfg)
	}
	return nil
}

// RunUpload compiles and uploads to the device at addr, using the
// registry to find its config.
func RunUpload(ctx context.Context, opts DeviceOptions, addr string) error {
	cfg, err := opts.configForAddr(addr)
	if err != nil {
		return err
	}
	return opts.runner().Run(ctx, cfg, addr)
}

// RunLogs streams logs from the device at addr until interrupted.
func RunLogs(ctx context.Context, opts DeviceOptions, addr string) error {
	cfg, err := opts.configForAddr(addr)
	if err != nil {
		return err
	}
	return opts.runner().Logs(ctx, cfg, addr)
}

// RunValidate validates a named config.
func RunValidate(ctx context.Context, opts DeviceOptions, cfgArg string) error {
	id, err := resolveConfig(opts.ConfigDir, cfgArg)
	if err != nil {
		return err
	}
	return opts.runner().Validate(ctx, id.File)
}

// RunCompile builds a named config without uploading.
func RunCompile(ctx context.Context, opts DeviceOptions, cfgArg string) error {
	id, err := resolveConfig(opts.ConfigDir, cfgArg)
	if err != nil {
		return err
	}
	return opts.runner().Compile(ctx, id.File)
}

func resolveConfig(dir, cfgArg string) (config.Identifier, error) {
	ids, err := config.Scan(dir)
	if err != nil {
		return config.Identifier{}, err
	}
	return config.Resolve(ids, cfgArg)
}

// Ensure the real runner satisfies the Tool interface.
var _ Tool = (*esphome.Runner)(nil)
