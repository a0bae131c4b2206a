package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/espfleet/espfleet/pkg/config"
	"github.com/espfleet/espfleet/pkg/esphome"
	"github.com/espfleet/espfleet/pkg/registry"
)

// RunAll uploads to every registry entry in file order, aborting
// remaining work on the first failure.
func RunAll(ctx context.Context, opts DeviceOptions, stderr io.Writer) error {
	reg, err := registry.Load(opts.RegistryPath)
	if err != nil {
		return err
	}

	runner := opts.runner()
	for _, e := range reg.Entries() {
		if err := opts.checkConfigFile(e.Config); err != nil {
			return err
		}
		fmt.Fprintf(stderr, "==> %s (%s)\n", e.Addr, e.Config)
		if err := runner.Run(ctx, e.Config, e.Addr); err != nil {
			return fmt.Errorf("aborting remaining devices: %w", err)
		}
	}
	return nil
}

// RunConfigAll uploads to every address under one registry section,
// aborting on the first failure.
func RunConfigAll(ctx context.Context, opts DeviceOptions, cfgArg string, stderr io.Writer) error {
	id, err := resolveConfig(opts.ConfigDir, cfgArg)
	if err != nil {
		return err
	}

	addrs, err := registryAddresses(opts.RegistryPath, id.File)
	if err != nil {
		return err
	}

	runner := opts.runner()
	for _, addr := range addrs {
		fmt.Fprintf(stderr, "==> %s (%s)\n", addr, id.File)
		if err := runner.Run(ctx, id.File, addr); err != nil {
			return fmt.Errorf("aborting remaining devices: %w", err)
		}
	}
	return nil
}

// LogsConfig streams logs from every device under one registry
// section concurrently, each line prefixed with its address.
func LogsConfig(ctx context.Context, opts DeviceOptions, cfgArg string) error {
	id, err := resolveConfig(opts.ConfigDir, cfgArg)
	if err != nil {
		return err
	}

	addrs, err := registryAddresses(opts.RegistryPath, id.File)
	if err != nil {
		return err
	}

	return opts.runner().StreamLogs(ctx, id.File, addrs)
}

// ValidateAll validates every known config, printing OK or FAILED per
// item and continuing past failures. Returns an error when any config
// failed.
func ValidateAll(ctx context.Context, opts DeviceOptions, stdout io.Writer) error {
	ids, err := config.Scan(opts.ConfigDir)
	if err != nil {
		return err
	}

	// The per-config tool output would drown the OK/FAILED report.
	quiet := opts.Tool
	if quiet == nil {
		quiet = &esphome.Runner{Dir: opts.ConfigDir, Stdout: io.Discard, Stderr: io.Discard}
	}

	failed := 0
	for _, id := range ids {
		if err := quiet.Validate(ctx, id.File); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintf(stdout, "FAILED  %s\n", id.File)
			failed++
			continue
		}
		fmt.Fprintf(stdout, "OK      %s\n", id.File)
	}

	if failed > 0 {
		return fmt.Errorf("%d configuration(s) failed validation", failed)
	}
	return nil
}

func registryAddresses(path, section string) ([]string, error) {
	reg, err := registry.Load(path)
	if err != nil {
		return nil, err
	}
	addrs := reg.Addresses(section)
	if len(addrs) == 0 {
		return nil, fmt.Errorf("no registry entries for %s", section)
	}
	return addrs, nil
}
