// Package commands implements the espfleet CLI commands.
package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/espfleet/espfleet/pkg/config"
	"github.com/espfleet/espfleet/pkg/discovery"
	"github.com/espfleet/espfleet/pkg/registry"
	"github.com/espfleet/espfleet/pkg/snapshot"
)

// DiscoverOptions configures the discover command.
type DiscoverOptions struct {
	// ConfigDir is the directory holding the device YAML files.
	ConfigDir string

	// Timeout is the browse window. Zero uses the default.
	Timeout time.Duration

	// SnapshotPath, when set, persists the scan result and reports
	// changes against the previous snapshot.
	SnapshotPath string

	// Browser overrides the mDNS browser. Nil uses the real one.
	Browser discovery.Browser
}

// RunDiscover scans the network and writes the rendered registry to
// stdout, progress to stderr. Zero devices found is not an error.
func RunDiscover(ctx context.Context, opts DiscoverOptions, stdout, stderr io.Writer) error {
	ids, err := config.Scan(opts.ConfigDir)
	if err != nil {
		return err
	}

	browser := opts.Browser
	if browser == nil {
		browser, err = discovery.NewMDNSBrowser(discovery.DefaultBrowserConfig())
		if err != nil {
			return fmt.Errorf("failed to create mDNS browser: %w", err)
		}
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = discovery.DefaultBrowseTimeout
	}
	fmt.Fprintf(stderr, "Browsing for %s devices for %s...\n", discovery.ServiceType, timeout)

	scanner := &discovery.Scanner{
		Browser:       browser,
		Identifiers:   ids,
		BrowseTimeout: timeout,
		Progress:      stderr,
	}
	entries, err := scanner.Scan(ctx)
	if err != nil {
		return err
	}

	if opts.SnapshotPath != "" {
		if err := recordSnapshot(opts.SnapshotPath, entries, stderr); err != nil {
			// Snapshot bookkeeping must not fail the scan itself.
			fmt.Fprintf(stderr, "Warning: %v\n", err)
		}
	}

	if len(entries) == 0 {
		fmt.Fprintln(stderr, "No devices found.")
		return nil
	}

	return registry.Render(stdout, entries)
}

// recordSnapshot saves the scan and reports the delta to the previous
// one.
func recordSnapshot(path string, entries []registry.Entry, stderr io.Writer) error {
	devices := make([]discovery.Device, 0, len(entries))
	for _, e := range entries {
		devices = append(devices, discovery.Device{Name: e.Name, Addr: e.Addr})
	}

	prev, err := snapshot.Load(path)
	if err != nil {
		return err
	}

	if prev != nil {
		appeared, disappeared := snapshot.Diff(prev, devices)
		for _, name := range appeared {
			fmt.Fprintf(stderr, "New since last scan: %s\n", name)
		}
		for _, name := range disappeared {
			fmt.Fprintf(stderr, "Gone since last scan: %s\n", name)
		}
	}

	return snapshot.Save(path, snapshot.New(devices))
}
