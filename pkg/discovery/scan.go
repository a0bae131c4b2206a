package discovery

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/espfleet/espfleet/pkg/config"
	"github.com/espfleet/espfleet/pkg/registry"
)

// Scanner turns a live network scan into grouped registry entries.
type Scanner struct {
	// Browser performs the mDNS browse and resolve operations.
	Browser Browser

	// Identifiers are the known config identifiers, lexically sorted.
	Identifiers []config.Identifier

	// BrowseTimeout bounds the browse window.
	// Default: DefaultBrowseTimeout.
	BrowseTimeout time.Duration

	// ResolveTimeout bounds each per-name resolution.
	// Default: DefaultResolveTimeout.
	ResolveTimeout time.Duration

	// Progress receives human-readable status lines. Nil discards.
	Progress io.Writer
}

// Scan browses for devices, resolves their addresses one at a time
// and groups each under its matching config identifier (or the
// unmatched sentinel). A name that fails to resolve within the
// timeout is skipped. Zero discovered devices is not an error: the
// returned slice is simply empty.
func (s *Scanner) Scan(ctx context.Context) ([]registry.Entry, error) {
	progress := s.Progress
	if progress == nil {
		progress = io.Discard
	}

	names, err := s.browseNames(ctx)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fmt.Fprintf(progress, "Browse finished, %d device(s) advertised\n", len(names))

	resolveTimeout := s.ResolveTimeout
	if resolveTimeout <= 0 {
		resolveTimeout = DefaultResolveTimeout
	}

	var entries []registry.Entry
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		addr, err := s.resolve(ctx, name, resolveTimeout)
		if err != nil {
			fmt.Fprintf(progress, "No address for %s, skipping\n", name)
			continue
		}

		cfg := registry.Unmatched
		if id, ok := config.Match(s.Identifiers, name); ok {
			cfg = id.File
		}
		fmt.Fprintf(progress, "%s -> %s (%s)\n", name, addr, cfg)

		entries = append(entries, registry.Entry{Config: cfg, Addr: addr, Name: name})
	}

	return entries, nil
}

// browseNames collects the unique sorted set of advertised instance
// names within the browse window.
func (s *Scanner) browseNames(ctx context.Context) ([]string, error) {
	browseTimeout := s.BrowseTimeout
	if browseTimeout <= 0 {
		browseTimeout = DefaultBrowseTimeout
	}

	browseCtx, cancel := context.WithTimeout(ctx, browseTimeout)
	defer cancel()

	ch, err := s.Browser.BrowseNames(browseCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to browse: %w", err)
	}

	seen := make(map[string]bool)
	for name := range ch {
		seen[name] = true
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *Scanner) resolve(ctx context.Context, name string, timeout time.Duration) (string, error) {
	resolveCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return s.Browser.Resolve(resolveCtx, name)
}
