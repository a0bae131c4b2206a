package discovery

import (
	"context"
	"fmt"
	"net"

	"github.com/enbility/zeroconf/v3"
)

// BrowserConfig configures the mDNS browser.
type BrowserConfig struct {
	// Service is the DNS-SD service type to browse for.
	// Default: ServiceType.
	Service string

	// Domain is the mDNS domain. Default: Domain.
	Domain string

	// Interface specifies which network interface to use.
	// Empty string means all interfaces.
	Interface string
}

// DefaultBrowserConfig returns the default browser configuration.
func DefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{
		Service: ServiceType,
		Domain:  Domain,
	}
}

// MDNSBrowser implements the Browser interface using zeroconf.
type MDNSBrowser struct {
	config BrowserConfig
}

// NewMDNSBrowser creates a new mDNS browser.
func NewMDNSBrowser(config BrowserConfig) (*MDNSBrowser, error) {
	if config.Service == "" {
		config.Service = ServiceType
	}
	if config.Domain == "" {
		config.Domain = Domain
	}
	return &MDNSBrowser{config: config}, nil
}

// BrowseNames streams advertised instance names for the configured
// service type. Names are deduplicated; a name stays reported even if
// the advertisement later disappears from one interface. The channel
// is closed when ctx is cancelled, which also tears down the
// underlying browse.
func (b *MDNSBrowser) BrowseNames(ctx context.Context) (<-chan string, error) {
	out := make(chan string)

	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)

	opts := b.browserOptions()

	go func() {
		defer close(out)

		seen := make(map[string]bool)

		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					return
				}
				if entry == nil || seen[entry.Instance] {
					continue
				}
				seen[entry.Instance] = true
				select {
				case out <- entry.Instance:
				case <-ctx.Done():
					return
				}

			case <-removed:
				// A scan is a point-in-time inventory; once seen, a
				// name stays in the result set.

			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		_ = zeroconf.Browse(ctx, b.config.Service, b.config.Domain, entries, removed, opts...)
	}()

	return out, nil
}

// Resolve browses for the named instance and returns its first IPv4
// address. Returns ErrNotFound when ctx expires before an address is
// seen.
func (b *MDNSBrowser) Resolve(ctx context.Context, name string) (string, error) {
	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)

	opts := b.browserOptions()

	go func() {
		_ = zeroconf.Browse(ctx, b.config.Service, b.config.Domain, entries, removed, opts...)
	}()

	for {
		select {
		case entry, ok := <-entries:
			if !ok {
				return "", fmt.Errorf("%w: %s", ErrNotFound, name)
			}
			if entry == nil || entry.Instance != name {
				continue
			}
			if len(entry.AddrIPv4) == 0 {
				continue
			}
			return entry.AddrIPv4[0].String(), nil

		case <-removed:
			// Ignore; resolution only cares about the first address.

		case <-ctx.Done():
			return "", fmt.Errorf("%w: %s", ErrNotFound, name)
		}
	}
}

// browserOptions returns zeroconf client options based on config.
func (b *MDNSBrowser) browserOptions() []zeroconf.ClientOption {
	var opts []zeroconf.ClientOption

	if b.config.Interface != "" {
		iface, err := net.InterfaceByName(b.config.Interface)
		if err == nil {
			opts = append(opts, zeroconf.SelectIfaces([]net.Interface{*iface}))
		}
	}

	return opts
}

// Ensure MDNSBrowser implements Browser interface.
var _ Browser = (*MDNSBrowser)(nil)
