package discovery

import (
	"context"
	"errors"
	"time"
)

const (
	// ServiceType is the DNS-SD service type advertised by the ESPHome
	// native API.
	ServiceType = "_esphomelib._tcp"

	// Domain is the mDNS domain.
	Domain = "local."

	// DefaultBrowseTimeout bounds the browse window of a scan.
	DefaultBrowseTimeout = 5 * time.Second

	// DefaultResolveTimeout bounds each per-name address resolution.
	DefaultResolveTimeout = 2 * time.Second
)

// ErrNotFound indicates a name did not resolve to an address within
// the timeout.
var ErrNotFound = errors.New("service not found")

// Device is one discovered device: the advertised instance name and
// its resolved IPv4 address.
type Device struct {
	Name string
	Addr string
}

// Browser provides mDNS browse and resolve capabilities.
type Browser interface {
	// BrowseNames streams advertised instance names, deduplicated.
	// The channel is closed when the context is cancelled.
	BrowseNames(ctx context.Context) (<-chan string, error)

	// Resolve returns the first IPv4 address advertised for the named
	// instance, or ErrNotFound when the context expires first.
	Resolve(ctx context.Context, name string) (string, error)
}
