package discovery_test

import (
	"context"
	"testing"
	"time"

	"github.com/espfleet/espfleet/pkg/discovery"
)

// TestNewMDNSBrowserDefaults verifies empty config fields pick up the
// service defaults.
func TestNewMDNSBrowserDefaults(t *testing.T) {
	b, err := discovery.NewMDNSBrowser(discovery.BrowserConfig{})
	if err != nil {
		t.Fatalf("Failed to create browser: %v", err)
	}
	_ = b
}

// TestDefaultBrowserConfig verifies the ESPHome service constants.
func TestDefaultBrowserConfig(t *testing.T) {
	cfg := discovery.DefaultBrowserConfig()
	if cfg.Service != "_esphomelib._tcp" {
		t.Errorf("Unexpected service type: %s", cfg.Service)
	}
	if cfg.Domain != "local." {
		t.Errorf("Unexpected domain: %s", cfg.Domain)
	}
}

// TestBrowseNamesClosesOnCancel verifies the name channel closes when
// the context is cancelled, so callers can range over it.
func TestBrowseNamesClosesOnCancel(t *testing.T) {
	b, err := discovery.NewMDNSBrowser(discovery.DefaultBrowserConfig())
	if err != nil {
		t.Fatalf("Failed to create browser: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	ch, err := b.BrowseNames(ctx)
	if err != nil {
		t.Fatalf("Failed to browse: %v", err)
	}

	done := make(chan struct{})
	go func() {
		for range ch {
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Name channel not closed after context cancellation")
	}
}
