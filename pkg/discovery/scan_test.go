package discovery_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/espfleet/espfleet/pkg/config"
	"github.com/espfleet/espfleet/pkg/discovery"
	"github.com/espfleet/espfleet/pkg/registry"
)

// fakeBrowser serves canned names and addresses without the network.
type fakeBrowser struct {
	names []string
	addrs map[string]string // name -> IPv4; absent means resolution fails
}

func (f *fakeBrowser) BrowseNames(ctx context.Context) (<-chan string, error) {
	out := make(chan string)
	go func() {
		defer close(out)
		for _, name := range f.names {
			select {
			case out <- name:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (f *fakeBrowser) Resolve(ctx context.Context, name string) (string, error) {
	if addr, ok := f.addrs[name]; ok {
		return addr, nil
	}
	<-ctx.Done()
	return "", discovery.ErrNotFound
}

func identifiers(files ...string) []config.Identifier {
	ids := make([]config.Identifier, 0, len(files))
	for _, f := range files {
		ids = append(ids, config.Derive(f))
	}
	return ids
}

func TestScanGroupsByPrefix(t *testing.T) {
	browser := &fakeBrowser{
		names: []string{"shelly-1-mini-gen3-abcd", "kitchen-a4f2"},
		addrs: map[string]string{
			"shelly-1-mini-gen3-abcd": "192.168.2.5",
			"kitchen-a4f2":            "192.168.2.14",
		},
	}
	scanner := &discovery.Scanner{
		Browser:     browser,
		Identifiers: identifiers("kitchen.yaml", "shelly_1_mini_gen3.yaml"),
	}

	entries, err := scanner.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Contains(t, entries, registry.Entry{
		Config: "shelly_1_mini_gen3.yaml",
		Addr:   "192.168.2.5",
		Name:   "shelly-1-mini-gen3-abcd",
	})
	assert.Contains(t, entries, registry.Entry{
		Config: "kitchen.yaml",
		Addr:   "192.168.2.14",
		Name:   "kitchen-a4f2",
	})
}

func TestScanUnmatchedNeverDropped(t *testing.T) {
	browser := &fakeBrowser{
		names: []string{"mystery-device"},
		addrs: map[string]string{"mystery-device": "192.168.2.200"},
	}
	scanner := &discovery.Scanner{
		Browser:     browser,
		Identifiers: identifiers("kitchen.yaml"),
	}

	entries, err := scanner.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, registry.Unmatched, entries[0].Config)
	assert.Equal(t, "mystery-device", entries[0].Name)
}

func TestScanSkipsUnresolvedNames(t *testing.T) {
	browser := &fakeBrowser{
		names: []string{"kitchen-a4f2", "kitchen-dead"},
		addrs: map[string]string{"kitchen-a4f2": "192.168.2.14"},
	}
	var progress strings.Builder
	scanner := &discovery.Scanner{
		Browser:        browser,
		Identifiers:    identifiers("kitchen.yaml"),
		ResolveTimeout: 10 * time.Millisecond,
		Progress:       &progress,
	}

	entries, err := scanner.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "192.168.2.14", entries[0].Addr)
	assert.Contains(t, progress.String(), "skipping")
}

func TestScanZeroDevices(t *testing.T) {
	scanner := &discovery.Scanner{
		Browser:     &fakeBrowser{},
		Identifiers: identifiers("kitchen.yaml"),
	}

	entries, err := scanner.Scan(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestScanDeduplicatesAndSortsNames(t *testing.T) {
	browser := &fakeBrowser{
		names: []string{"b-dev", "a-dev", "b-dev"},
		addrs: map[string]string{"a-dev": "10.0.0.1", "b-dev": "10.0.0.2"},
	}
	scanner := &discovery.Scanner{Browser: browser}

	entries, err := scanner.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a-dev", entries[0].Name)
	assert.Equal(t, "b-dev", entries[1].Name)
}

func TestScanCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	browser := &fakeBrowser{
		names: []string{"a-dev"},
		addrs: map[string]string{"a-dev": "10.0.0.1"},
	}
	scanner := &discovery.Scanner{Browser: browser}

	_, err := scanner.Scan(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
