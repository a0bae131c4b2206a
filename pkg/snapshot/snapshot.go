package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"

	"github.com/espfleet/espfleet/pkg/discovery"
)

// Version is the current snapshot format version.
const Version = 1

// encMode is the CBOR encoder mode for snapshots, configured for
// deterministic encoding.
var encMode cbor.EncMode

// decMode is the CBOR decoder mode for snapshots.
var decMode cbor.DecMode

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	}
	encMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create snapshot CBOR encoder mode: %v", err))
	}

	decOpts := cbor.DecOptions{
		DupMapKey: cbor.DupMapKeyQuiet,
	}
	decMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create snapshot CBOR decoder mode: %v", err))
	}
}

// Snapshot is the persisted record of one discovery scan.
type Snapshot struct {
	Version int                `cbor:"1,keyasint"`
	RunID   string             `cbor:"2,keyasint"`
	TakenAt time.Time          `cbor:"3,keyasint"`
	Devices []discovery.Device `cbor:"4,keyasint,omitempty"`
}

// New builds a snapshot of the given devices with a fresh run ID.
func New(devices []discovery.Device) *Snapshot {
	return &Snapshot{
		Version: Version,
		RunID:   uuid.NewString(),
		TakenAt: time.Now(),
		Devices: devices,
	}
}

// Save writes the snapshot to path, creating parent directories as
// needed.
func Save(path string, snap *Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	data, err := encMode.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// Load reads a snapshot from path. Returns nil, nil when the file
// does not exist (no previous scan).
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	snap := &Snapshot{}
	if err := decMode.Unmarshal(data, snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return snap, nil
}

// Diff compares a previous snapshot with the current device set and
// returns the names that appeared and disappeared, sorted. A nil
// previous snapshot reports everything as appeared.
func Diff(prev *Snapshot, current []discovery.Device) (appeared, disappeared []string) {
	known := make(map[string]bool)
	if prev != nil {
		for _, d := range prev.Devices {
			known[d.Name] = true
		}
	}

	seen := make(map[string]bool, len(current))
	for _, d := range current {
		seen[d.Name] = true
		if !known[d.Name] {
			appeared = append(appeared, d.Name)
		}
	}
	for name := range known {
		if !seen[name] {
			disappeared = append(disappeared, name)
		}
	}

	sort.Strings(appeared)
	sort.Strings(disappeared)
	return appeared, disappeared
}
