package telemetry

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/datazip-inc/rowsync/types"
	"github.com/goccy/go-json"
	"github.com/mitchellh/hashstructure"
)

const syncMetricsFile = "sync_metrics.json"

type SyncMetrics struct {
	Total   int            `json:"total"`
	Success int            `json:"success"`
	Failed  int            `json:"failed"`
	Weeks   map[string]int `json:"weeks"` // Key format: "YYYY-Www" (e.g., "2023-W43")
}

// Tracker keeps per configuration success and failure counts in a JSON file.
// A disabled tracker records nothing.
type Tracker struct {
	mu      sync.Mutex
	dir     string
	enabled bool
	now     func() time.Time
}

func NewTracker(dir string, enabled bool) *Tracker {
	if dir == "" {
		dir = DefaultDir()
	}
	return &Tracker{dir: dir, enabled: enabled, now: time.Now}
}

// DefaultDir is where the metrics file lives unless configured otherwise.
func DefaultDir() string {
	return filepath.Join(os.TempDir(), "rowsync")
}

func (t *Tracker) Path() string {
	return filepath.Join(t.dir, syncMetricsFile)
}

// ComputeConfigHash identifies the effective configuration, environment
// overrides included. Passwords are not part of the hash.
func ComputeConfigHash(cfg *types.Config) string {
	if cfg == nil {
		return ""
	}
	hash, err := hashstructure.Hash(cfg, nil)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%016x", hash)
}

// TrackSyncResult counts one cycle result against configHash and returns the
// updated counts. Persisting is best effort: a read or write failure never
// fails the cycle and is reported through the error only.
func (t *Tracker) TrackSyncResult(configHash string, success bool) (*SyncMetrics, error) {
	if t == nil || !t.enabled || configHash == "" {
		return nil, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	metrics := make(map[string]SyncMetrics)
	if data, err := os.ReadFile(t.Path()); err == nil {
		_ = json.Unmarshal(data, &metrics) // Best-effort read
	}

	year, week := t.now().ISOWeek()
	weekKey := fmt.Sprintf("%d-W%02d", year, week)

	configMetrics, exists := metrics[configHash]
	if !exists || configMetrics.Weeks == nil {
		configMetrics.Weeks = make(map[string]int)
	}
	configMetrics.Total++
	if success {
		configMetrics.Success++
	} else {
		configMetrics.Failed++
	}
	configMetrics.Weeks[weekKey]++
	metrics[configHash] = configMetrics

	data, err := json.Marshal(metrics)
	if err != nil {
		return &configMetrics, fmt.Errorf("failed to encode sync metrics: %s", err)
	}
	if err := os.MkdirAll(t.dir, 0o755); err != nil {
		return &configMetrics, fmt.Errorf("failed to create telemetry dir: %s", err)
	}
	if err := os.WriteFile(t.Path(), data, 0o600); err != nil {
		return &configMetrics, fmt.Errorf("failed to save sync metrics: %s", err)
	}
	return &configMetrics, nil
}
