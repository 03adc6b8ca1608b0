package session

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jobvyne/navguard/internal/logger"
	"go.uber.org/zap"
)

// DefaultReloadAfter is how much newer a deploy must be before the client
// bundle is considered stale.
const DefaultReloadAfter = 5 * time.Minute

// DeployWatcher detects that the API was redeployed since the client first
// saw it, which means the client bundle should be reloaded.
type DeployWatcher struct {
	threshold time.Duration

	mu      sync.Mutex
	known   time.Time
	pending bool
}

// NewDeployWatcher creates a watcher that reports stale bundles once a
// deploy is more than threshold newer than the first one observed.
func NewDeployWatcher(threshold time.Duration) *DeployWatcher {
	if threshold <= 0 {
		threshold = DefaultReloadAfter
	}
	return &DeployWatcher{threshold: threshold}
}

// Observe records a deploy timestamp and reports whether a reload is due.
// After reporting a reload the new timestamp becomes the known one.
func (w *DeployWatcher) Observe(raw string) bool {
	ts, ok := parseDeployTS(raw)
	if !ok {
		return false
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.known.IsZero() {
		w.known = ts
		return false
	}
	if ts.Sub(w.known) > w.threshold {
		logger.Info("newer deploy detected",
			zap.Time("known", w.known),
			zap.Time("deployed", ts),
		)
		w.known = ts
		w.pending = true
		return true
	}
	return false
}

// Seed sets the deploy the client is known to run, e.g. one it reported
// itself. Unparseable values are ignored.
func (w *DeployWatcher) Seed(raw string) {
	ts, ok := parseDeployTS(raw)
	if !ok {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.known = ts
}

// TakeReload reports whether a reload became due since the last call.
func (w *DeployWatcher) TakeReload() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	due := w.pending
	w.pending = false
	return due
}

// Known returns the deploy timestamp the client is running against.
func (w *DeployWatcher) Known() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.known
}

func parseDeployTS(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "default" {
		return time.Time{}, false
	}
	if secs, err := strconv.ParseFloat(raw, 64); err == nil {
		return time.Unix(int64(secs), 0).UTC(), true
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
