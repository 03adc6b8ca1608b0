package guard

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrSuperseded is returned for a navigation that finished after a newer one
// had already started. Its outcome is discarded.
var ErrSuperseded = errors.New("navigation superseded by a newer one")

// Navigator serializes the effect of concurrent navigations for one visitor:
// only the most recently started navigation may apply its outcome. Earlier
// runs are not cancelled; their results are dropped when they complete.
type Navigator struct {
	guard *Guard
	seq   atomic.Uint64

	mu      sync.Mutex
	current Outcome
	applied bool
}

// NewNavigator creates a navigator over g.
func NewNavigator(g *Guard) *Navigator {
	return &Navigator{guard: g}
}

// Navigate resolves rawURL and applies the outcome unless a newer
// navigation started meanwhile.
func (n *Navigator) Navigate(ctx context.Context, rawURL string) (Outcome, error) {
	id := n.seq.Add(1)
	out, err := n.guard.Navigate(ctx, rawURL)
	if err != nil {
		return Outcome{}, err
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if id != n.seq.Load() {
		return Outcome{}, ErrSuperseded
	}
	n.current = out
	n.applied = true
	return out, nil
}

// Current returns the last applied outcome, if any.
func (n *Navigator) Current() (Outcome, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current, n.applied
}
