package orchestrator

import (
	"context"
	"slices"
	"sync"

	"github.com/sourcegraph/conc"
)

// Tracker runs independent scan watches and cancels whatever is still
// running when it is closed. Each watch still ends on its own at a terminal
// status or its ceiling.
type Tracker struct {
	o      *Orchestrator
	ctx    context.Context
	cancel context.CancelFunc
	wg     conc.WaitGroup

	mu      sync.Mutex
	closed  bool
	active  map[string]context.CancelFunc
	results []WatchResult
}

// NewTracker creates a tracker whose watches end no later than parent.
func (o *Orchestrator) NewTracker(parent context.Context) *Tracker {
	ctx, cancel := context.WithCancel(parent)
	return &Tracker{
		o:      o,
		ctx:    ctx,
		cancel: cancel,
		active: make(map[string]context.CancelFunc),
	}
}

// Track starts watching scanID. It returns false if the scan is already
// tracked or the tracker is closed.
func (t *Tracker) Track(scanID string, hooks ScanHooks) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return false
	}
	if _, dup := t.active[scanID]; dup {
		return false
	}

	ctx, cancel := context.WithCancel(t.ctx)
	t.active[scanID] = cancel

	t.wg.Go(func() {
		defer cancel()
		res := t.o.Watch(ctx, scanID, hooks)

		t.mu.Lock()
		delete(t.active, scanID)
		t.results = append(t.results, res)
		t.mu.Unlock()
	})
	return true
}

// Active lists the scan ids still being watched.
func (t *Tracker) Active() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	ids := make([]string, 0, len(t.active))
	for id := range t.active {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Wait blocks until every watch has ended and returns their results in
// completion order.
func (t *Tracker) Wait() []WatchResult {
	t.wg.Wait()
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.results)
}

// Close cancels all outstanding watches and waits for them to return.
func (t *Tracker) Close() []WatchResult {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
	t.cancel()
	return t.Wait()
}
