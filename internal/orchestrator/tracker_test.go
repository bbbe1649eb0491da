package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hakim/asmctl/internal/models"
)

func TestTrackerRunsIndependentWatches(t *testing.T) {
	backend := &fakeBackend{scanScript: [][]models.Scan{
		{scan("a", models.ScanCompleted), scan("b", models.ScanInProgress)},
	}}
	o := New(backend, Options{ScanPoll: PollConfig{Interval: 10 * time.Millisecond, Ceiling: 80 * time.Millisecond}})

	tr := o.NewTracker(context.Background())
	assert.True(t, tr.Track("a", ScanHooks{}))
	assert.True(t, tr.Track("b", ScanHooks{}))
	assert.False(t, tr.Track("a", ScanHooks{}), "duplicate watch refused")

	results := tr.Wait()
	assert.Len(t, results, 2)

	reasons := map[string]StopReason{}
	for _, r := range results {
		reasons[r.ScanID] = r.Reason
	}
	assert.Equal(t, StopTerminal, reasons["a"])
	assert.Equal(t, StopCeiling, reasons["b"])
	assert.Empty(t, tr.Active())
}

func TestTrackerCloseCancelsOutstanding(t *testing.T) {
	backend := &fakeBackend{scanScript: [][]models.Scan{{scan("a", models.ScanInProgress)}}}
	o := New(backend, Options{ScanPoll: PollConfig{Interval: 10 * time.Millisecond}})

	tr := o.NewTracker(context.Background())
	tr.Track("a", ScanHooks{})
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, []string{"a"}, tr.Active())

	results := tr.Close()
	assert.Len(t, results, 1)
	assert.Equal(t, StopCancelled, results[0].Reason)

	calls := backend.listCalls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, calls, backend.listCalls.Load(), "no polls after teardown")
	assert.False(t, tr.Track("b", ScanHooks{}), "closed tracker accepts nothing")
}

func TestScope(t *testing.T) {
	s := &Scope{AllowedDomains: []string{"example.com", "*.corp.io"}}
	assert.NoError(t, s.ValidateDomain("Example.com"))
	assert.NoError(t, s.ValidateDomain("vpn.corp.io"))
	assert.Error(t, s.ValidateDomain("corp.io"))
	assert.Error(t, s.ValidateDomain("a.b.corp.io"))

	var empty *Scope
	assert.NoError(t, empty.ValidateDomain("anything.test"))
}
