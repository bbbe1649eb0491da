package orchestrator

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// StopReason says why a poll loop ended
type StopReason string

const (
	// StopTerminal: the poll function reported completion.
	StopTerminal StopReason = "terminal"
	// StopCeiling: the safety ceiling elapsed first.
	StopCeiling StopReason = "ceiling"
	// StopCancelled: the context was cancelled.
	StopCancelled StopReason = "cancelled"
)

// PollConfig is a fixed interval plus an optional hard ceiling
type PollConfig struct {
	// Interval between polls. The first poll happens one Interval after start.
	Interval time.Duration
	// Ceiling stops the loop unconditionally once elapsed. Zero means none.
	Ceiling time.Duration
}

// PollOutcome summarises a finished poll loop
type PollOutcome struct {
	Reason StopReason
	Polls  int
	// LastErr is the most recent poll error, if any. Errors never stop the loop.
	LastErr error
}

// PollFunc performs one poll and reports whether the loop is done.
type PollFunc func(ctx context.Context) (done bool, err error)

// Poll calls fn every cfg.Interval until fn reports done, ctx is cancelled
// or the ceiling elapses. fn is never called again after any of those.
func Poll(ctx context.Context, cfg PollConfig, logger *zap.SugaredLogger, fn PollFunc) PollOutcome {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultScanPoll.Interval
	}

	if cfg.Ceiling > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeoutCause(ctx, cfg.Ceiling, errCeiling)
		defer cancel()
	}

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	var out PollOutcome
	for {
		select {
		case <-ctx.Done():
			out.Reason = stopReason(ctx)
			return out
		case <-ticker.C:
		}

		// A tick and the deadline can be ready together; the deadline wins.
		if ctx.Err() != nil {
			out.Reason = stopReason(ctx)
			return out
		}

		out.Polls++
		done, err := fn(ctx)
		if err != nil {
			if ctx.Err() != nil {
				out.Reason = stopReason(ctx)
				return out
			}
			out.LastErr = err
			logger.Warnw("Poll failed, will retry on next tick", "poll", out.Polls, "error", err)
			continue
		}
		if done {
			out.Reason = StopTerminal
			return out
		}
	}
}

var errCeiling = errors.New("poll ceiling reached")

func stopReason(ctx context.Context) StopReason {
	if errors.Is(context.Cause(ctx), errCeiling) {
		return StopCeiling
	}
	return StopCancelled
}
