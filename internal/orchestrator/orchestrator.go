// Package orchestrator submits scans and follows them to a terminal state by
// polling the backend, which is the only source of truth for scan status.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hakim/asmctl/internal/api"
	"github.com/hakim/asmctl/internal/models"
)

var (
	// DefaultScanPoll follows a scan every 2s for at most 5 minutes.
	DefaultScanPoll = PollConfig{Interval: 2 * time.Second, Ceiling: 5 * time.Minute}

	// DefaultSchedulePoll follows a schedule every 5s with no ceiling.
	DefaultSchedulePoll = PollConfig{Interval: 5 * time.Second}
)

// Backend is the slice of the API client the orchestrator drives.
type Backend interface {
	CreateScan(ctx context.Context, req models.CreateScanRequest) (*models.Scan, error)
	RunAPIScan(ctx context.Context, req api.APIScanRequest) (json.RawMessage, error)
	ListScans(ctx context.Context) ([]models.Scan, error)
	GetScan(ctx context.Context, id string) (*models.Scan, error)
	PauseScan(ctx context.Context, id string) (*models.ScanAction, error)
	ResumeScan(ctx context.Context, id string) (*models.ScanAction, error)
	TerminateScan(ctx context.Context, id string) (*models.ScanAction, error)
	CreateSchedule(ctx context.Context, req models.CreateScheduleRequest) (*models.ScheduledScan, error)
	ListSchedules(ctx context.Context, limit, offset int) ([]models.ScheduledScan, error)
	CancelSchedule(ctx context.Context, id string) (*models.ScheduledScan, error)
}

// Options configures an Orchestrator
type Options struct {
	Scope        *Scope
	ScanPoll     PollConfig
	SchedulePoll PollConfig
	Notifier     *Notifier
	Logger       *zap.SugaredLogger
}

// Orchestrator validates, submits and follows scans
type Orchestrator struct {
	backend      Backend
	scope        *Scope
	scanPoll     PollConfig
	schedulePoll PollConfig
	notifier     *Notifier
	logger       *zap.SugaredLogger
	now          func() time.Time
}

// New creates an orchestrator. Zero poll configs use the defaults.
func New(backend Backend, opts Options) *Orchestrator {
	o := &Orchestrator{
		backend:      backend,
		scope:        opts.Scope,
		scanPoll:     opts.ScanPoll,
		schedulePoll: opts.SchedulePoll,
		notifier:     opts.Notifier,
		logger:       opts.Logger,
		now:          time.Now,
	}
	if o.scanPoll.Interval <= 0 {
		o.scanPoll = DefaultScanPoll
	}
	if o.schedulePoll.Interval <= 0 {
		o.schedulePoll = DefaultSchedulePoll
	}
	if o.logger == nil {
		o.logger = zap.NewNop().Sugar()
	}
	return o
}

// Submission is the immediate outcome of submitting a scan. Polled kinds
// return the created Scan; inline kinds return their Result.
type Submission struct {
	Kind   Kind
	Scan   *models.Scan
	Result json.RawMessage
}

// Submit validates req and sends it. Invalid requests never reach the backend.
func (o *Orchestrator) Submit(ctx context.Context, req Request) (*Submission, error) {
	kind, payload, err := Validate(req, o.scope)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)

	if !kind.Polled {
		o.logger.Infow("Running inline scan", "name", name, "type", kind.Type)
		result, err := o.backend.RunAPIScan(ctx, api.APIScanRequest{
			ScanName:  name,
			AssetURL:  payload["asset_url"].(string),
			Endpoints: payload["endpoints"].([]models.Endpoint),
		})
		if err != nil {
			return nil, err
		}
		return &Submission{Kind: kind, Result: result}, nil
	}

	scan, err := o.backend.CreateScan(ctx, models.CreateScanRequest{
		ScanName: name,
		ScanType: kind.Type,
		Payload:  payload,
	})
	if err != nil {
		return nil, err
	}
	if scan == nil || scan.ScanID == "" {
		return nil, errors.New("backend accepted the scan but returned no scan_id")
	}
	o.logger.Infow("Scan submitted", "scan_id", scan.ScanID, "name", scan.ScanName, "type", kind.Type)
	return &Submission{Kind: kind, Scan: scan}, nil
}

// ScanHooks observe a scan watch. All hooks are optional.
type ScanHooks struct {
	// OnRefresh receives every refreshed scan list.
	OnRefresh func(scans []models.Scan)
	// OnTerminal fires exactly once, when the scan reaches a terminal status.
	OnTerminal func(scan models.Scan)
}

// WatchResult is the outcome of a scan watch
type WatchResult struct {
	PollOutcome
	ScanID  string
	Last    *models.Scan
	Elapsed time.Duration
}

// Watch polls the full scan list until scanID is terminal, ctx is cancelled
// or the ceiling elapses. The terminal scan is sent to the notifier, if any.
func (o *Orchestrator) Watch(ctx context.Context, scanID string, hooks ScanHooks) WatchResult {
	start := o.now()
	res := WatchResult{ScanID: scanID}

	res.PollOutcome = Poll(ctx, o.scanPoll, o.logger, func(ctx context.Context) (bool, error) {
		scans, err := o.backend.ListScans(ctx)
		if err != nil {
			return false, err
		}
		if hooks.OnRefresh != nil {
			hooks.OnRefresh(scans)
		}

		scan, ok := findScan(scans, scanID)
		if !ok {
			return false, nil
		}
		res.Last = &scan
		return scan.Status.Terminal(), nil
	})
	res.Elapsed = o.now().Sub(start)

	o.logger.Infow("Scan watch stopped",
		"scan_id", scanID, "reason", res.Reason, "polls", res.Polls, "elapsed", res.Elapsed)

	if res.Reason == StopTerminal && res.Last != nil {
		if hooks.OnTerminal != nil {
			hooks.OnTerminal(*res.Last)
		}
		if err := o.notifier.SendTerminal(context.WithoutCancel(ctx), *res.Last, res.Elapsed); err != nil {
			o.logger.Warnw("Completion webhook failed", "scan_id", scanID, "error", err)
		}
	}
	return res
}

// Run submits req and, for polled kinds, watches it.
func (o *Orchestrator) Run(ctx context.Context, req Request, hooks ScanHooks) (*Submission, *WatchResult, error) {
	sub, err := o.Submit(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	if !sub.Kind.Polled {
		return sub, nil, nil
	}
	res := o.Watch(ctx, sub.Scan.ScanID, hooks)
	return sub, &res, nil
}

// Pause asks the backend to pause a scan. The acknowledgement is advisory;
// only a later poll confirms the new status.
func (o *Orchestrator) Pause(ctx context.Context, scanID string) (*models.ScanAction, error) {
	if err := requireID(scanID); err != nil {
		return nil, err
	}
	return o.backend.PauseScan(ctx, scanID)
}

// Resume asks the backend to resume a paused scan.
func (o *Orchestrator) Resume(ctx context.Context, scanID string) (*models.ScanAction, error) {
	if err := requireID(scanID); err != nil {
		return nil, err
	}
	return o.backend.ResumeScan(ctx, scanID)
}

// Terminate asks the backend to stop a scan for good.
func (o *Orchestrator) Terminate(ctx context.Context, scanID string) (*models.ScanAction, error) {
	if err := requireID(scanID); err != nil {
		return nil, err
	}
	return o.backend.TerminateScan(ctx, scanID)
}

// Status fetches one scan. Backends without the single-scan route answer
// 404, in which case the scan list is searched instead.
func (o *Orchestrator) Status(ctx context.Context, scanID string) (*models.Scan, error) {
	if err := requireID(scanID); err != nil {
		return nil, err
	}
	scan, err := o.backend.GetScan(ctx, scanID)
	if err == nil {
		return scan, nil
	}
	if !api.IsNotFound(err) {
		return nil, err
	}

	scans, err := o.backend.ListScans(ctx)
	if err != nil {
		return nil, err
	}
	found, ok := findScan(scans, scanID)
	if !ok {
		return nil, fmt.Errorf("scan %s not found", scanID)
	}
	return &found, nil
}

func requireID(id string) error {
	if strings.TrimSpace(id) == "" {
		return invalid("scan_id", "Scan ID is required")
	}
	return nil
}

func findScan(scans []models.Scan, id string) (models.Scan, bool) {
	for _, s := range scans {
		if s.ScanID == id {
			return s, true
		}
	}
	return models.Scan{}, false
}
