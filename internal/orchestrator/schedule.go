package orchestrator

import (
	"context"
	"strings"
	"time"

	"github.com/hakim/asmctl/internal/models"
)

// scheduleListLimit is the page size used when watching schedules.
const scheduleListLimit = 50

// Schedule validates req like Submit does and registers it to run at at,
// which must lie in the future.
func (o *Orchestrator) Schedule(ctx context.Context, req Request, at time.Time) (*models.ScheduledScan, error) {
	kind, payload, err := Validate(req, o.scope)
	if err != nil {
		return nil, err
	}
	if at.IsZero() {
		return nil, invalid("scheduled_for", "Please select schedule time")
	}
	if !at.After(o.now()) {
		return nil, invalid("scheduled_for", "Schedule time %s is in the past", at.Format(time.RFC3339))
	}

	sched, err := o.backend.CreateSchedule(ctx, models.CreateScheduleRequest{
		ScanName:     strings.TrimSpace(req.Name),
		ScanType:     kind.Type,
		ScheduledFor: at.UTC().Format("2006-01-02T15:04:05.000Z"),
		Payload:      payload,
	})
	if err != nil {
		return nil, err
	}
	o.logger.Infow("Scan scheduled", "schedule_id", sched.ID, "type", kind.Type, "at", at)
	return sched, nil
}

// CancelSchedule cancels a pending schedule entry.
func (o *Orchestrator) CancelSchedule(ctx context.Context, id string) (*models.ScheduledScan, error) {
	if strings.TrimSpace(id) == "" {
		return nil, invalid("schedule_id", "Schedule ID is required")
	}
	return o.backend.CancelSchedule(ctx, id)
}

// ScheduleHooks observe a schedule watch. All hooks are optional.
type ScheduleHooks struct {
	OnRefresh func(entries []models.ScheduledScan)
	// OnTriggered fires once, when the entry first carries a triggered_scan_id.
	OnTriggered func(entry models.ScheduledScan)
}

// ScheduleResult is the outcome of a schedule watch
type ScheduleResult struct {
	PollOutcome
	ScheduleID      string
	Last            *models.ScheduledScan
	TriggeredScanID string
}

// Triggered reports whether the watch ended by linking to a live scan.
func (r ScheduleResult) Triggered() bool {
	return r.TriggeredScanID != ""
}

// WatchSchedule polls the schedule list until the entry triggers a live scan
// or reaches a terminal status without one.
func (o *Orchestrator) WatchSchedule(ctx context.Context, id string, hooks ScheduleHooks) ScheduleResult {
	res := ScheduleResult{ScheduleID: id}

	res.PollOutcome = Poll(ctx, o.schedulePoll, o.logger, func(ctx context.Context) (bool, error) {
		entries, err := o.backend.ListSchedules(ctx, scheduleListLimit, 0)
		if err != nil {
			return false, err
		}
		if hooks.OnRefresh != nil {
			hooks.OnRefresh(entries)
		}

		var entry *models.ScheduledScan
		for i := range entries {
			if entries[i].ID == id {
				entry = &entries[i]
				break
			}
		}
		if entry == nil {
			return false, nil
		}
		last := *entry
		res.Last = &last

		if entry.TriggeredScanID != "" {
			res.TriggeredScanID = entry.TriggeredScanID
			return true, nil
		}
		return entry.Status.Terminal(), nil
	})

	o.logger.Infow("Schedule watch stopped",
		"schedule_id", id, "reason", res.Reason, "polls", res.Polls, "triggered_scan_id", res.TriggeredScanID)

	if res.Triggered() && hooks.OnTriggered != nil {
		hooks.OnTriggered(*res.Last)
	}
	return res
}
