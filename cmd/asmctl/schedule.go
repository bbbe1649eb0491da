package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/hakim/asmctl/internal/models"
	"github.com/hakim/asmctl/internal/orchestrator"
)

var scheduleCmd = &cobra.Command{
	Use:     "schedule",
	Aliases: []string{"schedules"},
	Short:   "Schedule scans to run later",
}

var scheduleCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Schedule a scan for a future time",
	Long: `Register a scan to start at a future time. The scan fields are the same as
for 'asmctl scan run'. Give the time with --at (RFC 3339 or local
"2006-01-02 15:04") or relative to now with --in.

With --watch the entry is followed until it triggers, then the live scan
is followed in turn.

Example:
  asmctl schedule create --name nightly --type dd --domain example.com --at "2026-11-01 02:00"
  asmctl schedule create --name soon --type network --ip 203.0.113.7 --in 10m --watch`,
	RunE: func(cmd *cobra.Command, args []string) error {
		at, err := scheduleTime(cmd)
		if err != nil {
			return err
		}
		watch, _ := cmd.Flags().GetBool("watch")
		req, err := scanRequestFromFlags(cmd)
		if err != nil {
			return err
		}

		a, err := openAuthed()
		if err != nil {
			return err
		}
		defer a.Close()
		orch := a.orchestrator()

		ctx, stop := interruptible()
		defer stop()

		entry, err := orch.Schedule(ctx, req, at)
		if err != nil {
			return describeValidation(a.check(err))
		}
		fmt.Printf("[+] Scan %q scheduled for %s (%s), id %s\n",
			entry.ScanName, at.Local().Format("2006-01-02 15:04"), humanize.Time(at), entry.ID)

		if !watch {
			return nil
		}
		return followSchedule(ctx, a, orch, entry.ID)
	},
}

var scheduleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List scheduled scans",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		a, err := openAuthed()
		if err != nil {
			return err
		}
		defer a.Close()

		entries, err := a.client.ListSchedules(context.Background(), limit, offset)
		if err != nil {
			return a.check(err)
		}
		if len(entries) == 0 {
			fmt.Println("No scheduled scans")
			return nil
		}

		w := newTable()
		fmt.Fprintln(w, "ID\tName\tType\tScheduled for\tStatus\tTriggered scan")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				e.ID, e.ScanName, e.ScanType, formatTime(e.ScheduledFor), e.Status, orDash(e.TriggeredScanID))
		}
		w.Flush()
		return nil
	},
}

var scheduleCancelCmd = &cobra.Command{
	Use:   "cancel <schedule-id>",
	Short: "Cancel a pending scheduled scan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openAuthed()
		if err != nil {
			return err
		}
		defer a.Close()

		entry, err := a.orchestrator().CancelSchedule(context.Background(), args[0])
		if err != nil {
			return describeValidation(a.check(err))
		}
		fmt.Printf("[+] Schedule %s is now %s\n", entry.ID, entry.Status)
		return nil
	},
}

var scheduleWatchCmd = &cobra.Command{
	Use:   "watch <schedule-id>",
	Short: "Follow a scheduled scan until it triggers, then follow the live scan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openAuthed()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := interruptible()
		defer stop()
		return followSchedule(ctx, a, a.orchestrator(), args[0])
	},
}

// followSchedule watches a schedule entry and hands off to the scan watch
// once the entry links to a live scan.
func followSchedule(ctx context.Context, a *app, orch *orchestrator.Orchestrator, id string) error {
	var last models.ScheduleStatus
	fmt.Printf("[*] Waiting for schedule %s to trigger (Ctrl-C to stop)\n", id)

	res := orch.WatchSchedule(ctx, id, orchestrator.ScheduleHooks{
		OnRefresh: func(entries []models.ScheduledScan) {
			for _, e := range entries {
				if e.ID == id && e.Status != last {
					fmt.Printf("[*] Schedule %s: %s\n", shortID(id), e.Status)
					last = e.Status
				}
			}
		},
		OnTriggered: func(e models.ScheduledScan) {
			fmt.Printf("[+] Schedule triggered scan %s\n", e.TriggeredScanID)
		},
	})
	if res.LastErr != nil {
		fmt.Printf("[!] Last poll error: %v\n", a.check(res.LastErr))
	}

	switch {
	case res.Triggered():
		scanRes := orch.Watch(ctx, res.TriggeredScanID, printingHooks(res.TriggeredScanID))
		return watchError(a, scanRes)
	case res.Reason == orchestrator.StopTerminal:
		msg := fmt.Sprintf("schedule %s ended %s without starting a scan", id, res.Last.Status)
		if res.Last.Error != "" {
			msg += ": " + res.Last.Error
		}
		return errors.New(msg)
	case res.Reason == orchestrator.StopCeiling:
		fmt.Printf("[!] Stopped waiting for schedule %s\n", id)
	default:
		fmt.Printf("[!] Stopped following schedule %s\n", id)
	}
	return nil
}

func scheduleTime(cmd *cobra.Command) (time.Time, error) {
	at, _ := cmd.Flags().GetString("at")
	in, _ := cmd.Flags().GetDuration("in")

	switch {
	case at != "" && in != 0:
		return time.Time{}, errors.New("use either --at or --in, not both")
	case in != 0:
		return time.Now().Add(in), nil
	case at == "":
		return time.Time{}, errors.New("please select schedule time (--at or --in)")
	}

	if t, err := time.Parse(time.RFC3339, at); err == nil {
		return t, nil
	}
	for _, layout := range []string{"2006-01-02 15:04", "2006-01-02T15:04", "2006-01-02 15:04:05"} {
		if t, err := time.ParseInLocation(layout, at, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse --at %q (want RFC 3339 or \"2006-01-02 15:04\")", at)
}

func init() {
	addScanRequestFlags(scheduleCreateCmd)
	scheduleCreateCmd.Flags().String("at", "", `Start time, RFC 3339 or local "2006-01-02 15:04"`)
	scheduleCreateCmd.Flags().Duration("in", 0, "Start after this long, e.g. 30m")
	scheduleCreateCmd.Flags().Bool("watch", false, "Follow the entry until it triggers, then the scan")
	scheduleCreateCmd.MarkFlagRequired("name")

	scheduleListCmd.Flags().Int("limit", 50, "Maximum number of entries")
	scheduleListCmd.Flags().Int("offset", 0, "Entries to skip")

	scheduleCmd.AddCommand(scheduleCreateCmd, scheduleListCmd, scheduleCancelCmd, scheduleWatchCmd)
	rootCmd.AddCommand(scheduleCmd)
}
