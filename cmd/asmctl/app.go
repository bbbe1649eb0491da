package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hakim/asmctl/internal/api"
	"github.com/hakim/asmctl/internal/orchestrator"
	"github.com/hakim/asmctl/internal/session"
	"github.com/hakim/asmctl/internal/storage"
)

// app bundles what most commands need: the two token stores, the session
// built on them and an API client authenticated by that session.
type app struct {
	client  *api.Client
	session *session.Session
	stores  []*storage.Store
}

func openApp() (*app, error) {
	if cfg == nil {
		return nil, errors.New("config not loaded. Run 'asmctl init' first to create config")
	}

	persistent, err := storage.NewStore(cfg.Session.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening session store: %w", err)
	}
	scoped, err := storage.NewStore(cfg.Session.ScopedPath)
	if err != nil {
		persistent.Close()
		return nil, fmt.Errorf("opening session store: %w", err)
	}
	a := &app{stores: []*storage.Store{persistent, scoped}}

	a.session, err = session.New(persistent, scoped, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.client, err = api.New(api.Options{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.RequestTimeout(),
		Tokens:  a.session,
		Logger:  logger,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// openAuthed opens the app and refuses to continue without a stored token.
func openAuthed() (*app, error) {
	a, err := openApp()
	if err != nil {
		return nil, err
	}
	if a.session.Token() == "" {
		a.Close()
		return nil, errors.New("not signed in. Run 'asmctl login' first")
	}
	return a, nil
}

func (a *app) Close() {
	for _, s := range a.stores {
		s.Close()
	}
}

// check turns a backend rejection of the token into a sign-out, the same
// way a failed session validation does.
func (a *app) check(err error) error {
	if err == nil {
		return nil
	}
	if api.IsUnauthorized(err) {
		if logoutErr := a.session.Logout(); logoutErr != nil {
			logger.Warnw("Clearing rejected token failed", "error", logoutErr)
		}
		return fmt.Errorf("%w (signed out; run 'asmctl login')", err)
	}
	return err
}

func (a *app) orchestrator() *orchestrator.Orchestrator {
	scanInterval, scanCeiling := cfg.ScanPoll()
	scheduleInterval, scheduleCeiling := cfg.SchedulePoll()

	var notifier *orchestrator.Notifier
	if cfg.Notify.WebhookURL != "" {
		notifier = &orchestrator.Notifier{WebhookURL: cfg.Notify.WebhookURL}
	}

	return orchestrator.New(a.client, orchestrator.Options{
		Scope: &orchestrator.Scope{
			AllowedDomains: cfg.Scope.AllowedDomains,
			AllowedCIDRs:   cfg.Scope.AllowedCIDRs,
		},
		ScanPoll:     orchestrator.PollConfig{Interval: scanInterval, Ceiling: scanCeiling},
		SchedulePoll: orchestrator.PollConfig{Interval: scheduleInterval, Ceiling: scheduleCeiling},
		Notifier:     notifier,
		Logger:       logger,
	})
}

// persistChoice is the persist flag a new sign-in should use.
func persistChoice() bool {
	if noPersist {
		return false
	}
	return cfg.Session.Persist
}

// interruptible returns a context cancelled by Ctrl-C or SIGTERM, so long
// watches stop cleanly.
func interruptible() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
