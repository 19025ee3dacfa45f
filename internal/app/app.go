// Package app is the composition root: it wires configuration, the API
// client, the pollers, and the role-specific UI together.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ndelorme/barberq/internal/booking"
	"github.com/ndelorme/barberq/internal/config"
	"github.com/ndelorme/barberq/internal/prefs"
	"github.com/ndelorme/barberq/internal/queueapi"
	"github.com/ndelorme/barberq/internal/state"
	"github.com/ndelorme/barberq/internal/ui"
)

// Options configure the barberq application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/barberq/prefs.toml
	Role       string // overrides the configured role when non-empty
	PollEvery  int    // seconds; overrides booking/queue cadence when > 0
}

// Run boots the barberq TUI until the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.Role != "" {
		role, err := config.ParseRole(opts.Role)
		if err != nil {
			return err
		}
		cfg.Role = role
	}
	if opts.PollEvery > 0 {
		d := time.Duration(opts.PollEvery) * time.Second
		cfg.QueuePoll = d
		cfg.BookingPoll = d
	}

	userPrefs := prefs.Load(opts.PrefsPath)

	client, err := queueapi.NewClient(cfg.APIBind)
	if err != nil {
		return fmt.Errorf("init queue client: %w", err)
	}

	switch cfg.Role {
	case config.RoleBarber:
		if cfg.SalonID == "" || cfg.BarberID == "" {
			return fmt.Errorf("barber role requires salon_id and barber_id in config")
		}
		store := &state.Store{}

		// Populate the store before the UI starts, then keep it fresh.
		refreshQueue(ctx, store, client, cfg.SalonID, cfg.BarberID)
		StartQueuePoller(ctx, store, client, cfg.SalonID, cfg.BarberID, cfg.QueuePoll)

		return ui.RunBarber(ui.BarberOptions{
			Context:   ctx,
			Client:    client,
			Store:     store,
			Config:    cfg,
			ThemeName: userPrefs.Theme,
		})

	case config.RoleClient:
		if cfg.ClientID == "" {
			return fmt.Errorf("client role requires client_id in config")
		}
		lc := booking.NewLifecycle()

		refreshBooking(ctx, lc, client, cfg.ClientID)
		StartBookingPoller(ctx, lc, client, cfg.ClientID, cfg.BookingPoll)
		StartNotificationsPoller(ctx, lc, client, cfg.ClientID, cfg.NotificationsPoll)

		return ui.RunClient(ui.ClientOptions{
			Context:   ctx,
			Client:    client,
			Lifecycle: lc,
			Config:    cfg,
			ThemeName: userPrefs.Theme,
		})

	default:
		return fmt.Errorf("unsupported role %q", cfg.Role)
	}
}
