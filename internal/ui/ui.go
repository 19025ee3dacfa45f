// Package ui renders the barberq terminal front ends: the barber's queue
// board with its session timer, and the client's queue-position view.
package ui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ndelorme/barberq/internal/booking"
	"github.com/ndelorme/barberq/internal/config"
	"github.com/ndelorme/barberq/internal/queueapi"
	"github.com/ndelorme/barberq/internal/state"
)

// BarberOptions configure the barber board UI.
type BarberOptions struct {
	Context   context.Context
	Client    queueapi.Backend
	Store     *state.Store
	Config    config.Config
	ThemeName string
}

// RunBarber runs the barber board until quit or context cancellation.
func RunBarber(opts BarberOptions) error {
	model := newBarberModel(opts)
	program := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithContext(opts.Context),
	)
	if _, err := program.Run(); err != nil && opts.Context.Err() == nil {
		return fmt.Errorf("run barber ui: %w", err)
	}
	return nil
}

// ClientOptions configure the client queue-position UI.
type ClientOptions struct {
	Context   context.Context
	Client    queueapi.Backend
	Lifecycle *booking.Lifecycle
	Config    config.Config
	ThemeName string
}

// RunClient runs the client view until quit, context cancellation, or the
// lifecycle reporting there is nothing left to show.
func RunClient(opts ClientOptions) error {
	model := newClientModel(opts)
	program := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithContext(opts.Context),
	)
	if _, err := program.Run(); err != nil && opts.Context.Err() == nil {
		return fmt.Errorf("run client ui: %w", err)
	}
	return nil
}
