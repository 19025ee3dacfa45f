package app

import (
	"context"
	"log"
	"time"

	"github.com/ndelorme/barberq/internal/booking"
	"github.com/ndelorme/barberq/internal/queueapi"
	"github.com/ndelorme/barberq/internal/state"
)

const maxBackoff = 30 * time.Second

// StartQueuePoller launches the barber-side refresh loop. It returns
// immediately; the goroutine exits when ctx is cancelled. Consecutive
// failures back the cadence off exponentially up to maxBackoff.
func StartQueuePoller(ctx context.Context, store *state.Store, client queueapi.Backend, salonID, barberID string, interval time.Duration) {
	go func() {
		for {
			refreshQueue(ctx, store, client, salonID, barberID)

			delay := calculateBackoff(store.Snapshot().ConsecutiveFailures, interval)
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}
	}()
}

func refreshQueue(ctx context.Context, store *state.Store, client queueapi.Backend, salonID, barberID string) {
	entries, err := client.QueueEntries(ctx, salonID, barberID, queueapi.StatusUnknown)
	if err != nil {
		store.Update(nil, nil, err)
		log.Printf("queue poll failed: %v", err)
		return
	}
	info, err := client.QueueInfo(ctx, salonID, barberID)
	if err != nil {
		store.Update(nil, nil, err)
		log.Printf("queue info poll failed: %v", err)
		return
	}
	store.Update(entries, &info, nil)
}

// StartBookingPoller launches the client-side active-booking refresh loop.
// Each fetch claims a lifecycle sequence before issuing the request so a
// result arriving after a newer write is discarded as stale.
func StartBookingPoller(ctx context.Context, lc *booking.Lifecycle, client queueapi.Backend, clientID string, interval time.Duration) {
	go func() {
		for {
			refreshBooking(ctx, lc, client, clientID)

			delay := calculateBackoff(lc.View().ConsecutiveFailures, interval)
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}
	}()
}

func refreshBooking(ctx context.Context, lc *booking.Lifecycle, client queueapi.Backend, clientID string) {
	seq := lc.NextSeq()
	snap, found, err := client.ActiveBooking(ctx, clientID)
	if err != nil {
		lc.ApplyError(seq, err)
		log.Printf("booking poll failed: %v", err)
		return
	}
	lc.ApplySnapshot(seq, snap, found)
}

// StartNotificationsPoller launches the slower notification-feed refresh.
// Failures keep the previous feed; there is no backoff on this loop.
func StartNotificationsPoller(ctx context.Context, lc *booking.Lifecycle, client queueapi.Backend, clientID string, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			items, err := client.Notifications(ctx, clientID)
			if err != nil {
				log.Printf("notifications poll failed: %v", err)
			} else {
				lc.ApplyNotifications(items)
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

// calculateBackoff doubles the base interval per consecutive failure,
// capped at maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	delay := base
	for i := 0; i < failures; i++ {
		delay *= 2
		if delay >= maxBackoff {
			return maxBackoff
		}
	}
	return delay
}
