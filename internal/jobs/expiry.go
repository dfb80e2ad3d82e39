// Package jobs holds the background work scheduled next to the API.
package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/metinatakli/movie-booking/internal/booking"
	"github.com/metinatakli/movie-booking/internal/domain"
)

type PendingStore interface {
	StalePending(ctx context.Context, createdBefore time.Time) ([]domain.Booking, error)
}

// Resolver decides what happens to a stale booking, checking its payment
// with the gateway first.
type Resolver interface {
	Resolve(ctx context.Context, b *domain.Booking) (booking.Resolution, error)
}

// PendingExpiry settles bookings that stayed pending longer than the hold
// window. Those paid at the gateway become paid, the rest are cancelled and
// their seats released.
type PendingExpiry struct {
	store      PendingStore
	resolver   Resolver
	holdWindow time.Duration
	logger     *slog.Logger
	now        func() time.Time
	onExpired  func(ctx context.Context, n int)
}

type Option func(*PendingExpiry)

// WithExpiredHook is called after every run that cancelled at least one
// booking.
func WithExpiredHook(fn func(ctx context.Context, n int)) Option {
	return func(j *PendingExpiry) {
		j.onExpired = fn
	}
}

func NewPendingExpiry(
	store PendingStore,
	resolver Resolver,
	holdWindow time.Duration,
	logger *slog.Logger,
	opts ...Option) *PendingExpiry {

	j := &PendingExpiry{
		store:      store,
		resolver:   resolver,
		holdWindow: holdWindow,
		logger:     logger,
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(j)
	}

	return j
}

// Run resolves every stale booking and returns how many it cancelled.
// A booking paid or cancelled concurrently is skipped, and one whose payment
// state cannot be determined stays pending until the next run.
func (j *PendingExpiry) Run(ctx context.Context) (int, error) {
	stale, err := j.store.StalePending(ctx, j.now().Add(-j.holdWindow))
	if err != nil {
		return 0, err
	}

	expired := 0
	var errs []error

	for _, b := range stale {
		resolution, err := j.resolver.Resolve(ctx, &b)
		switch {
		case errors.Is(err, domain.ErrConflict):
			continue
		case err != nil:
			errs = append(errs, err)
			continue
		}

		switch resolution {
		case booking.ResolutionExpired:
			expired++
			j.logger.InfoContext(ctx, "expired pending booking",
				"bookingId", b.ID,
				"userId", b.UserID,
				"createdAt", b.CreatedAt)
		case booking.ResolutionPaid:
			j.logger.WarnContext(ctx, "confirmed stale booking paid at the gateway",
				"bookingId", b.ID,
				"userId", b.UserID,
				"createdAt", b.CreatedAt)
		}
	}

	if expired > 0 && j.onExpired != nil {
		j.onExpired(ctx, expired)
	}

	return expired, errors.Join(errs...)
}

// Schedule registers the job to run every interval. Overlapping runs are
// skipped.
func (j *PendingExpiry) Schedule(s gocron.Scheduler, interval time.Duration) (gocron.Job, error) {
	return s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			defer cancel()

			if _, err := j.Run(ctx); err != nil {
				j.logger.Error("failed to expire pending bookings", "error", err)
			}
		}),
		gocron.WithName("expire-pending-bookings"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
}
