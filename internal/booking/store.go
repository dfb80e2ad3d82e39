// Package booking holds the durable booking records and the coordinator
// that turns a verified payment into a paid booking.
package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/metinatakli/movie-booking/internal/domain"
)

// Store enforces the booking lifecycle on top of a repository:
// pending → paid and pending → cancelled, both terminal.
type Store struct {
	repo domain.BookingRepository
	now  func() time.Time
}

func NewStore(repo domain.BookingRepository) *Store {
	return &Store{repo: repo, now: time.Now}
}

// Create validates and persists a new pending booking. A zero ID is
// replaced with a fresh one.
func (s *Store) Create(ctx context.Context, b *domain.Booking) error {
	if err := validateBooking(b); err != nil {
		return err
	}

	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}

	b.PaymentStatus = domain.PaymentStatusPending
	if b.BookingTime.IsZero() {
		b.BookingTime = s.now()
	}

	return s.repo.Create(ctx, b)
}

func validateBooking(b *domain.Booking) error {
	v := domain.NewValidationError()

	v.Check(b.UserID > 0, "user_id", "must be provided")
	v.Check(b.MovieID > 0, "movie_id", "must be provided")
	v.Check(b.ShowtimeID != "", "showtime_id", "must be provided")
	v.Check(!b.ShowTime.IsZero(), "show_time", "must be provided")
	v.Check(b.Seats >= 1, "seats", "must be at least 1")
	v.Check(len(b.SeatNumbers) == b.Seats, "seat_numbers", "must match the number of seats")
	v.Check(b.TotalPrice.IsPositive(), "total_price", "must be greater than zero")

	seen := make(map[int]struct{}, len(b.SeatNumbers))
	for _, n := range b.SeatNumbers {
		if _, dup := seen[n]; dup || n < 1 {
			v.Add("seat_numbers", "must be distinct positive seat numbers")
			break
		}
		seen[n] = struct{}{}
	}

	return v.Err()
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	return s.repo.GetById(ctx, id)
}

// GetOwned returns the booking only when it belongs to callerID.
func (s *Store) GetOwned(ctx context.Context, id uuid.UUID, callerID int) (*domain.Booking, error) {
	b, err := s.repo.GetById(ctx, id)
	if err != nil {
		return nil, err
	}

	if b.UserID != callerID {
		return nil, fmt.Errorf("%w: booking belongs to another user", domain.ErrUnauthorized)
	}

	return b, nil
}

func (s *Store) ListByUser(
	ctx context.Context,
	userID int,
	pagination domain.Pagination) ([]domain.BookingSummary, *domain.Metadata, error) {

	return s.repo.GetByUserId(ctx, userID, pagination)
}

// ReservedSeats lists the seats of the showtime held by pending or paid
// bookings.
func (s *Store) ReservedSeats(ctx context.Context, showtimeID string) ([]int, error) {
	return s.repo.GetReservedSeats(ctx, showtimeID)
}

// StalePending lists pending bookings created before the cutoff.
func (s *Store) StalePending(ctx context.Context, createdBefore time.Time) ([]domain.Booking, error) {
	return s.repo.GetStalePending(ctx, createdBefore)
}

func (s *Store) AttachCheckoutSession(ctx context.Context, id uuid.UUID, checkoutSessionID string) error {
	return s.repo.SetCheckoutSession(ctx, id, checkoutSessionID)
}

// MarkPaid moves an owned booking from pending to paid. Marking an already
// paid booking succeeds without change; a cancelled booking is a conflict.
func (s *Store) MarkPaid(ctx context.Context, id uuid.UUID, callerID int) (*domain.Booking, error) {
	b, _, err := s.markPaid(ctx, id, callerID)
	return b, err
}

// markPaid additionally reports whether this call performed the transition.
func (s *Store) markPaid(ctx context.Context, id uuid.UUID, callerID int) (*domain.Booking, bool, error) {
	return s.settle(ctx, id, domain.PaymentStatusPaid, ownedBy(callerID))
}

// Cancel moves an owned booking from pending to cancelled, releasing its
// seats. Cancelling twice succeeds; cancelling a paid booking is a conflict.
func (s *Store) Cancel(ctx context.Context, id uuid.UUID, callerID int) (*domain.Booking, error) {
	b, _, err := s.settle(ctx, id, domain.PaymentStatusCancelled, ownedBy(callerID))
	return b, err
}

// Expire cancels an abandoned pending booking on behalf of the system.
// It reports whether the booking was cancelled by this call.
func (s *Store) Expire(ctx context.Context, id uuid.UUID) (bool, error) {
	_, changed, err := s.settle(ctx, id, domain.PaymentStatusCancelled, nil)
	return changed, err
}

func ownedBy(callerID int) func(*domain.Booking) error {
	return func(b *domain.Booking) error {
		if b.UserID != callerID {
			return fmt.Errorf("%w: booking belongs to another user", domain.ErrUnauthorized)
		}
		return nil
	}
}

func (s *Store) settle(
	ctx context.Context,
	id uuid.UUID,
	to domain.PaymentStatus,
	authorize func(*domain.Booking) error) (*domain.Booking, bool, error) {

	b, err := s.repo.GetById(ctx, id)
	if err != nil {
		return nil, false, err
	}

	if authorize != nil {
		if err := authorize(b); err != nil {
			return nil, false, err
		}
	}

	switch b.PaymentStatus {
	case to:
		return b, false, nil
	case domain.PaymentStatusPending:
	default:
		return nil, false, conflict(b.PaymentStatus, to)
	}

	updated, err := s.repo.UpdateStatus(ctx, id, domain.PaymentStatusPending, to)
	if err == nil {
		return updated, true, nil
	}

	if !errors.Is(err, domain.ErrEditConflict) {
		return nil, false, err
	}

	// Another writer settled the booking between the read and the update.
	current, err := s.repo.GetById(ctx, id)
	if err != nil {
		return nil, false, err
	}

	if current.PaymentStatus == to {
		return current, false, nil
	}

	return nil, false, conflict(current.PaymentStatus, to)
}

func conflict(from, to domain.PaymentStatus) error {
	return fmt.Errorf("%w: booking is %s and cannot become %s", domain.ErrConflict, from, to)
}
