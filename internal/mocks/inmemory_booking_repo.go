package mocks

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/metinatakli/movie-booking/internal/domain"
)

// InMemoryBookingRepo is a BookingRepository backed by a map. It mirrors the
// Postgres constraints that matter to callers: status updates are guarded
// on the current status and a seat can be held by one live booking only.
type InMemoryBookingRepo struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]domain.Booking
}

func NewInMemoryBookingRepo() *InMemoryBookingRepo {
	return &InMemoryBookingRepo{bookings: make(map[uuid.UUID]domain.Booking)}
}

func (r *InMemoryBookingRepo) Create(_ context.Context, b *domain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	held := r.reservedLocked(b.ShowtimeID)
	for _, seat := range b.SeatNumbers {
		if slices.Contains(held, seat) {
			return domain.ErrSeatAlreadyReserved
		}
	}

	if b.CreatedAt.IsZero() {
		b.CreatedAt = b.BookingTime
	}
	b.UpdatedAt = b.CreatedAt

	stored := *b
	stored.SeatNumbers = slices.Clone(b.SeatNumbers)
	r.bookings[b.ID] = stored

	return nil
}

func (r *InMemoryBookingRepo) GetById(_ context.Context, id uuid.UUID) (*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[id]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}

	return &b, nil
}

func (r *InMemoryBookingRepo) UpdateStatus(
	_ context.Context,
	id uuid.UUID,
	from, to domain.PaymentStatus) (*domain.Booking, error) {

	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[id]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	if b.PaymentStatus != from {
		return nil, domain.ErrEditConflict
	}

	b.PaymentStatus = to
	b.UpdatedAt = time.Now()
	r.bookings[id] = b

	return &b, nil
}

func (r *InMemoryBookingRepo) SetCheckoutSession(_ context.Context, id uuid.UUID, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[id]
	if !ok {
		return domain.ErrRecordNotFound
	}

	b.CheckoutSessionID = &sessionID
	r.bookings[id] = b

	return nil
}

func (r *InMemoryBookingRepo) GetByUserId(
	_ context.Context,
	userID int,
	pagination domain.Pagination) ([]domain.BookingSummary, *domain.Metadata, error) {

	r.mu.Lock()
	defer r.mu.Unlock()

	var owned []domain.BookingSummary
	for _, b := range r.bookings {
		if b.UserID == userID {
			owned = append(owned, domain.BookingSummary{Booking: b})
		}
	}

	slices.SortFunc(owned, func(a, b domain.BookingSummary) int {
		return b.BookingTime.Compare(a.BookingTime)
	})

	total := len(owned)
	start := min(pagination.Offset(), total)
	end := min(start+pagination.Limit(), total)

	return owned[start:end], domain.NewMetadata(total, pagination.Page, pagination.PageSize), nil
}

func (r *InMemoryBookingRepo) GetReservedSeats(_ context.Context, showtimeID string) ([]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.reservedLocked(showtimeID), nil
}

func (r *InMemoryBookingRepo) GetStalePending(_ context.Context, createdBefore time.Time) ([]domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var stale []domain.Booking
	for _, b := range r.bookings {
		if b.PaymentStatus == domain.PaymentStatusPending && b.CreatedAt.Before(createdBefore) {
			stale = append(stale, b)
		}
	}

	return stale, nil
}

func (r *InMemoryBookingRepo) reservedLocked(showtimeID string) []int {
	var seats []int
	for _, b := range r.bookings {
		if b.ShowtimeID == showtimeID && b.PaymentStatus != domain.PaymentStatusCancelled {
			seats = append(seats, b.SeatNumbers...)
		}
	}

	slices.Sort(seats)
	return seats
}
