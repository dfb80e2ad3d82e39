package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusPaid      PaymentStatus = "paid"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusCancelled:
		return true
	default:
		return false
	}
}

// Terminal reports whether no further status transition is allowed.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentStatusPaid || s == PaymentStatusCancelled
}

type Booking struct {
	ID                uuid.UUID
	UserID            int
	MovieID           int
	ShowtimeID        string
	ShowTime          time.Time
	Seats             int
	SeatNumbers       []int
	TotalPrice        decimal.Decimal
	PaymentStatus     PaymentStatus
	CheckoutSessionID *string
	BookingTime       time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// BookingSummary is a booking joined with the movie it was made for, as
// listed in the purchase history.
type BookingSummary struct {
	Booking
	MovieTitle     string
	MoviePosterUrl string
}

// CalculateTotalPrice returns round(price × modifier × seats).
func CalculateTotalPrice(price decimal.Decimal, priceModifier decimal.Decimal, seats int) decimal.Decimal {
	return price.Mul(priceModifier).Mul(decimal.NewFromInt(int64(seats))).Round(0)
}

type BookingRepository interface {
	Create(ctx context.Context, booking *Booking) error
	GetById(ctx context.Context, id uuid.UUID) (*Booking, error)
	// UpdateStatus moves the booking from one status to another as a single
	// guarded write. It returns ErrEditConflict when the booking is not in
	// the expected status.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to PaymentStatus) (*Booking, error)
	SetCheckoutSession(ctx context.Context, id uuid.UUID, checkoutSessionID string) error
	GetByUserId(ctx context.Context, userID int, pagination Pagination) ([]BookingSummary, *Metadata, error)
	GetReservedSeats(ctx context.Context, showtimeID string) ([]int, error)
	GetStalePending(ctx context.Context, createdBefore time.Time) ([]Booking, error)
}
