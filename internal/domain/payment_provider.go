package domain

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentSessionRequest struct {
	BookingID     uuid.UUID
	UserID        int
	CustomerEmail string
	Amount        decimal.Decimal
	Currency      string
	Title         string
	Description   string
}

type PaymentSession struct {
	ID  string
	URL string
}

// PaymentSessionStatus is what the gateway reports for a checkout session.
// Settled is true only for a fully captured payment, not an initiated one.
// Open sessions can still be paid.
type PaymentSessionStatus struct {
	SessionID string
	BookingID string
	Settled   bool
	Open      bool
	Status    string
}

type PaymentProvider interface {
	CreateCheckoutSession(ctx context.Context, req PaymentSessionRequest) (*PaymentSession, error)
	VerifySession(ctx context.Context, sessionID string, bookingID uuid.UUID) (*PaymentSessionStatus, error)
}
