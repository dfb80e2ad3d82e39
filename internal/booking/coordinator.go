package booking

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/metinatakli/movie-booking/internal/domain"
)

// Listener is told about every booking that became paid. It is called once
// per booking, by the confirmation that performed the transition.
type Listener interface {
	BookingPaid(ctx context.Context, booking *domain.Booking) error
}

type ListenerFunc func(ctx context.Context, booking *domain.Booking) error

func (f ListenerFunc) BookingPaid(ctx context.Context, booking *domain.Booking) error {
	return f(ctx, booking)
}

type Coordinator struct {
	store     *Store
	payments  domain.PaymentProvider
	listeners []Listener
	currency  string
	logger    *slog.Logger
}

type Option func(*Coordinator)

func WithListener(l Listener) Option {
	return func(c *Coordinator) {
		c.listeners = append(c.listeners, l)
	}
}

func WithCurrency(currency string) Option {
	return func(c *Coordinator) {
		c.currency = currency
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

func NewCoordinator(store *Store, payments domain.PaymentProvider, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:    store,
		payments: payments,
		currency: "inr",
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type InitiateRequest struct {
	CallerID      int
	BookingID     uuid.UUID
	CustomerEmail string
	Title         string
	Description   string
}

// Initiate opens a checkout session for a pending booking of the caller and
// remembers the session on the booking.
func (c *Coordinator) Initiate(ctx context.Context, req InitiateRequest) (*domain.PaymentSession, error) {
	if req.CallerID == 0 {
		return nil, domain.ErrUnauthenticated
	}

	b, err := c.store.GetOwned(ctx, req.BookingID, req.CallerID)
	if err != nil {
		return nil, err
	}

	if b.PaymentStatus != domain.PaymentStatusPending {
		return nil, fmt.Errorf("%w: booking is already %s", domain.ErrConflict, b.PaymentStatus)
	}

	session, err := c.payments.CreateCheckoutSession(ctx, domain.PaymentSessionRequest{
		BookingID:     b.ID,
		UserID:        b.UserID,
		CustomerEmail: req.CustomerEmail,
		Amount:        b.TotalPrice,
		Currency:      c.currency,
		Title:         req.Title,
		Description:   req.Description,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create checkout session: %w", domain.ErrExternalService, err)
	}

	if err := c.store.AttachCheckoutSession(ctx, b.ID, session.ID); err != nil {
		return nil, err
	}

	return session, nil
}

type ConfirmRequest struct {
	CallerID  int
	SessionID string
	BookingID uuid.UUID
}

type Acknowledgement struct {
	BookingID   uuid.UUID
	Status      domain.PaymentStatus
	AlreadyPaid bool
}

// Confirm marks the caller's booking paid once the gateway reports the
// checkout session as settled. Repeated confirmations of the same booking
// are acknowledged without side effects.
func (c *Coordinator) Confirm(ctx context.Context, req ConfirmRequest) (*Acknowledgement, error) {
	if req.CallerID == 0 {
		return nil, domain.ErrUnauthenticated
	}

	v := domain.NewValidationError()
	v.Check(req.SessionID != "", "session_id", "must be provided")
	v.Check(req.BookingID != uuid.Nil, "booking_id", "must be provided")
	if err := v.Err(); err != nil {
		return nil, err
	}

	if _, err := c.store.GetOwned(ctx, req.BookingID, req.CallerID); err != nil {
		return nil, err
	}

	status, err := c.payments.VerifySession(ctx, req.SessionID, req.BookingID)
	if err != nil {
		return nil, fmt.Errorf("%w: verify checkout session: %w", domain.ErrExternalService, err)
	}

	if !status.Settled {
		return nil, fmt.Errorf("%w: checkout session is %s", domain.ErrPaymentNotSettled, status.Status)
	}

	b, changed, err := c.store.markPaid(ctx, req.BookingID, req.CallerID)
	if err != nil {
		return nil, err
	}

	if changed {
		c.notify(ctx, b)
	}

	return &Acknowledgement{
		BookingID:   b.ID,
		Status:      b.PaymentStatus,
		AlreadyPaid: !changed,
	}, nil
}

func (c *Coordinator) notify(ctx context.Context, b *domain.Booking) {
	for _, l := range c.listeners {
		if err := l.BookingPaid(ctx, b); err != nil {
			c.logger.ErrorContext(ctx, "booking paid listener failed",
				"bookingId", b.ID,
				"error", err)
		}
	}
}

// Resolution is what Resolve did with an abandoned booking.
type Resolution int

const (
	// ResolutionKept leaves the booking pending: its checkout can still be
	// paid, or it was settled by someone else meanwhile.
	ResolutionKept Resolution = iota
	ResolutionPaid
	ResolutionExpired
)

// Resolve settles a booking left pending past its hold window. A booking
// whose checkout session was paid is confirmed as if its webhook had
// arrived, one whose session is still open is kept, and anything else is
// cancelled, releasing its seats. When the gateway cannot be reached the
// booking is kept and the error returned.
func (c *Coordinator) Resolve(ctx context.Context, b *domain.Booking) (Resolution, error) {
	if b.CheckoutSessionID != nil && *b.CheckoutSessionID != "" {
		status, err := c.payments.VerifySession(ctx, *b.CheckoutSessionID, b.ID)
		if err != nil {
			return ResolutionKept, fmt.Errorf("%w: verify checkout session: %w", domain.ErrExternalService, err)
		}

		switch {
		case status.Settled:
			paid, changed, err := c.store.markPaid(ctx, b.ID, b.UserID)
			if err != nil {
				return ResolutionKept, err
			}
			if !changed {
				return ResolutionKept, nil
			}

			c.notify(ctx, paid)
			return ResolutionPaid, nil
		case status.Open:
			return ResolutionKept, nil
		}
	}

	changed, err := c.store.Expire(ctx, b.ID)
	if err != nil {
		return ResolutionKept, err
	}
	if !changed {
		return ResolutionKept, nil
	}

	return ResolutionExpired, nil
}
