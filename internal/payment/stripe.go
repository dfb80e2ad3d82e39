package payment

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/metinatakli/movie-booking/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
)

const (
	MetadataBookingID = "booking_id"
	MetadataUserID    = "user_id"
)

// StripePaymentProvider collects payments through hosted Stripe Checkout.
// The secret key is read from stripe.Key.
type StripePaymentProvider struct {
	failureUrl string
	successUrl string
	sessionTTL time.Duration
}

func NewStripePaymentProvider(failureUrl, successUrl string, sessionTTL time.Duration) *StripePaymentProvider {
	return &StripePaymentProvider{
		failureUrl: failureUrl,
		successUrl: successUrl,
		sessionTTL: sessionTTL,
	}
}

func (s *StripePaymentProvider) CreateCheckoutSession(
	ctx context.Context,
	req domain.PaymentSessionRequest) (*domain.PaymentSession, error) {

	bookingID := req.BookingID.String()

	params := &stripe.CheckoutSessionParams{
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(req.Currency),
					UnitAmount: stripe.Int64(minorUnits(req.Amount)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(fmt.Sprintf("%s - Movie Ticket", req.Title)),
						Description: stripe.String(req.Description),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		SuccessURL: stripe.String(withQuery(s.successUrl,
			"session_id={CHECKOUT_SESSION_ID}", MetadataBookingID+"="+bookingID)),
		CancelURL: stripe.String(withQuery(s.failureUrl, MetadataBookingID+"="+bookingID)),
		Metadata: map[string]string{
			MetadataBookingID: bookingID,
			MetadataUserID:    strconv.Itoa(req.UserID),
		},
		ClientReferenceID: stripe.String(bookingID),
	}
	params.Context = ctx

	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}

	if s.sessionTTL > 0 {
		params.ExpiresAt = stripe.Int64(time.Now().Add(s.sessionTTL).Unix())
	}

	cs, err := session.New(params)
	if err != nil {
		return nil, err
	}

	return &domain.PaymentSession{ID: cs.ID, URL: cs.URL}, nil
}

// VerifySession retrieves the checkout session. It only counts as settled
// when Stripe reports it paid and it was opened for bookingID.
func (s *StripePaymentProvider) VerifySession(
	ctx context.Context,
	sessionID string,
	bookingID uuid.UUID) (*domain.PaymentSessionStatus, error) {

	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	cs, err := session.Get(sessionID, params)
	if err != nil {
		return nil, err
	}

	return SessionStatus(cs, bookingID), nil
}

// SessionStatus evaluates a checkout session, as retrieved or as delivered
// by a webhook, against the booking it is supposed to pay for.
func SessionStatus(cs *stripe.CheckoutSession, bookingID uuid.UUID) *domain.PaymentSessionStatus {
	metaBookingID := cs.Metadata[MetadataBookingID]

	return &domain.PaymentSessionStatus{
		SessionID: cs.ID,
		BookingID: metaBookingID,
		Settled: cs.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid &&
			metaBookingID == bookingID.String(),
		Open:   cs.Status == stripe.CheckoutSessionStatusOpen,
		Status: string(cs.PaymentStatus),
	}
}

func minorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func withQuery(base string, params ...string) string {
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}

	return base + sep + strings.Join(params, "&")
}
