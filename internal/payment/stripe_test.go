package payment

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/metinatakli/movie-booking/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"
)

func TestSessionStatus(t *testing.T) {
	bookingID := uuid.New()

	tests := []struct {
		name        string
		session     *stripe.CheckoutSession
		wantSettled bool
		wantOpen    bool
	}{
		{
			name: "paid for the booking",
			session: &stripe.CheckoutSession{
				ID:            "cs_1",
				PaymentStatus: stripe.CheckoutSessionPaymentStatusPaid,
				Metadata:      map[string]string{MetadataBookingID: bookingID.String()},
			},
			wantSettled: true,
		},
		{
			name: "unpaid and still open",
			session: &stripe.CheckoutSession{
				ID:            "cs_1",
				Status:        stripe.CheckoutSessionStatusOpen,
				PaymentStatus: stripe.CheckoutSessionPaymentStatusUnpaid,
				Metadata:      map[string]string{MetadataBookingID: bookingID.String()},
			},
			wantOpen: true,
		},
		{
			name: "unpaid and expired",
			session: &stripe.CheckoutSession{
				ID:            "cs_1",
				Status:        stripe.CheckoutSessionStatusExpired,
				PaymentStatus: stripe.CheckoutSessionPaymentStatusUnpaid,
				Metadata:      map[string]string{MetadataBookingID: bookingID.String()},
			},
		},
		{
			name: "paid for another booking",
			session: &stripe.CheckoutSession{
				ID:            "cs_1",
				PaymentStatus: stripe.CheckoutSessionPaymentStatusPaid,
				Metadata:      map[string]string{MetadataBookingID: uuid.NewString()},
			},
		},
		{
			name: "no metadata",
			session: &stripe.CheckoutSession{
				ID:            "cs_1",
				PaymentStatus: stripe.CheckoutSessionPaymentStatusPaid,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := SessionStatus(tt.session, bookingID)

			assert.Equal(t, tt.wantSettled, status.Settled)
			assert.Equal(t, tt.wantOpen, status.Open)
			assert.Equal(t, "cs_1", status.SessionID)
			assert.Equal(t, string(tt.session.PaymentStatus), status.Status)
		})
	}
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(30000), minorUnits(decimal.NewFromInt(300)))
	assert.Equal(t, int64(22550), minorUnits(decimal.RequireFromString("225.5")))
}

func TestWithQuery(t *testing.T) {
	assert.Equal(t, "https://x/ok?a=1&b=2", withQuery("https://x/ok", "a=1", "b=2"))
	assert.Equal(t, "https://x/ok?lang=en&a=1", withQuery("https://x/ok?lang=en", "a=1"))
}

func TestMockPaymentProvider(t *testing.T) {
	ctx := context.Background()
	provider := NewMockPaymentProvider("http://localhost:3000/payment-success")
	bookingID := uuid.New()

	session, err := provider.CreateCheckoutSession(ctx, domain.PaymentSessionRequest{
		BookingID: bookingID,
		Amount:    decimal.NewFromInt(300),
	})
	require.NoError(t, err)
	assert.True(t, strings.Contains(session.URL, "booking_id="+bookingID.String()))

	status, err := provider.VerifySession(ctx, session.ID, bookingID)
	require.NoError(t, err)
	assert.False(t, status.Settled)
	assert.True(t, status.Open)

	require.True(t, provider.Settle(session.ID))

	status, err = provider.VerifySession(ctx, session.ID, bookingID)
	require.NoError(t, err)
	assert.True(t, status.Settled)
	assert.False(t, status.Open)

	status, err = provider.VerifySession(ctx, session.ID, uuid.New())
	require.NoError(t, err)
	assert.False(t, status.Settled)

	_, err = provider.VerifySession(ctx, "cs_unknown", bookingID)
	assert.Error(t, err)

	abandoned, err := provider.CreateCheckoutSession(ctx, domain.PaymentSessionRequest{BookingID: bookingID})
	require.NoError(t, err)
	require.True(t, provider.ExpireSession(abandoned.ID))

	status, err = provider.VerifySession(ctx, abandoned.ID, bookingID)
	require.NoError(t, err)
	assert.False(t, status.Open)
	assert.False(t, status.Settled)
	assert.Equal(t, "expired", status.Status)
}
