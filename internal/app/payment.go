package app

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/metinatakli/movie-booking/api"
	"github.com/metinatakli/movie-booking/internal/booking"
	"github.com/metinatakli/movie-booking/internal/domain"
	"github.com/metinatakli/movie-booking/internal/flow"
	"github.com/metinatakli/movie-booking/internal/payment"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// webhookEventTTL bounds how long a processed Stripe event id is remembered.
// Stripe retries a delivery for up to three days.
const webhookEventTTL = 72 * time.Hour

// VerifyPayment confirms a booking after the user was redirected back from
// the checkout page.
func (app *Application) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	var input api.VerifyPaymentRequest

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	ack, err := app.coordinator.Confirm(r.Context(), booking.ConfirmRequest{
		CallerID:  app.contextGetUserId(r),
		SessionID: input.SessionId,
		BookingID: input.BookingId,
	})
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	app.settleFlow(r, ack.BookingID)

	resp := api.PaymentAcknowledgement{
		Success:     true,
		Message:     "Payment verified and booking confirmed",
		BookingId:   ack.BookingID,
		Status:      string(ack.Status),
		AlreadyPaid: ack.AlreadyPaid,
	}

	if ack.AlreadyPaid {
		resp.Message = "Already paid"
	}

	logger.Info("payment verified", "bookingId", ack.BookingID, "alreadyPaid", ack.AlreadyPaid)

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// settleFlow moves the session's booking flow to the success step when it is
// waiting for the payment of bookingID. Any other flow is left alone.
func (app *Application) settleFlow(r *http.Request, bookingID uuid.UUID) {
	state, ok, err := app.loadFlow(r.Context())
	if err != nil || !ok {
		return
	}

	next, err := flow.Transition(state, flow.PaymentSettled{BookingID: bookingID})
	if err != nil {
		return
	}

	err = app.saveFlow(r.Context(), next)
	if err != nil {
		app.contextGetLogger(r).Error("failed to save booking flow", "error", err)
	}
}

// StripeWebhook confirms bookings from checkout.session.completed events.
// Deliveries are de-duplicated on the event id; the coordinator stays
// idempotent for the ones that slip through.
func (app *Application) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 65536))
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	event, err := webhook.ConstructEventWithOptions(payload, r.Header.Get("Stripe-Signature"),
		app.config.Stripe.WebhookSecret, webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		logger.Warn("invalid webhook signature", "error", err)
		app.errorResponse(w, r, http.StatusBadRequest, ErrBadRequest)
		return
	}

	if event.Type != stripe.EventTypeCheckoutSessionCompleted {
		w.WriteHeader(http.StatusOK)
		return
	}

	key := webhookEventKey(event.ID)

	first, err := app.redis.SetNX(r.Context(), key, time.Now().Unix(), webhookEventTTL).Result()
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	if !first {
		logger.Info("duplicate webhook delivery", "eventId", event.ID)
		w.WriteHeader(http.StatusOK)
		return
	}

	var cs stripe.CheckoutSession
	err = json.Unmarshal(event.Data.Raw, &cs)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	bookingID, err := uuid.Parse(cs.Metadata[payment.MetadataBookingID])
	if err != nil {
		logger.Warn("checkout session without booking", "sessionId", cs.ID)
		w.WriteHeader(http.StatusOK)
		return
	}

	userID, err := strconv.Atoi(cs.Metadata[payment.MetadataUserID])
	if err != nil {
		logger.Warn("checkout session without user", "sessionId", cs.ID)
		w.WriteHeader(http.StatusOK)
		return
	}

	ack, err := app.coordinator.Confirm(r.Context(), booking.ConfirmRequest{
		CallerID:  userID,
		SessionID: cs.ID,
		BookingID: bookingID,
	})
	if err != nil {
		if isFinalRejection(err) {
			logger.Warn("webhook confirmation rejected", "bookingId", bookingID, "error", err)
			w.WriteHeader(http.StatusOK)
			return
		}

		// let Stripe retry the delivery
		app.forgetWebhookEvent(r, key)

		if errors.Is(err, domain.ErrExternalService) {
			app.domainErrorResponse(w, r, err)
			return
		}

		app.serverErrorResponse(w, r, err)
		return
	}

	logger.Info("payment confirmed by webhook", "bookingId", ack.BookingID, "alreadyPaid", ack.AlreadyPaid)

	w.WriteHeader(http.StatusOK)
}

func (app *Application) forgetWebhookEvent(r *http.Request, key string) {
	err := app.redis.Del(r.Context(), key).Err()
	if err != nil {
		app.contextGetLogger(r).Error("failed to forget webhook event", "key", key, "error", err)
	}
}

// isFinalRejection reports whether a confirmation failed for a reason a
// redelivery of the same event cannot change.
func isFinalRejection(err error) bool {
	for _, target := range []error{
		domain.ErrUnauthenticated,
		domain.ErrUnauthorized,
		domain.ErrConflict,
		domain.ErrRecordNotFound,
		domain.ErrPaymentNotSettled,
		domain.ErrValidation,
	} {
		if errors.Is(err, target) {
			return true
		}
	}

	return false
}

func webhookEventKey(eventID string) string {
	return "stripe:event:" + eventID
}
