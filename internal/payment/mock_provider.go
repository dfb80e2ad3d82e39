package payment

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/metinatakli/movie-booking/internal/domain"
)

// MockPaymentProvider is an in-memory gateway for local runs and tests.
// Sessions start unpaid and are settled with Settle.
type MockPaymentProvider struct {
	mu       sync.Mutex
	baseUrl  string
	sessions map[string]*mockSession
}

type mockSession struct {
	bookingID uuid.UUID
	paid      bool
	expired   bool
}

func NewMockPaymentProvider(baseUrl string) *MockPaymentProvider {
	return &MockPaymentProvider{
		baseUrl:  baseUrl,
		sessions: make(map[string]*mockSession),
	}
}

func (m *MockPaymentProvider) CreateCheckoutSession(
	_ context.Context,
	req domain.PaymentSessionRequest) (*domain.PaymentSession, error) {

	m.mu.Lock()
	defer m.mu.Unlock()

	id := "cs_test_" + uuid.NewString()
	m.sessions[id] = &mockSession{bookingID: req.BookingID}

	return &domain.PaymentSession{
		ID:  id,
		URL: withQuery(m.baseUrl, "session_id="+id, MetadataBookingID+"="+req.BookingID.String()),
	}, nil
}

func (m *MockPaymentProvider) VerifySession(
	_ context.Context,
	sessionID string,
	bookingID uuid.UUID) (*domain.PaymentSessionStatus, error) {

	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("no such checkout session: %s", sessionID)
	}

	status := "unpaid"
	switch {
	case s.paid:
		status = "paid"
	case s.expired:
		status = "expired"
	}

	return &domain.PaymentSessionStatus{
		SessionID: sessionID,
		BookingID: s.bookingID.String(),
		Settled:   s.paid && s.bookingID == bookingID,
		Open:      !s.paid && !s.expired,
		Status:    status,
	}, nil
}

// Settle marks the session as paid unless it already expired.
func (m *MockPaymentProvider) Settle(sessionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if ok && !s.expired {
		s.paid = true
	}

	return ok
}

// ExpireSession closes an unpaid session so it can no longer be paid.
func (m *MockPaymentProvider) ExpireSession(sessionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if ok && !s.paid {
		s.expired = true
	}

	return ok
}
