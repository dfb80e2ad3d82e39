package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/metinatakli/movie-booking/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockPaymentProvider struct {
	mock.Mock
	domain.PaymentProvider
}

func (m *MockPaymentProvider) CreateCheckoutSession(
	ctx context.Context,
	req domain.PaymentSessionRequest) (*domain.PaymentSession, error) {

	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentSession), args.Error(1)
}

func (m *MockPaymentProvider) VerifySession(
	ctx context.Context,
	sessionID string,
	bookingID uuid.UUID) (*domain.PaymentSessionStatus, error) {

	args := m.Called(ctx, sessionID, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentSessionStatus), args.Error(1)
}
