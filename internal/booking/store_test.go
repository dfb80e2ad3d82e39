package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/metinatakli/movie-booking/internal/domain"
	"github.com/metinatakli/movie-booking/internal/mocks"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type StoreTestSuite struct {
	suite.Suite
	repo  *mocks.MockBookingRepo
	store *Store
}

func (s *StoreTestSuite) SetupTest() {
	s.repo = new(mocks.MockBookingRepo)
	s.store = NewStore(s.repo)
	s.store.now = func() time.Time { return time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC) }
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}

func newBooking(status domain.PaymentStatus) *domain.Booking {
	return &domain.Booking{
		ID:            uuid.New(),
		UserID:        1,
		MovieID:       3,
		ShowtimeID:    "3-2-20261016-1",
		ShowTime:      time.Date(2026, 10, 16, 13, 0, 0, 0, time.UTC),
		Seats:         2,
		SeatNumbers:   []int{1, 2},
		TotalPrice:    decimal.NewFromInt(300),
		PaymentStatus: status,
	}
}

func withStatus(b *domain.Booking, status domain.PaymentStatus) *domain.Booking {
	c := *b
	c.PaymentStatus = status
	return &c
}

func (s *StoreTestSuite) TestCreate() {
	tests := []struct {
		name        string
		mutate      func(b *domain.Booking)
		setupMock   func()
		wantIssues  []string
		wantErr     error
		wantCreated bool
	}{
		{
			name:       "zero seats",
			mutate:     func(b *domain.Booking) { b.Seats = 0; b.SeatNumbers = nil },
			wantIssues: []string{"seats"},
		},
		{
			name:       "zero total price",
			mutate:     func(b *domain.Booking) { b.TotalPrice = decimal.Zero },
			wantIssues: []string{"total_price"},
		},
		{
			name: "missing user and movie",
			mutate: func(b *domain.Booking) {
				b.UserID = 0
				b.MovieID = 0
			},
			wantIssues: []string{"user_id", "movie_id"},
		},
		{
			name:       "seat numbers do not match seats",
			mutate:     func(b *domain.Booking) { b.SeatNumbers = []int{1} },
			wantIssues: []string{"seat_numbers"},
		},
		{
			name:       "duplicate seat numbers",
			mutate:     func(b *domain.Booking) { b.SeatNumbers = []int{4, 4} },
			wantIssues: []string{"seat_numbers"},
		},
		{
			name:   "seat already reserved",
			mutate: func(b *domain.Booking) {},
			setupMock: func() {
				s.repo.On("Create", mock.Anything, mock.Anything).Return(domain.ErrSeatAlreadyReserved).Once()
			},
			wantErr: domain.ErrConflict,
		},
		{
			name: "persists a pending booking",
			mutate: func(b *domain.Booking) {
				b.ID = uuid.Nil
				b.PaymentStatus = domain.PaymentStatusPaid
			},
			setupMock: func() {
				s.repo.On("Create", mock.Anything, mock.MatchedBy(func(b *domain.Booking) bool {
					return b.ID != uuid.Nil &&
						b.PaymentStatus == domain.PaymentStatusPending &&
						b.BookingTime.Equal(s.store.now())
				})).Return(nil).Once()
			},
			wantCreated: true,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()
			if tt.setupMock != nil {
				tt.setupMock()
			}

			b := newBooking("")
			tt.mutate(b)

			err := s.store.Create(context.Background(), b)

			switch {
			case len(tt.wantIssues) > 0:
				var verr *domain.ValidationError
				s.Require().ErrorAs(err, &verr)
				s.ErrorIs(err, domain.ErrValidation)
				for _, field := range tt.wantIssues {
					s.Contains(verr.Issues, field)
				}
				s.repo.AssertNotCalled(s.T(), "Create", mock.Anything, mock.Anything)
			case tt.wantErr != nil:
				s.ErrorIs(err, tt.wantErr)
			default:
				s.NoError(err)
			}

			s.repo.AssertExpectations(s.T())
		})
	}
}

func (s *StoreTestSuite) TestMarkPaid() {
	ctx := context.Background()

	s.Run("pending booking becomes paid", func() {
		s.SetupTest()
		b := newBooking(domain.PaymentStatusPending)
		s.repo.On("GetById", ctx, b.ID).Return(b, nil).Once()
		s.repo.On("UpdateStatus", ctx, b.ID, domain.PaymentStatusPending, domain.PaymentStatusPaid).
			Return(withStatus(b, domain.PaymentStatusPaid), nil).Once()

		got, changed, err := s.store.markPaid(ctx, b.ID, 1)

		s.Require().NoError(err)
		s.True(changed)
		s.Equal(domain.PaymentStatusPaid, got.PaymentStatus)
	})

	s.Run("already paid is a no-op", func() {
		s.SetupTest()
		b := newBooking(domain.PaymentStatusPaid)
		s.repo.On("GetById", ctx, b.ID).Return(b, nil).Once()

		got, changed, err := s.store.markPaid(ctx, b.ID, 1)

		s.Require().NoError(err)
		s.False(changed)
		s.Equal(domain.PaymentStatusPaid, got.PaymentStatus)
		s.repo.AssertNotCalled(s.T(), "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	s.Run("cancelled booking cannot be paid", func() {
		s.SetupTest()
		b := newBooking(domain.PaymentStatusCancelled)
		s.repo.On("GetById", ctx, b.ID).Return(b, nil).Once()

		_, err := s.store.MarkPaid(ctx, b.ID, 1)

		s.ErrorIs(err, domain.ErrConflict)
	})

	s.Run("another user's booking", func() {
		s.SetupTest()
		b := newBooking(domain.PaymentStatusPending)
		s.repo.On("GetById", ctx, b.ID).Return(b, nil).Once()

		_, err := s.store.MarkPaid(ctx, b.ID, 2)

		s.ErrorIs(err, domain.ErrUnauthorized)
		s.repo.AssertNotCalled(s.T(), "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	s.Run("unknown booking", func() {
		s.SetupTest()
		id := uuid.New()
		s.repo.On("GetById", ctx, id).Return(nil, domain.ErrRecordNotFound).Once()

		_, err := s.store.MarkPaid(ctx, id, 1)

		s.ErrorIs(err, domain.ErrRecordNotFound)
	})

	s.Run("lost race to a concurrent payment", func() {
		s.SetupTest()
		b := newBooking(domain.PaymentStatusPending)
		s.repo.On("GetById", ctx, b.ID).Return(b, nil).Once()
		s.repo.On("UpdateStatus", ctx, b.ID, domain.PaymentStatusPending, domain.PaymentStatusPaid).
			Return(nil, domain.ErrEditConflict).Once()
		s.repo.On("GetById", ctx, b.ID).Return(withStatus(b, domain.PaymentStatusPaid), nil).Once()

		got, changed, err := s.store.markPaid(ctx, b.ID, 1)

		s.Require().NoError(err)
		s.False(changed)
		s.Equal(domain.PaymentStatusPaid, got.PaymentStatus)
	})

	s.Run("lost race to a cancellation", func() {
		s.SetupTest()
		b := newBooking(domain.PaymentStatusPending)
		s.repo.On("GetById", ctx, b.ID).Return(b, nil).Once()
		s.repo.On("UpdateStatus", ctx, b.ID, domain.PaymentStatusPending, domain.PaymentStatusPaid).
			Return(nil, domain.ErrEditConflict).Once()
		s.repo.On("GetById", ctx, b.ID).Return(withStatus(b, domain.PaymentStatusCancelled), nil).Once()

		_, err := s.store.MarkPaid(ctx, b.ID, 1)

		s.ErrorIs(err, domain.ErrConflict)
	})

	s.Run("database failure", func() {
		s.SetupTest()
		b := newBooking(domain.PaymentStatusPending)
		dbErr := errors.New("connection reset")
		s.repo.On("GetById", ctx, b.ID).Return(b, nil).Once()
		s.repo.On("UpdateStatus", ctx, b.ID, domain.PaymentStatusPending, domain.PaymentStatusPaid).
			Return(nil, dbErr).Once()

		_, err := s.store.MarkPaid(ctx, b.ID, 1)

		s.ErrorIs(err, dbErr)
	})
}

func (s *StoreTestSuite) TestCancel() {
	ctx := context.Background()

	s.Run("paid booking cannot be cancelled", func() {
		s.SetupTest()
		b := newBooking(domain.PaymentStatusPaid)
		s.repo.On("GetById", ctx, b.ID).Return(b, nil).Once()

		_, err := s.store.Cancel(ctx, b.ID, 1)

		s.ErrorIs(err, domain.ErrConflict)
	})

	s.Run("cancelling twice succeeds", func() {
		s.SetupTest()
		b := newBooking(domain.PaymentStatusCancelled)
		s.repo.On("GetById", ctx, b.ID).Return(b, nil).Once()

		got, err := s.store.Cancel(ctx, b.ID, 1)

		s.Require().NoError(err)
		s.Equal(domain.PaymentStatusCancelled, got.PaymentStatus)
	})

	s.Run("pending booking is cancelled", func() {
		s.SetupTest()
		b := newBooking(domain.PaymentStatusPending)
		s.repo.On("GetById", ctx, b.ID).Return(b, nil).Once()
		s.repo.On("UpdateStatus", ctx, b.ID, domain.PaymentStatusPending, domain.PaymentStatusCancelled).
			Return(withStatus(b, domain.PaymentStatusCancelled), nil).Once()

		got, err := s.store.Cancel(ctx, b.ID, 1)

		s.Require().NoError(err)
		s.Equal(domain.PaymentStatusCancelled, got.PaymentStatus)
	})

	s.Run("expire ignores ownership", func() {
		s.SetupTest()
		b := newBooking(domain.PaymentStatusPending)
		s.repo.On("GetById", ctx, b.ID).Return(b, nil).Once()
		s.repo.On("UpdateStatus", ctx, b.ID, domain.PaymentStatusPending, domain.PaymentStatusCancelled).
			Return(withStatus(b, domain.PaymentStatusCancelled), nil).Once()

		changed, err := s.store.Expire(ctx, b.ID)

		s.Require().NoError(err)
		s.True(changed)
	})
}
