package queue

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/metinatakli/movie-booking/internal/domain"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockChannel struct {
	mock.Mock
}

func (m *mockChannel) PublishWithContext(
	ctx context.Context,
	exchange, key string,
	mandatory, immediate bool,
	msg amqp.Publishing) error {

	args := m.Called(ctx, exchange, key, mandatory, immediate, msg)
	return args.Error(0)
}

func (m *mockChannel) Close() error {
	return m.Called().Error(0)
}

func TestBookingPaidPublishesEvent(t *testing.T) {
	now := time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)
	ch := new(mockChannel)
	p := &Publisher{ch: ch, now: func() time.Time { return now }}

	b := &domain.Booking{
		ID:          uuid.New(),
		UserID:      1,
		MovieID:     3,
		ShowtimeID:  "3-2-20261016-1",
		ShowTime:    time.Date(2026, 10, 16, 13, 0, 0, 0, time.UTC),
		Seats:       2,
		SeatNumbers: []int{1, 2},
		TotalPrice:  decimal.NewFromInt(300),
	}

	var published amqp.Publishing
	ch.On("PublishWithContext", mock.Anything, "", BookingConfirmedQueue, false, false, mock.Anything).
		Run(func(args mock.Arguments) {
			published = args.Get(5).(amqp.Publishing)
		}).
		Return(nil).Once()

	require.NoError(t, p.BookingPaid(context.Background(), b))

	assert.Equal(t, "application/json", published.ContentType)
	assert.Equal(t, amqp.Persistent, published.DeliveryMode)
	assert.Equal(t, b.ID.String(), published.MessageId)

	var event BookingConfirmedEvent
	require.NoError(t, json.Unmarshal(published.Body, &event))
	assert.Equal(t, b.ID, event.BookingID)
	assert.Equal(t, []int{1, 2}, event.SeatNumbers)
	assert.True(t, decimal.NewFromInt(300).Equal(event.TotalPrice))
	assert.True(t, now.Equal(event.ConfirmedAt))
	ch.AssertExpectations(t)
}

func TestBookingPaidReportsPublishFailure(t *testing.T) {
	ch := new(mockChannel)
	p := &Publisher{ch: ch, now: time.Now}

	ch.On("PublishWithContext", mock.Anything, "", BookingConfirmedQueue, false, false, mock.Anything).
		Return(amqp.ErrClosed).Once()

	err := p.BookingPaid(context.Background(), &domain.Booking{ID: uuid.New()})

	assert.True(t, errors.Is(err, amqp.ErrClosed))
}

type mockConn struct {
	closed int
}

func (c *mockConn) Close() error {
	c.closed++
	return nil
}

func TestBookingPaidReopensClosedChannel(t *testing.T) {
	stale, fresh := new(mockChannel), new(mockChannel)
	oldConn, newConn := new(mockConn), new(mockConn)
	dials := 0

	p := &Publisher{
		conn: oldConn,
		ch:   stale,
		now:  time.Now,
		dial: func() (io.Closer, channel, error) {
			dials++
			return newConn, fresh, nil
		},
	}

	stale.On("PublishWithContext", mock.Anything, "", BookingConfirmedQueue, false, false, mock.Anything).
		Return(amqp.ErrClosed).Once()
	stale.On("Close").Return(amqp.ErrClosed).Once()
	fresh.On("PublishWithContext", mock.Anything, "", BookingConfirmedQueue, false, false, mock.Anything).
		Return(nil).Twice()

	require.NoError(t, p.BookingPaid(context.Background(), &domain.Booking{ID: uuid.New()}))
	require.NoError(t, p.BookingPaid(context.Background(), &domain.Booking{ID: uuid.New()}))

	assert.Equal(t, 1, dials)
	assert.Equal(t, 1, oldConn.closed)
	assert.Zero(t, newConn.closed)
	stale.AssertExpectations(t)
	fresh.AssertExpectations(t)
}

func TestBookingPaidRedialsAfterFailedReconnect(t *testing.T) {
	stale, fresh := new(mockChannel), new(mockChannel)
	brokerDown := errors.New("rabbitmq: dial: connection refused")
	dials := 0

	p := &Publisher{
		ch:  stale,
		now: time.Now,
		dial: func() (io.Closer, channel, error) {
			dials++
			if dials == 1 {
				return nil, nil, brokerDown
			}
			return new(mockConn), fresh, nil
		},
	}

	stale.On("PublishWithContext", mock.Anything, "", BookingConfirmedQueue, false, false, mock.Anything).
		Return(amqp.ErrClosed).Once()
	stale.On("Close").Return(nil).Once()
	fresh.On("PublishWithContext", mock.Anything, "", BookingConfirmedQueue, false, false, mock.Anything).
		Return(nil).Once()

	err := p.BookingPaid(context.Background(), &domain.Booking{ID: uuid.New()})
	assert.ErrorIs(t, err, amqp.ErrClosed)
	assert.ErrorIs(t, err, brokerDown)

	require.NoError(t, p.BookingPaid(context.Background(), &domain.Booking{ID: uuid.New()}))
	assert.Equal(t, 2, dials)
	fresh.AssertExpectations(t)
}
