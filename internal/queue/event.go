// Package queue publishes booking events to RabbitMQ.
package queue

import (
	"time"

	"github.com/google/uuid"
	"github.com/metinatakli/movie-booking/internal/domain"
	"github.com/shopspring/decimal"
)

const BookingConfirmedQueue = "booking.confirmed"

type BookingConfirmedEvent struct {
	BookingID   uuid.UUID       `json:"booking_id"`
	UserID      int             `json:"user_id"`
	MovieID     int             `json:"movie_id"`
	ShowtimeID  string          `json:"showtime_id"`
	ShowTime    time.Time       `json:"show_time"`
	SeatNumbers []int           `json:"seat_numbers"`
	TotalPrice  decimal.Decimal `json:"total_price"`
	ConfirmedAt time.Time       `json:"confirmed_at"`
}

func NewBookingConfirmedEvent(b *domain.Booking, confirmedAt time.Time) BookingConfirmedEvent {
	return BookingConfirmedEvent{
		BookingID:   b.ID,
		UserID:      b.UserID,
		MovieID:     b.MovieID,
		ShowtimeID:  b.ShowtimeID,
		ShowTime:    b.ShowTime,
		SeatNumbers: b.SeatNumbers,
		TotalPrice:  b.TotalPrice,
		ConfirmedAt: confirmedAt.UTC(),
	}
}
