// Package flow models the booking dialog as an explicit state value and a
// pure transition function: theaters → seats → details → payment → success,
// with close reachable from anywhere.
package flow

import (
	"time"

	"github.com/google/uuid"
	"github.com/metinatakli/movie-booking/internal/domain"
	"github.com/metinatakli/movie-booking/internal/seatmap"
	"github.com/metinatakli/movie-booking/internal/showtime"
	"github.com/shopspring/decimal"
)

type Step string

const (
	StepTheaters Step = "theaters"
	StepSeats    Step = "seats"
	StepDetails  Step = "details"
	StepPayment  Step = "payment"
	StepSuccess  Step = "success"
	StepClosed   Step = "closed"
)

const (
	MinSeatCount     = 1
	MaxSeatCount     = 10
	DefaultSeatCount = MinSeatCount
)

type MovieRef struct {
	ID    int             `json:"id"`
	Title string          `json:"title"`
	Price decimal.Decimal `json:"price"`
}

// State is everything the dialog has collected so far. Fields that belong to
// a later step are zero while the flow sits in an earlier one.
type State struct {
	Step      Step      `json:"step"`
	Movie     MovieRef  `json:"movie"`
	Today     time.Time `json:"today"`
	Date      time.Time `json:"date"`
	SeatCount int       `json:"seatCount"`

	Theater  *domain.Theater  `json:"theater,omitempty"`
	Showtime *domain.Showtime `json:"showtime,omitempty"`
	Reserved []int            `json:"reserved,omitempty"`

	Selection seatmap.Selection `json:"selection,omitempty"`

	TotalPrice    decimal.Decimal `json:"totalPrice"`
	ShowTimestamp time.Time       `json:"showTimestamp"`

	BookingID uuid.UUID `json:"bookingId"`
	UserID    int       `json:"userId"`
}

// Closed is the state every flow returns to when dismissed.
func Closed(now time.Time) State {
	today := showtime.Day(now)

	return State{
		Step:      StepClosed,
		Today:     today,
		Date:      today,
		SeatCount: DefaultSeatCount,
	}
}

// SeatMap rebuilds the occupancy of the chosen showtime, or nil before a
// showtime was chosen.
func (s State) SeatMap() *seatmap.SeatMap {
	if s.Showtime == nil {
		return nil
	}

	return seatmap.New(s.Showtime.ID, s.Showtime.AvailableSeats, s.Reserved)
}

func clampSeatCount(n int) int {
	return min(max(n, MinSeatCount), MaxSeatCount)
}
