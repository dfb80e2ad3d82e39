package flow

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/metinatakli/movie-booking/internal/domain"
	"github.com/metinatakli/movie-booking/internal/seatmap"
	"github.com/metinatakli/movie-booking/internal/showtime"
	"github.com/shopspring/decimal"
)

// Transition applies ev to s. A rejected event returns s unchanged together
// with the reason.
func Transition(s State, ev Event) (State, error) {
	switch e := ev.(type) {
	case Open:
		return open(e), nil
	case Close:
		return Closed(e.Now), nil
	case SelectDate:
		return selectDate(s, e)
	case SetSeatCount:
		return setSeatCount(s, e)
	case ChooseShowtime:
		return chooseShowtime(s, e)
	case ToggleSeat:
		return toggleSeat(s, e)
	case ProceedToDetails:
		return proceedToDetails(s, e)
	case ProceedToPayment:
		return proceedToPayment(s, e)
	case PaymentSettled:
		return paymentSettled(s, e)
	case Back:
		return back(s)
	default:
		return s, fmt.Errorf("%w: unknown event %T", ErrInvalidTransition, ev)
	}
}

func open(e Open) State {
	s := Closed(e.Now)
	s.Step = StepTheaters
	s.Movie = e.Movie

	return s
}

func selectDate(s State, e SelectDate) (State, error) {
	if s.Step != StepTheaters {
		return s, ErrInvalidTransition
	}

	if !showtime.InWindow(e.Date, e.Now) {
		return s, ErrDateOutOfRange
	}

	next := clearShowtime(s)
	next.Date = showtime.Day(e.Date.In(e.Now.Location()))

	return next, nil
}

func setSeatCount(s State, e SetSeatCount) (State, error) {
	if s.Step != StepTheaters && s.Step != StepSeats {
		return s, ErrInvalidTransition
	}

	next := s
	next.SeatCount = clampSeatCount(e.Count)

	if len(next.Selection) > next.SeatCount {
		next.Selection = slices.Clone(next.Selection[:next.SeatCount])
	}

	return next, nil
}

func chooseShowtime(s State, e ChooseShowtime) (State, error) {
	if s.Step != StepTheaters {
		return s, ErrInvalidTransition
	}

	if e.Showtime == nil {
		return s, ErrShowtimeRequired
	}

	if !sameDay(e.Showtime.ShowDate, s.Date) {
		return s, ErrShowtimeDateMismatch
	}

	theater := e.Theater
	st := *e.Showtime

	next := s
	next.Step = StepSeats
	next.Theater = &theater
	next.Showtime = &st
	next.Reserved = slices.Clone(e.Reserved)
	next.Selection = seatmap.Selection{}

	return next, nil
}

func toggleSeat(s State, e ToggleSeat) (State, error) {
	if s.Step != StepSeats {
		return s, ErrInvalidTransition
	}

	next := s
	next.Selection = s.SeatMap().Select(s.Selection, e.Seat, s.SeatCount)

	return next, nil
}

func proceedToDetails(s State, e ProceedToDetails) (State, error) {
	if s.Step != StepSeats {
		return s, ErrInvalidTransition
	}

	if !seatmap.IsComplete(s.Selection, s.SeatCount) {
		return s, &SelectionError{Remaining: s.Selection.Remaining(s.SeatCount)}
	}

	ts, err := showtime.Timestamp(s.Date, s.Showtime.ShowTime, e.Now)
	if err != nil {
		return s, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	next := s
	next.Step = StepDetails
	next.TotalPrice = domain.CalculateTotalPrice(s.Movie.Price, s.Showtime.PriceModifier, len(s.Selection))
	next.ShowTimestamp = ts

	return next, nil
}

func proceedToPayment(s State, e ProceedToPayment) (State, error) {
	if s.Step != StepDetails {
		return s, ErrInvalidTransition
	}

	if e.UserID == 0 {
		return s, ErrAuthenticationRequired
	}

	if e.BookingID == uuid.Nil {
		return s, fmt.Errorf("%w: booking id is required", domain.ErrValidation)
	}

	next := s
	next.Step = StepPayment
	next.UserID = e.UserID
	next.BookingID = e.BookingID

	return next, nil
}

func paymentSettled(s State, e PaymentSettled) (State, error) {
	if s.Step != StepPayment {
		return s, ErrInvalidTransition
	}

	if e.BookingID != s.BookingID {
		return s, ErrBookingMismatch
	}

	next := s
	next.Step = StepSuccess

	return next, nil
}

func back(s State) (State, error) {
	switch s.Step {
	case StepSeats:
		next := clearShowtime(s)
		next.Step = StepTheaters
		return next, nil
	case StepDetails:
		next := clearDetails(s)
		next.Step = StepSeats
		return next, nil
	case StepPayment:
		next := clearPayment(s)
		next.Step = StepDetails
		return next, nil
	default:
		return s, ErrInvalidTransition
	}
}

func clearShowtime(s State) State {
	next := clearDetails(s)
	next.Theater = nil
	next.Showtime = nil
	next.Reserved = nil
	next.Selection = nil

	return next
}

func clearDetails(s State) State {
	next := clearPayment(s)
	next.TotalPrice = decimal.Zero
	next.ShowTimestamp = time.Time{}

	return next
}

func clearPayment(s State) State {
	next := s
	next.BookingID = uuid.Nil
	next.UserID = 0

	return next
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()

	return ay == by && am == bm && ad == bd
}
