package flow

import (
	"time"

	"github.com/google/uuid"
	"github.com/metinatakli/movie-booking/internal/domain"
)

// Event is one user action or system notification fed to Transition.
type Event interface {
	event()
}

type Open struct {
	Movie MovieRef
	Now   time.Time
}

type SelectDate struct {
	Date time.Time
	Now  time.Time
}

type SetSeatCount struct {
	Count int
}

type ChooseShowtime struct {
	Theater  domain.Theater
	Showtime *domain.Showtime
	// Reserved are seats held by other bookings of the showtime.
	Reserved []int
}

type ToggleSeat struct {
	Seat int
}

type ProceedToDetails struct {
	Now time.Time
}

// ProceedToPayment carries the signed-in user and the id the booking created
// for this payment step will get. A zero UserID means nobody is signed in.
type ProceedToPayment struct {
	UserID    int
	BookingID uuid.UUID
}

type PaymentSettled struct {
	BookingID uuid.UUID
}

type Back struct{}

type Close struct {
	Now time.Time
}

func (Open) event()             {}
func (SelectDate) event()       {}
func (SetSeatCount) event()     {}
func (ChooseShowtime) event()   {}
func (ToggleSeat) event()       {}
func (ProceedToDetails) event() {}
func (ProceedToPayment) event() {}
func (PaymentSettled) event()   {}
func (Back) event()             {}
func (Close) event()            {}
