package flow

import (
	"errors"
	"fmt"

	"github.com/metinatakli/movie-booking/internal/domain"
)

var (
	ErrInvalidTransition      = fmt.Errorf("%w: action not allowed in the current step", domain.ErrConflict)
	ErrShowtimeRequired       = fmt.Errorf("%w: a showtime must be selected", domain.ErrValidation)
	ErrShowtimeDateMismatch   = fmt.Errorf("%w: showtime does not belong to the selected date", domain.ErrValidation)
	ErrDateOutOfRange         = fmt.Errorf("%w: date is outside the booking window", domain.ErrValidation)
	ErrAuthenticationRequired = fmt.Errorf("%w: sign in to continue", domain.ErrUnauthenticated)
	ErrBookingMismatch        = fmt.Errorf("%w: payment does not belong to this booking", domain.ErrConflict)
	ErrIncompleteSelection    = errors.New("seat selection incomplete")
)

// SelectionError rejects leaving the seat step with too few seats.
type SelectionError struct {
	Remaining int
}

func (e *SelectionError) Error() string {
	if e.Remaining == 1 {
		return "Please select 1 more seat"
	}

	return fmt.Sprintf("Please select %d more seats", e.Remaining)
}

func (e *SelectionError) Is(target error) bool {
	return target == ErrIncompleteSelection || target == domain.ErrValidation
}
