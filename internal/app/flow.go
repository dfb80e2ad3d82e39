package app

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/metinatakli/movie-booking/api"
	"github.com/metinatakli/movie-booking/internal/booking"
	"github.com/metinatakli/movie-booking/internal/domain"
	"github.com/metinatakli/movie-booking/internal/flow"
	"github.com/metinatakli/movie-booking/internal/seatmap"
	"github.com/metinatakli/movie-booking/internal/showtime"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

// flowEvent builds the event to apply from the current flow. It may write an
// error response itself and return ok=false.
type flowEvent func(w http.ResponseWriter, r *http.Request, state flow.State) (ev flow.Event, ok bool)

func (app *Application) OpenBookingFlow(w http.ResponseWriter, r *http.Request) {
	var input api.OpenFlowRequest

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

	movie, err := app.movieRepo.GetById(r.Context(), input.MovieId)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	if !movie.IsAvailable {
		app.notFoundResponse(w, r)
		return
	}

	state, err := flow.Transition(flow.State{}, flow.Open{
		Movie: flow.MovieRef{ID: movie.ID, Title: movie.Title, Price: movie.Price},
		Now:   app.clock(),
	})
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	app.saveAndWriteFlow(w, r, http.StatusCreated, state, "")
}

func (app *Application) GetBookingFlow(w http.ResponseWriter, r *http.Request) {
	state, ok, err := app.loadFlow(r.Context())
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	if !ok {
		state = flow.Closed(app.clock())
	}

	err = app.writeJSON(w, http.StatusOK, toFlowResponse(state, ""), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) SelectFlowDate(w http.ResponseWriter, r *http.Request) {
	app.updateFlow(w, r, func(w http.ResponseWriter, r *http.Request, _ flow.State) (flow.Event, bool) {
		var input api.SelectDateRequest

		err := app.readJSON(w, r, &input)
		if err != nil {
			app.badRequestResponse(w, r, err)
			return nil, false
		}

		err = app.validator.Struct(input)
		if err != nil {
			app.failedValidationResponse(w, r, err)
			return nil, false
		}

		date, err := app.parseDate(input.Date.Time.Format(time.DateOnly))
		if err != nil {
			app.badRequestResponse(w, r, err)
			return nil, false
		}

		return flow.SelectDate{Date: date, Now: app.clock()}, true
	})
}

func (app *Application) SetFlowSeatCount(w http.ResponseWriter, r *http.Request) {
	app.updateFlow(w, r, func(w http.ResponseWriter, r *http.Request, _ flow.State) (flow.Event, bool) {
		var input api.SeatCountRequest

		err := app.readJSON(w, r, &input)
		if err != nil {
			app.badRequestResponse(w, r, err)
			return nil, false
		}

		// out of range counts are clamped, not rejected
		return flow.SetSeatCount{Count: input.Count}, true
	})
}

func (app *Application) ChooseFlowShowtime(w http.ResponseWriter, r *http.Request) {
	app.updateFlow(w, r, func(w http.ResponseWriter, r *http.Request, state flow.State) (flow.Event, bool) {
		var input api.ChooseShowtimeRequest

		err := app.readJSON(w, r, &input)
		if err != nil {
			app.badRequestResponse(w, r, err)
			return nil, false
		}

		err = app.validator.Struct(input)
		if err != nil {
			app.failedValidationResponse(w, r, err)
			return nil, false
		}

		theater, st, err := app.showtimes.Lookup(input.ShowtimeId, app.location)
		if err != nil || st.MovieID != state.Movie.ID {
			app.contextGetLogger(r).Warn("unknown showtime chosen", "showtimeId", input.ShowtimeId, "error", err)
			app.notFoundResponse(w, r)
			return nil, false
		}

		reserved, err := app.bookings.ReservedSeats(r.Context(), st.ID)
		if err != nil {
			app.serverErrorResponse(w, r, err)
			return nil, false
		}

		return flow.ChooseShowtime{Theater: theater, Showtime: &st, Reserved: reserved}, true
	})
}

func (app *Application) ToggleFlowSeat(w http.ResponseWriter, r *http.Request) {
	app.updateFlow(w, r, func(w http.ResponseWriter, r *http.Request, _ flow.State) (flow.Event, bool) {
		seat, err := strconv.Atoi(chi.URLParam(r, "seat"))
		if err != nil {
			app.badRequestResponse(w, r, fmt.Errorf("invalid seat parameter"))
			return nil, false
		}

		return flow.ToggleSeat{Seat: seat}, true
	})
}

func (app *Application) ProceedToDetails(w http.ResponseWriter, r *http.Request) {
	app.updateFlow(w, r, func(http.ResponseWriter, *http.Request, flow.State) (flow.Event, bool) {
		return flow.ProceedToDetails{Now: app.clock()}, true
	})
}

// ProceedToPayment records the booking as pending and opens a checkout
// session for it. The client is expected to redirect to the returned
// checkout url.
func (app *Application) ProceedToPayment(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	state, ok := app.requireFlow(w, r)
	if !ok {
		return
	}

	userId := app.sessionUserId(r.Context())

	next, err := flow.Transition(state, flow.ProceedToPayment{UserID: userId, BookingID: uuid.New()})
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	b := &domain.Booking{
		ID:          next.BookingID,
		UserID:      userId,
		MovieID:     next.Movie.ID,
		ShowtimeID:  next.Showtime.ID,
		ShowTime:    next.ShowTimestamp,
		Seats:       len(next.Selection),
		SeatNumbers: next.Selection.Sorted(),
		TotalPrice:  next.TotalPrice,
	}

	err = app.bookings.Create(r.Context(), b)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	app.metrics.recordCreated(r.Context(), b)

	user, err := app.userRepo.GetById(r.Context(), userId)
	if err != nil {
		app.releaseBooking(r, b.ID, userId)
		app.serverErrorResponse(w, r, err)
		return
	}

	session, err := app.coordinator.Initiate(r.Context(), booking.InitiateRequest{
		CallerID:      userId,
		BookingID:     b.ID,
		CustomerEmail: user.Email,
		Title:         next.Movie.Title,
		Description:   bookingDescription(next),
	})
	if err != nil {
		app.releaseBooking(r, b.ID, userId)
		app.domainErrorResponse(w, r, err)
		return
	}

	logger.Info("checkout session created", "bookingId", b.ID, "sessionId", session.ID)

	app.saveAndWriteFlow(w, r, http.StatusCreated, next, session.URL)
}

// FlowBack steps one screen back. Leaving the payment step gives up the
// pending booking so its seats become available again.
func (app *Application) FlowBack(w http.ResponseWriter, r *http.Request) {
	state, ok := app.requireFlow(w, r)
	if !ok {
		return
	}

	next, err := flow.Transition(state, flow.Back{})
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	if state.Step == flow.StepPayment {
		_, err := app.bookings.Cancel(r.Context(), state.BookingID, state.UserID)
		if errors.Is(err, domain.ErrConflict) {
			// the payment completed before the user turned back
			app.finishPaidFlow(w, r, state, err)
			return
		}
		if err != nil {
			app.domainErrorResponse(w, r, err)
			return
		}
	}

	app.saveAndWriteFlow(w, r, http.StatusOK, next, "")
}

// finishPaidFlow moves a flow whose booking turned out to be paid to the
// success step. Any other conflict is reported as conflictErr.
func (app *Application) finishPaidFlow(w http.ResponseWriter, r *http.Request, state flow.State, conflictErr error) {
	b, err := app.bookings.GetOwned(r.Context(), state.BookingID, state.UserID)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	if b.PaymentStatus != domain.PaymentStatusPaid {
		app.domainErrorResponse(w, r, conflictErr)
		return
	}

	next, err := flow.Transition(state, flow.PaymentSettled{BookingID: b.ID})
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	app.saveAndWriteFlow(w, r, http.StatusOK, next, "")
}

// CloseBookingFlow dismisses the dialog. A booking waiting for payment is
// left pending: the payment may still complete, and the expiry job cancels
// it otherwise.
func (app *Application) CloseBookingFlow(w http.ResponseWriter, r *http.Request) {
	next, err := flow.Transition(flow.State{}, flow.Close{Now: app.clock()})
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	app.saveAndWriteFlow(w, r, http.StatusOK, next, "")
}

func (app *Application) updateFlow(w http.ResponseWriter, r *http.Request, build flowEvent) {
	state, ok := app.requireFlow(w, r)
	if !ok {
		return
	}

	ev, ok := build(w, r, state)
	if !ok {
		return
	}

	next, err := flow.Transition(state, ev)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	app.saveAndWriteFlow(w, r, http.StatusOK, next, "")
}

// requireFlow loads an open booking flow, answering 404 when there is none.
func (app *Application) requireFlow(w http.ResponseWriter, r *http.Request) (flow.State, bool) {
	state, ok, err := app.loadFlow(r.Context())
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return flow.State{}, false
	}

	if !ok || state.Step == flow.StepClosed {
		app.errorResponse(w, r, http.StatusNotFound, ErrNoActiveFlow)
		return flow.State{}, false
	}

	return state, true
}

func (app *Application) saveAndWriteFlow(w http.ResponseWriter, r *http.Request, status int, state flow.State, checkoutUrl string) {
	err := app.saveFlow(r.Context(), state)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, status, toFlowResponse(state, checkoutUrl), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// releaseBooking cancels a booking whose checkout could not be started.
func (app *Application) releaseBooking(r *http.Request, id uuid.UUID, userId int) {
	_, err := app.bookings.Cancel(r.Context(), id, userId)
	if err != nil && !errors.Is(err, domain.ErrConflict) {
		app.contextGetLogger(r).Error("failed to release booking", "bookingId", id, "error", err)
	}
}

func bookingDescription(s flow.State) string {
	var b strings.Builder

	if s.Theater != nil {
		b.WriteString(s.Theater.Name)
		b.WriteString(", ")
	}

	b.WriteString(s.ShowTimestamp.Format("Mon, 02 Jan"))

	if s.Showtime != nil {
		b.WriteString(" ")
		b.WriteString(showtime.FormatShowTime(s.Showtime.ShowTime))
	}

	b.WriteString(", Seats: ")
	b.WriteString(strings.Join(seatmap.FormatSeatLabels(s.Selection.Sorted()), ", "))

	return b.String()
}

func toFlowResponse(s flow.State, checkoutUrl string) api.FlowResponse {
	resp := api.FlowResponse{
		Step:          string(s.Step),
		Date:          openapi_types.Date{Time: s.Date},
		SeatCount:     s.SeatCount,
		SelectedSeats: seatmap.FormatSeatLabels(s.Selection.Sorted()),
		SeatsRequired: s.Selection.Remaining(s.SeatCount),
		CheckoutUrl:   checkoutUrl,
	}

	if s.Movie.ID != 0 {
		resp.Movie = &api.FlowMovie{Id: s.Movie.ID, Title: s.Movie.Title, Price: s.Movie.Price}
	}

	if s.Theater != nil {
		theater := toApiTheater(*s.Theater)
		resp.Theater = &theater
	}

	if s.Showtime != nil {
		st := toApiShowtime(*s.Showtime)
		resp.Showtime = &st
	}

	if !s.ShowTimestamp.IsZero() {
		price := s.TotalPrice
		ts := s.ShowTimestamp
		resp.TotalPrice = &price
		resp.ShowTimestamp = &ts
	}

	if s.BookingID != uuid.Nil {
		id := s.BookingID
		resp.BookingId = &id
	}

	return resp
}
