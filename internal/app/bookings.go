package app

import (
	"net/http"

	"github.com/metinatakli/movie-booking/api"
	"github.com/metinatakli/movie-booking/internal/domain"
	"github.com/metinatakli/movie-booking/internal/seatmap"
)

func (app *Application) GetBookingsOfUser(w http.ResponseWriter, r *http.Request) {
	var params api.GetBookingsParams
	var err error

	params.Page, err = readIntQuery(r, "page")
	if err == nil {
		params.PageSize, err = readIntQuery(r, "pageSize")
	}
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(params)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	userId := app.contextGetUserId(r)

	bookings, metadata, err := app.bookings.ListByUser(r.Context(), userId, toPagination(params))
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := api.BookingsResponse{
		Bookings: make([]api.Booking, len(bookings)),
	}

	for i, b := range bookings {
		resp.Bookings[i] = toApiBooking(&b.Booking)
		resp.Bookings[i].MovieTitle = b.MovieTitle
		resp.Bookings[i].MoviePosterUrl = b.MoviePosterUrl
	}

	if m := toApiMetadata(metadata); m != nil {
		resp.Metadata = *m
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) GetBookingOfUser(w http.ResponseWriter, r *http.Request) {
	id, err := readUUIDParam(r, "bookingId")
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}

	b, err := app.bookings.GetOwned(r.Context(), id, app.contextGetUserId(r))
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toApiBooking(b), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) CancelBookingOfUser(w http.ResponseWriter, r *http.Request) {
	id, err := readUUIDParam(r, "bookingId")
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}

	b, err := app.bookings.Cancel(r.Context(), id, app.contextGetUserId(r))
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	app.contextGetLogger(r).Info("booking cancelled", "bookingId", b.ID)

	err = app.writeJSON(w, http.StatusOK, toApiBooking(b), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func toPagination(params api.GetBookingsParams) domain.Pagination {
	pagination := domain.Pagination{
		Page:     DefaultPage,
		PageSize: DefaultPageSize,
	}

	if params.Page != nil {
		pagination.Page = *params.Page
	}
	if params.PageSize != nil {
		pagination.PageSize = *params.PageSize
	}

	return pagination
}

func toApiBooking(b *domain.Booking) api.Booking {
	return api.Booking{
		Id:            b.ID,
		MovieId:       b.MovieID,
		ShowtimeId:    b.ShowtimeID,
		ShowTime:      b.ShowTime,
		Seats:         b.Seats,
		SeatLabels:    seatmap.FormatSeatLabels(b.SeatNumbers),
		TotalPrice:    b.TotalPrice,
		PaymentStatus: string(b.PaymentStatus),
		BookingTime:   b.BookingTime,
	}
}
