package app

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/metinatakli/movie-booking/api"
	"github.com/metinatakli/movie-booking/internal/domain"
	"github.com/metinatakli/movie-booking/internal/seatmap"
	"github.com/metinatakli/movie-booking/internal/showtime"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

func (app *Application) GetAvailableDates(w http.ResponseWriter, r *http.Request) {
	now := app.clock()
	dates := showtime.AvailableDates(now)

	resp := api.DatesResponse{Dates: make([]api.AvailableDate, len(dates))}
	for i, d := range dates {
		resp.Dates[i] = api.AvailableDate{
			Date:    openapi_types.Date{Time: d},
			Weekday: d.Weekday().String()[:3],
			IsToday: i == 0,
		}
	}

	err := app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) GetMovieTheaters(w http.ResponseWriter, r *http.Request) {
	movie, ok := app.movieFromPath(w, r)
	if !ok {
		return
	}

	now := app.clock()
	date := showtime.Day(now)

	if s := r.URL.Query().Get("date"); s != "" {
		d, err := app.parseDate(s)
		if err != nil {
			app.badRequestResponse(w, r, err)
			return
		}

		date = d
	}

	if !showtime.InWindow(date, now) {
		app.errorResponse(w, r, http.StatusBadRequest, ErrDateOutOfRange)
		return
	}

	listings := app.showtimes.GetTheatersWithShowtimes(movie.ID, date)

	resp := api.TheatersResponse{
		MovieId:  movie.ID,
		Date:     openapi_types.Date{Time: date},
		Theaters: make([]api.Theater, len(listings)),
	}

	for i, l := range listings {
		theater := toApiTheater(l.Theater)
		theater.Showtimes = make([]api.Showtime, len(l.Showtimes))
		for j, st := range l.Showtimes {
			theater.Showtimes[j] = toApiShowtime(st)
		}

		resp.Theaters[i] = theater
	}

	err := app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) GetSeatMap(w http.ResponseWriter, r *http.Request) {
	showtimeId := chi.URLParam(r, "showtimeId")

	_, st, err := app.showtimes.Lookup(showtimeId, app.location)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	reserved, err := app.bookings.ReservedSeats(r.Context(), st.ID)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	m := seatmap.New(st.ID, st.AvailableSeats, reserved)

	err = app.writeJSON(w, http.StatusOK, toSeatMapResponse(m), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) parseDate(s string) (time.Time, error) {
	loc := app.location
	if loc == nil {
		loc = time.Local
	}

	d, err := time.ParseInLocation(time.DateOnly, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be in YYYY-MM-DD format")
	}

	return d, nil
}

func toApiTheater(t domain.Theater) api.Theater {
	return api.Theater{
		Id:           t.ID,
		Name:         t.Name,
		Location:     t.Location,
		City:         t.City,
		TotalScreens: t.TotalScreens,
		Amenities:    t.Amenities,
	}
}

func toApiShowtime(st domain.Showtime) api.Showtime {
	return api.Showtime{
		Id:             st.ID,
		Time:           st.ShowTime,
		DisplayTime:    showtime.FormatShowTime(st.ShowTime),
		ScreenNumber:   st.ScreenNumber,
		AvailableSeats: st.AvailableSeats,
		PriceModifier:  st.PriceModifier,
	}
}

func toSeatMapResponse(m *seatmap.SeatMap) api.SeatMapResponse {
	resp := api.SeatMapResponse{
		ShowtimeId:     m.ShowtimeID,
		TotalSeats:     m.Total,
		AvailableSeats: m.AvailableCount(),
		Rows:           make([]api.SeatRow, m.Rows()),
	}

	for i := range resp.Rows {
		first := i*seatmap.SeatsPerRow + 1
		last := min(first+seatmap.SeatsPerRow-1, m.Total)

		row := api.SeatRow{
			// the first seat of a row is always in column 1
			Row:   strings.TrimSuffix(seatmap.FormatSeatLabel(first), "1"),
			Seats: make([]api.Seat, 0, last-first+1),
		}

		for seat := first; seat <= last; seat++ {
			row.Seats = append(row.Seats, api.Seat{
				Number:    seat,
				Label:     seatmap.FormatSeatLabel(seat),
				Available: m.Available(seat),
			})
		}

		resp.Rows[i] = row
	}

	return resp
}
