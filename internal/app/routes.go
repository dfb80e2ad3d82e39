package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/riandyrn/otelchi"
)

func (app *Application) routes() http.Handler {
	r := chi.NewRouter()

	r.NotFound(app.notFoundResponse)
	r.MethodNotAllowed(app.methodNotAllowedResponse)

	r.Use(otelchi.Middleware(serviceName, otelchi.WithChiRoutes(r)))
	r.Use(middleware.Logger)
	r.Use(middleware.RequestID)
	r.Use(app.recoverPanic)

	r.Get("/healthcheck", app.GetHealth)

	// Stripe calls this endpoint without a browser session.
	r.Post("/webhook", app.StripeWebhook)

	r.Group(func(r chi.Router) {
		r.Use(app.sessionManager.LoadAndSave)

		r.Post("/users", app.RegisterUser)
		r.Post("/sessions", app.Login)
		r.Delete("/sessions", app.Logout)

		r.Get("/movies", app.GetMovies)
		r.Get("/movies/featured", app.GetFeaturedMovies)
		r.Get("/movies/{movieId}", app.GetMovie)
		r.Get("/movies/{movieId}/theaters", app.GetMovieTheaters)
		r.Get("/dates", app.GetAvailableDates)
		r.Get("/showtimes/{showtimeId}/seats", app.GetSeatMap)

		r.Route("/booking-flow", func(r chi.Router) {
			r.Post("/", app.OpenBookingFlow)
			r.Get("/", app.GetBookingFlow)
			r.Delete("/", app.CloseBookingFlow)
			r.Put("/date", app.SelectFlowDate)
			r.Put("/seat-count", app.SetFlowSeatCount)
			r.Post("/showtime", app.ChooseFlowShowtime)
			r.Post("/seats/{seat}", app.ToggleFlowSeat)
			r.Post("/details", app.ProceedToDetails)
			r.Post("/payment", app.ProceedToPayment)
			r.Post("/back", app.FlowBack)
		})

		r.Group(func(r chi.Router) {
			r.Use(app.requireAuthentication)

			r.Get("/users/me", app.GetCurrentUser)
			r.Get("/users/me/bookings", app.GetBookingsOfUser)
			r.Get("/users/me/bookings/{bookingId}", app.GetBookingOfUser)
			r.Post("/users/me/bookings/{bookingId}/cancel", app.CancelBookingOfUser)
			r.Post("/payments/verify", app.VerifyPayment)
		})
	})

	return r
}
