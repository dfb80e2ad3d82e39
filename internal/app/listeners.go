package app

import (
	"context"
	"strings"

	"github.com/metinatakli/movie-booking/internal/booking"
	"github.com/metinatakli/movie-booking/internal/domain"
	"github.com/metinatakli/movie-booking/internal/seatmap"
)

const bookingConfirmedTemplate = "booking_confirmed.tmpl"

// confirmationMailer mails the booking owner once their payment went
// through. Delivery happens in the background so a slow SMTP server never
// holds up the confirmation.
func (app *Application) confirmationMailer() booking.Listener {
	return booking.ListenerFunc(func(ctx context.Context, b *domain.Booking) error {
		logger := app.logger.With("bookingId", b.ID)
		// the request may finish before the mail is sent
		ctx = context.WithoutCancel(ctx)

		app.background(logger, func() {
			err := app.sendBookingConfirmation(ctx, b)
			if err != nil {
				logger.Error("failed to send booking confirmation", "error", err)
				return
			}

			logger.Info("booking confirmation sent")
		})

		return nil
	})
}

func (app *Application) sendBookingConfirmation(ctx context.Context, b *domain.Booking) error {
	user, err := app.userRepo.GetById(ctx, b.UserID)
	if err != nil {
		return err
	}

	movie, err := app.movieRepo.GetById(ctx, b.MovieID)
	if err != nil {
		return err
	}

	showTime := b.ShowTime
	if app.location != nil {
		showTime = showTime.In(app.location)
	}

	data := map[string]any{
		"fullName":   user.FullName,
		"movieTitle": movie.Title,
		"showTime":   showTime.Format("Monday, 02 January 2006 at 3:04 PM"),
		"seats":      strings.Join(seatmap.FormatSeatLabels(b.SeatNumbers), ", "),
		"totalPrice": b.TotalPrice.StringFixed(2),
		"bookingId":  b.ID.String(),
	}

	return app.mailer.Send(user.Email, bookingConfirmedTemplate, data)
}
