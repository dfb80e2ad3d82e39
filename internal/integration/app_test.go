package integration_test

import (
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/movie-booking/internal/app"
	"github.com/metinatakli/movie-booking/internal/mailer"
	"github.com/metinatakli/movie-booking/internal/payment"
	"github.com/metinatakli/movie-booking/internal/repository"
	"github.com/redis/go-redis/v9"
)

type TestApp struct {
	App      *app.Application
	DB       *pgxpool.Pool
	Redis    *redis.Client
	Mailer   *mailer.MockMailer
	Payments *payment.MockPaymentProvider
	Bookings *repository.PostgresBookingRepository
}

func newTestApp(cfg app.Config) (*TestApp, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	mockMailer := mailer.NewMockMailer()
	payments := payment.NewMockPaymentProvider(cfg.Stripe.SuccessUrl)

	db, err := app.NewDatabasePool(cfg.DB)
	if err != nil {
		return nil, err
	}

	redisClient, err := app.NewRedisClient(cfg.Redis)
	if err != nil {
		db.Close()
		return nil, err
	}

	bookingRepo := repository.NewPostgresBookingRepository(db)

	application, err := app.NewApp(cfg, app.Dependencies{
		Logger:          logger,
		DB:              db,
		Redis:           redisClient,
		Mailer:          mockMailer,
		SessionManager:  app.NewSessionManager(redisClient),
		UserRepo:        repository.NewPostgresUserRepository(db),
		MovieRepo:       repository.NewPostgresMovieRepository(db),
		BookingRepo:     bookingRepo,
		PaymentProvider: payments,
		Location:        time.UTC,
	})
	if err != nil {
		db.Close()
		redisClient.Close()
		return nil, err
	}

	return &TestApp{
		App:      application,
		DB:       db,
		Redis:    redisClient,
		Mailer:   mockMailer,
		Payments: payments,
		Bookings: bookingRepo,
	}, nil
}

func (a *TestApp) Close() {
	a.App.Wait()
	a.Redis.Close()
	a.DB.Close()
}
