package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/alexedwards/scs/goredisstore"
	"github.com/alexedwards/scs/v2"
	"github.com/exaring/otelpgx"
	"github.com/go-co-op/gocron/v2"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/metinatakli/movie-booking/internal/booking"
	"github.com/metinatakli/movie-booking/internal/domain"
	"github.com/metinatakli/movie-booking/internal/jobs"
	"github.com/metinatakli/movie-booking/internal/mailer"
	"github.com/metinatakli/movie-booking/internal/payment"
	"github.com/metinatakli/movie-booking/internal/queue"
	"github.com/metinatakli/movie-booking/internal/repository"
	"github.com/metinatakli/movie-booking/internal/showtime"
	appvalidator "github.com/metinatakli/movie-booking/internal/validator"
	"github.com/metinatakli/movie-booking/internal/vcs"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stripe/stripe-go/v82"
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

const serviceName = "movie-booking-api"

var (
	version = vcs.Version()
)

type Application struct {
	config         Config
	logger         *slog.Logger
	db             *pgxpool.Pool
	redis          redis.UniversalClient
	validator      *validator.Validate
	mailer         mailer.Mailer
	sessionManager *scs.SessionManager
	metrics        *metrics

	userRepo  domain.UserRepository
	movieRepo domain.MovieRepository

	showtimes   *showtime.Generator
	bookings    *booking.Store
	coordinator *booking.Coordinator

	location *time.Location
	now      func() time.Time
	wg       sync.WaitGroup
}

type Config struct {
	Port             int
	Env              string
	TimeZone         string
	Currency         string
	OtelCollectorUrl string
	RabbitMQUrl      string
	DB               DBConfig
	Redis            RedisConfig
	SMTP             SMTPConfig
	Stripe           StripeConfig
	Booking          BookingConfig
}

type DBConfig struct {
	Dsn          string
	MaxOpenConns int
	MaxIdleTime  time.Duration
}

type RedisConfig struct {
	Url          string
	MaxOpenConns int
	MaxIdleConns int
	MaxIdleTime  time.Duration
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Sender   string
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	SuccessUrl    string
	FailureUrl    string
	SessionTTL    time.Duration
}

type BookingConfig struct {
	// HoldWindow is how long a booking may stay pending before it is
	// cancelled. It must outlive the checkout session.
	HoldWindow     time.Duration
	ExpiryInterval time.Duration
}

func Run() error {
	// a missing .env file is fine, the environment or flags are used instead
	_ = godotenv.Load()

	var cfg Config

	flag.IntVar(&cfg.Port, "port", envInt("PORT", 3000), "server port")
	flag.StringVar(&cfg.Env, "env", envString("APP_ENV", "dev"), "Environment (dev|staging|prod)")
	flag.StringVar(&cfg.TimeZone, "tz", envString("APP_TIMEZONE", "Asia/Kolkata"), "Time zone of the theaters")
	flag.StringVar(&cfg.Currency, "currency", envString("APP_CURRENCY", "inr"), "Currency of ticket prices")
	flag.StringVar(&cfg.OtelCollectorUrl, "otel-collector-url", envString("OTEL_COLLECTOR_URL", ""), "OpenTelemetry collector gRPC endpoint")
	flag.StringVar(&cfg.RabbitMQUrl, "rabbitmq-url", envString("RABBITMQ_URL", ""), "RabbitMQ URL for booking events")

	flag.StringVar(&cfg.DB.Dsn, "db-dsn", envString("DB_DSN", ""), "PostgreSQL DSN")
	flag.IntVar(&cfg.DB.MaxOpenConns, "db-max-open-conns", envInt("DB_MAX_OPEN_CONNS", 25), "PostgreSQL max open connections")
	flag.DurationVar(&cfg.DB.MaxIdleTime, "db-max-idle-time", envDuration("DB_MAX_IDLE_TIME", 15*time.Minute), "PostgreSQL max idle time for connections")

	flag.StringVar(&cfg.Redis.Url, "redis-url", envString("REDIS_URL", ""), "Redis URL")
	flag.IntVar(&cfg.Redis.MaxOpenConns, "redis-max-open-conns", envInt("REDIS_MAX_OPEN_CONNS", 25), "Redis max open connections")
	flag.IntVar(&cfg.Redis.MaxIdleConns, "redis-max-idle-conns", envInt("REDIS_MAX_IDLE_CONNS", 10), "Redis max idle connections")
	flag.DurationVar(&cfg.Redis.MaxIdleTime, "redis-max-idle-time", envDuration("REDIS_MAX_IDLE_TIME", 2*time.Minute), "Redis max idle time for connections")

	flag.StringVar(&cfg.SMTP.Host, "smtp-host", envString("SMTP_HOST", "sandbox.smtp.mailtrap.io"), "SMTP host")
	flag.IntVar(&cfg.SMTP.Port, "smtp-port", envInt("SMTP_PORT", 2525), "SMTP port")
	flag.StringVar(&cfg.SMTP.Username, "smtp-username", envString("SMTP_USERNAME", ""), "SMTP username")
	flag.StringVar(&cfg.SMTP.Password, "smtp-password", envString("SMTP_PASSWORD", ""), "SMTP password")
	flag.StringVar(&cfg.SMTP.Sender, "smtp-sender", envString("SMTP_SENDER", "CineX <no-reply@cinex.metinatakli.net>"), "SMTP sender")

	flag.StringVar(&cfg.Stripe.SecretKey, "stripe-key", envString("STRIPE_SECRET_KEY", ""), "Stripe secret key")
	flag.StringVar(&cfg.Stripe.WebhookSecret, "stripe-webhook-secret", envString("STRIPE_WEBHOOK_SECRET", ""), "Stripe webhook secret")
	flag.StringVar(&cfg.Stripe.SuccessUrl, "stripe-success-url", envString("STRIPE_SUCCESS_URL", "http://localhost:8080/payment-success"), "Stripe payment success page")
	flag.StringVar(&cfg.Stripe.FailureUrl, "stripe-failure-url", envString("STRIPE_FAILURE_URL", "http://localhost:8080/payment-cancelled"), "Stripe payment failure page")
	flag.DurationVar(&cfg.Stripe.SessionTTL, "stripe-session-ttl", envDuration("STRIPE_SESSION_TTL", 31*time.Minute), "Lifetime of a checkout session (Stripe accepts 30m to 24h)")

	flag.DurationVar(&cfg.Booking.HoldWindow, "booking-hold-window", envDuration("BOOKING_HOLD_WINDOW", 40*time.Minute), "Age after which pending bookings are cancelled")
	flag.DurationVar(&cfg.Booking.ExpiryInterval, "booking-expiry-interval", envDuration("BOOKING_EXPIRY_INTERVAL", time.Minute), "How often pending bookings are checked for expiry")

	displayVersion := flag.Bool("version", false, "Display version and exit")

	flag.Parse()

	if *displayVersion {
		fmt.Printf("Version:\t%s\n", version)
		os.Exit(0)
	}

	if cfg.Booking.HoldWindow <= cfg.Stripe.SessionTTL {
		return fmt.Errorf("booking hold window (%s) must exceed the checkout session ttl (%s)",
			cfg.Booking.HoldWindow, cfg.Stripe.SessionTTL)
	}

	location, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		return err
	}

	stripe.Key = cfg.Stripe.SecretKey

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	shutdownTelemetry, err := InitTelemetry(cfg, logger)
	if err != nil {
		return err
	}
	defer shutdownTelemetry(context.Background())

	if cfg.OtelCollectorUrl != "" {
		logger = slog.New(NewMultiHandler(
			logger.Handler(),
			otelslog.NewHandler(serviceName),
		))
	}

	db, err := NewDatabasePool(cfg.DB)
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient, err := NewRedisClient(cfg.Redis)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	var paymentProvider domain.PaymentProvider
	if cfg.Stripe.SecretKey != "" {
		paymentProvider = payment.NewStripePaymentProvider(cfg.Stripe.FailureUrl, cfg.Stripe.SuccessUrl, cfg.Stripe.SessionTTL)
	} else {
		logger.Warn("stripe key not set, using the in-memory payment provider")
		paymentProvider = payment.NewMockPaymentProvider(cfg.Stripe.SuccessUrl)
	}

	var listeners []booking.Listener
	if cfg.RabbitMQUrl != "" {
		publisher, err := queue.NewPublisher(cfg.RabbitMQUrl)
		if err != nil {
			return err
		}
		defer publisher.Close()

		listeners = append(listeners, publisher)
	}

	app, err := NewApp(cfg, Dependencies{
		Logger:          logger,
		DB:              db,
		Redis:           redisClient,
		Mailer:          mailer.NewSMTPMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.Sender),
		SessionManager:  NewSessionManager(redisClient),
		UserRepo:        repository.NewPostgresUserRepository(db),
		MovieRepo:       repository.NewPostgresMovieRepository(db),
		BookingRepo:     repository.NewPostgresBookingRepository(db),
		PaymentProvider: paymentProvider,
		Listeners:       listeners,
		Location:        location,
	})
	if err != nil {
		return err
	}

	scheduler, err := gocron.NewScheduler(gocron.WithLocation(location))
	if err != nil {
		return err
	}

	if _, err := app.PendingExpiry().Schedule(scheduler, cfg.Booking.ExpiryInterval); err != nil {
		return err
	}

	scheduler.Start()
	defer func() {
		if err := scheduler.Shutdown(); err != nil {
			app.logger.Error("failed to stop scheduler", "error", err)
		}
	}()

	return app.run()
}

// Dependencies are the collaborators an Application is assembled from.
// Now is optional and defaults to the wall clock.
type Dependencies struct {
	Logger          *slog.Logger
	DB              *pgxpool.Pool
	Redis           redis.UniversalClient
	Mailer          mailer.Mailer
	SessionManager  *scs.SessionManager
	UserRepo        domain.UserRepository
	MovieRepo       domain.MovieRepository
	BookingRepo     domain.BookingRepository
	PaymentProvider domain.PaymentProvider
	Listeners       []booking.Listener
	Location        *time.Location
	Now             func() time.Time
}

func NewApp(cfg Config, deps Dependencies) (*Application, error) {
	m, err := newMetrics()
	if err != nil {
		return nil, err
	}

	app := &Application{
		config:         cfg,
		logger:         deps.Logger,
		db:             deps.DB,
		redis:          deps.Redis,
		validator:      appvalidator.NewValidator(),
		mailer:         deps.Mailer,
		sessionManager: deps.SessionManager,
		metrics:        m,
		userRepo:       deps.UserRepo,
		movieRepo:      deps.MovieRepo,
		showtimes:      showtime.NewGenerator(showtime.DefaultTheaters),
		bookings:       booking.NewStore(deps.BookingRepo),
		location:       deps.Location,
		now:            deps.Now,
	}

	opts := []booking.Option{
		booking.WithCurrency(cfg.Currency),
		booking.WithLogger(app.logger),
		booking.WithListener(app.metrics),
		booking.WithListener(app.confirmationMailer()),
	}

	for _, l := range deps.Listeners {
		opts = append(opts, booking.WithListener(l))
	}

	app.coordinator = booking.NewCoordinator(app.bookings, deps.PaymentProvider, opts...)

	return app, nil
}

func (app *Application) Routes() http.Handler {
	return app.routes()
}

// PendingExpiry returns the job cancelling bookings left unpaid for longer
// than the hold window.
func (app *Application) PendingExpiry() *jobs.PendingExpiry {
	return jobs.NewPendingExpiry(app.bookings, app.coordinator, app.config.Booking.HoldWindow, app.logger,
		jobs.WithExpiredHook(app.metrics.recordExpired))
}

// Wait blocks until background tasks such as confirmation mails are done.
func (app *Application) Wait() {
	app.wg.Wait()
}

func NewSessionManager(client *redis.Client) *scs.SessionManager {
	sessionManager := scs.New()

	sessionManager.Store = goredisstore.New(client)
	sessionManager.IdleTimeout = 20 * time.Minute
	sessionManager.Cookie.Name = "session_id"

	return sessionManager
}

func NewRedisClient(cfg RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:            cfg.Url,
		MaxIdleConns:    cfg.MaxIdleConns,
		MaxActiveConns:  cfg.MaxOpenConns,
		ConnMaxIdleTime: cfg.MaxIdleTime,
	})

	if err := errors.Join(redisotel.InstrumentTracing(rdb), redisotel.InstrumentMetrics(rdb)); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err := rdb.Ping(ctx).Err()
	if err != nil {
		return nil, err
	}

	return rdb, nil
}

func NewDatabasePool(cfg DBConfig) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(cfg.Dsn)
	if err != nil {
		return nil, err
	}

	config.MaxConnIdleTime = cfg.MaxIdleTime
	config.MaxConns = int32(cfg.MaxOpenConns)
	config.ConnConfig.Tracer = otelpgx.NewTracer()

	db, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err = db.Ping(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func (app *Application) run() error {
	srv := &http.Server{
		Addr:         fmt.Sprintf("0.0.0.0:%d", app.config.Port),
		Handler:      app.routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorLog:     slog.NewLogLogger(app.logger.Handler(), slog.LevelDebug),
	}

	shutdownError := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		app.logger.Info("shutting down server", "signal", s.String())

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		err := srv.Shutdown(ctx)
		if err != nil {
			shutdownError <- err
			return
		}

		app.logger.Info("completing background tasks", "addr", srv.Addr)

		app.wg.Wait()
		shutdownError <- nil
	}()

	app.logger.Info("starting server", "addr", srv.Addr, "env", app.config.Env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdownError
	if err != nil {
		return err
	}

	app.logger.Info("stopped server", "addr", srv.Addr)

	return nil
}

// clock returns the current time in the theaters' time zone.
func (app *Application) clock() time.Time {
	now := time.Now
	if app.now != nil {
		now = app.now
	}

	if app.location == nil {
		return now()
	}

	return now().In(app.location)
}

func envString(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}

	return fallback
}

func envInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}

	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}

	return fallback
}
