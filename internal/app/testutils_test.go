package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/metinatakli/movie-booking/api"
	"github.com/metinatakli/movie-booking/internal/booking"
	"github.com/metinatakli/movie-booking/internal/domain"
	"github.com/metinatakli/movie-booking/internal/mailer"
	"github.com/metinatakli/movie-booking/internal/mocks"
	"github.com/metinatakli/movie-booking/internal/payment"
	"github.com/metinatakli/movie-booking/internal/seatmap"
	"github.com/metinatakli/movie-booking/internal/showtime"
	"github.com/metinatakli/movie-booking/internal/validator"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

const (
	testUserId   = 7
	testEmail    = "jane@example.com"
	testPassword = "Pass123!@#"
	testMovieId  = 3
)

// testNow is a Friday morning.
var testNow = time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

func newTestApplication(opts ...func(*Application)) *Application {
	m, err := newMetrics()
	if err != nil {
		panic(err)
	}

	app := &Application{
		config:         Config{Env: "test", Currency: "inr"},
		validator:      validator.NewValidator(),
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		userRepo:       &mocks.MockUserRepo{},
		movieRepo:      &mocks.MockMovieRepo{},
		mailer:         mailer.NewMockMailer(),
		sessionManager: scs.New(),
		metrics:        m,
		showtimes:      showtime.NewGenerator(showtime.DefaultTheaters),
		bookings:       booking.NewStore(mocks.NewInMemoryBookingRepo()),
		location:       time.UTC,
		now:            func() time.Time { return testNow },
	}

	for _, opt := range opts {
		opt(app)
	}

	if app.coordinator == nil {
		app.coordinator = booking.NewCoordinator(app.bookings,
			payment.NewMockPaymentProvider("http://localhost:8080/payment-success"),
			booking.WithLogger(app.logger))
	}

	return app
}

// withPayments wires the coordinator to the given gateway, notifying the
// confirmation mailer on every paid booking.
func withPayments(p domain.PaymentProvider) func(*Application) {
	return func(a *Application) {
		a.coordinator = booking.NewCoordinator(a.bookings, p,
			booking.WithLogger(a.logger),
			booking.WithListener(a.metrics),
			booking.WithListener(a.confirmationMailer()))
	}
}

func setupTestSession(t *testing.T, app *Application, r *http.Request, userId int) *http.Request {
	ctx, err := app.sessionManager.Load(r.Context(), "session")
	if err != nil {
		t.Errorf("Failed to load session: %v", err)
	}

	if userId != 0 {
		app.sessionManager.Put(ctx, SessionKeyUserId.String(), userId)
	}

	return r.WithContext(ctx)
}

func withUserId(r *http.Request, userId int) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), SessionKeyUserId, userId))
}

func executeRequest(t *testing.T, method, url string, body any) (*httptest.ResponseRecorder, *http.Request) {
	var reader io.Reader = http.NoBody
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(jsonData)
	}

	r := httptest.NewRequest(method, url, reader)
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	return w, r
}

func checkErrorResponse(t *testing.T, w *httptest.ResponseRecorder, tt struct {
	wantStatus     int
	wantErrMessage string
}) {
	if tt.wantStatus >= 200 && tt.wantStatus < 300 {
		return
	}

	switch tt.wantStatus {
	case http.StatusUnprocessableEntity:
		var validationResp api.ValidationErrorResponse
		if err := json.NewDecoder(w.Body).Decode(&validationResp); err != nil {
			t.Fatalf("Failed to decode validation error response: %v", err)
		}

		errorSet := make(map[string]bool)
		for _, vErr := range validationResp.ValidationErrors {
			errorSet[vErr.Issue] = true
		}

		if !errorSet[tt.wantErrMessage] {
			t.Errorf("Expected validation error message '%s' not found in response", tt.wantErrMessage)
		}

	default:
		var errorResp api.ErrorResponse
		if err := json.NewDecoder(w.Body).Decode(&errorResp); err != nil {
			t.Fatalf("Failed to decode error response: %v", err)
		}

		if tt.wantErrMessage != "" && errorResp.Message != tt.wantErrMessage {
			t.Errorf("Error message = %v, want %v", errorResp.Message, tt.wantErrMessage)
		}
	}
}

func ptr[T any](v T) *T {
	return &v
}

func testMovie() *domain.Movie {
	return &domain.Movie{
		ID:          testMovieId,
		Title:       "Interstellar",
		Description: "A team of explorers travel through a wormhole in space.",
		Genres:      []string{"Sci-Fi", "Drama"},
		Language:    "English",
		ReleaseYear: 2014,
		Duration:    "2h 49m",
		Rating:      decimal.RequireFromString("8.7"),
		Price:       decimal.NewFromInt(150),
		IsFeatured:  true,
		IsAvailable: true,
	}
}

func testUser(t *testing.T) *domain.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}

	user := &domain.User{ID: testUserId, FullName: "Jane Doe", Email: testEmail}
	user.Password.Hash = hash

	return user
}

// catalogRepos serves testMovie and the given user.
func catalogRepos(user *domain.User) func(*Application) {
	return func(a *Application) {
		a.movieRepo = &mocks.MockMovieRepo{
			GetByIdFunc: func(_ context.Context, id int) (*domain.Movie, error) {
				if id != testMovieId {
					return nil, domain.ErrRecordNotFound
				}
				return testMovie(), nil
			},
		}
		a.userRepo = &mocks.MockUserRepo{
			GetByEmailFunc: func(_ context.Context, email string) (*domain.User, error) {
				if user == nil || email != user.Email {
					return nil, domain.ErrRecordNotFound
				}
				return user, nil
			},
			GetByIdFunc: func(_ context.Context, id int) (*domain.User, error) {
				if user == nil || id != user.ID {
					return nil, domain.ErrRecordNotFound
				}
				return user, nil
			},
		}
	}
}

// firstShowtime returns the first screening of testMovie on the test day.
func firstShowtime(t *testing.T, app *Application) domain.Showtime {
	t.Helper()

	listings := app.showtimes.GetTheatersWithShowtimes(testMovieId, showtime.Day(testNow))
	for _, l := range listings {
		if len(l.Showtimes) > 0 {
			return l.Showtimes[0]
		}
	}

	t.Fatal("no showtimes generated")
	return domain.Showtime{}
}

// freeSeats returns the first n seats of st nobody holds.
func freeSeats(t *testing.T, st domain.Showtime, n int) []int {
	t.Helper()

	m := seatmap.New(st.ID, st.AvailableSeats, nil)

	var seats []int
	for seat := 1; seat <= m.Total && len(seats) < n; seat++ {
		if m.Available(seat) {
			seats = append(seats, seat)
		}
	}

	if len(seats) < n {
		t.Fatalf("showtime %s has fewer than %d free seats", st.ID, n)
	}

	return seats
}

// testClient sends requests through the full router and keeps the session
// cookie between them, like a browser would.
type testClient struct {
	t       *testing.T
	handler http.Handler
	cookies map[string]*http.Cookie
}

func newTestClient(t *testing.T, app *Application) *testClient {
	return &testClient{t: t, handler: app.routes(), cookies: make(map[string]*http.Cookie)}
}

func (c *testClient) do(method, target string, body any) *httptest.ResponseRecorder {
	c.t.Helper()

	w, r := executeRequest(c.t, method, target, body)
	for _, cookie := range c.cookies {
		r.AddCookie(cookie)
	}

	c.handler.ServeHTTP(w, r)

	for _, cookie := range w.Result().Cookies() {
		c.cookies[cookie.Name] = cookie
	}

	return w
}

func (c *testClient) login(user *domain.User) {
	c.t.Helper()

	w := c.do(http.MethodPost, "/sessions", api.LoginRequest{Email: user.Email, Password: testPassword})
	if w.Code != http.StatusNoContent {
		c.t.Fatalf("login status = %d, body = %s", w.Code, w.Body.String())
	}
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("Failed to decode response: %v (%s)", err, w.Body.String())
	}

	return v
}

func checkoutSessionId(t *testing.T, checkoutUrl string) string {
	t.Helper()

	u, err := url.Parse(checkoutUrl)
	if err != nil {
		t.Fatal(err)
	}

	return u.Query().Get("session_id")
}
