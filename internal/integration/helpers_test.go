package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/movie-booking/internal/domain"
	"github.com/stretchr/testify/require"
)

var keysToIgnore = map[string]struct{}{
	"timestamp": {},
	"requestId": {},
	"createdAt": {},
}

func prepareRequest(method, path string, body io.Reader, headers map[string]string, cookies []*http.Cookie) *http.Request {
	req := httptest.NewRequest(method, path, body)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	for _, c := range cookies {
		req.AddCookie(c)
	}

	return req
}

func compareResponse(t *testing.T, body io.Reader, expectedResponse string) {
	var actual map[string]any
	require.NoError(t, json.NewDecoder(body).Decode(&actual))

	cleanMap(actual)

	var expected map[string]any
	require.NoError(t, json.Unmarshal([]byte(expectedResponse), &expected))

	// ignore indetermistic fields while comparing
	opts := cmpopts.IgnoreMapEntries(func(k string, _ any) bool {
		_, ok := keysToIgnore[k]
		return ok
	})

	if diff := cmp.Diff(expected, actual, opts); diff != "" {
		t.Errorf("response mismatch (-want +got):\n%s", diff)
	}
}

func cleanMap(m map[string]any) {
	for k := range m {
		if _, ok := keysToIgnore[k]; ok {
			delete(m, k)
			continue
		}
		if nested, ok := m[k].(map[string]any); ok {
			cleanMap(nested)
		}
	}
}

func truncateUsersAndBookings(t testing.TB, db *pgxpool.Pool) {
	_, err := db.Exec(context.Background(), "TRUNCATE booking_seats, bookings, users RESTART IDENTITY CASCADE")
	require.NoError(t, err)
}

func defaultTestUser(t testing.TB) *domain.User {
	user := &domain.User{
		FullName: TestUserFullName,
		Email:    TestUserEmail,
	}
	require.NoError(t, user.Password.Set(TestUserPassword))

	return user
}

func insertTestUser(t testing.TB, db *pgxpool.Pool, user *domain.User) {
	err := db.QueryRow(context.Background(), `
		INSERT INTO users (full_name, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		user.FullName, user.Email, user.Password.Hash).Scan(&user.ID, &user.CreatedAt)
	require.NoError(t, err)
}

// loginCookies signs in with the default test user and returns the session
// cookie issued for it.
func loginCookies(t testing.TB, app *TestApp) []*http.Cookie {
	body := strings.NewReader(`{"email": "` + TestUserEmail + `", "password": "` + TestUserPassword + `"}`)
	req := prepareRequest(http.MethodPost, "/sessions", body, nil, nil)

	rec := httptestRecorder(app, req)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	return rec.Result().Cookies()
}

func httptestRecorder(app *TestApp, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	app.App.Routes().ServeHTTP(rec, req)

	return rec
}
