package app

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/metinatakli/movie-booking/api"
	"github.com/metinatakli/movie-booking/internal/domain"
	"github.com/metinatakli/movie-booking/internal/mocks"
)

func TestGetCurrentUser(t *testing.T) {
	createdAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name           string
		getByIdFunc    func(context.Context, int) (*domain.User, error)
		wantStatus     int
		wantErrMessage string
		wantResponse   *api.UserResponse
	}{
		{
			name: "existing user",
			getByIdFunc: func(ctx context.Context, id int) (*domain.User, error) {
				return &domain.User{ID: id, FullName: "Jane Doe", Email: testEmail, CreatedAt: createdAt}, nil
			},
			wantStatus: http.StatusOK,
			wantResponse: &api.UserResponse{
				Id:        testUserId,
				FullName:  "Jane Doe",
				Email:     testEmail,
				CreatedAt: createdAt,
			},
		},
		{
			name: "user deleted after sign in",
			getByIdFunc: func(ctx context.Context, id int) (*domain.User, error) {
				return nil, domain.ErrRecordNotFound
			},
			wantStatus:     http.StatusNotFound,
			wantErrMessage: ErrNotFound,
		},
		{
			name: "database error",
			getByIdFunc: func(ctx context.Context, id int) (*domain.User, error) {
				return nil, errors.New("connection refused")
			},
			wantStatus:     http.StatusInternalServerError,
			wantErrMessage: ErrInternalServer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApplication(func(a *Application) {
				a.userRepo = &mocks.MockUserRepo{GetByIdFunc: tt.getByIdFunc}
			})

			w, r := executeRequest(t, http.MethodGet, "/users/me", nil)
			r = withUserId(r, testUserId)

			app.GetCurrentUser(w, r)

			if w.Code != tt.wantStatus {
				t.Fatalf("GetCurrentUser() status = %v, want %v", w.Code, tt.wantStatus)
			}

			if tt.wantResponse != nil {
				got := decode[api.UserResponse](t, w)
				if diff := cmp.Diff(*tt.wantResponse, got); diff != "" {
					t.Errorf("GetCurrentUser() mismatch (-want +got):\n%s", diff)
				}
			}

			checkErrorResponse(t, w, struct {
				wantStatus     int
				wantErrMessage string
			}{
				wantStatus:     tt.wantStatus,
				wantErrMessage: tt.wantErrMessage,
			})
		})
	}
}

func TestGetCurrentUserRequiresSession(t *testing.T) {
	app := newTestApplication()
	client := newTestClient(t, app)

	w := client.do(http.MethodGet, "/users/me", nil)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %v, want %v", w.Code, http.StatusUnauthorized)
	}

	checkErrorResponse(t, w, struct {
		wantStatus     int
		wantErrMessage string
	}{
		wantStatus:     http.StatusUnauthorized,
		wantErrMessage: ErrUnauthorizedAccess,
	})
}
