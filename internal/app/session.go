package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/metinatakli/movie-booking/internal/flow"
)

type sessionKey string

const (
	SessionKeyUserId = sessionKey("userID")
	SessionKeyFlow   = sessionKey("bookingFlow")
)

func (s sessionKey) String() string {
	return string(s)
}

func (app *Application) contextGetUserId(r *http.Request) int {
	userId, ok := r.Context().Value(SessionKeyUserId).(int)
	if !ok {
		panic("missing user id from context")
	}

	return userId
}

// sessionUserId returns the signed in user, or 0 for guests.
func (app *Application) sessionUserId(ctx context.Context) int {
	return app.sessionManager.GetInt(ctx, SessionKeyUserId.String())
}

// loadFlow returns the booking flow of the session. ok is false when no flow
// has been opened yet.
func (app *Application) loadFlow(ctx context.Context) (state flow.State, ok bool, err error) {
	data := app.sessionManager.GetBytes(ctx, SessionKeyFlow.String())
	if len(data) == 0 {
		return flow.State{}, false, nil
	}

	err = json.Unmarshal(data, &state)
	if err != nil {
		return flow.State{}, false, fmt.Errorf("decode booking flow: %w", err)
	}

	return state, true, nil
}

func (app *Application) saveFlow(ctx context.Context, state flow.State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode booking flow: %w", err)
	}

	app.sessionManager.Put(ctx, SessionKeyFlow.String(), data)

	return nil
}
