package app

import (
	"errors"
	"maps"
	"net/http"
	"slices"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/metinatakli/movie-booking/api"
	"github.com/metinatakli/movie-booking/internal/domain"
	"github.com/metinatakli/movie-booking/internal/flow"
	appvalidator "github.com/metinatakli/movie-booking/internal/validator"
)

// Messages returned to clients. Raw backend and gateway errors are only
// logged; a response carries one of these instead.
const (
	ErrInternalServer       = "An error occurred. Please try again or contact support."
	ErrNotFound             = "The requested resource was not found."
	ErrBadRequest           = "The request could not be understood."
	ErrFailedValidation     = "The request contains invalid data."
	ErrInvalidCredentials   = "Invalid email or password. Please try again."
	ErrUnauthorizedAccess   = "Your session has expired. Please sign in again."
	ErrForbidden            = "You do not have permission to perform this action."
	ErrEditConflict         = "Unable to update the record due to a conflict, please try again"
	ErrEmailTaken           = "This email is already registered. Please sign in instead."
	ErrSeatsTaken           = "Some of the selected seats were just booked. Please choose other seats."
	ErrPaymentFailed        = "Payment processing failed. Please try again or use a different payment method."
	ErrPaymentNotCompleted  = "Payment has not been completed yet."
	ErrBookingFailed        = "Booking failed. Please try again."
	ErrStepNotAllowed       = "This action is not available at the current booking step."
	ErrSignInToContinue     = "Please sign in to continue with your booking."
	ErrShowtimeRequired     = "Please select a showtime to continue."
	ErrShowtimeDateMismatch = "The selected showtime is not on the selected date."
	ErrDateOutOfRange       = "Bookings are available for the next 7 days only."
	ErrNoActiveFlow         = "There is no booking in progress."
)

func (app *Application) logError(r *http.Request, err error) {
	var (
		method = r.Method
		uri    = r.URL.RequestURI()
	)

	app.contextGetLogger(r).Error(err.Error(), "method", method, "uri", uri)
}

// The errorResponse() method is a generic helper for sending JSON-formatted error
// messages to the client with a given status code.
func (app *Application) errorResponse(w http.ResponseWriter, r *http.Request, status int, message string) {
	resp := api.ErrorResponse{
		Message:   message,
		RequestId: middleware.GetReqID(r.Context()),
		Timestamp: time.Now(),
	}

	err := app.writeJSON(w, status, resp, nil)
	if err != nil {
		app.logError(r, err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (app *Application) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logError(r, err)
	app.errorResponse(w, r, http.StatusInternalServerError, ErrInternalServer)
}

func (app *Application) notFoundResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusNotFound, ErrNotFound)
}

func (app *Application) methodNotAllowedResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusMethodNotAllowed, "The method is not supported for this resource.")
}

func (app *Application) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.contextGetLogger(r).Warn("bad request", "error", err)
	app.errorResponse(w, r, http.StatusBadRequest, ErrBadRequest)
}

func (app *Application) invalidCredentialsResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusUnauthorized, ErrInvalidCredentials)
}

func (app *Application) unauthorizedAccessResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusUnauthorized, ErrUnauthorizedAccess)
}

func (app *Application) editConflictResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusConflict, ErrEditConflict)
}

// failedValidationResponse reports struct tag violations field by field.
func (app *Application) failedValidationResponse(w http.ResponseWriter, r *http.Request, err error) {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		app.badRequestResponse(w, r, err)
		return
	}

	issues := make([]api.ValidationError, len(validationErrs))
	for i, fieldErr := range validationErrs {
		issues[i] = api.ValidationError{
			Field: jsonFieldName(fieldErr.Field()),
			Issue: appvalidator.ValidationMessage(fieldErr),
		}
	}

	app.validationErrorResponse(w, r, issues)
}

func (app *Application) validationErrorResponse(w http.ResponseWriter, r *http.Request, issues []api.ValidationError) {
	resp := api.ValidationErrorResponse{
		Message:          ErrFailedValidation,
		RequestId:        middleware.GetReqID(r.Context()),
		Timestamp:        time.Now(),
		ValidationErrors: issues,
	}

	err := app.writeJSON(w, http.StatusUnprocessableEntity, resp, nil)
	if err != nil {
		app.logError(r, err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// domainErrorResponse maps an error from the booking core to a status code
// and a safe message.
func (app *Application) domainErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	logger := app.contextGetLogger(r)

	var (
		selectionErr  *flow.SelectionError
		validationErr *domain.ValidationError
	)

	switch {
	case errors.As(err, &selectionErr):
		app.errorResponse(w, r, http.StatusBadRequest, selectionErr.Error())
	case errors.As(err, &validationErr):
		issues := make([]api.ValidationError, 0, len(validationErr.Issues))
		for _, field := range slices.Sorted(maps.Keys(validationErr.Issues)) {
			issues = append(issues, api.ValidationError{Field: field, Issue: validationErr.Issues[field]})
		}
		app.validationErrorResponse(w, r, issues)
	case errors.Is(err, flow.ErrShowtimeRequired):
		app.errorResponse(w, r, http.StatusBadRequest, ErrShowtimeRequired)
	case errors.Is(err, flow.ErrShowtimeDateMismatch):
		app.errorResponse(w, r, http.StatusBadRequest, ErrShowtimeDateMismatch)
	case errors.Is(err, flow.ErrDateOutOfRange):
		app.errorResponse(w, r, http.StatusBadRequest, ErrDateOutOfRange)
	case errors.Is(err, flow.ErrAuthenticationRequired):
		app.errorResponse(w, r, http.StatusUnauthorized, ErrSignInToContinue)
	case errors.Is(err, flow.ErrInvalidTransition):
		app.errorResponse(w, r, http.StatusConflict, ErrStepNotAllowed)
	case errors.Is(err, domain.ErrSeatAlreadyReserved):
		app.errorResponse(w, r, http.StatusConflict, ErrSeatsTaken)
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrEditConflict):
		logger.Warn("conflicting booking update", "error", err)
		app.errorResponse(w, r, http.StatusConflict, ErrBookingFailed)
	case errors.Is(err, domain.ErrUnauthenticated):
		app.unauthorizedAccessResponse(w, r)
	case errors.Is(err, domain.ErrUnauthorized):
		logger.Warn("access to a booking of another user", "error", err)
		app.errorResponse(w, r, http.StatusForbidden, ErrForbidden)
	case errors.Is(err, domain.ErrRecordNotFound):
		app.notFoundResponse(w, r)
	case errors.Is(err, domain.ErrPaymentNotSettled):
		logger.Info("payment not settled", "error", err)
		app.errorResponse(w, r, http.StatusBadRequest, ErrPaymentNotCompleted)
	case errors.Is(err, domain.ErrExternalService):
		logger.Error("payment gateway failure", "error", err)
		app.errorResponse(w, r, http.StatusBadGateway, ErrPaymentFailed)
	case errors.Is(err, domain.ErrValidation):
		app.errorResponse(w, r, http.StatusBadRequest, ErrFailedValidation)
	default:
		app.serverErrorResponse(w, r, err)
	}
}

func jsonFieldName(field string) string {
	first, size := utf8.DecodeRuneInString(field)
	if first == utf8.RuneError {
		return field
	}

	return string(unicode.ToLower(first)) + field[size:]
}
