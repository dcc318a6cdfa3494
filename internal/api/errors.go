package api

import (
	"errors"
	"net/http"

	"github.com/phrazzld/taskman-api/internal/api/shared"
	"github.com/phrazzld/taskman-api/internal/bulk"
	"github.com/phrazzld/taskman-api/internal/domain"
	"github.com/phrazzld/taskman-api/internal/service/auth"
	"github.com/phrazzld/taskman-api/internal/store"
)

// Client-facing messages.
const (
	MsgInternalError     = "Internal Server Error"
	MsgInvalidRequest    = "Invalid request format"
	MsgTaskNotFound      = "Task not found"
	MsgUserNotFound      = "User not found"
	MsgEmailExists       = "Email already exists"
	MsgInvalidLogin      = "Invalid Email or Password"
	MsgInvalidToken      = "Invalid token"
	MsgUnauthorized      = "Unauthorized"
	MsgNoToken           = "Access denied. No token provided."
	MsgProvideTaskIDList = "Please provide an array of task IDs"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Bad request errors
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, shared.ErrMalformedJSON),
		errors.Is(err, bulk.ErrNoIDs),
		errors.Is(err, bulk.ErrTooManyIDs),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	// Authentication errors
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized

	// Not found errors
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	switch {
	case err == nil:
		return MsgInternalError
	case errors.Is(err, domain.ErrValidation):
		return shared.ValidationErrorMessage
	case errors.Is(err, shared.ErrMalformedJSON):
		return MsgInvalidRequest
	case errors.Is(err, bulk.ErrNoIDs):
		return MsgProvideTaskIDList
	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"
	case errors.Is(err, auth.ErrInvalidCredentials):
		return MsgInvalidLogin
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid):
		return MsgInvalidToken
	case errors.Is(err, auth.ErrMissingToken):
		return MsgNoToken
	case errors.Is(err, domain.ErrUnauthorized):
		return MsgUnauthorized
	case errors.Is(err, store.ErrTaskNotFound):
		return MsgTaskNotFound
	case errors.Is(err, store.ErrUserNotFound):
		return MsgUserNotFound
	case errors.Is(err, store.ErrEmailExists):
		return MsgEmailExists
	default:
		return MsgInternalError
	}
}

// HandleAPIError writes the response for err. Validation errors list their
// fields; everything else gets a status from MapErrorToStatusCode and either
// message or, when message is empty, the safe message for err. Server
// errors are logged with the redacted error.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, message string) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) && verr.HasErrors() {
		shared.RespondWithValidationError(w, r, verr)
		return
	}

	status := MapErrorToStatusCode(err)
	if message == "" {
		message = GetSafeErrorMessage(err)
	}
	if status == http.StatusInternalServerError {
		message = MsgInternalError
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err)
}
