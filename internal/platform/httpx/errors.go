package httpx

import (
	"errors"
	"net/http"

	"github.com/hypermedia-labs/trillas/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807. Errors
// outside the shared taxonomy become an opaque 500; their detail stays out of
// the response body.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrDuplicate):
		Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, shared.ErrConflict):
		Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, shared.ErrForbidden):
		Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, shared.ErrTokenExpired):
		Problem(w, http.StatusBadRequest, "Activation Token Expired", err.Error())
	case errors.Is(err, shared.ErrTokenUsed):
		Problem(w, http.StatusBadRequest, "Activation Token Already Used", err.Error())
	case errors.Is(err, shared.ErrInvalidCredentials):
		Problem(w, http.StatusUnauthorized, "Invalid Credentials", err.Error())
	case errors.Is(err, shared.ErrAccountLocked):
		Problem(w, http.StatusUnauthorized, "Account Locked", err.Error())
	case errors.Is(err, shared.ErrAccountDisabled):
		Problem(w, http.StatusUnauthorized, "Account Disabled", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
