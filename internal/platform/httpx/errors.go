package httpx

import (
	"errors"
	"net/http"

	"github.com/inkpress/inkpress/internal/shared"
)

// ErrValidation marks a request payload that failed validation.
var ErrValidation = errors.New("validation failed")

// RespondError maps domain errors to HTTP responses using RFC7807.
// Unrecognized errors become a 500 without leaking their message; this
// covers configuration errors such as an unseeded permission catalog,
// which must never be presented as an authorization deny.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", "The requested resource does not exist.")
	case errors.Is(err, shared.ErrDuplicate):
		Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrInvalidCredentials):
		Problem(w, http.StatusUnauthorized, "Unauthorized", "Invalid username or password.")
	case errors.Is(err, shared.ErrUnauthenticated):
		Problem(w, http.StatusUnauthorized, "Unauthorized", "You are not authorized to perform this action.")
	case errors.Is(err, shared.ErrForbidden):
		Problem(w, http.StatusForbidden, "Forbidden", "You are not authorized to perform this action.")
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
