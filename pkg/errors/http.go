package errors

import (
	"encoding/json"
	"errors"
	"net/http"
)

var errorStatusCodes = map[error]int{
	ErrNotFound:           http.StatusNotFound,
	ErrInvalidInput:       http.StatusBadRequest,
	ErrInternalError:      http.StatusInternalServerError,
	ErrUnavailable:        http.StatusServiceUnavailable,
	ErrLimitExceeded:      http.StatusTooManyRequests,
	ErrNotInitialized:     http.StatusConflict,
	ErrAlreadyInitialized: http.StatusConflict,
	ErrSessionNotFound:    http.StatusNotFound,
	ErrUnknownNode:        http.StatusInternalServerError,
	ErrPublishFailed:      http.StatusBadGateway,
	ErrCircuitOpen:        http.StatusServiceUnavailable,
}

// WriteError writes a JSON error body with the status mapped from err's kind
func WriteError(w http.ResponseWriter, err error) {
	var (
		status   int
		response map[string]interface{}
		serr     *Error
	)

	switch {
	case err == nil:
		status = http.StatusInternalServerError
		response = map[string]interface{}{"error": "unknown error"}
	case errors.As(err, &serr):
		status = HTTPStatusFromError(err)
		response = serr.AsJSON()
	default:
		status = HTTPStatusFromError(err)
		response = map[string]interface{}{"error": err.Error()}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response)
}

// HTTPStatusFromError walks the wrap chain and returns the status of the
// first known kind, or 500.
func HTTPStatusFromError(err error) int {
	for err != nil {
		if code, ok := errorStatusCodes[err]; ok {
			return code
		}
		err = errors.Unwrap(err)
	}
	return http.StatusInternalServerError
}
