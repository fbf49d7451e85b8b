package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/gray-logic-hass/internal/hass"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes.
const (
	ErrCodeBadRequest      = "bad_request"
	ErrCodeNotFound        = "not_found"
	ErrCodeUnauthorized    = "unauthorised"
	ErrCodeReadOnly        = "read_only"
	ErrCodeInvalidValue    = "invalid_value"
	ErrCodeUnsupported     = "unsupported_entity"
	ErrCodeInvalidRegistry = "invalid_registry"
	ErrCodeHubUnreachable  = "hub_unreachable"
	ErrCodeHubRejected     = "hub_rejected"
	ErrCodeNotConfigured   = "not_configured"
	ErrCodeTimeout         = "timeout"
	ErrCodeUnavailable     = "service_unavailable"
	ErrCodeInternal        = "internal_error"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeNotFound writes a 404 error response.
func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// writeUnauthorized writes a 401 error response.
func writeUnauthorized(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeDriverError maps driver errors onto HTTP statuses: caller mistakes
// land in the 4xx range, hub trouble becomes 502, an unconfigured driver
// becomes 503. Unknown errors fall through to 500.
func writeDriverError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, hass.ErrPointNotFound):
		writeError(w, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, hass.ErrReadOnly):
		writeError(w, http.StatusForbidden, ErrCodeReadOnly, err.Error())
	case errors.Is(err, hass.ErrInvalidValue):
		writeError(w, http.StatusUnprocessableEntity, ErrCodeInvalidValue, err.Error())
	case errors.Is(err, hass.ErrUnsupportedEntity):
		writeError(w, http.StatusUnprocessableEntity, ErrCodeUnsupported, err.Error())
	case errors.Is(err, hass.ErrUnsupportedState):
		writeError(w, http.StatusBadGateway, ErrCodeHubRejected, err.Error())
	case errors.Is(err, hass.ErrTransport):
		writeError(w, http.StatusBadGateway, ErrCodeHubUnreachable, err.Error())
	case errors.Is(err, hass.ErrRequestFailed):
		writeError(w, http.StatusBadGateway, ErrCodeHubRejected, err.Error())
	case errors.Is(err, hass.ErrConfiguration):
		writeError(w, http.StatusServiceUnavailable, ErrCodeNotConfigured, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, ErrCodeTimeout, err.Error())
	default:
		writeInternalError(w, err.Error())
	}
}
