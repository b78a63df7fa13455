package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"finhealth/internal/capture"
	"finhealth/internal/core"
	"finhealth/internal/log"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// statusFor maps domain and capture errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errPayloadTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidLimit),
		errors.Is(err, core.ErrInvalidCurrency),
		errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrEmptyDescription),
		errors.Is(err, core.ErrInvalidGoal),
		errors.Is(err, core.ErrInvalidDecision),
		errors.Is(err, capture.ErrEmptyInput) && !errors.Is(err, capture.ErrCaptureFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrRewardNotFound),
		errors.Is(err, core.ErrImpulseNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrInsufficientPoints),
		errors.Is(err, core.ErrSpeedbumpActive),
		errors.Is(err, core.ErrImpulseResolved),
		errors.Is(err, core.ErrNoUser):
		return http.StatusConflict
	case errors.Is(err, capture.ErrNotConfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, capture.ErrCaptureFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	logger := log.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed", log.FieldError, err, log.FieldPath, r.URL.Path)
	} else {
		logger.DebugContext(r.Context(), "Request rejected", log.FieldError, err, log.FieldPath, r.URL.Path)
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	writeJSON(w, status, errorResponse{Error: http.StatusText(status), Message: msg})
}
