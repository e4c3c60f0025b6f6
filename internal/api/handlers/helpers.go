package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"route-scheduling-service/internal/domain"
)

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("encode failed",
			zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"error": msg})
}

// writeDomainError maps the core's typed outcomes onto HTTP statuses.
// Retryable conditions (Busy, Unavailable) get 503 so clients back off.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	msg := "internal server error"

	switch {
	case errors.Is(err, domain.ErrNotFound):
		status, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, domain.ErrConflict):
		status, msg = http.StatusConflict, err.Error()
	case errors.Is(err, domain.ErrInvalidState):
		status, msg = http.StatusConflict, err.Error()
	case errors.Is(err, domain.ErrTypeMismatch),
		errors.Is(err, domain.ErrCapacityExceeded),
		errors.Is(err, domain.ErrInsufficientStock):
		status, msg = http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, domain.ErrInvalidArgument):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrBusy), errors.Is(err, domain.ErrUnavailable):
		status, msg = http.StatusServiceUnavailable, err.Error()
	default:
		zap.L().Error("unhandled error",
			zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
	}

	writeError(w, r, status, msg)
}

// decodeJSON enforces a single, strictly-shaped JSON object body.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return false
	}
	return true
}
