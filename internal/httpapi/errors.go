package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"mysteryd/internal/backend"
	"mysteryd/internal/manager"
	"mysteryd/pkg/types"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// Failure classes used in error payloads and metrics.
const (
	classBadRequest  = "bad_request"
	classUnavailable = "unavailable"
	classCanceled    = "canceled"
)

// classify maps a service error to its HTTP status and failure class.
func classify(err error) (int, string) {
	var he HTTPError
	switch {
	case errors.As(err, &he):
		return he.StatusCode(), ""
	case manager.IsBadRequest(err):
		return http.StatusBadRequest, classBadRequest
	case manager.IsUnavailable(err):
		return http.StatusServiceUnavailable, classUnavailable
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, classCanceled
	}
	c := backend.Classify(err)
	if c == backend.ClassTimeout {
		return http.StatusGatewayTimeout, c.String()
	}
	return http.StatusBadGateway, c.String()
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, types.ErrorResponse{Error: msg, Code: status})
}

// writeServiceError maps err and writes it.
func writeServiceError(w http.ResponseWriter, err error) int {
	status, class := classify(err)
	if class != "" {
		generationFailures.WithLabelValues(class).Inc()
	}
	writeJSON(w, status, types.ErrorResponse{Error: err.Error(), Code: status, Class: class})
	return status
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
