package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kjstillabower/kma-forecast-service/internal/client"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Path       string `json:"path"`
}

// StatusForSeverity projects an upstream severity onto an HTTP status.
func StatusForSeverity(s client.Severity) int {
	switch s {
	case client.SeverityTemporaryUnavailable:
		return http.StatusServiceUnavailable
	case client.SeverityNotSupported:
		return http.StatusNotImplemented
	case client.SeverityUnauthorized:
		return http.StatusUnauthorized
	case client.SeverityRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, status, errorBody{
		StatusCode: status,
		Message:    message,
		Path:       r.URL.RequestURI(),
	})
}

// writeForecastError maps a lookup failure to its response. Result-code
// errors keep their catalogue message; anything else is an unknown error.
func writeForecastError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	message := client.UnknownErrorMessage

	var upstreamErr *client.UpstreamError
	if errors.As(err, &upstreamErr) {
		status = StatusForSeverity(upstreamErr.Severity)
		message = upstreamErr.Message
	}

	if logger := loggerFromRequest(r); logger != nil {
		logger.Debug("forecast lookup failed", zap.Int("status", status), zap.Error(err))
	}
	writeError(w, r, status, message)
}

func loggerFromRequest(r *http.Request) *zap.Logger {
	if logger, ok := r.Context().Value("logger").(*zap.Logger); ok && logger != nil {
		return logger
	}
	return nil
}
