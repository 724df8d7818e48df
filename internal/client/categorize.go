package client

import (
	"context"
	"errors"
	"strings"

	"github.com/kjstillabower/kma-forecast-service/internal/circuitbreaker"
)

// ErrorCategory is a stable label for error classification in metrics.
type ErrorCategory string

// Error category constants used as metric labels (weatherApiErrorsTotal, httpErrorsTotal).
const (
	ErrorCategoryTimeout        ErrorCategory = "timeout"
	ErrorCategoryNetwork        ErrorCategory = "network"
	ErrorCategoryCircuitOpen    ErrorCategory = "circuit_open"
	ErrorCategoryInvalidKey     ErrorCategory = "invalid_service_key"
	ErrorCategoryUpstreamStatus ErrorCategory = "upstream_status"
	ErrorCategoryParsing        ErrorCategory = "parsing"
	ErrorCategoryUnknown        ErrorCategory = "unknown"
)

// CategorizeError maps an error to a stable ErrorCategory for metrics.
// Result-code errors are labelled by their severity.
func CategorizeError(err error) ErrorCategory {
	if err == nil {
		return ""
	}

	var upstreamErr *UpstreamError
	if errors.As(err, &upstreamErr) {
		return ErrorCategory("result_" + string(upstreamErr.Severity))
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrorCategoryTimeout
	}

	if errors.Is(err, circuitbreaker.ErrOpen) {
		return ErrorCategoryCircuitOpen
	}

	if errors.Is(err, ErrInvalidServiceKey) {
		return ErrorCategoryInvalidKey
	}

	errStr := err.Error()
	if strings.Contains(errStr, "parse") || strings.Contains(errStr, "unmarshal") {
		return ErrorCategoryParsing
	}

	if errors.Is(err, ErrTransport) {
		if strings.Contains(errStr, "HTTP ") {
			return ErrorCategoryUpstreamStatus
		}
		if strings.Contains(strings.ToLower(errStr), "timeout") {
			return ErrorCategoryTimeout
		}
		return ErrorCategoryNetwork
	}

	return ErrorCategoryUnknown
}
