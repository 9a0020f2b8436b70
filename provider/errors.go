package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/arguslm/arguslm/apperr"
)

// ClassifyHTTPStatus maps an upstream HTTP status code to exactly one of
// the five failure kinds in §4.1. msg is the upstream error body, used
// verbatim in the returned error's Message so callers can surface it
// (e.g. uptime rows carry the raw provider error text, per §7).
func ClassifyHTTPStatus(status int, msg, providerName string) *apperr.Error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return apperr.New(apperr.CodeAuthFailure, msg).
			WithHTTPStatus(status).WithRetryable(false).WithProvider(providerName)
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return apperr.New(apperr.CodeBadRequest, msg).
			WithHTTPStatus(status).WithRetryable(false).WithProvider(providerName)
	case status == http.StatusTooManyRequests:
		return apperr.New(apperr.CodeRateLimited, msg).
			WithHTTPStatus(status).WithRetryable(true).WithProvider(providerName)
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return apperr.New(apperr.CodeTimeout, msg).
			WithHTTPStatus(status).WithRetryable(true).WithProvider(providerName)
	case status >= 500:
		return apperr.New(apperr.CodeServiceUnavailable, msg).
			WithHTTPStatus(status).WithRetryable(true).WithProvider(providerName)
	default:
		// Any other 4xx is treated as a permanent, non-retryable bad request.
		return apperr.New(apperr.CodeBadRequest, msg).
			WithHTTPStatus(status).WithRetryable(false).WithProvider(providerName)
	}
}

// ClassifyTransportError maps a transport-level (non-HTTP-status) error —
// connection reset, DNS failure, context deadline — to Timeout or
// ServiceUnavailable/Transport, the two remaining retriable kinds.
func ClassifyTransportError(err error, providerName string) *apperr.Error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.New(apperr.CodeTimeout, err.Error()).
			WithRetryable(true).WithProvider(providerName).WithCause(err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return apperr.New(apperr.CodeTimeout, err.Error()).
			WithRetryable(true).WithProvider(providerName).WithCause(err)
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return apperr.New(apperr.CodeServiceUnavailable, err.Error()).
			WithRetryable(true).WithProvider(providerName).WithCause(err)
	}
	return apperr.New(apperr.CodeServiceUnavailable, err.Error()).
		WithRetryable(true).WithProvider(providerName).WithCause(err)
}

// ReadErrorBody reads and truncates an upstream error response body for
// inclusion in an error message, never panicking on a nil/empty body.
func ReadErrorBody(r io.Reader) string {
	if r == nil {
		return ""
	}
	buf := make([]byte, 2048)
	n, _ := io.ReadFull(r, buf)
	return fmt.Sprintf("%s", buf[:n])
}
