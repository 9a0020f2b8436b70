package handlers

import (
	"encoding/json"
	"mime"
	"net/http"
	"net/url"
	"time"

	"github.com/arguslm/arguslm/apperr"
	"go.uber.org/zap"
)

// =============================================================================
// Response envelope
// =============================================================================

// Response is the canonical API envelope returned by every handler.
type Response struct {
	Success   bool       `json:"success"`
	Data      any        `json:"data,omitempty"`
	Error     *ErrorInfo `json:"error,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
	RequestID string     `json:"request_id,omitempty"`
}

// ErrorInfo carries the HTTP-facing shape of an apperr.Error.
type ErrorInfo struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Retryable  bool   `json:"retryable,omitempty"`
	HTTPStatus int    `json:"-"`
}

// =============================================================================
// Response helpers
// =============================================================================

// WriteJSON writes data as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// The header is already flushed at this point; nothing left to do
		// but drop the encode failure.
		return
	}
}

// WriteSuccess writes a 200 response wrapping data in the Response envelope.
func WriteSuccess(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, Response{
		Success:   true,
		Data:      data,
		Timestamp: time.Now(),
		RequestID: w.Header().Get("X-Request-ID"),
	})
}

// WriteCreated writes a 201 response wrapping data in the Response envelope.
func WriteCreated(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, Response{
		Success:   true,
		Data:      data,
		Timestamp: time.Now(),
		RequestID: w.Header().Get("X-Request-ID"),
	})
}

// WriteNoContent writes a bare 204 response.
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// WriteError translates an apperr.Error into the Response envelope and logs
// it. Any other error is folded into apperr.CodeInternal first.
func WriteError(w http.ResponseWriter, err error, logger *zap.Logger) {
	appErr, ok := err.(*apperr.Error)
	if !ok {
		appErr = apperr.New(apperr.CodeInternal, err.Error()).WithCause(err)
	}

	status := appErr.HTTPStatus
	if status == 0 {
		status = apperr.HTTPStatusOf(appErr.Code)
	}

	errorInfo := &ErrorInfo{
		Code:       string(appErr.Code),
		Message:    appErr.Message,
		Retryable:  appErr.Retryable,
		HTTPStatus: status,
	}

	if logger != nil {
		logger.Error("API error",
			zap.String("code", string(appErr.Code)),
			zap.String("message", appErr.Message),
			zap.Int("status", status),
			zap.Bool("retryable", appErr.Retryable),
			zap.String("provider", appErr.Provider),
			zap.Error(appErr.Cause),
		)
	}

	WriteJSON(w, status, Response{
		Success:   false,
		Error:     errorInfo,
		Timestamp: time.Now(),
	})
}

// WriteErrorMessage writes a simple error built from code and message.
func WriteErrorMessage(w http.ResponseWriter, status int, code apperr.Code, message string, logger *zap.Logger) {
	err := apperr.New(code, message).WithHTTPStatus(status)
	WriteError(w, err, logger)
}

// =============================================================================
// Request validation helpers
// =============================================================================

// DecodeJSONBody decodes a JSON request body into dst, rejecting bodies over
// 1 MB and any field dst doesn't declare.
func DecodeJSONBody(w http.ResponseWriter, r *http.Request, dst any, logger *zap.Logger) error {
	if r.Body == nil {
		err := apperr.New(apperr.CodeValidation, "request body is empty")
		WriteError(w, err, logger)
		return err
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		apiErr := apperr.New(apperr.CodeValidation, "invalid JSON body").
			WithCause(err).
			WithHTTPStatus(http.StatusBadRequest)
		WriteError(w, apiErr, logger)
		return apiErr
	}

	return nil
}

// ValidateContentType verifies the request's Content-Type is application/json,
// using mime.ParseMediaType so charset parameters and case variants
// ("application/json; charset=UTF-8") are accepted.
func ValidateContentType(w http.ResponseWriter, r *http.Request, logger *zap.Logger) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		apiErr := apperr.New(apperr.CodeValidation, "Content-Type must be application/json")
		WriteError(w, apiErr, logger)
		return false
	}
	return true
}

// ValidateURL validates that s is a well-formed HTTP or HTTPS URL.
func ValidateURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// ValidateEnum checks whether value is one of the allowed values.
func ValidateEnum(value string, allowed []string) bool {
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
}

// ValidateNonNegative checks that value is >= 0.
func ValidateNonNegative(value float64) bool {
	return value >= 0
}

// =============================================================================
// Response writer wrapper (captures status code for middleware)
// =============================================================================

// ResponseWriter wraps http.ResponseWriter to capture the status code
// written, for use by middleware that needs it after the handler returns.
type ResponseWriter struct {
	http.ResponseWriter
	StatusCode int
	Written    bool
}

// NewResponseWriter creates a new ResponseWriter defaulting to 200 OK.
func NewResponseWriter(w http.ResponseWriter) *ResponseWriter {
	return &ResponseWriter{
		ResponseWriter: w,
		StatusCode:     http.StatusOK,
	}
}

// WriteHeader captures the status code on the first call; later calls are
// ignored, matching net/http's own documented behavior.
func (rw *ResponseWriter) WriteHeader(code int) {
	if !rw.Written {
		rw.StatusCode = code
		rw.Written = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

// Write marks the writer as written, defaulting the status to 200 OK if
// WriteHeader was never called.
func (rw *ResponseWriter) Write(b []byte) (int, error) {
	if !rw.Written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}
