package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/arguslm/arguslm/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestSecurityHeaders(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	handler := SecurityHeaders()(inner)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "strict-origin-when-cross-origin", w.Header().Get("Referrer-Policy"))
	assert.Equal(t, "default-src 'self'", w.Header().Get("Content-Security-Policy"))
}

func TestSecurityHeaders_ChainedWithOtherMiddleware(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	handler := Chain(inner, SecurityHeaders(), RequestID())

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/test", nil)
	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRequestID_PreservesIncoming(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "req-fixed", RequestIDFromContext(r.Context()))
		w.WriteHeader(http.StatusOK)
	})

	handler := RequestID()(inner)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Request-ID", "req-fixed")
	handler.ServeHTTP(w, r)

	assert.Equal(t, "req-fixed", w.Header().Get("X-Request-ID"))
}

func TestCORS_EmptyAllowListRejectsCrossOrigin(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	handler := CORS(nil)(inner)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodOptions, "/", nil)
	r.Header.Set("Origin", "https://evil.example")
	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_AllowedOriginSetsHeaders(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	handler := CORS([]string{"https://ok.example"})(inner)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Origin", "https://ok.example")
	handler.ServeHTTP(w, r)

	assert.Equal(t, "https://ok.example", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestSessionAuth_MissingHeaderRejected(t *testing.T) {
	logger := zap.NewNop()
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	handler := SessionAuth(config.AuthConfig{SecretKey: "s3cr3t-test-key"}, nil, logger)(inner)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/v1/providers", nil)
	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionAuth_SkipsExemptPaths(t *testing.T) {
	logger := zap.NewNop()
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	handler := SessionAuth(config.AuthConfig{SecretKey: "s3cr3t-test-key"}, []string{"/health"}, logger)(inner)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/health", nil)
	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSessionAuth_ValidTokenAccepted(t *testing.T) {
	logger := zap.NewNop()
	secret := "s3cr3t-test-key"

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "operator",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	assert.NoError(t, err)

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := SessionAuth(config.AuthConfig{SecretKey: secret}, nil, logger)(inner)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/v1/providers", nil)
	r.Header.Set("Authorization", "Bearer "+signed)
	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSessionAuth_ExpiredTokenRejected(t *testing.T) {
	logger := zap.NewNop()
	secret := "s3cr3t-test-key"

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "operator",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	assert.NoError(t, err)

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := SessionAuth(config.AuthConfig{SecretKey: secret}, nil, logger)(inner)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/v1/providers", nil)
	r.Header.Set("Authorization", "Bearer "+signed)
	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestNormalizePath(t *testing.T) {
	assert.Equal(t, "/health", normalizePath("/health"))
	assert.Equal(t, "/api/v1/providers/:id", normalizePath("/api/v1/providers/3fa85f64-5717-4562-b3fc-2c963f66afa6"))
	assert.Equal(t, "/api/v1/benchmarks/:id/results", normalizePath("/api/v1/benchmarks/3fa85f64-5717-4562-b3fc-2c963f66afa6/results"))
}
