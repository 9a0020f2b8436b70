package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/arguslm/arguslm/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// =============================================================================
// common.go tests
// =============================================================================

func TestWriteJSON(t *testing.T) {
	tests := []struct {
		name       string
		data       any
		wantStatus int
	}{
		{
			name:       "simple object",
			data:       map[string]string{"message": "hello"},
			wantStatus: http.StatusOK,
		},
		{
			name:       "array",
			data:       []int{1, 2, 3},
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteJSON(w, tt.wantStatus, tt.data)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
			assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
		})
	}
}

func TestWriteSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	data := map[string]string{"key": "value"}

	WriteSuccess(w, data)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp Response
	err := json.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.NotNil(t, resp.Data)
	assert.Nil(t, resp.Error)
	assert.False(t, resp.Timestamp.IsZero())
}

func TestWriteCreated(t *testing.T) {
	w := httptest.NewRecorder()
	WriteCreated(w, map[string]string{"id": "abc"})

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.True(t, resp.Success)
}

func TestWriteNoContent(t *testing.T) {
	w := httptest.NewRecorder()
	WriteNoContent(w)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestWriteError(t *testing.T) {
	logger := zap.NewNop()

	tests := []struct {
		name           string
		err            *apperr.Error
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "validation error",
			err:            apperr.New(apperr.CodeValidation, "model is required"),
			expectedStatus: http.StatusUnprocessableEntity,
			expectedCode:   string(apperr.CodeValidation),
		},
		{
			name:           "not found",
			err:            apperr.New(apperr.CodeNotFound, "model not found"),
			expectedStatus: http.StatusNotFound,
			expectedCode:   string(apperr.CodeNotFound),
		},
		{
			name:           "rate limited",
			err:            apperr.New(apperr.CodeRateLimited, "too many requests"),
			expectedStatus: http.StatusTooManyRequests,
			expectedCode:   string(apperr.CodeRateLimited),
		},
		{
			name:           "internal error",
			err:            apperr.New(apperr.CodeInternal, "database connection failed"),
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   string(apperr.CodeInternal),
		},
		{
			name:           "conflict",
			err:            apperr.New(apperr.CodeConflict, "provider has benchmark history"),
			expectedStatus: http.StatusConflict,
			expectedCode:   string(apperr.CodeConflict),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, tt.err, logger)

			assert.Equal(t, tt.expectedStatus, w.Code)

			var resp Response
			err := json.NewDecoder(w.Body).Decode(&resp)
			require.NoError(t, err)

			assert.False(t, resp.Success)
			assert.Nil(t, resp.Data)
			assert.NotNil(t, resp.Error)
			assert.Equal(t, tt.expectedCode, resp.Error.Code)
			assert.NotEmpty(t, resp.Error.Message)
		})
	}
}

func TestWriteError_NonAppError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, assertionError("boom"), zap.NewNop())

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var resp Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, string(apperr.CodeInternal), resp.Error.Code)
}

type assertionError string

func (e assertionError) Error() string { return string(e) }

func TestDecodeJSONBody(t *testing.T) {
	logger := zap.NewNop()

	type TestStruct struct {
		Name  string `json:"name"`
		Value int    `json:"value"`
	}

	tests := []struct {
		name      string
		body      string
		wantErr   bool
		checkFunc func(*testing.T, *TestStruct)
	}{
		{
			name: "valid JSON",
			body: `{"name":"test","value":123}`,
			checkFunc: func(t *testing.T, ts *TestStruct) {
				assert.Equal(t, "test", ts.Name)
				assert.Equal(t, 123, ts.Value)
			},
		},
		{
			name:    "invalid JSON",
			body:    `{"name":"test",}`,
			wantErr: true,
		},
		{
			name:    "unknown field",
			body:    `{"name":"test","unknown":"field"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/test", bytes.NewBufferString(tt.body))

			var result TestStruct
			err := DecodeJSONBody(w, r, &result, logger)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				if tt.checkFunc != nil {
					tt.checkFunc(t, &result)
				}
			}
		})
	}
}

func TestValidateContentType(t *testing.T) {
	logger := zap.NewNop()

	tests := []struct {
		name        string
		contentType string
		want        bool
	}{
		{
			name:        "valid application/json",
			contentType: "application/json",
			want:        true,
		},
		{
			name:        "valid with charset",
			contentType: "application/json; charset=utf-8",
			want:        true,
		},
		{
			name:        "valid with uppercase charset",
			contentType: "application/json; charset=UTF-8",
			want:        true,
		},
		{
			name:        "valid with extra whitespace",
			contentType: "application/json;  charset=utf-8",
			want:        true,
		},
		{
			name:        "invalid text/plain",
			contentType: "text/plain",
			want:        false,
		},
		{
			name:        "empty",
			contentType: "",
			want:        false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/test", nil)
			r.Header.Set("Content-Type", tt.contentType)

			result := ValidateContentType(w, r, logger)
			assert.Equal(t, tt.want, result)
		})
	}
}

func TestValidateURL(t *testing.T) {
	assert.True(t, ValidateURL("https://api.example.com"))
	assert.True(t, ValidateURL("http://localhost:11434"))
	assert.False(t, ValidateURL("not-a-url"))
	assert.False(t, ValidateURL("ftp://example.com"))
	assert.False(t, ValidateURL(""))
}

func TestValidateEnum(t *testing.T) {
	allowed := []string{"json", "csv"}
	assert.True(t, ValidateEnum("json", allowed))
	assert.False(t, ValidateEnum("xml", allowed))
}

func TestValidateNonNegative(t *testing.T) {
	assert.True(t, ValidateNonNegative(0))
	assert.True(t, ValidateNonNegative(1.5))
	assert.False(t, ValidateNonNegative(-0.1))
}

func TestResponseWriter(t *testing.T) {
	w := httptest.NewRecorder()
	rw := NewResponseWriter(w)

	assert.Equal(t, http.StatusOK, rw.StatusCode)
	assert.False(t, rw.Written)

	rw.WriteHeader(http.StatusCreated)
	assert.Equal(t, http.StatusCreated, rw.StatusCode)
	assert.True(t, rw.Written)

	// Writing a second header is a no-op, matching net/http semantics.
	rw.WriteHeader(http.StatusBadRequest)
	assert.Equal(t, http.StatusCreated, rw.StatusCode)

	n, err := rw.Write([]byte("test"))
	assert.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestDecodeJSONBody_MaxBodySize(t *testing.T) {
	logger := zap.NewNop()

	type TestStruct struct {
		Name string `json:"name"`
	}

	// Create a body that exceeds 1 MB
	oversized := `{"name":"` + strings.Repeat("x", 2<<20) + `"}`

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(oversized))

	var result TestStruct
	err := DecodeJSONBody(w, r, &result, logger)

	assert.Error(t, err, "body exceeding 1 MB should be rejected")
}

func TestDecodeJSONBody_WithinLimit(t *testing.T) {
	logger := zap.NewNop()

	type TestStruct struct {
		Name string `json:"name"`
	}

	body := `{"name":"small"}`
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))

	var result TestStruct
	err := DecodeJSONBody(w, r, &result, logger)

	assert.NoError(t, err)
	assert.Equal(t, "small", result.Name)
}
