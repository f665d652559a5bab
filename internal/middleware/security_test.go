package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveSecurity(cfg SecurityConfig) http.Header {
	rec := httptest.NewRecorder()
	Security(cfg)(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/expense", nil))
	return rec.Header()
}

func TestSecurity_Production(t *testing.T) {
	header := serveSecurity(SecurityConfig{})

	want := map[string]string{
		"X-Content-Type-Options":       "nosniff",
		"X-Frame-Options":              "DENY",
		"X-XSS-Protection":             "0",
		"Referrer-Policy":              "strict-origin-when-cross-origin",
		"Content-Security-Policy":      "default-src 'none'; frame-ancestors 'none'",
		"Cross-Origin-Opener-Policy":   "same-origin",
		"Cross-Origin-Resource-Policy": "same-origin",
		"Strict-Transport-Security":    "max-age=31536000; includeSubDomains; preload",
		"Cache-Control":                "no-store",
	}
	for name, value := range want {
		assert.Equal(t, value, header.Get(name), name)
	}
	assert.Contains(t, header.Get("Permissions-Policy"), "camera=()")
}

func TestSecurity_DevelopmentSkipsHSTS(t *testing.T) {
	header := serveSecurity(SecurityConfig{IsDevelopment: true})

	assert.Empty(t, header.Get("Strict-Transport-Security"))
	assert.Equal(t, "nosniff", header.Get("X-Content-Type-Options"))
}

func TestMaxBodySize(t *testing.T) {
	testCases := []struct {
		name          string
		maxBytes      int64
		contentLength int64
		body          string
		wantStatus    int
	}{
		{"under limit", 1024, 10, "small body", http.StatusOK},
		{"declared length over limit", 10, 100, strings.Repeat("x", 100), http.StatusRequestEntityTooLarge},
		{"streamed body over limit", 10, -1, strings.Repeat("x", 100), http.StatusRequestEntityTooLarge},
		{"zero limit uses default", 0, 2048, strings.Repeat("x", 2048), http.StatusOK},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			handler := MaxBodySize(tc.maxBytes)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var tooLarge *http.MaxBytesError
				if _, err := io.Copy(io.Discard, r.Body); err != nil {
					require.ErrorAs(t, err, &tooLarge)
					w.WriteHeader(http.StatusRequestEntityTooLarge)
					return
				}
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			req.ContentLength = tc.contentLength
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)
		})
	}
}

func TestMaxBodySize_RejectsDeclaredLengthUpFront(t *testing.T) {
	called := false
	handler := MaxBodySize(8)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"too long"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.False(t, called)

	var body errorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, errorBody{Error: "Request body too large", Code: "PAYLOAD_TOO_LARGE"}, body)
}
