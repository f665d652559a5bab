package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPinger struct {
	err   error
	delay time.Duration
}

func (p *stubPinger) Ping(ctx context.Context) error {
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return p.err
}

func serveHealth(t *testing.T, serve http.HandlerFunc, path string) (int, HealthResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	serve(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return rec.Code, body
}

func TestHealthHandler_Healthz(t *testing.T) {
	// Liveness never touches dependencies.
	h := NewHealthHandler(&stubPinger{err: errors.New("down")}, nil)

	status, body := serveHealth(t, h.Healthz, "/healthz")

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, HealthResponse{Status: "ok"}, body)
}

func TestHealthHandler_Readyz(t *testing.T) {
	testCases := []struct {
		name       string
		db         HealthChecker
		cache      HealthChecker
		wantStatus int
		want       HealthResponse
	}{
		{
			name:       "all healthy",
			db:         &stubPinger{},
			cache:      &stubPinger{},
			wantStatus: http.StatusOK,
			want:       HealthResponse{Status: "ok", Checks: map[string]string{"postgres": "ok", "redis": "ok"}},
		},
		{
			name:       "database down",
			db:         &stubPinger{err: errors.New("connection refused")},
			cache:      &stubPinger{},
			wantStatus: http.StatusServiceUnavailable,
			want: HealthResponse{Status: "unhealthy", Checks: map[string]string{
				"postgres": "error: connection refused",
				"redis":    "ok",
			}},
		},
		{
			name:       "both down report separately",
			db:         &stubPinger{err: errors.New("connection refused")},
			cache:      &stubPinger{err: errors.New("i/o timeout")},
			wantStatus: http.StatusServiceUnavailable,
			want: HealthResponse{Status: "unhealthy", Checks: map[string]string{
				"postgres": "error: connection refused",
				"redis":    "error: i/o timeout",
			}},
		},
		{
			name:       "nothing configured",
			wantStatus: http.StatusOK,
			want: HealthResponse{Status: "ok", Checks: map[string]string{
				"postgres": "not configured",
				"redis":    "not configured",
			}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHealthHandler(tc.db, tc.cache)

			status, body := serveHealth(t, h.Readyz, "/readyz")

			assert.Equal(t, tc.wantStatus, status)
			assert.Equal(t, tc.want, body)
		})
	}
}

func TestHealthHandler_Readyz_ChecksRunConcurrently(t *testing.T) {
	h := NewHealthHandler(&stubPinger{delay: 200 * time.Millisecond}, &stubPinger{delay: 200 * time.Millisecond})

	start := time.Now()
	status, _ := serveHealth(t, h.Readyz, "/readyz")

	assert.Equal(t, http.StatusOK, status)
	assert.Less(t, time.Since(start), 380*time.Millisecond)
}
