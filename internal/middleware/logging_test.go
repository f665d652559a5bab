package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spendwise/spendwise/internal/metrics"
)

// logLine runs one request through Logger and returns the decoded record.
func logLine(t *testing.T, status int, req *http.Request) (map[string]any, string) {
	t.Helper()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	handler := Logger(logger, nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	raw := buf.String()
	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record), raw)
	return record, raw
}

func TestLogger_Fields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/expense", nil)
	req.Header.Set("User-Agent", "spendwise-cli/1.4")

	record, _ := logLine(t, http.StatusCreated, req)

	assert.Equal(t, "http request", record["msg"])
	assert.Equal(t, "POST", record["method"])
	assert.Equal(t, "/api/v1/expense", record["path"])
	assert.EqualValues(t, 201, record["status_code"])
	assert.Equal(t, "spendwise-cli/1.4", record["user_agent"])
	assert.Contains(t, record, "duration_ms")
}

func TestLogger_NeverLogsCredentials(t *testing.T) {
	secrets := []string{
		"sw_live_abc123_4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b",
		"sw_test_def456_0123456789abcdef0123456789abcdef",
		"eyJhbGciOiJIUzI1NiJ9.session.signature",
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/expense", nil)
	req.Header.Set("Authorization", "Bearer "+secrets[0])
	req.Header.Set("X-API-Key", secrets[1])
	req.AddCookie(&http.Cookie{Name: DefaultSessionCookie, Value: secrets[2]})

	_, raw := logLine(t, http.StatusOK, req)

	for _, secret := range secrets {
		assert.NotContains(t, raw, secret)
	}
	assert.NotContains(t, raw, "Bearer")
	assert.NotContains(t, raw, "sw_live_")
}

func TestLogger_LevelFollowsStatus(t *testing.T) {
	levels := map[int]string{
		http.StatusOK:                  "INFO",
		http.StatusNoContent:           "INFO",
		http.StatusBadRequest:          "WARN",
		http.StatusNotFound:            "WARN",
		http.StatusTooManyRequests:     "WARN",
		http.StatusInternalServerError: "ERROR",
		http.StatusServiceUnavailable:  "ERROR",
	}

	for status, want := range levels {
		t.Run(http.StatusText(status), func(t *testing.T) {
			record, _ := logLine(t, status, httptest.NewRequest(http.MethodGet, "/api/v1/expense/abc", nil))
			assert.Equal(t, want, record["level"])
		})
	}
}

func TestLogger_RequestIDAndDuration(t *testing.T) {
	var buf bytes.Buffer
	recorder := metrics.NewInMemory()
	handler := RequestID(Logger(slog.New(slog.NewJSONHandler(&buf, nil)), recorder)(okHandler()))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "req-abc-123")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Contains(t, buf.String(), `"request_id":"req-abc-123"`)
	assert.EqualValues(t, 2, recorder.Snapshot().RequestDurationCount)
}

func TestResponseWriter(t *testing.T) {
	t.Run("implicit ok on write", func(t *testing.T) {
		rw := wrapResponseWriter(httptest.NewRecorder())
		_, err := rw.Write([]byte("[]"))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rw.code())
		assert.Equal(t, 2, rw.bytes)
	})

	t.Run("nothing written counts as ok", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, wrapResponseWriter(httptest.NewRecorder()).code())
	})

	t.Run("first status wins", func(t *testing.T) {
		rec := httptest.NewRecorder()
		rw := wrapResponseWriter(rec)
		rw.WriteHeader(http.StatusCreated)
		rw.WriteHeader(http.StatusInternalServerError)

		assert.Equal(t, http.StatusCreated, rw.status)
		assert.Equal(t, http.StatusCreated, rec.Code)
	})
}
