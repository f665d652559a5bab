package handler

import (
	"bufio"
	"net/http"
	"strconv"

	"github.com/spendwise/spendwise/internal/metrics"
)

// MetricsHandler serves the in-memory counters in the Prometheus text format.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

type sample struct {
	name, kind, help, value string
}

func (h *MetricsHandler) Metrics(w http.ResponseWriter, _ *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	snap := h.snapshotter.Snapshot()

	count := func(n uint64) string { return strconv.FormatUint(n, 10) }
	samples := []sample{
		{"spendwise_expenses_created_total", "counter", "Expenses created.", count(snap.ExpensesCreated)},
		{"spendwise_expenses_updated_total", "counter", "Expenses updated.", count(snap.ExpensesUpdated)},
		{"spendwise_expenses_deleted_total", "counter", "Expenses deleted.", count(snap.ExpensesDeleted)},
		{"spendwise_validation_failures_total", "counter", "Requests rejected by input validation.", count(snap.ValidationFailures)},
		{"spendwise_auth_cache_hits_total", "counter", "Principals served from the auth cache.", count(snap.AuthCacheHits)},
		{"spendwise_auth_cache_misses_total", "counter", "Principals verified without the auth cache.", count(snap.AuthCacheMisses)},
	}

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	out := bufio.NewWriter(w)
	for _, s := range samples {
		out.WriteString("# HELP " + s.name + " " + s.help + "\n")
		out.WriteString("# TYPE " + s.name + " " + s.kind + "\n")
		out.WriteString(s.name + " " + s.value + "\n")
	}

	const duration = "spendwise_http_request_duration_seconds"
	out.WriteString("# TYPE " + duration + " summary\n")
	out.WriteString(duration + "_count " + count(snap.RequestDurationCount) + "\n")
	out.WriteString(duration + "_sum " + strconv.FormatFloat(float64(snap.RequestDurationTotalNs)/1e9, 'f', 6, 64) + "\n")
	_ = out.Flush()
}
