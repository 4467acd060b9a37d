package mid

import (
	"context"
	"net/http"
	"time"

	"github.com/memledger/memledger/foundation/web"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics holds the set of counters maintained across requests. A single
// collector set is registered for the process.
var metrics = struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	panics   prometheus.Counter
}{
	requests: promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledger",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests processed, by method and path.",
	}, []string{"method", "path"}),
	latency: promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ledger",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latencies.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path"}),
	panics: promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ledger",
		Name:      "panics_total",
		Help:      "Total panics recovered by the middleware.",
	}),
}

// Metrics updates the request counters and latency histogram for every
// request passing through the mux.
func Metrics() web.Middleware {

	m := func(handler web.Handler) web.Handler {

		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			v, err := web.GetValues(ctx)
			if err != nil {
				return web.NewShutdownError("web value missing from context")
			}

			err = handler(ctx, w, r)

			metrics.requests.WithLabelValues(r.Method, r.URL.Path).Inc()
			metrics.latency.WithLabelValues(r.Method, r.URL.Path).Observe(time.Since(v.Now).Seconds())

			return err
		}

		return h
	}

	return m
}
