// Package handlers manages the different versions of the API.
package handlers

import (
	"context"
	"net/http"
	"net/http/pprof"
	"os"

	v1 "github.com/memledger/memledger/app/services/ledger/handlers/v1"
	"github.com/memledger/memledger/business/web/v1/mid"
	"github.com/memledger/memledger/foundation/events"
	"github.com/memledger/memledger/foundation/ledger/ledger"
	"github.com/memledger/memledger/foundation/web"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// MuxConfig contains all the mandatory systems required by handlers.
type MuxConfig struct {
	Shutdown chan os.Signal
	Log      *zap.SugaredLogger
	Ledger   *ledger.Ledger
	Evts     *events.Events
}

// PublicMux constructs a http.Handler with all application routes defined.
func PublicMux(cfg MuxConfig) http.Handler {

	// Construct the web.App which holds all routes as well as common
	// Middleware.
	app := web.NewApp(
		cfg.Shutdown,
		mid.Logger(cfg.Log),
		mid.Errors(cfg.Log),
		mid.Metrics(),
		mid.Cors("*"),
		mid.Panics(),
	)

	// Accept CORS 'OPTIONS' preflight requests.
	h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return nil
	}
	app.Handle(http.MethodOptions, "", "/*path", h, mid.Cors("*"))

	// Load the v1 routes.
	v1.Routes(app, v1.Config{
		Log:    cfg.Log,
		Ledger: cfg.Ledger,
		Evts:   cfg.Evts,
	})

	return app
}

// DebugMux registers all the debug routes from the standard library into
// a new mux bypassing the use of the DefaultServerMux, plus the
// prometheus metrics endpoint.
func DebugMux(log *zap.SugaredLogger, l *ledger.Ledger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/debug/readiness", func(w http.ResponseWriter, r *http.Request) {
		status := "ok"
		statusCode := http.StatusOK
		if l.ChainIntegrity() < 1.0 {
			status = "chain integrity degraded"
			statusCode = http.StatusInternalServerError
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		if _, err := w.Write([]byte(`{"status":"` + status + `"}`)); err != nil {
			log.Errorw("readiness", "ERROR", err)
		}
	})

	return mux
}
