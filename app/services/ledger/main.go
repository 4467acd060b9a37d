package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/memledger/memledger/app/services/ledger/handlers"
	"github.com/memledger/memledger/foundation/events"
	"github.com/memledger/memledger/foundation/ledger/ledger"
	"github.com/memledger/memledger/foundation/ledger/pending"
	"github.com/memledger/memledger/foundation/ledger/worker"
	"github.com/memledger/memledger/foundation/logger"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags
// in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("LEDGER")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	cfg := struct {
		conf.Version
		Web struct {
			ReadTimeout     time.Duration `conf:"default:5s"`
			WriteTimeout    time.Duration `conf:"default:10s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
			PublicHost      string        `conf:"default:0.0.0.0:8080"`
			DebugHost       string        `conf:"default:0.0.0.0:7080"`
		}
		Ledger struct {
			Difficulty   uint          `conf:"default:4"`
			MinBatch     int           `conf:"default:3"`
			SealInterval time.Duration `conf:"default:30s"`
			SealTimeout  time.Duration `conf:"default:2m"`
			DenyList     []string      `conf:"default:system.delete;rm -rf;drop table;password;api_key;secret"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "copyright information here",
		},
	}

	const prefix = "LEDGER"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// =========================================================================
	// App Starting

	log.Infow("starting service", "version", build)
	defer log.Infow("shutdown complete")

	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	// =========================================================================
	// Ledger Support

	// Raw ledger events are sent to any websocket client connected
	// through the events package, and to the service logs.
	evts := events.New()
	defer evts.Shutdown()

	ev := func(v string, args ...any) {
		s := fmt.Sprintf(v, args...)
		log.Infow(s)
		evts.Publish(s)
	}

	policy := pending.DefaultPolicy()
	policy.DenySubstrings = cfg.Ledger.DenyList

	lgr, err := ledger.New(ledger.Config{
		Difficulty: cfg.Ledger.Difficulty,
		MinBatch:   cfg.Ledger.MinBatch,
		Policy:     &policy,
		EvHandler:  ev,
	})
	if err != nil {
		return fmt.Errorf("constructing ledger: %w", err)
	}
	defer lgr.Shutdown()

	// Start the background sealing worker. It registers itself with
	// the ledger.
	worker.Run(lgr, worker.Config{
		SealInterval: cfg.Ledger.SealInterval,
		SealTimeout:  cfg.Ledger.SealTimeout,
		EvHandler:    ev,
	})

	// =========================================================================
	// Service Start/Stop Support

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	// =========================================================================
	// Start Debug Service

	debugMux := handlers.DebugMux(log, lgr)

	go func() {
		log.Infow("startup", "status", "debug router started", "host", cfg.Web.DebugHost)
		if err := http.ListenAndServe(cfg.Web.DebugHost, debugMux); err != nil {
			log.Errorw("shutdown", "status", "debug router closed", "host", cfg.Web.DebugHost, "ERROR", err)
		}
	}()

	// =========================================================================
	// Start Public Service

	publicMux := handlers.PublicMux(handlers.MuxConfig{
		Shutdown: shutdown,
		Log:      log,
		Ledger:   lgr,
		Evts:     evts,
	})

	public := http.Server{
		Addr:         cfg.Web.PublicHost,
		Handler:      publicMux,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
	}

	go func() {
		log.Infow("startup", "status", "public router started", "host", public.Addr)
		serverErrors <- public.ListenAndServe()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		if err := public.Shutdown(ctx); err != nil {
			public.Close()
			return fmt.Errorf("could not stop public server gracefully: %w", err)
		}
	}

	return nil
}
