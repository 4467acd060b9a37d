// Package worker implements the background sealing support for the
// memory ledger.
package worker

import (
	"sync"
	"time"

	"github.com/memledger/memledger/foundation/ledger/ledger"
)

// defaultSealInterval drives periodic seal attempts so a full pool is
// never left waiting on the next entry.
const defaultSealInterval = 30 * time.Second

// Config holds the tuning for the sealing worker.
type Config struct {
	SealInterval time.Duration
	SealTimeout  time.Duration
	EvHandler    ledger.EventHandler
}

// Worker manages the sealing workflow for the ledger.
type Worker struct {
	ledger       *ledger.Ledger
	wg           sync.WaitGroup
	ticker       *time.Ticker
	shut         chan struct{}
	startSealing chan bool
	cancelSeal   chan bool
	sealTimeout  time.Duration
	evHandler    ledger.EventHandler
}

// Run creates a worker, registers it with the ledger, and starts the
// background sealing goroutine.
func Run(l *ledger.Ledger, cfg Config) *Worker {
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	interval := cfg.SealInterval
	if interval == 0 {
		interval = defaultSealInterval
	}

	w := Worker{
		ledger:       l,
		ticker:       time.NewTicker(interval),
		shut:         make(chan struct{}),
		startSealing: make(chan bool, 1),
		cancelSeal:   make(chan bool, 1),
		sealTimeout:  cfg.SealTimeout,
		evHandler:    ev,
	}

	// Register this worker with the ledger.
	l.Worker = &w

	w.wg.Add(1)

	// We don't want to return until we know the G is up and running.
	hasStarted := make(chan bool)

	go func() {
		defer w.wg.Done()
		hasStarted <- true
		w.sealingOperations()
	}()

	<-hasStarted

	return &w
}

// =============================================================================
// These methods implement the ledger.Worker interface.

// Shutdown terminates the goroutine performing work.
func (w *Worker) Shutdown() {
	w.evHandler("worker: shutdown: started")
	defer w.evHandler("worker: shutdown: completed")

	w.ticker.Stop()
	w.SignalCancelSealing()

	close(w.shut)
	w.wg.Wait()
}

// SignalStartSealing starts a sealing operation. If there is already a
// signal pending in the channel, just return since an operation will run.
func (w *Worker) SignalStartSealing() {
	select {
	case w.startSealing <- true:
	default:
	}
	w.evHandler("worker: SignalStartSealing: sealing signaled")
}

// SignalCancelSealing signals the G executing the runSealingOperation
// function to stop the in-flight mining.
func (w *Worker) SignalCancelSealing() {
	select {
	case w.cancelSeal <- true:
	default:
	}
	w.evHandler("worker: SignalCancelSealing: cancel signaled")
}

// =============================================================================

// isShutdown is used to test if a shutdown has been signaled.
func (w *Worker) isShutdown() bool {
	select {
	case <-w.shut:
		return true
	default:
		return false
	}
}
