package worker

import (
	"context"
	"errors"

	"github.com/memledger/memledger/foundation/ledger/block"
	"github.com/memledger/memledger/foundation/ledger/ledger"
)

// sealingOperations handles sealing the pending pool into blocks.
func (w *Worker) sealingOperations() {
	w.evHandler("worker: sealingOperations: G started")
	defer w.evHandler("worker: sealingOperations: G completed")

	for {
		select {
		case <-w.startSealing:
			if !w.isShutdown() {
				w.runSealingOperation()
			}
		case <-w.ticker.C:
			if !w.isShutdown() {
				w.runSealingOperation()
			}
		case <-w.shut:
			w.evHandler("worker: sealingOperations: received shut signal")
			return
		}
	}
}

// runSealingOperation attempts one seal cycle against the ledger.
func (w *Worker) runSealingOperation() {
	w.evHandler("worker: runSealingOperation: SEALING: started")
	defer w.evHandler("worker: runSealingOperation: SEALING: completed")

	// After running a sealing operation, check if another full batch is
	// already waiting and signal again.
	defer func() {
		if count := w.ledger.PendingCount(); count >= w.ledger.MinBatch() {
			w.evHandler("worker: runSealingOperation: SEALING: signal new operation: pending[%d]", count)
			w.SignalStartSealing()
		}
	}()

	// Drain the cancel channel before starting.
	select {
	case <-w.cancelSeal:
		w.evHandler("worker: runSealingOperation: SEALING: drained cancel channel")
	default:
	}

	// Proof-of-work search time is unbounded by construction, so bound
	// the operation when a timeout is configured.
	ctx := context.Background()
	var cancel context.CancelFunc
	if w.sealTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, w.sealTimeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	// This G exists to cancel the mining operation on request.
	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-w.cancelSeal:
			w.evHandler("worker: runSealingOperation: SEALING: cancel requested")
			cancel()
		case <-w.shut:
			cancel()
		case <-done:
		}
	}()

	b, err := w.ledger.SealPending(ctx)
	switch {
	case errors.Is(err, ledger.ErrInsufficientPending):
		w.evHandler("worker: runSealingOperation: SEALING: nothing to seal")
	case errors.Is(err, block.ErrMiningCancelled):
		w.evHandler("worker: runSealingOperation: SEALING: cancelled")
	case err != nil:
		w.evHandler("worker: runSealingOperation: SEALING: ERROR: %s", err)
	default:
		w.evHandler("worker: runSealingOperation: SEALING: sealed blk[%d] hash[%s]", b.Index, b.Hash)
	}
}
