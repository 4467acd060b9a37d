// Package ledger is the core API for the memory chain and implements all
// the business rules and processing.
package ledger

import (
	"crypto/rsa"
	"sync"

	"github.com/memledger/memledger/foundation/ledger/block"
	"github.com/memledger/memledger/foundation/ledger/pending"
	"github.com/memledger/memledger/foundation/ledger/signature"
)

// Defaults applied by New when the config leaves them zero.
const (
	DefaultDifficulty = 4
	DefaultMinBatch   = 3
)

// =============================================================================

// EventHandler defines a function that is called when events occur in the
// processing of sealing blocks.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by
// any package providing support for background sealing.
type Worker interface {
	Shutdown()
	SignalStartSealing()
	SignalCancelSealing()
}

// =============================================================================

// Config represents the configuration required to start the ledger.
type Config struct {
	Difficulty uint
	MinBatch   int
	Policy     *pending.Policy
	EvHandler  EventHandler
}

// Ledger manages the append-only memory chain, the pending pool, the key
// pair, and the lookup indices.
type Ledger struct {
	difficulty uint
	minBatch   int
	evHandler  EventHandler

	signer      *signature.Signer
	trustedKeys []*rsa.PublicKey
	pool        *pending.Pool

	mu             sync.RWMutex
	chain          []block.Block
	temporalIndex  map[float64]uint64
	embeddingIndex map[string]uint64

	// Serializes seal cycles so an in-flight candidate's parent link
	// cannot be invalidated by another append.
	sealMu sync.Mutex

	Worker Worker
}

// New constructs a ledger with a fresh key pair and a genesis block.
func New(cfg Config) (*Ledger, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	difficulty := cfg.Difficulty
	if difficulty == 0 {
		difficulty = DefaultDifficulty
	}

	minBatch := cfg.MinBatch
	if minBatch == 0 {
		minBatch = DefaultMinBatch
	}

	signer, err := signature.New()
	if err != nil {
		return nil, err
	}

	pool := pending.New()
	if cfg.Policy != nil {
		pool = pending.NewWithPolicy(*cfg.Policy)
	}

	genesis := block.Genesis()

	l := Ledger{
		difficulty: difficulty,
		minBatch:   minBatch,
		evHandler:  ev,

		signer: signer,
		pool:   pool,

		chain:          []block.Block{genesis},
		temporalIndex:  map[float64]uint64{genesis.TimeStamp: 0},
		embeddingIndex: make(map[string]uint64),
	}

	// The Worker is not set here. The call to worker.Run will assign
	// itself and start the background sealing support.

	return &l, nil
}

// Shutdown cleanly brings the ledger down.
func (l *Ledger) Shutdown() {
	if l.Worker != nil {
		l.Worker.Shutdown()
	}
}

// AddEntry validates the record and buffers it in the pending pool along
// with its embedding. When the pool reaches a full batch the sealing
// worker is signaled.
func (l *Ledger) AddEntry(rec block.Record, confidence float64, auxTags map[string]float64) error {
	if err := l.pool.Add(rec, confidence, auxTags); err != nil {
		l.evHandler("ledger: AddEntry: rejected: %s", err)
		return err
	}

	l.evHandler("ledger: AddEntry: buffered: type[%s] pending[%d]", rec.Type, l.pool.Count())

	if l.Worker != nil && l.pool.Count() >= l.minBatch {
		l.Worker.SignalStartSealing()
	}

	return nil
}

// PendingCount returns the number of entries waiting to be sealed.
func (l *Ledger) PendingCount() int {
	return l.pool.Count()
}

// MinBatch returns the minimum number of entries required for a seal.
func (l *Ledger) MinBatch() int {
	return l.minBatch
}

// verifySignature checks the signature against the ledger's own key and
// then any keys trusted through a restore.
func (l *Ledger) verifySignature(hash string, sig string) bool {
	if l.signer.Verify(hash, sig) {
		return true
	}

	for _, key := range l.trustedKeys {
		if signature.VerifyWithKey(key, hash, sig) {
			return true
		}
	}

	return false
}
