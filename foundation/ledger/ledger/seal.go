package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/memledger/memledger/foundation/ledger/block"
	"github.com/memledger/memledger/foundation/ledger/pending"
	"github.com/memledger/memledger/foundation/ledger/signature"
)

// ErrInsufficientPending is returned when a seal is requested and the
// pool holds fewer entries than the minimum batch. It is a normal
// "nothing to do" outcome, not a failure.
var ErrInsufficientPending = errors.New("not enough pending entries to seal")

// =============================================================================

// SealPending drives one block-append cycle: drain the pool, aggregate,
// mine, sign, validate, append. Seal cycles are serialized so the
// candidate's parent link stays pinned to the tail observed at
// aggregation time. Entry buffering may continue concurrently.
//
// Once the pool is drained the entries are not restored on failure. The
// trade-off is documented: aggregation failures are expected to be rare
// and the entries are side-effect-light.
func (l *Ledger) SealPending(ctx context.Context) (block.Block, error) {
	l.sealMu.Lock()
	defer l.sealMu.Unlock()

	entries, ok := l.pool.Drain(l.minBatch)
	if !ok {
		return block.Block{}, ErrInsufficientPending
	}

	l.evHandler("ledger: SealPending: AGGREGATING: entries[%d]", len(entries))
	data := pending.Aggregate(entries)

	nb := block.New(l.RetrieveLatestBlock(), data)

	l.evHandler("ledger: SealPending: MINING: blk[%d] difficulty[%d]", nb.Index, l.difficulty)
	if err := nb.Mine(ctx, l.difficulty); err != nil {
		return block.Block{}, err
	}

	// Signing must happen after mining so the signature covers the
	// final sealed hash.
	l.evHandler("ledger: SealPending: SIGNING: blk[%d] hash[%s]", nb.Index, nb.Hash)
	sig, err := l.signer.Sign(nb.Hash)
	if err != nil {
		return block.Block{}, err
	}
	nb.Signature = sig

	l.evHandler("ledger: SealPending: VALIDATING: blk[%d]", nb.Index)
	if err := l.appendBlock(nb); err != nil {
		l.evHandler("ledger: SealPending: DISCARDED: blk[%d]: %s", nb.Index, err)
		return block.Block{}, err
	}

	l.evHandler("ledger: SealPending: APPENDED: blk[%d] hash[%s]", nb.Index, nb.Hash)

	return nb, nil
}

// ValidateBlock re-checks a block's hash integrity, signature, and chain
// linkage against the block at index-1. A nil error means the block is
// valid. It never panics on malformed input.
func (l *Ledger) ValidateBlock(b block.Block) error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.validateBlock(b)
}

// =============================================================================

// appendBlock performs the final validation against the current tail and
// appends the block, updating both indices. Guards against a tail that
// moved while the candidate was being mined.
func (l *Ledger) appendBlock(b block.Block) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	prev := l.chain[len(l.chain)-1]

	if err := b.Validate(prev); err != nil {
		return err
	}

	if !block.HashSolved(l.difficulty, b.Hash) {
		return fmt.Errorf("block %d hash is not solved for difficulty %d", b.Index, l.difficulty)
	}

	if !l.verifySignature(b.Hash, b.Signature) {
		return fmt.Errorf("block %d signature does not verify", b.Index)
	}

	l.chain = append(l.chain, b)
	l.indexBlock(b)

	return nil
}

// validateBlock checks one block against its stored parent. The caller
// must hold at least a read lock.
func (l *Ledger) validateBlock(b block.Block) error {
	if b.Index == 0 {
		if b.Hash != b.ComputeHash() {
			return fmt.Errorf("genesis hash does not match recomputation")
		}
		if b.PrevBlockHash != signature.ZeroHash {
			return fmt.Errorf("genesis previous hash is not the zero sentinel")
		}
		return nil
	}

	if b.Index >= uint64(len(l.chain)) {
		return fmt.Errorf("block %d has no parent in the chain", b.Index)
	}

	if err := b.Validate(l.chain[b.Index-1]); err != nil {
		return err
	}

	if !l.verifySignature(b.Hash, b.Signature) {
		return fmt.Errorf("block %d signature does not verify", b.Index)
	}

	return nil
}

// indexBlock maintains the derived lookup structures. The chain remains
// the source of truth, both indices can be rebuilt from it.
func (l *Ledger) indexBlock(b block.Block) {
	l.temporalIndex[b.TimeStamp] = b.Index

	if len(b.Data.ClusterEmbedding) > 0 {
		l.embeddingIndex[signature.Hash(b.Data.ClusterEmbedding)] = b.Index
	}
}
