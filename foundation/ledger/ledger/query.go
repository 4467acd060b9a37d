package ledger

import (
	"github.com/memledger/memledger/foundation/ledger/block"
	"github.com/memledger/memledger/foundation/ledger/embedding"
	"github.com/memledger/memledger/foundation/ledger/signature"
)

// DefaultSearchThreshold is the similarity cutoff used when a caller
// does not specify one.
const DefaultSearchThreshold = 0.7

// Stats represents a point-in-time summary of the ledger.
type Stats struct {
	TotalBlocks       int            `json:"total_blocks"`
	PendingEntries    int            `json:"pending_entries"`
	ChainIntegrity    float64        `json:"chain_integrity"`
	AverageConfidence float64        `json:"average_confidence"`
	TypeDistribution  map[string]int `json:"type_distribution"`
	EarliestTimeStamp float64        `json:"earliest_timestamp"`
	LatestTimeStamp   float64        `json:"latest_timestamp"`
	SpanDays          float64        `json:"span_days"`
}

// =============================================================================

// RetrieveLatestBlock returns a copy of the current tail of the chain.
func (l *Ledger) RetrieveLatestBlock() block.Block {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.chain[len(l.chain)-1]
}

// RetrieveChain returns a copy of the full chain.
func (l *Ledger) RetrieveChain() []block.Block {
	l.mu.RLock()
	defer l.mu.RUnlock()

	chain := make([]block.Block, len(l.chain))
	copy(chain, l.chain)

	return chain
}

// Search embeds the query text and scans the chain most-recent-first,
// returning blocks whose cluster embedding similarity meets the
// threshold. Genesis and non-aggregated blocks are skipped since they
// carry no embedding.
func (l *Ledger) Search(query string, threshold float64) []block.Block {
	queryEmbedding := embedding.Generate(query)

	l.mu.RLock()
	defer l.mu.RUnlock()

	var matches []block.Block
	for i := len(l.chain) - 1; i >= 0; i-- {
		b := l.chain[i]
		if len(b.Data.ClusterEmbedding) == 0 {
			continue
		}

		if embedding.Cosine(queryEmbedding, b.Data.ClusterEmbedding) >= threshold {
			matches = append(matches, b)
		}
	}

	return matches
}

// BlockByTimeStamp returns the block sealed at exactly the specified
// timestamp using the temporal index.
func (l *Ledger) BlockByTimeStamp(ts float64) (block.Block, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	index, exists := l.temporalIndex[ts]
	if !exists {
		return block.Block{}, false
	}

	return l.chain[index], true
}

// BlockByEmbedding returns the block whose cluster embedding exactly
// matches the vector, using the embedding index.
func (l *Ledger) BlockByEmbedding(vector []float64) (block.Block, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	index, exists := l.embeddingIndex[signature.Hash(vector)]
	if !exists {
		return block.Block{}, false
	}

	return l.chain[index], true
}

// ChainIntegrity returns the fraction of non-genesis blocks that
// independently pass validation. A genesis-only chain scores 1.0.
func (l *Ledger) ChainIntegrity() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.chainIntegrity()
}

// Statistics returns a summary of the chain and the pending pool.
func (l *Ledger) Statistics() Stats {
	pendingCount := l.pool.Count()

	l.mu.RLock()
	defer l.mu.RUnlock()

	types := make(map[string]int)
	var confidenceSum float64
	earliest := l.chain[0].TimeStamp
	latest := l.chain[0].TimeStamp

	for _, b := range l.chain {
		types[b.Data.Type]++
		confidenceSum += b.Confidence

		if b.TimeStamp < earliest {
			earliest = b.TimeStamp
		}
		if b.TimeStamp > latest {
			latest = b.TimeStamp
		}
	}

	return Stats{
		TotalBlocks:       len(l.chain),
		PendingEntries:    pendingCount,
		ChainIntegrity:    l.chainIntegrity(),
		AverageConfidence: confidenceSum / float64(len(l.chain)),
		TypeDistribution:  types,
		EarliestTimeStamp: earliest,
		LatestTimeStamp:   latest,
		SpanDays:          (latest - earliest) / (24 * 3600),
	}
}

// =============================================================================

// chainIntegrity expects the caller to hold at least a read lock.
func (l *Ledger) chainIntegrity() float64 {
	if len(l.chain) <= 1 {
		return 1.0
	}

	var valid int
	for _, b := range l.chain[1:] {
		if err := l.validateBlock(b); err == nil {
			valid++
		}
	}

	return float64(valid) / float64(len(l.chain)-1)
}
