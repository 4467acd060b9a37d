// Package pending maintains the pool of memories waiting to be sealed
// into the next block and the consensus aggregation over them.
package pending

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/memledger/memledger/foundation/ledger/block"
	"github.com/memledger/memledger/foundation/ledger/embedding"
)

// AggregatedType marks block data produced by aggregating a batch.
const AggregatedType = "aggregated_memory"

// Validation failures returned from Add. Callers treat any error as a
// rejected entry, the pool is never left in a partial state.
var (
	ErrMissingField  = errors.New("payload requires type and content fields")
	ErrDeniedContent = errors.New("payload content matches deny list")
	ErrBadAuxTag     = errors.New("aux metadata tag not allowed or out of range")
	ErrBadConfidence = errors.New("confidence must be in [0,1]")
)

// =============================================================================

// Entry represents one validated memory buffered for the next seal.
type Entry struct {
	Record     block.Record
	Confidence float64
	AuxTags    map[string]float64
	TimeStamp  float64
	Embedding  []float64
}

// Policy controls entry validation. The deny list is a heuristic content
// filter, not a security boundary, and can be replaced per ledger.
type Policy struct {
	DenySubstrings []string
	AllowedTags    map[string]bool
}

// DefaultPolicy returns the stock validation policy.
func DefaultPolicy() Policy {
	return Policy{
		DenySubstrings: []string{
			"system.delete", "rm -rf", "drop table",
			"password", "api_key", "secret",
		},
		AllowedTags: map[string]bool{
			"joy": true, "sadness": true, "anger": true,
			"fear": true, "surprise": true, "disgust": true,
		},
	}
}

// Validate checks a record and its metadata against the policy.
func (p Policy) Validate(rec block.Record, confidence float64, auxTags map[string]float64) error {
	if rec.Type == "" || rec.Content == "" {
		return ErrMissingField
	}

	if confidence < 0 || confidence > 1 {
		return ErrBadConfidence
	}

	content := strings.ToLower(rec.Content)
	for _, deny := range p.DenySubstrings {
		if strings.Contains(content, deny) {
			return fmt.Errorf("%w: %q", ErrDeniedContent, deny)
		}
	}

	for tag, value := range auxTags {
		if !p.AllowedTags[tag] {
			return fmt.Errorf("%w: unknown tag %q", ErrBadAuxTag, tag)
		}
		if value < 0 || value > 1 {
			return fmt.Errorf("%w: tag %q value %g", ErrBadAuxTag, tag, value)
		}
	}

	return nil
}

// =============================================================================

// Pool represents the cache of validated entries waiting to be sealed.
type Pool struct {
	policy  Policy
	mu      sync.RWMutex
	entries []Entry
}

// New constructs a pool using the default validation policy.
func New() *Pool {
	return NewWithPolicy(DefaultPolicy())
}

// NewWithPolicy constructs a pool with the specified validation policy.
func NewWithPolicy(policy Policy) *Pool {
	return &Pool{policy: policy}
}

// Add validates the record and buffers it with its embedding. The entry
// is timestamped at admission.
func (p *Pool) Add(rec block.Record, confidence float64, auxTags map[string]float64) error {
	if err := p.policy.Validate(rec, confidence, auxTags); err != nil {
		return err
	}

	entry := Entry{
		Record:     rec,
		Confidence: confidence,
		AuxTags:    auxTags,
		TimeStamp:  float64(time.Now().UnixNano()) / float64(time.Second),
		Embedding:  embedding.Generate(rec.Content),
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.entries = append(p.entries, entry)

	return nil
}

// Count returns the current number of entries in the pool.
func (p *Pool) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return len(p.entries)
}

// Drain atomically takes every buffered entry when at least minBatch are
// present. It reports false and leaves the pool untouched otherwise, so
// there are never partial seals.
func (p *Pool) Drain(minBatch int) ([]Entry, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.entries) < minBatch {
		return nil, false
	}

	entries := p.entries
	p.entries = nil

	return entries, true
}

// Truncate clears all the entries from the pool.
func (p *Pool) Truncate() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.entries = nil
}

// =============================================================================

// Aggregate combines a drained batch into one block payload: the mean of
// the confidences, the per-tag mean of the aux metadata, and the
// componentwise mean of the embeddings. The raw records ride along.
func Aggregate(entries []Entry) block.Data {
	if len(entries) == 0 {
		return block.Data{}
	}

	records := make([]block.Record, len(entries))
	vectors := make([][]float64, len(entries))
	var confidenceSum float64

	tags := make(map[string]bool)
	for i, entry := range entries {
		records[i] = entry.Record
		vectors[i] = entry.Embedding
		confidenceSum += entry.Confidence
		for tag := range entry.AuxTags {
			tags[tag] = true
		}
	}

	// An entry missing a tag contributes zero to that tag's mean.
	auxTags := make(map[string]float64)
	for tag := range tags {
		var sum float64
		for _, entry := range entries {
			sum += entry.AuxTags[tag]
		}
		auxTags[tag] = sum / float64(len(entries))
	}

	return block.Data{
		Type:             AggregatedType,
		Records:          records,
		Consensus:        confidenceSum / float64(len(entries)),
		AuxTags:          auxTags,
		ClusterEmbedding: embedding.Mean(vectors),
		Count:            len(entries),
		TimeStamp:        float64(time.Now().UnixNano()) / float64(time.Second),
	}
}
