// Package block implements the sealed unit of the memory ledger with
// support for hashing, proof-of-work mining, and validation.
package block

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/memledger/memledger/foundation/ledger/signature"
)

// hashLength is the expected length of a bare hex SHA-256 hash.
const hashLength = 64

// ErrMiningCancelled is returned from Mine when the context is cancelled
// before a solution is found.
var ErrMiningCancelled = errors.New("mining cancelled")

// =============================================================================

// Record represents one raw memory submitted by a caller. Type and
// Content are required and validated at the boundary, Meta is an open
// extension map carried opaquely.
type Record struct {
	Type    string         `json:"type"`
	Content string         `json:"content"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// Data represents the payload sealed inside a block. Genesis blocks carry
// only Type and Message. Aggregated blocks carry the batched records, the
// consensus values, and the cluster embedding used for similarity search.
type Data struct {
	Type             string             `json:"type"`
	Message          string             `json:"message,omitempty"`
	Records          []Record           `json:"records,omitempty"`
	Consensus        float64            `json:"consensus_confidence,omitempty"`
	AuxTags          map[string]float64 `json:"aux_metadata,omitempty"`
	ClusterEmbedding []float64          `json:"cluster_embedding,omitempty"`
	Count            int                `json:"record_count,omitempty"`
	TimeStamp        float64            `json:"timestamp,omitempty"`
}

// Block represents a group of memories sealed together. Once appended to
// the chain a block is never mutated.
type Block struct {
	Index         uint64             `json:"index"`
	TimeStamp     float64            `json:"timestamp"`
	Data          Data               `json:"data"`
	PrevBlockHash string             `json:"previous_hash"`
	Nonce         uint64             `json:"nonce"`
	Hash          string             `json:"hash"`
	Signature     string             `json:"signature"`
	Confidence    float64            `json:"confidence_score"`
	AuxTags       map[string]float64 `json:"aux_metadata"`
}

// Genesis constructs the first block of a chain. Its previous hash is the
// zero sentinel and its hash is computed without mining.
func Genesis() Block {
	b := Block{
		Index:     0,
		TimeStamp: float64(time.Now().UnixNano()) / float64(time.Second),
		Data: Data{
			Type:    "genesis",
			Message: "memory ledger genesis block",
		},
		PrevBlockHash: signature.ZeroHash,
		Confidence:    1.0,
	}
	b.Hash = b.ComputeHash()

	return b
}

// New constructs the candidate block that follows prev, carrying the
// specified aggregated data. The hash is not final until mining.
func New(prev Block, data Data) Block {
	b := Block{
		Index:         prev.Index + 1,
		TimeStamp:     float64(time.Now().UnixNano()) / float64(time.Second),
		Data:          data,
		PrevBlockHash: prev.Hash,
		Confidence:    data.Consensus,
		AuxTags:       data.AuxTags,
	}
	b.Hash = b.ComputeHash()

	return b
}

// ComputeHash returns the digest over the block's hashed field set. The
// fields are assembled into a map so JSON marshaling sorts the keys,
// keeping the digest canonical across processes.
func (b Block) ComputeHash() string {
	record := map[string]any{
		"index":            b.Index,
		"timestamp":        b.TimeStamp,
		"data":             b.Data,
		"previous_hash":    b.PrevBlockHash,
		"nonce":            b.Nonce,
		"confidence_score": b.Confidence,
		"aux_metadata":     b.AuxTags,
	}

	return signature.Hash(record)
}

// Mine performs the proof-of-work search, incrementing the nonce and
// recomputing the hash until it satisfies the difficulty. Pointer
// semantics are being used since a nonce is being discovered. The search
// is unbounded by construction so the context bounds worst-case latency.
func (b *Block) Mine(ctx context.Context, difficulty uint) error {
	for !HashSolved(difficulty, b.Hash) {
		if ctx.Err() != nil {
			return ErrMiningCancelled
		}

		b.Nonce++
		b.Hash = b.ComputeHash()
	}

	return nil
}

// Validate checks the block against its parent: the stored hash must
// equal the recomputation and the link must point at the parent's hash.
// Signature checks belong to the ledger since they need the trusted keys.
func (b Block) Validate(prev Block) error {
	if b.Hash != b.ComputeHash() {
		return fmt.Errorf("block %d hash does not match recomputation", b.Index)
	}

	if b.Index != prev.Index+1 {
		return fmt.Errorf("block is not the next index, got %d, exp %d", b.Index, prev.Index+1)
	}

	if b.PrevBlockHash != prev.Hash {
		return fmt.Errorf("parent hash doesn't match, got %s, exp %s", b.PrevBlockHash, prev.Hash)
	}

	return nil
}

// HashSolved checks the hash complies with the proof-of-work rules. We
// need to match a difficulty number of 0's.
func HashSolved(difficulty uint, hash string) bool {
	const match = "00000000000000000"

	if len(hash) != hashLength || difficulty > uint(len(match)) {
		return false
	}

	return hash[:difficulty] == match[:difficulty]
}
