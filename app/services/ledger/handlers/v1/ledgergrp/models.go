package ledgergrp

import (
	"github.com/memledger/memledger/foundation/ledger/block"
	"github.com/memledger/memledger/foundation/ledger/ledger"
	"github.com/memledger/memledger/foundation/validate"
)

// newEntry is the request model for submitting a memory.
type newEntry struct {
	Type       string             `json:"type" validate:"required"`
	Content    string             `json:"content" validate:"required"`
	Meta       map[string]any     `json:"meta"`
	Confidence *float64           `json:"confidence" validate:"omitempty,gte=0,lte=1"`
	AuxTags    map[string]float64 `json:"aux_metadata"`
}

// Validate checks the entry request against its declared tags.
func (ne newEntry) Validate() error {
	return validate.Check(ne)
}

// blockView is the trimmed representation of a block returned from the
// chain endpoints. The raw records and cluster embedding stay out of the
// listing payloads.
type blockView struct {
	Index       uint64             `json:"index"`
	TimeStamp   float64            `json:"timestamp"`
	Type        string             `json:"type"`
	RecordCount int                `json:"record_count"`
	PrevHash    string             `json:"previous_hash"`
	Nonce       uint64             `json:"nonce"`
	Hash        string             `json:"hash"`
	Signature   string             `json:"signature"`
	Confidence  float64            `json:"confidence_score"`
	AuxTags     map[string]float64 `json:"aux_metadata,omitempty"`
}

func toBlockView(b block.Block) blockView {
	return blockView{
		Index:       b.Index,
		TimeStamp:   b.TimeStamp,
		Type:        b.Data.Type,
		RecordCount: b.Data.Count,
		PrevHash:    b.PrevBlockHash,
		Nonce:       b.Nonce,
		Hash:        b.Hash,
		Signature:   b.Signature,
		Confidence:  b.Confidence,
		AuxTags:     b.AuxTags,
	}
}

// searchResult pairs a matched block with its records so callers can see
// what content matched.
type searchResult struct {
	Block   blockView      `json:"block"`
	Records []block.Record `json:"records"`
}

// statsResponse mirrors ledger.Stats for the statistics endpoint.
type statsResponse = ledger.Stats
