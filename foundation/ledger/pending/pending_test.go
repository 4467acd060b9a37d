package pending_test

import (
	"testing"

	"github.com/memledger/memledger/foundation/ledger/block"
	"github.com/memledger/memledger/foundation/ledger/embedding"
	"github.com/memledger/memledger/foundation/ledger/pending"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddValidation(t *testing.T) {
	tests := []struct {
		name       string
		rec        block.Record
		confidence float64
		auxTags    map[string]float64
		wantErr    error
	}{
		{
			name:       "valid entry",
			rec:        block.Record{Type: "conversation", Content: "we talked about the weather"},
			confidence: 0.9,
			auxTags:    map[string]float64{"joy": 0.4},
		},
		{
			name:       "missing type",
			rec:        block.Record{Content: "no type"},
			confidence: 1,
			wantErr:    pending.ErrMissingField,
		},
		{
			name:       "missing content",
			rec:        block.Record{Type: "note"},
			confidence: 1,
			wantErr:    pending.ErrMissingField,
		},
		{
			name:       "denied content",
			rec:        block.Record{Type: "note", Content: "my PASSWORD is hunter2"},
			confidence: 1,
			wantErr:    pending.ErrDeniedContent,
		},
		{
			name:       "denied command",
			rec:        block.Record{Type: "note", Content: "then run rm -rf / please"},
			confidence: 1,
			wantErr:    pending.ErrDeniedContent,
		},
		{
			name:       "unknown aux tag",
			rec:        block.Record{Type: "note", Content: "ok"},
			confidence: 1,
			auxTags:    map[string]float64{"ennui": 0.3},
			wantErr:    pending.ErrBadAuxTag,
		},
		{
			name:       "aux value out of range",
			rec:        block.Record{Type: "note", Content: "ok"},
			confidence: 1,
			auxTags:    map[string]float64{"joy": 1.3},
			wantErr:    pending.ErrBadAuxTag,
		},
		{
			name:       "confidence out of range",
			rec:        block.Record{Type: "note", Content: "ok"},
			confidence: 1.5,
			wantErr:    pending.ErrBadConfidence,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := pending.New()

			err := pool.Add(tt.rec, tt.confidence, tt.auxTags)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Zero(t, pool.Count(), "rejected entries must not be buffered")
				return
			}

			require.NoError(t, err)
			assert.Equal(t, 1, pool.Count())
		})
	}
}

func TestDrainThreshold(t *testing.T) {
	pool := pending.New()

	add := func(content string) {
		t.Helper()
		require.NoError(t, pool.Add(block.Record{Type: "note", Content: content}, 1, nil))
	}

	add("one")
	add("two")

	entries, ok := pool.Drain(3)
	assert.False(t, ok, "no partial seals below the minimum batch")
	assert.Nil(t, entries)
	assert.Equal(t, 2, pool.Count(), "a refused drain leaves the pool untouched")

	add("three")

	entries, ok = pool.Drain(3)
	require.True(t, ok)
	assert.Len(t, entries, 3)
	assert.Zero(t, pool.Count(), "the pool is cleared atomically on drain")
}

func TestAggregate(t *testing.T) {
	pool := pending.New()

	require.NoError(t, pool.Add(block.Record{Type: "note", Content: "hello"}, 0.9, map[string]float64{"joy": 0.6}))
	require.NoError(t, pool.Add(block.Record{Type: "note", Content: "hello"}, 0.8, map[string]float64{"joy": 0.3, "fear": 0.3}))
	require.NoError(t, pool.Add(block.Record{Type: "note", Content: "hello"}, 1.0, nil))

	entries, ok := pool.Drain(3)
	require.True(t, ok)

	data := pending.Aggregate(entries)

	assert.Equal(t, pending.AggregatedType, data.Type)
	assert.Equal(t, 3, data.Count)
	assert.Len(t, data.Records, 3)
	assert.InDelta(t, 0.9, data.Consensus, 1e-9)

	// Per-key mean over all entries, a missing key contributes zero.
	assert.InDelta(t, 0.3, data.AuxTags["joy"], 1e-9)
	assert.InDelta(t, 0.1, data.AuxTags["fear"], 1e-9)

	// Identical content means the cluster embedding equals the single
	// normalized embedding.
	assert.InDeltaSlice(t, embedding.Generate("hello"), data.ClusterEmbedding, 1e-12)
}

func TestCustomPolicy(t *testing.T) {
	policy := pending.DefaultPolicy()
	policy.DenySubstrings = []string{"forbidden"}
	policy.AllowedTags = map[string]bool{"calm": true}

	pool := pending.NewWithPolicy(policy)

	require.NoError(t, pool.Add(block.Record{Type: "note", Content: "my password is safe to mention now"}, 1, map[string]float64{"calm": 0.5}))
	require.ErrorIs(t, pool.Add(block.Record{Type: "note", Content: "this is forbidden"}, 1, nil), pending.ErrDeniedContent)
	require.ErrorIs(t, pool.Add(block.Record{Type: "note", Content: "ok"}, 1, map[string]float64{"joy": 0.5}), pending.ErrBadAuxTag)
}
