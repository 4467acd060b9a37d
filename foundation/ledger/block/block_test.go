package block_test

import (
	"context"
	"testing"

	"github.com/memledger/memledger/foundation/ledger/block"
	"github.com/memledger/memledger/foundation/ledger/signature"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// =============================================================================

func TestHashDeterminism(t *testing.T) {
	t.Log("Given the need to validate block hashing is deterministic.")
	{
		b := block.New(block.Genesis(), block.Data{
			Type:      "aggregated_memory",
			Records:   []block.Record{{Type: "note", Content: "hello"}},
			Consensus: 0.9,
			Count:     1,
		})

		t.Logf("\tTest 0:\tWhen recomputing the hash of an unchanged block.")
		{
			if b.ComputeHash() != b.ComputeHash() {
				t.Fatalf("\t%s\tTest 0:\tShould compute the same hash twice.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould compute the same hash twice.", success)
		}

		t.Logf("\tTest 1:\tWhen mutating block fields.")
		{
			base := b.ComputeHash()

			mutated := b
			mutated.Nonce++
			if mutated.ComputeHash() == base {
				t.Errorf("\t%s\tTest 1:\tShould change the hash when the nonce changes.", failed)
			} else {
				t.Logf("\t%s\tTest 1:\tShould change the hash when the nonce changes.", success)
			}

			mutated = b
			mutated.TimeStamp++
			if mutated.ComputeHash() == base {
				t.Errorf("\t%s\tTest 1:\tShould change the hash when the timestamp changes.", failed)
			} else {
				t.Logf("\t%s\tTest 1:\tShould change the hash when the timestamp changes.", success)
			}

			mutated = b
			mutated.Data.Records = []block.Record{{Type: "note", Content: "hellp"}}
			if mutated.ComputeHash() == base {
				t.Errorf("\t%s\tTest 1:\tShould change the hash when the payload changes.", failed)
			} else {
				t.Logf("\t%s\tTest 1:\tShould change the hash when the payload changes.", success)
			}
		}
	}
}

func TestProofOfWork(t *testing.T) {
	difficulties := []uint{1, 2, 4}

	t.Log("Given the need to validate proof-of-work sealing.")
	{
		for testID, difficulty := range difficulties {
			t.Logf("\tTest %d:\tWhen mining with difficulty %d.", testID, difficulty)
			{
				b := block.New(block.Genesis(), block.Data{
					Type:      "aggregated_memory",
					Records:   []block.Record{{Type: "note", Content: "proof of work"}},
					Consensus: 1,
					Count:     1,
				})

				if err := b.Mine(context.Background(), difficulty); err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to mine the block: %v", failed, testID, err)
				}
				t.Logf("\t%s\tTest %d:\tShould be able to mine the block.", success, testID)

				if !block.HashSolved(difficulty, b.Hash) {
					t.Fatalf("\t%s\tTest %d:\tShould have %d leading zero characters: %s", failed, testID, difficulty, b.Hash)
				}
				t.Logf("\t%s\tTest %d:\tShould have %d leading zero characters.", success, testID, difficulty)

				if b.Hash != b.ComputeHash() {
					t.Fatalf("\t%s\tTest %d:\tShould store the hash of the final nonce.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould store the hash of the final nonce.", success, testID)
			}
		}
	}
}

func TestMiningCancellation(t *testing.T) {
	t.Log("Given the need to validate mining honors cancellation.")
	{
		t.Logf("\tTest 0:\tWhen mining with a cancelled context.")
		{
			b := block.New(block.Genesis(), block.Data{
				Type:  "aggregated_memory",
				Count: 1,
			})

			// A high difficulty cannot be solved before the context check.
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			if err := b.Mine(ctx, 16); err != block.ErrMiningCancelled {
				t.Fatalf("\t%s\tTest 0:\tShould return ErrMiningCancelled: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould return ErrMiningCancelled.", success)
		}
	}
}

func TestGenesis(t *testing.T) {
	t.Log("Given the need to validate the genesis block shape.")
	{
		t.Logf("\tTest 0:\tWhen constructing a genesis block.")
		{
			g := block.Genesis()

			if g.Index != 0 {
				t.Errorf("\t%s\tTest 0:\tShould have index 0, got %d.", failed, g.Index)
			} else {
				t.Logf("\t%s\tTest 0:\tShould have index 0.", success)
			}

			if g.PrevBlockHash != signature.ZeroHash {
				t.Errorf("\t%s\tTest 0:\tShould link to the zero sentinel hash.", failed)
			} else {
				t.Logf("\t%s\tTest 0:\tShould link to the zero sentinel hash.", success)
			}

			if g.Hash != g.ComputeHash() {
				t.Errorf("\t%s\tTest 0:\tShould carry its own recomputable hash.", failed)
			} else {
				t.Logf("\t%s\tTest 0:\tShould carry its own recomputable hash.", success)
			}

			if g.Confidence != 1.0 {
				t.Errorf("\t%s\tTest 0:\tShould have confidence 1.0.", failed)
			} else {
				t.Logf("\t%s\tTest 0:\tShould have confidence 1.0.", success)
			}
		}
	}
}

func TestValidate(t *testing.T) {
	t.Log("Given the need to validate chain linkage rules.")
	{
		t.Logf("\tTest 0:\tWhen validating a block against its parent.")
		{
			genesis := block.Genesis()
			b := block.New(genesis, block.Data{Type: "aggregated_memory", Count: 1})

			if err := b.Validate(genesis); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould validate a well linked block: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould validate a well linked block.", success)

			bad := b
			bad.PrevBlockHash = signature.ZeroHash
			bad.Hash = bad.ComputeHash()
			if err := bad.Validate(genesis); err == nil {
				t.Fatalf("\t%s\tTest 0:\tShould reject a broken parent link.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould reject a broken parent link.", success)

			bad = b
			bad.Index = 5
			bad.Hash = bad.ComputeHash()
			if err := bad.Validate(genesis); err == nil {
				t.Fatalf("\t%s\tTest 0:\tShould reject a non-contiguous index.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould reject a non-contiguous index.", success)

			bad = b
			bad.Data.Consensus = 0.5
			if err := bad.Validate(genesis); err == nil {
				t.Fatalf("\t%s\tTest 0:\tShould reject a hash mismatch after tampering.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould reject a hash mismatch after tampering.", success)
		}
	}
}
