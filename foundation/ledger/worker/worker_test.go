package worker_test

import (
	"testing"
	"time"

	"github.com/memledger/memledger/foundation/ledger/block"
	"github.com/memledger/memledger/foundation/ledger/ledger"
	"github.com/memledger/memledger/foundation/ledger/worker"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

// =============================================================================

func TestBackgroundSealing(t *testing.T) {
	t.Log("Given the need to validate the background sealing worker.")
	{
		t.Logf("\tTest 0:\tWhen a full batch of entries arrives.")
		{
			l, err := ledger.New(ledger.Config{Difficulty: 1})
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to construct a ledger: %v", failed, err)
			}

			w := worker.Run(l, worker.Config{
				SealInterval: time.Hour,
				SealTimeout:  30 * time.Second,
			})
			defer w.Shutdown()

			for i := 0; i < 3; i++ {
				rec := block.Record{Type: "conversation", Content: "background sealing"}
				if err := l.AddEntry(rec, 1.0, nil); err != nil {
					t.Fatalf("\t%s\tTest 0:\tShould be able to add an entry: %v", failed, err)
				}
			}
			t.Logf("\t%s\tTest 0:\tShould be able to add a full batch.", success)

			// AddEntry signals the worker once the batch threshold is
			// reached, so the seal happens without an explicit call.
			deadline := time.Now().Add(10 * time.Second)
			for time.Now().Before(deadline) {
				if l.RetrieveLatestBlock().Index == 1 {
					break
				}
				time.Sleep(10 * time.Millisecond)
			}

			if l.RetrieveLatestBlock().Index != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould seal a block in the background.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould seal a block in the background.", success)

			if l.PendingCount() != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould leave the pool empty, got %d.", failed, l.PendingCount())
			}
			t.Logf("\t%s\tTest 0:\tShould leave the pool empty.", success)
		}
	}
}
