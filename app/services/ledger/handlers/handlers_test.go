package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/memledger/memledger/app/services/ledger/handlers"
	"github.com/memledger/memledger/foundation/events"
	"github.com/memledger/memledger/foundation/ledger/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newTestMux constructs the public mux over a fast-mining ledger.
func newTestMux(t *testing.T) (http.Handler, *ledger.Ledger) {
	t.Helper()

	l, err := ledger.New(ledger.Config{Difficulty: 1})
	require.NoError(t, err)

	mux := handlers.PublicMux(handlers.MuxConfig{
		Shutdown: make(chan os.Signal, 1),
		Log:      zap.NewNop().Sugar(),
		Ledger:   l,
		Evts:     events.New(),
	})

	return mux, l
}

func postJSON(t *testing.T, mux http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)

	return w
}

func TestAddEntryEndpoint(t *testing.T) {
	mux, l := newTestMux(t)

	t.Run("valid entry", func(t *testing.T) {
		w := postJSON(t, mux, "/v1/entries", map[string]any{
			"type":    "conversation",
			"content": "we planned the trip",
		})

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, 1, l.PendingCount())
	})

	t.Run("missing content", func(t *testing.T) {
		w := postJSON(t, mux, "/v1/entries", map[string]any{
			"type": "conversation",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("denied content", func(t *testing.T) {
		w := postJSON(t, mux, "/v1/entries", map[string]any{
			"type":    "conversation",
			"content": "store my password please",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("confidence out of range", func(t *testing.T) {
		w := postJSON(t, mux, "/v1/entries", map[string]any{
			"type":       "conversation",
			"content":    "fine content",
			"confidence": 2.0,
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSealAndSearchEndpoints(t *testing.T) {
	mux, _ := newTestMux(t)

	t.Run("seal below threshold", func(t *testing.T) {
		w := postJSON(t, mux, "/v1/seal", nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	for i := 0; i < 3; i++ {
		w := postJSON(t, mux, "/v1/entries", map[string]any{
			"type":    "conversation",
			"content": "the garden needs water",
		})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	t.Run("seal full batch", func(t *testing.T) {
		w := postJSON(t, mux, "/v1/seal", nil)
		require.Equal(t, http.StatusCreated, w.Code)

		var view struct {
			Index       uint64 `json:"index"`
			RecordCount int    `json:"record_count"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
		assert.Equal(t, uint64(1), view.Index)
		assert.Equal(t, 3, view.RecordCount)
	})

	t.Run("search finds sealed content", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/v1/search?q=the+garden+needs+water&threshold=0.99", nil)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, r)

		require.Equal(t, http.StatusOK, w.Code)

		var results []struct {
			Records []struct {
				Content string `json:"content"`
			} `json:"records"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &results))
		require.Len(t, results, 1)
		require.Len(t, results[0].Records, 3)
		assert.Equal(t, "the garden needs water", results[0].Records[0].Content)
	})

	t.Run("statistics", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/v1/statistics", nil)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, r)

		require.Equal(t, http.StatusOK, w.Code)

		var stats struct {
			TotalBlocks    int     `json:"total_blocks"`
			ChainIntegrity float64 `json:"chain_integrity"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
		assert.Equal(t, 2, stats.TotalBlocks)
		assert.Equal(t, 1.0, stats.ChainIntegrity)
	})
}

func TestBackupRestoreEndpoints(t *testing.T) {
	mux, _ := newTestMux(t)

	for i := 0; i < 3; i++ {
		w := postJSON(t, mux, "/v1/entries", map[string]any{
			"type":    "note",
			"content": "backed up memory",
		})
		require.Equal(t, http.StatusCreated, w.Code)
	}
	require.Equal(t, http.StatusCreated, postJSON(t, mux, "/v1/seal", nil).Code)

	r := httptest.NewRequest(http.MethodGet, "/v1/backup", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	require.Equal(t, http.StatusOK, w.Code)
	backup := w.Body.Bytes()

	// Restore into a second service instance.
	mux2, l2 := newTestMux(t)
	r = httptest.NewRequest(http.MethodPost, "/v1/restore", bytes.NewReader(backup))
	w = httptest.NewRecorder()
	mux2.ServeHTTP(w, r)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, uint64(1), l2.RetrieveLatestBlock().Index)
	assert.Equal(t, 1.0, l2.ChainIntegrity())
}
