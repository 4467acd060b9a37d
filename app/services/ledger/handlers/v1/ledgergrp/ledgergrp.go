// Package ledgergrp maintains the group of handlers for memory ledger
// access.
package ledgergrp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	v1 "github.com/memledger/memledger/business/web/v1"
	"github.com/memledger/memledger/foundation/events"
	"github.com/memledger/memledger/foundation/ledger/block"
	"github.com/memledger/memledger/foundation/ledger/ledger"
	"github.com/memledger/memledger/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of memory ledger endpoints.
type Handlers struct {
	Log    *zap.SugaredLogger
	Ledger *ledger.Ledger
	WS     websocket.Upgrader
	Evts   *events.Events
}

// AddEntry validates and buffers a new memory into the pending pool.
func (h Handlers) AddEntry(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var ne newEntry
	if err := web.Decode(r, &ne); err != nil {
		return err
	}

	confidence := 1.0
	if ne.Confidence != nil {
		confidence = *ne.Confidence
	}

	rec := block.Record{
		Type:    ne.Type,
		Content: ne.Content,
		Meta:    ne.Meta,
	}

	h.Log.Infow("add entry", "traceid", v.TraceID, "type", ne.Type, "confidence", confidence)

	if err := h.Ledger.AddEntry(rec, confidence, ne.AuxTags); err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	resp := struct {
		Status  string `json:"status"`
		Pending int    `json:"pending"`
	}{
		Status:  "entry added to pending pool",
		Pending: h.Ledger.PendingCount(),
	}

	return web.Respond(ctx, w, resp, http.StatusCreated)
}

// Seal drives a synchronous seal attempt over the pending pool.
func (h Handlers) Seal(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	b, err := h.Ledger.SealPending(ctx)
	switch {
	case errors.Is(err, ledger.ErrInsufficientPending):
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	case err != nil:
		return v1.NewRequestError(err, http.StatusConflict)
	}

	return web.Respond(ctx, w, toBlockView(b), http.StatusCreated)
}

// Search returns the blocks whose cluster embedding is similar enough to
// the query text.
func (h Handlers) Search(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	query := r.URL.Query().Get("q")
	if query == "" {
		return v1.NewRequestError(errors.New("query parameter q is required"), http.StatusBadRequest)
	}

	threshold := ledger.DefaultSearchThreshold
	if ts := r.URL.Query().Get("threshold"); ts != "" {
		t, err := strconv.ParseFloat(ts, 64)
		if err != nil {
			return v1.NewRequestError(fmt.Errorf("invalid threshold %q", ts), http.StatusBadRequest)
		}
		threshold = t
	}

	matches := h.Ledger.Search(query, threshold)

	results := make([]searchResult, len(matches))
	for i, b := range matches {
		results[i] = searchResult{
			Block:   toBlockView(b),
			Records: b.Data.Records,
		}
	}

	return web.Respond(ctx, w, results, http.StatusOK)
}

// Statistics returns a point-in-time summary of the ledger.
func (h Handlers) Statistics(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var stats statsResponse = h.Ledger.Statistics()
	return web.Respond(ctx, w, stats, http.StatusOK)
}

// Integrity returns the chain integrity score.
func (h Handlers) Integrity(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	resp := struct {
		Integrity float64 `json:"integrity"`
	}{
		Integrity: h.Ledger.ChainIntegrity(),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Blocks returns the chain block by block.
func (h Handlers) Blocks(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	chain := h.Ledger.RetrieveChain()

	views := make([]blockView, len(chain))
	for i, b := range chain {
		views[i] = toBlockView(b)
	}

	return web.Respond(ctx, w, views, http.StatusOK)
}

// LatestBlock returns the current tail of the chain.
func (h Handlers) LatestBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, toBlockView(h.Ledger.RetrieveLatestBlock()), http.StatusOK)
}

// Backup streams the serialized chain plus public key to the caller.
func (h Handlers) Backup(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	data, err := h.Ledger.Backup()
	if err != nil {
		return err
	}

	web.SetStatusCode(ctx, http.StatusOK)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, err = w.Write(data)

	return err
}

// Restore replaces the chain with a previously backed up one.
func (h Handlers) Restore(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return fmt.Errorf("reading restore payload: %w", err)
	}

	if err := h.Ledger.Restore(data); err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	resp := struct {
		Status string `json:"status"`
		Blocks int    `json:"blocks"`
	}{
		Status: "chain restored",
		Blocks: len(h.Ledger.RetrieveChain()),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Events handles a web socket to provide ledger events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	// The upgrader writes its own error response on failure, and once
	// the connection is hijacked the middleware chain cannot respond,
	// so errors terminate the stream rather than propagate.
	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return nil
	}
	defer c.Close()

	ch := h.Evts.Subscribe(v.TraceID)
	defer h.Evts.Unsubscribe(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return nil
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}
