// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/memledger/memledger/app/services/ledger/handlers/v1/ledgergrp"
	"github.com/memledger/memledger/foundation/events"
	"github.com/memledger/memledger/foundation/ledger/ledger"
	"github.com/memledger/memledger/foundation/web"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log    *zap.SugaredLogger
	Ledger *ledger.Ledger
	Evts   *events.Events
}

// Routes binds all the version 1 routes.
func Routes(app *web.App, cfg Config) {
	lgh := ledgergrp.Handlers{
		Log:    cfg.Log,
		Ledger: cfg.Ledger,
		Evts:   cfg.Evts,
	}

	app.Handle(http.MethodPost, version, "/entries", lgh.AddEntry)
	app.Handle(http.MethodPost, version, "/seal", lgh.Seal)
	app.Handle(http.MethodGet, version, "/search", lgh.Search)
	app.Handle(http.MethodGet, version, "/statistics", lgh.Statistics)
	app.Handle(http.MethodGet, version, "/integrity", lgh.Integrity)
	app.Handle(http.MethodGet, version, "/blocks", lgh.Blocks)
	app.Handle(http.MethodGet, version, "/blocks/latest", lgh.LatestBlock)
	app.Handle(http.MethodGet, version, "/backup", lgh.Backup)
	app.Handle(http.MethodPost, version, "/restore", lgh.Restore)
	app.Handle(http.MethodGet, version, "/events", lgh.Events)
}
