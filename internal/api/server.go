package api

import (
	"fmt"
	"net/http"

	"github.com/gorilla/rpc/v2"
	"github.com/gorilla/rpc/v2/json2"
	"go.uber.org/zap"

	"github.com/cory-johannsen/menagerie/internal/game/collection"
	"github.com/cory-johannsen/menagerie/internal/game/market"
)

// NewHandler assembles the HTTP surface: JSON-RPC 2.0 at /rpc with the
// ledger and market services registered, and the health report at /healthz
// when a health handler is supplied.
//
// Precondition: ledger, mkt, and logger must be non-nil.
func NewHandler(ledger *collection.Service, mkt *market.Service, health http.Handler, logger *zap.Logger) (http.Handler, error) {
	srv := rpc.NewServer()
	codec := json2.NewCodec()
	srv.RegisterCodec(codec, "application/json")
	srv.RegisterCodec(codec, "application/json;charset=UTF-8")

	if err := srv.RegisterService(NewLedgerService(ledger, logger), "ledger"); err != nil {
		return nil, fmt.Errorf("registering ledger service: %w", err)
	}
	if err := srv.RegisterService(NewMarketService(mkt, logger), "market"); err != nil {
		return nil, fmt.Errorf("registering market service: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/rpc", srv)
	if health != nil {
		mux.Handle("/healthz", health)
	}
	return mux, nil
}
