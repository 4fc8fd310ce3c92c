// Package handlers manages the different versions of the API.
package handlers

import (
	"expvar"
	"net/http"
	"net/http/pprof"
	"os"

	v1 "github.com/hashvale/ledger/app/services/node/handlers/v1"
	"github.com/hashvale/ledger/foundation/events"
	"github.com/hashvale/ledger/foundation/ledger/network"
	"github.com/hashvale/ledger/foundation/ledger/state"
	"github.com/hashvale/ledger/foundation/nameservice"
	"github.com/hashvale/ledger/foundation/web"
	"go.uber.org/zap"
)

// MuxConfig contains all the mandatory systems required by handlers.
type MuxConfig struct {
	Shutdown chan os.Signal
	Log      *zap.SugaredLogger
	State    *state.State
	Sync     *network.Synchronizer
	NS       *nameservice.NameService
	Evts     *events.Events
}

// PublicMux constructs a http.Handler with all application routes
// defined, including the peer websocket endpoint.
func PublicMux(cfg MuxConfig) http.Handler {
	app := web.NewApp(
		cfg.Shutdown,
		web.Logger(cfg.Log),
		web.Errors(cfg.Log),
		web.Panics(),
	)

	v1.Routes(app, v1.Config{
		Log:   cfg.Log,
		State: cfg.State,
		Sync:  cfg.Sync,
		NS:    cfg.NS,
		Evts:  cfg.Evts,
	})

	return app
}

// DebugMux registers all the debug standard library routes. This
// bypasses the use of the DefaultServerMux since a dependency could
// inject a handler into it without us knowing.
func DebugMux() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.Handle("/debug/vars", expvar.Handler())

	return mux
}
