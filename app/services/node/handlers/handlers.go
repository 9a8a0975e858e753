// Package handlers manages the different versions of the API.
package handlers

import (
	"context"
	"expvar"
	"net/http"
	"net/http/pprof"
	"os"

	"github.com/lyrion-l2/lyrion-node/app/services/node/handlers/debug/checkgrp"
	"github.com/lyrion-l2/lyrion-node/app/services/node/handlers/v1/eventgrp"
	"github.com/lyrion-l2/lyrion-node/app/services/node/handlers/v1/rpcgrp"
	"github.com/lyrion-l2/lyrion-node/business/web/metrics"
	"github.com/lyrion-l2/lyrion-node/business/web/mid"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/state"
	"github.com/lyrion-l2/lyrion-node/foundation/events"
	"github.com/lyrion-l2/lyrion-node/foundation/nameservice"
	"github.com/lyrion-l2/lyrion-node/foundation/web"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const version = "v1"

// MuxConfig contains all the mandatory systems required by handlers.
type MuxConfig struct {
	Shutdown   chan os.Signal
	Log        *zap.SugaredLogger
	State      *state.State
	NS         *nameservice.NameService
	Evts       *events.Events
	Metrics    *metrics.Metrics
	CORSOrigin string
	Limiter    *rate.Limiter
}

// RPCMux constructs a http.Handler with the JSON-RPC gateway and the event
// stream.
func RPCMux(cfg MuxConfig) http.Handler {

	// Construct the web.App which holds all routes as well as common Middleware.
	app := web.NewApp(
		cfg.Shutdown,
		mid.Logger(cfg.Log),
		mid.Errors(cfg.Log),
		mid.Metrics(),
		mid.Cors(cfg.CORSOrigin),
		mid.Panics(),
	)

	// Accept CORS 'OPTIONS' preflight requests.
	h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return nil
	}
	app.Handle(http.MethodOptions, "", "/*", h, mid.Cors(cfg.CORSOrigin))

	rpc := rpcgrp.Handlers{
		Log:     cfg.Log,
		State:   cfg.State,
		NS:      cfg.NS,
		Metrics: cfg.Metrics,
	}

	app.Handle(http.MethodPost, "", "/", rpc.RPC, mid.RateLimit(cfg.Limiter))
	app.Handle(http.MethodPost, "", "/rpc", rpc.RPC, mid.RateLimit(cfg.Limiter))

	evt := eventgrp.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
		NS:    cfg.NS,
		Evts:  cfg.Evts,
	}

	app.Handle(http.MethodGet, version, "/events", evt.Events)
	app.Handle(http.MethodGet, version, "/genesis/list", evt.Genesis)
	app.Handle(http.MethodGet, version, "/tx/uncommitted/list", evt.Mempool)
	app.Handle(http.MethodGet, version, "/tx/uncommitted/list/:account", evt.Mempool)

	return app
}

// DebugStandardLibraryMux registers all the debug routes from the standard library
// into a new mux bypassing the use of the DefaultServerMux. Using the
// DefaultServerMux would be a security risk since a dependency could inject a
// handler into our service without us knowing it.
func DebugStandardLibraryMux() *http.ServeMux {
	mux := http.NewServeMux()

	// Register all the standard library debug endpoints.
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.Handle("/debug/vars", expvar.Handler())

	return mux
}

// DebugMux registers all the debug standard library routes and then custom
// debug application routes for the service. This bypassing the use of the
// DefaultServerMux. Using the DefaultServerMux would be a security risk since
// a dependency could inject a handler into our service without us knowing it.
func DebugMux(build string, log *zap.SugaredLogger, st *state.State, gatherer prometheus.Gatherer) http.Handler {
	mux := DebugStandardLibraryMux()

	// Register debug check endpoints.
	cgh := checkgrp.Handlers{
		Build: build,
		Log:   log,
		State: st,
	}
	mux.HandleFunc("/debug/readiness", cgh.Readiness)
	mux.HandleFunc("/debug/liveness", cgh.Liveness)

	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return mux
}

// =============================================================================

// MetricsSource publishes the chain totals of the state as gauges.
type MetricsSource struct {
	State *state.State
}

// Height implements the metrics.Source interface.
func (ms MetricsSource) Height() uint64 {
	return ms.State.Height()
}

// MempoolDepth implements the metrics.Source interface.
func (ms MetricsSource) MempoolDepth() int {
	return ms.State.Stats().Pending
}

// TotalTransactions implements the metrics.Source interface.
func (ms MetricsSource) TotalTransactions() uint64 {
	return ms.State.Stats().TotalTransactions
}

// FailedTransactions implements the metrics.Source interface.
func (ms MetricsSource) FailedTransactions() uint64 {
	return ms.State.Stats().FailedTransactions
}
