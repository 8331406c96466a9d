// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"
	"net/http/pprof"
	"strings"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/vechain/stakeledger/api/balances"
	"github.com/vechain/stakeledger/api/events"
	"github.com/vechain/stakeledger/api/requests"
	"github.com/vechain/stakeledger/api/rules"
	"github.com/vechain/stakeledger/api/stakes"
	"github.com/vechain/stakeledger/api/subscriptions"
	"github.com/vechain/stakeledger/api/utils"
	"github.com/vechain/stakeledger/log"
	"github.com/vechain/stakeledger/node"
)

var logger = log.WithContext("pkg", "api")

type Options struct {
	AllowedOrigins       string
	PprofOn              bool
	EnableReqLogger      bool
	SlowQueriesThreshold time.Duration
	EnableMetrics        bool
	EventsLimit          uint64
}

// New return api router
func New(n *node.Node, opts Options) (http.HandlerFunc, func()) {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}
	if opts.EventsLimit == 0 {
		opts.EventsLimit = 1000
	}

	router := mux.NewRouter()

	rules.New(n).
		Mount(router, "/rules")
	stakes.New(n).
		Mount(router, "/stakes")
	balances.New(n).
		Mount(router, "/balances")
	requests.New(n).
		Mount(router, "/requests")
	if db := n.Events(); db != nil {
		events.New(db, opts.EventsLimit).
			Mount(router, "/events")
	}
	subs := subscriptions.New(n, origins)
	subs.Mount(router, "/subscriptions")

	if opts.PprofOn {
		router.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		router.HandleFunc("/debug/pprof/profile", pprof.Profile)
		router.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		router.HandleFunc("/debug/pprof/trace", pprof.Trace)
		router.PathPrefix("/debug/pprof/").HandlerFunc(pprof.Index)
	}

	if opts.EnableMetrics {
		router.Use(metricsMiddleware)
	}

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type", strings.ToLower(utils.CallerHeader)}),
		handlers.ExposedHeaders([]string{strings.ToLower(RequestIDHeader)}),
	)(handler)

	if opts.EnableReqLogger || opts.SlowQueriesThreshold > 0 {
		handler = RequestLoggerHandler(handler, logger, opts.SlowQueriesThreshold)
	}

	return handler.ServeHTTP, subs.Close // subscriptions handles hijacked conns, which need to be closed
}
