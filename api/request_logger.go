// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/pborman/uuid"

	"github.com/vechain/stakeledger/log"
)

const RequestIDHeader = "X-Request-ID"

// RequestLoggerHandler logs every request with its body and duration. Requests are tagged
// with an id, taken from the X-Request-ID header or generated.
func RequestLoggerHandler(handler http.Handler, logger log.Logger, slowQueriesThreshold time.Duration) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.New()
		}
		w.Header().Set(RequestIDHeader, id)

		// the body can only be read once
		var bodyBytes []byte
		if r.Body != nil {
			var err error
			bodyBytes, err = io.ReadAll(r.Body)
			if err != nil {
				logger.Warn("unexpected body read error", "id", id, "err", err)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}

		start := time.Now()
		handler.ServeHTTP(w, r)
		duration := time.Since(start)

		ctx := []any{
			"id", id,
			"DurationMs", duration.Milliseconds(),
			"URI", r.URL.String(),
			"Method", r.Method,
			"Caller", r.Header.Get("X-Caller"),
			"Body", string(bodyBytes),
		}
		if slowQueriesThreshold > 0 && duration > slowQueriesThreshold {
			logger.Warn("slow API request", ctx...)
			return
		}
		logger.Info("API Request", ctx...)
	})
}
