// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/api/events"
	"github.com/vechain/stakeledger/api/utils"
	"github.com/vechain/stakeledger/eventdb"
	"github.com/vechain/stakeledger/log"
	"github.com/vechain/stakeledger/node"
)

var logger = log.WithContext("pkg", "subscriptions")

const (
	pingPeriod = 20 * time.Second
	pongWait   = 2 * pingPeriod
	writeWait  = 10 * time.Second
	pageSize   = 256
)

// Subscriptions streams journaled events over websocket as they are committed.
type Subscriptions struct {
	node     *node.Node
	upgrader *websocket.Upgrader
	done     chan struct{}
	wg       sync.WaitGroup
	once     sync.Once
}

func New(n *node.Node, allowedOrigins []string) *Subscriptions {
	return &Subscriptions{
		node: n,
		upgrader: &websocket.Upgrader{
			EnableCompression: true,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				for _, allowed := range allowedOrigins {
					if allowed == origin || allowed == "*" {
						return true
					}
				}
				return false
			},
		},
		done: make(chan struct{}),
	}
}

// parseFilter reads the subscription filter from the query: after, name and stake.
func parseFilter(req *http.Request) (*eventdb.Filter, error) {
	q := req.URL.Query()
	filter := &eventdb.Filter{Name: q.Get("name"), Options: &eventdb.Options{Limit: pageSize}}
	if v := q.Get("after"); v != "" {
		after, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, errors.WithMessage(err, "after")
		}
		filter.After = after
	}
	if v := q.Get("stake"); v != "" {
		stake, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, errors.WithMessage(err, "stake")
		}
		filter.StakeID = &stake
	}
	return filter, nil
}

func (s *Subscriptions) handleSubscribeEvents(w http.ResponseWriter, req *http.Request) error {
	if s.node.Events() == nil {
		return utils.HTTPError(errors.New("event journal disabled"), http.StatusServiceUnavailable)
	}
	filter, err := parseFilter(req)
	if err != nil {
		return utils.BadRequest(err)
	}
	conn, err := s.upgrader.Upgrade(w, req, nil)
	if err != nil {
		// the upgrader already responded
		logger.Debug("upgrade failed", "err", err)
		return nil
	}

	s.wg.Add(1)
	defer s.wg.Done()
	defer conn.Close()

	if err := s.pipe(conn, filter); err != nil {
		logger.Debug("subscription closed", "err", err)
		msg := websocket.FormatCloseMessage(websocket.CloseInternalServerErr, err.Error())
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		return nil
	}
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	return nil
}

func (s *Subscriptions) pipe(conn *websocket.Conn, filter *eventdb.Filter) error {
	closed := make(chan struct{})
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		// take the waiter before reading, so no commit is missed in between
		waiter := s.node.EventWaiter()
		for {
			found, err := s.node.Events().Filter(filter)
			if err != nil {
				return err
			}
			for _, ev := range found {
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteJSON(events.ConvertEvent(ev)); err != nil {
					return nil
				}
				filter.After = ev.Seq
			}
			if len(found) < pageSize {
				break
			}
		}

		select {
		case <-s.done:
			return nil
		case <-closed:
			return nil
		case <-waiter:
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return nil
			}
		}
	}
}

// Close ends every open subscription and waits for them.
func (s *Subscriptions) Close() {
	s.once.Do(func() {
		close(s.done)
	})
	s.wg.Wait()
}

func (s *Subscriptions) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/events").
		Methods(http.MethodGet).
		Name("WS /subscriptions/events").
		HandlerFunc(utils.WrapHandlerFunc(s.handleSubscribeEvents))
}
