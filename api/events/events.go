// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/api/utils"
	"github.com/vechain/stakeledger/eventdb"
	"github.com/vechain/stakeledger/thor"
)

// Events queries the journal of committed ledger events.
type Events struct {
	db    *eventdb.EventDB
	limit uint64
}

func New(db *eventdb.EventDB, limit uint64) *Events {
	return &Events{db, limit}
}

// FilteredEvent is one journaled event.
type FilteredEvent struct {
	Seq     uint64          `json:"seq"`
	Call    uint64          `json:"call"`
	Index   uint32          `json:"index"`
	Time    uint64          `json:"time"`
	Name    string          `json:"name"`
	RuleID  uint64          `json:"ruleID,omitempty"`
	StakeID uint64          `json:"stakeID,omitempty"`
	Account *thor.Address   `json:"account,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func ConvertEvent(e *eventdb.Event) *FilteredEvent {
	out := &FilteredEvent{
		Seq:     e.Seq,
		Call:    e.Call,
		Index:   e.Index,
		Time:    e.Time,
		Name:    e.Name,
		RuleID:  e.RuleID,
		StakeID: e.StakeID,
		Account: e.Account,
	}
	if len(e.Data) > 0 && string(e.Data) != "null" {
		out.Data = json.RawMessage(e.Data)
	}
	return out
}

// Filter runs filter, capping the page size at the configured limit.
func (e *Events) Filter(filter *eventdb.Filter) ([]*FilteredEvent, error) {
	if filter.Order != "" && filter.Order != eventdb.ASC && filter.Order != eventdb.DESC {
		return nil, utils.BadRequest(errors.Errorf("order: unsupported %q", filter.Order))
	}
	if filter.Options == nil {
		filter.Options = &eventdb.Options{Limit: e.limit}
	}
	if filter.Options.Limit == 0 || filter.Options.Limit > e.limit {
		return nil, utils.Forbidden(errors.Errorf("options.limit exceeds the maximum allowed value of %d", e.limit))
	}
	found, err := e.db.Filter(filter)
	if err != nil {
		return nil, err
	}
	out := make([]*FilteredEvent, 0, len(found))
	for _, ev := range found {
		out = append(out, ConvertEvent(ev))
	}
	return out, nil
}

func (e *Events) handleFilter(w http.ResponseWriter, req *http.Request) error {
	var filter eventdb.Filter
	if err := utils.ParseJSON(req.Body, &filter); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	found, err := e.Filter(&filter)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, found)
}

func (e *Events) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodPost).
		Name("POST /events").
		HandlerFunc(utils.WrapHandlerFunc(e.handleFilter))
}
