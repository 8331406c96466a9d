// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rules

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/api/types"
	"github.com/vechain/stakeledger/api/utils"
	"github.com/vechain/stakeledger/builtin/ledger"
	ledgerrules "github.com/vechain/stakeledger/builtin/ledger/rules"
	"github.com/vechain/stakeledger/node"
	"github.com/vechain/stakeledger/xenv"
)

type Rules struct {
	node *node.Node
}

func New(n *node.Node) *Rules {
	return &Rules{n}
}

type CreateResult struct {
	IDs    []uint64       `json:"ids"`
	Events []*types.Event `json:"events"`
}

type Activation struct {
	Active bool `json:"active"`
}

func parseID(req *http.Request) (uint64, error) {
	id, err := strconv.ParseUint(mux.Vars(req)["id"], 10, 64)
	if err != nil {
		return 0, utils.BadRequest(errors.WithMessage(err, "id"))
	}
	return id, nil
}

func (r *Rules) handleGetRule(w http.ResponseWriter, req *http.Request) error {
	id, err := parseID(req)
	if err != nil {
		return err
	}
	var rule *types.Rule
	if err := r.node.View(func(l *ledger.Ledger) error {
		found, err := l.Rule(id)
		if err != nil {
			return err
		}
		rule = types.ConvertRule(id, found)
		return nil
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, rule)
}

func (r *Rules) handleGetCount(w http.ResponseWriter, _ *http.Request) error {
	var count uint64
	if err := r.node.View(func(l *ledger.Ledger) (err error) {
		count, err = l.RuleCount()
		return
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, utils.M{"count": count})
}

func (r *Rules) handleCreateRules(w http.ResponseWriter, req *http.Request) error {
	caller, err := utils.Caller(req)
	if err != nil {
		return err
	}
	var body []types.Rule
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	batch := make([]*ledgerrules.Rule, 0, len(body))
	for i := range body {
		rule, err := body[i].Rule()
		if err != nil {
			return utils.BadRequest(errors.WithMessagef(err, "rule %d", i))
		}
		batch = append(batch, rule)
	}

	var ids []uint64
	events, err := r.node.Call(caller, nil, func(env *xenv.Environment) (err error) {
		ids, err = r.node.Ledger().CreateRules(env, batch)
		return
	})
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &CreateResult{IDs: ids, Events: types.ConvertEvents(events)})
}

func (r *Rules) handleSetActive(w http.ResponseWriter, req *http.Request) error {
	caller, err := utils.Caller(req)
	if err != nil {
		return err
	}
	id, err := parseID(req)
	if err != nil {
		return err
	}
	var body Activation
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	events, err := r.node.Call(caller, nil, func(env *xenv.Environment) error {
		return r.node.Ledger().SetRuleActive(env, id, body.Active)
	})
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, utils.M{"events": types.ConvertEvents(events)})
}

func (r *Rules) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodPost).
		Name("POST /rules").
		HandlerFunc(utils.WrapHandlerFunc(r.handleCreateRules))
	sub.Path("/count").
		Methods(http.MethodGet).
		Name("GET /rules/count").
		HandlerFunc(utils.WrapHandlerFunc(r.handleGetCount))
	sub.Path("/{id:[0-9]+}").
		Methods(http.MethodGet).
		Name("GET /rules/{id}").
		HandlerFunc(utils.WrapHandlerFunc(r.handleGetRule))
	sub.Path("/{id:[0-9]+}/active").
		Methods(http.MethodPost).
		Name("POST /rules/{id}/active").
		HandlerFunc(utils.WrapHandlerFunc(r.handleSetActive))
}
