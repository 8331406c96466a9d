// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package requests

import (
	"math/big"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/api/types"
	"github.com/vechain/stakeledger/api/utils"
	"github.com/vechain/stakeledger/asset"
	"github.com/vechain/stakeledger/builtin/ledger"
	"github.com/vechain/stakeledger/node"
	"github.com/vechain/stakeledger/xenv"
)

// Requests serves pending randomness requests, fulfilled by an account holding the oracle role.
type Requests struct {
	node *node.Node
}

func New(n *node.Node) *Requests {
	return &Requests{n}
}

type FulfillRequest struct {
	Word *math.HexOrDecimal256 `json:"word"`
}

func parseID(req *http.Request) (uint64, error) {
	id, err := strconv.ParseUint(mux.Vars(req)["id"], 10, 64)
	if err != nil {
		return 0, utils.BadRequest(errors.WithMessage(err, "id"))
	}
	return id, nil
}

func (r *Requests) handleGetRequest(w http.ResponseWriter, req *http.Request) error {
	id, err := parseID(req)
	if err != nil {
		return err
	}
	var out *types.Request
	if err := r.node.View(func(l *ledger.Ledger) error {
		pending, err := l.PendingRequest(id)
		if err != nil {
			return err
		}
		out = types.ConvertRequest(id, pending)
		return nil
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, out)
}

func (r *Requests) handleFulfill(w http.ResponseWriter, req *http.Request) error {
	caller, err := utils.Caller(req)
	if err != nil {
		return err
	}
	id, err := parseID(req)
	if err != nil {
		return err
	}
	var body FulfillRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if body.Word == nil {
		return utils.BadRequest(errors.New("word: required"))
	}

	var item asset.Asset
	events, err := r.node.Call(caller, nil, func(env *xenv.Environment) (err error) {
		item, err = r.node.Ledger().FulfillRandomness(env, id, new(big.Int).Set((*big.Int)(body.Word)))
		return
	})
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, utils.M{
		"item":   types.ConvertAsset(item),
		"events": types.ConvertEvents(events),
	})
}

func (r *Requests) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/{id:[0-9]+}").
		Methods(http.MethodGet).
		Name("GET /requests/{id}").
		HandlerFunc(utils.WrapHandlerFunc(r.handleGetRequest))
	sub.Path("/{id:[0-9]+}/fulfill").
		Methods(http.MethodPost).
		Name("POST /requests/{id}/fulfill").
		HandlerFunc(utils.WrapHandlerFunc(r.handleFulfill))
}
