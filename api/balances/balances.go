// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package balances

import (
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/api/types"
	"github.com/vechain/stakeledger/api/utils"
	"github.com/vechain/stakeledger/asset"
	"github.com/vechain/stakeledger/builtin/ledger"
	"github.com/vechain/stakeledger/node"
	"github.com/vechain/stakeledger/thor"
	"github.com/vechain/stakeledger/xenv"
)

// Balances serves the penalty pool, the deposit escrow and the reward pool.
type Balances struct {
	node *node.Node
}

func New(n *node.Node) *Balances {
	return &Balances{n}
}

// KeyRequest names a custody bucket.
type KeyRequest struct {
	Kind  string                `json:"kind"`
	Token *thor.Address         `json:"token"`
	ID    *math.HexOrDecimal256 `json:"id"`
}

func (k *KeyRequest) Key() (asset.Key, error) {
	kind, err := asset.ParseKind(k.Kind)
	if err != nil {
		return asset.Key{}, err
	}
	var token thor.Address
	if k.Token != nil {
		token = *k.Token
	}
	var id *big.Int
	if k.ID != nil {
		id = (*big.Int)(k.ID)
	}
	return asset.NewKey(kind, token, id), nil
}

type FundRequest struct {
	Assets types.Bundle `json:"assets"`
	// Value is the attached native amount, the native total of Assets when omitted.
	Value *math.HexOrDecimal256 `json:"value"`
}

func queryKey(req *http.Request) (asset.Key, error) {
	q := req.URL.Query()
	key, err := types.ParseKey(q.Get("kind"), q.Get("token"), q.Get("id"))
	if err != nil {
		return asset.Key{}, utils.BadRequest(err)
	}
	return key, nil
}

func (b *Balances) balance(w http.ResponseWriter, req *http.Request, read func(*ledger.Ledger, asset.Key) (*big.Int, error)) error {
	key, err := queryKey(req)
	if err != nil {
		return err
	}
	var amount *big.Int
	if err := b.node.View(func(l *ledger.Ledger) (err error) {
		amount, err = read(l, key)
		return
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, types.ConvertBalance(key, amount))
}

func (b *Balances) handleGetPenalty(w http.ResponseWriter, req *http.Request) error {
	return b.balance(w, req, (*ledger.Ledger).PenaltyBalance)
}

func (b *Balances) handleGetDeposit(w http.ResponseWriter, req *http.Request) error {
	return b.balance(w, req, (*ledger.Ledger).DepositBalance)
}

func (b *Balances) handleGetRewardPool(w http.ResponseWriter, req *http.Request) error {
	return b.balance(w, req, (*ledger.Ledger).RewardPoolBalance)
}

// handleGetTokenDeposit sums the escrow of a token over all its item ids.
func (b *Balances) handleGetTokenDeposit(w http.ResponseWriter, req *http.Request) error {
	return b.balance(w, req, func(l *ledger.Ledger, key asset.Key) (*big.Int, error) {
		return l.TokenDepositBalance(key.Kind, key.Token)
	})
}

func (b *Balances) handleWithdrawPenalty(w http.ResponseWriter, req *http.Request) error {
	caller, err := utils.Caller(req)
	if err != nil {
		return err
	}
	var body KeyRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	key, err := body.Key()
	if err != nil {
		return utils.BadRequest(err)
	}

	var amount *big.Int
	events, err := b.node.Call(caller, nil, func(env *xenv.Environment) (err error) {
		amount, err = b.node.Ledger().WithdrawBalance(env, key)
		return
	})
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, utils.M{
		"balance": types.ConvertBalance(key, amount),
		"events":  types.ConvertEvents(events),
	})
}

func (b *Balances) handleFundRewards(w http.ResponseWriter, req *http.Request) error {
	caller, err := utils.Caller(req)
	if err != nil {
		return err
	}
	var body FundRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	assets, err := body.Assets.Bundle()
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "assets"))
	}
	value := assets.NativeTotal()
	if body.Value != nil {
		value = (*big.Int)(body.Value)
	}

	events, err := b.node.Call(caller, value, func(env *xenv.Environment) error {
		return b.node.Ledger().FundRewards(env, assets)
	})
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, utils.M{"events": types.ConvertEvents(events)})
}

func (b *Balances) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/penalties").
		Methods(http.MethodGet).
		Name("GET /balances/penalties").
		HandlerFunc(utils.WrapHandlerFunc(b.handleGetPenalty))
	sub.Path("/penalties/withdraw").
		Methods(http.MethodPost).
		Name("POST /balances/penalties/withdraw").
		HandlerFunc(utils.WrapHandlerFunc(b.handleWithdrawPenalty))
	sub.Path("/deposits").
		Methods(http.MethodGet).
		Name("GET /balances/deposits").
		HandlerFunc(utils.WrapHandlerFunc(b.handleGetDeposit))
	sub.Path("/deposits/token").
		Methods(http.MethodGet).
		Name("GET /balances/deposits/token").
		HandlerFunc(utils.WrapHandlerFunc(b.handleGetTokenDeposit))
	sub.Path("/rewards").
		Methods(http.MethodGet).
		Name("GET /balances/rewards").
		HandlerFunc(utils.WrapHandlerFunc(b.handleGetRewardPool))
	sub.Path("/rewards/fund").
		Methods(http.MethodPost).
		Name("POST /balances/rewards/fund").
		HandlerFunc(utils.WrapHandlerFunc(b.handleFundRewards))
}
