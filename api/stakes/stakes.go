// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakes

import (
	"math/big"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/api/types"
	"github.com/vechain/stakeledger/api/utils"
	"github.com/vechain/stakeledger/builtin/ledger"
	"github.com/vechain/stakeledger/node"
	"github.com/vechain/stakeledger/thor"
	"github.com/vechain/stakeledger/xenv"
)

type Stakes struct {
	node *node.Node
}

func New(n *node.Node) *Stakes {
	return &Stakes{n}
}

// DepositRequest opens a stake. IDs holds one item identifier per deposit leg, Value is the
// attached native amount.
type DepositRequest struct {
	RuleID   uint64                  `json:"ruleID"`
	Referrer *thor.Address           `json:"referrer"`
	IDs      []*math.HexOrDecimal256 `json:"ids"`
	Value    *math.HexOrDecimal256   `json:"value"`
}

type DepositResult struct {
	StakeID uint64         `json:"stakeID"`
	Events  []*types.Event `json:"events"`
}

type RewardRequest struct {
	WithdrawDeposit bool `json:"withdrawDeposit"`
	BreakLastPeriod bool `json:"breakLastPeriod"`
}

type Decision struct {
	Action     string `json:"action"`
	Multiplier uint64 `json:"multiplier"`
	Reward     bool   `json:"reward"`
	Penalize   bool   `json:"penalize"`
}

type RewardResult struct {
	Decision Decision       `json:"decision"`
	Events   []*types.Event `json:"events"`
}

func parseUint(s, name string) (uint64, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, utils.BadRequest(errors.WithMessage(err, name))
	}
	return v, nil
}

func (s *Stakes) handleDeposit(w http.ResponseWriter, req *http.Request) error {
	caller, err := utils.Caller(req)
	if err != nil {
		return err
	}
	var body DepositRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	var referrer thor.Address
	if body.Referrer != nil {
		referrer = *body.Referrer
	}
	var ids []*big.Int
	for _, id := range body.IDs {
		if id == nil {
			ids = append(ids, new(big.Int))
			continue
		}
		ids = append(ids, (*big.Int)(id))
	}
	var value *big.Int
	if body.Value != nil {
		value = (*big.Int)(body.Value)
	}

	var stakeID uint64
	events, err := s.node.Call(caller, value, func(env *xenv.Environment) (err error) {
		stakeID, err = s.node.Ledger().Deposit(env, body.RuleID, referrer, ids)
		return
	})
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &DepositResult{StakeID: stakeID, Events: types.ConvertEvents(events)})
}

func (s *Stakes) handleGetStake(w http.ResponseWriter, req *http.Request) error {
	id, err := parseUint(mux.Vars(req)["id"], "id")
	if err != nil {
		return err
	}
	var stake *types.Stake
	if err := s.node.View(func(l *ledger.Ledger) error {
		found, err := l.Stake(id)
		if err != nil {
			return err
		}
		stake = types.ConvertStake(id, found)
		return nil
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, stake)
}

func (s *Stakes) handleReceiveReward(w http.ResponseWriter, req *http.Request) error {
	caller, err := utils.Caller(req)
	if err != nil {
		return err
	}
	id, err := parseUint(mux.Vars(req)["id"], "id")
	if err != nil {
		return err
	}
	var body RewardRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}

	var decision ledger.Decision
	events, err := s.node.Call(caller, nil, func(env *xenv.Environment) (err error) {
		decision, err = s.node.Ledger().ReceiveReward(env, id, body.WithdrawDeposit, body.BreakLastPeriod)
		return
	})
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &RewardResult{
		Decision: Decision{
			Action:     decision.Action.String(),
			Multiplier: decision.Multiplier,
			Reward:     decision.Reward,
			Penalize:   decision.Penalize,
		},
		Events: types.ConvertEvents(events),
	})
}

// handleOpenStakes counts the open stakes of a rule, of one account when account is given.
func (s *Stakes) handleOpenStakes(w http.ResponseWriter, req *http.Request) error {
	query := req.URL.Query()
	ruleID, err := parseUint(query.Get("rule"), "rule")
	if err != nil {
		return err
	}
	var account *thor.Address
	if v := query.Get("account"); v != "" {
		if account, err = thor.ParseAddress(v); err != nil {
			return utils.BadRequest(errors.WithMessage(err, "account"))
		}
	}

	var open uint64
	if err := s.node.View(func(l *ledger.Ledger) (err error) {
		if account != nil {
			open, err = l.OpenStakesOf(*account, ruleID)
		} else {
			open, err = l.OpenStakes(ruleID)
		}
		return
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, utils.M{"rule": ruleID, "open": open})
}

func (s *Stakes) handleGetCount(w http.ResponseWriter, _ *http.Request) error {
	var count uint64
	if err := s.node.View(func(l *ledger.Ledger) (err error) {
		count, err = l.StakeCount()
		return
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, utils.M{"count": count})
}

func (s *Stakes) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodPost).
		Name("POST /stakes").
		HandlerFunc(utils.WrapHandlerFunc(s.handleDeposit))
	sub.Path("/count").
		Methods(http.MethodGet).
		Name("GET /stakes/count").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetCount))
	sub.Path("/open").
		Methods(http.MethodGet).
		Name("GET /stakes/open").
		HandlerFunc(utils.WrapHandlerFunc(s.handleOpenStakes))
	sub.Path("/{id:[0-9]+}").
		Methods(http.MethodGet).
		Name("GET /stakes/{id}").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetStake))
	sub.Path("/{id:[0-9]+}/reward").
		Methods(http.MethodPost).
		Name("POST /stakes/{id}/reward").
		HandlerFunc(utils.WrapHandlerFunc(s.handleReceiveReward))
}
