// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakes

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/asset"
	"github.com/vechain/stakeledger/builtin/ledger/custody"
	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/builtin/solidity"
	"github.com/vechain/stakeledger/thor"
)

var (
	slotStakes        = thor.BytesToBytes32([]byte(("stakes")))
	slotStakesCounter = thor.BytesToBytes32([]byte(("stakes-counter")))
)

// Service tracks stakes and the escrow they hold.
type Service struct {
	stakes    *solidity.Mapping[thor.Bytes32, *Stake]
	idCounter *solidity.Uint256

	escrow      *custody.Table // per asset key
	tokenEscrow *custody.Table // per (kind, token)
}

func New(sctx *solidity.Context) *Service {
	return &Service{
		stakes:      solidity.NewMapping[thor.Bytes32, *Stake](sctx, slotStakes),
		idCounter:   solidity.NewUint256(sctx, slotStakesCounter),
		escrow:      custody.NewTable(sctx, "escrow"),
		tokenEscrow: custody.NewTable(sctx, "token-escrow"),
	}
}

// Add stores a new stake and books its deposit into escrow.
func (s *Service) Add(stake *Stake) (uint64, error) {
	id, err := s.idCounter.Increment()
	if err != nil {
		return 0, err
	}
	if err := s.stakes.Set(thor.Uint64ToBytes32(id), stake); err != nil {
		return 0, errors.Wrap(err, "failed to set stake")
	}
	for _, a := range stake.Deposited {
		if err := s.escrow.Add(a.Key(), a.Quantity()); err != nil {
			return 0, err
		}
		if err := s.tokenEscrow.Add(a.Key().TokenKey(), a.Quantity()); err != nil {
			return 0, err
		}
	}
	return id, nil
}

// Get returns stake id, failing with StakeNotFound.
func (s *Service) Get(id uint64) (*Stake, error) {
	exists, err := s.stakes.Exists(thor.Uint64ToBytes32(id))
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, reverts.ErrStakeNotFound.WithMessagef("stake %d", id)
	}
	stake, err := s.stakes.Get(thor.Uint64ToBytes32(id))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get stake")
	}
	return stake, nil
}

// Continue records cycles paid without terminating the stake.
func (s *Service) Continue(id uint64, stake *Stake, cycles, now uint64) error {
	stake.Cycles += cycles
	stake.Start = now
	return s.stakes.Set(thor.Uint64ToBytes32(id), stake)
}

// Close flips the stake inactive and releases its deposit from escrow. It is the only
// terminal transition of a stake.
func (s *Service) Close(id uint64, stake *Stake, cycles uint64) error {
	if !stake.Active {
		return reverts.ErrStakeAlreadyWithdrawn.WithMessagef("stake %d", id)
	}
	stake.Cycles += cycles
	stake.Active = false
	if err := s.stakes.Set(thor.Uint64ToBytes32(id), stake); err != nil {
		return err
	}
	for _, a := range stake.Deposited {
		if err := s.escrow.Sub(a.Key(), a.Quantity(), reverts.ErrZeroBalance); err != nil {
			return errors.WithMessage(err, "escrow")
		}
		if err := s.tokenEscrow.Sub(a.Key().TokenKey(), a.Quantity(), reverts.ErrZeroBalance); err != nil {
			return errors.WithMessage(err, "token escrow")
		}
	}
	return nil
}

// Count returns the number of stakes ever opened, which is also the last id.
func (s *Service) Count() (uint64, error) {
	n, err := s.idCounter.Get()
	if err != nil {
		return 0, err
	}
	return n.Uint64(), nil
}

// Escrowed returns the quantity of key held for open stakes.
func (s *Service) Escrowed(key asset.Key) (*big.Int, error) {
	return s.escrow.Get(key)
}

// TokenEscrowed returns the quantity of a token held for open stakes, across item ids.
func (s *Service) TokenEscrowed(kind asset.Kind, token thor.Address) (*big.Int, error) {
	return s.tokenEscrow.Get(asset.NewKey(kind, token, nil))
}
