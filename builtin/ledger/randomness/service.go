// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package randomness

import (
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/asset"
	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/builtin/solidity"
	"github.com/vechain/stakeledger/thor"
)

var (
	slotRequests       = thor.BytesToBytes32([]byte(("randomness-requests")))
	slotRequestCounter = thor.BytesToBytes32([]byte(("randomness-counter")))
)

// Request is a pending random reward: one item of Leg for Owner, its template picked by the
// oracle's word.
type Request struct {
	StakeID  uint64
	RuleID   uint64
	Owner    thor.Address
	Leg      asset.Asset
	Contents asset.Bundle
	Seed     thor.Bytes32
}

type Service struct {
	requests  *solidity.Mapping[thor.Bytes32, *Request]
	idCounter *solidity.Uint256
}

func New(sctx *solidity.Context) *Service {
	return &Service{
		requests:  solidity.NewMapping[thor.Bytes32, *Request](sctx, slotRequests),
		idCounter: solidity.NewUint256(sctx, slotRequestCounter),
	}
}

// Add stores req under the next id. The seed is derived from the id and the given entropy.
func (s *Service) Add(req *Request, entropy thor.Bytes32) (uint64, error) {
	id, err := s.idCounter.Increment()
	if err != nil {
		return 0, err
	}
	req.Seed = thor.Blake2b(thor.Uint64ToBytes32(id).Bytes(), entropy.Bytes())
	if err := s.requests.Set(thor.Uint64ToBytes32(id), req); err != nil {
		return 0, errors.Wrap(err, "failed to set request")
	}
	return id, nil
}

// Get returns pending request id, failing with RequestNotFound.
func (s *Service) Get(id uint64) (*Request, error) {
	exists, err := s.requests.Exists(thor.Uint64ToBytes32(id))
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, reverts.ErrRequestNotFound.WithMessagef("request %d", id)
	}
	return s.requests.Get(thor.Uint64ToBytes32(id))
}

// Remove deletes a fulfilled request.
func (s *Service) Remove(id uint64) {
	s.requests.Delete(thor.Uint64ToBytes32(id))
}

func (s *Service) Count() (uint64, error) {
	n, err := s.idCounter.Get()
	if err != nil {
		return 0, err
	}
	return n.Uint64(), nil
}
