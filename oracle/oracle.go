// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package oracle fulfills the ledger's randomness requests with verifiable random words.
package oracle

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/event"
	"github.com/pkg/errors"
	"github.com/vechain/go-ecvrf"

	"github.com/vechain/stakeledger/asset"
	"github.com/vechain/stakeledger/builtin/ledger"
	"github.com/vechain/stakeledger/builtin/ledger/randomness"
	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/log"
	"github.com/vechain/stakeledger/thor"
	"github.com/vechain/stakeledger/xenv"
)

var logger = log.WithContext("pkg", "oracle")

// Ledger is the part of the ledger the oracle talks to.
type Ledger interface {
	PendingRequest(id uint64) (*randomness.Request, error)
	RequestCount() (uint64, error)
	FulfillRandomness(env *xenv.Environment, requestID uint64, word *big.Int) (asset.Asset, error)
	SubscribeEvents(ch chan []ledger.Event) event.Subscription
}

// Oracle proves request seeds with ECVRF over secp256k1 and submits the output as the random word.
type Oracle struct {
	key  *ecdsa.PrivateKey
	addr thor.Address
}

func New(key *ecdsa.PrivateKey) *Oracle {
	return &Oracle{
		key:  key,
		addr: thor.Address(crypto.PubkeyToAddress(key.PublicKey)),
	}
}

// Address is the account the oracle calls the ledger from.
func (o *Oracle) Address() thor.Address {
	return o.addr
}

// Prove returns the random word of seed and its proof.
func (o *Oracle) Prove(seed thor.Bytes32) (*big.Int, []byte, error) {
	beta, proof, err := ecvrf.Secp256k1Sha256Tai.Prove(o.key, seed.Bytes())
	if err != nil {
		return nil, nil, errors.Wrap(err, "prove seed")
	}
	return new(big.Int).SetBytes(beta), proof, nil
}

// Verify checks proof against the oracle public key and returns the random word.
func Verify(pub *ecdsa.PublicKey, seed thor.Bytes32, proof []byte) (*big.Int, error) {
	beta, err := ecvrf.Secp256k1Sha256Tai.Verify(pub, seed.Bytes(), proof)
	if err != nil {
		return nil, errors.Wrap(err, "verify proof")
	}
	return new(big.Int).SetBytes(beta), nil
}

// Fulfill answers one pending request. The call is made by the oracle account within env.
func (o *Oracle) Fulfill(env *xenv.Environment, l Ledger, requestID uint64) (asset.Asset, error) {
	req, err := l.PendingRequest(requestID)
	if err != nil {
		return asset.Asset{}, err
	}
	word, proof, err := o.Prove(req.Seed)
	if err != nil {
		return asset.Asset{}, err
	}
	if _, err := Verify(&o.key.PublicKey, req.Seed, proof); err != nil {
		return asset.Asset{}, err
	}
	item, err := l.FulfillRandomness(env.Nested(o.addr), requestID, word)
	if err != nil {
		return asset.Asset{}, err
	}
	logger.Debug("request fulfilled", "request", requestID, "stake", req.StakeID, "item", item)
	return item, nil
}

// Run fulfills the requests left pending, then the ones the ledger announces, until ctx is done.
// Every ledger call is made while holding lock, newEnv builds the environment of each call.
func (o *Oracle) Run(ctx context.Context, l Ledger, lock sync.Locker, newEnv func() *xenv.Environment) {
	ch := make(chan []ledger.Event, 64)
	lock.Lock()
	sub := l.SubscribeEvents(ch)
	queue, err := pending(l)
	lock.Unlock()
	defer sub.Unsubscribe()
	if err != nil {
		logger.Warn("failed to list pending requests", "err", err)
	}

	for {
		if len(queue) > 0 {
			id := queue[0]
			queue = queue[1:]
			lock.Lock()
			_, err := o.Fulfill(newEnv(), l, id)
			lock.Unlock()
			if err != nil {
				logger.Warn("failed to fulfill request", "request", id, "err", err)
			}
		}

		var (
			batch []ledger.Event
			ok    bool
		)
		if len(queue) > 0 {
			select {
			case batch, ok = <-ch:
			default:
				continue
			}
		} else {
			select {
			case <-ctx.Done():
				return
			case <-sub.Err():
				return
			case batch, ok = <-ch:
			}
		}
		if !ok {
			return
		}
		for _, ev := range batch {
			if req, isReq := ev.(ledger.RandomnessRequested); isReq {
				queue = append(queue, req.RequestID)
			}
		}
	}
}

func pending(l Ledger) ([]uint64, error) {
	count, err := l.RequestCount()
	if err != nil {
		return nil, err
	}
	var ids []uint64
	for id := uint64(1); id <= count; id++ {
		if _, err := l.PendingRequest(id); err != nil {
			if errors.Is(err, reverts.ErrRequestNotFound) {
				continue
			}
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
