// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/thor"
)

// Uint256 is a wrapper for storage and retrieval of an unsigned counter in a single slot.
// Zero clears the slot.
type Uint256 struct {
	context *Context
	pos     thor.Bytes32
}

func NewUint256(context *Context, pos thor.Bytes32) *Uint256 {
	return &Uint256{context: context, pos: pos}
}

func (u *Uint256) Get() (*big.Int, error) {
	value := new(big.Int)
	err := u.context.state.DecodeStorage(u.context.address, u.pos, func(raw []byte) error {
		if len(raw) == 0 {
			return nil
		}
		return rlp.DecodeBytes(raw, value)
	})
	return value, err
}

func (u *Uint256) Set(value *big.Int) error {
	if value.Sign() < 0 {
		return errors.New("uint256: negative value")
	}
	if value.Sign() == 0 {
		u.context.state.SetRawStorage(u.context.address, u.pos, nil)
		return nil
	}
	return u.context.state.EncodeStorage(u.context.address, u.pos, func() ([]byte, error) {
		return rlp.EncodeToBytes(value)
	})
}

func (u *Uint256) Add(value *big.Int) error {
	current, err := u.Get()
	if err != nil {
		return err
	}
	return u.Set(current.Add(current, value))
}

// Sub fails instead of wrapping when value exceeds the stored amount.
func (u *Uint256) Sub(value *big.Int) error {
	current, err := u.Get()
	if err != nil {
		return err
	}
	if current.Cmp(value) < 0 {
		return errors.Errorf("uint256: underflow, %v < %v", current, value)
	}
	return u.Set(current.Sub(current, value))
}

// Increment adds one and returns the new value, used by id counters.
func (u *Uint256) Increment() (uint64, error) {
	current, err := u.Get()
	if err != nil {
		return 0, err
	}
	current.Add(current, big.NewInt(1))
	if !current.IsUint64() {
		return 0, errors.New("uint256: counter overflow")
	}
	if err := u.Set(current); err != nil {
		return 0, err
	}
	return current.Uint64(), nil
}
