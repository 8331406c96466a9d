// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package xenv

import (
	"math/big"

	"github.com/vechain/stakeledger/thor"
)

// BlockContext block context.
type BlockContext struct {
	Number uint32
	Time   uint64
}

// TransactionContext transaction context.
type TransactionContext struct {
	ID     thor.Bytes32
	Origin thor.Address
}

// Environment is the context of one external call into the ledger.
type Environment struct {
	blockCtx *BlockContext
	txCtx    *TransactionContext
	caller   thor.Address
	value    *big.Int
}

// New create a new env. A nil value means no native value attached.
func New(blockCtx *BlockContext, txCtx *TransactionContext, caller thor.Address, value *big.Int) *Environment {
	if value == nil {
		value = new(big.Int)
	}
	return &Environment{
		blockCtx: blockCtx,
		txCtx:    txCtx,
		caller:   caller,
		value:    new(big.Int).Set(value),
	}
}

// NewCall is a shortcut for a call sent directly by caller at the given time.
func NewCall(caller thor.Address, time uint64, value *big.Int) *Environment {
	return New(&BlockContext{Time: time}, &TransactionContext{Origin: caller}, caller, value)
}

func (env *Environment) BlockContext() *BlockContext             { return env.blockCtx }
func (env *Environment) TransactionContext() *TransactionContext { return env.txCtx }
func (env *Environment) Caller() thor.Address                    { return env.caller }
func (env *Environment) Time() uint64                            { return env.blockCtx.Time }
func (env *Environment) Value() *big.Int                         { return new(big.Int).Set(env.value) }

// Nested returns the env seen by a call made by `caller` within the same transaction.
// Nested calls never carry native value.
func (env *Environment) Nested(caller thor.Address) *Environment {
	return &Environment{
		blockCtx: env.blockCtx,
		txCtx:    env.txCtx,
		caller:   caller,
		value:    new(big.Int),
	}
}
