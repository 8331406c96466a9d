// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
)

// Category groups revert codes by the kind of failure.
type Category uint8

const (
	Validation Category = iota + 1
	Timing
	State
	UnderlyingAsset
	Access
)

func (c Category) String() string {
	switch c {
	case Validation:
		return "validation"
	case Timing:
		return "timing"
	case State:
		return "state"
	case UnderlyingAsset:
		return "underlying-asset"
	case Access:
		return "access"
	}
	return "unknown"
}

// ErrRevert is a domain failure. A call failing with it leaves state untouched.
// Two reverts match under errors.Is when their codes are equal.
type ErrRevert struct {
	code     string
	category Category
	message  string
}

// Define declares a revert code.
func Define(category Category, code string) *ErrRevert {
	return &ErrRevert{code: code, category: category}
}

func (e *ErrRevert) Code() string         { return e.code }
func (e *ErrRevert) Category() Category   { return e.category }
func (e *ErrRevert) Message() string      { return e.message }
func (e *ErrRevert) Is(target error) bool { return isCode(target, e.code) }

func isCode(target error, code string) bool {
	t, ok := target.(*ErrRevert)
	return ok && t.code == code
}

func (e *ErrRevert) Error() string {
	if e.message == "" {
		return e.code
	}
	return e.code + ": " + e.message
}

// WithMessagef returns a copy of the revert carrying detail.
func (e *ErrRevert) WithMessagef(format string, args ...any) *ErrRevert {
	return &ErrRevert{
		code:     e.code,
		category: e.category,
		message:  fmt.Sprintf(format, args...),
	}
}

// Bytes returns the revert as abi encoded Error(string) data.
func (e *ErrRevert) Bytes() []byte {
	if e == nil {
		return nil
	}

	// 4-byte selector for Error(string)
	selector, _ := hex.DecodeString("08c379a0")
	msgBytes := []byte(e.Error())
	msgLen := uint64(len(msgBytes))

	// selector + offset (32 bytes) + length (32 bytes) + data (padded to 32)
	encoded := make([]byte, 0, 4+32+32+((len(msgBytes)+31)/32)*32)
	encoded = append(encoded, selector...)

	offset := make([]byte, 32)
	binary.BigEndian.PutUint64(offset[24:], 32)
	encoded = append(encoded, offset...)

	length := make([]byte, 32)
	binary.BigEndian.PutUint64(length[24:], msgLen)
	encoded = append(encoded, length...)

	data := make([]byte, ((len(msgBytes)+31)/32)*32)
	copy(data, msgBytes)
	encoded = append(encoded, data...)

	return encoded
}

// IsRevertErr returns whether err is, or wraps, a revert.
func IsRevertErr(err any) bool {
	_, ok := AsRevert(err)
	return ok
}

// AsRevert extracts the revert from err.
func AsRevert(err any) (*ErrRevert, bool) {
	if err == nil {
		return nil, false
	}
	e, ok := err.(error)
	if !ok {
		return nil, false
	}
	var re *ErrRevert
	if errors.As(e, &re) {
		return re, true
	}
	return nil, false
}

// Validation
var (
	ErrRuleNotFound       = Define(Validation, "RuleNotFound")
	ErrRuleNotActive      = Define(Validation, "RuleNotActive")
	ErrRuleInvalid        = Define(Validation, "RuleInvalid")
	ErrWrongTemplate      = Define(Validation, "WrongTemplate")
	ErrStakeLimitExceeded = Define(Validation, "StakeLimitExceeded")
	ErrInsufficientPay    = Define(Validation, "InsufficientPayment")
	ErrInvalidAsset       = Define(Validation, "InvalidAsset")
)

// Timing
var (
	ErrDepositNotComplete = Define(Timing, "DepositNotComplete")
)

// State
var (
	ErrStakeNotFound          = Define(State, "StakeNotFound")
	ErrNotStakeOwner          = Define(State, "NotStakeOwner")
	ErrStakeAlreadyWithdrawn  = Define(State, "StakeAlreadyWithdrawn")
	ErrZeroBalance            = Define(State, "ZeroBalance")
	ErrUnsupportedAssetKind   = Define(State, "UnsupportedAssetKind")
	ErrInsufficientRewardPool = Define(State, "InsufficientRewardPool")
	ErrRequestNotFound        = Define(State, "RequestNotFound")
	ErrReentrant              = Define(State, "ReentrantCall")
)

// UnderlyingAsset, raised by the asset contracts themselves.
var (
	ErrInsufficientBalance   = Define(UnderlyingAsset, "InsufficientBalance")
	ErrInsufficientAllowance = Define(UnderlyingAsset, "InsufficientAllowance")
	ErrNotOwner              = Define(UnderlyingAsset, "NotOwner")
	ErrNotApproved           = Define(UnderlyingAsset, "NotApproved")
	ErrTokenExists           = Define(UnderlyingAsset, "TokenExists")
	ErrTokenNotFound         = Define(UnderlyingAsset, "TokenNotFound")
	ErrZeroAddress           = Define(UnderlyingAsset, "ZeroAddress")
)

// Access
var (
	ErrUnauthorized = Define(Access, "Unauthorized")
	ErrPaused       = Define(Access, "Paused")
)
