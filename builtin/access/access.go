// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package access

import (
	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/builtin/solidity"
	"github.com/vechain/stakeledger/log"
	"github.com/vechain/stakeledger/state"
	"github.com/vechain/stakeledger/thor"
	"github.com/vechain/stakeledger/xenv"
)

var logger = log.WithContext("pkg", "access")

// Role is a capability granted to addresses.
type Role string

const (
	RuleAdmin    Role = "rule-admin"
	PenaltyAdmin Role = "penalty-admin"
	Oracle       Role = "oracle"
)

var (
	slotAdmin    = thor.BytesToBytes32([]byte("admin"))
	slotSwitches = thor.BytesToBytes32([]byte("switches"))
	slotRoles    = thor.BytesToBytes32([]byte("roles"))
)

const pauseBit = 1

// Access is the role and pause gate of the ledger. The admin grants roles and flips the
// pause switch, everyone else only reads it.
type Access struct {
	admin    *solidity.Raw[thor.Address]
	switches *solidity.Uint256
	roles    *solidity.Mapping[thor.Bytes32, bool]
}

func New(addr thor.Address, state *state.State) *Access {
	sctx := solidity.NewContext(addr, state)
	return &Access{
		admin:    solidity.NewRaw[thor.Address](sctx, slotAdmin),
		switches: solidity.NewUint256(sctx, slotSwitches),
		roles:    solidity.NewMapping[thor.Bytes32, bool](sctx, slotRoles),
	}
}

func roleKey(role Role, addr thor.Address) thor.Bytes32 {
	return thor.Blake2b([]byte(role), addr.Bytes())
}

// Init sets the admin once.
func (a *Access) Init(admin thor.Address) error {
	current, err := a.admin.Get()
	if err != nil {
		return err
	}
	if !current.IsZero() {
		return reverts.ErrUnauthorized.WithMessagef("admin already set")
	}
	if admin.IsZero() {
		return reverts.ErrZeroAddress
	}
	return a.admin.Upsert(admin)
}

func (a *Access) Admin() (thor.Address, error) {
	return a.admin.Get()
}

func (a *Access) onlyAdmin(env *xenv.Environment) error {
	admin, err := a.admin.Get()
	if err != nil {
		return err
	}
	if admin.IsZero() || env.Caller() != admin {
		return reverts.ErrUnauthorized.WithMessagef("%v is not the admin", env.Caller())
	}
	return nil
}

func (a *Access) Grant(env *xenv.Environment, role Role, addr thor.Address) error {
	if err := a.onlyAdmin(env); err != nil {
		return err
	}
	logger.Info("role granted", "role", role, "addr", addr)
	return a.roles.Set(roleKey(role, addr), true)
}

func (a *Access) Revoke(env *xenv.Environment, role Role, addr thor.Address) error {
	if err := a.onlyAdmin(env); err != nil {
		return err
	}
	logger.Info("role revoked", "role", role, "addr", addr)
	a.roles.Delete(roleKey(role, addr))
	return nil
}

func (a *Access) HasRole(role Role, addr thor.Address) (bool, error) {
	return a.roles.Get(roleKey(role, addr))
}

// Require fails with Unauthorized unless addr holds role.
func (a *Access) Require(role Role, addr thor.Address) error {
	ok, err := a.HasRole(role, addr)
	if err != nil {
		return err
	}
	if !ok {
		return reverts.ErrUnauthorized.WithMessagef("%v lacks role %s", addr, role)
	}
	return nil
}

func (a *Access) Pause(env *xenv.Environment) error {
	return a.setPaused(env, true)
}

func (a *Access) Unpause(env *xenv.Environment) error {
	return a.setPaused(env, false)
}

func (a *Access) setPaused(env *xenv.Environment, paused bool) error {
	if err := a.onlyAdmin(env); err != nil {
		return err
	}
	switches, err := a.switches.Get()
	if err != nil {
		return err
	}
	if paused {
		switches.SetBit(switches, pauseBit-1, 1)
	} else {
		switches.SetBit(switches, pauseBit-1, 0)
	}
	logger.Info("pause switch", "paused", paused)
	return a.switches.Set(switches)
}

// Paused reports whether the pause switch is on.
func (a *Access) Paused() (bool, error) {
	switches, err := a.switches.Get()
	if err != nil {
		return false, err
	}
	return switches.Bit(pauseBit-1) == 1, nil
}

// RequireOpen fails with Paused while the pause switch is on.
func (a *Access) RequireOpen() error {
	paused, err := a.Paused()
	if err != nil {
		return err
	}
	if paused {
		return reverts.ErrPaused
	}
	return nil
}
