// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package node

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/api/types"
	"github.com/vechain/stakeledger/asset"
	"github.com/vechain/stakeledger/builtin/access"
	"github.com/vechain/stakeledger/builtin/tokens"
	"github.com/vechain/stakeledger/thor"
	"github.com/vechain/stakeledger/xenv"
)

// Token deploys an asset contract at Address.
type Token struct {
	Kind    string       `yaml:"kind" json:"kind"`
	Address thor.Address `yaml:"address" json:"address"`
}

// Allocation credits Account with an asset at genesis. The ledger is approved to pull it.
type Allocation struct {
	Account     thor.Address `yaml:"account" json:"account"`
	types.Asset `yaml:",inline"`
}

// Genesis describes the initial world. Tokens are deployed on every start, everything else is
// applied once, when the state is empty.
type Genesis struct {
	Admin    thor.Address              `yaml:"admin" json:"admin"`
	Roles    map[string][]thor.Address `yaml:"roles" json:"roles"`
	Tokens   []Token                   `yaml:"tokens" json:"tokens"`
	Balances []Allocation              `yaml:"balances" json:"balances"`
	Paused   bool                      `yaml:"paused" json:"paused"`
}

// ParseRole accepts the role names used in configuration.
func ParseRole(name string) (access.Role, error) {
	for _, role := range []access.Role{access.RuleAdmin, access.PenaltyAdmin, access.Oracle} {
		if string(role) == name {
			return role, nil
		}
	}
	return "", errors.Errorf("unknown role %q", name)
}

func deployTokens(registry *tokens.Registry, list []Token) error {
	for _, t := range list {
		kind, err := asset.ParseKind(t.Kind)
		if err != nil {
			return errors.WithMessagef(err, "token %v", t.Address)
		}
		if t.Address.IsZero() {
			return errors.Errorf("%v token without address", kind)
		}
		switch kind {
		case asset.Fungible:
			registry.DeployFungible(t.Address)
		case asset.NonFungible:
			if err := registry.DeployNonFungible(t.Address).AddMinter(thor.LedgerAddress); err != nil {
				return err
			}
		case asset.Composite:
			if err := registry.DeployComposite(t.Address).AddMinter(thor.LedgerAddress); err != nil {
				return err
			}
		case asset.Multi:
			registry.DeployMulti(t.Address)
		default:
			return errors.Errorf("%v is not deployable", kind)
		}
	}
	return nil
}

func (n *Node) applyGenesis(gen *Genesis, time uint64) error {
	if gen.Admin.IsZero() {
		return errors.New("genesis: admin required")
	}
	if err := n.access.Init(gen.Admin); err != nil {
		return errors.WithMessage(err, "genesis: init access")
	}
	adminEnv := xenv.NewCall(gen.Admin, time, nil)
	for name, holders := range gen.Roles {
		role, err := ParseRole(name)
		if err != nil {
			return errors.WithMessage(err, "genesis")
		}
		for _, holder := range holders {
			if err := n.access.Grant(adminEnv, role, holder); err != nil {
				return errors.WithMessagef(err, "genesis: grant %v", role)
			}
		}
	}
	for i, alloc := range gen.Balances {
		if err := n.allocate(alloc, adminEnv); err != nil {
			return errors.WithMessagef(err, "genesis: balance %d", i)
		}
	}
	if gen.Paused {
		return n.access.Pause(adminEnv)
	}
	return nil
}

func (n *Node) allocate(alloc Allocation, adminEnv *xenv.Environment) error {
	a, err := alloc.Asset.Asset()
	if err != nil {
		return err
	}
	if err := a.Validate(); err != nil {
		return err
	}
	owner := xenv.NewCall(alloc.Account, adminEnv.Time(), nil)
	switch a.Kind {
	case asset.Native:
		return n.registry.NativeToken().Mint(alloc.Account, a.Amount)
	case asset.Fungible:
		ft := n.registry.FungibleToken(a.Token)
		if ft == nil {
			return errors.Errorf("fungible token %v not deployed", a.Token)
		}
		if err := ft.Mint(alloc.Account, a.Amount); err != nil {
			return err
		}
		allowance, err := ft.Allowance(alloc.Account, thor.LedgerAddress)
		if err != nil {
			return err
		}
		return ft.Approve(owner, thor.LedgerAddress, new(big.Int).Add(allowance, a.Amount))
	case asset.NonFungible, asset.Composite:
		nft := n.registry.NonFungibleToken(a.Token)
		if a.Kind == asset.Composite {
			if c := n.registry.CompositeToken(a.Token); c != nil {
				nft = c.NonFungible
			}
		}
		if nft == nil {
			return errors.Errorf("%v token %v not deployed", a.Kind, a.Token)
		}
		if err := nft.AddMinter(adminEnv.Caller()); err != nil {
			return err
		}
		for range a.Amount.Uint64() {
			// the item id doubles as the template
			if _, err := nft.Mint(adminEnv, alloc.Account, a.IDOrZero()); err != nil {
				return err
			}
		}
		return nft.SetApprovalForAll(owner, thor.LedgerAddress, true)
	case asset.Multi:
		mt := n.registry.MultiToken(a.Token)
		if mt == nil {
			return errors.Errorf("multi token %v not deployed", a.Token)
		}
		if err := mt.Mint(alloc.Account, a.IDOrZero(), a.Amount); err != nil {
			return err
		}
		return mt.SetApprovalForAll(owner, thor.LedgerAddress, true)
	}
	return errors.Errorf("unsupported kind %v", a.Kind)
}
