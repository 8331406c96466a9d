// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/asset"
	"github.com/vechain/stakeledger/builtin/access"
	"github.com/vechain/stakeledger/builtin/ledger/rules"
	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/builtin/tokens"
	"github.com/vechain/stakeledger/lvldb"
	"github.com/vechain/stakeledger/state"
	"github.com/vechain/stakeledger/thor"
	"github.com/vechain/stakeledger/xenv"
)

var (
	admin  = thor.BytesToAddress([]byte("admin"))
	alice  = thor.BytesToAddress([]byte("alice"))
	bob    = thor.BytesToAddress([]byte("bob"))
	carol  = thor.BytesToAddress([]byte("carol"))
	funder = thor.BytesToAddress([]byte("funder"))

	ftAddr  = thor.BytesToAddress([]byte("ft"))
	nftAddr = thor.BytesToAddress([]byte("nft"))
	boxAddr = thor.BytesToAddress([]byte("box"))
	mtAddr  = thor.BytesToAddress([]byte("mt"))

	nativeKey = asset.NewKey(asset.Native, thor.Address{}, nil)
	ftKey     = asset.NewKey(asset.Fungible, ftAddr, nil)
)

const genesisTime = 1_700_000_000

type LedgerTest struct {
	*Ledger
	t        *testing.T
	state    *state.State
	registry *tokens.Registry
	acl      *access.Access
	now      uint64
	events   chan []Event
}

func newTest(t *testing.T) *LedgerTest {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	st, err := state.New(db, 0)
	require.NoError(t, err)

	registry := tokens.NewRegistry(st)
	registry.DeployFungible(ftAddr)
	registry.DeployMulti(mtAddr)
	nft := registry.DeployNonFungible(nftAddr)
	box := registry.DeployComposite(boxAddr)
	for _, minter := range []thor.Address{thor.LedgerAddress, admin} {
		require.NoError(t, nft.AddMinter(minter))
		require.NoError(t, box.AddMinter(minter))
	}

	acl := access.New(thor.AccessAddress, st)
	require.NoError(t, acl.Init(admin))
	for _, role := range []access.Role{access.RuleAdmin, access.PenaltyAdmin, access.Oracle} {
		require.NoError(t, acl.Grant(xenv.NewCall(admin, 0, nil), role, admin))
	}

	l := New(thor.LedgerAddress, st, acl, registry)
	events := make(chan []Event, 1024)
	sub := l.SubscribeEvents(events)
	t.Cleanup(func() {
		sub.Unsubscribe()
		l.Close()
		db.Close()
	})

	return &LedgerTest{
		Ledger:   l,
		t:        t,
		state:    st,
		registry: registry,
		acl:      acl,
		now:      genesisTime,
		events:   events,
	}
}

func (lt *LedgerTest) call(caller thor.Address, value int64) *xenv.Environment {
	return xenv.NewCall(caller, lt.now, big.NewInt(value))
}

// Elapse moves the clock forward.
func (lt *LedgerTest) Elapse(seconds uint64) *LedgerTest {
	lt.now += seconds
	return lt
}

func (lt *LedgerTest) CreateRule(rule *rules.Rule) uint64 {
	ids, err := lt.CreateRules(lt.call(admin, 0), []*rules.Rule{rule})
	require.NoError(lt.t, err)
	require.Len(lt.t, ids, 1)
	return ids[0]
}

// GiveNative credits genesis native balance.
func (lt *LedgerTest) GiveNative(addr thor.Address, amount int64) *LedgerTest {
	require.NoError(lt.t, lt.registry.NativeToken().Mint(addr, big.NewInt(amount)))
	return lt
}

// GiveFungible mints fungible tokens to addr and approves the ledger to pull them.
func (lt *LedgerTest) GiveFungible(addr thor.Address, amount int64) *LedgerTest {
	ft := lt.registry.FungibleToken(ftAddr)
	require.NoError(lt.t, ft.Mint(addr, big.NewInt(amount)))
	allowance, err := ft.Allowance(addr, lt.Address())
	require.NoError(lt.t, err)
	require.NoError(lt.t, ft.Approve(lt.call(addr, 0), lt.Address(), allowance.Add(allowance, big.NewInt(amount))))
	return lt
}

// GiveItem mints an item of template to addr and lets the ledger pull it.
func (lt *LedgerTest) GiveItem(addr thor.Address, template int64) *big.Int {
	nft := lt.registry.NonFungibleToken(nftAddr)
	id, err := nft.Mint(lt.call(admin, 0), addr, big.NewInt(template))
	require.NoError(lt.t, err)
	require.NoError(lt.t, nft.SetApprovalForAll(lt.call(addr, 0), lt.Address(), true))
	return id
}

func (lt *LedgerTest) FundNative(amount int64) *LedgerTest {
	lt.GiveNative(funder, amount)
	require.NoError(lt.t, lt.FundRewards(lt.call(funder, amount), asset.Bundle{asset.NewNative(big.NewInt(amount))}))
	return lt
}

func (lt *LedgerTest) FundFungible(amount int64) *LedgerTest {
	lt.GiveFungible(funder, amount)
	require.NoError(lt.t, lt.FundRewards(lt.call(funder, 0), asset.Bundle{asset.NewFungible(ftAddr, big.NewInt(amount))}))
	return lt
}

func (lt *LedgerTest) NativeOf(addr thor.Address) int64 {
	bal, err := lt.registry.NativeToken().BalanceOf(addr)
	require.NoError(lt.t, err)
	return bal.Int64()
}

func (lt *LedgerTest) FungibleOf(addr thor.Address) int64 {
	bal, err := lt.registry.FungibleToken(ftAddr).BalanceOf(addr)
	require.NoError(lt.t, err)
	return bal.Int64()
}

func (lt *LedgerTest) PenaltyOf(key asset.Key) int64 {
	bal, err := lt.PenaltyBalance(key)
	require.NoError(lt.t, err)
	return bal.Int64()
}

// Drain returns every event batch delivered so far, flattened.
func (lt *LedgerTest) Drain() []Event {
	var all []Event
	for {
		select {
		case batch := <-lt.events:
			all = append(all, batch...)
		default:
			return all
		}
	}
}

// AssertConserved checks that custody equals escrow plus penalties plus the reward pool for keys.
func (lt *LedgerTest) AssertConserved(keys ...asset.Key) {
	for _, key := range keys {
		held, err := lt.Mover().Held(key)
		require.NoError(lt.t, err)
		escrow, err := lt.DepositBalance(key)
		require.NoError(lt.t, err)
		seized, err := lt.PenaltyBalance(key)
		require.NoError(lt.t, err)
		pool, err := lt.RewardPoolBalance(key)
		require.NoError(lt.t, err)

		owed := new(big.Int).Add(escrow, seized)
		owed.Add(owed, pool)
		if held.Cmp(owed) != 0 {
			lt.t.Fatalf("%v not conserved: held %v, escrow %v, penalties %v, pool %v\nmoves: %s",
				key, held, escrow, seized, pool, spew.Sdump(lt.Mover().Moves()))
		}
	}
}

func nativeRule(deposit, reward int64, period, penalty uint64, recurrent bool) *rules.Rule {
	r := &rules.Rule{
		Deposit: asset.Bundle{asset.NewNative(big.NewInt(deposit))},
		Terms: rules.Terms{
			Period:     period,
			PenaltyBps: penalty,
			Recurrent:  recurrent,
		},
	}
	if reward > 0 {
		r.Reward = asset.Bundle{asset.NewNative(big.NewInt(reward))}
	}
	return r
}

type TestFunc func(t *testing.T)

// TestSequence runs scripted ledger calls in order.
type TestSequence struct {
	lt *LedgerTest

	funcs []TestFunc
	mu    sync.Mutex
}

func NewSequence(lt *LedgerTest) *TestSequence {
	return &TestSequence{funcs: make([]TestFunc, 0), lt: lt}
}

func (st *TestSequence) AddFunc(f TestFunc) *TestSequence {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.funcs = append(st.funcs, f)
	return st
}

func (st *TestSequence) Deposit(owner thor.Address, ruleID uint64, value int64, expected *reverts.ErrRevert) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		id, err := st.lt.Deposit(st.lt.call(owner, value), ruleID, thor.Address{}, nil)
		if expected != nil {
			assert.True(t, errors.Is(err, expected), "deposit: expected %v, got %v", expected, err)
			return
		}
		require.NoError(t, err, "deposit of %v under rule %d", owner, ruleID)
		t.Logf("stake %d opened by %v", id, owner)
	})
}

func (st *TestSequence) Elapse(seconds uint64) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		st.lt.Elapse(seconds)
	})
}

func (st *TestSequence) ReceiveReward(owner thor.Address, stakeID uint64, withdraw, breakLast bool, expected *reverts.ErrRevert) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		_, err := st.lt.ReceiveReward(st.lt.call(owner, 0), stakeID, withdraw, breakLast)
		if expected != nil {
			assert.True(t, errors.Is(err, expected), "receiveReward: expected %v, got %v", expected, err)
			return
		}
		require.NoError(t, err, "receiveReward of stake %d", stakeID)
	})
}

func (st *TestSequence) AssertNative(addr thor.Address, expected int64) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		assert.Equal(t, expected, st.lt.NativeOf(addr), "native balance of %v", addr)
	})
}

func (st *TestSequence) AssertStake(stakeID uint64, active bool, cycles uint64) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		stake, err := st.lt.Stake(stakeID)
		require.NoError(t, err)
		assert.Equal(t, active, stake.Active, "stake %d active", stakeID)
		assert.Equal(t, cycles, stake.Cycles, "stake %d cycles", stakeID)
	})
}

func (st *TestSequence) AssertPenalty(key asset.Key, expected int64) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		assert.Equal(t, expected, st.lt.PenaltyOf(key), "penalty bucket %v", key)
	})
}

func (st *TestSequence) AssertConserved(keys ...asset.Key) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		st.lt.AssertConserved(keys...)
	})
}

func (st *TestSequence) Run(t *testing.T) {
	for _, f := range st.funcs {
		f(t)
	}
}
