// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package oracle

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/asset"
	"github.com/vechain/stakeledger/builtin/access"
	"github.com/vechain/stakeledger/builtin/ledger"
	"github.com/vechain/stakeledger/builtin/ledger/rules"
	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/builtin/tokens"
	"github.com/vechain/stakeledger/lvldb"
	"github.com/vechain/stakeledger/state"
	"github.com/vechain/stakeledger/thor"
	"github.com/vechain/stakeledger/xenv"
)

var (
	admin   = thor.BytesToAddress([]byte("admin"))
	alice   = thor.BytesToAddress([]byte("alice"))
	nftAddr = thor.BytesToAddress([]byte("nft"))
)

func TestProveVerify(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	o := New(key)
	assert.Equal(t, thor.Address(crypto.PubkeyToAddress(key.PublicKey)), o.Address())

	seed := thor.Blake2b([]byte("seed"))
	word, proof, err := o.Prove(seed)
	require.NoError(t, err)

	verified, err := Verify(&key.PublicKey, seed, proof)
	require.NoError(t, err)
	assert.Equal(t, word, verified)

	again, _, err := o.Prove(seed)
	require.NoError(t, err)
	assert.Equal(t, word, again, "words are deterministic per seed")

	other, err := crypto.GenerateKey()
	require.NoError(t, err)
	_, err = Verify(&other.PublicKey, seed, proof)
	assert.Error(t, err)
}

type fixture struct {
	ledger   *ledger.Ledger
	registry *tokens.Registry
	oracle   *Oracle
	now      uint64
}

func newFixture(t *testing.T) *fixture {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	st, err := state.New(db, 0)
	require.NoError(t, err)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	o := New(key)

	registry := tokens.NewRegistry(st)
	require.NoError(t, registry.DeployNonFungible(nftAddr).AddMinter(thor.LedgerAddress))
	require.NoError(t, registry.NativeToken().Mint(alice, big.NewInt(100)))

	acl := access.New(thor.AccessAddress, st)
	require.NoError(t, acl.Init(admin))
	require.NoError(t, acl.Grant(xenv.NewCall(admin, 0, nil), access.RuleAdmin, admin))
	require.NoError(t, acl.Grant(xenv.NewCall(admin, 0, nil), access.Oracle, o.Address()))

	l := ledger.New(thor.LedgerAddress, st, acl, registry)
	t.Cleanup(func() {
		l.Close()
		db.Close()
	})

	_, err = l.CreateRules(xenv.NewCall(admin, 0, nil), []*rules.Rule{{
		Deposit: asset.Bundle{asset.NewNative(big.NewInt(100))},
		Reward:  asset.Bundle{asset.NewNonFungible(nftAddr, big.NewInt(0)).WithAmount(big.NewInt(5))},
		Terms:   rules.Terms{Period: 10, Recurrent: true},
	}})
	require.NoError(t, err)
	_, err = l.Deposit(xenv.NewCall(alice, 1000, big.NewInt(100)), 1, thor.Address{}, nil)
	require.NoError(t, err)

	return &fixture{ledger: l, registry: registry, oracle: o, now: 1000}
}

func TestFulfill(t *testing.T) {
	f := newFixture(t)
	_, err := f.ledger.ReceiveReward(xenv.NewCall(alice, f.now+10, nil), 1, false, false)
	require.NoError(t, err)

	req, err := f.ledger.PendingRequest(1)
	require.NoError(t, err)
	word, _, err := f.oracle.Prove(req.Seed)
	require.NoError(t, err)

	item, err := f.oracle.Fulfill(xenv.NewCall(admin, f.now+11, nil), f.ledger, 1)
	require.NoError(t, err)

	nft := f.registry.NonFungibleToken(nftAddr)
	owner, err := nft.OwnerOf(item.ID)
	require.NoError(t, err)
	assert.Equal(t, alice, owner)
	template, err := nft.TemplateOf(item.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.Template(word, big.NewInt(5)), template)

	_, err = f.oracle.Fulfill(xenv.NewCall(admin, f.now+12, nil), f.ledger, 1)
	assert.True(t, errors.Is(err, reverts.ErrRequestNotFound))
}

func TestRun(t *testing.T) {
	f := newFixture(t)
	_, err := f.ledger.ReceiveReward(xenv.NewCall(alice, f.now+20, nil), 1, false, false)
	require.NoError(t, err)

	var lock sync.Mutex
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.oracle.Run(ctx, f.ledger, &lock, func() *xenv.Environment {
			return xenv.NewCall(f.oracle.Address(), f.now+30, nil)
		})
		close(done)
	}()

	nft := f.registry.NonFungibleToken(nftAddr)
	require.Eventually(t, func() bool {
		lock.Lock()
		defer lock.Unlock()
		n, err := nft.BalanceOf(alice)
		return err == nil && n.Int64() == 2
	}, 5*time.Second, 10*time.Millisecond, "both cycles are fulfilled")

	cancel()
	<-done
}
