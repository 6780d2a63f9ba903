package service_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dicehouse/diced/internal/core/ledger/genesis"
	"github.com/dicehouse/diced/internal/core/ledger/service"
	"github.com/dicehouse/diced/internal/core/tx"
	"github.com/dicehouse/diced/internal/core/tx/payment"
	"github.com/dicehouse/diced/internal/core/tx/vault"
	"github.com/dicehouse/diced/internal/storage/database/memory"
	"github.com/dicehouse/diced/internal/storage/ledgerstore"
	jtx "github.com/dicehouse/diced/internal/testing"
)

func payFrom(from *jtx.Account, to *jtx.Account, amount uint64, seq uint32) *payment.Payment {
	p := payment.NewPayment(from.Address, to.Address, amount)
	p.SetSequence(seq)
	p.Fee = "10"
	return p
}

func newManager(t *testing.T, store *ledgerstore.Store) (*service.LedgerManager, *jtx.Account) {
	t.Helper()

	master := jtx.MasterAccount()
	m := service.NewLedgerManager(service.Config{
		ReserveBase:               10_000_000,
		SkipSignatureVerification: true,
		Standalone:                true,
	}, nil)
	if store != nil {
		m.AttachStore(store)
	}

	err := m.Initialize(context.Background(), genesis.Config{
		MasterAccount: master.ID,
		CloseTime:     time.Unix(1700000000, 0),
	})
	require.NoError(t, err)
	return m, master
}

func TestInitializeAndSubmit(t *testing.T) {
	m, master := newManager(t, nil)

	require.Equal(t, uint64(2), m.CurrentSlot())

	info, err := m.AccountInfo(master.Address)
	require.NoError(t, err)
	require.Equal(t, genesis.DefaultTotalSupply, info.Balance)

	alice := jtx.NewAccount("alice")
	res, err := m.Submit(payFrom(master, alice, 1_000_000_000, 1))
	require.NoError(t, err)
	require.Equal(t, tx.TesSUCCESS, res.Result)

	info, err = m.AccountInfo(alice.Address)
	require.NoError(t, err)
	require.Equal(t, uint64(1_000_000_000), info.Balance)
}

func TestAcceptAdvancesSlots(t *testing.T) {
	m, master := newManager(t, nil)
	alice := jtx.NewAccount("alice")

	_, err := m.Submit(payFrom(master, alice, 1_000_000_000, 1))
	require.NoError(t, err)

	closed, err := m.Accept(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(2), closed.Sequence())
	require.Len(t, closed.Transactions(), 1)
	require.Equal(t, uint64(3), m.CurrentSlot())

	// State carries across the slot boundary.
	info, err := m.AccountInfo(alice.Address)
	require.NoError(t, err)
	require.Equal(t, uint64(1_000_000_000), info.Balance)
}

func TestVaultAndBetQueries(t *testing.T) {
	m, master := newManager(t, nil)
	house := jtx.NewAccount("house")
	player := jtx.NewAccount("player")

	fund := func(to *jtx.Account, seq uint32) {
		res, err := m.Submit(payFrom(master, to, 1_000_000_000, seq))
		require.NoError(t, err)
		require.Equal(t, tx.TesSUCCESS, res.Result)
	}
	fund(house, 1)
	fund(player, 2)

	vc := vault.NewVaultCreate(house.Address, 500_000_000)
	vc.SetSequence(1)
	vc.Fee = "10"
	res, err := m.Submit(vc)
	require.NoError(t, err)
	require.Equal(t, tx.TesSUCCESS, res.Result)

	v, _, err := m.VaultInfo(house.Address)
	require.NoError(t, err)
	require.Equal(t, uint64(500_000_000), v.Balance)
	require.Equal(t, house.ID, v.House)

	_, _, err = m.VaultInfo(player.Address)
	require.ErrorIs(t, err, service.ErrVaultNotFound)

	params, err := m.GameParams()
	require.NoError(t, err)
	require.Equal(t, genesis.DefaultParams(), *params)
}

func TestPersistenceAndResume(t *testing.T) {
	ctx := context.Background()
	db := memory.NewDB()
	store, err := ledgerstore.New(db)
	require.NoError(t, err)

	m, master := newManager(t, store)
	alice := jtx.NewAccount("alice")

	_, err = m.Submit(payFrom(master, alice, 1_000_000_000, 1))
	require.NoError(t, err)

	closed, err := m.Accept(ctx)
	require.NoError(t, err)

	// A fresh manager over the same database resumes instead of
	// recreating genesis.
	store2, err := ledgerstore.New(db)
	require.NoError(t, err)
	resumed, _ := newManager(t, store2)

	require.Equal(t, closed.Sequence()+1, resumed.CurrentSlot())

	info, err := resumed.AccountInfo(alice.Address)
	require.NoError(t, err)
	require.Equal(t, uint64(1_000_000_000), info.Balance)

	// Historical slots load back by sequence.
	loaded, err := resumed.LedgerBySequence(ctx, closed.Sequence())
	require.NoError(t, err)
	require.Equal(t, closed.Hash(), loaded.Hash())

	_, err = resumed.LedgerBySequence(ctx, 99)
	require.ErrorIs(t, err, service.ErrLedgerNotFound)
}

func TestSubmitSerializesConcurrentSequences(t *testing.T) {
	m, master := newManager(t, nil)

	// Race 16 payments all carrying the master's current sequence.
	// Exactly one may consume it; the rest must fail preclaim as stale.
	const racers = 16
	results := make([]tx.ApplyResult, racers)
	errs := make([]error, racers)

	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		dest := jtx.NewAccount(fmt.Sprintf("racer%d", i))
		p := payFrom(master, dest, 50_000_000, 1)
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = m.Submit(p)
		}(i)
	}
	wg.Wait()

	var succeeded int
	for i, res := range results {
		require.NoError(t, errs[i])
		if res.Result == tx.TesSUCCESS {
			succeeded++
		} else {
			require.Equal(t, tx.TefPAST_SEQ, res.Result)
			require.False(t, res.Applied)
		}
	}
	require.Equal(t, 1, succeeded)

	info, err := m.AccountInfo(master.Address)
	require.NoError(t, err)
	require.Equal(t, uint32(2), info.Sequence)
	require.Equal(t, genesis.DefaultTotalSupply-50_000_000-10, info.Balance)
}

func TestSubmitBeforeInitialize(t *testing.T) {
	m := service.NewLedgerManager(service.Config{}, nil)

	p := payment.NewPayment(jtx.MasterAccount().Address, jtx.NewAccount("x").Address, 1)
	_, err := m.Submit(p)
	require.ErrorIs(t, err, service.ErrNotInitialized)
}
