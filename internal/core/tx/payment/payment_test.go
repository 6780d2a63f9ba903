package payment_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dicehouse/diced/internal/core/tx"
	"github.com/dicehouse/diced/internal/core/tx/payment"
	jtx "github.com/dicehouse/diced/internal/testing"
)

func TestPaymentBetweenAccounts(t *testing.T) {
	env := jtx.NewTestEnv(t)
	alice := jtx.NewAccount("alice")
	bob := jtx.NewAccount("bob")
	env.Fund(alice, bob)

	aliceBefore := env.Balance(alice)
	bobBefore := env.Balance(bob)

	res := env.Pay(alice, bob, 25_000_000)
	require.Equal(t, tx.TesSUCCESS, res.Code)

	require.Equal(t, aliceBefore-25_000_000-res.Fee, env.Balance(alice))
	require.Equal(t, bobBefore+25_000_000, env.Balance(bob))
}

func TestPaymentCreatesAccount(t *testing.T) {
	env := jtx.NewTestEnv(t)
	alice := jtx.NewAccount("alice")
	fresh := jtx.NewAccount("fresh")
	env.Fund(alice)

	require.False(t, env.Exists(fresh))

	res := env.Pay(alice, fresh, 100_000_000)
	require.Equal(t, tx.TesSUCCESS, res.Code)

	require.True(t, env.Exists(fresh))
	require.Equal(t, uint64(100_000_000), env.Balance(fresh))
	require.Equal(t, uint32(1), env.Seq(fresh))
}

func TestPaymentBelowReserveCannotCreate(t *testing.T) {
	env := jtx.NewTestEnv(t)
	alice := jtx.NewAccount("alice")
	fresh := jtx.NewAccount("fresh")
	env.Fund(alice)

	// Creating an account takes at least the base reserve.
	res := env.Pay(alice, fresh, 100)
	require.Equal(t, tx.TecNO_DST, res.Code)
	require.False(t, env.Exists(fresh))

	// Topping up an existing account has no such floor.
	require.Equal(t, tx.TesSUCCESS, env.Pay(alice, fresh, 100_000_000).Code)
	require.Equal(t, tx.TesSUCCESS, env.Pay(alice, fresh, 100).Code)
	require.Equal(t, uint64(100_000_100), env.Balance(fresh))
}

func TestPaymentUnfunded(t *testing.T) {
	env := jtx.NewTestEnv(t)
	alice := jtx.NewAccount("alice")
	bob := jtx.NewAccount("bob")
	env.Fund(alice, bob)

	res := env.Pay(alice, bob, env.Balance(alice)+1)
	require.Equal(t, tx.TecUNFUNDED, res.Code)
}

func TestPaymentValidation(t *testing.T) {
	env := jtx.NewTestEnv(t)
	alice := jtx.NewAccount("alice")
	bob := jtx.NewAccount("bob")
	env.Fund(alice, bob)

	p := payment.NewPayment(alice.Address, bob.Address, 0)
	require.Equal(t, tx.TemBAD_AMOUNT, env.Submit(p).Code)

	p = payment.NewPayment(alice.Address, alice.Address, 1_000_000)
	require.Equal(t, tx.TemINVALID, env.Submit(p).Code)

	p = payment.NewPayment(alice.Address, "", 1_000_000)
	require.Equal(t, tx.TemDST_NEEDED, env.Submit(p).Code)
}
