package bet_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dicehouse/diced/internal/core/tx"
	"github.com/dicehouse/diced/internal/core/tx/bet"
	jtx "github.com/dicehouse/diced/internal/testing"
)

// TestHouseLifecycle walks a full session: the house opens a vault with
// a 2,000,000,000-unit bankroll, a player stakes against it, one bet
// settles and another times out and is refunded. Every balance is
// checked exactly at each step.
func TestHouseLifecycle(t *testing.T) {
	env := jtx.NewTestEnv(t)
	house := jtx.NewAccount("house")
	player := jtx.NewAccount("player")
	env.FundAmount(house, 3_000_000_000)
	env.FundAmount(player, 1_000_000_000)

	deposit := uint64(2_000_000_000)
	res := env.CreateVault(house, deposit)
	require.Equal(t, tx.TesSUCCESS, res.Code)
	require.Equal(t, uint64(3_000_000_000)-deposit-res.Fee, env.Balance(house))
	require.Equal(t, deposit, env.VaultBalance(house))

	// Two bets at the same target, different seeds.
	stake := uint64(100_000_000)
	roll := uint8(50)
	reserve := env.EntryReserve()
	placed := env.Slot()

	playerStart := env.Balance(player)
	res = env.PlaceBet(player, house, 1, 0, roll, stake)
	require.Equal(t, tx.TesSUCCESS, res.Code)
	res2 := env.PlaceBet(player, house, 2, 0, roll, stake)
	require.Equal(t, tx.TesSUCCESS, res2.Code)

	require.Equal(t, playerStart-2*(stake+reserve)-res.Fee-res2.Fee, env.Balance(player))
	require.Equal(t, deposit+2*stake, env.VaultBalance(house))
	require.Equal(t, uint32(2), env.OwnerCount(player))

	// The house settles the first bet.
	sig := env.SignBet(house, 1, 0)
	rolled := bet.RollFromSignature(sig)

	playerBefore := env.Balance(player)
	vaultBefore := env.VaultBalance(house)

	res = env.ResolveBetWithSignature(house, 1, 0, sig)
	require.Equal(t, tx.TesSUCCESS, res.Code)

	if rolled > roll {
		payout := stake * 10000 / (uint64(roll) * 100)
		require.Equal(t, playerBefore+payout+reserve, env.Balance(player))
		require.Equal(t, vaultBefore-payout, env.VaultBalance(house))
	} else {
		require.Equal(t, playerBefore+reserve, env.Balance(player))
		require.Equal(t, vaultBefore, env.VaultBalance(house))
	}
	require.False(t, env.BetExists(house, 1, 0))
	require.Equal(t, uint32(1), env.OwnerCount(player))

	// The house never settles the second bet; the player waits out the
	// timeout and reclaims the stake.
	env.CloseUntil(placed + env.Params().RefundDelaySlots + 1)

	playerBefore = env.Balance(player)
	vaultBefore = env.VaultBalance(house)

	res = env.RefundBet(player, house, 2, 0)
	require.Equal(t, tx.TesSUCCESS, res.Code)
	require.Equal(t, playerBefore+stake+reserve-res.Fee, env.Balance(player))
	require.Equal(t, vaultBefore-stake, env.VaultBalance(house))
	require.Equal(t, uint32(0), env.OwnerCount(player))

	// Nothing was created or lost along the way.
	require.Equal(t, env.TotalSupply(), env.CirculatingUnits()+env.DestroyedUnits())
}

// TestSignedLifecycle runs the core flow with real signatures all the
// way through the engine's verification path.
func TestSignedLifecycle(t *testing.T) {
	env := jtx.NewSignedTestEnv(t)
	house := jtx.NewAccount("house")
	player := jtx.NewAccount("player")
	env.Fund(house, player)

	require.Equal(t, tx.TesSUCCESS, env.CreateVault(house, 500_000_000).Code)
	require.Equal(t, tx.TesSUCCESS, env.PlaceBet(player, house, 1, 0, 50, 50_000_000).Code)
	require.Equal(t, tx.TesSUCCESS, env.ResolveBet(house, 1, 0).Code)

	require.False(t, env.BetExists(house, 1, 0))
	require.Equal(t, env.TotalSupply(), env.CirculatingUnits()+env.DestroyedUnits())
}
