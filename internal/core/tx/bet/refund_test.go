package bet_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dicehouse/diced/internal/core/tx"
	jtx "github.com/dicehouse/diced/internal/testing"
)

func TestRefundAfterTimeout(t *testing.T) {
	env := jtx.NewTestEnv(t)
	house := setupHouse(t, env)
	player := jtx.NewAccount("player")
	env.Fund(player)

	stake := uint64(50_000_000)
	placed := env.Slot()
	require.Equal(t, tx.TesSUCCESS, env.PlaceBet(player, house, 3, 0, 50, stake).Code)

	env.CloseUntil(placed + env.Params().RefundDelaySlots + 1)

	balanceBefore := env.Balance(player)
	vaultBefore := env.VaultBalance(house)

	res := env.RefundBet(player, house, 3, 0)
	require.Equal(t, tx.TesSUCCESS, res.Code)

	// Stake and reserve come back to the player; the vault gives the
	// stake up; the bet entry is gone.
	require.Equal(t, balanceBefore+stake+env.EntryReserve()-res.Fee, env.Balance(player))
	require.Equal(t, vaultBefore-stake, env.VaultBalance(house))
	require.False(t, env.BetExists(house, 3, 0))
	require.Equal(t, uint32(0), env.OwnerCount(player))
}

func TestRefundGateBoundary(t *testing.T) {
	env := jtx.NewTestEnv(t)
	house := setupHouse(t, env)
	player := jtx.NewAccount("player")
	env.Fund(player)

	placed := env.Slot()
	require.Equal(t, tx.TesSUCCESS, env.PlaceBet(player, house, 4, 0, 50, 50_000_000).Code)

	delay := env.Params().RefundDelaySlots

	// Exactly delay slots elapsed: still too soon. The gate is strict.
	env.CloseUntil(placed + delay)
	res := env.RefundBet(player, house, 4, 0)
	require.Equal(t, tx.TecTOO_SOON, res.Code)
	require.True(t, res.Applied)
	require.True(t, env.BetExists(house, 4, 0))

	// One more slot and the refund goes through.
	env.Close()
	require.Equal(t, tx.TesSUCCESS, env.RefundBet(player, house, 4, 0).Code)
	require.False(t, env.BetExists(house, 4, 0))
}

func TestRefundTooSoonImmediately(t *testing.T) {
	env := jtx.NewTestEnv(t)
	house := setupHouse(t, env)
	player := jtx.NewAccount("player")
	env.Fund(player)

	require.Equal(t, tx.TesSUCCESS, env.PlaceBet(player, house, 5, 0, 50, 50_000_000).Code)

	balanceBefore := env.Balance(player)
	res := env.RefundBet(player, house, 5, 0)
	require.Equal(t, tx.TecTOO_SOON, res.Code)

	// The failed attempt still costs the fee.
	require.Equal(t, balanceBefore-res.Fee, env.Balance(player))
	require.True(t, env.BetExists(house, 5, 0))
}

func TestRefundOnlyPlayer(t *testing.T) {
	env := jtx.NewTestEnv(t)
	house := setupHouse(t, env)
	player := jtx.NewAccount("player")
	rival := jtx.NewAccount("rival")
	env.Fund(player, rival)

	placed := env.Slot()
	require.Equal(t, tx.TesSUCCESS, env.PlaceBet(player, house, 6, 0, 50, 50_000_000).Code)
	env.CloseUntil(placed + env.Params().RefundDelaySlots + 1)

	// Neither a bystander nor the house may reclaim the stake.
	require.Equal(t, tx.TecNO_PERMISSION, env.RefundBet(rival, house, 6, 0).Code)
	require.Equal(t, tx.TecNO_PERMISSION, env.RefundBet(house, house, 6, 0).Code)

	require.Equal(t, tx.TesSUCCESS, env.RefundBet(player, house, 6, 0).Code)
}

func TestRefundNoBet(t *testing.T) {
	env := jtx.NewTestEnv(t)
	house := setupHouse(t, env)
	player := jtx.NewAccount("player")
	env.Fund(player)

	res := env.RefundBet(player, house, 123, 456)
	require.Equal(t, tx.TecNO_TARGET, res.Code)
}

func TestRefundTwice(t *testing.T) {
	env := jtx.NewTestEnv(t)
	house := setupHouse(t, env)
	player := jtx.NewAccount("player")
	env.Fund(player)

	placed := env.Slot()
	require.Equal(t, tx.TesSUCCESS, env.PlaceBet(player, house, 8, 0, 50, 50_000_000).Code)
	env.CloseUntil(placed + env.Params().RefundDelaySlots + 1)

	require.Equal(t, tx.TesSUCCESS, env.RefundBet(player, house, 8, 0).Code)

	// The entry is gone; a replay finds nothing.
	require.Equal(t, tx.TecNO_TARGET, env.RefundBet(player, house, 8, 0).Code)
}

func TestRefundConservation(t *testing.T) {
	env := jtx.NewTestEnv(t)
	house := setupHouse(t, env)
	player := jtx.NewAccount("player")
	env.Fund(player)

	placed := env.Slot()
	require.Equal(t, tx.TesSUCCESS, env.PlaceBet(player, house, 9, 0, 50, 50_000_000).Code)
	env.CloseUntil(placed + env.Params().RefundDelaySlots + 1)
	require.Equal(t, tx.TesSUCCESS, env.RefundBet(player, house, 9, 0).Code)

	require.Equal(t, env.TotalSupply(), env.CirculatingUnits()+env.DestroyedUnits())
}
