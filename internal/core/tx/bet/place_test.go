package bet_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dicehouse/diced/internal/core/tx"
	"github.com/dicehouse/diced/internal/core/tx/bet"
	jtx "github.com/dicehouse/diced/internal/testing"
)

const houseDeposit = uint64(500_000_000)

func setupHouse(t *testing.T, env *jtx.TestEnv) *jtx.Account {
	t.Helper()
	house := jtx.NewAccount("house")
	env.Fund(house)
	res := env.CreateVault(house, houseDeposit)
	require.Equal(t, tx.TesSUCCESS, res.Code)
	return house
}

func TestPlaceBet(t *testing.T) {
	env := jtx.NewTestEnv(t)
	house := setupHouse(t, env)
	player := jtx.NewAccount("player")
	env.Fund(player)

	stake := uint64(50_000_000)
	balanceBefore := env.Balance(player)
	slot := env.Slot()

	res := env.PlaceBet(player, house, 7, 0, 50, stake)
	require.Equal(t, tx.TesSUCCESS, res.Code)

	// The stake and the entry reserve both leave the player.
	reserve := env.EntryReserve()
	require.Equal(t, balanceBefore-stake-reserve-res.Fee, env.Balance(player))
	require.Equal(t, uint32(1), env.OwnerCount(player))

	// The stake lands in the vault immediately.
	require.Equal(t, houseDeposit+stake, env.VaultBalance(house))

	entry := env.BetEntry(house, 7, 0)
	require.NotNil(t, entry)
	require.Equal(t, player.ID, entry.Player)
	require.Equal(t, env.VaultKey(house).Key, entry.Vault)
	require.Equal(t, uint8(50), entry.Roll)
	require.Equal(t, stake, entry.Amount)
	require.Equal(t, reserve, entry.Reserve)
	require.Equal(t, slot, entry.Slot)
}

func TestPlaceBetDuplicateSeed(t *testing.T) {
	env := jtx.NewTestEnv(t)
	house := setupHouse(t, env)
	player := jtx.NewAccount("player")
	rival := jtx.NewAccount("rival")
	env.Fund(player, rival)

	stake := uint64(50_000_000)
	require.Equal(t, tx.TesSUCCESS, env.PlaceBet(player, house, 99, 0, 50, stake).Code)

	// The same player cannot reuse the seed.
	res := env.PlaceBet(player, house, 99, 0, 60, stake)
	require.Equal(t, tx.TecDUPLICATE, res.Code)

	// Nor can anyone else, in this slot or a later one.
	require.Equal(t, tx.TecDUPLICATE, env.PlaceBet(rival, house, 99, 0, 50, stake).Code)
	env.Close()
	require.Equal(t, tx.TecDUPLICATE, env.PlaceBet(rival, house, 99, 0, 50, stake).Code)

	// The original bet is untouched.
	entry := env.BetEntry(house, 99, 0)
	require.NotNil(t, entry)
	require.Equal(t, player.ID, entry.Player)
	require.Equal(t, uint8(50), entry.Roll)
}

func TestPlaceBetSeedScopedToVault(t *testing.T) {
	env := jtx.NewTestEnv(t)
	house := setupHouse(t, env)
	other := jtx.NewAccount("other-house")
	player := jtx.NewAccount("player")
	env.Fund(other, player)
	require.Equal(t, tx.TesSUCCESS, env.CreateVault(other, houseDeposit).Code)

	// The same seed is independent per vault.
	stake := uint64(50_000_000)
	require.Equal(t, tx.TesSUCCESS, env.PlaceBet(player, house, 5, 5, 50, stake).Code)
	require.Equal(t, tx.TesSUCCESS, env.PlaceBet(player, other, 5, 5, 50, stake).Code)

	require.True(t, env.BetExists(house, 5, 5))
	require.True(t, env.BetExists(other, 5, 5))
	require.Equal(t, uint32(2), env.OwnerCount(player))
}

func TestPlaceBetDistinctSeeds(t *testing.T) {
	env := jtx.NewTestEnv(t)
	house := setupHouse(t, env)
	player := jtx.NewAccount("player")
	env.Fund(player)

	stake := uint64(20_000_000)
	require.Equal(t, tx.TesSUCCESS, env.PlaceBet(player, house, 1, 0, 50, stake).Code)
	require.Equal(t, tx.TesSUCCESS, env.PlaceBet(player, house, 2, 0, 50, stake).Code)

	// (lo, hi) halves are positional, not interchangeable.
	require.Equal(t, tx.TesSUCCESS, env.PlaceBet(player, house, 0, 1, 50, stake).Code)

	require.Equal(t, uint32(3), env.OwnerCount(player))
	require.Equal(t, houseDeposit+3*stake, env.VaultBalance(house))
}

func TestPlaceBetNoVault(t *testing.T) {
	env := jtx.NewTestEnv(t)
	player := jtx.NewAccount("player")
	stranger := jtx.NewAccount("stranger")
	env.Fund(player, stranger)

	res := env.PlaceBet(player, stranger, 1, 0, 50, 50_000_000)
	require.Equal(t, tx.TecNO_TARGET, res.Code)
}

func TestPlaceBetRollBounds(t *testing.T) {
	env := jtx.NewTestEnv(t)
	house := setupHouse(t, env)
	player := jtx.NewAccount("player")
	env.Fund(player)

	params := env.Params()
	stake := uint64(50_000_000)

	require.Equal(t, tx.TemBAD_ROLL, env.PlaceBet(player, house, 1, 0, params.RollMin-1, stake).Code)
	require.Equal(t, tx.TemBAD_ROLL, env.PlaceBet(player, house, 1, 0, params.RollMax+1, stake).Code)

	require.Equal(t, tx.TesSUCCESS, env.PlaceBet(player, house, 1, 0, params.RollMin, stake).Code)
	require.Equal(t, tx.TesSUCCESS, env.PlaceBet(player, house, 2, 0, params.RollMax, stake).Code)
}

func TestPlaceBetStakeBounds(t *testing.T) {
	env := jtx.NewTestEnv(t)
	house := setupHouse(t, env)
	player := jtx.NewAccount("player")
	env.Fund(player)

	params := env.Params()

	require.Equal(t, tx.TemBAD_AMOUNT, env.PlaceBet(player, house, 1, 0, 50, params.BetMin-1).Code)
	require.Equal(t, tx.TesSUCCESS, env.PlaceBet(player, house, 1, 0, 50, params.BetMin).Code)

	res := env.Submit(bet.NewPlace(player.Address, house.Address, 2, 0, 50, params.BetMax+1))
	require.Equal(t, tx.TemBAD_AMOUNT, res.Code)
}

func TestPlaceBetUnfunded(t *testing.T) {
	env := jtx.NewTestEnv(t)
	house := setupHouse(t, env)
	player := jtx.NewAccount("player")
	env.FundAmount(player, 30_000_000)

	// Stake within bounds but beyond what the player can cover with
	// the reserve on top.
	res := env.PlaceBet(player, house, 1, 0, 50, 29_000_000)
	require.Equal(t, tx.TecUNFUNDED, res.Code)
	require.False(t, env.BetExists(house, 1, 0))

	// The fee was still claimed.
	require.Equal(t, uint64(30_000_000)-res.Fee, env.Balance(player))
}

func TestPlaceBetConservation(t *testing.T) {
	env := jtx.NewTestEnv(t)
	house := setupHouse(t, env)
	player := jtx.NewAccount("player")
	env.Fund(player)

	require.Equal(t, env.TotalSupply(), env.CirculatingUnits()+env.DestroyedUnits())

	require.Equal(t, tx.TesSUCCESS, env.PlaceBet(player, house, 11, 0, 50, 50_000_000).Code)
	require.Equal(t, env.TotalSupply(), env.CirculatingUnits()+env.DestroyedUnits())

	env.Close()
	require.Equal(t, env.TotalSupply(), env.CirculatingUnits()+env.DestroyedUnits())
}
