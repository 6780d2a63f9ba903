// Package genesis builds the first slot of a chain: one funded master
// account holding the whole supply, and the singleton game parameters
// entry the engine reads its wagering rules from.
package genesis

import (
	"errors"
	"time"

	"github.com/dicehouse/diced/internal/core/ledger"
	"github.com/dicehouse/diced/internal/core/ledger/keylet"
	"github.com/dicehouse/diced/internal/core/tx/sle"
)

// Default chain parameters.
const (
	DefaultTotalSupply = uint64(100_000_000_000_000_000) // 100 million coins at 10^9 units each

	DefaultRollMin          = uint8(2)
	DefaultRollMax          = uint8(96)
	DefaultBetMin           = uint64(10_000_000)
	DefaultBetMax           = uint64(1_000_000_000_000)
	DefaultRefundDelaySlots = uint64(50)
	DefaultBaseFee          = uint64(10)
	DefaultEntryReserve     = uint64(2_000_000)
)

// Config describes the genesis slot to create.
type Config struct {
	// MasterAccount receives the entire initial supply.
	MasterAccount [32]byte

	// TotalSupply is the number of native units created, all credited
	// to the master account.
	TotalSupply uint64

	// Params are the game parameters written into state.
	Params sle.DiceParams

	// CloseTime is the genesis close time; zero means now.
	CloseTime time.Time
}

// DefaultParams returns the game parameters a fresh chain starts with.
func DefaultParams() sle.DiceParams {
	return sle.DiceParams{
		RollMin:          DefaultRollMin,
		RollMax:          DefaultRollMax,
		BetMin:           DefaultBetMin,
		BetMax:           DefaultBetMax,
		RefundDelaySlots: DefaultRefundDelaySlots,
		BaseFee:          DefaultBaseFee,
		EntryReserve:     DefaultEntryReserve,
	}
}

// Create builds the genesis ledger at sequence 1.
func Create(cfg Config) (*ledger.Ledger, error) {
	if cfg.MasterAccount == ([32]byte{}) {
		return nil, errors.New("genesis: master account is required")
	}
	if cfg.TotalSupply == 0 {
		cfg.TotalSupply = DefaultTotalSupply
	}
	if cfg.Params == (sle.DiceParams{}) {
		cfg.Params = DefaultParams()
	}
	if cfg.Params.RollMin < 1 || cfg.Params.RollMax > 100 || cfg.Params.RollMin > cfg.Params.RollMax {
		return nil, errors.New("genesis: roll bounds must satisfy 1 <= min <= max <= 100")
	}
	if cfg.CloseTime.IsZero() {
		cfg.CloseTime = time.Now()
	}

	state := make(map[[32]byte][]byte)

	master := &sle.AccountRoot{
		Account:  cfg.MasterAccount,
		Balance:  cfg.TotalSupply,
		Sequence: 1,
	}
	masterData, err := sle.SerializeAccountRoot(master)
	if err != nil {
		return nil, err
	}
	state[keylet.Account(cfg.MasterAccount).Key] = masterData

	paramsData, err := sle.SerializeDiceParams(&cfg.Params)
	if err != nil {
		return nil, err
	}
	state[keylet.DiceParams().Key] = paramsData

	return ledger.NewClosed(1, [32]byte{}, state, cfg.TotalSupply, cfg.CloseTime), nil
}
