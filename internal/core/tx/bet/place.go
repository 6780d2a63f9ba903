package bet

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/dicehouse/diced/internal/core/ledger/keylet"
	"github.com/dicehouse/diced/internal/core/tx"
	"github.com/dicehouse/diced/internal/core/tx/sle"
)

func init() {
	tx.Register(tx.TypeBetPlace, func() tx.Transaction {
		return &Place{BaseTx: *tx.NewBaseTx(tx.TypeBetPlace, "")}
	})
}

// Place locks a player stake against a house vault. The bet entry is
// created at the address derived from (vault, seed); creating the same
// (vault, seed) twice fails on the insert, which is the entire
// duplicate-seed defense.
type Place struct {
	tx.BaseTx

	// House is the address of the house whose vault takes the bet (required)
	House string `json:"House"`

	// Seed is the 128-bit bet seed, 32 hex characters little-endian (required)
	Seed string `json:"Seed"`

	// Roll is the player's roll target; the player wins if the resolved
	// roll is strictly greater (required)
	Roll uint8 `json:"Roll"`

	// Amount is the stake in native units (required)
	Amount string `json:"Amount"`
}

// NewPlace creates a new BetPlace transaction
func NewPlace(account, house string, seedLo, seedHi uint64, roll uint8, amount uint64) *Place {
	return &Place{
		BaseTx: *tx.NewBaseTx(tx.TypeBetPlace, account),
		House:  house,
		Seed:   EncodeSeed(seedLo, seedHi),
		Roll:   roll,
		Amount: strconv.FormatUint(amount, 10),
	}
}

// Validate validates the BetPlace transaction
func (p *Place) Validate() error {
	if err := p.BaseTx.Validate(); err != nil {
		return err
	}

	if p.House == "" {
		return errors.New("temDST_NEEDED: House is required")
	}
	if _, err := decodeSeed(p.Seed); err != nil {
		return errors.New("temMALFORMED: " + err.Error())
	}
	if amount, err := strconv.ParseUint(p.Amount, 10, 64); err != nil || amount == 0 {
		return errors.New("temBAD_AMOUNT: Amount must be a positive integer")
	}
	if p.Roll == 0 {
		return errors.New("temBAD_ROLL: Roll must be nonzero")
	}

	return nil
}

// ValidateWithConfig checks the roll target and stake against the game
// parameters the engine runs with.
func (p *Place) ValidateWithConfig(config tx.EngineConfig) error {
	if p.Roll < config.Dice.RollMin || p.Roll > config.Dice.RollMax {
		return fmt.Errorf("temBAD_ROLL: Roll must be between %d and %d", config.Dice.RollMin, config.Dice.RollMax)
	}

	amount, err := strconv.ParseUint(p.Amount, 10, 64)
	if err != nil {
		return errors.New("temBAD_AMOUNT: Amount must be a positive integer")
	}
	if amount < config.Dice.BetMin || (config.Dice.BetMax > 0 && amount > config.Dice.BetMax) {
		return errors.New("temBAD_AMOUNT: Amount outside stake bounds")
	}

	return nil
}

// Flatten returns a flat map of all transaction fields
func (p *Place) Flatten() (map[string]any, error) {
	m := p.Common.ToMap()
	m["House"] = p.House
	m["Seed"] = p.Seed
	m["Roll"] = uint32(p.Roll)
	m["Amount"] = p.Amount
	return m, nil
}

// Apply applies a BetPlace transaction
func (p *Place) Apply(ctx *tx.ApplyContext) tx.Result {
	amount, err := strconv.ParseUint(p.Amount, 10, 64)
	if err != nil {
		return tx.TemINVALID
	}

	seed, err := decodeSeed(p.Seed)
	if err != nil {
		return tx.TemINVALID
	}

	house, err := sle.DecodeAccountID(p.House)
	if err != nil {
		return tx.TemINVALID
	}

	vaultKey, vault, result := findVault(ctx, house)
	if !result.IsSuccess() {
		return result
	}

	// The stake and the entry reserve both leave the player now; the
	// reserve comes back when the bet closes.
	reserve := ctx.Config.ReserveIncrement
	total, ok := tx.CheckedAdd(amount, reserve)
	if !ok {
		return tx.TecOVERFLOW
	}
	if ctx.Account.Balance < total {
		return tx.TecUNFUNDED
	}

	newVaultBalance, ok := tx.CheckedAdd(vault.Balance, amount)
	if !ok {
		return tx.TecOVERFLOW
	}

	betKey, bump, ok := keylet.Bet(vaultKey.Key, seed)
	if !ok {
		return tx.TefINTERNAL
	}

	betEntry := &sle.Bet{
		Player:  ctx.AccountID,
		Vault:   vaultKey.Key,
		Seed:    seed,
		Roll:    p.Roll,
		Amount:  amount,
		Slot:    ctx.Slot(),
		Reserve: reserve,
		Bump:    bump,
	}
	data, err := sle.SerializeBet(betEntry)
	if err != nil {
		return tx.TefINTERNAL
	}

	// Exactly-once creation per (vault, seed): the insert refuses an
	// existing entry, regardless of who placed it or when.
	if err := ctx.View.Insert(betKey, data); err != nil {
		return tx.TecDUPLICATE
	}

	vault.Balance = newVaultBalance
	if result := updateVault(ctx, vaultKey, vault); !result.IsSuccess() {
		return result
	}

	ctx.Account.Balance -= total
	ctx.Account.OwnerCount++

	return tx.TesSUCCESS
}
