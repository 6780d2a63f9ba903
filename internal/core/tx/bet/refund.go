package bet

import (
	"errors"

	"github.com/dicehouse/diced/internal/core/ledger/keylet"
	"github.com/dicehouse/diced/internal/core/tx"
	"github.com/dicehouse/diced/internal/core/tx/sle"
)

func init() {
	tx.Register(tx.TypeBetRefund, func() tx.Transaction {
		return &Refund{BaseTx: *tx.NewBaseTx(tx.TypeBetRefund, "")}
	})
}

// Refund returns a stake to the player after the refund delay has
// elapsed without resolution. Only the player who placed the bet may
// refund it, and only once the current slot is strictly more than
// RefundDelaySlots past the placement slot.
type Refund struct {
	tx.BaseTx

	// House is the address of the house whose vault holds the stake (required)
	House string `json:"House"`

	// Seed identifies the bet, 32 hex characters little-endian (required)
	Seed string `json:"Seed"`
}

// NewRefund creates a new BetRefund transaction
func NewRefund(account, house string, seedLo, seedHi uint64) *Refund {
	return &Refund{
		BaseTx: *tx.NewBaseTx(tx.TypeBetRefund, account),
		House:  house,
		Seed:   EncodeSeed(seedLo, seedHi),
	}
}

// Validate validates the BetRefund transaction
func (r *Refund) Validate() error {
	if err := r.BaseTx.Validate(); err != nil {
		return err
	}

	if r.House == "" {
		return errors.New("temDST_NEEDED: House is required")
	}
	if _, err := decodeSeed(r.Seed); err != nil {
		return errors.New("temMALFORMED: " + err.Error())
	}

	return nil
}

// Flatten returns a flat map of all transaction fields
func (r *Refund) Flatten() (map[string]any, error) {
	m := r.Common.ToMap()
	m["House"] = r.House
	m["Seed"] = r.Seed
	return m, nil
}

// Apply applies a BetRefund transaction
func (r *Refund) Apply(ctx *tx.ApplyContext) tx.Result {
	seed, err := decodeSeed(r.Seed)
	if err != nil {
		return tx.TemINVALID
	}

	house, err := sle.DecodeAccountID(r.House)
	if err != nil {
		return tx.TemINVALID
	}

	vaultKey, vault, result := findVault(ctx, house)
	if !result.IsSuccess() {
		return result
	}

	betKey, _, ok := keylet.Bet(vaultKey.Key, seed)
	if !ok {
		return tx.TefINTERNAL
	}

	betData, err := ctx.View.Read(betKey)
	if err != nil {
		return tx.TefINTERNAL
	}
	if betData == nil {
		return tx.TecNO_TARGET
	}

	betEntry, err := sle.ParseBet(betData)
	if err != nil {
		return tx.TefINTERNAL
	}

	// Only the player who locked the stake may reclaim it
	if betEntry.Player != ctx.AccountID {
		return tx.TecNO_PERMISSION
	}

	// Timeout gate. The subtraction is checked: a placement slot in the
	// future (which a replayed or corrupted entry could carry) must fail
	// cleanly rather than wrap into an enormous elapsed value.
	elapsed, ok := tx.CheckedSub(ctx.Slot(), betEntry.Slot)
	if !ok {
		return tx.TecOVERFLOW
	}
	if elapsed <= ctx.Config.Dice.RefundDelaySlots {
		return tx.TecTOO_SOON
	}

	newVaultBalance, ok := tx.CheckedSub(vault.Balance, betEntry.Amount)
	if !ok {
		return tx.TecUNFUNDED
	}

	refund, ok := tx.CheckedAdd(betEntry.Amount, betEntry.Reserve)
	if !ok {
		return tx.TecOVERFLOW
	}
	newBalance, ok := tx.CheckedAdd(ctx.Account.Balance, refund)
	if !ok {
		return tx.TecOVERFLOW
	}

	// Stake back to the player, entry closed, reserve released —
	// one atomic step.
	if err := ctx.View.Erase(betKey); err != nil {
		return tx.TefINTERNAL
	}

	vault.Balance = newVaultBalance
	if result := updateVault(ctx, vaultKey, vault); !result.IsSuccess() {
		return result
	}

	ctx.Account.Balance = newBalance
	if ctx.Account.OwnerCount > 0 {
		ctx.Account.OwnerCount--
	}

	return tx.TesSUCCESS
}
