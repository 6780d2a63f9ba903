// Package vault implements the VaultCreate transaction: a house account
// initializes its escrow vault at an address derived from its identity.
package vault

import (
	"errors"
	"strconv"

	"github.com/dicehouse/diced/internal/core/ledger/keylet"
	"github.com/dicehouse/diced/internal/core/tx"
	"github.com/dicehouse/diced/internal/core/tx/sle"
)

func init() {
	tx.Register(tx.TypeVaultCreate, func() tx.Transaction {
		return &VaultCreate{BaseTx: *tx.NewBaseTx(tx.TypeVaultCreate, "")}
	})
}

// VaultCreate creates the house vault and funds it with an initial deposit.
// A house has exactly one vault; its address and bump are fixed by the
// house identity, so attempting to create it twice fails on the insert.
type VaultCreate struct {
	tx.BaseTx

	// Deposit is the initial vault funding in native units (required)
	Deposit string `json:"Deposit"`
}

// NewVaultCreate creates a new VaultCreate transaction
func NewVaultCreate(account string, deposit uint64) *VaultCreate {
	return &VaultCreate{
		BaseTx:  *tx.NewBaseTx(tx.TypeVaultCreate, account),
		Deposit: strconv.FormatUint(deposit, 10),
	}
}

// Validate validates the VaultCreate transaction
func (v *VaultCreate) Validate() error {
	if err := v.BaseTx.Validate(); err != nil {
		return err
	}

	deposit, err := strconv.ParseUint(v.Deposit, 10, 64)
	if err != nil || deposit == 0 {
		return errors.New("temBAD_AMOUNT: Deposit must be a positive integer")
	}

	return nil
}

// Flatten returns a flat map of all transaction fields
func (v *VaultCreate) Flatten() (map[string]any, error) {
	m := v.Common.ToMap()
	m["Deposit"] = v.Deposit
	return m, nil
}

// Apply applies a VaultCreate transaction
func (v *VaultCreate) Apply(ctx *tx.ApplyContext) tx.Result {
	deposit, err := strconv.ParseUint(v.Deposit, 10, 64)
	if err != nil {
		return tx.TemINVALID
	}

	vaultKey, bump, ok := keylet.Vault(ctx.AccountID)
	if !ok {
		return tx.TefINTERNAL
	}

	if result := ctx.CheckReserveIncrease(ctx.Account.Balance, ctx.Account.OwnerCount); !result.IsSuccess() {
		return result
	}

	// The deposit must leave the house at or above its reserve floor
	// including the vault entry it is about to own.
	required, ok := tx.CheckedAdd(deposit, ctx.AccountReserve(ctx.Account.OwnerCount+1))
	if !ok {
		return tx.TecOVERFLOW
	}
	if ctx.Account.Balance < required {
		return tx.TecUNFUNDED
	}

	vaultEntry := &sle.Vault{
		House:   ctx.AccountID,
		Balance: deposit,
		Bump:    bump,
	}
	data, err := sle.SerializeVault(vaultEntry)
	if err != nil {
		return tx.TefINTERNAL
	}

	// The insert is the double-create defense: a second VaultCreate for
	// the same house derives the same key and fails here.
	if err := ctx.View.Insert(vaultKey, data); err != nil {
		return tx.TecDUPLICATE
	}

	ctx.Account.Balance -= deposit
	ctx.Account.OwnerCount++

	return tx.TesSUCCESS
}
