package bet

import (
	"encoding/hex"
	"errors"
	"strings"

	"github.com/dicehouse/diced/internal/core/ledger/keylet"
	"github.com/dicehouse/diced/internal/core/tx"
	"github.com/dicehouse/diced/internal/core/tx/sle"
	"github.com/dicehouse/diced/internal/crypto/ed25519"
)

func init() {
	tx.Register(tx.TypeBetResolve, func() tx.Transaction {
		return &Resolve{BaseTx: *tx.NewBaseTx(tx.TypeBetResolve, "")}
	})
}

// Resolve settles a bet held by the submitting house's vault. The house
// reveals its ed25519 signature over the bet commitment; the hash of
// that signature decides the outcome. A winning player is paid
// amount * 10000 / (roll * 100) from the vault, a losing stake stays
// with the vault, and in both cases the bet entry is closed and the
// player's reserve released.
type Resolve struct {
	tx.BaseTx

	// Seed identifies the bet within the house's vault, 32 hex characters (required)
	Seed string `json:"Seed"`

	// Signature is the house's 64-byte ed25519 signature over the bet
	// commitment, hex encoded (required)
	Signature string `json:"Signature"`
}

// NewResolve creates a new BetResolve transaction
func NewResolve(account string, seedLo, seedHi uint64, signature []byte) *Resolve {
	return &Resolve{
		BaseTx:    *tx.NewBaseTx(tx.TypeBetResolve, account),
		Seed:      EncodeSeed(seedLo, seedHi),
		Signature: strings.ToUpper(hex.EncodeToString(signature)),
	}
}

// Validate validates the BetResolve transaction
func (r *Resolve) Validate() error {
	if err := r.BaseTx.Validate(); err != nil {
		return err
	}

	if _, err := decodeSeed(r.Seed); err != nil {
		return errors.New("temMALFORMED: " + err.Error())
	}

	sig, err := hex.DecodeString(r.Signature)
	if err != nil || len(sig) != ed25519.SignatureLength {
		return errors.New("temBAD_SIGNATURE: Signature must be 64 hex-encoded bytes")
	}

	return nil
}

// Flatten returns a flat map of all transaction fields
func (r *Resolve) Flatten() (map[string]any, error) {
	m := r.Common.ToMap()
	m["Seed"] = r.Seed
	m["Signature"] = r.Signature
	return m, nil
}

// Apply applies a BetResolve transaction
func (r *Resolve) Apply(ctx *tx.ApplyContext) tx.Result {
	seed, err := decodeSeed(r.Seed)
	if err != nil {
		return tx.TemINVALID
	}
	sig, err := hex.DecodeString(r.Signature)
	if err != nil || len(sig) != ed25519.SignatureLength {
		return tx.TemINVALID
	}

	// Only the house that owns the vault can settle its bets.
	vaultKey, vault, result := findVault(ctx, ctx.AccountID)
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

	// The revealed signature has to be the house's signature over this
	// exact bet, otherwise the house could grind for a favorable roll.
	if !ed25519.Verify(ctx.AccountID, betEntry.CommitBytes(), sig) {
		return tx.TecNO_PERMISSION
	}

	roll := RollFromSignature(sig)

	// Player winnings: the payout on a win, plus the bet reserve in
	// every outcome.
	credit := betEntry.Reserve
	if roll > betEntry.Roll {
		payout, ok := tx.CheckedMulDiv(betEntry.Amount, 10000, uint64(betEntry.Roll)*100)
		if !ok {
			return tx.TecOVERFLOW
		}

		newVaultBalance, ok := tx.CheckedSub(vault.Balance, payout)
		if !ok {
			return tx.TecUNFUNDED
		}
		vault.Balance = newVaultBalance

		credit, ok = tx.CheckedAdd(credit, payout)
		if !ok {
			return tx.TecOVERFLOW
		}
	}

	// A house betting against its own vault is its own player. The
	// winnings have to land on ctx.Account: the engine writes that
	// struct back over the account entry last, and a credit staged
	// through the view would be lost under it.
	if betEntry.Player == ctx.AccountID {
		newBalance, ok := tx.CheckedAdd(ctx.Account.Balance, credit)
		if !ok {
			return tx.TecOVERFLOW
		}

		if err := ctx.View.Erase(betKey); err != nil {
			return tx.TefINTERNAL
		}
		if result := updateVault(ctx, vaultKey, vault); !result.IsSuccess() {
			return result
		}

		ctx.Account.Balance = newBalance
		if ctx.Account.OwnerCount > 0 {
			ctx.Account.OwnerCount--
		}
		ctx.Metadata.DeliveredAmount = credit

		return tx.TesSUCCESS
	}

	playerKey := keylet.Account(betEntry.Player)
	playerData, err := ctx.View.Read(playerKey)
	if err != nil || playerData == nil {
		return tx.TefINTERNAL
	}
	player, err := sle.ParseAccountRoot(playerData)
	if err != nil {
		return tx.TefINTERNAL
	}

	newPlayerBalance, ok := tx.CheckedAdd(player.Balance, credit)
	if !ok {
		return tx.TecOVERFLOW
	}
	player.Balance = newPlayerBalance
	if player.OwnerCount > 0 {
		player.OwnerCount--
	}
	player.PreviousTxnID = ctx.TxHash
	player.PreviousTxnLgrSeq = ctx.Slot()

	if err := ctx.View.Erase(betKey); err != nil {
		return tx.TefINTERNAL
	}

	playerBytes, err := sle.SerializeAccountRoot(player)
	if err != nil {
		return tx.TefINTERNAL
	}
	if err := ctx.View.Update(playerKey, playerBytes); err != nil {
		return tx.TefINTERNAL
	}

	if result := updateVault(ctx, vaultKey, vault); !result.IsSuccess() {
		return result
	}

	ctx.Metadata.DeliveredAmount = credit

	return tx.TesSUCCESS
}
