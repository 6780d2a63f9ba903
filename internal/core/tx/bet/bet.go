// Package bet implements the wagering transactions: BetPlace locks a
// player stake against a house vault, BetRefund returns a timed-out
// stake, and BetResolve settles a bet from a house-signed roll.
package bet

import (
	"encoding/hex"
	"errors"
	"strings"

	"github.com/dicehouse/diced/internal/core/ledger/keylet"
	"github.com/dicehouse/diced/internal/core/tx"
	"github.com/dicehouse/diced/internal/core/tx/sle"
)

// Seeds travel as 32 hex characters: the 16-byte little-endian encoding
// of a 128-bit value. The encoding is fixed-width on purpose — the seed
// bytes feed address derivation directly, and a variable-width encoding
// would derive a different address for the same numeric seed.

// EncodeSeed returns the wire form of a 128-bit seed given as two 64-bit
// halves.
func EncodeSeed(lo, hi uint64) string {
	seed := keylet.SeedBytes(lo, hi)
	return strings.ToUpper(hex.EncodeToString(seed[:]))
}

// decodeSeed parses the wire form back into seed bytes.
func decodeSeed(s string) ([16]byte, error) {
	var seed [16]byte
	if len(s) != 32 {
		return seed, errors.New("seed must be 32 hex characters")
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return seed, err
	}
	copy(seed[:], raw)
	return seed, nil
}

// findVault derives the vault keylet for a house and loads the entry.
// The stored bump must reproduce the derived key; a mismatch means the
// entry at that address was not created by the vault derivation.
func findVault(ctx *tx.ApplyContext, house [32]byte) (keylet.Keylet, *sle.Vault, tx.Result) {
	vaultKey, _, ok := keylet.Vault(house)
	if !ok {
		return keylet.Keylet{}, nil, tx.TefINTERNAL
	}

	data, err := ctx.View.Read(vaultKey)
	if err != nil {
		return keylet.Keylet{}, nil, tx.TefINTERNAL
	}
	if data == nil {
		return keylet.Keylet{}, nil, tx.TecNO_TARGET
	}

	vault, err := sle.ParseVault(data)
	if err != nil {
		return keylet.Keylet{}, nil, tx.TefINTERNAL
	}

	if vault.House != house || keylet.VaultWithBump(house, vault.Bump).Key != vaultKey.Key {
		return keylet.Keylet{}, nil, tx.TecNO_PERMISSION
	}

	return vaultKey, vault, tx.TesSUCCESS
}

// updateVault writes a vault entry back through the view.
func updateVault(ctx *tx.ApplyContext, vaultKey keylet.Keylet, vault *sle.Vault) tx.Result {
	data, err := sle.SerializeVault(vault)
	if err != nil {
		return tx.TefINTERNAL
	}
	if err := ctx.View.Update(vaultKey, data); err != nil {
		return tx.TefINTERNAL
	}
	return tx.TesSUCCESS
}
