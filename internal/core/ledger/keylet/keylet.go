package keylet

import (
	"encoding/binary"

	"filippo.io/edwards25519"

	"github.com/dicehouse/diced/internal/core/ledger/entry"
	crypto "github.com/dicehouse/diced/internal/crypto/common"
)

// Space identifiers for keylet generation.
// Each entry class hashes under its own namespace so identical seed data
// can never collide across classes.
const (
	spaceAccount uint16 = 'a' // Account root
	spaceVault   uint16 = 'v' // House vault
	spaceBet     uint16 = 'b' // Bet
	spaceParams  uint16 = 'p' // Game parameters (singleton)
	spaceSkip    uint16 = 's' // Skip list / ledger hashes
)

// Domain tags mixed into derived-account hashing. These match the seed
// layout the instruction handlers recompute for ownership checks.
var (
	tagVault = []byte("vault")
	tagBet   = []byte("bet")
)

// SeedLength is the width of a bet seed in bytes (a 128-bit value,
// little-endian). Seeds must always be encoded at this fixed width;
// a different encoding derives a different address.
const SeedLength = 16

// Keylet represents an addressable location in the ledger state.
// It combines a type identifier with a 256-bit key.
type Keylet struct {
	Type entry.Type
	Key  [32]byte
}

// indexHash computes a keylet key by hashing the space and provided data.
func indexHash(space uint16, data ...[]byte) [32]byte {
	// Prepend the space identifier as a 2-byte big-endian value
	spaceBytes := make([]byte, 2)
	binary.BigEndian.PutUint16(spaceBytes, space)

	inputs := make([][]byte, 0, len(data)+1)
	inputs = append(inputs, spaceBytes)
	inputs = append(inputs, data...)

	return crypto.Sha512Half(inputs...)
}

// Account returns the keylet for an account root entry.
func Account(accountID [32]byte) Keylet {
	return Keylet{
		Type: entry.TypeAccountRoot,
		Key:  indexHash(spaceAccount, accountID[:]),
	}
}

// DiceParams returns the keylet for the singleton game parameters entry.
func DiceParams() Keylet {
	return Keylet{
		Type: entry.TypeDiceParams,
		Key:  indexHash(spaceParams),
	}
}

// LedgerHashes returns the keylet for the skip list / ledger hashes entry.
func LedgerHashes() Keylet {
	return Keylet{
		Type: entry.TypeLedgerHashes,
		Key:  indexHash(spaceSkip),
	}
}

// Vault derives the vault keylet for a house account, searching bump
// values from 255 downward for the first off-curve key. The bump is part
// of the vault's identity: handlers store it at creation and later
// recompute the derivation to prove an entry belongs to the house.
func Vault(house [32]byte) (Keylet, uint8, bool) {
	return deriveProgramKeylet(entry.TypeVault, spaceVault, tagVault, house[:])
}

// VaultWithBump recomputes the vault keylet for a known bump. Used to
// verify a stored derivation without repeating the bump search.
func VaultWithBump(house [32]byte, bump uint8) Keylet {
	return Keylet{
		Type: entry.TypeVault,
		Key:  indexHash(spaceVault, tagVault, house[:], []byte{bump}),
	}
}

// Bet derives the bet keylet for a (vault, seed) pair. The seed is encoded
// as 16 little-endian bytes regardless of magnitude, so two numerically
// equal seeds always derive the same address.
func Bet(vault [32]byte, seed [16]byte) (Keylet, uint8, bool) {
	return deriveProgramKeylet(entry.TypeBet, spaceBet, tagBet, vault[:], seed[:])
}

// BetWithBump recomputes the bet keylet for a known bump.
func BetWithBump(vault [32]byte, seed [16]byte, bump uint8) Keylet {
	return Keylet{
		Type: entry.TypeBet,
		Key:  indexHash(spaceBet, tagBet, vault[:], seed[:], []byte{bump}),
	}
}

// SeedBytes encodes a 128-bit seed (given as low and high 64-bit halves)
// into its fixed-width little-endian form.
func SeedBytes(lo, hi uint64) [16]byte {
	var seed [16]byte
	binary.LittleEndian.PutUint64(seed[:8], lo)
	binary.LittleEndian.PutUint64(seed[8:], hi)
	return seed
}

// deriveProgramKeylet searches bump values from 255 downward and returns
// the first candidate key that is not a valid curve point, along with the
// bump that produced it. A derived account must be off-curve: no keypair
// can exist for it, so only instruction handlers can author changes at
// that address. The search is deterministic; the same seeds always yield
// the same (key, bump).
func deriveProgramKeylet(t entry.Type, space uint16, tag []byte, parts ...[]byte) (Keylet, uint8, bool) {
	data := make([][]byte, 0, len(parts)+2)
	data = append(data, tag)
	data = append(data, parts...)

	for bump := 255; bump >= 0; bump-- {
		candidate := indexHash(space, append(data, []byte{uint8(bump)})...)
		if !isOnCurve(candidate) {
			return Keylet{Type: t, Key: candidate}, uint8(bump), true
		}
	}

	// Statistically unreachable: each bump has ~50% odds of landing
	// off-curve, so 256 attempts failing does not happen in practice.
	return Keylet{}, 0, false
}

// isOnCurve reports whether the 32 bytes decode as a valid edwards25519
// point, meaning a keypair could exist for them.
func isOnCurve(key [32]byte) bool {
	_, err := new(edwards25519.Point).SetBytes(key[:])
	return err == nil
}
