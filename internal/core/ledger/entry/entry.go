package entry

import (
	"fmt"
)

// Type represents a ledger entry type
type Type uint16

// All known ledger entry types
const (
	// Account objects (keypair-backed identities)
	TypeAccountRoot Type = 0x0061

	// House escrow vaults (derived, program-owned)
	TypeVault Type = 0x0076

	// Open wagers (derived, program-owned)
	TypeBet Type = 0x0062

	// System singletons
	TypeDiceParams   Type = 0x0070 // Game parameters (singleton)
	TypeLedgerHashes Type = 0x0068 // Historical hashes (singleton)
)

// String returns the string representation of the Type
func (t Type) String() string {
	switch t {
	case TypeAccountRoot:
		return "AccountRoot"
	case TypeVault:
		return "Vault"
	case TypeBet:
		return "Bet"
	case TypeDiceParams:
		return "DiceParams"
	case TypeLedgerHashes:
		return "LedgerHashes"
	default:
		return fmt.Sprintf("Unknown(%#x)", uint16(t))
	}
}

// Valid reports whether the type is one of the known entry types.
func Valid(t Type) bool {
	switch t {
	case TypeAccountRoot, TypeVault, TypeBet, TypeDiceParams, TypeLedgerHashes:
		return true
	default:
		return false
	}
}
