package tx

import "fmt"

// Type represents a transaction type code
type Type uint16

// All transaction type codes
const (
	TypeInvalid Type = 0xFFFF // Invalid/unknown type

	TypePayment     Type = 0  // Native unit transfer, creates destination if absent
	TypeVaultCreate Type = 10 // House initializes its escrow vault
	TypeBetPlace    Type = 11 // Player locks a stake against a vault
	TypeBetRefund   Type = 12 // Player reclaims a timed-out stake
	TypeBetResolve  Type = 13 // House settles a bet with a signed roll
)

// String returns the canonical name of the transaction type
func (t Type) String() string {
	switch t {
	case TypePayment:
		return "Payment"
	case TypeVaultCreate:
		return "VaultCreate"
	case TypeBetPlace:
		return "BetPlace"
	case TypeBetRefund:
		return "BetRefund"
	case TypeBetResolve:
		return "BetResolve"
	default:
		return fmt.Sprintf("Unknown(%d)", uint16(t))
	}
}

// TypeFromName resolves a transaction type from its canonical name
func TypeFromName(name string) (Type, bool) {
	switch name {
	case "Payment":
		return TypePayment, true
	case "VaultCreate":
		return TypeVaultCreate, true
	case "BetPlace":
		return TypeBetPlace, true
	case "BetRefund":
		return TypeBetRefund, true
	case "BetResolve":
		return TypeBetResolve, true
	default:
		return TypeInvalid, false
	}
}
