// Package addresscodec converts between raw 32-byte account identifiers
// and their base58 string form. The identifier of a keypair account is its
// Ed25519 public key; the identifier of a derived account (vault, bet) is
// the derived state key. Both encode the same way.
package addresscodec

import (
	"errors"

	"github.com/mr-tron/base58"
)

// AccountIDLength is the length of a raw account identifier in bytes.
const AccountIDLength = 32

var (
	ErrInvalidAddress  = errors.New("invalid base58 address")
	ErrInvalidIDLength = errors.New("account identifier must be 32 bytes")
)

// Encode returns the base58 form of a raw account identifier.
func Encode(id [32]byte) string {
	return base58.Encode(id[:])
}

// Decode parses a base58 address back into its raw identifier.
func Decode(address string) ([32]byte, error) {
	var id [32]byte

	raw, err := base58.Decode(address)
	if err != nil {
		return id, ErrInvalidAddress
	}
	if len(raw) != AccountIDLength {
		return id, ErrInvalidIDLength
	}

	copy(id[:], raw)
	return id, nil
}

// IsValid reports whether the address decodes to a 32-byte identifier.
func IsValid(address string) bool {
	_, err := Decode(address)
	return err == nil
}
