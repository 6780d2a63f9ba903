package common

import (
	"crypto/sha256"
	"crypto/sha512"
)

// Sha512Half computes SHA-512 over the concatenation of the inputs and
// returns the first 256 bits. All state keys and transaction hashes are
// derived with this function.
func Sha512Half(inputs ...[]byte) [32]byte {
	h := sha512.New()
	for _, in := range inputs {
		h.Write(in)
	}
	sum := h.Sum(nil)

	var result [32]byte
	copy(result[:], sum[:32])
	return result
}

// Sha256 computes a single SHA-256 over the concatenation of the inputs.
// Used for roll derivation from resolution signatures.
func Sha256(inputs ...[]byte) [32]byte {
	h := sha256.New()
	for _, in := range inputs {
		h.Write(in)
	}
	var result [32]byte
	copy(result[:], h.Sum(nil))
	return result
}
