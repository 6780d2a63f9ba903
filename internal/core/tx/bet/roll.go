package bet

import (
	"encoding/binary"
	"math/bits"

	"github.com/dicehouse/diced/internal/crypto/common"
)

// RollFromSignature derives the outcome of a bet from the house's
// signature over the bet commitment. The signature is unpredictable to
// both parties before signing and verifiable by anyone after, so the
// hash of it serves as the shared random beacon.
//
// The 32-byte digest is split into two little-endian 128-bit halves
// which are summed with wraparound; the result modulo 100, plus one,
// is the roll in [1, 100].
func RollFromSignature(signature []byte) uint8 {
	digest := common.Sha256(signature)

	aLo := binary.LittleEndian.Uint64(digest[0:8])
	aHi := binary.LittleEndian.Uint64(digest[8:16])
	bLo := binary.LittleEndian.Uint64(digest[16:24])
	bHi := binary.LittleEndian.Uint64(digest[24:32])

	sumLo, carry := bits.Add64(aLo, bLo, 0)
	sumHi, _ := bits.Add64(aHi, bHi, carry)

	// (hi*2^64 + lo) mod 100, using 2^64 ≡ 16 (mod 100).
	return uint8((sumHi%100*16+sumLo%100)%100) + 1
}
