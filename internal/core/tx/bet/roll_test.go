package bet

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dicehouse/diced/internal/crypto/ed25519"
)

func TestRollFromSignatureDeterministic(t *testing.T) {
	sig := make([]byte, ed25519.SignatureLength)
	for i := range sig {
		sig[i] = byte(i)
	}

	r1 := RollFromSignature(sig)
	r2 := RollFromSignature(sig)
	require.Equal(t, r1, r2)
}

func TestRollFromSignatureRange(t *testing.T) {
	// Every signature must map into [1, 100].
	seen := make(map[uint8]bool)
	sig := make([]byte, ed25519.SignatureLength)
	for v := 0; v < 256; v++ {
		for i := range sig {
			sig[i] = byte(v + i)
		}
		roll := RollFromSignature(sig)
		require.GreaterOrEqual(t, roll, uint8(1))
		require.LessOrEqual(t, roll, uint8(100))
		seen[roll] = true
	}

	// The mapping must not be degenerate.
	require.Greater(t, len(seen), 10)
}

func TestRollFromRealSignatures(t *testing.T) {
	// Rolls derived from genuine Ed25519 signatures stay in range too.
	kp, err := ed25519.GenerateKeypair([]byte("roll-range-house"))
	require.NoError(t, err)

	for i := 0; i < 64; i++ {
		sig := kp.Sign([]byte{byte(i)})
		roll := RollFromSignature(sig)
		require.GreaterOrEqual(t, roll, uint8(1))
		require.LessOrEqual(t, roll, uint8(100))
	}
}
