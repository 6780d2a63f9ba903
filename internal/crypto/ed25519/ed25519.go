// Package ed25519 wraps the standard library Ed25519 implementation with
// the key handling used throughout the daemon: raw 32-byte public keys,
// deterministic keypairs from seeds, and byte-slice signatures.
package ed25519

import (
	"bytes"
	"crypto/ed25519"
	"errors"

	crypto "github.com/dicehouse/diced/internal/crypto/common"
)

// Key and signature sizes for raw Ed25519 material.
const (
	PublicKeyLength = ed25519.PublicKeySize
	SignatureLength = ed25519.SignatureSize
)

var (
	ErrInvalidPrivateKey = errors.New("invalid private key format")
	ErrInvalidPublicKey  = errors.New("invalid public key format")
	ErrInvalidSignature  = errors.New("invalid signature format")
)

// Keypair holds a raw Ed25519 keypair. Public is the 32-byte key that
// doubles as the account identity; Private is the 64-byte expanded key.
type Keypair struct {
	Public  [32]byte
	Private ed25519.PrivateKey
}

// GenerateKeypair derives a deterministic keypair from arbitrary seed bytes.
// The seed is stretched with Sha512Half so short human-readable seeds are
// acceptable in tests and tooling.
func GenerateKeypair(seed []byte) (*Keypair, error) {
	keyMaterial := crypto.Sha512Half(seed)
	pub, priv, err := ed25519.GenerateKey(bytes.NewBuffer(keyMaterial[:]))
	if err != nil {
		return nil, err
	}

	kp := &Keypair{Private: priv}
	copy(kp.Public[:], pub)
	return kp, nil
}

// Sign signs the message with the keypair's private key.
func (k *Keypair) Sign(message []byte) []byte {
	return ed25519.Sign(k.Private, message)
}

// Verify checks an Ed25519 signature against a raw 32-byte public key.
func Verify(publicKey [32]byte, message, signature []byte) bool {
	if len(signature) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(publicKey[:]), message, signature)
}
