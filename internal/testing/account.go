package testing

import (
	addresscodec "github.com/dicehouse/diced/internal/codec/address-codec"
	"github.com/dicehouse/diced/internal/crypto/ed25519"
)

// masterSeed is the deterministic seed the master account is derived
// from, matching the development chain default.
const masterSeed = "masterpassphrase"

// Account is a test account backed by a real Ed25519 keypair. The
// public key doubles as the on-ledger account identifier.
type Account struct {
	// Name is a human-readable label, used in failure messages.
	Name string

	// Keys is the account's keypair.
	Keys *ed25519.Keypair

	// Address is the base58-encoded account identifier.
	Address string

	// ID is the raw 32-byte account identifier (the public key).
	ID [32]byte
}

// NewAccount creates a test account with a keypair derived
// deterministically from the name, so the same name always yields the
// same account.
func NewAccount(name string) *Account {
	kp, err := ed25519.GenerateKeypair([]byte(name))
	if err != nil {
		panic("testing: failed to derive keypair for " + name + ": " + err.Error())
	}
	return &Account{
		Name:    name,
		Keys:    kp,
		Address: addresscodec.Encode(kp.Public),
		ID:      kp.Public,
	}
}

// MasterAccount returns the account holding the genesis supply.
func MasterAccount() *Account {
	acc := NewAccount(masterSeed)
	acc.Name = "master"
	return acc
}

// Sign signs a message with the account's private key.
func (a *Account) Sign(message []byte) []byte {
	return a.Keys.Sign(message)
}
