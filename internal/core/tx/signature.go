package tx

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"

	ed "github.com/dicehouse/diced/internal/crypto/ed25519"
)

// Signing prefix, distinct from the hash prefix so signing bytes can never
// be replayed as a transaction hash preimage.
var signingPrefix = []byte("STX\x00")

var errNoSigningKey = errors.New("transaction has no signing public key")

// CanonicalBytes produces the deterministic byte form of a transaction.
// Fields are flattened and JSON-encoded with sorted keys; the signature
// field is excluded when producing the signing payload.
func CanonicalBytes(txn Transaction, includeSignature bool) ([]byte, error) {
	flat, err := txn.Flatten()
	if err != nil {
		return nil, err
	}

	if !includeSignature {
		delete(flat, "TxnSignature")
	}

	// encoding/json marshals map keys in sorted order, which makes this
	// encoding canonical.
	return json.Marshal(flat)
}

// SigningData returns the exact bytes a key signs for this transaction.
func SigningData(txn Transaction) ([]byte, error) {
	canonical, err := CanonicalBytes(txn, false)
	if err != nil {
		return nil, err
	}
	return append(append([]byte{}, signingPrefix...), canonical...), nil
}

// Sign fills in SigningPubKey and TxnSignature using the given keypair.
func Sign(txn Transaction, kp *ed.Keypair) error {
	common := txn.GetCommon()
	common.SigningPubKey = strings.ToUpper(hex.EncodeToString(kp.Public[:]))

	payload, err := SigningData(txn)
	if err != nil {
		return err
	}

	sig := kp.Sign(payload)
	common.TxnSignature = strings.ToUpper(hex.EncodeToString(sig))
	return nil
}

// SignerAccountID converts a hex signing public key into the account
// identifier it controls. An account's identifier is its public key, so
// this is a decode plus a length check.
func SignerAccountID(signingPubKeyHex string) ([32]byte, error) {
	var id [32]byte

	raw, err := hex.DecodeString(signingPubKeyHex)
	if err != nil {
		return id, err
	}
	if len(raw) != 32 {
		return id, errors.New("signing public key must be 32 bytes")
	}

	copy(id[:], raw)
	return id, nil
}

// VerifyTransactionSignature checks the transaction's Ed25519 signature
// against its signing public key.
func VerifyTransactionSignature(txn Transaction) Result {
	common := txn.GetCommon()

	if common.SigningPubKey == "" {
		return TemBAD_SIGNATURE
	}

	pubKey, err := SignerAccountID(common.SigningPubKey)
	if err != nil {
		return TemBAD_SIGNATURE
	}

	sig, err := hex.DecodeString(common.TxnSignature)
	if err != nil || len(sig) != 64 {
		return TemBAD_SIGNATURE
	}

	payload, err := SigningData(txn)
	if err != nil {
		return TefINTERNAL
	}

	if !ed.Verify(pubKey, payload, sig) {
		return TefBAD_SIGNATURE
	}

	return TesSUCCESS
}
