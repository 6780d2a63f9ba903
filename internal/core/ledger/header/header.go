// Package header defines the slot header that seals a closed ledger.
package header

import (
	"encoding/binary"
	"time"

	"github.com/dicehouse/diced/internal/core/protocol"
	crypto "github.com/dicehouse/diced/internal/crypto/common"
)

// Header describes one slot of the chain. For a closed slot every field
// is final; the hash commits to all of them.
type Header struct {
	// Sequence is the slot number, starting at 1 for genesis.
	Sequence uint64

	// ParentHash is the hash of the previous slot's header.
	ParentHash [32]byte

	// TxHash commits to the ordered set of transactions applied in
	// this slot, with their metadata.
	TxHash [32]byte

	// StateHash commits to the full state after this slot.
	StateHash [32]byte

	// TotalUnits is the native supply still in circulation after fee
	// burn for this slot.
	TotalUnits uint64

	// UnitsDestroyed is the fee total burned in this slot alone.
	UnitsDestroyed uint64

	// CloseTime is when the slot closed.
	CloseTime time.Time

	// Closed is false only for the in-flight open slot.
	Closed bool

	// Hash is the header hash, set when the slot closes.
	Hash [32]byte
}

// ComputeHash derives the header hash from the sealed fields.
func (h *Header) ComputeHash() [32]byte {
	var buf [32]byte
	binary.BigEndian.PutUint64(buf[0:8], h.Sequence)
	binary.BigEndian.PutUint64(buf[8:16], h.TotalUnits)
	binary.BigEndian.PutUint64(buf[16:24], h.UnitsDestroyed)
	binary.BigEndian.PutUint64(buf[24:32], uint64(h.CloseTime.Unix()))

	return crypto.Sha512Half(
		protocol.HashPrefixLedgerMaster.Bytes(),
		buf[:],
		h.ParentHash[:],
		h.TxHash[:],
		h.StateHash[:],
	)
}
