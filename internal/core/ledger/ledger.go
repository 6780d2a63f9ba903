// Package ledger holds the chain state: immutable closed slots and the
// mutable open slot that the transaction engine writes into.
package ledger

import (
	"sort"
	"time"

	"github.com/dicehouse/diced/internal/core/ledger/header"
	"github.com/dicehouse/diced/internal/core/ledger/keylet"
	"github.com/dicehouse/diced/internal/core/protocol"
	"github.com/dicehouse/diced/internal/core/tx"
	crypto "github.com/dicehouse/diced/internal/crypto/common"
)

// AppliedTransaction is a transaction that made it into a slot,
// together with its outcome.
type AppliedTransaction struct {
	Hash        [32]byte
	Transaction tx.Transaction
	Result      tx.Result
	Fee         uint64
	Metadata    *tx.Metadata
}

// Ledger is an immutable closed slot: a header plus the complete state
// after the slot's transactions.
type Ledger struct {
	Header header.Header

	state map[[32]byte][]byte
	txs   []AppliedTransaction
}

// NewClosed builds a closed slot directly from a state map. It is used
// for genesis, where there is no parent to close from.
func NewClosed(sequence uint64, parentHash [32]byte, state map[[32]byte][]byte, totalUnits uint64, closeTime time.Time) *Ledger {
	l := &Ledger{
		Header: header.Header{
			Sequence:   sequence,
			ParentHash: parentHash,
			TotalUnits: totalUnits,
			CloseTime:  closeTime,
			Closed:     true,
		},
		state: state,
	}
	l.Header.StateHash = hashState(state)
	l.Header.TxHash = hashTransactions(nil)
	l.Header.Hash = l.Header.ComputeHash()
	return l
}

// FromStored rebuilds a closed slot from persisted parts. The header is
// trusted as stored; no hashes are recomputed.
func FromStored(h header.Header, state map[[32]byte][]byte, txs []AppliedTransaction) *Ledger {
	return &Ledger{
		Header: h,
		state:  state,
		txs:    txs,
	}
}

// Sequence returns the slot number.
func (l *Ledger) Sequence() uint64 {
	return l.Header.Sequence
}

// Hash returns the header hash.
func (l *Ledger) Hash() [32]byte {
	return l.Header.Hash
}

// Read returns the entry stored at k, or nil if there is none.
func (l *Ledger) Read(k keylet.Keylet) []byte {
	data, ok := l.state[k.Key]
	if !ok {
		return nil
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out
}

// Exists reports whether an entry is stored at k.
func (l *Ledger) Exists(k keylet.Keylet) bool {
	_, ok := l.state[k.Key]
	return ok
}

// EntryCount returns the number of state entries.
func (l *Ledger) EntryCount() int {
	return len(l.state)
}

// ForEach visits every state entry in key order. The callback returns
// false to stop early.
func (l *Ledger) ForEach(fn func(key [32]byte, data []byte) bool) {
	for _, key := range sortedKeys(l.state) {
		if !fn(key, l.state[key]) {
			return
		}
	}
}

// Transactions returns the transactions applied in this slot, in order.
func (l *Ledger) Transactions() []AppliedTransaction {
	return l.txs
}

// cloneState deep-copies the state map for the next open slot.
func (l *Ledger) cloneState() map[[32]byte][]byte {
	out := make(map[[32]byte][]byte, len(l.state))
	for k, v := range l.state {
		data := make([]byte, len(v))
		copy(data, v)
		out[k] = data
	}
	return out
}

func sortedKeys(state map[[32]byte][]byte) [][32]byte {
	keys := make([][32]byte, 0, len(state))
	for k := range state {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		for b := 0; b < 32; b++ {
			if keys[i][b] != keys[j][b] {
				return keys[i][b] < keys[j][b]
			}
		}
		return false
	})
	return keys
}

// hashState folds every entry's leaf hash into one commitment, in key
// order so the result is deterministic.
func hashState(state map[[32]byte][]byte) [32]byte {
	var running [32]byte
	for _, key := range sortedKeys(state) {
		leaf := crypto.Sha512Half(protocol.HashPrefixStateLeaf.Bytes(), state[key], key[:])
		running = crypto.Sha512Half(protocol.HashPrefixInnerNode.Bytes(), running[:], leaf[:])
	}
	return running
}

// hashTransactions folds the slot's transaction hashes and results into
// one commitment.
func hashTransactions(txs []AppliedTransaction) [32]byte {
	var running [32]byte
	for _, applied := range txs {
		resultByte := []byte{byte(int16(applied.Result))}
		leaf := crypto.Sha512Half(protocol.HashPrefixTxNode.Bytes(), applied.Hash[:], resultByte)
		running = crypto.Sha512Half(protocol.HashPrefixInnerNode.Bytes(), running[:], leaf[:])
	}
	return running
}
