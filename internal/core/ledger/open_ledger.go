package ledger

import (
	"errors"
	"sync"
	"time"

	"github.com/dicehouse/diced/internal/core/ledger/keylet"
)

// maxRecentHashes bounds the recent-slot hash list kept in state.
const maxRecentHashes = 256

var (
	ErrEntryExists   = errors.New("ledger entry already exists")
	ErrEntryNotFound = errors.New("ledger entry not found")
)

// OpenLedger is the in-flight slot. It satisfies the transaction
// engine's view interface; all writes land here until Close seals them
// into an immutable Ledger. Safe for concurrent submission.
type OpenLedger struct {
	mu sync.RWMutex

	parent         *Ledger
	state          map[[32]byte][]byte
	txs            []AppliedTransaction
	unitsDestroyed uint64
}

// NewOpen opens the next slot on top of a closed parent.
func NewOpen(parent *Ledger) *OpenLedger {
	return &OpenLedger{
		parent: parent,
		state:  parent.cloneState(),
	}
}

// Sequence returns the open slot's number.
func (o *OpenLedger) Sequence() uint64 {
	return o.parent.Sequence() + 1
}

// Read reads a ledger entry, returning nil if it does not exist.
func (o *OpenLedger) Read(k keylet.Keylet) ([]byte, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	data, ok := o.state[k.Key]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Exists checks if an entry exists.
func (o *OpenLedger) Exists(k keylet.Keylet) (bool, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	_, ok := o.state[k.Key]
	return ok, nil
}

// Insert adds a new entry; it fails if one already exists at the key.
func (o *OpenLedger) Insert(k keylet.Keylet, data []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, ok := o.state[k.Key]; ok {
		return ErrEntryExists
	}
	stored := make([]byte, len(data))
	copy(stored, data)
	o.state[k.Key] = stored
	return nil
}

// Update modifies an existing entry.
func (o *OpenLedger) Update(k keylet.Keylet, data []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, ok := o.state[k.Key]; !ok {
		return ErrEntryNotFound
	}
	stored := make([]byte, len(data))
	copy(stored, data)
	o.state[k.Key] = stored
	return nil
}

// Erase removes an entry.
func (o *OpenLedger) Erase(k keylet.Keylet) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, ok := o.state[k.Key]; !ok {
		return ErrEntryNotFound
	}
	delete(o.state, k.Key)
	return nil
}

// AdjustUnitsDestroyed records native units destroyed by fees.
func (o *OpenLedger) AdjustUnitsDestroyed(units uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.unitsDestroyed += units
}

// ForEach iterates over all state entries in key order.
func (o *OpenLedger) ForEach(fn func(key [32]byte, data []byte) bool) error {
	o.mu.RLock()
	defer o.mu.RUnlock()

	for _, key := range sortedKeys(o.state) {
		if !fn(key, o.state[key]) {
			return nil
		}
	}
	return nil
}

// RecordTransaction appends a transaction outcome to the slot's
// transaction set.
func (o *OpenLedger) RecordTransaction(applied AppliedTransaction) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.txs = append(o.txs, applied)
}

// TxCount returns the number of transactions recorded so far.
func (o *OpenLedger) TxCount() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.txs)
}

// Close seals the open slot into an immutable Ledger: the parent hash
// is pushed onto the recent-hash list, the state and transaction
// commitments are computed, and the fee burn is deducted from the
// circulating supply.
func (o *OpenLedger) Close(closeTime time.Time) *Ledger {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.pushRecentHash(o.parent.Hash())

	closed := &Ledger{
		state: o.state,
		txs:   o.txs,
	}
	closed.Header.Sequence = o.parent.Sequence() + 1
	closed.Header.ParentHash = o.parent.Hash()
	closed.Header.TotalUnits = o.parent.Header.TotalUnits - o.unitsDestroyed
	closed.Header.UnitsDestroyed = o.unitsDestroyed
	closed.Header.CloseTime = closeTime
	closed.Header.Closed = true
	closed.Header.StateHash = hashState(o.state)
	closed.Header.TxHash = hashTransactions(o.txs)
	closed.Header.Hash = closed.Header.ComputeHash()

	// The open slot must not be written to after closing.
	o.state = nil
	o.txs = nil

	return closed
}

// pushRecentHash appends a header hash to the recent-hash state entry,
// dropping the oldest once the list is full. The entry is raw
// concatenated 32-byte hashes, newest last.
func (o *OpenLedger) pushRecentHash(hash [32]byte) {
	key := keylet.LedgerHashes()
	existing := o.state[key.Key]

	updated := make([]byte, 0, len(existing)+32)
	updated = append(updated, existing...)
	updated = append(updated, hash[:]...)
	if len(updated) > maxRecentHashes*32 {
		updated = updated[len(updated)-maxRecentHashes*32:]
	}
	o.state[key.Key] = updated
}
