// Package ledgerstore persists closed slots into the key-value storage
// layer and serves them back, with an LRU cache in front so recent
// history never touches disk.
package ledgerstore

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dicehouse/diced/internal/core/ledger"
	"github.com/dicehouse/diced/internal/core/ledger/header"
	"github.com/dicehouse/diced/internal/core/tx"
	"github.com/dicehouse/diced/internal/storage/database"
)

const cacheSize = 128

var ErrNotFound = errors.New("ledgerstore: slot not found")

// Key layout:
//
//	l:<seq BE8>  -> encoded slot
//	h:<hash 32>  -> seq BE8
//	last         -> seq BE8
var (
	prefixSlot = []byte("l:")
	prefixHash = []byte("h:")
	keyLast    = []byte("last")
)

// Store saves and loads closed slots.
type Store struct {
	db    database.DB
	cache *lru.Cache[uint64, *ledger.Ledger]
}

// New creates a store over a key-value database.
func New(db database.DB) (*Store, error) {
	cache, err := lru.New[uint64, *ledger.Ledger](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, cache: cache}, nil
}

// Save persists a closed slot and advances the last-sequence marker.
func (s *Store) Save(ctx context.Context, l *ledger.Ledger) error {
	encoded, err := encodeLedger(l)
	if err != nil {
		return err
	}

	var seqBuf [8]byte
	binary.BigEndian.PutUint64(seqBuf[:], l.Sequence())
	hash := l.Hash()

	ops := []database.BatchOperation{
		{Type: database.BatchPut, Key: slotKey(l.Sequence()), Value: encoded},
		{Type: database.BatchPut, Key: append(append([]byte{}, prefixHash...), hash[:]...), Value: seqBuf[:]},
		{Type: database.BatchPut, Key: keyLast, Value: seqBuf[:]},
	}
	if err := s.db.Batch(ctx, ops); err != nil {
		return fmt.Errorf("ledgerstore: save slot %d: %w", l.Sequence(), err)
	}

	s.cache.Add(l.Sequence(), l)
	return nil
}

// Load returns the slot at the given sequence.
func (s *Store) Load(ctx context.Context, sequence uint64) (*ledger.Ledger, error) {
	if l, ok := s.cache.Get(sequence); ok {
		return l, nil
	}

	data, err := s.db.Read(ctx, slotKey(sequence))
	if err != nil {
		if errors.Is(err, database.ErrKeyNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	l, err := decodeLedger(data)
	if err != nil {
		return nil, err
	}

	s.cache.Add(sequence, l)
	return l, nil
}

// LoadByHash returns the slot with the given header hash.
func (s *Store) LoadByHash(ctx context.Context, hash [32]byte) (*ledger.Ledger, error) {
	seqData, err := s.db.Read(ctx, append(append([]byte{}, prefixHash...), hash[:]...))
	if err != nil {
		if errors.Is(err, database.ErrKeyNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.Load(ctx, binary.BigEndian.Uint64(seqData))
}

// LastSequence returns the highest persisted slot, or 0 when the store
// is empty.
func (s *Store) LastSequence(ctx context.Context) (uint64, error) {
	data, err := s.db.Read(ctx, keyLast)
	if err != nil {
		if errors.Is(err, database.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return binary.BigEndian.Uint64(data), nil
}

func slotKey(sequence uint64) []byte {
	key := make([]byte, 0, len(prefixSlot)+8)
	key = append(key, prefixSlot...)
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], sequence)
	return append(key, buf[:]...)
}

// Wire encoding of a slot: a fixed header block, then length-prefixed
// state entries, then length-prefixed transaction records.
func encodeLedger(l *ledger.Ledger) ([]byte, error) {
	buf := make([]byte, 0, 4096)

	h := l.Header
	buf = appendUint64(buf, h.Sequence)
	buf = append(buf, h.Hash[:]...)
	buf = append(buf, h.ParentHash[:]...)
	buf = append(buf, h.TxHash[:]...)
	buf = append(buf, h.StateHash[:]...)
	buf = appendUint64(buf, h.TotalUnits)
	buf = appendUint64(buf, h.UnitsDestroyed)
	buf = appendUint64(buf, uint64(h.CloseTime.Unix()))

	buf = appendUint32(buf, uint32(l.EntryCount()))
	l.ForEach(func(key [32]byte, data []byte) bool {
		buf = append(buf, key[:]...)
		buf = appendUint32(buf, uint32(len(data)))
		buf = append(buf, data...)
		return true
	})

	txs := l.Transactions()
	buf = appendUint32(buf, uint32(len(txs)))
	for _, applied := range txs {
		raw, err := tx.ToJSON(applied.Transaction)
		if err != nil {
			return nil, err
		}
		meta, err := json.Marshal(applied.Metadata)
		if err != nil {
			return nil, err
		}

		buf = append(buf, applied.Hash[:]...)
		buf = appendUint32(buf, uint32(int32(applied.Result)))
		buf = appendUint64(buf, applied.Fee)
		buf = appendUint32(buf, uint32(len(raw)))
		buf = append(buf, raw...)
		buf = appendUint32(buf, uint32(len(meta)))
		buf = append(buf, meta...)
	}

	return buf, nil
}

func decodeLedger(data []byte) (*ledger.Ledger, error) {
	r := &reader{data: data}

	var h header.Header
	h.Sequence = r.uint64()
	r.hash(&h.Hash)
	r.hash(&h.ParentHash)
	r.hash(&h.TxHash)
	r.hash(&h.StateHash)
	h.TotalUnits = r.uint64()
	h.UnitsDestroyed = r.uint64()
	h.CloseTime = time.Unix(int64(r.uint64()), 0)
	h.Closed = true

	entryCount := r.uint32()
	state := make(map[[32]byte][]byte, entryCount)
	for i := uint32(0); i < entryCount; i++ {
		var key [32]byte
		r.hash(&key)
		state[key] = r.bytes(int(r.uint32()))
	}

	txCount := r.uint32()
	txs := make([]ledger.AppliedTransaction, 0, txCount)
	for i := uint32(0); i < txCount; i++ {
		var applied ledger.AppliedTransaction
		r.hash(&applied.Hash)
		applied.Result = tx.Result(int32(r.uint32()))
		applied.Fee = r.uint64()

		raw := r.bytes(int(r.uint32()))
		meta := r.bytes(int(r.uint32()))
		if r.err != nil {
			break
		}

		txn, err := tx.FromJSON(raw)
		if err != nil {
			return nil, err
		}
		applied.Transaction = txn

		applied.Metadata = &tx.Metadata{}
		if err := json.Unmarshal(meta, applied.Metadata); err != nil {
			return nil, err
		}

		txs = append(txs, applied)
	}

	if r.err != nil {
		return nil, r.err
	}

	return ledger.FromStored(h, state, txs), nil
}

func appendUint64(buf []byte, v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return append(buf, b[:]...)
}

func appendUint32(buf []byte, v uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return append(buf, b[:]...)
}

type reader struct {
	data []byte
	pos  int
	err  error
}

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if r.pos+n > len(r.data) {
		r.err = errors.New("ledgerstore: truncated slot record")
		return nil
	}
	out := r.data[r.pos : r.pos+n]
	r.pos += n
	return out
}

func (r *reader) uint64() uint64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}

func (r *reader) uint32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

func (r *reader) hash(out *[32]byte) {
	b := r.take(32)
	if b != nil {
		copy(out[:], b)
	}
}

func (r *reader) bytes(n int) []byte {
	b := r.take(n)
	if b == nil {
		return nil
	}
	out := make([]byte, n)
	copy(out, b)
	return out
}
