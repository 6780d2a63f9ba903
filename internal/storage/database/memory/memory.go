// Package memory is an in-process map-backed database used by tests and
// standalone mode. Nothing survives a restart.
package memory

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"github.com/dicehouse/diced/internal/storage/database"
)

type DB struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewDB() *DB {
	return &DB{data: make(map[string][]byte)}
}

func (m *DB) Read(ctx context.Context, key []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	val, ok := m.data[string(key)]
	if !ok {
		return nil, database.ErrKeyNotFound
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *DB) Write(ctx context.Context, key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := make([]byte, len(value))
	copy(stored, value)
	m.data[string(key)] = stored
	return nil
}

func (m *DB) Delete(ctx context.Context, key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, string(key))
	return nil
}

func (m *DB) Batch(ctx context.Context, ops []database.BatchOperation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, op := range ops {
		switch op.Type {
		case database.BatchPut:
			stored := make([]byte, len(op.Value))
			copy(stored, op.Value)
			m.data[string(op.Key)] = stored
		case database.BatchDelete:
			delete(m.data, string(op.Key))
		default:
			return database.ErrBatchOperationFailed
		}
	}
	return nil
}

func (m *DB) Iterator(ctx context.Context, start, end []byte) (database.Iterator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		kb := []byte(k)
		if start != nil && bytes.Compare(kb, start) < 0 {
			continue
		}
		if end != nil && bytes.Compare(kb, end) >= 0 {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	snapshot := make([][2][]byte, 0, len(keys))
	for _, k := range keys {
		val := make([]byte, len(m.data[k]))
		copy(val, m.data[k])
		snapshot = append(snapshot, [2][]byte{[]byte(k), val})
	}

	return &Iterator{entries: snapshot, pos: -1}, nil
}

// Manager hands out named in-memory databases.
type Manager struct {
	mu  sync.Mutex
	dbs map[string]*DB
}

func NewManager() *Manager {
	return &Manager{dbs: make(map[string]*DB)}
}

func (m *Manager) OpenDB(name string) (database.DB, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if db, ok := m.dbs[name]; ok {
		return db, nil
	}
	db := NewDB()
	m.dbs[name] = db
	return db, nil
}

func (m *Manager) CloseDB(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.dbs, name)
	return nil
}

func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dbs = make(map[string]*DB)
	return nil
}

type Iterator struct {
	entries [][2][]byte
	pos     int
}

func (it *Iterator) Next() bool {
	it.pos++
	return it.pos < len(it.entries)
}

func (it *Iterator) Key() []byte {
	return it.entries[it.pos][0]
}

func (it *Iterator) Value() []byte {
	return it.entries[it.pos][1]
}

func (it *Iterator) Error() error { return nil }
func (it *Iterator) Close() error { return nil }
