// Package database defines the key-value storage abstraction the daemon
// persists through. Backends live in subpackages; callers pick one via
// the configuration's backend name.
package database

import (
	"context"
)

// DB defines the basic operations any database implementation must support
type DB interface {
	// Basic operations
	Read(ctx context.Context, key []byte) ([]byte, error)
	Write(ctx context.Context, key []byte, value []byte) error
	Delete(ctx context.Context, key []byte) error

	// Batch applies a set of operations atomically
	Batch(ctx context.Context, ops []BatchOperation) error

	// Iterator traverses keys in [start, end]; nil bounds are open
	Iterator(ctx context.Context, start, end []byte) (Iterator, error)
}

// Manager owns the open databases of one backend and hands out named
// handles. Closing the manager closes every database it opened.
type Manager interface {
	OpenDB(name string) (DB, error)
	CloseDB(name string) error
	Close() error
}

// Iterator allows traversing over database entries
type Iterator interface {
	Next() bool
	Key() []byte
	Value() []byte
	Error() error
	Close() error
}

// BatchOperation represents a single operation in a batch
type BatchOperation struct {
	Type  BatchOpType
	Key   []byte
	Value []byte
}

type BatchOpType int

const (
	BatchPut BatchOpType = iota
	BatchDelete
)
