package tx

import (
	"encoding/json"
	"errors"
	"sync"
)

// ErrUnknownTransactionType is returned when a transaction type is unknown
var ErrUnknownTransactionType = errors.New("unknown transaction type")

var (
	factoriesMu sync.RWMutex
	factories   = make(map[Type]func() Transaction)
)

// Register installs a factory for a transaction type. Transactor packages
// call this from init(); importing a transactor package is what makes its
// type available to FromJSON and the engine.
func Register(t Type, factory func() Transaction) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[t] = factory
}

// NewFromType creates a new transaction of the given type
func NewFromType(txType Type) (Transaction, error) {
	factoriesMu.RLock()
	factory, ok := factories[txType]
	factoriesMu.RUnlock()
	if !ok {
		return nil, ErrUnknownTransactionType
	}
	return factory(), nil
}

// FromJSON creates a Transaction from a JSON object
func FromJSON(data []byte) (Transaction, error) {
	// First, unmarshal to get the TransactionType
	var raw struct {
		TransactionType string `json:"TransactionType"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	txType, ok := TypeFromName(raw.TransactionType)
	if !ok {
		return nil, ErrUnknownTransactionType
	}

	txn, err := NewFromType(txType)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(data, txn); err != nil {
		return nil, err
	}

	return txn, nil
}

// ToJSON converts a Transaction to JSON
func ToJSON(txn Transaction) ([]byte, error) {
	flat, err := txn.Flatten()
	if err != nil {
		return nil, err
	}
	return json.Marshal(flat)
}

// SupportedTypes returns all registered transaction types
func SupportedTypes() []Type {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()

	types := make([]Type, 0, len(factories))
	for t := range factories {
		types = append(types, t)
	}
	return types
}
