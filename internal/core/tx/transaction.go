package tx

import (
	"errors"
)

// Common errors
var (
	ErrMissingRequiredField   = errors.New("missing required field")
	ErrInvalidTransactionType = errors.New("invalid transaction type")
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrInvalidAccount         = errors.New("invalid account")
	ErrInvalidSequence        = errors.New("invalid sequence")
)

// Transaction is the interface that all transaction types must implement
type Transaction interface {
	// TxType returns the transaction type
	TxType() Type

	// GetCommon returns the common transaction fields
	GetCommon() *Common

	// Validate checks if the transaction is valid
	Validate() error

	// Flatten returns a flat map of all transaction fields for serialization
	Flatten() (map[string]any, error)
}

// Appliable is implemented by transaction types that can apply themselves
// to ledger state. The engine dispatches here instead of switching on type.
type Appliable interface {
	Apply(ctx *ApplyContext) Result
}

// ConfigValidator is implemented by transaction types whose validity
// depends on engine configuration (roll bounds, stake bounds). The engine
// calls it during preflight, after the stateless Validate.
type ConfigValidator interface {
	ValidateWithConfig(config EngineConfig) error
}

// Common contains fields common to all transaction types
type Common struct {
	// Required fields
	Account         string `json:"Account"`
	TransactionType string `json:"TransactionType"`

	// Fee in native units (required for signing, auto-filled on submission)
	Fee string `json:"Fee,omitempty"`

	// Sequence number
	Sequence *uint32 `json:"Sequence,omitempty"`

	// Optional common fields
	LastLedgerSequence *uint64 `json:"LastLedgerSequence,omitempty"`
	NetworkID          *uint32 `json:"NetworkID,omitempty"`
	SigningPubKey      string  `json:"SigningPubKey,omitempty"`
	TxnSignature       string  `json:"TxnSignature,omitempty"`
}

// Validate validates the common fields
func (c *Common) Validate() error {
	if c.Account == "" {
		return errors.New("Account is required")
	}
	if c.TransactionType == "" {
		return errors.New("TransactionType is required")
	}
	return nil
}

// SetSequence sets the sequence number
func (c *Common) SetSequence(seq uint32) {
	c.Sequence = &seq
}

// GetSequence returns the sequence number (0 if not set)
func (c *Common) GetSequence() uint32 {
	if c.Sequence == nil {
		return 0
	}
	return *c.Sequence
}

// ToMap converts common fields to a map
func (c *Common) ToMap() map[string]any {
	m := map[string]any{
		"Account":         c.Account,
		"TransactionType": c.TransactionType,
	}

	if c.Fee != "" {
		m["Fee"] = c.Fee
	}
	if c.Sequence != nil {
		m["Sequence"] = *c.Sequence
	}
	if c.LastLedgerSequence != nil {
		m["LastLedgerSequence"] = *c.LastLedgerSequence
	}
	if c.NetworkID != nil {
		m["NetworkID"] = *c.NetworkID
	}
	if c.SigningPubKey != "" {
		m["SigningPubKey"] = c.SigningPubKey
	}
	if c.TxnSignature != "" {
		m["TxnSignature"] = c.TxnSignature
	}

	return m
}

// BaseTx provides a base implementation for transactions
type BaseTx struct {
	Common
	txType Type
}

// TxType returns the transaction type
func (b *BaseTx) TxType() Type {
	return b.txType
}

// GetCommon returns the common transaction fields
func (b *BaseTx) GetCommon() *Common {
	return &b.Common
}

// Validate validates the base transaction
func (b *BaseTx) Validate() error {
	return b.Common.Validate()
}

// Flatten returns a flat map of transaction fields
func (b *BaseTx) Flatten() (map[string]any, error) {
	return b.Common.ToMap(), nil
}

// NewBaseTx creates a new base transaction
func NewBaseTx(txType Type, account string) *BaseTx {
	return &BaseTx{
		Common: Common{
			Account:         account,
			TransactionType: txType.String(),
		},
		txType: txType,
	}
}
