package testing

import "github.com/dicehouse/diced/internal/core/tx"

// TxResult is the outcome of submitting a transaction through the test
// environment.
type TxResult struct {
	// Code is the engine result code.
	Code tx.Result

	// Applied reports whether the transaction reached the ledger
	// (tes and tec results both apply; tec claims only the fee).
	Applied bool

	// Fee is the fee the transaction paid, in native units.
	Fee uint64

	// Message carries additional detail for failures.
	Message string
}

// Success reports whether the transaction fully succeeded.
func (r TxResult) Success() bool {
	return r.Code.IsSuccess()
}
