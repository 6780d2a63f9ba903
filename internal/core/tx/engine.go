package tx

import (
	"fmt"
	"strconv"

	"github.com/dicehouse/diced/internal/core/ledger/keylet"
	"github.com/dicehouse/diced/internal/core/tx/sle"
	crypto "github.com/dicehouse/diced/internal/crypto/common"
)

// Transaction hash prefix, mixed into every transaction hash so it can
// never collide with a state key.
var txnHashPrefix = []byte("TXN\x00")

// AccountRoot is an alias for the serialized account entry type.
type AccountRoot = sle.AccountRoot

// Engine validates and applies transactions against a ledger view.
// Processing follows three phases: preflight (stateless checks),
// preclaim (checks against ledger state), and doApply (fee and sequence
// consumption, then the transactor's own effects through a buffered
// state table that commits all-or-nothing).
type Engine struct {
	view   LedgerView
	config EngineConfig
}

// GameParams holds the wagering parameters the engine enforces.
type GameParams struct {
	// RollMin and RollMax bound the player's roll target (inclusive).
	RollMin uint8
	RollMax uint8

	// BetMin and BetMax bound the stake, in native units.
	BetMin uint64
	BetMax uint64

	// RefundDelaySlots is the number of slots that must elapse past the
	// placement slot before a refund is permitted. A refund at
	// currentSlot requires currentSlot - placementSlot > RefundDelaySlots.
	RefundDelaySlots uint64
}

// EngineConfig holds configuration for the transaction engine
type EngineConfig struct {
	// BaseFee is the reference fee in native units
	BaseFee uint64

	// ReserveBase is the minimum balance an account must hold
	ReserveBase uint64

	// ReserveIncrement is the extra reserve per owned ledger entry
	ReserveIncrement uint64

	// LedgerSequence is the slot the transaction is applied in
	LedgerSequence uint64

	// SkipSignatureVerification disables signature checks (test mode)
	SkipSignatureVerification bool

	// Standalone indicates the node runs without peers
	Standalone bool

	// NetworkID, when nonzero, must match the transaction's NetworkID
	NetworkID uint32

	// Dice holds the wagering parameters
	Dice GameParams
}

// LedgerView provides read/write access to ledger state
type LedgerView interface {
	// Read reads a ledger entry, returning nil if it does not exist
	Read(k keylet.Keylet) ([]byte, error)

	// Exists checks if an entry exists
	Exists(k keylet.Keylet) (bool, error)

	// Insert adds a new entry; fails if one already exists at the key
	Insert(k keylet.Keylet, data []byte) error

	// Update modifies an existing entry
	Update(k keylet.Keylet, data []byte) error

	// Erase removes an entry
	Erase(k keylet.Keylet) error

	// AdjustUnitsDestroyed records native units destroyed by fees
	AdjustUnitsDestroyed(units uint64)

	// ForEach iterates over all state entries
	ForEach(fn func(key [32]byte, data []byte) bool) error
}

// ApplyResult is the outcome of applying a transaction
type ApplyResult struct {
	Result   Result
	Applied  bool
	Fee      uint64
	TxHash   [32]byte
	Metadata *Metadata
	Message  string
}

// Metadata describes the ledger changes a transaction produced
type Metadata struct {
	AffectedNodes     []AffectedNode `json:"AffectedNodes"`
	TransactionResult Result         `json:"TransactionResult"`
	DeliveredAmount   uint64         `json:"DeliveredAmount,omitempty"`
}

// AffectedNode aliases the sle metadata node type
type AffectedNode = sle.AffectedNode

// NewEngine creates a new transaction engine
func NewEngine(view LedgerView, config EngineConfig) *Engine {
	return &Engine{
		view:   view,
		config: config,
	}
}

// computeTransactionHash computes the canonical hash of a transaction from
// its signing bytes plus the signature.
func computeTransactionHash(txn Transaction) ([32]byte, error) {
	canonical, err := CanonicalBytes(txn, true)
	if err != nil {
		return [32]byte{}, err
	}
	return crypto.Sha512Half(txnHashPrefix, canonical), nil
}

// Apply validates and applies a transaction to the ledger view.
func (e *Engine) Apply(txn Transaction) ApplyResult {
	// Step 1: Preflight checks (syntax validation, signature)
	result := e.preflight(txn)
	if !result.IsSuccess() {
		return ApplyResult{
			Result:  result,
			Applied: false,
			Message: result.Message(),
		}
	}

	// Step 2: Preclaim checks (validate against ledger state)
	result = e.preclaim(txn)
	if !result.IsSuccess() && !result.IsTec() {
		return ApplyResult{
			Result:  result,
			Applied: false,
			Message: result.Message(),
		}
	}

	// Step 3: Calculate the fee
	fee := e.calculateFee(txn)

	// Step 4: Compute transaction hash
	txHash, err := computeTransactionHash(txn)
	if err != nil {
		return ApplyResult{
			Result:  TefINTERNAL,
			Applied: false,
			Fee:     fee,
			Message: "failed to compute transaction hash: " + err.Error(),
		}
	}

	// Step 5: Apply the transaction
	metadata := &Metadata{
		AffectedNodes:     make([]AffectedNode, 0),
		TransactionResult: TesSUCCESS,
	}

	if result.IsSuccess() {
		result = e.doApply(txn, metadata, txHash)
	}

	metadata.TransactionResult = result

	// Record the fee as destroyed
	if result.IsApplied() {
		e.view.AdjustUnitsDestroyed(fee)
	}

	return ApplyResult{
		Result:   result,
		Applied:  result.IsApplied(),
		Fee:      fee,
		TxHash:   txHash,
		Metadata: metadata,
		Message:  result.Message(),
	}
}

// preflight performs stateless validation on the transaction
func (e *Engine) preflight(txn Transaction) Result {
	common := txn.GetCommon()

	if err := common.Validate(); err != nil {
		return TemMALFORMED
	}

	if _, err := sle.DecodeAccountID(common.Account); err != nil {
		return TemBAD_SRC_ACCOUNT
	}

	// NetworkID must match when the engine runs with one configured
	if e.config.NetworkID != 0 {
		if common.NetworkID == nil || *common.NetworkID != e.config.NetworkID {
			return TelWRONG_NETWORK
		}
	}

	// Fee must parse when present, and must meet the base fee
	if common.Fee != "" {
		fee, err := strconv.ParseUint(common.Fee, 10, 64)
		if err != nil {
			return TemBAD_FEE
		}
		if fee < e.config.BaseFee {
			return TelINSUF_FEE_P
		}
	}

	// Type-specific validation
	if err := txn.Validate(); err != nil {
		return parseValidationError(err)
	}

	// Configuration-dependent validation (roll and stake bounds)
	if cv, ok := txn.(ConfigValidator); ok {
		if err := cv.ValidateWithConfig(e.config); err != nil {
			return parseValidationError(err)
		}
	}

	// Signature check
	if !e.config.SkipSignatureVerification {
		if result := VerifyTransactionSignature(txn); !result.IsSuccess() {
			return result
		}
	}

	return TesSUCCESS
}

// parseValidationError maps a transactor Validate() error onto a tem code.
// Transactors encode the code as a "temXXX: message" prefix.
func parseValidationError(err error) Result {
	msg := err.Error()
	for _, candidate := range []struct {
		prefix string
		code   Result
	}{
		{"temBAD_AMOUNT", TemBAD_AMOUNT},
		{"temBAD_ROLL", TemBAD_ROLL},
		{"temBAD_FEE", TemBAD_FEE},
		{"temDST_NEEDED", TemDST_NEEDED},
		{"temBAD_SRC_ACCOUNT", TemBAD_SRC_ACCOUNT},
		{"temBAD_SIGNATURE", TemBAD_SIGNATURE},
		{"temINVALID", TemINVALID},
		{"temMALFORMED", TemMALFORMED},
	} {
		if len(msg) >= len(candidate.prefix) && msg[:len(candidate.prefix)] == candidate.prefix {
			return candidate.code
		}
	}
	return TemMALFORMED
}

// preclaim validates the transaction against current ledger state
func (e *Engine) preclaim(txn Transaction) Result {
	common := txn.GetCommon()

	accountID, err := sle.DecodeAccountID(common.Account)
	if err != nil {
		return TemBAD_SRC_ACCOUNT
	}

	accountKey := keylet.Account(accountID)
	exists, err := e.view.Exists(accountKey)
	if err != nil {
		return TefINTERNAL
	}
	if !exists {
		return TerNO_ACCOUNT
	}

	accountData, err := e.view.Read(accountKey)
	if err != nil {
		return TefINTERNAL
	}

	account, err := sle.ParseAccountRoot(accountData)
	if err != nil {
		return TefINTERNAL
	}

	// The signing key must be the account's own key
	if !e.config.SkipSignatureVerification && common.SigningPubKey != "" {
		signerID, addrErr := SignerAccountID(common.SigningPubKey)
		if addrErr != nil {
			return TefBAD_AUTH
		}
		if signerID != account.Account {
			return TefBAD_AUTH
		}
	}

	// Check sequence number
	if common.Sequence != nil {
		if *common.Sequence < account.Sequence {
			return TefPAST_SEQ
		}
		if *common.Sequence > account.Sequence {
			return TerPRE_SEQ
		}
	}

	// Check that the account can pay the fee
	fee := e.calculateFee(txn)
	if account.Balance < fee {
		return TerINSUF_FEE_B
	}

	// LastLedgerSequence check
	if common.LastLedgerSequence != nil {
		if e.config.LedgerSequence > *common.LastLedgerSequence {
			return TefMAX_LEDGER
		}
	}

	return TesSUCCESS
}

// doApply applies the transaction to the ledger.
// For tec results, only fee and sequence changes are applied; the
// transactor's effects are discarded with the state table.
func (e *Engine) doApply(txn Transaction, metadata *Metadata, txHash [32]byte) Result {
	common := txn.GetCommon()
	accountID, _ := sle.DecodeAccountID(common.Account)
	accountKey := keylet.Account(accountID)

	accountData, err := e.view.Read(accountKey)
	if err != nil {
		return TefINTERNAL
	}

	account, err := sle.ParseAccountRoot(accountData)
	if err != nil {
		return TefINTERNAL
	}

	fee := e.calculateFee(txn)

	originalBalance := account.Balance
	originalSequence := account.Sequence

	// Deduct fee and consume the sequence
	account.Balance -= fee
	if common.Sequence != nil {
		account.Sequence = *common.Sequence + 1
	}

	account.PreviousTxnID = txHash
	account.PreviousTxnLgrSeq = e.config.LedgerSequence

	// Buffer transaction effects; nothing reaches the base view unless
	// the transactor succeeds and the table commits.
	table := NewApplyStateTable(e.view, txHash, e.config.LedgerSequence)

	ctx := &ApplyContext{
		View:      table,
		Account:   account,
		AccountID: accountID,
		Config:    e.config,
		TxHash:    txHash,
		Metadata:  metadata,
	}

	var result Result
	if appliable, ok := txn.(Appliable); ok {
		result = appliable.Apply(ctx)
	} else {
		result = TesSUCCESS
	}

	// tec: claim fee and sequence, discard the transactor's effects
	if result.IsTec() {
		account.Balance = originalBalance - fee
		account.Sequence = originalSequence
		if common.Sequence != nil {
			account.Sequence = *common.Sequence + 1
		}

		updatedData, err := sle.SerializeAccountRoot(account)
		if err != nil {
			return TefINTERNAL
		}
		if err := e.view.Update(accountKey, updatedData); err != nil {
			return TefINTERNAL
		}

		metadata.AffectedNodes = []AffectedNode{
			{
				NodeType:        "ModifiedNode",
				LedgerEntryType: "AccountRoot",
				LedgerIndex:     fmt.Sprintf("%X", accountKey.Key),
			},
		}

		return result
	}

	if !result.IsSuccess() {
		return result
	}

	// Write the source account back through the table (unless erased)
	if !table.IsErased(accountKey) {
		updatedData, err := sle.SerializeAccountRoot(account)
		if err != nil {
			return TefINTERNAL
		}
		if err := table.Update(accountKey, updatedData); err != nil {
			return TefINTERNAL
		}
	}

	// Commit all tracked changes atomically and generate metadata
	generatedMeta, err := table.Apply()
	if err != nil {
		return TefINTERNAL
	}
	metadata.AffectedNodes = generatedMeta.AffectedNodes

	return result
}

// calculateFee returns the fee the transaction pays. A transaction may
// offer more than the base fee but never less.
func (e *Engine) calculateFee(txn Transaction) uint64 {
	common := txn.GetCommon()
	if common.Fee != "" {
		fee, err := strconv.ParseUint(common.Fee, 10, 64)
		if err == nil && fee >= e.config.BaseFee {
			return fee
		}
	}
	return e.config.BaseFee
}
