package jsonrpc

import "encoding/json"

// Request is a JSON-RPC 2.0 request.
type Request struct {
	JsonRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      interface{}     `json:"id"`
}

// Standard JSON-RPC error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// SubmitParams carries a transaction for the submit method. TxJSON is
// the transaction object itself, signed unless the node skips
// signature verification.
type SubmitParams struct {
	TxJSON json.RawMessage `json:"tx_json"`
}

// SubmitResult reports the engine outcome for a submission.
type SubmitResult struct {
	EngineResult        string          `json:"engine_result"`
	EngineResultCode    int             `json:"engine_result_code"`
	EngineResultMessage string          `json:"engine_result_message"`
	Applied             bool            `json:"applied"`
	TxHash              string          `json:"tx_hash,omitempty"`
	Fee                 uint64          `json:"fee"`
	Metadata            json.RawMessage `json:"metadata,omitempty"`
}

// AccountInfoParams identifies an account by address.
type AccountInfoParams struct {
	Account string `json:"account"`
}

// AccountInfoResult is the account state returned by account_info.
type AccountInfoResult struct {
	Account    string `json:"account"`
	Balance    uint64 `json:"balance"`
	Sequence   uint32 `json:"sequence"`
	OwnerCount uint32 `json:"owner_count"`
}

// VaultInfoParams identifies a vault by its house address.
type VaultInfoParams struct {
	House string `json:"house"`
}

// VaultInfoResult is the vault state returned by vault_info.
type VaultInfoResult struct {
	House   string `json:"house"`
	VaultID string `json:"vault_id"`
	Balance uint64 `json:"balance"`
	Bump    uint8  `json:"bump"`
}

// BetInfoParams identifies a bet by house address and seed.
type BetInfoParams struct {
	House string `json:"house"`
	Seed  string `json:"seed"`
}

// BetInfoResult is the bet state returned by bet_info.
type BetInfoResult struct {
	Player  string `json:"player"`
	Seed    string `json:"seed"`
	Roll    uint8  `json:"roll"`
	Amount  uint64 `json:"amount"`
	Slot    uint64 `json:"slot"`
	Reserve uint64 `json:"reserve"`
}

// LedgerParams selects a slot; zero means the last closed one.
type LedgerParams struct {
	LedgerIndex uint64 `json:"ledger_index"`
}

// LedgerResult describes a closed slot.
type LedgerResult struct {
	LedgerIndex    uint64 `json:"ledger_index"`
	LedgerHash     string `json:"ledger_hash"`
	ParentHash     string `json:"parent_hash"`
	StateHash      string `json:"state_hash"`
	TxHash         string `json:"tx_hash"`
	CloseTime      int64  `json:"close_time"`
	TotalUnits     uint64 `json:"total_units"`
	UnitsDestroyed uint64 `json:"units_destroyed"`
	TxCount        int    `json:"tx_count"`
	EntryCount     int    `json:"entry_count"`
}

// TxParams identifies a transaction by hash.
type TxParams struct {
	Hash string `json:"hash"`
}

// TxResult is an indexed transaction record.
type TxResult struct {
	Hash           string          `json:"hash"`
	Account        string          `json:"account"`
	Type           string          `json:"type"`
	LedgerSequence uint64          `json:"ledger_sequence"`
	Result         string          `json:"result"`
	Fee            uint64          `json:"fee"`
	TxJSON         json.RawMessage `json:"tx_json"`
}

// AccountTxParams selects an account's history.
type AccountTxParams struct {
	Account string `json:"account"`
	Limit   int    `json:"limit"`
}

// GameParamsResult is the on-ledger wagering configuration.
type GameParamsResult struct {
	RollMin          uint8  `json:"roll_min"`
	RollMax          uint8  `json:"roll_max"`
	BetMin           uint64 `json:"bet_min"`
	BetMax           uint64 `json:"bet_max"`
	RefundDelaySlots uint64 `json:"refund_delay_slots"`
	BaseFee          uint64 `json:"base_fee"`
	EntryReserve     uint64 `json:"entry_reserve"`
}

// ServerInfoResult describes the running node.
type ServerInfoResult struct {
	Version        string `json:"version"`
	Standalone     bool   `json:"standalone"`
	CurrentSlot    uint64 `json:"current_slot"`
	ClosedSlot     uint64 `json:"closed_slot"`
	ClosedHash     string `json:"closed_hash"`
	TotalUnits     uint64 `json:"total_units"`
	StateEntries   int    `json:"state_entries"`
	UptimeSeconds  int64  `json:"uptime_seconds"`
	PendingSlotTxs int    `json:"pending_slot_txs"`
}
