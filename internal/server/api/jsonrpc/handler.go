package jsonrpc

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dicehouse/diced/internal/core/ledger/service"
	"github.com/dicehouse/diced/internal/core/tx"
	"github.com/dicehouse/diced/internal/core/tx/sle"
	"github.com/dicehouse/diced/internal/storage/txindex"
)

// Error is a JSON-RPC error with a code.
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func paramError(format string, args ...interface{}) *Error {
	return &Error{Code: CodeInvalidParams, Message: fmt.Sprintf(format, args...)}
}

// Handler dispatches JSON-RPC methods against the ledger service.
type Handler struct {
	ledgers *service.LedgerManager
	version string
	started time.Time

	// standalone enables the ledger_accept method
	standalone bool

	methods map[string]func(context.Context, json.RawMessage) (interface{}, error)
}

// NewHandler initializes the method table.
func NewHandler(ledgers *service.LedgerManager, version string, standalone bool) *Handler {
	h := &Handler{
		ledgers:    ledgers,
		version:    version,
		started:    time.Now(),
		standalone: standalone,
	}

	h.methods = map[string]func(context.Context, json.RawMessage) (interface{}, error){
		"ping":           h.handlePing,
		"submit":         h.handleSubmit,
		"account_info":   h.handleAccountInfo,
		"vault_info":     h.handleVaultInfo,
		"bet_info":       h.handleBetInfo,
		"game_params":    h.handleGameParams,
		"ledger":         h.handleLedger,
		"ledger_current": h.handleLedgerCurrent,
		"ledger_accept":  h.handleLedgerAccept,
		"tx":             h.handleTx,
		"account_tx":     h.handleAccountTx,
		"server_info":    h.handleServerInfo,
	}

	return h
}

// Handle dispatches a JSON-RPC method to the appropriate handler.
func (h *Handler) Handle(ctx context.Context, method string, params json.RawMessage) (interface{}, error) {
	handler, exists := h.methods[method]
	if !exists {
		return nil, &Error{Code: CodeMethodNotFound, Message: fmt.Sprintf("method %s not found", method)}
	}
	return handler(ctx, params)
}

func (h *Handler) handlePing(ctx context.Context, params json.RawMessage) (interface{}, error) {
	return map[string]string{}, nil
}

func (h *Handler) handleSubmit(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p SubmitParams
	if err := json.Unmarshal(params, &p); err != nil || len(p.TxJSON) == 0 {
		return nil, paramError("submit requires tx_json")
	}

	txn, err := tx.FromJSON(p.TxJSON)
	if err != nil {
		return nil, paramError("cannot parse transaction: %v", err)
	}

	result, err := h.ledgers.Submit(txn)
	if err != nil {
		return nil, err
	}

	out := SubmitResult{
		EngineResult:        result.Result.String(),
		EngineResultCode:    int(result.Result),
		EngineResultMessage: result.Message,
		Applied:             result.Applied,
		Fee:                 result.Fee,
	}
	if result.Applied {
		out.TxHash = strings.ToUpper(hex.EncodeToString(result.TxHash[:]))
	}
	if result.Metadata != nil {
		if meta, err := json.Marshal(result.Metadata); err == nil {
			out.Metadata = meta
		}
	}
	return out, nil
}

func (h *Handler) handleAccountInfo(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p AccountInfoParams
	if err := json.Unmarshal(params, &p); err != nil || p.Account == "" {
		return nil, paramError("account_info requires account")
	}

	account, err := h.ledgers.AccountInfo(p.Account)
	if err != nil {
		return nil, err
	}

	return AccountInfoResult{
		Account:    p.Account,
		Balance:    account.Balance,
		Sequence:   account.Sequence,
		OwnerCount: account.OwnerCount,
	}, nil
}

func (h *Handler) handleVaultInfo(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p VaultInfoParams
	if err := json.Unmarshal(params, &p); err != nil || p.House == "" {
		return nil, paramError("vault_info requires house")
	}

	vault, vaultID, err := h.ledgers.VaultInfo(p.House)
	if err != nil {
		return nil, err
	}

	return VaultInfoResult{
		House:   p.House,
		VaultID: strings.ToUpper(hex.EncodeToString(vaultID[:])),
		Balance: vault.Balance,
		Bump:    vault.Bump,
	}, nil
}

func (h *Handler) handleBetInfo(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p BetInfoParams
	if err := json.Unmarshal(params, &p); err != nil || p.House == "" || p.Seed == "" {
		return nil, paramError("bet_info requires house and seed")
	}

	bet, err := h.ledgers.BetInfo(p.House, p.Seed)
	if err != nil {
		return nil, err
	}

	return BetInfoResult{
		Player:  sle.EncodeAccountID(bet.Player),
		Seed:    strings.ToUpper(hex.EncodeToString(bet.Seed[:])),
		Roll:    bet.Roll,
		Amount:  bet.Amount,
		Slot:    bet.Slot,
		Reserve: bet.Reserve,
	}, nil
}

func (h *Handler) handleGameParams(ctx context.Context, params json.RawMessage) (interface{}, error) {
	p, err := h.ledgers.GameParams()
	if err != nil {
		return nil, err
	}

	return GameParamsResult{
		RollMin:          p.RollMin,
		RollMax:          p.RollMax,
		BetMin:           p.BetMin,
		BetMax:           p.BetMax,
		RefundDelaySlots: p.RefundDelaySlots,
		BaseFee:          p.BaseFee,
		EntryReserve:     p.EntryReserve,
	}, nil
}

func (h *Handler) handleLedger(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p LedgerParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, paramError("cannot parse ledger params")
		}
	}

	sequence := p.LedgerIndex
	if sequence == 0 {
		closed := h.ledgers.ClosedLedger()
		if closed == nil {
			return nil, service.ErrNotInitialized
		}
		sequence = closed.Sequence()
	}

	l, err := h.ledgers.LedgerBySequence(ctx, sequence)
	if err != nil {
		return nil, err
	}

	hash := l.Hash()
	return LedgerResult{
		LedgerIndex:    l.Sequence(),
		LedgerHash:     strings.ToUpper(hex.EncodeToString(hash[:])),
		ParentHash:     strings.ToUpper(hex.EncodeToString(l.Header.ParentHash[:])),
		StateHash:      strings.ToUpper(hex.EncodeToString(l.Header.StateHash[:])),
		TxHash:         strings.ToUpper(hex.EncodeToString(l.Header.TxHash[:])),
		CloseTime:      l.Header.CloseTime.Unix(),
		TotalUnits:     l.Header.TotalUnits,
		UnitsDestroyed: l.Header.UnitsDestroyed,
		TxCount:        len(l.Transactions()),
		EntryCount:     l.EntryCount(),
	}, nil
}

func (h *Handler) handleLedgerCurrent(ctx context.Context, params json.RawMessage) (interface{}, error) {
	return map[string]uint64{"ledger_current_index": h.ledgers.CurrentSlot()}, nil
}

// handleLedgerAccept seals the open slot. Standalone mode only; a
// networked node closes slots on its own schedule.
func (h *Handler) handleLedgerAccept(ctx context.Context, params json.RawMessage) (interface{}, error) {
	if !h.standalone {
		return nil, &Error{Code: CodeInvalidRequest, Message: "ledger_accept is only available in standalone mode"}
	}

	closed, err := h.ledgers.Accept(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]uint64{"ledger_current_index": closed.Sequence() + 1}, nil
}

func (h *Handler) handleTx(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p TxParams
	if err := json.Unmarshal(params, &p); err != nil || p.Hash == "" {
		return nil, paramError("tx requires hash")
	}

	raw, err := hex.DecodeString(strings.ToLower(p.Hash))
	if err != nil || len(raw) != 32 {
		return nil, paramError("hash must be 64 hex characters")
	}
	var hash [32]byte
	copy(hash[:], raw)

	rec, err := h.ledgers.TxByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, txindex.ErrNotFound) {
			return nil, &Error{Code: CodeInvalidParams, Message: "transaction not found"}
		}
		return nil, err
	}

	return recordToResult(rec), nil
}

func (h *Handler) handleAccountTx(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p AccountTxParams
	if err := json.Unmarshal(params, &p); err != nil || p.Account == "" {
		return nil, paramError("account_tx requires account")
	}

	records, err := h.ledgers.TxsByAccount(ctx, p.Account, p.Limit)
	if err != nil {
		return nil, err
	}

	out := make([]TxResult, 0, len(records))
	for i := range records {
		out = append(out, recordToResult(&records[i]))
	}
	return map[string]interface{}{"account": p.Account, "transactions": out}, nil
}

func (h *Handler) handleServerInfo(ctx context.Context, params json.RawMessage) (interface{}, error) {
	info := ServerInfoResult{
		Version:       h.version,
		Standalone:    h.standalone,
		CurrentSlot:   h.ledgers.CurrentSlot(),
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
	}

	if closed := h.ledgers.ClosedLedger(); closed != nil {
		hash := closed.Hash()
		info.ClosedSlot = closed.Sequence()
		info.ClosedHash = strings.ToUpper(hex.EncodeToString(hash[:]))
		info.TotalUnits = closed.Header.TotalUnits
		info.StateEntries = closed.EntryCount()
	}
	if open := h.ledgers.OpenLedger(); open != nil {
		info.PendingSlotTxs = open.TxCount()
	}

	return info, nil
}

func recordToResult(rec *txindex.Record) TxResult {
	return TxResult{
		Hash:           strings.ToUpper(rec.Hash),
		Account:        rec.Account,
		Type:           rec.Type,
		LedgerSequence: rec.LedgerSequence,
		Result:         rec.Result,
		Fee:            rec.Fee,
		TxJSON:         json.RawMessage(rec.Raw),
	}
}
