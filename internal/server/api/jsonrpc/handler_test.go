package jsonrpc_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dicehouse/diced/internal/core/ledger/genesis"
	"github.com/dicehouse/diced/internal/core/ledger/service"
	"github.com/dicehouse/diced/internal/core/tx"
	"github.com/dicehouse/diced/internal/core/tx/payment"
	"github.com/dicehouse/diced/internal/server/api/jsonrpc"
	"github.com/dicehouse/diced/internal/storage/txindex"
	jtx "github.com/dicehouse/diced/internal/testing"
)

type fixture struct {
	handler *jsonrpc.Handler
	ledgers *service.LedgerManager
	master  *jtx.Account
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	index, err := txindex.Open(filepath.Join(t.TempDir(), "tx.db"))
	require.NoError(t, err)
	t.Cleanup(func() { index.Close() })

	m := service.NewLedgerManager(service.Config{
		ReserveBase:               10_000_000,
		SkipSignatureVerification: true,
		Standalone:                true,
	}, nil)
	m.AttachIndex(index)

	master := jtx.MasterAccount()
	err = m.Initialize(context.Background(), genesis.Config{MasterAccount: master.ID})
	require.NoError(t, err)

	return &fixture{
		handler: jsonrpc.NewHandler(m, "test", true),
		ledgers: m,
		master:  master,
	}
}

func (f *fixture) call(t *testing.T, method string, params interface{}) (interface{}, error) {
	t.Helper()
	var raw json.RawMessage
	if params != nil {
		data, err := json.Marshal(params)
		require.NoError(t, err)
		raw = data
	}
	return f.handler.Handle(context.Background(), method, raw)
}

func (f *fixture) submitPayment(t *testing.T, to *jtx.Account, amount uint64, seq uint32) jsonrpc.SubmitResult {
	t.Helper()

	p := payment.NewPayment(f.master.Address, to.Address, amount)
	p.SetSequence(seq)
	p.Fee = "10"
	txJSON, err := tx.ToJSON(p)
	require.NoError(t, err)

	res, err := f.call(t, "submit", map[string]json.RawMessage{"tx_json": txJSON})
	require.NoError(t, err)
	return res.(jsonrpc.SubmitResult)
}

func TestHandlePing(t *testing.T) {
	f := newFixture(t)
	res, err := f.call(t, "ping", nil)
	require.NoError(t, err)
	require.Equal(t, map[string]string{}, res)
}

func TestHandleMethodNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.call(t, "bogus_method", nil)

	var rpcErr *jsonrpc.Error
	require.ErrorAs(t, err, &rpcErr)
	require.Equal(t, jsonrpc.CodeMethodNotFound, rpcErr.Code)
}

func TestHandleSubmit(t *testing.T) {
	f := newFixture(t)
	alice := jtx.NewAccount("alice")

	out := f.submitPayment(t, alice, 1_000_000_000, 1)
	require.Equal(t, "tesSUCCESS", out.EngineResult)
	require.True(t, out.Applied)
	require.Equal(t, uint64(10), out.Fee)
	require.Len(t, out.TxHash, 64)
}

func TestHandleSubmitBadParams(t *testing.T) {
	f := newFixture(t)

	_, err := f.call(t, "submit", map[string]string{})
	var rpcErr *jsonrpc.Error
	require.ErrorAs(t, err, &rpcErr)
	require.Equal(t, jsonrpc.CodeInvalidParams, rpcErr.Code)

	_, err = f.call(t, "submit", map[string]json.RawMessage{
		"tx_json": json.RawMessage(`{"TransactionType":"Nonsense"}`),
	})
	require.ErrorAs(t, err, &rpcErr)
	require.Equal(t, jsonrpc.CodeInvalidParams, rpcErr.Code)
}

func TestHandleAccountInfo(t *testing.T) {
	f := newFixture(t)
	alice := jtx.NewAccount("alice")
	f.submitPayment(t, alice, 1_000_000_000, 1)

	res, err := f.call(t, "account_info", map[string]string{"account": alice.Address})
	require.NoError(t, err)

	info := res.(jsonrpc.AccountInfoResult)
	require.Equal(t, alice.Address, info.Account)
	require.Equal(t, uint64(1_000_000_000), info.Balance)
	require.Equal(t, uint32(1), info.Sequence)

	_, err = f.call(t, "account_info", map[string]string{"account": jtx.NewAccount("ghost").Address})
	require.ErrorIs(t, err, service.ErrAccountNotFound)

	var rpcErr *jsonrpc.Error
	_, err = f.call(t, "account_info", map[string]string{})
	require.ErrorAs(t, err, &rpcErr)
}

func TestHandleGameParams(t *testing.T) {
	f := newFixture(t)

	res, err := f.call(t, "game_params", nil)
	require.NoError(t, err)

	params := res.(jsonrpc.GameParamsResult)
	require.Equal(t, genesis.DefaultRollMin, params.RollMin)
	require.Equal(t, genesis.DefaultRollMax, params.RollMax)
	require.Equal(t, genesis.DefaultBetMin, params.BetMin)
	require.Equal(t, genesis.DefaultBaseFee, params.BaseFee)
}

func TestHandleLedgerCurrentAndAccept(t *testing.T) {
	f := newFixture(t)

	res, err := f.call(t, "ledger_current", nil)
	require.NoError(t, err)
	require.Equal(t, map[string]uint64{"ledger_current_index": 2}, res)

	res, err = f.call(t, "ledger_accept", nil)
	require.NoError(t, err)
	require.Equal(t, map[string]uint64{"ledger_current_index": 3}, res)
}

func TestHandleLedgerAcceptRequiresStandalone(t *testing.T) {
	f := newFixture(t)
	networked := jsonrpc.NewHandler(f.ledgers, "test", false)

	_, err := networked.Handle(context.Background(), "ledger_accept", nil)
	var rpcErr *jsonrpc.Error
	require.ErrorAs(t, err, &rpcErr)
	require.Equal(t, jsonrpc.CodeInvalidRequest, rpcErr.Code)
}

func TestHandleLedger(t *testing.T) {
	f := newFixture(t)
	alice := jtx.NewAccount("alice")
	f.submitPayment(t, alice, 1_000_000_000, 1)

	_, err := f.call(t, "ledger_accept", nil)
	require.NoError(t, err)

	// Zero index resolves to the last closed slot.
	res, err := f.call(t, "ledger", nil)
	require.NoError(t, err)
	closed := res.(jsonrpc.LedgerResult)
	require.Equal(t, uint64(2), closed.LedgerIndex)
	require.Equal(t, 1, closed.TxCount)
	require.Len(t, closed.LedgerHash, 64)

	res, err = f.call(t, "ledger", map[string]uint64{"ledger_index": 1})
	require.NoError(t, err)
	require.Equal(t, uint64(1), res.(jsonrpc.LedgerResult).LedgerIndex)

	_, err = f.call(t, "ledger", map[string]uint64{"ledger_index": 99})
	require.ErrorIs(t, err, service.ErrLedgerNotFound)
}

func TestHandleTxAndAccountTx(t *testing.T) {
	f := newFixture(t)
	alice := jtx.NewAccount("alice")

	out := f.submitPayment(t, alice, 1_000_000_000, 1)
	_, err := f.call(t, "ledger_accept", nil)
	require.NoError(t, err)

	res, err := f.call(t, "tx", map[string]string{"hash": out.TxHash})
	require.NoError(t, err)
	rec := res.(jsonrpc.TxResult)
	require.Equal(t, out.TxHash, rec.Hash)
	require.Equal(t, f.master.Address, rec.Account)
	require.Equal(t, "tesSUCCESS", rec.Result)

	var rpcErr *jsonrpc.Error
	_, err = f.call(t, "tx", map[string]string{"hash": "zz"})
	require.ErrorAs(t, err, &rpcErr)

	missing := "00112233445566778899AABBCCDDEEFF00112233445566778899AABBCCDDEEFF"
	_, err = f.call(t, "tx", map[string]string{"hash": missing})
	require.ErrorAs(t, err, &rpcErr)

	res, err = f.call(t, "account_tx", map[string]interface{}{"account": f.master.Address, "limit": 10})
	require.NoError(t, err)
	history := res.(map[string]interface{})
	require.Len(t, history["transactions"].([]jsonrpc.TxResult), 1)
}

func TestHandleServerInfo(t *testing.T) {
	f := newFixture(t)

	res, err := f.call(t, "server_info", nil)
	require.NoError(t, err)

	info := res.(jsonrpc.ServerInfoResult)
	require.Equal(t, "test", info.Version)
	require.True(t, info.Standalone)
	require.Equal(t, uint64(2), info.CurrentSlot)
	require.Equal(t, uint64(1), info.ClosedSlot)
	require.Equal(t, genesis.DefaultTotalSupply, info.TotalUnits)
	require.Equal(t, 2, info.StateEntries)
}
