// Package testing provides a self-contained ledger environment for
// transaction tests: a genesis chain owned by a deterministic master
// account, helpers to fund accounts and drive slots, and accessors for
// the dice-game state entries.
package testing

import (
	"strconv"
	"testing"
	"time"

	"github.com/dicehouse/diced/internal/core/ledger"
	"github.com/dicehouse/diced/internal/core/ledger/entry"
	"github.com/dicehouse/diced/internal/core/ledger/genesis"
	"github.com/dicehouse/diced/internal/core/ledger/keylet"
	"github.com/dicehouse/diced/internal/core/tx"
	"github.com/dicehouse/diced/internal/core/tx/bet"
	"github.com/dicehouse/diced/internal/core/tx/payment"
	"github.com/dicehouse/diced/internal/core/tx/sle"
	"github.com/dicehouse/diced/internal/core/tx/vault"
)

// Default environment parameters. The reserve base is deliberately small
// so funding amounts in tests stay readable.
const (
	defaultReserveBase = uint64(10_000_000)
	defaultFunding     = uint64(1_000_000_000)
)

// TestEnv manages a test ledger environment: an open slot over a genesis
// chain, plus submit/close/query helpers.
type TestEnv struct {
	t     *testing.T
	clock *ManualClock

	open       *ledger.OpenLedger
	lastClosed *ledger.Ledger
	genesis    *ledger.Ledger

	master *Account
	params sle.DiceParams

	reserveBase uint64
	totalSupply uint64

	// verifySignatures makes Submit sign every transaction with its
	// account's keypair and run the engine with verification enabled.
	verifySignatures bool

	// accumulated fees destroyed by applied transactions
	destroyed uint64

	// registered accounts, by address, for automatic signing
	accounts map[string]*Account
}

// NewTestEnv creates a test environment with default game parameters.
// Signature verification is off; use NewSignedTestEnv to exercise the
// full signing path.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()
	return newEnv(t, genesis.DefaultParams(), false)
}

// NewSignedTestEnv creates a test environment that signs every
// submitted transaction and runs the engine with signature verification
// enabled.
func NewSignedTestEnv(t *testing.T) *TestEnv {
	t.Helper()
	return newEnv(t, genesis.DefaultParams(), true)
}

// NewTestEnvWithParams creates a test environment with custom game
// parameters written into genesis.
func NewTestEnvWithParams(t *testing.T, params sle.DiceParams) *TestEnv {
	t.Helper()
	return newEnv(t, params, false)
}

func newEnv(t *testing.T, params sle.DiceParams, verify bool) *TestEnv {
	t.Helper()

	clock := NewManualClock()
	master := MasterAccount()

	genesisLedger, err := genesis.Create(genesis.Config{
		MasterAccount: master.ID,
		TotalSupply:   genesis.DefaultTotalSupply,
		Params:        params,
		CloseTime:     clock.Now(),
	})
	if err != nil {
		t.Fatalf("failed to create genesis ledger: %v", err)
	}

	env := &TestEnv{
		t:                t,
		clock:            clock,
		open:             ledger.NewOpen(genesisLedger),
		lastClosed:       genesisLedger,
		genesis:          genesisLedger,
		master:           master,
		params:           params,
		reserveBase:      defaultReserveBase,
		totalSupply:      genesis.DefaultTotalSupply,
		verifySignatures: verify,
		accounts:         map[string]*Account{master.Address: master},
	}
	return env
}

// Master returns the account holding the genesis supply.
func (e *TestEnv) Master() *Account {
	return e.master
}

// Params returns the game parameters the environment runs with.
func (e *TestEnv) Params() sle.DiceParams {
	return e.params
}

// BaseFee returns the base fee in native units.
func (e *TestEnv) BaseFee() uint64 {
	return e.params.BaseFee
}

// EntryReserve returns the per-entry reserve in native units.
func (e *TestEnv) EntryReserve() uint64 {
	return e.params.EntryReserve
}

// TotalSupply returns the genesis supply.
func (e *TestEnv) TotalSupply() uint64 {
	return e.totalSupply
}

// DestroyedUnits returns the native units destroyed as fees by all
// transactions applied through this environment.
func (e *TestEnv) DestroyedUnits() uint64 {
	return e.destroyed
}

// Fund funds accounts from the master account with a default balance and
// registers them for automatic signing.
func (e *TestEnv) Fund(accounts ...*Account) {
	e.t.Helper()
	for _, acc := range accounts {
		e.FundAmount(acc, defaultFunding)
	}
}

// FundAmount funds an account with a specific amount. Funding a fresh
// account must at least cover the base reserve.
func (e *TestEnv) FundAmount(acc *Account, amount uint64) {
	e.t.Helper()

	e.accounts[acc.Address] = acc

	res := e.Submit(payment.NewPayment(e.master.Address, acc.Address, amount))
	if !res.Success() {
		e.t.Fatalf("failed to fund account %s: %s", acc.Name, res.Code)
	}
}

// Pay sends native units between two registered accounts.
func (e *TestEnv) Pay(from, to *Account, amount uint64) TxResult {
	e.t.Helper()
	return e.Submit(payment.NewPayment(from.Address, to.Address, amount))
}

// Submit validates and applies a transaction to the open slot. Sequence
// and fee are auto-filled when unset; in signed mode the transaction is
// signed with its account's keypair before submission.
func (e *TestEnv) Submit(txn tx.Transaction) TxResult {
	e.t.Helper()

	common := txn.GetCommon()
	if common.Sequence == nil {
		seq := e.seqByAddress(common.Account)
		common.Sequence = &seq
	}
	if common.Fee == "" {
		common.Fee = strconv.FormatUint(e.params.BaseFee, 10)
	}

	if e.verifySignatures && common.TxnSignature == "" {
		acc := e.accounts[common.Account]
		if acc == nil {
			e.t.Fatalf("no keypair registered for account %s", common.Account)
		}
		if err := tx.Sign(txn, acc.Keys); err != nil {
			e.t.Fatalf("failed to sign transaction: %v", err)
		}
	}

	engine := tx.NewEngine(e.open, e.engineConfig())
	res := engine.Apply(txn)

	if res.Applied {
		e.open.RecordTransaction(ledger.AppliedTransaction{
			Hash:        res.TxHash,
			Transaction: txn,
			Result:      res.Result,
			Fee:         res.Fee,
			Metadata:    res.Metadata,
		})
		e.destroyed += res.Fee
	}

	return TxResult{
		Code:    res.Result,
		Applied: res.Applied,
		Fee:     res.Fee,
		Message: res.Message,
	}
}

func (e *TestEnv) engineConfig() tx.EngineConfig {
	return tx.EngineConfig{
		BaseFee:                   e.params.BaseFee,
		ReserveBase:               e.reserveBase,
		ReserveIncrement:          e.params.EntryReserve,
		LedgerSequence:            e.open.Sequence(),
		SkipSignatureVerification: !e.verifySignatures,
		Standalone:                true,
		Dice: tx.GameParams{
			RollMin:          e.params.RollMin,
			RollMax:          e.params.RollMax,
			BetMin:           e.params.BetMin,
			BetMax:           e.params.BetMax,
			RefundDelaySlots: e.params.RefundDelaySlots,
		},
	}
}

// Close seals the open slot and opens the next one.
func (e *TestEnv) Close() {
	e.t.Helper()

	e.clock.Advance(10 * time.Second)
	closed := e.open.Close(e.clock.Now())
	e.lastClosed = closed
	e.open = ledger.NewOpen(closed)
}

// CloseN closes n slots in a row.
func (e *TestEnv) CloseN(n int) {
	e.t.Helper()
	for i := 0; i < n; i++ {
		e.Close()
	}
}

// CloseUntil closes slots until the open slot reaches the target
// sequence.
func (e *TestEnv) CloseUntil(seq uint64) {
	e.t.Helper()
	for e.open.Sequence() < seq {
		e.Close()
	}
}

// Slot returns the sequence of the open slot.
func (e *TestEnv) Slot() uint64 {
	return e.open.Sequence()
}

// Open returns the open slot for direct state access.
func (e *TestEnv) Open() *ledger.OpenLedger {
	return e.open
}

// LastClosed returns the most recently closed slot.
func (e *TestEnv) LastClosed() *ledger.Ledger {
	return e.lastClosed
}

// Genesis returns the genesis slot.
func (e *TestEnv) Genesis() *ledger.Ledger {
	return e.genesis
}

// AdvanceTime moves the environment clock forward.
func (e *TestEnv) AdvanceTime(d time.Duration) {
	e.clock.Advance(d)
}

// Exists reports whether the account exists in the open slot.
func (e *TestEnv) Exists(acc *Account) bool {
	e.t.Helper()
	exists, err := e.open.Exists(keylet.Account(acc.ID))
	if err != nil {
		e.t.Fatalf("failed to check account existence: %v", err)
	}
	return exists
}

// Balance returns an account's balance in native units, or 0 if the
// account does not exist.
func (e *TestEnv) Balance(acc *Account) uint64 {
	e.t.Helper()
	root := e.accountRoot(acc)
	if root == nil {
		return 0
	}
	return root.Balance
}

// Seq returns an account's current sequence number.
func (e *TestEnv) Seq(acc *Account) uint32 {
	e.t.Helper()
	root := e.accountRoot(acc)
	if root == nil {
		return 1
	}
	return root.Sequence
}

// OwnerCount returns an account's owner count.
func (e *TestEnv) OwnerCount(acc *Account) uint32 {
	e.t.Helper()
	root := e.accountRoot(acc)
	if root == nil {
		return 0
	}
	return root.OwnerCount
}

func (e *TestEnv) accountRoot(acc *Account) *sle.AccountRoot {
	e.t.Helper()

	data, err := e.open.Read(keylet.Account(acc.ID))
	if err != nil {
		e.t.Fatalf("failed to read account %s: %v", acc.Name, err)
	}
	if data == nil {
		return nil
	}
	root, err := sle.ParseAccountRoot(data)
	if err != nil {
		e.t.Fatalf("failed to parse account %s: %v", acc.Name, err)
	}
	return root
}

func (e *TestEnv) seqByAddress(address string) uint32 {
	e.t.Helper()

	id, err := sle.DecodeAccountID(address)
	if err != nil {
		e.t.Fatalf("failed to decode address %s: %v", address, err)
	}
	data, err := e.open.Read(keylet.Account(id))
	if err != nil {
		e.t.Fatalf("failed to read account %s: %v", address, err)
	}
	if data == nil {
		return 1
	}
	root, err := sle.ParseAccountRoot(data)
	if err != nil {
		e.t.Fatalf("failed to parse account %s: %v", address, err)
	}
	return root.Sequence
}

// CreateVault submits a VaultCreate for the house with the given
// deposit.
func (e *TestEnv) CreateVault(house *Account, deposit uint64) TxResult {
	e.t.Helper()
	return e.Submit(vault.NewVaultCreate(house.Address, deposit))
}

// PlaceBet submits a BetPlace from the player against the house's
// vault.
func (e *TestEnv) PlaceBet(player, house *Account, seedLo, seedHi uint64, roll uint8, amount uint64) TxResult {
	e.t.Helper()
	return e.Submit(bet.NewPlace(player.Address, house.Address, seedLo, seedHi, roll, amount))
}

// RefundBet submits a BetRefund from the player for the bet keyed by
// (house's vault, seed).
func (e *TestEnv) RefundBet(player, house *Account, seedLo, seedHi uint64) TxResult {
	e.t.Helper()
	return e.Submit(bet.NewRefund(player.Address, house.Address, seedLo, seedHi))
}

// ResolveBet settles the bet keyed by (house's vault, seed): the house
// signs the bet commitment and submits a BetResolve carrying that
// signature.
func (e *TestEnv) ResolveBet(house *Account, seedLo, seedHi uint64) TxResult {
	e.t.Helper()
	return e.ResolveBetWithSignature(house, seedLo, seedHi, e.SignBet(house, seedLo, seedHi))
}

// ResolveBetWithSignature submits a BetResolve with an explicit
// signature, for tests exercising the verification path.
func (e *TestEnv) ResolveBetWithSignature(house *Account, seedLo, seedHi uint64, signature []byte) TxResult {
	e.t.Helper()
	return e.Submit(bet.NewResolve(house.Address, seedLo, seedHi, signature))
}

// SignBet returns the house's signature over the stored bet commitment,
// the randomness source for resolution.
func (e *TestEnv) SignBet(house *Account, seedLo, seedHi uint64) []byte {
	e.t.Helper()

	betEntry := e.BetEntry(house, seedLo, seedHi)
	if betEntry == nil {
		e.t.Fatalf("no bet for house %s seed %016x%016x", house.Name, seedHi, seedLo)
	}
	return house.Sign(betEntry.CommitBytes())
}

// VaultKey returns the derived vault key for a house.
func (e *TestEnv) VaultKey(house *Account) keylet.Keylet {
	e.t.Helper()

	k, _, ok := keylet.Vault(house.ID)
	if !ok {
		e.t.Fatalf("failed to derive vault key for %s", house.Name)
	}
	return k
}

// VaultEntry returns the house's vault entry, or nil if there is none.
func (e *TestEnv) VaultEntry(house *Account) *sle.Vault {
	e.t.Helper()

	data, err := e.open.Read(e.VaultKey(house))
	if err != nil {
		e.t.Fatalf("failed to read vault for %s: %v", house.Name, err)
	}
	if data == nil {
		return nil
	}
	v, err := sle.ParseVault(data)
	if err != nil {
		e.t.Fatalf("failed to parse vault for %s: %v", house.Name, err)
	}
	return v
}

// VaultBalance returns the balance of the house's vault, or 0 if the
// vault does not exist.
func (e *TestEnv) VaultBalance(house *Account) uint64 {
	e.t.Helper()
	v := e.VaultEntry(house)
	if v == nil {
		return 0
	}
	return v.Balance
}

// BetEntry returns the bet entry keyed by (house's vault, seed), or nil
// if there is none.
func (e *TestEnv) BetEntry(house *Account, seedLo, seedHi uint64) *sle.Bet {
	e.t.Helper()

	vaultKey := e.VaultKey(house)
	betKey, _, ok := keylet.Bet(vaultKey.Key, keylet.SeedBytes(seedLo, seedHi))
	if !ok {
		e.t.Fatalf("failed to derive bet key for %s", house.Name)
	}

	data, err := e.open.Read(betKey)
	if err != nil {
		e.t.Fatalf("failed to read bet: %v", err)
	}
	if data == nil {
		return nil
	}
	b, err := sle.ParseBet(data)
	if err != nil {
		e.t.Fatalf("failed to parse bet: %v", err)
	}
	return b
}

// BetExists reports whether a bet exists for (house's vault, seed).
func (e *TestEnv) BetExists(house *Account, seedLo, seedHi uint64) bool {
	e.t.Helper()
	return e.BetEntry(house, seedLo, seedHi) != nil
}

// CirculatingUnits sums every native unit currently held in state:
// account balances, vault balances, and the stakes and reserves locked
// in open bets. Together with the fees destroyed so far, this must
// always equal the genesis supply.
func (e *TestEnv) CirculatingUnits() uint64 {
	e.t.Helper()

	var total uint64
	err := e.open.ForEach(func(key [32]byte, data []byte) bool {
		switch entry.Type(sle.GetEntryType(data)) {
		case entry.TypeAccountRoot:
			root, err := sle.ParseAccountRoot(data)
			if err != nil {
				e.t.Fatalf("failed to parse account entry: %v", err)
			}
			total += root.Balance
		case entry.TypeVault:
			v, err := sle.ParseVault(data)
			if err != nil {
				e.t.Fatalf("failed to parse vault entry: %v", err)
			}
			total += v.Balance
		case entry.TypeBet:
			b, err := sle.ParseBet(data)
			if err != nil {
				e.t.Fatalf("failed to parse bet entry: %v", err)
			}
			total += b.Amount + b.Reserve
		}
		return true
	})
	if err != nil {
		e.t.Fatalf("failed to walk state: %v", err)
	}
	return total
}
