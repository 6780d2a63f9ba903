// Package service owns the ledger lifecycle: it holds the open slot,
// runs the transaction engine over it, seals slots on accept, and
// persists and indexes what it seals.
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dicehouse/diced/internal/core/ledger"
	"github.com/dicehouse/diced/internal/core/ledger/genesis"
	"github.com/dicehouse/diced/internal/core/ledger/keylet"
	"github.com/dicehouse/diced/internal/core/tx"
	"github.com/dicehouse/diced/internal/core/tx/sle"
	"github.com/dicehouse/diced/internal/metrics"
	"github.com/dicehouse/diced/internal/storage/ledgerstore"
	"github.com/dicehouse/diced/internal/storage/txindex"
)

var (
	ErrNotInitialized = errors.New("ledger service not initialized")
	ErrLedgerNotFound = errors.New("ledger not found")
)

// Config holds the node-level knobs the engine needs beyond the
// on-ledger game parameters.
type Config struct {
	// ReserveBase is the minimum balance a funded account must hold.
	ReserveBase uint64

	// NetworkID, when nonzero, is enforced on every transaction.
	NetworkID uint32

	// SkipSignatureVerification disables signature checks (test mode).
	SkipSignatureVerification bool

	// Standalone indicates the node advances slots on its own clock.
	Standalone bool
}

// LedgerManager handles ledger lifecycle and state management.
// The mutex guards the open/closed slot pointers; the open slot itself
// is internally synchronized.
type LedgerManager struct {
	mu  sync.RWMutex
	cfg Config
	log *zap.Logger

	store   *ledgerstore.Store
	index   *txindex.Index
	metrics *metrics.Metrics

	// Current open slot (accepting transactions)
	open *ledger.OpenLedger

	// Last closed slot
	closed *ledger.Ledger

	// Genesis slot
	genesisLedger *ledger.Ledger
}

// NewLedgerManager creates an unstarted manager. Call Initialize before
// submitting anything.
func NewLedgerManager(cfg Config, log *zap.Logger) *LedgerManager {
	if log == nil {
		log = zap.NewNop()
	}
	return &LedgerManager{cfg: cfg, log: log}
}

// AttachStore enables slot persistence.
func (m *LedgerManager) AttachStore(store *ledgerstore.Store) {
	m.store = store
}

// AttachIndex enables transaction history indexing.
func (m *LedgerManager) AttachIndex(index *txindex.Index) {
	m.index = index
}

// AttachMetrics enables Prometheus instrumentation.
func (m *LedgerManager) AttachMetrics(mt *metrics.Metrics) {
	m.metrics = mt
}

// Initialize sets up the chain. With a store attached and history
// present, the node resumes from the last persisted slot; otherwise a
// genesis slot is created from the config.
func (m *LedgerManager) Initialize(ctx context.Context, genesisConfig genesis.Config) error {
	if m.store != nil {
		last, err := m.store.LastSequence(ctx)
		if err != nil {
			return err
		}
		if last > 0 {
			return m.resume(ctx, last)
		}
	}

	genesisLedger, err := genesis.Create(genesisConfig)
	if err != nil {
		return errors.New("failed to create genesis ledger: " + err.Error())
	}

	if m.store != nil {
		if err := m.store.Save(ctx, genesisLedger); err != nil {
			return err
		}
	}

	m.genesisLedger = genesisLedger
	m.closed = genesisLedger
	m.open = ledger.NewOpen(genesisLedger)

	m.log.Info("chain initialized",
		zap.Uint64("sequence", genesisLedger.Sequence()),
		zap.Uint64("total_units", genesisLedger.Header.TotalUnits),
		zap.Int("state_entries", genesisLedger.EntryCount()),
	)
	return nil
}

func (m *LedgerManager) resume(ctx context.Context, last uint64) error {
	closed, err := m.store.Load(ctx, last)
	if err != nil {
		return err
	}

	if genesisLedger, err := m.store.Load(ctx, 1); err == nil {
		m.genesisLedger = genesisLedger
	}

	m.closed = closed
	m.open = ledger.NewOpen(closed)

	m.log.Info("chain resumed",
		zap.Uint64("sequence", closed.Sequence()),
		zap.Int("state_entries", closed.EntryCount()),
	)
	return nil
}

// Submit runs a transaction through the engine against the open slot.
// Applied transactions (including claimed-fee failures) are recorded
// into the slot's transaction set. The write lock serializes the whole
// read-check-apply cycle: without it two transactions carrying the same
// sequence could both pass preclaim before either commits.
func (m *LedgerManager) Submit(txn tx.Transaction) (tx.ApplyResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.open == nil {
		return tx.ApplyResult{}, ErrNotInitialized
	}

	engine := tx.NewEngine(m.open, m.engineConfig())
	result := engine.Apply(txn)

	if result.Applied {
		m.open.RecordTransaction(ledger.AppliedTransaction{
			Hash:        result.TxHash,
			Transaction: txn,
			Result:      result.Result,
			Fee:         result.Fee,
			Metadata:    result.Metadata,
		})
	}

	if m.metrics != nil {
		m.metrics.TransactionsApplied.WithLabelValues(result.Result.String()).Inc()
		m.metrics.OpenSlotTxs.Set(float64(m.open.TxCount()))
		if result.Applied {
			m.metrics.UnitsDestroyed.Add(float64(result.Fee))
		}
	}

	m.log.Debug("transaction submitted",
		zap.String("type", txn.TxType().String()),
		zap.String("result", result.Result.String()),
		zap.Bool("applied", result.Applied),
	)

	return result, nil
}

// Accept seals the open slot, persists and indexes it, and opens the
// next slot on top.
func (m *LedgerManager) Accept(ctx context.Context) (*ledger.Ledger, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.open == nil {
		return nil, ErrNotInitialized
	}

	start := time.Now()
	closed := m.open.Close(time.Now())

	if m.store != nil {
		if err := m.store.Save(ctx, closed); err != nil {
			return nil, err
		}
	}
	if m.index != nil {
		if err := m.index.IndexSlot(ctx, closed); err != nil {
			return nil, err
		}
	}

	m.closed = closed
	m.open = ledger.NewOpen(closed)

	if m.metrics != nil {
		m.metrics.SlotsClosed.Inc()
		m.metrics.SlotCloseSeconds.Observe(time.Since(start).Seconds())
		m.metrics.StateEntries.Set(float64(closed.EntryCount()))
		m.metrics.OpenSlotTxs.Set(0)
	}

	m.log.Info("slot closed",
		zap.Uint64("sequence", closed.Sequence()),
		zap.Int("transactions", len(closed.Transactions())),
		zap.Uint64("units_destroyed", closed.Header.UnitsDestroyed),
	)

	return closed, nil
}

// OpenLedger returns the current open slot.
func (m *LedgerManager) OpenLedger() *ledger.OpenLedger {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.open
}

// ClosedLedger returns the last closed slot.
func (m *LedgerManager) ClosedLedger() *ledger.Ledger {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}

// GenesisLedger returns the genesis slot, if known.
func (m *LedgerManager) GenesisLedger() *ledger.Ledger {
	return m.genesisLedger
}

// CurrentSlot returns the open slot's sequence number.
func (m *LedgerManager) CurrentSlot() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.open == nil {
		return 0
	}
	return m.open.Sequence()
}

// LedgerBySequence returns a closed slot by sequence, from memory or
// the store.
func (m *LedgerManager) LedgerBySequence(ctx context.Context, sequence uint64) (*ledger.Ledger, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed != nil && m.closed.Sequence() == sequence {
		return m.closed, nil
	}
	if m.genesisLedger != nil && m.genesisLedger.Sequence() == sequence {
		return m.genesisLedger, nil
	}
	if m.store != nil {
		l, err := m.store.Load(ctx, sequence)
		if err != nil {
			if errors.Is(err, ledgerstore.ErrNotFound) {
				return nil, ErrLedgerNotFound
			}
			return nil, err
		}
		return l, nil
	}
	return nil, ErrLedgerNotFound
}

// TxByHash returns an indexed transaction record.
func (m *LedgerManager) TxByHash(ctx context.Context, hash [32]byte) (*txindex.Record, error) {
	if m.index == nil {
		return nil, txindex.ErrNotFound
	}
	return m.index.ByHash(ctx, hash)
}

// TxsByAccount returns an account's indexed transaction history.
func (m *LedgerManager) TxsByAccount(ctx context.Context, account string, limit int) ([]txindex.Record, error) {
	if m.index == nil {
		return nil, nil
	}
	return m.index.ByAccount(ctx, account, limit)
}

// engineConfig builds the engine configuration for the open slot from
// the on-ledger game parameters plus the node config.
func (m *LedgerManager) engineConfig() tx.EngineConfig {
	cfg := tx.EngineConfig{
		BaseFee:                   genesis.DefaultBaseFee,
		ReserveBase:               m.cfg.ReserveBase,
		ReserveIncrement:          genesis.DefaultEntryReserve,
		LedgerSequence:            m.open.Sequence(),
		SkipSignatureVerification: m.cfg.SkipSignatureVerification,
		Standalone:                m.cfg.Standalone,
		NetworkID:                 m.cfg.NetworkID,
		Dice: tx.GameParams{
			RollMin:          genesis.DefaultRollMin,
			RollMax:          genesis.DefaultRollMax,
			BetMin:           genesis.DefaultBetMin,
			BetMax:           genesis.DefaultBetMax,
			RefundDelaySlots: genesis.DefaultRefundDelaySlots,
		},
	}

	// On-ledger parameters override the built-in defaults.
	if data, err := m.open.Read(keylet.DiceParams()); err == nil && data != nil {
		if params, err := sle.ParseDiceParams(data); err == nil {
			cfg.BaseFee = params.BaseFee
			cfg.ReserveIncrement = params.EntryReserve
			cfg.Dice = tx.GameParams{
				RollMin:          params.RollMin,
				RollMax:          params.RollMax,
				BetMin:           params.BetMin,
				BetMax:           params.BetMax,
				RefundDelaySlots: params.RefundDelaySlots,
			}
		}
	}

	return cfg
}
