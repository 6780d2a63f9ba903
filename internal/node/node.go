// Package node assembles a running daemon: storage, ledger service,
// JSON-RPC API, metrics, and the standalone slot timer.
package node

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dicehouse/diced/internal/config"
	"github.com/dicehouse/diced/internal/core/ledger/genesis"
	"github.com/dicehouse/diced/internal/core/ledger/service"
	"github.com/dicehouse/diced/internal/core/tx/sle"
	"github.com/dicehouse/diced/internal/crypto/ed25519"
	"github.com/dicehouse/diced/internal/logger"
	"github.com/dicehouse/diced/internal/metrics"
	"github.com/dicehouse/diced/internal/server/api/jsonrpc"
	"github.com/dicehouse/diced/internal/storage/database"
	"github.com/dicehouse/diced/internal/storage/database/leveldb"
	"github.com/dicehouse/diced/internal/storage/database/memory"
	"github.com/dicehouse/diced/internal/storage/database/pebble"
	"github.com/dicehouse/diced/internal/storage/ledgerstore"
	"github.com/dicehouse/diced/internal/storage/txindex"

	// Transactor registration
	_ "github.com/dicehouse/diced/internal/core/tx/bet"
	_ "github.com/dicehouse/diced/internal/core/tx/payment"
	_ "github.com/dicehouse/diced/internal/core/tx/vault"
)

// devMasterSeed funds development chains when no genesis account is
// configured.
const devMasterSeed = "masterpassphrase"

// Node is an assembled daemon.
type Node struct {
	cfg     *config.Config
	log     *zap.Logger
	version string

	dbManager database.Manager
	index     *txindex.Index
	metrics   *metrics.Metrics
	ledgers   *service.LedgerManager

	rpcServer     *jsonrpc.Server
	metricsServer *http.Server
}

// New builds a node from configuration. Nothing is listening until Run.
func New(cfg *config.Config, version string) (*Node, error) {
	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}

	n := &Node{
		cfg:     cfg,
		log:     log,
		version: version,
		metrics: metrics.New(),
	}

	n.dbManager, err = openBackend(cfg.Database)
	if err != nil {
		return nil, err
	}

	ledgerDB, err := n.dbManager.OpenDB("ledgers")
	if err != nil {
		return nil, err
	}
	store, err := ledgerstore.New(ledgerDB)
	if err != nil {
		return nil, err
	}

	if cfg.Database.TxIndexPath != "" {
		n.index, err = txindex.Open(cfg.Database.TxIndexPath)
		if err != nil {
			return nil, err
		}
	}

	n.ledgers = service.NewLedgerManager(service.Config{
		ReserveBase:               cfg.Node.ReserveBase,
		NetworkID:                 cfg.Node.NetworkID,
		SkipSignatureVerification: cfg.Node.SkipSignatureVerification,
		Standalone:                cfg.Node.Standalone,
	}, log.Named("ledger"))
	n.ledgers.AttachStore(store)
	n.ledgers.AttachMetrics(n.metrics)
	if n.index != nil {
		n.ledgers.AttachIndex(n.index)
	}

	handler := jsonrpc.NewHandler(n.ledgers, version, cfg.Node.Standalone)
	n.rpcServer = jsonrpc.NewServer(cfg.Server.JSONRPCAddr, handler, log.Named("jsonrpc"))

	if cfg.Server.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", n.metrics.Handler())
		n.metricsServer = &http.Server{
			Addr:              cfg.Server.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
	}

	return n, nil
}

// Run starts the node and blocks until the context is cancelled or a
// component fails.
func (n *Node) Run(ctx context.Context) error {
	defer n.close()

	genesisConfig, err := n.genesisConfig()
	if err != nil {
		return err
	}
	if err := n.ledgers.Initialize(ctx, genesisConfig); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(n.rpcServer.ListenAndServe)

	if n.metricsServer != nil {
		g.Go(func() error {
			n.log.Info("metrics server listening", zap.String("addr", n.metricsServer.Addr))
			err := n.metricsServer.ListenAndServe()
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		})
	}

	if n.cfg.Node.Standalone && n.cfg.Node.SlotInterval > 0 {
		g.Go(func() error {
			return n.slotLoop(ctx)
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if n.metricsServer != nil {
			n.metricsServer.Shutdown(shutdownCtx)
		}
		return n.rpcServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// slotLoop seals the open slot on a fixed interval.
func (n *Node) slotLoop(ctx context.Context) error {
	ticker := time.NewTicker(n.cfg.Node.SlotInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := n.ledgers.Accept(ctx); err != nil {
				return fmt.Errorf("slot close failed: %w", err)
			}
		}
	}
}

// Ledgers exposes the ledger service, mainly for tooling.
func (n *Node) Ledgers() *service.LedgerManager {
	return n.ledgers
}

func (n *Node) close() {
	if n.index != nil {
		if err := n.index.Close(); err != nil {
			n.log.Warn("closing tx index", zap.Error(err))
		}
	}
	if n.dbManager != nil {
		if err := n.dbManager.Close(); err != nil {
			n.log.Warn("closing databases", zap.Error(err))
		}
	}
	n.log.Sync()
}

// genesisConfig resolves the genesis account and parameters from the
// node configuration.
func (n *Node) genesisConfig() (genesis.Config, error) {
	var master [32]byte

	switch {
	case n.cfg.Genesis.MasterAccount != "":
		id, err := sle.DecodeAccountID(n.cfg.Genesis.MasterAccount)
		if err != nil {
			return genesis.Config{}, fmt.Errorf("genesis master account: %w", err)
		}
		master = id
	case n.cfg.Genesis.MasterSeed != "":
		kp, err := ed25519.GenerateKeypair([]byte(n.cfg.Genesis.MasterSeed))
		if err != nil {
			return genesis.Config{}, err
		}
		master = kp.Public
	default:
		// Development default, matching what the test harness derives.
		kp, err := ed25519.GenerateKeypair([]byte(devMasterSeed))
		if err != nil {
			return genesis.Config{}, err
		}
		master = kp.Public
		n.log.Warn("no genesis account configured, using the development master seed")
	}

	params := genesis.DefaultParams()
	g := n.cfg.Genesis
	if g.RollMin != 0 {
		params.RollMin = g.RollMin
	}
	if g.RollMax != 0 {
		params.RollMax = g.RollMax
	}
	if g.BetMin != 0 {
		params.BetMin = g.BetMin
	}
	if g.BetMax != 0 {
		params.BetMax = g.BetMax
	}
	if g.RefundDelaySlots != 0 {
		params.RefundDelaySlots = g.RefundDelaySlots
	}
	if g.BaseFee != 0 {
		params.BaseFee = g.BaseFee
	}
	if g.EntryReserve != 0 {
		params.EntryReserve = g.EntryReserve
	}

	return genesis.Config{
		MasterAccount: master,
		TotalSupply:   g.TotalSupply,
		Params:        params,
	}, nil
}

func openBackend(cfg config.DatabaseConfig) (database.Manager, error) {
	switch cfg.Backend {
	case "pebble":
		return pebble.NewManager(cfg.Path), nil
	case "leveldb":
		return leveldb.NewManager(cfg.Path), nil
	case "memory":
		return memory.NewManager(), nil
	default:
		return nil, fmt.Errorf("unknown database backend %q", cfg.Backend)
	}
}
