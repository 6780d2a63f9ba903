// Package config loads the daemon configuration from defaults, an
// optional TOML file, and DICED_-prefixed environment variables, in
// that priority order.
package config

import (
	"time"
)

// Config represents the complete diced configuration.
type Config struct {
	Server   ServerConfig   `toml:"server" mapstructure:"server"`
	Database DatabaseConfig `toml:"database" mapstructure:"database"`
	Log      LogConfig      `toml:"log" mapstructure:"log"`
	Node     NodeConfig     `toml:"node" mapstructure:"node"`
	Genesis  GenesisConfig  `toml:"genesis" mapstructure:"genesis"`

	configPath string `toml:"-" mapstructure:"-"`
}

// ServerConfig holds the listen addresses.
type ServerConfig struct {
	// JSONRPCAddr is the JSON-RPC listen address.
	JSONRPCAddr string `toml:"jsonrpc_addr" mapstructure:"jsonrpc_addr"`

	// MetricsAddr is the Prometheus listen address; empty disables it.
	MetricsAddr string `toml:"metrics_addr" mapstructure:"metrics_addr"`
}

// DatabaseConfig selects and locates the storage backend.
type DatabaseConfig struct {
	// Backend is one of: pebble, leveldb, memory.
	Backend string `toml:"backend" mapstructure:"backend"`

	// Path is the directory data files are created under.
	Path string `toml:"path" mapstructure:"path"`

	// TxIndexPath is the SQLite transaction index location; empty
	// disables indexing, ":memory:" keeps it in RAM.
	TxIndexPath string `toml:"tx_index_path" mapstructure:"tx_index_path"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level  string `toml:"level" mapstructure:"level"`
	Format string `toml:"format" mapstructure:"format"`
}

// NodeConfig holds chain-level node settings.
type NodeConfig struct {
	// Standalone makes the node seal slots on its own timer.
	Standalone bool `toml:"standalone" mapstructure:"standalone"`

	// NetworkID, when nonzero, is required on every transaction.
	NetworkID uint32 `toml:"network_id" mapstructure:"network_id"`

	// SlotInterval is how often the open slot is sealed in
	// standalone mode.
	SlotInterval time.Duration `toml:"slot_interval" mapstructure:"slot_interval"`

	// ReserveBase is the minimum balance of a funded account.
	ReserveBase uint64 `toml:"reserve_base" mapstructure:"reserve_base"`

	// SkipSignatureVerification disables signature checks. Never
	// enable outside tests and local experimentation.
	SkipSignatureVerification bool `toml:"skip_signature_verification" mapstructure:"skip_signature_verification"`
}

// GenesisConfig describes the chain created on first start.
type GenesisConfig struct {
	// MasterAccount is the address receiving the initial supply.
	MasterAccount string `toml:"master_account" mapstructure:"master_account"`

	// MasterSeed derives the master account when MasterAccount is
	// empty. Intended for development chains only.
	MasterSeed string `toml:"master_seed" mapstructure:"master_seed"`

	// TotalSupply is the native unit supply; 0 uses the default.
	TotalSupply uint64 `toml:"total_supply" mapstructure:"total_supply"`

	// Game parameter overrides; zero values use the defaults.
	RollMin          uint8  `toml:"roll_min" mapstructure:"roll_min"`
	RollMax          uint8  `toml:"roll_max" mapstructure:"roll_max"`
	BetMin           uint64 `toml:"bet_min" mapstructure:"bet_min"`
	BetMax           uint64 `toml:"bet_max" mapstructure:"bet_max"`
	RefundDelaySlots uint64 `toml:"refund_delay_slots" mapstructure:"refund_delay_slots"`
	BaseFee          uint64 `toml:"base_fee" mapstructure:"base_fee"`
	EntryReserve     uint64 `toml:"entry_reserve" mapstructure:"entry_reserve"`
}

// GetConfigPath returns the path the configuration was loaded from,
// or empty when only defaults and environment were used.
func (c *Config) GetConfigPath() string {
	return c.configPath
}
