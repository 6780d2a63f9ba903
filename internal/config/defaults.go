package config

import (
	"github.com/spf13/viper"
)

// setDefaults installs the built-in defaults. Every key a Config field
// maps to must appear here so environment-only overrides work.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.jsonrpc_addr", "127.0.0.1:5005")
	v.SetDefault("server.metrics_addr", "127.0.0.1:9090")

	v.SetDefault("database.backend", "pebble")
	v.SetDefault("database.path", "data")
	v.SetDefault("database.tx_index_path", "data/txindex.sqlite")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("node.standalone", true)
	v.SetDefault("node.network_id", 0)
	v.SetDefault("node.slot_interval", "5s")
	v.SetDefault("node.reserve_base", 10_000_000)
	v.SetDefault("node.skip_signature_verification", false)

	v.SetDefault("genesis.master_account", "")
	v.SetDefault("genesis.master_seed", "")
	v.SetDefault("genesis.total_supply", 0)
	v.SetDefault("genesis.roll_min", 0)
	v.SetDefault("genesis.roll_max", 0)
	v.SetDefault("genesis.bet_min", 0)
	v.SetDefault("genesis.bet_max", 0)
	v.SetDefault("genesis.refund_delay_slots", 0)
	v.SetDefault("genesis.base_fee", 0)
	v.SetDefault("genesis.entry_reserve", 0)
}
