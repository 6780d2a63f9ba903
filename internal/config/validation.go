package config

import (
	"fmt"
)

var validBackends = map[string]bool{
	"pebble":  true,
	"leveldb": true,
	"memory":  true,
}

// ValidateConfig checks the loaded configuration for values the daemon
// cannot start with.
func ValidateConfig(c *Config) error {
	if !validBackends[c.Database.Backend] {
		return fmt.Errorf("unknown database backend %q (want pebble, leveldb, or memory)", c.Database.Backend)
	}
	if c.Database.Backend != "memory" && c.Database.Path == "" {
		return fmt.Errorf("database.path is required for the %s backend", c.Database.Backend)
	}

	if c.Server.JSONRPCAddr == "" {
		return fmt.Errorf("server.jsonrpc_addr is required")
	}

	if c.Node.SlotInterval <= 0 {
		return fmt.Errorf("node.slot_interval must be positive")
	}

	g := c.Genesis
	if g.RollMin != 0 || g.RollMax != 0 {
		if g.RollMin < 1 || g.RollMax > 100 || g.RollMin > g.RollMax {
			return fmt.Errorf("genesis roll bounds must satisfy 1 <= roll_min <= roll_max <= 100")
		}
	}
	if g.BetMin != 0 && g.BetMax != 0 && g.BetMin > g.BetMax {
		return fmt.Errorf("genesis.bet_min must not exceed genesis.bet_max")
	}

	return nil
}
