package service

import (
	"encoding/hex"
	"errors"

	"github.com/dicehouse/diced/internal/core/ledger/keylet"
	"github.com/dicehouse/diced/internal/core/tx/sle"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrVaultNotFound   = errors.New("vault not found")
	ErrBetNotFound     = errors.New("bet not found")
)

// AccountInfo returns the account entry for an address, read from the
// open slot.
func (m *LedgerManager) AccountInfo(address string) (*sle.AccountRoot, error) {
	open := m.OpenLedger()
	if open == nil {
		return nil, ErrNotInitialized
	}

	accountID, err := sle.DecodeAccountID(address)
	if err != nil {
		return nil, err
	}

	data, err := open.Read(keylet.Account(accountID))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, ErrAccountNotFound
	}
	return sle.ParseAccountRoot(data)
}

// VaultInfo returns the vault owned by a house address, plus the
// vault's derived ledger key.
func (m *LedgerManager) VaultInfo(houseAddress string) (*sle.Vault, [32]byte, error) {
	open := m.OpenLedger()
	if open == nil {
		return nil, [32]byte{}, ErrNotInitialized
	}

	house, err := sle.DecodeAccountID(houseAddress)
	if err != nil {
		return nil, [32]byte{}, err
	}

	vaultKey, _, ok := keylet.Vault(house)
	if !ok {
		return nil, [32]byte{}, ErrVaultNotFound
	}

	data, err := open.Read(vaultKey)
	if err != nil {
		return nil, [32]byte{}, err
	}
	if data == nil {
		return nil, [32]byte{}, ErrVaultNotFound
	}

	vault, err := sle.ParseVault(data)
	if err != nil {
		return nil, [32]byte{}, err
	}
	return vault, vaultKey.Key, nil
}

// BetInfo returns the bet identified by a house address and hex seed.
func (m *LedgerManager) BetInfo(houseAddress, seedHex string) (*sle.Bet, error) {
	open := m.OpenLedger()
	if open == nil {
		return nil, ErrNotInitialized
	}

	_, vaultID, err := m.VaultInfo(houseAddress)
	if err != nil {
		return nil, err
	}

	seed, err := parseSeed(seedHex)
	if err != nil {
		return nil, err
	}

	betKey, _, ok := keylet.Bet(vaultID, seed)
	if !ok {
		return nil, ErrBetNotFound
	}

	data, err := open.Read(betKey)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, ErrBetNotFound
	}
	return sle.ParseBet(data)
}

// GameParams returns the on-ledger game parameters.
func (m *LedgerManager) GameParams() (*sle.DiceParams, error) {
	open := m.OpenLedger()
	if open == nil {
		return nil, ErrNotInitialized
	}

	data, err := open.Read(keylet.DiceParams())
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, errors.New("game parameters entry missing")
	}
	return sle.ParseDiceParams(data)
}

func parseSeed(seedHex string) ([16]byte, error) {
	var seed [16]byte
	raw, err := hex.DecodeString(seedHex)
	if err != nil || len(raw) != keylet.SeedLength {
		return seed, errors.New("seed must be 32 hex characters")
	}
	copy(seed[:], raw)
	return seed, nil
}
