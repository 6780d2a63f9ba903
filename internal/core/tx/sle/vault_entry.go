package sle

import (
	"encoding/binary"

	"github.com/dicehouse/diced/internal/core/ledger/entry"
)

// Vault field codes
const (
	fieldVaultHouse   = 2 // AccountID
	fieldVaultBalance = 6 // UInt64
	fieldVaultBump    = 9 // UInt16
)

// Vault represents a house escrow vault. A vault lives at an address
// derived from the house identity; Bump records the derivation
// discriminant so ownership can be re-proven without searching.
type Vault struct {
	House   [32]byte
	Balance uint64
	Bump    uint8
}

// SerializeVault serializes a Vault entry.
func SerializeVault(v *Vault) ([]byte, error) {
	buf := make([]byte, 0, 64)
	buf = appendUInt16(buf, fieldLedgerEntryType, uint16(entry.TypeVault))
	buf = appendUInt16(buf, fieldVaultBump, uint16(v.Bump))
	buf = appendUInt64(buf, fieldVaultBalance, v.Balance)
	buf = appendAccountID(buf, fieldVaultHouse, v.House)
	return buf, nil
}

// ParseVault parses a Vault entry from binary data.
func ParseVault(data []byte) (*Vault, error) {
	if GetEntryType(data) != uint16(entry.TypeVault) {
		return nil, ErrWrongType
	}

	v := &Vault{}
	w := fieldWalker{data: data}
	for {
		typeCode, fieldCode, value, ok := w.next()
		if !ok {
			break
		}

		switch typeCode {
		case FieldTypeUInt16:
			if fieldCode == fieldVaultBump {
				v.Bump = uint8(binary.BigEndian.Uint16(value))
			}
		case FieldTypeUInt64:
			if fieldCode == fieldVaultBalance {
				v.Balance = binary.BigEndian.Uint64(value)
			}
		case FieldTypeAccountID:
			if fieldCode == fieldVaultHouse && len(value) == 32 {
				copy(v.House[:], value)
			}
		}
	}

	return v, nil
}
