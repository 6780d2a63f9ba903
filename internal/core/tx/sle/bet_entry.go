package sle

import (
	"encoding/binary"

	"github.com/dicehouse/diced/internal/core/ledger/entry"
)

// Bet field codes
const (
	fieldBetPlayer  = 1  // AccountID
	fieldBetVault   = 2  // AccountID
	fieldBetSeed    = 1  // Hash128
	fieldBetRoll    = 3  // UInt16
	fieldBetAmount  = 6  // UInt64
	fieldBetSlot    = 7  // UInt64
	fieldBetReserve = 8  // UInt64
	fieldBetBump    = 9  // UInt16
)

// Bet represents an open wager. It lives at an address derived from
// (vault, seed); Slot records the ledger sequence at placement and gates
// the refund timeout.
type Bet struct {
	Player  [32]byte
	Vault   [32]byte
	Seed    [16]byte
	Roll    uint8
	Amount  uint64
	Slot    uint64
	Reserve uint64
	Bump    uint8
}

// SerializeBet serializes a Bet entry.
func SerializeBet(b *Bet) ([]byte, error) {
	buf := make([]byte, 0, 160)
	buf = appendUInt16(buf, fieldLedgerEntryType, uint16(entry.TypeBet))
	buf = appendUInt16(buf, fieldBetRoll, uint16(b.Roll))
	buf = appendUInt16(buf, fieldBetBump, uint16(b.Bump))
	buf = appendUInt64(buf, fieldBetAmount, b.Amount)
	buf = appendUInt64(buf, fieldBetSlot, b.Slot)
	buf = appendUInt64(buf, fieldBetReserve, b.Reserve)
	buf = appendHash128(buf, fieldBetSeed, b.Seed)
	buf = appendAccountID(buf, fieldBetPlayer, b.Player)
	buf = appendAccountID(buf, fieldBetVault, b.Vault)
	return buf, nil
}

// ParseBet parses a Bet entry from binary data.
func ParseBet(data []byte) (*Bet, error) {
	if GetEntryType(data) != uint16(entry.TypeBet) {
		return nil, ErrWrongType
	}

	b := &Bet{}
	w := fieldWalker{data: data}
	for {
		typeCode, fieldCode, value, ok := w.next()
		if !ok {
			break
		}

		switch typeCode {
		case FieldTypeUInt16:
			v := binary.BigEndian.Uint16(value)
			switch fieldCode {
			case fieldBetRoll:
				b.Roll = uint8(v)
			case fieldBetBump:
				b.Bump = uint8(v)
			}
		case FieldTypeUInt64:
			v := binary.BigEndian.Uint64(value)
			switch fieldCode {
			case fieldBetAmount:
				b.Amount = v
			case fieldBetSlot:
				b.Slot = v
			case fieldBetReserve:
				b.Reserve = v
			}
		case FieldTypeHash128:
			if fieldCode == fieldBetSeed {
				copy(b.Seed[:], value)
			}
		case FieldTypeAccountID:
			if len(value) != 32 {
				continue
			}
			switch fieldCode {
			case fieldBetPlayer:
				copy(b.Player[:], value)
			case fieldBetVault:
				copy(b.Vault[:], value)
			}
		}
	}

	return b, nil
}

// CommitBytes returns the canonical byte layout a house must sign to
// resolve this bet. Every field that determines the outcome is included,
// so the signature commits to exactly one wager.
func (b *Bet) CommitBytes() []byte {
	buf := make([]byte, 0, 98)
	buf = append(buf, b.Player[:]...)
	buf = append(buf, b.Vault[:]...)
	buf = append(buf, b.Seed[:]...)
	buf = append(buf, b.Roll)
	buf = binary.LittleEndian.AppendUint64(buf, b.Amount)
	buf = binary.LittleEndian.AppendUint64(buf, b.Slot)
	buf = append(buf, b.Bump)
	return buf
}
