package sle

import (
	"encoding/binary"

	"github.com/dicehouse/diced/internal/core/ledger/entry"
)

// DiceParams field codes
const (
	fieldParamsRollMin     = 3  // UInt16
	fieldParamsRollMax     = 4  // UInt16
	fieldParamsBetMin      = 9  // UInt64
	fieldParamsBetMax      = 10 // UInt64
	fieldParamsRefundDelay = 11 // UInt64
	fieldParamsBaseFee     = 12 // UInt64
	fieldParamsReserve     = 13 // UInt64
)

// DiceParams is the singleton game parameters entry, written at genesis.
type DiceParams struct {
	RollMin          uint8
	RollMax          uint8
	BetMin           uint64
	BetMax           uint64
	RefundDelaySlots uint64
	BaseFee          uint64
	EntryReserve     uint64
}

// SerializeDiceParams serializes the game parameters entry.
func SerializeDiceParams(p *DiceParams) ([]byte, error) {
	buf := make([]byte, 0, 64)
	buf = appendUInt16(buf, fieldLedgerEntryType, uint16(entry.TypeDiceParams))
	buf = appendUInt16(buf, fieldParamsRollMin, uint16(p.RollMin))
	buf = appendUInt16(buf, fieldParamsRollMax, uint16(p.RollMax))
	buf = appendUInt64(buf, fieldParamsBetMin, p.BetMin)
	buf = appendUInt64(buf, fieldParamsBetMax, p.BetMax)
	buf = appendUInt64(buf, fieldParamsRefundDelay, p.RefundDelaySlots)
	buf = appendUInt64(buf, fieldParamsBaseFee, p.BaseFee)
	buf = appendUInt64(buf, fieldParamsReserve, p.EntryReserve)
	return buf, nil
}

// ParseDiceParams parses the game parameters entry from binary data.
func ParseDiceParams(data []byte) (*DiceParams, error) {
	if GetEntryType(data) != uint16(entry.TypeDiceParams) {
		return nil, ErrWrongType
	}

	p := &DiceParams{}
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
			case fieldParamsRollMin:
				p.RollMin = uint8(v)
			case fieldParamsRollMax:
				p.RollMax = uint8(v)
			}
		case FieldTypeUInt64:
			v := binary.BigEndian.Uint64(value)
			switch fieldCode {
			case fieldParamsBetMin:
				p.BetMin = v
			case fieldParamsBetMax:
				p.BetMax = v
			case fieldParamsRefundDelay:
				p.RefundDelaySlots = v
			case fieldParamsBaseFee:
				p.BaseFee = v
			case fieldParamsReserve:
				p.EntryReserve = v
			}
		}
	}

	return p, nil
}
