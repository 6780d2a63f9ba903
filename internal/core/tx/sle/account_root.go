package sle

import (
	"encoding/binary"

	"github.com/dicehouse/diced/internal/core/ledger/entry"
)

// AccountRoot field codes
const (
	fieldAccountSequence   = 4  // UInt32
	fieldAccountOwnerCount = 13 // UInt32
	fieldAccountBalance    = 6  // UInt64
	fieldAccountPrevTxnSeq = 5  // UInt64
	fieldAccountPrevTxnID  = 5  // Hash256
	fieldAccountID         = 1  // AccountID
)

// AccountRoot represents an account in the ledger. Accounts are backed by
// real Ed25519 keypairs; the Account field is the public key.
type AccountRoot struct {
	Account           [32]byte
	Balance           uint64
	Sequence          uint32
	OwnerCount        uint32
	Flags             uint32
	PreviousTxnID     [32]byte
	PreviousTxnLgrSeq uint64
}

// SerializeAccountRoot serializes an AccountRoot entry.
func SerializeAccountRoot(a *AccountRoot) ([]byte, error) {
	buf := make([]byte, 0, 128)
	buf = appendUInt16(buf, fieldLedgerEntryType, uint16(entry.TypeAccountRoot))
	buf = appendUInt32(buf, fieldFlags, a.Flags)
	buf = appendUInt32(buf, fieldAccountSequence, a.Sequence)
	buf = appendUInt32(buf, fieldAccountOwnerCount, a.OwnerCount)
	buf = appendUInt64(buf, fieldAccountBalance, a.Balance)
	buf = appendUInt64(buf, fieldAccountPrevTxnSeq, a.PreviousTxnLgrSeq)
	buf = appendHash256(buf, fieldAccountPrevTxnID, a.PreviousTxnID)
	buf = appendAccountID(buf, fieldAccountID, a.Account)
	return buf, nil
}

// ParseAccountRoot parses an AccountRoot entry from binary data.
func ParseAccountRoot(data []byte) (*AccountRoot, error) {
	if GetEntryType(data) != uint16(entry.TypeAccountRoot) {
		return nil, ErrWrongType
	}

	a := &AccountRoot{}
	w := fieldWalker{data: data}
	for {
		typeCode, fieldCode, value, ok := w.next()
		if !ok {
			break
		}

		switch typeCode {
		case FieldTypeUInt32:
			v := binary.BigEndian.Uint32(value)
			switch fieldCode {
			case fieldFlags:
				a.Flags = v
			case fieldAccountSequence:
				a.Sequence = v
			case fieldAccountOwnerCount:
				a.OwnerCount = v
			}
		case FieldTypeUInt64:
			v := binary.BigEndian.Uint64(value)
			switch fieldCode {
			case fieldAccountBalance:
				a.Balance = v
			case fieldAccountPrevTxnSeq:
				a.PreviousTxnLgrSeq = v
			}
		case FieldTypeHash256:
			if fieldCode == fieldAccountPrevTxnID {
				copy(a.PreviousTxnID[:], value)
			}
		case FieldTypeAccountID:
			if fieldCode == fieldAccountID && len(value) == 32 {
				copy(a.Account[:], value)
			}
		}
	}

	return a, nil
}
