// Package sle implements the serialized ledger entry format. Entries are
// flat binary: each field is a one-byte header (type nibble, field nibble)
// followed by a fixed-width big-endian value, except identifiers and seeds
// which are raw bytes. Parsers skip unknown fields so the format can grow.
package sle

import (
	"encoding/binary"
	"errors"

	addresscodec "github.com/dicehouse/diced/internal/codec/address-codec"
)

// Field type codes (the high nibble of a field header)
const (
	FieldTypeUInt16    = 1
	FieldTypeUInt32    = 2
	FieldTypeUInt64    = 3
	FieldTypeHash128   = 4
	FieldTypeHash256   = 5
	FieldTypeAccountID = 8
)

// Common field codes (the low nibble of a field header)
const (
	fieldLedgerEntryType = 1 // UInt16
	fieldFlags           = 2 // UInt32
)

var (
	ErrShortEntry = errors.New("entry data truncated")
	ErrWrongType  = errors.New("unexpected ledger entry type")
)

// header encodes a field header byte from its type and field codes.
func header(typeCode, fieldCode int) byte {
	return byte(typeCode<<4 | fieldCode)
}

// appendUInt16 appends a UInt16 field.
func appendUInt16(buf []byte, fieldCode int, v uint16) []byte {
	buf = append(buf, header(FieldTypeUInt16, fieldCode))
	return binary.BigEndian.AppendUint16(buf, v)
}

// appendUInt32 appends a UInt32 field.
func appendUInt32(buf []byte, fieldCode int, v uint32) []byte {
	buf = append(buf, header(FieldTypeUInt32, fieldCode))
	return binary.BigEndian.AppendUint32(buf, v)
}

// appendUInt64 appends a UInt64 field.
func appendUInt64(buf []byte, fieldCode int, v uint64) []byte {
	buf = append(buf, header(FieldTypeUInt64, fieldCode))
	return binary.BigEndian.AppendUint64(buf, v)
}

// appendHash128 appends a 16-byte field (bet seeds, stored verbatim).
func appendHash128(buf []byte, fieldCode int, v [16]byte) []byte {
	buf = append(buf, header(FieldTypeHash128, fieldCode))
	return append(buf, v[:]...)
}

// appendHash256 appends a 32-byte hash field.
func appendHash256(buf []byte, fieldCode int, v [32]byte) []byte {
	buf = append(buf, header(FieldTypeHash256, fieldCode))
	return append(buf, v[:]...)
}

// appendAccountID appends a length-prefixed 32-byte account identifier.
func appendAccountID(buf []byte, fieldCode int, v [32]byte) []byte {
	buf = append(buf, header(FieldTypeAccountID, fieldCode), 32)
	return append(buf, v[:]...)
}

// fieldWalker iterates the fields of a serialized entry. Each call to next
// returns the type code, field code, and a slice over the value bytes.
type fieldWalker struct {
	data   []byte
	offset int
}

func (w *fieldWalker) next() (typeCode, fieldCode int, value []byte, ok bool) {
	if w.offset >= len(w.data) {
		return 0, 0, nil, false
	}

	h := w.data[w.offset]
	w.offset++
	typeCode = int(h >> 4)
	fieldCode = int(h & 0x0F)

	var width int
	switch typeCode {
	case FieldTypeUInt16:
		width = 2
	case FieldTypeUInt32:
		width = 4
	case FieldTypeUInt64:
		width = 8
	case FieldTypeHash128:
		width = 16
	case FieldTypeHash256:
		width = 32
	case FieldTypeAccountID:
		if w.offset >= len(w.data) {
			return 0, 0, nil, false
		}
		width = int(w.data[w.offset])
		w.offset++
	default:
		// Unknown type has unknown width; stop walking.
		return 0, 0, nil, false
	}

	if w.offset+width > len(w.data) {
		return 0, 0, nil, false
	}
	value = w.data[w.offset : w.offset+width]
	w.offset += width
	return typeCode, fieldCode, value, true
}

// GetEntryType extracts the LedgerEntryType field from serialized data.
// Returns 0 if the data does not carry one.
func GetEntryType(data []byte) uint16 {
	w := fieldWalker{data: data}
	for {
		typeCode, fieldCode, value, ok := w.next()
		if !ok {
			return 0
		}
		if typeCode == FieldTypeUInt16 && fieldCode == fieldLedgerEntryType {
			return binary.BigEndian.Uint16(value)
		}
	}
}

// DecodeAccountID decodes a base58 address into its raw identifier.
func DecodeAccountID(address string) ([32]byte, error) {
	return addresscodec.Decode(address)
}

// EncodeAccountID encodes a raw identifier into its base58 address.
func EncodeAccountID(id [32]byte) string {
	return addresscodec.Encode(id)
}
