package sle

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func fill32(b byte) [32]byte {
	var v [32]byte
	for i := range v {
		v[i] = b
	}
	return v
}

func TestAccountRootRoundTrip(t *testing.T) {
	in := &AccountRoot{
		Account:           fill32(0xAA),
		Balance:           123_456_789,
		Sequence:          42,
		OwnerCount:        3,
		Flags:             7,
		PreviousTxnID:     fill32(0xBB),
		PreviousTxnLgrSeq: 99,
	}

	data, err := SerializeAccountRoot(in)
	require.NoError(t, err)

	out, err := ParseAccountRoot(data)
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestVaultRoundTrip(t *testing.T) {
	in := &Vault{
		House:   fill32(0x11),
		Balance: 2_000_000_000,
		Bump:    254,
	}

	data, err := SerializeVault(in)
	require.NoError(t, err)

	out, err := ParseVault(data)
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestBetRoundTrip(t *testing.T) {
	var seed [16]byte
	binary.LittleEndian.PutUint64(seed[:8], 77)

	in := &Bet{
		Player:  fill32(0x22),
		Vault:   fill32(0x33),
		Seed:    seed,
		Roll:    96,
		Amount:  100_000_000,
		Slot:    12345,
		Reserve: 2_000_000,
		Bump:    251,
	}

	data, err := SerializeBet(in)
	require.NoError(t, err)

	out, err := ParseBet(data)
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestDiceParamsRoundTrip(t *testing.T) {
	in := &DiceParams{
		RollMin:          2,
		RollMax:          96,
		BetMin:           10_000_000,
		BetMax:           1_000_000_000_000,
		RefundDelaySlots: 50,
		BaseFee:          10,
		EntryReserve:     2_000_000,
	}

	data, err := SerializeDiceParams(in)
	require.NoError(t, err)

	out, err := ParseDiceParams(data)
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestParseRejectsWrongType(t *testing.T) {
	data, err := SerializeVault(&Vault{House: fill32(1), Balance: 1, Bump: 255})
	require.NoError(t, err)

	_, err = ParseBet(data)
	require.ErrorIs(t, err, ErrWrongType)
	_, err = ParseAccountRoot(data)
	require.ErrorIs(t, err, ErrWrongType)
}

func TestCommitBytesLayout(t *testing.T) {
	var seed [16]byte
	seed[0] = 9

	b := &Bet{
		Player:  fill32(0x44),
		Vault:   fill32(0x55),
		Seed:    seed,
		Roll:    50,
		Amount:  7,
		Slot:    8,
		Bump:    252,
	}

	commit := b.CommitBytes()
	require.Len(t, commit, 98)

	require.Equal(t, b.Player[:], commit[0:32])
	require.Equal(t, b.Vault[:], commit[32:64])
	require.Equal(t, b.Seed[:], commit[64:80])
	require.Equal(t, b.Roll, commit[80])
	require.Equal(t, uint64(7), binary.LittleEndian.Uint64(commit[81:89]))
	require.Equal(t, uint64(8), binary.LittleEndian.Uint64(commit[89:97]))
	require.Equal(t, b.Bump, commit[97])

	// Any field change must change the commitment.
	altered := *b
	altered.Roll = 51
	require.NotEqual(t, commit, altered.CommitBytes())
}

func TestAccountIDCodecRoundTrip(t *testing.T) {
	id := fill32(0x66)

	address := EncodeAccountID(id)
	require.NotEmpty(t, address)

	decoded, err := DecodeAccountID(address)
	require.NoError(t, err)
	require.Equal(t, id, decoded)

	_, err = DecodeAccountID("not-an-address")
	require.Error(t, err)
}
