package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dicehouse/diced/internal/core/ledger/entry"
	"github.com/dicehouse/diced/internal/core/ledger/keylet"
)

func testLedger(t *testing.T) *Ledger {
	t.Helper()

	state := make(map[[32]byte][]byte)
	state[keylet.Account([32]byte{1}).Key] = []byte{0x01, 0x02}
	return NewClosed(1, [32]byte{}, state, 1_000_000, time.Unix(1700000000, 0))
}

func TestClosedLedgerIsImmutableCopy(t *testing.T) {
	l := testLedger(t)
	k := keylet.Account([32]byte{1})

	data := l.Read(k)
	require.Equal(t, []byte{0x01, 0x02}, data)

	// Mutating the returned slice must not touch the ledger.
	data[0] = 0xFF
	require.Equal(t, []byte{0x01, 0x02}, l.Read(k))
}

func TestOpenLedgerInsertUpdateErase(t *testing.T) {
	o := NewOpen(testLedger(t))
	k := keylet.Keylet{Type: entry.TypeVault, Key: [32]byte{9}}

	_, err := o.Read(k)
	require.NoError(t, err)

	require.NoError(t, o.Insert(k, []byte{1}))
	require.ErrorIs(t, o.Insert(k, []byte{2}), ErrEntryExists)

	require.NoError(t, o.Update(k, []byte{3}))
	data, err := o.Read(k)
	require.NoError(t, err)
	require.Equal(t, []byte{3}, data)

	require.NoError(t, o.Erase(k))
	require.ErrorIs(t, o.Erase(k), ErrEntryNotFound)
	require.ErrorIs(t, o.Update(k, []byte{4}), ErrEntryNotFound)

	exists, err := o.Exists(k)
	require.NoError(t, err)
	require.False(t, exists)
}

func TestOpenLedgerDoesNotTouchParent(t *testing.T) {
	parent := testLedger(t)
	o := NewOpen(parent)

	k := keylet.Account([32]byte{1})
	require.NoError(t, o.Update(k, []byte{0xEE}))

	// The parent keeps its own state.
	require.Equal(t, []byte{0x01, 0x02}, parent.Read(k))
}

func TestCloseChainsHeaders(t *testing.T) {
	genesis := testLedger(t)

	o := NewOpen(genesis)
	require.Equal(t, genesis.Sequence()+1, o.Sequence())

	second := o.Close(time.Unix(1700000100, 0))
	require.Equal(t, uint64(2), second.Sequence())
	require.Equal(t, genesis.Hash(), second.Header.ParentHash)
	require.True(t, second.Header.Closed)
	require.NotEqual(t, genesis.Hash(), second.Hash())

	third := NewOpen(second).Close(time.Unix(1700000200, 0))
	require.Equal(t, uint64(3), third.Sequence())
	require.Equal(t, second.Hash(), third.Header.ParentHash)
}

func TestCloseRecordsRecentHashes(t *testing.T) {
	genesis := testLedger(t)

	second := NewOpen(genesis).Close(time.Unix(1700000100, 0))
	third := NewOpen(second).Close(time.Unix(1700000200, 0))

	// The recent-hash list holds the parents of every closed slot,
	// newest last, as raw concatenated hashes.
	raw := third.Read(keylet.LedgerHashes())
	require.Len(t, raw, 64)

	genesisHash := genesis.Hash()
	secondHash := second.Hash()
	require.Equal(t, genesisHash[:], raw[:32])
	require.Equal(t, secondHash[:], raw[32:64])
}

func TestCloseDeductsDestroyedUnits(t *testing.T) {
	genesis := testLedger(t)

	o := NewOpen(genesis)
	o.AdjustUnitsDestroyed(30)
	o.AdjustUnitsDestroyed(12)

	closed := o.Close(time.Unix(1700000100, 0))
	require.Equal(t, uint64(42), closed.Header.UnitsDestroyed)
	require.Equal(t, genesis.Header.TotalUnits-42, closed.Header.TotalUnits)
}

func TestStateHashTracksContent(t *testing.T) {
	genesis := testLedger(t)

	// Closing without changes keeps the state commitment stable.
	unchanged := NewOpen(genesis).Close(time.Unix(1700000100, 0))
	require.Equal(t, genesis.Header.StateHash, unchangedStateHashWithoutSkipList(t, genesis, unchanged))

	// Any state change moves the commitment.
	o := NewOpen(genesis)
	require.NoError(t, o.Insert(keylet.Keylet{Type: entry.TypeVault, Key: [32]byte{7}}, []byte{1}))
	changed := o.Close(time.Unix(1700000100, 0))
	require.NotEqual(t, unchanged.Header.StateHash, changed.Header.StateHash)
}

// unchangedStateHashWithoutSkipList recomputes the closed slot's state
// hash with the recent-hash entry stripped, so it can be compared with
// the parent's commitment directly.
func unchangedStateHashWithoutSkipList(t *testing.T, parent, closed *Ledger) [32]byte {
	t.Helper()

	state := make(map[[32]byte][]byte)
	closed.ForEach(func(key [32]byte, data []byte) bool {
		if key != keylet.LedgerHashes().Key {
			state[key] = data
		}
		return true
	})
	require.Equal(t, parent.EntryCount(), len(state))
	return hashState(state)
}

func TestHeaderHashCommitsToFields(t *testing.T) {
	l := testLedger(t)

	h := l.Header
	h.Sequence++
	require.NotEqual(t, l.Header.Hash, h.ComputeHash())

	h = l.Header
	h.TotalUnits--
	require.NotEqual(t, l.Header.Hash, h.ComputeHash())

	require.Equal(t, l.Header.Hash, l.Header.ComputeHash())
}
