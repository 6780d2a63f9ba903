package txindex_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dicehouse/diced/internal/storage/txindex"
	jtx "github.com/dicehouse/diced/internal/testing"
)

func openIndex(t *testing.T) *txindex.Index {
	t.Helper()

	idx, err := txindex.Open(filepath.Join(t.TempDir(), "txindex.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx
}

func TestIndexSlotAndByHash(t *testing.T) {
	ctx := context.Background()
	idx := openIndex(t)

	env := jtx.NewTestEnv(t)
	alice := jtx.NewAccount("alice")
	bob := jtx.NewAccount("bob")
	env.Fund(alice, bob)
	env.Pay(alice, bob, 5_000_000)
	env.Close()

	closed := env.LastClosed()
	require.NoError(t, idx.IndexSlot(ctx, closed))

	count, err := idx.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(len(closed.Transactions())), count)

	applied := closed.Transactions()[0]
	rec, err := idx.ByHash(ctx, applied.Hash)
	require.NoError(t, err)
	require.Equal(t, applied.Transaction.GetCommon().Account, rec.Account)
	require.Equal(t, applied.Transaction.TxType().String(), rec.Type)
	require.Equal(t, closed.Sequence(), rec.LedgerSequence)
	require.Equal(t, applied.Result.String(), rec.Result)
	require.Equal(t, applied.Fee, rec.Fee)
	require.NotEmpty(t, rec.Raw)
}

func TestByHashMissing(t *testing.T) {
	idx := openIndex(t)

	_, err := idx.ByHash(context.Background(), [32]byte{1, 2, 3})
	require.ErrorIs(t, err, txindex.ErrNotFound)
}

func TestByAccount(t *testing.T) {
	ctx := context.Background()
	idx := openIndex(t)

	env := jtx.NewTestEnv(t)
	alice := jtx.NewAccount("alice")
	bob := jtx.NewAccount("bob")
	env.Fund(alice, bob)

	// Two slots of traffic from alice.
	env.Pay(alice, bob, 1_000_000)
	env.Close()
	require.NoError(t, idx.IndexSlot(ctx, env.LastClosed()))

	env.Pay(alice, bob, 2_000_000)
	env.Close()
	require.NoError(t, idx.IndexSlot(ctx, env.LastClosed()))

	recs, err := idx.ByAccount(ctx, alice.Address, 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	// Newest slot first.
	require.GreaterOrEqual(t, recs[0].LedgerSequence, recs[1].LedgerSequence)
	for _, rec := range recs {
		require.Equal(t, alice.Address, rec.Account)
	}

	// Limit applies.
	recs, err = idx.ByAccount(ctx, alice.Address, 1)
	require.NoError(t, err)
	require.Len(t, recs, 1)

	// An account with no history yields an empty result.
	recs, err = idx.ByAccount(ctx, "nobody", 10)
	require.NoError(t, err)
	require.Empty(t, recs)
}

func TestIndexSlotIdempotent(t *testing.T) {
	ctx := context.Background()
	idx := openIndex(t)

	env := jtx.NewTestEnv(t)
	alice := jtx.NewAccount("alice")
	env.Fund(alice)
	env.Close()

	closed := env.LastClosed()
	require.NoError(t, idx.IndexSlot(ctx, closed))
	require.NoError(t, idx.IndexSlot(ctx, closed))

	count, err := idx.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(len(closed.Transactions())), count)
}
