package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dicehouse/diced/internal/storage/database"
)

func TestReadWriteDelete(t *testing.T) {
	ctx := context.Background()
	db := NewDB()

	_, err := db.Read(ctx, []byte("missing"))
	require.ErrorIs(t, err, database.ErrKeyNotFound)

	require.NoError(t, db.Write(ctx, []byte("k"), []byte("v")))
	got, err := db.Read(ctx, []byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("v"), got)

	require.NoError(t, db.Delete(ctx, []byte("k")))
	_, err = db.Read(ctx, []byte("k"))
	require.ErrorIs(t, err, database.ErrKeyNotFound)
}

func TestValueIsolation(t *testing.T) {
	ctx := context.Background()
	db := NewDB()

	value := []byte("original")
	require.NoError(t, db.Write(ctx, []byte("k"), value))

	// Mutating the caller's slice after the write must not leak in.
	value[0] = 'X'
	got, err := db.Read(ctx, []byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("original"), got)

	// Nor must mutating what Read returned.
	got[0] = 'Y'
	again, err := db.Read(ctx, []byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("original"), again)
}

func TestBatch(t *testing.T) {
	ctx := context.Background()
	db := NewDB()
	require.NoError(t, db.Write(ctx, []byte("gone"), []byte("1")))

	err := db.Batch(ctx, []database.BatchOperation{
		{Type: database.BatchPut, Key: []byte("a"), Value: []byte("1")},
		{Type: database.BatchPut, Key: []byte("b"), Value: []byte("2")},
		{Type: database.BatchDelete, Key: []byte("gone")},
	})
	require.NoError(t, err)

	got, err := db.Read(ctx, []byte("a"))
	require.NoError(t, err)
	require.Equal(t, []byte("1"), got)

	_, err = db.Read(ctx, []byte("gone"))
	require.ErrorIs(t, err, database.ErrKeyNotFound)
}

func TestIteratorRange(t *testing.T) {
	ctx := context.Background()
	db := NewDB()

	for _, k := range []string{"a1", "a2", "b1", "c1"} {
		require.NoError(t, db.Write(ctx, []byte(k), []byte("v-"+k)))
	}

	it, err := db.Iterator(ctx, []byte("a"), []byte("b"))
	require.NoError(t, err)
	defer it.Close()

	var keys []string
	for it.Next() {
		keys = append(keys, string(it.Key()))
	}
	require.NoError(t, it.Error())
	require.Equal(t, []string{"a1", "a2"}, keys)
}

func TestManager(t *testing.T) {
	mgr := NewManager()

	db1, err := mgr.OpenDB("ledgers")
	require.NoError(t, err)

	// Reopening a name yields the same database.
	db2, err := mgr.OpenDB("ledgers")
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, db1.Write(ctx, []byte("k"), []byte("v")))
	got, err := db2.Read(ctx, []byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("v"), got)

	require.NoError(t, mgr.CloseDB("ledgers"))
	require.NoError(t, mgr.Close())
}
