package tx

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheckedAdd(t *testing.T) {
	sum, ok := CheckedAdd(1, 2)
	require.True(t, ok)
	require.Equal(t, uint64(3), sum)

	sum, ok = CheckedAdd(math.MaxUint64, 0)
	require.True(t, ok)
	require.Equal(t, uint64(math.MaxUint64), sum)

	_, ok = CheckedAdd(math.MaxUint64, 1)
	require.False(t, ok)

	_, ok = CheckedAdd(math.MaxUint64/2+1, math.MaxUint64/2+1)
	require.False(t, ok)
}

func TestCheckedSub(t *testing.T) {
	diff, ok := CheckedSub(5, 3)
	require.True(t, ok)
	require.Equal(t, uint64(2), diff)

	diff, ok = CheckedSub(5, 5)
	require.True(t, ok)
	require.Equal(t, uint64(0), diff)

	_, ok = CheckedSub(3, 5)
	require.False(t, ok)

	_, ok = CheckedSub(0, 1)
	require.False(t, ok)
}

func TestCheckedMulDiv(t *testing.T) {
	// Straight payout math: stake * 10000 / (roll * 100).
	v, ok := CheckedMulDiv(1_000_000, 10000, 5000)
	require.True(t, ok)
	require.Equal(t, uint64(2_000_000), v)

	// Truncating division.
	v, ok = CheckedMulDiv(10, 10000, 9600)
	require.True(t, ok)
	require.Equal(t, uint64(10), v)

	// The intermediate product may exceed 64 bits as long as the
	// quotient fits.
	v, ok = CheckedMulDiv(math.MaxUint64/2, 4, 4)
	require.True(t, ok)
	require.Equal(t, uint64(math.MaxUint64/2), v)

	// A quotient that does not fit in 64 bits fails.
	_, ok = CheckedMulDiv(math.MaxUint64, 4, 2)
	require.False(t, ok)

	// Large but representable results survive.
	v, ok = CheckedMulDiv(2_000_000_000, 10000, 200)
	require.True(t, ok)
	require.Equal(t, uint64(100_000_000_000), v)

	// Division by zero fails cleanly.
	_, ok = CheckedMulDiv(1, 1, 0)
	require.False(t, ok)
}
