package tx

import "math/bits"

// Balance arithmetic is checked everywhere; a computation that would wrap
// fails the transaction instead of corrupting state.

// CheckedAdd returns a+b, reporting whether the sum fits in 64 bits.
func CheckedAdd(a, b uint64) (uint64, bool) {
	sum, carry := bits.Add64(a, b, 0)
	return sum, carry == 0
}

// CheckedSub returns a-b, reporting whether the subtraction underflowed.
func CheckedSub(a, b uint64) (uint64, bool) {
	diff, borrow := bits.Sub64(a, b, 0)
	return diff, borrow == 0
}

// CheckedMulDiv returns (a*b)/d using 128-bit intermediate precision,
// reporting whether the quotient fits in 64 bits. d must be nonzero.
func CheckedMulDiv(a, b, d uint64) (uint64, bool) {
	hi, lo := bits.Mul64(a, b)
	if hi >= d {
		return 0, false
	}
	quo, _ := bits.Div64(hi, lo, d)
	return quo, true
}
