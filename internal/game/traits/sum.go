package traits

import (
	"errors"

	"github.com/holiman/uint256"
)

// ErrSumOverflow reports that a checked accumulation exceeded 2^256 - 1.
var ErrSumOverflow = errors.New("sum overflows 256 bits")

// Sum accumulates 256-bit values with overflow detection, failing rather
// than wrapping. The sum of no values is zero. Addition is commutative and
// associative, so input order never changes a successful result.
func Sum(values []uint256.Int) (uint256.Int, error) {
	var acc uint256.Int
	for i := range values {
		if _, overflow := acc.AddOverflow(&acc, &values[i]); overflow {
			return uint256.Int{}, ErrSumOverflow
		}
	}
	return acc, nil
}

// SumWrapping accumulates values modulo 2^256. Use it only where wrap-around
// parity with unchecked 256-bit arithmetic is explicitly wanted; Sum is the
// default.
func SumWrapping(values []uint256.Int) uint256.Int {
	var acc uint256.Int
	for i := range values {
		acc.Add(&acc, &values[i])
	}
	return acc
}
