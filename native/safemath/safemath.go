package safemath

import (
	"errors"

	"github.com/holiman/uint256"
)

// BpsDenominator is the basis-point scale used by every fee formula.
const BpsDenominator = 10_000

var (
	// ErrOverflow is returned when a checked operation would wrap, or when a
	// widened intermediate does not fit back into uint64.
	ErrOverflow = errors.New("safemath: arithmetic overflow")
	// ErrDivisionByZero is returned when a share is computed against an empty
	// winning pool.
	ErrDivisionByZero = errors.New("safemath: division by zero")
)

// Add returns a+b, failing instead of wrapping.
func Add(a, b uint64) (uint64, error) {
	sum := a + b
	if sum < a {
		return 0, ErrOverflow
	}
	return sum, nil
}

// Sub returns a-b, failing on underflow.
func Sub(a, b uint64) (uint64, error) {
	if b > a {
		return 0, ErrOverflow
	}
	return a - b, nil
}

// Mul returns a*b, failing instead of wrapping.
func Mul(a, b uint64) (uint64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	product := a * b
	if product/a != b {
		return 0, ErrOverflow
	}
	return product, nil
}

// FeeAmount computes floor(amount * feeBps / 10000). The multiply runs over a
// 256-bit intermediate so the fee on any uint64 amount is always computable;
// the result fits back into uint64 whenever feeBps is a valid bps value.
func FeeAmount(amount uint64, feeBps uint32) (uint64, error) {
	if feeBps > BpsDenominator {
		return 0, ErrOverflow
	}
	fee := new(uint256.Int).SetUint64(amount)
	fee.Mul(fee, uint256.NewInt(uint64(feeBps)))
	fee.Div(fee, uint256.NewInt(BpsDenominator))
	if !fee.IsUint64() {
		return 0, ErrOverflow
	}
	return fee.Uint64(), nil
}

// AmountAfterFee computes floor(amount * (10000 - feeBps) / 10000).
func AmountAfterFee(amount uint64, feeBps uint32) (uint64, error) {
	remainder, err := Sub(BpsDenominator, uint64(feeBps))
	if err != nil {
		return 0, err
	}
	out := new(uint256.Int).SetUint64(amount)
	out.Mul(out, uint256.NewInt(remainder))
	out.Div(out, uint256.NewInt(BpsDenominator))
	if !out.IsUint64() {
		return 0, ErrOverflow
	}
	return out.Uint64(), nil
}

// ProportionalShare computes floor(stake * totalPool / winningPool) via a
// widened intermediate. It fails when the winning pool is empty or when the
// quotient does not fit back into uint64.
func ProportionalShare(stake, totalPool, winningPool uint64) (uint64, error) {
	if winningPool == 0 {
		return 0, ErrDivisionByZero
	}
	share := new(uint256.Int).SetUint64(stake)
	share.Mul(share, uint256.NewInt(totalPool))
	share.Div(share, uint256.NewInt(winningPool))
	if !share.IsUint64() {
		return 0, ErrOverflow
	}
	return share.Uint64(), nil
}
