// Package amounts provides checked and saturating 256-bit integer
// arithmetic over the smallest-unit amounts that flow through the solver:
// sell/buy amounts, fees, reserves and prices.
package amounts

import (
	"math/big"

	"github.com/holiman/uint256"
)

// Zero returns a fresh zero-valued amount. Callers must not share the
// returned pointer across mutations; use Clone for that.
func Zero() *uint256.Int { return new(uint256.Int) }

// FromUint64 builds an amount from a plain uint64, e.g. basis-point
// constants or small test fixtures.
func FromUint64(v uint64) *uint256.Int { return uint256.NewInt(v) }

// CheckedAdd returns a+b, or (nil, false) on overflow.
func CheckedAdd(a, b *uint256.Int) (*uint256.Int, bool) {
	result := new(uint256.Int)
	_, overflow := result.AddOverflow(a, b)
	if overflow {
		return nil, false
	}
	return result, true
}

// CheckedSub returns a-b, or (nil, false) on underflow.
func CheckedSub(a, b *uint256.Int) (*uint256.Int, bool) {
	result := new(uint256.Int)
	_, underflow := result.SubOverflow(a, b)
	if underflow {
		return nil, false
	}
	return result, true
}

// CheckedMul returns a*b, or (nil, false) on overflow.
func CheckedMul(a, b *uint256.Int) (*uint256.Int, bool) {
	result := new(uint256.Int)
	_, overflow := result.MulOverflow(a, b)
	if overflow {
		return nil, false
	}
	return result, true
}

// CheckedDiv returns floor(a/b), or (nil, false) if b is zero.
func CheckedDiv(a, b *uint256.Int) (*uint256.Int, bool) {
	if b.IsZero() {
		return nil, false
	}
	result := new(uint256.Int)
	result.Div(a, b)
	return result, true
}

// SaturatingAdd returns a+b, clamped to the maximum representable value
// on overflow rather than failing. Used where the caller would otherwise
// have to special-case an overflow that only affects a score or estimate.
func SaturatingAdd(a, b *uint256.Int) *uint256.Int {
	result, ok := CheckedAdd(a, b)
	if ok {
		return result
	}
	return new(uint256.Int).SetAllOne()
}

// SaturatingSub returns a-b, floored at zero on underflow.
func SaturatingSub(a, b *uint256.Int) *uint256.Int {
	result, ok := CheckedSub(a, b)
	if ok {
		return result
	}
	return new(uint256.Int)
}

// Min returns the smaller of a and b.
func Min(a, b *uint256.Int) *uint256.Int {
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}

// Max returns the larger of a and b.
func Max(a, b *uint256.Int) *uint256.Int {
	if a.Cmp(b) >= 0 {
		return a
	}
	return b
}

// ToFloat converts a smallest-unit amount to a float64 scaled by 1e18,
// the reference unit used throughout scoring and quality calculations.
// Precision is lost above ~2^53. Besides scoring, the solver uses these
// floats to compare a routed order's execution price with its limit.
func ToFloat(a *uint256.Int) float64 {
	return a.Float64() / 1e18
}

// FromFloat18 converts a reference-unit float back to a smallest-unit
// amount, flooring at zero and truncating toward zero. Used to store
// clearing prices as floor(price * 1e18).
func FromFloat18(v float64) *uint256.Int {
	if v <= 0 {
		return new(uint256.Int)
	}
	scaled := new(big.Float).SetFloat64(v * 1e18)
	intPart, _ := scaled.Int(nil)
	result, overflow := uint256.FromBig(intPart)
	if overflow {
		return new(uint256.Int).SetAllOne()
	}
	return result
}
