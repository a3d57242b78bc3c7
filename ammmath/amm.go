// Package ammmath implements the AMM curve formulas and price aggregation
// helpers used by the routing engine and the solver orchestrator:
// constant-product swap math over checked 256-bit arithmetic, plus
// float-based price impact and price aggregation.
package ammmath

import (
	"math"

	"github.com/holiman/uint256"

	"github.com/cowbatch/solver/amounts"
)

const basisPointDivisor = 10000

// AmmOutput returns the output amount a constant-product pool yields for
// amountIn given reserves and a fee in basis points, following Uniswap
// V2's x*y=k formula with the fee taken out of the input leg:
//
//	amountInWithFee = amountIn * (10000 - feeBps)
//	amountOut = (amountInWithFee * reserveOut) / (reserveIn*10000 + amountInWithFee)
//
// Returns (nil, false) if either reserve is zero or any step overflows.
func AmmOutput(amountIn, reserveIn, reserveOut *uint256.Int, feeBps uint16) (*uint256.Int, bool) {
	if reserveIn.IsZero() || reserveOut.IsZero() {
		return nil, false
	}
	feeMultiplier := amounts.FromUint64(basisPointDivisor - uint64(feeBps))
	amountInWithFee, ok := amounts.CheckedMul(amountIn, feeMultiplier)
	if !ok {
		return nil, false
	}
	numerator, ok := amounts.CheckedMul(amountInWithFee, reserveOut)
	if !ok {
		return nil, false
	}
	scaledReserveIn, ok := amounts.CheckedMul(reserveIn, amounts.FromUint64(basisPointDivisor))
	if !ok {
		return nil, false
	}
	denominator, ok := amounts.CheckedAdd(scaledReserveIn, amountInWithFee)
	if !ok {
		return nil, false
	}
	return amounts.CheckedDiv(numerator, denominator)
}

// AmmInput returns the input amount required to draw amountOut from a
// constant-product pool, the algebraic inverse of AmmOutput:
//
//	amountIn = (reserveIn * amountOut * 10000) / ((reserveOut - amountOut) * (10000 - feeBps)) + 1
//
// The trailing +1 guards against rounding the pool short. Returns
// (nil, false) if reserves are zero, amountOut >= reserveOut, or any
// step overflows.
func AmmInput(amountOut, reserveIn, reserveOut *uint256.Int, feeBps uint16) (*uint256.Int, bool) {
	if reserveIn.IsZero() || reserveOut.IsZero() || amountOut.Cmp(reserveOut) >= 0 {
		return nil, false
	}
	numerator, ok := amounts.CheckedMul(reserveIn, amountOut)
	if !ok {
		return nil, false
	}
	numerator, ok = amounts.CheckedMul(numerator, amounts.FromUint64(basisPointDivisor))
	if !ok {
		return nil, false
	}
	feeMultiplier := amounts.FromUint64(basisPointDivisor - uint64(feeBps))
	remaining, ok := amounts.CheckedSub(reserveOut, amountOut)
	if !ok {
		return nil, false
	}
	denominator, ok := amounts.CheckedMul(remaining, feeMultiplier)
	if !ok || denominator.IsZero() {
		return nil, false
	}
	amountIn, ok := amounts.CheckedDiv(numerator, denominator)
	if !ok {
		return nil, false
	}
	return amounts.CheckedAdd(amountIn, amounts.FromUint64(1))
}

// StableSwapOutput approximates a stable-swap curve's output as the
// lesser of amountIn*(10000-feeBps)/10000 (a 1:1 swap minus the fee) and
// 99% of the available output reserve, a surrogate used in place of
// modeling Curve's invariant directly.
func StableSwapOutput(amountIn, reserveIn, reserveOut *uint256.Int, feeBps uint16) (*uint256.Int, bool) {
	if reserveIn.IsZero() || reserveOut.IsZero() {
		return nil, false
	}
	feeMultiplier := amounts.FromUint64(basisPointDivisor - uint64(feeBps))
	withFee, ok := amounts.CheckedMul(amountIn, feeMultiplier)
	if !ok {
		return nil, false
	}
	withFee, ok = amounts.CheckedDiv(withFee, amounts.FromUint64(basisPointDivisor))
	if !ok {
		return nil, false
	}
	cap, ok := amounts.CheckedMul(reserveOut, amounts.FromUint64(99))
	if !ok {
		return nil, false
	}
	cap, ok = amounts.CheckedDiv(cap, amounts.FromUint64(100))
	if !ok {
		return nil, false
	}
	return amounts.Min(withFee, cap), true
}

// PriceImpact reports the fractional deviation between a swap's realized
// price and the pool's spot price, as a float in [0, 1]. The routing
// engine does not call it; route scoring uses its own percentage measure.
func PriceImpact(amountIn, reserveIn, reserveOut *uint256.Int) float64 {
	if reserveIn.IsZero() || reserveOut.IsZero() {
		return 0.0
	}
	amountInF := amounts.ToFloat(amountIn)
	reserveInF := amounts.ToFloat(reserveIn)
	reserveOutF := amounts.ToFloat(reserveOut)

	k := reserveInF * reserveOutF
	newReserveIn := reserveInF + amountInF
	if newReserveIn == 0 {
		return 0.0
	}
	newReserveOut := k / newReserveIn
	amountOut := reserveOutF - newReserveOut

	expectedPrice := reserveOutF / reserveInF
	if amountInF == 0 || expectedPrice == 0 {
		return 0.0
	}
	actualPrice := amountOut / amountInF
	impact := (expectedPrice - actualPrice) / expectedPrice
	if impact < 0 {
		impact = -impact
	}
	return impact
}

// OptimalSplit divides amount equally across numPaths paths. This is a
// placeholder for a real marginal-price optimization across paths.
func OptimalSplit(amount *uint256.Int, numPaths int) []*uint256.Int {
	if numPaths == 0 {
		return nil
	}
	share, ok := amounts.CheckedDiv(amount, amounts.FromUint64(uint64(numPaths)))
	if !ok {
		share = amounts.Zero()
	}
	splits := make([]*uint256.Int, numPaths)
	for i := range splits {
		splits[i] = share
	}
	return splits
}

// GeometricMeanPrice returns the geometric mean of prices, or 0 if prices
// is empty. Used to derive a uniform clearing price from two orders'
// opposing limit prices.
func GeometricMeanPrice(prices []float64) float64 {
	if len(prices) == 0 {
		return 0.0
	}
	product := 1.0
	for _, p := range prices {
		product *= p
	}
	return math.Pow(product, 1.0/float64(len(prices)))
}

// WeightedAveragePrice returns sum(price*weight)/sum(weight) over pairs,
// or 0 if pairs is empty or all weights are zero.
func WeightedAveragePrice(pairs [][2]float64) float64 {
	if len(pairs) == 0 {
		return 0.0
	}
	var totalWeight, weightedSum float64
	for _, pw := range pairs {
		price, weight := pw[0], pw[1]
		totalWeight += weight
		weightedSum += price * weight
	}
	if totalWeight == 0 {
		return 0.0
	}
	return weightedSum / totalWeight
}
