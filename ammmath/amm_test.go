package ammmath

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmmOutput(t *testing.T) {
	amountIn := uint256.NewInt(1000)
	reserveIn := uint256.NewInt(100000)
	reserveOut := uint256.NewInt(100000)

	out, ok := AmmOutput(amountIn, reserveIn, reserveOut, 30)
	require.True(t, ok)
	assert.True(t, out.Cmp(amountIn) < 0, "output should be less than input due to fee and slippage")
	assert.False(t, out.IsZero())
}

func TestAmmOutputZeroReserves(t *testing.T) {
	_, ok := AmmOutput(uint256.NewInt(1000), uint256.NewInt(0), uint256.NewInt(100), 30)
	assert.False(t, ok)
}

func TestAmmInputInvertsOutput(t *testing.T) {
	reserveIn := uint256.NewInt(1_000_000)
	reserveOut := uint256.NewInt(1_000_000)
	amountIn := uint256.NewInt(1000)

	out, ok := AmmOutput(amountIn, reserveIn, reserveOut, 30)
	require.True(t, ok)

	recoveredIn, ok := AmmInput(out, reserveIn, reserveOut, 30)
	require.True(t, ok)
	// Rounding in AmmInput's +1 guard means we recover an input close to,
	// but not necessarily exactly, the original.
	diff := new(uint256.Int).Sub(recoveredIn, amountIn)
	assert.True(t, recoveredIn.Cmp(amountIn) >= 0 || diff.Sign() == 0)
}

func TestAmmInputRejectsOverReserve(t *testing.T) {
	_, ok := AmmInput(uint256.NewInt(100000), uint256.NewInt(1000), uint256.NewInt(1000), 30)
	assert.False(t, ok)
}

func TestStableSwapOutputCapped(t *testing.T) {
	out, ok := StableSwapOutput(uint256.NewInt(1_000_000_000), uint256.NewInt(1_000_000), uint256.NewInt(1_000_000), 4)
	require.True(t, ok)
	cap := new(uint256.Int).Div(new(uint256.Int).Mul(uint256.NewInt(1_000_000), uint256.NewInt(99)), uint256.NewInt(100))
	assert.Equal(t, 0, out.Cmp(cap))
}

func TestPriceImpactGrowsWithSize(t *testing.T) {
	reserveIn := uint256.NewInt(1_000_000)
	reserveOut := uint256.NewInt(1_000_000)

	small := PriceImpact(uint256.NewInt(100), reserveIn, reserveOut)
	large := PriceImpact(uint256.NewInt(500_000), reserveIn, reserveOut)
	assert.True(t, large > small)
}

func TestOptimalSplitEqualPartition(t *testing.T) {
	splits := OptimalSplit(uint256.NewInt(1000), 4)
	require.Len(t, splits, 4)
	for _, s := range splits {
		assert.Equal(t, uint64(250), s.Uint64())
	}
}

func TestOptimalSplitZeroPaths(t *testing.T) {
	assert.Nil(t, OptimalSplit(uint256.NewInt(1000), 0))
}

func TestGeometricMeanPrice(t *testing.T) {
	mean := GeometricMeanPrice([]float64{1.0, 2.0, 4.0})
	assert.InDelta(t, 2.0, mean, 0.01)
}

func TestGeometricMeanPriceEmpty(t *testing.T) {
	assert.Equal(t, 0.0, GeometricMeanPrice(nil))
}

func TestWeightedAveragePrice(t *testing.T) {
	avg := WeightedAveragePrice([][2]float64{{100.0, 1.0}, {200.0, 2.0}})
	assert.InDelta(t, 166.67, avg, 0.1)
}

func TestWeightedAveragePriceZeroWeight(t *testing.T) {
	assert.Equal(t, 0.0, WeightedAveragePrice([][2]float64{{100.0, 0.0}}))
}
