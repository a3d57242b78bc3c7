package pricing

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cowbatch/solver/domain"
)

func addr(n uint64) common.Address {
	var a common.Address
	a[19] = byte(n)
	return a
}

func testOrder(sellToken, buyToken common.Address, sellAmount, buyAmount uint64) domain.Order {
	return domain.Order{
		SellToken:  sellToken,
		BuyToken:   buyToken,
		SellAmount: uint256.NewInt(sellAmount),
		BuyAmount:  uint256.NewInt(buyAmount),
		ValidTo:    ^uint32(0),
	}
}

func TestMidpointPricing(t *testing.T) {
	e := New(Config{})
	tokenA, tokenB := addr(1), addr(2)

	orders := []domain.Order{
		testOrder(tokenA, tokenB, 1000, 2000),
		testOrder(tokenB, tokenA, 2000, 1000),
	}

	prices := e.CalculateClearingPrices(orders)
	price, ok := prices[tokenA]
	require.True(t, ok)
	assert.True(t, price.Confidence > 0.0)
}

func TestVolumeWeightedPricing(t *testing.T) {
	e := New(Config{Strategy: VolumeWeighted})
	tokenA, tokenB := addr(1), addr(2)

	orders := []domain.Order{
		testOrder(tokenA, tokenB, 1000, 2000),
		testOrder(tokenA, tokenB, 2000, 4000),
	}

	prices := e.CalculateClearingPrices(orders)
	_, ok := prices[tokenA]
	assert.True(t, ok)
}

func TestMarketPricingWithOracle(t *testing.T) {
	e := New(Config{Strategy: MarketPrice})
	tokenA, tokenB := addr(1), addr(2)

	e.SetExternalPrice(tokenA, uint256.NewInt(2_000_000_000_000_000_000))
	e.SetExternalPrice(tokenB, uint256.NewInt(1_000_000_000_000_000_000))

	orders := []domain.Order{testOrder(tokenA, tokenB, 1000, 2000)}
	prices := e.CalculateClearingPrices(orders)

	assert.Equal(t, 0.95, prices[tokenA].Confidence)
}

func TestPriceValidation(t *testing.T) {
	e := New(Config{})
	tokenA, tokenB := addr(1), addr(2)

	orders := []domain.Order{
		testOrder(tokenA, tokenB, 1_000_000_000_000_000_000, 2_000_000_000_000_000_000),
	}

	prices := e.CalculateClearingPrices(orders)
	assert.NoError(t, e.ValidatePrices(prices, orders))
}

func TestSurplusCalculationNonNegative(t *testing.T) {
	e := New(Config{})
	tokenA, tokenB := addr(1), addr(2)

	orders := []domain.Order{
		testOrder(tokenA, tokenB, 1_000_000_000_000_000_000, 1_500_000_000_000_000_000),
	}

	prices := e.CalculateClearingPrices(orders)
	surplus := e.CalculateTotalSurplus(prices, orders)
	assert.True(t, surplus >= 0.0)
}

func TestCalculateFee(t *testing.T) {
	e := New(Config{})
	fee := e.CalculateFee(100.0, 0.1)
	assert.Equal(t, uint64(10), fee.Uint64()/uint64(1e18))
}
