package routing

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

func testPool(tokenA, tokenB common.Address, reserveA, reserveB uint64) domain.LiquidityPool {
	return domain.LiquidityPool{
		Variant:  domain.UniswapV2,
		TokenA:   tokenA,
		TokenB:   tokenB,
		ReserveA: uint256.NewInt(reserveA),
		ReserveB: uint256.NewInt(reserveB),
		FeeBps:   30,
		GasCost:  100000,
	}
}

func TestAmmOutputViaGraphQuote(t *testing.T) {
	tokenA, tokenB := addr(1), addr(2)
	g := NewGraph([]domain.LiquidityPool{testPool(tokenA, tokenB, 100000, 200000)})

	out, ok := g.Quote(0, uint256.NewInt(1000), tokenA)
	require.True(t, ok)
	assert.True(t, out.Sign() > 0)
	assert.True(t, out.Cmp(uint256.NewInt(2000)) < 0)
}

func TestDirectRoute(t *testing.T) {
	tokenA, tokenB := addr(1), addr(2)
	e := New([]domain.LiquidityPool{testPool(tokenA, tokenB, 1_000_000, 2_000_000)}, Config{})

	route := e.FindBestRoute(tokenA, tokenB, uint256.NewInt(1000))
	require.NotNil(t, route)
	assert.Len(t, route.Pools, 1)
	assert.Len(t, route.Path, 2)
}

func TestMultiHopRoute(t *testing.T) {
	tokenA, tokenB, tokenC := addr(1), addr(2), addr(3)
	pools := []domain.LiquidityPool{
		testPool(tokenA, tokenB, 1_000_000, 2_000_000),
		testPool(tokenB, tokenC, 2_000_000, 3_000_000),
	}
	e := New(pools, Config{MaxHops: 3, MaxPriceImpact: 10.0})

	route := e.FindBestRoute(tokenA, tokenC, uint256.NewInt(1000))
	require.NotNil(t, route)
	assert.Len(t, route.Pools, 2)
	assert.Len(t, route.Path, 3)
}

func TestPriceImpactGrowsWithTradeSize(t *testing.T) {
	tokenA, tokenB := addr(1), addr(2)
	e := New([]domain.LiquidityPool{testPool(tokenA, tokenB, 1_000_000, 2_000_000)}, Config{})
	pool := e.graph.Pool(0)

	small := e.priceImpactFor(pool, tokenA, uint256.NewInt(1000))
	large := e.priceImpactFor(pool, tokenA, uint256.NewInt(100000))
	assert.True(t, small < large)
	assert.True(t, small < 1.0)
	assert.True(t, large > 5.0)
}

func TestNoRouteWhenUnconnected(t *testing.T) {
	tokenA, tokenB, tokenZ := addr(1), addr(2), addr(99)
	e := New([]domain.LiquidityPool{testPool(tokenA, tokenB, 1_000_000, 2_000_000)}, Config{})

	assert.Nil(t, e.FindBestRoute(tokenA, tokenZ, uint256.NewInt(1000)))
}
