package solver

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cowbatch/solver/domain"
)

func addr(n uint64) common.Address {
	var a common.Address
	a[19] = byte(n)
	return a
}

func testOrder(id byte, sellToken, buyToken common.Address, sellAmount, buyAmount uint64) domain.Order {
	var hash common.Hash
	hash[0] = id
	return domain.Order{
		ID:         hash,
		SellToken:  sellToken,
		BuyToken:   buyToken,
		SellAmount: uint256.NewInt(sellAmount),
		BuyAmount:  uint256.NewInt(buyAmount),
		FeeAmount:  uint256.NewInt(1000),
		ValidTo:    ^uint32(0),
		Kind:       domain.Sell,
		Status:     domain.StatusOpen,
	}
}

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	cfg := NewConfig(opts...)
	return NewEngine(cfg, prometheus.NewRegistry())
}

func TestSolveDirectMatchIsProfitable(t *testing.T) {
	// Settlement trades execute at an order's own declared amounts, so a
	// direct pair match realizes zero surplus (the gas cost still applies);
	// a negative threshold is needed to admit it.
	e := newTestEngine(t, WithMinProfitThreshold(-1.0))
	tokenA, tokenB := addr(1), addr(2)

	orders := []domain.Order{
		testOrder(1, tokenA, tokenB, 1_000_000_000_000_000_000, 2_000_000_000_000_000_000),
		testOrder(2, tokenB, tokenA, 2_000_000_000_000_000_000, 1_000_000_000_000_000_000),
	}

	solution, err := e.Solve(context.Background(), orders, nil)
	require.NoError(t, err)
	require.NotNil(t, solution)
	assert.Len(t, solution.Orders, 2)
	assert.True(t, solution.Score >= e.cfg.MinProfitThreshold)
}

func TestSolveNoOrdersReturnsNil(t *testing.T) {
	e := newTestEngine(t)
	solution, err := e.Solve(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Nil(t, solution)
}

func TestSolveFiltersExpiredOrders(t *testing.T) {
	e := newTestEngine(t)
	tokenA, tokenB := addr(1), addr(2)

	expired := testOrder(1, tokenA, tokenB, 1000, 2000)
	expired.ValidTo = 1

	solution, err := e.Solve(context.Background(), []domain.Order{expired}, nil)
	require.NoError(t, err)
	assert.Nil(t, solution)
}

func TestSolveRoutesResidualThroughAmm(t *testing.T) {
	e := newTestEngine(t, WithMinProfitThreshold(-1e9))
	tokenA, tokenB := addr(1), addr(2)

	orders := []domain.Order{testOrder(1, tokenA, tokenB, 1000, 1)}
	pools := []domain.LiquidityPool{{
		Variant:  domain.UniswapV2,
		TokenA:   tokenA,
		TokenB:   tokenB,
		ReserveA: uint256.NewInt(1_000_000),
		ReserveB: uint256.NewInt(2_000_000),
		FeeBps:   30,
		GasCost:  100000,
	}}

	solution, err := e.Solve(context.Background(), orders, pools)
	require.NoError(t, err)
	require.NotNil(t, solution)
	assert.Len(t, solution.Settlement.Interactions, 1)
}

func TestDefaultConfigMatchesBaseline(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, uint64(100), cfg.MaxGasPriceGwei)
	assert.True(t, cfg.EnableCowMatching)
	assert.True(t, cfg.EnableAmmRouting)
	assert.True(t, cfg.EnableCrossChain)
}
