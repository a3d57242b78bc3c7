package matching

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cowbatch/solver/domain"
)

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

func addr(n uint64) common.Address {
	var a common.Address
	a[19] = byte(n)
	return a
}

func TestFindDirectPairs(t *testing.T) {
	e := New(Config{})
	tokenA, tokenB := addr(1), addr(2)

	orders := []domain.Order{
		testOrder(1, tokenA, tokenB, 1000, 2000),
		testOrder(2, tokenB, tokenA, 2000, 1000),
	}

	matches := e.findDirectPairs(orders)
	require.Len(t, matches, 1)
	assert.Equal(t, domain.DirectPair, matches[0].Variant)
	assert.Len(t, matches[0].Orders, 2)
}

func TestNoMatchDifferentTokens(t *testing.T) {
	e := New(Config{})
	tokenA, tokenB, tokenC := addr(1), addr(2), addr(3)

	orders := []domain.Order{
		testOrder(1, tokenA, tokenB, 1000, 2000),
		testOrder(2, tokenB, tokenC, 2000, 3000),
	}

	assert.Empty(t, e.findDirectPairs(orders))
}

func TestHasPriceOverlap(t *testing.T) {
	e := New(Config{})
	tokenA, tokenB := addr(1), addr(2)

	a := testOrder(1, tokenA, tokenB, 1000, 2000)
	b := testOrder(2, tokenB, tokenA, 2000, 1000)

	assert.True(t, e.hasPriceOverlap(&a, &b))
}

func TestQualityScoreBounded(t *testing.T) {
	e := New(Config{})
	tokenA, tokenB := addr(1), addr(2)

	a := testOrder(1, tokenA, tokenB, 1_000_000_000_000_000_000, 2_000_000_000_000_000_000)
	b := testOrder(2, tokenB, tokenA, 2_000_000_000_000_000_000, 1_000_000_000_000_000_000)

	quality := e.calculatePairQuality(&a, &b)
	assert.True(t, quality > 0.0 && quality <= 1.0)
}

func TestSelectOptimalMatchesGreedy(t *testing.T) {
	e := New(Config{})

	var id1, id2, id3 common.Hash
	id1[0], id2[0], id3[0] = 1, 2, 3

	matches := []domain.Match{
		{Orders: []common.Hash{id1, id2}, Variant: domain.DirectPair, QualityScore: 0.8},
		{Orders: []common.Hash{id2, id3}, Variant: domain.DirectPair, QualityScore: 0.6},
	}

	selected := e.SelectOptimalMatches(matches)
	require.Len(t, selected, 1)
	assert.Equal(t, 0.8, selected[0].QualityScore)
}

func TestFindRingsThreeCycle(t *testing.T) {
	e := New(Config{MaxRingSize: 4})
	tokenA, tokenB, tokenC := addr(1), addr(2), addr(3)

	orders := []domain.Order{
		testOrder(1, tokenA, tokenB, 1000, 1100),
		testOrder(2, tokenB, tokenC, 1100, 1200),
		testOrder(3, tokenC, tokenA, 1200, 900),
	}

	matches := e.findRings(orders)
	require.Len(t, matches, 1)
	assert.Equal(t, domain.Ring, matches[0].Variant)
	assert.Len(t, matches[0].Orders, 3)
}

func TestFindRingsRequiresThreeOrders(t *testing.T) {
	e := New(Config{})
	tokenA, tokenB := addr(1), addr(2)

	orders := []domain.Order{
		testOrder(1, tokenA, tokenB, 1000, 1100),
		testOrder(2, tokenB, tokenA, 1100, 900),
	}

	assert.Empty(t, e.findRings(orders))
}

func TestFindMatchesFiltersByQuality(t *testing.T) {
	e := New(Config{MinQualityScore: 1.1})
	tokenA, tokenB := addr(1), addr(2)

	orders := []domain.Order{
		testOrder(1, tokenA, tokenB, 1000, 2000),
		testOrder(2, tokenB, tokenA, 2000, 1000),
	}

	assert.Empty(t, e.FindMatches(orders))
}
