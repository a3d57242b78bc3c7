package domain

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Route is a priced path through one or more AMM pools from the first
// token in Path to the last.
type Route struct {
	Pools        []LiquidityPool
	Path         []common.Address
	OutputAmount *uint256.Int
	GasCost      uint64
	PriceImpact  float64
	Score        float64
}
