package domain

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// ClearingPrice is a uniform per-token price applied to all trades in a
// settlement, expressed as price * 10^18 in a reference unit.
type ClearingPrice struct {
	Token      common.Address
	Price      *uint256.Int
	Confidence float64
}

// IsAdmissible reports whether the price's confidence meets the minimum
// required to admit it into a settlement.
func (c ClearingPrice) IsAdmissible(minConfidence float64) bool {
	return c.Confidence >= minConfidence
}
