package domain

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// PoolVariant identifies the AMM curve a pool implements. Variants other
// than Curve are dispatched to the same constant-product surrogate — the
// solver does not model concentrated-liquidity ticks or Balancer weights.
type PoolVariant int

const (
	UniswapV2 PoolVariant = iota
	UniswapV3
	Balancer
	Curve
	ConstantProduct
)

// LiquidityPool is a snapshot of an on-chain AMM pool's reserves at
// auction time. Pools are immutable for the duration of a solve call.
type LiquidityPool struct {
	Address common.Address
	Variant PoolVariant

	TokenA common.Address
	TokenB common.Address

	ReserveA *uint256.Int
	ReserveB *uint256.Int

	FeeBps  uint16
	GasCost uint64
}

// Validate checks the structural invariants required of every
// LiquidityPool.
func (p *LiquidityPool) Validate() error {
	if p.TokenA == p.TokenB {
		return InvalidOrderf("pool %s: token_a and token_b must differ", p.Address)
	}
	if p.ReserveA == nil || p.ReserveB == nil {
		return InvalidOrderf("pool %s: reserves must be set", p.Address)
	}
	if p.FeeBps >= 10000 {
		return InvalidOrderf("pool %s: fee_bps must be < 10000, got %d", p.Address, p.FeeBps)
	}
	return nil
}

// Reserves returns (reserveIn, reserveOut) for a swap from tokenIn to the
// pool's other token, or (nil, nil, false) if tokenIn isn't one of the
// pool's two tokens.
func (p *LiquidityPool) Reserves(tokenIn common.Address) (reserveIn, reserveOut *uint256.Int, ok bool) {
	switch tokenIn {
	case p.TokenA:
		return p.ReserveA, p.ReserveB, true
	case p.TokenB:
		return p.ReserveB, p.ReserveA, true
	default:
		return nil, nil, false
	}
}

// OtherToken returns the pool's token on the opposite side from token, or
// the zero address if token isn't in the pool.
func (p *LiquidityPool) OtherToken(token common.Address) common.Address {
	switch token {
	case p.TokenA:
		return p.TokenB
	case p.TokenB:
		return p.TokenA
	default:
		return common.Address{}
	}
}
