package domain

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// OrderKind is an order's execution type: a Sell order sells an exact
// amount, a Buy order buys an exact amount.
type OrderKind int

const (
	Sell OrderKind = iota
	Buy
)

// OrderStatus is an order's lifecycle state. The solver consumes orders
// immutably; status is set and transitioned externally.
type OrderStatus int

const (
	StatusOpen OrderStatus = iota
	StatusPending
	StatusFilled
	StatusPartiallyFilled
	StatusCancelled
	StatusExpired
)

// Order is a signed off-chain intent to swap SellToken for BuyToken.
type Order struct {
	ID        common.Hash
	Owner     common.Address
	SellToken common.Address
	BuyToken  common.Address

	SellAmount *uint256.Int
	BuyAmount  *uint256.Int
	FeeAmount  *uint256.Int

	ValidTo           uint32
	Kind              OrderKind
	PartiallyFillable bool
	Status            OrderStatus
	SourceChain       *ChainID
	DestinationChain  *ChainID
	BridgeProvider    string
}

// IsCrossChain reports whether the order specifies both a source and a
// destination chain.
func (o *Order) IsCrossChain() bool {
	return o.SourceChain != nil && o.DestinationChain != nil
}

// IsExpired reports whether the order's validity deadline has passed as
// of currentTime (a unix timestamp).
func (o *Order) IsExpired(currentTime uint32) bool {
	return currentTime > o.ValidTo
}

// LimitPrice returns buy_amount / sell_amount, in buy-token units per
// sell-token unit. Precision loss above ~2^53 is accepted; limit-price
// comparisons never gate settlement correctness on their own.
func (o *Order) LimitPrice() float64 {
	if o.SellAmount == nil || o.SellAmount.IsZero() {
		return 0
	}
	return o.BuyAmount.Float64() / o.SellAmount.Float64()
}

// CanFillAtPrice reports whether the order can be filled at execution
// price p: a Sell order requires p >= limit, a Buy order requires p <= limit.
func (o *Order) CanFillAtPrice(p float64) bool {
	switch o.Kind {
	case Buy:
		return p <= o.LimitPrice()
	default:
		return p >= o.LimitPrice()
	}
}

// Validate checks the structural invariants required of every Order:
// non-zero amounts, distinct tokens, a set deadline, and (for
// cross-chain orders) a bridge provider.
func (o *Order) Validate() error {
	if o.SellAmount == nil || o.SellAmount.IsZero() {
		return InvalidOrderf("sell amount must be greater than zero")
	}
	if o.BuyAmount == nil || o.BuyAmount.IsZero() {
		return InvalidOrderf("buy amount must be greater than zero")
	}
	if o.SellToken == o.BuyToken {
		return InvalidOrderf("sell and buy tokens must be different")
	}
	if o.ValidTo == 0 {
		return InvalidOrderf("valid_to timestamp must be set")
	}
	if o.IsCrossChain() && o.BridgeProvider == "" {
		return InvalidOrderf("cross-chain orders must specify a bridge provider")
	}
	return nil
}
