package domain

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// InteractionKind tags the on-chain call an Interaction represents.
type InteractionKind int

const (
	InteractionUniswapV2Swap InteractionKind = iota
	InteractionUniswapV3Swap
	InteractionBalancerSwap
	InteractionCurveSwap
	InteractionApproval
	InteractionCustom
)

// Trade is one order's execution within a settlement.
type Trade struct {
	OrderID            common.Hash
	ExecutedSellAmount *uint256.Int
	ExecutedBuyAmount  *uint256.Int
	Fee                *uint256.Int
}

// Interaction is an on-chain call appended to a settlement, e.g. an AMM
// swap or an ERC20 approval. Call data and target are opaque to the
// solver; on-chain execution is handled elsewhere.
type Interaction struct {
	Target   common.Address
	CallData []byte
	Value    *uint256.Int
	Kind     InteractionKind
}

// PostHook forwards assets to a bridge contract for cross-chain delivery.
// IntermediateToken and Amount reflect the order's buy token and the
// amount actually realized by its trade.
type PostHook struct {
	BridgeContract    common.Address
	CallData          []byte
	SourceChain       ChainID
	DestinationChain  ChainID
	IntermediateToken common.Address
	Amount            *uint256.Int
	Recipient         common.Address
}

// Settlement is the assembled plan a solve call produces: trades, a
// uniform clearing price per token, on-chain interactions, and any
// cross-chain post-hooks.
type Settlement struct {
	Trades         []Trade
	ClearingPrices map[common.Address]*uint256.Int
	Interactions   []Interaction
	PostHooks      []PostHook
}

// NewSettlement returns an empty Settlement ready for incremental assembly.
func NewSettlement() *Settlement {
	return &Settlement{
		ClearingPrices: make(map[common.Address]*uint256.Int),
	}
}

func (s *Settlement) AddTrade(t Trade)             { s.Trades = append(s.Trades, t) }
func (s *Settlement) AddInteraction(i Interaction) { s.Interactions = append(s.Interactions, i) }
func (s *Settlement) AddPostHook(h PostHook)       { s.PostHooks = append(s.PostHooks, h) }

// SetClearingPrice records the uniform price for token.
func (s *Settlement) SetClearingPrice(token common.Address, price *uint256.Int) {
	s.ClearingPrices[token] = price
}

// Validate enforces the one structural invariant required for admission:
// a settlement with no trades can never be admitted.
func (s *Settlement) Validate() error {
	if len(s.Trades) == 0 {
		return NewError(KindSettlementFailed, "settlement must contain at least one trade", nil)
	}
	return nil
}

// EstimateGas computes the settlement's gas cost: a fixed base plus a
// per-trade, per-interaction and per-post-hook charge.
func (s *Settlement) EstimateGas() uint64 {
	const (
		baseGas        = 21000
		perTradeGas    = 50000
		perInteraction = 100000
		perPostHook    = 150000
	)
	return baseGas +
		uint64(len(s.Trades))*perTradeGas +
		uint64(len(s.Interactions))*perInteraction +
		uint64(len(s.PostHooks))*perPostHook
}

// Solution wraps a validated, scored Settlement with the order ids it
// covers and the metrics used to decide admission.
type Solution struct {
	Orders     []common.Hash
	Settlement *Settlement
	GasCost    uint64
	Surplus    float64
	Score      float64
}

// CalculateScore sets Score = Surplus - GasCost converted to the same
// reference unit as surplus (gwei-equivalent, scaled by 1e-9).
func (s *Solution) CalculateScore() {
	gasCostInReferenceUnit := float64(s.GasCost) * 1e-9
	s.Score = s.Surplus - gasCostInReferenceUnit
}

// IsProfitable reports whether the solution's score meets minThreshold.
func (s *Solution) IsProfitable(minThreshold float64) bool {
	return s.Score >= minThreshold
}
