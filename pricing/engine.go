// Package pricing computes uniform per-token clearing prices from a
// batch of orders under one of four strategies, and validates that a
// chosen price set actually satisfies every order's limit.
package pricing

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/cowbatch/solver/amounts"
	"github.com/cowbatch/solver/domain"
)

// Strategy selects the algorithm Engine uses to derive clearing prices.
type Strategy int

const (
	MidPoint Strategy = iota
	MaxSurplus
	MarketPrice
	VolumeWeighted
)

// Engine derives and validates uniform clearing prices for a batch.
type Engine struct {
	strategy      Strategy
	priceOracle   map[common.Address]*uint256.Int
	minConfidence float64
	logger        *slog.Logger
}

// Config tunes Engine's strategy and confidence floor.
type Config struct {
	Strategy      Strategy
	MinConfidence float64
	Logger        *slog.Logger
}

// New returns an Engine. A zero Config yields the defaults: MidPoint
// strategy, 0.5 minimum confidence.
func New(cfg Config) *Engine {
	e := &Engine{
		strategy:      cfg.Strategy,
		priceOracle:   make(map[common.Address]*uint256.Int),
		minConfidence: cfg.MinConfidence,
		logger:        cfg.Logger,
	}
	if e.minConfidence == 0 {
		e.minConfidence = 0.5
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// SetExternalPrice records an oracle-sourced price for token, consumed by
// the MarketPrice strategy.
func (e *Engine) SetExternalPrice(token common.Address, price *uint256.Int) {
	e.priceOracle[token] = price
}

// CalculateClearingPrices dispatches to the engine's configured strategy.
func (e *Engine) CalculateClearingPrices(orders []domain.Order) map[common.Address]domain.ClearingPrice {
	e.logger.Debug("pricing: calculating clearing prices", "strategy", e.strategy, "orders", len(orders))
	switch e.strategy {
	case MaxSurplus:
		return e.calculateMaxSurplusPrices(orders)
	case MarketPrice:
		return e.calculateMarketPrices(orders)
	case VolumeWeighted:
		return e.calculateVolumeWeightedPrices(orders)
	default:
		return e.calculateMidpointPrices(orders)
	}
}

type tokenPair struct{ sell, buy common.Address }

func (e *Engine) calculateMidpointPrices(orders []domain.Order) map[common.Address]domain.ClearingPrice {
	prices := make(map[common.Address]domain.ClearingPrice)
	byPair := make(map[tokenPair][]*domain.Order)

	for i := range orders {
		key := tokenPair{orders[i].SellToken, orders[i].BuyToken}
		byPair[key] = append(byPair[key], &orders[i])
	}

	for pair, pairOrders := range byPair {
		if len(pairOrders) == 0 {
			continue
		}
		minPrice, maxPrice := math.MaxFloat64, -math.MaxFloat64
		for _, o := range pairOrders {
			lp := o.LimitPrice()
			minPrice = math.Min(minPrice, lp)
			maxPrice = math.Max(maxPrice, lp)
		}
		midPrice := (minPrice + maxPrice) / 2.0
		if midPrice == 0 {
			continue
		}
		spread := (maxPrice - minPrice) / midPrice
		confidence := math.Max(1.0-math.Min(spread, 1.0), 0.0)

		prices[pair.sell] = domain.ClearingPrice{
			Token:      pair.sell,
			Price:      amounts.FromFloat18(midPrice),
			Confidence: confidence,
		}
	}
	return prices
}

func (e *Engine) calculateMaxSurplusPrices(orders []domain.Order) map[common.Address]domain.ClearingPrice {
	// Optimization-grade surplus maximization (e.g. linear programming) is
	// out of scope; this substitutes a volume-weighted average of limit
	// prices per token at a fixed medium confidence.
	prices := make(map[common.Address]domain.ClearingPrice)
	type accumulator struct {
		weightedSum float64
		totalVolume float64
	}
	byToken := make(map[common.Address]*accumulator)

	accumulate := func(token common.Address, limitPrice, volume float64) {
		acc, ok := byToken[token]
		if !ok {
			acc = &accumulator{}
			byToken[token] = acc
		}
		acc.weightedSum += limitPrice * volume
		acc.totalVolume += volume
	}

	for i := range orders {
		o := &orders[i]
		volume := amounts.ToFloat(o.SellAmount)
		limitPrice := o.LimitPrice()
		accumulate(o.SellToken, limitPrice, volume)
		accumulate(o.BuyToken, limitPrice, volume)
	}

	for token, acc := range byToken {
		if acc.totalVolume == 0 {
			continue
		}
		avgPrice := acc.weightedSum / acc.totalVolume
		prices[token] = domain.ClearingPrice{
			Token:      token,
			Price:      amounts.FromFloat18(avgPrice),
			Confidence: 0.8,
		}
	}
	return prices
}

func (e *Engine) calculateMarketPrices(orders []domain.Order) map[common.Address]domain.ClearingPrice {
	prices := make(map[common.Address]domain.ClearingPrice)
	tokens := make(map[common.Address]struct{})
	for i := range orders {
		tokens[orders[i].SellToken] = struct{}{}
		tokens[orders[i].BuyToken] = struct{}{}
	}

	for token := range tokens {
		if oraclePrice, ok := e.priceOracle[token]; ok {
			prices[token] = domain.ClearingPrice{
				Token:      token,
				Price:      oraclePrice,
				Confidence: 0.95,
			}
		}
	}

	for token, price := range e.calculateMidpointPrices(orders) {
		if _, ok := prices[token]; !ok {
			prices[token] = price
		}
	}
	return prices
}

func (e *Engine) calculateVolumeWeightedPrices(orders []domain.Order) map[common.Address]domain.ClearingPrice {
	prices := make(map[common.Address]domain.ClearingPrice)
	type accumulator struct {
		weightedSum float64
		totalVolume float64
	}
	byToken := make(map[common.Address]*accumulator)

	for i := range orders {
		o := &orders[i]
		volume := amounts.ToFloat(o.SellAmount)
		limitPrice := o.LimitPrice()

		acc, ok := byToken[o.SellToken]
		if !ok {
			acc = &accumulator{}
			byToken[o.SellToken] = acc
		}
		acc.weightedSum += limitPrice * volume
		acc.totalVolume += volume
	}

	for token, acc := range byToken {
		if acc.totalVolume == 0 {
			continue
		}
		avgPrice := acc.weightedSum / acc.totalVolume
		prices[token] = domain.ClearingPrice{
			Token:      token,
			Price:      amounts.FromFloat18(avgPrice),
			Confidence: 0.85,
		}
	}
	return prices
}

// ValidatePrices checks that every order has a priced sell and buy token
// at or above the engine's minimum confidence, and that the price set
// actually satisfies each order's limit: sell_amount*sell_price >=
// buy_amount*buy_price.
func (e *Engine) ValidatePrices(prices map[common.Address]domain.ClearingPrice, orders []domain.Order) error {
	for i := range orders {
		o := &orders[i]
		sellPrice, ok := prices[o.SellToken]
		if !ok {
			return fmt.Errorf("missing price for sell token %s", o.SellToken)
		}
		buyPrice, ok := prices[o.BuyToken]
		if !ok {
			return fmt.Errorf("missing price for buy token %s", o.BuyToken)
		}
		if !sellPrice.IsAdmissible(e.minConfidence) {
			return fmt.Errorf("low confidence for sell token %s: %.2f", o.SellToken, sellPrice.Confidence)
		}
		if !buyPrice.IsAdmissible(e.minConfidence) {
			return fmt.Errorf("low confidence for buy token %s: %.2f", o.BuyToken, buyPrice.Confidence)
		}

		sellValue, ok := amounts.CheckedMul(o.SellAmount, sellPrice.Price)
		if !ok {
			return fmt.Errorf("overflow computing sell value for order %s", o.ID)
		}
		buyValue, ok := amounts.CheckedMul(o.BuyAmount, buyPrice.Price)
		if !ok {
			return fmt.Errorf("overflow computing buy value for order %s", o.ID)
		}
		if sellValue.Cmp(buyValue) < 0 {
			return fmt.Errorf("clearing prices don't satisfy order %s: sell_value=%s, buy_value=%s", o.ID, sellValue, buyValue)
		}
	}
	return nil
}

// CalculateTotalSurplus sums, over every order whose clearing value
// exceeds its limit value, the difference between the two, in reference
// units (1e18 scale).
func (e *Engine) CalculateTotalSurplus(prices map[common.Address]domain.ClearingPrice, orders []domain.Order) float64 {
	var total float64
	for i := range orders {
		o := &orders[i]
		sellPrice, sellOK := prices[o.SellToken]
		buyPrice, buyOK := prices[o.BuyToken]
		if !sellOK || !buyOK {
			continue
		}
		clearingValue, ok := amounts.CheckedMul(o.SellAmount, sellPrice.Price)
		if !ok {
			continue
		}
		limitValue, ok := amounts.CheckedMul(o.BuyAmount, buyPrice.Price)
		if !ok {
			continue
		}
		if clearingValue.Cmp(limitValue) > 0 {
			total += amounts.ToFloat(amounts.SaturatingSub(clearingValue, limitValue))
		}
	}
	return total
}

// CalculateFee returns surplus*feePercentage, scaled to a smallest-unit
// amount, for a solver fee levied against an order's realized surplus.
func (e *Engine) CalculateFee(surplus, feePercentage float64) *uint256.Int {
	return amounts.FromFloat18(surplus * feePercentage)
}
