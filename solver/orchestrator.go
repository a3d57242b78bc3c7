// Package solver assembles the batch-auction pipeline: order validation,
// coincidence-of-wants matching, AMM routing for the remainder, uniform
// clearing-price derivation, and settlement scoring.
package solver

import (
	"context"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/cowbatch/solver/ammmath"
	"github.com/cowbatch/solver/amounts"
	"github.com/cowbatch/solver/domain"
	"github.com/cowbatch/solver/matching"
	"github.com/cowbatch/solver/pricing"
	"github.com/cowbatch/solver/routing"
)

// Solver runs the batch-auction pipeline against a set of orders.
type Solver interface {
	Solve(ctx context.Context, orders []domain.Order, pools []domain.LiquidityPool) (*domain.Solution, error)
	Name() string
	Config() Config
}

// Engine is the default Solver: it wires the matching and routing engines
// together and implements the full solve pipeline. Clearing prices are
// derived by the Engine itself from the matched or routed orders; the
// pricing engine it holds is not invoked by Solve.
type Engine struct {
	cfg            Config
	name           string
	matchingEngine *matching.Engine
	pricingEngine  *pricing.Engine
	metrics        *Metrics
	logger         *slog.Logger
}

// NewEngine builds an Engine from cfg, registering its metrics against
// registry (pass prometheus.DefaultRegisterer for process-wide metrics).
func NewEngine(cfg Config, registry prometheus.Registerer) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		cfg:            cfg,
		name:           "cowbatch-solver",
		matchingEngine: matching.New(cfg.MatchingConfig),
		pricingEngine:  pricing.New(cfg.PricingConfig),
		metrics:        NewMetrics(registry),
		logger:         logger,
	}
}

func (e *Engine) Name() string   { return e.name }
func (e *Engine) Config() Config { return e.cfg }

// Solve runs the full pipeline and returns a Solution, or nil if no
// profitable settlement could be assembled.
func (e *Engine) Solve(ctx context.Context, orders []domain.Order, pools []domain.LiquidityPool) (*domain.Solution, error) {
	start := time.Now()
	defer func() { e.metrics.solveDuration.Observe(time.Since(start).Seconds()) }()

	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	e.logger.Info("solver: starting", "orders", len(orders))

	validOrders := e.validateOrders(orders, uint32(time.Now().Unix()))
	if len(validOrders) == 0 {
		e.logger.Info("solver: no valid orders")
		return nil, nil
	}
	e.metrics.ordersValidated.Add(float64(len(validOrders)))

	if err := ctx.Err(); err != nil {
		return nil, domain.NewError(domain.KindSettlementFailed, "solve cancelled before matching", err)
	}

	var matches []domain.Match
	if e.cfg.EnableCowMatching {
		candidates := e.matchingEngine.FindMatches(validOrders)
		matches = e.matchingEngine.SelectOptimalMatches(candidates)
	}
	e.metrics.matchesFound.Add(float64(len(matches)))

	if err := ctx.Err(); err != nil {
		return nil, domain.NewError(domain.KindSettlementFailed, "solve cancelled before settlement assembly", err)
	}

	settlement, coveredOrders := e.buildSettlement(validOrders, matches)

	if e.cfg.EnableAmmRouting && len(pools) > 0 {
		e.routeResiduals(settlement, validOrders, coveredOrders, pools)
	}

	if e.cfg.EnableCrossChain {
		e.attachPostHooks(settlement, validOrders, coveredOrders)
	}

	if err := settlement.Validate(); err != nil {
		e.logger.Info("solver: no settleable orders", "error", err)
		return nil, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, domain.NewError(domain.KindSettlementFailed, "solve cancelled before scoring", err)
	}

	gasCost := settlement.EstimateGas()
	surplus := e.calculateSurplus(validOrders, settlement)

	orderIDs := make([]common.Hash, len(settlement.Trades))
	for i, t := range settlement.Trades {
		orderIDs[i] = t.OrderID
	}

	solution := &domain.Solution{
		Orders:     orderIDs,
		Settlement: settlement,
		GasCost:    gasCost,
		Surplus:    surplus,
	}
	solution.CalculateScore()

	if !solution.IsProfitable(e.cfg.MinProfitThreshold) {
		e.metrics.solutionsRejected.Inc()
		e.logger.Warn("solver: solution not profitable", "score", solution.Score, "threshold", e.cfg.MinProfitThreshold)
		return nil, nil
	}

	e.metrics.solutionsFound.Inc()
	e.logger.Info("solver: found solution", "orders", len(solution.Orders), "surplus", solution.Surplus, "score", solution.Score)
	return solution, nil
}

// validateOrders filters out non-open, expired, and zero-amount orders.
func (e *Engine) validateOrders(orders []domain.Order, now uint32) []domain.Order {
	valid := make([]domain.Order, 0, len(orders))
	for _, o := range orders {
		if o.Status != domain.StatusOpen {
			e.logger.Debug("solver: skipping non-open order", "order", o.ID)
			continue
		}
		if o.IsExpired(now) {
			e.logger.Debug("solver: skipping expired order", "order", o.ID)
			continue
		}
		if o.SellAmount == nil || o.SellAmount.IsZero() || o.BuyAmount == nil || o.BuyAmount.IsZero() {
			e.logger.Warn("solver: skipping order with zero amounts", "order", o.ID)
			continue
		}
		valid = append(valid, o)
	}
	return valid
}

// buildSettlement turns selected matches into trades and a uniform
// clearing price per token, returning the set of order hashes now
// covered so later stages don't double-route them through AMMs.
func (e *Engine) buildSettlement(orders []domain.Order, matches []domain.Match) (*domain.Settlement, map[common.Hash]struct{}) {
	settlement := domain.NewSettlement()
	byID := make(map[common.Hash]*domain.Order, len(orders))
	for i := range orders {
		byID[orders[i].ID] = &orders[i]
	}

	covered := make(map[common.Hash]struct{})

	for _, m := range matches {
		prices := e.clearingPricesForMatch(byID, m)
		for token, price := range prices {
			settlement.SetClearingPrice(token, price)
		}
		for _, id := range m.Orders {
			o, ok := byID[id]
			if !ok {
				continue
			}
			settlement.AddTrade(domain.Trade{
				OrderID:            o.ID,
				ExecutedSellAmount: o.SellAmount,
				ExecutedBuyAmount:  o.BuyAmount,
				Fee:                o.FeeAmount,
			})
			covered[o.ID] = struct{}{}
		}
	}
	return settlement, covered
}

// clearingPricesForMatch derives a uniform price per token touched by a
// match. Two-order matches use the geometric mean of the pair's opposing
// limit prices. Larger rings have no single well-defined cross-pair
// rate, so each order's own limit price stands in for its sell token's
// clearing price.
func (e *Engine) clearingPricesForMatch(byID map[common.Hash]*domain.Order, m domain.Match) map[common.Address]*uint256.Int {
	prices := make(map[common.Address]*uint256.Int)

	if len(m.Orders) == 2 {
		a, okA := byID[m.Orders[0]]
		b, okB := byID[m.Orders[1]]
		if okA && okB {
			priceA := a.LimitPrice()
			priceB := 0.0
			if bp := b.LimitPrice(); bp != 0 {
				priceB = 1.0 / bp
			}
			clearing := ammmath.GeometricMeanPrice([]float64{priceA, priceB})
			amt := amounts.FromFloat18(clearing)
			prices[a.SellToken] = amt
			prices[a.BuyToken] = amt
			return prices
		}
	}

	for _, id := range m.Orders {
		o, ok := byID[id]
		if !ok {
			continue
		}
		prices[o.SellToken] = amounts.FromFloat18(o.LimitPrice())
	}
	return prices
}

// routeResiduals sends every valid order not already covered by a match
// through the AMM routing engine, adding a trade plus one on-chain
// interaction per pool hop for any order whose route clears its limit
// price.
func (e *Engine) routeResiduals(settlement *domain.Settlement, orders []domain.Order, covered map[common.Hash]struct{}, pools []domain.LiquidityPool) {
	router := routing.New(pools, e.cfg.RoutingConfig)

	for i := range orders {
		o := &orders[i]
		if _, ok := covered[o.ID]; ok {
			continue
		}

		route := router.FindBestRoute(o.SellToken, o.BuyToken, o.SellAmount)
		if route == nil {
			continue
		}

		executionPrice := amounts.ToFloat(route.OutputAmount) / amounts.ToFloat(o.SellAmount)
		if !o.CanFillAtPrice(executionPrice) {
			e.logger.Debug("solver: route does not clear order limit", "order", o.ID)
			continue
		}

		settlement.AddTrade(domain.Trade{
			OrderID:            o.ID,
			ExecutedSellAmount: o.SellAmount,
			ExecutedBuyAmount:  route.OutputAmount,
			Fee:                o.FeeAmount,
		})
		settlement.SetClearingPrice(o.SellToken, amounts.FromFloat18(1.0/executionPrice))
		settlement.SetClearingPrice(o.BuyToken, amounts.FromFloat18(executionPrice))

		for _, pool := range route.Pools {
			settlement.AddInteraction(domain.Interaction{
				Target: pool.Address,
				Value:  amounts.Zero(),
				Kind:   interactionKindFor(pool.Variant),
			})
		}
		covered[o.ID] = struct{}{}
	}
}

func interactionKindFor(variant domain.PoolVariant) domain.InteractionKind {
	switch variant {
	case domain.UniswapV3:
		return domain.InteractionUniswapV3Swap
	case domain.Balancer:
		return domain.InteractionBalancerSwap
	case domain.Curve:
		return domain.InteractionCurveSwap
	default:
		return domain.InteractionUniswapV2Swap
	}
}

// attachPostHooks adds a bridge post-hook for every settled cross-chain
// order. Per the intermediate-token convention this solver adopts: the
// hook forwards the order's buy token, in the amount actually realized
// by the trade (see the package-level Open Question notes in DESIGN.md).
func (e *Engine) attachPostHooks(settlement *domain.Settlement, orders []domain.Order, covered map[common.Hash]struct{}) {
	tradeByID := make(map[common.Hash]domain.Trade, len(settlement.Trades))
	for _, t := range settlement.Trades {
		tradeByID[t.OrderID] = t
	}

	for i := range orders {
		o := &orders[i]
		if _, ok := covered[o.ID]; !ok {
			continue
		}
		if !o.IsCrossChain() {
			continue
		}
		trade, ok := tradeByID[o.ID]
		if !ok {
			continue
		}
		settlement.AddPostHook(domain.PostHook{
			SourceChain:       *o.SourceChain,
			DestinationChain:  *o.DestinationChain,
			IntermediateToken: o.BuyToken,
			Amount:            trade.ExecutedBuyAmount,
			Recipient:         o.Owner,
		})
	}
}

// calculateSurplus sums, over every trade whose executed buy amount beats
// the order's requested amount, the excess in reference units.
func (e *Engine) calculateSurplus(orders []domain.Order, settlement *domain.Settlement) float64 {
	byID := make(map[common.Hash]*domain.Order, len(orders))
	for i := range orders {
		byID[orders[i].ID] = &orders[i]
	}

	var total float64
	for _, t := range settlement.Trades {
		o, ok := byID[t.OrderID]
		if !ok {
			continue
		}
		executed := amounts.ToFloat(t.ExecutedBuyAmount)
		expected := amounts.ToFloat(o.BuyAmount)
		if executed > expected {
			total += executed - expected
		}
	}
	return total
}
