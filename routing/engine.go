package routing

import (
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/cowbatch/solver/amounts"
	"github.com/cowbatch/solver/domain"
)

// Engine finds the best-scoring route through a pool graph for a given
// token pair and input amount.
type Engine struct {
	graph          *Graph
	maxHops        int
	maxPriceImpact float64
	logger         *slog.Logger
}

// Config tunes Engine's hop limit and price-impact ceiling.
type Config struct {
	MaxHops        int
	MaxPriceImpact float64
	Logger         *slog.Logger
}

// New returns an Engine over pools. A zero Config yields the defaults:
// 3 hops, 5% max price impact.
func New(pools []domain.LiquidityPool, cfg Config) *Engine {
	e := &Engine{
		graph:          NewGraph(pools),
		maxHops:        cfg.MaxHops,
		maxPriceImpact: cfg.MaxPriceImpact,
		logger:         cfg.Logger,
	}
	if e.maxHops == 0 {
		e.maxHops = 3
	}
	if e.maxPriceImpact == 0 {
		e.maxPriceImpact = 5.0
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// FindBestRoute returns the highest-scoring route from tokenIn to
// tokenOut for amountIn, or nil if no admissible route exists.
func (e *Engine) FindBestRoute(tokenIn, tokenOut common.Address, amountIn *uint256.Int) *domain.Route {
	routes := e.findAllRoutes(tokenIn, tokenOut, amountIn)
	if len(routes) == 0 {
		e.logger.Debug("routing: no route found", "token_in", tokenIn, "token_out", tokenOut)
		return nil
	}

	best := routes[0]
	for _, r := range routes[1:] {
		if r.Score > best.Score {
			best = r
		}
	}

	e.logger.Debug("routing: best route", "hops", len(best.Pools), "output", best.OutputAmount, "score", best.Score)
	return &best
}

func (e *Engine) findAllRoutes(tokenIn, tokenOut common.Address, amountIn *uint256.Int) []domain.Route {
	var routes []domain.Route

	if direct := e.findDirectRoute(tokenIn, tokenOut, amountIn); direct != nil {
		routes = append(routes, *direct)
	}

	if e.maxHops > 1 {
		routes = append(routes, e.findMultiHopRoutes(tokenIn, tokenOut, amountIn)...)
	}

	filtered := routes[:0]
	for _, r := range routes {
		if r.PriceImpact <= e.maxPriceImpact {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

func (e *Engine) findDirectRoute(tokenIn, tokenOut common.Address, amountIn *uint256.Int) *domain.Route {
	poolIdxs := e.graph.PoolsFor(tokenIn, tokenOut)
	if len(poolIdxs) == 0 {
		return nil
	}

	var best *domain.Route
	for _, idx := range poolIdxs {
		pool := e.graph.Pool(idx)
		output, ok := e.graph.Quote(idx, amountIn, tokenIn)
		if !ok || output.IsZero() {
			continue
		}

		priceImpact := e.priceImpactFor(pool, tokenIn, amountIn)
		score := e.calculateRouteScore(output, pool.GasCost, priceImpact)

		route := domain.Route{
			Pools:        []domain.LiquidityPool{pool},
			Path:         []common.Address{tokenIn, tokenOut},
			OutputAmount: output,
			GasCost:      pool.GasCost,
			PriceImpact:  priceImpact,
			Score:        score,
		}
		if best == nil || route.Score > best.Score {
			best = &route
		}
	}
	return best
}

func (e *Engine) findMultiHopRoutes(tokenIn, tokenOut common.Address, amountIn *uint256.Int) []domain.Route {
	var routes []domain.Route
	paths := e.graph.FindPathsBFS(tokenIn, tokenOut, e.maxHops)
	for _, path := range paths {
		if route := e.evaluatePath(path, amountIn); route != nil {
			routes = append(routes, *route)
		}
	}
	return routes
}

// evaluatePath walks path hop by hop, greedily picking the best pool at
// each hop for the amount carried forward from the previous hop.
func (e *Engine) evaluatePath(path []common.Address, amountIn *uint256.Int) *domain.Route {
	if len(path) < 2 {
		return nil
	}

	var pools []domain.LiquidityPool
	currentAmount := amountIn
	var totalGas uint64
	var totalImpact float64

	for i := 0; i < len(path)-1; i++ {
		tokenIn, tokenOut := path[i], path[i+1]
		poolIdxs := e.graph.PoolsFor(tokenIn, tokenOut)
		if len(poolIdxs) == 0 {
			return nil
		}

		var bestIdx = -1
		bestOutput := amounts.Zero()
		for _, idx := range poolIdxs {
			output, ok := e.graph.Quote(idx, currentAmount, tokenIn)
			if !ok {
				continue
			}
			if output.Cmp(bestOutput) > 0 {
				bestOutput = output
				bestIdx = idx
			}
		}
		if bestIdx == -1 || bestOutput.IsZero() {
			return nil
		}

		pool := e.graph.Pool(bestIdx)
		pools = append(pools, pool)
		totalGas += pool.GasCost
		totalImpact += e.priceImpactFor(pool, tokenIn, currentAmount)
		currentAmount = bestOutput
	}

	score := e.calculateRouteScore(currentAmount, totalGas, totalImpact)
	return &domain.Route{
		Pools:        pools,
		Path:         path,
		OutputAmount: currentAmount,
		GasCost:      totalGas,
		PriceImpact:  totalImpact,
		Score:        score,
	}
}

// priceImpactFor reports the swap's price impact as a percentage in
// [0, 100] (as opposed to ammmath.PriceImpact's [0, 1] fraction), computed
// as amountIn / reserveIn.
func (e *Engine) priceImpactFor(pool domain.LiquidityPool, tokenIn common.Address, amountIn *uint256.Int) float64 {
	reserveIn, _, ok := pool.Reserves(tokenIn)
	if !ok || reserveIn.IsZero() {
		return 100.0
	}
	impact := (amounts.ToFloat(amountIn) / amounts.ToFloat(reserveIn)) * 100.0
	if impact > 100.0 {
		impact = 100.0
	}
	return impact
}

// calculateRouteScore rewards output amount and penalizes gas cost and
// price impact: output scaled to 1e18, gas normalized by 1e6, impact
// as a fraction.
func (e *Engine) calculateRouteScore(outputAmount *uint256.Int, gasCost uint64, priceImpact float64) float64 {
	outputScore := amounts.ToFloat(outputAmount)
	gasPenalty := float64(gasCost) / 1e6
	impactPenalty := priceImpact / 100.0
	return outputScore - gasPenalty - impactPenalty
}
