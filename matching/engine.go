// Package matching implements coincidence-of-wants discovery: direct
// two-order matches and elementary token-cycle (ring) matches, scored and
// greedily selected into a disjoint set for settlement.
package matching

import (
	"log/slog"
	"math"
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"github.com/cowbatch/solver/bitset"
	"github.com/cowbatch/solver/domain"
)

// Engine discovers and selects coincidence-of-wants matches among a batch
// of orders.
type Engine struct {
	maxRingSize     int
	minQualityScore float64
	logger          *slog.Logger
}

// Config tunes Engine's ring-size bound and quality floor.
type Config struct {
	MaxRingSize     int
	MinQualityScore float64
	Logger          *slog.Logger
}

// New returns an Engine. A zero Config yields the defaults: ring size
// 4, quality floor 0.1.
func New(cfg Config) *Engine {
	e := &Engine{
		maxRingSize:     cfg.MaxRingSize,
		minQualityScore: cfg.MinQualityScore,
		logger:          cfg.Logger,
	}
	if e.maxRingSize == 0 {
		e.maxRingSize = 4
	}
	if e.minQualityScore == 0 {
		e.minQualityScore = 0.1
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// FindMatches returns every candidate match (direct pairs and rings)
// across orders, sorted by descending quality score and filtered to the
// engine's minimum quality floor.
func (e *Engine) FindMatches(orders []domain.Order) []domain.Match {
	matches := e.findDirectPairs(orders)
	matches = append(matches, e.findRings(orders)...)

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].QualityScore > matches[j].QualityScore
	})

	filtered := matches[:0]
	for _, m := range matches {
		if m.QualityScore >= e.minQualityScore {
			filtered = append(filtered, m)
		}
	}

	e.logger.Debug("matching: found candidates", "total", len(filtered))
	return filtered
}

func (e *Engine) findDirectPairs(orders []domain.Order) []domain.Match {
	var matches []domain.Match
	for i := range orders {
		for j := i + 1; j < len(orders); j++ {
			a, b := &orders[i], &orders[j]
			if !e.isDirectMatch(a, b) {
				continue
			}
			matches = append(matches, domain.Match{
				Orders:           []common.Hash{a.ID, b.ID},
				Variant:          domain.DirectPair,
				QualityScore:     e.calculatePairQuality(a, b),
				EstimatedSurplus: e.estimatePairSurplus(a, b),
			})
		}
	}
	e.logger.Debug("matching: direct pairs", "count", len(matches))
	return matches
}

func (e *Engine) isDirectMatch(a, b *domain.Order) bool {
	if a.SellToken != b.BuyToken || a.BuyToken != b.SellToken {
		return false
	}
	return e.hasPriceOverlap(a, b)
}

// hasPriceOverlap reports whether a is willing to accept no more than
// what b is offering: priceA = a.buy/a.sell, priceB = b.sell/b.buy.
func (e *Engine) hasPriceOverlap(a, b *domain.Order) bool {
	priceA := limitPrice(a.BuyAmount, a.SellAmount)
	priceB := limitPrice(b.SellAmount, b.BuyAmount)
	return priceA <= priceB
}

func (e *Engine) calculatePairQuality(a, b *domain.Order) float64 {
	priceA := limitPrice(a.BuyAmount, a.SellAmount)
	priceB := limitPrice(b.SellAmount, b.BuyAmount)

	priceOverlap := 0.0
	if priceB > 0.0 {
		ratio := priceA / priceB
		if ratio > 1.0 {
			ratio = 1.0
		}
		priceOverlap = 1.0 - ratio
	}

	volumeA := toFloatUnits(a.SellAmount)
	volumeB := toFloatUnits(b.SellAmount)
	totalVolume := volumeA + volumeB
	volumeScore := math.Log(totalVolume/1e18) / 10.0
	if volumeScore < 0 {
		volumeScore = 0
	}

	balanceScore := math.Min(volumeA, volumeB) / math.Max(volumeA, volumeB)
	if balanceScore > 1.0 {
		balanceScore = 1.0
	}

	quality := priceOverlap*0.4 + volumeScore*0.3 + balanceScore*0.3
	return clamp01(quality)
}

func (e *Engine) estimatePairSurplus(a, b *domain.Order) float64 {
	priceA := limitPrice(a.BuyAmount, a.SellAmount)
	priceB := limitPrice(b.SellAmount, b.BuyAmount)
	if priceB <= priceA {
		return 0.0
	}
	volume := math.Min(toFloatUnits(a.SellAmount), toFloatUnits(b.BuyAmount))
	return (volume * (priceB - priceA)) / 1e18
}

// findRings discovers elementary token cycles of length 3..maxRingSize
// via a bounded, blocked-set depth-first search, in the spirit of
// Johnson's algorithm for elementary circuits.
func (e *Engine) findRings(orders []domain.Order) []domain.Match {
	var matches []domain.Match
	if len(orders) < 3 {
		return matches
	}

	graph := e.buildTokenGraph(orders)
	cycles := findCycles(orders, graph, e.maxRingSize)

	for _, cycle := range cycles {
		if m := e.validateRing(orders, cycle); m != nil {
			matches = append(matches, *m)
		}
	}
	e.logger.Debug("matching: ring matches", "count", len(matches))
	return matches
}

// buildTokenGraph indexes orders by the token they sell, so that from an
// order's buy token we can find candidate next orders in a cycle.
func (e *Engine) buildTokenGraph(orders []domain.Order) map[common.Address][]int {
	graph := make(map[common.Address][]int)
	for idx, o := range orders {
		graph[o.SellToken] = append(graph[o.SellToken], idx)
	}
	return graph
}

// findCycles enumerates elementary cycles of length [3, maxSize] in the
// order-index graph. Canonicalizing each cycle's search to start at its
// lowest index, and only ever visiting nodes with index >= the start,
// avoids emitting the same cycle once per rotation.
func findCycles(orders []domain.Order, graph map[common.Address][]int, maxSize int) [][]int {
	if maxSize < 3 {
		maxSize = 3
	}
	var cycles [][]int
	visited := bitset.NewBitSet(uint64(len(orders)))
	path := make([]int, 0, maxSize)

	var dfs func(start, current int)
	dfs = func(start, current int) {
		if len(path) > maxSize {
			return
		}
		candidates := graph[orders[current].BuyToken]
		for _, next := range candidates {
			if next == start && len(path) >= 3 {
				cycle := make([]int, len(path))
				copy(cycle, path)
				cycles = append(cycles, cycle)
				continue
			}
			if next <= start || visited.IsSet(uint64(next)) {
				continue
			}
			if len(path) >= maxSize {
				continue
			}
			visited.Set(uint64(next))
			path = append(path, next)
			dfs(start, next)
			path = path[:len(path)-1]
			visited.Unset(uint64(next))
		}
	}

	for start := range orders {
		visited.Clear()
		visited.Set(uint64(start))
		path = append(path[:0], start)
		dfs(start, start)
	}
	return cycles
}

func (e *Engine) validateRing(orders []domain.Order, cycle []int) *domain.Match {
	if len(cycle) < 3 {
		return nil
	}
	for i := range cycle {
		current := &orders[cycle[i]]
		next := &orders[cycle[(i+1)%len(cycle)]]
		if current.BuyToken != next.SellToken {
			return nil
		}
	}

	ids := make([]common.Hash, len(cycle))
	for i, idx := range cycle {
		ids[i] = orders[idx].ID
	}

	return &domain.Match{
		Orders:           ids,
		Variant:          domain.Ring,
		QualityScore:     e.calculateRingQuality(orders, cycle),
		EstimatedSurplus: e.estimateRingSurplus(orders, cycle),
	}
}

func (e *Engine) calculateRingQuality(orders []domain.Order, cycle []int) float64 {
	sizeScore := 1.0 / math.Sqrt(float64(len(cycle)))

	priceProduct := 1.0
	for _, idx := range cycle {
		o := &orders[idx]
		priceProduct *= limitPrice(o.BuyAmount, o.SellAmount)
	}

	priceScore := 0.0
	if priceProduct >= 1.0 {
		priceScore = math.Min(priceProduct-1.0, 1.0)
	}

	return (sizeScore + priceScore) / 2.0
}

func (e *Engine) estimateRingSurplus(orders []domain.Order, cycle []int) float64 {
	total := 0.0
	for _, idx := range cycle {
		total += toFloatUnits(orders[idx].SellAmount) * 0.001 / 1e18
	}
	return total
}

// SelectOptimalMatches greedily selects non-overlapping matches in
// descending quality order, tracking consumed orders in a set keyed by
// order hash (matches can be of variable size, so a fixed-width bitset
// keyed by order index isn't applicable here).
func (e *Engine) SelectOptimalMatches(matches []domain.Match) []domain.Match {
	selected := make([]domain.Match, 0, len(matches))
	used := make(map[common.Hash]struct{})

	for _, m := range matches {
		overlap := false
		for _, id := range m.Orders {
			if _, ok := used[id]; ok {
				overlap = true
				break
			}
		}
		if overlap {
			continue
		}
		for _, id := range m.Orders {
			used[id] = struct{}{}
		}
		selected = append(selected, m)
	}

	e.logger.Debug("matching: selected matches", "selected", len(selected), "candidates", len(matches))
	return selected
}

func limitPrice(numerator, denominator interface{ Float64() float64 }) float64 {
	d := denominator.Float64()
	if d == 0 {
		return 0
	}
	return numerator.Float64() / d
}

func toFloatUnits(a interface{ Float64() float64 }) float64 {
	return a.Float64()
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
