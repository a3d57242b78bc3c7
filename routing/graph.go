// Package routing implements multi-hop AMM pathfinding: pool indexing
// under both token orderings, breadth-first path enumeration bounded by a
// hop limit, and per-hop output calculation dispatched by pool variant.
package routing

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/cowbatch/solver/ammmath"
	"github.com/cowbatch/solver/domain"
)

// outputFunc computes the output amount a pool yields for amountIn given
// tokenIn, dispatched once per pool at graph-construction time rather
// than switched on every quote.
type outputFunc func(amountIn *uint256.Int, tokenIn common.Address) (*uint256.Int, bool)

// pairKey indexes pools by an ordered (tokenIn, tokenOut) pair.
type pairKey struct {
	in, out common.Address
}

// Graph is a reusable, stateless view over a snapshot of liquidity pools:
// an adjacency index for BFS plus precomputed per-pool output closures.
type Graph struct {
	pools       []domain.LiquidityPool
	poolIndex   map[pairKey][]int
	outputFuncs []outputFunc
	adjacency   map[common.Address][]common.Address
	tokenIndex  map[common.Address]int
}

// NewGraph builds a Graph from pools, indexing each pool under both token
// orderings and precomputing its dispatch closure once.
func NewGraph(pools []domain.LiquidityPool) *Graph {
	g := &Graph{
		pools:       pools,
		poolIndex:   make(map[pairKey][]int, len(pools)*2),
		outputFuncs: make([]outputFunc, len(pools)),
		adjacency:   make(map[common.Address][]common.Address),
		tokenIndex:  make(map[common.Address]int),
	}
	for idx := range pools {
		g.indexPool(idx)
	}
	return g
}

func (g *Graph) indexPool(idx int) {
	pool := g.pools[idx]

	g.poolIndex[pairKey{pool.TokenA, pool.TokenB}] = append(g.poolIndex[pairKey{pool.TokenA, pool.TokenB}], idx)
	g.poolIndex[pairKey{pool.TokenB, pool.TokenA}] = append(g.poolIndex[pairKey{pool.TokenB, pool.TokenA}], idx)

	g.adjacency[pool.TokenA] = append(g.adjacency[pool.TokenA], pool.TokenB)
	g.adjacency[pool.TokenB] = append(g.adjacency[pool.TokenB], pool.TokenA)

	if _, ok := g.tokenIndex[pool.TokenA]; !ok {
		g.tokenIndex[pool.TokenA] = len(g.tokenIndex)
	}
	if _, ok := g.tokenIndex[pool.TokenB]; !ok {
		g.tokenIndex[pool.TokenB] = len(g.tokenIndex)
	}

	g.outputFuncs[idx] = dispatchOutputFunc(pool)
}

// dispatchOutputFunc returns the per-variant quoting closure for pool.
// The curve is chosen once here: every variant but Curve is quoted as a
// constant-product pool; this
// solver does not model concentrated-liquidity ticks or Balancer weights.
func dispatchOutputFunc(pool domain.LiquidityPool) outputFunc {
	quote := ammmath.AmmOutput
	if pool.Variant == domain.Curve {
		quote = ammmath.StableSwapOutput
	}
	return func(amountIn *uint256.Int, tokenIn common.Address) (*uint256.Int, bool) {
		reserveIn, reserveOut, ok := pool.Reserves(tokenIn)
		if !ok {
			return nil, false
		}
		return quote(amountIn, reserveIn, reserveOut, pool.FeeBps)
	}
}

// PoolsFor returns the indices of pools connecting tokenIn to tokenOut in
// either orientation.
func (g *Graph) PoolsFor(tokenIn, tokenOut common.Address) []int {
	return g.poolIndex[pairKey{tokenIn, tokenOut}]
}

// Pool returns the pool at idx.
func (g *Graph) Pool(idx int) domain.LiquidityPool {
	return g.pools[idx]
}

// Quote returns pool idx's output amount for a swap of amountIn from
// tokenIn, dispatched through the precomputed closure.
func (g *Graph) Quote(idx int, amountIn *uint256.Int, tokenIn common.Address) (*uint256.Int, bool) {
	return g.outputFuncs[idx](amountIn, tokenIn)
}

// Neighbors returns the tokens directly reachable from token via some pool.
func (g *Graph) Neighbors(token common.Address) []common.Address {
	return g.adjacency[token]
}

// FindPathsBFS enumerates simple token paths from start to end of length
// at most maxHops edges (maxHops+1 tokens), expanding the frontier
// breadth-first and rejecting any path that revisits a token.
func (g *Graph) FindPathsBFS(start, end common.Address, maxHops int) [][]common.Address {
	type frontierEntry struct {
		token common.Address
		path  []common.Address
	}

	var paths [][]common.Address
	queue := []frontierEntry{{token: start, path: []common.Address{start}}}

	for len(queue) > 0 {
		entry := queue[0]
		queue = queue[1:]

		if len(entry.path) > maxHops+1 {
			continue
		}
		if entry.token == end && len(entry.path) > 1 {
			paths = append(paths, entry.path)
			continue
		}
		for _, neighbor := range g.Neighbors(entry.token) {
			if containsAddress(entry.path, neighbor) {
				continue
			}
			nextPath := make([]common.Address, len(entry.path)+1)
			copy(nextPath, entry.path)
			nextPath[len(entry.path)] = neighbor
			queue = append(queue, frontierEntry{token: neighbor, path: nextPath})
		}
	}
	return paths
}

func containsAddress(path []common.Address, token common.Address) bool {
	for _, t := range path {
		if t == token {
			return true
		}
	}
	return false
}
