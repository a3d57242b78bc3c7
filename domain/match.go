package domain

import "github.com/ethereum/go-ethereum/common"

// MatchVariant is the kind of coincidence-of-wants match discovered by the
// matching engine.
type MatchVariant int

const (
	// DirectPair is a two-order match where each sells what the other buys.
	DirectPair MatchVariant = iota
	// Ring is a cyclic match of three or more orders.
	Ring
	// Batch is reserved for multi-order overlapping-token matches; the
	// matching engine does not currently produce this variant (see
	// solver/mod.rs's three-way enum, kept for settlement wire-shape parity).
	Batch
)

// Match is a candidate coincidence-of-wants match between two or more
// orders, scored for later greedy selection.
type Match struct {
	Orders           []common.Hash
	Variant          MatchVariant
	QualityScore     float64
	EstimatedSurplus float64
}
