package solver

import (
	"log/slog"
	"time"

	"github.com/cowbatch/solver/matching"
	"github.com/cowbatch/solver/pricing"
	"github.com/cowbatch/solver/routing"
)

// Config tunes every stage of the solve pipeline.
type Config struct {
	MaxGasPriceGwei    uint64
	MinProfitThreshold float64
	MaxSlippagePercent float64
	EnableCowMatching  bool
	EnableAmmRouting   bool
	EnableCrossChain   bool
	Timeout            time.Duration

	MatchingConfig matching.Config
	RoutingConfig  routing.Config
	PricingConfig  pricing.Config

	Logger *slog.Logger
}

// Option configures a Config. The apply method is unexported so a caller
// outside this package cannot forge one.
type Option interface {
	apply(*Config)
}

type funcOption func(*Config)

func (f funcOption) apply(c *Config) { f(c) }

func newOption(f func(*Config)) Option { return funcOption(f) }

// DefaultConfig returns the baseline configuration: max gas price 100
// gwei, a minimum solution score of 0.01, 0.5% max slippage, CoW matching, AMM
// routing and cross-chain all enabled, and a 5s timeout.
func DefaultConfig() Config {
	return Config{
		MaxGasPriceGwei:    100,
		MinProfitThreshold: 0.01,
		MaxSlippagePercent: 0.5,
		EnableCowMatching:  true,
		EnableAmmRouting:   true,
		EnableCrossChain:   true,
		Timeout:            5 * time.Second,
		Logger:             slog.Default(),
	}
}

// NewConfig returns DefaultConfig with opts applied in order.
func NewConfig(opts ...Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt.apply(&cfg)
	}
	return cfg
}

func WithMaxGasPriceGwei(v uint64) Option {
	return newOption(func(c *Config) { c.MaxGasPriceGwei = v })
}

func WithMinProfitThreshold(v float64) Option {
	return newOption(func(c *Config) { c.MinProfitThreshold = v })
}

func WithMaxSlippagePercent(v float64) Option {
	return newOption(func(c *Config) { c.MaxSlippagePercent = v })
}

func WithCowMatching(enabled bool) Option {
	return newOption(func(c *Config) { c.EnableCowMatching = enabled })
}

func WithAmmRouting(enabled bool) Option {
	return newOption(func(c *Config) { c.EnableAmmRouting = enabled })
}

func WithCrossChain(enabled bool) Option {
	return newOption(func(c *Config) { c.EnableCrossChain = enabled })
}

func WithTimeout(d time.Duration) Option {
	return newOption(func(c *Config) { c.Timeout = d })
}

func WithMatchingConfig(mc matching.Config) Option {
	return newOption(func(c *Config) { c.MatchingConfig = mc })
}

func WithRoutingConfig(rc routing.Config) Option {
	return newOption(func(c *Config) { c.RoutingConfig = rc })
}

func WithPricingConfig(pc pricing.Config) Option {
	return newOption(func(c *Config) { c.PricingConfig = pc })
}

func WithLogger(l *slog.Logger) Option {
	return newOption(func(c *Config) { c.Logger = l })
}
