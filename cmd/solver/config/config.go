// Package config loads the solver CLI's YAML configuration file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cowbatch/solver/matching"
	"github.com/cowbatch/solver/pricing"
	"github.com/cowbatch/solver/routing"
	"github.com/cowbatch/solver/solver"
)

// File is the on-disk shape of the solver's configuration file.
type File struct {
	MaxGasPriceGwei    uint64  `yaml:"max_gas_price_gwei"`
	MinProfitThreshold float64 `yaml:"min_profit_threshold"`
	MaxSlippagePercent float64 `yaml:"max_slippage_percent"`
	EnableCowMatching  bool    `yaml:"enable_cow_matching"`
	EnableAmmRouting   bool    `yaml:"enable_amm_routing"`
	EnableCrossChain   bool    `yaml:"enable_cross_chain"`
	TimeoutMs          uint64  `yaml:"timeout_ms"`

	Matching struct {
		MaxRingSize     int     `yaml:"max_ring_size"`
		MinQualityScore float64 `yaml:"min_quality_score"`
	} `yaml:"matching"`

	Routing struct {
		MaxHops        int     `yaml:"max_hops"`
		MaxPriceImpact float64 `yaml:"max_price_impact"`
	} `yaml:"routing"`

	Pricing struct {
		Strategy      string  `yaml:"strategy"`
		MinConfidence float64 `yaml:"min_confidence"`
	} `yaml:"pricing"`

	MetricsAddr string `yaml:"metrics_addr"`
}

// LoadConfig reads and parses the YAML configuration file at path.
func LoadConfig(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %q: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing config file %q: %w", path, err)
	}
	return &f, nil
}

// SolverConfig translates the on-disk File into solver.Config options.
func (f *File) SolverConfig() solver.Config {
	opts := []solver.Option{
		solver.WithMaxGasPriceGwei(f.MaxGasPriceGwei),
		solver.WithMinProfitThreshold(f.MinProfitThreshold),
		solver.WithMaxSlippagePercent(f.MaxSlippagePercent),
		solver.WithCowMatching(f.EnableCowMatching),
		solver.WithAmmRouting(f.EnableAmmRouting),
		solver.WithCrossChain(f.EnableCrossChain),
		solver.WithTimeout(time.Duration(f.TimeoutMs) * time.Millisecond),
		solver.WithMatchingConfig(matching.Config{
			MaxRingSize:     f.Matching.MaxRingSize,
			MinQualityScore: f.Matching.MinQualityScore,
		}),
		solver.WithRoutingConfig(routing.Config{
			MaxHops:        f.Routing.MaxHops,
			MaxPriceImpact: f.Routing.MaxPriceImpact,
		}),
		solver.WithPricingConfig(pricing.Config{
			Strategy:      pricingStrategyFromString(f.Pricing.Strategy),
			MinConfidence: f.Pricing.MinConfidence,
		}),
	}
	return solver.NewConfig(opts...)
}

func pricingStrategyFromString(s string) pricing.Strategy {
	switch s {
	case "max_surplus":
		return pricing.MaxSurplus
	case "market_price":
		return pricing.MarketPrice
	case "volume_weighted":
		return pricing.VolumeWeighted
	default:
		return pricing.MidPoint
	}
}
