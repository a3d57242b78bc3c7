package solver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/cowbatch/solver/matching"
	"github.com/cowbatch/solver/routing"
)

func TestDefaultConfigValues(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, uint64(100), cfg.MaxGasPriceGwei)
	assert.Equal(t, 0.01, cfg.MinProfitThreshold)
	assert.Equal(t, 0.5, cfg.MaxSlippagePercent)
	assert.True(t, cfg.EnableCowMatching)
	assert.True(t, cfg.EnableAmmRouting)
	assert.True(t, cfg.EnableCrossChain)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
}

func TestNewConfigAppliesOptionsInOrder(t *testing.T) {
	cfg := NewConfig(
		WithMaxGasPriceGwei(50),
		WithMinProfitThreshold(0.05),
		WithCowMatching(false),
		WithTimeout(2*time.Second),
		WithMatchingConfig(matching.Config{MaxRingSize: 6}),
		WithRoutingConfig(routing.Config{MaxHops: 5}),
	)
	assert.Equal(t, uint64(50), cfg.MaxGasPriceGwei)
	assert.Equal(t, 0.05, cfg.MinProfitThreshold)
	assert.False(t, cfg.EnableCowMatching)
	assert.Equal(t, 2*time.Second, cfg.Timeout)
	assert.Equal(t, 6, cfg.MatchingConfig.MaxRingSize)
	assert.Equal(t, 5, cfg.RoutingConfig.MaxHops)
}

func TestWithLoggerOverridesDefault(t *testing.T) {
	cfg := NewConfig()
	assert.NotNil(t, cfg.Logger)

	cfg2 := NewConfig(WithLogger(nil))
	assert.Nil(t, cfg2.Logger)
}
