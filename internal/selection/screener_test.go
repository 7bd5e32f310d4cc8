package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/premarket-signals/internal/contracts"
	"github.com/wonny/premarket-signals/internal/strategyconfig"
	"github.com/wonny/premarket-signals/pkg/logger"
)

func TestScreener(t *testing.T) {
	s := NewScreener(logger.Nop())
	cfg := strategyconfig.Default()

	in := []contracts.MarketSnapshot{
		{Symbol: "OK", CurrentPrice: 50, RegularVolume: 1000, GapPercent: 2.5},
		{Symbol: "PENNY", CurrentPrice: 0.5, RegularVolume: 1000, GapPercent: 5},
		{Symbol: "PRICEY", CurrentPrice: 900, RegularVolume: 1000, GapPercent: 5},
		{Symbol: "QUIET", CurrentPrice: 50, GapPercent: 5},
		{Symbol: "FLAT", CurrentPrice: 50, RegularVolume: 1000, GapPercent: 0.5},
		{Symbol: "DOWN", CurrentPrice: 50, PremarketVolume: 10, GapPercent: -1.0},
	}

	got := s.Screen(in, cfg)

	var syms []string
	for _, snap := range got {
		syms = append(syms, snap.Symbol)
	}
	assert.Equal(t, []string{"OK", "DOWN"}, syms)
}

func TestScreenerEmpty(t *testing.T) {
	got := NewScreener(logger.Nop()).Screen(nil, strategyconfig.Default())
	assert.Empty(t, got)
}
