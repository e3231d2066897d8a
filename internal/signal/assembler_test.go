package signal

import (
	"testing"
	"time"

	"krill/internal/indicator"
	"krill/internal/market"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trendSnapshot() indicator.Snapshot {
	return indicator.Snapshot{
		Symbol:      "BTCUSDT",
		Timeframe:   "1h",
		RSI14:       60,
		EMA21:       105,
		EMA50:       100,
		SMA200:      90,
		ATR14:       2.2, // atrPct ≈ 2.1%
		ADX:         30,
		VolumeRatio: 1.5,
	}
}

func TestAssembleLongScenario(t *testing.T) {
	now := time.Now()
	tick := market.Ticker{Symbol: "BTCUSDT", Price: 106, Bid: 105.99, Ask: 106.01}
	c, ok := Assemble(trendSnapshot(), tick, DefaultAssemblerPolicy(), now)
	require.True(t, ok)
	require.NotNil(t, c)

	assert.Equal(t, DirectionLong, c.Direction)
	assert.GreaterOrEqual(t, c.RawScore, 75.0)
	assert.LessOrEqual(t, c.RawScore, 100.0)
	assert.Equal(t, 106.0, c.EntryPrice)
	// 止损 2×ATR、止盈 3×ATR，方向正确
	assert.InDelta(t, 106-2*2.2, c.StopLoss, 1e-9)
	assert.InDelta(t, 106+3*2.2, c.TakeProfit, 1e-9)
	// riskReward 按距离计算而非写死
	assert.InDelta(t, 1.5, c.RiskReward, 1e-9)
	assert.Equal(t, now, c.CreatedAt)
}

func TestAssembleShortMirror(t *testing.T) {
	snap := indicator.Snapshot{
		Symbol: "ETHUSDT", Timeframe: "1h",
		RSI14: 38, EMA21: 95, EMA50: 100, SMA200: 110,
		ATR14: 2, ADX: 28, VolumeRatio: 1.6,
	}
	tick := market.Ticker{Price: 94}
	c, ok := Assemble(snap, tick, DefaultAssemblerPolicy(), time.Now())
	require.True(t, ok)
	assert.Equal(t, DirectionShort, c.Direction)
	assert.Greater(t, c.StopLoss, c.EntryPrice)
	assert.Less(t, c.TakeProfit, c.EntryPrice)
}

func TestAssembleRejections(t *testing.T) {
	pol := DefaultAssemblerPolicy()
	base := trendSnapshot()
	tick := market.Ticker{Price: 106}

	t.Run("缺少放量确认", func(t *testing.T) {
		snap := base
		snap.VolumeRatio = 1.1
		_, ok := Assemble(snap, tick, pol, time.Now())
		assert.False(t, ok)
	})
	t.Run("RSI 超买", func(t *testing.T) {
		snap := base
		snap.RSI14 = 80
		_, ok := Assemble(snap, tick, pol, time.Now())
		assert.False(t, ok)
	})
	t.Run("趋势未对齐", func(t *testing.T) {
		snap := base
		snap.EMA50 = 120
		_, ok := Assemble(snap, tick, pol, time.Now())
		assert.False(t, ok)
	})
	t.Run("价格在 EMA21 之下不做多", func(t *testing.T) {
		_, ok := Assemble(base, market.Ticker{Price: 104}, pol, time.Now())
		assert.False(t, ok)
	})
	t.Run("低权重周期得分不足", func(t *testing.T) {
		snap := base
		snap.Timeframe = "5m"
		_, ok := Assemble(snap, tick, pol, time.Now())
		assert.False(t, ok, "1.0 权重下 55 分达不到 75 门槛")
	})
}

func TestAssembleMicrostructureFields(t *testing.T) {
	tick := market.Ticker{
		Price: 106,
		Bid:   105.9, Ask: 106.1,
		BidSize: 10, AskSize: 10,
	}
	c, ok := Assemble(trendSnapshot(), tick, DefaultAssemblerPolicy(), time.Now())
	require.True(t, ok)
	assert.Greater(t, c.SpreadBps, 0.0)
	assert.Greater(t, c.OrderbookDepthUsdt, 0.0)
	assert.GreaterOrEqual(t, c.TrendFit, 0.0)
	assert.LessOrEqual(t, c.TrendFit, 1.0)
	assert.GreaterOrEqual(t, c.PullbackFit, 0.0)
	assert.LessOrEqual(t, c.PullbackFit, 1.0)
}
