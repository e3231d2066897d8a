// Package gate 对候选信号先做硬性过滤，再计算执行现实性评分与评级。
// 两阶段相互独立：第一阶段不过，第二阶段不执行。
package gate

import (
	"fmt"
	"strings"

	"krill/internal/signal"
)

// Thresholds 是第一阶段硬门控的可配置阈值。
type Thresholds struct {
	BannedTimeframes []string `mapstructure:"banned_timeframes"`
	MaxSpreadBps     float64  `mapstructure:"max_spread_bps"`
	MinDepthUsdt     float64  `mapstructure:"min_depth_usdt"`
	MinRiskReward    float64  `mapstructure:"min_risk_reward"`
	MinSymbolWinRate float64  `mapstructure:"min_symbol_win_rate"`
	ExcludedSymbols  []string `mapstructure:"excluded_symbols"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		BannedTimeframes: []string{"1m"},
		MaxSpreadBps:     15,
		MinDepthUsdt:     10000,
		MinRiskReward:    1.2,
		MinSymbolWinRate: 0.35,
	}
}

// WinRateLookup 返回 symbol 的历史胜率。无历史时应返回 1.0（不约束）。
type WinRateLookup func(symbol string) float64

// Check 执行第一阶段硬门控。所有条件必须同时满足；
// 未通过时 reason 说明第一个失败项（门控拒绝是预期路径，不是错误）。
func Check(c *signal.Candidate, th Thresholds, winRate WinRateLookup) (ok bool, reason string) {
	for _, tf := range th.BannedTimeframes {
		if strings.EqualFold(strings.TrimSpace(tf), c.Timeframe) {
			return false, fmt.Sprintf("timeframe %s banned", c.Timeframe)
		}
	}
	for _, sym := range th.ExcludedSymbols {
		if strings.EqualFold(strings.TrimSpace(sym), c.Symbol) {
			return false, fmt.Sprintf("symbol %s excluded", c.Symbol)
		}
	}
	if th.MaxSpreadBps > 0 && c.SpreadBps > th.MaxSpreadBps {
		return false, fmt.Sprintf("spread %.2fbps > max %.2fbps", c.SpreadBps, th.MaxSpreadBps)
	}
	// 深度为 0 视为未知，跳过该项而不是判负。
	if c.OrderbookDepthUsdt > 0 && c.OrderbookDepthUsdt < th.MinDepthUsdt {
		return false, fmt.Sprintf("depth %.0f < min %.0f", c.OrderbookDepthUsdt, th.MinDepthUsdt)
	}
	if c.RiskReward < th.MinRiskReward {
		return false, fmt.Sprintf("risk/reward %.2f < min %.2f", c.RiskReward, th.MinRiskReward)
	}
	if winRate != nil {
		if wr := winRate(c.Symbol); wr < th.MinSymbolWinRate {
			return false, fmt.Sprintf("win rate %.2f < min %.2f", wr, th.MinSymbolWinRate)
		}
	}
	return true, ""
}
