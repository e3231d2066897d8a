package signal

import (
	"math"
	"time"

	"krill/internal/indicator"
	"krill/internal/market"
)

// Assemble 将单个 symbol/timeframe 的指标快照转为方向性候选。
// 趋势 + 动能 + 放量三重确认缺一即返回 (nil, false)；
// 加权得分低于 MinScore 也不产生候选。纯函数，便于回放测试。
func Assemble(snap indicator.Snapshot, tick market.Ticker, pol AssemblerPolicy, now time.Time) (*Candidate, bool) {
	price := tick.Price
	if price <= 0 || snap.EMA21 <= 0 || snap.EMA50 <= 0 || snap.SMA200 <= 0 {
		return nil, false
	}

	var dir Direction
	switch {
	case snap.EMA21 > snap.EMA50 && snap.EMA50 > snap.SMA200 && price > snap.EMA21:
		dir = DirectionLong
	case snap.EMA21 < snap.EMA50 && snap.EMA50 < snap.SMA200 && price < snap.EMA21:
		dir = DirectionShort
	default:
		return nil, false
	}

	// 动能过滤：做多要求 RSI 偏强但未超买，做空镜像。
	switch dir {
	case DirectionLong:
		if snap.RSI14 <= 45 || snap.RSI14 >= 75 {
			return nil, false
		}
	case DirectionShort:
		if snap.RSI14 <= 25 || snap.RSI14 >= 55 {
			return nil, false
		}
	}

	if snap.VolumeRatio <= pol.MinVolumeRatio {
		return nil, false
	}

	atrPct := 0.0
	if snap.ATR14 > 0 {
		atrPct = snap.ATR14 / price
	}
	pullbackDist := math.Abs(price-snap.EMA21) / snap.EMA21

	score := pol.TrendPoints
	rsiDist := snap.RSI14 - 50
	if dir == DirectionShort {
		rsiDist = 50 - snap.RSI14
	}
	if rsiDist > 0 && pol.RSIFullDistance > 0 {
		score += Clamp01(rsiDist/pol.RSIFullDistance) * pol.RSIMaxPoints
	}
	if pol.VolumeFullEdge > 0 {
		score += Clamp01((snap.VolumeRatio-1)/pol.VolumeFullEdge) * pol.VolumeMaxPoints
	}
	if pullbackDist <= pol.PullbackBandPct {
		score += pol.PullbackPoints
	}
	if atrPct > pol.ATRMinPct && atrPct < pol.ATRMaxPct {
		score += pol.ATRPoints
	}
	score *= pol.Weight(snap.Timeframe)
	if score > 100 {
		score = 100
	}
	if score < pol.MinScore {
		return nil, false
	}

	stopDist := snap.ATR14 * pol.StopATRMult
	targetDist := snap.ATR14 * pol.TargetATRMult
	if stopDist <= 0 || targetDist <= 0 {
		return nil, false
	}
	stop := price - stopDist
	target := price + targetDist
	if dir == DirectionShort {
		stop = price + stopDist
		target = price - targetDist
	}

	return &Candidate{
		Symbol:             snap.Symbol,
		Timeframe:          snap.Timeframe,
		Direction:          dir,
		EntryPrice:         price,
		StopLoss:           stop,
		TakeProfit:         target,
		RawScore:           score,
		AtrPct:             atrPct,
		TrendFit:           Clamp01(snap.ADX / 40),
		PullbackFit:        Clamp01(1 - pullbackDist/pol.PullbackBandPct),
		SpreadBps:          tick.SpreadBps(),
		OrderbookDepthUsdt: tick.TopDepthUsdt(),
		RiskReward:         targetDist / stopDist,
		CreatedAt:          now,
	}, true
}
