package indicator

import (
	"math"

	"krill/internal/market"

	"github.com/markcheno/go-talib"
)

// 快照所需的固定参数（与信号规则绑定，不开放配置）。
const (
	rsiPeriod   = 14
	emaFast     = 21
	emaMid      = 50
	smaSlow     = 200
	atrPeriod   = 14
	stochK      = 14
	stochD      = 3
	dmiPeriod   = 13
	volumeSMA   = 20
	minSnapshot = smaSlow + 1
)

// Snapshot 是单个 symbol+timeframe 在当前收盘时刻的指标切面。
// 每轮由尾部 K 线窗口重算，不保留历史。
type Snapshot struct {
	Symbol    string
	Timeframe string

	RSI14   float64
	EMA21   float64
	EMA50   float64
	SMA200  float64
	ATR14   float64
	ADX     float64
	PlusDI  float64
	MinusDI float64
	StochK  float64
	StochD  float64

	Volume       float64
	VolumeRatio  float64
	ChangePct24h float64

	// MACD 仅用于通知上下文，不参与门控（talib 补充指标）。
	MACD     float64
	MACDHist float64
}

// MinCandles 返回构建完整快照所需的最小 K 线数。
func MinCandles() int { return minSnapshot }

// Compute 从尾部 K 线窗口构建快照。任何一项当前值不可得时返回 false，
// 调用方应跳过该 symbol 本轮信号（数据不足不是错误）。
func Compute(symbol, timeframe string, candles []market.Candle, ticker market.Ticker) (Snapshot, bool) {
	if len(candles) < minSnapshot {
		return Snapshot{}, false
	}
	closes := market.Closes(candles)
	volumes := market.Volumes(candles)

	snap := Snapshot{
		Symbol:       symbol,
		Timeframe:    timeframe,
		ChangePct24h: ticker.ChangePct24h,
	}

	var ok bool
	if snap.RSI14, ok = Last(RSI(closes, rsiPeriod)); !ok {
		return Snapshot{}, false
	}
	if snap.EMA21, ok = Last(EMA(closes, emaFast)); !ok {
		return Snapshot{}, false
	}
	if snap.EMA50, ok = Last(EMA(closes, emaMid)); !ok {
		return Snapshot{}, false
	}
	if snap.SMA200, ok = Last(SMA(closes, smaSlow)); !ok {
		return Snapshot{}, false
	}
	if snap.ATR14, ok = Last(ATR(candles, atrPeriod)); !ok {
		return Snapshot{}, false
	}
	k, d := Stoch(candles, stochK, stochD)
	if snap.StochK, ok = Last(k); !ok {
		return Snapshot{}, false
	}
	if snap.StochD, ok = Last(d); !ok {
		return Snapshot{}, false
	}
	plus, minus, adx := DMI(candles, dmiPeriod)
	if snap.PlusDI, ok = Last(plus); !ok {
		return Snapshot{}, false
	}
	if snap.MinusDI, ok = Last(minus); !ok {
		return Snapshot{}, false
	}
	if snap.ADX, ok = Last(adx); !ok {
		return Snapshot{}, false
	}
	if snap.VolumeRatio, ok = Last(VolumeRatio(volumes, volumeSMA)); !ok {
		return Snapshot{}, false
	}
	snap.Volume = volumes[len(volumes)-1]

	macd, _, hist := talib.Macd(closes, 12, 26, 9)
	snap.MACD = lastFinite(macd)
	snap.MACDHist = lastFinite(hist)
	return snap, true
}

func lastFinite(series []float64) float64 {
	for i := len(series) - 1; i >= 0; i-- {
		if !math.IsNaN(series[i]) && !math.IsInf(series[i], 0) {
			return series[i]
		}
	}
	return 0
}
