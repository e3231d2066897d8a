package indicator

import (
	"math"

	"krill/internal/market"
)

// 本包为纯函数指标计算：输入为按时间排序（旧 → 新）的序列，
// 输出对齐到输入尾部（前 period-1 个点被丢弃，或按 Wilder 方式用首窗均值播种）。
// 输入长度不足时返回空/短序列，调用方据此跳过该 symbol 本轮信号。

// SMA 简单移动平均，每个有效窗口输出一个值。
func SMA(values []float64, period int) []float64 {
	if period <= 0 || len(values) < period {
		return nil
	}
	out := make([]float64, 0, len(values)-period+1)
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			out = append(out, sum/float64(period))
		}
	}
	return out
}

// EMA 指数移动平均。首值为前 period 个点的 SMA，之后按
// ema[i] = value[i]*k + ema[i-1]*(1-k)，k = 2/(period+1) 递推。
func EMA(values []float64, period int) []float64 {
	if period <= 0 || len(values) < period {
		return nil
	}
	out := make([]float64, 0, len(values)-period+1)
	seed := 0.0
	for i := 0; i < period; i++ {
		seed += values[i]
	}
	seed /= float64(period)
	out = append(out, seed)
	k := 2.0 / float64(period+1)
	prev := seed
	for i := period; i < len(values); i++ {
		prev = values[i]*k + prev*(1-k)
		out = append(out, prev)
	}
	return out
}

// RSI 相对强弱指数：对每个尾部窗口取 period 个涨跌幅的简单平均。
// avgLoss 为 0 时 RSI=100。
func RSI(values []float64, period int) []float64 {
	if period <= 0 || len(values) <= period {
		return nil
	}
	changes := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		changes[i-1] = values[i] - values[i-1]
	}
	out := make([]float64, 0, len(changes)-period+1)
	for i := period - 1; i < len(changes); i++ {
		gain, loss := 0.0, 0.0
		for j := i - period + 1; j <= i; j++ {
			if changes[j] > 0 {
				gain += changes[j]
			} else {
				loss -= changes[j]
			}
		}
		if loss == 0 {
			out = append(out, 100)
			continue
		}
		avgGain := gain / float64(period)
		avgLoss := loss / float64(period)
		out = append(out, 100-100/(1+avgGain/avgLoss))
	}
	return out
}

// TrueRange 序列：max(high-low, |high-prevClose|, |low-prevClose|)。
// 首根没有 prevClose，取 high-low。
func TrueRange(candles []market.Candle) []float64 {
	if len(candles) == 0 {
		return nil
	}
	out := make([]float64, len(candles))
	out[0] = candles[0].High - candles[0].Low
	for i := 1; i < len(candles); i++ {
		hl := candles[i].High - candles[i].Low
		hc := math.Abs(candles[i].High - candles[i-1].Close)
		lc := math.Abs(candles[i].Low - candles[i-1].Close)
		out[i] = math.Max(hl, math.Max(hc, lc))
	}
	return out
}

// ATR 平均真实波幅 = SMA(TrueRange, period)。
func ATR(candles []market.Candle, period int) []float64 {
	return SMA(TrueRange(candles), period)
}

// Stoch 随机指标。%K = (close-lowestLow)/(highestHigh-lowestLow)*100，
// %D = SMA(%K, dPeriod)。窗口内最高价等于最低价时 %K 取 50（中性）。
func Stoch(candles []market.Candle, kPeriod, dPeriod int) (k, d []float64) {
	if kPeriod <= 0 || dPeriod <= 0 || len(candles) < kPeriod {
		return nil, nil
	}
	k = make([]float64, 0, len(candles)-kPeriod+1)
	for i := kPeriod - 1; i < len(candles); i++ {
		hh := candles[i-kPeriod+1].High
		ll := candles[i-kPeriod+1].Low
		for j := i - kPeriod + 2; j <= i; j++ {
			hh = math.Max(hh, candles[j].High)
			ll = math.Min(ll, candles[j].Low)
		}
		if hh == ll {
			k = append(k, 50)
			continue
		}
		k = append(k, (candles[i].Close-ll)/(hh-ll)*100)
	}
	return k, SMA(k, dPeriod)
}

// DMI 计算 +DI/-DI 与 ADX（Wilder 平滑：首值为前 period 个值的简单平均，
// 之后 smoothed = (prev*(period-1)+new)/period）。
func DMI(candles []market.Candle, period int) (plusDI, minusDI, adx []float64) {
	if period <= 0 || len(candles) <= period {
		return nil, nil, nil
	}
	n := len(candles) - 1
	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	tr := make([]float64, n)
	for i := 1; i < len(candles); i++ {
		up := candles[i].High - candles[i-1].High
		down := candles[i-1].Low - candles[i].Low
		if up > down && up > 0 {
			plusDM[i-1] = up
		}
		if down > up && down > 0 {
			minusDM[i-1] = down
		}
		hl := candles[i].High - candles[i].Low
		hc := math.Abs(candles[i].High - candles[i-1].Close)
		lc := math.Abs(candles[i].Low - candles[i-1].Close)
		tr[i-1] = math.Max(hl, math.Max(hc, lc))
	}

	smPlus := wilderSmooth(plusDM, period)
	smMinus := wilderSmooth(minusDM, period)
	smTR := wilderSmooth(tr, period)
	m := len(smTR)
	plusDI = make([]float64, m)
	minusDI = make([]float64, m)
	dx := make([]float64, m)
	for i := 0; i < m; i++ {
		if smTR[i] > 0 {
			plusDI[i] = smPlus[i] / smTR[i] * 100
			minusDI[i] = smMinus[i] / smTR[i] * 100
		}
		if sum := plusDI[i] + minusDI[i]; sum > 0 {
			dx[i] = math.Abs(plusDI[i]-minusDI[i]) / sum * 100
		}
	}
	adx = wilderSmooth(dx, period)
	return plusDI, minusDI, adx
}

// VolumeRatio 当前量 / SMA(量, period) 的序列。
func VolumeRatio(volumes []float64, period int) []float64 {
	sma := SMA(volumes, period)
	if len(sma) == 0 {
		return nil
	}
	out := make([]float64, len(sma))
	for i := range sma {
		v := volumes[period-1+i]
		if sma[i] > 0 {
			out[i] = v / sma[i]
		}
	}
	return out
}

func wilderSmooth(values []float64, period int) []float64 {
	if period <= 0 || len(values) < period {
		return nil
	}
	out := make([]float64, 0, len(values)-period+1)
	seed := 0.0
	for i := 0; i < period; i++ {
		seed += values[i]
	}
	seed /= float64(period)
	out = append(out, seed)
	prev := seed
	for i := period; i < len(values); i++ {
		prev = (prev*float64(period-1) + values[i]) / float64(period)
		out = append(out, prev)
	}
	return out
}

// Last 返回序列最新值；序列为空时第二返回值为 false。
func Last(series []float64) (float64, bool) {
	if len(series) == 0 {
		return 0, false
	}
	return series[len(series)-1], true
}
