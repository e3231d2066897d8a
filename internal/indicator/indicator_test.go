package indicator

import (
	"testing"

	"krill/internal/market"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSMA(t *testing.T) {
	got := SMA([]float64{1, 2, 3, 4, 5}, 3)
	assert.Equal(t, []float64{2, 3, 4}, got)

	assert.Nil(t, SMA([]float64{1, 2}, 3), "输入不足返回空序列")
	assert.Nil(t, SMA(nil, 3))
	assert.Nil(t, SMA([]float64{1, 2, 3}, 0))
}

func TestEMASeededFromSMA(t *testing.T) {
	// seed = SMA(1,2,3) = 2; k = 0.5; 下一值 = 4*0.5 + 2*0.5 = 3
	got := EMA([]float64{1, 2, 3, 4}, 3)
	require.Len(t, got, 2)
	assert.InDelta(t, 2.0, got[0], 1e-12)
	assert.InDelta(t, 3.0, got[1], 1e-12)
}

func TestRSI(t *testing.T) {
	t.Run("全涨时 RSI=100", func(t *testing.T) {
		got := RSI([]float64{1, 2, 3, 4, 5}, 2)
		require.Len(t, got, 3)
		for _, v := range got {
			assert.Equal(t, 100.0, v)
		}
	})
	t.Run("涨跌均衡时 RSI=50", func(t *testing.T) {
		got := RSI([]float64{10, 11, 10, 11}, 2)
		require.Len(t, got, 2)
		assert.InDelta(t, 50.0, got[0], 1e-12)
		assert.InDelta(t, 50.0, got[1], 1e-12)
	})
	t.Run("输入不足", func(t *testing.T) {
		assert.Nil(t, RSI([]float64{1, 2}, 2))
	})
}

func TestATR(t *testing.T) {
	candles := []market.Candle{
		{High: 10, Low: 8, Close: 9},
		{High: 11, Low: 9, Close: 10},
		{High: 12, Low: 10, Close: 11},
	}
	got := ATR(candles, 2)
	require.Len(t, got, 2)
	assert.InDelta(t, 2.0, got[0], 1e-12)
	assert.InDelta(t, 2.0, got[1], 1e-12)
}

func TestTrueRangeUsesPrevClose(t *testing.T) {
	candles := []market.Candle{
		{High: 10, Low: 9, Close: 9.5},
		// 跳空：high-prevClose = 3 大于当根振幅 1
		{High: 12.5, Low: 11.5, Close: 12},
	}
	tr := TrueRange(candles)
	require.Len(t, tr, 2)
	assert.InDelta(t, 1.0, tr[0], 1e-12)
	assert.InDelta(t, 3.0, tr[1], 1e-12)
}

func TestStoch(t *testing.T) {
	t.Run("窗口无波动时 K=50", func(t *testing.T) {
		candles := []market.Candle{
			{High: 5, Low: 5, Close: 5},
			{High: 5, Low: 5, Close: 5},
		}
		k, _ := Stoch(candles, 2, 1)
		require.Len(t, k, 1)
		assert.Equal(t, 50.0, k[0])
	})
	t.Run("收于最高时 K=100", func(t *testing.T) {
		candles := []market.Candle{
			{High: 2, Low: 0, Close: 1},
			{High: 2, Low: 0, Close: 2},
		}
		k, d := Stoch(candles, 2, 1)
		require.Len(t, k, 1)
		assert.Equal(t, 100.0, k[0])
		require.Len(t, d, 1)
		assert.Equal(t, 100.0, d[0])
	})
}

func TestDMIUptrend(t *testing.T) {
	// 稳定上行：+DI 应大于 -DI，完整序列且 0<=ADX<=100
	candles := make([]market.Candle, 40)
	for i := range candles {
		base := float64(100 + i*2)
		candles[i] = market.Candle{High: base + 1.5, Low: base - 1.5, Close: base + 1}
	}
	plus, minus, adx := DMI(candles, 13)
	require.NotEmpty(t, plus)
	require.NotEmpty(t, minus)
	require.NotEmpty(t, adx)
	lastPlus := plus[len(plus)-1]
	lastMinus := minus[len(minus)-1]
	assert.Greater(t, lastPlus, lastMinus)
	for _, v := range adx {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 100.0)
	}
}

func TestVolumeRatio(t *testing.T) {
	got := VolumeRatio([]float64{1, 1, 1, 2}, 2)
	require.Len(t, got, 3)
	assert.InDelta(t, 1.0, got[0], 1e-12)
	assert.InDelta(t, 1.0, got[1], 1e-12)
	assert.InDelta(t, 2.0/1.5, got[2], 1e-12)
}

func TestComputeInsufficientHistory(t *testing.T) {
	candles := make([]market.Candle, 50)
	for i := range candles {
		candles[i] = market.Candle{High: 2, Low: 1, Close: 1.5, Volume: 10}
	}
	_, ok := Compute("BTCUSDT", "1h", candles, market.Ticker{})
	assert.False(t, ok, "历史不足应返回 ok=false 而非报错")
}

func TestComputeDeterministic(t *testing.T) {
	candles := make([]market.Candle, MinCandles()+20)
	for i := range candles {
		base := 100 + float64(i)*0.3
		wiggle := float64(i%7) * 0.4
		candles[i] = market.Candle{
			Open:   base,
			High:   base + 1 + wiggle,
			Low:    base - 1 - wiggle,
			Close:  base + 0.5,
			Volume: 100 + float64(i%11)*3,
		}
	}
	tk := market.Ticker{ChangePct24h: 1.2}
	a, okA := Compute("ETHUSDT", "1h", candles, tk)
	b, okB := Compute("ETHUSDT", "1h", candles, tk)
	require.True(t, okA)
	require.True(t, okB)
	assert.Equal(t, a, b, "同一窗口重算结果必须逐位一致")
	assert.Equal(t, 1.2, a.ChangePct24h)
	assert.Positive(t, a.ATR14)
	assert.Positive(t, a.EMA21)
}
