package scheduler

import (
	"testing"
	"time"

	"krill/internal/market"

	"github.com/stretchr/testify/assert"
)

func TestParseIntervalDuration(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
		ok   bool
	}{
		{"1m", time.Minute, true},
		{"15m", 15 * time.Minute, true},
		{"1h", time.Hour, true},
		{"4h", 4 * time.Hour, true},
		{"1d", 24 * time.Hour, true},
		{"1w", 7 * 24 * time.Hour, true},
		{"", 0, false},
		{"h", 0, false},
		{"0m", 0, false},
		{"-1h", 0, false},
		{"1x", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseIntervalDuration(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestDropUnclosedKline(t *testing.T) {
	interval := time.Hour
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	closed := market.Candle{OpenTime: base.Add(-time.Hour).UnixMilli()}
	open := market.Candle{OpenTime: base.UnixMilli()}
	ks := []market.Candle{closed, open}

	t.Run("进行中的最后一根被裁掉", func(t *testing.T) {
		now := base.Add(30 * time.Minute)
		got := dropUnclosedKlineAt(ks, interval, now, 0)
		assert.Len(t, got, 1)
		assert.Equal(t, closed.OpenTime, got[0].OpenTime)
	})
	t.Run("收盘后保留", func(t *testing.T) {
		now := base.Add(interval).Add(time.Second)
		got := dropUnclosedKlineAt(ks, interval, now, 0)
		assert.Len(t, got, 2)
	})
	t.Run("宽限期内仍视为未收盘", func(t *testing.T) {
		now := base.Add(interval).Add(5 * time.Second)
		got := dropUnclosedKlineAt(ks, interval, now, 10*time.Second)
		assert.Len(t, got, 1)
	})
	t.Run("空输入原样返回", func(t *testing.T) {
		assert.Empty(t, dropUnclosedKlineAt(nil, interval, base, 0))
	})
}
