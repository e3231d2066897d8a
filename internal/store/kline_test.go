package store

import (
	"context"
	"testing"

	"krill/internal/market"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func c(openTime int64, close float64) market.Candle {
	return market.Candle{OpenTime: openTime, Close: close}
}

func TestMemoryKlineStorePutGet(t *testing.T) {
	s := NewMemoryKlineStore()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "BTCUSDT", "1h", []market.Candle{c(1, 100), c(2, 101)}, 10))
	got, err := s.Get(ctx, "BTCUSDT", "1h")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 101.0, got[1].Close)
}

func TestMemoryKlineStoreMergeSameOpenTime(t *testing.T) {
	s := NewMemoryKlineStore()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "BTCUSDT", "1h", []market.Candle{c(1, 100)}, 10))
	// 同一根未收线再次写入应覆盖而不是追加
	require.NoError(t, s.Put(ctx, "BTCUSDT", "1h", []market.Candle{c(1, 105), c(2, 110)}, 10))

	got, err := s.Get(ctx, "BTCUSDT", "1h")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 105.0, got[0].Close)
	assert.Equal(t, 110.0, got[1].Close)
}

func TestMemoryKlineStoreTrimsToMax(t *testing.T) {
	s := NewMemoryKlineStore()
	ctx := context.Background()

	ks := make([]market.Candle, 0, 8)
	for i := int64(1); i <= 8; i++ {
		ks = append(ks, c(i, float64(i)))
	}
	require.NoError(t, s.Put(ctx, "ETHUSDT", "5m", ks, 5))
	got, err := s.Get(ctx, "ETHUSDT", "5m")
	require.NoError(t, err)
	require.Len(t, got, 5)
	assert.Equal(t, int64(4), got[0].OpenTime, "只保留最近 max 根")
}

func TestMemoryKlineStoreValidation(t *testing.T) {
	s := NewMemoryKlineStore()
	assert.Error(t, s.Put(context.Background(), "", "1h", []market.Candle{c(1, 1)}, 10))
	got, err := s.Get(context.Background(), "NONE", "1h")
	assert.NoError(t, err)
	assert.Empty(t, got)
}
