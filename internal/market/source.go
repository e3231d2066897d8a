package market

import "context"

// Source 抽象行情来源。K 线统一为旧 → 新排列。
type Source interface {
	Name() string

	// FetchKlines returns up to limit closed candles, oldest first.
	FetchKlines(ctx context.Context, symbol, timeframe string, limit int) ([]Candle, error)

	// FetchTicker returns the normalized ticker for one symbol.
	FetchTicker(ctx context.Context, symbol string) (Ticker, error)
}
