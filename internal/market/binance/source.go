package binance

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"krill/internal/market"

	"github.com/adshao/go-binance/v2/futures"
)

const maxKlineLimit = 1500

// Source 基于 go-binance SDK（USDT 合约）实现 market.Source。
// 仅使用公共行情接口，下单不经由本 source。
type Source struct {
	client *futures.Client
}

func New(baseURL string, timeout time.Duration) *Source {
	client := futures.NewClient("", "")
	if strings.TrimSpace(baseURL) != "" {
		client.BaseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	}
	if timeout > 0 {
		client.HTTPClient.Timeout = timeout
	}
	return &Source{client: client}
}

func (s *Source) Name() string { return "binance" }

func (s *Source) FetchKlines(ctx context.Context, symbol, timeframe string, limit int) ([]market.Candle, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("symbol 不能为空")
	}
	interval := strings.ToLower(strings.TrimSpace(timeframe))
	if interval == "" {
		return nil, fmt.Errorf("timeframe 不能为空")
	}
	if limit <= 0 || limit > maxKlineLimit {
		limit = 200
	}
	kls, err := s.client.NewKlinesService().Symbol(symbol).Interval(interval).Limit(limit).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("binance klines: %w", err)
	}
	out := make([]market.Candle, 0, len(kls))
	for _, kl := range kls {
		if kl == nil {
			continue
		}
		out = append(out, market.Candle{
			OpenTime:  kl.OpenTime,
			CloseTime: kl.CloseTime,
			Open:      parseFloat(kl.Open),
			High:      parseFloat(kl.High),
			Low:       parseFloat(kl.Low),
			Close:     parseFloat(kl.Close),
			Volume:    parseFloat(kl.Volume),
		})
	}
	return dropUnclosed(out), nil
}

func (s *Source) FetchTicker(ctx context.Context, symbol string) (market.Ticker, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return market.Ticker{}, fmt.Errorf("symbol 不能为空")
	}
	stats, err := s.client.NewListPriceChangeStatsService().Symbol(symbol).Do(ctx)
	if err != nil {
		return market.Ticker{}, fmt.Errorf("binance 24h stats: %w", err)
	}
	if len(stats) == 0 || stats[0] == nil {
		return market.Ticker{}, fmt.Errorf("binance ticker 结果为空: %s", symbol)
	}
	tk := market.Ticker{
		Symbol:       symbol,
		Price:        parseFloat(stats[0].LastPrice),
		Volume24h:    parseFloat(stats[0].Volume),
		ChangePct24h: parseFloat(stats[0].PriceChangePercent),
	}
	books, err := s.client.NewListBookTickersService().Symbol(symbol).Do(ctx)
	if err == nil && len(books) > 0 && books[0] != nil {
		tk.Bid = parseFloat(books[0].BidPrice)
		tk.Ask = parseFloat(books[0].AskPrice)
		tk.BidSize = parseFloat(books[0].BidQuantity)
		tk.AskSize = parseFloat(books[0].AskQuantity)
	}
	return tk, nil
}

// dropUnclosed 去掉尾部未收盘的 K 线（Binance 最后一根是进行中的）。
func dropUnclosed(candles []market.Candle) []market.Candle {
	if len(candles) == 0 {
		return candles
	}
	last := candles[len(candles)-1]
	if last.CloseTime > time.Now().UnixMilli() {
		return candles[:len(candles)-1]
	}
	return candles
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}
