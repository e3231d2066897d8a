package bybit

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"krill/internal/market"
	"krill/internal/scheduler"

	"github.com/tidwall/gjson"
)

const (
	defaultBaseURL = "https://api.bybit.com"
	maxKlineLimit  = 1000
)

// Source 基于 Bybit v5 公共 REST（linear 合约）实现 market.Source。
type Source struct {
	baseURL  string
	category string
	client   *http.Client
}

func New(baseURL string, timeout time.Duration) *Source {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Source{
		baseURL:  strings.TrimRight(baseURL, "/"),
		category: "linear",
		client:   &http.Client{Timeout: timeout},
	}
}

func (s *Source) Name() string { return "bybit" }

// FetchKlines 拉取已收盘 K 线。Bybit 返回新 → 旧，这里统一反转为旧 → 新。
func (s *Source) FetchKlines(ctx context.Context, symbol, timeframe string, limit int) ([]market.Candle, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("symbol 不能为空")
	}
	interval, ok := IntervalCode(timeframe)
	if !ok {
		return nil, fmt.Errorf("不支持的周期: %s", timeframe)
	}
	if limit <= 0 || limit > maxKlineLimit {
		limit = 200
	}

	q := url.Values{}
	q.Set("category", s.category)
	q.Set("symbol", symbol)
	q.Set("interval", interval)
	q.Set("limit", strconv.Itoa(limit))
	body, err := s.get(ctx, "/v5/market/kline", q)
	if err != nil {
		return nil, err
	}

	rows := gjson.GetBytes(body, "result.list").Array()
	out := make([]market.Candle, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		row := rows[i].Array()
		if len(row) < 6 {
			continue
		}
		start := row[0].Int()
		c := market.Candle{
			OpenTime: start,
			Open:     row[1].Float(),
			High:     row[2].Float(),
			Low:      row[3].Float(),
			Close:    row[4].Float(),
			Volume:   row[5].Float(),
		}
		if d, ok := intervalDuration(timeframe); ok {
			c.CloseTime = start + d.Milliseconds() - 1
		}
		out = append(out, c)
	}
	// Bybit 不回传 confirm 标记，最后一根是进行中的当根 K 线，在边界统一丢弃。
	if d, ok := intervalDuration(timeframe); ok {
		out = scheduler.DropUnclosedKline(out, d)
	}
	return out, nil
}

func (s *Source) FetchTicker(ctx context.Context, symbol string) (market.Ticker, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return market.Ticker{}, fmt.Errorf("symbol 不能为空")
	}
	q := url.Values{}
	q.Set("category", s.category)
	q.Set("symbol", symbol)
	body, err := s.get(ctx, "/v5/market/tickers", q)
	if err != nil {
		return market.Ticker{}, err
	}
	row := gjson.GetBytes(body, "result.list.0")
	if !row.Exists() {
		return market.Ticker{}, fmt.Errorf("bybit ticker 结果为空: %s", symbol)
	}
	return market.Ticker{
		Symbol:       symbol,
		Price:        row.Get("lastPrice").Float(),
		Bid:          row.Get("bid1Price").Float(),
		Ask:          row.Get("ask1Price").Float(),
		BidSize:      row.Get("bid1Size").Float(),
		AskSize:      row.Get("ask1Size").Float(),
		Volume24h:    row.Get("volume24h").Float(),
		ChangePct24h: row.Get("price24hPcnt").Float() * 100,
	}, nil
}

func (s *Source) get(ctx context.Context, path string, q url.Values) ([]byte, error) {
	u := s.baseURL + path + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("bybit 返回状态码 %d", resp.StatusCode)
	}
	if code := gjson.GetBytes(body, "retCode").Int(); code != 0 {
		return nil, fmt.Errorf("bybit retCode=%d retMsg=%s", code, gjson.GetBytes(body, "retMsg").String())
	}
	return body, nil
}

// IntervalCode 将内部周期（"1m"/"1h"...）映射为 Bybit interval 参数。
func IntervalCode(timeframe string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(timeframe)) {
	case "1m":
		return "1", true
	case "5m":
		return "5", true
	case "15m":
		return "15", true
	case "30m":
		return "30", true
	case "1h":
		return "60", true
	case "4h":
		return "240", true
	case "1d":
		return "D", true
	default:
		return "", false
	}
}

func intervalDuration(timeframe string) (time.Duration, bool) {
	switch strings.ToLower(strings.TrimSpace(timeframe)) {
	case "1m":
		return time.Minute, true
	case "5m":
		return 5 * time.Minute, true
	case "15m":
		return 15 * time.Minute, true
	case "30m":
		return 30 * time.Minute, true
	case "1h":
		return time.Hour, true
	case "4h":
		return 4 * time.Hour, true
	case "1d":
		return 24 * time.Hour, true
	default:
		return 0, false
	}
}
