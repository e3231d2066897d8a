package bybit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func liveConfig(baseURL string) Config {
	return Config{
		BaseURL:    baseURL,
		APIKey:     "krill-test-key",
		APISecret:  "krill-test-secret",
		RecvWindow: 5000,
		MaxAttempts: 3,
		Backoff:    time.Millisecond,
	}
}

func tickerHandler(price string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"retCode":0,"retMsg":"OK","result":{"list":[{"symbol":"BTCUSDT","lastPrice":"` + price + `"}]}}`))
	}
}

func TestPlaceOrderInvalidSignatureNoRetry(t *testing.T) {
	var orderCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/v5/market/tickers", tickerHandler("25000"))
	mux.HandleFunc("/v5/order/create", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&orderCalls, 1)
		assert.NotEmpty(t, r.Header.Get("X-BAPI-SIGN"))
		assert.Equal(t, "2", r.Header.Get("X-BAPI-SIGN-TYPE"))
		w.Write([]byte(`{"retCode":10004,"retMsg":"error sign!","result":{}}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(liveConfig(srv.URL))
	order, err := c.PlaceOrder(context.Background(), "BTCUSDT", SideBuy, 1000, "Market")
	require.NoError(t, err, "应用级拒绝不是传输错误")
	require.NotNil(t, order)
	assert.Equal(t, StatusRejected, order.Status)
	assert.Equal(t, CategoryInvalidSignature, order.Category)
	assert.Equal(t, int32(1), atomic.LoadInt32(&orderCalls), "应用级拒绝不得重试")
	require.Len(t, order.Attempts, 1)
	assert.Equal(t, int64(10004), order.Attempts[0].RetCode)
}

func TestPlaceOrderNetworkErrorRetries(t *testing.T) {
	var orderCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/v5/market/tickers", tickerHandler("100"))
	mux.HandleFunc("/v5/order/create", func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&orderCalls, 1)
		if n < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"retCode":0,"retMsg":"OK","result":{"orderId":"abc-123"}}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(liveConfig(srv.URL))
	order, err := c.PlaceOrder(context.Background(), "BTCUSDT", SideSell, 500, "Market")
	require.NoError(t, err)
	assert.Equal(t, StatusFilled, order.Status)
	assert.Equal(t, "abc-123", order.ExchangeOrderID)
	assert.Equal(t, int32(3), atomic.LoadInt32(&orderCalls))
	// 每次尝试都有记录：两次 ERROR + 一次 FILLED
	require.Len(t, order.Attempts, 3)
	assert.Equal(t, StatusError, order.Attempts[0].Status)
	assert.Equal(t, StatusError, order.Attempts[1].Status)
	assert.Equal(t, StatusFilled, order.Attempts[2].Status)
}

func TestPlaceOrderQuantityFromNotional(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v5/market/tickers", tickerHandler("25000"))
	var gotBody string
	mux.HandleFunc("/v5/order/create", func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, r.ContentLength)
		r.Body.Read(buf)
		gotBody = string(buf)
		w.Write([]byte(`{"retCode":0,"retMsg":"OK","result":{"orderId":"x"}}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(liveConfig(srv.URL))
	order, err := c.PlaceOrder(context.Background(), "BTCUSDT", SideBuy, 1000, "Market")
	require.NoError(t, err)
	// 1000 / 25000 = 0.04
	assert.Equal(t, "0.04", order.Quantity.String())
	assert.True(t, strings.Contains(gotBody, `"qty":"0.04"`), gotBody)
}

func TestPlaceOrderUnsupportedSymbol(t *testing.T) {
	c := NewClient(liveConfig("http://127.0.0.1:0"))
	_, err := c.PlaceOrder(context.Background(), "BTCEUR", SideBuy, 100, "Market")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedSymbol)
}

func TestPlaceOrderThrottled(t *testing.T) {
	cfg := liveConfig("http://127.0.0.1:0")
	cfg.RateLimit = 1
	cfg.RateWindow = time.Minute
	c := NewClient(cfg)
	// 第一次调用吃掉配额（GetPrice 也计入窗口）
	assert.True(t, c.limiter.Allow())
	_, err := c.PlaceOrder(context.Background(), "BTCUSDT", SideBuy, 100, "Market")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrThrottled)
}

func TestPaperModeShortCircuits(t *testing.T) {
	c := NewClient(Config{Paper: true})
	require.True(t, c.Paper())

	order, err := c.PlaceOrder(context.Background(), "BTCUSDT", SideBuy, 250, "Market")
	require.NoError(t, err)
	assert.Equal(t, StatusFilled, order.Status)
	assert.True(t, order.Paper)
	assert.True(t, strings.HasPrefix(order.ExchangeOrderID, "paper-"))
	assert.Positive(t, order.Price)
	assert.True(t, order.Quantity.IsPositive())

	price, err := c.GetPrice(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, order.Price, price, "paper 价格按 symbol 稳定")

	assert.NoError(t, c.EnsureLeverage(context.Background(), "BTCUSDT", 5))
}

func TestMissingCredentialsForcePaper(t *testing.T) {
	c := NewClient(Config{Paper: false})
	assert.True(t, c.Paper(), "缺少凭证时必须回落纸面模式")
}

func TestEnsureLeverageSwallowsNotModified(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v5/position/set-leverage", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"retCode":110043,"retMsg":"leverage not modified","result":{}}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(liveConfig(srv.URL))
	assert.NoError(t, c.EnsureLeverage(context.Background(), "BTCUSDT", 10))
}
