package bybit

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"krill/internal/logger"
	"krill/internal/pkg/circuit"
	"krill/internal/pkg/ratelimit"

	"github.com/tidwall/gjson"
)

const defaultBaseURL = "https://api.bybit.com"

// Config 控制执行网关的行为。凭证缺失时强制纸面模式。
type Config struct {
	BaseURL    string
	APIKey     string
	APISecret  string
	RecvWindow int64 // 毫秒
	Paper      bool
	Timeout    time.Duration

	RateLimit  int           // 滚动窗口内的最大请求数
	RateWindow time.Duration // 滚动窗口长度

	MaxAttempts int           // 网络类错误的最大尝试次数
	Backoff     time.Duration // 线性退避步长
}

func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.BaseURL) == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.RecvWindow <= 0 {
		c.RecvWindow = 5000
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.RateLimit <= 0 {
		c.RateLimit = 600
	}
	if c.RateWindow <= 0 {
		c.RateWindow = time.Minute
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.Backoff <= 0 {
		c.Backoff = 500 * time.Millisecond
	}
	if c.APIKey == "" || c.APISecret == "" {
		c.Paper = true
	}
	return c
}

// Client 是带限频、熔断与有界重试的 Bybit v5 执行网关。
type Client struct {
	cfg     Config
	client  *http.Client
	limiter *ratelimit.Window
	breaker *circuit.Breaker
	nowFn   func() time.Time
}

func NewClient(cfg Config) *Client {
	final := cfg.withDefaults()
	return &Client{
		cfg:     final,
		client:  &http.Client{Timeout: final.Timeout},
		limiter: ratelimit.NewWindow(final.RateLimit, final.RateWindow),
		breaker: circuit.NewBreaker("bybit", 5, 30*time.Second),
		nowFn:   time.Now,
	}
}

// Paper 返回当前是否为纸面模式。
func (c *Client) Paper() bool { return c.cfg.Paper }

// response 是一次传输成功的交易所应答。
type response struct {
	retCode int64
	retMsg  string
	body    []byte
}

// newSignedRequest 构造一次签名 POST 请求。
// 限频/熔断检查在签名之前：被拒时不产生签名也不触网。
// 请求构造成功即表示已持有效签名（NEW→SIGNED 的依据）。
func (c *Client) newSignedRequest(ctx context.Context, path, body string) (*http.Request, error) {
	if !c.limiter.Allow() {
		return nil, ErrThrottled
	}
	if !c.breaker.Allow() {
		return nil, ErrCircuitOpen
	}
	if c.cfg.APIKey == "" || c.cfg.APISecret == "" {
		return nil, fmt.Errorf("bybit: 缺少 API 凭证")
	}
	ts := strconv.FormatInt(c.nowFn().UnixMilli(), 10)
	rw := strconv.FormatInt(c.cfg.RecvWindow, 10)
	sig := sign(c.cfg.APISecret, ts, c.cfg.APIKey, rw, body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(c.cfg.BaseURL, "/")+path, bytes.NewReader([]byte(body)))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-BAPI-API-KEY", c.cfg.APIKey)
	req.Header.Set("X-BAPI-SIGN", sig)
	req.Header.Set("X-BAPI-SIGN-TYPE", "2")
	req.Header.Set("X-BAPI-TIMESTAMP", ts)
	req.Header.Set("X-BAPI-RECV-WINDOW", rw)
	return req, nil
}

// do 执行请求并解析交易所应答。返回 (nil, err) 表示传输层失败，
// 返回 (resp, nil) 表示拿到了应答（retCode 可能非 0）。
func (c *Client) do(req *http.Request) (*response, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		c.breaker.RecordFailure()
		return nil, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.breaker.RecordFailure()
		return nil, err
	}
	if resp.StatusCode >= 500 {
		c.breaker.RecordFailure()
		return nil, fmt.Errorf("bybit http %d", resp.StatusCode)
	}
	c.breaker.RecordSuccess()
	return &response{
		retCode: gjson.GetBytes(raw, "retCode").Int(),
		retMsg:  gjson.GetBytes(raw, "retMsg").String(),
		body:    raw,
	}, nil
}

func (c *Client) signedPOST(ctx context.Context, path, body string) (*response, error) {
	req, err := c.newSignedRequest(ctx, path, body)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

// publicGET 访问公共行情接口（仍计入限频窗口）。
func (c *Client) publicGET(ctx context.Context, path, query string) (*response, error) {
	if !c.limiter.Allow() {
		return nil, ErrThrottled
	}
	if !c.breaker.Allow() {
		return nil, ErrCircuitOpen
	}
	u := strings.TrimRight(c.cfg.BaseURL, "/") + path
	if query != "" {
		u += "?" + query
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.breaker.RecordFailure()
		return nil, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.breaker.RecordFailure()
		return nil, err
	}
	if resp.StatusCode >= 500 {
		c.breaker.RecordFailure()
		return nil, fmt.Errorf("bybit http %d", resp.StatusCode)
	}
	c.breaker.RecordSuccess()
	return &response{
		retCode: gjson.GetBytes(raw, "retCode").Int(),
		retMsg:  gjson.GetBytes(raw, "retMsg").String(),
		body:    raw,
	}, nil
}

func (c *Client) backoff(attempt int) time.Duration {
	return time.Duration(attempt) * c.cfg.Backoff
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func logRetry(op string, attempt int, err error) {
	logger.Warnf("bybit %s attempt %d failed: %v", op, attempt, err)
}
