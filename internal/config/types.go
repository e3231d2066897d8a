package config

import "strings"

// Config 是 Krill 的主配置载体。
type Config struct {
	App      AppConfig      `toml:"app"`
	Kline    KlineConfig    `toml:"kline"`
	Market   MarketConfig   `toml:"market"`
	Scan     ScanConfig     `toml:"scan"`
	Signal   SignalConfig   `toml:"signal"`
	Gate     GateConfig     `toml:"gate"`
	Exchange ExchangeConfig `toml:"exchange"`
	Trading  TradingConfig  `toml:"trading"`
	Notify   NotifyConfig   `toml:"notify"`
}

type AppConfig struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`
	HTTPAddr string `toml:"http_addr"`
	LogPath  string `toml:"log_path"`
	DBPath   string `toml:"db_path"`
}

type KlineConfig struct {
	MaxCached int `toml:"max_cached"`
	Limit     int `toml:"limit"`
}

// ScanConfig 控制扫描节奏与覆盖范围。
type ScanConfig struct {
	Symbols       []string `toml:"symbols"`
	Timeframes    []string `toml:"timeframes"`
	Interval      string   `toml:"interval"`       // 扫描周期，如 "5m"
	OffsetSeconds int      `toml:"offset_seconds"` // K线收盘后的等待秒数
	Concurrency   int      `toml:"concurrency"`
}

type SignalConfig struct {
	PoliciesPath string `toml:"policies_path"` // 可选：策略覆盖文件，支持热重载
}

// GateConfig 是硬门控阈值。0 值字段走默认值。
type GateConfig struct {
	MaxSpreadBps     float64  `toml:"max_spread_bps"`
	MinDepthUSDT     float64  `toml:"min_depth_usdt"`
	MinRiskReward    float64  `toml:"min_risk_reward"`
	MinSymbolWinRate float64  `toml:"min_symbol_win_rate"`
	BannedTimeframes []string `toml:"banned_timeframes"`
	ExcludedSymbols  []string `toml:"excluded_symbols"`
}

// ExchangeConfig 描述执行网关的访问方式。
// API 凭证不进配置文件，从环境变量 BYBIT_API_KEY / BYBIT_API_SECRET 读取。
type ExchangeConfig struct {
	RESTBaseURL       string `toml:"rest_base_url"`
	RecvWindowMS      int64  `toml:"recv_window_ms"`
	TimeoutSeconds    int    `toml:"timeout_seconds"`
	RateLimit         int    `toml:"rate_limit"`
	RateWindowSeconds int    `toml:"rate_window_seconds"`
	MaxAttempts       int    `toml:"max_attempts"`
	BackoffMS         int    `toml:"backoff_ms"`
}

// TradingConfig 控制自动下单行为。
type TradingConfig struct {
	Enabled     bool    `toml:"enabled"`
	Paper       bool    `toml:"paper"`
	USDNotional float64 `toml:"usd_notional"`
	Leverage    int     `toml:"leverage"`
	OrderType   string  `toml:"order_type"`
}

type NotifyConfig struct {
	MinSeverity         string         `toml:"min_severity"`
	DedupeWindowSeconds int            `toml:"dedupe_window_seconds"`
	Telegram            TelegramConfig `toml:"telegram"`
	Webhook             WebhookConfig  `toml:"webhook"`
}

type TelegramConfig struct {
	Enabled  bool   `toml:"enabled"`
	BotToken string `toml:"bot_token"`
	ChatID   string `toml:"chat_id"`
}

type WebhookConfig struct {
	Enabled bool   `toml:"enabled"`
	URL     string `toml:"url"`
}

type MarketConfig struct {
	ActiveSource string         `toml:"active_source"`
	Sources      []MarketSource `toml:"sources"`
}

type MarketSource struct {
	Name        string `toml:"name"`
	Enabled     bool   `toml:"enabled"`
	RESTBaseURL string `toml:"rest_base_url"`
}

func (m MarketConfig) ResolveActiveSource() MarketSource {
	if len(m.Sources) == 0 {
		return MarketSource{
			Name:        "bybit",
			Enabled:     true,
			RESTBaseURL: "https://api.bybit.com",
		}
	}
	active := strings.ToLower(strings.TrimSpace(m.ActiveSource))
	var fallback MarketSource
	for _, src := range m.Sources {
		if fallback.Name == "" {
			fallback = src
		}
		if !src.Enabled {
			continue
		}
		if active == "" || strings.ToLower(src.Name) == active {
			return src
		}
	}
	return fallback
}

// keySet 用于追踪配置文件中显式设置的字段路径。
type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return false
	}
	_, ok := k[path]
	return ok
}

// fieldDefault 描述单个字段的默认值设置规则。
type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}
