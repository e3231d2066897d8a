package config

import "strings"

// 默认值常量
const (
	defaultAppEnv      = "dev"
	defaultAppLogLevel = "info"
	defaultAppHTTPAddr = ":9991"
	defaultAppLogPath  = "/data/logs/krill-live.log"
	defaultAppDBPath   = "/data/db/krill.db"

	defaultKlineMaxCached = 300
	defaultKlineLimit     = 250

	defaultMarketName = "bybit"
	defaultMarketREST = "https://api.bybit.com"

	defaultScanInterval    = "5m"
	defaultScanOffset      = 10
	defaultScanConcurrency = 8

	defaultExchangeREST       = "https://api.bybit.com"
	defaultExchangeRecvWindow = 5000
	defaultExchangeTimeout    = 10
	defaultExchangeRateLimit  = 600
	defaultExchangeRateWindow = 60
	defaultExchangeAttempts   = 3
	defaultExchangeBackoffMS  = 500

	defaultTradingNotional = 100
	defaultTradingLeverage = 3
	defaultTradingOrder    = "Market"

	defaultNotifySeverity = "info"
	defaultNotifyDedupe   = 60
)

// applyDefaults 为所有子配置应用默认值。
func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Kline.applyDefaults(keys)
	c.Market.applyDefaults(keys)
	c.Scan.applyDefaults(keys)
	c.Exchange.applyDefaults(keys)
	c.Trading.applyDefaults(keys)
	c.Notify.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.http_addr", &a.HTTPAddr, defaultAppHTTPAddr),
		stringFieldDefault("app.log_path", &a.LogPath, defaultAppLogPath),
		stringFieldDefault("app.db_path", &a.DBPath, defaultAppDBPath),
	)
}

func (k *KlineConfig) applyDefaults(keys keySet) {
	if k == nil {
		return
	}
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "kline.max_cached",
			need:  func() bool { return k.MaxCached <= 0 },
			apply: func() { k.MaxCached = defaultKlineMaxCached },
		},
		fieldDefault{
			key:   "kline.limit",
			need:  func() bool { return k.Limit <= 0 },
			apply: func() { k.Limit = defaultKlineLimit },
		},
	)
}

func (m *MarketConfig) applyDefaults(keys keySet) {
	if m == nil {
		return
	}
	if len(m.Sources) == 0 {
		m.Sources = []MarketSource{{
			Name:        defaultMarketName,
			Enabled:     true,
			RESTBaseURL: defaultMarketREST,
		}}
	}
	if strings.TrimSpace(m.ActiveSource) == "" {
		m.ActiveSource = firstEnabledMarket(m.Sources)
	}
}

func (s *ScanConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("scan.interval", &s.Interval, defaultScanInterval),
		fieldDefault{
			key:   "scan.offset_seconds",
			need:  func() bool { return s.OffsetSeconds <= 0 },
			apply: func() { s.OffsetSeconds = defaultScanOffset },
		},
		fieldDefault{
			key:   "scan.concurrency",
			need:  func() bool { return s.Concurrency <= 0 },
			apply: func() { s.Concurrency = defaultScanConcurrency },
		},
	)
	if len(s.Timeframes) == 0 {
		s.Timeframes = []string{"15m", "1h", "4h"}
	}
}

func (e *ExchangeConfig) applyDefaults(keys keySet) {
	if e == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("exchange.rest_base_url", &e.RESTBaseURL, defaultExchangeREST),
		fieldDefault{
			key:   "exchange.recv_window_ms",
			need:  func() bool { return e.RecvWindowMS <= 0 },
			apply: func() { e.RecvWindowMS = defaultExchangeRecvWindow },
		},
		fieldDefault{
			key:   "exchange.timeout_seconds",
			need:  func() bool { return e.TimeoutSeconds <= 0 },
			apply: func() { e.TimeoutSeconds = defaultExchangeTimeout },
		},
		fieldDefault{
			key:   "exchange.rate_limit",
			need:  func() bool { return e.RateLimit <= 0 },
			apply: func() { e.RateLimit = defaultExchangeRateLimit },
		},
		fieldDefault{
			key:   "exchange.rate_window_seconds",
			need:  func() bool { return e.RateWindowSeconds <= 0 },
			apply: func() { e.RateWindowSeconds = defaultExchangeRateWindow },
		},
		fieldDefault{
			key:   "exchange.max_attempts",
			need:  func() bool { return e.MaxAttempts <= 0 },
			apply: func() { e.MaxAttempts = defaultExchangeAttempts },
		},
		fieldDefault{
			key:   "exchange.backoff_ms",
			need:  func() bool { return e.BackoffMS <= 0 },
			apply: func() { e.BackoffMS = defaultExchangeBackoffMS },
		},
	)
}

func (t *TradingConfig) applyDefaults(keys keySet) {
	if t == nil {
		return
	}
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "trading.usd_notional",
			need:  func() bool { return t.USDNotional <= 0 },
			apply: func() { t.USDNotional = defaultTradingNotional },
		},
		fieldDefault{
			key:   "trading.leverage",
			need:  func() bool { return t.Leverage <= 0 },
			apply: func() { t.Leverage = defaultTradingLeverage },
		},
		stringFieldDefault("trading.order_type", &t.OrderType, defaultTradingOrder),
		boolFieldDefault("trading.paper", &t.Paper, true),
	)
}

func (n *NotifyConfig) applyDefaults(keys keySet) {
	if n == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("notify.min_severity", &n.MinSeverity, defaultNotifySeverity),
		fieldDefault{
			key:   "notify.dedupe_window_seconds",
			need:  func() bool { return n.DedupeWindowSeconds <= 0 },
			apply: func() { n.DedupeWindowSeconds = defaultNotifyDedupe },
		},
	)
}

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key: key,
		need: func() bool {
			return target != nil && strings.TrimSpace(*target) == ""
		},
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

func boolFieldDefault(key string, target *bool, def bool) fieldDefault {
	return fieldDefault{
		key:  key,
		need: func() bool { return target != nil },
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

func firstEnabledMarket(sources []MarketSource) string {
	for _, src := range sources {
		name := strings.TrimSpace(src.Name)
		if src.Enabled && name != "" {
			return name
		}
	}
	if len(sources) > 0 {
		if name := strings.TrimSpace(sources[0].Name); name != "" {
			return name
		}
	}
	return defaultMarketName
}
