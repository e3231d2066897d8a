package config

import (
	"fmt"
	"strings"
)

// validate 对配置进行基础校验。
func validate(c *Config) error {
	if err := c.Kline.validate(); err != nil {
		return err
	}
	if err := c.Market.validate(); err != nil {
		return err
	}
	if err := c.Scan.validate(); err != nil {
		return err
	}
	if err := c.Gate.validate(); err != nil {
		return err
	}
	if err := c.Trading.validate(); err != nil {
		return err
	}
	if err := c.Notify.validate(); err != nil {
		return err
	}
	return nil
}

func (k *KlineConfig) validate() error {
	if k.MaxCached < 50 || k.MaxCached > 1000 {
		return fmt.Errorf("kline.max_cached must be in [50,1000]")
	}
	if k.Limit < 50 || k.Limit > 1000 {
		return fmt.Errorf("kline.limit must be in [50,1000]")
	}
	return nil
}

func (m *MarketConfig) validate() error {
	if len(m.Sources) == 0 {
		return fmt.Errorf("market.sources requires at least one source")
	}
	activeName := strings.ToLower(strings.TrimSpace(m.ActiveSource))
	enabled := 0
	activeFound := false
	for _, src := range m.Sources {
		if !src.Enabled {
			continue
		}
		enabled++
		if strings.TrimSpace(src.RESTBaseURL) == "" {
			return fmt.Errorf("market source %s missing rest_base_url", src.Name)
		}
		name := strings.ToLower(strings.TrimSpace(src.Name))
		if name != "bybit" && name != "binance" {
			return fmt.Errorf("market source %s not supported (bybit/binance)", src.Name)
		}
		if activeName == "" || name == activeName {
			activeFound = true
		}
	}
	if enabled == 0 {
		return fmt.Errorf("market.sources requires at least one enabled source")
	}
	if !activeFound {
		return fmt.Errorf("enabled market.active_source=%s not found", m.ActiveSource)
	}
	return nil
}

func (s *ScanConfig) validate() error {
	if len(s.Symbols) == 0 {
		return fmt.Errorf("scan.symbols requires at least one symbol")
	}
	if len(s.Timeframes) == 0 {
		return fmt.Errorf("scan.timeframes requires at least one timeframe")
	}
	for _, tf := range s.Timeframes {
		if !IsValidInterval(tf) {
			return fmt.Errorf("scan.timeframes contains invalid interval: %s", tf)
		}
	}
	if !IsValidInterval(s.Interval) {
		return fmt.Errorf("scan.interval is invalid: %s", s.Interval)
	}
	if s.OffsetSeconds < 0 {
		return fmt.Errorf("scan.offset_seconds must be >= 0")
	}
	return nil
}

func (g *GateConfig) validate() error {
	if g.MaxSpreadBps < 0 {
		return fmt.Errorf("gate.max_spread_bps must be >= 0")
	}
	if g.MinDepthUSDT < 0 {
		return fmt.Errorf("gate.min_depth_usdt must be >= 0")
	}
	if g.MinRiskReward < 0 {
		return fmt.Errorf("gate.min_risk_reward must be >= 0")
	}
	if g.MinSymbolWinRate < 0 || g.MinSymbolWinRate > 1 {
		return fmt.Errorf("gate.min_symbol_win_rate must be in [0,1]")
	}
	return nil
}

func (t *TradingConfig) validate() error {
	if !t.Enabled {
		return nil
	}
	if t.USDNotional <= 0 {
		return fmt.Errorf("trading.usd_notional must be > 0")
	}
	if t.Leverage <= 0 {
		return fmt.Errorf("trading.leverage must be > 0")
	}
	if t.OrderType != "Market" && t.OrderType != "Limit" {
		return fmt.Errorf("trading.order_type only supports Market/Limit, got %s", t.OrderType)
	}
	return nil
}

func (n *NotifyConfig) validate() error {
	if n.Telegram.Enabled {
		if n.Telegram.BotToken == "" || n.Telegram.ChatID == "" {
			return fmt.Errorf("telegram notification enabled but missing bot_token or chat_id")
		}
	}
	if n.Webhook.Enabled && strings.TrimSpace(n.Webhook.URL) == "" {
		return fmt.Errorf("webhook notification enabled but missing url")
	}
	return nil
}

// IsValidInterval 简易校验：以数字开头，以 m/h/d/w 结尾
func IsValidInterval(s string) bool {
	if s == "" {
		return false
	}
	suf := s[len(s)-1]
	if suf != 'm' && suf != 'h' && suf != 'd' && suf != 'w' {
		return false
	}
	for i := 0; i < len(s)-1; i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
