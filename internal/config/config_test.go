package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const minimalConfig = `
scan:
  symbols: ["BTCUSDT", "ETHUSDT"]
`

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.App.Env)
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, ":9991", cfg.App.HTTPAddr)
	assert.Equal(t, 300, cfg.Kline.MaxCached)
	assert.Equal(t, "5m", cfg.Scan.Interval)
	assert.Equal(t, []string{"15m", "1h", "4h"}, cfg.Scan.Timeframes)
	assert.Equal(t, 8, cfg.Scan.Concurrency)
	assert.Equal(t, "bybit", cfg.Market.ResolveActiveSource().Name)
	assert.Equal(t, int64(5000), cfg.Exchange.RecvWindowMS)
	assert.Equal(t, 600, cfg.Exchange.RateLimit)
	assert.Equal(t, 3, cfg.Exchange.MaxAttempts)
	assert.True(t, cfg.Trading.Paper, "缺省必须是纸面模式")
	assert.False(t, cfg.Trading.Enabled)
	assert.Equal(t, 60, cfg.Notify.DedupeWindowSeconds)
}

func TestLoadExplicitValuesWin(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
app:
  log_level: debug
  http_addr: ":8080"
scan:
  symbols: ["BTCUSDT"]
  timeframes: ["1h"]
  interval: "15m"
trading:
  enabled: true
  paper: false
  usd_notional: 250
  leverage: 5
`))
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.App.LogLevel)
	assert.Equal(t, ":8080", cfg.App.HTTPAddr)
	assert.Equal(t, "15m", cfg.Scan.Interval)
	assert.True(t, cfg.Trading.Enabled)
	assert.False(t, cfg.Trading.Paper, "显式 false 不能被默认值覆盖")
	assert.Equal(t, 250.0, cfg.Trading.USDNotional)
}

func TestLoadValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"缺少 symbols", `
scan:
  timeframes: ["1h"]
`},
		{"非法 timeframe", `
scan:
  symbols: ["BTCUSDT"]
  timeframes: ["1x"]
`},
		{"telegram 缺 token", `
scan:
  symbols: ["BTCUSDT"]
notify:
  telegram:
    enabled: true
`},
		{"实盘但金额为 0", `
scan:
  symbols: ["BTCUSDT"]
trading:
  enabled: true
  usd_notional: -1
`},
		{"不支持的行情源", `
scan:
  symbols: ["BTCUSDT"]
market:
  sources:
    - name: kraken
      enabled: true
      rest_base_url: "https://example.com"
`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadWithIncludes(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "base.yaml")
	main := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(base, []byte(`
app:
  log_level: warn
`), 0o644))
	require.NoError(t, os.WriteFile(main, []byte(`
include:
  - base.yaml
scan:
  symbols: ["BTCUSDT"]
`), 0o644))

	cfg, err := Load(main)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.App.LogLevel, "include 文件参与合并")
}

func TestLoadMissingPath(t *testing.T) {
	_, err := Load("")
	assert.Error(t, err)
}
