package app

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	krcfg "krill/internal/config"
	"krill/internal/exec/bybit"
	"krill/internal/gate"
	"krill/internal/logger"
	"krill/internal/market"
	binancemkt "krill/internal/market/binance"
	bybitmkt "krill/internal/market/bybit"
	"krill/internal/notifier"
	"krill/internal/scanner"
	"krill/internal/signal"
	"krill/internal/store"
	"krill/internal/store/gormstore"
	statushttp "krill/internal/transport/http/status"
)

type AppBuilder struct {
	cfg *krcfg.Config

	storeFn  func(string) (store.Store, error)
	sourceFn func(krcfg.MarketSource) (market.Source, error)
	httpFn   func(krcfg.AppConfig, store.Store, store.KlineStore) (*statushttp.Server, error)
}

type AppBuilderOption func(*AppBuilder)

// WithStore 覆盖存储构造，测试时注入内存实现。
func WithStore(db store.Store) AppBuilderOption {
	return func(b *AppBuilder) {
		b.storeFn = func(string) (store.Store, error) { return db, nil }
	}
}

// WithSource 覆盖行情源构造。
func WithSource(src market.Source) AppBuilderOption {
	return func(b *AppBuilder) {
		b.sourceFn = func(krcfg.MarketSource) (market.Source, error) { return src, nil }
	}
}

func NewAppBuilder(cfg *krcfg.Config, opts ...AppBuilderOption) *AppBuilder {
	b := &AppBuilder{
		cfg:      cfg,
		storeFn:  buildStore,
		sourceFn: buildMarketSource,
		httpFn:   buildStatusServer,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

func (b *AppBuilder) Build(ctx context.Context) (*App, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if b.cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	cfg := b.cfg
	logger.SetLevel(cfg.App.LogLevel)

	db, err := b.storeFn(cfg.App.DBPath)
	if err != nil {
		return nil, fmt.Errorf("初始化存储失败: %w", err)
	}
	klines := store.NewMemoryKlineStore()

	registry, err := signal.NewRegistry(cfg.Signal.PoliciesPath)
	if err != nil {
		return nil, fmt.Errorf("初始化策略注册表失败: %w", err)
	}

	src, err := b.sourceFn(cfg.Market.ResolveActiveSource())
	if err != nil {
		return nil, err
	}

	executor := buildExecutor(cfg)
	dispatcher := buildDispatcher(cfg.Notify)
	thresholds := buildThresholds(cfg.Gate)

	scn := scanner.New(scanner.Config{
		Symbols:     cfg.Scan.Symbols,
		Timeframes:  cfg.Scan.Timeframes,
		KlineLimit:  cfg.Kline.Limit,
		Concurrency: cfg.Scan.Concurrency,
		Trading: scanner.Trading{
			Enabled:     cfg.Trading.Enabled,
			USDNotional: cfg.Trading.USDNotional,
			Leverage:    cfg.Trading.Leverage,
			OrderType:   cfg.Trading.OrderType,
		},
	}, src, registry, thresholds, db, klines, executor, dispatcher)

	httpSrv, err := b.httpFn(cfg.App, db, klines)
	if err != nil {
		return nil, err
	}

	summary := &StartupSummary{
		Env:        cfg.App.Env,
		Source:     src.Name(),
		Symbols:    cfg.Scan.Symbols,
		Timeframes: cfg.Scan.Timeframes,
		Interval:   cfg.Scan.Interval,
		Paper:      executor.Paper(),
		AutoTrade:  cfg.Trading.Enabled,
		HTTPAddr:   cfg.App.HTTPAddr,
	}

	return &App{
		cfg:     cfg,
		db:      db,
		scanner: scn,
		httpSrv: httpSrv,
		Summary: summary,
	}, nil
}

func buildStore(path string) (store.Store, error) {
	return gormstore.NewGormStore(path)
}

func buildMarketSource(src krcfg.MarketSource) (market.Source, error) {
	switch strings.ToLower(strings.TrimSpace(src.Name)) {
	case "bybit", "":
		return bybitmkt.New(src.RESTBaseURL, 10*time.Second), nil
	case "binance":
		return binancemkt.New(src.RESTBaseURL, 10*time.Second), nil
	default:
		return nil, fmt.Errorf("不支持的行情源: %s", src.Name)
	}
}

// buildExecutor 组装执行网关。凭证只从环境变量读取，配置文件不落密钥。
func buildExecutor(cfg *krcfg.Config) *bybit.Client {
	return bybit.NewClient(bybit.Config{
		BaseURL:     cfg.Exchange.RESTBaseURL,
		APIKey:      os.Getenv("BYBIT_API_KEY"),
		APISecret:   os.Getenv("BYBIT_API_SECRET"),
		RecvWindow:  cfg.Exchange.RecvWindowMS,
		Paper:       cfg.Trading.Paper,
		Timeout:     time.Duration(cfg.Exchange.TimeoutSeconds) * time.Second,
		RateLimit:   cfg.Exchange.RateLimit,
		RateWindow:  time.Duration(cfg.Exchange.RateWindowSeconds) * time.Second,
		MaxAttempts: cfg.Exchange.MaxAttempts,
		Backoff:     time.Duration(cfg.Exchange.BackoffMS) * time.Millisecond,
	})
}

func buildDispatcher(cfg krcfg.NotifyConfig) *notifier.Dispatcher {
	var channels []notifier.Channel
	if cfg.Telegram.Enabled {
		channels = append(channels, notifier.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID))
	}
	if cfg.Webhook.Enabled {
		channels = append(channels, notifier.NewWebhook(cfg.Webhook.URL, "krill"))
	}
	if len(channels) == 0 {
		logger.Warnf("未配置任何告警通道，告警只进数据库")
	}
	return notifier.NewDispatcher(channels,
		notifier.WithMinSeverity(notifier.ParseSeverity(cfg.MinSeverity)),
		notifier.WithDedupeWindow(time.Duration(cfg.DedupeWindowSeconds)*time.Second),
	)
}

// buildThresholds 把配置覆盖到默认门控阈值上，0 值沿用默认。
func buildThresholds(cfg krcfg.GateConfig) gate.Thresholds {
	th := gate.DefaultThresholds()
	if cfg.MaxSpreadBps > 0 {
		th.MaxSpreadBps = cfg.MaxSpreadBps
	}
	if cfg.MinDepthUSDT > 0 {
		th.MinDepthUsdt = cfg.MinDepthUSDT
	}
	if cfg.MinRiskReward > 0 {
		th.MinRiskReward = cfg.MinRiskReward
	}
	if cfg.MinSymbolWinRate > 0 {
		th.MinSymbolWinRate = cfg.MinSymbolWinRate
	}
	if len(cfg.BannedTimeframes) > 0 {
		th.BannedTimeframes = cfg.BannedTimeframes
	}
	if len(cfg.ExcludedSymbols) > 0 {
		th.ExcludedSymbols = cfg.ExcludedSymbols
	}
	return th
}

func buildStatusServer(cfg krcfg.AppConfig, db store.Store, klines store.KlineStore) (*statushttp.Server, error) {
	return statushttp.NewServer(statushttp.ServerConfig{
		Addr:   cfg.HTTPAddr,
		DB:     db,
		Klines: klines,
	})
}
