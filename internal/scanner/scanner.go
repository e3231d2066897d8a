package scanner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"krill/internal/exec/bybit"
	"krill/internal/gate"
	"krill/internal/indicator"
	"krill/internal/logger"
	"krill/internal/market"
	"krill/internal/notifier"
	"krill/internal/signal"
	"krill/internal/store"
	storemodel "krill/internal/store/model"

	"golang.org/x/sync/errgroup"
)

// Executor 是扫描器需要的下单面。实现为 Bybit 执行网关。
type Executor interface {
	PlaceOrder(ctx context.Context, symbol string, side bybit.Side, usdNotional float64, orderType string) (*bybit.Order, error)
	EnsureLeverage(ctx context.Context, symbol string, leverage int) error
	Paper() bool
}

// Alerter 是扫描器需要的告警面。实现为 notifier.Dispatcher。
type Alerter interface {
	Dispatch(ctx context.Context, ev notifier.Event) notifier.Result
}

// PolicyProvider 提供当前生效的评分策略快照（支持热重载）。
type PolicyProvider interface {
	Snapshot() signal.PolicySnapshot
}

// Trading 控制自动下单行为。Enabled=false 时只产信号不下单。
type Trading struct {
	Enabled     bool
	USDNotional float64
	Leverage    int
	OrderType   string
}

type Config struct {
	Symbols     []string
	Timeframes  []string
	KlineLimit  int
	Concurrency int
	Trading     Trading
}

func (c Config) withDefaults() Config {
	if c.KlineLimit < indicator.MinCandles() {
		c.KlineLimit = indicator.MinCandles() + 20
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 8
	}
	if c.Trading.OrderType == "" {
		c.Trading.OrderType = "Market"
	}
	return c
}

// Scanner 驱动整条流水线：行情 → 指标 → 信号装配 → 门控评分 → 下单/告警。
type Scanner struct {
	cfg      Config
	source   market.Source
	policies PolicyProvider
	gateTh   gate.Thresholds
	db       store.Store
	klines   store.KlineStore
	executor Executor
	alerter  Alerter
	nowFn    func() time.Time
}

func New(cfg Config, source market.Source, policies PolicyProvider, th gate.Thresholds,
	db store.Store, klines store.KlineStore, executor Executor, alerter Alerter) *Scanner {
	return &Scanner{
		cfg:      cfg.withDefaults(),
		source:   source,
		policies: policies,
		gateTh:   th,
		db:       db,
		klines:   klines,
		executor: executor,
		alerter:  alerter,
		nowFn:    time.Now,
	}
}

// CycleReport 汇总一轮扫描的产出。
type CycleReport struct {
	StartedAt time.Time
	Elapsed   time.Duration
	Scanned   int
	Errors    int
	Signals   []gate.Graded // 按执行分降序
	Orders    []*bybit.Order
}

// RunCycle 对全部 symbol × timeframe 跑一轮扫描。
// 各组合并发但受 Concurrency 限制；单个组合失败不影响其它组合。
func (s *Scanner) RunCycle(ctx context.Context) CycleReport {
	started := s.nowFn()
	pol := s.policies.Snapshot().Policies

	var mu sync.Mutex
	report := CycleReport{StartedAt: started}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for _, symbol := range s.cfg.Symbols {
		for _, timeframe := range s.cfg.Timeframes {
			symbol, timeframe := symbol, timeframe
			g.Go(func() error {
				graded, order, err := s.scanOne(gctx, symbol, timeframe, pol)
				mu.Lock()
				defer mu.Unlock()
				report.Scanned++
				if err != nil {
					report.Errors++
					logger.Warnf("扫描失败 symbol=%s tf=%s err=%v", symbol, timeframe, err)
					return nil
				}
				if graded != nil {
					report.Signals = append(report.Signals, *graded)
				}
				if order != nil {
					report.Orders = append(report.Orders, order)
				}
				return nil
			})
		}
	}
	g.Wait()

	gate.Sort(report.Signals)
	report.Elapsed = s.nowFn().Sub(started)
	logger.Infof("扫描完成 scanned=%d signals=%d orders=%d errors=%d elapsed=%s",
		report.Scanned, len(report.Signals), len(report.Orders), report.Errors,
		report.Elapsed.Truncate(time.Millisecond))
	return report
}

// scanOne 跑单个 symbol × timeframe 组合。
// 返回 (nil, nil, nil) 表示这轮没有产出信号，属正常情况。
func (s *Scanner) scanOne(ctx context.Context, symbol, timeframe string, pol signal.Policies) (*gate.Graded, *bybit.Order, error) {
	candles, err := s.source.FetchKlines(ctx, symbol, timeframe, s.cfg.KlineLimit)
	if err != nil {
		return nil, nil, fmt.Errorf("拉取K线: %w", err)
	}
	if s.klines != nil {
		_ = s.klines.Put(ctx, symbol, timeframe, candles, s.cfg.KlineLimit)
	}
	ticker, err := s.source.FetchTicker(ctx, symbol)
	if err != nil {
		return nil, nil, fmt.Errorf("拉取盘口: %w", err)
	}

	snap, ok := indicator.Compute(symbol, timeframe, candles, ticker)
	if !ok {
		logger.Debugf("数据不足跳过 symbol=%s tf=%s candles=%d", symbol, timeframe, len(candles))
		return nil, nil, nil
	}
	cand, ok := signal.Assemble(snap, ticker, pol.Assembler, s.nowFn())
	if !ok {
		return nil, nil, nil
	}

	graded := gate.Evaluate(cand, s.gateTh, pol.Execution, s.winRateLookup(ctx))
	if err := s.persistSignal(ctx, &graded, snap); err != nil {
		logger.Warnf("信号落库失败 symbol=%s err=%v", symbol, err)
	}
	if graded.GateReason != "" {
		logger.Debugf("信号被门控拒绝 symbol=%s tf=%s reason=%s", symbol, timeframe, graded.GateReason)
		return &graded, nil, nil
	}

	s.alertSignal(ctx, graded)

	var order *bybit.Order
	if graded.AutoTradeable && s.cfg.Trading.Enabled {
		order = s.execute(ctx, graded)
	}
	return &graded, order, nil
}

// winRateLookup 把门控的同步查询接到存储上。查询失败按 1.0（不约束）放行，
// 门控不应该因为一次读库失败误杀信号。
func (s *Scanner) winRateLookup(ctx context.Context) gate.WinRateLookup {
	return func(symbol string) float64 {
		if s.db == nil {
			return 1.0
		}
		rate, err := s.db.SymbolWinRate(ctx, symbol)
		if err != nil {
			logger.Warnf("查询胜率失败 symbol=%s err=%v", symbol, err)
			return 1.0
		}
		return rate
	}
}

func (s *Scanner) execute(ctx context.Context, graded gate.Graded) *bybit.Order {
	side := bybit.SideBuy
	if graded.Direction == signal.DirectionShort {
		side = bybit.SideSell
	}
	if s.cfg.Trading.Leverage > 0 {
		if err := s.executor.EnsureLeverage(ctx, graded.Symbol, s.cfg.Trading.Leverage); err != nil {
			logger.Warnf("设置杠杆失败 symbol=%s err=%v", graded.Symbol, err)
		}
	}
	order, err := s.executor.PlaceOrder(ctx, graded.Symbol, side, s.cfg.Trading.USDNotional, s.cfg.Trading.OrderType)
	if err != nil {
		logger.Errorf("下单失败 symbol=%s side=%s err=%v", graded.Symbol, side, err)
		// 失败只发一条告警，带尝试台账的 order 照常落库
		s.alertOrderFailure(ctx, graded, err)
		if order != nil {
			if perr := s.persistOrder(ctx, order); perr != nil {
				logger.Warnf("订单落库失败 symbol=%s err=%v", order.Symbol, perr)
			}
		}
		return order
	}
	if order != nil {
		if perr := s.persistOrder(ctx, order); perr != nil {
			logger.Warnf("订单落库失败 symbol=%s err=%v", order.Symbol, perr)
		}
		s.alertOrderResult(ctx, graded, order)
	}
	return order
}

func (s *Scanner) persistSignal(ctx context.Context, graded *gate.Graded, snap indicator.Snapshot) error {
	if s.db == nil {
		return nil
	}
	details, _ := json.Marshal(map[string]any{
		"rsi":          snap.RSI14,
		"adx":          snap.ADX,
		"volume_ratio": snap.VolumeRatio,
		"macd_hist":    snap.MACDHist,
		"trend_fit":    graded.TrendFit,
		"pullback_fit": graded.PullbackFit,
	})
	model := &storemodel.SignalModel{
		Symbol:         graded.Symbol,
		Timeframe:      graded.Timeframe,
		Direction:      string(graded.Direction),
		Entry:          graded.EntryPrice,
		Stop:           graded.StopLoss,
		Target:         graded.TakeProfit,
		RawScore:       graded.RawScore,
		ExecutionScore: graded.ExecutionScore,
		Grade:          string(graded.Grade),
		AutoTradeable:  graded.AutoTradeable,
		GateReason:     graded.GateReason,
		RiskReward:     graded.RiskReward,
		SpreadBps:      graded.SpreadBps,
		DepthUSDT:      graded.OrderbookDepthUsdt,
		Details:        details,
		CreatedAtUnix:  graded.CreatedAt.UnixMilli(),
	}
	return s.db.SaveSignal(ctx, model)
}

func (s *Scanner) persistOrder(ctx context.Context, order *bybit.Order) error {
	if s.db == nil {
		return nil
	}
	attempts, _ := json.Marshal(order.Attempts)
	model := &storemodel.OrderModel{
		Symbol:          order.Symbol,
		Side:            string(order.Side),
		OrderType:       order.OrderType,
		Quantity:        order.Quantity.String(),
		Price:           order.Price,
		Status:          string(order.Status),
		Category:        string(order.Category),
		ExchangeOrderID: order.ExchangeOrderID,
		Paper:           order.Paper,
		Attempts:        attempts,
		CreatedAtUnix:   order.CreatedAt.UnixMilli(),
	}
	return s.db.SaveOrder(ctx, model)
}

func (s *Scanner) alertSignal(ctx context.Context, graded gate.Graded) {
	if s.alerter == nil {
		return
	}
	severity := notifier.SeverityInfo
	switch {
	case graded.AutoTradeable:
		severity = notifier.SeverityCritical
	case graded.Grade == gate.GradeAPlus || graded.Grade == gate.GradeA:
		severity = notifier.SeverityWarn
	}
	ev := notifier.Event{
		Kind:     "signal",
		Severity: severity,
		Symbol:   graded.Symbol,
		Title:    fmt.Sprintf("%s %s 信号 (%s)", graded.Symbol, graded.Direction, graded.Grade),
		Metadata: map[string]string{
			"timeframe": graded.Timeframe,
			"direction": string(graded.Direction),
			"grade":     string(graded.Grade),
			"score":     fmt.Sprintf("%.2f", graded.ExecutionScore),
			"entry":     fmt.Sprintf("%.4f", graded.EntryPrice),
			"stop":      fmt.Sprintf("%.4f", graded.StopLoss),
			"target":    fmt.Sprintf("%.4f", graded.TakeProfit),
			"rr":        fmt.Sprintf("%.2f", graded.RiskReward),
		},
		At: graded.CreatedAt,
	}
	res := s.alerter.Dispatch(ctx, ev)
	s.persistAlert(ctx, ev, res)
}

func (s *Scanner) alertOrderResult(ctx context.Context, graded gate.Graded, order *bybit.Order) {
	if s.alerter == nil {
		return
	}
	severity := notifier.SeverityInfo
	title := fmt.Sprintf("%s %s 已成交", order.Symbol, order.Side)
	if order.Status != bybit.StatusFilled {
		severity = notifier.SeverityCritical
		title = fmt.Sprintf("%s %s 下单未成交 (%s)", order.Symbol, order.Side, order.Status)
	}
	ev := notifier.Event{
		Kind:     "order",
		Severity: severity,
		Symbol:   order.Symbol,
		Title:    title,
		Metadata: map[string]string{
			"status":   string(order.Status),
			"qty":      order.Quantity.String(),
			"paper":    fmt.Sprintf("%t", order.Paper),
			"order_id": order.ExchangeOrderID,
			"category": string(order.Category),
			"grade":    string(graded.Grade),
		},
		At: order.CreatedAt,
	}
	res := s.alerter.Dispatch(ctx, ev)
	s.persistAlert(ctx, ev, res)
}

func (s *Scanner) alertOrderFailure(ctx context.Context, graded gate.Graded, err error) {
	if s.alerter == nil {
		return
	}
	ev := notifier.Event{
		Kind:     "order",
		Severity: notifier.SeverityCritical,
		Symbol:   graded.Symbol,
		Title:    fmt.Sprintf("%s 下单失败", graded.Symbol),
		Body:     err.Error(),
		Metadata: map[string]string{"grade": string(graded.Grade)},
		At:       s.nowFn(),
	}
	res := s.alerter.Dispatch(ctx, ev)
	s.persistAlert(ctx, ev, res)
}

// persistAlert 落库每一次分发结果，含 skipped / deduped，被抑制的告警也要可审计。
func (s *Scanner) persistAlert(ctx context.Context, ev notifier.Event, res notifier.Result) {
	if s.db == nil {
		return
	}
	delivery := make(map[string]string, len(res.Delivery))
	for name, err := range res.Delivery {
		if err != nil {
			delivery[name] = err.Error()
		} else {
			delivery[name] = ""
		}
	}
	payload, _ := json.Marshal(delivery)
	model := &storemodel.AlertModel{
		HashKey:       res.HashKey,
		Kind:          ev.Kind,
		Severity:      ev.Severity.String(),
		Symbol:        strings.ToUpper(ev.Symbol),
		Title:         ev.Title,
		Outcome:       string(res.Outcome),
		Delivery:      payload,
		CreatedAtUnix: s.nowFn().UnixMilli(),
	}
	if err := s.db.SaveAlert(ctx, model); err != nil {
		logger.Warnf("告警落库失败 kind=%s err=%v", ev.Kind, err)
	}
}
