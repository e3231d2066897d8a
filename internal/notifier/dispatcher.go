package notifier

import (
	"context"
	"sync"
	"time"

	"krill/internal/logger"

	"golang.org/x/sync/errgroup"
)

// Outcome 是一次分发的整体结果。
type Outcome string

const (
	OutcomeDelivered Outcome = "delivered" // 至少一个通道成功
	OutcomeSkipped   Outcome = "skipped"   // 级别不够
	OutcomeDeduped   Outcome = "deduped"   // 窗口内重复
	OutcomeFailed    Outcome = "failed"    // 所有通道都失败
)

// Result 记录本次分发的去向，Delivery 按通道名给出成败。
type Result struct {
	Outcome  Outcome
	HashKey  string
	Delivery map[string]error
}

// Dispatcher 按 级别闸门 → 去重 → 并发扇出 的顺序分发告警。
// 所有通道共用同一套重试策略：最多 attempts 次，间隔按次数线性递增。
type Dispatcher struct {
	channels    []Channel
	dedupe      *Deduper
	minSeverity Severity
	attempts    int
	backoffStep time.Duration
	sleepFn     func(ctx context.Context, d time.Duration) error
}

type DispatcherOption func(*Dispatcher)

func WithMinSeverity(s Severity) DispatcherOption {
	return func(d *Dispatcher) { d.minSeverity = s }
}

func WithDedupeWindow(w time.Duration) DispatcherOption {
	return func(d *Dispatcher) { d.dedupe = NewDeduper(w) }
}

func WithRetry(attempts int, step time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		if attempts > 0 {
			d.attempts = attempts
		}
		if step > 0 {
			d.backoffStep = step
		}
	}
}

func NewDispatcher(channels []Channel, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		channels:    channels,
		dedupe:      NewDeduper(time.Minute),
		minSeverity: SeverityInfo,
		attempts:    3,
		backoffStep: 300 * time.Millisecond,
		sleepFn:     sleepCtx,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch 分发一条事件。通道之间互不影响，任何一个成功整体就算送达。
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) Result {
	key := ev.HashKey()
	res := Result{HashKey: key, Delivery: make(map[string]error)}

	if ev.Severity < d.minSeverity {
		res.Outcome = OutcomeSkipped
		return res
	}
	if !d.dedupe.CheckAndRecord(key) {
		logger.Debugf("告警去重命中 kind=%s key=%s", ev.Kind, key[:12])
		res.Outcome = OutcomeDeduped
		return res
	}

	text := Render(ev)
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, ch := range d.channels {
		ch := ch
		g.Go(func() error {
			err := d.sendWithRetry(gctx, ch, text)
			mu.Lock()
			res.Delivery[ch.Name()] = err
			mu.Unlock()
			if err != nil {
				logger.Warnf("告警通道失败 channel=%s kind=%s err=%v", ch.Name(), ev.Kind, err)
			}
			// 单通道失败不取消其它通道
			return nil
		})
	}
	g.Wait()

	res.Outcome = OutcomeFailed
	for _, err := range res.Delivery {
		if err == nil {
			res.Outcome = OutcomeDelivered
			break
		}
	}
	if len(d.channels) == 0 {
		res.Outcome = OutcomeDelivered
	}
	return res
}

func (d *Dispatcher) sendWithRetry(ctx context.Context, ch Channel, text string) error {
	var lastErr error
	for i := 1; i <= d.attempts; i++ {
		if err := ch.Send(ctx, text); err == nil {
			return nil
		} else {
			lastErr = err
		}
		if i < d.attempts {
			if err := d.sleepFn(ctx, time.Duration(i)*d.backoffStep); err != nil {
				return err
			}
		}
	}
	return lastErr
}

func sleepCtx(ctx context.Context, dur time.Duration) error {
	t := time.NewTimer(dur)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
