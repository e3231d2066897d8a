// Package ratelimit 提供滚动窗口限频器：
// 尾部 window 时间内已放行 limit 次后，新请求被拒绝并得到可区分的"限频"结果，
// 由调用方决定是否重新排队，网关本身不重试。
package ratelimit

import (
	"sync"
	"time"
)

type Window struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	stamps []time.Time
	nowFn  func() time.Time
}

func NewWindow(limit int, window time.Duration) *Window {
	if limit <= 0 {
		limit = 600
	}
	if window <= 0 {
		window = time.Minute
	}
	return &Window{
		limit:  limit,
		window: window,
		stamps: make([]time.Time, 0, limit),
		nowFn:  time.Now,
	}
}

// Allow 原子地检查并记录一次请求。返回 false 表示触发限频。
func (w *Window) Allow() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.nowFn()
	cutoff := now.Add(-w.window)
	kept := w.stamps[:0]
	for _, ts := range w.stamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	w.stamps = kept
	if len(w.stamps) >= w.limit {
		return false
	}
	w.stamps = append(w.stamps, now)
	return true
}

// InFlight 返回当前窗口内已计数的请求数（诊断用）。
func (w *Window) InFlight() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	now := w.nowFn()
	cutoff := now.Add(-w.window)
	n := 0
	for _, ts := range w.stamps {
		if ts.After(cutoff) {
			n++
		}
	}
	return n
}
