package notifier

import (
	"sync"
	"time"
)

// Deduper 记住窗口期内见过的指纹，窗口内重复事件只放行第一条。
type Deduper struct {
	mu     sync.Mutex
	window time.Duration
	seen   map[string]time.Time
	nowFn  func() time.Time
}

func NewDeduper(window time.Duration) *Deduper {
	if window <= 0 {
		window = time.Minute
	}
	return &Deduper{
		window: window,
		seen:   make(map[string]time.Time),
		nowFn:  time.Now,
	}
}

// CheckAndRecord 原子地判断并登记：返回 true 表示首次出现应当发送。
// 判断与登记在同一把锁里完成，并发同 key 只会有一个赢家。
func (d *Deduper) CheckAndRecord(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := d.nowFn()
	if last, ok := d.seen[key]; ok && now.Sub(last) < d.window {
		return false
	}
	d.seen[key] = now
	d.prune(now)
	return true
}

// prune 顺手清掉过期指纹，避免长跑进程的 map 无限增长。
func (d *Deduper) prune(now time.Time) {
	if len(d.seen) < 1024 {
		return
	}
	for k, ts := range d.seen {
		if now.Sub(ts) >= d.window {
			delete(d.seen, k)
		}
	}
}
