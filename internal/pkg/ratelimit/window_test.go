package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWindowRejectsOverLimit(t *testing.T) {
	now := time.Unix(1700000000, 0)
	w := NewWindow(5, time.Minute)
	w.nowFn = func() time.Time { return now }

	for i := 0; i < 5; i++ {
		assert.True(t, w.Allow(), "第 %d 次应放行", i+1)
	}
	assert.False(t, w.Allow(), "第 limit+1 次必须被拒")

	// 窗口滑过后恢复
	now = now.Add(61 * time.Second)
	assert.True(t, w.Allow())
}

func TestWindowSlides(t *testing.T) {
	now := time.Unix(1700000000, 0)
	w := NewWindow(2, time.Minute)
	w.nowFn = func() time.Time { return now }

	assert.True(t, w.Allow())
	now = now.Add(30 * time.Second)
	assert.True(t, w.Allow())
	assert.False(t, w.Allow())

	// 第一条记录滑出窗口，放出一个配额
	now = now.Add(31 * time.Second)
	assert.True(t, w.Allow())
	assert.False(t, w.Allow())
}

func TestWindowConcurrentExactCount(t *testing.T) {
	w := NewWindow(100, time.Minute)
	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 300; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if w.Allow() {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 100, allowed, "并发下放行数必须精确等于配额")
}
