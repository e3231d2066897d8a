package notifier

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeduperWindow(t *testing.T) {
	d := NewDeduper(time.Minute)
	now := time.Unix(1_700_000_000, 0)
	d.nowFn = func() time.Time { return now }

	assert.True(t, d.CheckAndRecord("k"), "首次必须放行")
	assert.False(t, d.CheckAndRecord("k"), "窗口内重复必须拦截")

	now = now.Add(59 * time.Second)
	assert.False(t, d.CheckAndRecord("k"))

	now = now.Add(2 * time.Second)
	assert.True(t, d.CheckAndRecord("k"), "窗口过期后重新放行")
}

func TestDeduperDistinctKeys(t *testing.T) {
	d := NewDeduper(time.Minute)
	assert.True(t, d.CheckAndRecord("a"))
	assert.True(t, d.CheckAndRecord("b"))
}

// 并发打同一个 key，只能有一个赢家。
func TestDeduperConcurrentSingleWinner(t *testing.T) {
	d := NewDeduper(time.Minute)
	var wins int64
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if d.CheckAndRecord("same") {
				atomic.AddInt64(&wins, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(1), wins)
}

func TestEventHashKeyStable(t *testing.T) {
	a := Event{Kind: "signal", Symbol: "BTCUSDT", Title: "做多信号",
		Metadata: map[string]string{"tf": "1h", "grade": "A"}}
	b := Event{Kind: "signal", Symbol: "BTCUSDT", Title: "做多信号",
		Metadata: map[string]string{"grade": "A", "tf": "1h"}}
	assert.Equal(t, a.HashKey(), b.HashKey(), "指纹与 map 顺序无关")

	c := a
	c.Metadata = map[string]string{"tf": "4h", "grade": "A"}
	assert.NotEqual(t, a.HashKey(), c.HashKey())

	d := a
	d.At = time.Now()
	assert.Equal(t, a.HashKey(), d.HashKey(), "时间戳不参与指纹")
}
