package notifier

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	name     string
	calls    int32
	failures int32 // 前 N 次调用返回错误
}

func (f *fakeChannel) Name() string { return f.name }

func (f *fakeChannel) Send(ctx context.Context, text string) error {
	n := atomic.AddInt32(&f.calls, 1)
	if n <= atomic.LoadInt32(&f.failures) {
		return errors.New("boom")
	}
	return nil
}

func noSleep(ctx context.Context, d time.Duration) error { return nil }

func newTestDispatcher(chs []Channel, opts ...DispatcherOption) *Dispatcher {
	d := NewDispatcher(chs, opts...)
	d.sleepFn = noSleep
	return d
}

func infoEvent(title string) Event {
	return Event{Kind: "signal", Severity: SeverityInfo, Symbol: "BTCUSDT", Title: title}
}

func TestDispatchFanout(t *testing.T) {
	a := &fakeChannel{name: "telegram"}
	b := &fakeChannel{name: "webhook"}
	d := newTestDispatcher([]Channel{a, b})

	res := d.Dispatch(context.Background(), infoEvent("t1"))
	assert.Equal(t, OutcomeDelivered, res.Outcome)
	require.Len(t, res.Delivery, 2)
	assert.NoError(t, res.Delivery["telegram"])
	assert.NoError(t, res.Delivery["webhook"])
	assert.Equal(t, int32(1), a.calls)
	assert.Equal(t, int32(1), b.calls)
}

func TestDispatchSeverityGate(t *testing.T) {
	a := &fakeChannel{name: "telegram"}
	d := newTestDispatcher([]Channel{a}, WithMinSeverity(SeverityWarn))

	res := d.Dispatch(context.Background(), infoEvent("too-quiet"))
	assert.Equal(t, OutcomeSkipped, res.Outcome)
	assert.Zero(t, a.calls, "级别不够的事件不得触达通道")

	ev := infoEvent("loud")
	ev.Severity = SeverityCritical
	res = d.Dispatch(context.Background(), ev)
	assert.Equal(t, OutcomeDelivered, res.Outcome)
}

func TestDispatchDedupeExactlyOnce(t *testing.T) {
	a := &fakeChannel{name: "telegram"}
	d := newTestDispatcher([]Channel{a})

	ev := infoEvent("dup")
	first := d.Dispatch(context.Background(), ev)
	second := d.Dispatch(context.Background(), ev)

	assert.Equal(t, OutcomeDelivered, first.Outcome)
	assert.Equal(t, OutcomeDeduped, second.Outcome)
	assert.Equal(t, int32(1), a.calls, "窗口内同一事件只发一次")
	assert.Equal(t, first.HashKey, second.HashKey)
}

func TestDispatchRetryThenSuccess(t *testing.T) {
	a := &fakeChannel{name: "telegram", failures: 2}
	d := newTestDispatcher([]Channel{a})

	res := d.Dispatch(context.Background(), infoEvent("flaky"))
	assert.Equal(t, OutcomeDelivered, res.Outcome)
	assert.NoError(t, res.Delivery["telegram"])
	assert.Equal(t, int32(3), a.calls, "前两次失败后第三次成功")
}

func TestDispatchChannelIsolation(t *testing.T) {
	bad := &fakeChannel{name: "webhook", failures: 99}
	good := &fakeChannel{name: "telegram"}
	d := newTestDispatcher([]Channel{bad, good})

	res := d.Dispatch(context.Background(), infoEvent("partial"))
	assert.Equal(t, OutcomeDelivered, res.Outcome, "一个通道成功整体即送达")
	assert.Error(t, res.Delivery["webhook"])
	assert.NoError(t, res.Delivery["telegram"])
	assert.Equal(t, int32(3), bad.calls, "失败通道耗尽三次重试")
}

func TestDispatchAllChannelsFail(t *testing.T) {
	bad := &fakeChannel{name: "webhook", failures: 99}
	d := newTestDispatcher([]Channel{bad})

	res := d.Dispatch(context.Background(), infoEvent("down"))
	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.Error(t, res.Delivery["webhook"])
}

func TestRenderContainsFields(t *testing.T) {
	ev := Event{
		Kind:     "order",
		Severity: SeverityCritical,
		Symbol:   "ETHUSDT",
		Title:    "下单失败",
		Body:     "insufficient balance",
		Metadata: map[string]string{"retCode": "110007"},
		At:       time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	text := Render(ev)
	assert.Contains(t, text, "下单失败")
	assert.Contains(t, text, "ETHUSDT")
	assert.Contains(t, text, "110007")
	assert.Contains(t, text, "2025-06-01")
}

func TestRenderTruncatesOnRuneBoundary(t *testing.T) {
	ev := Event{
		Kind:     "signal",
		Severity: SeverityInfo,
		Title:    "超长告警",
		Body:     strings.Repeat("多字节字符截断测试", 200),
	}
	text := Render(ev)
	assert.LessOrEqual(t, len(text), maxMessageLen+len("..."))
	assert.True(t, strings.HasSuffix(text, "..."))
	assert.True(t, utf8.ValidString(text), "截断不能劈开多字节字符")
}
