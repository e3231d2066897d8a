package notifier

import "context"

// Channel 是单个告警通道。实现只负责发一次，
// 重试和退避统一由 Dispatcher 处理。
type Channel interface {
	Name() string
	Send(ctx context.Context, text string) error
}
