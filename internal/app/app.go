package app

import (
	"context"
	"fmt"

	krcfg "krill/internal/config"
	"krill/internal/scanner"
	"krill/internal/scheduler"
	"krill/internal/store"
	statushttp "krill/internal/transport/http/status"

	"golang.org/x/sync/errgroup"
)

// App 负责应用级编排：加载配置→初始化依赖→启动扫描循环与状态服务。
type App struct {
	cfg     *krcfg.Config
	db      store.Store
	scanner *scanner.Scanner
	httpSrv *statushttp.Server
	Summary *StartupSummary
}

// NewApp 根据配置构建应用对象（不启动）。
func NewApp(cfg *krcfg.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	return buildAppWithWire(context.Background(), cfg)
}

// Run 启动扫描调度与状态服务，直到 ctx 取消。
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}
	if a.Summary != nil {
		a.Summary.Print()
	}
	if a.scanner == nil {
		return fmt.Errorf("scanner not initialized")
	}

	group, ctx := errgroup.WithContext(ctx)

	if a.httpSrv != nil {
		group.Go(func() error {
			if err := a.httpSrv.Start(ctx); err != nil {
				return fmt.Errorf("status http server error: %w", err)
			}
			return nil
		})
	}

	group.Go(func() error {
		defer a.close()
		interval, ok := scheduler.ParseIntervalDuration(a.cfg.Scan.Interval)
		if !ok {
			return fmt.Errorf("invalid scan interval: %s", a.cfg.Scan.Interval)
		}
		offset := timeSeconds(a.cfg.Scan.OffsetSeconds)
		sched := scheduler.NewAlignedScheduler(ctx, interval, offset)
		sched.RunImmediately = true
		sched.Start(func() {
			a.scanner.RunCycle(ctx)
		})
		return nil
	})

	return group.Wait()
}

func (a *App) close() {
	if a.db != nil {
		_ = a.db.Close()
	}
}

// Scanner exposes the underlying scanner instance (for testing/replay harnesses).
func (a *App) Scanner() *scanner.Scanner {
	if a == nil {
		return nil
	}
	return a.scanner
}
