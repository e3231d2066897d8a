package app

import (
	"fmt"
	"strings"
	"time"
)

type StartupSummary struct {
	Env        string
	Source     string
	Symbols    []string
	Timeframes []string
	Interval   string
	Paper      bool
	AutoTrade  bool
	HTTPAddr   string
}

func (s *StartupSummary) Print() {
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("%*s\n", 40+len("启动配置摘要 (STARTUP SUMMARY)")/2, "启动配置摘要 (STARTUP SUMMARY)")
	fmt.Println(strings.Repeat("=", 80))

	fmt.Println("[扫描范围 (SCAN SCOPE)]")
	fmt.Printf("  监控币种: %s\n", formatList(s.Symbols))
	fmt.Printf("  订阅周期: %s\n", formatList(s.Timeframes))
	fmt.Printf("  扫描间隔: %s\n", s.Interval)
	fmt.Println()

	fmt.Println("[执行与服务 (EXECUTION & SERVICES)]")
	fmt.Printf("  行情源: %s\n", s.Source)
	fmt.Printf("  交易模式: %s\n", tradingMode(s.Paper, s.AutoTrade))
	fmt.Printf("  状态接口: %s\n", s.HTTPAddr)
	fmt.Printf("  环境: %s\n", s.Env)
	fmt.Printf("  启动时间: %s\n", time.Now().UTC().Format(time.RFC3339))
	fmt.Println(strings.Repeat("=", 80))
}

func tradingMode(paper, auto bool) string {
	switch {
	case !auto:
		return "仅信号（不下单）"
	case paper:
		return "纸面自动交易"
	default:
		return "实盘自动交易"
	}
}

func timeSeconds(n int) time.Duration {
	if n < 0 {
		n = 0
	}
	return time.Duration(n) * time.Second
}

func formatList(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}
