package signal

import "time"

type Direction string

const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
)

// Candidate 是信号装配器输出的原始方向性候选。
// 门控/评分阶段只读取它并产出新记录，不在原地修改。
type Candidate struct {
	Symbol    string
	Timeframe string
	Direction Direction

	EntryPrice float64
	StopLoss   float64
	TakeProfit float64

	RawScore    float64 // 0~100，装配器加权得分
	AtrPct      float64 // ATR / price
	TrendFit    float64 // [0,1]
	PullbackFit float64 // [0,1]

	SpreadBps          float64
	OrderbookDepthUsdt float64 // 0 表示未知
	RiskReward         float64

	CreatedAt time.Time
}
