package gate

import (
	"sort"

	"krill/internal/signal"
)

type Grade string

const (
	GradeAPlus Grade = "A+"
	GradeA     Grade = "A"
	GradeB     Grade = "B"
	GradeC     Grade = "C"
)

// 自动交易安全底线：独立于可配置阈值，任何配置都不能放宽。
const (
	autoTradeMinScore      = 0.8
	autoTradeMinRiskReward = 2.0
	autoTradeMaxSpreadBps  = 15.0
)

// Graded 是终态信号记录：候选 + 评分/评级，写入后不再变更。
type Graded struct {
	signal.Candidate

	ExecutionScore float64
	Grade          Grade
	AutoTradeable  bool
	GateReason     string // 非空表示被硬门控拒绝
}

// ExecutionScore 计算 [0,1] 执行现实性评分。
// 所有子项先各自 clamp 到 [0,1] 再按执行策略权重合成。
func ExecutionScore(c *signal.Candidate, pol signal.ExecutionPolicy) float64 {
	confNorm := signal.Clamp01(c.RawScore / 100)
	rrNorm := signal.Clamp01(c.RiskReward / pol.RiskRewardDivisor)
	spreadNorm := signal.Clamp01(c.SpreadBps / pol.SpreadBpsDivisor)
	liqNorm := signal.Clamp01(c.OrderbookDepthUsdt / pol.DepthUsdtDivisor)
	regimeFit := pol.TrendFitWeight*signal.Clamp01(c.TrendFit) +
		pol.PullbackFitWeight*signal.Clamp01(c.PullbackFit)
	execPenalty := pol.SpreadPenalty*spreadNorm + pol.DepthPenalty*(1-liqNorm)

	return signal.Clamp01(pol.ConfidenceWeight*confNorm +
		pol.RiskRewardWeight*rrNorm +
		pol.RegimeWeight*regimeFit -
		pol.PenaltyWeight*execPenalty)
}

// GradeFor 是评分到评级的纯阶梯函数（阈值不可配置，保证单调）。
func GradeFor(score float64) Grade {
	switch {
	case score >= 0.90:
		return GradeAPlus
	case score >= 0.80:
		return GradeA
	case score >= 0.65:
		return GradeB
	default:
		return GradeC
	}
}

// AutoTradeable 判定是否允许自动下单（硬性底线，见包内常量）。
func AutoTradeable(grade Grade, score, riskReward, spreadBps float64) bool {
	if grade != GradeAPlus && grade != GradeA {
		return false
	}
	return score >= autoTradeMinScore &&
		riskReward >= autoTradeMinRiskReward &&
		spreadBps <= autoTradeMaxSpreadBps
}

// Evaluate 组合两阶段：硬门控 + 评分/评级。
// 门控未通过时仍返回带 GateReason 的记录供审计，AutoTradeable 恒为 false。
func Evaluate(c *signal.Candidate, th Thresholds, pol signal.ExecutionPolicy, winRate WinRateLookup) Graded {
	g := Graded{Candidate: *c}
	ok, reason := Check(c, th, winRate)
	if !ok {
		g.GateReason = reason
		g.Grade = GradeC
		return g
	}
	g.ExecutionScore = ExecutionScore(c, pol)
	g.Grade = GradeFor(g.ExecutionScore)
	g.AutoTradeable = AutoTradeable(g.Grade, g.ExecutionScore, c.RiskReward, c.SpreadBps)
	return g
}

// Sort 按评分降序排列，评分相同时时间新者在前。
func Sort(signals []Graded) {
	sort.SliceStable(signals, func(i, j int) bool {
		if signals[i].ExecutionScore != signals[j].ExecutionScore {
			return signals[i].ExecutionScore > signals[j].ExecutionScore
		}
		return signals[i].CreatedAt.After(signals[j].CreatedAt)
	})
}
