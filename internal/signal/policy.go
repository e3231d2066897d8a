package signal

// 源系统的信号装配与执行评分各自带一套权重常量，二者口径不同、
// 无统一依据，这里保留为两个可独立测试的命名策略（不合并）。

// AssemblerPolicy 是 0~100 加法计分的权重集（装配器策略）。
type AssemblerPolicy struct {
	TrendPoints     float64            `mapstructure:"trend_points" yaml:"trend_points"`
	RSIMaxPoints    float64            `mapstructure:"rsi_max_points" yaml:"rsi_max_points"`
	RSIFullDistance float64            `mapstructure:"rsi_full_distance" yaml:"rsi_full_distance"`
	VolumeMaxPoints float64            `mapstructure:"volume_max_points" yaml:"volume_max_points"`
	VolumeFullEdge  float64            `mapstructure:"volume_full_edge" yaml:"volume_full_edge"`
	PullbackPoints  float64            `mapstructure:"pullback_points" yaml:"pullback_points"`
	PullbackBandPct float64            `mapstructure:"pullback_band_pct" yaml:"pullback_band_pct"`
	ATRPoints       float64            `mapstructure:"atr_points" yaml:"atr_points"`
	ATRMinPct       float64            `mapstructure:"atr_min_pct" yaml:"atr_min_pct"`
	ATRMaxPct       float64            `mapstructure:"atr_max_pct" yaml:"atr_max_pct"`
	MinVolumeRatio  float64            `mapstructure:"min_volume_ratio" yaml:"min_volume_ratio"`
	MinScore        float64            `mapstructure:"min_score" yaml:"min_score"`
	StopATRMult     float64            `mapstructure:"stop_atr_mult" yaml:"stop_atr_mult"`
	TargetATRMult   float64            `mapstructure:"target_atr_mult" yaml:"target_atr_mult"`
	TimeframeWeight map[string]float64 `mapstructure:"timeframe_weight" yaml:"timeframe_weight"`
}

// ExecutionPolicy 是 [0,1] 执行现实性评分的权重集（执行策略）。
type ExecutionPolicy struct {
	ConfidenceWeight  float64 `mapstructure:"confidence_weight" yaml:"confidence_weight"`
	RiskRewardWeight  float64 `mapstructure:"risk_reward_weight" yaml:"risk_reward_weight"`
	RegimeWeight      float64 `mapstructure:"regime_weight" yaml:"regime_weight"`
	PenaltyWeight     float64 `mapstructure:"penalty_weight" yaml:"penalty_weight"`
	RiskRewardDivisor float64 `mapstructure:"risk_reward_divisor" yaml:"risk_reward_divisor"`
	SpreadBpsDivisor  float64 `mapstructure:"spread_bps_divisor" yaml:"spread_bps_divisor"`
	DepthUsdtDivisor  float64 `mapstructure:"depth_usdt_divisor" yaml:"depth_usdt_divisor"`
	TrendFitWeight    float64 `mapstructure:"trend_fit_weight" yaml:"trend_fit_weight"`
	PullbackFitWeight float64 `mapstructure:"pullback_fit_weight" yaml:"pullback_fit_weight"`
	SpreadPenalty     float64 `mapstructure:"spread_penalty" yaml:"spread_penalty"`
	DepthPenalty      float64 `mapstructure:"depth_penalty" yaml:"depth_penalty"`
}

// Policies 汇总两个命名策略。
type Policies struct {
	Assembler AssemblerPolicy `mapstructure:"assembler" yaml:"assembler"`
	Execution ExecutionPolicy `mapstructure:"execution" yaml:"execution"`
}

// DefaultAssemblerPolicy 返回与源规则一致的默认权重。
func DefaultAssemblerPolicy() AssemblerPolicy {
	return AssemblerPolicy{
		TrendPoints:     20,
		RSIMaxPoints:    15,
		RSIFullDistance: 10,
		VolumeMaxPoints: 10,
		VolumeFullEdge:  0.5,
		PullbackPoints:  5,
		PullbackBandPct: 0.02,
		ATRPoints:       5,
		ATRMinPct:       0.01,
		ATRMaxPct:       0.05,
		MinVolumeRatio:  1.2,
		MinScore:        75,
		StopATRMult:     2,
		TargetATRMult:   3,
		TimeframeWeight: map[string]float64{
			"1m": 0.8, "5m": 1.0, "15m": 1.2, "1h": 1.5, "4h": 1.8,
		},
	}
}

func DefaultExecutionPolicy() ExecutionPolicy {
	return ExecutionPolicy{
		ConfidenceWeight:  0.55,
		RiskRewardWeight:  0.20,
		RegimeWeight:      0.15,
		PenaltyWeight:     0.10,
		RiskRewardDivisor: 3,
		SpreadBpsDivisor:  20,
		DepthUsdtDivisor:  2000,
		TrendFitWeight:    0.2,
		PullbackFitWeight: 0.2,
		SpreadPenalty:     0.35,
		DepthPenalty:      0.25,
	}
}

func DefaultPolicies() Policies {
	return Policies{
		Assembler: DefaultAssemblerPolicy(),
		Execution: DefaultExecutionPolicy(),
	}
}

// Weight 返回周期权重，未配置的周期按 1.0 处理。
func (p AssemblerPolicy) Weight(timeframe string) float64 {
	if w, ok := p.TimeframeWeight[timeframe]; ok && w > 0 {
		return w
	}
	return 1.0
}

// Clamp01 约束到 [0,1]，两套策略的所有子项组合前都先经过它。
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
