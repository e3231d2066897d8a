package signal

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"krill/internal/logger"

	"github.com/fsnotify/fsnotify"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// 策略 profile 文件的 JSON Schema：字段全部可选，但类型必须正确，
// 未知字段直接拒绝，避免拼错的权重静默回落到默认值。
const policySchemaJSON = `{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "assembler": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "trend_points":      {"type": "number", "minimum": 0},
        "rsi_max_points":    {"type": "number", "minimum": 0},
        "rsi_full_distance": {"type": "number", "exclusiveMinimum": 0},
        "volume_max_points": {"type": "number", "minimum": 0},
        "volume_full_edge":  {"type": "number", "exclusiveMinimum": 0},
        "pullback_points":   {"type": "number", "minimum": 0},
        "pullback_band_pct": {"type": "number", "exclusiveMinimum": 0},
        "atr_points":        {"type": "number", "minimum": 0},
        "atr_min_pct":       {"type": "number", "minimum": 0},
        "atr_max_pct":       {"type": "number", "minimum": 0},
        "min_volume_ratio":  {"type": "number", "minimum": 0},
        "min_score":         {"type": "number", "minimum": 0, "maximum": 100},
        "stop_atr_mult":     {"type": "number", "exclusiveMinimum": 0},
        "target_atr_mult":   {"type": "number", "exclusiveMinimum": 0},
        "timeframe_weight":  {"type": "object", "additionalProperties": {"type": "number", "exclusiveMinimum": 0}}
      }
    },
    "execution": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "confidence_weight":   {"type": "number", "minimum": 0, "maximum": 1},
        "risk_reward_weight":  {"type": "number", "minimum": 0, "maximum": 1},
        "regime_weight":       {"type": "number", "minimum": 0, "maximum": 1},
        "penalty_weight":      {"type": "number", "minimum": 0, "maximum": 1},
        "risk_reward_divisor": {"type": "number", "exclusiveMinimum": 0},
        "spread_bps_divisor":  {"type": "number", "exclusiveMinimum": 0},
        "depth_usdt_divisor":  {"type": "number", "exclusiveMinimum": 0},
        "trend_fit_weight":    {"type": "number", "minimum": 0, "maximum": 1},
        "pullback_fit_weight": {"type": "number", "minimum": 0, "maximum": 1},
        "spread_penalty":      {"type": "number", "minimum": 0, "maximum": 1},
        "depth_penalty":       {"type": "number", "minimum": 0, "maximum": 1}
      }
    }
  }
}`

// PolicySnapshot 对外暴露的只读策略快照。
type PolicySnapshot struct {
	Version  int64
	LoadedAt time.Time
	Policies Policies
}

// Registry 管理两套评分策略：默认值 + 可选 profile 文件覆盖，
// 文件变更时热重载（仿照配置中心的 watch 语义）。
type Registry struct {
	path   string
	schema *jsonschema.Schema

	mu       sync.RWMutex
	snapshot PolicySnapshot

	watcher *viper.Viper
}

// NewRegistry 构建策略注册表。path 为空时仅使用默认策略，不监听文件。
func NewRegistry(path string) (*Registry, error) {
	schema, err := jsonschema.CompileString("policies.schema.json", policySchemaJSON)
	if err != nil {
		return nil, fmt.Errorf("编译策略 schema 失败: %w", err)
	}
	r := &Registry{
		path:   strings.TrimSpace(path),
		schema: schema,
		snapshot: PolicySnapshot{
			Version:  1,
			LoadedAt: time.Now(),
			Policies: DefaultPolicies(),
		},
	}
	if r.path == "" {
		return r, nil
	}
	if err := r.reload(); err != nil {
		return nil, err
	}
	v := viper.New()
	v.SetConfigFile(r.path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取策略 profile 失败: %w", err)
	}
	v.OnConfigChange(func(fsnotify.Event) {
		if err := r.reload(); err != nil {
			logger.Errorf("策略 profile 重载失败（沿用旧快照）: %v", err)
			return
		}
		logger.Infof("策略 profile 已重载: %s", r.path)
	})
	v.WatchConfig()
	r.watcher = v
	return r, nil
}

// Snapshot 返回当前策略快照（值拷贝，调用方可安全持有）。
func (r *Registry) Snapshot() PolicySnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot
}

func (r *Registry) reload() error {
	raw, err := os.ReadFile(r.path)
	if err != nil {
		return err
	}
	var node any
	if err := yaml.Unmarshal(raw, &node); err != nil {
		return fmt.Errorf("解析策略 profile 失败: %w", err)
	}
	if node == nil {
		node = map[string]any{}
	}
	// jsonschema 校验要求 JSON 原生类型，经一次 JSON 往返归一化。
	jsonRaw, err := json.Marshal(node)
	if err != nil {
		return err
	}
	var jsonNode any
	if err := json.Unmarshal(jsonRaw, &jsonNode); err != nil {
		return err
	}
	if err := r.schema.Validate(jsonNode); err != nil {
		return fmt.Errorf("策略 profile 未通过 schema 校验: %w", err)
	}

	merged := DefaultPolicies()
	if err := yaml.Unmarshal(raw, &merged); err != nil {
		return fmt.Errorf("反序列化策略 profile 失败: %w", err)
	}
	r.mu.Lock()
	r.snapshot = PolicySnapshot{
		Version:  r.snapshot.Version + 1,
		LoadedAt: time.Now(),
		Policies: merged,
	}
	r.mu.Unlock()
	return nil
}
