package signal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePolicyFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policies.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRegistryDefaultsWithoutPath(t *testing.T) {
	r, err := NewRegistry("")
	require.NoError(t, err)

	snap := r.Snapshot()
	assert.Equal(t, int64(1), snap.Version)
	assert.Equal(t, DefaultPolicies(), snap.Policies, "无 profile 文件时全用默认策略")
}

func TestRegistryAppliesProfileOverrides(t *testing.T) {
	path := writePolicyFile(t, `
assembler:
  min_score: 80
  stop_atr_mult: 1.5
execution:
  confidence_weight: 0.6
`)
	r, err := NewRegistry(path)
	require.NoError(t, err)

	snap := r.Snapshot()
	assert.Equal(t, 80.0, snap.Policies.Assembler.MinScore)
	assert.Equal(t, 1.5, snap.Policies.Assembler.StopATRMult)
	assert.Equal(t, 0.6, snap.Policies.Execution.ConfidenceWeight)
	// 未覆盖的键沿用默认值
	assert.Equal(t, DefaultAssemblerPolicy().TrendPoints, snap.Policies.Assembler.TrendPoints)
	assert.Equal(t, DefaultExecutionPolicy().RiskRewardWeight, snap.Policies.Execution.RiskRewardWeight)
}

func TestRegistrySchemaRejectsBadProfile(t *testing.T) {
	t.Run("未知键", func(t *testing.T) {
		path := writePolicyFile(t, `
assembler:
  min_scroe: 80
`)
		_, err := NewRegistry(path)
		require.Error(t, err, "拼错的键必须被拒绝，不能静默回落默认值")
		assert.Contains(t, err.Error(), "schema")
	})

	t.Run("类型错误", func(t *testing.T) {
		path := writePolicyFile(t, `
assembler:
  min_score: "很高"
`)
		_, err := NewRegistry(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "schema")
	})
}

func TestRegistryBadReloadKeepsSnapshot(t *testing.T) {
	path := writePolicyFile(t, `
assembler:
  min_score: 80
`)
	r, err := NewRegistry(path)
	require.NoError(t, err)
	before := r.Snapshot()

	require.NoError(t, os.WriteFile(path, []byte("assembler:\n  min_scroe: 99\n"), 0o644))
	require.Error(t, r.reload(), "坏 profile 重载必须报错")

	after := r.Snapshot()
	assert.Equal(t, before.Version, after.Version, "失败的重载不推进版本")
	assert.Equal(t, 80.0, after.Policies.Assembler.MinScore, "沿用旧快照")
}
