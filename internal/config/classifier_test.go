package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefault(t *testing.T) {
	loader := NewLoader()
	require.NoError(t, loader.LoadDefault())

	cfg, err := loader.Config()
	require.NoError(t, err)
	assert.Equal(t, 1_000_000.0, cfg.Flow.YuanPerPoint, "one point per million yuan of inflow")
	assert.Less(t, cfg.Thresholds.OpportunityMax, cfg.Thresholds.BlacklistMin)
}

func TestConfig_BeforeLoadFails(t *testing.T) {
	_, err := NewLoader().Config()
	require.Error(t, err)
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
weights:
  technical: 0.50
  fund_flow: 0.30
  market_sentiment: 0.20
thresholds:
  opportunity_max: 30
  blacklist_min: 65
flow:
  yuan_per_point: 2000000
`)
	loader := NewLoader()
	require.NoError(t, loader.LoadFromFile(path))

	cfg, err := loader.Config()
	require.NoError(t, err)
	assert.Equal(t, 0.50, cfg.Weights.Technical)
	assert.Equal(t, 2_000_000.0, cfg.Flow.YuanPerPoint)
	// Omitted sections pick up defaults.
	assert.Equal(t, Default().Traps, cfg.Traps)
}

func TestLoadFromFile_RejectsBadWeightSum(t *testing.T) {
	path := writeConfig(t, `
weights:
  technical: 0.50
  fund_flow: 0.50
  market_sentiment: 0.20
thresholds:
  opportunity_max: 30
  blacklist_min: 65
`)
	err := NewLoader().LoadFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sum")
}

func TestLoadFromFile_RejectsInvertedThresholds(t *testing.T) {
	path := writeConfig(t, `
weights:
  technical: 0.40
  fund_flow: 0.40
  market_sentiment: 0.20
thresholds:
  opportunity_max: 70
  blacklist_min: 35
`)
	err := NewLoader().LoadFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "thresholds")
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	err := NewLoader().LoadFromFile("does/not/exist.yaml")
	require.Error(t, err)
}

func TestShippedConfigMatchesDefaults(t *testing.T) {
	path := filepath.Join("..", "..", "conf", "classifier.yaml")
	if _, err := os.Stat(path); err != nil {
		t.Skip("conf/classifier.yaml not present")
	}
	loader := NewLoader()
	require.NoError(t, loader.LoadFromFile(path))

	cfg, err := loader.Config()
	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg, "shipped config drifted from built-in defaults")
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "classifier.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
