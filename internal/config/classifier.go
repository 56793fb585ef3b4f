// Package config loads and validates classification configuration. All
// thresholds, weights and unit divisors live here; no package hardcodes its
// own copy of a constant.
package config

import (
	"fmt"
	"math"
	"os"

	yaml "gopkg.in/yaml.v2"
)

// ClassifierConfig is the full classification configuration.
type ClassifierConfig struct {
	Weights    EvidenceWeights `yaml:"weights"`
	Thresholds PoolThresholds  `yaml:"thresholds"`
	Flow       FlowScaling     `yaml:"flow"`
	Traps      TrapThresholds  `yaml:"traps"`
	Validation Validation      `yaml:"validation"`
}

// EvidenceWeights allocates risk weight across the three evidence
// categories. Must sum to 1.0 within tolerance.
type EvidenceWeights struct {
	Technical float64 `yaml:"technical"`
	FundFlow  float64 `yaml:"fund_flow"`
	Sentiment float64 `yaml:"market_sentiment"`
}

// PoolThresholds bound the three pools on the risk-score axis
// (lower = safer). Scores below OpportunityMax are opportunities, scores at
// or above BlacklistMin are blacklisted, the band between is the watchlist.
// A score exactly at either boundary goes to the riskier pool.
type PoolThresholds struct {
	OpportunityMax float64 `yaml:"opportunity_max"`
	BlacklistMin   float64 `yaml:"blacklist_min"`
}

// FlowScaling fixes the single yuan-to-score conversion. YuanPerPoint is
// how many yuan of main net inflow move the flow sub-score by one point.
type FlowScaling struct {
	YuanPerPoint float64 `yaml:"yuan_per_point"`
}

// TrapThresholds parameterize the independently evaluated trap flags.
type TrapThresholds struct {
	VolumeRatioHigh  float64 `yaml:"volume_ratio_high"`  // volume spike floor
	FollowThroughMin float64 `yaml:"follow_through_min"` // pct_chg fraction a spike must reach
	FadeFraction     float64 `yaml:"fade_fraction"`      // close below open by this fraction
}

// Validation bounds accepted configurations.
type Validation struct {
	WeightSumTolerance float64 `yaml:"weight_sum_tolerance"`
	MinWeight          float64 `yaml:"min_weight"`
	MaxWeight          float64 `yaml:"max_weight"`
}

// Loader handles loading and validation of classifier configuration.
type Loader struct {
	config *ClassifierConfig
}

// NewLoader creates an empty loader; call LoadDefault or LoadFromFile.
func NewLoader() *Loader {
	return &Loader{}
}

// LoadFromFile loads configuration from a YAML file.
func (l *Loader) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	var cfg ClassifierConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("failed to parse YAML config: %w", err)
	}
	applyDefaults(&cfg)
	if err := validateConfig(&cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	l.config = &cfg
	return nil
}

// LoadDefault loads the built-in default configuration.
func (l *Loader) LoadDefault() error {
	cfg := Default()
	if err := validateConfig(&cfg); err != nil {
		return fmt.Errorf("default config invalid: %w", err)
	}
	l.config = &cfg
	return nil
}

// Config returns the loaded configuration.
func (l *Loader) Config() (*ClassifierConfig, error) {
	if l.config == nil {
		return nil, fmt.Errorf("no configuration loaded")
	}
	return l.config, nil
}

// Default returns the built-in configuration.
func Default() ClassifierConfig {
	return ClassifierConfig{
		Weights: EvidenceWeights{
			Technical: 0.40,
			FundFlow:  0.40,
			Sentiment: 0.20,
		},
		Thresholds: PoolThresholds{
			OpportunityMax: 35,
			BlacklistMin:   70,
		},
		Flow: FlowScaling{
			// One point per million yuan of main net inflow. Yuan, not
			// thousand-yuan: divisor changes happen here and only here.
			YuanPerPoint: 1_000_000,
		},
		Traps: TrapThresholds{
			VolumeRatioHigh:  3.0,
			FollowThroughMin: 0.01,
			FadeFraction:     0.02,
		},
		Validation: Validation{
			WeightSumTolerance: 0.001,
			MinWeight:          0.05,
			MaxWeight:          0.80,
		},
	}
}

func applyDefaults(cfg *ClassifierConfig) {
	def := Default()
	if cfg.Flow.YuanPerPoint == 0 {
		cfg.Flow = def.Flow
	}
	if cfg.Traps == (TrapThresholds{}) {
		cfg.Traps = def.Traps
	}
	if cfg.Validation == (Validation{}) {
		cfg.Validation = def.Validation
	}
}

func validateConfig(cfg *ClassifierConfig) error {
	sum := cfg.Weights.Technical + cfg.Weights.FundFlow + cfg.Weights.Sentiment
	if math.Abs(sum-1.0) > cfg.Validation.WeightSumTolerance {
		return fmt.Errorf("evidence weights sum to %.4f, want 1.0 ± %.4f", sum, cfg.Validation.WeightSumTolerance)
	}
	for name, w := range map[string]float64{
		"technical":        cfg.Weights.Technical,
		"fund_flow":        cfg.Weights.FundFlow,
		"market_sentiment": cfg.Weights.Sentiment,
	} {
		if w < cfg.Validation.MinWeight || w > cfg.Validation.MaxWeight {
			return fmt.Errorf("weight %s=%.4f outside [%.2f, %.2f]", name, w, cfg.Validation.MinWeight, cfg.Validation.MaxWeight)
		}
	}
	t := cfg.Thresholds
	if !(0 < t.OpportunityMax && t.OpportunityMax < t.BlacklistMin && t.BlacklistMin <= 100) {
		return fmt.Errorf("thresholds must satisfy 0 < opportunity_max < blacklist_min <= 100, got %.1f/%.1f", t.OpportunityMax, t.BlacklistMin)
	}
	if cfg.Flow.YuanPerPoint <= 0 {
		return fmt.Errorf("flow.yuan_per_point must be positive, got %.2f", cfg.Flow.YuanPerPoint)
	}
	return nil
}
