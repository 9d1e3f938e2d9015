package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/echoframe-backend/internal/logger"
	"github.com/yungbote/echoframe-backend/internal/types"
	"github.com/yungbote/echoframe-backend/internal/utils"
)

// Unlimited is the sentinel for tiers without a daily ceiling. It is
// never represented as a large finite number.
const Unlimited = -1

type TierLimits struct {
	Free       int `yaml:"free"`
	Trial      int `yaml:"trial"`
	Premium    int `yaml:"premium"`
	Enterprise int `yaml:"enterprise"`
}

// Resonance holds the canonical scoring constants. Historical revisions
// of this product shipped divergent values (0.25/0.3/0.4 thresholds);
// this set is the single configuration used everywhere.
type Resonance struct {
	PrimaryWeight       float64 `yaml:"primary_weight"`
	SecondaryWeight     float64 `yaml:"secondary_weight"`
	LengthBonusDivisor  float64 `yaml:"length_bonus_divisor"`
	LengthBonusCap      float64 `yaml:"length_bonus_cap"`
	ActivationThreshold float64 `yaml:"activation_threshold"`
}

// Thresholds gates the persisted analysis fields on resonance strength.
// A meaningful moment bumps the being's counter; wisdom extraction is a
// lower bar that only flags the conversation for the background pass.
type Thresholds struct {
	MeaningfulMoment float64 `yaml:"meaningful_moment"`
	WisdomExtraction float64 `yaml:"wisdom_extraction"`
}

type Model struct {
	Name              string  `yaml:"name"`
	Temperature       float64 `yaml:"temperature"`
	MaxTokens         int     `yaml:"max_tokens"`
	CostCentsPer1KTok float64 `yaml:"cost_cents_per_1k_tokens"`
}

type Config struct {
	Tiers         TierLimits `yaml:"tier_daily_limits"`
	Resonance     Resonance  `yaml:"resonance"`
	Thresholds    Thresholds `yaml:"strength_thresholds"`
	Model         Model      `yaml:"model"`
	MaxMessageLen int        `yaml:"max_message_len"`
	HistoryWindow int        `yaml:"history_window"`
}

func defaults() *Config {
	return &Config{
		Tiers: TierLimits{
			Free:       10,
			Trial:      25,
			Premium:    Unlimited,
			Enterprise: Unlimited,
		},
		Resonance: Resonance{
			PrimaryWeight:       0.2,
			SecondaryWeight:     0.1,
			LengthBonusDivisor:  200,
			LengthBonusCap:      0.1,
			ActivationThreshold: 0.25,
		},
		Thresholds: Thresholds{
			MeaningfulMoment: 0.7,
			WisdomExtraction: 0.6,
		},
		Model: Model{
			Name:              "gpt-4",
			Temperature:       0.8,
			MaxTokens:         500,
			CostCentsPer1KTok: 3.0,
		},
		MaxMessageLen: 2000,
		HistoryWindow: 3,
	}
}

// Load resolves the config in three layers: built-in defaults, then an
// optional YAML file (ECHOFRAME_CONFIG_PATH), then env overrides.
func Load(log *logger.Logger) (*Config, error) {
	cfg := defaults()

	path := utils.GetEnv("ECHOFRAME_CONFIG_PATH", "", log)
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.Tiers.Free = utils.GetEnvAsInt("FREE_TIER_DAILY_LIMIT", cfg.Tiers.Free, log)
	cfg.Tiers.Trial = utils.GetEnvAsInt("TRIAL_TIER_DAILY_LIMIT", cfg.Tiers.Trial, log)
	cfg.Model.Name = utils.GetEnv("CONSCIOUSNESS_MODEL", cfg.Model.Name, log)
	cfg.Model.Temperature = utils.GetEnvAsFloat("CONSCIOUSNESS_TEMPERATURE", cfg.Model.Temperature, log)
	cfg.Model.MaxTokens = utils.GetEnvAsInt("MAX_TOKENS_PER_RESPONSE", cfg.Model.MaxTokens, log)
	cfg.Resonance.ActivationThreshold = utils.GetEnvAsFloat("RESONANCE_ACTIVATION_THRESHOLD", cfg.Resonance.ActivationThreshold, log)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Resonance.ActivationThreshold < 0 || c.Resonance.ActivationThreshold > 1 {
		return fmt.Errorf("resonance activation threshold must be within [0,1], got %v", c.Resonance.ActivationThreshold)
	}
	if c.Thresholds.MeaningfulMoment < 0 || c.Thresholds.MeaningfulMoment > 1 {
		return fmt.Errorf("meaningful moment threshold must be within [0,1], got %v", c.Thresholds.MeaningfulMoment)
	}
	if c.Thresholds.WisdomExtraction < 0 || c.Thresholds.WisdomExtraction > 1 {
		return fmt.Errorf("wisdom extraction threshold must be within [0,1], got %v", c.Thresholds.WisdomExtraction)
	}
	if c.MaxMessageLen <= 0 {
		return fmt.Errorf("max message length must be positive, got %d", c.MaxMessageLen)
	}
	if c.HistoryWindow < 0 {
		return fmt.Errorf("history window must be non-negative, got %d", c.HistoryWindow)
	}
	return nil
}

// DailyLimitFor returns the ceiling for a tier, Unlimited for tiers
// without one. Unknown tiers fall back to the free ceiling.
func (c *Config) DailyLimitFor(tier types.SubscriptionTier) int {
	switch tier {
	case types.TierPremium:
		return c.Tiers.Premium
	case types.TierEnterprise:
		return c.Tiers.Enterprise
	case types.TierTrial:
		return c.Tiers.Trial
	case types.TierFree:
		return c.Tiers.Free
	default:
		return c.Tiers.Free
	}
}
