// File: internal/config/humanoid_config.go
// This file defines the HumanoidConfig struct, which tunes the pacing of
// simulated user input: inter-key delays, click hold times and pointer jitter.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// HumanoidConfig holds the parameters of the input pacing model.
type HumanoidConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Typing cadence. Delays are drawn from a normal distribution and
	// clamped at KeyDelayMinMs.
	KeyDelayMeanMs   float64 `mapstructure:"key_delay_mean_ms" yaml:"key_delay_mean_ms"`
	KeyDelayStdDevMs float64 `mapstructure:"key_delay_stddev_ms" yaml:"key_delay_stddev_ms"`
	KeyDelayMinMs    float64 `mapstructure:"key_delay_min_ms" yaml:"key_delay_min_ms"`

	ClickHoldMinMs int `mapstructure:"click_hold_min_ms" yaml:"click_hold_min_ms"`
	ClickHoldMaxMs int `mapstructure:"click_hold_max_ms" yaml:"click_hold_max_ms"`

	// JitterPx is the maximum pointer offset from an element's center.
	JitterPx float64 `mapstructure:"jitter_px" yaml:"jitter_px"`

	// Seed makes the model deterministic when non-zero.
	Seed int64 `mapstructure:"seed" yaml:"seed"`
}

func setHumanoidDefaults(v *viper.Viper) {
	v.SetDefault("humanoid.enabled", true)
	v.SetDefault("humanoid.key_delay_mean_ms", 100.0)
	v.SetDefault("humanoid.key_delay_stddev_ms", 28.0)
	v.SetDefault("humanoid.key_delay_min_ms", 35.0)
	v.SetDefault("humanoid.click_hold_min_ms", 40)
	v.SetDefault("humanoid.click_hold_max_ms", 110)
	v.SetDefault("humanoid.jitter_px", 3.0)
	v.SetDefault("humanoid.seed", 0)
}

// Validate checks the humanoid configuration.
func (h *HumanoidConfig) Validate() error {
	if h.KeyDelayMinMs < 0 || h.KeyDelayMeanMs < 0 || h.KeyDelayStdDevMs < 0 {
		return fmt.Errorf("key delay parameters must not be negative")
	}
	if h.ClickHoldMinMs < 0 || h.ClickHoldMinMs > h.ClickHoldMaxMs {
		return fmt.Errorf("click_hold_min_ms (%d) must be between 0 and click_hold_max_ms (%d)", h.ClickHoldMinMs, h.ClickHoldMaxMs)
	}
	if h.JitterPx < 0 {
		return fmt.Errorf("jitter_px must not be negative")
	}
	return nil
}
