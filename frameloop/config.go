package frameloop

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Config describes the cadence of a [Loop].
type Config struct {
	// TickRate is the target number of Update ticks per second.
	TickRate float64 `yaml:"tick_rate"`

	// FixedStep is the FixedUpdate interval in seconds. FixedUpdate
	// ticks are driven by an accumulator, so they stay aligned to this
	// step regardless of frame jitter.
	FixedStep float64 `yaml:"fixed_step"`

	// MaxCatchUp bounds how many FixedUpdate ticks a single frame may
	// run when the loop falls behind. Past the bound, the backlog is
	// dropped rather than spiraling.
	MaxCatchUp int `yaml:"max_catch_up"`
}

// DefaultConfig returns the cadence used when a field is left unset:
// 60 Hz frames with a 20 ms fixed step.
func DefaultConfig() Config {
	return Config{
		TickRate:   60,
		FixedStep:  0.02,
		MaxCatchUp: 5,
	}
}

// ParseConfig unmarshals a yaml document over [DefaultConfig] and
// validates the result.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("frameloop: parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the cadence is runnable.
func (c Config) Validate() error {
	if c.TickRate <= 0 {
		return fmt.Errorf("frameloop: tick_rate must be positive, got %v", c.TickRate)
	}
	if c.FixedStep <= 0 {
		return fmt.Errorf("frameloop: fixed_step must be positive, got %v", c.FixedStep)
	}
	if c.MaxCatchUp < 1 {
		return fmt.Errorf("frameloop: max_catch_up must be at least 1, got %d", c.MaxCatchUp)
	}
	return nil
}
