package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	TickRateHz int `yaml:"tick_rate_hz" json:"tick_rate_hz"`

	// Construction: a structure's build task lasts BUILD frames x cost per frame ticks.
	BuildCostPerFrame int `yaml:"build_cost_per_frame" json:"build_cost_per_frame"`
	// Ticks spent per animation frame for mine/dock/dump work.
	FrameTicks int `yaml:"frame_ticks" json:"frame_ticks"`

	SplashDelayTicks  int `yaml:"splash_delay_ticks" json:"splash_delay_ticks"`
	AttackTravelTicks int `yaml:"attack_travel_ticks" json:"attack_travel_ticks"`
	MeteorDamage      int `yaml:"meteor_damage" json:"meteor_damage"`
	MeteorRadius      int `yaml:"meteor_radius" json:"meteor_radius"`

	// Guard against runaway assignNext/step recursion within one tick.
	MaxNestedSteps int `yaml:"max_nested_steps" json:"max_nested_steps"`
}

func Defaults() Tuning {
	return Tuning{
		TickRateHz:        10,
		BuildCostPerFrame: 50,
		FrameTicks:        1,
		SplashDelayTicks:  3,
		AttackTravelTicks: 2,
		MeteorDamage:      250,
		MeteorRadius:      2,
		MaxNestedSteps:    8,
	}
}

// Load reads path over Defaults(); keys missing from the file keep their default.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	if t.TickRateHz <= 0 {
		return fmt.Errorf("tick_rate_hz must be > 0")
	}
	if t.BuildCostPerFrame <= 0 {
		return fmt.Errorf("build_cost_per_frame must be > 0")
	}
	if t.FrameTicks <= 0 {
		return fmt.Errorf("frame_ticks must be > 0")
	}
	if t.MaxNestedSteps <= 0 {
		return fmt.Errorf("max_nested_steps must be > 0")
	}
	return nil
}
