package world

import "tilecraft.ai/internal/sim/tuning"

type WorldConfig struct {
	ID     string
	Width  int
	Height int

	// InboxSize bounds queued orders between ticks.
	InboxSize int

	Tuning tuning.Tuning
}

func (c *WorldConfig) applyDefaults() {
	if c.ID == "" {
		c.ID = "MAIN"
	}
	if c.Width <= 0 {
		c.Width = 64
	}
	if c.Height <= 0 {
		c.Height = 64
	}
	if c.InboxSize <= 0 {
		c.InboxSize = 1024
	}
	d := tuning.Defaults()
	t := &c.Tuning
	if t.TickRateHz <= 0 {
		t.TickRateHz = d.TickRateHz
	}
	if t.BuildCostPerFrame <= 0 {
		t.BuildCostPerFrame = d.BuildCostPerFrame
	}
	if t.FrameTicks <= 0 {
		t.FrameTicks = d.FrameTicks
	}
	if t.SplashDelayTicks < 0 {
		t.SplashDelayTicks = d.SplashDelayTicks
	}
	if t.AttackTravelTicks < 0 {
		t.AttackTravelTicks = d.AttackTravelTicks
	}
	if t.MeteorDamage <= 0 {
		t.MeteorDamage = d.MeteorDamage
	}
	if t.MeteorRadius <= 0 {
		t.MeteorRadius = d.MeteorRadius
	}
	if t.MaxNestedSteps <= 0 {
		t.MaxNestedSteps = d.MaxNestedSteps
	}
}
