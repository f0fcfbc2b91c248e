package tasks

import (
	"fmt"

	"tilecraft.ai/internal/protocol"
	"tilecraft.ai/internal/sim/catalogs"
	"tilecraft.ai/internal/sim/world"
)

// animate advances the unit's frame every frameTicks ticks and reports
// whether the activity's animation has played through.
type animate struct {
	ticks int
}

func (a *animate) advance(w *world.World, u *world.Unit, activity world.Activity) bool {
	if a.ticks == 0 {
		u.SetActivity(activity)
		u.ResetAnimationFrame()
	}
	a.ticks++
	if a.ticks%w.Config().Tuning.FrameTicks == 0 {
		u.IncrementAnimationFrame()
	}
	return u.AnimationFrame() >= u.Type.FrameCount(string(activity))
}

// Mine loads a truck with one load of ore from the deposit it stands at.
type Mine struct {
	ore  world.Ore
	anim animate
}

func NewMine(ore world.Ore) (*Mine, error) {
	if ore.Load <= 0 || ore.Resource == "" {
		return nil, fmt.Errorf("%w: mine needs a resource and a positive load", world.ErrInvalidTask)
	}
	return &Mine{ore: ore}, nil
}

func (m *Mine) Kind() string                { return string(KindMine) }
func (m *Mine) Exclusive() bool             { return true }
func (m *Mine) Eligible(u *world.Unit) bool { return world.TruckOnly.Accept(u) }

func (m *Mine) Step(w *world.World, u *world.Unit) {
	if !m.anim.advance(w, u, world.ActivityMine) {
		return
	}
	u.SetCargo(world.OreCargo(m.ore.Resource, m.ore.Load))
	u.SetActivity(world.ActivityMove)
	u.ResetAnimationFrame()
	w.Emit(protocol.Event{Type: "MINE", Unit: u.ID, Detail: string(m.ore.Resource), Amount: m.ore.Load})
	u.CompleteTask(m)
}

// Dock unloads a truck into a smelter, crediting ore to the truck's owner,
// and leaves the truck carrying after.
type Dock struct {
	smelter *world.Unit
	after   world.Cargo
	anim    animate
}

func NewDock(smelter *world.Unit, after world.Cargo) (*Dock, error) {
	if smelter == nil || smelter.Type.Role != catalogs.RoleSmelter {
		return nil, fmt.Errorf("%w: dock target is not a smelter", world.ErrInvalidTarget)
	}
	return &Dock{smelter: smelter, after: after}, nil
}

func (d *Dock) Kind() string                { return string(KindDock) }
func (d *Dock) Exclusive() bool             { return true }
func (d *Dock) Eligible(u *world.Unit) bool { return world.TruckOnly.Accept(u) }

func (d *Dock) Step(w *world.World, u *world.Unit) {
	if d.smelter.IsDead() || d.smelter.IsDisabled() {
		w.Emit(protocol.Event{Type: "DOCK_ABORT", Unit: u.ID, Target: d.smelter.ID})
		finish(u, d)
		return
	}
	if !d.anim.advance(w, u, world.ActivityDock) {
		return
	}
	cargo := u.Cargo()
	if cargo.Kind == world.CargoOre && acceptsOre(d.smelter, cargo.Resource) {
		if owner := u.Owner(); owner != nil {
			owner.AddResource(cargo.Resource, cargo.Amount)
		}
		w.Emit(protocol.Event{Type: "DOCK", Unit: u.ID, Target: d.smelter.ID, Detail: string(cargo.Resource), Amount: cargo.Amount})
		u.SetCargo(d.after)
	} else {
		w.Emit(protocol.Event{Type: "DOCK_REJECT", Unit: u.ID, Target: d.smelter.ID, Detail: cargo.String()})
	}
	u.SetActivity(world.ActivityMove)
	u.ResetAnimationFrame()
	u.CompleteTask(d)
}

func acceptsOre(smelter *world.Unit, res world.ResourceType) bool {
	return smelter.Type.Resource == "" || smelter.Type.Resource == string(res)
}

// Dump empties whatever the truck carries.
type Dump struct {
	anim animate
}

func NewDump() *Dump { return &Dump{} }

func (d *Dump) Kind() string                { return string(KindDump) }
func (d *Dump) Exclusive() bool             { return true }
func (d *Dump) Eligible(u *world.Unit) bool { return world.TruckOnly.Accept(u) }

func (d *Dump) Step(w *world.World, u *world.Unit) {
	if !d.anim.advance(w, u, world.ActivityDump) {
		return
	}
	w.Emit(protocol.Event{Type: "DUMP", Unit: u.ID, Detail: u.Cargo().String()})
	u.SetCargo(world.EmptyCargo)
	finish(u, d)
}
