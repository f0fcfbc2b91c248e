// Package orders turns player commands into task assignments. Each order
// validates its preconditions up front, plays the matching sound cue and
// assigns tasks; nothing here steps the simulation.
package orders

import (
	"errors"
	"fmt"

	"tilecraft.ai/internal/sim/catalogs"
	"tilecraft.ai/internal/sim/filter"
	"tilecraft.ai/internal/sim/geom"
	"tilecraft.ai/internal/sim/tasks"
	"tilecraft.ai/internal/sim/world"
)

// Sound cues.
const (
	CueMove           = "beep2"
	CueRouteMismatch  = "beep4"
	CueRouteSet       = "beep6"
	CueStructureError = "structureError"
	CueDump           = "dump"
)

// Move steers every vehicle in units to pos.
func Move(w *world.World, units []*world.Unit, pos geom.Position) error {
	if !w.Map().InBounds(pos) {
		return fmt.Errorf("%w: %s is off the map", world.ErrInvalidTarget, pos)
	}
	var errs []error
	for _, u := range units {
		errs = append(errs, u.AssignNow(tasks.NewSteer(pos)))
	}
	w.PlaySound(CueMove)
	return errors.Join(errs...)
}

// BuildStructure has a ConVec build structureType centred on cursor. The
// ConVec first drives to the cell diagonally past the footprint's far
// corner, then deploys. An empty structureType builds the kit the ConVec
// carries.
func BuildStructure(w *world.World, convec *world.Unit, structureType string, cursor geom.Position) (*world.Unit, error) {
	if !world.ConVecOnly.Accept(convec) {
		return nil, fmt.Errorf("%w: only ConVecs build structures", world.ErrIneligibleUnit)
	}
	if structureType == "" {
		if c := convec.Cargo(); c.Kind == world.CargoStructure {
			structureType = c.UnitType
		}
	}
	t, ok := w.Catalogs().Units.Get(structureType)
	if !ok {
		return nil, fmt.Errorf("%w: %q", world.ErrUnknownUnitType, structureType)
	}
	if !t.IsStructure() && !t.IsGuardPost() {
		return nil, fmt.Errorf("%w: %s is not a structure", world.ErrInvalidTarget, t.Name)
	}
	fp := t.Footprint
	pos := cursor.Subtract(fp.Center())
	parkPos := pos.Shift(fp.W, fp.H)
	m := w.Map()
	parkFree := m.InBounds(parkPos) && (m.GetUnit(parkPos) == nil || m.GetUnit(parkPos) == convec)
	if !m.CanPlaceUnit(pos, t) || !parkFree {
		w.PlaySound(CueStructureError)
		return nil, fmt.Errorf("%w: %s at %s", world.ErrCannotPlace, t.Name, pos)
	}

	kit, err := w.NewUnit(t.Name, convec.Owner())
	if err != nil {
		return nil, err
	}
	construct, err := tasks.NewConstruct(kit, pos)
	if err == nil {
		err = convec.AssignNow(construct)
	}
	if err == nil {
		err = convec.AssignNext(tasks.NewSteer(parkPos))
	}
	if err != nil {
		w.Discard(kit)
		return nil, err
	}
	return kit, nil
}

// MineRoute puts trucks on a shuttle between mine and smelter. Common and
// rare endpoints cannot be mixed.
func MineRoute(w *world.World, trucks []*world.Unit, mine, smelter *world.Unit) error {
	if mine == nil || smelter == nil {
		return fmt.Errorf("%w: mine route needs both endpoints", world.ErrInvalidTarget)
	}
	if mine.Type.Resource != smelter.Type.Resource {
		w.PlaySound(CueRouteMismatch)
		return fmt.Errorf("%w: %s cannot feed %s", world.ErrInvalidTarget, mine.Type.Name, smelter.Type.Name)
	}
	var errs []error
	for _, truck := range trucks {
		route, err := tasks.NewMineRoute(w, mine, smelter)
		if err != nil {
			return err
		}
		errs = append(errs, truck.AssignNow(route))
	}
	w.PlaySound(CueRouteSet)
	return errors.Join(errs...)
}

// Dock unloads a loaded truck into the smelter directly north of it.
func Dock(w *world.World, truck *world.Unit) error {
	if truck.IsCargoEmpty() {
		return fmt.Errorf("%w: truck %d carries nothing", world.ErrInvalidTarget, truck.ID)
	}
	smelter := w.Map().GetUnit(truck.Position().Shift(0, -1))
	if smelter == nil || smelter.Type.Role != catalogs.RoleSmelter {
		return fmt.Errorf("%w: no smelter north of truck %d", world.ErrInvalidTarget, truck.ID)
	}
	if smelter.IsDead() || smelter.IsDisabled() {
		return fmt.Errorf("%w: smelter %d is offline", world.ErrInvalidTarget, smelter.ID)
	}
	dock, err := tasks.NewDock(smelter, world.EmptyCargo)
	if err != nil {
		return err
	}
	return truck.AssignNow(dock)
}

// Mine loads an empty truck from the mine directly east of it.
func Mine(w *world.World, truck *world.Unit) error {
	if !truck.IsCargoEmpty() {
		return fmt.Errorf("%w: truck %d is already loaded", world.ErrInvalidTarget, truck.ID)
	}
	adj := truck.Position().Shift(1, 0)
	mine := w.Map().GetUnit(adj)
	if mine == nil || mine.Type.Role != catalogs.RoleMine {
		return fmt.Errorf("%w: no mine east of truck %d", world.ErrInvalidTarget, truck.ID)
	}
	ore, ok := w.Map().GetOre(adj)
	if !ok {
		return fmt.Errorf("%w: mine %d at %s", world.ErrMissingDeposit, mine.ID, adj)
	}
	if mine.IsDead() || mine.IsDisabled() {
		return fmt.Errorf("%w: mine %d is offline", world.ErrInvalidTarget, mine.ID)
	}
	task, err := tasks.NewMine(ore)
	if err != nil {
		return err
	}
	return truck.AssignNow(task)
}

// Dump has every loaded truck drop what it carries, abandoning its route.
func Dump(w *world.World, trucks []*world.Unit) error {
	var errs []error
	for _, truck := range trucks {
		if truck.IsCargoEmpty() {
			continue
		}
		w.PlaySound(CueDump)
		errs = append(errs, truck.Interrupt(tasks.NewDump()))
	}
	return errors.Join(errs...)
}

func SelfDestruct(w *world.World, units []*world.Unit) {
	for _, u := range units {
		w.SelfDestruct(u)
	}
}

func Kill(w *world.World, units []*world.Unit) {
	for _, u := range units {
		w.Kill(u)
	}
}

// Transfer hands units to another player.
func Transfer(w *world.World, units []*world.Unit, to *world.Player) error {
	if to == nil {
		return fmt.Errorf("%w: no such player", world.ErrUnknownPlayer)
	}
	for _, u := range units {
		if o := u.Owner(); o != nil && o.ID == to.ID {
			return fmt.Errorf("%w: unit %d already belongs to player %d", world.ErrInvalidTarget, u.ID, to.ID)
		}
	}
	for _, u := range units {
		w.Transfer(u, to)
	}
	return nil
}

func SpawnMeteor(w *world.World, pos geom.Position) error {
	if !w.Map().InBounds(pos) {
		return fmt.Errorf("%w: %s is off the map", world.ErrInvalidTarget, pos)
	}
	w.SpawnMeteor(pos)
	return nil
}

// Attack sends armed units after target.
func Attack(w *world.World, units []*world.Unit, target *world.Unit) error {
	var errs []error
	for _, u := range units {
		a, err := tasks.NewAttack(target)
		if err != nil {
			return err
		}
		errs = append(errs, u.AssignNow(a))
	}
	return errors.Join(errs...)
}

// Guard has armed units engage whatever matches the filter expression.
// Starflares treat the filter as a trigger and self-destruct instead.
func Guard(w *world.World, units []*world.Unit, src string) error {
	prog, err := filter.Compile(src)
	if err != nil {
		return fmt.Errorf("%w: %v", world.ErrInvalidTask, err)
	}
	var errs []error
	for _, u := range units {
		var task world.Task
		if u.Type.SplashRadius > 0 && u.Type.ReloadTicks == 0 {
			task, err = tasks.NewSelfDestructAttack(prog.Bind(u))
		} else {
			task, err = tasks.NewGuard(prog.Bind(u))
		}
		if err != nil {
			return err
		}
		errs = append(errs, u.AssignNow(task))
	}
	return errors.Join(errs...)
}

// Stop clears every unit's queue.
func Stop(units []*world.Unit) {
	for _, u := range units {
		u.Stop()
	}
}
