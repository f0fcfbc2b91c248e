package tasks

import (
	"fmt"

	"tilecraft.ai/internal/protocol"
	"tilecraft.ai/internal/sim/catalogs"
	"tilecraft.ai/internal/sim/geom"
	"tilecraft.ai/internal/sim/world"
)

// DepositCell is the cell of the ore deposit a mine sits on.
func DepositCell(mine *world.Unit) geom.Position { return mine.Occupied().Origin() }

// MineRoute shuttles a truck between a mine and a smelter forever: load at
// the mine dock, unload at the smelter dock, repeat. It never completes on
// its own; the route lives until interrupted or an endpoint is destroyed.
type MineRoute struct {
	mine    *world.Unit
	smelter *world.Unit
}

func NewMineRoute(w *world.World, mine, smelter *world.Unit) (*MineRoute, error) {
	if mine == nil || mine.Type.Role != catalogs.RoleMine {
		return nil, fmt.Errorf("%w: mine route needs a mine", world.ErrInvalidTarget)
	}
	if smelter == nil || smelter.Type.Role != catalogs.RoleSmelter {
		return nil, fmt.Errorf("%w: mine route needs a smelter", world.ErrInvalidTarget)
	}
	if !w.Map().HasResourceDeposit(DepositCell(mine)) {
		return nil, fmt.Errorf("%w: mine %d at %s", world.ErrMissingDeposit, mine.ID, DepositCell(mine))
	}
	return &MineRoute{mine: mine, smelter: smelter}, nil
}

func (r *MineRoute) Kind() string                { return string(KindMineRoute) }
func (r *MineRoute) Exclusive() bool             { return true }
func (r *MineRoute) Eligible(u *world.Unit) bool { return world.TruckOnly.Accept(u) }
func (r *MineRoute) Mine() *world.Unit           { return r.mine }
func (r *MineRoute) Smelter() *world.Unit        { return r.smelter }

func (r *MineRoute) Step(w *world.World, u *world.Unit) {
	if r.mine.IsDead() || r.smelter.IsDead() {
		w.Emit(protocol.Event{Type: "ROUTE_BROKEN", Unit: u.ID})
		finish(u, r)
		return
	}
	var next world.Task
	if u.IsCargoEmpty() {
		if dock := r.mine.DockPosition(); u.Position() != dock {
			next = NewSteer(dock)
		} else {
			ore, ok := w.Map().GetOre(DepositCell(r.mine))
			if !ok {
				w.Fatalf("mine %d lost its deposit at %s", r.mine.ID, DepositCell(r.mine))
				return
			}
			mine, err := NewMine(ore)
			if err != nil {
				w.Fatalf("mine %d: %v", r.mine.ID, err)
				return
			}
			next = mine
		}
	} else if c := u.Cargo(); c.Kind != world.CargoOre || !acceptsOre(r.smelter, c.Resource) {
		// The smelter would refuse this load.
		next = NewDump()
	} else {
		if dock := r.smelter.DockPosition(); u.Position() != dock {
			next = NewSteer(dock)
		} else {
			dock, err := NewDock(r.smelter, world.EmptyCargo)
			if err != nil {
				return
			}
			next = dock
		}
	}
	if err := u.AssignNext(next); err != nil {
		return
	}
	u.Step(w)
}
