package world

import (
	"strings"

	"tilecraft.ai/internal/sim/catalogs"
)

// Filter is a side-effect free predicate over units. Filters decide which
// units may run a task and which units a task may target.
type Filter func(u *Unit) bool

func (f Filter) Accept(u *Unit) bool {
	if f == nil {
		return true
	}
	return u != nil && f(u)
}

func And(fs ...Filter) Filter {
	return func(u *Unit) bool {
		for _, f := range fs {
			if !f.Accept(u) {
				return false
			}
		}
		return true
	}
}

func Or(fs ...Filter) Filter {
	return func(u *Unit) bool {
		for _, f := range fs {
			if f.Accept(u) {
				return true
			}
		}
		return false
	}
}

func Not(f Filter) Filter {
	return func(u *Unit) bool { return !f.Accept(u) }
}

var (
	VehicleOnly   Filter = func(u *Unit) bool { return u.Type.IsVehicle() }
	StructureOnly Filter = func(u *Unit) bool { return u.Type.IsStructure() || u.Type.IsGuardPost() }
	TurretOnly    Filter = func(u *Unit) bool { return u.Type.HasTurret }
	ConVecOnly    Filter = func(u *Unit) bool { return u.Type.Role == catalogs.RoleConVec }
	TruckOnly     Filter = func(u *Unit) bool { return u.Type.Role == catalogs.RoleTruck }
	Mines         Filter = func(u *Unit) bool { return u.Type.Role == catalogs.RoleMine }
	Smelters      Filter = func(u *Unit) bool { return u.Type.Role == catalogs.RoleSmelter }
	Alive         Filter = func(u *Unit) bool { return !u.IsDead() }
)

// HostileTo accepts live units not owned by owner.
func HostileTo(owner *Player) Filter {
	return func(u *Unit) bool {
		if u.IsDead() {
			return false
		}
		o := u.Owner()
		if o == nil || owner == nil {
			return o != owner
		}
		return o.ID != owner.ID
	}
}

// OwnedBy accepts units of the given player.
func OwnedBy(owner *Player) Filter {
	return func(u *Unit) bool {
		o := u.Owner()
		return o != nil && owner != nil && o.ID == owner.ID
	}
}

// TypeNameContains mirrors selecting units by a fragment of their type name
// ("Common", "Smelter").
func TypeNameContains(fragment string) Filter {
	return func(u *Unit) bool { return strings.Contains(u.Type.Name, fragment) }
}
