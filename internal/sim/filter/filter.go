// Package filter compiles target-selection expressions into world filters.
//
// An expression sees the acting unit as Self and the candidate as Unit:
//
//	Hostile() && Unit.Vehicle && Unit.Health != "GREEN"
//	Unit.Role == "MINE" && Distance() <= 6
package filter

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"tilecraft.ai/internal/sim/geom"
	"tilecraft.ai/internal/sim/world"
)

// UnitView is the read-only projection of a unit exposed to expressions.
type UnitView struct {
	ID        int
	Type      string
	Kind      string
	Role      string
	Owner     int
	HP        int
	MaxHP     int
	Health    string
	Activity  string
	Cargo     string
	Vehicle   bool
	Structure bool
	Turret    bool
	Dead      bool
	X         int
	Y         int
}

// Env is evaluated once per candidate.
type Env struct {
	Self UnitView
	Unit UnitView
}

func (e Env) Hostile() bool  { return !e.Unit.Dead && e.Unit.Owner != e.Self.Owner }
func (e Env) Friendly() bool { return e.Unit.Owner == e.Self.Owner }

func (e Env) Distance() int {
	return geom.GridDistance(geom.Pos(e.Self.X, e.Self.Y), geom.Pos(e.Unit.X, e.Unit.Y))
}

func View(u *world.Unit) UnitView {
	if u == nil {
		return UnitView{}
	}
	v := UnitView{
		ID:        u.ID,
		Type:      u.Type.Name,
		Kind:      string(u.Type.Kind),
		Role:      u.Type.Role,
		HP:        u.HP(),
		MaxHP:     u.Type.MaxHP,
		Health:    string(u.HealthBracket()),
		Activity:  string(u.Activity()),
		Cargo:     u.Cargo().String(),
		Vehicle:   u.Type.IsVehicle(),
		Structure: u.Type.IsStructure() || u.Type.IsGuardPost(),
		Turret:    u.Type.HasTurret,
		Dead:      u.IsDead(),
		X:         u.Position().X,
		Y:         u.Position().Y,
	}
	if o := u.Owner(); o != nil {
		v.Owner = o.ID
	}
	return v
}

// Program is a compiled filter expression. It is safe to bind many times.
type Program struct {
	src     string
	program *vm.Program
}

func Compile(src string) (*Program, error) {
	prog, err := expr.Compile(src, expr.Env(Env{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile filter %q: %w", src, err)
	}
	return &Program{src: src, program: prog}, nil
}

func (p *Program) Source() string { return p.src }

// Bind fixes the acting unit and returns a filter over candidates. A
// candidate that makes the expression fail at runtime is rejected.
func (p *Program) Bind(self *world.Unit) world.Filter {
	return func(u *world.Unit) bool {
		out, err := vm.Run(p.program, Env{Self: View(self), Unit: View(u)})
		if err != nil {
			return false
		}
		ok, _ := out.(bool)
		return ok
	}
}

// Match evaluates the expression once for a self/candidate pair.
func (p *Program) Match(self, u *world.Unit) bool { return p.Bind(self)(u) }
