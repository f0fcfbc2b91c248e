package orders

import (
	"errors"
	"fmt"

	"tilecraft.ai/internal/protocol"
	"tilecraft.ai/internal/sim/geom"
	"tilecraft.ai/internal/sim/world"
)

var ErrNotOwner = errors.New("unit not owned by player")

// Envelope wraps a decoded ORDER message for the world inbox. Unit ids are
// resolved on the world goroutine when the order is applied.
func Envelope(playerID int, msg protocol.OrderMsg, result chan error) world.OrderEnvelope {
	return world.OrderEnvelope{
		PlayerID: playerID,
		Order:    msg.Order,
		Result:   result,
		Msg:      &msg,
		Apply: func(w *world.World) error {
			return Apply(w, playerID, msg)
		},
	}
}

// Apply executes msg on behalf of playerID.
func Apply(w *world.World, playerID int, msg protocol.OrderMsg) error {
	units, err := ownedUnits(w, playerID, msg.Units)
	if err != nil {
		return err
	}
	var pos geom.Position
	if msg.Pos != nil {
		pos = geom.Pos(msg.Pos[0], msg.Pos[1])
	}

	switch msg.Order {
	case "MOVE":
		return Move(w, units, pos)
	case "BUILD_STRUCTURE":
		if len(units) != 1 {
			return fmt.Errorf("%w: build needs exactly one ConVec", world.ErrInvalidTask)
		}
		_, err := BuildStructure(w, units[0], msg.UnitType, pos)
		return err
	case "MINE_ROUTE":
		mine, err := targetUnit(w, msg.Target)
		if err != nil {
			return err
		}
		smelter, err := targetAt(w, msg.Pos)
		if err != nil {
			return err
		}
		return MineRoute(w, units, mine, smelter)
	case "DOCK", "MINE":
		if len(units) != 1 {
			return fmt.Errorf("%w: %s needs exactly one truck", world.ErrInvalidTask, msg.Order)
		}
		if msg.Order == "DOCK" {
			return Dock(w, units[0])
		}
		return Mine(w, units[0])
	case "DUMP":
		return Dump(w, units)
	case "SELF_DESTRUCT":
		SelfDestruct(w, units)
		return nil
	case "KILL":
		Kill(w, units)
		return nil
	case "TRANSFER":
		to, ok := w.Player(msg.Target)
		if !ok {
			return fmt.Errorf("%w: %d", world.ErrUnknownPlayer, msg.Target)
		}
		return Transfer(w, units, to)
	case "SPAWN_METEOR":
		return SpawnMeteor(w, pos)
	case "ATTACK":
		if msg.Filter != "" {
			return Guard(w, units, msg.Filter)
		}
		target, err := targetUnit(w, msg.Target)
		if err != nil {
			return err
		}
		return Attack(w, units, target)
	case "STOP":
		Stop(units)
		return nil
	default:
		return fmt.Errorf("%w: unknown order %q", world.ErrInvalidTask, msg.Order)
	}
}

func ownedUnits(w *world.World, playerID int, ids []int) ([]*world.Unit, error) {
	out := make([]*world.Unit, 0, len(ids))
	for _, id := range ids {
		u, ok := w.Unit(id)
		if !ok {
			return nil, fmt.Errorf("%w: unit %d", world.ErrInvalidTarget, id)
		}
		if o := u.Owner(); o == nil || o.ID != playerID {
			return nil, fmt.Errorf("%w: unit %d", ErrNotOwner, id)
		}
		out = append(out, u)
	}
	return out, nil
}

func targetUnit(w *world.World, id int) (*world.Unit, error) {
	u, ok := w.Unit(id)
	if !ok || !u.IsPlaced() {
		return nil, fmt.Errorf("%w: unit %d", world.ErrInvalidTarget, id)
	}
	return u, nil
}

func targetAt(w *world.World, pos *[2]int) (*world.Unit, error) {
	if pos == nil {
		return nil, fmt.Errorf("%w: missing position", world.ErrInvalidTarget)
	}
	u := w.Map().GetUnit(geom.Pos(pos[0], pos[1]))
	if u == nil {
		return nil, fmt.Errorf("%w: nothing at (%d,%d)", world.ErrInvalidTarget, pos[0], pos[1])
	}
	return u, nil
}

// Code maps an order error to its protocol error code.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotOwner):
		return protocol.ErrNoPermission
	case errors.Is(err, world.ErrIneligibleUnit):
		return protocol.ErrIneligible
	case errors.Is(err, world.ErrMissingDeposit):
		return protocol.ErrMissingDeposit
	case errors.Is(err, world.ErrUnknownUnitType):
		return protocol.ErrUnknownType
	case errors.Is(err, world.ErrCannotPlace):
		return protocol.ErrBlocked
	case errors.Is(err, world.ErrInvalidTarget), errors.Is(err, world.ErrUnknownPlayer):
		return protocol.ErrInvalidTarget
	case errors.Is(err, world.ErrInvalidTask):
		return protocol.ErrBadRequest
	default:
		return protocol.ErrInternal
	}
}
