package world

import "fmt"

type ResourceType string

const (
	CommonOre ResourceType = "COMMON_ORE"
	RareOre   ResourceType = "RARE_ORE"
	Food      ResourceType = "FOOD"
)

type CargoKind int

const (
	CargoEmpty CargoKind = iota
	CargoOre
	CargoStructure
)

// Cargo is the payload a vehicle carries: nothing, a truckload of ore, or
// the kit for one structure (ConVecs).
type Cargo struct {
	Kind     CargoKind
	Resource ResourceType
	Amount   int
	UnitType string
}

var EmptyCargo = Cargo{}

func OreCargo(res ResourceType, amount int) Cargo {
	return Cargo{Kind: CargoOre, Resource: res, Amount: amount}
}

func ConVecCargo(unitType string) Cargo {
	return Cargo{Kind: CargoStructure, UnitType: unitType}
}

func (c Cargo) IsEmpty() bool { return c.Kind == CargoEmpty }

func (c Cargo) String() string {
	switch c.Kind {
	case CargoOre:
		return fmt.Sprintf("%s:%d", c.Resource, c.Amount)
	case CargoStructure:
		return "KIT:" + c.UnitType
	default:
		return ""
	}
}

// Ore is a resource deposit under a map cell. Load is the amount one truck
// carries away per mining trip.
type Ore struct {
	Resource ResourceType
	Load     int
}
