// Package scenario loads starting positions: map size, players, ore, tubes,
// units and the orders issued on the first tick.
package scenario

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"tilecraft.ai/internal/protocol"
	"tilecraft.ai/internal/sim/geom"
	"tilecraft.ai/internal/sim/orders"
	"tilecraft.ai/internal/sim/tuning"
	"tilecraft.ai/internal/sim/world"
)

type Scenario struct {
	Name   string `yaml:"name"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`

	Players []PlayerSpec `yaml:"players"`
	Ore     []OreSpec    `yaml:"ore"`
	Tubes   [][2]int     `yaml:"tubes"`
	Units   []UnitSpec   `yaml:"units"`
	Orders  []OrderSpec  `yaml:"orders"`
}

type PlayerSpec struct {
	ID        int            `yaml:"id"`
	Name      string         `yaml:"name"`
	Hue       int            `yaml:"hue"`
	Resources map[string]int `yaml:"resources"`
}

type OreSpec struct {
	Pos      [2]int `yaml:"pos"`
	Resource string `yaml:"resource"`
	Load     int    `yaml:"load"`
}

// UnitSpec places one unit. Label lets orders refer to it before ids exist.
type UnitSpec struct {
	Label string `yaml:"label"`
	Type  string `yaml:"type"`
	Owner int    `yaml:"owner"`
	Pos   [2]int `yaml:"pos"`
	Dir   string `yaml:"dir"`
	// Cargo is a structure kit (ConVecs) or "<RESOURCE>:<amount>" (trucks).
	Cargo string `yaml:"cargo"`
}

// OrderSpec mirrors protocol.OrderMsg with unit labels in place of ids.
// At resolves to the origin of a labelled unit's occupied region.
type OrderSpec struct {
	Player   int      `yaml:"player"`
	Order    string   `yaml:"order"`
	Units    []string `yaml:"units"`
	Target   string   `yaml:"target"`
	Pos      *[2]int  `yaml:"pos"`
	At       string   `yaml:"at"`
	UnitType string   `yaml:"unit_type"`
	Filter   string   `yaml:"filter"`
}

func Load(path string) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Scenario
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return &s, nil
}

func (s *Scenario) validate() error {
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("width and height must be > 0")
	}
	players := map[int]bool{}
	for _, p := range s.Players {
		if p.ID <= 0 {
			return fmt.Errorf("player id must be > 0")
		}
		if players[p.ID] {
			return fmt.Errorf("duplicate player %d", p.ID)
		}
		players[p.ID] = true
	}
	labels := map[string]bool{}
	for i, u := range s.Units {
		if u.Type == "" {
			return fmt.Errorf("units[%d]: missing type", i)
		}
		if u.Owner != 0 && !players[u.Owner] {
			return fmt.Errorf("units[%d]: unknown owner %d", i, u.Owner)
		}
		if u.Label != "" {
			if labels[u.Label] {
				return fmt.Errorf("units[%d]: duplicate label %q", i, u.Label)
			}
			labels[u.Label] = true
		}
	}
	for i, o := range s.Orders {
		if !players[o.Player] {
			return fmt.Errorf("orders[%d]: unknown player %d", i, o.Player)
		}
		refs := append([]string{o.Target, o.At}, o.Units...)
		for _, l := range refs {
			if l != "" && !labels[l] {
				return fmt.Errorf("orders[%d]: unknown unit label %q", i, l)
			}
		}
	}
	return nil
}

// WorldConfig sizes a world for the scenario.
func (s *Scenario) WorldConfig(id string, t tuning.Tuning) world.WorldConfig {
	return world.WorldConfig{ID: id, Width: s.Width, Height: s.Height, Tuning: t}
}

// Apply populates w and returns the scenario's orders as envelopes for the
// first tick. w must be empty.
func (s *Scenario) Apply(w *world.World) ([]world.OrderEnvelope, error) {
	for _, ps := range s.Players {
		p := world.NewPlayer(ps.ID, ps.Name, ps.Hue)
		keys := make([]string, 0, len(ps.Resources))
		for k := range ps.Resources {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			p.AddResource(world.ResourceType(k), ps.Resources[k])
		}
		w.AddPlayer(p)
	}
	m := w.Map()
	for _, o := range s.Ore {
		m.PutOre(geom.Pos(o.Pos[0], o.Pos[1]), world.Ore{Resource: world.ResourceType(o.Resource), Load: o.Load})
	}
	for _, t := range s.Tubes {
		m.PutTube(geom.Pos(t[0], t[1]))
	}

	byLabel := map[string]*world.Unit{}
	for i, us := range s.Units {
		var owner *world.Player
		if us.Owner != 0 {
			owner, _ = w.Player(us.Owner)
		}
		u, err := w.Spawn(us.Type, owner, geom.Pos(us.Pos[0], us.Pos[1]))
		if err != nil {
			return nil, fmt.Errorf("units[%d] %s: %w", i, us.Type, err)
		}
		if us.Dir != "" {
			u.SetDirection(geom.ParseDirection(us.Dir))
		}
		if us.Cargo != "" {
			c, err := parseCargo(us.Cargo)
			if err != nil {
				return nil, fmt.Errorf("units[%d]: %w", i, err)
			}
			u.SetCargo(c)
		}
		if us.Label != "" {
			byLabel[us.Label] = u
		}
	}

	envs := make([]world.OrderEnvelope, 0, len(s.Orders))
	for _, o := range s.Orders {
		msg := protocol.OrderMsg{
			Type:            protocol.TypeOrder,
			ProtocolVersion: protocol.Version,
			Order:           o.Order,
			Pos:             o.Pos,
			UnitType:        o.UnitType,
			Filter:          o.Filter,
		}
		for _, l := range o.Units {
			msg.Units = append(msg.Units, byLabel[l].ID)
		}
		if o.Target != "" {
			msg.Target = byLabel[o.Target].ID
		}
		if o.At != "" {
			at := byLabel[o.At].Occupied().Origin().ToArray()
			msg.Pos = &at
		}
		envs = append(envs, orders.Envelope(o.Player, msg, nil))
	}
	return envs, nil
}

func parseCargo(s string) (world.Cargo, error) {
	res, amount, ok := strings.Cut(s, ":")
	if !ok {
		return world.ConVecCargo(s), nil
	}
	n, err := strconv.Atoi(amount)
	if err != nil || n <= 0 {
		return world.Cargo{}, fmt.Errorf("bad cargo %q", s)
	}
	return world.OreCargo(world.ResourceType(res), n), nil
}
