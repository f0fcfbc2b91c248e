package world

import "sort"

type Player struct {
	ID   int
	Name string
	Hue  int

	resources map[ResourceType]int
}

func NewPlayer(id int, name string, hue int) *Player {
	return &Player{ID: id, Name: name, Hue: hue, resources: map[ResourceType]int{}}
}

func (p *Player) AddResource(res ResourceType, amount int) {
	if p.resources == nil {
		p.resources = map[ResourceType]int{}
	}
	p.resources[res] += amount
}

func (p *Player) Resource(res ResourceType) int { return p.resources[res] }

// Resources returns a copy of the stockpile.
func (p *Player) Resources() map[ResourceType]int {
	out := make(map[ResourceType]int, len(p.resources))
	for k, v := range p.resources {
		out[k] = v
	}
	return out
}

func (w *World) AddPlayer(p *Player) {
	w.players[p.ID] = p
}

func (w *World) Player(id int) (*Player, bool) {
	p, ok := w.players[id]
	return p, ok
}

// Players lists players ordered by id.
func (w *World) Players() []*Player {
	out := make([]*Player, 0, len(w.players))
	for _, p := range w.players {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
