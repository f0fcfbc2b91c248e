package protocol

// HELLO (client -> server). PlayerID 0 joins as a pure observer.
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ClientName      string `json:"client_name"`
	PlayerID        int    `json:"player_id,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	WorldID         string         `json:"world_id"`
	PlayerID        int            `json:"player_id,omitempty"`
	WorldParams     WorldParams    `json:"world_params"`
	Catalogs        CatalogDigests `json:"catalogs"`
}

type WorldParams struct {
	TickRateHz int `json:"tick_rate_hz"`
	Width      int `json:"width"`
	Height     int `json:"height"`
}

type CatalogDigests struct {
	UnitsDigest  string `json:"units_digest"`
	TuningDigest string `json:"tuning_digest,omitempty"`
}

// ORDER (client -> server). Which fields are required depends on Order.
type OrderMsg struct {
	Type            string  `json:"type"`
	ProtocolVersion string  `json:"protocol_version"`
	ReqID           string  `json:"req_id,omitempty"`
	Order           string  `json:"order"`
	Units           []int   `json:"units,omitempty"`
	Target          int     `json:"target,omitempty"`
	Pos             *[2]int `json:"pos,omitempty"`
	UnitType        string  `json:"unit_type,omitempty"`
	Filter          string  `json:"filter,omitempty"`
}

// ORDER_RESULT (server -> client)
type OrderResultMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ReqID           string `json:"req_id,omitempty"`
	OK              bool   `json:"ok"`
	Code            string `json:"code,omitempty"`
	Message         string `json:"message,omitempty"`
}

// FRAME (server -> client), one per tick.
type FrameMsg struct {
	Type            string        `json:"type"`
	ProtocolVersion string        `json:"protocol_version"`
	WorldID         string        `json:"world_id"`
	Tick            uint64        `json:"tick"`
	Digest          string        `json:"digest,omitempty"`
	Units           []UnitState   `json:"units"`
	Players         []PlayerState `json:"players,omitempty"`
	Events          []Event       `json:"events,omitempty"`
}

type UnitState struct {
	ID       int    `json:"id"`
	Type     string `json:"type"`
	Owner    int    `json:"owner,omitempty"`
	Pos      [2]int `json:"pos"`
	Dir      string `json:"dir,omitempty"`
	Activity string `json:"activity"`
	Frame    int    `json:"frame"`
	HP       int    `json:"hp"`
	Health   string `json:"health"`
	Cargo    string `json:"cargo,omitempty"`
	Task     string `json:"task,omitempty"`
	Queue    int    `json:"queue,omitempty"`
}

type PlayerState struct {
	ID        int            `json:"id"`
	Name      string         `json:"name"`
	Resources map[string]int `json:"resources,omitempty"`
}

// Event is a single simulation occurrence within a tick.
type Event struct {
	Tick   uint64  `json:"t"`
	Type   string  `json:"type"`
	Unit   int     `json:"unit,omitempty"`
	Target int     `json:"target,omitempty"`
	Pos    *[2]int `json:"pos,omitempty"`
	Task   string  `json:"task,omitempty"`
	Detail string  `json:"detail,omitempty"`
	Amount int     `json:"amount,omitempty"`
}
