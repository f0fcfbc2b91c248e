package catalogs

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"tilecraft.ai/internal/sim/geom"
)

//go:embed units.schema.json
var unitsSchemaJSON string

type Kind string

const (
	KindVehicle   Kind = "VEHICLE"
	KindStructure Kind = "STRUCTURE"
	KindGuardPost Kind = "GUARD_POST"
)

// Roles select the order-issuing behaviours a unit type supports.
const (
	RoleConVec        = "CONVEC"
	RoleTruck         = "TRUCK"
	RoleMine          = "MINE"
	RoleSmelter       = "SMELTER"
	RoleCommandCenter = "COMMAND_CENTER"
	RoleFactory       = "FACTORY"
	RoleTube          = "TUBE"
)

type Catalogs struct {
	Units  UnitCatalog
	Digest string
}

type UnitCatalog struct {
	Names  []string
	ByName map[string]*UnitType
}

// UnitType is shared by every unit of that type. Units never own a footprint.
type UnitType struct {
	Name     string
	Kind     Kind
	Role     string
	Resource string

	MaxHP        int
	AttackRange  int
	Damage       int
	ReloadTicks  int
	SplashRadius int
	HasTurret    bool
	Connectable  bool
	NeedsTubes   bool

	Footprint geom.Footprint
	Frames    map[string]int
}

func (t *UnitType) IsStructure() bool { return t.Kind == KindStructure }
func (t *UnitType) IsGuardPost() bool { return t.Kind == KindGuardPost }
func (t *UnitType) IsVehicle() bool   { return t.Kind == KindVehicle }

// FrameCount is the animation length for an activity; 1 when undefined.
func (t *UnitType) FrameCount(activity string) int {
	if t == nil {
		return 1
	}
	if n := t.Frames[activity]; n > 0 {
		return n
	}
	return 1
}

func (c *UnitCatalog) Get(name string) (*UnitType, bool) {
	t, ok := c.ByName[name]
	return t, ok
}

type unitFile struct {
	Units []unitDef `yaml:"units"`
}

type unitDef struct {
	Name         string         `yaml:"name"`
	Kind         string         `yaml:"kind"`
	Role         string         `yaml:"role"`
	Resource     string         `yaml:"resource"`
	MaxHP        int            `yaml:"max_hp"`
	AttackRange  int            `yaml:"attack_range"`
	Damage       int            `yaml:"damage"`
	ReloadTicks  int            `yaml:"reload_ticks"`
	SplashRadius int            `yaml:"splash_radius"`
	HasTurret    bool           `yaml:"has_turret"`
	Connectable  bool           `yaml:"connectable"`
	NeedsTubes   bool           `yaml:"needs_tubes"`
	Footprint    *footprintDef  `yaml:"footprint"`
	Frames       map[string]int `yaml:"frames"`
}

type footprintDef struct {
	W     int      `yaml:"w"`
	H     int      `yaml:"h"`
	Inner [4]int   `yaml:"inner"`
	Tubes [][2]int `yaml:"tubes"`
	Dock  *[2]int  `yaml:"dock"`
}

func Load(configDir string) (*Catalogs, error) {
	var c Catalogs
	raw, err := os.ReadFile(filepath.Join(configDir, "units.yaml"))
	if err != nil {
		return nil, err
	}
	if err := LoadUnits(raw, &c.Units); err != nil {
		return nil, err
	}
	c.Digest = sha256Hex(raw)
	return &c, nil
}

// LoadUnits validates raw YAML against the unit schema and decodes it into out.
func LoadUnits(raw []byte, out *UnitCatalog) error {
	if err := validateUnits(raw); err != nil {
		return fmt.Errorf("units.yaml: %w", err)
	}
	var f unitFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("units.yaml: %w", err)
	}
	out.ByName = map[string]*UnitType{}
	for _, d := range f.Units {
		t, err := d.toType()
		if err != nil {
			return fmt.Errorf("units.yaml: %s: %w", d.Name, err)
		}
		if _, dup := out.ByName[t.Name]; dup {
			return fmt.Errorf("units.yaml: duplicate unit %q", t.Name)
		}
		out.ByName[t.Name] = t
	}
	out.Names = make([]string, 0, len(out.ByName))
	for name := range out.ByName {
		out.Names = append(out.Names, name)
	}
	sort.Strings(out.Names)
	return nil
}

func (d unitDef) toType() (*UnitType, error) {
	t := &UnitType{
		Name:         d.Name,
		Kind:         Kind(strings.ToUpper(d.Kind)),
		Role:         strings.ToUpper(d.Role),
		Resource:     strings.ToUpper(d.Resource),
		MaxHP:        d.MaxHP,
		AttackRange:  d.AttackRange,
		Damage:       d.Damage,
		ReloadTicks:  d.ReloadTicks,
		SplashRadius: d.SplashRadius,
		HasTurret:    d.HasTurret,
		Connectable:  d.Connectable,
		NeedsTubes:   d.NeedsTubes,
		Footprint:    geom.Unit1x1,
		Frames:       map[string]int{},
	}
	for k, v := range d.Frames {
		t.Frames[strings.ToUpper(k)] = v
	}
	if fp := d.Footprint; fp != nil {
		t.Footprint = geom.Footprint{
			W:     fp.W,
			H:     fp.H,
			Inner: geom.Rect(fp.Inner[0], fp.Inner[1], fp.Inner[2], fp.Inner[3]),
		}
		for _, tb := range fp.Tubes {
			t.Footprint.Tubes = append(t.Footprint.Tubes, geom.Pos(tb[0], tb[1]))
		}
		if fp.Dock != nil {
			dock := geom.Pos(fp.Dock[0], fp.Dock[1])
			t.Footprint.Dock = &dock
		}
	}
	if !t.Footprint.Valid() {
		return nil, fmt.Errorf("invalid footprint %+v", t.Footprint)
	}
	if t.Kind == KindVehicle && (t.Footprint.W != 1 || t.Footprint.H != 1) {
		return nil, fmt.Errorf("vehicles must have a 1x1 footprint")
	}
	return t, nil
}

var unitsSchema = mustCompileSchema("units.schema.json", unitsSchemaJSON)

func mustCompileSchema(name, src string) *jsonschema.Schema {
	s, err := jsonschema.CompileString(name, src)
	if err != nil {
		panic(fmt.Sprintf("compile %s: %v", name, err))
	}
	return s
}

// validateUnits checks the YAML document shape before it is decoded.
// YAML is normalised through JSON so the validator sees plain JSON values.
func validateUnits(raw []byte) error {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return err
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	var v any
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return err
	}
	return unitsSchema.Validate(v)
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
