package catalogs

import (
	"strings"
	"testing"

	"tilecraft.ai/internal/sim/geom"
)

func TestLoad_ShippedUnits(t *testing.T) {
	cats, err := Load("../../../configs")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cats.Digest == "" {
		t.Fatalf("expected digest")
	}
	convec, ok := cats.Units.Get("eConVec")
	if !ok {
		t.Fatalf("missing eConVec")
	}
	if !convec.IsVehicle() || convec.Role != RoleConVec {
		t.Fatalf("eConVec kind=%s role=%s", convec.Kind, convec.Role)
	}
	smelter, ok := cats.Units.Get("eCommonSmelter")
	if !ok {
		t.Fatalf("missing eCommonSmelter")
	}
	if !smelter.IsStructure() || smelter.FrameCount("BUILD") != 16 {
		t.Fatalf("smelter kind=%s build frames=%d", smelter.Kind, smelter.FrameCount("BUILD"))
	}
	dock, ok := smelter.Footprint.DockCell(geom.Pos(0, 0))
	if !ok || dock != geom.Pos(1, 3) {
		t.Fatalf("smelter dock=%v ok=%v", dock, ok)
	}
	// The dock must sit directly south of an occupied cell.
	if !smelter.Footprint.Occupied(geom.Pos(0, 0)).Contains(dock.Shift(0, -1)) {
		t.Fatalf("dock %v is not below the smelter", dock)
	}
	if got := convec.FrameCount("UNKNOWN"); got != 1 {
		t.Fatalf("default frame count=%d want 1", got)
	}
	for i := 1; i < len(cats.Units.Names); i++ {
		if cats.Units.Names[i-1] >= cats.Units.Names[i] {
			t.Fatalf("names not sorted: %v", cats.Units.Names)
		}
	}
}

func TestLoadUnits_SchemaRejects(t *testing.T) {
	cases := map[string]string{
		"missing max_hp": `units: [{name: a, kind: VEHICLE}]`,
		"bad kind":       `units: [{name: a, kind: BOAT, max_hp: 1}]`,
		"unknown field":  `units: [{name: a, kind: VEHICLE, max_hp: 1, wings: 2}]`,
		"short inner":    `units: [{name: a, kind: STRUCTURE, max_hp: 1, footprint: {w: 2, h: 2, inner: [0, 0]}}]`,
	}
	for name, src := range cases {
		var c UnitCatalog
		if err := LoadUnits([]byte(src), &c); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoadUnits_SemanticChecks(t *testing.T) {
	var c UnitCatalog
	err := LoadUnits([]byte(`units:
  - {name: big, kind: VEHICLE, max_hp: 5, footprint: {w: 2, h: 1, inner: [0, 0, 2, 1]}}
`), &c)
	if err == nil || !strings.Contains(err.Error(), "1x1") {
		t.Fatalf("expected vehicle footprint error, got %v", err)
	}

	err = LoadUnits([]byte(`units:
  - {name: a, kind: VEHICLE, max_hp: 5}
  - {name: a, kind: VEHICLE, max_hp: 6}
`), &c)
	if err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}
