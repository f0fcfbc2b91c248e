package protocol

import (
	"strings"
	"testing"
)

func TestDecodeOrder_Valid(t *testing.T) {
	m, err := DecodeOrder([]byte(`{
	  "type":"ORDER",
	  "protocol_version":"1.0",
	  "req_id":"r1",
	  "order":"BUILD_STRUCTURE",
	  "units":[3],
	  "pos":[10,4],
	  "unit_type":"eCommonSmelter"
	}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if m.Order != "BUILD_STRUCTURE" || m.Pos == nil || m.Pos[0] != 10 || m.Pos[1] != 4 || m.UnitType != "eCommonSmelter" {
		t.Fatalf("unexpected order: %+v", m)
	}
	if len(m.Units) != 1 || m.Units[0] != 3 {
		t.Fatalf("units=%v", m.Units)
	}
}

func TestDecodeOrder_Rejects(t *testing.T) {
	cases := map[string]string{
		"unknown order":      `{"type":"ORDER","protocol_version":"1.0","order":"FLY"}`,
		"move without pos":   `{"type":"ORDER","protocol_version":"1.0","order":"MOVE","units":[1]}`,
		"build without type": `{"type":"ORDER","protocol_version":"1.0","order":"BUILD_STRUCTURE","units":[1],"pos":[1,1]}`,
		"extra field":        `{"type":"ORDER","protocol_version":"1.0","order":"DUMP","speed":3}`,
		"short pos":          `{"type":"ORDER","protocol_version":"1.0","order":"MOVE","pos":[1]}`,
		"bad json":           `{"type":`,
	}
	for name, raw := range cases {
		if _, err := DecodeOrder([]byte(raw)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestDecodeBase(t *testing.T) {
	b, err := DecodeBase([]byte(`{"type":"HELLO","protocol_version":"1.0","client_name":"x"}`))
	if err != nil || b.Type != TypeHello || !strings.HasPrefix(b.ProtocolVersion, "1") {
		t.Fatalf("base=%+v err=%v", b, err)
	}
}
