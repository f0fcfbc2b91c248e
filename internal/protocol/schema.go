package protocol

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed order.schema.json
var orderSchemaJSON string

var orderSchema = jsonschema.MustCompileString("order.schema.json", orderSchemaJSON)

// DecodeOrder validates raw against the order schema and decodes it.
func DecodeOrder(raw []byte) (OrderMsg, error) {
	var doc any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return OrderMsg{}, fmt.Errorf("decode order: %w", err)
	}
	if err := orderSchema.Validate(doc); err != nil {
		return OrderMsg{}, fmt.Errorf("order schema: %w", err)
	}
	var m OrderMsg
	if err := json.Unmarshal(raw, &m); err != nil {
		return OrderMsg{}, fmt.Errorf("decode order: %w", err)
	}
	return m, nil
}
