package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/roach88/scenesync/internal/ir"
)

// marshalDetail converts a record detail to canonical JSON TEXT.
func marshalDetail(detail ir.Object) (string, error) {
	if detail == nil {
		detail = ir.Object{}
	}
	data, err := ir.MarshalCanonical(detail)
	if err != nil {
		return "", fmt.Errorf("marshal detail: %w", err)
	}
	return string(data), nil
}

// unmarshalDetail parses detail TEXT. Numbers are decoded as json.Number
// so large integers keep full precision.
func unmarshalDetail(data string) (ir.Object, error) {
	if data == "" || data == "{}" {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("unmarshal detail: %w", err)
	}
	v, err := ir.FromAny(raw)
	if err != nil {
		return nil, fmt.Errorf("unmarshal detail: %w", err)
	}
	return v.(ir.Object), nil
}
