package intents

import (
	"encoding/json"
	"fmt"
	"sort"
)

// SchemaJSON returns the JSON schema of an intent's parameter object, for
// confirmation surfaces that render from schema. Descriptors reflected from
// typed structs return their full reflected schema; descriptors loaded from
// an external table get a minimal object schema synthesized from the
// declared parameters.
func (r *Registry) SchemaJSON(name string) ([]byte, error) {
	d, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("unknown intent: %s", name)
	}
	if d.schema != nil {
		out := make([]byte, len(d.schema))
		copy(out, d.schema)
		return out, nil
	}

	properties := make(map[string]any, len(d.Params))
	var required []string
	for pname, p := range d.Params {
		properties[pname] = map[string]any{"type": "string"}
		if p.Required {
			required = append(required, pname)
		}
	}
	sort.Strings(required)

	synthesized := map[string]any{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		synthesized["required"] = required
	}
	return json.Marshal(synthesized)
}
