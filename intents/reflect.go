package intents

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// FromParams reflects typed parameter structs into a Registry. Parameter
// names come from json tags; required flags from jsonschema:"required" tags.
func FromParams(byIntent map[string]any) (*Registry, error) {
	descriptors := make([]*Descriptor, 0, len(byIntent))
	for name, params := range byIntent {
		d, err := reflectDescriptor(name, params)
		if err != nil {
			return nil, fmt.Errorf("intent %s: %w", name, err)
		}
		descriptors = append(descriptors, d)
	}
	return New(descriptors...)
}

// MustFromParams is FromParams for static tables; it panics on reflection
// failure, which can only come from a malformed parameter struct.
func MustFromParams(byIntent map[string]any) *Registry {
	r, err := FromParams(byIntent)
	if err != nil {
		panic(err)
	}
	return r
}

func reflectDescriptor(name string, params any) (*Descriptor, error) {
	reflector := &jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		DoNotReference:             true,
		ExpandedStruct:             true,
	}
	schema := reflector.Reflect(params)
	if schema.Properties == nil {
		return nil, fmt.Errorf("parameter type has no properties")
	}

	required := make(map[string]bool, len(schema.Required))
	for _, p := range schema.Required {
		required[p] = true
	}

	d := &Descriptor{Name: name, Params: make(map[string]Param)}
	for pair := schema.Properties.Oldest(); pair != nil; pair = pair.Next() {
		d.Params[pair.Key] = Param{Required: required[pair.Key]}
	}

	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	d.schema = raw
	return d, nil
}
