package intents

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// tomlTable is the external registry file layout:
//
//	[intents.sign.params.xdr]
//	required = true
//
//	[intents.sign.params.network]
//	required = false
type tomlTable struct {
	Intents map[string]tomlIntent `toml:"intents"`
}

type tomlIntent struct {
	Params map[string]tomlParam `toml:"params"`
}

type tomlParam struct {
	Required bool `toml:"required"`
}

// LoadTOML builds a Registry from an external static table. The file is read
// once; the resulting registry is immutable like the builtin one.
func LoadTOML(path string) (*Registry, error) {
	var table tomlTable
	if _, err := toml.DecodeFile(path, &table); err != nil {
		return nil, fmt.Errorf("decode intent table %s: %w", path, err)
	}
	if len(table.Intents) == 0 {
		return nil, fmt.Errorf("intent table %s declares no intents", path)
	}

	descriptors := make([]*Descriptor, 0, len(table.Intents))
	for name, in := range table.Intents {
		d := &Descriptor{Name: name, Params: make(map[string]Param, len(in.Params))}
		for pname, p := range in.Params {
			d.Params[pname] = Param{Required: p.Required}
		}
		descriptors = append(descriptors, d)
	}
	return New(descriptors...)
}
