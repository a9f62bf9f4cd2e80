// Package intents defines the intent registry: the static table describing
// which operations the trusted confirmation surface accepts and which
// parameters each one takes. The registry is pure data, loaded once at
// startup and immutable for the process lifetime; the dispatcher consults it
// to reject unknown intents and to filter outgoing parameters down to the
// declared set.
//
// The builtin table is derived by reflecting the typed parameter structs in
// this package, so the Go types callers use and the table the dispatcher
// enforces cannot drift apart. Deployments that need a different table can
// load one from a TOML file instead via LoadTOML.
package intents

import (
	"fmt"
	"sort"
)

// Intent names accepted by the builtin table.
const (
	IntentPublicKey     = "public_key"
	IntentSign          = "sign"
	IntentPay           = "pay"
	IntentTrust         = "trust"
	IntentSignMessage   = "sign_message"
	IntentManageAccount = "manage_account"
	IntentImplicitFlow  = "implicit_flow"
)

// Param describes one declared parameter of an intent.
type Param struct {
	Required bool
}

// Descriptor is the static description of one intent. Immutable once
// registered.
type Descriptor struct {
	Name   string
	Params map[string]Param

	schema []byte // JSON schema of the parameter object, when known
}

// ParamNames returns the declared parameter names in lexical order.
func (d *Descriptor) ParamNames() []string {
	names := make([]string, 0, len(d.Params))
	for name := range d.Params {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Registry maps intent names to their descriptors.
type Registry struct {
	byName map[string]*Descriptor
}

// New builds a Registry from descriptors. Duplicate or unnamed descriptors
// are rejected.
func New(descriptors ...*Descriptor) (*Registry, error) {
	byName := make(map[string]*Descriptor, len(descriptors))
	for _, d := range descriptors {
		if d.Name == "" {
			return nil, fmt.Errorf("descriptor has no name")
		}
		if _, dup := byName[d.Name]; dup {
			return nil, fmt.Errorf("duplicate intent: %s", d.Name)
		}
		byName[d.Name] = d
	}
	return &Registry{byName: byName}, nil
}

// Lookup returns the descriptor for name. It has no side effects and no
// failure mode beyond "not found".
func (r *Registry) Lookup(name string) (*Descriptor, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// Names returns the registered intent names in lexical order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
