// Package transporttest provides scripted transports and a static provider
// for exercising the dispatcher without a real confirmation surface.
package transporttest

import (
	"context"
	"fmt"
	"sync"

	"github.com/lumenbridge/intent-bridge-go/transport"
	"github.com/lumenbridge/intent-bridge-go/wire"
)

// ScriptedTransport returns a canned result (or error) and records every
// envelope it sees.
type ScriptedTransport struct {
	TransportKind transport.Kind

	// Result resolves successful exchanges. Err, when set, wins.
	Result *wire.Result
	Err    error

	mu        sync.Mutex
	envelopes []*wire.Envelope
	closes    int
}

func (s *ScriptedTransport) Kind() transport.Kind { return s.TransportKind }

func (s *ScriptedTransport) Exchange(ctx context.Context, env *wire.Envelope) (*wire.Result, error) {
	s.mu.Lock()
	s.envelopes = append(s.envelopes, env)
	s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if s.Result == nil {
		return &wire.Result{Intent: env.Intent}, nil
	}
	return s.Result, nil
}

func (s *ScriptedTransport) Close() error {
	s.mu.Lock()
	s.closes++
	s.mu.Unlock()
	return nil
}

// Envelopes returns the envelopes exchanged so far.
func (s *ScriptedTransport) Envelopes() []*wire.Envelope {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*wire.Envelope, len(s.envelopes))
	copy(out, s.envelopes)
	return out
}

// LastEnvelope returns the most recent envelope, or nil.
func (s *ScriptedTransport) LastEnvelope() *wire.Envelope {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.envelopes) == 0 {
		return nil
	}
	return s.envelopes[len(s.envelopes)-1]
}

// Closes reports how many times Close was called.
func (s *ScriptedTransport) Closes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes
}

// Provider hands out the configured transport per kind. A nil Extension
// means no extension channel is present in the environment.
type Provider struct {
	Extension *ScriptedTransport
	Frame     *ScriptedTransport
	Dialog    *ScriptedTransport

	mu     sync.Mutex
	opened []transport.Kind
}

func (p *Provider) ExtensionAvailable(ctx context.Context) bool {
	return p.Extension != nil
}

func (p *Provider) Open(ctx context.Context, kind transport.Kind) (transport.Transport, error) {
	p.mu.Lock()
	p.opened = append(p.opened, kind)
	p.mu.Unlock()

	var t *ScriptedTransport
	switch kind {
	case transport.KindExtension:
		t = p.Extension
	case transport.KindFrame:
		t = p.Frame
	case transport.KindDialog:
		t = p.Dialog
	}
	if t == nil {
		return nil, fmt.Errorf("no %s transport configured", kind)
	}
	if t.TransportKind == "" {
		t.TransportKind = kind
	}
	return t, nil
}

// Opened returns the kinds opened so far, in order.
func (p *Provider) Opened() []transport.Kind {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]transport.Kind, len(p.opened))
	copy(out, p.opened)
	return out
}

var _ transport.Provider = (*Provider)(nil)
