// Package intentbridge is the public call surface third-party applications
// use to request user-authorized operations from a trusted confirmation
// surface, without ever handling key material. One method per intent, each
// funneling into the dispatch core; plus query/forget operations over the
// implicit session cache.
//
// The host supplies the transport capability (how a dialog, frame, or
// extension channel is actually opened); this package supplies everything
// else: validation against the intent table, transport selection, the
// correlated exchange, and session caching.
package intentbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lumenbridge/intent-bridge-go/dispatch"
	"github.com/lumenbridge/intent-bridge-go/intents"
	"github.com/lumenbridge/intent-bridge-go/internal/logctx"
	"github.com/lumenbridge/intent-bridge-go/sessions"
	"github.com/lumenbridge/intent-bridge-go/transport"
	"github.com/lumenbridge/intent-bridge-go/wire"
)

// TokenSource mints the single-use random tokens attached to intents that
// need replay protection.
type TokenSource func() string

// Client is the application-facing entry point.
type Client struct {
	dispatcher *dispatch.Dispatcher
	store      sessions.Store
	tokens     TokenSource
	now        func() time.Time
}

type clientConfig struct {
	registry     *intents.Registry
	log          *slog.Logger
	tokens       TokenSource
	dispatchOpts []dispatch.Option
}

// Option configures a Client.
type Option func(*clientConfig)

// WithRegistry replaces the builtin intent table, e.g. with one loaded via
// intents.LoadTOML.
func WithRegistry(reg *intents.Registry) Option {
	return func(c *clientConfig) { c.registry = reg }
}

// WithLogger sets the logger. It is wrapped with logctx.Handler so dispatch
// attribution rides on every record.
func WithLogger(log *slog.Logger) Option {
	return func(c *clientConfig) { c.log = log }
}

// WithTokenSource replaces the default uuid-based token source.
func WithTokenSource(ts TokenSource) Option {
	return func(c *clientConfig) { c.tokens = ts }
}

// WithPromptLimit throttles interactive confirmation prompts per pubkey.
func WithPromptLimit(rps float64, burst int) Option {
	return func(c *clientConfig) {
		c.dispatchOpts = append(c.dispatchOpts, dispatch.WithPromptLimit(rps, burst))
	}
}

// New builds a Client over the host's transport provider and a session
// store. The store outlives individual calls; construct it once at startup.
func New(provider transport.Provider, store sessions.Store, opts ...Option) *Client {
	cfg := clientConfig{
		registry: intents.Builtin(),
		log:      slog.Default(),
		tokens:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	log := slog.New(logctx.Handler{Handler: cfg.log.Handler()})
	dispatchOpts := append([]dispatch.Option{dispatch.WithLogger(log)}, cfg.dispatchOpts...)

	return &Client{
		dispatcher: dispatch.New(cfg.registry, store, provider, dispatchOpts...),
		store:      store,
		tokens:     cfg.tokens,
		now:        time.Now,
	}
}

// PublicKey asks the surface for the user's public key. A fresh random
// token rides along for replay protection.
func (c *Client) PublicKey(ctx context.Context) (*wire.Result, error) {
	return c.request(ctx, intents.IntentPublicKey, intents.PublicKeyParams{Token: c.tokens()})
}

// SignTransaction requests a signature over a transaction envelope.
func (c *Client) SignTransaction(ctx context.Context, p intents.SignParams) (*wire.Result, error) {
	return c.request(ctx, intents.IntentSign, p)
}

// Pay requests a payment confirmation.
func (c *Client) Pay(ctx context.Context, p intents.PayParams) (*wire.Result, error) {
	return c.request(ctx, intents.IntentPay, p)
}

// ChangeTrust requests a trustline change confirmation.
func (c *Client) ChangeTrust(ctx context.Context, p intents.TrustParams) (*wire.Result, error) {
	return c.request(ctx, intents.IntentTrust, p)
}

// SignMessage requests a signature over an arbitrary message.
func (c *Client) SignMessage(ctx context.Context, p intents.SignMessageParams) (*wire.Result, error) {
	return c.request(ctx, intents.IntentSignMessage, p)
}

// ManageAccount opens the account-management view for pubkey.
func (c *Client) ManageAccount(ctx context.Context, pubkey string) (*wire.Result, error) {
	return c.request(ctx, intents.IntentManageAccount, intents.ManageAccountParams{Pubkey: pubkey})
}

// AuthorizeImplicitFlow asks the user for a standing permission covering
// the listed intents. A granted result is cached automatically; subsequent
// matching requests skip interactive confirmation.
func (c *Client) AuthorizeImplicitFlow(ctx context.Context, p intents.ImplicitFlowParams) (*wire.Result, error) {
	return c.request(ctx, intents.IntentImplicitFlow, p)
}

// Dispatch sends a raw parameter mapping through the dispatcher. Escape
// hatch for custom registries; the typed methods above are preferred.
func (c *Client) Dispatch(ctx context.Context, params map[string]any) (*wire.Result, error) {
	return c.dispatcher.Dispatch(ctx, params)
}

// Session returns the cached implicit session covering (intent, pubkey),
// or nil when none applies.
func (c *Client) Session(ctx context.Context, intent, pubkey string) (*sessions.Session, error) {
	return c.store.Get(ctx, intent, pubkey)
}

// Sessions enumerates live cached sessions, expired entries filtered out.
func (c *Client) Sessions(ctx context.Context) ([]*sessions.Session, error) {
	all, err := c.store.List(ctx)
	if err != nil {
		return nil, err
	}
	now := c.now()
	live := all[:0]
	for _, sess := range all {
		if !sess.Expired(now) {
			live = append(live, sess)
		}
	}
	return live, nil
}

// ForgetSession drops the cached session for pubkey. Forgetting an absent
// key is a no-op.
func (c *Client) ForgetSession(ctx context.Context, pubkey string) error {
	return c.store.Forget(ctx, pubkey)
}

// request converts a typed parameter struct into the raw mapping the
// dispatcher validates. The json round trip applies the same omitempty
// rules the wire uses, so zero-valued optional fields are simply absent.
func (c *Client) request(ctx context.Context, intent string, params any) (*wire.Result, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encode %s params: %w", intent, err)
	}
	m := make(map[string]any)
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("encode %s params: %w", intent, err)
	}
	m["intent"] = intent
	return c.dispatcher.Dispatch(ctx, m)
}
