// Package dispatch implements the intent dispatch protocol: validate a
// request against the intent registry, pick one of the three transports,
// perform the single correlated exchange, and opportunistically cache an
// implicit session grant on the way out.
//
// Every failure is terminal for that call. The dispatcher never retries and
// never reinterprets a transport failure as a grant; retry policy belongs to
// the caller.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lumenbridge/intent-bridge-go/intents"
	"github.com/lumenbridge/intent-bridge-go/internal/logctx"
	"github.com/lumenbridge/intent-bridge-go/internal/observability"
	"github.com/lumenbridge/intent-bridge-go/internal/ratelimit"
	"github.com/lumenbridge/intent-bridge-go/sessions"
	"github.com/lumenbridge/intent-bridge-go/transport"
	"github.com/lumenbridge/intent-bridge-go/wire"
)

// Dispatcher orchestrates validation, transport selection, the message
// exchange, and post-response session persistence.
type Dispatcher struct {
	reg      *intents.Registry
	store    sessions.Store
	provider transport.Provider

	log     *slog.Logger
	limiter *ratelimit.KeyLimiter
	now     func() time.Time
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger. Pair it with logctx.Handler to get dispatch
// attribution on every line.
func WithLogger(log *slog.Logger) Option {
	return func(d *Dispatcher) { d.log = log }
}

// WithPromptLimit throttles interactive confirmation prompts per pubkey to
// rps with the given burst. Headless transports are never throttled.
func WithPromptLimit(rps float64, burst int) Option {
	return func(d *Dispatcher) { d.limiter = ratelimit.New(rps, burst, 0) }
}

// New constructs a Dispatcher. The registry is immutable data, the store is
// the single writer path for implicit sessions, and the provider is the
// host's transport capability.
func New(reg *intents.Registry, store sessions.Store, provider transport.Provider, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		reg:      reg,
		store:    store,
		provider: provider,
		log:      slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch validates params, selects a transport, performs the exchange,
// and returns the correlated result. See the package comment for failure
// semantics.
func (d *Dispatcher) Dispatch(ctx context.Context, params map[string]any) (*wire.Result, error) {
	env, err := d.validate(params)
	if err != nil {
		observability.RecordValidationFailure(intentName(params), validationLabel(err))
		return nil, err
	}

	// A cached grant is consulted only when the caller identified the
	// account. Cache trouble must not block the interactive path.
	var sess *sessions.Session
	if env.Pubkey != "" {
		sess, err = d.store.Get(ctx, env.Intent, env.Pubkey)
		if err != nil {
			d.log.WarnContext(ctx, "session lookup failed, proceeding without cache",
				slog.String("err", err.Error()))
			sess = nil
		}
	}
	if sess != nil {
		env.Session = sess.Token
		observability.RecordSessionHit(env.Intent)
	}

	kind := selectKind(d.provider.ExtensionAvailable(ctx), sess != nil)

	ctx = logctx.WithDispatchData(ctx, &logctx.DispatchData{
		CorrelationID: env.ID,
		Intent:        env.Intent,
		Transport:     string(kind),
	})
	if env.Pubkey != "" {
		ctx = logctx.WithSessionData(ctx, &logctx.SessionData{Pubkey: env.Pubkey, Cached: sess != nil})
	}

	if kind == transport.KindDialog && !d.limiter.Allow(throttleKey(env), d.now()) {
		observability.RecordDispatch(env.Intent, string(kind), "throttled", 0)
		d.log.InfoContext(ctx, "interactive prompt throttled")
		return nil, ErrPromptThrottled
	}

	t, err := d.provider.Open(ctx, kind)
	if err != nil {
		observability.RecordDispatch(env.Intent, string(kind), "open_failed", 0)
		return nil, fmt.Errorf("open %s transport: %w", kind, err)
	}
	// The surface is released on success and failure alike.
	defer func() {
		if cerr := t.Close(); cerr != nil {
			d.log.DebugContext(ctx, "transport close failed", slog.String("err", cerr.Error()))
		}
	}()

	d.log.DebugContext(ctx, "dispatching intent")
	started := d.now()
	res, err := t.Exchange(ctx, env)
	observability.RecordDispatch(env.Intent, string(kind), outcomeLabel(err), time.Since(started))
	if err != nil {
		d.log.InfoContext(ctx, "dispatch failed", slog.String("err", err.Error()))
		return nil, err
	}

	d.persistGrant(ctx, res)

	d.log.DebugContext(ctx, "dispatch resolved")
	return res, nil
}

// validate applies the registry's schema to the raw parameters and builds
// the outgoing envelope from declared keys only, so a third party can never
// smuggle fields the confirmation screen does not expect.
func (d *Dispatcher) validate(params map[string]any) (*wire.Envelope, error) {
	name, _ := params["intent"].(string)
	if name == "" {
		return nil, ErrMissingIntent
	}

	desc, ok := d.reg.Lookup(name)
	if !ok {
		return nil, &UnknownIntentError{Name: name}
	}

	env := &wire.Envelope{ID: wire.NewCorrelationID(), Intent: name}

	if raw, present := params["pubkey"]; present && truthy(raw) {
		pubkey, ok := raw.(string)
		if !ok || !wire.ValidAccountID(pubkey) {
			return nil, &InvalidPubkeyError{Pubkey: fmt.Sprintf("%v", raw)}
		}
		env.Pubkey = pubkey
	}

	env.Params = make(map[string]any, len(desc.Params))
	for _, pname := range desc.ParamNames() {
		v, present := params[pname]
		if present && truthy(v) {
			env.Params[pname] = v
			continue
		}
		if desc.Params[pname].Required {
			return nil, &MissingRequiredParameterError{Param: pname, Intent: name}
		}
	}

	// The envelope must serialize to a flat JSON object; anything the
	// caller slipped in that cannot cross the wire fails here, before any
	// transport work.
	if _, err := json.Marshal(env); err != nil {
		return nil, &InvalidParametersError{Reason: err.Error()}
	}
	return env, nil
}

// persistGrant caches a granted implicit_flow result. Caching is
// opportunistic: a store failure is logged, not surfaced, because the grant
// itself already resolved for the caller.
func (d *Dispatcher) persistGrant(ctx context.Context, res *wire.Result) {
	if res.Intent != intents.IntentImplicitFlow || !res.Granted {
		return
	}
	grant, err := sessions.FromResult(res)
	if err != nil {
		d.log.WarnContext(ctx, "grant result not cacheable", slog.String("err", err.Error()))
		return
	}
	if err := d.store.Add(ctx, grant); err != nil {
		d.log.WarnContext(ctx, "session cache write failed", slog.String("err", err.Error()))
	}
}

// selectKind is the transport tie-break: an installed extension wins
// outright, the frame exists solely to redeem an implicit session
// headlessly, and the dialog is the fallback that demands user attention.
func selectKind(extensionPresent, haveSession bool) transport.Kind {
	switch {
	case extensionPresent:
		return transport.KindExtension
	case haveSession:
		return transport.KindFrame
	default:
		return transport.KindDialog
	}
}

// truthy mirrors the surface's absent-value semantics: nil, empty string,
// false, and numeric zero count as not supplied.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case bool:
		return x
	case int:
		return x != 0
	case int32:
		return x != 0
	case int64:
		return x != 0
	case uint:
		return x != 0
	case uint32:
		return x != 0
	case uint64:
		return x != 0
	case float32:
		return x != 0
	case float64:
		return x != 0
	default:
		return true
	}
}

func throttleKey(env *wire.Envelope) string {
	if env.Pubkey != "" {
		return env.Pubkey
	}
	return env.Intent
}

func intentName(params map[string]any) string {
	name, _ := params["intent"].(string)
	return name
}

func validationLabel(err error) string {
	switch {
	case errors.Is(err, ErrMissingIntent):
		return "missing_intent"
	case isA[*UnknownIntentError](err):
		return "unknown_intent"
	case isA[*InvalidParametersError](err):
		return "invalid_parameters"
	case isA[*InvalidPubkeyError](err):
		return "invalid_pubkey"
	case isA[*MissingRequiredParameterError](err):
		return "missing_required_parameter"
	default:
		return "invalid"
	}
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, transport.ErrUserRejected):
		return "user_rejected"
	case errors.Is(err, transport.ErrTimeout):
		return "timeout"
	case errors.Is(err, transport.ErrChannelClosed):
		return "channel_closed"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}

func isA[T error](err error) bool {
	var target T
	return errors.As(err, &target)
}
