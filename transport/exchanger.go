package transport

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lumenbridge/intent-bridge-go/wire"
)

// DefaultHeadlessTimeout bounds frame and extension exchanges. No user is
// present on those channels to close a stuck surface manually.
const DefaultHeadlessTimeout = 30 * time.Second

// Conduit is a raw ordered channel to the confirmation surface. Exchanger
// layers correlation on top of it.
type Conduit interface {
	// Send emits one envelope. Implementations may subscribe for the
	// response before emitting to guarantee none is missed.
	Send(ctx context.Context, env *wire.Envelope) error

	// Close tears down the channel.
	Close() error
}

type pendingExchange struct {
	resCh chan *wire.Result
	errCh chan error
}

// Exchanger implements Transport over a Conduit: it allocates correlation
// IDs, routes inbound responses to the waiting exchange, and fails pending
// exchanges when the channel closes.
type Exchanger struct {
	kind    Kind
	conduit Conduit
	timeout time.Duration

	mu      sync.Mutex
	pending map[string]*pendingExchange

	closed   atomic.Bool
	closeErr error
}

// ExchangerOption configures an Exchanger.
type ExchangerOption func(*Exchanger)

// WithTimeout overrides the per-exchange wait bound. Zero disables it.
func WithTimeout(d time.Duration) ExchangerOption {
	return func(e *Exchanger) { e.timeout = d }
}

// NewExchanger builds an Exchanger of the given kind. Dialog exchanges wait
// indefinitely (a user is present and can close the surface); frame and
// extension exchanges default to DefaultHeadlessTimeout.
func NewExchanger(kind Kind, conduit Conduit, opts ...ExchangerOption) *Exchanger {
	e := &Exchanger{
		kind:    kind,
		conduit: conduit,
		pending: make(map[string]*pendingExchange),
	}
	if kind != KindDialog {
		e.timeout = DefaultHeadlessTimeout
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Kind reports the transport variant.
func (e *Exchanger) Kind() Kind { return e.kind }

// Exchange sends env and waits for the correlated response.
func (e *Exchanger) Exchange(ctx context.Context, env *wire.Envelope) (*wire.Result, error) {
	if e.closed.Load() {
		return nil, e.closedErr()
	}

	if env.ID == "" {
		env.ID = wire.NewCorrelationID()
	}

	pc := &pendingExchange{resCh: make(chan *wire.Result, 1), errCh: make(chan error, 1)}
	e.mu.Lock()
	if e.closed.Load() {
		e.mu.Unlock()
		return nil, e.closedErr()
	}
	e.pending[env.ID] = pc
	e.mu.Unlock()

	waitCtx := ctx
	var cancel context.CancelFunc
	if e.timeout > 0 {
		waitCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	if err := e.conduit.Send(waitCtx, env); err != nil {
		e.drop(env.ID)
		return nil, err
	}

	select {
	case res := <-pc.resCh:
		return res, nil
	case err := <-pc.errCh:
		return nil, err
	case <-waitCtx.Done():
		e.drop(env.ID)
		// Distinguish our own bounded wait from caller cancellation.
		if errors.Is(waitCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, ErrTimeout
		}
		return nil, ctx.Err()
	}
}

// HandleResponse delivers an inbound correlated response. Responses with no
// waiting exchange are ignored.
func (e *Exchanger) HandleResponse(resp *wire.Response) {
	if resp == nil || resp.ID == "" {
		return
	}
	e.mu.Lock()
	pc, ok := e.pending[resp.ID]
	if ok {
		delete(e.pending, resp.ID)
	}
	e.mu.Unlock()
	if !ok {
		return
	}
	if resp.Rejected || resp.Result == nil {
		pc.errCh <- ErrUserRejected
		return
	}
	pc.resCh <- resp.Result
}

// Abort fails every pending exchange with err and refuses new ones. The
// conduit is left to its owner; read pumps call Abort when the remote side
// disappears.
func (e *Exchanger) Abort(err error) {
	if !e.closed.CompareAndSwap(false, true) {
		return
	}
	if err == nil {
		err = ErrChannelClosed
	}
	e.closeErr = err
	e.mu.Lock()
	defer e.mu.Unlock()
	for id, pc := range e.pending {
		delete(e.pending, id)
		pc.errCh <- err
	}
}

// Close aborts pending exchanges and tears down the conduit.
func (e *Exchanger) Close() error {
	e.Abort(ErrChannelClosed)
	return e.conduit.Close()
}

func (e *Exchanger) drop(id string) {
	e.mu.Lock()
	delete(e.pending, id)
	e.mu.Unlock()
}

func (e *Exchanger) closedErr() error {
	if e.closeErr != nil {
		return e.closeErr
	}
	return ErrChannelClosed
}

var _ Transport = (*Exchanger)(nil)
