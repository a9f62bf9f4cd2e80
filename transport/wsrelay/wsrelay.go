// Package wsrelay connects an Exchanger to a websocket relay fronting the
// trusted confirmation surface. It is a reference Conduit for hosts whose
// surface lives behind a relay service rather than in the same process.
package wsrelay

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lumenbridge/intent-bridge-go/transport"
	"github.com/lumenbridge/intent-bridge-go/wire"
)

type options struct {
	dialer  *websocket.Dialer
	header  http.Header
	timeout time.Duration
	hasTO   bool
}

// Option configures Dial.
type Option func(*options)

// WithDialer replaces the default websocket dialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(o *options) { o.dialer = d }
}

// WithHeader sets extra headers for the relay handshake.
func WithHeader(h http.Header) Option {
	return func(o *options) { o.header = h }
}

// WithTimeout overrides the exchange wait bound.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d; o.hasTO = true }
}

// conduit adapts one websocket connection to transport.Conduit. Writes are
// serialized; gorilla permits only one concurrent writer.
type conduit struct {
	writeMu sync.Mutex
	conn    *websocket.Conn
}

func (c *conduit) Send(ctx context.Context, env *wire.Envelope) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if deadline, ok := ctx.Deadline(); ok {
		_ = c.conn.SetWriteDeadline(deadline)
		defer c.conn.SetWriteDeadline(time.Time{})
	}
	if err := c.conn.WriteJSON(env); err != nil {
		return fmt.Errorf("relay send: %w", err)
	}
	return nil
}

func (c *conduit) Close() error {
	return c.conn.Close()
}

// Dial connects to the relay at url and returns a ready transport of the
// given kind. The returned Exchanger owns the connection; Close tears it
// down.
func Dial(ctx context.Context, url string, kind transport.Kind, opts ...Option) (*transport.Exchanger, error) {
	o := options{dialer: websocket.DefaultDialer}
	for _, opt := range opts {
		opt(&o)
	}

	conn, resp, err := o.dialer.DialContext(ctx, url, o.header)
	if err != nil {
		return nil, fmt.Errorf("relay dial %s: %w", url, err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	var exOpts []transport.ExchangerOption
	if o.hasTO {
		exOpts = append(exOpts, transport.WithTimeout(o.timeout))
	}
	ex := transport.NewExchanger(kind, &conduit{conn: conn}, exOpts...)

	go readPump(conn, ex)
	return ex, nil
}

// readPump routes inbound responses until the connection dies, then fails
// whatever is still pending.
func readPump(conn *websocket.Conn, ex *transport.Exchanger) {
	for {
		var resp wire.Response
		if err := conn.ReadJSON(&resp); err != nil {
			ex.Abort(transport.ErrChannelClosed)
			return
		}
		ex.HandleResponse(&resp)
	}
}
