// Package stdpipe runs an exchange over newline-delimited JSON on a plain
// reader/writer pair. It fits hosts whose confirmation surface is a child
// process speaking the protocol on its stdin and stdout.
package stdpipe

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/lumenbridge/intent-bridge-go/transport"
	"github.com/lumenbridge/intent-bridge-go/wire"
)

type options struct {
	exchOpts []transport.ExchangerOption
}

// Option configures New.
type Option func(*options)

// WithExchangerOptions forwards options to the underlying Exchanger.
func WithExchangerOptions(opts ...transport.ExchangerOption) Option {
	return func(o *options) { o.exchOpts = append(o.exchOpts, opts...) }
}

// conduit frames one envelope per line. Writes are serialized so concurrent
// exchanges never interleave bytes.
type conduit struct {
	writeMu sync.Mutex
	w       io.Writer
	closer  io.Closer
}

func (c *conduit) Send(ctx context.Context, env *wire.Envelope) error {
	raw, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if _, err := c.w.Write(append(raw, '\n')); err != nil {
		return fmt.Errorf("pipe send: %w", err)
	}
	return nil
}

func (c *conduit) Close() error {
	if c.closer != nil {
		return c.closer.Close()
	}
	return nil
}

// New builds a transport of the given kind over r and w. When w also
// implements io.Closer it is closed with the transport; the surface process
// sees EOF on its stdin and exits. The returned Exchanger owns both ends.
func New(kind transport.Kind, r io.Reader, w io.Writer, opts ...Option) *transport.Exchanger {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	c := &conduit{w: w}
	if closer, ok := w.(io.Closer); ok {
		c.closer = closer
	}
	ex := transport.NewExchanger(kind, c, o.exchOpts...)

	go readPump(r, ex)
	return ex
}

// readPump decodes one response per line until EOF, then fails whatever is
// still pending.
func readPump(r io.Reader, ex *transport.Exchanger) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var resp wire.Response
		if err := json.Unmarshal(line, &resp); err != nil {
			continue // tolerate surface chatter on the same stream
		}
		ex.HandleResponse(&resp)
	}
	ex.Abort(transport.ErrChannelClosed)
}
