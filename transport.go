package sender

import (
	"context"
	"errors"
	"fmt"
	"go.uber.org/zap"
	"io"
	"net"
	"syscall"
	"time"
)

// Option customizes a Transport.
type Option func(*transportOptions)

type transportOptions struct {
	dialTimeout  time.Duration
	writeTimeout time.Duration
	logger       *zap.Logger
}

// WithDialTimeout bounds each dial, including the reconnect of a broken stream
// connection. Zero leaves the OS default in place.
func WithDialTimeout(d time.Duration) Option {
	return func(o *transportOptions) {
		o.dialTimeout = d
	}
}

// WithWriteTimeout sets a write deadline before each send. Zero leaves the OS
// default in place.
func WithWriteTimeout(d time.Duration) Option {
	return func(o *transportOptions) {
		o.writeTimeout = d
	}
}

// WithLogger sets the logger used for connection lifecycle events. The default
// discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(o *transportOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// Transport owns one socket of a single Kind and sends one frame per Write.
// Stream transports reconnect once when the peer has closed the connection.
// A Transport is not safe for concurrent use.
type Transport struct {
	transportOptions
	addr   Address
	conn   net.Conn
	closed bool
}

// Dial parses address and opens the socket. Malformed addresses return
// ErrInvalidAddress and failed dials return ErrConnectionFailed.
func Dial(ctx context.Context, address string, opts ...Option) (*Transport, error) {
	addr, err := ParseAddress(address)
	if err != nil {
		return nil, err
	}

	t := &Transport{
		transportOptions: transportOptions{logger: zap.NewNop()},
		addr:             addr,
	}
	for _, opt := range opts {
		opt(&t.transportOptions)
	}

	if err := t.connect(ctx); err != nil {
		return nil, err
	}

	return t, nil
}

// Kind returns the socket kind of t.
func (t *Transport) Kind() Kind {
	return t.addr.Kind
}

// Address returns the address t connects to.
func (t *Transport) Address() Address {
	return t.addr
}

func (t *Transport) connect(ctx context.Context) error {
	if t.dialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.dialTimeout)
		defer cancel()
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, t.addr.Kind.Network(), t.addr.Endpoint)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrConnectionFailed, t.addr, err)
	}
	t.conn = conn

	t.logger.Debug("connected", zap.Stringer("address", t.addr))
	return nil
}

// Write sends b as a single frame. For stream kinds a peer that has gone away,
// noticed either before the write or by the write failing, triggers one
// reconnect and one retry; datagram failures are returned immediately.
// Failures wrap ErrDelivery.
func (t *Transport) Write(b []byte) (int, error) {
	if t.closed {
		return 0, fmt.Errorf("%w: %w", ErrDelivery, ErrClosed)
	}

	reconnected := false
	if t.conn == nil {
		// the reconnect of an earlier call failed
		if err := t.connect(context.Background()); err != nil {
			return 0, fmt.Errorf("%w: %w", ErrDelivery, err)
		}
		reconnected = true
	} else if t.addr.Kind.Stream() {
		// a FIN from the agent does not fail the next write, so look first
		if err := peerClosed(t.conn); err != nil {
			if err := t.reconnect(err); err != nil {
				return 0, err
			}
			reconnected = true
		}
	}

	n, err := t.write(b)
	if err == nil {
		return n, nil
	}

	if !t.addr.Kind.Stream() || !isBrokenConn(err) {
		return n, fmt.Errorf("%w: %s: %w", ErrDelivery, t.addr, err)
	}

	if reconnected {
		t.teardown()
		return n, fmt.Errorf("%w: %s: %w", ErrDelivery, t.addr, err)
	}

	if err := t.reconnect(err); err != nil {
		return 0, err
	}

	n, err = t.write(b)
	if err != nil {
		if isBrokenConn(err) {
			t.teardown()
		}
		return n, fmt.Errorf("%w: %s: retry after reconnect: %w", ErrDelivery, t.addr, err)
	}

	return n, nil
}

// reconnect replaces a connection the peer has closed.
func (t *Transport) reconnect(cause error) error {
	t.teardown()
	t.logger.Warn("connection broken, reconnecting",
		zap.Stringer("address", t.addr), zap.Error(cause))

	if err := t.connect(context.Background()); err != nil {
		t.logger.Warn("reconnect failed", zap.Stringer("address", t.addr), zap.Error(err))
		return fmt.Errorf("%w: %w", ErrDelivery, err)
	}
	return nil
}

func (t *Transport) write(b []byte) (int, error) {
	if t.writeTimeout > 0 {
		if err := t.conn.SetWriteDeadline(time.Now().Add(t.writeTimeout)); err != nil {
			return 0, err
		}
	}

	n, err := t.conn.Write(b)
	if err == nil && n < len(b) {
		err = io.ErrShortWrite
	}
	return n, err
}

// teardown drops a broken connection so the next write dials again.
func (t *Transport) teardown() {
	if err := t.conn.Close(); err != nil {
		t.logger.Debug("error closing broken connection", zap.Error(err))
	}
	t.conn = nil
}

// Close releases the socket. Closing more than once is a no-op.
func (t *Transport) Close() error {
	if t.closed {
		return nil
	}
	t.closed = true

	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	return err
}

// isBrokenConn reports whether err means the peer closed the connection.
func isBrokenConn(err error) bool {
	return errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNABORTED) ||
		errors.Is(err, io.EOF)
}
