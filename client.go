package sender

import (
	"context"
	"errors"
	"fmt"
	protocol "github.com/influxdata/line-protocol"
	"go.uber.org/zap"
	"time"
)

// Config configures a Client.
type Config struct {
	// Address is the socket_listener address, for example
	// "tcp://localhost:8094", "udp://localhost:8094",
	// "unix:///tmp/telegraf.sock" or "unixgram:///tmp/telegraf.sock".
	Address string

	// DialTimeout bounds connecting and reconnecting. Zero means no timeout
	// beyond the OS default.
	DialTimeout time.Duration

	// WriteTimeout bounds each write. Zero means no timeout beyond the OS
	// default.
	WriteTimeout time.Duration

	// Logger receives connection lifecycle events. Nil discards them.
	Logger *zap.Logger
}

// Client writes points to a Telegraf socket_listener, one line per Write.
//
// Writes are synchronous and delivered in call order. A Client is not safe
// for concurrent use; callers sharing one must serialize access.
type Client struct {
	transport *Transport
	encoder   *Encoder
	logger    *zap.Logger
}

// NewClient connects to config.Address. It fails with ErrInvalidAddress for an
// empty or malformed address and ErrConnectionFailed when the socket cannot be
// opened.
func NewClient(ctx context.Context, config Config) (*Client, error) {
	if config.Address == "" {
		return nil, fmt.Errorf("%w: address is required", ErrInvalidAddress)
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	transport, err := Dial(ctx, config.Address,
		WithDialTimeout(config.DialTimeout),
		WithWriteTimeout(config.WriteTimeout),
		WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	return &Client{
		transport: transport,
		encoder:   NewEncoder(transport),
		logger:    logger,
	}, nil
}

// Write encodes p and sends it. Errors wrapping ErrEncoding leave the
// connection untouched; errors wrapping ErrDelivery mean the point was not
// delivered.
func (c *Client) Write(p Point) error {
	_, err := c.encoder.Encode(p)
	if errors.Is(err, ErrEncoding) {
		c.logger.Debug("rejected point", zap.String("measurement", p.Measurement), zap.Error(err))
	}
	return err
}

// WriteMetric converts an Influx protocol.Metric and writes it.
func (c *Client) WriteMetric(m protocol.Metric) error {
	p, err := PointFromMetric(m)
	if err != nil {
		return err
	}
	return c.Write(p)
}

// WriteValue writes the point produced by m.
func (c *Client) WriteValue(m Metric) error {
	return c.Write(m.ToPoint())
}

// Transport returns the transport owned by c.
func (c *Client) Transport() *Transport {
	return c.transport
}

// Close releases the underlying socket.
func (c *Client) Close() error {
	return c.transport.Close()
}
