package sender

import "errors"

var (
	// ErrInvalidAddress is returned when a connection address has an unknown
	// scheme or a malformed host:port or path.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrConnectionFailed is returned when a socket could not be opened or
	// re-opened.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrEncoding is returned when a point cannot be rendered as line protocol.
	// Nothing is sent and the connection is left untouched.
	ErrEncoding = errors.New("encoding failed")

	// ErrDelivery is returned when a line could not be sent, after the single
	// reconnect attempt for stream transports.
	ErrDelivery = errors.New("delivery failed")

	// ErrClosed is returned, wrapped in ErrDelivery, when writing to a closed
	// transport or client.
	ErrClosed = errors.New("transport closed")
)

// ErrSyntax is returned when a line protocol or field literal cannot be parsed.
var ErrSyntax = errors.New("invalid line protocol")
