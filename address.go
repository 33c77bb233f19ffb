package sender

import (
	"fmt"
	"net"
	"strings"
)

// Kind is the socket kind a Transport connects with.
type Kind int

const (
	// TCP is a connection-oriented stream over the network.
	TCP Kind = iota + 1

	// UDP is a connectionless datagram over the network.
	UDP

	// Unix is a Unix-domain stream socket.
	Unix

	// Unixgram is a Unix-domain datagram socket.
	Unixgram
)

var schemes = map[string]Kind{
	"tcp":      TCP,
	"udp":      UDP,
	"unix":     Unix,
	"unixgram": Unixgram,
}

// Network returns the network name used with net.Dial.
func (k Kind) Network() string {
	switch k {
	case TCP:
		return "tcp"
	case UDP:
		return "udp"
	case Unix:
		return "unix"
	case Unixgram:
		return "unixgram"
	default:
		return ""
	}
}

func (k Kind) String() string {
	if n := k.Network(); n != "" {
		return n
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Stream reports whether k is connection oriented.
func (k Kind) Stream() bool {
	return k == TCP || k == Unix
}

// Address is a parsed connection address.
type Address struct {
	Kind Kind

	// Endpoint is host:port for TCP and UDP and a filesystem path for the
	// Unix-domain kinds.
	Endpoint string
}

func (a Address) String() string {
	return a.Kind.Network() + "://" + a.Endpoint
}

// ParseAddress parses "<scheme>://<address>" where scheme is one of tcp, udp,
// unix or unixgram, for example "tcp://localhost:8094" or
// "unixgram:///tmp/telegraf.sock".
func ParseAddress(s string) (Address, error) {
	scheme, endpoint, ok := strings.Cut(s, "://")
	if !ok {
		return Address{}, fmt.Errorf("%w: %q has no scheme", ErrInvalidAddress, s)
	}

	kind, ok := schemes[scheme]
	if !ok {
		return Address{}, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidAddress, scheme)
	}

	if endpoint == "" {
		return Address{}, fmt.Errorf("%w: %q has an empty address", ErrInvalidAddress, s)
	}

	if kind == TCP || kind == UDP {
		_, port, err := net.SplitHostPort(endpoint)
		if err != nil {
			return Address{}, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
		}
		if port == "" {
			return Address{}, fmt.Errorf("%w: %q has no port", ErrInvalidAddress, s)
		}
		if _, err := net.LookupPort(kind.Network(), port); err != nil {
			return Address{}, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
		}
	}

	return Address{Kind: kind, Endpoint: endpoint}, nil
}
