package sender

import (
	"bufio"
	"github.com/stretchr/testify/require"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

type endpointConn struct {
	net.Conn
	done chan struct{}
}

// MockEndpoint is a stream socket_listener stand-in that records every line
// received on every accepted connection.
type MockEndpoint struct {
	listener net.Listener

	mu       sync.Mutex
	conns    []*endpointConn
	accepted int
	contents []string
}

func NewMockEndpoint(network, address string) (*MockEndpoint, error) {
	listener, err := net.Listen(network, address)
	if err != nil {
		return nil, err
	}
	e := &MockEndpoint{listener: listener}
	go e.listen()
	return e, nil
}

func newTCPEndpoint(t *testing.T) *MockEndpoint {
	t.Helper()
	e, err := NewMockEndpoint("tcp", "127.0.0.1:")
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e
}

func newUnixEndpoint(t *testing.T) *MockEndpoint {
	t.Helper()
	e, err := NewMockEndpoint("unix", socketPath(t))
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e
}

// socketPath returns a short path, keeping under the sun_path limit.
func socketPath(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "lps")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return filepath.Join(dir, "telegraf.sock")
}

func (e *MockEndpoint) Addr() string {
	return e.listener.Addr().String()
}

// URL returns the endpoint address with its scheme.
func (e *MockEndpoint) URL() string {
	return e.listener.Addr().Network() + "://" + e.listener.Addr().String()
}

func (e *MockEndpoint) Close() {
	e.listener.Close()
	e.DropConnections()
}

func (e *MockEndpoint) listen() {
	for {
		conn, err := e.listener.Accept()
		if err != nil {
			return
		}

		c := &endpointConn{Conn: conn, done: make(chan struct{})}
		e.mu.Lock()
		e.conns = append(e.conns, c)
		e.accepted++
		e.mu.Unlock()

		go e.read(c)
	}
}

func (e *MockEndpoint) read(conn *endpointConn) {
	defer close(conn.done)
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		e.mu.Lock()
		e.contents = append(e.contents, scanner.Text()+"\n")
		e.mu.Unlock()
	}
}

// DropConnections closes the server side of every accepted connection, the
// way an agent restart would. It returns once every reader has stopped, so the
// sockets are fully released.
func (e *MockEndpoint) DropConnections() {
	e.mu.Lock()
	conns := e.conns
	e.conns = nil
	e.mu.Unlock()

	for _, conn := range conns {
		conn.Close()
		<-conn.done
	}
}

func (e *MockEndpoint) Accepted() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.accepted
}

func (e *MockEndpoint) HasContent() bool {
	return len(e.Content()) > 0
}

func (e *MockEndpoint) Content() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.contents...)
}

// MockPacketEndpoint records every datagram it receives.
type MockPacketEndpoint struct {
	conn net.PacketConn
	done chan struct{}

	mu      sync.Mutex
	packets []string
}

func NewMockPacketEndpoint(network, address string) (*MockPacketEndpoint, error) {
	conn, err := net.ListenPacket(network, address)
	if err != nil {
		return nil, err
	}
	e := &MockPacketEndpoint{conn: conn, done: make(chan struct{})}
	go e.listen()
	return e, nil
}

func newPacketEndpoint(t *testing.T, network, address string) *MockPacketEndpoint {
	t.Helper()
	e, err := NewMockPacketEndpoint(network, address)
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e
}

func (e *MockPacketEndpoint) URL() string {
	return e.conn.LocalAddr().Network() + "://" + e.conn.LocalAddr().String()
}

// Close stops the endpoint and waits for the socket to be released.
func (e *MockPacketEndpoint) Close() {
	e.conn.Close()
	<-e.done
}

func (e *MockPacketEndpoint) listen() {
	defer close(e.done)
	buf := make([]byte, 64*1024)
	for {
		n, _, err := e.conn.ReadFrom(buf)
		if err != nil {
			return
		}
		e.mu.Lock()
		e.packets = append(e.packets, string(buf[:n]))
		e.mu.Unlock()
	}
}

func (e *MockPacketEndpoint) HasContent() bool {
	return len(e.Content()) > 0
}

func (e *MockPacketEndpoint) Content() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.packets...)
}
