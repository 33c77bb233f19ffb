//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package sender

import (
	"errors"
	"golang.org/x/sys/unix"
	"io"
	"net"
	"syscall"
)

// peerClosed peeks at a stream connection without blocking. The agent never
// writes back, so a readable end of stream means it has closed its side.
func peerClosed(conn net.Conn) error {
	sc, ok := conn.(syscall.Conn)
	if !ok {
		return nil
	}
	raw, err := sc.SyscallConn()
	if err != nil {
		return nil
	}

	var closed error
	var buf [1]byte
	err = raw.Read(func(fd uintptr) bool {
		n, _, err := unix.Recvfrom(int(fd), buf[:], unix.MSG_PEEK|unix.MSG_DONTWAIT)
		switch {
		case err == nil && n == 0:
			closed = io.EOF
		case errors.Is(err, unix.EAGAIN), errors.Is(err, unix.EWOULDBLOCK):
		case err != nil && isBrokenConn(err):
			closed = err
		}
		return true
	})
	if err != nil {
		return err
	}
	return closed
}
