package testutil

import (
	"net"
	"testing"
	"time"
)

// PipeConn returns an in-memory net.Conn pair via net.Pipe, closed
// automatically on test cleanup.
func PipeConn(t testing.TB) (client, server net.Conn) {
	t.Helper()

	server, client = net.Pipe()

	t.Cleanup(func() {
		_ = server.Close()
		_ = client.Close()
	})

	return client, server
}

// FakeAddr is a minimal net.Addr for tests that need to stub an address
// string without dialing anything real.
type FakeAddr struct {
	NetworkName string
	AddrString  string
}

func (f FakeAddr) Network() string { return f.NetworkName }
func (f FakeAddr) String() string  { return f.AddrString }

// NewFakeAddr builds a FakeAddr.
func NewFakeAddr(network, addr string) FakeAddr {
	return FakeAddr{
		NetworkName: network,
		AddrString:  addr,
	}
}

// TCPAddr builds a FakeAddr for a TCP connection.
func TCPAddr(addr string) FakeAddr {
	return NewFakeAddr("tcp", addr)
}

// ConnWithDeadline wraps a net.Conn, applying a fixed read/write deadline
// on every call so a hung test fails instead of blocking forever.
type ConnWithDeadline struct {
	net.Conn
	deadline time.Duration
}

// NewConnWithDeadline wraps conn with an automatic deadline.
func NewConnWithDeadline(conn net.Conn, deadline time.Duration) *ConnWithDeadline {
	return &ConnWithDeadline{
		Conn:     conn,
		deadline: deadline,
	}
}

func (c *ConnWithDeadline) Read(b []byte) (int, error) {
	if err := c.Conn.SetReadDeadline(time.Now().Add(c.deadline)); err != nil {
		return 0, err
	}
	return c.Conn.Read(b)
}

func (c *ConnWithDeadline) Write(b []byte) (int, error) {
	if err := c.Conn.SetWriteDeadline(time.Now().Add(c.deadline)); err != nil {
		return 0, err
	}
	return c.Conn.Write(b)
}

// ListenTCP creates a TCP listener on a random port for tests, returning
// the listener and its "host:port" address. Closed automatically on test
// cleanup.
func ListenTCP(t testing.TB) (net.Listener, string) {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to create TCP listener: %v", err)
	}

	t.Cleanup(func() {
		_ = listener.Close()
	})

	return listener, listener.Addr().String()
}
