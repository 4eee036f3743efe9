// Package transport owns the accepted net.Conn sockets the master talks
// over. The real reliable-UDP/RPC transport is treated as an external,
// assumed-given collaborator that delivers framed typed messages in order
// per connection; this package supplies a concrete, runnable stand-in
// with the same contract over TCP: a 4-byte length prefix and an optional
// per-connection Blowfish cipher on the framed payload.
package transport

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"net"

	"github.com/bitfighter-go/masterd/internal/crypto"
)

// MaxFrameSize bounds a single message's payload, guarding against a
// corrupt or hostile length prefix exhausting memory.
const MaxFrameSize = 1 << 20 // 1 MiB

// Conn wraps an accepted net.Conn with length-prefixed framing and an
// optional symmetric cipher applied to each frame's payload.
type Conn struct {
	raw    net.Conn
	reader *bufio.Reader
	cipher *crypto.Cipher
}

// NewConn wraps raw for framed reads/writes. cipher may be nil for an
// unencrypted connection — transport encryption is optional.
func NewConn(raw net.Conn, cipher *crypto.Cipher) *Conn {
	return &Conn{raw: raw, reader: bufio.NewReader(raw), cipher: cipher}
}

// RemoteAddr returns the underlying connection's remote address.
func (c *Conn) RemoteAddr() net.Addr { return c.raw.RemoteAddr() }

// Close closes the underlying connection.
func (c *Conn) Close() error { return c.raw.Close() }

// ReadFrame blocks until one full frame is available and returns its
// payload (after decryption, if a cipher is configured).
func (c *Conn) ReadFrame() ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(c.reader, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n > MaxFrameSize {
		return nil, fmt.Errorf("reading frame: length %d exceeds max %d", n, MaxFrameSize)
	}

	payload := make([]byte, n)
	if _, err := io.ReadFull(c.reader, payload); err != nil {
		return nil, fmt.Errorf("reading frame body: %w", err)
	}

	if c.cipher != nil {
		aligned := len(payload) - len(payload)%crypto.BlockSize
		if aligned > 0 {
			if err := c.cipher.Decrypt(payload, 0, aligned); err != nil {
				return nil, fmt.Errorf("decrypting frame: %w", err)
			}
		}
	}

	return payload, nil
}

// WriteFrame writes payload as one length-prefixed frame, encrypting it
// first if a cipher is configured. The cipher only covers the leading
// block-aligned portion of payload; callers that need the whole payload
// encrypted should pad to a multiple of crypto.BlockSize.
func (c *Conn) WriteFrame(payload []byte) error {
	out := payload
	if c.cipher != nil {
		out = append([]byte(nil), payload...)
		aligned := len(out) - len(out)%crypto.BlockSize
		if aligned > 0 {
			if err := c.cipher.Encrypt(out, 0, aligned); err != nil {
				return fmt.Errorf("encrypting frame: %w", err)
			}
		}
	}

	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(out)))
	if _, err := c.raw.Write(lenBuf[:]); err != nil {
		return fmt.Errorf("writing frame length: %w", err)
	}
	if _, err := c.raw.Write(out); err != nil {
		return fmt.Errorf("writing frame body: %w", err)
	}
	return nil
}

// Listener accepts framed connections on a TCP socket.
type Listener struct {
	ln net.Listener
}

// Listen binds addr and returns a Listener.
func Listen(addr string) (*Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", addr, err)
	}
	return &Listener{ln: ln}, nil
}

// Accept blocks until a new connection arrives and returns the raw
// net.Conn, unwrapped; callers construct a framed Conn via NewConn, with
// or without a cipher.
func (l *Listener) Accept() (net.Conn, error) {
	return l.ln.Accept()
}

// Addr returns the listener's bound address.
func (l *Listener) Addr() net.Addr { return l.ln.Addr() }

// Close stops accepting new connections.
func (l *Listener) Close() error { return l.ln.Close() }
