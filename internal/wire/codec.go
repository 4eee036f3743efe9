package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"net/netip"
)

// Writer accumulates a single message's payload bytes using the wire's
// primitive encodings: length-prefixed strings/byte-blobs, fixed-width
// integers, and address-port pairs. The Kind byte is added by Encode and
// the overall length prefix by internal/transport, not by Writer itself.
type Writer struct {
	buf bytes.Buffer
}

func (w *Writer) Bytes() []byte { return w.buf.Bytes() }

func (w *Writer) WriteUint8(v uint8)   { w.buf.WriteByte(v) }
func (w *Writer) WriteBool(v bool) {
	if v {
		w.buf.WriteByte(1)
	} else {
		w.buf.WriteByte(0)
	}
}
func (w *Writer) WriteUint16(v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	w.buf.Write(b[:])
}
func (w *Writer) WriteUint32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
}
func (w *Writer) WriteUint64(v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	w.buf.Write(b[:])
}
func (w *Writer) WriteInt(v int)   { w.WriteUint32(uint32(int32(v))) }

func (w *Writer) WriteString(s string) {
	w.WriteUint16(uint16(len(s)))
	w.buf.WriteString(s)
}

func (w *Writer) WriteBytes(b []byte) {
	w.WriteUint32(uint32(len(b)))
	w.buf.Write(b)
}

// WriteAddrPort writes a validity flag followed by, if valid, a 16-byte
// IPv4-in-IPv6 address and a 2-byte port.
func (w *Writer) WriteAddrPort(a netip.AddrPort) {
	if !a.IsValid() {
		w.WriteBool(false)
		return
	}
	w.WriteBool(true)
	ip16 := a.Addr().As16()
	w.buf.Write(ip16[:])
	w.WriteUint16(a.Port())
}

func (w *Writer) WriteAddrPortSlice(addrs []netip.AddrPort) {
	w.WriteUint16(uint16(len(addrs)))
	for _, a := range addrs {
		w.WriteAddrPort(a)
	}
}

func (w *Writer) WriteStringSlice(ss []string) {
	w.WriteUint16(uint16(len(ss)))
	for _, s := range ss {
		w.WriteString(s)
	}
}

// Reader parses a single message's payload bytes in the same order Writer
// wrote them. Every method returns an error on truncated input instead of
// panicking: I/O failures return errors, not exceptions.
type Reader struct {
	buf *bytes.Reader
}

func NewReader(b []byte) *Reader { return &Reader{buf: bytes.NewReader(b)} }

func (r *Reader) ReadUint8() (uint8, error) {
	b, err := r.buf.ReadByte()
	return b, err
}

func (r *Reader) ReadBool() (bool, error) {
	b, err := r.ReadUint8()
	if err != nil {
		return false, err
	}
	return b != 0, nil
}

func (r *Reader) ReadUint16() (uint16, error) {
	var b [2]byte
	if _, err := fullRead(r.buf, b[:]); err != nil {
		return 0, fmt.Errorf("reading uint16: %w", err)
	}
	return binary.BigEndian.Uint16(b[:]), nil
}

func (r *Reader) ReadUint32() (uint32, error) {
	var b [4]byte
	if _, err := fullRead(r.buf, b[:]); err != nil {
		return 0, fmt.Errorf("reading uint32: %w", err)
	}
	return binary.BigEndian.Uint32(b[:]), nil
}

func (r *Reader) ReadUint64() (uint64, error) {
	var b [8]byte
	if _, err := fullRead(r.buf, b[:]); err != nil {
		return 0, fmt.Errorf("reading uint64: %w", err)
	}
	return binary.BigEndian.Uint64(b[:]), nil
}

func (r *Reader) ReadInt() (int, error) {
	v, err := r.ReadUint32()
	return int(int32(v)), err
}

func fullRead(r *bytes.Reader, b []byte) (int, error) {
	n := 0
	for n < len(b) {
		m, err := r.Read(b[n:])
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

func (r *Reader) ReadString() (string, error) {
	n, err := r.ReadUint16()
	if err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := fullRead(r.buf, b); err != nil {
		return "", fmt.Errorf("reading string body: %w", err)
	}
	return string(b), nil
}

func (r *Reader) ReadBytes() ([]byte, error) {
	n, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	b := make([]byte, n)
	if _, err := fullRead(r.buf, b); err != nil {
		return nil, fmt.Errorf("reading byte blob: %w", err)
	}
	return b, nil
}

func (r *Reader) ReadAddrPort() (netip.AddrPort, error) {
	valid, err := r.ReadBool()
	if err != nil || !valid {
		return netip.AddrPort{}, err
	}
	var ipb [16]byte
	if _, err := fullRead(r.buf, ipb[:]); err != nil {
		return netip.AddrPort{}, fmt.Errorf("reading address: %w", err)
	}
	port, err := r.ReadUint16()
	if err != nil {
		return netip.AddrPort{}, err
	}
	addr := netip.AddrFrom16(ipb)
	if addr.Is4In6() {
		addr = addr.Unmap()
	}
	return netip.AddrPortFrom(addr, port), nil
}

func (r *Reader) ReadAddrPortSlice() ([]netip.AddrPort, error) {
	n, err := r.ReadUint16()
	if err != nil {
		return nil, err
	}
	out := make([]netip.AddrPort, 0, n)
	for i := 0; i < int(n); i++ {
		a, err := r.ReadAddrPort()
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (r *Reader) ReadStringSlice() ([]string, error) {
	n, err := r.ReadUint16()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, n)
	for i := 0; i < int(n); i++ {
		s, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
