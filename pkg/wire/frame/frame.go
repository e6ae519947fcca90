// Package frame implements the 8-byte framed envelope that precedes every
// RPC message on the wire: a version byte, a little-endian uint24 payload
// length, and a 4-byte magic number.
package frame

import (
	"encoding/binary"
	"io"

	"github.com/matteobertozzi/r5lrpc/internal/bufpool"
	"github.com/matteobertozzi/r5lrpc/pkg/wire/wireerr"
)

// HeaderSize is the fixed size of the frame envelope.
const HeaderSize = 8

// Magic is the little-endian magic number 0xAACC33D5, stored on the wire
// as the bytes 0xD5 0x33 0xCC 0xAA.
const Magic uint32 = 0xAACC33D5

// Version is the only frame version this codec speaks.
const Version byte = 0

// MaxPayloadLen is the largest payload length representable in the
// envelope's 3-byte length field.
const MaxPayloadLen = 1<<24 - 1

// WriteHeader encodes the 8-byte envelope for a payload of the given
// length into buf[:8]. The caller supplies buf (at least HeaderSize
// bytes) so headers can be written into a single pre-allocated scratch
// buffer per connection, avoiding a per-frame allocation.
func WriteHeader(buf []byte, payloadLen uint32) error {
	if len(buf) < HeaderSize {
		return wireerr.New("frame.WriteHeader", wireerr.CodeTruncated)
	}
	if payloadLen > MaxPayloadLen {
		return wireerr.New("frame.WriteHeader", wireerr.CodeLengthOverrun)
	}
	buf[0] = Version
	buf[1] = byte(payloadLen)
	buf[2] = byte(payloadLen >> 8)
	buf[3] = byte(payloadLen >> 16)
	binary.LittleEndian.PutUint32(buf[4:8], Magic)
	return nil
}

// ParseHeader decodes an 8-byte envelope, validating version and magic.
func ParseHeader(buf []byte) (payloadLen uint32, err error) {
	if len(buf) < HeaderSize {
		return 0, wireerr.New("frame.ParseHeader", wireerr.CodeTruncated)
	}
	if buf[0] != Version {
		return 0, wireerr.New("frame.ParseHeader", wireerr.CodeBadVersion)
	}
	magic := binary.LittleEndian.Uint32(buf[4:8])
	if magic != Magic {
		return 0, wireerr.New("frame.ParseHeader", wireerr.CodeBadMagic)
	}
	payloadLen = uint32(buf[1]) | uint32(buf[2])<<8 | uint32(buf[3])<<16
	return payloadLen, nil
}

// WriteFrame writes one complete frame (header + payload) to w.
func WriteFrame(w io.Writer, payload []byte) error {
	if len(payload) > MaxPayloadLen {
		return wireerr.New("frame.WriteFrame", wireerr.CodeLengthOverrun)
	}
	var hdr [HeaderSize]byte
	if err := WriteHeader(hdr[:], uint32(len(payload))); err != nil {
		return err
	}
	if _, err := w.Write(hdr[:]); err != nil {
		return wireerr.Wrap("frame.WriteFrame", wireerr.CodeTruncated, err)
	}
	if len(payload) > 0 {
		if _, err := w.Write(payload); err != nil {
			return wireerr.Wrap("frame.WriteFrame", wireerr.CodeTruncated, err)
		}
	}
	return nil
}

// ReadFrame reads exactly one frame from r, validating version, magic,
// and maxPayload, and returns the payload in a buffer borrowed from the
// package buffer pool. Callers must return the buffer to the pool with
// bufpool.Put once they no longer need it.
func ReadFrame(r io.Reader, maxPayload uint32) ([]byte, error) {
	var hdr [HeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, wireerr.Wrap("frame.ReadFrame", wireerr.CodeTruncated, err)
	}

	payloadLen, err := ParseHeader(hdr[:])
	if err != nil {
		return nil, err
	}
	if payloadLen > maxPayload {
		return nil, wireerr.New("frame.ReadFrame", wireerr.CodeLengthOverrun)
	}

	if payloadLen == 0 {
		return nil, nil
	}

	buf := bufpool.GetUint32(payloadLen)
	if _, err := io.ReadFull(r, buf); err != nil {
		bufpool.Put(buf)
		return nil, wireerr.Wrap("frame.ReadFrame", wireerr.CodeTruncated, err)
	}
	return buf, nil
}
