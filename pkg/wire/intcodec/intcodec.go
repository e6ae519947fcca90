// Package intcodec implements the compact integer encodings used
// throughout the wire format: minimum-width little-endian unsigned integers,
// zig-zag signed integers, LEB128-style varints, and a 4-way packed-uint
// list encoding for dense integer sequences.
package intcodec

import "github.com/matteobertozzi/r5lrpc/pkg/wire/wireerr"

// UintBytes returns the minimum number of bytes (1..8) needed to hold v as
// an unsigned integer. v=0 returns 1, matching the field codec's use of
// this as an inline-length selector.
func UintBytes(v uint64) int {
	n := 1
	for v >= 0x100 {
		v >>= 8
		n++
	}
	return n
}

// EncodeUint writes v into buf using exactly n bytes, byte i holding
// (v >> (8*i)) & 0xff — i.e. little-endian, byte 0 is the LSB. n must be
// able to hold v (n >= UintBytes(v)); higher bytes of v beyond n are
// silently truncated, matching a fixed-width encode where the caller
// picked n.
func EncodeUint(buf []byte, v uint64, n int) {
	for i := 0; i < n; i++ {
		buf[i] = byte(v >> (8 * uint(i)))
	}
}

// DecodeUint is the inverse of EncodeUint: it reads n little-endian bytes
// from buf and reconstructs the unsigned value.
func DecodeUint(buf []byte, n int) (uint64, error) {
	if len(buf) < n {
		return 0, wireerr.New("decode_uint", wireerr.CodeTruncated)
	}
	var v uint64
	for i := 0; i < n; i++ {
		v |= uint64(buf[i]) << (8 * uint(i))
	}
	return v, nil
}

// ZigzagEncode maps a signed integer to an unsigned one so that small
// magnitudes (positive or negative) encode to small uints.
func ZigzagEncode(s int64) uint64 {
	return uint64((s << 1) ^ (s >> 63))
}

// ZigzagDecode is the inverse of ZigzagEncode.
func ZigzagDecode(u uint64) int64 {
	return int64(u>>1) ^ -int64(u&1)
}

// maxVarintLen is the largest number of bytes a 64-bit varint can occupy:
// ceil(64/7) = 10.
const maxVarintLen = 10

// EncodeVarint produces 1..10 bytes: 7 data bits per byte, continuation
// bit 0x80 set on every byte but the last.
func EncodeVarint(v uint64) []byte {
	var out [maxVarintLen]byte
	n := 0
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			out[n] = b | 0x80
			n++
		} else {
			out[n] = b
			n++
			break
		}
	}
	return append([]byte(nil), out[:n]...)
}

// DecodeVarint reads a varint from the front of buf and returns the
// number of bytes consumed and the decoded value. It fails with
// CodeMalformedHead if no terminating (high-bit-clear) byte appears
// within the first 10 bytes, and CodeTruncated if buf runs out first.
func DecodeVarint(buf []byte) (consumed int, value uint64, err error) {
	var v uint64
	for i := 0; i < maxVarintLen; i++ {
		if i >= len(buf) {
			return 0, 0, wireerr.New("decode_varint", wireerr.CodeTruncated)
		}
		b := buf[i]
		v |= uint64(b&0x7f) << (7 * uint(i))
		if b&0x80 == 0 {
			return i + 1, v, nil
		}
	}
	return 0, 0, wireerr.New("decode_varint", wireerr.CodeMalformedHead)
}

// PackUintList encodes vs as groups of up to 4 values. Each group starts
// with one header byte whose 2-bit fields (at bit offsets 0,2,4,6) encode
// ((byte_width/2)-1) for each of up to 4 slots in the group, followed by
// each value padded to an even byte count (2, 4, 6, or 8 bytes).
func PackUintList(vs []uint64) []byte {
	out := make([]byte, 0, len(vs)*3)
	for i := 0; i < len(vs); i += 4 {
		group := vs[i:min(i+4, len(vs))]
		var header byte
		widths := make([]int, len(group))
		for j, v := range group {
			w := UintBytes(v)
			if w%2 != 0 {
				w++
			}
			widths[j] = w
			code := byte(w/2 - 1)
			header |= code << (2 * uint(j))
		}
		out = append(out, header)
		for j, v := range group {
			start := len(out)
			out = append(out, make([]byte, widths[j])...)
			EncodeUint(out[start:], v, widths[j])
		}
	}
	return out
}

// UnpackUintList decodes n values from a packed-uint list previously
// produced by PackUintList. It fails with CodeTruncated when buf ends
// before a group header, and with CodeLengthOverrun when a value's bytes
// would run past the end of buf.
func UnpackUintList(buf []byte, n int) ([]uint64, error) {
	out := make([]uint64, 0, n)
	pos := 0
	for len(out) < n {
		if pos >= len(buf) {
			return nil, wireerr.New("unpack_uint_list", wireerr.CodeTruncated)
		}
		header := buf[pos]
		pos++
		remaining := n - len(out)
		slots := min(4, remaining)
		for j := 0; j < slots; j++ {
			code := (header >> (2 * uint(j))) & 0x3
			width := (int(code) + 1) * 2
			if pos+width > len(buf) {
				return nil, wireerr.New("unpack_uint_list", wireerr.CodeLengthOverrun)
			}
			v, err := DecodeUint(buf[pos:pos+width], width)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
			pos += width
		}
	}
	return out, nil
}
