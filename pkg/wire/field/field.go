// Package field implements the TLV field head-byte encoding: a single
// byte (plus optional external length/field-id extension bytes) that
// precedes every field's value bytes in a FieldStruct body.
package field

import (
	"github.com/matteobertozzi/r5lrpc/pkg/wire/intcodec"
	"github.com/matteobertozzi/r5lrpc/pkg/wire/wireerr"
)

// Head byte layout (bit 7 is MSB):
//
//	bit 7      external-length flag
//	bits 6..4  length field (n)
//	bits 3..0  field-id encoding
const (
	extLengthFlag = 0x80
	lengthShift   = 4
	lengthMask    = 0x7
	idMask        = 0xf
)

// inlineIDMax is the largest field id encodable inline in the low 4 bits
// (values 0 and 1 of that nibble are reserved to mean "n+1 external
// id-bytes follow").
const inlineIDMax = 13

// Encode chooses the smallest head-byte representation for fieldID and
// length and returns the encoded bytes (head byte plus any external
// length/id extension bytes). The value bytes themselves are not part of
// this encoding.
func Encode(fieldID uint64, length uint64) []byte {
	var head byte
	out := make([]byte, 1, 1+8+2)

	if length >= 1 && length <= 8 {
		head |= byte(length-1) << lengthShift
	} else {
		n := intcodec.UintBytes(length)
		head |= extLengthFlag | byte(n-1)<<lengthShift
		ext := make([]byte, n)
		intcodec.EncodeUint(ext, length, n)
		out = append(out, ext...)
	}

	if fieldID <= inlineIDMax {
		head |= byte(fieldID + 2)
	} else {
		n := intcodec.UintBytes(fieldID)
		head |= byte(n - 1)
		ext := make([]byte, n)
		intcodec.EncodeUint(ext, fieldID, n)
		out = append(out, ext...)
	}

	out[0] = head
	return out
}

// Decode reads one field head (plus any external extension bytes) from
// the front of buf and returns the number of header bytes consumed, the
// field id, and the declared value length.
func Decode(buf []byte) (consumed int, fieldID uint64, length uint64, err error) {
	if len(buf) < 1 {
		return 0, 0, 0, wireerr.New("decode_field", wireerr.CodeTruncated)
	}
	head := buf[0]
	pos := 1

	if head&extLengthFlag != 0 {
		n := int((head>>lengthShift)&lengthMask) + 1
		if pos+n > len(buf) {
			return 0, 0, 0, wireerr.New("decode_field", wireerr.CodeTruncated)
		}
		length, err = intcodec.DecodeUint(buf[pos:pos+n], n)
		if err != nil {
			return 0, 0, 0, err
		}
		pos += n
	} else {
		length = uint64((head>>lengthShift)&lengthMask) + 1
	}

	idCode := head & idMask
	if idCode >= 2 {
		fieldID = uint64(idCode - 2)
	} else {
		n := int(idCode) + 1
		if pos+n > len(buf) {
			return 0, 0, 0, wireerr.New("decode_field", wireerr.CodeTruncated)
		}
		fieldID, err = intcodec.DecodeUint(buf[pos:pos+n], n)
		if err != nil {
			return 0, 0, 0, err
		}
		pos += n
	}

	return pos, fieldID, length, nil
}
