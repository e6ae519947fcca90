// Package rpcheader implements the two RPC header encodings carried
// inside a frame payload: the packed short header (one flag byte plus
// two fixed-width integers) and the long/IPC header (two flag bytes
// declaring the widths of up to five length-prefixed integers, followed
// by the fwd/body/data blob regions they describe).
//
// r5lrpc treats the long header as the normative encoding for
// RpcService-level calls: pkg/rpcclient and pkg/rpcserver frame every
// call with it. The short header codec is provided alongside it; no
// connection in this module selects or negotiates it.
package rpcheader

import (
	"github.com/matteobertozzi/r5lrpc/pkg/wire/intcodec"
	"github.com/matteobertozzi/r5lrpc/pkg/wire/wireerr"
)

// ShortHeader is the packed 1+N form (§6.2): one flag byte followed by a
// fixed-width msg_type and req_id, LSB-first.
type ShortHeader struct {
	MsgType uint64
	ReqID   uint64
	// Request is true for a request (dir bit 1), false for a response.
	Request bool
}

// EncodeShort writes h as a packed short header, choosing the minimum
// byte width for MsgType and ReqID.
func EncodeShort(h ShortHeader) []byte {
	lenA := intcodec.UintBytes(h.MsgType)
	lenB := intcodec.UintBytes(h.ReqID)

	out := make([]byte, 1+lenA+lenB)
	var dir byte
	if h.Request {
		dir = 1
	}
	out[0] = byte(lenA-1)<<5 | byte(lenB-1)<<2 | dir<<1

	intcodec.EncodeUint(out[1:1+lenA], h.MsgType, lenA)
	intcodec.EncodeUint(out[1+lenA:1+lenA+lenB], h.ReqID, lenB)
	return out
}

// DecodeShort reads a packed short header from the front of buf and
// returns the number of bytes consumed.
func DecodeShort(buf []byte) (consumed int, h ShortHeader, err error) {
	if len(buf) < 1 {
		return 0, ShortHeader{}, wireerr.New("rpcheader.DecodeShort", wireerr.CodeTruncated)
	}
	flags := buf[0]
	lenA := int((flags>>5)&0x7) + 1
	lenB := int((flags>>2)&0x7) + 1
	dir := (flags >> 1) & 0x1

	pos := 1
	if pos+lenA+lenB > len(buf) {
		return 0, ShortHeader{}, wireerr.New("rpcheader.DecodeShort", wireerr.CodeTruncated)
	}

	msgType, err := intcodec.DecodeUint(buf[pos:pos+lenA], lenA)
	if err != nil {
		return 0, ShortHeader{}, err
	}
	pos += lenA

	reqID, err := intcodec.DecodeUint(buf[pos:pos+lenB], lenB)
	if err != nil {
		return 0, ShortHeader{}, err
	}
	pos += lenB

	return pos, ShortHeader{MsgType: msgType, ReqID: reqID, Request: dir == 1}, nil
}

// Package-type discriminants for LongHeader.PackageType, shared by the
// client and server dispatchers so a reply can be told apart from a
// dispatcher-level error without either side redefining the values.
const (
	PackageTypeRequest  byte = 1
	PackageTypeResponse byte = 2
	PackageTypeError    byte = 3
)

// LongHeader is the long/IPC envelope form (§6.3): two flag bytes
// declaring widths, followed by msg_type, req_id, and the fwd/body/data
// blob triple.
type LongHeader struct {
	// PackageType is a 4-bit direction/control discriminant.
	PackageType byte
	MsgType     uint64
	ReqID       uint64
	Fwd         []byte
	Body        []byte
	Data        []byte
}

// maxFwdBodyWidth and maxDataWidth bound the byte width selectable for a fwd/body/data
// length field: 2 bits for fwd/body (0..3), 3 bits for data (0..7).
const (
	maxFwdBodyWidth = 3
	maxDataWidth    = 7
)

func lengthWidth(n int, maxWidth int) (int, error) {
	if n == 0 {
		return 0, nil
	}
	w := intcodec.UintBytes(uint64(n))
	if w > maxWidth {
		return 0, wireerr.New("rpcheader.EncodeLong", wireerr.CodeLengthOverrun)
	}
	return w, nil
}

// EncodeLong writes h as a long/IPC header plus its fwd/body/data blobs.
func EncodeLong(h LongHeader) ([]byte, error) {
	if h.PackageType > 0xf {
		return nil, wireerr.New("rpcheader.EncodeLong", wireerr.CodeMalformedHead)
	}

	msgTypeBytes := intcodec.UintBytes(h.MsgType)
	if msgTypeBytes > 4 {
		return nil, wireerr.New("rpcheader.EncodeLong", wireerr.CodeLengthOverrun)
	}
	reqIDBytes := intcodec.UintBytes(h.ReqID)
	if reqIDBytes > 8 {
		return nil, wireerr.New("rpcheader.EncodeLong", wireerr.CodeLengthOverrun)
	}

	fwdBytes, err := lengthWidth(len(h.Fwd), maxFwdBodyWidth)
	if err != nil {
		return nil, err
	}
	bodyBytes, err := lengthWidth(len(h.Body), maxFwdBodyWidth)
	if err != nil {
		return nil, err
	}
	dataBytes, err := lengthWidth(len(h.Data), maxDataWidth)
	if err != nil {
		return nil, err
	}

	total := 2 + msgTypeBytes + reqIDBytes + fwdBytes + bodyBytes + dataBytes +
		len(h.Fwd) + len(h.Body) + len(h.Data)
	out := make([]byte, total)

	out[0] = h.PackageType<<4 | byte(msgTypeBytes-1)<<2 | byte(fwdBytes)
	out[1] = byte(reqIDBytes-1)<<5 | byte(bodyBytes)<<3 | byte(dataBytes)

	pos := 2
	intcodec.EncodeUint(out[pos:pos+msgTypeBytes], h.MsgType, msgTypeBytes)
	pos += msgTypeBytes
	intcodec.EncodeUint(out[pos:pos+reqIDBytes], h.ReqID, reqIDBytes)
	pos += reqIDBytes
	if fwdBytes > 0 {
		intcodec.EncodeUint(out[pos:pos+fwdBytes], uint64(len(h.Fwd)), fwdBytes)
		pos += fwdBytes
	}
	if bodyBytes > 0 {
		intcodec.EncodeUint(out[pos:pos+bodyBytes], uint64(len(h.Body)), bodyBytes)
		pos += bodyBytes
	}
	if dataBytes > 0 {
		intcodec.EncodeUint(out[pos:pos+dataBytes], uint64(len(h.Data)), dataBytes)
		pos += dataBytes
	}

	pos += copy(out[pos:], h.Fwd)
	pos += copy(out[pos:], h.Body)
	copy(out[pos:], h.Data)

	return out, nil
}

// DecodeLong reads a long/IPC header plus its fwd/body/data blobs from
// the front of buf and returns the number of bytes consumed. The
// returned LongHeader's Fwd/Body/Data slices borrow directly into buf.
func DecodeLong(buf []byte) (consumed int, h LongHeader, err error) {
	if len(buf) < 2 {
		return 0, LongHeader{}, wireerr.New("rpcheader.DecodeLong", wireerr.CodeTruncated)
	}

	b0, b1 := buf[0], buf[1]
	packageType := (b0 >> 4) & 0xf
	msgTypeBytes := int((b0>>2)&0x3) + 1
	fwdBytes := int(b0 & 0x3)
	reqIDBytes := int((b1>>5)&0x7) + 1
	bodyBytes := int((b1 >> 3) & 0x3)
	dataBytes := int(b1 & 0x7)

	pos := 2
	need := msgTypeBytes + reqIDBytes + fwdBytes + bodyBytes + dataBytes
	if pos+need > len(buf) {
		return 0, LongHeader{}, wireerr.New("rpcheader.DecodeLong", wireerr.CodeTruncated)
	}

	msgType, err := intcodec.DecodeUint(buf[pos:pos+msgTypeBytes], msgTypeBytes)
	if err != nil {
		return 0, LongHeader{}, err
	}
	pos += msgTypeBytes

	reqID, err := intcodec.DecodeUint(buf[pos:pos+reqIDBytes], reqIDBytes)
	if err != nil {
		return 0, LongHeader{}, err
	}
	pos += reqIDBytes

	var fwdLen, bodyLen, dataLen uint64
	if fwdBytes > 0 {
		fwdLen, err = intcodec.DecodeUint(buf[pos:pos+fwdBytes], fwdBytes)
		if err != nil {
			return 0, LongHeader{}, err
		}
		pos += fwdBytes
	}
	if bodyBytes > 0 {
		bodyLen, err = intcodec.DecodeUint(buf[pos:pos+bodyBytes], bodyBytes)
		if err != nil {
			return 0, LongHeader{}, err
		}
		pos += bodyBytes
	}
	if dataBytes > 0 {
		dataLen, err = intcodec.DecodeUint(buf[pos:pos+dataBytes], dataBytes)
		if err != nil {
			return 0, LongHeader{}, err
		}
		pos += dataBytes
	}

	if pos+int(fwdLen)+int(bodyLen)+int(dataLen) > len(buf) {
		return 0, LongHeader{}, wireerr.New("rpcheader.DecodeLong", wireerr.CodeLengthOverrun)
	}

	fwd := buf[pos : pos+int(fwdLen)]
	pos += int(fwdLen)
	body := buf[pos : pos+int(bodyLen)]
	pos += int(bodyLen)
	data := buf[pos : pos+int(dataLen)]
	pos += int(dataLen)

	return pos, LongHeader{
		PackageType: packageType,
		MsgType:     msgType,
		ReqID:       reqID,
		Fwd:         fwd,
		Body:        body,
		Data:        data,
	}, nil
}
