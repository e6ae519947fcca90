package fieldstruct

import (
	"github.com/matteobertozzi/r5lrpc/pkg/schema"
	"github.com/matteobertozzi/r5lrpc/pkg/wire/field"
	"github.com/matteobertozzi/r5lrpc/pkg/wire/intcodec"
	"github.com/matteobertozzi/r5lrpc/pkg/wire/wireerr"
)

// maxPresentFields is the single-byte field-count prefix's ceiling.
const maxPresentFields = 255

// Encode serializes inst into a FieldStruct body. Blob-typed field values
// are not inlined into the body: their bytes are appended to the
// returned blob slice, and the body carries only a varint length,
// mirroring the long RPC header's separate body/data regions.
func Encode(inst *Instance) (body []byte, blob []byte, err error) {
	present := make([]*schema.FieldDescriptor, 0, len(inst.Schema.Fields))
	for _, fd := range inst.Schema.Fields {
		if inst.Present(fd.UID) {
			present = append(present, &fd)
		}
	}
	if len(present) > maxPresentFields {
		return nil, nil, wireerr.New("fieldstruct.Encode", wireerr.CodeLengthOverrun)
	}

	body = append(body, byte(len(present)))
	for _, fd := range present {
		v, _ := inst.Get(fd.UID)
		valueBytes, err := encodeValue(fd, v, &blob)
		if err != nil {
			return nil, nil, err
		}
		head := field.Encode(fd.UID, uint64(len(valueBytes)))
		body = append(body, head...)
		body = append(body, valueBytes...)
	}
	return body, blob, nil
}

// Decode parses a FieldStruct body (plus its companion blob region) back
// into an Instance over s, reporting how many bytes of blob it consumed
// so a caller decoding a nested or repeated-nested field can advance its
// own blob cursor past what this call borrowed. Unknown field uids are
// skipped by consuming their declared length, preserving forward
// compatibility.
func Decode(s *schema.Schema, body []byte, blob []byte) (inst *Instance, blobConsumed int, err error) {
	if len(body) < 1 {
		return nil, 0, wireerr.New("fieldstruct.Decode", wireerr.CodeTruncated)
	}
	n := int(body[0])
	pos := 1
	blobPos := 0

	inst = NewInstance(s)

	for i := 0; i < n; i++ {
		if pos >= len(body) {
			return nil, 0, wireerr.New("fieldstruct.Decode", wireerr.CodeTruncated)
		}
		consumed, uid, length, err := field.Decode(body[pos:])
		if err != nil {
			return nil, 0, err
		}
		pos += consumed

		if uint64(pos)+length > uint64(len(body)) {
			return nil, 0, wireerr.New("fieldstruct.Decode", wireerr.CodeLengthOverrun)
		}
		valueBytes := body[pos : pos+int(length)]
		pos += int(length)

		fd := s.FieldByUID(uid)
		if fd == nil {
			// Unknown field: declared length already consumed above, skip.
			continue
		}

		v, consumedBlob, err := decodeValue(fd, valueBytes, blob[blobPos:])
		if err != nil {
			return nil, 0, err
		}
		blobPos += consumedBlob
		inst.Set(uid, v)
	}

	return inst, blobPos, nil
}

func encodeValue(fd *schema.FieldDescriptor, v any, blobOut *[]byte) (valueBytes []byte, err error) {
	if fd.Repeated {
		return encodeList(fd, v, blobOut)
	}

	switch {
	case fd.ElemType == schema.TypeBool:
		b := v.(bool)
		u := uint64(0)
		if b {
			u = 1
		}
		return encodeUint(u), nil

	case fd.ElemType.IsUnsignedInt():
		return encodeUint(v.(uint64)), nil

	case fd.ElemType.IsSignedInt():
		return encodeUint(intcodec.ZigzagEncode(v.(int64))), nil

	case fd.ElemType == schema.TypeString:
		s := v.(string)
		out := make([]byte, 0, len(s)+1)
		out = append(out, []byte(s)...)
		out = append(out, 0)
		return out, nil

	case fd.ElemType == schema.TypeBytes:
		return v.([]byte), nil

	case fd.ElemType == schema.TypeBlob:
		b := v.([]byte)
		*blobOut = append(*blobOut, b...)
		return intcodec.EncodeVarint(uint64(len(b))), nil

	case fd.ElemType == schema.TypeNested:
		nested := v.(*Instance)
		nb, nblob, err := Encode(nested)
		if err != nil {
			return nil, err
		}
		*blobOut = append(*blobOut, nblob...)
		return nb, nil

	default:
		return nil, wireerr.New("fieldstruct.encodeValue", wireerr.CodeMalformedHead)
	}
}

func encodeUint(v uint64) []byte {
	w := intcodec.UintBytes(v)
	buf := make([]byte, w)
	intcodec.EncodeUint(buf, v, w)
	return buf
}

func encodeList(fd *schema.FieldDescriptor, v any, blobOut *[]byte) (valueBytes []byte, err error) {
	switch {
	case fd.ElemType == schema.TypeBool, fd.ElemType.IsUnsignedInt():
		vals := v.([]uint64)
		out := intcodec.EncodeVarint(uint64(len(vals)))
		out = append(out, intcodec.PackUintList(vals)...)
		return out, nil

	case fd.ElemType.IsSignedInt():
		vals := v.([]int64)
		zz := make([]uint64, len(vals))
		for i, s := range vals {
			zz[i] = intcodec.ZigzagEncode(s)
		}
		out := intcodec.EncodeVarint(uint64(len(vals)))
		out = append(out, intcodec.PackUintList(zz)...)
		return out, nil

	case fd.ElemType == schema.TypeString:
		vals := v.([]string)
		var out []byte
		for _, s := range vals {
			out = append(out, intcodec.EncodeVarint(uint64(len(s)+1))...)
			out = append(out, []byte(s)...)
			out = append(out, 0)
		}
		return out, nil

	case fd.ElemType == schema.TypeBytes:
		vals := v.([][]byte)
		var out []byte
		for _, b := range vals {
			out = append(out, intcodec.EncodeVarint(uint64(len(b)))...)
			out = append(out, b...)
		}
		return out, nil

	case fd.ElemType == schema.TypeNested:
		vals := v.([]*Instance)
		out := intcodec.EncodeVarint(uint64(len(vals)))
		for _, elem := range vals {
			nb, nblob, err := Encode(elem)
			if err != nil {
				return nil, err
			}
			out = append(out, intcodec.EncodeVarint(uint64(len(nb)))...)
			out = append(out, nb...)
			*blobOut = append(*blobOut, nblob...)
		}
		return out, nil

	default:
		return nil, wireerr.New("fieldstruct.encodeList", wireerr.CodeMalformedHead)
	}
}

func decodeValue(fd *schema.FieldDescriptor, body []byte, blob []byte) (v any, blobConsumed int, err error) {
	if fd.Repeated {
		return decodeList(fd, body, blob)
	}

	switch {
	case fd.ElemType == schema.TypeBool:
		u, err := intcodec.DecodeUint(body, len(body))
		if err != nil {
			return nil, 0, err
		}
		return u != 0, 0, nil

	case fd.ElemType.IsUnsignedInt():
		u, err := intcodec.DecodeUint(body, len(body))
		if err != nil {
			return nil, 0, err
		}
		return u, 0, nil

	case fd.ElemType.IsSignedInt():
		u, err := intcodec.DecodeUint(body, len(body))
		if err != nil {
			return nil, 0, err
		}
		return intcodec.ZigzagDecode(u), 0, nil

	case fd.ElemType == schema.TypeString:
		if len(body) == 0 || body[len(body)-1] != 0 {
			return nil, 0, wireerr.New("fieldstruct.decodeValue", wireerr.CodeMalformedHead)
		}
		return string(body[:len(body)-1]), 0, nil

	case fd.ElemType == schema.TypeBytes:
		return append([]byte(nil), body...), 0, nil

	case fd.ElemType == schema.TypeBlob:
		_, blobLen, err := intcodec.DecodeVarint(body)
		if err != nil {
			return nil, 0, err
		}
		if int(blobLen) > len(blob) {
			return nil, 0, wireerr.New("fieldstruct.decodeValue", wireerr.CodeLengthOverrun)
		}
		return append([]byte(nil), blob[:blobLen]...), int(blobLen), nil

	case fd.ElemType == schema.TypeNested:
		nested, nestedBlobConsumed, err := Decode(fd.Nested, body, blob)
		if err != nil {
			return nil, 0, err
		}
		return nested, nestedBlobConsumed, nil

	default:
		return nil, 0, wireerr.New("fieldstruct.decodeValue", wireerr.CodeMalformedHead)
	}
}

func decodeList(fd *schema.FieldDescriptor, body []byte, blob []byte) (v any, blobConsumed int, err error) {
	switch {
	case fd.ElemType == schema.TypeBool, fd.ElemType.IsUnsignedInt():
		consumed, count, err := intcodec.DecodeVarint(body)
		if err != nil {
			return nil, 0, err
		}
		vals, err := intcodec.UnpackUintList(body[consumed:], int(count))
		if err != nil {
			return nil, 0, err
		}
		return vals, 0, nil

	case fd.ElemType.IsSignedInt():
		consumed, count, err := intcodec.DecodeVarint(body)
		if err != nil {
			return nil, 0, err
		}
		vals, err := intcodec.UnpackUintList(body[consumed:], int(count))
		if err != nil {
			return nil, 0, err
		}
		signed := make([]int64, len(vals))
		for i, u := range vals {
			signed[i] = intcodec.ZigzagDecode(u)
		}
		return signed, 0, nil

	case fd.ElemType == schema.TypeString:
		var out []string
		pos := 0
		for pos < len(body) {
			consumed, l, err := intcodec.DecodeVarint(body[pos:])
			if err != nil {
				return nil, 0, err
			}
			pos += consumed
			if pos+int(l) > len(body) || l == 0 {
				return nil, 0, wireerr.New("fieldstruct.decodeList", wireerr.CodeLengthOverrun)
			}
			elem := body[pos : pos+int(l)]
			if elem[len(elem)-1] != 0 {
				return nil, 0, wireerr.New("fieldstruct.decodeList", wireerr.CodeMalformedHead)
			}
			out = append(out, string(elem[:len(elem)-1]))
			pos += int(l)
		}
		return out, 0, nil

	case fd.ElemType == schema.TypeBytes:
		var out [][]byte
		pos := 0
		for pos < len(body) {
			consumed, l, err := intcodec.DecodeVarint(body[pos:])
			if err != nil {
				return nil, 0, err
			}
			pos += consumed
			if pos+int(l) > len(body) {
				return nil, 0, wireerr.New("fieldstruct.decodeList", wireerr.CodeLengthOverrun)
			}
			out = append(out, append([]byte(nil), body[pos:pos+int(l)]...))
			pos += int(l)
		}
		return out, 0, nil

	case fd.ElemType == schema.TypeNested:
		var out []*Instance
		pos := 0
		countConsumed, count, err := intcodec.DecodeVarint(body)
		if err != nil {
			return nil, 0, err
		}
		pos += countConsumed
		blobPos := 0
		for i := uint64(0); i < count; i++ {
			lenConsumed, l, err := intcodec.DecodeVarint(body[pos:])
			if err != nil {
				return nil, 0, err
			}
			pos += lenConsumed
			if pos+int(l) > len(body) {
				return nil, 0, wireerr.New("fieldstruct.decodeList", wireerr.CodeLengthOverrun)
			}
			elem, consumedBlob, err := Decode(fd.Nested, body[pos:pos+int(l)], blob[blobPos:])
			if err != nil {
				return nil, 0, err
			}
			blobPos += consumedBlob
			out = append(out, elem)
			pos += int(l)
		}
		return out, blobPos, nil

	default:
		return nil, 0, wireerr.New("fieldstruct.decodeList", wireerr.CodeMalformedHead)
	}
}
