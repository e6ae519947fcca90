// Package schema describes the structs and RPCs that the FieldStruct
// codec (pkg/schema/fieldstruct) and the client/server dispatchers
// (pkg/rpcclient, pkg/rpcserver) drive: field descriptors, struct
// schemas, RPC calls, and RPC services.
package schema

import (
	"fmt"
	"sort"
)

// Type identifies a field's wire-level primitive shape.
type Type int

const (
	TypeBool Type = iota
	TypeInt8
	TypeInt16
	TypeInt32
	TypeInt64
	TypeUint8
	TypeUint16
	TypeUint32
	TypeUint64
	TypeString
	TypeBytes
	TypeBlob
	TypeNested
	TypeList
)

func (t Type) String() string {
	switch t {
	case TypeBool:
		return "bool"
	case TypeInt8:
		return "int8"
	case TypeInt16:
		return "int16"
	case TypeInt32:
		return "int32"
	case TypeInt64:
		return "int64"
	case TypeUint8:
		return "uint8"
	case TypeUint16:
		return "uint16"
	case TypeUint32:
		return "uint32"
	case TypeUint64:
		return "uint64"
	case TypeString:
		return "string"
	case TypeBytes:
		return "bytes"
	case TypeBlob:
		return "blob"
	case TypeNested:
		return "nested"
	case TypeList:
		return "list"
	default:
		return "unknown"
	}
}

// IsSignedInt reports whether t is one of the int8..int64 family, which
// the FieldStruct codec zig-zags before packing as an unsigned integer.
func (t Type) IsSignedInt() bool {
	return t == TypeInt8 || t == TypeInt16 || t == TypeInt32 || t == TypeInt64
}

// IsUnsignedInt reports whether t is bool or one of uint8..uint64, which
// the FieldStruct codec packs directly as an unsigned integer.
func (t Type) IsUnsignedInt() bool {
	return t == TypeBool || t == TypeUint8 || t == TypeUint16 || t == TypeUint32 || t == TypeUint64
}

// FieldDescriptor is one immutable field entry in a Schema.
type FieldDescriptor struct {
	// UID is the field's stable small integer identifier, unique and
	// < 64 within its schema.
	UID uint64
	// Name is the field's identifier as written in the IDL source.
	Name string
	// ElemType is the field's primitive type, or the element type when
	// Repeated is true.
	ElemType Type
	// Nested is the referenced struct schema when ElemType is
	// TypeNested (or a list of nested structs).
	Nested *Schema
	// Repeated marks this field as list[ElemType].
	Repeated bool
	// Default is the literal value substituted when the field is absent
	// from the wire. nil means "zero value of ElemType".
	Default any
}

// Kind classifies a Schema's role.
type Kind int

const (
	KindStruct Kind = iota
	KindRequest
	KindResponse
)

func (k Kind) String() string {
	switch k {
	case KindStruct:
		return "struct"
	case KindRequest:
		return "request"
	case KindResponse:
		return "response"
	default:
		return "unknown"
	}
}

// maxFieldUID is the per-message bitmap width: uid values must be < 64.
const maxFieldUID = 64

// maxFieldsPerMessage is the normative cap on present fields per
// FieldStruct body, imposed by the single-byte field-count prefix.
const maxFieldsPerMessage = 255

// Schema is a named, ordered collection of FieldDescriptors.
type Schema struct {
	Name   string
	Kind   Kind
	Fields []FieldDescriptor

	byUID map[uint64]*FieldDescriptor
}

// Error reports a schema construction or lookup failure.
type Error struct {
	Schema string
	Msg    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("schema %q: %s", e.Schema, e.Msg)
}

// NewSchema validates fields and builds a Schema, or returns a *Error if
// any uid is out of range or duplicated, or the field count exceeds the
// normative 255-field cap.
func NewSchema(name string, kind Kind, fields []FieldDescriptor) (*Schema, error) {
	if len(fields) > maxFieldsPerMessage {
		return nil, &Error{Schema: name, Msg: fmt.Sprintf("field count %d exceeds maximum %d", len(fields), maxFieldsPerMessage)}
	}

	out := make([]FieldDescriptor, len(fields))
	copy(out, fields)
	sort.Slice(out, func(i, j int) bool { return out[i].UID < out[j].UID })

	byUID := make(map[uint64]*FieldDescriptor, len(fields))
	for i := range out {
		f := &out[i]
		if f.UID >= maxFieldUID {
			return nil, &Error{Schema: name, Msg: fmt.Sprintf("field %q uid %d exceeds maximum %d", f.Name, f.UID, maxFieldUID-1)}
		}
		if _, dup := byUID[f.UID]; dup {
			return nil, &Error{Schema: name, Msg: fmt.Sprintf("duplicate field uid %d", f.UID)}
		}
		byUID[f.UID] = f
	}

	return &Schema{Name: name, Kind: kind, Fields: out, byUID: byUID}, nil
}

// BitmapBytes returns ceil(field_count/8), the number of bytes needed for
// a one-bit-per-field presence bitmap.
func (s *Schema) BitmapBytes() int {
	return (len(s.Fields) + 7) / 8
}

// FieldByUID returns the field descriptor for uid, or nil if unknown —
// callers use this to distinguish a known field to skip-decode versus an
// unrecognized one to forward-compatibly skip.
func (s *Schema) FieldByUID(uid uint64) *FieldDescriptor {
	return s.byUID[uid]
}

// RpcCall describes one entry in an RpcService: a message type, its
// request/response schemas, and whether it dispatches synchronously.
type RpcCall struct {
	UID      uint64
	Name     string
	Request  *Schema
	Response *Schema
	Async    bool
}

// RpcService is a named list of RpcCalls with a uid-keyed lookup table.
type RpcService struct {
	Name  string
	Calls []RpcCall

	byUID map[uint64]*RpcCall
}

// maxCallUID is the largest representable message type (16 bits).
const maxCallUID = 65535

// NewRpcService validates call uid uniqueness/range and builds the
// dispatch lookup table shared by client and server.
func NewRpcService(name string, calls []RpcCall) (*RpcService, error) {
	byUID := make(map[uint64]*RpcCall, len(calls))
	out := make([]RpcCall, len(calls))
	copy(out, calls)

	for i := range out {
		c := &out[i]
		if c.UID > maxCallUID {
			return nil, &Error{Schema: name, Msg: fmt.Sprintf("call %q uid %d exceeds maximum %d", c.Name, c.UID, maxCallUID)}
		}
		if _, dup := byUID[c.UID]; dup {
			return nil, &Error{Schema: name, Msg: fmt.Sprintf("duplicate call uid %d", c.UID)}
		}
		byUID[c.UID] = c
	}

	return &RpcService{Name: name, Calls: out, byUID: byUID}, nil
}

// CallByUID looks up a call by its message type, returning (call, true)
// or (nil, false) if msg_type is unknown to this service.
func (s *RpcService) CallByUID(msgType uint64) (*RpcCall, bool) {
	c, ok := s.byUID[msgType]
	return c, ok
}

// Registry is the compiled output of an IDL source file: every named
// struct/request/response schema plus every rpc service, keyed by name.
type Registry struct {
	Structs  map[string]*Schema
	Services map[string]*RpcService
}

// NewRegistry builds an empty Registry ready for population by a
// compiler.
func NewRegistry() *Registry {
	return &Registry{
		Structs:  make(map[string]*Schema),
		Services: make(map[string]*RpcService),
	}
}

// Struct looks up a compiled struct/request/response schema by name.
func (r *Registry) Struct(name string) (*Schema, bool) {
	s, ok := r.Structs[name]
	return s, ok
}

// Service looks up a compiled rpc service by name.
func (r *Registry) Service(name string) (*RpcService, bool) {
	s, ok := r.Services[name]
	return s, ok
}
