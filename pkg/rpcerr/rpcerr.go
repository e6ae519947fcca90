// Package rpcerr is the client/server-visible error taxonomy for RPC
// calls, distinct from pkg/wire/wireerr which covers byte-level codec
// failures. A Kind classifies why a call did not complete normally;
// server handlers return it instead of a Go error so the dispatcher can
// turn it into a status-response body rather than an unwound panic.
package rpcerr

import (
	"fmt"

	"github.com/matteobertozzi/r5lrpc/pkg/schema"
	"github.com/matteobertozzi/r5lrpc/pkg/schema/fieldstruct"
)

// Kind classifies an RPC-level failure.
type Kind int

const (
	Unknown Kind = iota
	ParseError
	Timeout
	Cancelled
	OrphanResponse
	ConnectionClosed
	Backpressure
)

func (k Kind) String() string {
	switch k {
	case Unknown:
		return "unknown"
	case ParseError:
		return "parse_error"
	case Timeout:
		return "timeout"
	case Cancelled:
		return "cancelled"
	case OrphanResponse:
		return "orphan_response"
	case ConnectionClosed:
		return "connection_closed"
	case Backpressure:
		return "backpressure"
	default:
		return "unknown"
	}
}

// Error is the taxonomy's single exported error type: a Kind plus
// call-identifying context and an optional wrapped cause.
type Error struct {
	Kind      Kind
	ServiceID string
	MsgType   uint64
	ReqID     uint64
	Msg       string
	Err       error
}

func (e *Error) Error() string {
	if e.Msg == "" && e.Err == nil {
		return fmt.Sprintf("rpc %s: service=%s msg_type=%d req_id=%d", e.Kind, e.ServiceID, e.MsgType, e.ReqID)
	}
	if e.Err != nil {
		return fmt.Sprintf("rpc %s: service=%s msg_type=%d req_id=%d: %v", e.Kind, e.ServiceID, e.MsgType, e.ReqID, e.Err)
	}
	return fmt.Sprintf("rpc %s: service=%s msg_type=%d req_id=%d: %s", e.Kind, e.ServiceID, e.MsgType, e.ReqID, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether err is an *Error of the given kind.
func Is(err error, k Kind) bool {
	var e *Error
	if err == nil {
		return false
	}
	ae, ok := err.(*Error)
	if !ok {
		return false
	}
	e = ae
	return e.Kind == k
}

// New constructs an *Error with no wrapped cause.
func New(k Kind, serviceID string, msgType, reqID uint64, msg string) *Error {
	return &Error{Kind: k, ServiceID: serviceID, MsgType: msgType, ReqID: reqID, Msg: msg}
}

// Wrap constructs an *Error around an existing error, typically a
// pkg/wire/wireerr.Error surfaced up from the codec layer.
func Wrap(k Kind, serviceID string, msgType, reqID uint64, err error) *Error {
	return &Error{Kind: k, ServiceID: serviceID, MsgType: msgType, ReqID: reqID, Err: err}
}

// ErrorSchema is the fixed wire shape of a dispatcher-level failure
// response: a Kind ordinal plus a human-readable message. It is shared
// between the server, which fills it in from an *Error to send back,
// and the client, which decodes it back into one on receipt.
var ErrorSchema = mustErrorSchema()

func mustErrorSchema() *schema.Schema {
	s, err := schema.NewSchema("Error", schema.KindResponse, []schema.FieldDescriptor{
		{UID: 0, Name: "kind", ElemType: schema.TypeUint8},
		{UID: 1, Name: "message", ElemType: schema.TypeString},
	})
	if err != nil {
		panic(err)
	}
	return s
}

// EncodeInstance renders e as an ErrorSchema-shaped FieldStruct body,
// for a dispatcher to frame back onto the wire as a package-type-error
// payload.
func EncodeInstance(e *Error) (body []byte, blob []byte, err error) {
	inst := fieldstruct.NewInstance(ErrorSchema)
	inst.Set(0, uint64(e.Kind))
	inst.Set(1, e.Error())
	return fieldstruct.Encode(inst)
}

// DecodeInstance parses an ErrorSchema-shaped FieldStruct body/blob pair
// back into an *Error, attributing it to serviceID/msgType/reqID since
// the wire shape itself carries neither.
func DecodeInstance(serviceID string, msgType, reqID uint64, body, blob []byte) (*Error, error) {
	inst, _, err := fieldstruct.Decode(ErrorSchema, body, blob)
	if err != nil {
		return nil, err
	}
	kind := Unknown
	if v, ok := inst.Get(0); ok {
		kind = Kind(v.(uint64))
	}
	msg := ""
	if v, ok := inst.Get(1); ok {
		msg = v.(string)
	}
	return &Error{Kind: kind, ServiceID: serviceID, MsgType: msgType, ReqID: reqID, Msg: msg}, nil
}
