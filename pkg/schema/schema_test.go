package schema_test

import (
	"testing"

	"github.com/matteobertozzi/r5lrpc/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSchemaBitmapBytes(t *testing.T) {
	fields := []schema.FieldDescriptor{
		{UID: 0, Name: "a", ElemType: schema.TypeUint32},
		{UID: 1, Name: "b", ElemType: schema.TypeString},
	}
	s, err := schema.NewSchema("Ping", schema.KindRequest, fields)
	require.NoError(t, err)
	assert.Equal(t, 1, s.BitmapBytes())

	more := make([]schema.FieldDescriptor, 9)
	for i := range more {
		more[i] = schema.FieldDescriptor{UID: uint64(i), Name: "f", ElemType: schema.TypeUint8}
	}
	s2, err := schema.NewSchema("Big", schema.KindStruct, more)
	require.NoError(t, err)
	assert.Equal(t, 2, s2.BitmapBytes())
}

func TestNewSchemaRejectsUIDTooLarge(t *testing.T) {
	_, err := schema.NewSchema("Bad", schema.KindStruct, []schema.FieldDescriptor{
		{UID: 64, Name: "x", ElemType: schema.TypeUint8},
	})
	require.Error(t, err)
}

func TestNewSchemaRejectsDuplicateUID(t *testing.T) {
	_, err := schema.NewSchema("Bad", schema.KindStruct, []schema.FieldDescriptor{
		{UID: 1, Name: "x", ElemType: schema.TypeUint8},
		{UID: 1, Name: "y", ElemType: schema.TypeUint8},
	})
	require.Error(t, err)
}

func TestNewSchemaRejectsTooManyFields(t *testing.T) {
	fields := make([]schema.FieldDescriptor, 256)
	for i := range fields {
		fields[i] = schema.FieldDescriptor{UID: uint64(i % 64), Name: "f"}
	}
	_, err := schema.NewSchema("TooBig", schema.KindStruct, fields)
	require.Error(t, err)
}

func TestFieldByUIDUnknownReturnsNil(t *testing.T) {
	s, err := schema.NewSchema("S", schema.KindStruct, []schema.FieldDescriptor{
		{UID: 0, Name: "a", ElemType: schema.TypeUint8},
	})
	require.NoError(t, err)
	assert.Nil(t, s.FieldByUID(5))
	assert.NotNil(t, s.FieldByUID(0))
}

func TestNewRpcServiceLookup(t *testing.T) {
	req, _ := schema.NewSchema("PingReq", schema.KindRequest, nil)
	resp, _ := schema.NewSchema("PingResp", schema.KindResponse, nil)

	svc, err := schema.NewRpcService("Health", []schema.RpcCall{
		{UID: 90, Name: "Ping", Request: req, Response: resp, Async: false},
	})
	require.NoError(t, err)

	call, ok := svc.CallByUID(90)
	require.True(t, ok)
	assert.Equal(t, "Ping", call.Name)

	_, ok = svc.CallByUID(91)
	assert.False(t, ok)
}

func TestNewRpcServiceRejectsDuplicateUID(t *testing.T) {
	req, _ := schema.NewSchema("Req", schema.KindRequest, nil)
	_, err := schema.NewRpcService("Dup", []schema.RpcCall{
		{UID: 1, Name: "A", Request: req},
		{UID: 1, Name: "B", Request: req},
	})
	require.Error(t, err)
}
