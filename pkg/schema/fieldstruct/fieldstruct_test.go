package fieldstruct_test

import (
	"testing"

	"github.com/matteobertozzi/r5lrpc/pkg/schema"
	"github.com/matteobertozzi/r5lrpc/pkg/schema/fieldstruct"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustSchema(t *testing.T, name string, kind schema.Kind, fields []schema.FieldDescriptor) *schema.Schema {
	t.Helper()
	s, err := schema.NewSchema(name, kind, fields)
	require.NoError(t, err)
	return s
}

func TestEncodeStructScenario(t *testing.T) {
	s := mustSchema(t, "Pair", schema.KindStruct, []schema.FieldDescriptor{
		{UID: 1, Name: "a", ElemType: schema.TypeUint32},
		{UID: 2, Name: "b", ElemType: schema.TypeString},
	})

	inst := fieldstruct.NewInstance(s)
	inst.Set(1, uint64(257))
	inst.Set(2, "hi")

	body, blob, err := fieldstruct.Encode(inst)
	require.NoError(t, err)
	assert.Empty(t, blob)
	assert.Equal(t, []byte{
		0x02,
		0x13, 0x01, 0x01,
		0x24, 0x68, 0x69, 0x00,
	}, body)
}

func TestEncodeDecodeStructRoundTrip(t *testing.T) {
	s := mustSchema(t, "Pair", schema.KindStruct, []schema.FieldDescriptor{
		{UID: 1, Name: "a", ElemType: schema.TypeUint32},
		{UID: 2, Name: "b", ElemType: schema.TypeString},
	})

	inst := fieldstruct.NewInstance(s)
	inst.Set(1, uint64(257))
	inst.Set(2, "hi")

	body, blob, err := fieldstruct.Encode(inst)
	require.NoError(t, err)

	got, _, err := fieldstruct.Decode(s, body, blob)
	require.NoError(t, err)
	assert.True(t, inst.Equal(got))
}

func TestEncodeDecodeAllPrimitiveTypes(t *testing.T) {
	s := mustSchema(t, "Kitchen", schema.KindStruct, []schema.FieldDescriptor{
		{UID: 0, Name: "flag", ElemType: schema.TypeBool},
		{UID: 1, Name: "u8", ElemType: schema.TypeUint8},
		{UID: 2, Name: "i64", ElemType: schema.TypeInt64},
		{UID: 3, Name: "name", ElemType: schema.TypeString},
		{UID: 4, Name: "raw", ElemType: schema.TypeBytes},
	})

	inst := fieldstruct.NewInstance(s)
	inst.Set(0, true)
	inst.Set(1, uint64(200))
	inst.Set(2, int64(-12345))
	inst.Set(3, "hello world")
	inst.Set(4, []byte{0xde, 0xad, 0xbe, 0xef})

	body, blob, err := fieldstruct.Encode(inst)
	require.NoError(t, err)

	got, _, err := fieldstruct.Decode(s, body, blob)
	require.NoError(t, err)
	assert.True(t, inst.Equal(got))

	v, ok := got.Get(2)
	require.True(t, ok)
	assert.EqualValues(t, -12345, v)
}

func TestEncodeDecodeBlobField(t *testing.T) {
	s := mustSchema(t, "WithBlob", schema.KindStruct, []schema.FieldDescriptor{
		{UID: 0, Name: "payload", ElemType: schema.TypeBlob},
	})

	inst := fieldstruct.NewInstance(s)
	payload := make([]byte, 4096)
	for i := range payload {
		payload[i] = byte(i)
	}
	inst.Set(0, payload)

	body, blob, err := fieldstruct.Encode(inst)
	require.NoError(t, err)
	assert.Equal(t, payload, blob)

	got, _, err := fieldstruct.Decode(s, body, blob)
	require.NoError(t, err)
	v, ok := got.Get(0)
	require.True(t, ok)
	assert.Equal(t, payload, v)
}

func TestEncodeDecodeNestedStruct(t *testing.T) {
	inner := mustSchema(t, "Inner", schema.KindStruct, []schema.FieldDescriptor{
		{UID: 0, Name: "x", ElemType: schema.TypeUint32},
	})
	outer := mustSchema(t, "Outer", schema.KindStruct, []schema.FieldDescriptor{
		{UID: 0, Name: "inner", ElemType: schema.TypeNested, Nested: inner},
		{UID: 1, Name: "y", ElemType: schema.TypeString},
	})

	innerInst := fieldstruct.NewInstance(inner)
	innerInst.Set(0, uint64(42))

	outerInst := fieldstruct.NewInstance(outer)
	outerInst.Set(0, innerInst)
	outerInst.Set(1, "outer-value")

	body, blob, err := fieldstruct.Encode(outerInst)
	require.NoError(t, err)

	got, _, err := fieldstruct.Decode(outer, body, blob)
	require.NoError(t, err)
	assert.True(t, outerInst.Equal(got))
}

func TestEncodeDecodeNestedStructWithBlobAndTrailingBlob(t *testing.T) {
	inner := mustSchema(t, "Chunk", schema.KindStruct, []schema.FieldDescriptor{
		{UID: 0, Name: "payload", ElemType: schema.TypeBlob},
	})
	outer := mustSchema(t, "Envelope", schema.KindStruct, []schema.FieldDescriptor{
		{UID: 0, Name: "chunk", ElemType: schema.TypeNested, Nested: inner},
		{UID: 1, Name: "trailer", ElemType: schema.TypeBlob},
	})

	innerInst := fieldstruct.NewInstance(inner)
	innerInst.Set(0, []byte{1, 2, 3, 4})

	outerInst := fieldstruct.NewInstance(outer)
	outerInst.Set(0, innerInst)
	outerInst.Set(1, []byte{9, 9})

	body, blob, err := fieldstruct.Encode(outerInst)
	require.NoError(t, err)

	got, _, err := fieldstruct.Decode(outer, body, blob)
	require.NoError(t, err)
	assert.True(t, outerInst.Equal(got))

	trailer, ok := got.Get(1)
	require.True(t, ok)
	assert.Equal(t, []byte{9, 9}, trailer)
}

func TestEncodeDecodeListOfUint(t *testing.T) {
	s := mustSchema(t, "List", schema.KindStruct, []schema.FieldDescriptor{
		{UID: 0, Name: "values", ElemType: schema.TypeUint32, Repeated: true},
	})

	inst := fieldstruct.NewInstance(s)
	inst.Set(0, []uint64{1, 300, 70000, 0, 1 << 40})

	body, blob, err := fieldstruct.Encode(inst)
	require.NoError(t, err)

	got, _, err := fieldstruct.Decode(s, body, blob)
	require.NoError(t, err)
	v, ok := got.Get(0)
	require.True(t, ok)
	assert.Equal(t, []uint64{1, 300, 70000, 0, 1 << 40}, v)
}

func TestEncodeDecodeListOfString(t *testing.T) {
	s := mustSchema(t, "List", schema.KindStruct, []schema.FieldDescriptor{
		{UID: 0, Name: "names", ElemType: schema.TypeString, Repeated: true},
	})

	inst := fieldstruct.NewInstance(s)
	inst.Set(0, []string{"alpha", "beta", ""})

	body, blob, err := fieldstruct.Encode(inst)
	require.NoError(t, err)

	got, _, err := fieldstruct.Decode(s, body, blob)
	require.NoError(t, err)
	v, ok := got.Get(0)
	require.True(t, ok)
	assert.Equal(t, []string{"alpha", "beta", ""}, v)
}

func TestEncodeDecodeListOfNested(t *testing.T) {
	inner := mustSchema(t, "Point", schema.KindStruct, []schema.FieldDescriptor{
		{UID: 0, Name: "x", ElemType: schema.TypeInt32},
		{UID: 1, Name: "y", ElemType: schema.TypeInt32},
	})
	outer := mustSchema(t, "Path", schema.KindStruct, []schema.FieldDescriptor{
		{UID: 0, Name: "points", ElemType: schema.TypeNested, Nested: inner, Repeated: true},
	})

	p1 := fieldstruct.NewInstance(inner)
	p1.Set(0, int64(1))
	p1.Set(1, int64(-1))
	p2 := fieldstruct.NewInstance(inner)
	p2.Set(0, int64(100))
	p2.Set(1, int64(200))

	outerInst := fieldstruct.NewInstance(outer)
	outerInst.Set(0, []*fieldstruct.Instance{p1, p2})

	body, blob, err := fieldstruct.Encode(outerInst)
	require.NoError(t, err)

	got, _, err := fieldstruct.Decode(outer, body, blob)
	require.NoError(t, err)
	assert.True(t, outerInst.Equal(got))
}

func TestDecodeSkipsUnknownField(t *testing.T) {
	writer := mustSchema(t, "V2", schema.KindStruct, []schema.FieldDescriptor{
		{UID: 0, Name: "a", ElemType: schema.TypeUint32},
		{UID: 5, Name: "new_field", ElemType: schema.TypeString},
	})
	reader := mustSchema(t, "V1", schema.KindStruct, []schema.FieldDescriptor{
		{UID: 0, Name: "a", ElemType: schema.TypeUint32},
	})

	inst := fieldstruct.NewInstance(writer)
	inst.Set(0, uint64(7))
	inst.Set(5, "future")

	body, blob, err := fieldstruct.Encode(inst)
	require.NoError(t, err)

	got, _, err := fieldstruct.Decode(reader, body, blob)
	require.NoError(t, err)
	v, ok := got.Get(0)
	require.True(t, ok)
	assert.EqualValues(t, 7, v)
	assert.False(t, got.Present(5))
}

func TestDecodeTruncatedBody(t *testing.T) {
	s := mustSchema(t, "S", schema.KindStruct, []schema.FieldDescriptor{
		{UID: 0, Name: "a", ElemType: schema.TypeUint32},
	})
	inst := fieldstruct.NewInstance(s)
	inst.Set(0, uint64(10))

	body, _, err := fieldstruct.Encode(inst)
	require.NoError(t, err)

	_, _, err = fieldstruct.Decode(s, body[:len(body)-1], nil)
	require.Error(t, err)
}

func TestEncodeAllSixtyThreeFields(t *testing.T) {
	fields := make([]schema.FieldDescriptor, 0)
	for i := 0; i < 63; i++ {
		fields = append(fields, schema.FieldDescriptor{UID: uint64(i), Name: "f", ElemType: schema.TypeUint8})
	}
	s := mustSchema(t, "Many", schema.KindStruct, fields)
	inst := fieldstruct.NewInstance(s)
	for _, fd := range fields {
		inst.Set(fd.UID, uint64(1))
	}

	body, blob, err := fieldstruct.Encode(inst)
	require.NoError(t, err)

	got, _, err := fieldstruct.Decode(s, body, blob)
	require.NoError(t, err)
	assert.True(t, inst.Equal(got))
}

func TestGetOrDefaultFallsBackToZeroValue(t *testing.T) {
	s := mustSchema(t, "Defaults", schema.KindStruct, []schema.FieldDescriptor{
		{UID: 0, Name: "count", ElemType: schema.TypeUint32, Default: uint64(9)},
		{UID: 1, Name: "label", ElemType: schema.TypeString},
	})
	inst := fieldstruct.NewInstance(s)

	assert.EqualValues(t, 9, inst.GetOrDefault(0))
	assert.EqualValues(t, "", inst.GetOrDefault(1))
}
