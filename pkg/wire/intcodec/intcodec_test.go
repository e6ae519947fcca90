package intcodec_test

import (
	"testing"

	"github.com/matteobertozzi/r5lrpc/pkg/wire/intcodec"
	"github.com/matteobertozzi/r5lrpc/pkg/wire/wireerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUintBytesAndRoundTrip(t *testing.T) {
	cases := []uint64{0, 1, 0x7f, 0x80, 0xff, 0x100, 1 << 20, 1 << 32, 1<<63 - 1, 1<<64 - 1}
	for _, v := range cases {
		n := intcodec.UintBytes(v)
		assert.GreaterOrEqual(t, n, 1)
		assert.LessOrEqual(t, n, 8)

		buf := make([]byte, n)
		intcodec.EncodeUint(buf, v, n)
		got, err := intcodec.DecodeUint(buf, n)
		require.NoError(t, err)
		assert.Equal(t, v, got, "round trip of %d with width %d", v, n)
	}
}

func TestUintBytesMinimal(t *testing.T) {
	assert.Equal(t, 1, intcodec.UintBytes(0))
	assert.Equal(t, 1, intcodec.UintBytes(255))
	assert.Equal(t, 2, intcodec.UintBytes(256))
	assert.Equal(t, 2, intcodec.UintBytes(65535))
	assert.Equal(t, 3, intcodec.UintBytes(65536))
	assert.Equal(t, 8, intcodec.UintBytes(1<<64-1))
}

func TestDecodeUintTruncated(t *testing.T) {
	_, err := intcodec.DecodeUint([]byte{0x01}, 4)
	require.Error(t, err)
	assert.True(t, wireerr.Is(err, wireerr.CodeTruncated))
}

func TestZigzagRoundTrip(t *testing.T) {
	cases := []int64{0, 1, -1, 2, -2, 1 << 30, -(1 << 30), 1<<62 - 1, -(1 << 62)}
	for _, s := range cases {
		u := intcodec.ZigzagEncode(s)
		got := intcodec.ZigzagDecode(u)
		assert.Equal(t, s, got)
	}
}

func TestZigzagSmallMagnitudesStaySmall(t *testing.T) {
	assert.Equal(t, uint64(0), intcodec.ZigzagEncode(0))
	assert.Equal(t, uint64(1), intcodec.ZigzagEncode(-1))
	assert.Equal(t, uint64(2), intcodec.ZigzagEncode(1))
	assert.Equal(t, uint64(3), intcodec.ZigzagEncode(-2))
}

func TestVarintSeedScenario(t *testing.T) {
	// encode_varint(300) = 0xAC 0x02
	got := intcodec.EncodeVarint(300)
	assert.Equal(t, []byte{0xAC, 0x02}, got)

	// encode_varint(0) = 0x00
	assert.Equal(t, []byte{0x00}, intcodec.EncodeVarint(0))

	// encode_varint(2^63) is 10 bytes, last byte has no continuation bit.
	big := intcodec.EncodeVarint(1 << 63)
	assert.Len(t, big, 10)
	assert.Zero(t, big[len(big)-1]&0x80)
}

func TestVarintRoundTripWithTrailingBytes(t *testing.T) {
	trailer := []byte{0xde, 0xad, 0xbe, 0xef}
	for _, v := range []uint64{0, 1, 127, 128, 300, 1 << 20, 1 << 63, 1<<64 - 1} {
		enc := intcodec.EncodeVarint(v)
		buf := append(append([]byte(nil), enc...), trailer...)

		consumed, value, err := intcodec.DecodeVarint(buf)
		require.NoError(t, err)
		assert.Equal(t, len(enc), consumed)
		assert.Equal(t, v, value)
	}
}

func TestVarintTruncated(t *testing.T) {
	_, _, err := intcodec.DecodeVarint([]byte{0x80})
	require.Error(t, err)
	assert.True(t, wireerr.Is(err, wireerr.CodeTruncated))
}

func TestVarintMalformedNoTerminator(t *testing.T) {
	buf := make([]byte, 10)
	for i := range buf {
		buf[i] = 0x80
	}
	_, _, err := intcodec.DecodeVarint(buf)
	require.Error(t, err)
	assert.True(t, wireerr.Is(err, wireerr.CodeMalformedHead))
}

func TestPackedUintListRoundTrip(t *testing.T) {
	lists := [][]uint64{
		{},
		{0},
		{1, 2, 3},
		{0, 1, 2, 3, 4},
		{1 << 8, 1 << 16, 1 << 24, 1 << 32, 1 << 40},
		{1<<64 - 1, 0, 1, 1<<32 - 1},
	}
	for _, l := range lists {
		packed := intcodec.PackUintList(l)
		got, err := intcodec.UnpackUintList(packed, len(l))
		require.NoError(t, err)
		assert.Equal(t, l, got)
	}
}

func TestUnpackUintListOverrun(t *testing.T) {
	packed := intcodec.PackUintList([]uint64{1, 2})
	_, err := intcodec.UnpackUintList(packed[:len(packed)-1], 2)
	require.Error(t, err)
}
