package wellknown_test

import (
	"testing"

	"github.com/matteobertozzi/r5lrpc/pkg/schema/wellknown"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPingServiceHasPingMsgType(t *testing.T) {
	svc := wellknown.PingService()
	call, ok := svc.CallByUID(wellknown.PingMsgType)
	require.True(t, ok)
	assert.Equal(t, "Ping", call.Name)
	assert.Empty(t, call.Request.Fields)
	assert.Empty(t, call.Response.Fields)
}

func TestPingCallMatchesMsgType(t *testing.T) {
	call := wellknown.PingCall()
	assert.Equal(t, uint64(wellknown.PingMsgType), call.UID)
}
