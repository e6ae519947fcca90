package rpcserver_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/matteobertozzi/r5lrpc/pkg/rpcclient"
	"github.com/matteobertozzi/r5lrpc/pkg/rpcerr"
	"github.com/matteobertozzi/r5lrpc/pkg/rpcserver"
	"github.com/matteobertozzi/r5lrpc/pkg/schema"
	"github.com/matteobertozzi/r5lrpc/pkg/schema/fieldstruct"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func healthService(t *testing.T) *schema.RpcService {
	t.Helper()
	pingReq, err := schema.NewSchema("PingRequest", schema.KindRequest, nil)
	require.NoError(t, err)
	pingResp, err := schema.NewSchema("PingResponse", schema.KindResponse, []schema.FieldDescriptor{
		{UID: 0, Name: "ok", ElemType: schema.TypeBool},
	})
	require.NoError(t, err)

	echoReq, err := schema.NewSchema("EchoRequest", schema.KindRequest, []schema.FieldDescriptor{
		{UID: 0, Name: "text", ElemType: schema.TypeString},
	})
	require.NoError(t, err)
	echoResp, err := schema.NewSchema("EchoResponse", schema.KindResponse, []schema.FieldDescriptor{
		{UID: 0, Name: "text", ElemType: schema.TypeString},
	})
	require.NoError(t, err)

	svc, err := schema.NewRpcService("Health", []schema.RpcCall{
		{UID: 90, Name: "Ping", Request: pingReq, Response: pingResp},
		{UID: 91, Name: "Echo", Request: echoReq, Response: echoResp},
		{UID: 92, Name: "Boom", Request: pingReq, Response: pingResp},
	})
	require.NoError(t, err)
	return svc
}

func TestPingRoundTrip(t *testing.T) {
	svc := healthService(t)

	service := rpcserver.NewService(svc)
	require.NoError(t, service.Handle("Ping", func(ctx context.Context, req *fieldstruct.Instance) (*fieldstruct.Instance, *rpcerr.Error) {
		call, _ := svc.CallByUID(90)
		resp := fieldstruct.NewInstance(call.Response)
		resp.Set(0, true)
		return resp, nil
	}))
	require.NoError(t, service.Handle("Echo", func(ctx context.Context, req *fieldstruct.Instance) (*fieldstruct.Instance, *rpcerr.Error) {
		call, _ := svc.CallByUID(91)
		v, _ := req.Get(0)
		resp := fieldstruct.NewInstance(call.Response)
		resp.Set(0, v)
		return resp, nil
	}))
	require.NoError(t, service.Handle("Boom", func(ctx context.Context, req *fieldstruct.Instance) (*fieldstruct.Instance, *rpcerr.Error) {
		return nil, rpcerr.New(rpcerr.Unknown, "Health", 92, 0, "boom")
	}))

	serverConn, clientConn := net.Pipe()

	conn := rpcserver.NewConnection(serverConn, service, rpcserver.Config{
		MaxRequestsPerConnection: 8,
		MaxFramePayload:          1 << 20,
	}, nil)

	client := rpcclient.New(clientConn, svc, rpcclient.Config{
		ReplyMaxWait:    2 * time.Second,
		MaxFramePayload: 1 << 20,
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go conn.Run(ctx)
	go client.Run(ctx)

	pingReq := fieldstruct.NewInstance(mustPingRequestSchema(t, svc))
	resp, err := client.Call(context.Background(), "Ping", pingReq)
	require.NoError(t, err)
	ok, present := resp.Get(0)
	require.True(t, present)
	assert.Equal(t, true, ok)

	echoCall, _ := svc.CallByUID(91)
	echoReq := fieldstruct.NewInstance(echoCall.Request)
	echoReq.Set(0, "hello")
	echoResp, err := client.Call(context.Background(), "Echo", echoReq)
	require.NoError(t, err)
	v, _ := echoResp.Get(0)
	assert.Equal(t, "hello", v)

	boomCall, _ := svc.CallByUID(92)
	boomReq := fieldstruct.NewInstance(boomCall.Request)
	_, err = client.Call(context.Background(), "Boom", boomReq)
	require.Error(t, err)
	assert.True(t, rpcerr.Is(err, rpcerr.Unknown))
	assert.Contains(t, err.Error(), "boom")
}

func mustPingRequestSchema(t *testing.T, svc *schema.RpcService) *schema.Schema {
	t.Helper()
	call, ok := svc.CallByUID(90)
	require.True(t, ok)
	return call.Request
}

func TestCallTimesOutWithoutServer(t *testing.T) {
	svc := healthService(t)
	_, clientConn := net.Pipe()

	client := rpcclient.New(clientConn, svc, rpcclient.Config{
		ReplyMaxWait:    50 * time.Millisecond,
		SweepInterval:   10 * time.Millisecond,
		MaxFramePayload: 1 << 20,
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Run(ctx)

	pingReq := fieldstruct.NewInstance(mustPingRequestSchema(t, svc))
	_, err := client.Call(context.Background(), "Ping", pingReq)
	require.Error(t, err)
	assert.True(t, rpcerr.Is(err, rpcerr.Timeout))
}
