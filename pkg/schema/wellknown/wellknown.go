// Package wellknown holds the fixed schemas shared by every r5lrpc
// client and server regardless of which IDL file they load: the no-op
// health-check call carried over from the original client test suite.
package wellknown

import "github.com/matteobertozzi/r5lrpc/pkg/schema"

// PingMsgType is the reserved message type for the built-in health-check
// call, matching the original client test suite's ping message
// (src/r5l-client/py-r5l/zcl/msg-test.py).
const PingMsgType = 90

// PingServiceName names the service a connection's built-in Ping handler
// is registered under.
const PingServiceName = "_ping"

var (
	pingRequest  = mustEmptySchema("PingRequest", schema.KindRequest)
	pingResponse = mustEmptySchema("PingResponse", schema.KindResponse)
)

func mustEmptySchema(name string, kind schema.Kind) *schema.Schema {
	s, err := schema.NewSchema(name, kind, nil)
	if err != nil {
		panic(err)
	}
	return s
}

// PingCall is the reserved RpcCall entry a server merges into whatever
// IDL-derived service it loads, and a client dials directly when it has
// no IDL file at hand (r5lrpcctl ping).
func PingCall() schema.RpcCall {
	return schema.RpcCall{UID: PingMsgType, Name: "Ping", Request: pingRequest, Response: pingResponse}
}

// PingService returns the fixed one-call RpcService r5lrpcctl ping
// dials against when no IDL-derived service is available.
func PingService() *schema.RpcService {
	svc, err := schema.NewRpcService(PingServiceName, []schema.RpcCall{PingCall()})
	if err != nil {
		panic(err)
	}
	return svc
}
