package metrics

import (
	"time"
)

// RpcMetrics provides observability for the RPC client dispatcher and
// server dispatch pipeline.
//
// Implementations can collect metrics about call volume, latency,
// connection lifecycle, and wire throughput. This interface is optional -
// pass nil to disable metrics collection with zero overhead.
//
// Example usage:
//
//	// With metrics enabled
//	m := prometheus.NewRpcMetrics()
//	server := rpcserver.New(addr, service, cfg, m)
//
//	// Without metrics (pass nil for zero overhead)
//	server := rpcserver.New(addr, service, cfg, nil)
type RpcMetrics interface {
	// RecordCall records a completed call with its message type, service
	// ID, duration, and outcome.
	//
	// Parameters:
	//   - msgType: "call" or "reply"
	//   - serviceID: dispatched service identifier
	//   - duration: time taken to process the call end to end
	//   - statusCode: non-zero RPC status code if the call failed, zero if successful
	RecordCall(msgType string, serviceID string, duration time.Duration, statusCode uint32)

	// RecordCallStart increments the in-flight call counter.
	RecordCallStart(serviceID string)

	// RecordCallEnd decrements the in-flight call counter.
	RecordCallEnd(serviceID string)

	// RecordFrameBytes records the payload size of a frame crossing the wire.
	//
	// Parameters:
	//   - direction: "read" or "write"
	//   - bytes: frame payload size in bytes
	RecordFrameBytes(direction string, bytes uint64)

	// SetActiveConnections updates the current connection count.
	SetActiveConnections(count int32)

	// RecordConnectionAccepted increments the total accepted connections counter.
	RecordConnectionAccepted()

	// RecordConnectionClosed increments the total closed connections counter.
	RecordConnectionClosed()

	// RecordConnectionForceClosed increments the force-closed connections
	// counter. Called when connections are forcibly closed past their
	// outbound high-water mark.
	RecordConnectionForceClosed()

	// SetQueueDepth updates the number of in-flight requests awaiting
	// dispatch on a connection's async queue.
	SetQueueDepth(count int)

	// RecordTimeout increments the client-side correlation-timeout counter.
	//
	// Parameters:
	//   - serviceID: dispatched service identifier whose reply never arrived
	RecordTimeout(serviceID string)
}
