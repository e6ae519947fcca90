package logger

import (
	"fmt"
	"log/slog"
)

// Standard field keys for structured logging.
// Use these keys consistently across all log statements for log aggregation and querying.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// ========================================================================
	// RPC Message Metadata
	// ========================================================================
	KeyMsgType    = "msg_type"    // RPC message type name (call, reply, cast)
	KeyServiceID  = "service_id"  // Registered service/schema identifier
	KeyCallID     = "call_id"     // RPC call identifier within a service
	KeyReqID      = "req_id"      // Client-assigned correlation/request ID
	KeyFieldUID   = "field_uid"   // Schema field unique identifier
	KeyFrameLen   = "frame_len"   // Frame payload length in bytes
	KeyStatus     = "status"      // Operation status code (protocol-specific)
	KeyStatusMsg  = "status_msg"  // Human-readable status message
	KeyAuthFlavor = "auth_flavor" // RPC authentication flavor

	// ========================================================================
	// Wire Codec
	// ========================================================================
	KeyWireType  = "wire_type"  // Field wire type tag
	KeyFieldType = "field_type" // Schema field primitive type
	KeyByteCount = "byte_count" // Bytes consumed/produced by a codec operation
	KeyHandle    = "handle"     // Opaque byte handle, hex-encoded

	// ========================================================================
	// Client / Connection Identification
	// ========================================================================
	KeyClientIP     = "client_ip"     // Client IP address
	KeyClientPort   = "client_port"   // Client source port
	KeySessionID    = "session_id"    // Session identifier
	KeyConnectionID = "connection_id" // Connection identifier
	KeyUID          = "uid"           // User ID, when carried by the transport auth
	KeyGID          = "gid"           // Group ID, when carried by the transport auth

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
	KeyError      = "error"       // Error message
	KeyErrorCode  = "error_code"  // Numeric error code
	KeyAttempt    = "attempt"     // Retry attempt number
	KeyMaxRetries = "max_retries" // Maximum retry attempts

	// ========================================================================
	// I/O Pump
	// ========================================================================
	KeyQueueDepth = "queue_depth" // Pending task queue depth
	KeyBackoffMs  = "backoff_ms"  // Current backoff duration in milliseconds
)

// ============================================================================
// Field constructors for type safety
// ============================================================================

// TraceID returns a slog.Attr for OpenTelemetry trace ID
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for OpenTelemetry span ID
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// MsgType returns a slog.Attr for the RPC message type name
func MsgType(name string) slog.Attr {
	return slog.String(KeyMsgType, name)
}

// ServiceID returns a slog.Attr for the registered service identifier
func ServiceID(id string) slog.Attr {
	return slog.String(KeyServiceID, id)
}

// CallID returns a slog.Attr for the RPC call identifier
func CallID(id uint32) slog.Attr {
	return slog.Any(KeyCallID, id)
}

// ReqID returns a slog.Attr for the client-assigned correlation ID
func ReqID(id uint64) slog.Attr {
	return slog.Uint64(KeyReqID, id)
}

// FieldUID returns a slog.Attr for a schema field unique identifier
func FieldUID(uid int) slog.Attr {
	return slog.Int(KeyFieldUID, uid)
}

// FrameLen returns a slog.Attr for a frame payload length
func FrameLen(n int) slog.Attr {
	return slog.Int(KeyFrameLen, n)
}

// Status returns a slog.Attr for operation status code
func Status(code int) slog.Attr {
	return slog.Int(KeyStatus, code)
}

// StatusMsg returns a slog.Attr for human-readable status message
func StatusMsg(msg string) slog.Attr {
	return slog.String(KeyStatusMsg, msg)
}

// AuthFlavor returns a slog.Attr for the RPC authentication flavor
func AuthFlavor(flavor uint32) slog.Attr {
	return slog.Any(KeyAuthFlavor, flavor)
}

// WireType returns a slog.Attr for a field wire type tag
func WireType(t int) slog.Attr {
	return slog.Int(KeyWireType, t)
}

// FieldType returns a slog.Attr for a schema field primitive type
func FieldType(t string) slog.Attr {
	return slog.String(KeyFieldType, t)
}

// ByteCount returns a slog.Attr for bytes consumed/produced by a codec operation
func ByteCount(n int) slog.Attr {
	return slog.Int(KeyByteCount, n)
}

// ClientIP returns a slog.Attr for client IP address
func ClientIP(addr string) slog.Attr {
	return slog.String(KeyClientIP, addr)
}

// ClientPort returns a slog.Attr for client source port
func ClientPort(port int) slog.Attr {
	return slog.Int(KeyClientPort, port)
}

// SessionID returns a slog.Attr for session identifier
func SessionID(id string) slog.Attr {
	return slog.String(KeySessionID, id)
}

// ConnectionID returns a slog.Attr for connection identifier
func ConnectionID(id string) slog.Attr {
	return slog.String(KeyConnectionID, id)
}

// UID returns a slog.Attr for user ID
func UID(uid uint32) slog.Attr {
	return slog.Any(KeyUID, uid)
}

// GID returns a slog.Attr for group ID
func GID(gid uint32) slog.Attr {
	return slog.Any(KeyGID, gid)
}

// DurationMs returns a slog.Attr for duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// ErrorCode returns a slog.Attr for numeric error code
func ErrorCode(code int) slog.Attr {
	return slog.Int(KeyErrorCode, code)
}

// Attempt returns a slog.Attr for retry attempt number
func Attempt(n int) slog.Attr {
	return slog.Int(KeyAttempt, n)
}

// MaxRetries returns a slog.Attr for maximum retry attempts
func MaxRetries(n int) slog.Attr {
	return slog.Int(KeyMaxRetries, n)
}

// QueueDepth returns a slog.Attr for the pending task queue depth
func QueueDepth(n int) slog.Attr {
	return slog.Int(KeyQueueDepth, n)
}

// BackoffMs returns a slog.Attr for the current backoff duration
func BackoffMs(ms float64) slog.Attr {
	return slog.Float64(KeyBackoffMs, ms)
}

// HandleHex formats an opaque byte slice as hex, useful for dumping raw
// frame payloads or field bodies during debug logging.
func HandleHex(b []byte) string {
	return fmt.Sprintf("%x", b)
}

// Handle returns a slog.Attr for an opaque byte handle, formatted as hex
func Handle(b []byte) slog.Attr {
	return slog.String(KeyHandle, HandleHex(b))
}
