// Package rpcserver implements the server-side dispatch pipeline: for
// every inbound frame, allocate the call's request/response schemas by
// message type, parse the body into a request instance, execute the
// bound handler (inline for synchronous calls, off a bounded task queue
// for async ones), and respond by framing the result back onto the
// connection's I/O pump.
package rpcserver

import (
	"context"
	"net"
	"time"

	"github.com/matteobertozzi/r5lrpc/internal/iopump"
	"github.com/matteobertozzi/r5lrpc/pkg/metrics"
	"github.com/matteobertozzi/r5lrpc/pkg/rpcerr"
	"github.com/matteobertozzi/r5lrpc/pkg/schema/fieldstruct"
	"github.com/matteobertozzi/r5lrpc/pkg/wire/rpcheader"
)

// Config bounds the per-connection dispatch pipeline's concurrency and
// I/O pump behavior.
type Config struct {
	MaxRequestsPerConnection int
	IOPump                   iopump.Config
	MaxFramePayload          uint32
}

// Connection drives one accepted connection's dispatch pipeline.
type Connection struct {
	conn    net.Conn
	service *Service
	cfg     Config
	metrics metrics.RpcMetrics
	pump    *iopump.Pump
	queue   *taskQueue
}

// NewConnection wraps conn in a dispatch pipeline bound to service.
func NewConnection(conn net.Conn, service *Service, cfg Config, m metrics.RpcMetrics) *Connection {
	c := &Connection{
		conn:    conn,
		service: service,
		cfg:     cfg,
		metrics: m,
		queue:   newTaskQueue(cfg.MaxRequestsPerConnection),
	}
	iopumpCfg := cfg.IOPump
	iopumpCfg.MaxFramePayload = cfg.MaxFramePayload
	c.pump = iopump.New(conn, iopumpCfg, c.onFrame)
	return c
}

// Run drives the connection's I/O pump until ctx is cancelled or the
// connection fails, then waits for any in-flight async handlers to
// finish before returning.
func (c *Connection) Run(ctx context.Context) error {
	if c.metrics != nil {
		c.metrics.RecordConnectionAccepted()
	}
	err := c.pump.Run(ctx)
	c.queue.Wait()
	if c.metrics != nil {
		c.metrics.RecordConnectionClosed()
	}
	return err
}

// Close stops the connection's I/O pump immediately.
func (c *Connection) Close() error {
	return c.pump.Close()
}

func (c *Connection) onFrame(payload []byte) error {
	start := time.Now()
	_, hdr, err := rpcheader.DecodeLong(payload)
	if err != nil {
		return nil
	}

	// Allocate: look up the call's request/response schemas by message type.
	call, handler, ok := c.service.lookup(hdr.MsgType)
	if !ok || handler == nil {
		c.respondError(hdr, rpcerr.New(rpcerr.Unknown, c.service.Schema.Name, hdr.MsgType, hdr.ReqID, "unknown call"))
		return nil
	}

	// Parse.
	req, _, err := fieldstruct.Decode(call.Request, hdr.Body, hdr.Data)
	if err != nil {
		c.respondError(hdr, rpcerr.Wrap(rpcerr.ParseError, c.service.Schema.Name, call.UID, hdr.ReqID, err))
		return nil
	}

	execute := func() {
		ctx := context.Background()
		resp, rpcErr := handler(ctx, req)
		status := uint32(0)
		if rpcErr != nil {
			status = uint32(rpcErr.Kind) + 1
			c.respondError(hdr, rpcErr)
		} else {
			c.respond(hdr, resp)
		}
		if c.metrics != nil {
			c.metrics.RecordCall("call", c.service.Schema.Name, time.Since(start), status)
		}
	}

	if call.Async {
		if c.metrics != nil {
			c.metrics.SetQueueDepth(c.queue.Len())
		}
		if !c.queue.TrySubmit(execute) {
			c.respondError(hdr, rpcerr.New(rpcerr.Backpressure, c.service.Schema.Name, call.UID, hdr.ReqID, "async queue full"))
		}
		return nil
	}

	execute()
	return nil
}

func (c *Connection) respond(hdr rpcheader.LongHeader, resp *fieldstruct.Instance) {
	body, blob, err := fieldstruct.Encode(resp)
	if err != nil {
		c.respondError(hdr, rpcerr.Wrap(rpcerr.ParseError, c.service.Schema.Name, hdr.MsgType, hdr.ReqID, err))
		return
	}
	out, err := rpcheader.EncodeLong(rpcheader.LongHeader{
		PackageType: rpcheader.PackageTypeResponse,
		MsgType:     hdr.MsgType,
		ReqID:       hdr.ReqID,
		Body:        body,
		Data:        blob,
	})
	if err != nil {
		return
	}
	_ = c.pump.Enqueue(out)
}

func (c *Connection) respondError(hdr rpcheader.LongHeader, rpcErr *rpcerr.Error) {
	body, blob, err := rpcerr.EncodeInstance(rpcErr)
	if err != nil {
		return
	}
	out, err := rpcheader.EncodeLong(rpcheader.LongHeader{
		PackageType: rpcheader.PackageTypeError,
		MsgType:     hdr.MsgType,
		ReqID:       hdr.ReqID,
		Body:        body,
		Data:        blob,
	})
	if err != nil {
		return
	}
	_ = c.pump.Enqueue(out)
}
