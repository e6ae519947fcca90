// Package rpcclient implements the RPC client dispatcher: allocating a
// request id, framing a call onto the wire, and demultiplexing replies
// back to the calling goroutine by that id, with a timeout sweep for
// calls that never get an answer. The connection itself is driven by a
// single internal/iopump.Pump goroutine; Call may be invoked from any
// number of concurrent goroutines.
package rpcclient

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/matteobertozzi/r5lrpc/internal/iopump"
	"github.com/matteobertozzi/r5lrpc/pkg/metrics"
	"github.com/matteobertozzi/r5lrpc/pkg/rpcerr"
	"github.com/matteobertozzi/r5lrpc/pkg/schema"
	"github.com/matteobertozzi/r5lrpc/pkg/schema/fieldstruct"
	"github.com/matteobertozzi/r5lrpc/pkg/wire/rpcheader"
)

// Config bounds the client dispatcher's timing and frame behavior.
type Config struct {
	ReplyMaxWait    time.Duration
	SweepInterval   time.Duration
	IOPump          iopump.Config
	MaxFramePayload uint32
}

type pendingCall struct {
	call     *schema.RpcCall
	resultCh chan callResult
	deadline time.Time
}

type callResult struct {
	resp *fieldstruct.Instance
	err  error
}

// Client is one connection's RPC client dispatcher.
type Client struct {
	service *schema.RpcService
	pump    *iopump.Pump
	cfg     Config
	metrics metrics.RpcMetrics

	nextReqID uint64

	mu      sync.Mutex
	pending map[uint64]*pendingCall
	closed  bool
	stopCh  chan struct{}
}

// New creates a Client that will drive conn once Run is called.
func New(conn net.Conn, service *schema.RpcService, cfg Config, m metrics.RpcMetrics) *Client {
	if cfg.ReplyMaxWait <= 0 {
		cfg.ReplyMaxWait = 5 * time.Second
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = cfg.ReplyMaxWait / 4
		if cfg.SweepInterval <= 0 {
			cfg.SweepInterval = time.Second
		}
	}
	c := &Client{
		service: service,
		cfg:     cfg,
		metrics: m,
		pending: make(map[uint64]*pendingCall),
		stopCh:  make(chan struct{}),
	}
	iopumpCfg := cfg.IOPump
	iopumpCfg.MaxFramePayload = cfg.MaxFramePayload
	c.pump = iopump.New(conn, iopumpCfg, c.onFrame)
	return c
}

// Run drives the connection's I/O pump and the timeout sweeper until ctx
// is cancelled or the connection fails.
func (c *Client) Run(ctx context.Context) error {
	go c.sweepLoop()
	err := c.pump.Run(ctx)
	c.Close()
	return err
}

// Close stops the client, failing every pending call with
// rpcerr.ConnectionClosed.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	pending := c.pending
	c.pending = make(map[uint64]*pendingCall)
	c.mu.Unlock()

	close(c.stopCh)
	for reqID, p := range pending {
		p.resultCh <- callResult{err: rpcerr.New(rpcerr.ConnectionClosed, c.service.Name, p.call.UID, reqID, "connection closed")}
	}
	return c.pump.Close()
}

// Call encodes req against callName's request schema, sends it, and
// blocks until a reply arrives, ctx is cancelled, or ReplyMaxWait elapses.
func (c *Client) Call(ctx context.Context, callName string, req *fieldstruct.Instance) (*fieldstruct.Instance, error) {
	call, ok := c.lookupByName(callName)
	if !ok {
		return nil, rpcerr.New(rpcerr.Unknown, c.service.Name, 0, 0, "unknown call: "+callName)
	}

	body, blob, err := fieldstruct.Encode(req)
	if err != nil {
		return nil, rpcerr.Wrap(rpcerr.ParseError, c.service.Name, call.UID, 0, err)
	}

	reqID := atomic.AddUint64(&c.nextReqID, 1)

	resultCh := make(chan callResult, 1)
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, rpcerr.New(rpcerr.ConnectionClosed, c.service.Name, call.UID, reqID, "connection closed")
	}
	c.pending[reqID] = &pendingCall{call: call, resultCh: resultCh, deadline: time.Now().Add(c.cfg.ReplyMaxWait)}
	c.mu.Unlock()
	if c.metrics != nil {
		c.metrics.RecordCallStart(c.service.Name)
	}

	header, err := rpcheader.EncodeLong(rpcheader.LongHeader{
		PackageType: rpcheader.PackageTypeRequest,
		MsgType:     call.UID,
		ReqID:       reqID,
		Body:        body,
		Data:        blob,
	})
	if err != nil {
		c.dropPending(reqID)
		return nil, rpcerr.Wrap(rpcerr.ParseError, c.service.Name, call.UID, reqID, err)
	}

	start := time.Now()
	if err := c.pump.Enqueue(header); err != nil {
		c.dropPending(reqID)
		return nil, rpcerr.Wrap(rpcerr.ConnectionClosed, c.service.Name, call.UID, reqID, err)
	}

	select {
	case res := <-resultCh:
		if c.metrics != nil {
			c.metrics.RecordCallEnd(c.service.Name)
			status := uint32(0)
			if res.err != nil {
				status = 1
			}
			c.metrics.RecordCall("call", c.service.Name, time.Since(start), status)
		}
		return res.resp, res.err
	case <-ctx.Done():
		c.dropPending(reqID)
		if c.metrics != nil {
			c.metrics.RecordCallEnd(c.service.Name)
		}
		return nil, rpcerr.Wrap(rpcerr.Cancelled, c.service.Name, call.UID, reqID, ctx.Err())
	}
}

func (c *Client) dropPending(reqID uint64) {
	c.mu.Lock()
	delete(c.pending, reqID)
	c.mu.Unlock()
}

func (c *Client) lookupByName(name string) (*schema.RpcCall, bool) {
	for i := range c.service.Calls {
		if c.service.Calls[i].Name == name {
			return &c.service.Calls[i], true
		}
	}
	return nil, false
}

// onFrame is called by the pump's goroutine for every inbound payload:
// it decodes the long header, looks up the correlated call by req id,
// decodes the body against that call's response schema (or, for a
// dispatcher-level failure, against the shared error schema), and
// delivers the result. An unrecognized req id is an orphan response and
// is dropped after a metrics observation, not an error that tears down
// the connection.
func (c *Client) onFrame(payload []byte) error {
	_, hdr, err := rpcheader.DecodeLong(payload)
	if err != nil {
		return nil
	}

	c.mu.Lock()
	p, ok := c.pending[hdr.ReqID]
	if ok {
		delete(c.pending, hdr.ReqID)
	}
	c.mu.Unlock()

	if !ok {
		if c.metrics != nil {
			c.metrics.RecordTimeout(c.service.Name)
		}
		return nil
	}

	if hdr.PackageType == rpcheader.PackageTypeError {
		rpcErr, err := rpcerr.DecodeInstance(c.service.Name, p.call.UID, hdr.ReqID, hdr.Body, hdr.Data)
		if err != nil {
			p.resultCh <- callResult{err: rpcerr.Wrap(rpcerr.ParseError, c.service.Name, p.call.UID, hdr.ReqID, err)}
			return nil
		}
		p.resultCh <- callResult{err: rpcErr}
		return nil
	}

	resp, _, err := fieldstruct.Decode(p.call.Response, hdr.Body, hdr.Data)
	if err != nil {
		p.resultCh <- callResult{err: rpcerr.Wrap(rpcerr.ParseError, c.service.Name, p.call.UID, hdr.ReqID, err)}
		return nil
	}
	p.resultCh <- callResult{resp: resp}
	return nil
}

func (c *Client) sweepLoop() {
	ticker := time.NewTicker(c.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.sweepTimeouts()
		case <-c.stopCh:
			return
		}
	}
}

func (c *Client) sweepTimeouts() {
	now := time.Now()
	var expired []struct {
		reqID uint64
		p     *pendingCall
	}
	c.mu.Lock()
	for reqID, p := range c.pending {
		if now.After(p.deadline) {
			expired = append(expired, struct {
				reqID uint64
				p     *pendingCall
			}{reqID, p})
			delete(c.pending, reqID)
		}
	}
	c.mu.Unlock()

	for _, e := range expired {
		if c.metrics != nil {
			c.metrics.RecordTimeout(c.service.Name)
		}
		e.p.resultCh <- callResult{err: rpcerr.New(rpcerr.Timeout, c.service.Name, e.p.call.UID, e.reqID, "reply wait exceeded")}
	}
}
