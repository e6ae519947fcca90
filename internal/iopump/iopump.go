// Package iopump implements the single-threaded cooperative I/O loop that
// drives one connection's frame reads and writes. A Pump owns the
// connection exclusively: it is the sole goroutine that calls Read/Write
// on the underlying net.Conn, the sole mutator of its outbound queue, and
// the sole consumer of work submitted by other goroutines (an RPC client
// issuing a call, a server handler posting a response). Producers never
// touch the connection directly; they hand the pump a function to run on
// its own goroutine via Submit, mirroring a connection actor.
package iopump

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/matteobertozzi/r5lrpc/internal/bufpool"
	"github.com/matteobertozzi/r5lrpc/pkg/wire/frame"
)

// Config bounds the pump's backoff and outbound queue behavior.
type Config struct {
	// TickMin is the backoff used immediately after work was found.
	TickMin time.Duration
	// TickMax is the backoff ceiling reached after consecutive idle ticks.
	TickMax time.Duration
	// MaxFramePayload is the largest inbound payload ReadFrame will accept.
	MaxFramePayload uint32
	// OutboundHighWaterMark pauses Enqueue once the outbound backlog (in
	// bytes) reaches this size.
	OutboundHighWaterMark uint64
	// OutboundLowWaterMark resumes Enqueue once the backlog drops back
	// below this size.
	OutboundLowWaterMark uint64
}

// FrameHandler is invoked on the pump's own goroutine for every inbound
// frame payload. The slice is only valid for the duration of the call;
// handlers that need to retain bytes must copy them.
type FrameHandler func(payload []byte) error

// Pump drives one connection's reads, writes, and submitted work on a
// single goroutine.
type Pump struct {
	conn    net.Conn
	cfg     Config
	onFrame FrameHandler

	submit chan func()

	mu           sync.Mutex
	outbound     [][]byte
	outboundLen  uint64
	backpressure bool
	closed       bool
	closeCh      chan struct{}
}

// New creates a Pump over conn. onFrame is called inline on the pump's
// goroutine for each decoded inbound frame.
func New(conn net.Conn, cfg Config, onFrame FrameHandler) *Pump {
	if cfg.TickMin <= 0 {
		cfg.TickMin = time.Millisecond
	}
	if cfg.TickMax <= 0 {
		cfg.TickMax = 50 * time.Millisecond
	}
	return &Pump{
		conn:    conn,
		cfg:     cfg,
		onFrame: onFrame,
		submit:  make(chan func(), 256),
		closeCh: make(chan struct{}),
	}
}

// Submit hands fn to the pump's goroutine to run between I/O ticks. Safe
// to call from any goroutine. Returns ErrClosed if the pump has stopped.
func (p *Pump) Submit(fn func()) error {
	select {
	case p.submit <- fn:
		return nil
	case <-p.closeCh:
		return ErrClosed
	}
}

// Enqueue appends a payload to the outbound queue for the pump's write
// side to drain. Returns ErrBackpressure if the outbound backlog is at
// or above the high water mark and has not yet drained to the low water
// mark.
func (p *Pump) Enqueue(payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	if p.backpressure {
		return ErrBackpressure
	}
	p.outbound = append(p.outbound, payload)
	p.outboundLen += uint64(len(payload))
	if p.cfg.OutboundHighWaterMark > 0 && p.outboundLen >= p.cfg.OutboundHighWaterMark {
		p.backpressure = true
	}
	return nil
}

// Backlog reports the current outbound queue size in bytes.
func (p *Pump) Backlog() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.outboundLen
}

func (p *Pump) dequeueAll() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.outbound) == 0 {
		return nil
	}
	batch := p.outbound
	p.outbound = nil
	p.outboundLen = 0
	if p.backpressure && p.cfg.OutboundLowWaterMark == 0 {
		p.backpressure = false
	}
	return batch
}

func (p *Pump) maybeClearBackpressure() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.backpressure && p.outboundLen <= p.cfg.OutboundLowWaterMark {
		p.backpressure = false
	}
}

// Run drives the pump until ctx is cancelled, the connection errs, or
// Close is called. It alternates: drain submitted work, flush the
// outbound queue, attempt a non-blocking-ish read with a deadline tied to
// the current backoff tick, and widen or narrow the backoff depending on
// whether work was found.
func (p *Pump) Run(ctx context.Context) error {
	tick := p.cfg.TickMin
	for {
		select {
		case <-ctx.Done():
			p.Close()
			return ctx.Err()
		case <-p.closeCh:
			return nil
		default:
		}

		didWork := false

		drained := p.drainSubmitted()
		didWork = didWork || drained

		batch := p.dequeueAll()
		if len(batch) > 0 {
			didWork = true
			for _, payload := range batch {
				if err := frame.WriteFrame(p.conn, payload); err != nil {
					p.Close()
					return err
				}
			}
			p.maybeClearBackpressure()
		}

		if err := p.conn.SetReadDeadline(time.Now().Add(tick)); err != nil {
			p.Close()
			return err
		}
		payload, err := frame.ReadFrame(p.conn, p.cfg.MaxFramePayload)
		if err != nil {
			if isTimeout(err) {
				// No frame arrived within this tick; widen backoff below.
			} else if errors.Is(err, io.EOF) {
				p.Close()
				return nil
			} else {
				p.Close()
				return err
			}
		} else {
			didWork = true
			herr := p.onFrame(payload)
			bufpool.Put(payload)
			if herr != nil {
				p.Close()
				return herr
			}
		}

		if didWork {
			tick = p.cfg.TickMin
		} else if tick < p.cfg.TickMax {
			tick *= 2
			if tick > p.cfg.TickMax {
				tick = p.cfg.TickMax
			}
		}
	}
}

func (p *Pump) drainSubmitted() bool {
	ran := false
	for {
		select {
		case fn := <-p.submit:
			fn()
			ran = true
		default:
			return ran
		}
	}
}

// Close stops the pump and closes the underlying connection. Safe to
// call more than once and from any goroutine.
func (p *Pump) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()
	close(p.closeCh)
	return p.conn.Close()
}

func isTimeout(err error) bool {
	ne, ok := err.(interface{ Timeout() bool })
	if ok {
		return ne.Timeout()
	}
	type unwrapper interface{ Unwrap() error }
	if u, ok := err.(unwrapper); ok {
		return isTimeout(u.Unwrap())
	}
	return false
}
