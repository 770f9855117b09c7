// connection.go: typed queue-backed links between component ports. A
// connection is a bounded FIFO of frame references; a nil element is the
// end-of-stream sentinel. Backpressure comes from the bounded queue: a full
// connection blocks the producer until its consumer catches up.
package engine

import (
	"context"

	"github.com/jlammi/framix/internal/errors"
	"github.com/jlammi/framix/internal/frame"
)

// ErrEndOfStream is returned by InputPort.Receive when the producer has
// signalled that no further frames will arrive. Component workers also
// return it to end their own stream.
var ErrEndOfStream = errors.NewStd("end of stream")

// DefaultQueueCapacity bounds connection queues when the graph builder is
// given no explicit capacity.
const DefaultQueueCapacity = 2

// Connection is an ordered bounded queue of frame references from exactly
// one producer output to one consumer input.
type Connection struct {
	ch chan *frame.Frame // nil element marks end of stream
}

// NewConnection creates a connection with the given queue capacity
// (minimum 1).
func NewConnection(capacity int) *Connection {
	if capacity < 1 {
		capacity = 1
	}
	return &Connection{ch: make(chan *frame.Frame, capacity)}
}

// send queues f, blocking while the queue is full. A nil f is the
// end-of-stream sentinel. Returns ctx.Err on cancellation, releasing the
// undelivered reference.
func (c *Connection) send(ctx context.Context, f *frame.Frame) error {
	select {
	case c.ch <- f:
		return nil
	default:
	}
	// Queue full: block under backpressure until space or cancellation.
	select {
	case c.ch <- f:
		return nil
	case <-ctx.Done():
		if f != nil {
			f.Release()
		}
		return ctx.Err()
	}
}

// InputPort is the consumer end of a connection. Only the owning component
// goroutine receives from it.
type InputPort struct {
	name string
	spec PortSpec
	conn *Connection
	eos  bool // sentinel has been received; nothing further will arrive
}

// Name returns the port name.
func (p *InputPort) Name() string { return p.name }

// Connected reports whether a connection has been wired to the port.
func (p *InputPort) Connected() bool { return p.conn != nil }

// Receive blocks until a frame or the end-of-stream sentinel arrives, or
// ctx is cancelled (the forced-stop path). The caller owns one reference to
// the returned frame.
func (p *InputPort) Receive(ctx context.Context) (*frame.Frame, error) {
	select {
	case f := <-p.conn.ch:
		if f == nil {
			p.eos = true
			return nil, ErrEndOfStream
		}
		return f, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// TryReceive performs a non-blocking receive, used to refresh latched
// static side inputs opportunistically. It returns (nil, false, nil) when
// nothing is queued and (nil, true, ErrEndOfStream) on the sentinel.
func (p *InputPort) TryReceive() (f *frame.Frame, ok bool, err error) {
	select {
	case f := <-p.conn.ch:
		if f == nil {
			p.eos = true
			return nil, true, ErrEndOfStream
		}
		return f, true, nil
	default:
		return nil, false, nil
	}
}

// drain discards frames until the end-of-stream sentinel or ctx
// cancellation, releasing every reference. Keeping a stopped consumer
// draining is what lets its producers run to their own end of stream
// instead of blocking on a full queue.
func (p *InputPort) drain(ctx context.Context) {
	if p.eos {
		return
	}
	for {
		f, err := p.Receive(ctx)
		if err != nil {
			return
		}
		f.Release()
	}
}

// OutputPort is the producer end of zero or more connections. Each output
// port owns its own buffer pool, so frame storage flows downstream and back
// to the producer when fully released.
type OutputPort struct {
	name  string
	spec  PortSpec
	pool  *frame.Pool
	conns []*Connection
}

// Name returns the port name.
func (p *OutputPort) Name() string { return p.name }

// Pool returns the buffer pool backing the port.
func (p *OutputPort) Pool() *frame.Pool { return p.pool }

// Connected reports whether at least one connection is wired.
func (p *OutputPort) Connected() bool { return len(p.conns) > 0 }

// connect wires an additional consumer connection. Fan-out order is wiring
// order.
func (p *OutputPort) connect(c *Connection) {
	p.conns = append(p.conns, c)
}

// Send delivers f to every wired connection in wiring order, blocking per
// connection under backpressure. Consumers share the frame object: the port
// retains one extra reference per additional consumer and consumes the
// caller's reference, so after Send the caller must not touch f. With no
// consumers the frame is released immediately.
func (p *OutputPort) Send(ctx context.Context, f *frame.Frame) error {
	if len(p.conns) == 0 {
		f.Release()
		return nil
	}
	for i := 1; i < len(p.conns); i++ {
		f.Retain()
	}
	for i, conn := range p.conns {
		if err := conn.send(ctx, f); err != nil {
			// send released its own undelivered reference; drop the
			// references held for the connections never reached.
			for j := i + 1; j < len(p.conns); j++ {
				f.Release()
			}
			return err
		}
	}
	return nil
}

// SendEOS delivers the end-of-stream sentinel to every wired connection.
func (p *OutputPort) SendEOS(ctx context.Context) error {
	for _, conn := range p.conns {
		if err := conn.send(ctx, nil); err != nil {
			return err
		}
	}
	return nil
}
