package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jlammi/framix/internal/frame"
)

func makeFrame(t *testing.T, pool *frame.Pool, number int64, value float32) *frame.Frame {
	t.Helper()
	handle, err := pool.Acquire(frame.Shape{Y: 2, X: 2, Planes: 1})
	require.NoError(t, err)
	for i := range handle.Data() {
		handle.Data()[i] = value
	}
	handle.SetNumber(number)
	handle.SetType(frame.TypeY)
	return handle.Publish()
}

func TestConnectionFIFOAndEOS(t *testing.T) {
	ctx := context.Background()
	pool := frame.NewPool(frame.PoolConfig{})
	defer pool.Close()

	out := &OutputPort{name: PortOutput, pool: pool}
	in := &InputPort{name: PortInput}
	conn := NewConnection(8)
	out.connect(conn)
	in.conn = conn

	for i := int64(0); i < 5; i++ {
		require.NoError(t, out.Send(ctx, makeFrame(t, pool, i, float32(i))))
	}
	require.NoError(t, out.SendEOS(ctx))

	for i := int64(0); i < 5; i++ {
		f, err := in.Receive(ctx)
		require.NoError(t, err)
		assert.Equal(t, i, f.Number(), "frames must arrive in send order")
		f.Release()
	}
	_, err := in.Receive(ctx)
	assert.ErrorIs(t, err, ErrEndOfStream)
}

func TestConnectionBackpressure(t *testing.T) {
	const capacity = 2
	ctx := context.Background()
	pool := frame.NewPool(frame.PoolConfig{})
	defer pool.Close()

	out := &OutputPort{name: PortOutput, pool: pool}
	in := &InputPort{name: PortInput}
	conn := NewConnection(capacity)
	out.connect(conn)
	in.conn = conn

	for i := int64(0); i < capacity; i++ {
		require.NoError(t, out.Send(ctx, makeFrame(t, pool, i, 0)))
	}

	// The capacity+1-th send must block until the consumer receives one.
	sent := make(chan struct{})
	go func() {
		_ = out.Send(ctx, makeFrame(t, pool, capacity, 0))
		close(sent)
	}()

	select {
	case <-sent:
		t.Fatal("send beyond queue capacity did not block")
	case <-time.After(50 * time.Millisecond):
	}

	f, err := in.Receive(ctx)
	require.NoError(t, err)
	f.Release()

	select {
	case <-sent:
	case <-time.After(time.Second):
		t.Fatal("send did not unblock after one receive")
	}

	// Drain to release remaining references.
	for i := 0; i < capacity; i++ {
		f, err := in.Receive(ctx)
		require.NoError(t, err)
		f.Release()
	}
}

func TestOutputFanOutSharesOneFrame(t *testing.T) {
	ctx := context.Background()
	pool := frame.NewPool(frame.PoolConfig{})
	defer pool.Close()

	out := &OutputPort{name: PortOutput, pool: pool}
	consumers := make([]*InputPort, 3)
	for i := range consumers {
		conn := NewConnection(4)
		out.connect(conn)
		consumers[i] = &InputPort{name: PortInput, conn: conn}
	}

	sent := makeFrame(t, pool, 7, 1.5)
	require.NoError(t, out.Send(ctx, sent))

	received := make([]*frame.Frame, len(consumers))
	for i, in := range consumers {
		f, err := in.Receive(ctx)
		require.NoError(t, err)
		received[i] = f
	}

	// Every consumer sees the same underlying frame, one reference each.
	assert.Same(t, received[0], received[1])
	assert.Same(t, received[1], received[2])
	assert.Equal(t, int32(3), received[0].RefCount())

	for _, f := range received {
		f.Release()
	}
	assert.Equal(t, 0, pool.Stats().Outstanding)
}

func TestSendWithoutConsumersReleases(t *testing.T) {
	ctx := context.Background()
	pool := frame.NewPool(frame.PoolConfig{})
	defer pool.Close()

	out := &OutputPort{name: PortOutput, pool: pool}
	require.NoError(t, out.Send(ctx, makeFrame(t, pool, 0, 0)))
	assert.Equal(t, 0, pool.Stats().Outstanding)
}

func TestSendCancelledUnderBackpressure(t *testing.T) {
	pool := frame.NewPool(frame.PoolConfig{})
	defer pool.Close()

	out := &OutputPort{name: PortOutput, pool: pool}
	in := &InputPort{name: PortInput}
	conn := NewConnection(1)
	out.connect(conn)
	in.conn = conn

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, out.Send(ctx, makeFrame(t, pool, 0, 0)))

	done := make(chan error, 1)
	go func() {
		done <- out.Send(ctx, makeFrame(t, pool, 1, 0))
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	err := <-done
	assert.ErrorIs(t, err, context.Canceled)

	// The queued frame is still owned by the queue; the cancelled one was
	// released.
	f, rerr := in.Receive(context.Background())
	require.NoError(t, rerr)
	f.Release()
	assert.Equal(t, 0, pool.Stats().Outstanding)
}
