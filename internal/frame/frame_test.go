package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jlammi/framix/internal/errors"
)

func TestPoolRoundTrip(t *testing.T) {
	pool := NewPool(PoolConfig{MaxFreePerShape: 4})
	shape := Shape{Y: 2, X: 2, Planes: 1}

	before := pool.Stats()
	require.Equal(t, 0, before.Outstanding)

	handle, err := pool.Acquire(shape)
	require.NoError(t, err)
	for i := range handle.Data() {
		handle.Data()[i] = float32(i)
	}
	handle.SetNumber(0)
	handle.SetType(TypeY)

	f := handle.Publish()
	assert.Equal(t, 1, pool.Stats().Outstanding)
	assert.Equal(t, shape, f.Shape())
	assert.Equal(t, float32(3), f.Sample(1, 1, 0))

	f.Release()
	after := pool.Stats()
	assert.Equal(t, before.Outstanding, after.Outstanding, "outstanding count must return to pre-test value")
	assert.Equal(t, 1, after.Free)

	// Same shape comes back recycled
	handle2, err := pool.Acquire(shape)
	require.NoError(t, err)
	assert.Equal(t, shape.Samples(), len(handle2.Data()))
	assert.Equal(t, uint64(1), pool.Stats().Hits)
	handle2.Discard()
	assert.Equal(t, 0, pool.Stats().Outstanding)
}

func TestPoolShapeKeying(t *testing.T) {
	pool := NewPool(PoolConfig{})

	small, err := pool.Acquire(Shape{Y: 2, X: 2, Planes: 1})
	require.NoError(t, err)
	small.Publish().Release()

	// A different shape must not receive the recycled small buffer
	big, err := pool.Acquire(Shape{Y: 4, X: 4, Planes: 3})
	require.NoError(t, err)
	assert.Equal(t, 48, len(big.Data()))
	assert.Equal(t, uint64(0), pool.Stats().Hits)
	big.Discard()
}

func TestPoolInvalidShape(t *testing.T) {
	pool := NewPool(PoolConfig{})

	_, err := pool.Acquire(Shape{Y: 0, X: 4, Planes: 1})
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
}

func TestPoolExhaustion(t *testing.T) {
	pool := NewPool(PoolConfig{MaxOutstanding: 2})
	shape := Shape{Y: 1, X: 1, Planes: 1}

	h1, err := pool.Acquire(shape)
	require.NoError(t, err)
	h2, err := pool.Acquire(shape)
	require.NoError(t, err)

	_, err = pool.Acquire(shape)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryResource))

	// Returning one frame frees a slot
	h1.Discard()
	h3, err := pool.Acquire(shape)
	require.NoError(t, err)
	h3.Discard()
	h2.Discard()
}

func TestPoolTrim(t *testing.T) {
	pool := NewPool(PoolConfig{})
	shape := Shape{Y: 8, X: 8, Planes: 1}

	h, err := pool.Acquire(shape)
	require.NoError(t, err)
	h.Publish().Release()
	require.Equal(t, 1, pool.Stats().Free)

	pool.Trim()
	assert.Equal(t, 0, pool.Stats().Free)
}

func TestPoolCloseAbandonsFrames(t *testing.T) {
	pool := NewPool(PoolConfig{})
	shape := Shape{Y: 2, X: 2, Planes: 1}

	h, err := pool.Acquire(shape)
	require.NoError(t, err)
	f := h.Publish()

	pool.Close()

	_, err = pool.Acquire(shape)
	assert.Error(t, err, "acquire after close must fail")

	// Releasing after close must not panic or repopulate the pool
	f.Release()
	assert.Equal(t, 0, pool.Stats().Free)
	assert.Equal(t, 0, pool.Stats().Outstanding)
}

func TestFrameSharing(t *testing.T) {
	pool := NewPool(PoolConfig{})
	h, err := pool.Acquire(Shape{Y: 1, X: 4, Planes: 1})
	require.NoError(t, err)
	f := h.Publish()

	f.Retain()
	f.Retain()
	require.Equal(t, int32(3), f.RefCount())

	f.Release()
	f.Release()
	assert.Equal(t, 1, pool.Stats().Outstanding, "frame still held by one reference")

	f.Release()
	assert.Equal(t, 0, pool.Stats().Outstanding)
}

func TestDeriveSharesStorageAndHoldsParent(t *testing.T) {
	pool := NewPool(PoolConfig{})
	h, err := pool.Acquire(Shape{Y: 2, X: 2, Planes: 1})
	require.NoError(t, err)
	for i := range h.Data() {
		h.Data()[i] = float32(i)
	}
	h.SetNumber(3)
	h.Meta().AppendAudit("data = synthesize()")
	parent := h.Publish()

	meta := parent.Meta().Copy()
	meta.AppendAudit("data = forward(data)")
	derived := Derive(parent, 6, TypeY, meta)

	assert.Same(t, &parent.Data()[0], &derived.Data()[0], "derived frame shares sample storage")
	assert.Equal(t, int64(6), derived.Number())
	assert.Equal(t, TypeY, derived.Type())
	assert.Equal(t, 2, derived.Meta().AuditEntries())
	assert.Equal(t, 1, parent.Meta().AuditEntries(), "parent metadata is untouched")
	require.Equal(t, int32(2), parent.RefCount(), "derivation holds one parent reference")

	// Dropping the caller's parent reference keeps the storage alive
	// through the derived frame.
	parent.Release()
	assert.Equal(t, 1, pool.Stats().Outstanding)

	derived.Release()
	assert.Equal(t, 0, pool.Stats().Outstanding, "releasing the derived frame returns the storage")
}

func TestDeriveChain(t *testing.T) {
	pool := NewPool(PoolConfig{})
	h, err := pool.Acquire(Shape{Y: 1, X: 1, Planes: 1})
	require.NoError(t, err)
	root := h.Publish()

	first := Derive(root, 1, TypeY, NewMetadata())
	second := Derive(first, 2, TypeY, NewMetadata())
	root.Release()
	first.Release()
	assert.Equal(t, 1, pool.Stats().Outstanding, "chain is kept alive by the last derived frame")

	second.Release()
	assert.Equal(t, 0, pool.Stats().Outstanding)
}

func TestHandleInherit(t *testing.T) {
	pool := NewPool(PoolConfig{})

	src, err := pool.Acquire(Shape{Y: 2, X: 2, Planes: 1})
	require.NoError(t, err)
	src.SetNumber(7)
	src.SetType(TypeRGB)
	src.Meta().Set("origin", "camera")
	src.Meta().AppendAudit("data = synthesize()")
	in := src.Publish()

	dst, err := pool.Acquire(Shape{Y: 2, X: 2, Planes: 1})
	require.NoError(t, err)
	dst.Inherit(in)

	assert.Equal(t, int64(7), dst.frame.number)
	assert.Equal(t, TypeRGB, dst.frame.typ)
	v, ok := dst.Meta().Get("origin")
	require.True(t, ok)
	assert.Equal(t, "camera", v)
	assert.Equal(t, 1, dst.Meta().AuditEntries())

	// Metadata copy must be independent of the source frame
	dst.Meta().Set("origin", "transformed")
	got, _ := in.Meta().Get("origin")
	assert.Equal(t, "camera", got)

	dst.Discard()
	in.Release()
}

func TestHandleCopyDataFrom(t *testing.T) {
	pool := NewPool(PoolConfig{})

	src, err := pool.Acquire(Shape{Y: 2, X: 3, Planes: 1})
	require.NoError(t, err)
	for i := range src.Data() {
		src.Data()[i] = float32(i) * 0.5
	}
	in := src.Publish()

	t.Run("matching shape", func(t *testing.T) {
		dst, err := pool.Acquire(Shape{Y: 2, X: 3, Planes: 1})
		require.NoError(t, err)
		require.NoError(t, dst.CopyDataFrom(in))
		assert.Equal(t, in.Data(), dst.Data())
		dst.Discard()
	})

	t.Run("shape mismatch", func(t *testing.T) {
		dst, err := pool.Acquire(Shape{Y: 3, X: 2, Planes: 1})
		require.NoError(t, err)
		err = dst.CopyDataFrom(in)
		require.Error(t, err)
		assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
		dst.Discard()
	})

	in.Release()
}

func TestHandleUseAfterPublishPanics(t *testing.T) {
	pool := NewPool(PoolConfig{})
	h, err := pool.Acquire(Shape{Y: 1, X: 1, Planes: 1})
	require.NoError(t, err)
	f := h.Publish()
	defer f.Release()

	assert.Panics(t, func() { h.Data() })
	assert.Panics(t, func() { h.SetNumber(1) })
}

func TestShapeString(t *testing.T) {
	assert.Equal(t, "576x720x3", Shape{Y: 576, X: 720, Planes: 3}.String())
	assert.False(t, Shape{Y: 1, X: 1, Planes: 0}.Valid())
	assert.Equal(t, 12, Shape{Y: 2, X: 2, Planes: 3}.Samples())
}
