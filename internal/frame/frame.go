// Package frame provides the frame data model for the framix engine:
// 3-axis float32 sample arrays with per-frame metadata, shared between
// pipeline components by reference counting and recycled through shape-keyed
// buffer pools.
package frame

import (
	"fmt"
	"sync/atomic"

	"github.com/jlammi/framix/internal/errors"
)

// Shape describes the dimensions of a frame's sample array:
// rows (Y), columns (X) and component planes.
type Shape struct {
	Y      int
	X      int
	Planes int
}

// Samples returns the total number of float32 samples for the shape.
func (s Shape) Samples() int {
	return s.Y * s.X * s.Planes
}

// Valid reports whether all dimensions are at least 1.
func (s Shape) Valid() bool {
	return s.Y >= 1 && s.X >= 1 && s.Planes >= 1
}

func (s Shape) String() string {
	return fmt.Sprintf("%dx%dx%d", s.Y, s.X, s.Planes)
}

// Common frame type codes. The type describes how planes are to be
// interpreted; components may define further codes.
const (
	TypeRGB    = "RGB"
	TypeY      = "Y"
	TypeFilter = "fil"
)

// StaticNumber marks a frame that is not part of a numbered stream, such as
// a filter coefficient frame delivered once on a side input.
const StaticNumber int64 = -1

// Frame is an immutable, reference-counted container of sample data and
// metadata. A Frame is created by publishing a Handle; after that its data
// and metadata must not be modified by anyone. Holders share the Frame by
// calling Retain before handing a reference elsewhere and Release when done;
// at zero references the storage returns to the pool that allocated it.
type Frame struct {
	number int64
	typ    string
	shape  Shape
	data   []float32
	meta   *Metadata
	refs   atomic.Int32
	pool   *Pool
	parent *Frame // set on derived frames sharing another frame's storage
}

// Derive returns a new published Frame sharing src's sample storage but
// carrying its own number, type and metadata. The derived frame holds a
// reference on src for its whole lifetime, so passthrough components can
// re-describe a frame without copying sample data. The caller owns one
// reference to the result and must not modify meta afterwards.
func Derive(src *Frame, number int64, typ string, meta *Metadata) *Frame {
	src.Retain()
	f := &Frame{
		number: number,
		typ:    typ,
		shape:  src.shape,
		data:   src.data,
		meta:   meta,
		parent: src,
	}
	f.refs.Store(1)
	return f
}

// Number returns the frame's sequence number. Negative numbers mark static
// frames (see StaticNumber).
func (f *Frame) Number() int64 { return f.number }

// Type returns the frame type code.
func (f *Frame) Type() string { return f.typ }

// Shape returns the sample array dimensions.
func (f *Frame) Shape() Shape { return f.shape }

// Data returns the sample array in row-major [y][x][plane] order. The slice
// is shared with every other holder of the Frame and must be treated as
// read-only.
func (f *Frame) Data() []float32 { return f.data }

// Sample returns the sample at row y, column x, plane p.
func (f *Frame) Sample(y, x, p int) float32 {
	return f.data[(y*f.shape.X+x)*f.shape.Planes+p]
}

// Meta returns the frame's metadata. Published metadata must be treated as
// read-only; transforms copy it into their output handle instead.
func (f *Frame) Meta() *Metadata { return f.meta }

// Retain adds a reference. Call before sharing the Frame with another
// holder.
func (f *Frame) Retain() {
	f.refs.Add(1)
}

// Release drops a reference. When the last reference is dropped the
// underlying storage is returned to its pool, or freed if the pool has been
// closed.
func (f *Frame) Release() {
	if n := f.refs.Add(-1); n == 0 {
		data := f.data
		parent := f.parent
		f.data = nil
		f.meta = nil
		f.parent = nil
		switch {
		case parent != nil:
			parent.Release()
		case f.pool != nil:
			f.pool.recycle(data, f.shape)
		}
	} else if n < 0 {
		panic("frame: Release called more times than Retain")
	}
}

// RefCount returns the current reference count. Intended for tests and
// diagnostics.
func (f *Frame) RefCount() int32 {
	return f.refs.Load()
}

// Handle is the writable pre-publish stage of a Frame. Exactly one producer
// populates a Handle, then calls Publish to freeze it into a shareable
// Frame. A Handle must end in exactly one Publish or Discard call.
type Handle struct {
	frame     *Frame
	published bool
}

// Data returns the writable sample array in row-major [y][x][plane] order.
func (h *Handle) Data() []float32 {
	h.mustBeWritable()
	return h.frame.data
}

// Shape returns the sample array dimensions.
func (h *Handle) Shape() Shape { return h.frame.shape }

// Meta returns the writable metadata.
func (h *Handle) Meta() *Metadata {
	h.mustBeWritable()
	return h.frame.meta
}

// SetNumber sets the frame sequence number.
func (h *Handle) SetNumber(n int64) {
	h.mustBeWritable()
	h.frame.number = n
}

// SetType sets the frame type code.
func (h *Handle) SetType(t string) {
	h.mustBeWritable()
	h.frame.typ = t
}

// SetSample sets the sample at row y, column x, plane p.
func (h *Handle) SetSample(y, x, p int, v float32) {
	h.mustBeWritable()
	h.frame.data[(y*h.frame.shape.X+x)*h.frame.shape.Planes+p] = v
}

// Inherit copies number, type and metadata (fields and audit trail) from an
// upstream frame onto the handle. Sample data is not copied; transforms
// write their own output samples.
func (h *Handle) Inherit(src *Frame) {
	h.mustBeWritable()
	h.frame.number = src.number
	h.frame.typ = src.typ
	h.frame.meta = src.meta.Copy()
}

// CopyDataFrom copies the sample data of src into the handle. The shapes
// must match exactly.
func (h *Handle) CopyDataFrom(src *Frame) error {
	h.mustBeWritable()
	if src.shape != h.frame.shape {
		return errors.Newf("shape mismatch copying frame data: %s into %s", src.shape, h.frame.shape).
			Component("frame").
			Category(errors.CategoryValidation).
			Build()
	}
	copy(h.frame.data, src.data)
	return nil
}

// Publish freezes the handle into an immutable Frame holding one reference
// owned by the caller. The handle must not be used afterwards.
func (h *Handle) Publish() *Frame {
	h.mustBeWritable()
	h.published = true
	f := h.frame
	h.frame = nil
	f.refs.Store(1)
	return f
}

// Discard returns the handle's storage to its pool without publishing.
// Use on error paths where the output frame is abandoned.
func (h *Handle) Discard() {
	h.mustBeWritable()
	h.published = true
	f := h.frame
	h.frame = nil
	if f.pool != nil {
		f.pool.recycle(f.data, f.shape)
	}
}

func (h *Handle) mustBeWritable() {
	if h.published || h.frame == nil {
		panic("frame: use of Handle after Publish or Discard")
	}
}
