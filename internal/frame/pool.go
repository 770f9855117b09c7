package frame

import (
	"sync"

	"github.com/jlammi/framix/internal/errors"
)

// PoolConfig tunes a buffer pool.
type PoolConfig struct {
	// MaxFreePerShape caps the free buffers kept per shape; 0 keeps all.
	MaxFreePerShape int
	// MaxOutstanding caps handles and frames in flight; 0 is unlimited.
	// Acquire fails with a resource error once the cap is reached.
	MaxOutstanding int
}

// PoolStats is a snapshot of pool state.
type PoolStats struct {
	Outstanding int    // handles and frames not yet returned
	Free        int    // recycled buffers available across all shapes
	Hits        uint64 // acquisitions served from the free lists
	Misses      uint64 // acquisitions that allocated fresh storage
}

// Pool allocates frame storage and recycles it when frames are fully
// released. Buffers are keyed by exact shape; a request for a shape with no
// free buffer allocates fresh storage. Pools grow to a high-water mark and
// shrink only on explicit Trim.
//
// Each component output port owns its own Pool, so storage flows from a
// producer through the graph and back to the producer's pool.
type Pool struct {
	mu          sync.Mutex
	free        map[Shape][][]float32
	maxFree     int
	maxOut      int
	outstanding int
	hits        uint64
	misses      uint64
	closed      bool
}

// NewPool creates a pool with the given configuration.
func NewPool(config PoolConfig) *Pool {
	return &Pool{
		free:    make(map[Shape][][]float32),
		maxFree: config.MaxFreePerShape,
		maxOut:  config.MaxOutstanding,
	}
}

// Acquire returns a writable Handle for a frame of the given shape, either
// recycled or freshly allocated. It fails on an invalid shape, on a closed
// pool, and when the outstanding cap is reached.
func (p *Pool) Acquire(shape Shape) (*Handle, error) {
	if !shape.Valid() {
		return nil, errors.Newf("invalid frame shape %s", shape).
			Component("frame").
			Category(errors.CategoryValidation).
			Build()
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, errors.NewStd("acquire on closed buffer pool")
	}
	if p.maxOut > 0 && p.outstanding >= p.maxOut {
		outstanding := p.outstanding
		p.mu.Unlock()
		return nil, errors.Newf("buffer pool exhausted: %d frames outstanding", outstanding).
			Component("frame").
			Category(errors.CategoryResource).
			Context("shape", shape.String()).
			Build()
	}

	var data []float32
	if bufs := p.free[shape]; len(bufs) > 0 {
		data = bufs[len(bufs)-1]
		p.free[shape] = bufs[:len(bufs)-1]
		p.hits++
	} else {
		data = make([]float32, shape.Samples())
		p.misses++
	}
	p.outstanding++
	p.mu.Unlock()

	return &Handle{
		frame: &Frame{
			shape: shape,
			data:  data,
			meta:  NewMetadata(),
			pool:  p,
		},
	}, nil
}

// recycle returns storage to the free list. Called when a frame's last
// reference drops or a handle is discarded. After Close the storage is
// simply dropped, so abandoned frames cannot resurrect a dead pool.
func (p *Pool) recycle(data []float32, shape Shape) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.outstanding--
	if p.closed {
		return
	}
	if p.maxFree > 0 && len(p.free[shape]) >= p.maxFree {
		return
	}
	p.free[shape] = append(p.free[shape], data)
}

// Stats returns a snapshot of pool state.
func (p *Pool) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	freeCount := 0
	for _, bufs := range p.free {
		freeCount += len(bufs)
	}
	return PoolStats{
		Outstanding: p.outstanding,
		Free:        freeCount,
		Hits:        p.hits,
		Misses:      p.misses,
	}
}

// Trim drops all free buffers, releasing their memory to the runtime.
// Outstanding frames are unaffected.
func (p *Pool) Trim() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.free = make(map[Shape][][]float32)
}

// Close marks the pool dead and drops all free buffers. Outstanding frames
// remain valid; their storage is freed instead of recycled when released.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.free = make(map[Shape][][]float32)
}
