package fifo

import "sync/atomic"

const defaultCapacity = 32 * 1024

// Ring is the default in-process Fifo implementation.
//
// The producer owns rear, the total byte count ever written, published
// atomically after each copy. The consumer keeps its own front index
// and discovers overrun when rear outruns it by more than the
// capacity. The producer never waits on the consumer; a consumer
// racing an overrunning producer can observe torn bytes in the overrun
// region, which the snapshot trim upstream is built to reject.
type Ring struct {
	buf   []byte
	rear  atomic.Uint64
	front uint64 // consumer-local
}

var _ Fifo = (*Ring)(nil)

// NewRing creates a ring with at least the requested capacity, rounded
// up to a power of two.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Ring{buf: make([]byte, RoundUp(capacity))}
}

// Attach wraps an existing backing region, e.g. the bytes of a shared
// file mapping. The region length is used as-is for the capacity.
func Attach(buf []byte) *Ring {
	return &Ring{buf: buf}
}

func (r *Ring) Capacity() int {
	return len(r.buf)
}

func (r *Ring) Buffer() []byte {
	return r.buf
}

func (r *Ring) Write(p []byte) int {
	n := len(p)
	if n == 0 {
		return 0
	}
	capacity := len(r.buf)
	rear := r.rear.Load()

	// a write larger than the ring keeps only its own tail
	drop := 0
	if n > capacity {
		drop = n - capacity
	}
	q := p[drop:]
	pos := int((rear + uint64(drop)) % uint64(capacity))
	first := capacity - pos
	if first > len(q) {
		first = len(q)
	}
	copy(r.buf[pos:], q[:first])
	copy(r.buf, q[first:])

	// publish after the copy
	r.rear.Store(rear + uint64(n))
	return n
}

func (r *Ring) Obtain(max int) ([2]Region, int) {
	var regions [2]Region
	capacity := uint64(len(r.buf))
	rear := r.rear.Load()

	filled := rear - r.front
	var lost int
	if filled > capacity {
		// writer overran us; skip what is already overwritten
		lost = int(filled - capacity)
		r.front += uint64(lost)
		filled = capacity
	}

	avail := int(filled)
	if max >= 0 && avail > max {
		avail = max
	}
	if avail == 0 {
		return regions, lost
	}

	pos := int(r.front % capacity)
	first := int(capacity) - pos
	if first > avail {
		first = avail
	}
	regions[0] = Region{Offset: pos, Length: first}
	if avail > first {
		regions[1] = Region{Offset: 0, Length: avail - first}
	}
	return regions, lost
}

func (r *Ring) Release(n int) {
	r.front += uint64(n)
}
