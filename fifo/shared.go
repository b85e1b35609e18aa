package fifo

// SharedHeaderSize is the bookkeeping space reserved at the start of a
// shared region, ahead of the ring bytes. The layout must be stable
// because the region may live in cross-process shared memory.
const SharedHeaderSize = 16

// SharedSize returns the byte size of a shared region able to back a
// ring of at least the requested capacity.
func SharedSize(capacity int) int {
	return SharedHeaderSize + RoundUp(capacity)
}

// RoundUp rounds n up to the next power of two.
func RoundUp(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
