package fifo

// Region is one contiguous readable span of a fifo's backing buffer.
type Region struct {
	Offset int
	Length int
}

// Fifo is a single-producer single-consumer byte ring.
// Write never blocks; when the ring is full the oldest unread bytes
// are overwritten and surfaced to the consumer as a lost count on the
// next Obtain. The fifo can be custom in options.
type Fifo interface {
	// Write copies p into the ring and returns len(p).
	Write(p []byte) int

	// Obtain peeks at most max readable bytes as up to two contiguous
	// regions of Buffer, and reports the bytes discarded by writer
	// overrun since the previous Obtain. It does not consume.
	Obtain(max int) ([2]Region, int)

	// Release advances the consumer index by n bytes.
	Release(n int)

	Capacity() int
	Buffer() []byte
}
