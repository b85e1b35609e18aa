package codec

import "github.com/tracering/tracering/model"

// FrameWriter is the producer side of a byte fifo, as seen by the codec.
type FrameWriter interface {
	Write(p []byte) int
}

// Iterator is a cursor over contiguous frames in a byte region.
// It is a value type; Next and Prev return moved copies.
type Iterator struct {
	buf []byte
	off int
}

func NewIterator(buf []byte, off int) Iterator {
	return Iterator{buf: buf, off: off}
}

func (it Iterator) Event() model.Event {
	return model.Event(it.buf[it.off])
}

func (it Iterator) Length() int {
	return int(it.buf[it.off+1])
}

func (it Iterator) Payload() []byte {
	return it.buf[it.off+model.HeaderSize : it.off+model.HeaderSize+it.Length()]
}

func (it Iterator) Offset() int {
	return it.off
}

// Next returns the iterator moved to the following frame.
func (it Iterator) Next() Iterator {
	return Iterator{buf: it.buf, off: it.off + it.Length() + model.Overhead}
}

// Prev returns the iterator moved to the preceding frame, using the
// trailing length byte the previous frame left behind.
func (it Iterator) Prev() Iterator {
	prevLen := int(it.buf[it.off+model.PrevLengthOffset])
	return Iterator{buf: it.buf, off: it.off - prevLen - model.Overhead}
}

// Sub returns the byte distance between two iterators over the same region.
func (it Iterator) Sub(other Iterator) int {
	return it.off - other.off
}

func (it Iterator) Equal(other Iterator) bool {
	return it.off == other.off
}

// HasConsistentLength reports whether the leading length byte matches
// the trailing one, without walking past the end of the region.
func (it Iterator) HasConsistentLength() bool {
	end := it.off + it.Length() + model.Overhead
	if end > len(it.buf) {
		return false
	}
	return it.buf[it.off+model.HeaderSize-1] == it.buf[end-1]
}

// CopyTo writes the full current frame, header and trailer included,
// into another fifo.
func (it Iterator) CopyTo(dst FrameWriter) {
	dst.Write(it.buf[it.off : it.off+it.Length()+model.Overhead])
}
