package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tracering/tracering/model"
)

func buildFrames(t *testing.T) ([]byte, []int) {
	t.Helper()
	var buf []byte
	var offsets []int
	offsets = append(offsets, len(buf))
	buf = AppendFrame(buf, model.EventStartFmt, []byte("x=%d"))
	offsets = append(offsets, len(buf))
	buf = AppendFrame(buf, model.EventInteger, []byte{7, 0, 0, 0})
	offsets = append(offsets, len(buf))
	buf = AppendFrame(buf, model.EventEndFmt, nil)
	return buf, offsets
}

func TestIterator_Forward(t *testing.T) {
	buf, offsets := buildFrames(t)

	it := NewIterator(buf, 0)
	assert.Equal(t, model.EventStartFmt, it.Event())
	assert.Equal(t, []byte("x=%d"), it.Payload())

	it = it.Next()
	assert.Equal(t, offsets[1], it.Offset())
	assert.Equal(t, model.EventInteger, it.Event())
	assert.Equal(t, 4, it.Length())

	it = it.Next()
	assert.Equal(t, offsets[2], it.Offset())
	assert.Equal(t, model.EventEndFmt, it.Event())
	assert.Equal(t, 0, it.Length())

	it = it.Next()
	assert.Equal(t, len(buf), it.Offset())
}

func TestIterator_BackwardVisitsSameBoundaries(t *testing.T) {
	buf, offsets := buildFrames(t)

	// walk forward collecting boundaries, then backward from the end;
	// the two walks must agree in reverse order
	var forward []int
	for it := NewIterator(buf, 0); it.Offset() < len(buf); it = it.Next() {
		forward = append(forward, it.Offset())
	}
	assert.Equal(t, offsets, forward)

	it := NewIterator(buf, len(buf))
	for i := len(forward) - 1; i >= 0; i-- {
		it = it.Prev()
		assert.Equal(t, forward[i], it.Offset())
	}
}

func TestIterator_HasConsistentLength(t *testing.T) {
	buf, _ := buildFrames(t)
	for it := NewIterator(buf, 0); it.Offset() < len(buf); it = it.Next() {
		assert.True(t, it.HasConsistentLength())
	}

	bad := append([]byte{}, buf...)
	bad[len(bad)-1] = 200
	it := NewIterator(bad, len(bad)-model.Overhead)
	assert.False(t, it.HasConsistentLength())
}

func TestIterator_Sub(t *testing.T) {
	buf, offsets := buildFrames(t)
	begin := NewIterator(buf, 0)
	second := NewIterator(buf, offsets[1])
	assert.Equal(t, offsets[1], second.Sub(begin))
	assert.True(t, begin.Equal(NewIterator(buf, 0)))
}

func TestFindLastOfTypes(t *testing.T) {
	buf, offsets := buildFrames(t)

	off, ok := FindLastOfTypes(buf, 0, len(buf), model.EndingTypes)
	assert.True(t, ok)
	assert.Equal(t, offsets[2], off)

	off, ok = FindLastOfTypes(buf, 0, len(buf), model.StartingTypes)
	assert.True(t, ok)
	assert.Equal(t, offsets[0], off)

	_, ok = FindLastOfTypes(buf, 0, len(buf), map[model.Event]bool{model.EventPID: true})
	assert.False(t, ok)
}

func TestFindLastOfTypes_GarbageByteAborts(t *testing.T) {
	buf, _ := buildFrames(t)

	// a stray byte at the end makes the trailing length lie; the scan
	// must refuse the whole chain instead of trusting it
	garbage := append(append([]byte{}, buf...), 0xEE)
	_, ok := FindLastOfTypes(garbage, 0, len(garbage), model.EndingTypes)
	assert.False(t, ok)
}
