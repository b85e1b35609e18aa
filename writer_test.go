package tracering

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracering/tracering/codec"
	"github.com/tracering/tracering/fifo"
	"github.com/tracering/tracering/model"
)

// drain decodes every frame currently in the fifo without trimming.
func drain(t *testing.T, f fifo.Fifo) []codec.Iterator {
	t.Helper()
	regions, _ := f.Obtain(f.Capacity())
	buf := make([]byte, 0, regions[0].Length+regions[1].Length)
	buf = append(buf, f.Buffer()[regions[0].Offset:regions[0].Offset+regions[0].Length]...)
	buf = append(buf, f.Buffer()[regions[1].Offset:regions[1].Offset+regions[1].Length]...)

	var frames []codec.Iterator
	for it := codec.NewIterator(buf, 0); it.Offset() < len(buf); it = it.Next() {
		require.True(t, it.HasConsistentLength())
		frames = append(frames, it)
	}
	return frames
}

func newTestWriter(capacity int) (*Writer, *fifo.Ring, *clock.Mock) {
	ring := fifo.NewRing(capacity)
	mock := clock.NewMock()
	mock.Set(time.Unix(1, 500000000))
	w := NewWriter(ring, WithClock(mock), WithPID(42), WithProcessName("audioserver"))
	return w, ring, mock
}

func TestWriter_LogInteger(t *testing.T) {
	w, ring, _ := newTestWriter(1024)

	w.LogInteger(42)

	frames := drain(t, ring)
	require.Equal(t, 1, len(frames))
	assert.Equal(t, model.EventInteger, frames[0].Event())
	assert.Equal(t, []byte{42, 0, 0, 0}, frames[0].Payload())
}

func TestWriter_LogString(t *testing.T) {
	w, ring, _ := newTestWriter(1024)

	w.Log("underrun on out")

	frames := drain(t, ring)
	require.Equal(t, 1, len(frames))
	assert.Equal(t, model.EventString, frames[0].Event())
	assert.Equal(t, []byte("underrun on out"), frames[0].Payload())
}

func TestWriter_TruncatesLongString(t *testing.T) {
	w, ring, _ := newTestWriter(1024)

	long := make([]byte, 300)
	for i := range long {
		long[i] = 'a'
	}
	w.Log(string(long))

	frames := drain(t, ring)
	require.Equal(t, 1, len(frames))
	assert.Equal(t, model.MaxLength, frames[0].Length())
}

func TestWriter_LogTimestamp(t *testing.T) {
	w, ring, _ := newTestWriter(1024)

	w.LogTimestamp()

	frames := drain(t, ring)
	require.Equal(t, 1, len(frames))
	assert.Equal(t, model.EventTimestamp, frames[0].Event())
	ts, err := codec.ParseTimespec(frames[0].Payload())
	assert.Nil(t, err)
	assert.Equal(t, model.Timespec{Sec: 1, Nsec: 500000000}, ts)
}

func TestWriter_LogPID(t *testing.T) {
	w, ring, _ := newTestWriter(1024)

	w.LogPID()

	frames := drain(t, ring)
	require.Equal(t, 1, len(frames))
	pid, name, err := codec.ParsePidTag(frames[0].Payload())
	assert.Nil(t, err)
	assert.Equal(t, 42, pid)
	assert.Equal(t, "audioserver", name)
}

func TestWriter_LogHistTS(t *testing.T) {
	w, ring, _ := newTestWriter(1024)

	w.LogHistTS(0xABCD)
	w.LogHistFlush(0xABCD)

	frames := drain(t, ring)
	require.Equal(t, 2, len(frames))
	assert.Equal(t, model.EventHistogramEntryTS, frames[0].Event())
	assert.Equal(t, model.EventHistogramFlush, frames[1].Event())

	h, err := codec.ParseHistTs(frames[0].Payload())
	assert.Nil(t, err)
	assert.Equal(t, uint64(0xABCD), h.Hash)
	assert.Equal(t, int64(1), h.TS.Sec)
}

func TestWriter_LogFormat(t *testing.T) {
	w, ring, _ := newTestWriter(1024)

	w.LogFormat("x=%d pid=%p", 0xDEADBEEFCAFEBABE, 7)

	frames := drain(t, ring)
	require.Equal(t, 6, len(frames))

	assert.Equal(t, model.EventStartFmt, frames[0].Event())
	assert.Equal(t, []byte("x=%d pid=%p"), frames[0].Payload())
	assert.Equal(t, model.EventTimestamp, frames[1].Event())
	assert.Equal(t, model.EventHash, frames[2].Event())
	hash, _ := codec.ParseHash(frames[2].Payload())
	assert.Equal(t, uint64(0xDEADBEEFCAFEBABE), hash)
	assert.Equal(t, model.EventInteger, frames[3].Event())
	assert.Equal(t, []byte{7, 0, 0, 0}, frames[3].Payload())
	assert.Equal(t, model.EventPID, frames[4].Event())
	assert.Equal(t, model.EventEndFmt, frames[5].Event())
}

func TestWriter_LogFormatLiteralPercent(t *testing.T) {
	w, ring, _ := newTestWriter(1024)

	w.LogFormat("cpu at 90%% now", 0x1)

	frames := drain(t, ring)
	// no argument frames: start, timestamp, hash, end
	require.Equal(t, 4, len(frames))
	assert.Equal(t, model.EventEndFmt, frames[3].Event())
}

func TestWriter_Disabled(t *testing.T) {
	w := NewWriter(nil)
	assert.False(t, w.IsEnabled())

	// enabling without a backing fifo stays disabled
	old := w.SetEnabled(true)
	assert.False(t, old)
	assert.False(t, w.IsEnabled())

	// all operations are no-ops rather than panics
	w.Log("nothing")
	w.LogInteger(1)
	w.LogFormat("x=%d", 0x1, 1)
}

func TestWriter_SetEnabled(t *testing.T) {
	w, ring, _ := newTestWriter(1024)

	old := w.SetEnabled(false)
	assert.True(t, old)

	w.LogInteger(1)
	assert.Equal(t, 0, len(drain(t, ring)))

	old = w.SetEnabled(true)
	assert.False(t, old)
	w.LogInteger(1)
	assert.Equal(t, 1, len(drain(t, ring)))
}

func TestWriter_Logf(t *testing.T) {
	w, ring, _ := newTestWriter(1024)

	w.Logf("underruns: %d", 3)

	frames := drain(t, ring)
	require.Equal(t, 1, len(frames))
	assert.Equal(t, model.EventString, frames[0].Event())
	assert.Equal(t, []byte("underruns: 3"), frames[0].Payload())
}

func TestWriter_ConsistentLengths(t *testing.T) {
	w, ring, _ := newTestWriter(4096)

	w.Log("a")
	w.LogTimestamp()
	w.LogInteger(-3)
	w.LogFloat(2.5)
	w.LogPID()
	w.LogHash(0xFEED)
	w.LogHistTS(0xFEED)
	w.LogFormat("f=%f s=%s", 0xFEED, 1.25, "str")

	// drain asserts HasConsistentLength on every frame
	frames := drain(t, ring)
	assert.Equal(t, 13, len(frames))
}
