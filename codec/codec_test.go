package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tracering/tracering/model"
)

func TestMarshalFrame(t *testing.T) {
	frame, err := MarshalFrame(model.EventString, []byte("abc"))
	assert.Nil(t, err)
	assert.Equal(t, []byte{byte(model.EventString), 3, 'a', 'b', 'c', 3}, frame)

	_, err = MarshalFrame(model.EventReserved, []byte("abc"))
	assert.Equal(t, ErrInvalidEvent, err)

	_, err = MarshalFrame(model.EventUpperBound, []byte("abc"))
	assert.Equal(t, ErrInvalidEvent, err)

	_, err = MarshalFrame(model.EventString, make([]byte, model.MaxLength+1))
	assert.Equal(t, ErrBigPayload, err)
}

func TestUnmarshalFrame(t *testing.T) {
	frame, err := MarshalFrame(model.EventInteger, []byte{42, 0, 0, 0})
	assert.Nil(t, err)

	event, payload, size, err := UnmarshalFrame(frame)
	assert.Nil(t, err)
	assert.Equal(t, model.EventInteger, event)
	assert.Equal(t, []byte{42, 0, 0, 0}, payload)
	assert.Equal(t, len(frame), size)

	_, _, _, err = UnmarshalFrame(frame[:2])
	assert.Equal(t, ErrShortFrame, err)

	// trailing length disagrees with the leading one
	bad := append([]byte{}, frame...)
	bad[len(bad)-1] = 9
	_, _, _, err = UnmarshalFrame(bad)
	assert.Equal(t, ErrCorruptedData, err)
}

func TestTimespecRoundTrip(t *testing.T) {
	ts := model.Timespec{Sec: 12345, Nsec: 678000000}
	b := make([]byte, model.TimespecSize)
	PutTimespec(b, ts)

	got, err := ParseTimespec(b)
	assert.Nil(t, err)
	assert.Equal(t, ts, got)

	_, err = ParseTimespec(b[:4])
	assert.Equal(t, ErrShortPayload, err)
}

func TestHistTsRoundTrip(t *testing.T) {
	h := model.HistTs{Hash: 0xDEADBEEFCAFEBABE, TS: model.Timespec{Sec: 7, Nsec: 9}}
	b := make([]byte, model.HistTsSize)
	PutHistTs(b, h)

	got, err := ParseHistTs(b)
	assert.Nil(t, err)
	assert.Equal(t, h, got)

	// without the author field the author decodes as -1
	any, err := ParseHistAny(b)
	assert.Nil(t, err)
	assert.Equal(t, int32(-1), any.Author)

	wb := make([]byte, model.HistTsWithAuthorSize)
	PutHistTsWithAuthor(wb, model.HistTsWithAuthor{HistTs: h, Author: 3})
	any, err = ParseHistAny(wb)
	assert.Nil(t, err)
	assert.Equal(t, int32(3), any.Author)
	assert.Equal(t, h, any.HistTs)
}

func TestPidTag(t *testing.T) {
	tag := PutPidTag(1234, "audioserver")
	pid, name, err := ParsePidTag(tag)
	assert.Nil(t, err)
	assert.Equal(t, 1234, pid)
	assert.Equal(t, "audioserver", name)

	// process names longer than the cap are truncated
	tag = PutPidTag(1, "a-very-long-process-name")
	_, name, err = ParsePidTag(tag)
	assert.Nil(t, err)
	assert.Equal(t, model.MaxProcessNameLen, len(name))
}
