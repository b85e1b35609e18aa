package model

import "time"

/*
frame layout:
	- header: type(1) + length(1)
	- payload: up to MaxLength bytes
	- trailer: length(1), a repeat of the header length

	type | length | payload | length

the trailing length duplicate is what makes frames traversable backwards
from any known end-of-frame boundary.
*/
const (
	HeaderSize  = 2
	TrailerSize = 1
	Overhead    = HeaderSize + TrailerSize

	MaxLength    = 255
	MaxFrameSize = MaxLength + Overhead

	// PrevLengthOffset is the offset, relative to a frame start, of the
	// previous frame's trailing length byte.
	PrevLengthOffset = -1
)

// fixed payload sizes, little-endian on the wire
const (
	TimespecSize         = 12 // sec(8) + nsec(4)
	IntSize              = 4
	FloatSize            = 4
	HashSize             = 8
	PidHeaderSize        = 4 // pid(4), followed by the process name
	HistTsSize           = HashSize + TimespecSize
	HistTsWithAuthorSize = HistTsSize + IntSize

	MaxProcessNameLen = 15
)

// Timespec is a monotonic clock reading split into whole seconds and
// the nanosecond remainder.
type Timespec struct {
	Sec  int64
	Nsec int32
}

// TimespecFromTime converts a clock reading to the wire representation.
func TimespecFromTime(t time.Time) Timespec {
	return Timespec{
		Sec:  t.Unix(),
		Nsec: int32(t.Nanosecond()),
	}
}

// Less orders timespecs chronologically.
func (t Timespec) Less(other Timespec) bool {
	if t.Sec != other.Sec {
		return t.Sec < other.Sec
	}
	return t.Nsec < other.Nsec
}

// DeltaMs returns t2-t1 in milliseconds, at millisecond granularity.
func DeltaMs(t1, t2 Timespec) int {
	return int((t2.Sec-t1.Sec)*1000) + int(t2.Nsec/1000000) - int(t1.Nsec/1000000)
}

// HistTs is the payload of a histogram timestamp or flush frame.
type HistTs struct {
	Hash uint64
	TS   Timespec
}

// HistTsWithAuthor is the payload of a histogram frame after a merge
// pass tagged it with the index of its source stream.
type HistTsWithAuthor struct {
	HistTs
	Author int32
}
