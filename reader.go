package tracering

import (
	"go.uber.org/zap"

	"github.com/tracering/tracering/codec"
	"github.com/tracering/tracering/fifo"
	"github.com/tracering/tracering/model"
)

// Reader is the consumer side of one event stream. It is used from
// exactly one goroutine, typically a dumper or the merger.
type Reader struct {
	fifo   fifo.Fifo
	logger *zap.Logger

	maxHistHeight int

	// set by MergeReader: resolves an author index to a stream name
	nameTable func() []string
}

func NewReader(f fifo.Fifo, opts ...Option) *Reader {
	o := buildOptions(opts)
	return &Reader{
		fifo:          f,
		logger:        o.logger,
		maxHistHeight: o.maxHistHeight,
	}
}

// Snapshot is a detached copy of the fifo's readable region at one
// instant, trimmed to complete records, plus a lost byte count.
type Snapshot struct {
	data  []byte
	begin codec.Iterator
	end   codec.Iterator
	lost  int
}

func (s *Snapshot) Data() []byte          { return s.data }
func (s *Snapshot) Begin() codec.Iterator { return s.begin }
func (s *Snapshot) End() codec.Iterator   { return s.end }

// Lost is the byte count the writer overran since the last snapshot.
// The head bytes discarded by the trim come on top of this; Dump
// reports both.
func (s *Snapshot) Lost() int { return s.lost }

func emptySnapshot() *Snapshot {
	snap := &Snapshot{}
	snap.begin = codec.NewIterator(nil, 0)
	snap.end = snap.begin
	return snap
}

// GetSnapshot copies everything currently readable out of the fifo,
// trims partial records at both ends and releases the consumed bytes.
func (r *Reader) GetSnapshot() *Snapshot {
	if r.fifo == nil {
		r.logger.Warn("snapshot requested", zap.Error(ErrNoFifo))
		return emptySnapshot()
	}

	// copy to a detached buffer to avoid racing the writer
	regions, lost := r.fifo.Obtain(r.fifo.Capacity())
	avail := regions[0].Length + regions[1].Length
	if avail == 0 {
		return emptySnapshot()
	}

	buf := make([]byte, avail)
	base := r.fifo.Buffer()
	copy(buf, base[regions[0].Offset:regions[0].Offset+regions[0].Length])
	if regions[1].Length > 0 {
		copy(buf[regions[0].Length:], base[regions[1].Offset:regions[1].Offset+regions[1].Length])
	}

	snap := trimSnapshot(buf, lost)

	// advance the fifo past what the snapshot covers, so the next one
	// starts at the first byte we could not use yet
	r.fifo.Release(snap.end.Offset())
	return snap
}

// SnapshotBytes runs the trim over an arbitrary byte region, e.g. a
// shared file mapped from another process. The region is copied.
func SnapshotBytes(region []byte) *Snapshot {
	buf := make([]byte, len(region))
	copy(buf, region)
	return trimSnapshot(buf, 0)
}

// trimSnapshot locates the last complete record end and the earliest
// record start still reachable by consistent backward iteration.
//
// The copied region can be damaged at both ends: the head by writer
// overrun, the tail by a frame that was mid-write at the copy. Even a
// truncated compound record ends in some complete frame, so backward
// traversal from the raw end is safe once an ending-type frame is
// found.
func trimSnapshot(buf []byte, lost int) *Snapshot {
	snap := &Snapshot{data: buf, lost: lost}

	lastEnd, ok := codec.FindLastOfTypes(buf, 0, len(buf), model.EndingTypes)
	if !ok {
		snap.begin = codec.NewIterator(buf, 0)
		snap.end = snap.begin
		return snap
	}
	// end points past the last complete record
	snap.end = codec.NewIterator(buf, lastEnd).Next()

	// walk the starting-type frames back as far as the chain stays
	// consistent; the earliest one found is the snapshot begin
	firstStart := -1
	cursor := snap.end.Offset()
	for {
		off, found := codec.FindLastOfTypes(buf, 0, cursor, model.StartingTypes)
		if !found {
			break
		}
		firstStart = off
		cursor = off
	}
	if firstStart < 0 {
		snap.begin = snap.end
	} else {
		snap.begin = codec.NewIterator(buf, firstStart)
	}
	return snap
}
