package tracering

import (
	"github.com/tracering/tracering/codec"
	"github.com/tracering/tracering/model"
)

// Entry is a facade over the frame that begins a logical record,
// exposing the fields the merger and the formatter need regardless of
// the record shape.
type Entry interface {
	Timestamp() model.Timespec
	Hash() uint64

	// Author returns the source stream index, or -1 before a merge.
	Author() int

	// CopyWithAuthor copies the full record into dst, inserting or
	// rewriting the author tag, and returns an iterator past the
	// record in the source region.
	CopyWithAuthor(dst codec.FrameWriter, author int) codec.Iterator
}

// buildEntry dispatches on the leading frame type. end bounds the
// record's region: a START_FMT with no END_FMT before end is rejected,
// so the entry accessors never walk past the region. Snapshot trimming
// keeps frame chains consistent but cannot guarantee record
// bracketing; that check lives here.
func buildEntry(it codec.Iterator, end int) (Entry, error) {
	switch it.Event() {
	case model.EventStartFmt:
		for probe := it.Next(); ; probe = probe.Next() {
			if probe.Offset() >= end {
				return nil, ErrUnterminatedRecord
			}
			if probe.Event() == model.EventEndFmt {
				return FormatEntry{it: it, end: end}, nil
			}
		}
	case model.EventHistogramEntryTS, model.EventHistogramFlush:
		return HistogramEntry{it: it}, nil
	default:
		return nil, ErrUnsupportedEntry
	}
}

// FormatEntry is a START_FMT ... END_FMT frame sequence.
type FormatEntry struct {
	it  codec.Iterator
	end int
}

// at returns the nth frame after the start frame, reporting false when
// the record ends first. A record shorter than its expected shape
// yields zero values from the accessors instead of a walk past END_FMT.
func (e FormatEntry) at(n int) (codec.Iterator, bool) {
	it := e.it
	for i := 0; i < n; i++ {
		if it.Event() == model.EventEndFmt {
			return it, false
		}
		it = it.Next()
		if it.Offset() >= e.end {
			return it, false
		}
	}
	return it, it.Event() != model.EventEndFmt
}

func (e FormatEntry) FormatString() []byte {
	return e.it.Payload()
}

func (e FormatEntry) Timestamp() model.Timespec {
	it, ok := e.at(1)
	if !ok {
		return model.Timespec{}
	}
	ts, _ := codec.ParseTimespec(it.Payload())
	return ts
}

func (e FormatEntry) Hash() uint64 {
	it, ok := e.at(2)
	if !ok {
		return 0
	}
	hash, _ := codec.ParseHash(it.Payload())
	return hash
}

func (e FormatEntry) Author() int {
	it, ok := e.at(3)
	if ok && it.Event() == model.EventAuthor {
		author, _ := codec.ParseInt(it.Payload())
		return int(author)
	}
	return -1
}

// Args returns an iterator at the first argument frame, past the
// start, timestamp, hash and optional author frames. On a record too
// short to have arguments it lands on END_FMT.
func (e FormatEntry) Args() codec.Iterator {
	it, ok := e.at(3)
	if !ok {
		return it
	}
	if it.Event() == model.EventAuthor {
		it = it.Next()
	}
	return it
}

func (e FormatEntry) CopyWithAuthor(dst codec.FrameWriter, author int) codec.Iterator {
	it := e.it
	it.CopyTo(dst)
	it = it.Next()

	// copy the timestamp and hash frames when present
	for i := 0; i < 2 && it.Event() != model.EventEndFmt; i++ {
		it.CopyTo(dst)
		it = it.Next()
	}

	// synthesize the author frame
	var p [model.IntSize]byte
	codec.PutInt(p[:], int32(author))
	var frame [model.IntSize + model.Overhead]byte
	dst.Write(codec.AppendFrame(frame[:0], model.EventAuthor, p[:]))

	// copy the rest up to and including END_FMT
	for ; it.Offset() < e.end && it.Event() != model.EventEndFmt; it = it.Next() {
		it.CopyTo(dst)
	}
	if it.Offset() >= e.end {
		return it
	}
	it.CopyTo(dst)
	return it.Next()
}

// HistogramEntry is a single histogram timestamp or flush frame.
type HistogramEntry struct {
	it codec.Iterator
}

func (e HistogramEntry) Timestamp() model.Timespec {
	h, _ := codec.ParseHistTs(e.it.Payload())
	return h.TS
}

func (e HistogramEntry) Hash() uint64 {
	h, _ := codec.ParseHistTs(e.it.Payload())
	return h.Hash
}

func (e HistogramEntry) Author() int {
	if e.it.Length() == model.HistTsWithAuthorSize {
		h, _ := codec.ParseHistAny(e.it.Payload())
		return int(h.Author)
	}
	return -1
}

func (e HistogramEntry) CopyWithAuthor(dst codec.FrameWriter, author int) codec.Iterator {
	// rewrite the payload from HistTs to HistTsWithAuthor, patching
	// both length bytes
	h, _ := codec.ParseHistTs(e.it.Payload())
	var p [model.HistTsWithAuthorSize]byte
	codec.PutHistTsWithAuthor(p[:], model.HistTsWithAuthor{HistTs: h, Author: int32(author)})
	var frame [model.HistTsWithAuthorSize + model.Overhead]byte
	dst.Write(codec.AppendFrame(frame[:0], e.it.Event(), p[:]))
	return e.it.Next()
}
