package tracering

import (
	"math"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/tracering/tracering/codec"
	"github.com/tracering/tracering/fifo"
	"github.com/tracering/tracering/mergeq"
)

// NamedReader pairs a reader with the name of its producer stream.
type NamedReader struct {
	reader *Reader
	name   string
}

func NewNamedReader(r *Reader, name string) NamedReader {
	return NamedReader{reader: r, name: name}
}

func (nr NamedReader) Reader() *Reader { return nr.reader }
func (nr NamedReader) Name() string    { return nr.name }

// Merger drains N producer streams into a single timestamp-ordered
// stream in the merged fifo, tagging each record with its origin
// index.
type Merger struct {
	mu      sync.Mutex
	readers []NamedReader

	fifo   fifo.Fifo
	logger *zap.Logger
}

func NewMerger(merged fifo.Fifo, opts ...Option) *Merger {
	o := buildOptions(opts)
	return &Merger{
		fifo:   merged,
		logger: o.logger,
	}
}

func (m *Merger) AddReader(reader NamedReader) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readers = append(m.readers, reader)
}

func (m *Merger) namedReaders() []NamedReader {
	m.mu.Lock()
	defer m.mu.Unlock()
	readers := make([]NamedReader, len(m.readers))
	copy(readers, m.readers)
	return readers
}

// Names returns the stream name table, indexed by author.
func (m *Merger) Names() []string {
	readers := m.namedReaders()
	names := make([]string, len(readers))
	for i, reader := range readers {
		names[i] = reader.name
	}
	return names
}

// Merge runs one merge pass: snapshot every registered reader, then
// repeatedly copy the record with the smallest timestamp into the
// merged fifo, ties broken by lower stream index. Timestamps are taken
// from the records, never re-sampled.
func (m *Merger) Merge() {
	readers := m.namedReaders()
	snapshots := make([]*Snapshot, len(readers))
	offsets := make([]codec.Iterator, len(readers))

	queue := mergeq.NewBTree(0)
	for i := range readers {
		snapshots[i] = readers[i].reader.GetSnapshot()
		offsets[i] = m.push(queue, snapshots[i], snapshots[i].Begin(), i)
	}

	for queue.Len() > 0 {
		item, _ := queue.PopMin()
		i := item.Source
		entry, err := buildEntry(offsets[i], snapshots[i].End().Offset())
		if err != nil {
			// push validated this offset; skip the frame if it no
			// longer holds
			offsets[i] = m.push(queue, snapshots[i], offsets[i].Next(), i)
			continue
		}
		offsets[i] = m.push(queue, snapshots[i], entry.CopyWithAuthor(m.fifo, i), i)
	}
}

// push enqueues the next mergeable record of stream i at or after off,
// skipping frames no entry can be built from, and returns the offset it
// settled on. A skipped frame is lost to the merge but the records
// behind it are not.
func (m *Merger) push(queue mergeq.Queue, snap *Snapshot, off codec.Iterator, i int) codec.Iterator {
	for !off.Equal(snap.End()) {
		entry, err := buildEntry(off, snap.End().Offset())
		if err == nil {
			queue.Push(mergeq.Item{TS: entry.Timestamp(), Source: i})
			break
		}
		m.logger.Warn("merge skipped frame",
			zap.Int("stream", i), zap.Error(err))
		off = off.Next()
	}
	return off
}

// MergeReader reads the merged fifo and knows the merger's stream
// names, so formatted lines carry a "{name}: " prefix.
type MergeReader struct {
	*Reader
}

func NewMergeReader(merged fifo.Fifo, merger *Merger, opts ...Option) *MergeReader {
	r := NewReader(merged, opts...)
	r.nameTable = merger.Names
	return &MergeReader{Reader: r}
}

// MergeThread periodically invokes the merger from a background
// goroutine. Each wakeup arms it for wakeupPeriod worth of merge
// passes, spaced sleepPeriod apart; when the timeout runs out it
// parks until the next wakeup.
type MergeThread struct {
	merger *Merger
	clock  clock.Clock

	sleepPeriod  time.Duration
	wakeupPeriod time.Duration

	mu      sync.Mutex
	timeout time.Duration
	exit    bool

	wake chan struct{}
	done chan struct{}
}

func NewMergeThread(merger *Merger, opts ...Option) *MergeThread {
	o := buildOptions(opts)
	t := &MergeThread{
		merger:       merger,
		clock:        o.clock,
		sleepPeriod:  o.sleepPeriod,
		wakeupPeriod: o.wakeupPeriod,
		wake:         make(chan struct{}, 1),
		done:         make(chan struct{}),
	}
	go t.loop()
	return t
}

func (t *MergeThread) loop() {
	defer close(t.done)
	for {
		t.mu.Lock()
		wait := time.Duration(math.MaxInt64)
		if t.timeout > 0 {
			wait = t.sleepPeriod
		}
		t.mu.Unlock()

		timer := t.clock.Timer(wait)
		select {
		case <-timer.C:
		case <-t.wake:
			timer.Stop()
		}

		t.mu.Lock()
		if t.exit {
			t.mu.Unlock()
			return
		}
		doMerge := t.timeout > 0
		t.timeout -= t.sleepPeriod
		t.mu.Unlock()

		if doMerge {
			t.merger.Merge()
		}
	}
}

// Wakeup arms the thread for another wakeupPeriod of merging.
func (t *MergeThread) Wakeup() {
	t.setTimeout(t.wakeupPeriod)
}

// Stop asks the loop to exit and waits for it.
func (t *MergeThread) Stop() {
	t.mu.Lock()
	t.exit = true
	t.mu.Unlock()
	t.setTimeout(0)
	<-t.done
}

func (t *MergeThread) setTimeout(timeout time.Duration) {
	t.mu.Lock()
	t.timeout = timeout
	t.mu.Unlock()
	select {
	case t.wake <- struct{}{}:
	default:
	}
}
