package model

// Event identifies the kind of a single frame on the wire.
type Event uint8

const (
	EventReserved Event = iota // invalid sentinel, never written
	EventString
	EventTimestamp
	EventInteger
	EventFloat
	EventPID
	EventAuthor
	EventStartFmt
	EventHash
	EventEndFmt
	EventHistogramEntryTS
	EventHistogramFlush
	EventUpperBound // exclusive sentinel
)

// Valid reports whether e may appear in a frame written to a fifo.
func (e Event) Valid() bool {
	return e != EventReserved && e < EventUpperBound
}

// StartingTypes are the events a complete record can begin with.
// EndingTypes are the events a complete record can end with.
// The snapshot trim uses both to locate record boundaries when the
// copied region starts or ends mid-record.
var (
	StartingTypes = map[Event]bool{
		EventStartFmt:         true,
		EventHistogramEntryTS: true,
	}

	EndingTypes = map[Event]bool{
		EventEndFmt:           true,
		EventHistogramEntryTS: true,
		EventHistogramFlush:   true,
	}
)
