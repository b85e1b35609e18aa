package tracering

import (
	"fmt"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/tracering/tracering/codec"
	"github.com/tracering/tracering/fifo"
	"github.com/tracering/tracering/model"
)

// Writer is the producer side of one event stream. It is used from
// exactly one goroutine; every logging operation is a single frame
// appended to the backing fifo, except LogFormat which brackets a
// frame sequence. On a nil fifo the writer is permanently disabled and
// every operation is a no-op.
type Writer struct {
	fifo    fifo.Fifo
	enabled bool

	clock  clock.Clock
	logger *zap.Logger

	// cached at construction: pid(4) + process name
	pidTag []byte
}

func NewWriter(f fifo.Fifo, opts ...Option) *Writer {
	o := buildOptions(opts)
	return &Writer{
		fifo:    f,
		enabled: f != nil,
		clock:   o.clock,
		logger:  o.logger,
		pidTag:  codec.PutPidTag(o.pid, o.processName),
	}
}

func (w *Writer) IsEnabled() bool {
	return w.enabled
}

// SetEnabled returns the previous state. Enabling a writer with no
// backing fifo leaves it disabled.
func (w *Writer) SetEnabled(enabled bool) bool {
	old := w.enabled
	w.enabled = enabled && w.fifo != nil
	return old
}

// Log emits one STRING frame, truncated to the max payload length.
func (w *Writer) Log(s string) {
	if !w.enabled {
		return
	}
	if len(s) > model.MaxLength {
		s = s[:model.MaxLength]
	}
	w.writeStringFrame(model.EventString, s)
}

// Logf renders the arguments with fmt and emits the result as one
// STRING frame. Not for the hard real-time path; Log is.
func (w *Writer) Logf(format string, args ...interface{}) {
	if !w.enabled {
		return
	}
	w.Log(fmt.Sprintf(format, args...))
}

// LogTimestamp reads the monotonic clock and emits a TIMESTAMP frame.
// On clock failure the frame is dropped.
func (w *Writer) LogTimestamp() {
	if !w.enabled {
		return
	}
	ts, ok := w.now()
	if !ok {
		return
	}
	w.LogTimestampAt(ts)
}

// LogTimestampAt emits a TIMESTAMP frame with a caller-supplied time.
func (w *Writer) LogTimestampAt(ts model.Timespec) {
	if !w.enabled {
		return
	}
	var p [model.TimespecSize]byte
	codec.PutTimespec(p[:], ts)
	w.logEvent(model.EventTimestamp, p[:])
}

func (w *Writer) LogInteger(x int) {
	if !w.enabled {
		return
	}
	var p [model.IntSize]byte
	codec.PutInt(p[:], int32(x))
	w.logEvent(model.EventInteger, p[:])
}

func (w *Writer) LogFloat(x float32) {
	if !w.enabled {
		return
	}
	var p [model.FloatSize]byte
	codec.PutFloat(p[:], x)
	w.logEvent(model.EventFloat, p[:])
}

// LogPID emits the pid and process name cached at construction.
func (w *Writer) LogPID() {
	if !w.enabled {
		return
	}
	w.logEvent(model.EventPID, w.pidTag)
}

func (w *Writer) LogHash(hash uint64) {
	if !w.enabled {
		return
	}
	var p [model.HashSize]byte
	codec.PutHash(p[:], hash)
	w.logEvent(model.EventHash, p[:])
}

// LogHistTS emits one histogram timestamp sample for hash.
func (w *Writer) LogHistTS(hash uint64) {
	w.logHist(model.EventHistogramEntryTS, hash)
}

// LogHistFlush signals that accumulated samples for hash should be
// rendered at the next dump.
func (w *Writer) LogHistFlush(hash uint64) {
	w.logHist(model.EventHistogramFlush, hash)
}

func (w *Writer) logHist(event model.Event, hash uint64) {
	if !w.enabled {
		return
	}
	ts, ok := w.now()
	if !ok {
		return
	}
	var p [model.HistTsSize]byte
	codec.PutHistTs(p[:], model.HistTs{Hash: hash, TS: ts})
	w.logEvent(event, p[:])
}

// LogStart opens a formatted record with the format string, truncated
// to the max payload length.
func (w *Writer) LogStart(format string) {
	if !w.enabled {
		return
	}
	if len(format) > model.MaxLength {
		format = format[:model.MaxLength]
	}
	w.writeStringFrame(model.EventStartFmt, format)
}

// LogEnd closes a formatted record.
func (w *Writer) LogEnd() {
	if !w.enabled {
		return
	}
	w.writeFrame(model.EventEndFmt, nil)
}

// LogFormat emits a complete formatted record: START_FMT, TIMESTAMP,
// HASH, one frame per format specifier, END_FMT.
//
// Specifiers: %s string, %t model.Timespec, %d int, %f float
// (float64 or float32), %p pid (consumes no argument), %% literal.
// A mismatched argument emits the specifier's zero value; an unknown
// specifier emits nothing.
func (w *Writer) LogFormat(format string, hash uint64, args ...interface{}) {
	if !w.enabled {
		return
	}
	w.LogStart(format)
	w.LogTimestamp()
	w.LogHash(hash)

	arg := 0
	next := func() interface{} {
		if arg < len(args) {
			a := args[arg]
			arg++
			return a
		}
		return nil
	}

	for i := 0; i < len(format); i++ {
		if format[i] != '%' {
			continue
		}
		i++
		if i == len(format) {
			// "%" at end of format finishes the scan
			break
		}
		switch format[i] {
		case 's':
			s, _ := next().(string)
			w.Log(s)
		case 't':
			ts, _ := next().(model.Timespec)
			w.LogTimestampAt(ts)
		case 'd':
			switch x := next().(type) {
			case int:
				w.LogInteger(x)
			case int32:
				w.LogInteger(int(x))
			case int64:
				w.LogInteger(int(x))
			default:
				w.LogInteger(0)
			}
		case 'f':
			switch x := next().(type) {
			case float64:
				w.LogFloat(float32(x))
			case float32:
				w.LogFloat(x)
			default:
				w.LogFloat(0)
			}
		case 'p':
			w.LogPID()
		case '%':
		default:
			w.logger.Warn("writer parsed invalid format specifier",
				zap.String("specifier", format[i:i+1]))
		}
	}
	w.LogEnd()
}

func (w *Writer) now() (model.Timespec, bool) {
	if w.clock == nil {
		w.logger.Error("failed to get timestamp: no clock")
		return model.Timespec{}, false
	}
	return model.TimespecFromTime(w.clock.Now()), true
}

// logEvent validates and writes one frame. Invalid event tags, nil
// payloads and oversized payloads drop silently.
func (w *Writer) logEvent(event model.Event, payload []byte) {
	if !w.enabled {
		return
	}
	if payload == nil || len(payload) > model.MaxLength {
		return
	}
	if !event.Valid() {
		return
	}
	w.writeFrame(event, payload)
}

// writeFrame assembles the frame in a stack buffer and commits it with
// a single fifo write, so the fifo publishes all of it or none of it.
func (w *Writer) writeFrame(event model.Event, payload []byte) {
	var frame [model.MaxFrameSize]byte
	n := len(payload)
	frame[0] = byte(event)
	frame[1] = byte(n)
	copy(frame[model.HeaderSize:], payload)
	frame[n+model.Overhead-1] = byte(n)
	w.fifo.Write(frame[:n+model.Overhead])
}

// writeStringFrame is writeFrame for string payloads, avoiding the
// []byte conversion on the hot path. The caller has truncated s.
func (w *Writer) writeStringFrame(event model.Event, s string) {
	var frame [model.MaxFrameSize]byte
	n := len(s)
	frame[0] = byte(event)
	frame[1] = byte(n)
	copy(frame[model.HeaderSize:], s)
	frame[n+model.Overhead-1] = byte(n)
	w.fifo.Write(frame[:n+model.Overhead])
}
