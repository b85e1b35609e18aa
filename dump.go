package tracering

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/tracering/tracering/codec"
	"github.com/tracering/tracering/model"
)

// Dump takes a snapshot and renders it to w, one line per record,
// left-padded by indent spaces.
func (r *Reader) Dump(w io.Writer, indent int) {
	r.DumpSnapshot(w, indent, r.GetSnapshot())
}

// DumpSnapshot renders an already-acquired snapshot.
func (r *Reader) DumpSnapshot(w io.Writer, indent int, snap *Snapshot) {
	d := &dumper{
		w:         w,
		indent:    indent,
		logger:    r.logger,
		maxHeight: r.maxHistHeight,
	}
	if r.nameTable != nil {
		d.names = r.nameTable()
	}
	d.dump(snap)
}

type histKey struct {
	hash   uint64
	author int
}

type dumper struct {
	w      io.Writer
	indent int
	logger *zap.Logger

	names     []string
	maxHeight int

	timestamp string
	body      strings.Builder
}

func (d *dumper) dump(snap *Snapshot) {
	// both the writer-induced overrun and the head bytes the trim had
	// to discard count as lost
	lost := snap.Lost() + snap.Begin().Sub(codec.NewIterator(snap.Data(), 0))
	if lost > 0 {
		fmt.Fprintf(&d.body, "warning: lost %d bytes worth of events", lost)
		d.line()
	}

	lastTs := make(map[histKey]model.Timespec)
	hists := make(map[histKey][]int)

	end := snap.End().Offset()
	for it := snap.Begin(); it.Offset() < end; {
		switch it.Event() {
		case model.EventStartFmt:
			entry, err := buildEntry(it, end)
			if err != nil {
				d.logger.Warn("skipping format record", zap.Error(err))
				d.body.WriteString("warning: unterminated format record")
				it = it.Next()
				break
			}
			it = d.handleFormat(entry.(FormatEntry))

		case model.EventHistogramEntryTS:
			h, err := codec.ParseHistAny(it.Payload())
			if err != nil {
				d.logger.Warn("malformed histogram payload", zap.Error(err))
				it = it.Next()
				break
			}
			key := histKey{hash: h.Hash, author: int(h.Author)}
			if prev, seen := lastTs[key]; seen {
				hists[key] = append(hists[key], model.DeltaMs(prev, h.TS))
			}
			lastTs[key] = h.TS
			it = it.Next()

		case model.EventHistogramFlush:
			d.body.WriteString("Histograms:\n")
			for _, key := range sortedHistKeys(hists) {
				fmt.Fprintf(&d.body, "Histogram %X - ", uint32(key.hash))
				if name := d.authorName(key.author); name != "" {
					fmt.Fprintf(&d.body, "%s: ", name)
				}
				d.drawHistogram(hists[key])
			}
			lastTs = make(map[histKey]model.Timespec)
			hists = make(map[histKey][]int)
			it = it.Next()

		case model.EventEndFmt:
			d.body.WriteString("warning: got to end format event")
			it = it.Next()

		case model.EventString:
			d.body.Write(it.Payload())
			it = it.Next()

		case model.EventTimestamp:
			// a standalone timestamp sets the line's timestamp column
			if ts, err := codec.ParseTimespec(it.Payload()); err == nil {
				d.timestamp = formatTimespec(ts)
			}
			it = it.Next()

		case model.EventInteger:
			d.appendInt(it.Payload())
			it = it.Next()

		case model.EventFloat:
			d.appendFloat(it.Payload())
			it = it.Next()

		case model.EventPID:
			d.appendPID(it.Payload())
			it = it.Next()

		default:
			fmt.Fprintf(&d.body, "warning: unexpected event %d", it.Event())
			it = it.Next()
		}

		if d.body.Len() > 0 {
			d.line()
		}
	}
}

// handleFormat walks one formatted record, interleaving literal format
// bytes and argument frames, and returns the iterator past END_FMT.
func (d *dumper) handleFormat(entry FormatEntry) codec.Iterator {
	d.timestamp = formatTimespec(entry.Timestamp())

	// compact call-site identifier: upper half hex, lower half decimal
	hash := entry.Hash()
	fmt.Fprintf(&d.body, "%.4X-%d ", (hash>>16)&0xFFFF, hash&0xFFFF)

	if name := d.authorName(entry.Author()); name != "" {
		fmt.Fprintf(&d.body, "%s: ", name)
	}

	arg := entry.Args()
	format := entry.FormatString()

	for i := 0; i < len(format); i++ {
		if format[i] != '%' {
			d.body.WriteByte(format[i])
			continue
		}
		i++
		if i == len(format) {
			continue
		}
		if format[i] == '%' {
			d.body.WriteByte('%')
			continue
		}

		event := arg.Event()
		if event == model.EventEndFmt {
			break
		}
		datum := arg.Payload()

		switch format[i] {
		case 's':
			d.warnMismatch(event, model.EventString, "string")
			d.body.Write(datum)
		case 't':
			d.warnMismatch(event, model.EventTimestamp, "timestamp")
			if ts, err := codec.ParseTimespec(datum); err == nil {
				d.body.WriteString(formatTimespec(ts))
			}
		case 'd':
			d.warnMismatch(event, model.EventInteger, "integer")
			d.appendInt(datum)
		case 'f':
			d.warnMismatch(event, model.EventFloat, "float")
			d.appendFloat(datum)
		case 'p':
			d.warnMismatch(event, model.EventPID, "pid")
			d.appendPID(datum)
		default:
			d.logger.Warn("reader encountered unknown format specifier",
				zap.String("specifier", string(format[i])))
		}
		arg = arg.Next()
	}

	if arg.Event() != model.EventEndFmt {
		d.logger.Warn("expected end of format",
			zap.Uint8("event", uint8(arg.Event())))
	}
	return arg.Next()
}

func (d *dumper) warnMismatch(got, want model.Event, specifier string) {
	if got != want {
		d.logger.Warn("reader incompatible event for specifier",
			zap.String("specifier", specifier),
			zap.Uint8("event", uint8(got)))
	}
}

func (d *dumper) authorName(author int) string {
	if author < 0 || author >= len(d.names) {
		return ""
	}
	return d.names[author]
}

func (d *dumper) appendInt(datum []byte) {
	if x, err := codec.ParseInt(datum); err == nil {
		fmt.Fprintf(&d.body, "<%d>", x)
	}
}

func (d *dumper) appendFloat(datum []byte) {
	if f, err := codec.ParseFloat(datum); err == nil {
		fmt.Fprintf(&d.body, "<%f>", f)
	}
}

func (d *dumper) appendPID(datum []byte) {
	if pid, name, err := codec.ParsePidTag(datum); err == nil {
		fmt.Fprintf(&d.body, "<PID: %d, name: %s>", pid, name)
	}
}

func formatTimespec(ts model.Timespec) string {
	return fmt.Sprintf("[%d.%03d]", ts.Sec, ts.Nsec/1000000)
}

func (d *dumper) line() {
	fmt.Fprintf(d.w, "%*s%s %s\n", d.indent, "", d.timestamp, d.body.String())
	d.body.Reset()
}

func sortedHistKeys(hists map[histKey][]int) []histKey {
	keys := make([]histKey, 0, len(hists))
	for key := range hists {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].hash != keys[j].hash {
			return keys[i].hash < keys[j].hash
		}
		return keys[i].author < keys[j].author
	})
	return keys
}

func widthOf(x int) int {
	width := 0
	for x > 0 {
		width++
		x /= 10
	}
	return width
}

// drawHistogram renders the samples as an ASCII column chart: a count
// row on top, bars, then the sample-value labels along the x axis.
// Columns taller than maxHeight are scaled down.
func (d *dumper) drawHistogram(samples []int) {
	if len(samples) == 0 {
		return
	}
	const underscores = "________________"
	const spaces = "                "

	buckets := make(map[int]int)
	for _, x := range samples {
		buckets[x]++
	}
	labels := make([]int, 0, len(buckets))
	for label := range buckets {
		labels = append(labels, label)
	}
	sort.Ints(labels)

	maxLabel, maxVal := labels[0], buckets[labels[0]]
	for _, label := range labels {
		if label > maxLabel {
			maxLabel = label
		}
		if buckets[label] > maxVal {
			maxVal = buckets[label]
		}
	}

	height := maxVal
	leftPadding := widthOf(maxVal)
	colWidth := widthOf(maxLabel) + 1
	if colWidth < 3 {
		colWidth = 3
	}
	if colWidth < leftPadding+2 {
		colWidth = leftPadding + 2
	}
	scalingFactor := 1
	if height > d.maxHeight {
		scalingFactor = (height + d.maxHeight) / d.maxHeight
		height /= scalingFactor
	}

	d.body.WriteByte('\n')
	fmt.Fprintf(&d.body, "%*s", leftPadding+2, " ")
	for _, label := range labels {
		fmt.Fprintf(&d.body, "[%*d]", colWidth-2, buckets[label])
	}
	d.body.WriteByte('\n')
	for row := height * scalingFactor; row > 0; row -= scalingFactor {
		fmt.Fprintf(&d.body, "%*d|", leftPadding, row)
		for _, label := range labels {
			pad := spaces
			bar := "  "
			if row == scalingFactor {
				pad = underscores
				bar = "__"
			}
			if buckets[label] >= row {
				bar = "[]"
			}
			fmt.Fprintf(&d.body, "%.*s%s", colWidth-2, pad, bar)
		}
		d.body.WriteByte('\n')
	}
	fmt.Fprintf(&d.body, "%*s", leftPadding+1, " ")
	for _, label := range labels {
		fmt.Fprintf(&d.body, "%*d", colWidth, label)
	}
	d.body.WriteByte('\n')
}
