package tracering

import (
	"sync"

	"github.com/tracering/tracering/fifo"
	"github.com/tracering/tracering/model"
)

// LockedWriter serializes a Writer across multiple producer goroutines
// with a mutex. A convenience wrapper, not part of the core contract;
// the lock covers the whole call, clock read included, so inter-record
// order under contention follows lock acquisition order.
type LockedWriter struct {
	mu sync.Mutex
	w  *Writer
}

func NewLockedWriter(f fifo.Fifo, opts ...Option) *LockedWriter {
	return &LockedWriter{w: NewWriter(f, opts...)}
}

func (lw *LockedWriter) Log(s string) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	lw.w.Log(s)
}

func (lw *LockedWriter) Logf(format string, args ...interface{}) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	lw.w.Logf(format, args...)
}

func (lw *LockedWriter) LogTimestamp() {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	lw.w.LogTimestamp()
}

func (lw *LockedWriter) LogTimestampAt(ts model.Timespec) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	lw.w.LogTimestampAt(ts)
}

func (lw *LockedWriter) LogInteger(x int) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	lw.w.LogInteger(x)
}

func (lw *LockedWriter) LogFloat(x float32) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	lw.w.LogFloat(x)
}

func (lw *LockedWriter) LogPID() {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	lw.w.LogPID()
}

func (lw *LockedWriter) LogHash(hash uint64) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	lw.w.LogHash(hash)
}

func (lw *LockedWriter) LogHistTS(hash uint64) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	lw.w.LogHistTS(hash)
}

func (lw *LockedWriter) LogHistFlush(hash uint64) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	lw.w.LogHistFlush(hash)
}

func (lw *LockedWriter) LogStart(format string) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	lw.w.LogStart(format)
}

func (lw *LockedWriter) LogEnd() {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	lw.w.LogEnd()
}

func (lw *LockedWriter) LogFormat(format string, hash uint64, args ...interface{}) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	lw.w.LogFormat(format, hash, args...)
}

func (lw *LockedWriter) IsEnabled() bool {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.w.IsEnabled()
}

func (lw *LockedWriter) SetEnabled(enabled bool) bool {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.w.SetEnabled(enabled)
}
