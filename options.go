package tracering

import (
	"os"
	"path/filepath"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/tracering/tracering/model"
)

const (
	defaultMaxHistHeight = 10

	// merge thread periods
	threadSleepPeriod  = time.Second
	threadWakeupPeriod = 3 * time.Second
)

type options struct {
	clock  clock.Clock
	logger *zap.Logger

	pid         int
	processName string

	maxHistHeight int

	sleepPeriod  time.Duration
	wakeupPeriod time.Duration
}

type Option func(*options)

func defaultOptions() *options {
	return &options{
		clock:         clock.New(),
		logger:        zap.NewNop(),
		pid:           os.Getpid(),
		processName:   defaultProcessName(),
		maxHistHeight: defaultMaxHistHeight,
		sleepPeriod:   threadSleepPeriod,
		wakeupPeriod:  threadWakeupPeriod,
	}
}

func defaultProcessName() string {
	name := filepath.Base(os.Args[0])
	if len(name) > model.MaxProcessNameLen {
		name = name[:model.MaxProcessNameLen]
	}
	return name
}

// WithClock sets the monotonic clock used for timestamps and the merge
// thread timers.
func WithClock(c clock.Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// WithLogger sets the logger for off-hot-path diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func WithPID(pid int) Option {
	return func(o *options) {
		o.pid = pid
	}
}

func WithProcessName(name string) Option {
	return func(o *options) {
		o.processName = name
	}
}

// WithMaxHistHeight caps the height of rendered histogram columns.
func WithMaxHistHeight(height int) Option {
	return func(o *options) {
		o.maxHistHeight = height
	}
}

func WithSleepPeriod(d time.Duration) Option {
	return func(o *options) {
		o.sleepPeriod = d
	}
}

func WithWakeupPeriod(d time.Duration) Option {
	return func(o *options) {
		o.wakeupPeriod = d
	}
}

func buildOptions(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}
