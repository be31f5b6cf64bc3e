package sharedcomp

import (
	"log/slog"

	"github.com/hupe1980/sharedcomp/internal/slot"
)

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	initialCapacity  int
	maxSlots         int
	eagerTables      bool
}

// Option configures a Store.
type Option func(*options)

// WithLogger sets the logger. If nil is passed, logging is disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithLogLevel installs a text logger at the given level.
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector sets the metrics sink. If nil is passed, metrics are discarded.
func WithMetricsCollector(m MetricsCollector) Option {
	return func(o *options) {
		if m == nil {
			m = NoopMetricsCollector{}
		}
		o.metricsCollector = m
	}
}

// WithInitialCapacity sets the slot capacity a type's table starts with.
// Values below 1 keep the default.
func WithInitialCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.initialCapacity = n
		}
	}
}

// WithMaxSlotsPerType caps the number of slots per type. Inserting a new
// distinct value into a full table returns ErrCapacityExceeded.
// Values below 1 keep the default, which is the full 32-bit slot space.
func WithMaxSlotsPerType(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxSlots = n
		}
	}
}

// WithEagerTables allocates a slot table for every type registered at
// construction time instead of on first insert.
func WithEagerTables() Option {
	return func(o *options) {
		o.eagerTables = true
	}
}

func applyOptions(opts []Option) options {
	o := options{
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
		initialCapacity:  slot.DefaultCapacity,
	}
	for _, fn := range opts {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
