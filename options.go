package larray

import (
	"log/slog"

	"github.com/hupe1980/larray/blobstore"
)

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	memoryCache      bool
	copyOnWrite      bool
	fileLock         blobstore.Locker
}

// Option configures Array constructor behavior.
type Option func(*options)

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := larray.NewJSONLogger(slog.LevelInfo)
//	arr := larray.New(data, larray.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &larray.BasicMetricsCollector{}
//	arr := larray.New(data, larray.WithMetricsCollector(metrics))
//	// ... use arr ...
//	stats := metrics.GetStats()
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithMemoryCache caches the first materialization in memory; later reads
// are served from the cached copy without touching the backend again.
func WithMemoryCache() Option {
	return func(o *options) {
		o.memoryCache = true
	}
}

// WithCopyOnWrite defers copying until the first write, so arrays sharing a
// base stay isolated without paying for a copy up front.
func WithCopyOnWrite() Option {
	return func(o *options) {
		o.copyOnWrite = true
	}
}

// WithFileLock sets the lock held while file-backed arrays touch their blob.
// Use blobstore.NewFileLock for cross-process coordination.
func WithFileLock(l blobstore.Locker) Option {
	return func(o *options) {
		o.fileLock = l
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	return o
}
