package larray

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like
// Prometheus.
type MetricsCollector interface {
	// RecordIndex is called after each lazy indexing step.
	RecordIndex(err error)

	// RecordLoad is called after each materialization. elements is the number
	// of elements produced, duration the total time taken, err nil on
	// success.
	RecordLoad(elements int, duration time.Duration, err error)

	// RecordSet is called after each write.
	RecordSet(duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordIndex(error)                    {}
func (NoopMetricsCollector) RecordLoad(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordSet(time.Duration, error)       {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	IndexCount     atomic.Int64
	IndexErrors    atomic.Int64
	LoadCount      atomic.Int64
	LoadErrors     atomic.Int64
	LoadElements   atomic.Int64
	LoadTotalNanos atomic.Int64
	SetCount       atomic.Int64
	SetErrors      atomic.Int64
	SetTotalNanos  atomic.Int64
}

// RecordIndex implements MetricsCollector.
func (b *BasicMetricsCollector) RecordIndex(err error) {
	b.IndexCount.Add(1)
	if err != nil {
		b.IndexErrors.Add(1)
	}
}

// RecordLoad implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLoad(elements int, duration time.Duration, err error) {
	b.LoadCount.Add(1)
	b.LoadTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.LoadErrors.Add(1)
		return
	}
	b.LoadElements.Add(int64(elements))
}

// RecordSet implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSet(duration time.Duration, err error) {
	b.SetCount.Add(1)
	b.SetTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SetErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		IndexCount:   b.IndexCount.Load(),
		IndexErrors:  b.IndexErrors.Load(),
		LoadCount:    b.LoadCount.Load(),
		LoadErrors:   b.LoadErrors.Load(),
		LoadElements: b.LoadElements.Load(),
		LoadAvgNanos: b.getAvgLoadNanos(),
		SetCount:     b.SetCount.Load(),
		SetErrors:    b.SetErrors.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgLoadNanos() int64 {
	count := b.LoadCount.Load()
	if count == 0 {
		return 0
	}
	return b.LoadTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	IndexCount   int64
	IndexErrors  int64
	LoadCount    int64
	LoadErrors   int64
	LoadElements int64
	LoadAvgNanos int64
	SetCount     int64
	SetErrors    int64
}
