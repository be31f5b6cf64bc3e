package sharedcomp

import (
	"sync/atomic"
	"time"
)

// MetricsCollector receives store events. Implementations must be safe for
// concurrent use when several stores share one collector.
//
// See package promstats for a Prometheus implementation.
type MetricsCollector interface {
	// RecordInsert is called after each successful insert of a non-default value.
	// deduplicated is true when an existing slot absorbed the insert.
	RecordInsert(typeName string, deduplicated bool)

	// RecordRemove is called after each reference release.
	// freed is true when the last reference went away and the slot was recycled.
	RecordRemove(typeName string, freed bool)

	// RecordGrow is called when a type's slot table grows.
	RecordGrow(typeName string, capacity int)

	// RecordTransplant is called after each Transplant with the number of
	// distinct values moved.
	RecordTransplant(values int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordInsert(string, bool)                  {}
func (NoopMetricsCollector) RecordRemove(string, bool)                  {}
func (NoopMetricsCollector) RecordGrow(string, int)                     {}
func (NoopMetricsCollector) RecordTransplant(int, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory counters.
type BasicMetricsCollector struct {
	Inserts            atomic.Int64
	DedupHits          atomic.Int64
	Removes            atomic.Int64
	Frees              atomic.Int64
	Grows              atomic.Int64
	Transplants        atomic.Int64
	TransplantErrors   atomic.Int64
	TransplantedValues atomic.Int64
	TransplantNanos    atomic.Int64
}

// RecordInsert implements MetricsCollector.
func (b *BasicMetricsCollector) RecordInsert(_ string, deduplicated bool) {
	b.Inserts.Add(1)
	if deduplicated {
		b.DedupHits.Add(1)
	}
}

// RecordRemove implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRemove(_ string, freed bool) {
	b.Removes.Add(1)
	if freed {
		b.Frees.Add(1)
	}
}

// RecordGrow implements MetricsCollector.
func (b *BasicMetricsCollector) RecordGrow(string, int) {
	b.Grows.Add(1)
}

// RecordTransplant implements MetricsCollector.
func (b *BasicMetricsCollector) RecordTransplant(values int, duration time.Duration, err error) {
	b.Transplants.Add(1)
	b.TransplantNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.TransplantErrors.Add(1)
		return
	}
	b.TransplantedValues.Add(int64(values))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		Inserts:            b.Inserts.Load(),
		DedupHits:          b.DedupHits.Load(),
		Removes:            b.Removes.Load(),
		Frees:              b.Frees.Load(),
		Grows:              b.Grows.Load(),
		Transplants:        b.Transplants.Load(),
		TransplantErrors:   b.TransplantErrors.Load(),
		TransplantedValues: b.TransplantedValues.Load(),
		TransplantAvgNanos: b.avgTransplantNanos(),
	}
}

func (b *BasicMetricsCollector) avgTransplantNanos() int64 {
	count := b.Transplants.Load()
	if count == 0 {
		return 0
	}
	return b.TransplantNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	Inserts            int64
	DedupHits          int64
	Removes            int64
	Frees              int64
	Grows              int64
	Transplants        int64
	TransplantErrors   int64
	TransplantedValues int64
	TransplantAvgNanos int64
}
