// Package promstats exports store events as Prometheus metrics.
package promstats

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/sharedcomp"
)

// Collector implements sharedcomp.MetricsCollector on Prometheus counters,
// gauges and histograms. One Collector may be shared by several stores.
type Collector struct {
	inserts           *prometheus.CounterVec
	removes           *prometheus.CounterVec
	grows             *prometheus.CounterVec
	capacity          *prometheus.GaugeVec
	transplants       *prometheus.CounterVec
	transplantValues  prometheus.Counter
	transplantSeconds prometheus.Histogram
}

var _ sharedcomp.MetricsCollector = (*Collector)(nil)

type options struct {
	namespace   string
	constLabels prometheus.Labels
	buckets     []float64
}

// Option configures a Collector.
type Option func(*options)

// WithNamespace prefixes every metric name. Default: "sharedcomp".
func WithNamespace(ns string) Option {
	return func(o *options) {
		o.namespace = ns
	}
}

// WithConstLabels attaches fixed labels to every metric, e.g. the world name
// when several stores report to one registry.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(o *options) {
		o.constLabels = labels
	}
}

// WithTransplantBuckets overrides the transplant duration buckets (seconds).
func WithTransplantBuckets(buckets []float64) Option {
	return func(o *options) {
		o.buckets = buckets
	}
}

// New creates a Collector and registers its metrics with reg.
func New(reg prometheus.Registerer, opts ...Option) (*Collector, error) {
	o := options{
		namespace: "sharedcomp",
		buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
	}
	for _, fn := range opts {
		fn(&o)
	}

	c := &Collector{
		inserts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   o.namespace,
			Name:        "inserts_total",
			Help:        "Non-default inserts, by type and whether an existing value absorbed them.",
			ConstLabels: o.constLabels,
		}, []string{"type", "result"}),
		removes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   o.namespace,
			Name:        "removes_total",
			Help:        "Reference releases, by type and whether the value was freed.",
			ConstLabels: o.constLabels,
		}, []string{"type", "result"}),
		grows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   o.namespace,
			Name:        "table_grows_total",
			Help:        "Slot table growths, by type.",
			ConstLabels: o.constLabels,
		}, []string{"type"}),
		capacity: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   o.namespace,
			Name:        "table_capacity_slots",
			Help:        "Slot table capacity after the last growth, by type.",
			ConstLabels: o.constLabels,
		}, []string{"type"}),
		transplants: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   o.namespace,
			Name:        "transplants_total",
			Help:        "Store transplants, by result.",
			ConstLabels: o.constLabels,
		}, []string{"result"}),
		transplantValues: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   o.namespace,
			Name:        "transplanted_values_total",
			Help:        "Distinct values moved by successful transplants.",
			ConstLabels: o.constLabels,
		}),
		transplantSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   o.namespace,
			Name:        "transplant_duration_seconds",
			Help:        "Transplant duration.",
			ConstLabels: o.constLabels,
			Buckets:     o.buckets,
		}),
	}

	var errs []error
	for _, m := range []prometheus.Collector{
		c.inserts, c.removes, c.grows, c.capacity,
		c.transplants, c.transplantValues, c.transplantSeconds,
	} {
		if err := reg.Register(m); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return c, nil
}

// MustNew is like New but panics on registration errors.
func MustNew(reg prometheus.Registerer, opts ...Option) *Collector {
	c, err := New(reg, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

func result(flag bool, yes, no string) string {
	if flag {
		return yes
	}
	return no
}

// RecordInsert implements sharedcomp.MetricsCollector.
func (c *Collector) RecordInsert(typeName string, deduplicated bool) {
	c.inserts.WithLabelValues(typeName, result(deduplicated, "dedup", "new")).Inc()
}

// RecordRemove implements sharedcomp.MetricsCollector.
func (c *Collector) RecordRemove(typeName string, freed bool) {
	c.removes.WithLabelValues(typeName, result(freed, "freed", "kept")).Inc()
}

// RecordGrow implements sharedcomp.MetricsCollector.
func (c *Collector) RecordGrow(typeName string, capacity int) {
	c.grows.WithLabelValues(typeName).Inc()
	c.capacity.WithLabelValues(typeName).Set(float64(capacity))
}

// RecordTransplant implements sharedcomp.MetricsCollector.
func (c *Collector) RecordTransplant(values int, d time.Duration, err error) {
	if err != nil {
		c.transplants.WithLabelValues("error").Inc()
		return
	}
	c.transplants.WithLabelValues("ok").Inc()
	c.transplantValues.Add(float64(values))
	c.transplantSeconds.Observe(d.Seconds())
}
