package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// IOMetrics is a common set of metrics reporting about IO activity
type IOMetrics struct {
	Count    *prometheus.CounterVec
	Failures *prometheus.CounterVec
	Timing   *prometheus.HistogramVec
	IOSize   *prometheus.HistogramVec
}

// NewIOMetrics registers IO metrics for some subsystem, with labels "kind" and "operation"
func NewIOMetrics(subsystem string) *IOMetrics {
	labels := []string{"kind", "operation"}
	return &IOMetrics{
		Count: EnsureCollector(prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace(),
			Subsystem: subsystem,
			Name:      "io_total",
			Help:      "number of IO requests",
		}, labels)),
		Failures: EnsureCollector(prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace(),
			Subsystem: subsystem,
			Name:      "io_failures_total",
			Help:      "number of failed IOs",
		}, labels)),
		Timing: EnsureCollector(prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace(),
			Subsystem: subsystem,
			Name:      "io_duration_seconds",
			Help:      "response time in seconds",
			Buckets:   prometheus.DefBuckets,
		}, labels)),
		IOSize: EnsureCollector(prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace(),
			Subsystem: subsystem,
			Name:      "io_size_bytes",
			Help:      "IO size in bytes",
			Buckets:   sizeBuckets(),
		}, labels)),
	}
}

// Size records the size of some IO operation. Zero sizes are not recorded.
func (n *IOMetrics) Size(kind, operation string, size int64) {
	if size == 0 {
		return
	}
	n.IOSize.WithLabelValues(kind, operation).Observe(float64(size))
}

// IORecord records all metrics for an IO operation in one go.
//
// Example with deferred error capture:
//
//	var myIOMetrics = metrics.NewIOMetrics("mine")
//
//	func (m *myType) MyInstrumentedFunc() (err error) {
//	  var size int64
//
//	  defer func(start time.Time) {
//	    myIOMetrics.IORecord(start, "file", "read")(size, err)
//	  }(time.Now())
//	  ...
//	  size, err = doSomeWork()
//	  return
//	}
func (n *IOMetrics) IORecord(start time.Time, kind, operation string) func(int64, error) {
	return func(size int64, err error) {
		n.Timing.WithLabelValues(kind, operation).Observe(time.Since(start).Seconds())
		n.Count.WithLabelValues(kind, operation).Inc()
		n.Size(kind, operation, size)
		if err != nil {
			n.Failures.WithLabelValues(kind, operation).Inc()
		}
	}
}

// UsageMetrics is a common set of metrics reporting about usage
type UsageMetrics struct {
	Count    *prometheus.CounterVec
	Failures *prometheus.CounterVec
	Timing   *prometheus.HistogramVec
}

// NewUsageMetrics registers usage metrics for some subsystem, with label "method"
func NewUsageMetrics(subsystem string) *UsageMetrics {
	labels := []string{"method"}
	return &UsageMetrics{
		Count: EnsureCollector(prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace(),
			Subsystem: subsystem,
			Name:      "calls_total",
			Help:      "number of calls",
		}, labels)),
		Failures: EnsureCollector(prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace(),
			Subsystem: subsystem,
			Name:      "failures_total",
			Help:      "number of failed calls",
		}, labels)),
		Timing: EnsureCollector(prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace(),
			Subsystem: subsystem,
			Name:      "duration_seconds",
			Help:      "duration of a call",
			Buckets:   prometheus.DefBuckets,
		}, labels)),
	}
}

// Inc records the usage of some method, without timings or failure reporting
func (u *UsageMetrics) Inc(method string) {
	u.Count.WithLabelValues(method).Inc()
}

// Used records usage of some instrumented entry point.
//
// Example:
//
//	func (m *myType) MyInstrumentedFunc() (err error) {
//	  defer myUsageMetrics.Used(time.Now(), "MyInstrumentedFunc")(err)
//	  ...
//	}
func (u *UsageMetrics) Used(start time.Time, method string) func(error) {
	return func(err error) {
		u.Timing.WithLabelValues(method).Observe(time.Since(start).Seconds())
		u.Count.WithLabelValues(method).Inc()
		if err != nil {
			u.Failures.WithLabelValues(method).Inc()
		}
	}
}

// EventMetrics counts discrete events by name
type EventMetrics struct {
	Count *prometheus.CounterVec
}

// NewEventMetrics registers an event counter for some subsystem, with label "event"
func NewEventMetrics(subsystem string) *EventMetrics {
	return &EventMetrics{
		Count: EnsureCollector(prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace(),
			Subsystem: subsystem,
			Name:      "events_total",
			Help:      "number of recorded events",
		}, []string{"event"})),
	}
}

// Inc counts one event
func (e *EventMetrics) Inc(event string) {
	e.Count.WithLabelValues(event).Inc()
}
