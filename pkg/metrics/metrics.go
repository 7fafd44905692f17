// Package metrics exposes prometheus collectors for stele components.
//
// Components declare their metrics with the shared types of this package
// (IOMetrics, UsageMetrics, EventMetrics), which register lazily with
// a package-level registry.
package metrics

import (
	"errors"
	"sync"

	"github.com/docker/go-units"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	// KB stands for kilo bytes (1024 bytes)
	KB = units.KiB

	// MB stands for mega bytes (1024 kilo bytes)
	MB = units.MiB

	defaultNamespace = "stele"
)

var (
	// global settings for metrics
	mp       *settings
	initOnce sync.Once
)

type settings struct {
	namespace         string
	registry          *prometheus.Registry
	processCollectors bool
}

func defaultSettings() *settings {
	return &settings{
		namespace: defaultNamespace,
	}
}

func newSettings(opts ...Option) *settings {
	s := defaultSettings()
	for _, apply := range opts {
		apply(s)
	}
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
	}
	if s.processCollectors {
		ensure(s.registry, collectors.NewGoCollector())
		ensure(s.registry, collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	return s
}

func ensure[T prometheus.Collector](registry *prometheus.Registry, c T) T {
	err := registry.Register(c)
	if err == nil {
		return c
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(T); ok {
			return existing
		}
	}
	panic(err)
}

func namespace() string {
	Init()
	return mp.namespace
}

// sizeBuckets span object sizes from 1KB to 1GB
func sizeBuckets() []float64 {
	return prometheus.ExponentialBuckets(KB, 4, 11)
}
