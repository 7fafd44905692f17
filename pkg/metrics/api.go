package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Init global settings for metrics collection, such as the namespace and the registry.
//
// Init is used by any top-level package (such as the CLI driver), to define global
// settings.
//
// Init may be called multiple times: only the first time matters.
//
// Metrics may be registered at init time or later on.
func Init(opts ...Option) {
	initOnce.Do(func() {
		mp = newSettings(opts...)
	})
}

// Registry returns the prometheus registry all stele collectors are registered with
func Registry() *prometheus.Registry {
	Init()
	return mp.registry
}

// Handler exposes the registry for scraping
func Handler() http.Handler {
	Init()
	return promhttp.HandlerFor(mp.registry, promhttp.HandlerOpts{})
}

// EnsureCollector allows for lazy registration of collectors.
//
// It may safely be called several times: when a collector with the same description
// is already registered, the existing one is returned.
func EnsureCollector[T prometheus.Collector](c T) T {
	Init()
	return ensure(mp.registry, c)
}
