package metrics

import "github.com/prometheus/client_golang/prometheus"

// Option for metrics settings
type Option func(*settings)

// WithNamespace sets the namespace prefixing all metric names. Defaults to "stele".
func WithNamespace(namespace string) Option {
	return func(s *settings) {
		if namespace != "" {
			s.namespace = namespace
		}
	}
}

// WithRegistry registers collectors with a given registry instead of a fresh one
func WithRegistry(registry *prometheus.Registry) Option {
	return func(s *settings) {
		if registry != nil {
			s.registry = registry
		}
	}
}

// WithProcessCollectors adds the go runtime and process collectors to the registry
func WithProcessCollectors(enabled bool) Option {
	return func(s *settings) {
		s.processCollectors = enabled
	}
}
