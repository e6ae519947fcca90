// Package metrics provides the optional Prometheus registry used by the
// wire codec, client dispatcher, and server dispatch pipeline.
//
// Metrics collection is entirely optional: every collector constructor
// returns nil when InitRegistry has not been called, and every recording
// function is nil-safe, so callers can pass a possibly-nil metrics
// implementation through without branching on whether metrics are enabled.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	mu       sync.RWMutex
	registry *prometheus.Registry
	enabled  bool
)

// InitRegistry creates and installs the process-wide Prometheus registry.
// Call this once during startup before constructing any metrics collectors.
func InitRegistry() *prometheus.Registry {
	mu.Lock()
	defer mu.Unlock()

	registry = prometheus.NewRegistry()
	enabled = true
	return registry
}

// IsEnabled reports whether InitRegistry has been called.
func IsEnabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return enabled
}

// GetRegistry returns the process-wide registry, initializing it on first
// use if InitRegistry was not called explicitly.
func GetRegistry() *prometheus.Registry {
	mu.RLock()
	if registry != nil {
		defer mu.RUnlock()
		return registry
	}
	mu.RUnlock()
	return InitRegistry()
}
