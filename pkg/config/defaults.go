package config

import (
	"strings"
	"time"

	"github.com/matteobertozzi/r5lrpc/internal/bufpool"
	"github.com/matteobertozzi/r5lrpc/internal/bytesize"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// This function is called after loading configuration from file and environment
// variables to fill in any missing values with sensible defaults.
//
// Default Strategy:
//   - Zero values (0, "", false, nil) are replaced with defaults
//   - Explicit values are preserved
func ApplyDefaults(cfg *Config) {
	applyWireDefaults(&cfg.Wire)
	applyClientDefaults(&cfg.Client)
	applyIOPumpDefaults(&cfg.IOPump)
	applyServerDefaults(&cfg.Server)
	applyLoggingDefaults(&cfg.Logging)
	applyMetricsDefaults(&cfg.Metrics)
}

// applyWireDefaults sets frame-envelope defaults.
func applyWireDefaults(cfg *WireConfig) {
	if cfg.MaxFramePayload == 0 {
		cfg.MaxFramePayload = bytesize.ByteSize(bufpool.DefaultLargeSize)
	}
}

// applyClientDefaults sets client-dispatcher defaults.
// The 5s figure carries forward the original IPC client's REPLY_MAX_WAIT.
func applyClientDefaults(cfg *ClientConfig) {
	if cfg.ReplyMaxWait == 0 {
		cfg.ReplyMaxWait = 5 * time.Second
	}
}

// applyIOPumpDefaults sets readiness-loop backoff defaults.
func applyIOPumpDefaults(cfg *IOPumpConfig) {
	if cfg.TickMin == 0 {
		cfg.TickMin = time.Millisecond
	}
	if cfg.TickMax == 0 {
		cfg.TickMax = 50 * time.Millisecond
	}
}

// applyServerDefaults sets connection-acceptance and backpressure defaults.
func applyServerDefaults(cfg *ServerConfig) {
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":9070"
	}
	if cfg.OutboundHighWaterMark == 0 {
		cfg.OutboundHighWaterMark = bytesize.ByteSize(16 * bytesize.MiB)
	}
	if cfg.OutboundLowWaterMark == 0 {
		cfg.OutboundLowWaterMark = bytesize.ByteSize(4 * bytesize.MiB)
	}
	if cfg.MaxRequestsPerConnection == 0 {
		cfg.MaxRequestsPerConnection = 64
	}
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// applyMetricsDefaults sets metrics defaults.
func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Enabled && cfg.Port == 0 {
		cfg.Port = 9090
	}
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for generating sample configuration files, tests, and docs.
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
