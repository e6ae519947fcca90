package config

import (
	"testing"
	"time"
)

func TestApplyDefaults_Logging(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default log level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default log format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("Expected default log output 'stdout', got %q", cfg.Logging.Output)
	}
}

func TestApplyDefaults_Wire(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Wire.MaxFramePayload == 0 {
		t.Error("Expected default max_frame_payload to be non-zero")
	}
}

func TestApplyDefaults_Client(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Client.ReplyMaxWait != 5*time.Second {
		t.Errorf("Expected default reply_max_wait 5s, got %v", cfg.Client.ReplyMaxWait)
	}
}

func TestApplyDefaults_IOPump(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.IOPump.TickMin != time.Millisecond {
		t.Errorf("Expected default io_tick_min 1ms, got %v", cfg.IOPump.TickMin)
	}
	if cfg.IOPump.TickMax != 50*time.Millisecond {
		t.Errorf("Expected default io_tick_max 50ms, got %v", cfg.IOPump.TickMax)
	}
}

func TestApplyDefaults_Server(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Server.ListenAddr != ":9070" {
		t.Errorf("Expected default listen_addr ':9070', got %q", cfg.Server.ListenAddr)
	}
	if cfg.Server.OutboundHighWaterMark == 0 {
		t.Error("Expected default outbound_hwm to be non-zero")
	}
	if cfg.Server.OutboundLowWaterMark == 0 {
		t.Error("Expected default outbound_lwm to be non-zero")
	}
	if cfg.Server.OutboundLowWaterMark >= cfg.Server.OutboundHighWaterMark {
		t.Errorf("Expected outbound_lwm (%v) < outbound_hwm (%v)", cfg.Server.OutboundLowWaterMark, cfg.Server.OutboundHighWaterMark)
	}
	if cfg.Server.MaxRequestsPerConnection != 64 {
		t.Errorf("Expected default max_requests_per_connection 64, got %d", cfg.Server.MaxRequestsPerConnection)
	}
}

func TestApplyDefaults_Metrics(t *testing.T) {
	cfg := &Config{}
	cfg.Metrics.Enabled = true
	ApplyDefaults(cfg)

	if cfg.Metrics.Port != 9090 {
		t.Errorf("Expected default metrics port 9090 when enabled, got %d", cfg.Metrics.Port)
	}
}

func TestApplyDefaults_MetricsDisabledLeavesPortZero(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Metrics.Port != 0 {
		t.Errorf("Expected metrics port to stay 0 when disabled, got %d", cfg.Metrics.Port)
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{
		Logging: LoggingConfig{
			Level:  "DEBUG",
			Format: "json",
			Output: "/var/log/r5lrpc.log",
		},
		Client: ClientConfig{
			ReplyMaxWait: 60 * time.Second,
		},
		Server: ServerConfig{
			ListenAddr: ":7000",
		},
	}

	ApplyDefaults(cfg)

	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Expected explicit level 'DEBUG' to be preserved, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Expected explicit format 'json' to be preserved, got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "/var/log/r5lrpc.log" {
		t.Errorf("Expected explicit output to be preserved, got %q", cfg.Logging.Output)
	}
	if cfg.Client.ReplyMaxWait != 60*time.Second {
		t.Errorf("Expected explicit reply_max_wait to be preserved, got %v", cfg.Client.ReplyMaxWait)
	}
	if cfg.Server.ListenAddr != ":7000" {
		t.Errorf("Expected explicit listen_addr to be preserved, got %q", cfg.Server.ListenAddr)
	}
}

func TestGetDefaultConfig_IsValid(t *testing.T) {
	cfg := GetDefaultConfig()

	err := Validate(cfg)
	if err != nil {
		t.Errorf("Default config should be valid, got error: %v", err)
	}
}

func TestGetDefaultConfig_HasRequiredFields(t *testing.T) {
	cfg := GetDefaultConfig()

	if cfg.Logging.Level == "" {
		t.Error("Default config missing logging level")
	}
	if cfg.Server.ListenAddr == "" {
		t.Error("Default config missing listen address")
	}
	if cfg.Wire.MaxFramePayload == 0 {
		t.Error("Default config missing max frame payload")
	}
	if cfg.Client.ReplyMaxWait == 0 {
		t.Error("Default config missing reply max wait")
	}
}
