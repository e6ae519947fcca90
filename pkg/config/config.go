package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/matteobertozzi/r5lrpc/internal/bytesize"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config represents the r5lrpc configuration.
//
// This structure captures every static configuration aspect of the wire
// codec, client dispatcher, I/O pump, server, logging and metrics layers.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (R5LRPC_*) (highest priority)
//  2. Configuration file (YAML)
//  3. Default values (lowest priority)
//
// No command-line flag overrides a configuration value; see Load for
// when environment variables are applied.
type Config struct {
	// Wire controls frame-envelope limits shared by client and server.
	Wire WireConfig `mapstructure:"wire" yaml:"wire"`

	// Client controls the RPC client dispatcher.
	Client ClientConfig `mapstructure:"client" yaml:"client"`

	// IOPump controls the cooperative single-threaded readiness loop.
	IOPump IOPumpConfig `mapstructure:"io_pump" yaml:"io_pump"`

	// Server controls connection acceptance and backpressure.
	Server ServerConfig `mapstructure:"server" yaml:"server"`

	// Logging controls log output behavior.
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Metrics contains Prometheus metrics server configuration.
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// WireConfig bounds the size of a single frame payload.
type WireConfig struct {
	// MaxFramePayload is the largest payload accepted in a single frame.
	// The envelope's 3-byte length field caps this at 2^24-1 regardless.
	// Default: 1MiB
	MaxFramePayload bytesize.ByteSize `mapstructure:"max_frame_payload" validate:"required,gt=0" yaml:"max_frame_payload"`
}

// ClientConfig controls the correlation-map dispatcher on the client side.
type ClientConfig struct {
	// ReplyMaxWait is how long a client call waits for a correlated reply
	// before the timeout sweep cancels it.
	// Default: 5s
	ReplyMaxWait time.Duration `mapstructure:"reply_max_wait" validate:"required,gt=0" yaml:"reply_max_wait"`
}

// IOPumpConfig controls the cooperative readiness-poll loop.
type IOPumpConfig struct {
	// TickMin is the shortest backoff between readiness polls when work
	// was found on the previous tick.
	// Default: 1ms
	TickMin time.Duration `mapstructure:"io_tick_min" yaml:"io_tick_min"`

	// TickMax is the longest backoff between readiness polls when the
	// pump has been idle.
	// Default: 50ms
	TickMax time.Duration `mapstructure:"io_tick_max" yaml:"io_tick_max"`
}

// ServerConfig controls connection acceptance, backpressure, and
// per-connection concurrency on the server side.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on.
	// Default: ":9070"
	ListenAddr string `mapstructure:"listen_addr" validate:"required" yaml:"listen_addr"`

	// OutboundHighWaterMark pauses accepting new inline work once the
	// outbound buffer backlog exceeds this size.
	// Default: 16MiB
	OutboundHighWaterMark bytesize.ByteSize `mapstructure:"outbound_hwm" yaml:"outbound_hwm"`

	// OutboundLowWaterMark resumes accepting new inline work once the
	// outbound buffer backlog drops back below this size.
	// Default: 4MiB
	OutboundLowWaterMark bytesize.ByteSize `mapstructure:"outbound_lwm" yaml:"outbound_lwm"`

	// MaxRequestsPerConnection limits concurrent in-flight async tasks
	// per connection.
	// Default: 64
	MaxRequestsPerConnection int `mapstructure:"max_requests_per_connection" validate:"gt=0" yaml:"max_requests_per_connection"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output.
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format specifies the log output format.
	// Valid values: text, json
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output specifies where logs are written.
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// MetricsConfig configures the Prometheus metrics HTTP server.
type MetricsConfig struct {
	// Enabled controls whether metrics collection and HTTP server are enabled.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port is the HTTP port for the metrics endpoint.
	// Default: 9090
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (R5LRPC_*)
//  2. Configuration file
//  3. Default values
//
// When no configuration file is found, Load returns the compiled-in
// defaults unchanged; environment variables are not applied in that case.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	configFileFound, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	if !configFileFound {
		cfg := GetDefaultConfig()
		return cfg, nil
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration with helpful error messages.
func MustLoad(configPath string) (*Config, error) {
	if configPath == "" {
		if !DefaultConfigExists() {
			return nil, fmt.Errorf("no configuration file found at default location: %s\n\n"+
				"Please initialize a configuration file first:\n"+
				"  r5lrpcd init\n\n"+
				"Or specify a custom config file:\n"+
				"  r5lrpcd <command> --config /path/to/config.yaml",
				GetDefaultConfigPath())
		}
		configPath = GetDefaultConfigPath()
	} else {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s", configPath)
		}
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to the specified file path.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate runs struct-tag validation over the configuration using
// go-playground/validator.
func Validate(cfg *Config) error {
	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return err
	}
	return nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("R5LRPC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		configDir := getConfigDir()
		v.AddConfigPath(configDir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists.
// Returns (fileFound, error) where fileFound indicates if a config file was found.
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}

	return true, nil
}

// configDecodeHooks returns a combined decode hook for all custom types.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		byteSizeDecodeHook(),
		durationDecodeHook(),
	)
}

// byteSizeDecodeHook returns a mapstructure decode hook that converts
// strings and integers to bytesize.ByteSize, so config files can use
// human-readable sizes like "1Gi", "500Mi", "100MB".
func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(bytesize.ByteSize(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return bytesize.ParseByteSize(v)
		case int:
			return bytesize.ByteSize(v), nil
		case int64:
			return bytesize.ByteSize(v), nil
		case uint64:
			return bytesize.ByteSize(v), nil
		case float64:
			return bytesize.ByteSize(v), nil
		default:
			return data, nil
		}
	}
}

// durationDecodeHook returns a mapstructure decode hook that converts
// strings to time.Duration, so config files can use "30s", "5m", "1h".
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir returns the configuration directory path.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "r5lrpc")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "r5lrpc")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists checks if a config file exists at the default location.
func DefaultConfigExists() bool {
	path := GetDefaultConfigPath()
	_, err := os.Stat(path)
	return err == nil
}

// GetConfigDir returns the configuration directory path.
func GetConfigDir() string {
	return getConfigDir()
}
