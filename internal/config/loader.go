package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/leslieo2/go-status-board/internal/constants"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration with precedence:
// 1. Explicit CLI flags (highest priority)
// 2. Environment variables
// 3. Configuration file values
// 4. Default configuration values (lowest priority)
func LoadConfig(configFile string, cliFlags *CLIFlags) (*Config, error) {
	// Start with default configuration
	config := DefaultConfig()

	// Layer the configuration file over the defaults
	if configFile != "" {
		if err := loadFromFile(configFile, config); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	// Load from environment variables
	loadFromEnv(config)

	// Override with explicitly set CLI flags
	if cliFlags != nil {
		overrideWithCLI(config, cliFlags)
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// CLIFlags contains CLI flag values that can override configuration.
// Only flags marked as changed in Set are applied.
type CLIFlags struct {
	Set *pflag.FlagSet

	Host              *string
	Port              *string
	MetricsPort       *string
	ReadTimeout       *time.Duration
	WriteTimeout      *time.Duration
	IdleTimeout       *time.Duration
	MaxRequestSize    *int64
	ShutdownTimeout   *time.Duration
	PollInterval      *time.Duration
	ProbeTimeout      *time.Duration
	StatusURL         *string
	LogLevel          *string
	RateLimitEnabled  *bool
	RateLimitRPS      *int
	HotReload         *bool
	HotReloadDebounce *time.Duration
	TLSEnabled        *bool
	TLSCertFile       *string
	TLSKeyFile        *string
}

// BindFlags registers the override flags on fs. Values are applied by
// LoadConfig only for flags that were set on the command line.
func BindFlags(fs *pflag.FlagSet) *CLIFlags {
	defaults := DefaultConfig()
	return &CLIFlags{
		Set:               fs,
		Host:              fs.String("host", defaults.Server.Host, "Host to bind the server to"),
		Port:              fs.String("port", defaults.Server.Port, "Port to serve the status board on"),
		MetricsPort:       fs.String("metrics-port", defaults.Server.MetricsPort, "Port for the metrics server"),
		ReadTimeout:       fs.Duration("read-timeout", defaults.Server.ReadTimeout, "HTTP read timeout"),
		WriteTimeout:      fs.Duration("write-timeout", defaults.Server.WriteTimeout, "HTTP write timeout"),
		IdleTimeout:       fs.Duration("idle-timeout", defaults.Server.IdleTimeout, "HTTP idle timeout"),
		MaxRequestSize:    fs.Int64("max-request-size", defaults.Server.MaxRequestSize, "Maximum request body size in bytes"),
		ShutdownTimeout:   fs.Duration("shutdown-timeout", defaults.Server.ShutdownTimeout, "Graceful shutdown timeout"),
		PollInterval:      fs.Duration("poll-interval", defaults.Monitor.Interval, "Interval between service probes"),
		ProbeTimeout:      fs.Duration("probe-timeout", defaults.Monitor.Timeout, "Timeout of a single probe"),
		StatusURL:         fs.String("status-url", defaults.Page.StatusURL, "Base URL the page reads /api/status from (default: this server)"),
		LogLevel:          fs.String("log-level", defaults.Observability.Logging.Level, "Log level (debug, info, warn, error)"),
		RateLimitEnabled:  fs.Bool("rate-limit-enabled", defaults.Security.RateLimit.Enabled, "Enable per-client rate limiting"),
		RateLimitRPS:      fs.Int("rate-limit-rps", defaults.Security.RateLimit.ByIP.RequestsPerSecond, "Requests per second allowed per client"),
		HotReload:         fs.Bool("hot-reload", defaults.HotReload.Enabled, "Reload the service list when the config file changes"),
		HotReloadDebounce: fs.Duration("hot-reload-debounce", defaults.HotReload.Debounce, "Debounce of config file change events"),
		TLSEnabled:        fs.Bool("tls-enabled", defaults.TLS.Enabled, "Serve over HTTPS"),
		TLSCertFile:       fs.String("tls-cert-file", defaults.TLS.CertFile, "TLS certificate file"),
		TLSKeyFile:        fs.String("tls-key-file", defaults.TLS.KeyFile, "TLS private key file"),
	}
}

// changed reports whether the named flag was set on the command line
func (f *CLIFlags) changed(name string) bool {
	if f.Set == nil {
		return false
	}
	return f.Set.Changed(name)
}

// loadFromFile decodes a YAML or JSON file over config
func loadFromFile(filePath string, config *Config) error {
	// Normalize path to absolute for consistency
	if !filepath.IsAbs(filePath) {
		absPath, err := filepath.Abs(filePath)
		if err != nil {
			return fmt.Errorf("failed to get absolute path for %s: %w", filePath, err)
		}
		filePath = absPath
	}

	// Validate file path to prevent directory traversal
	if err := validateFilePath(filePath); err != nil {
		return fmt.Errorf("invalid config file path %s: %w", filePath, err)
	}

	data, err := os.ReadFile(filePath) // #nosec G304 - file path validated by validateFilePath()
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", filePath, err)
	}

	ext := filepath.Ext(filePath)
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, config)
	case ".json":
		err = json.Unmarshal(data, config)
	default:
		return fmt.Errorf("unsupported config file format: %s", ext)
	}

	if err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", filePath, err)
	}

	return nil
}

// envBindings maps each environment variable onto the config field it sets.
// Values that fail to parse are ignored and the field keeps its value.
func envBindings(c *Config) map[string]func(string) error {
	return map[string]func(string) error{
		constants.EnvHost:              setString(&c.Server.Host),
		constants.EnvPort:              setString(&c.Server.Port),
		constants.EnvMetricsPort:       setString(&c.Server.MetricsPort),
		constants.EnvReadTimeout:       setDuration(&c.Server.ReadTimeout),
		constants.EnvWriteTimeout:      setDuration(&c.Server.WriteTimeout),
		constants.EnvIdleTimeout:       setDuration(&c.Server.IdleTimeout),
		constants.EnvMaxRequestSize:    setInt64(&c.Server.MaxRequestSize),
		constants.EnvShutdownTimeout:   setDuration(&c.Server.ShutdownTimeout),
		constants.EnvPollInterval:      setDuration(&c.Monitor.Interval),
		constants.EnvProbeTimeout:      setDuration(&c.Monitor.Timeout),
		constants.EnvStatusURL:         setString(&c.Page.StatusURL),
		constants.EnvLogLevel:          setString(&c.Observability.Logging.Level),
		constants.EnvHotReload:         setBool(&c.HotReload.Enabled),
		constants.EnvHotReloadDebounce: setDuration(&c.HotReload.Debounce),
		constants.EnvTLSEnabled:        setBool(&c.TLS.Enabled),
		constants.EnvTLSCertFile:       setString(&c.TLS.CertFile),
		constants.EnvTLSKeyFile:        setString(&c.TLS.KeyFile),
	}
}

func setString(dst *string) func(string) error {
	return func(v string) error { *dst = v; return nil }
}

func setDuration(dst *time.Duration) func(string) error {
	return func(v string) error {
		d, err := time.ParseDuration(v)
		if err == nil {
			*dst = d
		}
		return err
	}
}

func setInt64(dst *int64) func(string) error {
	return func(v string) error {
		n, err := strconv.ParseInt(v, 10, 64)
		if err == nil {
			*dst = n
		}
		return err
	}
}

func setBool(dst *bool) func(string) error {
	return func(v string) error {
		b, err := strconv.ParseBool(v)
		if err == nil {
			*dst = b
		}
		return err
	}
}

func loadFromEnv(config *Config) {
	for name, set := range envBindings(config) {
		if val := os.Getenv(name); val != "" {
			_ = set(val)
		}
	}
}

// apply copies a flag value into dst when the flag was given on the command line.
func apply[T any](f *CLIFlags, name string, val *T, dst *T) {
	if val != nil && f.changed(name) {
		*dst = *val
	}
}

// overrideWithCLI applies the flags that were explicitly set.
func overrideWithCLI(config *Config, flags *CLIFlags) {
	if flags == nil {
		return
	}

	apply(flags, "host", flags.Host, &config.Server.Host)
	apply(flags, "port", flags.Port, &config.Server.Port)
	apply(flags, "metrics-port", flags.MetricsPort, &config.Server.MetricsPort)
	apply(flags, "read-timeout", flags.ReadTimeout, &config.Server.ReadTimeout)
	apply(flags, "write-timeout", flags.WriteTimeout, &config.Server.WriteTimeout)
	apply(flags, "idle-timeout", flags.IdleTimeout, &config.Server.IdleTimeout)
	apply(flags, "max-request-size", flags.MaxRequestSize, &config.Server.MaxRequestSize)
	apply(flags, "shutdown-timeout", flags.ShutdownTimeout, &config.Server.ShutdownTimeout)

	apply(flags, "poll-interval", flags.PollInterval, &config.Monitor.Interval)
	apply(flags, "probe-timeout", flags.ProbeTimeout, &config.Monitor.Timeout)
	apply(flags, "status-url", flags.StatusURL, &config.Page.StatusURL)
	apply(flags, "log-level", flags.LogLevel, &config.Observability.Logging.Level)

	apply(flags, "rate-limit-enabled", flags.RateLimitEnabled, &config.Security.RateLimit.Enabled)
	if flags.RateLimitRPS != nil && flags.changed("rate-limit-rps") {
		config.Security.RateLimit.ByIP = perClientLimit(config.Security.RateLimit.ByIP, *flags.RateLimitRPS)
	}

	apply(flags, "hot-reload", flags.HotReload, &config.HotReload.Enabled)
	apply(flags, "hot-reload-debounce", flags.HotReloadDebounce, &config.HotReload.Debounce)

	apply(flags, "tls-enabled", flags.TLSEnabled, &config.TLS.Enabled)
	apply(flags, "tls-cert-file", flags.TLSCertFile, &config.TLS.CertFile)
	apply(flags, "tls-key-file", flags.TLSKeyFile, &config.TLS.KeyFile)
}

// perClientLimit sets the per-client rate, creating the limit with a burst
// of twice the rate when none is configured.
func perClientLimit(limit *RateLimit, rps int) *RateLimit {
	if limit == nil {
		return &RateLimit{RequestsPerSecond: rps, BurstSize: 2 * rps, WindowSize: time.Minute}
	}
	updated := *limit
	updated.RequestsPerSecond = rps
	return &updated
}

// validateFilePath rejects config paths that still climb out of their
// directory after cleaning.
func validateFilePath(filePath string) error {
	abs, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}
	if strings.Contains(filepath.Clean(abs), "..") {
		return fmt.Errorf("path contains directory traversal attempts")
	}
	return nil
}
