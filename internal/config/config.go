package config

import (
	"errors"
	"fmt"
)

// Config represents the unified configuration structure
type Config struct {
	Server        ServerConfig        `json:"server" yaml:"server"`
	Security      SecurityConfig      `json:"security" yaml:"security"`
	Observability ObservabilityConfig `json:"observability" yaml:"observability"`
	Monitor       MonitorConfig       `json:"monitor" yaml:"monitor"`
	Page          PageConfig          `json:"page" yaml:"page"`
	HotReload     HotReloadConfig     `json:"hot_reload" yaml:"hot_reload"`
	TLS           TLSConfig           `json:"tls" yaml:"tls"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server:        DefaultServerConfig(),
		Security:      DefaultSecurityConfig(),
		Observability: DefaultObservabilityConfig(),
		Monitor:       DefaultMonitorConfig(),
		Page:          DefaultPageConfig(),
		HotReload:     DefaultHotReloadConfig(),
		TLS:           DefaultTLSConfig(),
	}
}

// Validate validates the entire configuration
func (c *Config) Validate() error {
	var errs []error

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("server config validation failed: %w", err))
	}
	if err := c.Security.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("security config validation failed: %w", err))
	}
	if err := c.Observability.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("observability config validation failed: %w", err))
	}
	if err := c.Monitor.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("monitor config validation failed: %w", err))
	}
	if err := c.Page.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("page config validation failed: %w", err))
	}
	if err := c.HotReload.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("hot reload config validation failed: %w", err))
	}
	if err := c.TLS.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("tls config validation failed: %w", err))
	}
	// The page handler waits for the status fetch before it writes anything.
	if c.Page.Timeout >= c.Server.WriteTimeout {
		errs = append(errs, fmt.Errorf("page.timeout (%s) must be shorter than server.write_timeout (%s)",
			c.Page.Timeout, c.Server.WriteTimeout))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// GetServerAddress returns the full server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// GetMetricsAddress returns the full metrics server address
func (c *Config) GetMetricsAddress() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.MetricsPort)
}

// StatusBaseURL is where the status page reads /api/status from.
// Without an explicit page.status_url it is this server itself.
func (c *Config) StatusBaseURL() string {
	if c.Page.StatusURL != "" {
		return c.Page.StatusURL
	}
	scheme := "http"
	if c.TLS.Enabled {
		scheme = "https"
	}
	host := c.Server.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return fmt.Sprintf("%s://%s:%s", scheme, host, c.Server.Port)
}

// StatusRootCAFile is the certificate the status page trusts when it reads
// this server's own endpoint over TLS. Empty means the system roots.
func (c *Config) StatusRootCAFile() string {
	if c.Page.StatusURL == "" && c.TLS.Enabled {
		return c.TLS.CertFile
	}
	return ""
}
