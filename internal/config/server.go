package config

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ServerConfig controls the listener that serves the page, the status
// endpoint and the operational routes.
type ServerConfig struct {
	Host string `json:"host" yaml:"host"`
	Port string `json:"port" yaml:"port"`

	// MetricsPort runs a second listener with only the metrics route.
	// Empty keeps metrics on the main listener alone.
	MetricsPort string `json:"metrics_port" yaml:"metrics_port"`

	ReadTimeout     time.Duration `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout" yaml:"write_timeout"`
	IdleTimeout     time.Duration `json:"idle_timeout" yaml:"idle_timeout"`
	MaxRequestSize  int64         `json:"max_request_size" yaml:"max_request_size"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
}

func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:            "localhost",
		Port:            "8080",
		MetricsPort:     "9090",
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    15 * time.Second,
		IdleTimeout:     time.Minute,
		MaxRequestSize:  1 << 20,
		ShutdownTimeout: 30 * time.Second,
	}
}

// SeparateMetrics reports whether metrics get their own listener.
func (s *ServerConfig) SeparateMetrics() bool {
	return s.MetricsPort != ""
}

func (s *ServerConfig) Validate() error {
	var errs []error

	if s.Host == "" {
		errs = append(errs, errors.New("host cannot be empty"))
	}
	if err := validatePort(s.Port, "port"); err != nil {
		errs = append(errs, err)
	}
	if s.SeparateMetrics() {
		if err := validatePort(s.MetricsPort, "metrics_port"); err != nil {
			errs = append(errs, err)
		} else if s.MetricsPort == s.Port {
			errs = append(errs, fmt.Errorf("metrics_port %s is already used by port", s.MetricsPort))
		}
	}

	durations := []struct {
		name  string
		value time.Duration
	}{
		{"read_timeout", s.ReadTimeout},
		{"write_timeout", s.WriteTimeout},
		{"idle_timeout", s.IdleTimeout},
		{"shutdown_timeout", s.ShutdownTimeout},
	}
	for _, d := range durations {
		if d.value <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %v", d.name, d.value))
		}
	}
	if s.MaxRequestSize <= 0 {
		errs = append(errs, errors.New("max_request_size must be positive"))
	}

	return errors.Join(errs...)
}

// validatePort accepts unprivileged ports plus 80 and 443.
func validatePort(port, field string) error {
	if port == "" {
		return fmt.Errorf("%s cannot be empty", field)
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("%s %q is not a port number: %w", field, port, err)
	}
	switch {
	case n < 1 || n > 65535:
		return fmt.Errorf("%s must be between 1 and 65535, got %d", field, n)
	case n < 1024 && n != 80 && n != 443:
		return fmt.Errorf("%s %d is privileged, use 80, 443 or 1024-65535", field, n)
	}
	return nil
}
