package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/leslieo2/go-status-board/internal/constants"
)

// SecurityConfig hardens the board's public listener.
type SecurityConfig struct {
	RateLimit RateLimitConfig `json:"rate_limit" yaml:"rate_limit"`
	Headers   SecurityHeaders `json:"headers" yaml:"headers"`
	CORS      CORSConfig      `json:"cors" yaml:"cors"`
}

// RateLimitConfig throttles clients by IP. Every page load is one request
// from the viewer, so the limits bound how often a browser may refresh.
type RateLimitConfig struct {
	Enabled         bool          `json:"enabled" yaml:"enabled"`
	Strategy        string        `json:"strategy" yaml:"strategy"`
	Global          *RateLimit    `json:"global" yaml:"global"`
	ByIP            *RateLimit    `json:"by_ip" yaml:"by_ip"`
	CleanupInterval time.Duration `json:"cleanup_interval" yaml:"cleanup_interval"`
	MaxCacheSize    int           `json:"max_cache_size" yaml:"max_cache_size"`

	// ExemptLoopback skips direct loopback callers, which includes the status
	// page reading this server's own /api/status.
	ExemptLoopback bool `json:"exempt_loopback" yaml:"exempt_loopback"`
}

// RateLimit is a token bucket: RequestsPerSecond refill rate, BurstSize capacity.
type RateLimit struct {
	RequestsPerSecond int           `json:"requests_per_second" yaml:"requests_per_second"`
	BurstSize         int           `json:"burst_size" yaml:"burst_size"`
	WindowSize        time.Duration `json:"window_size" yaml:"window_size"`
}

// SecurityHeaders are added to every response when enabled. AllowedHosts,
// when non-empty, rejects requests for any other Host.
type SecurityHeaders struct {
	Enabled               bool     `json:"enabled" yaml:"enabled"`
	HSTSMaxAge            int      `json:"hsts_max_age" yaml:"hsts_max_age"`
	ContentSecurityPolicy string   `json:"content_security_policy" yaml:"content_security_policy"`
	AllowedHosts          []string `json:"allowed_hosts" yaml:"allowed_hosts"`
}

// CORSConfig lets dashboards on other origins read /api/status.
type CORSConfig struct {
	Enabled          bool     `json:"enabled" yaml:"enabled"`
	AllowedOrigins   []string `json:"allowed_origins" yaml:"allowed_origins"`
	AllowedMethods   []string `json:"allowed_methods" yaml:"allowed_methods"`
	AllowedHeaders   []string `json:"allowed_headers" yaml:"allowed_headers"`
	AllowCredentials bool     `json:"allow_credentials" yaml:"allow_credentials"`
	MaxAge           int      `json:"max_age" yaml:"max_age"`
}

func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		RateLimit: DefaultRateLimitConfig(),
		Headers:   DefaultSecurityHeaders(),
		CORS:      DefaultCORSConfig(),
	}
}

// DefaultRateLimitConfig ships disabled.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Strategy: constants.RateLimitStrategyIP,
		Global: &RateLimit{
			RequestsPerSecond: 100,
			BurstSize:         200,
			WindowSize:        time.Minute,
		},
		ByIP: &RateLimit{
			RequestsPerSecond: 20,
			BurstSize:         40,
			WindowSize:        time.Minute,
		},
		CleanupInterval: constants.RateLimitCleanupInterval,
		MaxCacheSize:    constants.RateLimitMaxCacheSize,
		ExemptLoopback:  true,
	}
}

func DefaultSecurityHeaders() SecurityHeaders {
	return SecurityHeaders{
		Enabled:    true,
		HSTSMaxAge: int((365 * 24 * time.Hour).Seconds()),
		// the page pulls its stylesheet from a CDN
		ContentSecurityPolicy: "default-src 'self'; style-src 'self' https://cdn.jsdelivr.net",
		AllowedHosts:          []string{},
	}
}

// DefaultCORSConfig opens the read-only routes to any origin.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		Enabled:        true,
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{constants.MethodGET, constants.MethodHEAD, constants.MethodOPTIONS},
		AllowedHeaders: []string{constants.HeaderContentType, constants.HeaderAccept},
		MaxAge:         int((24 * time.Hour).Seconds()),
	}
}

func (s *SecurityConfig) Validate() error {
	sections := []struct {
		name string
		err  error
	}{
		{"rate_limit", s.RateLimit.Validate()},
		{"headers", s.Headers.Validate()},
		{"cors", s.CORS.Validate()},
	}

	var errs []error
	for _, sec := range sections {
		if sec.err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", sec.name, sec.err))
		}
	}
	return errors.Join(errs...)
}

// Validate validates the rate limit configuration. Clients are keyed by IP and
// use by_ip when present, otherwise global, so one of the two must be set.
func (r *RateLimitConfig) Validate() error {
	if !r.Enabled {
		return nil
	}

	var errs []error
	if r.Strategy != constants.RateLimitStrategyIP {
		errs = append(errs, fmt.Errorf("strategy %q is not supported, use %q", r.Strategy, constants.RateLimitStrategyIP))
	}
	if r.Global == nil && r.ByIP == nil {
		errs = append(errs, errors.New("one of global or by_ip limits is required when rate limiting is enabled"))
	}
	for name, limit := range map[string]*RateLimit{"global": r.Global, "by_ip": r.ByIP} {
		if limit == nil {
			continue
		}
		if err := limit.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	if r.MaxCacheSize < 0 {
		errs = append(errs, errors.New("max_cache_size must not be negative"))
	}
	return errors.Join(errs...)
}

// Validate validates the CORS configuration. The board is read-only, so only
// safe methods may be allowed.
func (c *CORSConfig) Validate() error {
	if !c.Enabled {
		return nil
	}

	var errs []error
	if len(c.AllowedOrigins) == 0 {
		errs = append(errs, errors.New("allowed_origins must not be empty"))
	}
	if len(c.AllowedMethods) == 0 {
		errs = append(errs, errors.New("allowed_methods must not be empty"))
	}
	for _, m := range c.AllowedMethods {
		switch strings.ToUpper(m) {
		case constants.MethodGET, constants.MethodHEAD, constants.MethodOPTIONS:
		default:
			errs = append(errs, fmt.Errorf("allowed_methods: %s is not served by the status board", m))
		}
	}
	if c.AllowCredentials && slices.Contains(c.AllowedOrigins, "*") {
		errs = append(errs, errors.New("allow_credentials cannot be combined with the * origin"))
	}
	return errors.Join(errs...)
}

func (h *SecurityHeaders) Validate() error {
	if !h.Enabled {
		return nil
	}
	if h.HSTSMaxAge < 0 {
		return fmt.Errorf("hsts_max_age must not be negative, got %d", h.HSTSMaxAge)
	}
	for _, host := range h.AllowedHosts {
		if strings.TrimSpace(host) == "" {
			return errors.New("allowed_hosts must not contain empty entries")
		}
	}
	return nil
}

func (l *RateLimit) Validate() error {
	switch {
	case l.RequestsPerSecond <= 0:
		return fmt.Errorf("requests_per_second must be positive, got %d", l.RequestsPerSecond)
	case l.BurstSize <= 0:
		return fmt.Errorf("burst_size must be positive, got %d", l.BurstSize)
	case l.WindowSize <= 0:
		return fmt.Errorf("window_size must be positive, got %v", l.WindowSize)
	}
	return nil
}
