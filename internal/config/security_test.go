package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSecurityConfigValidate_Default(t *testing.T) {
	s := DefaultSecurityConfig()
	assert.NoError(t, s.Validate())

	s.RateLimit.Enabled = true
	assert.NoError(t, s.Validate(), "enabling the default limits should stay valid")
}

func TestCORSConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*CORSConfig)
		wantErr string
	}{
		{name: "default", mutate: func(*CORSConfig) {}},
		{
			name:   "disabled ignores empty values",
			mutate: func(c *CORSConfig) { *c = CORSConfig{} },
		},
		{
			name:    "no origins",
			mutate:  func(c *CORSConfig) { c.AllowedOrigins = nil },
			wantErr: "allowed_origins",
		},
		{
			name:    "no methods",
			mutate:  func(c *CORSConfig) { c.AllowedMethods = nil },
			wantErr: "allowed_methods must not be empty",
		},
		{
			name:    "write method",
			mutate:  func(c *CORSConfig) { c.AllowedMethods = []string{"GET", "POST"} },
			wantErr: "POST is not served",
		},
		{
			name:   "lower case safe methods",
			mutate: func(c *CORSConfig) { c.AllowedMethods = []string{"get", "head"} },
		},
		{
			name:    "credentials with wildcard",
			mutate:  func(c *CORSConfig) { c.AllowCredentials = true },
			wantErr: "allow_credentials",
		},
		{
			name: "credentials with explicit origin",
			mutate: func(c *CORSConfig) {
				c.AllowedOrigins = []string{"https://ops.example.com"}
				c.AllowCredentials = true
				c.MaxAge = 600
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultCORSConfig()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestRateLimitConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*RateLimitConfig)
		wantErr string
	}{
		{name: "disabled default", mutate: func(*RateLimitConfig) {}},
		{name: "enabled default", mutate: func(r *RateLimitConfig) { r.Enabled = true }},
		{
			name:   "disabled ignores bad values",
			mutate: func(r *RateLimitConfig) { r.Strategy = "api_key"; r.Global = nil; r.ByIP = nil },
		},
		{
			name:    "unknown strategy",
			mutate:  func(r *RateLimitConfig) { r.Enabled = true; r.Strategy = "api_key" },
			wantErr: `strategy "api_key"`,
		},
		{
			name:   "per client limit only",
			mutate: func(r *RateLimitConfig) { r.Enabled = true; r.Global = nil },
		},
		{
			name:    "no limits",
			mutate:  func(r *RateLimitConfig) { r.Enabled = true; r.Global = nil; r.ByIP = nil },
			wantErr: "one of global or by_ip",
		},
		{
			name: "zero burst",
			mutate: func(r *RateLimitConfig) {
				r.Enabled = true
				r.ByIP = &RateLimit{RequestsPerSecond: 10, BurstSize: 0, WindowSize: 1}
			},
			wantErr: "by_ip: burst_size",
		},
		{
			name:    "negative cache size",
			mutate:  func(r *RateLimitConfig) { r.Enabled = true; r.MaxCacheSize = -1 },
			wantErr: "max_cache_size",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := DefaultRateLimitConfig()
			tt.mutate(&r)
			err := r.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestDefaultRateLimitConfig_ExemptsLoopback(t *testing.T) {
	assert.True(t, DefaultRateLimitConfig().ExemptLoopback)
}

func TestSecurityHeadersValidate_NegativeHSTS(t *testing.T) {
	h := DefaultSecurityHeaders()
	h.HSTSMaxAge = -1
	assert.ErrorContains(t, h.Validate(), "hsts_max_age")

	h.Enabled = false
	assert.NoError(t, h.Validate())
}
