package config

import (
	"crypto/tls"
	"errors"
	"fmt"
)

// TLSConfig contains TLS-specific configuration
type TLSConfig struct {
	Enabled  bool   `json:"enabled" yaml:"enabled"`
	CertFile string `json:"cert_file" yaml:"cert_file"`
	KeyFile  string `json:"key_file" yaml:"key_file"`
}

// DefaultTLSConfig returns default TLS configuration
func DefaultTLSConfig() TLSConfig {
	return TLSConfig{}
}

// Validate checks that the certificate and key load as a pair, so a bad
// file fails at startup rather than on the first connection.
func (c TLSConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.CertFile == "" {
		return errors.New("cert_file is required when TLS is enabled")
	}
	if c.KeyFile == "" {
		return errors.New("key_file is required when TLS is enabled")
	}
	if _, err := tls.LoadX509KeyPair(c.CertFile, c.KeyFile); err != nil {
		return fmt.Errorf("failed to load key pair: %w", err)
	}
	return nil
}

// ServerTLS returns the TLS settings of the HTTP server, or nil when TLS is off.
// Certificates are loaded by ListenAndServeTLS.
func (c TLSConfig) ServerTLS() *tls.Config {
	if !c.Enabled {
		return nil
	}
	return &tls.Config{MinVersion: tls.VersionTLS12}
}
