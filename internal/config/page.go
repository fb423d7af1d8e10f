package config

import (
	"fmt"
	"net/url"
	"time"
)

// PageConfig contains status page configuration
type PageConfig struct {
	Title string `json:"title" yaml:"title"`
	// StatusURL is the base URL the page reads /api/status from.
	// Empty means this server.
	StatusURL string        `json:"status_url" yaml:"status_url"`
	Timeout   time.Duration `json:"timeout" yaml:"timeout"`
	// ValidateResponses checks fetched status bodies against the OpenAPI document.
	ValidateResponses bool `json:"validate_responses" yaml:"validate_responses"`
}

// DefaultPageConfig returns default page configuration
func DefaultPageConfig() PageConfig {
	return PageConfig{
		Title:             "Service Status",
		StatusURL:         "",
		Timeout:           5 * time.Second,
		ValidateResponses: true,
	}
}

// Validate validates the page configuration
func (p *PageConfig) Validate() error {
	if p.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative")
	}
	if p.StatusURL == "" {
		return nil
	}
	u, err := url.Parse(p.StatusURL)
	if err != nil {
		return fmt.Errorf("invalid status_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("status_url must be an http or https URL")
	}
	if u.Host == "" {
		return fmt.Errorf("status_url must include a host")
	}
	return nil
}
