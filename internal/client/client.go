package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/imroc/req/v3"
	"github.com/leslieo2/go-status-board/internal/constants"
	"github.com/leslieo2/go-status-board/internal/status"
)

// ErrUnexpectedStatus is returned when the status endpoint answers with a
// non-2xx code.
var ErrUnexpectedStatus = errors.New("unexpected response status")

// Validator checks a raw status body before it is decoded.
type Validator interface {
	ValidateStatus(body []byte) error
}

// Config configures the status client.
type Config struct {
	// BaseURL is the scheme and host of the status server, e.g. http://localhost:8080.
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	Validator Validator

	// RootCAFile replaces the system roots with a PEM bundle when set.
	RootCAFile string
}

// Client reads the status endpoint.
type Client struct {
	http      *req.Client
	url       string
	validator Validator
}

// New creates a status client. The client never retries.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("status client: base url required")
	}

	c := req.C().SetCommonHeader(constants.HeaderAccept, constants.ContentTypeJSON)
	if cfg.UserAgent != "" {
		c.SetUserAgent(cfg.UserAgent)
	}
	if cfg.Timeout > 0 {
		c.SetTimeout(cfg.Timeout)
	}
	if cfg.RootCAFile != "" {
		c.SetRootCertsFromFile(cfg.RootCAFile)
	}

	return &Client{
		http:      c,
		url:       strings.TrimRight(cfg.BaseURL, "/") + constants.PathStatus,
		validator: cfg.Validator,
	}, nil
}

// URL returns the status endpoint the client reads.
func (c *Client) URL() string {
	return c.url
}

// Fetch performs a single GET of the status endpoint.
func (c *Client) Fetch(ctx context.Context) (status.Response, []byte, error) {
	resp, err := c.http.R().SetContext(ctx).Get(c.url)
	if err != nil {
		return nil, nil, fmt.Errorf("GET %s: %w", c.url, err)
	}

	body := resp.Bytes()
	if !resp.IsSuccessState() {
		return nil, body, fmt.Errorf("GET %s: %w: %s", c.url, ErrUnexpectedStatus, resp.Status)
	}

	if c.validator != nil {
		if err := c.validator.ValidateStatus(body); err != nil {
			return nil, body, err
		}
	}

	parsed, err := status.Decode(body)
	if err != nil {
		return nil, body, fmt.Errorf("failed to decode status response: %w", err)
	}
	return parsed, body, nil
}
