package probe

import (
	"context"
	"fmt"
	"net"
	"strings"

	"github.com/imroc/req/v3"
	"github.com/leslieo2/go-status-board/internal/status"
)

// HTTP probes a service with a GET request.
// The service is up when it answers 2xx and, if Expect is set, the body
// contains it.
type HTTP struct {
	url    string
	expect string
	spec   Spec
	client *req.Client
}

// NewHTTP creates an HTTP prober.
func NewHTTP(spec Spec) (*HTTP, error) {
	pinned, err := parseSourceIP(spec.SourceIP)
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", spec.Name, err)
	}

	url := spec.Address
	if !strings.Contains(url, "://") {
		url = "http://" + url
	}
	url = strings.TrimRight(url, "/") + "/" + strings.TrimLeft(spec.Path, "/")

	// Every probe dials afresh so a rotated source address takes effect.
	client := req.C().
		DisableKeepAlives().
		SetDial(func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialer(localIP(ctx, pinned), spec.Timeout).DialContext(ctx, network, addr)
		})
	if spec.Timeout > 0 {
		client.SetTimeout(spec.Timeout)
	}

	return &HTTP{url: url, expect: spec.Expect, spec: spec, client: client}, nil
}

// URL returns the probed URL.
func (h *HTTP) URL() string {
	return h.url
}

// Probe performs the request.
func (h *HTTP) Probe(ctx context.Context) status.ServiceStatus {
	ctx, cancel := withTimeout(ctx, h.spec.Timeout)
	defer cancel()

	resp, err := h.client.R().SetContext(ctx).Get(h.url)
	if err != nil {
		return down("Get Failed: %v", err)
	}
	if !resp.IsSuccessState() {
		return down("Get Failed: %s", resp.Status)
	}

	body, err := resp.ToString()
	if err != nil {
		return up(fmt.Sprintf("Error reading body: %v", err))
	}
	if h.expect != "" && !strings.Contains(body, h.expect) {
		return down("Unexpected response")
	}
	return up("")
}
