package probe

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/leslieo2/go-status-board/internal/status"
)

const bannerSize = 512

// TCP connects to a service, optionally checking the greeting it sends
// (SMTP, POP3 and friends announce themselves on connect).
type TCP struct {
	address string
	expect  string
	pinned  net.IP
	spec    Spec
}

// NewTCP creates a TCP prober.
func NewTCP(spec Spec) (*TCP, error) {
	pinned, err := parseSourceIP(spec.SourceIP)
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", spec.Name, err)
	}
	return &TCP{address: spec.Address, expect: spec.Expect, pinned: pinned, spec: spec}, nil
}

// Probe dials the service and reads its banner when one is expected.
func (p *TCP) Probe(ctx context.Context) status.ServiceStatus {
	ctx, cancel := withTimeout(ctx, p.spec.Timeout)
	defer cancel()

	conn, err := dialer(localIP(ctx, p.pinned), p.spec.Timeout).DialContext(ctx, "tcp", p.address)
	if err != nil {
		return down("Connect Failed: %v", err)
	}
	defer func() { _ = conn.Close() }()

	if p.expect == "" {
		return up("")
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(deadline)
	} else {
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	}

	buf := make([]byte, bannerSize)
	n, err := conn.Read(buf)
	if err != nil && n == 0 {
		return down("Read Failed: %v", err)
	}
	banner := strings.TrimSpace(string(buf[:n]))
	if !strings.HasPrefix(banner, p.expect) {
		return down("Unexpected banner: %s", banner)
	}
	return up("")
}
