package probe

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/leslieo2/go-status-board/internal/constants"
	"github.com/leslieo2/go-status-board/internal/status"
)

// Prober checks a single service.
type Prober interface {
	Probe(ctx context.Context) status.ServiceStatus
}

// Spec describes what to probe.
type Spec struct {
	Name string
	Kind string
	// Address is a URL for http probes and host[:port] otherwise.
	Address string
	// Path is appended to Address for http probes.
	Path string
	// Expect is the body substring (http), A record (dns) or banner prefix (tcp).
	Expect string
	// Domain is the name resolved by dns probes.
	Domain string
	// SourceIP, when set, is the local address probes are sent from.
	SourceIP string
	Timeout  time.Duration
}

// New builds the prober for spec.
func New(spec Spec) (Prober, error) {
	if spec.Name == "" {
		return nil, fmt.Errorf("probe: name required")
	}
	if spec.Address == "" {
		return nil, fmt.Errorf("probe %s: address required", spec.Name)
	}

	switch spec.Kind {
	case constants.ProbeHTTP:
		return NewHTTP(spec)
	case constants.ProbeDNS:
		return NewDNS(spec)
	case constants.ProbeTCP:
		return NewTCP(spec)
	default:
		return nil, fmt.Errorf("probe %s: unknown kind %q", spec.Name, spec.Kind)
	}
}

func up(reason string) status.ServiceStatus {
	return status.ServiceStatus{Up: true, Last: time.Now(), FailureReason: reason}
}

func down(format string, args ...interface{}) status.ServiceStatus {
	return status.ServiceStatus{Up: false, Last: time.Now(), FailureReason: fmt.Sprintf(format, args...)}
}

type sourceKey struct{}

// WithSourceIP returns a context whose probes leave from ip, unless the
// probed service pins its own source address.
func WithSourceIP(ctx context.Context, ip net.IP) context.Context {
	if ip == nil {
		return ctx
	}
	return context.WithValue(ctx, sourceKey{}, ip)
}

// localIP picks the address to dial from: the pinned one, else the one
// carried by ctx, else none.
func localIP(ctx context.Context, pinned net.IP) net.IP {
	if pinned != nil {
		return pinned
	}
	ip, _ := ctx.Value(sourceKey{}).(net.IP)
	return ip
}

func parseSourceIP(s string) (net.IP, error) {
	if s == "" {
		return nil, nil
	}
	ip := net.ParseIP(s)
	if ip == nil {
		return nil, fmt.Errorf("invalid source ip %q", s)
	}
	return ip, nil
}

// dialer returns a dialer bound to local when set.
func dialer(local net.IP, timeout time.Duration) *net.Dialer {
	d := &net.Dialer{Timeout: timeout}
	if local != nil {
		d.LocalAddr = &net.TCPAddr{IP: local}
	}
	return d
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
