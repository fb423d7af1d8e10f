package probe

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"strings"

	"github.com/leslieo2/go-status-board/internal/constants"
	"github.com/leslieo2/go-status-board/internal/status"
)

// DNS resolves a domain against one name server.
// The service is up when the lookup succeeds and, if Expect is set, one of
// the returned A records equals it.
type DNS struct {
	server   string
	domain   string
	expect   netip.Addr
	spec     Spec
	resolver *net.Resolver
}

// NewDNS creates a DNS prober.
func NewDNS(spec Spec) (*DNS, error) {
	if spec.Domain == "" {
		return nil, fmt.Errorf("probe %s: domain required", spec.Name)
	}

	server := spec.Address
	if _, _, err := net.SplitHostPort(server); err != nil {
		server = net.JoinHostPort(strings.Trim(server, "[]"), constants.DefaultDNSPort)
	}

	var expect netip.Addr
	if spec.Expect != "" {
		addr, err := netip.ParseAddr(spec.Expect)
		if err != nil {
			return nil, fmt.Errorf("probe %s: invalid expected address: %w", spec.Name, err)
		}
		expect = addr
	}

	pinned, err := parseSourceIP(spec.SourceIP)
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", spec.Name, err)
	}

	p := &DNS{server: server, domain: spec.Domain, expect: expect, spec: spec}
	p.resolver = &net.Resolver{
		PreferGo: true,
		Dial: func(ctx context.Context, network, _ string) (net.Conn, error) {
			d := net.Dialer{Timeout: spec.Timeout}
			if local := localIP(ctx, pinned); local != nil {
				if strings.HasPrefix(network, "udp") {
					d.LocalAddr = &net.UDPAddr{IP: local}
				} else {
					d.LocalAddr = &net.TCPAddr{IP: local}
				}
			}
			return d.DialContext(ctx, network, server)
		},
	}
	return p, nil
}

// Probe performs the lookup.
func (p *DNS) Probe(ctx context.Context) status.ServiceStatus {
	ctx, cancel := withTimeout(ctx, p.spec.Timeout)
	defer cancel()

	addrs, err := p.resolver.LookupNetIP(ctx, "ip4", p.domain)
	if err != nil {
		return down("Lookup Failed: %v", err)
	}
	if !p.expect.IsValid() {
		return up("")
	}
	for _, a := range addrs {
		if a.Unmap() == p.expect.Unmap() {
			return up("")
		}
	}
	return down("Did not return the expected result")
}
