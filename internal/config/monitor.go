package config

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/leslieo2/go-status-board/internal/constants"
	"github.com/leslieo2/go-status-board/internal/monitor"
	"github.com/leslieo2/go-status-board/internal/probe"
)

// MonitorConfig contains the probing schedule and the monitored services
type MonitorConfig struct {
	Interval time.Duration `json:"interval" yaml:"interval"`
	Timeout  time.Duration `json:"timeout" yaml:"timeout"`
	SourceIP string        `json:"source_ip" yaml:"source_ip"`

	// SourceIPs is a pool of local addresses; each scan uses the next one.
	// It takes precedence over SourceIP.
	SourceIPs []string        `json:"source_ips,omitempty" yaml:"source_ips,omitempty"`
	Services  []ServiceConfig `json:"services" yaml:"services"`
}

// ServiceConfig describes one monitored service. The order of the services
// is the column order of the status board.
type ServiceConfig struct {
	Name     string        `json:"name" yaml:"name"`
	Type     string        `json:"type" yaml:"type"`
	Address  string        `json:"address" yaml:"address"`
	Path     string        `json:"path,omitempty" yaml:"path,omitempty"`
	Domain   string        `json:"domain,omitempty" yaml:"domain,omitempty"`
	Expect   string        `json:"expect,omitempty" yaml:"expect,omitempty"`
	SourceIP string        `json:"source_ip,omitempty" yaml:"source_ip,omitempty"`
	Timeout  time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// DefaultMonitorConfig returns default monitor configuration
func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		Interval: 60 * time.Second,
		Timeout:  10 * time.Second,
		Services: []ServiceConfig{},
	}
}

// Validate validates the monitor configuration
func (m *MonitorConfig) Validate() error {
	var errs []error

	if m.Interval <= 0 {
		errs = append(errs, errors.New("interval must be positive"))
	}
	if m.Timeout <= 0 {
		errs = append(errs, errors.New("timeout must be positive"))
	}

	if m.SourceIP != "" && net.ParseIP(m.SourceIP) == nil {
		errs = append(errs, fmt.Errorf("source_ip: invalid address %q", m.SourceIP))
	}
	for i, ip := range m.SourceIPs {
		if net.ParseIP(ip) == nil {
			errs = append(errs, fmt.Errorf("source_ips[%d]: invalid address %q", i, ip))
		}
	}

	seen := make(map[string]bool, len(m.Services))
	for i, svc := range m.Services {
		if svc.Name == "" {
			errs = append(errs, fmt.Errorf("services[%d]: name cannot be empty", i))
			continue
		}
		if seen[svc.Name] {
			errs = append(errs, fmt.Errorf("services[%d]: duplicate name %s", i, svc.Name))
		}
		seen[svc.Name] = true

		switch svc.Type {
		case constants.ProbeHTTP, constants.ProbeTCP:
		case constants.ProbeDNS:
			if svc.Domain == "" {
				errs = append(errs, fmt.Errorf("services[%d] %s: domain is required for dns probes", i, svc.Name))
			}
		default:
			errs = append(errs, fmt.Errorf("services[%d] %s: type must be one of: http, dns, tcp", i, svc.Name))
		}
		if svc.Address == "" {
			errs = append(errs, fmt.Errorf("services[%d] %s: address cannot be empty", i, svc.Name))
		}
		if svc.Timeout < 0 {
			errs = append(errs, fmt.Errorf("services[%d] %s: timeout must be non-negative", i, svc.Name))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Names returns the service names in board order.
func (m *MonitorConfig) Names() []string {
	names := make([]string, 0, len(m.Services))
	for _, svc := range m.Services {
		names = append(names, svc.Name)
	}
	return names
}

// Specs converts the services to probe specs, filling in the monitor-wide
// timeout where a service sets none. The monitor-wide source address is
// applied per scan, see SourcePool.
func (m *MonitorConfig) Specs() []probe.Spec {
	specs := make([]probe.Spec, 0, len(m.Services))
	for _, svc := range m.Services {
		spec := probe.Spec{
			Name:     svc.Name,
			Kind:     svc.Type,
			Address:  svc.Address,
			Path:     svc.Path,
			Domain:   svc.Domain,
			Expect:   svc.Expect,
			SourceIP: svc.SourceIP,
			Timeout:  svc.Timeout,
		}
		if spec.Timeout == 0 {
			spec.Timeout = m.Timeout
		}
		specs = append(specs, spec)
	}
	return specs
}

// SourcePool returns the local addresses scans rotate through.
func (m *MonitorConfig) SourcePool() []string {
	if len(m.SourceIPs) > 0 {
		return m.SourceIPs
	}
	if m.SourceIP != "" {
		return []string{m.SourceIP}
	}
	return nil
}

// Plan returns what the scanner covers.
func (m *MonitorConfig) Plan() monitor.Plan {
	return monitor.Plan{Services: m.Specs(), SourceIPs: m.SourcePool()}
}
