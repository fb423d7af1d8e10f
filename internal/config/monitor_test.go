package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleServices() []ServiceConfig {
	return []ServiceConfig{
		{Name: "web", Type: "http", Address: "127.0.0.1:8000"},
		{Name: "bind_dns", Type: "dns", Address: "10.0.0.2", Domain: "www.example.com", Expect: "10.0.0.5", Timeout: 2 * time.Second},
		{Name: "smtp", Type: "tcp", Address: "10.0.0.3:25", Expect: "220", SourceIP: "10.0.0.9"},
	}
}

func TestMonitorConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*MonitorConfig)
		wantErr bool
	}{
		{name: "default", mutate: func(*MonitorConfig) {}, wantErr: false},
		{name: "services", mutate: func(m *MonitorConfig) { m.Services = sampleServices() }, wantErr: false},
		{name: "zero interval", mutate: func(m *MonitorConfig) { m.Interval = 0 }, wantErr: true},
		{name: "zero timeout", mutate: func(m *MonitorConfig) { m.Timeout = 0 }, wantErr: true},
		{
			name: "empty name",
			mutate: func(m *MonitorConfig) {
				m.Services = []ServiceConfig{{Type: "http", Address: "127.0.0.1:80"}}
			},
			wantErr: true,
		},
		{
			name: "duplicate name",
			mutate: func(m *MonitorConfig) {
				m.Services = append(sampleServices(), ServiceConfig{Name: "web", Type: "http", Address: "x"})
			},
			wantErr: true,
		},
		{
			name: "unknown type",
			mutate: func(m *MonitorConfig) {
				m.Services = []ServiceConfig{{Name: "ftp", Type: "ftp", Address: "127.0.0.1:21"}}
			},
			wantErr: true,
		},
		{
			name: "dns without domain",
			mutate: func(m *MonitorConfig) {
				m.Services = []ServiceConfig{{Name: "dns", Type: "dns", Address: "127.0.0.1"}}
			},
			wantErr: true,
		},
		{
			name: "missing address",
			mutate: func(m *MonitorConfig) {
				m.Services = []ServiceConfig{{Name: "web", Type: "http"}}
			},
			wantErr: true,
		},
		{
			name: "negative service timeout",
			mutate: func(m *MonitorConfig) {
				m.Services = []ServiceConfig{{Name: "web", Type: "http", Address: "x", Timeout: -time.Second}}
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := DefaultMonitorConfig()
			tt.mutate(&m)
			err := m.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("MonitorConfig.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMonitorConfig_Names(t *testing.T) {
	m := DefaultMonitorConfig()
	assert.Empty(t, m.Names())

	m.Services = sampleServices()
	assert.Equal(t, []string{"web", "bind_dns", "smtp"}, m.Names())
}

func TestMonitorConfig_Specs(t *testing.T) {
	m := DefaultMonitorConfig()
	m.SourceIP = "10.0.0.1"
	m.Services = sampleServices()

	specs := m.Specs()
	require.Len(t, specs, 3)

	assert.Equal(t, "web", specs[0].Name)
	assert.Equal(t, "http", specs[0].Kind)
	assert.Equal(t, m.Timeout, specs[0].Timeout)
	// the monitor-wide address is applied per scan, not baked in
	assert.Empty(t, specs[0].SourceIP)

	assert.Equal(t, "www.example.com", specs[1].Domain)
	assert.Equal(t, "10.0.0.5", specs[1].Expect)
	assert.Equal(t, 2*time.Second, specs[1].Timeout)

	assert.Equal(t, "10.0.0.9", specs[2].SourceIP)
	assert.Equal(t, "220", specs[2].Expect)
}

func TestMonitorConfig_SourcePool(t *testing.T) {
	tests := []struct {
		name     string
		single   string
		pool     []string
		expected []string
	}{
		{name: "none"},
		{name: "single address", single: "10.0.0.1", expected: []string{"10.0.0.1"}},
		{name: "pool wins", single: "10.0.0.1", pool: []string{"10.0.0.50", "10.0.0.51"}, expected: []string{"10.0.0.50", "10.0.0.51"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := DefaultMonitorConfig()
			m.SourceIP = tt.single
			m.SourceIPs = tt.pool
			m.Services = sampleServices()

			assert.Equal(t, tt.expected, m.SourcePool())

			plan := m.Plan()
			assert.Equal(t, tt.expected, plan.SourceIPs)
			assert.Len(t, plan.Services, 3)
		})
	}
}

func TestMonitorConfig_ValidateSourceAddresses(t *testing.T) {
	m := DefaultMonitorConfig()
	m.SourceIP = "10.0.0"
	m.SourceIPs = []string{"10.0.0.50", "fe80::1", "bogus"}

	err := m.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `source_ip: invalid address "10.0.0"`)
	assert.Contains(t, err.Error(), `source_ips[2]: invalid address "bogus"`)
	assert.NotContains(t, err.Error(), "source_ips[1]")
}
