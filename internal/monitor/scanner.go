package monitor

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/leslieo2/go-status-board/internal/constants"
	"github.com/leslieo2/go-status-board/internal/probe"
	"github.com/leslieo2/go-status-board/internal/status"
	"go.uber.org/zap"
)

// Recorder receives the outcome of every probe.
type Recorder interface {
	RecordProbe(service string, up bool, duration time.Duration)
}

// forgetter is implemented by recorders that keep per-service state.
type forgetter interface {
	ForgetService(service string)
}

// Plan is what the scanner covers: the services in board order and the
// pool of local addresses probes are sent from.
type Plan struct {
	Services []probe.Spec
	// SourceIPs rotate once per cycle. Empty means the default route.
	SourceIPs []string
}

// PlanSource returns the plan; called at start and on reload.
type PlanSource func() (Plan, error)

type target struct {
	name   string
	prober probe.Prober
}

// Scanner probes every service on a fixed interval and writes the results
// to a Store.
type Scanner struct {
	store    *Store
	source   PlanSource
	interval time.Duration
	recorder Recorder
	logger   *zap.Logger

	mu      sync.Mutex
	targets []target
	sources []net.IP
	cycle   uint64

	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running atomic.Bool
}

// NewScanner builds a scanner and its probers. The store is reset to the
// configured services.
func NewScanner(store *Store, source PlanSource, interval time.Duration, recorder Recorder, logger *zap.Logger) (*Scanner, error) {
	if store == nil {
		return nil, errors.New("scanner: store required")
	}
	if source == nil {
		return nil, errors.New("scanner: service source required")
	}
	if interval <= 0 {
		return nil, errors.New("scanner: interval must be > 0")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Scanner{
		store:    store,
		source:   source,
		interval: interval,
		recorder: recorder,
		logger:   logger,
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scanner) load() error {
	plan, err := s.source()
	if err != nil {
		return fmt.Errorf("failed to load services: %w", err)
	}

	sources := make([]net.IP, 0, len(plan.SourceIPs))
	for _, raw := range plan.SourceIPs {
		ip := net.ParseIP(raw)
		if ip == nil {
			return fmt.Errorf("invalid source ip %q", raw)
		}
		sources = append(sources, ip)
	}

	targets := make([]target, 0, len(plan.Services))
	names := make([]string, 0, len(plan.Services))
	for _, spec := range plan.Services {
		p, err := probe.New(spec)
		if err != nil {
			return err
		}
		targets = append(targets, target{name: spec.Name, prober: p})
		names = append(names, spec.Name)
	}

	s.mu.Lock()
	previous := s.targets
	s.targets = targets
	s.sources = sources
	s.cycle = 0
	s.mu.Unlock()
	s.store.Reset(names)

	if f, ok := s.recorder.(forgetter); ok {
		kept := make(map[string]bool, len(names))
		for _, name := range names {
			kept[name] = true
		}
		for _, t := range previous {
			if !kept[t.name] {
				f.ForgetService(t.name)
			}
		}
	}
	return nil
}

// Name identifies the scanner as a reloadable component.
func (s *Scanner) Name() string {
	return "scanner"
}

// Reload re-reads the service list and the source pool. On error the previous list stays active.
func (s *Scanner) Reload(ctx context.Context) error {
	if err := s.load(); err != nil {
		return err
	}
	s.logger.Info("Services reloaded", zap.Int("services", s.store.Len()))
	return nil
}

// nextCycle returns the targets of one cycle and the source address it
// uses. The pool advances by one entry per call.
func (s *Scanner) nextCycle() ([]target, net.IP) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var source net.IP
	if len(s.sources) > 0 {
		source = s.sources[s.cycle%uint64(len(s.sources))]
	}
	s.cycle++
	return s.targets, source
}

// PollOnce probes all services concurrently and records the results.
func (s *Scanner) PollOnce(ctx context.Context) {
	targets, source := s.nextCycle()
	if source != nil {
		ctx = probe.WithSourceIP(ctx, source)
		s.logger.Debug("Probing from source address", zap.Stringer("source_ip", source))
	}
	before := s.store.Snapshot()

	var wg sync.WaitGroup
	for _, t := range targets {
		wg.Add(1)
		go func(t target) {
			defer wg.Done()

			start := time.Now()
			st := t.prober.Probe(ctx)
			elapsed := time.Since(start)

			s.store.Set(t.name, st)
			if s.recorder != nil {
				s.recorder.RecordProbe(t.name, st.Up, elapsed)
			}

			if prev, ok := before.Get(t.name); ok && polled(prev) && prev.Up != st.Up {
				s.logger.Info("Service state changed",
					zap.String("service", t.name),
					zap.Bool("up", st.Up),
					zap.String("reason", st.FailureReason),
				)
			}
			if st.Up {
				s.logger.Debug("Service up", zap.String("service", t.name), zap.Duration("duration", elapsed))
			} else {
				s.logger.Warn("Service down",
					zap.String("service", t.name),
					zap.String("reason", st.FailureReason),
					zap.Duration("duration", elapsed),
				)
			}
		}(t)
	}
	wg.Wait()
}

func polled(st status.ServiceStatus) bool {
	return st.Up || st.FailureReason != constants.NotPolledYet
}

// Start polls immediately and then on every tick until Stop.
func (s *Scanner) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running.Store(true)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.logger.Info("Scanner started", zap.Duration("interval", s.interval), zap.Int("services", s.store.Len()))
		for {
			s.PollOnce(ctx)
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

// Stop halts the polling loop and waits for the current cycle.
func (s *Scanner) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.wg.Wait()
	s.running.Store(false)
	s.logger.Info("Scanner stopped")
}

// Running reports whether the polling loop is active.
func (s *Scanner) Running() bool {
	return s.running.Load()
}
