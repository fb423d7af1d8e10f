package hotreload

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Reloadable is implemented by components that rebuild their state when the
// watched configuration changes.
type Reloadable interface {
	Reload(ctx context.Context) error
	Name() string
}

// Coordinator debounces watcher events and reloads every registered component
type Coordinator struct {
	watcher *Watcher
	logger  *zap.Logger

	mu           sync.RWMutex
	reloadables  []Reloadable
	debounceTime time.Duration
	isRunning    bool
	cancel       context.CancelFunc
	done         chan struct{}
}

// NewCoordinator creates a new reload coordinator
func NewCoordinator(watcher *Watcher, debounce time.Duration, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		watcher:      watcher,
		logger:       logger,
		debounceTime: debounce,
	}
}

// RegisterReloadable adds a component to the reload set
func (c *Coordinator) RegisterReloadable(r Reloadable) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reloadables = append(c.reloadables, r)
	c.logger.Debug("Registered reloadable component", zap.String("component", r.Name()))
}

// SetDebounceTime sets the quiet period before a reload fires
func (c *Coordinator) SetDebounceTime(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.debounceTime = d
}

// Start begins processing watcher events
func (c *Coordinator) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isRunning {
		return fmt.Errorf("coordinator is already running")
	}

	ctx, c.cancel = context.WithCancel(ctx)
	c.done = make(chan struct{})
	c.isRunning = true
	go c.run(ctx, c.done)

	c.logger.Info("Reload coordinator started")
	return nil
}

// Stop ends event processing and waits for an in-flight reload to finish
func (c *Coordinator) Stop() {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return
	}
	c.isRunning = false
	cancel, done := c.cancel, c.done
	c.mu.Unlock()

	cancel()
	<-done
	c.logger.Info("Reload coordinator stopped")
}

// IsRunning returns whether the coordinator is processing events
func (c *Coordinator) IsRunning() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isRunning
}

func (c *Coordinator) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		pending []string
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	events := c.watcher.Events()
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-events:
			if !ok {
				return
			}
			pending = append(pending, event.Path)

			c.mu.RLock()
			debounce := c.debounceTime
			c.mu.RUnlock()

			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			c.logger.Info("Configuration change detected", zap.Strings("paths", pending))
			pending = nil
			if err := c.ReloadAll(ctx); err != nil {
				c.logger.Error("Reload failed", zap.Error(err))
			}
		}
	}
}

// ReloadAll reloads every registered component. A failing component does not
// stop the others; all failures are returned together.
func (c *Coordinator) ReloadAll(ctx context.Context) error {
	c.mu.RLock()
	reloadables := make([]Reloadable, len(c.reloadables))
	copy(reloadables, c.reloadables)
	c.mu.RUnlock()

	var errs []error
	for _, r := range reloadables {
		start := time.Now()
		if err := r.Reload(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Name(), err))
			continue
		}
		c.logger.Info("Component reloaded",
			zap.String("component", r.Name()),
			zap.Duration("duration", time.Since(start)),
		)
	}
	return errors.Join(errs...)
}
