package hotreload

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Manager reloads registered components when a watched config file changes
type Manager struct {
	watcher     *Watcher
	coordinator *Coordinator
	logger      *zap.Logger
}

// NewManager creates a manager with the given debounce period
func NewManager(debounce time.Duration, logger *zap.Logger) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("hotreload")

	watcher, err := NewWatcher(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	return &Manager{
		watcher:     watcher,
		coordinator: NewCoordinator(watcher, debounce, logger),
		logger:      logger,
	}, nil
}

// AddWatch watches a config file or directory
func (m *Manager) AddWatch(path string) error {
	return m.watcher.Add(path)
}

// RemoveWatch stops watching a path
func (m *Manager) RemoveWatch(path string) error {
	return m.watcher.Remove(path)
}

// RegisterReloadable registers a component to be reloaded on change
func (m *Manager) RegisterReloadable(r Reloadable) {
	m.coordinator.RegisterReloadable(r)
}

// SetDebounceTime changes the debounce period
func (m *Manager) SetDebounceTime(d time.Duration) {
	m.coordinator.SetDebounceTime(d)
}

// Reload reloads every registered component immediately
func (m *Manager) Reload(ctx context.Context) error {
	return m.coordinator.ReloadAll(ctx)
}

// Start starts watching and reloading
func (m *Manager) Start(ctx context.Context) error {
	m.watcher.Start()
	if err := m.coordinator.Start(ctx); err != nil {
		m.watcher.Stop()
		return fmt.Errorf("failed to start coordinator: %w", err)
	}

	m.logger.Info("Hot reload manager started", zap.Strings("paths", m.watcher.Paths()))
	return nil
}

// Stop stops the manager. It cannot be restarted.
func (m *Manager) Stop() {
	m.coordinator.Stop()
	m.watcher.Stop()
	m.logger.Info("Hot reload manager stopped")
}

// IsRunning returns whether the manager is running
func (m *Manager) IsRunning() bool {
	return m.coordinator.IsRunning() && m.watcher.IsWatching()
}
