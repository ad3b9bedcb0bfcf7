// Package lifecycle runs registered shutdown hooks in a deterministic order.
// The host process owns signal handling and calls Shutdown once.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Hook releases one resource
type Hook func(ctx context.Context) error

type namedHook struct {
	name string
	fn   Hook
}

// Manager collects shutdown hooks
type Manager struct {
	mu     sync.Mutex
	hooks  []namedHook
	done   bool
	logger *zap.Logger
}

func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{logger: logger.Named("lifecycle")}
}

// Register adds a hook. Hooks run in reverse registration order so that
// resources are released before the things they depend on.
func (m *Manager) Register(name string, fn Hook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, namedHook{name: name, fn: fn})
}

// Shutdown runs every hook even when earlier ones fail and joins their
// errors. Calls after the first are no-ops.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.done {
		m.mu.Unlock()
		return nil
	}
	m.done = true
	hooks := m.hooks
	m.hooks = nil
	m.mu.Unlock()

	var errs []error
	for i := len(hooks) - 1; i >= 0; i-- {
		h := hooks[i]
		start := time.Now()
		if err := h.fn(ctx); err != nil {
			m.logger.Error("shutdown hook failed", zap.String("hook", h.name), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", h.name, err))
			continue
		}
		m.logger.Info("shutdown hook finished", zap.String("hook", h.name), zap.Duration("elapsed", time.Since(start)))
	}
	return errors.Join(errs...)
}
