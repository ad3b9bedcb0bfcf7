// Package browser owns the process-wide headless browser. The browser is
// opened lazily on first use, shared by every caller, and closed only by an
// explicit Shutdown.
package browser

import (
	"context"
	"sync"

	"github.com/tradeflow/backend/internal/domain"
)

// OpenFunc creates the pooled resource
type OpenFunc[T any] func(ctx context.Context) (T, error)

// CloseFunc releases the pooled resource
type CloseFunc[T any] func(T) error

// Pool lazily opens a single shared resource and reference-counts its holders
type Pool[T any] struct {
	open  OpenFunc[T]
	close CloseFunc[T]

	mu       sync.Mutex
	resource T
	opened   bool
	opening  chan struct{} // non-nil while a launch is in flight
	closed   bool
	refs     int
	idle     chan struct{} // closed when refs drops to zero during shutdown
	launches int
}

// NewPool creates a pool; nothing is opened until the first Acquire
func NewPool[T any](open OpenFunc[T], closeFn CloseFunc[T]) *Pool[T] {
	return &Pool[T]{open: open, close: closeFn}
}

// Acquire returns the shared resource, opening it if needed, plus a release
// func the caller must invoke exactly once. A failed open is not remembered,
// so the next Acquire retries.
func (p *Pool[T]) Acquire(ctx context.Context) (T, func(), error) {
	var zero T

	for {
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return zero, nil, domain.ErrPoolClosed
		}
		if p.opened {
			p.refs++
			res := p.resource
			p.mu.Unlock()
			return res, p.releaser(), nil
		}
		if wait := p.opening; wait != nil {
			p.mu.Unlock()
			select {
			case <-wait:
				continue
			case <-ctx.Done():
				return zero, nil, ctx.Err()
			}
		}

		done := make(chan struct{})
		p.opening = done
		p.launches++
		p.mu.Unlock()

		res, err := p.open(ctx)

		p.mu.Lock()
		p.opening = nil
		close(done)
		if err != nil {
			p.mu.Unlock()
			return zero, nil, err
		}
		if p.closed {
			p.mu.Unlock()
			_ = p.close(res)
			return zero, nil, domain.ErrPoolClosed
		}
		p.resource = res
		p.opened = true
		p.mu.Unlock()
	}
}

func (p *Pool[T]) releaser() func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			p.refs--
			if p.refs == 0 && p.idle != nil {
				close(p.idle)
				p.idle = nil
			}
		})
	}
}

// Refs returns the number of outstanding holders
func (p *Pool[T]) Refs() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.refs
}

// Launches returns how many times the pool attempted to open its resource
func (p *Pool[T]) Launches() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.launches
}

// Shutdown rejects new acquires, waits for current holders to release (or
// ctx to end) and closes the resource. It is safe to call more than once.
func (p *Pool[T]) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true

	var idle chan struct{}
	if p.refs > 0 {
		idle = make(chan struct{})
		p.idle = idle
	}
	p.mu.Unlock()

	var waitErr error
	if idle != nil {
		select {
		case <-idle:
		case <-ctx.Done():
			waitErr = ctx.Err()
		}
	}

	p.mu.Lock()
	res, opened := p.resource, p.opened
	var zero T
	p.resource = zero
	p.opened = false
	p.mu.Unlock()

	if !opened {
		return waitErr
	}
	if err := p.close(res); err != nil {
		return err
	}
	return waitErr
}
