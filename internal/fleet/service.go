// Package fleet runs one address watcher per configured network as a single
// unit: all watchers start together and stop together.
package fleet

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gabapcia/hosewatch/internal/addresswatch"
	"github.com/gabapcia/hosewatch/internal/pkg/logger"

	"go.uber.org/zap"
)

var (
	// ErrServiceAlreadyStarted is returned if Start is called on a running fleet.
	ErrServiceAlreadyStarted = errors.New("service already started")

	// ErrNoWatchers is returned by Start when the fleet has nothing to run.
	ErrNoWatchers = errors.New("no watchers configured")
)

// Watcher is one named member of the fleet.
type Watcher struct {
	Network string
	Service addresswatch.Service
}

// Service is the lifecycle of the whole fleet.
type Service interface {
	// Start starts every watcher in order. If one fails, the ones already
	// started are closed and the error is returned.
	Start(ctx context.Context) error

	// Close stops every running watcher. It is safe to call Close even if the
	// fleet was never started.
	Close()
}

type closeFunc func()

type service struct {
	mu        sync.Mutex
	isStarted bool
	closeFunc closeFunc

	watchers []Watcher
	logger   *zap.SugaredLogger
}

var _ Service = (*service)(nil)

func (s *service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isStarted {
		return ErrServiceAlreadyStarted
	}

	if len(s.watchers) == 0 {
		return ErrNoWatchers
	}

	started := make([]Watcher, 0, len(s.watchers))
	for _, w := range s.watchers {
		s.logger.Infow("starting watcher", "network", w.Network)

		if err := w.Service.Start(ctx); err != nil {
			closeAll(started)
			return fmt.Errorf("error starting %s watcher: %w", w.Network, err)
		}

		started = append(started, w)
	}

	s.closeFunc = func() {
		closeAll(started)
	}
	s.isStarted = true

	s.logger.Infow("fleet started", "watchers", len(started))
	return nil
}

func (s *service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closeFunc != nil {
		s.closeFunc()
		s.logger.Infow("fleet stopped")
	}

	s.closeFunc = nil
	s.isStarted = false
}

// closeAll closes watchers concurrently and waits for all of them.
func closeAll(watchers []Watcher) {
	var wg sync.WaitGroup
	for _, w := range watchers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Service.Close()
		}()
	}
	wg.Wait()
}

type config struct {
	logger *zap.SugaredLogger
}

// Option configures optional fleet dependencies.
type Option func(*config)

// WithLogger sets the fleet logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// New builds a fleet over watchers, started in the given order.
func New(watchers []Watcher, opts ...Option) *service {
	c := config{
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(&c)
	}

	return &service{
		watchers: watchers,
		logger:   c.logger,
	}
}
