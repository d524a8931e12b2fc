package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/campusfound/campusfound/internal/auth/revocation"
)

// Sweeper periodically drops expired revocation entries so the registry
// does not grow without bound. The memory backend also expires lazily on
// read, so sweeping is purely a memory-usage concern, never a correctness
// one.
type Sweeper struct {
	Registry revocation.Registry
	Logger   *slog.Logger
	Interval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewSweeper creates a sweeper with the given interval. Zero or negative
// intervals default to 1 hour.
func NewSweeper(reg revocation.Registry, logger *slog.Logger, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = 1 * time.Hour
	}
	return &Sweeper{
		Registry: reg,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker. Non-blocking; call Stop to shut it
// down gracefully.
func (s *Sweeper) Start() {
	go s.run()
	s.Logger.Info("revocation sweeper started", "interval", s.Interval)
}

// Stop shuts down the background worker, blocking until any in-progress
// sweep finishes.
func (s *Sweeper) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("revocation sweeper stopped")
}

func (s *Sweeper) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Run once on startup so a restarted process reclaims immediately.
	s.sweep()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopCh:
			return
		}
	}
}

func (s *Sweeper) sweep() {
	removed, err := s.Registry.Sweep(context.Background())
	if err != nil {
		s.Logger.Error("revocation sweep failed", "error", err)
		return
	}
	if removed > 0 {
		s.Logger.Debug("revocation sweep completed", "removed", removed)
	}
}
