package background

import (
	"context"
	"log/slog"
	"time"
)

// Sweepable is any state holder with expiring records. Sweep takes the
// current time and returns the number of records removed.
type Sweepable interface {
	Sweep(now time.Time) int
}

type target struct {
	name  string
	state Sweepable
}

// Sweeper periodically reclaims expired protective state: stale rate
// limit windows, expired lockout records, expired CSRF tokens, and
// events past retention.
type Sweeper struct {
	targets  []target
	logger   *slog.Logger
	interval time.Duration
	stopCh   chan struct{}
}

// NewSweeper creates a sweeper with the given interval
func NewSweeper(logger *slog.Logger, interval time.Duration) *Sweeper {
	return &Sweeper{
		logger:   logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Register adds a sweep target. Call before Start.
func (s *Sweeper) Register(name string, state Sweepable) {
	s.targets = append(s.targets, target{name: name, state: state})
}

// Start begins the periodic sweep task
func (s *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runSweep()
		case <-s.stopCh:
			s.logger.Info("sweeper stopped")
			return
		case <-ctx.Done():
			s.logger.Info("sweeper context cancelled")
			return
		}
	}
}

// runSweep walks every target once
func (s *Sweeper) runSweep() {
	now := time.Now()
	for _, t := range s.targets {
		removed := t.state.Sweep(now)
		if removed > 0 {
			s.logger.Info("swept expired records",
				slog.String("target", t.name),
				slog.Int("removed", removed))
		}
	}
}

// Stop signals the sweeper to stop
func (s *Sweeper) Stop() {
	close(s.stopCh)
}
