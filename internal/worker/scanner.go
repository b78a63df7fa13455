package worker

import (
	"context"
	"time"

	"finhealth/internal/core"
	"finhealth/internal/log"
)

// DefaultScanInterval matches the once-a-minute impulse check.
const DefaultScanInterval = time.Minute

// StateScanner is the part of the finance manager the scanner drives.
type StateScanner interface {
	ScanImpulses(ctx context.Context) ([]core.ImpulsePurchase, error)
	Observe(ctx context.Context) error
}

// ImpulseScanner periodically surfaces impulse purchases whose hold is over
// and re-applies retention. It has an explicit lifetime bound to the
// context passed to Run.
type ImpulseScanner struct {
	state    StateScanner
	interval time.Duration
	logger   *log.Logger
	ticks    <-chan time.Time
}

func NewImpulseScanner(state StateScanner, interval time.Duration, logger *log.Logger) *ImpulseScanner {
	if interval <= 0 {
		interval = DefaultScanInterval
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &ImpulseScanner{
		state:    state,
		interval: interval,
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// RunOnce performs a single scan.
func (s *ImpulseScanner) RunOnce(ctx context.Context) {
	eligible, err := s.state.ScanImpulses(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Impulse scan failed",
			log.FieldOperation, log.OpScanImpulse,
			log.FieldError, err)
	} else if len(eligible) > 0 {
		s.logger.InfoContext(ctx, "Impulse purchases awaiting decision",
			"count", len(eligible))
	}

	if err := s.state.Observe(ctx); err != nil {
		s.logger.ErrorContext(ctx, "Retention pass failed",
			log.FieldOperation, log.OpObserve,
			log.FieldError, err)
	}
}

// Run scans immediately and then on every tick until ctx is cancelled.
func (s *ImpulseScanner) Run(ctx context.Context) error {
	s.logger.InfoContext(ctx, "Impulse scanner started", "interval", s.interval)
	s.RunOnce(ctx)

	ticks := s.ticks
	if ticks == nil {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		ticks = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "Impulse scanner stopped")
			return nil
		case <-ticks:
			s.RunOnce(ctx)
		}
	}
}
