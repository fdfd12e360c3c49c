package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"sales_report/internal/domain"
)

// Initializer reloads the dataset from its source.
type Initializer interface {
	Initialize(ctx context.Context) (*domain.IngestStats, error)
}

type Config struct {
	Interval  time.Duration
	Timeout   time.Duration
	OnStartup bool
}

type Scheduler struct {
	initializer Initializer
	cfg         Config
	logger      *zap.Logger
}

func NewScheduler(initializer Initializer, cfg Config, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		initializer: initializer,
		cfg:         cfg,
		logger:      logger,
	}
}

// Start blocks until ctx is done. With a zero interval only the startup load runs, if enabled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started",
		zap.Duration("interval", s.cfg.Interval),
		zap.Bool("on_startup", s.cfg.OnStartup),
	)

	if s.cfg.OnStartup {
		s.runLoad(ctx)
	}

	if s.cfg.Interval <= 0 {
		<-ctx.Done()
		s.logger.Info("scheduler stopped")
		return ctx.Err()
	}

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runLoad(ctx)
		}
	}
}

func (s *Scheduler) runLoad(ctx context.Context) {
	timeout := s.cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}

	loadCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if _, err := s.initializer.Initialize(loadCtx); err != nil {
		s.logger.Error("scheduled load failed", zap.Error(err))
	}
}
