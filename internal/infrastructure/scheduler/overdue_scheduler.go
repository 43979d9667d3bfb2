package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/erp/invoicing/internal/infrastructure/config"
	"go.uber.org/zap"
)

var (
	ErrSchedulerNotRunning = errors.New("scheduler is not running")
	ErrInvalidConfig       = errors.New("invalid scheduler configuration")
	// ErrSweepInProgress rejects a manual trigger that overlaps a running sweep
	ErrSweepInProgress = errors.New("overdue sweep already in progress")
)

// OverdueSweeper marks unpaid invoices past their due date as overdue.
type OverdueSweeper interface {
	SweepOverdue(ctx context.Context, asOf time.Time, batchSize int) (int, error)
}

// SweepResult describes one completed sweep run
type SweepResult struct {
	StartedAt time.Time
	Duration  time.Duration
	Marked    int
	Err       error
}

// OverdueScheduler periodically runs the overdue sweep
type OverdueScheduler struct {
	sweeper OverdueSweeper
	logger  *zap.Logger
	config  config.SchedulerConfig
	now     func() time.Time

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	sweeping  atomic.Bool

	lastMu sync.RWMutex
	last   *SweepResult
	runs   atomic.Int64
}

// Option configures an OverdueScheduler
type Option func(*OverdueScheduler)

// WithClock overrides the time source used for the sweep cut-off
func WithClock(now func() time.Time) Option {
	return func(s *OverdueScheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// NewOverdueScheduler creates a new overdue invoice scheduler
func NewOverdueScheduler(sweeper OverdueSweeper, cfg config.SchedulerConfig, logger *zap.Logger, opts ...Option) (*OverdueScheduler, error) {
	if sweeper == nil {
		return nil, fmt.Errorf("%w: sweeper is required", ErrInvalidConfig)
	}
	if cfg.OverdueSweepEnabled && cfg.OverdueSweepInterval <= 0 {
		return nil, fmt.Errorf("%w: sweep interval must be positive", ErrInvalidConfig)
	}
	if cfg.OverdueBatchSize < 0 {
		return nil, fmt.Errorf("%w: batch size must not be negative", ErrInvalidConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &OverdueScheduler{
		sweeper: sweeper,
		logger:  logger.Named("overdue-scheduler"),
		config:  cfg,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Start launches the sweep loop. The first sweep runs immediately.
func (s *OverdueScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	if !s.config.OverdueSweepEnabled {
		s.mu.Unlock()
		s.logger.Info("Overdue sweep scheduler is disabled")
		return nil
	}
	s.isRunning = true
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.wg.Add(1)
	s.mu.Unlock()

	go s.loop(ctx)

	s.logger.Info("Overdue sweep scheduler started",
		zap.Duration("interval", s.config.OverdueSweepInterval),
		zap.Int("batch_size", s.config.OverdueBatchSize),
		zap.Duration("job_timeout", s.config.JobTimeout),
	)
	return nil
}

// Stop gracefully stops the scheduler, waiting for an in-flight sweep
func (s *OverdueScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Overdue sweep scheduler stopped", zap.Int64("runs", s.runs.Load()))
		return nil
	case <-ctx.Done():
		s.logger.Warn("Overdue sweep scheduler stop timed out")
		return ctx.Err()
	}
}

// IsRunning reports whether the loop is active
func (s *OverdueScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// TriggerNow runs a sweep synchronously outside the regular cadence
func (s *OverdueScheduler) TriggerNow(ctx context.Context) (*SweepResult, error) {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil, ErrSchedulerNotRunning
	}
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	result, ok := s.execute(ctx)
	if !ok {
		return nil, ErrSweepInProgress
	}
	return result, nil
}

// LastResult returns the most recent sweep result, or nil before the first run
func (s *OverdueScheduler) LastResult() *SweepResult {
	s.lastMu.RLock()
	defer s.lastMu.RUnlock()
	if s.last == nil {
		return nil
	}
	copied := *s.last
	return &copied
}

// Runs returns how many sweeps have completed
func (s *OverdueScheduler) Runs() int64 {
	return s.runs.Load()
}

func (s *OverdueScheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	s.execute(ctx)

	ticker := time.NewTicker(s.config.OverdueSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Overdue sweep loop stopping")
			return
		case <-ticker.C:
			s.execute(ctx)
		}
	}
}

// execute runs one sweep; it returns false when another sweep is still in flight
func (s *OverdueScheduler) execute(ctx context.Context) (*SweepResult, bool) {
	if !s.sweeping.CompareAndSwap(false, true) {
		s.logger.Debug("Skipping overdue sweep, previous run still in progress")
		return nil, false
	}
	defer s.sweeping.Store(false)

	runCtx := ctx
	if s.config.JobTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.config.JobTimeout)
		defer cancel()
	}

	startedAt := time.Now()
	asOf := s.now()
	marked, err := s.sweeper.SweepOverdue(runCtx, asOf, s.config.OverdueBatchSize)
	result := &SweepResult{
		StartedAt: startedAt,
		Duration:  time.Since(startedAt),
		Marked:    marked,
		Err:       err,
	}

	if err != nil {
		s.logger.Error("Overdue sweep failed",
			zap.Time("as_of", asOf),
			zap.Int("marked", marked),
			zap.Duration("duration", result.Duration),
			zap.Error(err),
		)
	} else {
		s.logger.Debug("Overdue sweep completed",
			zap.Time("as_of", asOf),
			zap.Int("marked", marked),
			zap.Duration("duration", result.Duration),
		)
	}

	s.lastMu.Lock()
	s.last = result
	s.lastMu.Unlock()
	s.runs.Add(1)
	return result, true
}
