// Package scheduler drives periodic carrier reconciliation. It owns the
// ticker, the auto-refresh toggle and the guard that keeps at most one
// pass running per process.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shopadmin/backend/internal/domain/reconciliation"
	"github.com/shopadmin/backend/internal/domain/shared"
)

var (
	ErrInvalidConfig       = errors.New("invalid scheduler configuration")
	ErrReconcileInProgress = errors.New("reconciliation already in progress")
	// ErrRunNotFound means the run is in neither the history nor the store
	ErrRunNotFound = errors.New("reconciliation run not found")
)

// BatchRunner executes one reconciliation pass
type BatchRunner interface {
	RunBatch(ctx context.Context, trigger reconciliation.Trigger) (*reconciliation.Report, error)
}

// ReconcileSchedulerConfig holds configuration for the reconcile scheduler
type ReconcileSchedulerConfig struct {
	// Interval between scheduled passes
	Interval time.Duration
	// AutoRefreshDefault applies when no setting has been persisted yet
	AutoRefreshDefault bool
	// RunTimeout bounds a single pass
	RunTimeout time.Duration
	// HistorySize is the number of reports kept in memory
	HistorySize int
	// SaveTimeout bounds persisting a finished report
	SaveTimeout time.Duration
}

// DefaultReconcileSchedulerConfig returns default configuration
func DefaultReconcileSchedulerConfig() ReconcileSchedulerConfig {
	return ReconcileSchedulerConfig{
		Interval:           15 * time.Minute,
		AutoRefreshDefault: true,
		RunTimeout:         10 * time.Minute,
		HistorySize:        100,
		SaveTimeout:        10 * time.Second,
	}
}

// Validate validates the configuration
func (c *ReconcileSchedulerConfig) Validate() error {
	if c.Interval <= 0 {
		return ErrInvalidConfig
	}
	if c.RunTimeout <= 0 {
		return ErrInvalidConfig
	}
	if c.HistorySize <= 0 {
		return ErrInvalidConfig
	}
	if c.SaveTimeout <= 0 {
		c.SaveTimeout = 10 * time.Second
	}
	return nil
}

// Status is a point-in-time view of the scheduler
type Status struct {
	Running     bool                   `json:"running"`
	InProgress  bool                   `json:"in_progress"`
	Trigger     reconciliation.Trigger `json:"current_trigger,omitempty"`
	StartedAt   *time.Time             `json:"current_started_at,omitempty"`
	AutoRefresh bool                   `json:"auto_refresh"`
	Interval    time.Duration          `json:"interval"`
	NextRunAt   *time.Time             `json:"next_run_at,omitempty"`
	LastRun     *reconciliation.Report `json:"last_run,omitempty"`
}

// ReconcileScheduler runs reconciliation passes on a fixed interval while
// auto-refresh is enabled, and on demand
type ReconcileScheduler struct {
	config   ReconcileSchedulerConfig
	runner   BatchRunner
	runs     reconciliation.RunRepository
	settings reconciliation.SettingsRepository
	logger   *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	nextRunAt time.Time

	// held for the whole pass; TryLock decides skip vs run
	passMu sync.Mutex

	stateMu     sync.RWMutex
	autoRefresh bool
	current     *reconciliation.Trigger
	startedAt   time.Time

	historyMu  sync.RWMutex
	history    []*reconciliation.Report
	maxHistory int
}

// NewReconcileScheduler creates a new reconcile scheduler. runs and settings
// may be nil, in which case reports live only in memory and the toggle is
// not persisted.
func NewReconcileScheduler(
	config ReconcileSchedulerConfig,
	runner BatchRunner,
	runs reconciliation.RunRepository,
	settings reconciliation.SettingsRepository,
	logger *zap.Logger,
) (*ReconcileScheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if runner == nil {
		return nil, fmt.Errorf("%w: runner is required", ErrInvalidConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ReconcileScheduler{
		config:      config,
		runner:      runner,
		runs:        runs,
		settings:    settings,
		logger:      logger,
		autoRefresh: config.AutoRefreshDefault,
		history:     make([]*reconciliation.Report, 0, config.HistorySize),
		maxHistory:  config.HistorySize,
	}, nil
}

// Start loads the persisted toggle and starts the ticker loop. The first
// scheduled pass happens one interval after Start.
func (s *ReconcileScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.nextRunAt = time.Now().Add(s.config.Interval)
	s.mu.Unlock()

	s.loadSettings(ctx)

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.runLoop(ctx)

	s.logger.Info("Reconcile scheduler started",
		zap.Duration("interval", s.config.Interval),
		zap.Duration("run_timeout", s.config.RunTimeout),
		zap.Bool("auto_refresh", s.AutoRefresh()),
	)
	return nil
}

// Stop stops the ticker. A scheduled pass in flight sees its context
// cancelled and finishes with a failed report.
func (s *ReconcileScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Reconcile scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Reconcile scheduler stop timed out")
		return ctx.Err()
	}
}

func (s *ReconcileScheduler) loadSettings(ctx context.Context) {
	if s.settings == nil {
		return
	}
	stored, ok, err := s.settings.Get(ctx)
	if err != nil {
		s.logger.Warn("Failed to load reconcile settings, using default",
			zap.Bool("auto_refresh", s.config.AutoRefreshDefault),
			zap.Error(err),
		)
		return
	}
	if !ok {
		return
	}
	s.stateMu.Lock()
	s.autoRefresh = stored.AutoRefresh
	s.stateMu.Unlock()
}

func (s *ReconcileScheduler) runLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Reconcile scheduler loop stopping")
			return
		case now := <-ticker.C:
			s.mu.Lock()
			s.nextRunAt = now.Add(s.config.Interval)
			s.mu.Unlock()
			s.tick(ctx)
		}
	}
}

func (s *ReconcileScheduler) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if !s.AutoRefresh() {
		s.logger.Debug("Auto-refresh disabled, skipping scheduled reconcile")
		return
	}
	if !s.passMu.TryLock() {
		s.logger.Info("Reconcile already in progress, skipping scheduled tick")
		return
	}
	defer s.passMu.Unlock()

	runCtx, cancel := context.WithTimeout(ctx, s.config.RunTimeout)
	defer cancel()

	_, _ = s.execute(runCtx, reconciliation.TriggerScheduled)
}

// RunNow runs an on-demand pass and waits for it. The pass is detached from
// ctx cancellation so a dropped client does not abort it halfway; it is
// still bounded by RunTimeout. Returns ErrReconcileInProgress if a pass is
// already running.
func (s *ReconcileScheduler) RunNow(ctx context.Context) (*reconciliation.Report, error) {
	if !s.passMu.TryLock() {
		return nil, ErrReconcileInProgress
	}
	defer s.passMu.Unlock()

	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.RunTimeout)
	defer cancel()

	return s.execute(runCtx, reconciliation.TriggerOnDemand)
}

func (s *ReconcileScheduler) execute(ctx context.Context, trigger reconciliation.Trigger) (*reconciliation.Report, error) {
	s.stateMu.Lock()
	s.current = &trigger
	s.startedAt = time.Now()
	s.stateMu.Unlock()

	defer func() {
		s.stateMu.Lock()
		s.current = nil
		s.startedAt = time.Time{}
		s.stateMu.Unlock()
	}()

	report, err := s.runner.RunBatch(ctx, trigger)
	if report != nil {
		s.addToHistory(report)
		s.persist(ctx, report)
	}
	if err != nil {
		s.logger.Error("Reconcile pass failed",
			zap.String("trigger", trigger.String()),
			zap.Error(err),
		)
	}
	return report, err
}

// persist saves the report on a context that survives cancellation of the
// pass, so aborted runs are still recorded
func (s *ReconcileScheduler) persist(ctx context.Context, report *reconciliation.Report) {
	if s.runs == nil {
		return
	}
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.SaveTimeout)
	defer cancel()

	if err := s.runs.Save(saveCtx, report); err != nil {
		s.logger.Error("Failed to persist reconcile report",
			zap.String("run_id", report.RunID.String()),
			zap.Error(err),
		)
	}
}

// AutoRefresh reports whether scheduled passes are enabled
func (s *ReconcileScheduler) AutoRefresh() bool {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.autoRefresh
}

// SetAutoRefresh toggles scheduled passes and persists the choice. The
// in-memory value only changes once the store accepted it.
func (s *ReconcileScheduler) SetAutoRefresh(ctx context.Context, enabled bool, updatedBy string) (reconciliation.Settings, error) {
	settings := reconciliation.Settings{
		AutoRefresh: enabled,
		UpdatedAt:   time.Now(),
		UpdatedBy:   updatedBy,
	}
	if s.settings != nil {
		if err := s.settings.Save(ctx, settings); err != nil {
			return reconciliation.Settings{}, fmt.Errorf("failed to save reconcile settings: %w", err)
		}
	}

	s.stateMu.Lock()
	s.autoRefresh = enabled
	s.stateMu.Unlock()

	s.logger.Info("Reconcile auto-refresh changed",
		zap.Bool("auto_refresh", enabled),
		zap.String("updated_by", updatedBy),
	)
	return settings, nil
}

// Status returns the current scheduler state
func (s *ReconcileScheduler) Status() Status {
	st := Status{Interval: s.config.Interval}

	s.mu.Lock()
	st.Running = s.isRunning
	if s.isRunning {
		next := s.nextRunAt
		st.NextRunAt = &next
	}
	s.mu.Unlock()

	s.stateMu.RLock()
	st.AutoRefresh = s.autoRefresh
	if s.current != nil {
		st.InProgress = true
		st.Trigger = *s.current
		started := s.startedAt
		st.StartedAt = &started
	}
	s.stateMu.RUnlock()

	if !st.AutoRefresh {
		st.NextRunAt = nil
	}
	if recent := s.History(1); len(recent) == 1 {
		st.LastRun = summary(recent[0])
	}
	return st
}

// History returns up to limit reports kept in memory, newest first
func (s *ReconcileScheduler) History(limit int) []*reconciliation.Report {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()

	if limit <= 0 || limit > len(s.history) {
		limit = len(s.history)
	}
	result := make([]*reconciliation.Report, limit)
	copy(result, s.history[:limit])
	return result
}

// RecentRuns returns the latest run summaries, newest first. The store is
// authoritative; memory is used when no store is configured.
func (s *ReconcileScheduler) RecentRuns(ctx context.Context, limit int) ([]reconciliation.Report, error) {
	if s.runs != nil {
		return s.runs.FindRecent(ctx, limit)
	}
	recent := s.History(limit)
	reports := make([]reconciliation.Report, 0, len(recent))
	for _, r := range recent {
		reports = append(reports, *summary(r))
	}
	return reports, nil
}

// GetRun returns a run with its outcomes
func (s *ReconcileScheduler) GetRun(ctx context.Context, id uuid.UUID) (*reconciliation.Report, error) {
	s.historyMu.RLock()
	for _, r := range s.history {
		if r.RunID == id {
			s.historyMu.RUnlock()
			return r, nil
		}
	}
	s.historyMu.RUnlock()

	if s.runs == nil {
		return nil, ErrRunNotFound
	}
	report, err := s.runs.FindByID(ctx, id)
	if err != nil {
		if shared.HasCode(err, shared.CodeNotFound) {
			return nil, ErrRunNotFound
		}
		return nil, err
	}
	return report, nil
}

func (s *ReconcileScheduler) addToHistory(report *reconciliation.Report) {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()

	s.history = append([]*reconciliation.Report{report}, s.history...)
	if len(s.history) > s.maxHistory {
		s.history = s.history[:s.maxHistory]
	}
}

// summary copies a report without its outcomes
func summary(r *reconciliation.Report) *reconciliation.Report {
	c := *r
	c.Outcomes = nil
	return &c
}
