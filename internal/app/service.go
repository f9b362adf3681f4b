// Package service wires the activity store, scoring engine, worker pool and
// score sinks into the operations the CLI exposes.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/healthrix/internal/adapters/mq/publisher"
	"github.com/okian/healthrix/internal/adapters/mq/queue"
	"github.com/okian/healthrix/internal/adapters/mq/worker"
	"github.com/okian/healthrix/internal/adapters/repository"
	"github.com/okian/healthrix/internal/domain/aggregate"
	"github.com/okian/healthrix/internal/domain/model"
	"github.com/okian/healthrix/internal/domain/scoring"
	"github.com/okian/healthrix/internal/domain/standards"
	"github.com/okian/healthrix/pkg/logger"
	"github.com/okian/healthrix/pkg/metrics"
)

// Sentinel errors.
var (
	ErrSink       = errors.New("score sink failed")
	ErrNotStarted = errors.New("service not started")
)

// Batch is one scored day.
type Batch struct {
	RunID  string                   `json:"run_id"`
	Date   string                   `json:"date"`
	Scores []model.PerformanceScore `json:"scores"`
}

// Service owns the scoring pipeline.
type Service struct {
	mu sync.RWMutex

	// Core components
	store    repository.ActivityStore
	registry *standards.Registry
	engine   *scoring.Engine
	pool     *worker.Pool
	sinks    []repository.ScoreSink

	// Configuration
	workerCount     int
	scoringConfig   scoring.Config
	thresholds      aggregate.Thresholds
	metricsTextfile string

	// State
	started bool
	runs    int
	lastRun string

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of scoring workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithStore replaces the default in-memory store.
func WithStore(store repository.ActivityStore) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithRegistry replaces the built-in standards.
func WithRegistry(r *standards.Registry) Option {
	return func(s *Service) {
		if r != nil {
			s.registry = r
		}
	}
}

// WithSink adds a destination for ScoreDay batches.
func WithSink(sink repository.ScoreSink) Option {
	return func(s *Service) {
		if sink != nil {
			s.sinks = append(s.sinks, sink)
		}
	}
}

// WithScoringConfig sets the formula parameters.
func WithScoringConfig(cfg scoring.Config) Option {
	return func(s *Service) { s.scoringConfig = cfg }
}

// WithThresholds sets the distribution bands and alert limits.
func WithThresholds(th aggregate.Thresholds) Option {
	return func(s *Service) { s.thresholds = th }
}

// WithMetricsTextfile dumps metrics to path after every ScoreDay.
func WithMetricsTextfile(path string) Option {
	return func(s *Service) { s.metricsTextfile = path }
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:   runtime.NumCPU(),
		scoringConfig: scoring.DefaultConfig(),
		thresholds:    aggregate.DefaultThresholds(),
		logger:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the engine and worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if err := s.thresholds.Validate(); err != nil {
		return err
	}

	if s.store == nil {
		s.store = repository.NewMemoryStore()
	}
	if s.registry == nil {
		reg, err := standards.New()
		if err != nil {
			return fmt.Errorf("load standards: %w", err)
		}
		s.registry = reg
	}

	engine, err := scoring.NewEngine(s.registry, s.store,
		scoring.WithConfig(s.scoringConfig),
		scoring.WithLogger(s.logger.Named("engine")),
	)
	if err != nil {
		return err
	}
	s.engine = engine
	s.pool = worker.NewPool(s.workerCount, engine, worker.WithPoolLogger(s.logger.Named("pool")))

	s.started = true
	s.logger.Info(ctx, "service started",
		logger.Int("workers", s.workerCount),
		logger.Int("standards", s.registry.Len()),
		logger.Int("sinks", len(s.sinks)),
	)
	return nil
}

// Stop closes the store and every sink that holds resources.
func (s *Service) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	var errs []error
	for _, sink := range s.sinks {
		if c, ok := sink.(io.Closer); ok && any(sink) != any(s.store) {
			errs = append(errs, c.Close())
		}
	}
	if c, ok := s.store.(io.Closer); ok {
		errs = append(errs, c.Close())
	}

	s.started = false
	s.logger.Info(context.Background(), "service stopped")
	return errors.Join(errs...)
}

func (s *Service) running() (*scoring.Engine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.engine, nil
}

// Store returns the activity store for imports.
func (s *Service) Store() repository.ActivityStore {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store
}

// Registry returns the task standards in use.
func (s *Service) Registry() *standards.Registry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry
}

// Thresholds returns the configured bands and alert limits.
func (s *Service) Thresholds() aggregate.Thresholds {
	return s.thresholds
}

// ScoreDay scores every employee with activity on date on the worker pool
// and hands the batch to each sink. Sink failures are returned wrapped in
// ErrSink together with the computed batch.
func (s *Service) ScoreDay(ctx context.Context, date string) (Batch, error) {
	if _, err := s.running(); err != nil {
		return Batch{}, err
	}
	if !model.ValidDate(date) {
		return Batch{}, &model.ValidationError{Field: "date", Value: date, Reason: "expected YYYY-MM-DD"}
	}

	start := time.Now()
	entries, err := s.store.ForDate(ctx, date)
	if err != nil {
		return Batch{}, fmt.Errorf("load activities for %s: %w", date, err)
	}

	var jobs []queue.Job
	seen := make(map[string]struct{})
	for _, e := range entries {
		if _, ok := seen[e.EmployeeID]; ok {
			continue
		}
		seen[e.EmployeeID] = struct{}{}
		jobs = append(jobs, queue.Job{EmployeeID: e.EmployeeID, Date: date})
	}

	scores, err := s.pool.Run(ctx, jobs)
	if err != nil {
		return Batch{}, err
	}
	if scores == nil {
		scores = []model.PerformanceScore{}
	}

	batch := Batch{RunID: uuid.NewString(), Date: date, Scores: scores}
	metrics.UpdateEmployeesScored(len(scores))
	metrics.RecordCalculationLatency(float64(time.Since(start).Microseconds()) / 1000)

	s.mu.Lock()
	s.runs++
	s.lastRun = batch.RunID
	s.mu.Unlock()

	s.logger.Info(ctx, "day scored",
		logger.String("run_id", batch.RunID),
		logger.String("date", date),
		logger.Int("employees", len(scores)),
	)

	sinkErr := s.publish(publisher.WithRunID(ctx, batch.RunID), batch)
	s.dumpMetrics(ctx)
	return batch, sinkErr
}

func (s *Service) publish(ctx context.Context, batch Batch) error {
	if len(batch.Scores) == 0 {
		return nil
	}
	var errs []error
	for _, sink := range s.sinks {
		if err := sink.SaveScores(ctx, batch.Scores); err != nil {
			s.logger.Warn(ctx, "sink failed",
				logger.String("run_id", batch.RunID),
				logger.String("sink", fmt.Sprintf("%T", sink)),
				logger.Error(err),
			)
			metrics.RecordErrorByComponent("service", "sink_error")
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrSink, errors.Join(errs...))
	}
	return nil
}

func (s *Service) dumpMetrics(ctx context.Context) {
	if s.metricsTextfile == "" {
		return
	}
	if err := metrics.WriteTextfile(s.metricsTextfile); err != nil {
		s.logger.Warn(ctx, "metrics textfile not written",
			logger.String("path", s.metricsTextfile),
			logger.Error(err),
		)
	}
}

// ScoreEmployee scores one employee-day; ok is false when there is no activity.
func (s *Service) ScoreEmployee(ctx context.Context, employeeID, date string) (model.PerformanceScore, bool, error) {
	engine, err := s.running()
	if err != nil {
		return model.PerformanceScore{}, false, err
	}
	return engine.CalculateEmployee(ctx, employeeID, date)
}

// ScoreRange scores every active date in [start, end].
func (s *Service) ScoreRange(ctx context.Context, start, end string) (scoring.DateRange, error) {
	engine, err := s.running()
	if err != nil {
		return scoring.DateRange{}, err
	}
	return engine.CalculateDateRange(ctx, start, end)
}

// Comparison summarises each active date in [start, end].
func (s *Service) Comparison(ctx context.Context, start, end string) ([]aggregate.DaySummary, error) {
	r, err := s.ScoreRange(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return aggregate.Comparison(r), nil
}

// Trend returns one employee's scores by ascending date.
func (s *Service) Trend(ctx context.Context, employeeID, start, end string) ([]model.PerformanceScore, error) {
	engine, err := s.running()
	if err != nil {
		return nil, err
	}
	return engine.EmployeeTrend(ctx, employeeID, start, end)
}

// Leaderboard ranks the day's scores.
func (s *Service) Leaderboard(ctx context.Context, date string, limit int) ([]aggregate.Ranked, error) {
	engine, err := s.running()
	if err != nil {
		return nil, err
	}
	scores, err := engine.CalculateAll(ctx, date)
	if err != nil {
		return nil, err
	}
	return aggregate.Leaderboard(scores, limit)
}

// Statistics summarises the day's scores and their band distribution.
func (s *Service) Statistics(ctx context.Context, date string) (aggregate.Stats, aggregate.Distribution, error) {
	engine, err := s.running()
	if err != nil {
		return aggregate.Stats{}, aggregate.Distribution{}, err
	}
	scores, err := engine.CalculateAll(ctx, date)
	if err != nil {
		return aggregate.Stats{}, aggregate.Distribution{}, err
	}
	return aggregate.Statistics(scores), aggregate.Distribute(scores, s.thresholds), nil
}

// Alerts lists the day's scores that breach a threshold.
func (s *Service) Alerts(ctx context.Context, date string) ([]aggregate.Alert, error) {
	engine, err := s.running()
	if err != nil {
		return nil, err
	}
	scores, err := engine.CalculateAll(ctx, date)
	if err != nil {
		return nil, err
	}
	return aggregate.Alerts(scores, s.thresholds), nil
}

// Stats returns service statistics for monitoring.
func (s *Service) Stats(ctx context.Context) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":     s.started,
		"workerCount": s.workerCount,
		"sinks":       len(s.sinks),
		"runs":        s.runs,
		"lastRunID":   s.lastRun,
	}
	if !s.started {
		return stats
	}

	stats["dailyTarget"] = s.engine.Config().DailyTarget
	stats["standards"] = s.registry.Len()
	if n, err := s.store.Len(ctx); err == nil {
		stats["entries"] = n
	}
	if emps, err := s.store.Employees(ctx); err == nil {
		stats["employees"] = len(emps)
	}
	if lo, hi, ok, err := s.store.DateSpan(ctx); err == nil && ok {
		stats["firstDate"] = lo
		stats["lastDate"] = hi
	}
	metrics.UpdateWorkerCount(s.workerCount)
	return stats
}
