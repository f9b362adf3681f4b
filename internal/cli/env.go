package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/okian/healthrix/internal/adapters/mq/publisher"
	"github.com/okian/healthrix/internal/adapters/repository"
	service "github.com/okian/healthrix/internal/app"
	"github.com/okian/healthrix/internal/config"
	"github.com/okian/healthrix/internal/domain/model"
	"github.com/okian/healthrix/internal/domain/standards"
	"github.com/okian/healthrix/pkg/logger"
)

// env is everything a command needs once flags and config are resolved.
type env struct {
	cfg     *config.Config
	svc     *service.Service
	log     logger.Logger
	closers []func()
}

func (e *env) Close() {
	if e.svc != nil {
		if err := e.svc.Stop(); err != nil {
			e.log.Warn(context.Background(), "shutdown", logger.Error(err))
		}
	}
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
}

// setup loads config, initializes logging on stderr and returns the config.
func setup(cmd *cobra.Command, opts *globalOptions) (*config.Config, logger.Logger, error) {
	cfg, err := config.Load(cmd.Context(), opts.configPath)
	if err != nil {
		return nil, nil, err
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if opts.workers > 0 {
		cfg.WorkerCount = opts.workers
	}
	if opts.standards != "" {
		cfg.StandardsFile = opts.standards
	}
	if opts.db != "" {
		cfg.SQLitePath = opts.db
	}

	if err := logger.InitWithWriter(cmd.ErrOrStderr(), cfg.LogFormat); err != nil {
		return nil, nil, err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		return nil, nil, err
	}
	return cfg, logger.Named("cli"), nil
}

// newEnv builds and starts the service with every configured store and sink.
func newEnv(cmd *cobra.Command, opts *globalOptions) (*env, error) {
	ctx := cmd.Context()
	cfg, log, err := setup(cmd, opts)
	if err != nil {
		return nil, err
	}
	e := &env{cfg: cfg, log: log}

	reg, err := loadStandards(cfg.StandardsFile)
	if err != nil {
		return nil, err
	}

	svcOpts := []service.Option{
		service.WithLogger(logger.Named("service")),
		service.WithRegistry(reg),
		service.WithWorkerCount(cfg.WorkerCount),
		service.WithScoringConfig(cfg.ScoringConfig()),
		service.WithThresholds(cfg.Thresholds()),
		service.WithMetricsTextfile(cfg.MetricsTextfile),
	}

	var store repository.ActivityStore = repository.NewMemoryStore()
	if cfg.SQLitePath != "" {
		db, err := repository.NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		e.closers = append(e.closers, func() { _ = db.Close() })
		store = db
		svcOpts = append(svcOpts, service.WithSink(db))
	}
	svcOpts = append(svcOpts, service.WithStore(store))

	if cfg.PostgresURL != "" {
		pool, err := repository.ConnectPostgres(ctx, cfg.PostgresURL)
		if err != nil {
			e.Close()
			return nil, err
		}
		e.closers = append(e.closers, pool.Close)
		sink := repository.NewPostgresScoreSink(pool)
		if err := sink.EnsureSchema(ctx); err != nil {
			e.Close()
			return nil, err
		}
		svcOpts = append(svcOpts, service.WithSink(sink))
	}

	if brokers := cfg.Brokers(); len(brokers) > 0 {
		pub, err := publisher.NewKafkaPublisher(brokers, cfg.KafkaTopic, publisher.WithLogger(logger.Named("publisher")))
		if err != nil {
			e.Close()
			return nil, err
		}
		svcOpts = append(svcOpts, service.WithSink(pub))
	}

	e.svc = service.New(svcOpts...)
	if err := e.svc.Start(ctx); err != nil {
		e.Close()
		return nil, err
	}

	if err := e.importSheets(ctx, opts); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

// importSheets loads the employee sheet before the activity sheet so names
// resolve, then the daily behavior sheet. Activity days already in the store
// are replaced, so a persistent database can be fed the same sheet again.
// Rejected rows are logged; any other failure aborts.
func (e *env) importSheets(ctx context.Context, opts *globalOptions) error {
	store := e.svc.Store()
	load := []struct {
		path string
		fn   func(context.Context, *os.File, repository.ActivityStore) (int, error)
	}{
		{opts.employees, func(ctx context.Context, f *os.File, s repository.ActivityStore) (int, error) {
			return repository.LoadEmployeesCSV(ctx, f, s)
		}},
		{opts.activities, func(ctx context.Context, f *os.File, s repository.ActivityStore) (int, error) {
			return repository.ReplaceActivitiesCSV(ctx, f, s)
		}},
		{opts.behavior, func(ctx context.Context, f *os.File, s repository.ActivityStore) (int, error) {
			return repository.LoadDailyMetricsCSV(ctx, f, s)
		}},
	}
	for _, l := range load {
		if l.path == "" {
			continue
		}
		n, err := importFile(ctx, l.path, store, l.fn)
		var importErr *repository.ImportError
		switch {
		case errors.As(err, &importErr):
			for _, row := range importErr.Rows {
				e.log.Warn(ctx, "row skipped",
					logger.String("file", l.path),
					logger.Int("line", row.Line),
					logger.Error(row.Err),
				)
			}
		case err != nil:
			return err
		}
		e.log.Info(ctx, "imported", logger.String("file", l.path), logger.Int("rows", n))
	}
	return nil
}

func importFile(ctx context.Context, path string, store repository.ActivityStore,
	fn func(context.Context, *os.File, repository.ActivityStore) (int, error),
) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return fn(ctx, f, store)
}

func loadStandards(path string) (*standards.Registry, error) {
	if path == "" {
		return standards.New()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open standards %s: %w", path, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return standards.LoadCSV(f)
	case ".yaml", ".yml":
		return standards.LoadYAML(f)
	default:
		return nil, fmt.Errorf("standards file %s: want .csv, .yaml or .yml", path)
	}
}

// resolveDate returns date, or the latest logged date when date is empty.
func (e *env) resolveDate(ctx context.Context, date string) (string, error) {
	if date != "" {
		if !model.ValidDate(date) {
			return "", &model.ValidationError{Field: "date", Value: date, Reason: "expected YYYY-MM-DD"}
		}
		return date, nil
	}
	_, last, ok, err := e.svc.Store().DateSpan(ctx)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", errors.New("no activity loaded: pass --activities or --db")
	}
	return last, nil
}
