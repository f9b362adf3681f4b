package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okian/healthrix/internal/domain/model"
	"github.com/okian/healthrix/pkg/metrics"
)

// Execer is the slice of *pgxpool.Pool the score sink needs.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS performance_scores (
	score_id                TEXT PRIMARY KEY,
	emp_id                  TEXT NOT NULL,
	name                    TEXT NOT NULL,
	date                    DATE NOT NULL,
	total_task_points       DOUBLE PRECISION NOT NULL,
	productivity_percentage DOUBLE PRECISION NOT NULL,
	weighted_prod_score     DOUBLE PRECISION NOT NULL,
	behavior_score_raw      DOUBLE PRECISION NOT NULL,
	weighted_behavior_score DOUBLE PRECISION NOT NULL,
	final_performance       DOUBLE PRECISION NOT NULL,
	idle_hours              DOUBLE PRECISION NOT NULL,
	conduct_flag            SMALLINT NOT NULL,
	task_count              INTEGER NOT NULL,
	task_breakdown          JSONB NOT NULL DEFAULT '{}'::jsonb,
	calculated_at           TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const postgresUpsert = `
INSERT INTO performance_scores (
	score_id, emp_id, name, date, total_task_points, productivity_percentage, weighted_prod_score,
	behavior_score_raw, weighted_behavior_score, final_performance, idle_hours, conduct_flag,
	task_count, task_breakdown, calculated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
ON CONFLICT (score_id) DO UPDATE SET
	name = EXCLUDED.name,
	total_task_points = EXCLUDED.total_task_points,
	productivity_percentage = EXCLUDED.productivity_percentage,
	weighted_prod_score = EXCLUDED.weighted_prod_score,
	behavior_score_raw = EXCLUDED.behavior_score_raw,
	weighted_behavior_score = EXCLUDED.weighted_behavior_score,
	final_performance = EXCLUDED.final_performance,
	idle_hours = EXCLUDED.idle_hours,
	conduct_flag = EXCLUDED.conduct_flag,
	task_count = EXCLUDED.task_count,
	task_breakdown = EXCLUDED.task_breakdown,
	calculated_at = EXCLUDED.calculated_at`

// PostgresScoreSink upserts computed scores into Postgres.
type PostgresScoreSink struct {
	db  Execer
	now func() time.Time
}

// NewPostgresScoreSink wraps an Execer, usually a *pgxpool.Pool.
func NewPostgresScoreSink(db Execer) *PostgresScoreSink {
	return &PostgresScoreSink{db: db, now: time.Now}
}

// ConnectPostgres opens a pool against databaseURL.
func ConnectPostgres(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	return pgxpool.NewWithConfig(ctx, poolCfg)
}

// EnsureSchema creates the score table when missing.
func (s *PostgresScoreSink) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("create performance_scores: %w", err)
	}
	return nil
}

// SaveScores upserts each score by its SCR_ id.
func (s *PostgresScoreSink) SaveScores(ctx context.Context, scores []model.PerformanceScore) error {
	start := time.Now()
	calculatedAt := s.now().UTC()
	for _, sc := range scores {
		breakdown, err := json.Marshal(sc.TaskBreakdown)
		if err != nil {
			return fmt.Errorf("marshal breakdown: %w", err)
		}
		_, err = s.db.Exec(ctx, postgresUpsert,
			sc.ID(), sc.EmployeeID, sc.Name, sc.Date, sc.TotalTaskPoints, sc.ProductivityPercentage,
			sc.WeightedProductivityScore, sc.BehaviorScoreRaw, sc.WeightedBehaviorScore, sc.FinalPerformance,
			sc.IdleHours, sc.ConductFlag, sc.TaskCount(), string(breakdown), calculatedAt,
		)
		if err != nil {
			metrics.RecordSinkError("postgres")
			return fmt.Errorf("upsert score %s: %w", sc.ID(), err)
		}
	}
	metrics.RecordSinkWrite("postgres", len(scores), float64(time.Since(start).Microseconds())/1000)
	return nil
}
