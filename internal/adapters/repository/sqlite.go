package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/healthrix/internal/domain/model"
	"github.com/okian/healthrix/pkg/metrics"

	_ "modernc.org/sqlite"
)

const currentSchemaVersion = 1

const activityColumns = `date, emp_id, task_name, count, patient_id, duration_minutes, idle_hours, conduct_flag, notes`

// SQLiteStore implements ActivityStore and ScoreSink on a SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path and migrates it.
func NewSQLiteStore(path string, opts ...SQLiteOption) (*SQLiteStore, error) {
	o := sqliteOptions{busyTimeout: 5 * time.Second, journalMode: "WAL"}
	for _, opt := range opts {
		opt(&o)
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// one connection keeps :memory: databases shared and serializes writers
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=" + o.journalMode,
		"PRAGMA foreign_keys=ON",
		fmt.Sprintf("PRAGMA busy_timeout=%d", o.busyTimeout.Milliseconds()),
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// NewSQLiteMemory creates an in-memory store for testing.
func NewSQLiteMemory() (*SQLiteStore, error) {
	return NewSQLiteStore(":memory:")
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}
	if version >= currentSchemaVersion {
		return nil
	}
	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}
	_, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion))
	return err
}

func (s *SQLiteStore) migrateV1() error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS employees (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		emp_id      TEXT NOT NULL UNIQUE,
		name        TEXT NOT NULL,
		department  TEXT NOT NULL DEFAULT '',
		role        TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS activities (
		id               INTEGER PRIMARY KEY AUTOINCREMENT,
		date             TEXT NOT NULL,
		emp_id           TEXT NOT NULL,
		task_name        TEXT NOT NULL,
		count            INTEGER NOT NULL DEFAULT 1,
		patient_id       TEXT NOT NULL DEFAULT '',
		duration_minutes INTEGER NOT NULL DEFAULT 0,
		idle_hours       REAL NOT NULL DEFAULT 0,
		conduct_flag     INTEGER NOT NULL DEFAULT 0,
		notes            TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_activities_emp_date ON activities(emp_id, date);
	CREATE INDEX IF NOT EXISTS idx_activities_date     ON activities(date);
	CREATE INDEX IF NOT EXISTS idx_activities_task     ON activities(task_name);

	CREATE TABLE IF NOT EXISTS daily_metrics (
		emp_id        TEXT NOT NULL,
		date          TEXT NOT NULL,
		idle_hours    REAL NOT NULL DEFAULT 0,
		conduct_flag  INTEGER NOT NULL DEFAULT 0,
		conduct_notes TEXT NOT NULL DEFAULT '',
		supervisor    TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (emp_id, date)
	);

	CREATE TABLE IF NOT EXISTS performance_scores (
		score_id                TEXT PRIMARY KEY,
		emp_id                  TEXT NOT NULL,
		name                    TEXT NOT NULL,
		date                    TEXT NOT NULL,
		total_task_points       REAL NOT NULL,
		productivity_percentage REAL NOT NULL,
		weighted_prod_score     REAL NOT NULL,
		behavior_score_raw      REAL NOT NULL,
		weighted_behavior_score REAL NOT NULL,
		final_performance       REAL NOT NULL,
		idle_hours              REAL NOT NULL,
		conduct_flag            INTEGER NOT NULL,
		task_count              INTEGER NOT NULL,
		task_breakdown          TEXT NOT NULL DEFAULT '{}',
		calculated_at           TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_scores_date ON performance_scores(date);
	`
	_, err := s.db.Exec(ddl)
	return err
}

// Add appends one validated entry.
func (s *SQLiteStore) Add(ctx context.Context, e model.ActivityEntry) error {
	return s.AddMany(ctx, []model.ActivityEntry{e})
}

// AddMany appends entries in one transaction.
func (s *SQLiteStore) AddMany(ctx context.Context, entries []model.ActivityEntry) error {
	return s.writeActivities(ctx, entries, false)
}

// ReplaceDates deletes the days covered by entries and inserts entries in
// one transaction.
func (s *SQLiteStore) ReplaceDates(ctx context.Context, entries []model.ActivityEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return s.writeActivities(ctx, entries, true)
}

func (s *SQLiteStore) writeActivities(ctx context.Context, entries []model.ActivityEntry, replace bool) error {
	for _, e := range entries {
		if err := checkEntry(e); err != nil {
			return err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if replace {
		seen := make(map[string]struct{})
		for _, e := range entries {
			if _, ok := seen[e.Date]; ok {
				continue
			}
			seen[e.Date] = struct{}{}
			if _, err := tx.ExecContext(ctx, `DELETE FROM activities WHERE date = ?`, e.Date); err != nil {
				return fmt.Errorf("replace %s: %w", e.Date, err)
			}
		}
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO activities (`+activityColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.Date, e.EmployeeID, e.TaskName, e.Count, e.PatientID,
			e.DurationMinutes, e.IdleHours, e.ConductFlag, e.Notes); err != nil {
			return fmt.Errorf("insert activity: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	metrics.RecordActivitiesImported(len(entries))
	return nil
}

// RegisterEmployee upserts by employee ID, keeping the first registration order.
func (s *SQLiteStore) RegisterEmployee(ctx context.Context, emp model.Employee) error {
	if err := validateEmployee(emp); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO employees (emp_id, name, department, role) VALUES (?, ?, ?, ?)
		 ON CONFLICT(emp_id) DO UPDATE SET name = excluded.name, department = excluded.department, role = excluded.role`,
		emp.ID, emp.Name, emp.Department, emp.Role,
	)
	if err != nil {
		return fmt.Errorf("register employee %s: %w", emp.ID, err)
	}
	return nil
}

// RecordDailyMetric upserts the behavioural record for an employee-day.
func (s *SQLiteStore) RecordDailyMetric(ctx context.Context, m model.DailyMetric) error {
	if err := m.Validate(); err != nil {
		recordValidation(err)
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO daily_metrics (emp_id, date, idle_hours, conduct_flag, conduct_notes, supervisor) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(emp_id, date) DO UPDATE SET idle_hours = excluded.idle_hours, conduct_flag = excluded.conduct_flag,
		 conduct_notes = excluded.conduct_notes, supervisor = excluded.supervisor`,
		m.EmployeeID, m.Date, m.IdleHours, m.ConductFlag, m.ConductNotes, m.Supervisor,
	)
	if err != nil {
		return fmt.Errorf("record daily metric: %w", err)
	}
	return nil
}

// Employee looks up a registered employee.
func (s *SQLiteStore) Employee(ctx context.Context, id string) (model.Employee, bool, error) {
	var emp model.Employee
	err := s.db.QueryRowContext(ctx,
		`SELECT emp_id, name, department, role FROM employees WHERE emp_id = ?`, id,
	).Scan(&emp.ID, &emp.Name, &emp.Department, &emp.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Employee{}, false, nil
	}
	if err != nil {
		return model.Employee{}, false, fmt.Errorf("get employee %s: %w", id, err)
	}
	return emp, true, nil
}

// Employees returns every registered employee in registration order.
func (s *SQLiteStore) Employees(ctx context.Context) ([]model.Employee, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT emp_id, name, department, role FROM employees ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	defer rows.Close()

	var out []model.Employee
	for rows.Next() {
		var emp model.Employee
		if err := rows.Scan(&emp.ID, &emp.Name, &emp.Department, &emp.Role); err != nil {
			return nil, err
		}
		out = append(out, emp)
	}
	return out, rows.Err()
}

// DailyMetric returns the behavioural record for an employee-day, if any.
func (s *SQLiteStore) DailyMetric(ctx context.Context, employeeID, date string) (model.DailyMetric, bool, error) {
	m := model.DailyMetric{EmployeeID: employeeID, Date: date}
	err := s.db.QueryRowContext(ctx,
		`SELECT idle_hours, conduct_flag, conduct_notes, supervisor FROM daily_metrics WHERE emp_id = ? AND date = ?`,
		employeeID, date,
	).Scan(&m.IdleHours, &m.ConductFlag, &m.ConductNotes, &m.Supervisor)
	if errors.Is(err, sql.ErrNoRows) {
		return model.DailyMetric{}, false, nil
	}
	if err != nil {
		return model.DailyMetric{}, false, fmt.Errorf("get daily metric: %w", err)
	}
	return m, true, nil
}

// ForEmployee filters by employee within an inclusive, optionally open range.
func (s *SQLiteStore) ForEmployee(ctx context.Context, employeeID, start, end string) ([]model.ActivityEntry, error) {
	if err := validateRange(start, end); err != nil {
		return nil, err
	}
	return s.queryEntries(ctx,
		`WHERE emp_id = ? AND (? = '' OR date >= ?) AND (? = '' OR date <= ?)`,
		employeeID, start, start, end, end,
	)
}

// ForEmployeeOnDate returns one employee's rows for a day.
func (s *SQLiteStore) ForEmployeeOnDate(ctx context.Context, employeeID, date string) ([]model.ActivityEntry, error) {
	return s.queryEntries(ctx, `WHERE emp_id = ? AND date = ?`, employeeID, date)
}

// ForDate returns every row logged on date.
func (s *SQLiteStore) ForDate(ctx context.Context, date string) ([]model.ActivityEntry, error) {
	return s.queryEntries(ctx, `WHERE date = ?`, date)
}

// ForDateRange returns every row with start <= date <= end.
func (s *SQLiteStore) ForDateRange(ctx context.Context, start, end string) ([]model.ActivityEntry, error) {
	if err := validateRange(start, end); err != nil {
		return nil, err
	}
	return s.queryEntries(ctx, `WHERE (? = '' OR date >= ?) AND (? = '' OR date <= ?)`, start, start, end, end)
}

// ForTask returns every row for a task name.
func (s *SQLiteStore) ForTask(ctx context.Context, taskName string) ([]model.ActivityEntry, error) {
	return s.queryEntries(ctx, `WHERE task_name = ?`, taskName)
}

func (s *SQLiteStore) queryEntries(ctx context.Context, where string, args ...any) ([]model.ActivityEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+activityColumns+` FROM activities `+where+` ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("query activities: %w", err)
	}
	defer rows.Close()

	var out []model.ActivityEntry
	for rows.Next() {
		var e model.ActivityEntry
		if err := rows.Scan(&e.Date, &e.EmployeeID, &e.TaskName, &e.Count, &e.PatientID,
			&e.DurationMinutes, &e.IdleHours, &e.ConductFlag, &e.Notes); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// DateSpan returns the earliest and latest logged dates.
func (s *SQLiteStore) DateSpan(ctx context.Context) (string, string, bool, error) {
	var minDate, maxDate sql.NullString
	if err := s.db.QueryRowContext(ctx, `SELECT MIN(date), MAX(date) FROM activities`).Scan(&minDate, &maxDate); err != nil {
		return "", "", false, fmt.Errorf("date span: %w", err)
	}
	if !minDate.Valid {
		return "", "", false, nil
	}
	return minDate.String, maxDate.String, true, nil
}

// Len returns the number of stored entries.
func (s *SQLiteStore) Len(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM activities`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count activities: %w", err)
	}
	return n, nil
}

// Clear drops every entry and daily metric.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	for _, stmt := range []string{`DELETE FROM activities`, `DELETE FROM daily_metrics`} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clear: %w", err)
		}
	}
	return tx.Commit()
}

// SaveScores upserts scores keyed by SCR_<emp>_<yyyymmdd>.
func (s *SQLiteStore) SaveScores(ctx context.Context, scores []model.PerformanceScore) error {
	start := time.Now()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO performance_scores (
			score_id, emp_id, name, date, total_task_points, productivity_percentage, weighted_prod_score,
			behavior_score_raw, weighted_behavior_score, final_performance, idle_hours, conduct_flag,
			task_count, task_breakdown, calculated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(score_id) DO UPDATE SET
			name = excluded.name,
			total_task_points = excluded.total_task_points,
			productivity_percentage = excluded.productivity_percentage,
			weighted_prod_score = excluded.weighted_prod_score,
			behavior_score_raw = excluded.behavior_score_raw,
			weighted_behavior_score = excluded.weighted_behavior_score,
			final_performance = excluded.final_performance,
			idle_hours = excluded.idle_hours,
			conduct_flag = excluded.conduct_flag,
			task_count = excluded.task_count,
			task_breakdown = excluded.task_breakdown,
			calculated_at = excluded.calculated_at`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, sc := range scores {
		breakdown, err := json.Marshal(sc.TaskBreakdown)
		if err != nil {
			return fmt.Errorf("marshal breakdown: %w", err)
		}
		if _, err := stmt.ExecContext(ctx,
			sc.ID(), sc.EmployeeID, sc.Name, sc.Date, sc.TotalTaskPoints, sc.ProductivityPercentage,
			sc.WeightedProductivityScore, sc.BehaviorScoreRaw, sc.WeightedBehaviorScore, sc.FinalPerformance,
			sc.IdleHours, sc.ConductFlag, sc.TaskCount(), string(breakdown), now,
		); err != nil {
			metrics.RecordSinkError("sqlite")
			return fmt.Errorf("upsert score %s: %w", sc.ID(), err)
		}
	}
	if err := tx.Commit(); err != nil {
		metrics.RecordSinkError("sqlite")
		return fmt.Errorf("commit: %w", err)
	}
	metrics.RecordSinkWrite("sqlite", len(scores), float64(time.Since(start).Microseconds())/1000)
	return nil
}

// ScoresForDate reads persisted scores for a day, best first.
func (s *SQLiteStore) ScoresForDate(ctx context.Context, date string) ([]model.PerformanceScore, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT emp_id, name, date, total_task_points, productivity_percentage, weighted_prod_score,
		       behavior_score_raw, weighted_behavior_score, final_performance, idle_hours, conduct_flag, task_breakdown
		FROM performance_scores WHERE date = ? ORDER BY final_performance DESC, emp_id`, date)
	if err != nil {
		return nil, fmt.Errorf("query scores: %w", err)
	}
	defer rows.Close()

	var out []model.PerformanceScore
	for rows.Next() {
		var sc model.PerformanceScore
		var breakdown string
		if err := rows.Scan(&sc.EmployeeID, &sc.Name, &sc.Date, &sc.TotalTaskPoints, &sc.ProductivityPercentage,
			&sc.WeightedProductivityScore, &sc.BehaviorScoreRaw, &sc.WeightedBehaviorScore, &sc.FinalPerformance,
			&sc.IdleHours, &sc.ConductFlag, &breakdown); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		if err := json.Unmarshal([]byte(breakdown), &sc.TaskBreakdown); err != nil {
			return nil, fmt.Errorf("decode breakdown: %w", err)
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}
