package repository

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/okian/healthrix/internal/domain/model"
)

type execCall struct {
	sql  string
	args []any
}

type fakeExecer struct {
	calls []execCall
	err   error
}

func (f *fakeExecer) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.calls = append(f.calls, execCall{sql: sql, args: args})
	if f.err != nil {
		return pgconn.CommandTag{}, f.err
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func TestPostgresScoreSink_SaveScores(t *testing.T) {
	fake := &fakeExecer{}
	sink := NewPostgresScoreSink(fake)
	fixed := time.Date(2025, 11, 3, 18, 0, 0, 0, time.UTC)
	sink.now = func() time.Time { return fixed }

	err := sink.SaveScores(context.Background(), []model.PerformanceScore{
		sampleScore("EMP001", "2025-11-03", 97.75),
		sampleScore("EMP002", "2025-11-03", 80),
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if len(fake.calls) != 2 {
		t.Fatalf("expected 2 upserts, got %d", len(fake.calls))
	}

	call := fake.calls[0]
	if !strings.Contains(call.sql, "ON CONFLICT (score_id) DO UPDATE") {
		t.Errorf("expected upsert statement, got %s", call.sql)
	}
	if call.args[0] != "SCR_EMP001_20251103" {
		t.Errorf("unexpected score id %v", call.args[0])
	}
	if call.args[9] != 97.75 {
		t.Errorf("unexpected final performance %v", call.args[9])
	}
	if call.args[12] != 11 {
		t.Errorf("unexpected task count %v", call.args[12])
	}
	if call.args[14] != fixed {
		t.Errorf("unexpected calculated_at %v", call.args[14])
	}
}

func TestPostgresScoreSink_PropagatesErrors(t *testing.T) {
	boom := errors.New("connection reset")
	sink := NewPostgresScoreSink(&fakeExecer{err: boom})

	err := sink.SaveScores(context.Background(), []model.PerformanceScore{sampleScore("EMP001", "2025-11-03", 90)})
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped driver error, got %v", err)
	}
	if err := sink.EnsureSchema(context.Background()); !errors.Is(err, boom) {
		t.Errorf("expected wrapped schema error, got %v", err)
	}
}
