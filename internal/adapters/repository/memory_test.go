package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/okian/healthrix/internal/domain/model"
)

func mustEntry(t *testing.T, date, emp, task string, opts ...model.EntryOption) model.ActivityEntry {
	t.Helper()
	e, err := model.NewActivityEntry(date, emp, task, opts...)
	if err != nil {
		t.Fatalf("build entry: %v", err)
	}
	return e
}

// stores runs fn against every ActivityStore implementation.
func stores(t *testing.T, fn func(t *testing.T, s ActivityStore)) {
	t.Run("memory", func(t *testing.T) {
		fn(t, NewMemoryStore(WithCapacityHint(16)))
	})
	t.Run("sqlite", func(t *testing.T) {
		s, err := NewSQLiteMemory()
		if err != nil {
			t.Fatalf("open sqlite: %v", err)
		}
		defer s.Close()
		fn(t, s)
	})
}

func TestStore_InsertionOrderAndFilters(t *testing.T) {
	stores(t, func(t *testing.T, s ActivityStore) {
		ctx := context.Background()
		batch := []model.ActivityEntry{
			mustEntry(t, "2025-11-03", "EMP001", "Authorization Created", model.WithCount(8)),
			mustEntry(t, "2025-11-03", "EMP002", "Appeal", model.WithCount(2)),
			mustEntry(t, "2025-11-04", "EMP001", "Appeal"),
			mustEntry(t, "2025-11-03", "EMP001", "Claims Processing", model.WithCount(3), model.WithIdleHours(1.5)),
		}
		if err := s.AddMany(ctx, batch); err != nil {
			t.Fatalf("add many: %v", err)
		}

		n, err := s.Len(ctx)
		if err != nil || n != 4 {
			t.Fatalf("expected 4 entries, got %d (%v)", n, err)
		}

		day, err := s.ForEmployeeOnDate(ctx, "EMP001", "2025-11-03")
		if err != nil {
			t.Fatalf("for employee on date: %v", err)
		}
		if len(day) != 2 || day[0].TaskName != "Authorization Created" || day[1].TaskName != "Claims Processing" {
			t.Errorf("unexpected day rows: %+v", day)
		}
		if day[1].IdleHours != 1.5 {
			t.Errorf("expected idle 1.5, got %v", day[1].IdleHours)
		}

		byDate, _ := s.ForDate(ctx, "2025-11-03")
		if len(byDate) != 3 {
			t.Errorf("expected 3 rows on 2025-11-03, got %d", len(byDate))
		}

		byTask, _ := s.ForTask(ctx, "Appeal")
		if len(byTask) != 2 {
			t.Errorf("expected 2 appeal rows, got %d", len(byTask))
		}

		open, _ := s.ForEmployee(ctx, "EMP001", "", "")
		if len(open) != 3 {
			t.Errorf("expected 3 rows for EMP001 with open range, got %d", len(open))
		}
		bounded, _ := s.ForEmployee(ctx, "EMP001", "2025-11-04", "2025-11-30")
		if len(bounded) != 1 || bounded[0].Date != "2025-11-04" {
			t.Errorf("unexpected bounded rows: %+v", bounded)
		}

		ranged, _ := s.ForDateRange(ctx, "2025-11-01", "2025-11-03")
		if len(ranged) != 3 {
			t.Errorf("expected 3 rows in range, got %d", len(ranged))
		}

		lo, hi, ok, err := s.DateSpan(ctx)
		if err != nil || !ok || lo != "2025-11-03" || hi != "2025-11-04" {
			t.Errorf("unexpected span %s..%s ok=%v err=%v", lo, hi, ok, err)
		}
	})
}

func TestStore_RejectsInvalidEntries(t *testing.T) {
	stores(t, func(t *testing.T, s ActivityStore) {
		ctx := context.Background()
		bad := model.ActivityEntry{Date: "2025-11-03", EmployeeID: "EMP001", TaskName: "Appeal", Count: -1}

		err := s.Add(ctx, bad)
		if !errors.Is(err, model.ErrValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}

		good := mustEntry(t, "2025-11-03", "EMP001", "Appeal")
		err = s.AddMany(ctx, []model.ActivityEntry{good, bad})
		if !errors.Is(err, model.ErrValidation) {
			t.Fatalf("expected validation error for batch, got %v", err)
		}
		if n, _ := s.Len(ctx); n != 0 {
			t.Errorf("batch must be all-or-nothing, store has %d entries", n)
		}
	})
}

func TestStore_RangeValidation(t *testing.T) {
	stores(t, func(t *testing.T, s ActivityStore) {
		ctx := context.Background()
		if _, err := s.ForDateRange(ctx, "2025-11-05", "2025-11-01"); !errors.Is(err, ErrInvalidRange) {
			t.Errorf("expected ErrInvalidRange, got %v", err)
		}
		_, err := s.ForEmployee(ctx, "EMP001", "11/01/2025", "")
		var verr *model.ValidationError
		if !errors.As(err, &verr) || verr.Field != "start" {
			t.Errorf("expected start validation error, got %v", err)
		}
	})
}

func TestStore_Employees(t *testing.T) {
	stores(t, func(t *testing.T, s ActivityStore) {
		ctx := context.Background()
		for _, emp := range []model.Employee{
			{ID: "EMP002", Name: "Bob"},
			{ID: "EMP001", Name: "Alice", Department: "Auth"},
		} {
			if err := s.RegisterEmployee(ctx, emp); err != nil {
				t.Fatalf("register: %v", err)
			}
		}
		if err := s.RegisterEmployee(ctx, model.Employee{ID: "EMP002", Name: "Robert"}); err != nil {
			t.Fatalf("re-register: %v", err)
		}
		if err := s.RegisterEmployee(ctx, model.Employee{Name: "Nobody"}); !errors.Is(err, model.ErrValidation) {
			t.Errorf("expected validation error for empty id, got %v", err)
		}

		emps, err := s.Employees(ctx)
		if err != nil {
			t.Fatalf("employees: %v", err)
		}
		if len(emps) != 2 || emps[0].ID != "EMP002" || emps[0].Name != "Robert" || emps[1].Department != "Auth" {
			t.Errorf("unexpected employees: %+v", emps)
		}

		if _, ok, _ := s.Employee(ctx, "EMP404"); ok {
			t.Error("unknown employee reported as found")
		}
	})
}

func TestStore_DailyMetricsAndClear(t *testing.T) {
	stores(t, func(t *testing.T, s ActivityStore) {
		ctx := context.Background()
		m := model.DailyMetric{EmployeeID: "EMP001", Date: "2025-11-03", IdleHours: 2.5, ConductFlag: 1, Supervisor: "SUP01"}
		if err := s.RecordDailyMetric(ctx, m); err != nil {
			t.Fatalf("record metric: %v", err)
		}
		m.IdleHours = 0.5
		if err := s.RecordDailyMetric(ctx, m); err != nil {
			t.Fatalf("overwrite metric: %v", err)
		}
		got, ok, err := s.DailyMetric(ctx, "EMP001", "2025-11-03")
		if err != nil || !ok || got.IdleHours != 0.5 || got.Supervisor != "SUP01" {
			t.Errorf("unexpected metric %+v ok=%v err=%v", got, ok, err)
		}

		if err := s.RecordDailyMetric(ctx, model.DailyMetric{EmployeeID: "EMP001", Date: "2025-11-03", ConductFlag: 3}); !errors.Is(err, model.ErrValidation) {
			t.Errorf("expected validation error, got %v", err)
		}

		_ = s.RegisterEmployee(ctx, model.Employee{ID: "EMP001", Name: "Alice"})
		_ = s.Add(ctx, mustEntry(t, "2025-11-03", "EMP001", "Appeal"))
		if err := s.Clear(ctx); err != nil {
			t.Fatalf("clear: %v", err)
		}
		if n, _ := s.Len(ctx); n != 0 {
			t.Errorf("expected empty log after clear, got %d", n)
		}
		if _, ok, _ := s.DailyMetric(ctx, "EMP001", "2025-11-03"); ok {
			t.Error("daily metric survived clear")
		}
		if _, ok, _ := s.Employee(ctx, "EMP001"); !ok {
			t.Error("employees must survive clear")
		}
		if _, _, ok, _ := s.DateSpan(ctx); ok {
			t.Error("empty store reported a date span")
		}
	})
}

func TestStore_ReplaceDates(t *testing.T) {
	stores(t, func(t *testing.T, s ActivityStore) {
		ctx := context.Background()
		_ = s.AddMany(ctx, []model.ActivityEntry{
			mustEntry(t, "2025-11-03", "EMP001", "Appeal", model.WithCount(3)),
			mustEntry(t, "2025-11-03", "EMP002", "Appeal"),
			mustEntry(t, "2025-11-04", "EMP001", "Appeal"),
		})

		err := s.ReplaceDates(ctx, []model.ActivityEntry{
			mustEntry(t, "2025-11-03", "EMP001", "Appeal", model.WithCount(5)),
		})
		if err != nil {
			t.Fatalf("replace: %v", err)
		}
		day, _ := s.ForDate(ctx, "2025-11-03")
		if len(day) != 1 || day[0].Count != 5 {
			t.Errorf("expected the replaced day to hold one entry, got %+v", day)
		}
		if other, _ := s.ForDate(ctx, "2025-11-04"); len(other) != 1 {
			t.Errorf("untouched day changed: %+v", other)
		}

		if err := s.ReplaceDates(ctx, nil); err != nil {
			t.Errorf("empty replace: %v", err)
		}
		bad := model.ActivityEntry{Date: "2025-11-04", EmployeeID: "EMP001", TaskName: "Appeal", Count: -1}
		if err := s.ReplaceDates(ctx, []model.ActivityEntry{bad}); !errors.Is(err, model.ErrValidation) {
			t.Errorf("expected validation error, got %v", err)
		}
		if n, _ := s.Len(ctx); n != 2 {
			t.Errorf("rejected replace must leave the log alone, got %d entries", n)
		}
	})
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_ = s.Add(ctx, mustEntry(t, "2025-11-03", "EMP001", "Appeal", model.WithCount(2)))

	rows, _ := s.ForDate(ctx, "2025-11-03")
	rows[0].Count = 99

	again, _ := s.ForDate(ctx, "2025-11-03")
	if again[0].Count != 2 {
		t.Errorf("store aliased its log: count=%d", again[0].Count)
	}
}

func TestMemoryStore_ConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e, _ := model.NewActivityEntry("2025-11-03", fmt.Sprintf("EMP%03d", i%5), "Appeal")
			_ = s.Add(ctx, e)
			_, _ = s.ForDate(ctx, "2025-11-03")
		}(i)
	}
	wg.Wait()

	if n, _ := s.Len(ctx); n != 50 {
		t.Errorf("expected 50 entries, got %d", n)
	}
}

func TestSummarizeDay(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_ = s.AddMany(ctx, []model.ActivityEntry{
		mustEntry(t, "2025-11-03", "EMP001", "Appeal", model.WithCount(2), model.WithIdleHours(0.5)),
		mustEntry(t, "2025-11-03", "EMP001", "Appeal", model.WithCount(1), model.WithIdleHours(1.5)),
		mustEntry(t, "2025-11-03", "EMP001", "Claims Processing", model.WithCount(4), model.WithConductFlag(1)),
	})

	sum, err := SummarizeDay(ctx, s, "EMP001", "2025-11-03")
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	want := DailySummary{EmployeeID: "EMP001", Date: "2025-11-03", TotalTasks: 2, TotalCount: 7, IdleHours: 1.5, ConductIssues: 1}
	if sum != want {
		t.Errorf("got %+v, want %+v", sum, want)
	}

	empty, _ := SummarizeDay(ctx, s, "EMP002", "2025-11-03")
	if empty.TotalTasks != 0 || empty.TotalCount != 0 || empty.EmployeeID != "EMP002" {
		t.Errorf("unexpected empty summary: %+v", empty)
	}
}
