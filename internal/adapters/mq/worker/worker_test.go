package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/healthrix/internal/adapters/mq/queue"
	"github.com/okian/healthrix/internal/adapters/mq/worker"
	"github.com/okian/healthrix/internal/adapters/repository"
	"github.com/okian/healthrix/internal/domain/model"
	"github.com/okian/healthrix/internal/domain/scoring"
	"github.com/okian/healthrix/internal/domain/standards"
	. "github.com/smartystreets/goconvey/convey"
)

const day = "2025-11-03"

type stubScorer struct {
	mu     sync.Mutex
	calls  int
	scores map[string]float64
	fail   map[string]error
}

func (s *stubScorer) CalculateEmployee(_ context.Context, id, date string) (model.PerformanceScore, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if err, ok := s.fail[id]; ok {
		return model.PerformanceScore{}, false, err
	}
	final, ok := s.scores[id]
	if !ok {
		return model.PerformanceScore{}, false, nil
	}
	return model.PerformanceScore{EmployeeID: id, Date: date, FinalPerformance: final}, true, nil
}

func jobs(ids ...string) []queue.Job {
	out := make([]queue.Job, 0, len(ids))
	for _, id := range ids {
		out = append(out, queue.Job{EmployeeID: id, Date: day})
	}
	return out
}

func ids(scores []model.PerformanceScore) []string {
	out := make([]string, 0, len(scores))
	for _, s := range scores {
		out = append(out, s.EmployeeID)
	}
	return out
}

func TestPool_Run(t *testing.T) {
	Convey("Given a scorer and a pool of four workers", t, func() {
		ctx := context.Background()
		scorer := &stubScorer{
			scores: map[string]float64{"A": 50, "B": 90, "C": 90, "D": 70},
			fail:   map[string]error{},
		}
		pool := worker.NewPool(4, scorer)
		So(pool.Size(), ShouldEqual, 4)

		Convey("When a batch is run", func() {
			scores, err := pool.Run(ctx, jobs("A", "B", "C", "D", "NONE"))

			Convey("Then scores come back best first with ties in job order", func() {
				So(err, ShouldBeNil)
				So(ids(scores), ShouldResemble, []string{"B", "C", "D", "A"})
				So(scorer.calls, ShouldEqual, 5)
			})
		})

		Convey("When a job fails", func() {
			boom := errors.New("boom")
			scorer.fail["C"] = boom
			scores, err := pool.Run(ctx, jobs("A", "B", "C"))

			Convey("Then the batch fails with the job's error", func() {
				So(scores, ShouldBeNil)
				So(errors.Is(err, boom), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "score C on 2025-11-03")
			})
		})

		Convey("When the batch is empty", func() {
			scores, err := pool.Run(ctx, nil)
			So(err, ShouldBeNil)
			So(scores, ShouldBeEmpty)
		})

		Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := pool.Run(cctx, jobs("A", "B"))
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})

	Convey("Given a non-positive size", t, func() {
		So(worker.NewPool(0, &stubScorer{}).Size(), ShouldBeGreaterThan, 0)
	})
}

func TestPool_MatchesEngine(t *testing.T) {
	Convey("Given a store with many employees", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		var batch []model.ActivityEntry
		var js []queue.Job
		for i := 0; i < 40; i++ {
			id := fmt.Sprintf("EMP%03d", i)
			So(store.RegisterEmployee(ctx, model.Employee{ID: id, Name: "Employee " + id}), ShouldBeNil)
			e, err := model.NewActivityEntry(day, id, "Appeal",
				model.WithCount(i%7+1),
				model.WithIdleHours(float64(i%3)),
			)
			So(err, ShouldBeNil)
			batch = append(batch, e)
			js = append(js, queue.Job{EmployeeID: id, Date: day})
		}
		So(store.AddMany(ctx, batch), ShouldBeNil)

		reg, err := standards.New()
		So(err, ShouldBeNil)
		eng, err := scoring.NewEngine(reg, store)
		So(err, ShouldBeNil)

		Convey("When the pool scores the day", func() {
			got, err := worker.NewPool(8, eng).Run(ctx, js)
			So(err, ShouldBeNil)

			Convey("Then the result equals the sequential calculation", func() {
				want, err := eng.CalculateAll(ctx, day)
				So(err, ShouldBeNil)
				So(got, ShouldResemble, want)
			})
		})
	})
}

func TestInMemoryWorker_Shutdown(t *testing.T) {
	Convey("Given a worker on an open queue", t, func() {
		q := queue.NewInMemoryQueue()
		var mu sync.Mutex
		var results []worker.Result
		w := worker.NewInMemoryWorker(q, &stubScorer{scores: map[string]float64{"A": 80}},
			func(r worker.Result) {
				mu.Lock()
				results = append(results, r)
				mu.Unlock()
			},
			worker.WithName("test-worker"),
		)
		ctx := context.Background()
		go w.Run(ctx)

		So(q.Enqueue(ctx, queue.Job{EmployeeID: "A", Date: day}), ShouldBeTrue)

		Convey("When it is shut down after processing", func() {
			deadline := time.Now().Add(time.Second)
			for time.Now().Before(deadline) {
				mu.Lock()
				n := len(results)
				mu.Unlock()
				if n == 1 {
					break
				}
				time.Sleep(5 * time.Millisecond)
			}
			sctx, cancel := context.WithTimeout(ctx, time.Second)
			defer cancel()

			Convey("Then it stops cleanly with the result delivered", func() {
				So(w.Shutdown(sctx), ShouldBeNil)
				mu.Lock()
				defer mu.Unlock()
				So(results, ShouldHaveLength, 1)
				So(results[0].OK, ShouldBeTrue)
				So(results[0].Score.FinalPerformance, ShouldEqual, 80)
			})
		})
	})
}
