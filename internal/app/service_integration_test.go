package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/okian/healthrix/internal/adapters/mq/publisher"
	"github.com/okian/healthrix/internal/adapters/repository"
	service "github.com/okian/healthrix/internal/app"
	"github.com/okian/healthrix/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

const activities = `Date,Emp_ID,Name,Task,Count,Patient_ID,Duration_Minutes,Idle_Hours,Conduct_Flag,Notes
2025-11-03,EMP001,Alice,Authorization Created,8,,,0.5,0,
2025-11-03,EMP001,Alice,Appeal,2,,,0.5,0,
2025-11-03,EMP002,Bob,Appeal,10,,,0,0,
2025-11-03,EMP003,Carol,Document Upload,20,,,2.5,1,late
2025-11-04,EMP001,Alice,Appeal,12,,,0,0,
2025-11-04,EMP002,Bob,Appeal,12,,,0,0,
`

type recordingSink struct {
	runIDs  []string
	batches [][]model.PerformanceScore
	err     error
}

func (r *recordingSink) SaveScores(ctx context.Context, scores []model.PerformanceScore) error {
	r.runIDs = append(r.runIDs, publisher.RunIDFromContext(ctx))
	r.batches = append(r.batches, scores)
	return r.err
}

func TestServiceIntegration(t *testing.T) {
	Convey("Given a service over SQLite with a recording sink", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		store, err := repository.NewSQLiteMemory()
		So(err, ShouldBeNil)
		n, err := repository.LoadActivitiesCSV(ctx, strings.NewReader(activities), store)
		So(err, ShouldBeNil)
		So(n, ShouldEqual, 6)

		sink := &recordingSink{}
		svc := service.New(
			service.WithWorkerCount(2),
			service.WithStore(store),
			service.WithSink(store),
			service.WithSink(sink),
		)
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop() }()

		Convey("When a day is scored", func() {
			batch, err := svc.ScoreDay(ctx, "2025-11-03")
			So(err, ShouldBeNil)

			Convey("Then the batch is ranked and matches the formula", func() {
				So(batch.RunID, ShouldNotBeEmpty)
				So(batch.Date, ShouldEqual, "2025-11-03")
				So(batch.Scores, ShouldHaveLength, 3)
				So(batch.Scores[0].EmployeeID, ShouldEqual, "EMP001")
				So(batch.Scores[0].FinalPerformance, ShouldAlmostEqual, 95.0, 1e-9)
			})

			Convey("Then every sink received the batch under the run id", func() {
				So(sink.runIDs, ShouldResemble, []string{batch.RunID})
				So(sink.batches[0], ShouldResemble, batch.Scores)

				saved, err := store.ScoresForDate(ctx, "2025-11-03")
				So(err, ShouldBeNil)
				So(saved, ShouldHaveLength, 3)
			})

			Convey("Then stats reflect the run", func() {
				stats := svc.Stats(ctx)
				So(stats["runs"], ShouldEqual, 1)
				So(stats["lastRunID"], ShouldEqual, batch.RunID)
				So(stats["employees"], ShouldEqual, 3)
				So(stats["firstDate"], ShouldEqual, "2025-11-03")
				So(stats["lastDate"], ShouldEqual, "2025-11-04")
			})
		})

		Convey("When a day has no activity", func() {
			batch, err := svc.ScoreDay(ctx, "2025-12-25")
			So(err, ShouldBeNil)
			So(batch.Scores, ShouldBeEmpty)
			So(sink.batches, ShouldBeEmpty)
		})

		Convey("When the date is malformed", func() {
			_, err := svc.ScoreDay(ctx, "2025-13-01")
			So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
		})

		Convey("When a sink fails", func() {
			sink.err = errors.New("disk full")
			batch, err := svc.ScoreDay(ctx, "2025-11-03")

			Convey("Then the batch is still returned with a sink error", func() {
				So(errors.Is(err, service.ErrSink), ShouldBeTrue)
				So(batch.Scores, ShouldHaveLength, 3)
			})
		})

		Convey("When reports are requested", func() {
			rows, err := svc.Leaderboard(ctx, "2025-11-03", 2)
			So(err, ShouldBeNil)
			So(rows, ShouldHaveLength, 2)
			So(rows[0].Rank, ShouldEqual, 1)

			stats, dist, err := svc.Statistics(ctx, "2025-11-03")
			So(err, ShouldBeNil)
			So(stats.Count, ShouldEqual, 3)
			So(dist.Total, ShouldEqual, 3)

			alerts, err := svc.Alerts(ctx, "2025-11-03")
			So(err, ShouldBeNil)
			So(alerts, ShouldHaveLength, 2)
			So(alerts[0].EmployeeID, ShouldEqual, "EMP003")
			So(alerts[0].Issues, ShouldContain, "Conduct flag raised")
			So(alerts[1].EmployeeID, ShouldEqual, "EMP002")
		})

		Convey("When a range and a trend are requested", func() {
			r, err := svc.ScoreRange(ctx, "2025-11-03", "2025-11-04")
			So(err, ShouldBeNil)
			So(r.Dates, ShouldResemble, []string{"2025-11-03", "2025-11-04"})

			days, err := svc.Comparison(ctx, "2025-11-03", "2025-11-04")
			So(err, ShouldBeNil)
			So(days, ShouldHaveLength, 2)

			trend, err := svc.Trend(ctx, "EMP001", "2025-11-03", "2025-11-04")
			So(err, ShouldBeNil)
			So(trend, ShouldHaveLength, 2)
			So(trend[0].Date, ShouldEqual, "2025-11-03")

			score, ok, err := svc.ScoreEmployee(ctx, "EMP002", "2025-11-04")
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
			So(score.Name, ShouldEqual, "Bob")
		})
	})
}
