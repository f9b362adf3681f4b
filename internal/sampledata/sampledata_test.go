package sampledata_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/okian/healthrix/internal/adapters/repository"
	"github.com/okian/healthrix/internal/domain/model"
	"github.com/okian/healthrix/internal/domain/scoring"
	"github.com/okian/healthrix/internal/domain/standards"
	"github.com/okian/healthrix/internal/sampledata"
	. "github.com/smartystreets/goconvey/convey"
)

func TestGenerate(t *testing.T) {
	Convey("Given the default standards and config", t, func() {
		ctx := context.Background()
		reg, err := standards.New()
		So(err, ShouldBeNil)
		cfg := sampledata.DefaultConfig()

		Convey("When a dataset is generated", func() {
			ds, err := sampledata.Generate(ctx, cfg, reg.Standards())
			So(err, ShouldBeNil)

			Convey("Then it covers every employee on every working day", func() {
				So(ds.Employees, ShouldHaveLength, 10)
				So(ds.Dates, ShouldResemble, []string{"2025-11-03", "2025-11-04", "2025-11-05", "2025-11-06", "2025-11-07"})
				seen := make(map[string]bool)
				for _, a := range ds.Activities {
					So(a.Validate(), ShouldBeNil)
					_, ok := reg.Lookup(a.TaskName)
					So(ok, ShouldBeTrue)
					seen[a.EmployeeID+"/"+a.Date] = true
				}
				So(len(seen), ShouldEqual, 50)
			})

			Convey("Then the same seed yields the same dataset", func() {
				again, err := sampledata.Generate(ctx, cfg, reg.Standards())
				So(err, ShouldBeNil)
				So(again, ShouldResemble, ds)
			})

			Convey("Then the dataset scores end to end", func() {
				store := repository.NewMemoryStore()
				So(sampledata.Populate(ctx, store, ds), ShouldBeNil)
				eng, err := scoring.NewEngine(reg, store)
				So(err, ShouldBeNil)
				scores, err := eng.CalculateAll(ctx, ds.Dates[0])
				So(err, ShouldBeNil)
				So(scores, ShouldHaveLength, 10)
			})
		})

		Convey("When weekends are kept", func() {
			cfg.SkipWeekends = false
			cfg.Days = 7
			ds, err := sampledata.Generate(ctx, cfg, reg.Standards())
			So(err, ShouldBeNil)
			last, _ := time.Parse(model.DateLayout, ds.Dates[6])
			So(last.Weekday(), ShouldEqual, time.Sunday)
		})

		Convey("When the config is invalid", func() {
			cfg.Employees = 0
			_, err := sampledata.Generate(ctx, cfg, reg.Standards())
			So(errors.Is(err, sampledata.ErrInvalidConfig), ShouldBeTrue)
		})

		Convey("When there are no tasks", func() {
			_, err := sampledata.Generate(ctx, cfg, nil)
			So(errors.Is(err, sampledata.ErrInvalidConfig), ShouldBeTrue)
		})
	})
}

func TestWriteFiles(t *testing.T) {
	Convey("Given a generated dataset", t, func() {
		ctx := context.Background()
		reg, err := standards.New()
		So(err, ShouldBeNil)
		cfg := sampledata.DefaultConfig()
		cfg.Employees = 3
		cfg.Days = 2
		ds, err := sampledata.Generate(ctx, cfg, reg.Standards())
		So(err, ShouldBeNil)

		Convey("When written to a directory", func() {
			dir := t.TempDir()
			empPath, actPath, err := sampledata.WriteFiles(ctx, dir, ds)
			So(err, ShouldBeNil)

			Convey("Then the sheets load back into a store", func() {
				store := repository.NewMemoryStore()
				ef, err := os.Open(empPath)
				So(err, ShouldBeNil)
				defer ef.Close()
				n, err := repository.LoadEmployeesCSV(ctx, ef, store)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 3)

				af, err := os.Open(actPath)
				So(err, ShouldBeNil)
				defer af.Close()
				n, err = repository.LoadActivitiesCSV(ctx, af, store)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, len(ds.Activities))
			})
		})
	})
}
