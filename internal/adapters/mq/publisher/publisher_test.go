package publisher_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"

	"github.com/okian/healthrix/internal/adapters/mq/publisher"
	"github.com/okian/healthrix/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func header(m kafka.Message, key string) string {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestKafkaPublisher(t *testing.T) {
	Convey("Given a publisher over a fake writer", t, func() {
		w := &fakeWriter{}
		p := publisher.New(w, "scores")
		ctx := publisher.WithRunID(context.Background(), "run-1")
		scores := []model.PerformanceScore{
			{EmployeeID: "EMP001", Name: "Alice", Date: "2025-11-03", FinalPerformance: 95},
			{EmployeeID: "EMP002", Name: "Bob", Date: "2025-11-03", FinalPerformance: 80},
		}

		Convey("When a batch is saved", func() {
			So(p.SaveScores(ctx, scores), ShouldBeNil)

			Convey("Then each score becomes a keyed JSON message", func() {
				So(w.msgs, ShouldHaveLength, 2)
				So(string(w.msgs[0].Key), ShouldEqual, "EMP001")
				So(header(w.msgs[0], publisher.HeaderRunID), ShouldEqual, "run-1")
				So(header(w.msgs[1], publisher.HeaderDate), ShouldEqual, "2025-11-03")

				var got model.PerformanceScore
				So(json.Unmarshal(w.msgs[1].Value, &got), ShouldBeNil)
				So(got.Name, ShouldEqual, "Bob")
				So(got.FinalPerformance, ShouldEqual, 80)
			})
		})

		Convey("When the batch is empty", func() {
			So(p.SaveScores(ctx, nil), ShouldBeNil)
			So(w.msgs, ShouldBeEmpty)
		})

		Convey("When the writer fails", func() {
			boom := errors.New("broker down")
			w.err = boom
			err := p.SaveScores(ctx, scores)
			So(errors.Is(err, boom), ShouldBeTrue)
		})

		Convey("When closed", func() {
			So(p.Close(), ShouldBeNil)
			So(w.closed, ShouldBeTrue)
		})
	})

	Convey("Given no brokers", t, func() {
		_, err := publisher.NewKafkaPublisher(nil, "")
		So(errors.Is(err, publisher.ErrNoBrokers), ShouldBeTrue)
	})

	Convey("Given brokers", t, func() {
		p, err := publisher.NewKafkaPublisher([]string{"localhost:9092"}, "")
		So(err, ShouldBeNil)
		So(p, ShouldNotBeNil)
		So(p.Close(), ShouldBeNil)
	})
}
