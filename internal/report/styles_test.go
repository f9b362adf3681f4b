package report

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/healthrix/internal/domain/aggregate"
)

func TestBandStyle(t *testing.T) {
	Convey("Given the default bands", t, func() {
		th := aggregate.DefaultThresholds()

		So(bandStyle(95, th).GetForeground(), ShouldEqual, colorSuccess)
		So(bandStyle(80, th).GetForeground(), ShouldEqual, colorWarning)
		So(bandStyle(50, th).GetForeground(), ShouldEqual, colorError)
	})

	Convey("Given custom bands", t, func() {
		th := aggregate.Thresholds{Excellent: 75, Good: 40}

		Convey("Then a score is coloured by the configured cut-offs", func() {
			So(bandStyle(80, th).GetForeground(), ShouldEqual, colorSuccess)
			So(bandStyle(50, th).GetForeground(), ShouldEqual, colorWarning)
			So(bandStyle(39.99, th).GetForeground(), ShouldEqual, colorError)
		})
	})
}
