package timeline_test

import (
	"testing"
	"time"

	"github.com/okian/powerstream/internal/domain/timeline"
	. "github.com/smartystreets/goconvey/convey"
)

func TestEpoch(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	Convey("Given an unset epoch", t, func() {
		var e timeline.Epoch

		Convey("Relative time is zero before any sample", func() {
			So(e.Relative(base.Add(time.Hour)), ShouldEqual, 0)
			_, ok := e.At()
			So(ok, ShouldBeFalse)
		})

		Convey("When the first sample anchors it", func() {
			first := e.Anchor(base)

			Convey("Then the first sample is at zero", func() {
				So(first, ShouldEqual, 0)
				at, ok := e.At()
				So(ok, ShouldBeTrue)
				So(at, ShouldEqual, base)
			})

			Convey("And later samples never move the epoch", func() {
				So(e.Anchor(base.Add(1500*time.Millisecond)), ShouldEqual, 1.5)
				So(e.Relative(base.Add(10*time.Second)), ShouldEqual, 10)
				at, _ := e.At()
				So(at, ShouldEqual, base)
			})

			Convey("And times before the epoch clamp to zero", func() {
				So(e.Relative(base.Add(-5*time.Second)), ShouldEqual, 0)
				So(e.Anchor(base.Add(-time.Second)), ShouldEqual, 0)
				at, _ := e.At()
				So(at, ShouldEqual, base)
			})

			Convey("And repeated calls are idempotent", func() {
				ts := base.Add(3 * time.Second)
				So(e.Relative(ts), ShouldEqual, e.Relative(ts))
				So(e.Anchor(ts), ShouldEqual, e.Relative(ts))
			})
		})
	})
}
