package types_test

import (
	"encoding/json"
	"testing"

	types "github.com/okian/powerstream/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInstanceSummary(t *testing.T) {
	Convey("Given a summary for an instance without telemetry", t, func() {
		s := types.InstanceSummary{
			Instance:   "7",
			Samples:    map[string]int{},
			Correlator: "idle",
		}

		Convey("When it is encoded", func() {
			raw, err := json.Marshal(s)
			So(err, ShouldBeNil)

			Convey("Then unset epoch and tool are omitted", func() {
				So(string(raw), ShouldEqual,
					`{"instance":"7","samples":{},"correlator":"idle","history_length":0,"subscribers":0}`)
			})
		})
	})
}
