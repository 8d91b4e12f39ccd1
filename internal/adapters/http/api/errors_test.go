package api

import (
	"errors"
	"net/http"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestKindErrors(t *testing.T) {
	Convey("Given kind errors", t, func() {
		cause := errors.New("boom")
		wrapped := WrapKind("api.op", ErrBadRequest, cause)
		bare := NewKind("api.op", ErrBackpressure)

		Convey("They match both the kind and the cause", func() {
			So(errors.Is(wrapped, ErrBadRequest), ShouldBeTrue)
			So(errors.Is(wrapped, cause), ShouldBeTrue)
			So(errors.Is(bare, ErrBackpressure), ShouldBeTrue)
			So(errors.Is(bare, ErrBadRequest), ShouldBeFalse)
		})

		Convey("Their text names the operation", func() {
			So(wrapped.Error(), ShouldEqual, "api.op: bad request: boom")
			So(bare.Error(), ShouldEqual, "api.op: backpressure")
		})
	})
}

func TestClassify(t *testing.T) {
	Convey("Status codes map to error classes", t, func() {
		class, _, failed := classify(http.StatusOK)
		So(failed, ShouldBeFalse)
		So(class, ShouldBeEmpty)

		class, severity, _ := classify(http.StatusTooManyRequests)
		So(class, ShouldEqual, "backpressure")
		So(severity, ShouldEqual, "medium")

		class, severity, _ = classify(http.StatusBadGateway)
		So(class, ShouldEqual, "server_error")
		So(severity, ShouldEqual, "high")

		class, _, _ = classify(http.StatusNotFound)
		So(class, ShouldEqual, "not_found")
	})
}
