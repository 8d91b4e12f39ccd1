package config_test

import (
	"context"
	"testing"
	"time"

	"github.com/okian/powerstream/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.LogFormat, convey.ShouldEqual, "text")
			convey.So(cfg.Addr, convey.ShouldEqual, ":6333")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 10_000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, 0)
			convey.So(cfg.SignalPrefix, convey.ShouldEqual, "MaxxTurn45/Axes/Power/Active/")
			convey.So(cfg.MaxUploadBytes, convey.ShouldEqual, 10<<20)
			convey.So(cfg.SubscriberBuffer, convey.ShouldEqual, 0)
			convey.So(cfg.CORSOrigin, convey.ShouldEqual, "*")
			convey.So(cfg.Heartbeat(), convey.ShouldEqual, 15*time.Second)
		})

		convey.Convey("Then the defaults should validate", func() {
			convey.So(config.Validate(context.Background(), cfg), convey.ShouldBeNil)
		})
	})
}
