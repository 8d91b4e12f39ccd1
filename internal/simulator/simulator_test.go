package simulator_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/powerstream/internal/adapters/http/api"
	service "github.com/okian/powerstream/internal/app"
	"github.com/okian/powerstream/internal/domain/model"
	"github.com/okian/powerstream/internal/simulator"
	"github.com/okian/powerstream/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

var start = time.Date(2025, 5, 1, 6, 0, 0, 0, time.UTC)

func smallConfig() *simulator.Config {
	cfg := simulator.DefaultConfig()
	cfg.Instances = 2
	cfg.Samples = 10
	cfg.ToolEvery = 4
	cfg.Workers = 2
	cfg.Timeout = 5 * time.Second
	return cfg
}

func TestGenerate(t *testing.T) {
	Convey("Given a small simulation config", t, func() {
		cfg := smallConfig()

		sessions, err := simulator.Generate(cfg, start)
		So(err, ShouldBeNil)

		Convey("Then every instance gets its own ordered session", func() {
			So(sessions, ShouldHaveLength, 2)
			So(sessions[0].Instance, ShouldEqual, "1")
			So(sessions[1].Instance, ShouldEqual, "2")
			for _, s := range sessions {
				So(s.Batches, ShouldHaveLength, 10)
				So(s.Samples, ShouldEqual, 10*len(cfg.Axes))
				So(s.ToolChanges, ShouldEqual, 3)
				So(s.ExpectedPast(), ShouldEqual, 2)
			}
		})

		Convey("Then a tool change leads its batch, identity first", func() {
			first := sessions[0].Batches[0]
			So(first[0].Point.ID, ShouldEqual, model.SignalToolIdent)
			So(string(first[0].Point.Value), ShouldEqual, `"T1"`)
			So(first[1].Point.ID, ShouldEqual, model.SignalTNumber)
			So(first[2].Point.ID, ShouldEqual, model.SignalToolLength1)
			So(first[3].Point.ID, ShouldEqual, model.SignalToolRadius)
			So(first[4].Point.ID, ShouldEqual, cfg.Prefix+"X")

			plain := sessions[0].Batches[1]
			So(plain, ShouldHaveLength, len(cfg.Axes))
			So(plain[0].Point.Timestamp, ShouldEqual, "2025-05-01T06:00:00.1Z")
		})

		Convey("Then the same seed yields the same values", func() {
			again, err := simulator.Generate(cfg, start)
			So(err, ShouldBeNil)
			So(string(again[1].Batches[5][2].Point.Value), ShouldEqual, string(sessions[1].Batches[5][2].Point.Value))
		})

		Convey("When tool changes are disabled", func() {
			cfg.ToolEvery = 0
			sessions, err := simulator.Generate(cfg, start)
			So(err, ShouldBeNil)
			So(sessions[0].ToolChanges, ShouldEqual, 0)
			So(sessions[0].ExpectedPast(), ShouldEqual, 0)
		})
	})
}

func TestParseFlags(t *testing.T) {
	Convey("Given simulator command line flags", t, func() {
		var out bytes.Buffer

		Convey("When none are given", func() {
			cfg, err := simulator.ParseFlags("simulate", nil, &out)
			So(err, ShouldBeNil)
			So(cfg.BaseURL, ShouldEqual, "http://localhost:6333")
			So(cfg.Axes, ShouldResemble, simulator.DefaultAxes)
		})

		Convey("When every documented flag is set", func() {
			cfg, err := simulator.ParseFlags("simulate", []string{
				"--url", "http://plant:8080", "--instances", "8", "--samples", "30",
				"--tool-every", "5", "--workers", "3", "--timeout", "2s", "--verbose",
				"--axes", "X,Y",
			}, &out)
			So(err, ShouldBeNil)
			So(cfg.BaseURL, ShouldEqual, "http://plant:8080")
			So(cfg.Instances, ShouldEqual, 8)
			So(cfg.Samples, ShouldEqual, 30)
			So(cfg.ToolEvery, ShouldEqual, 5)
			So(cfg.Workers, ShouldEqual, 3)
			So(cfg.Timeout, ShouldEqual, 2*time.Second)
			So(cfg.Verbose, ShouldBeTrue)
			So(cfg.Axes, ShouldResemble, []string{"X", "Y"})
		})

		Convey("When help is requested", func() {
			_, err := simulator.ParseFlags("simulate", []string{"--help"}, &out)
			So(errors.Is(err, simulator.ErrHelp), ShouldBeTrue)
			So(out.String(), ShouldContainSubstring, "--tool-every")
		})

		Convey("When a value is out of range", func() {
			_, err := simulator.ParseFlags("simulate", []string{"--instances", "0"}, &out)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "--instances")
		})
	})
}

func TestRun(t *testing.T) {
	Convey("Given a running server", t, func() {
		svc := service.New(service.WithWorkerCount(2))
		So(svc.Start(context.Background()), ShouldBeNil)

		mux := http.NewServeMux()
		api.NewServer(svc, svc, api.WithHeartbeat(50*time.Millisecond)).Register(context.Background(), mux)
		srv := httptest.NewServer(mux)
		defer srv.Close()
		defer svc.Stop()

		Convey("When a simulation runs against it", func() {
			cfg := smallConfig()
			cfg.BaseURL = srv.URL

			stats, err := simulator.Run(context.Background(), cfg, logger.Get())

			Convey("Then every replay should be complete", func() {
				So(err, ShouldBeNil)
				So(stats.Verified, ShouldEqual, 2)
				So(stats.Incomplete, ShouldEqual, 0)
				So(stats.NotificationsOK, ShouldEqual, 20)
				So(stats.EventsAccepted, ShouldEqual, 2*(10*len(cfg.Axes)+3*4))
			})
		})

		Convey("When the server is unreachable", func() {
			cfg := smallConfig()
			cfg.BaseURL = "http://127.0.0.1:1"

			_, err := simulator.Run(context.Background(), cfg, logger.Get())

			Convey("Then the health check should fail", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "health check")
			})
		})
	})
}
