package metrics

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options on a fresh registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should use the service namespace", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "powerstream")
				So(manager.subsystem, ShouldEqual, "broadcast")
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			manager.samplesStored.Inc()

			Convey("Then metrics carry the custom names and labels", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				var found bool
				for _, f := range families {
					if f.GetName() == "test_unit_samples_stored_total" {
						found = true
						So(f.GetMetric()[0].GetLabel()[0].GetName(), ShouldEqual, "env")
					}
				}
				So(found, ShouldBeTrue)
				So(manager.histogramBuckets, ShouldResemble, []float64{0.1, 0.5, 1.0})
			})
		})

		Convey("When options receive empty values", func() {
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithHistogramBuckets(nil),
				WithConstLabels(nil),
				WithPrometheusRegistry(prometheus.NewRegistry()),
			)

			Convey("Then defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "powerstream")
				So(manager.subsystem, ShouldEqual, "broadcast")
				So(manager.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
				So(manager.constLabels, ShouldNotBeNil)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording ingestion metrics", func() {
			before := testutil.ToFloat64(globalManager.eventsIngested.WithLabelValues("telemetry"))
			RecordEventIngested("telemetry")
			RecordEventIngested("telemetry")

			Convey("Then the counter advances", func() {
				after := testutil.ToFloat64(globalManager.eventsIngested.WithLabelValues("telemetry"))
				So(after-before, ShouldEqual, 2)
			})
		})

		Convey("When adjusting subscribers", func() {
			before := testutil.ToFloat64(globalManager.subscribers)
			AddSubscribers(3)
			AddSubscribers(-1)

			Convey("Then the gauge reflects the net change", func() {
				So(testutil.ToFloat64(globalManager.subscribers)-before, ShouldEqual, 2)
			})
		})

		Convey("When two queue shards report different sizes", func() {
			UpdateQueueSize("0", 3)
			UpdateQueueSize("1", 5)

			Convey("Then each shard keeps its own value", func() {
				So(testutil.ToFloat64(globalManager.queueSize.WithLabelValues("0")), ShouldEqual, 3)
				So(testutil.ToFloat64(globalManager.queueSize.WithLabelValues("1")), ShouldEqual, 5)
			})
		})

		Convey("When recording every other metric", func() {
			Convey("Then nothing panics", func() {
				So(func() {
					RecordPointIgnored("signal_filtered")
					RecordSampleStored()
					RecordToolChangeFinalized()
					UpdateInstanceCount(4)
					RecordReplay(120, 1.5)
					RecordFanout(7)
					RecordSlowSubscriber()
					UpdateQueueCapacity("0", 100)
					UpdateQueueUtilization("0", 0.1)
					RecordQueueEnqueue()
					RecordQueueDequeue()
					RecordQueueEnqueueError()
					RecordQueueProcessingLatency(0.2)
					UpdateWorkerCount(8)
					RecordWorkerProcessingLatency(0.3)
					RecordWorkerError()
					RecordHTTPRequest("notifications", "POST", "200")
					RecordHTTPRequestDuration("notifications", "POST", "200", 5.0)
					RecordErrorByComponent("queue", "full")
					RecordErrorByType("rate_limit", "medium")
					RecordErrorByEndpoint("notifications", "POST", "rate_limit")
					RecordErrorLatency("http", "rate_limit", 1.0)
					UpdateSystemMemoryUsage(1 << 20)
					UpdateSystemGoroutineCount(12)
					RecordSystemGCPauseTime(0.05)
				}, ShouldNotPanic)
			})
		})

		Convey("When gathering the custom registry", func() {
			families, err := GetRegistry().Gather()

			Convey("Then it exposes the service metrics", func() {
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
			})
		})
	})
}

func TestMetricsConcurrency(t *testing.T) {
	Convey("Given concurrent recorders", t, func() {
		before := testutil.ToFloat64(globalManager.fanoutDeliveries)
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					RecordFanout(1)
				}
			}()
		}
		wg.Wait()

		Convey("Then no increments are lost", func() {
			So(testutil.ToFloat64(globalManager.fanoutDeliveries)-before, ShouldEqual, 1000)
		})
	})
}
