package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should use the depthchart namespace", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "depthchart")
				So(manager.subsystem, ShouldEqual, "service")
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_namespace"),
				WithSubsystem("test_subsystem"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			manager.playersAdded.Inc()

			Convey("Then metric names and labels should follow the options", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)

				var found bool
				for _, f := range families {
					if f.GetName() == "test_namespace_test_subsystem_players_added_total" {
						found = true
						So(f.GetMetric()[0].GetLabel()[0].GetName(), ShouldEqual, "env")
						So(f.GetMetric()[0].GetLabel()[0].GetValue(), ShouldEqual, "test")
					}
				}
				So(found, ShouldBeTrue)
				So(manager.histogramBuckets, ShouldResemble, []float64{0.1, 0.5, 1.0})
			})
		})

		Convey("When passing empty option values", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithHistogramBuckets(nil),
				WithConstLabels(nil),
				WithPrometheusRegistry(registry),
			)

			Convey("Then defaults should be kept", func() {
				So(manager.namespace, ShouldEqual, "depthchart")
				So(manager.subsystem, ShouldEqual, "service")
				So(manager.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
				So(manager.constLabels, ShouldNotBeNil)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording roster changes", func() {
			added := testutil.ToFloat64(globalManager.playersAdded)
			removed := testutil.ToFloat64(globalManager.playersRemoved)

			RecordPlayerAdded()
			RecordPlayerAdded()
			RecordPlayerRemoved()
			UpdatePlayersTotal(42)

			Convey("Then counters and gauges should move", func() {
				So(testutil.ToFloat64(globalManager.playersAdded), ShouldEqual, added+2)
				So(testutil.ToFloat64(globalManager.playersRemoved), ShouldEqual, removed+1)
				So(testutil.ToFloat64(globalManager.playersTotal), ShouldEqual, 42)
			})
		})

		Convey("When recording queries", func() {
			charts := testutil.ToFloat64(globalManager.chartQueries)
			under := testutil.ToFloat64(globalManager.playersUnderQueries)
			missing := testutil.ToFloat64(globalManager.playerNotFound)

			RecordChartQuery()
			RecordPlayersUnderQuery()
			RecordPlayerNotFound()
			RecordValidationFailure("add")

			Convey("Then query counters should move", func() {
				So(testutil.ToFloat64(globalManager.chartQueries), ShouldEqual, charts+1)
				So(testutil.ToFloat64(globalManager.playersUnderQueries), ShouldEqual, under+1)
				So(testutil.ToFloat64(globalManager.playerNotFound), ShouldEqual, missing+1)
				So(testutil.ToFloat64(globalManager.validationFailures.WithLabelValues("add")), ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		Convey("When recording HTTP and error metrics", func() {
			So(func() {
				RecordHTTPRequest("/depthchart", "GET", "200")
				RecordHTTPRequestDuration("/depthchart", "GET", "200", 5.0)
				RecordRateLimited("/depthchart", "POST")
				RecordErrorByComponent("repository", "duplicate")
				RecordErrorByType("not_found", "warning")
				RecordErrorByEndpoint("/depthchart/player", "DELETE", "not_found")
				RecordStoreLatency("list", 0.25)
				UpdateSystemMemoryUsage(1024 * 1024)
				UpdateSystemGoroutineCount(12)
			}, ShouldNotPanic)

			Convey("Then the custom registry should expose them", func() {
				count, err := testutil.GatherAndCount(GetRegistry(), "depthchart_service_http_rate_limited_total")
				So(err, ShouldBeNil)
				So(count, ShouldBeGreaterThanOrEqualTo, 1)
				So(testutil.ToFloat64(globalManager.systemGoroutineCount), ShouldEqual, 12)
			})
		})
	})
}

func TestMetricsConcurrency(t *testing.T) {
	Convey("Given metrics concurrency", t, func() {
		Convey("When recording metrics concurrently", func() {
			before := testutil.ToFloat64(globalManager.chartQueries)
			done := make(chan bool, 10)

			for i := 0; i < 10; i++ {
				go func() {
					for j := 0; j < 100; j++ {
						RecordChartQuery()
						UpdatePlayersTotal(j)
						RecordStoreLatency("add", float64(j))
						RecordHTTPRequest("/test", "GET", "200")
					}
					done <- true
				}()
			}

			for i := 0; i < 10; i++ {
				<-done
			}

			Convey("Then every increment should be counted", func() {
				So(testutil.ToFloat64(globalManager.chartQueries), ShouldEqual, before+1000)
			})
		})
	})
}
