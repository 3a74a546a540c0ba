package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/lunalira/transit/pkg/metrics"
)

func TestNewManager(t *testing.T) {
	Convey("Given a fresh registry", t, func() {
		registry := prometheus.NewRegistry()

		Convey("When a manager is constructed against it", func() {
			m := metrics.NewManager(metrics.WithPrometheusRegistry(registry))
			So(m, ShouldNotBeNil)

			Convey("Then the domain metric families are registered", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)

				names := make(map[string]bool, len(families))
				for _, f := range families {
					names[f.GetName()] = true
				}

				So(names["lunalira_transit_scans_completed_total"], ShouldBeTrue)
				So(names["lunalira_transit_instants_sampled_total"], ShouldBeTrue)
				So(names["lunalira_transit_queue_size"], ShouldBeTrue)
				So(names["lunalira_transit_ranking_days"], ShouldBeTrue)
				So(names["lunalira_transit_ephemeris_errors_total"], ShouldBeTrue)
			})
		})

		Convey("When namespace and subsystem are overridden", func() {
			m := metrics.NewManager(
				metrics.WithPrometheusRegistry(registry),
				metrics.WithNamespace("acme"),
				metrics.WithSubsystem("scans"),
			)
			So(m, ShouldNotBeNil)

			families, err := registry.Gather()
			So(err, ShouldBeNil)
			So(len(families), ShouldBeGreaterThan, 0)
			for _, f := range families {
				So(f.GetName(), ShouldStartWith, "acme_scans_")
			}
		})
	})
}

func TestGlobalHelpers(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When the helper functions fire", func() {
			metrics.RecordScanCompleted()
			metrics.RecordScanFailed()
			metrics.RecordScanLatency(12.5)
			metrics.RecordInstantSampled()
			metrics.RecordInstantSkipped()
			metrics.RecordAspectEvent("IPO")
			metrics.RecordAspectEvent("Transit")
			metrics.RecordRunSubmitted()
			metrics.RecordEphemerisError()

			metrics.UpdateQueueSize(3)
			metrics.UpdateQueueCapacity(100)
			metrics.UpdateQueueUtilization(0.03)
			metrics.RecordQueueEnqueue()
			metrics.RecordQueueDequeue()
			metrics.RecordQueueEnqueueError()
			metrics.RecordQueueProcessingLatency(1.0)

			metrics.UpdateWorkerCount(4)
			metrics.UpdateWorkerActiveCount(1)
			metrics.UpdateWorkerIdleCount(3)
			metrics.RecordWorkerProcessingLatency(2.0)
			metrics.RecordWorkerError()

			metrics.UpdateRunsTotal(2)
			metrics.UpdateRankingDays(5)
			metrics.UpdateRankingSymbolsTotal(40)
			metrics.RecordRankingUpdateLatency(0.2)
			metrics.RecordRankingQueryLatency(0.1)

			metrics.RecordHTTPRequest("/scans", "POST", "202")
			metrics.RecordHTTPRequestDuration("/scans", "POST", "202", 4.2)
			metrics.RecordErrorByComponent("repository", "not_found")
			metrics.RecordErrorByType("validation", "warning")
			metrics.RecordErrorByEndpoint("/scans", "POST", "bad_request")
			metrics.RecordErrorLatency("worker", "scan_failed", 7.0)

			metrics.UpdateSystemMemoryUsage(1 << 20)
			metrics.UpdateSystemGoroutineCount(42)
			metrics.RecordSystemGCPauseTime(0.5)

			Convey("Then the shared registry exposes the recorded samples", func() {
				families, err := metrics.GetRegistry().Gather()
				So(err, ShouldBeNil)

				byName := make(map[string]float64)
				for _, f := range families {
					for _, metric := range f.GetMetric() {
						if metric.GetCounter() != nil {
							byName[f.GetName()] += metric.GetCounter().GetValue()
						}
					}
				}

				So(byName["lunalira_transit_scans_completed_total"], ShouldBeGreaterThanOrEqualTo, 1)
				So(byName["lunalira_transit_aspect_events_total"], ShouldBeGreaterThanOrEqualTo, 2)
				So(byName["lunalira_transit_runs_submitted_total"], ShouldBeGreaterThanOrEqualTo, 1)
			})
		})
	})
}
