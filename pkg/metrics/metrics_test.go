package metrics

import (
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

			Convey("Then the defaults should be applied", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "eraquiz")
				So(manager.subsystem, ShouldEqual, "quiz")
				So(manager.histogramBuckets, ShouldNotBeEmpty)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithPrometheusRegistry(registry),
				WithNamespace("custom"),
				WithSubsystem("sub"),
				WithHistogramBuckets([]float64{1, 2, 3}),
				WithConstLabels(map[string]string{"env": "test"}),
			)

			Convey("Then the options should be applied", func() {
				So(manager.namespace, ShouldEqual, "custom")
				So(manager.subsystem, ShouldEqual, "sub")
				So(manager.histogramBuckets, ShouldResemble, []float64{1, 2, 3})
				So(manager.constLabels["env"], ShouldEqual, "test")
			})

			Convey("And empty values should not override defaults", func() {
				m := NewManager(WithPrometheusRegistry(prometheus.NewRegistry()), WithNamespace(""), WithHistogramBuckets(nil))
				So(m.namespace, ShouldEqual, "eraquiz")
				So(m.histogramBuckets, ShouldNotBeEmpty)
			})
		})
	})
}

func TestManagerCollectors(t *testing.T) {
	Convey("Given a manager on its own registry", t, func() {
		m := NewManager(WithPrometheusRegistry(prometheus.NewRegistry()))

		Convey("When quiz events are counted", func() {
			m.sessionsStarted.Inc()
			m.sessionsStarted.Inc()
			m.answersRecorded.WithLabelValues("true").Inc()
			m.transitionsRejected.WithLabelValues("advance").Inc()
			m.candidatePoolSize.Set(28)

			Convey("Then the collectors should report them", func() {
				So(testutil.ToFloat64(m.sessionsStarted), ShouldEqual, 2)
				So(testutil.ToFloat64(m.answersRecorded.WithLabelValues("true")), ShouldEqual, 1)
				So(testutil.ToFloat64(m.transitionsRejected.WithLabelValues("advance")), ShouldEqual, 1)
				So(testutil.ToFloat64(m.candidatePoolSize), ShouldEqual, 28)
			})
		})
	})
}

func TestGlobalRecorders(t *testing.T) {
	Convey("Given the global recorders", t, func() {
		Convey("When recording quiz metrics", func() {
			before := testutil.ToFloat64(globalManager.sessionsCompleted)
			So(func() {
				RecordSessionStarted()
				RecordSessionCompleted(50)
				RecordAnswer(true)
				RecordAnswer(false)
				RecordTransitionRejected("goBack")
				RecordResultsLatency(0.4)
			}, ShouldNotPanic)

			Convey("Then completed sessions should increase by one", func() {
				So(testutil.ToFloat64(globalManager.sessionsCompleted), ShouldEqual, before+1)
			})
		})

		Convey("When recording candidate metrics", func() {
			So(func() {
				UpdateCandidatePoolSize(30)
				RecordCandidatesExcluded("unresolvable", 2)
				RecordCandidatesExcluded("duplicate", 0)
				RecordCandidateFetchLatency(12)
				RecordCandidateFetchError()
			}, ShouldNotPanic)

			Convey("Then the pool size gauge should hold the last value", func() {
				So(testutil.ToFloat64(globalManager.candidatePoolSize), ShouldEqual, 30)
			})

			Convey("And zero exclusions should not create a series", func() {
				So(testutil.ToFloat64(globalManager.candidatesExcluded.WithLabelValues("duplicate")), ShouldEqual, 0)
			})
		})

		Convey("When recording store, HTTP and system metrics", func() {
			So(func() {
				RecordStoreLatency("get", 0.2)
				RecordStoreError("put")
				UpdateStoreRecords(3)
				RecordHTTPRequest("/sessions", "POST", "201")
				RecordHTTPRequestDuration("/sessions", "POST", "201", 3.5)
				RecordErrorByType("invalid_state", "warning")
				RecordErrorByEndpoint("/sessions/{id}/advance", "POST", "invalid_state")
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(12)
				RecordSystemGCPauseTime(0.3)
			}, ShouldNotPanic)
		})

		Convey("When gathering the custom registry", func() {
			families, err := GetRegistry().Gather()

			Convey("Then quiz metric families should be present", func() {
				So(err, ShouldBeNil)
				names := map[string]bool{}
				for _, f := range families {
					names[f.GetName()] = true
				}
				So(names["eraquiz_quiz_sessions_started_total"], ShouldBeTrue)
				So(names["eraquiz_quiz_candidate_pool_size"], ShouldBeTrue)
			})
		})
	})
}
