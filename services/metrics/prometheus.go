// Package metricsvc exposes application counters to Prometheus.
package metricsvc

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/CSMathematics/student-management-sub000/core/achievement"
	"github.com/CSMathematics/student-management-sub000/core/schedule"
)

const namespace = "school"

type Recorder struct {
	registry       *prometheus.Registry
	badges         *prometheus.CounterVec
	evalFailures   prometheus.Counter
	scheduleSaves  prometheus.Counter
	scheduleWrites prometheus.Counter
	conflicts      prometheus.Counter
}

var (
	_ achievement.Recorder = (*Recorder)(nil)
	_ schedule.Recorder    = (*Recorder)(nil)
)

// NewRecorder registers the application counters, plus the Go runtime and process collectors, on a fresh registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		badges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "achievements",
			Name:      "badges_awarded_total",
			Help:      "Number of badges awarded, by badge id.",
		}, []string{"badge"}),
		evalFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "achievements",
			Name:      "evaluation_failures_total",
			Help:      "Number of achievement evaluations that failed.",
		}),
		scheduleSaves: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "schedule",
			Name:      "saves_total",
			Help:      "Number of schedule edit sessions saved.",
		}),
		scheduleWrites: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "schedule",
			Name:      "classroom_writes_total",
			Help:      "Number of classroom documents written by schedule saves.",
		}),
		conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "schedule",
			Name:      "conflicts_total",
			Help:      "Number of schedule changes rejected because of a teacher overlap.",
		}),
	}
	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.badges, r.evalFailures, r.scheduleSaves, r.scheduleWrites, r.conflicts,
	)
	return r
}

func (r *Recorder) BadgesAwarded(badgeIDs ...string) {
	for _, id := range badgeIDs {
		r.badges.WithLabelValues(id).Inc()
	}
}

func (r *Recorder) EvaluationFailed() { r.evalFailures.Inc() }

func (r *Recorder) ScheduleSaved(writes int) {
	r.scheduleSaves.Inc()
	r.scheduleWrites.Add(float64(writes))
}

func (r *Recorder) ConflictRejected() { r.conflicts.Inc() }

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.Gatherer(), promhttp.HandlerOpts{Registry: r.registry})
}

// Gatherer exposes the registry for reading the collected metrics.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}
