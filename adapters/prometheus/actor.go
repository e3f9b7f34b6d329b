// Package prometheus provides the Prometheus implementation of the actor
// runtime's metrics interface.
package prometheus

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/leonoel/mission/core/actor"
	"github.com/leonoel/mission/core/metrics"
)

// handlerBuckets are latency buckets in seconds. Reducers are usually short,
// so the low end is finer than Prometheus' defaults.
var handlerBuckets = []float64{
	.0001, .00025, .0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5,
}

func observe(h prometheus.Observer) metrics.Timer {
	return metrics.Since(func(d time.Duration) { h.Observe(d.Seconds()) })
}

// actorMetrics implements actor.Metrics using Prometheus.
type actorMetrics struct {
	messageDuration       *prometheus.HistogramVec
	messagesTotal         *prometheus.CounterVec
	panicTotal            *prometheus.CounterVec
	mailboxDepth          *prometheus.GaugeVec
	actorsRunning         *prometheus.GaugeVec
	actorsStopped         *prometheus.CounterVec
	schedulerInflight     prometheus.Gauge
	schedulerTaskDuration prometheus.Histogram
	schedulerTasksTotal   *prometheus.CounterVec
}

// NewActorMetrics creates and registers the Prometheus implementation of
// actor.Metrics.
func NewActorMetrics(reg prometheus.Registerer) actor.Metrics {
	m := &actorMetrics{
		messageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mission_actor_message_duration_seconds",
			Help:    "Handler execution time in seconds",
			Buckets: handlerBuckets,
		}, []string{"name"}),

		messagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mission_actor_messages_total",
			Help: "Total number of handled messages",
		}, []string{"name", "success"}),

		panicTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mission_actor_panics_total",
			Help: "Total number of handler panics",
		}, []string{"name"}),

		mailboxDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "mission_actor_mailbox_depth",
			Help: "Messages queued across all actors of a name",
		}, []string{"name"}),

		actorsRunning: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "mission_actor_running",
			Help: "Number of actors in the running state",
		}, []string{"name"}),

		actorsStopped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mission_actor_stopped_total",
			Help: "Total number of actors that left the running state",
		}, []string{"name", "state"}),

		schedulerInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mission_scheduler_inflight",
			Help: "Number of concurrently running scheduled tasks",
		}),

		schedulerTaskDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mission_scheduler_task_duration_seconds",
			Help:    "Scheduled task duration in seconds",
			Buckets: handlerBuckets,
		}),

		schedulerTasksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mission_scheduler_tasks_total",
			Help: "Total number of scheduled tasks completed",
		}, []string{"success"}),
	}

	reg.MustRegister(
		m.messageDuration,
		m.messagesTotal,
		m.panicTotal,
		m.mailboxDepth,
		m.actorsRunning,
		m.actorsStopped,
		m.schedulerInflight,
		m.schedulerTaskDuration,
		m.schedulerTasksTotal,
	)

	return m
}

func (m *actorMetrics) MessageDuration(name string) metrics.Timer {
	return observe(m.messageDuration.WithLabelValues(name))
}

func (m *actorMetrics) MessageProcessed(name string, success bool) {
	m.messagesTotal.WithLabelValues(name, strconv.FormatBool(success)).Inc()
}

func (m *actorMetrics) MessagePanic(name string) {
	m.panicTotal.WithLabelValues(name).Inc()
}

func (m *actorMetrics) MailboxDelta(name string, delta int) {
	m.mailboxDepth.WithLabelValues(name).Add(float64(delta))
}

func (m *actorMetrics) ActorStarted(name string) {
	m.actorsRunning.WithLabelValues(name).Inc()
}

func (m *actorMetrics) ActorStopped(name string, state actor.State) {
	m.actorsRunning.WithLabelValues(name).Dec()
	m.actorsStopped.WithLabelValues(name, state.String()).Inc()
}

func (m *actorMetrics) SchedulerInflight(count int) {
	m.schedulerInflight.Set(float64(count))
}

func (m *actorMetrics) SchedulerTaskDuration() metrics.Timer {
	return observe(m.schedulerTaskDuration)
}

func (m *actorMetrics) SchedulerTaskCompleted(success bool) {
	m.schedulerTasksTotal.WithLabelValues(strconv.FormatBool(success)).Inc()
}

var _ actor.Metrics = (*actorMetrics)(nil)
