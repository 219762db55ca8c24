// Package metrics exposes recording outcomes as Prometheus metrics.
package metrics

import (
	"errors"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/audiolibrelab/broadcastrec/internal/recorder"
	"github.com/audiolibrelab/broadcastrec/internal/resolve"
)

// Failure reasons used as label values.
const (
	ReasonUnresolved = "unresolved"
	ReasonLate       = "late"
	ReasonError      = "error"
)

var allStates = []recorder.State{
	recorder.StateIdle,
	recorder.StateWaiting,
	recorder.StateResolving,
	recorder.StateRecording,
	recorder.StateDone,
	recorder.StateSkipped,
	recorder.StateFailed,
}

// Metrics holds the recorder counters and gauges. It implements
// recorder.Observer.
type Metrics struct {
	registry          *prometheus.Registry
	recordingsStarted prometheus.Counter
	recordingsDone    prometheus.Counter
	recordedSeconds   prometheus.Counter
	channelsSkipped   prometheus.Counter
	failuresTotal     *prometheus.CounterVec
	channelsByState   *prometheus.GaugeVec

	mu     sync.Mutex
	states map[string]recorder.State
}

// New creates and registers the metrics on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	recordingsStarted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "broadcastrec_recordings_started_total",
		Help: "Total number of recordings handed to the capture tool",
	})
	recordingsDone := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "broadcastrec_recordings_completed_total",
		Help: "Total number of recordings whose capture tool exited",
	})
	recordedSeconds := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "broadcastrec_recording_requested_seconds_total",
		Help: "Sum of requested recording durations, collar included",
	})
	channelsSkipped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "broadcastrec_channels_skipped_total",
		Help: "Total number of channels without a start/stop window",
	})
	failuresTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "broadcastrec_channel_failures_total",
		Help: "Total number of channels that did not record, by reason",
	}, []string{"reason"})
	channelsByState := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "broadcastrec_channels",
		Help: "Number of channels currently in each lifecycle state",
	}, []string{"state"})

	registry.MustRegister(
		recordingsStarted,
		recordingsDone,
		recordedSeconds,
		channelsSkipped,
		failuresTotal,
		channelsByState,
	)

	for _, reason := range []string{ReasonUnresolved, ReasonLate, ReasonError} {
		failuresTotal.WithLabelValues(reason)
	}
	for _, s := range allStates {
		channelsByState.WithLabelValues(string(s))
	}

	return &Metrics{
		registry:          registry,
		recordingsStarted: recordingsStarted,
		recordingsDone:    recordingsDone,
		recordedSeconds:   recordedSeconds,
		channelsSkipped:   channelsSkipped,
		failuresTotal:     failuresTotal,
		channelsByState:   channelsByState,
		states:            make(map[string]recorder.State),
	}
}

// Observe updates the metrics from a channel state transition.
func (m *Metrics) Observe(e recorder.Event) {
	m.mu.Lock()
	if prev, ok := m.states[e.Channel]; ok {
		m.channelsByState.WithLabelValues(string(prev)).Dec()
	}
	m.states[e.Channel] = e.State
	m.channelsByState.WithLabelValues(string(e.State)).Inc()
	m.mu.Unlock()

	switch e.State {
	case recorder.StateRecording:
		m.recordingsStarted.Inc()
		if e.Job != nil {
			m.recordedSeconds.Add(float64(e.Job.Duration))
		}
	case recorder.StateDone:
		m.recordingsDone.Inc()
	case recorder.StateSkipped:
		m.channelsSkipped.Inc()
	case recorder.StateFailed:
		m.failuresTotal.WithLabelValues(FailureReason(e.Err)).Inc()
	}
}

// FailureReason classifies the error of a FAILED transition.
func FailureReason(err error) string {
	switch {
	case errors.Is(err, resolve.ErrNoStationFound), errors.Is(err, resolve.ErrResolverUnavailable):
		return ReasonUnresolved
	case errors.Is(err, recorder.ErrLateSchedule):
		return ReasonLate
	default:
		return ReasonError
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an http.Handler that serves the metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
