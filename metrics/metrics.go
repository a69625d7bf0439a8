// Package metrics holds the Prometheus collectors for the player loop, the
// animations it drives and the LED stream.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Timer kinds used as label values.
const (
	KindTimeout  = "timeout"
	KindInterval = "interval"
)

// Animation events used as label values.
const (
	EventStarted   = "started"
	EventCompleted = "completed"
	EventCancelled = "cancelled"
)

// Metrics groups all collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	// TimersActive tracks the number of timers registered with the player
	TimersActive prometheus.Gauge

	// TimerCallbacksTotal counts dispatched timer callbacks by kind
	TimerCallbacksTotal *prometheus.CounterVec

	// AnimationsTotal counts animation lifecycle events
	AnimationsTotal *prometheus.CounterVec

	// FramesPublishedTotal counts frames handed to the sink
	FramesPublishedTotal prometheus.Counter

	// PublishErrorsTotal counts frames the sink rejected
	PublishErrorsTotal prometheus.Counter

	// FramesDroppedTotal counts frames discarded because the publish queue was full
	FramesDroppedTotal prometheus.Counter
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		TimersActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "player_timers_active",
			Help: "Number of timers registered with the player",
		}),
		TimerCallbacksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "player_timer_callbacks_total",
				Help: "Total timer callbacks dispatched by kind",
			},
			[]string{"kind"},
		),
		AnimationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "animations_total",
				Help: "Total animation lifecycle events by event",
			},
			[]string{"event"},
		),
		FramesPublishedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "stream_frames_published_total",
			Help: "Total frames published to the LED stream",
		}),
		PublishErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "stream_publish_errors_total",
			Help: "Total frames that failed to publish",
		}),
		FramesDroppedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "stream_frames_dropped_total",
			Help: "Total frames dropped while the publisher was busy",
		}),
	}
}

func (m *Metrics) SetTimersActive(n int) {
	if m == nil {
		return
	}
	m.TimersActive.Set(float64(n))
}

func (m *Metrics) TimerFired(kind string) {
	if m == nil {
		return
	}
	m.TimerCallbacksTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) Animation(event string) {
	if m == nil {
		return
	}
	m.AnimationsTotal.WithLabelValues(event).Inc()
}

func (m *Metrics) FramePublished(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.PublishErrorsTotal.Inc()
		return
	}
	m.FramesPublishedTotal.Inc()
}

func (m *Metrics) FrameDropped() {
	if m == nil {
		return
	}
	m.FramesDroppedTotal.Inc()
}
