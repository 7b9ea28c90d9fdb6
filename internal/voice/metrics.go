package voice

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	framesSentCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fitbuddy",
		Subsystem: "voice",
		Name:      "frames_sent_total",
		Help:      "Number of captured audio frames sent to the voice service.",
	})

	framesDroppedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fitbuddy",
		Subsystem: "voice",
		Name:      "frames_dropped_total",
		Help:      "Number of captured audio frames dropped because the send queue was full.",
	})

	buffersScheduledCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fitbuddy",
		Subsystem: "voice",
		Name:      "buffers_scheduled_total",
		Help:      "Number of response audio fragments scheduled for playback.",
	})

	interruptionsCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fitbuddy",
		Subsystem: "voice",
		Name:      "interruptions_total",
		Help:      "Number of times playback was cut short by the user speaking.",
	})

	sessionsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitbuddy",
		Subsystem: "voice",
		Name:      "sessions_total",
		Help:      "Number of voice sessions by final state.",
	}, []string{"state"})

	pendingBuffersGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "fitbuddy",
		Subsystem: "voice",
		Name:      "pending_buffers",
		Help:      "Number of response audio buffers scheduled and not yet played.",
	})
)

func init() {
	prometheus.MustRegister(
		framesSentCounter,
		framesDroppedCounter,
		buffersScheduledCounter,
		interruptionsCounter,
		sessionsCounter,
		pendingBuffersGauge,
	)
}
