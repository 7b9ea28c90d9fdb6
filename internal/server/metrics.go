package server

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	toolCallsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitbuddy",
		Subsystem: "server",
		Name:      "tool_calls_total",
		Help:      "Number of tool calls by tool and outcome.",
	}, []string{"tool", "outcome"})

	toolDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "fitbuddy",
		Subsystem: "server",
		Name:      "tool_call_duration_seconds",
		Help:      "Latency of tool calls.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"tool"})
)

func init() {
	prometheus.MustRegister(toolCallsCounter, toolDuration)
}
