package ledger

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	mutationCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitbuddy",
		Subsystem: "ledger",
		Name:      "mutations_total",
		Help:      "Number of ledger mutations persisted, by operation.",
	}, []string{"op"})

	persistErrorCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitbuddy",
		Subsystem: "ledger",
		Name:      "persist_errors_total",
		Help:      "Number of ledger writes rejected by the store, by operation.",
	}, []string{"op"})

	corruptLoadCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fitbuddy",
		Subsystem: "ledger",
		Name:      "corrupt_loads_total",
		Help:      "Number of times the persisted ledger could not be parsed and was reset.",
	})
)

func init() {
	prometheus.MustRegister(mutationCounter, persistErrorCounter, corruptLoadCounter)
}
