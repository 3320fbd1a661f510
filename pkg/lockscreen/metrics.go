package lockscreen

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Results recorded by OperationsTotal.
const (
	resultSuccess = "success"
	resultFailure = "failure"
)

var (
	// OperationsTotal counts public injector operations by outcome.
	OperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spicelock_operations_total",
		Help: "Total number of injector operations, by operation and result.",
	}, []string{"op", "result"})

	// ConversionsTotal counts successful conversions by the strategy that produced the output.
	ConversionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spicelock_conversions_total",
		Help: "Total number of completed conversions, by strategy.",
	}, []string{"strategy"})

	// InjectedAssets tracks the number of ledger records.
	InjectedAssets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "spicelock_injected_assets",
		Help: "Current number of assets recorded in the injection ledger.",
	})
)

func observe(op string, err error) {
	result := resultSuccess
	if err != nil {
		result = resultFailure
	}
	OperationsTotal.WithLabelValues(op, result).Inc()
}
