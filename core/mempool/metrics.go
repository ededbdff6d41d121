package mempool

import (
	prom "github.com/harmony-one/mempool/api/service/prometheus"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	prom.PromRegistry().MustRegister(
		receivedTxsCounter,
		knownTxsCounter,
		replacedTxsCounter,
		invalidTxsCounterVec,
		removedTxsCounterVec,
		readyTxGauge,
		blockedTxGauge,
		bytesGauge,
		commitLatencyHistogram,
	)
}

// Removal reasons used as label of removedTxsCounterVec.
const (
	removedCommitted = "committed"
	removedRejected  = "rejected"
	removedExpired   = "expired"
	removedAged      = "aged"
	removedEvicted   = "capacity"
	removedStale     = "stale"
	removedReplaced  = "replaced"
)

var (
	receivedTxsCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "hmy",
			Subsystem: "mempool",
			Name:      "received",
			Help:      "number of transactions received",
		},
	)

	knownTxsCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "hmy",
			Subsystem: "mempool",
			Name:      "known",
			Help:      "number of byte-identical resubmissions received",
		},
	)

	replacedTxsCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "hmy",
			Subsystem: "mempool",
			Name:      "replaced",
			Help:      "number of transactions replaced by a higher scored one",
		},
	)

	invalidTxsCounterVec = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hmy",
			Subsystem: "mempool",
			Name:      "invalid",
			Help:      "transactions refused on submission",
		},
		[]string{"err"},
	)

	removedTxsCounterVec = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hmy",
			Subsystem: "mempool",
			Name:      "removed",
			Help:      "transactions removed from the pool",
		},
		[]string{"reason"},
	)

	readyTxGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "hmy",
			Subsystem: "mempool",
			Name:      "ready",
			Help:      "number of ready transactions",
		},
	)

	blockedTxGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "hmy",
			Subsystem: "mempool",
			Name:      "blocked",
			Help:      "number of blocked transactions",
		},
	)

	bytesGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "hmy",
			Subsystem: "mempool",
			Name:      "bytes",
			Help:      "accumulated payload size of all transactions",
		},
	)

	commitLatencyHistogram = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "hmy",
			Subsystem: "mempool",
			Name:      "commit_latency_seconds",
			Help:      "time between first sight and commit of a transaction",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 14),
		},
	)
)

// errLabel returns the root cause of err, the label of invalidTxsCounterVec.
func errLabel(err error) string {
	return errors.Cause(err).Error()
}
