// Copyright (c) 2020-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "ledgergw"

	// OutcomeSuccess labels ledger calls that returned without error.
	OutcomeSuccess = "success"
)

// Metrics holds the Prometheus collectors for ledger operations. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	transactions   *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	conflictRetry  prometheus.Counter
	confirmedTotal prometheus.Counter
}

// New creates the collectors and registers them with registerer.
func New(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_total",
			Help:      "Ledger transactions invoked, by operation and outcome.",
		}, []string{"operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transaction_duration_seconds",
			Help:      "Time spent waiting on the ledger, by operation.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		conflictRetry: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conflict_retries_total",
			Help:      "Submits retried after an MVCC conflict.",
		}),
		confirmedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_confirmed_total",
			Help:      "Journalled submissions confirmed by reading them back from the ledger.",
		}),
	}

	registerer.MustRegister(m.transactions, m.duration, m.conflictRetry, m.confirmedTotal)

	return m
}

// ObserveTransaction records one ledger call.
func (m *Metrics) ObserveTransaction(operation, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.transactions.WithLabelValues(operation, outcome).Inc()
	m.duration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// IncConflictRetry records a submit retried after a conflict.
func (m *Metrics) IncConflictRetry() {
	if m == nil {
		return
	}
	m.conflictRetry.Inc()
}

// IncConfirmed records a submission confirmed by the supervisor.
func (m *Metrics) IncConfirmed() {
	if m == nil {
		return
	}
	m.confirmedTotal.Inc()
}
