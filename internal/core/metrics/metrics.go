package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	ResultSuccess  = "success"
	ResultRejected = "rejected"
	ResultError    = "error"
)

// Recorder counts account operations by kind and outcome.
type Recorder struct {
	operations *prometheus.CounterVec
	accounts   *prometheus.CounterVec
}

func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bank",
			Name:      "account_operations_total",
			Help:      "Account operations by kind and result.",
		}, []string{"kind", "result"}),
		accounts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bank",
			Name:      "accounts_opened_total",
			Help:      "Opened accounts by kind.",
		}, []string{"kind"}),
	}
	reg.MustRegister(r.operations, r.accounts)
	return r
}

func (r *Recorder) Operation(kind, result string) {
	r.operations.WithLabelValues(kind, result).Inc()
}

func (r *Recorder) AccountOpened(kind string) {
	r.accounts.WithLabelValues(kind).Inc()
}
