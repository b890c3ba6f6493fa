package paxos

import "github.com/prometheus/client_golang/prometheus"

// Metrics is the set of Prometheus collectors a Provider updates as
// proposers and learners are created and finish: gauges for the live
// instance counts and a histogram for each proposer's time to decision.
type Metrics struct {
	LiveProposers prometheus.Gauge
	LiveLearners  prometheus.Gauge
	DecisionSpan  prometheus.Histogram
}

// NewMetrics constructs a Metrics with collectors registered under the
// given namespace, ready to be registered against a prometheus.Registerer.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		LiveProposers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_proposers",
			Help:      "Number of proposer rounds currently in flight.",
		}),
		LiveLearners: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_learners",
			Help:      "Number of learner reads currently in flight.",
		}),
		DecisionSpan: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "decision_seconds",
			Help:      "Wall-clock seconds from proposer Start to decision.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// MustRegister registers every collector in m against reg, panicking on
// collision as prometheus.MustRegister does.
func (m *Metrics) MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(m.LiveProposers, m.LiveLearners, m.DecisionSpan)
}
