package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	VotesCast = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "votapp",
		Name:      "votes_cast_total",
		Help:      "Votes accepted by the authority.",
	})

	// LocalFallbacks counts operations answered locally because the
	// authority could not serve them, by operation.
	LocalFallbacks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "votapp",
		Name:      "local_fallbacks_total",
		Help:      "Operations served from local state after an authority failure.",
	}, []string{"op"})

	AuthorityErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "votapp",
		Name:      "authority_errors_total",
		Help:      "Failed authority calls by kind.",
	}, []string{"kind"})

	Reconciled = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "votapp",
		Name:      "reconciled_polls_total",
		Help:      "Polls handled by reconciliation passes by result.",
	}, []string{"result"})
)

func init() {
	prometheus.MustRegister(VotesCast, LocalFallbacks, AuthorityErrors, Reconciled)
}
