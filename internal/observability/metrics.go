package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QuotesIssued = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tesseracts",
		Name:      "quotes_issued_total",
		Help:      "Total quotes returned to callers across all providers",
	})
	JobsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tesseracts",
		Name:      "jobs_created_total",
		Help:      "Total jobs created from accepted quotes",
	})
	JobsCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tesseracts",
		Name:      "jobs_cancelled_total",
		Help:      "Total jobs cancelled through the gateway",
	})
	QuotesSwept = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tesseracts",
		Name:      "quotes_swept_total",
		Help:      "Total expired quotes removed by the background sweep",
	})
	ProviderFaults = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tesseracts",
		Name:      "provider_faults_total",
		Help:      "Provider calls that failed or timed out, by provider and operation",
	}, []string{"provider", "operation"})
	QuoteFanoutDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "tesseracts",
		Name:      "quote_fanout_duration_seconds",
		Help:      "Wall time of the full provider quote fan-out",
		Buckets:   prometheus.DefBuckets,
	})
)
