package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	SyncCount           prometheus.Counter
	EmailsFetched       prometheus.Counter
	EmailsIndexed       prometheus.Counter
	ParseFailures       prometheus.Counter
	RuleClassifications prometheus.Counter
	InferenceFallbacks  prometheus.Counter
	IndexFailures       prometheus.Counter
	NotificationsSent   prometheus.Counter
	SyncDuration        prometheus.Histogram
}

// New creates new Prometheus metrics
func New() *Metrics {
	return &Metrics{
		SyncCount: promauto.NewCounter(prometheus.CounterOpts{
			Name: "inbox_scout_sync_count",
			Help: "Total number of mailbox sync calls",
		}),
		EmailsFetched: promauto.NewCounter(prometheus.CounterOpts{
			Name: "inbox_scout_emails_fetched",
			Help: "Total number of raw messages fetched from mailboxes",
		}),
		EmailsIndexed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "inbox_scout_emails_indexed",
			Help: "Total number of classified records written to the index",
		}),
		ParseFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "inbox_scout_parse_failures",
			Help: "Total number of messages dropped due to parse errors",
		}),
		RuleClassifications: promauto.NewCounter(prometheus.CounterOpts{
			Name: "inbox_scout_rule_classifications",
			Help: "Total number of emails categorized by a deterministic rule",
		}),
		InferenceFallbacks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "inbox_scout_inference_fallbacks",
			Help: "Total number of emails sent to the inference fallback stage",
		}),
		IndexFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "inbox_scout_index_failures",
			Help: "Total number of failed index writes",
		}),
		NotificationsSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "inbox_scout_notifications_sent",
			Help: "Total number of interested-lead alert dispatches",
		}),
		SyncDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "inbox_scout_sync_duration_seconds",
			Help:    "Time spent running one mailbox sync",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
