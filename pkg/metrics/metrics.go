package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// AdsAPICalls counts Google Ads API calls by method and outcome (ok/error)
var AdsAPICalls = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "onboarding_ads_api_calls_total",
		Help: "Total number of Google Ads API calls issued by the gateway",
	},
	[]string{"method", "outcome"},
)

// AdsAPILatency records latency distribution for Google Ads API calls
var AdsAPILatency = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "onboarding_ads_api_latency_seconds",
		Help:    "Latency in seconds of individual Google Ads API calls",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"method"},
)

// Payment flow metrics
var (
	PaymentsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_payments_created_total",
			Help: "Total number of gateway payments created",
		},
		[]string{"currency"},
	)

	WebhooksReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_payment_webhooks_total",
			Help: "Total number of payment webhooks received by verification result",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(AdsAPICalls, AdsAPILatency)
	prometheus.MustRegister(PaymentsCreated, WebhooksReceived)
}
