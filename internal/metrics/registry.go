package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metric definitions for the leadflow API

var (
	// Verification domain metrics
	VerificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leadflow",
			Subsystem: "verification",
			Name:      "checks_total",
			Help:      "Total number of contact verifications by kind and status",
		},
		[]string{"kind", "status"},
	)

	ProbeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "leadflow",
			Subsystem: "verification",
			Name:      "smtp_probe_duration_seconds",
			Help:      "SMTP probe wall time including DNS resolution",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		},
	)

	// Outreach domain metrics
	MessagesDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leadflow",
			Subsystem: "outreach",
			Name:      "messages_dispatched_total",
			Help:      "Messages dispatched after passing the compliance guard",
		},
		[]string{"channel", "template"},
	)

	ComplianceBlocks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leadflow",
			Subsystem: "outreach",
			Name:      "compliance_blocks_total",
			Help:      "Dispatch attempts rejected by the compliance guard",
		},
		[]string{"channel", "reason"},
	)

	InboundEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leadflow",
			Subsystem: "outreach",
			Name:      "inbound_events_total",
			Help:      "Inbound replies by channel and classification",
		},
		[]string{"channel", "kind"},
	)

	OptOuts = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "leadflow",
			Subsystem: "outreach",
			Name:      "opt_outs_total",
			Help:      "Leads flagged do-not-contact from inbound replies",
		},
	)

	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leadflow",
			Subsystem: "api",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "handler", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "leadflow",
			Subsystem: "api",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~32s
		},
		[]string{"method", "handler"},
	)
)
