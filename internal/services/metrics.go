package services

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// entitlementsGranted counts unlock records written, by source kind.
	entitlementsGranted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studyvault_entitlements_granted_total",
			Help: "Entitlement records created, by source.",
		},
		[]string{"source"},
	)

	redemptions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studyvault_redemptions_total",
			Help: "Access-key redemption attempts, by outcome.",
		},
		[]string{"outcome"},
	)

	fulfillments = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studyvault_fulfillments_total",
			Help: "Order fulfillment attempts, by outcome.",
		},
		[]string{"outcome"},
	)

	downloadAuthorizations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studyvault_download_authorizations_total",
			Help: "Download URLs issued, by content type.",
		},
		[]string{"content_type"},
	)

	// downloadBookkeepingFailures counts issued URLs whose downloaded flag
	// could not be recorded. Each one is a reconciliation gap.
	downloadBookkeepingFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "studyvault_download_bookkeeping_failures_total",
			Help: "Downloads issued without the ledger being updated.",
		},
	)

	watermarkFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "studyvault_watermark_failures_total",
			Help: "Note deliveries aborted because watermarking failed.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		entitlementsGranted,
		redemptions,
		fulfillments,
		downloadAuthorizations,
		downloadBookkeepingFailures,
		watermarkFailures,
	)
}

// outcome maps an error to a low-cardinality metric label.
func outcome(err error, labels map[error]string) string {
	if err == nil {
		return "ok"
	}
	for target, label := range labels {
		if errors.Is(err, target) {
			return label
		}
	}
	return "error"
}
