// Package metrics defines the Prometheus instruments for the gate
// subsystem, exposed at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LeadsRecorded counts successful lead writes, labelled by content kind.
	LeadsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "growthgate_leads_recorded_total",
		Help: "Leads successfully written to the store.",
	}, []string{"kind"})

	// LeadWriteFailures counts lead writes rejected by the store.
	LeadWriteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "growthgate_lead_write_failures_total",
		Help: "Lead writes that failed.",
	})

	// UnlocksGranted counts gate transitions into the unlocked state.
	UnlocksGranted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "growthgate_unlocks_granted_total",
		Help: "Gate unlocks granted, fresh or restored.",
	})

	// BodyFetchFailures counts gated-body fetches that failed after a
	// confirmed unlock. These never re-lock content; they show up here
	// and in the logs only.
	BodyFetchFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "growthgate_body_fetch_failures_total",
		Help: "Gated body fetches that failed post-unlock.",
	})

	// CRMForwardFailures counts best-effort CRM forwards that did not
	// reach the webhook. Never surfaced to visitors.
	CRMForwardFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "growthgate_crm_forward_failures_total",
		Help: "CRM webhook forwards that failed.",
	})
)
