// Package metrics defines and registers the custom Prometheus metrics of the
// staff portal. It is the single source of truth for metric names, labels and
// help strings; all metrics are registered with the default registry on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "staff_portal"

// ── Request metrics ───────────────────────────────────────────────────────────

// RequestsCreatedTotal counts supervisor requests accepted into the ledger.
// Label:
//   - kind: "deletion" or "add_staff"
var RequestsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "requests_created_total",
		Help:      "Total number of staff requests created, by kind.",
	},
	[]string{"kind"},
)

// RequestsProcessedTotal counts approval decisions.
// Labels:
//   - kind: "deletion" or "add_staff"
//   - outcome: "approved", "declined", or "failed"
var RequestsProcessedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "requests_processed_total",
		Help:      "Total number of staff request decisions, by kind and outcome.",
	},
	[]string{"kind", "outcome"},
)

// ── Sales metrics ─────────────────────────────────────────────────────────────

// SalesSubmissionsTotal counts daily sales form submissions.
// Label:
//   - result: "accumulated", "duplicate", "locked", or "error"
var SalesSubmissionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sales_submissions_total",
		Help:      "Total number of sales entry submissions, by result.",
	},
	[]string{"result"},
)

// ── Notification metrics ──────────────────────────────────────────────────────

// NotificationsEmittedTotal counts notification writes.
// Label:
//   - result: "ok", "error", or "dropped" (queue full)
var NotificationsEmittedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_emitted_total",
		Help:      "Total number of notifications emitted, by result.",
	},
	[]string{"result"},
)

// NotificationQueueDepth tracks pending notifications in each dispatcher worker channel.
var NotificationQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "notification_queue_depth",
		Help:      "Current number of notifications pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
