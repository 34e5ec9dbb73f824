// Package metrics defines and registers all custom Prometheus metrics for the
// signet credential service. It is the single source of truth for metric
// names, labels, and help strings.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "signet"

// ── Authentication metrics ────────────────────────────────────────────────────

// AuthAttemptsTotal counts authentication decisions made by the request
// authenticator.
// Label:
//   - outcome: "allowed", "auth_failed", or "forbidden"
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of request authentication attempts, by outcome.",
	},
	[]string{"outcome"},
)

// AuthDuration measures the time spent authenticating a single request,
// from parameter extraction to the final policy decision.
var AuthDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "auth_duration_seconds",
		Help:      "Duration of request authentication from extraction to decision.",
		Buckets:   prometheus.DefBuckets,
	},
)

// ── Lifecycle metrics ─────────────────────────────────────────────────────────

// LifecycleOpsTotal counts credential lifecycle operations.
// Labels:
//   - op: "create", "update", "toggle", "set_role", "remove_role", "delete"
//   - result: "ok" or "error"
var LifecycleOpsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lifecycle_ops_total",
		Help:      "Total number of credential lifecycle operations, by result.",
	},
	[]string{"op", "result"},
)

// ── Cache metrics ─────────────────────────────────────────────────────────────

// CacheLookupsTotal counts identity cache decisions.
// Label:
//   - result: "hit" (served from Redis) or "miss" (fell through to the store)
var CacheLookupsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_lookups_total",
		Help:      "Total number of identity cache lookups, labelled by result (hit/miss).",
	},
	[]string{"result"},
)
