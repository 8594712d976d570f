package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SecurityMetrics holds all Prometheus metrics for the authorization
// core.
type SecurityMetrics struct {
	AuthenticationsTotal  *prometheus.CounterVec
	TenantChecksTotal     *prometheus.CounterVec
	CrossTenantAttempts   prometheus.Counter
	QueryValidationsTotal *prometheus.CounterVec
	AuditEventsWritten    prometheus.Counter
	AuditEventsDropped    prometheus.Counter
	RateLimitedTotal      prometheus.Counter
}

// NewSecurityMetrics initializes and registers the Prometheus metrics.
func NewSecurityMetrics() *SecurityMetrics {
	return &SecurityMetrics{
		AuthenticationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tenant_guard",
			Subsystem: "auth",
			Name:      "authentications_total",
			Help:      "Total number of authentication attempts by outcome code.",
		}, []string{"outcome"}), // outcome: ok, NO_TOKEN, INVALID_TOKEN, TOKEN_EXPIRED, USER_INACTIVE, BUSINESS_INACTIVE
		TenantChecksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tenant_guard",
			Subsystem: "isolation",
			Name:      "tenant_checks_total",
			Help:      "Total number of tenant isolation checks by outcome code.",
		}, []string{"outcome"}),
		CrossTenantAttempts: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "tenant_guard",
			Subsystem: "isolation",
			Name:      "cross_tenant_attempts_total",
			Help:      "Total number of requests addressing a tenant the session is not bound to.",
		}),
		QueryValidationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tenant_guard",
			Subsystem: "analytics",
			Name:      "query_validations_total",
			Help:      "Total number of analytics query validations by outcome.",
		}, []string{"outcome"}), // outcome: valid, invalid, rejected
		AuditEventsWritten: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "tenant_guard",
			Subsystem: "audit",
			Name:      "events_written_total",
			Help:      "Total number of security events written to the audit store.",
		}),
		AuditEventsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "tenant_guard",
			Subsystem: "audit",
			Name:      "events_dropped_total",
			Help:      "Total number of security events dropped because the sink buffer was full or the store failed.",
		}),
		RateLimitedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "tenant_guard",
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Total number of requests rejected by the rate limiter.",
		}),
	}
}
