package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/user/tenant-guard/internal/domain"
)

// AnalyticsValidator applies tier and permission policy to analytics
// queries. Ordinary policy violations are accumulated into the result
// so callers can return one structured 400 describing all problems;
// identity mismatches are returned as typed errors because they are
// authorization failures, not input errors.
type AnalyticsValidator struct {
	guard  *TenantGuard
	audit  domain.AuditSink
	logger *slog.Logger
	now    func() time.Time
}

// NewAnalyticsValidator creates a new AnalyticsValidator.
func NewAnalyticsValidator(guard *TenantGuard, audit domain.AuditSink, logger *slog.Logger) *AnalyticsValidator {
	return &AnalyticsValidator{
		guard:  guard,
		audit:  audit,
		logger: logger.With("component", "analytics_validator"),
		now:    time.Now,
	}
}

// ValidateAnalyticsQuery validates and sanitizes a caller-supplied
// analytics query against the session's permissions and the business's
// subscription tier. The returned Sanitized query is the only version
// that may reach the data-access layer.
func (v *AnalyticsValidator) ValidateAnalyticsQuery(ctx context.Context, q *domain.AnalyticsQuery, session *domain.ValidatedSession) (*domain.AnalyticsValidationResult, error) {
	// Identity mismatch is a trust violation, not a bad filter value:
	// raise instead of accumulating.
	if q.TenantID != session.TenantID || session.BusinessID == nil || q.BusinessID != *session.BusinessID {
		v.audit.Record(ctx, domain.SecurityEvent{
			Type:     domain.EventCrossTenantAccessAttempt,
			UserID:   &session.UserID,
			Email:    session.Email,
			TenantID: &session.TenantID,
			Details: map[string]any{
				"query_tenant_id":   q.TenantID.String(),
				"query_business_id": q.BusinessID.String(),
			},
			Severity:  domain.SeverityHigh,
			Timestamp: time.Now().UTC(),
		})
		return nil, &domain.BusinessValidationError{
			Code:    domain.CodeBusinessContextMismatch,
			Message: "query business/tenant does not match the session",
		}
	}

	business, err := v.guard.checkBusinessEntitlement(ctx, session, session.TenantID)
	if err != nil {
		return nil, err
	}
	tier := business.SubscriptionTier

	result := &domain.AnalyticsValidationResult{}

	v.checkMetrics(q, session, result)
	v.checkDateRange(q, tier, result)
	v.checkFilters(q, session, result)

	if len(result.Errors) > 0 {
		return result, nil
	}

	result.IsValid = true
	result.Sanitized = v.sanitize(q, session, tier, result)
	return result, nil
}

// checkMetrics verifies every requested metric is known and fully
// permitted. Any denial fails the whole validation; metrics are never
// silently dropped.
func (v *AnalyticsValidator) checkMetrics(q *domain.AnalyticsQuery, session *domain.ValidatedSession, result *domain.AnalyticsValidationResult) {
	for _, metric := range q.Metrics {
		required, known := MetricPermissions(metric)
		if !known {
			result.Errors = append(result.Errors, domain.ValidationIssue{
				Code:    domain.CodeUnknownMetric,
				Field:   metric,
				Message: fmt.Sprintf("metric %q is not recognized", metric),
			})
			continue
		}
		var missing []string
		for _, perm := range required {
			if !session.HasPermission(perm) {
				missing = append(missing, perm)
			}
		}
		if len(missing) > 0 {
			result.Errors = append(result.Errors, domain.ValidationIssue{
				Code:    domain.CodeMetricAccessDenied,
				Field:   metric,
				Message: fmt.Sprintf("metric %q denied, missing permissions: %s", metric, strings.Join(missing, ", ")),
			})
		}
	}
}

func (v *AnalyticsValidator) checkDateRange(q *domain.AnalyticsQuery, tier domain.SubscriptionTier, result *domain.AnalyticsValidationResult) {
	if q.StartDate != nil && q.EndDate != nil && q.EndDate.Before(*q.StartDate) {
		result.Errors = append(result.Errors, domain.ValidationIssue{
			Code:    domain.CodeInvalidDateRange,
			Field:   "start_date",
			Message: "start_date must not be after end_date",
		})
		return
	}

	retention := RetentionDays(tier)
	earliest := v.now().UTC().AddDate(0, 0, -retention)
	if q.StartDate != nil && q.StartDate.Before(earliest) {
		result.Errors = append(result.Errors, domain.ValidationIssue{
			Code:    domain.CodeHistoricalLimitExceeded,
			Field:   "start_date",
			Message: fmt.Sprintf("%s tier retains %d days of history", tier, retention),
		})
	}

	// Free tier additionally caps the explicit span even when both ends
	// are inside the retention window.
	if tier == domain.TierFree && q.StartDate != nil && q.EndDate != nil {
		if q.EndDate.Sub(*q.StartDate) > freeTierMaxRange*24*time.Hour {
			result.Errors = append(result.Errors, domain.ValidationIssue{
				Code:    domain.CodeFreeTierRangeLimit,
				Field:   "end_date",
				Message: fmt.Sprintf("free tier queries are limited to a %d-day range", freeTierMaxRange),
			})
		}
	}
}

func (v *AnalyticsValidator) checkFilters(q *domain.AnalyticsQuery, session *domain.ValidatedSession, result *domain.AnalyticsValidationResult) {
	if len(q.Filters) == 0 {
		return
	}
	allowed := AllowedFilterKeys(session)
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, k := range allowed {
		allowedSet[k] = struct{}{}
	}

	keys := make([]string, 0, len(q.Filters))
	for k := range q.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if _, ok := allowedSet[k]; !ok {
			result.Errors = append(result.Errors, domain.ValidationIssue{
				Code:    domain.CodeFilterNotAllowed,
				Field:   k,
				Message: fmt.Sprintf("filter %q is not permitted; allowed filters: %s", k, strings.Join(allowed, ", ")),
			})
		}
	}
}

// sanitize builds the policy-compliant copy of the query. Ids are taken
// from the session, never from the caller; limit and offset are clamped,
// never rejected; the tier metric cap truncates with a warning.
func (v *AnalyticsValidator) sanitize(q *domain.AnalyticsQuery, session *domain.ValidatedSession, tier domain.SubscriptionTier, result *domain.AnalyticsValidationResult) *domain.AnalyticsQuery {
	limits := LimitsForTier(tier)
	limit := limits.DefaultLimit
	if q.Limit != nil {
		limit = *q.Limit
	}
	if limit < 1 {
		limit = 1
	}
	if limit > limits.MaxLimit {
		limit = limits.MaxLimit
	}

	offset := 0
	if q.Offset != nil {
		offset = *q.Offset
	}
	if offset < 0 {
		offset = 0
	}
	if offset > maxOffset {
		offset = maxOffset
	}

	metrics := append([]string(nil), q.Metrics...)
	if maxMetrics := MetricCountCap(tier); maxMetrics > 0 && len(metrics) > maxMetrics {
		metrics = metrics[:maxMetrics]
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("%s tier caps queries at %d metrics; request truncated to the first %d", tier, maxMetrics, maxMetrics))
	}

	var filters map[string]any
	if len(q.Filters) > 0 {
		filters = make(map[string]any, len(q.Filters))
		for k, val := range q.Filters {
			filters[k] = sanitizeFilterValue(val)
		}
	}

	return &domain.AnalyticsQuery{
		BusinessID: *session.BusinessID,
		TenantID:   session.TenantID,
		StartDate:  q.StartDate,
		EndDate:    q.EndDate,
		Metrics:    metrics,
		Limit:      &limit,
		Offset:     &offset,
		Filters:    filters,
	}
}

// sanitizeFilterValue strips markup-significant characters from
// strings, truncates arrays, and recursively cleans nested objects.
func sanitizeFilterValue(value any) any {
	switch val := value.(type) {
	case string:
		return sanitizeFilterString(val)
	case []any:
		if len(val) > maxFilterArrayLen {
			val = val[:maxFilterArrayLen]
		}
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = sanitizeFilterValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			if len(k) > maxFilterKeyLength {
				k = k[:maxFilterKeyLength]
			}
			out[k] = sanitizeFilterValue(item)
		}
		return out
	default:
		return value
	}
}

func sanitizeFilterString(s string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', '\'', '"', '&':
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(cleaned)
}
