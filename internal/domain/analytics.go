package domain

import (
	"time"

	"github.com/google/uuid"
)

// AnalyticsQuery is the caller-supplied intent for an analytics read.
// It is untrusted input: only the sanitized copy produced by validation
// may reach data-access code.
type AnalyticsQuery struct {
	BusinessID uuid.UUID      `json:"business_id"`
	TenantID   uuid.UUID      `json:"tenant_id"`
	StartDate  *time.Time     `json:"start_date,omitempty"`
	EndDate    *time.Time     `json:"end_date,omitempty"`
	Metrics    []string       `json:"metrics,omitempty"`
	Limit      *int           `json:"limit,omitempty"`
	Offset     *int           `json:"offset,omitempty"`
	Filters    map[string]any `json:"filters,omitempty"`
}

// ValidationIssue is a single accumulated policy violation. Issues are
// collected rather than thrown so the caller can return one structured
// 400 response describing all problems at once.
type ValidationIssue struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// AnalyticsValidationResult is the outcome of business-rule validation.
// Sanitized is populated only when IsValid is true.
type AnalyticsValidationResult struct {
	IsValid   bool              `json:"is_valid"`
	Sanitized *AnalyticsQuery   `json:"sanitized,omitempty"`
	Errors    []ValidationIssue `json:"errors,omitempty"`
	Warnings  []string          `json:"warnings,omitempty"`
}

// AnalyticsReport is the aggregate read handed back to the caller.
type AnalyticsReport struct {
	BusinessID uuid.UUID          `json:"business_id"`
	StartDate  time.Time          `json:"start_date"`
	EndDate    time.Time          `json:"end_date"`
	Metrics    map[string]float64 `json:"metrics"`
	Limit      int                `json:"limit"`
	Offset     int                `json:"offset"`
}
