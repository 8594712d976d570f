package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("not found")
)

// Stable machine-readable error codes. Callers map these to HTTP
// statuses; the codes themselves are part of the API contract and must
// not change between releases.
const (
	CodeNoToken          = "NO_TOKEN"
	CodeInvalidToken     = "INVALID_TOKEN"
	CodeTokenExpired     = "TOKEN_EXPIRED"
	CodeUserInactive     = "USER_INACTIVE"
	CodeBusinessInactive = "BUSINESS_INACTIVE"

	CodeTenantAccessDenied   = "TENANT_ACCESS_DENIED"
	CodeBusinessAccessDenied = "BUSINESS_ACCESS_DENIED"

	CodeTenantNotFound     = "TENANT_NOT_FOUND"
	CodeTenantLookupFailed = "TENANT_LOOKUP_FAILED"

	CodeBusinessContextMismatch = "BUSINESS_CONTEXT_MISMATCH"

	CodeUnknownMetric           = "UNKNOWN_METRIC"
	CodeMetricAccessDenied      = "METRIC_ACCESS_DENIED"
	CodeHistoricalLimitExceeded = "HISTORICAL_LIMIT_EXCEEDED"
	CodeFreeTierRangeLimit      = "FREE_TIER_RANGE_LIMIT"
	CodeFilterNotAllowed        = "FILTER_NOT_ALLOWED"
	CodeInvalidDateRange        = "INVALID_DATE_RANGE"
)

// AuthenticationError indicates the inbound credential is absent,
// malformed, expired, or resolves to an inactive principal. Maps to 401.
type AuthenticationError struct {
	Code    string
	Message string
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication failed (%s): %s", e.Code, e.Message)
}

// UnauthorizedError indicates an authenticated principal is not entitled
// to the requested tenant or business. Maps to 403.
type UnauthorizedError struct {
	Code    string
	Message string
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("unauthorized (%s): %s", e.Code, e.Message)
}

// TenantIsolationError covers validation-pipeline failures not cleanly
// attributable to authentication or entitlement, including unexpected
// lookup failures. Maps to 403; never exposes the wrapped cause to the
// client.
type TenantIsolationError struct {
	Code    string
	Message string
	Err     error
}

func (e *TenantIsolationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("tenant isolation (%s): %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("tenant isolation (%s): %s", e.Code, e.Message)
}

func (e *TenantIsolationError) Unwrap() error { return e.Err }

// BusinessValidationError is raised when analytics-query validation
// detects a business/tenant identity mismatch. It is authorization-class
// (403), not an input error, because a mismatched id is a spoof attempt
// rather than a malformed request.
type BusinessValidationError struct {
	Code    string
	Message string
}

func (e *BusinessValidationError) Error() string {
	return fmt.Sprintf("business validation (%s): %s", e.Code, e.Message)
}
