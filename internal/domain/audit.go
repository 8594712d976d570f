package domain

import (
	"time"

	"github.com/google/uuid"
)

// SecurityEventType enumerates the audited security decisions.
type SecurityEventType string

const (
	EventSuccessfulAuthentication      SecurityEventType = "SUCCESSFUL_AUTHENTICATION"
	EventAuthenticationFailure         SecurityEventType = "AUTHENTICATION_FAILURE"
	EventInvalidUserAccess             SecurityEventType = "INVALID_USER_ACCESS"
	EventSuspiciousConcurrentSessions  SecurityEventType = "SUSPICIOUS_CONCURRENT_SESSIONS"
	EventIPAddressChange               SecurityEventType = "IP_ADDRESS_CHANGE"
	EventCrossTenantAccessAttempt      SecurityEventType = "CROSS_TENANT_ACCESS_ATTEMPT"
	EventInvalidTenantAccess           SecurityEventType = "INVALID_TENANT_ACCESS"
	EventUnauthorizedBusinessAccess    SecurityEventType = "UNAUTHORIZED_BUSINESS_ACCESS"
	EventSuccessfulTenantAccess        SecurityEventType = "SUCCESSFUL_TENANT_ACCESS"
	EventCrossTenantResourceAccess     SecurityEventType = "CROSS_TENANT_RESOURCE_ACCESS"
)

// Severity classifies a security event for forensic triage.
type Severity string

const (
	SeverityInfo Severity = "INFO"
	SeverityHigh Severity = "HIGH"
)

// SecurityEvent is an immutable audit record. This layer only ever
// appends events; retention and deletion are external concerns.
type SecurityEvent struct {
	Type       SecurityEventType `json:"event_type"`
	UserID     *uuid.UUID        `json:"user_id,omitempty"`
	Email      string            `json:"email,omitempty"`
	TenantID   *uuid.UUID        `json:"tenant_id,omitempty"`
	BusinessID *uuid.UUID        `json:"business_id,omitempty"`
	Details    map[string]any    `json:"details,omitempty"`
	IPAddress  string            `json:"ip_address"`
	UserAgent  string            `json:"user_agent"`
	Severity   Severity          `json:"severity"`
	Timestamp  time.Time         `json:"created_at"`
}
