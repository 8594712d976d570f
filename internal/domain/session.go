package domain

import (
	"time"

	"github.com/google/uuid"
)

// RequestMeta carries the request attributes relevant to security
// decisions and audit records.
type RequestMeta struct {
	IPAddress string
	UserAgent string
	Path      string
}

// ValidatedSession is the result of successful credential validation.
//
// TenantID is authoritative: it is resolved from the user store, never
// from token claims or request data, and must not be overwritten after
// construction.
type ValidatedSession struct {
	UserID      uuid.UUID           `json:"user_id"`
	Email       string              `json:"email"`
	TenantID    uuid.UUID           `json:"tenant_id"`
	BusinessID  *uuid.UUID          `json:"business_id,omitempty"`
	Permissions map[string]struct{} `json:"-"`
	Roles       map[string]struct{} `json:"-"`
	SessionID   string              `json:"session_id"`
	ExpiresAt   time.Time           `json:"expires_at"`
}

// HasPermission reports whether the session carries the named permission.
func (s *ValidatedSession) HasPermission(perm string) bool {
	_, ok := s.Permissions[perm]
	return ok
}

// SessionActivity is a single observed use of a session, kept for
// advisory security checks (concurrent-session and IP-change detection).
type SessionActivity struct {
	SessionID string    `json:"session_id"`
	UserID    uuid.UUID `json:"user_id"`
	IPAddress string    `json:"ip_address"`
	UserAgent string    `json:"user_agent"`
	SeenAt    time.Time `json:"seen_at"`
}
