package domain

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository defines the interface for principal lookups.
type UserRepository interface {
	// FindByID returns the user with the given id, or ErrNotFound.
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)

	// TouchLastSeen updates the user's last-seen timestamp. Best-effort:
	// callers must not fail a request when this errors.
	TouchLastSeen(ctx context.Context, id uuid.UUID) error
}

// BusinessRepository defines the interface for business lookups.
// Implementations should cache reads; the isolation guard runs on every
// request.
type BusinessRepository interface {
	// FindByID returns the business with the given id, or ErrNotFound.
	FindByID(ctx context.Context, id uuid.UUID) (*Business, error)

	// FindByTenantID returns the business owning the given tenant, or
	// ErrNotFound.
	FindByTenantID(ctx context.Context, tenantID uuid.UUID) (*Business, error)
}

// ResourceOwnership is the tenant (and optional business) binding of a
// single resource row.
type ResourceOwnership struct {
	TenantID   uuid.UUID
	BusinessID *uuid.UUID
}

// ResourceRepository fetches ownership columns for arbitrary resource
// rows addressed by opaque id.
type ResourceRepository interface {
	// FetchOwnership reads the tenant column (and businessColumn when
	// non-empty) of the row with the given id, or ErrNotFound.
	FetchOwnership(ctx context.Context, table string, resourceID uuid.UUID, tenantColumn, businessColumn string) (*ResourceOwnership, error)
}

// AuditStore persists security events. Implementations are append-only.
type AuditStore interface {
	Append(ctx context.Context, event SecurityEvent) error
}

// AuditSink records security events without ever blocking or failing
// the caller. Implementations buffer and write asynchronously.
type AuditSink interface {
	Record(ctx context.Context, event SecurityEvent)
}

// SessionActivityRepository tracks recent session usage per principal
// for the advisory security checks.
type SessionActivityRepository interface {
	// RecordActivity appends an observed session use.
	RecordActivity(ctx context.Context, activity SessionActivity) error

	// RecentActivity returns up to n most recent activities, newest first.
	RecentActivity(ctx context.Context, userID uuid.UUID, n int) ([]SessionActivity, error)

	// ActiveSessionCount returns the number of distinct sessions seen
	// within the activity window.
	ActiveSessionCount(ctx context.Context, userID uuid.UUID) (int, error)
}

// AnalyticsReader executes a sanitized analytics query. Implementations
// must build their reads through the scoped query helpers; a read that
// skips tenant scoping is a defect by definition.
type AnalyticsReader interface {
	Read(ctx context.Context, q *AnalyticsQuery, session *ValidatedSession) (*AnalyticsReport, error)
}
