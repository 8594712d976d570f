package domain

import (
	"time"

	"github.com/google/uuid"
)

// RoleAssignment binds a role name to the permissions it grants.
type RoleAssignment struct {
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// User represents a principal within a tenant.
type User struct {
	ID              uuid.UUID        `json:"id"`
	Email           string           `json:"email"`
	TenantID        uuid.UUID        `json:"tenant_id"`
	BusinessID      *uuid.UUID       `json:"business_id,omitempty"`
	IsActive        bool             `json:"is_active"`
	RoleAssignments []RoleAssignment `json:"role_assignments"`
	LastSeenAt      *time.Time       `json:"last_seen_at,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}
