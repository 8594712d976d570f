package domain

import (
	"time"

	"github.com/google/uuid"
)

// SubscriptionTier governs retention, query limits, and metric caps.
type SubscriptionTier string

const (
	TierFree       SubscriptionTier = "free"
	TierPro        SubscriptionTier = "pro"
	TierEnterprise SubscriptionTier = "enterprise"
)

// BusinessMember is an entry in a business's membership list.
type BusinessMember struct {
	UserID   uuid.UUID `json:"user_id"`
	Role     string    `json:"role"`
	IsActive bool      `json:"is_active"`
}

// Business is an operational unit within a tenant. It owns resources
// and has an owner plus a membership list.
type Business struct {
	ID               uuid.UUID        `json:"id"`
	TenantID         uuid.UUID        `json:"tenant_id"`
	Name             string           `json:"name"`
	IsActive         bool             `json:"is_active"`
	SubscriptionTier SubscriptionTier `json:"subscription_tier"`
	Features         []string         `json:"features"`
	OwnerID          uuid.UUID        `json:"owner_id"`
	Members          []BusinessMember `json:"members"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// TenantContext is the per-request proof that the session is entitled
// to the tenant it is addressing. It is never persisted; it is built
// after a successful isolation check and discarded with the request.
type TenantContext struct {
	TenantID         uuid.UUID           `json:"tenant_id"`
	BusinessID       uuid.UUID           `json:"business_id"`
	BusinessName     string              `json:"business_name"`
	IsActive         bool                `json:"is_active"`
	SubscriptionTier SubscriptionTier    `json:"subscription_tier"`
	Features         map[string]struct{} `json:"-"`
}

// HasFeature reports whether the tenant's subscription includes the
// named feature flag.
func (c *TenantContext) HasFeature(name string) bool {
	_, ok := c.Features[name]
	return ok
}
