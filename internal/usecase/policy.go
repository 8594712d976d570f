package usecase

import (
	"sort"

	"github.com/user/tenant-guard/internal/domain"
)

// Static policy tables. These are configuration, not request state; a
// metric requires ALL listed permissions.
var metricPermissions = map[string][]string{
	"totalCalls":            {"analytics:read", "calls:read"},
	"answeredCalls":         {"analytics:read", "calls:read"},
	"missedCalls":           {"analytics:read", "calls:read"},
	"peakHours":             {"analytics:read", "calls:read"},
	"totalAppointments":     {"analytics:read", "appointments:read"},
	"completedAppointments": {"analytics:read", "appointments:read"},
	"cancelledAppointments": {"analytics:read", "appointments:read"},
	"conversionRate":        {"analytics:read", "calls:read", "appointments:read"},
	"totalRevenue":          {"analytics:read", "revenue:read"},
	"averageTicket":         {"analytics:read", "revenue:read"},
	"newCustomers":          {"analytics:read", "customers:read"},
	"returningCustomers":    {"analytics:read", "customers:read"},
	"topServices":           {"analytics:read", "services:read"},
	"staffUtilization":      {"analytics:read", "staff:read"},
}

var dataRetentionDays = map[domain.SubscriptionTier]int{
	domain.TierFree:       30,
	domain.TierPro:        365,
	domain.TierEnterprise: 1095,
}

// TierLimits bounds pagination for a subscription tier.
type TierLimits struct {
	MaxLimit     int
	DefaultLimit int
}

var queryLimits = map[domain.SubscriptionTier]TierLimits{
	domain.TierFree:       {MaxLimit: 50, DefaultLimit: 25},
	domain.TierPro:        {MaxLimit: 200, DefaultLimit: 50},
	domain.TierEnterprise: {MaxLimit: 1000, DefaultLimit: 100},
}

// metricCountCaps is the per-tier cap on metrics per query. Zero means
// unbounded. Exceeding the cap truncates with a warning, never rejects.
var metricCountCaps = map[domain.SubscriptionTier]int{
	domain.TierFree: 5,
	domain.TierPro:  15,
}

// conditionalFilterKeys maps a permission to the filter keys it unlocks
// on top of the base allow-list.
var conditionalFilterKeys = map[string][]string{
	"services:read":  {"serviceId", "serviceType"},
	"customers:read": {"customerId", "customerSegment"},
	"staff:read":     {"staffId"},
}

const (
	maxOffset          = 10000
	freeTierMaxRange   = 30 // days
	maxFilterArrayLen  = 50
	maxFilterKeyLength = 50
)

// MetricPermissions returns the permissions required for a metric and
// whether the metric is known at all.
func MetricPermissions(metric string) ([]string, bool) {
	perms, ok := metricPermissions[metric]
	return perms, ok
}

// RetentionDays returns the historical data window for a tier. Unknown
// tiers fall back to the free tier, the most restrictive.
func RetentionDays(tier domain.SubscriptionTier) int {
	if days, ok := dataRetentionDays[tier]; ok {
		return days
	}
	return dataRetentionDays[domain.TierFree]
}

// LimitsForTier returns the pagination bounds for a tier. Unknown tiers
// fall back to the free tier.
func LimitsForTier(tier domain.SubscriptionTier) TierLimits {
	if l, ok := queryLimits[tier]; ok {
		return l
	}
	return queryLimits[domain.TierFree]
}

// MetricCountCap returns the per-query metric cap for a tier; zero
// means unbounded.
func MetricCountCap(tier domain.SubscriptionTier) int {
	return metricCountCaps[tier]
}

// AllowedFilterKeys returns the sorted filter keys the session may use:
// the base set plus keys unlocked by specific permissions.
func AllowedFilterKeys(session *domain.ValidatedSession) []string {
	keys := []string{"status", "dateRange"}
	for perm, unlocked := range conditionalFilterKeys {
		if session.HasPermission(perm) {
			keys = append(keys, unlocked...)
		}
	}
	sort.Strings(keys)
	return keys
}

// RolesToPermissions deterministically flattens role assignments into a
// permission set.
func RolesToPermissions(assignments []domain.RoleAssignment) map[string]struct{} {
	perms := make(map[string]struct{})
	for _, a := range assignments {
		for _, p := range a.Permissions {
			perms[p] = struct{}{}
		}
	}
	return perms
}

// RoleNames flattens role assignments into a role set.
func RoleNames(assignments []domain.RoleAssignment) map[string]struct{} {
	roles := make(map[string]struct{}, len(assignments))
	for _, a := range assignments {
		roles[a.Role] = struct{}{}
	}
	return roles
}
