package usecase

import (
	"reflect"
	"testing"

	"github.com/user/tenant-guard/internal/domain"
)

func TestRolesToPermissions(t *testing.T) {
	assignments := []domain.RoleAssignment{
		{Role: "admin", Permissions: []string{"analytics:read", "revenue:read"}},
		{Role: "staff", Permissions: []string{"analytics:read", "appointments:read"}},
	}

	perms := RolesToPermissions(assignments)

	want := []string{"analytics:read", "appointments:read", "revenue:read"}
	if len(perms) != len(want) {
		t.Fatalf("expected %d permissions, got %d", len(want), len(perms))
	}
	for _, p := range want {
		if _, ok := perms[p]; !ok {
			t.Errorf("expected permission %q to be present", p)
		}
	}
}

func TestRoleNames(t *testing.T) {
	assignments := []domain.RoleAssignment{
		{Role: "admin"},
		{Role: "staff"},
		{Role: "staff"},
	}

	roles := RoleNames(assignments)
	if len(roles) != 2 {
		t.Fatalf("expected 2 roles, got %d", len(roles))
	}
}

func TestAllowedFilterKeys(t *testing.T) {
	f := newFixture(domain.TierPro)

	t.Run("Base Set", func(t *testing.T) {
		got := AllowedFilterKeys(f.session(f.ownerID))
		want := []string{"dateRange", "status"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("Services Permission Unlocks Keys", func(t *testing.T) {
		got := AllowedFilterKeys(f.session(f.ownerID, "services:read"))
		want := []string{"dateRange", "serviceId", "serviceType", "status"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("Staff Permission Unlocks Key", func(t *testing.T) {
		got := AllowedFilterKeys(f.session(f.ownerID, "staff:read"))
		want := []string{"dateRange", "staffId", "status"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("got %v, want %v", got, want)
		}
	})
}

func TestTierTables(t *testing.T) {
	if days := RetentionDays(domain.TierFree); days != 30 {
		t.Errorf("free retention: got %d, want 30", days)
	}
	if days := RetentionDays(domain.TierPro); days != 365 {
		t.Errorf("pro retention: got %d, want 365", days)
	}
	if days := RetentionDays(domain.TierEnterprise); days != 1095 {
		t.Errorf("enterprise retention: got %d, want 1095", days)
	}
	if days := RetentionDays(domain.SubscriptionTier("bogus")); days != 30 {
		t.Errorf("unknown tier should fall back to free retention, got %d", days)
	}

	limits := LimitsForTier(domain.TierPro)
	if limits.MaxLimit != 200 || limits.DefaultLimit != 50 {
		t.Errorf("pro limits: got %+v", limits)
	}
	limits = LimitsForTier(domain.SubscriptionTier("bogus"))
	if limits.MaxLimit != 50 || limits.DefaultLimit != 25 {
		t.Errorf("unknown tier should fall back to free limits, got %+v", limits)
	}

	if c := MetricCountCap(domain.TierEnterprise); c != 0 {
		t.Errorf("enterprise metric cap should be unbounded, got %d", c)
	}
}

func TestMetricPermissions(t *testing.T) {
	perms, ok := MetricPermissions("totalRevenue")
	if !ok {
		t.Fatal("expected totalRevenue to be a known metric")
	}
	if !reflect.DeepEqual(perms, []string{"analytics:read", "revenue:read"}) {
		t.Errorf("unexpected permissions: %v", perms)
	}

	if _, ok := MetricPermissions("nope"); ok {
		t.Error("expected unknown metric to be reported as unknown")
	}
}
