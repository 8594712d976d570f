package usecase

import (
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/user/tenant-guard/internal/domain"
)

func TestScopedQuerySQL(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)

	q := NewScopedQuery("appointments", "COUNT(*)").
		Where("status", "completed").
		WhereBetween("scheduled_at", start, end)

	sql, args := q.SQL()
	wantSQL := "SELECT COUNT(*) FROM appointments WHERE status = $1 AND scheduled_at >= $2 AND scheduled_at <= $3"
	if sql != wantSQL {
		t.Errorf("got %q, want %q", sql, wantSQL)
	}
	if !reflect.DeepEqual(args, []any{"completed", start, end}) {
		t.Errorf("unexpected args: %v", args)
	}
}

func TestScopedQueryPagination(t *testing.T) {
	q := NewScopedQuery("calls", "id", "outcome").
		OrderBy("started_at DESC").
		Paginate(25, 50)

	sql, args := q.SQL()
	wantSQL := "SELECT id, outcome FROM calls ORDER BY started_at DESC LIMIT 25 OFFSET 50"
	if sql != wantSQL {
		t.Errorf("got %q, want %q", sql, wantSQL)
	}
	if len(args) != 0 {
		t.Errorf("expected no args, got %v", args)
	}
}

func TestScopeToTenant(t *testing.T) {
	f := newFixture(domain.TierPro)
	session := f.session(f.ownerID)

	base := NewScopedQuery("appointments", "COUNT(*)")
	scoped := ScopeToTenant(base, session)

	sql, args := scoped.SQL()
	wantSQL := "SELECT COUNT(*) FROM appointments WHERE tenant_id = $1"
	if sql != wantSQL {
		t.Errorf("got %q, want %q", sql, wantSQL)
	}
	if !reflect.DeepEqual(args, []any{session.TenantID}) {
		t.Errorf("unexpected args: %v", args)
	}

	// Scoping must not mutate the input query.
	baseSQL, baseArgs := base.SQL()
	if baseSQL != "SELECT COUNT(*) FROM appointments" || len(baseArgs) != 0 {
		t.Errorf("base query was mutated: %q %v", baseSQL, baseArgs)
	}
}

func TestScopeToBusiness(t *testing.T) {
	f := newFixture(domain.TierPro)
	session := f.session(f.ownerID)

	t.Run("Defaults To Session Business", func(t *testing.T) {
		scoped := ScopeToBusiness(NewScopedQuery("calls", "COUNT(*)"), session, nil)
		_, args := scoped.SQL()
		if !reflect.DeepEqual(args, []any{session.TenantID, f.businessID}) {
			t.Errorf("unexpected args: %v", args)
		}
	})

	t.Run("Explicit Business Overrides", func(t *testing.T) {
		other := uuid.New()
		scoped := ScopeToBusiness(NewScopedQuery("calls", "COUNT(*)"), session, &other)
		_, args := scoped.SQL()
		if !reflect.DeepEqual(args, []any{session.TenantID, other}) {
			t.Errorf("unexpected args: %v", args)
		}
	})

	t.Run("No Business Scope Still Carries Tenant", func(t *testing.T) {
		unbound := f.session(f.ownerID)
		unbound.BusinessID = nil
		scoped := ScopeToBusiness(NewScopedQuery("calls", "COUNT(*)"), unbound, nil)
		_, args := scoped.SQL()
		if !reflect.DeepEqual(args, []any{session.TenantID}) {
			t.Errorf("unexpected args: %v", args)
		}
	})
}
