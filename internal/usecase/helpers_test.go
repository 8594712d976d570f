package usecase

import (
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/user/tenant-guard/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testFixture wires a consistent owner/business/tenant triple for
// guard and validator tests.
type testFixture struct {
	tenantID   uuid.UUID
	businessID uuid.UUID
	ownerID    uuid.UUID
	memberID   uuid.UUID
	inactiveID uuid.UUID
	business   *domain.Business
}

func newFixture(tier domain.SubscriptionTier) *testFixture {
	f := &testFixture{
		tenantID:   uuid.New(),
		businessID: uuid.New(),
		ownerID:    uuid.New(),
		memberID:   uuid.New(),
		inactiveID: uuid.New(),
	}
	f.business = &domain.Business{
		ID:               f.businessID,
		TenantID:         f.tenantID,
		Name:             "Bella Salon",
		IsActive:         true,
		SubscriptionTier: tier,
		Features:         []string{"analytics", "voice_agent"},
		OwnerID:          f.ownerID,
		Members: []domain.BusinessMember{
			{UserID: f.memberID, Role: "staff", IsActive: true},
			{UserID: f.inactiveID, Role: "staff", IsActive: false},
		},
	}
	return f
}

func (f *testFixture) session(userID uuid.UUID, perms ...string) *domain.ValidatedSession {
	permSet := make(map[string]struct{}, len(perms))
	for _, p := range perms {
		permSet[p] = struct{}{}
	}
	return &domain.ValidatedSession{
		UserID:      userID,
		Email:       "user@example.com",
		TenantID:    f.tenantID,
		BusinessID:  &f.businessID,
		Permissions: permSet,
		Roles:       map[string]struct{}{"staff": {}},
		SessionID:   uuid.NewString(),
	}
}
