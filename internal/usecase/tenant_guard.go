package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/user/tenant-guard/internal/domain"
)

// TenantGuard enforces the system's central invariant: a request may
// only touch tenant X's data if the session is bound to X and the
// principal has live membership in the owning business.
type TenantGuard struct {
	businesses domain.BusinessRepository
	resources  domain.ResourceRepository
	audit      domain.AuditSink
	logger     *slog.Logger
}

// NewTenantGuard creates a new TenantGuard.
func NewTenantGuard(businesses domain.BusinessRepository, resources domain.ResourceRepository, audit domain.AuditSink, logger *slog.Logger) *TenantGuard {
	return &TenantGuard{
		businesses: businesses,
		resources:  resources,
		audit:      audit,
		logger:     logger.With("component", "tenant_guard"),
	}
}

// checkBusinessEntitlement is the single shared predicate behind
// Authorize, ValidateBusinessContext, and ValidateResourceOwnership:
// strict tenant equality, an active owning business, and
// owner-or-active-member membership. Keeping one copy avoids the three
// checks drifting apart.
func (g *TenantGuard) checkBusinessEntitlement(ctx context.Context, session *domain.ValidatedSession, tenantID uuid.UUID) (*domain.Business, error) {
	if session.TenantID != tenantID {
		return nil, &domain.UnauthorizedError{Code: domain.CodeTenantAccessDenied, Message: "session is not bound to the requested tenant"}
	}

	business, err := g.businesses.FindByTenantID(ctx, tenantID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &domain.TenantIsolationError{Code: domain.CodeTenantNotFound, Message: "no active business owns the requested tenant"}
		}
		return nil, &domain.TenantIsolationError{Code: domain.CodeTenantLookupFailed, Message: "business lookup failed", Err: err}
	}
	if !business.IsActive {
		return nil, &domain.TenantIsolationError{Code: domain.CodeTenantNotFound, Message: "no active business owns the requested tenant"}
	}

	if !isOwnerOrActiveMember(business, session.UserID) {
		return nil, &domain.UnauthorizedError{Code: domain.CodeBusinessAccessDenied, Message: "principal is not a member of the owning business"}
	}

	return business, nil
}

func isOwnerOrActiveMember(business *domain.Business, userID uuid.UUID) bool {
	if business.OwnerID == userID {
		return true
	}
	for _, m := range business.Members {
		if m.UserID == userID && m.IsActive {
			return true
		}
	}
	return false
}

// Authorize proves the session may act on the requested tenant and
// returns a fully populated TenantContext. Every failure branch emits
// exactly one audit event. There is no bypass path: the tenant equality
// check runs even for trusted-looking internal calls.
func (g *TenantGuard) Authorize(ctx context.Context, session *domain.ValidatedSession, requestedTenantID uuid.UUID, path string) (*domain.TenantContext, error) {
	business, err := g.checkBusinessEntitlement(ctx, session, requestedTenantID)
	if err != nil {
		g.auditEntitlementFailure(ctx, session, requestedTenantID, path, err)
		return nil, err
	}

	g.audit.Record(ctx, domain.SecurityEvent{
		Type:       domain.EventSuccessfulTenantAccess,
		UserID:     &session.UserID,
		Email:      session.Email,
		TenantID:   &session.TenantID,
		BusinessID: &business.ID,
		Details:    map[string]any{"path": path},
		Severity:   domain.SeverityInfo,
		Timestamp:  time.Now().UTC(),
	})

	features := make(map[string]struct{}, len(business.Features))
	for _, f := range business.Features {
		features[f] = struct{}{}
	}
	return &domain.TenantContext{
		TenantID:         business.TenantID,
		BusinessID:       business.ID,
		BusinessName:     business.Name,
		IsActive:         business.IsActive,
		SubscriptionTier: business.SubscriptionTier,
		Features:         features,
	}, nil
}

func (g *TenantGuard) auditEntitlementFailure(ctx context.Context, session *domain.ValidatedSession, requestedTenantID uuid.UUID, path string, err error) {
	event := domain.SecurityEvent{
		UserID:    &session.UserID,
		Email:     session.Email,
		TenantID:  &session.TenantID,
		Severity:  domain.SeverityHigh,
		Timestamp: time.Now().UTC(),
		Details: map[string]any{
			"requested_tenant_id": requestedTenantID.String(),
			"path":                path,
		},
	}

	var unauthorized *domain.UnauthorizedError
	var isolation *domain.TenantIsolationError
	switch {
	case errors.As(err, &unauthorized) && unauthorized.Code == domain.CodeTenantAccessDenied:
		event.Type = domain.EventCrossTenantAccessAttempt
	case errors.As(err, &unauthorized) && unauthorized.Code == domain.CodeBusinessAccessDenied:
		event.Type = domain.EventUnauthorizedBusinessAccess
	case errors.As(err, &isolation):
		event.Type = domain.EventInvalidTenantAccess
	default:
		event.Type = domain.EventInvalidTenantAccess
	}

	g.audit.Record(ctx, event)
}

// ValidateBusinessContext answers "may this session act within business
// B" as a boolean gate. It applies the identical entitlement logic as
// Authorize and returns false rather than erroring on any failure.
// A nil businessID checks the session's own business scope.
func (g *TenantGuard) ValidateBusinessContext(ctx context.Context, session *domain.ValidatedSession, businessID *uuid.UUID) bool {
	business, err := g.checkBusinessEntitlement(ctx, session, session.TenantID)
	if err != nil {
		return false
	}
	if businessID != nil && business.ID != *businessID {
		return false
	}
	return true
}

// ValidateResourceOwnership generalizes the tenant check to arbitrary
// rows addressed by opaque id. It must run before any update or delete
// of such a resource: id-addressed endpoints are the easiest vector for
// slipping a foreign tenant's identifier into a URL. A missing row is
// reported as not owned without an audit event; a tenant or business
// mismatch emits CROSS_TENANT_RESOURCE_ACCESS.
func (g *TenantGuard) ValidateResourceOwnership(ctx context.Context, session *domain.ValidatedSession, table string, resourceID uuid.UUID, tenantColumn, businessColumn string) (bool, error) {
	ownership, err := g.resources.FetchOwnership(ctx, table, resourceID, tenantColumn, businessColumn)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, &domain.TenantIsolationError{Code: domain.CodeTenantLookupFailed, Message: "resource ownership lookup failed", Err: err}
	}

	mismatch := ownership.TenantID != session.TenantID
	if !mismatch && businessColumn != "" {
		if session.BusinessID == nil || ownership.BusinessID == nil || *ownership.BusinessID != *session.BusinessID {
			mismatch = true
		}
	}

	if mismatch {
		g.audit.Record(ctx, domain.SecurityEvent{
			Type:     domain.EventCrossTenantResourceAccess,
			UserID:   &session.UserID,
			Email:    session.Email,
			TenantID: &session.TenantID,
			Details: map[string]any{
				"table":           table,
				"resource_id":     resourceID.String(),
				"resource_tenant": ownership.TenantID.String(),
				"tenant_column":   tenantColumn,
				"business_column": businessColumn,
			},
			Severity:  domain.SeverityHigh,
			Timestamp: time.Now().UTC(),
		})
		return false, nil
	}

	return true, nil
}
