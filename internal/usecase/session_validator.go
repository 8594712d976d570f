package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/user/tenant-guard/internal/domain"
)

// sessionClaims are the claims this layer reads from a bearer token.
// Tenant, business, and permission data are deliberately absent: they
// are resolved from the user store so a forged or stale claim cannot
// steer the session into another tenant.
type sessionClaims struct {
	Email     string `json:"email"`
	SessionID string `json:"session_id"`
	jwt.RegisteredClaims
}

// SessionValidator turns a raw bearer credential into a
// ValidatedSession or a typed authentication failure.
type SessionValidator struct {
	users      domain.UserRepository
	businesses domain.BusinessRepository
	sessions   domain.SessionActivityRepository
	audit      domain.AuditSink
	logger     *slog.Logger
	secret     []byte
}

// NewSessionValidator creates a new SessionValidator. The sessions
// repository is only used by the advisory security checks and may be
// nil.
func NewSessionValidator(
	users domain.UserRepository,
	businesses domain.BusinessRepository,
	sessions domain.SessionActivityRepository,
	audit domain.AuditSink,
	logger *slog.Logger,
	secret string,
) *SessionValidator {
	return &SessionValidator{
		users:      users,
		businesses: businesses,
		sessions:   sessions,
		audit:      audit,
		logger:     logger.With("component", "session_validator"),
		secret:     []byte(secret),
	}
}

// Validate runs the authentication gates in order, each failing fast.
// No partial session is ever returned.
func (v *SessionValidator) Validate(ctx context.Context, rawToken string, meta domain.RequestMeta) (*domain.ValidatedSession, error) {
	if rawToken == "" {
		return nil, v.failAuth(ctx, meta, domain.EventAuthenticationFailure, domain.CodeNoToken, "no credential supplied", nil, nil, "")
	}

	claims := &sessionClaims{}
	_, err := jwt.ParseWithClaims(rawToken, claims, func(token *jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, v.failAuth(ctx, meta, domain.EventAuthenticationFailure, domain.CodeTokenExpired, "credential has expired", nil, nil, claims.Email)
		}
		return nil, v.failAuth(ctx, meta, domain.EventAuthenticationFailure, domain.CodeInvalidToken, "credential is malformed or has an invalid signature", map[string]any{"parse_error": err.Error()}, nil, "")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, v.failAuth(ctx, meta, domain.EventAuthenticationFailure, domain.CodeInvalidToken, "credential subject is not a valid id", nil, nil, claims.Email)
	}

	// Identity, tenant binding, and role assignments come exclusively
	// from the authoritative store.
	user, err := v.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, v.failAuth(ctx, meta, domain.EventInvalidUserAccess, domain.CodeUserInactive, "principal not found or inactive", nil, &userID, claims.Email)
		}
		return nil, &domain.TenantIsolationError{Code: domain.CodeTenantLookupFailed, Message: "user lookup failed", Err: err}
	}
	if !user.IsActive {
		return nil, v.failAuth(ctx, meta, domain.EventInvalidUserAccess, domain.CodeUserInactive, "principal not found or inactive", nil, &userID, user.Email)
	}

	if user.BusinessID != nil {
		business, err := v.businesses.FindByID(ctx, *user.BusinessID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, v.failAuth(ctx, meta, domain.EventInvalidUserAccess, domain.CodeBusinessInactive, "associated business not found", map[string]any{"business_id": user.BusinessID.String()}, &userID, user.Email)
			}
			return nil, &domain.TenantIsolationError{Code: domain.CodeTenantLookupFailed, Message: "business lookup failed", Err: err}
		}
		if !business.IsActive {
			return nil, v.failAuth(ctx, meta, domain.EventInvalidUserAccess, domain.CodeBusinessInactive, "associated business is inactive", map[string]any{"business_id": business.ID.String()}, &userID, user.Email)
		}
	}

	session := &domain.ValidatedSession{
		UserID:      user.ID,
		Email:       user.Email,
		TenantID:    user.TenantID,
		BusinessID:  user.BusinessID,
		Permissions: RolesToPermissions(user.RoleAssignments),
		Roles:       RoleNames(user.RoleAssignments),
		SessionID:   claims.SessionID,
	}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}

	// Best-effort; a failed last-seen write must not fail the request.
	if err := v.users.TouchLastSeen(ctx, user.ID); err != nil {
		v.logger.Warn("failed to update last-seen timestamp", "error", err, "user_id", user.ID)
	}

	v.audit.Record(ctx, domain.SecurityEvent{
		Type:       domain.EventSuccessfulAuthentication,
		UserID:     &user.ID,
		Email:      user.Email,
		TenantID:   &user.TenantID,
		BusinessID: user.BusinessID,
		IPAddress:  meta.IPAddress,
		UserAgent:  meta.UserAgent,
		Severity:   domain.SeverityInfo,
		Timestamp:  time.Now().UTC(),
	})

	return session, nil
}

func (v *SessionValidator) failAuth(ctx context.Context, meta domain.RequestMeta, eventType domain.SecurityEventType, code, message string, details map[string]any, userID *uuid.UUID, email string) error {
	if details == nil {
		details = map[string]any{}
	}
	details["code"] = code
	details["path"] = meta.Path

	v.audit.Record(ctx, domain.SecurityEvent{
		Type:      eventType,
		UserID:    userID,
		Email:     email,
		Details:   details,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
		Severity:  domain.SeverityHigh,
		Timestamp: time.Now().UTC(),
	})

	return &domain.AuthenticationError{Code: code, Message: message}
}
