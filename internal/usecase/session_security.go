package usecase

import (
	"context"
	"time"

	"github.com/user/tenant-guard/internal/domain"
)

// concurrentSessionCeiling is the advisory limit on simultaneously
// active sessions per principal.
const concurrentSessionCeiling = 5

// recentSessionIPWindow is how many recent sessions are compared when
// looking for an IP change.
const recentSessionIPWindow = 3

// ValidateSessionSecurity inspects the principal's recent session
// activity and emits audit events for suspicious patterns. Detection
// only: nothing here ever blocks the request, and repository failures
// are logged and swallowed.
func (v *SessionValidator) ValidateSessionSecurity(ctx context.Context, session *domain.ValidatedSession, meta domain.RequestMeta) {
	if v.sessions == nil {
		return
	}

	count, err := v.sessions.ActiveSessionCount(ctx, session.UserID)
	if err != nil {
		v.logger.Warn("failed to count active sessions", "error", err, "user_id", session.UserID)
	} else if count > concurrentSessionCeiling {
		v.audit.Record(ctx, domain.SecurityEvent{
			Type:     domain.EventSuspiciousConcurrentSessions,
			UserID:   &session.UserID,
			Email:    session.Email,
			TenantID: &session.TenantID,
			Details: map[string]any{
				"active_sessions": count,
				"ceiling":         concurrentSessionCeiling,
			},
			IPAddress: meta.IPAddress,
			UserAgent: meta.UserAgent,
			Severity:  domain.SeverityHigh,
			Timestamp: time.Now().UTC(),
		})
	}

	recent, err := v.sessions.RecentActivity(ctx, session.UserID, recentSessionIPWindow)
	if err != nil {
		v.logger.Warn("failed to read recent session activity", "error", err, "user_id", session.UserID)
	} else if len(recent) > 0 && !containsIP(recent, meta.IPAddress) {
		v.audit.Record(ctx, domain.SecurityEvent{
			Type:     domain.EventIPAddressChange,
			UserID:   &session.UserID,
			Email:    session.Email,
			TenantID: &session.TenantID,
			Details: map[string]any{
				"new_ip":     meta.IPAddress,
				"recent_ips": recentIPs(recent),
			},
			IPAddress: meta.IPAddress,
			UserAgent: meta.UserAgent,
			Severity:  domain.SeverityHigh,
			Timestamp: time.Now().UTC(),
		})
	}

	// Recorded after the checks so the current request's IP does not
	// mask its own change.
	activity := domain.SessionActivity{
		SessionID: session.SessionID,
		UserID:    session.UserID,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
		SeenAt:    time.Now().UTC(),
	}
	if err := v.sessions.RecordActivity(ctx, activity); err != nil {
		v.logger.Warn("failed to record session activity", "error", err, "user_id", session.UserID)
	}
}

func containsIP(activities []domain.SessionActivity, ip string) bool {
	for _, a := range activities {
		if a.IPAddress == ip {
			return true
		}
	}
	return false
}

func recentIPs(activities []domain.SessionActivity) []string {
	ips := make([]string, 0, len(activities))
	for _, a := range activities {
		ips = append(ips, a.IPAddress)
	}
	return ips
}
