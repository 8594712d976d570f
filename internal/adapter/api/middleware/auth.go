package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/user/tenant-guard/internal/adapter/metrics"
	"github.com/user/tenant-guard/internal/domain"
	"github.com/user/tenant-guard/internal/usecase"
)

type contextKey string

const sessionContextKey contextKey = "validated_session"

// Auth is a middleware factory that validates the bearer credential on
// every request and stores the resulting session in the request
// context. The advisory session-security checks run after validation;
// they observe and audit but never block.
func Auth(validator *usecase.SessionValidator, m *metrics.SecurityMetrics, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			meta := domain.RequestMeta{
				IPAddress: clientIP(r),
				UserAgent: r.UserAgent(),
				Path:      r.URL.Path,
			}

			session, err := validator.Validate(r.Context(), bearerToken(r), meta)
			if err != nil {
				var authErr *domain.AuthenticationError
				if errors.As(err, &authErr) {
					if m != nil {
						m.AuthenticationsTotal.WithLabelValues(authErr.Code).Inc()
					}
					writeAuthError(w, http.StatusUnauthorized, authErr.Code, "authentication required")
					return
				}
				logger.Error("session validation failed", "error", err, "path", r.URL.Path)
				writeAuthError(w, http.StatusForbidden, domain.CodeTenantLookupFailed, "request could not be authorized")
				return
			}
			if m != nil {
				m.AuthenticationsTotal.WithLabelValues("ok").Inc()
			}

			validator.ValidateSessionSecurity(r.Context(), session, meta)

			ctx := context.WithValue(r.Context(), sessionContextKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFrom returns the validated session stored by the Auth
// middleware, or nil.
func SessionFrom(ctx context.Context) *domain.ValidatedSession {
	session, _ := ctx.Value(sessionContextKey).(*domain.ValidatedSession)
	return session
}

// WithSession returns a context carrying the session exactly as the
// Auth middleware stores it.
func WithSession(ctx context.Context, session *domain.ValidatedSession) context.Context {
	return context.WithValue(ctx, sessionContextKey, session)
}

// MetaFrom rebuilds the request metadata the same way Auth saw it.
func MetaFrom(r *http.Request) domain.RequestMeta {
	return domain.RequestMeta{
		IPAddress: clientIP(r),
		UserAgent: r.UserAgent(),
		Path:      r.URL.Path,
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeAuthError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message, "code": code})
}
