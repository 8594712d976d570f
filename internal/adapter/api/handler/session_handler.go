package handler

import (
	"net/http"
	"sort"

	"github.com/user/tenant-guard/internal/adapter/api/middleware"
	"github.com/user/tenant-guard/internal/domain"
)

// SessionHandler exposes the validated session back to the caller so
// the dashboard can drive its UI off the server-side decision, not its
// own copy of the rules.
type SessionHandler struct{}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler() *SessionHandler {
	return &SessionHandler{}
}

type sessionResponse struct {
	*domain.ValidatedSession
	Permissions []string `json:"permissions"`
	Roles       []string `json:"roles"`
}

// Get returns the current session's identity, scope, and flattened
// permissions. No credential material is included.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFrom(r.Context())
	if session == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required", "code": domain.CodeNoToken})
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{
		ValidatedSession: session,
		Permissions:      sortedKeys(session.Permissions),
		Roles:            sortedKeys(session.Roles),
	})
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
